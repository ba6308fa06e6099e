package utils

import (
	"fmt"
	"strings"

	"github.com/braunma/steelconnect-import/internal/constants"
)

// GetIDFromObject extracts an ID from various SCM object formats.
// SCM identifiers are strings such as "site-Berlin-1a2b3c".
func GetIDFromObject(obj interface{}) string {
	if obj == nil {
		return ""
	}

	switch v := obj.(type) {
	case string:
		return v
	case map[string]interface{}:
		if id, ok := v["id"].(string); ok {
			return id
		}
		if id, ok := v["id"].(float64); ok {
			return fmt.Sprintf("%d", int(id))
		}
	}

	return ""
}

// GetString returns obj[key] when it is a string, "" otherwise
func GetString(obj map[string]interface{}, key string) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}

// GetStringSlice returns obj[key] as a []string, skipping non-string entries
func GetStringSlice(obj map[string]interface{}, key string) []string {
	raw, ok := obj[key].([]interface{})
	if !ok {
		if s, ok := obj[key].([]string); ok {
			return s
		}
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// SplitTags splits the tags column into a clean list
func SplitTags(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		for _, sep := range constants.TagSeparators {
			if r == sep {
				return true
			}
		}
		return false
	})

	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" && !Contains(tags, f) {
			tags = append(tags, f)
		}
	}
	return tags
}

// MergeTags appends extra tags that are not already present
func MergeTags(tags []string, extra ...string) []string {
	result := make([]string, 0, len(tags)+len(extra))
	result = append(result, tags...)
	for _, tag := range extra {
		if tag != "" && !Contains(result, tag) {
			result = append(result, tag)
		}
	}
	return result
}

// IsDHCP reports whether an address column asks for DHCP
func IsDHCP(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), constants.DHCPKeyword)
}

// OrDHCP returns value, or "dhcp" when value is empty
func OrDHCP(value string) string {
	if value == "" {
		return constants.DHCPKeyword
	}
	return value
}

// Status returns a count in human-readable format, e.g. "* Found 2 sites in 'acme'."
func Status(category string, size int, suffix string) string {
	pluralization := "s"
	if size == 1 {
		pluralization = ""
	}
	if suffix == "" {
		return fmt.Sprintf("* Found %d %s%s.", size, category, pluralization)
	}
	return fmt.Sprintf("* Found %d %s%s %s.", size, category, pluralization, suffix)
}

// Contains checks if a string slice contains a specific string
func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
