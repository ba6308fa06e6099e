package utils

import (
	"strings"

	"github.com/fatih/color"
)

// SetColorEnabled toggles colored output globally
func SetColorEnabled(enabled bool) {
	color.NoColor = !enabled
}

// StatusLabel returns a fixed-width, colored label for a row status
func StatusLabel(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "succeeded":
		return color.New(color.FgGreen, color.Bold).Sprint("[ OK ]")
	case "failed", "error":
		return color.New(color.FgRed, color.Bold).Sprint("[FAIL]")
	case "skipped":
		return color.New(color.FgYellow).Sprint("[SKIP]")
	default:
		return "[" + strings.ToUpper(status) + "]"
	}
}

// HTTPStatusColor colors an HTTP status line by class
func HTTPStatusColor(code int, text string) string {
	switch {
	case code >= 200 && code < 300:
		return color.GreenString(text)
	case code >= 400:
		return color.RedString(text)
	default:
		return color.YellowString(text)
	}
}
