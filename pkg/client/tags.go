package client

import (
	"github.com/braunma/steelconnect-import/pkg/models"
	"github.com/braunma/steelconnect-import/pkg/utils"
)

// TagManager handles the optional managed tag put on every imported site
type TagManager struct {
	managedTag string
}

// NewTagManager creates a new tag manager; an empty tag disables tagging
func NewTagManager(managedTag string) *TagManager {
	return &TagManager{managedTag: managedTag}
}

// ManagedTag returns the configured tag
func (tm *TagManager) ManagedTag() string {
	return tm.managedTag
}

// InjectTag adds the managed tag to a tag list
func (tm *TagManager) InjectTag(tags []string) []string {
	if tm.managedTag == "" {
		if tags == nil {
			return []string{}
		}
		return tags
	}
	return utils.MergeTags(tags, tm.managedTag)
}

// IsManaged checks if a site carries the managed tag.
// Without a managed tag every site counts as managed.
func (tm *TagManager) IsManaged(site *models.Site) bool {
	if tm.managedTag == "" {
		return true
	}
	return site.HasTag(tm.managedTag)
}
