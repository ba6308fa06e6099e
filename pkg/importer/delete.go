package importer

import (
	"context"
	"fmt"

	"github.com/braunma/steelconnect-import/pkg/models"
	"github.com/braunma/steelconnect-import/pkg/utils"
)

// SiteDeleter is the part of the SCM client bulk deletion needs
type SiteDeleter interface {
	DeleteSite(ctx context.Context, site *models.Site) error
}

// SelectSites filters the sites to delete: kept names are excluded, and when
// managed is non-nil only sites it accepts are returned.
func SelectSites(sites []*models.Site, keep []string, managed func(*models.Site) bool) []*models.Site {
	var selected []*models.Site
	for _, site := range sites {
		if utils.Contains(keep, site.Name) {
			continue
		}
		if managed != nil && !managed(site) {
			continue
		}
		selected = append(selected, site)
	}
	return selected
}

// DeleteSites deletes every site in order and reports each outcome.
// Failures do not stop the loop; their count is returned as an error.
func DeleteSites(ctx context.Context, api SiteDeleter, sites []*models.Site, logger *utils.Logger) error {
	failed := 0
	for _, site := range sites {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := api.DeleteSite(ctx, site); err != nil {
			logger.Error("Deleting site %s", err, site.Name)
			failed++
			continue
		}
		logger.Success("Deleted site %s (%s)", site.Name, site.ID)
	}

	if failed > 0 {
		return &PartialFailureError{Failed: failed, Total: len(sites)}
	}
	return nil
}

// DescribeSelection returns a one-line description of what will be deleted
func DescribeSelection(selected []*models.Site, total int, org string) string {
	return fmt.Sprintf("%d of %d sites in '%s' selected for deletion", len(selected), total, org)
}
