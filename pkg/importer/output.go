package importer

import (
	"strings"
	"time"

	"github.com/braunma/steelconnect-import/pkg/models"
	"github.com/braunma/steelconnect-import/pkg/utils"
)

var separator = strings.Repeat("=", 79)

// printBanner shows what a row is about to configure
func (im *Importer) printBanner(rec *models.SiteRecord) {
	im.logger.Plain(separator)
	im.logger.Info("Site: %s, %s, %s", rec.Name, rec.LongName, rec.Location())
	im.logger.Plain("Zone: %s (%s) VLAN %d", rec.ZoneName, rec.ZoneIP, rec.VLAN)
	im.logger.Plain("Internet uplink IP:\t %s - gw %s", rec.InternetIP, utils.OrDHCP(rec.InternetGW))
	im.logger.Plain("%s uplink IP:\t\t %s - gw %s", rec.WANName, rec.WANIP, utils.OrDHCP(rec.WANGW))
}

// printResult prints the per-row result line
func (im *Importer) printResult(r RowResult) {
	label := r.Site
	if label == "" {
		label = "-"
	}

	if r.Status == StatusSucceeded {
		im.logger.Plain("%s line %d %s: site %s, zone %s, uplink %s",
			utils.StatusLabel(string(r.Status)), r.Line, label, r.SiteID, r.ZoneID, r.UplinkID)
		return
	}

	im.logger.Plain("%s line %d %s: %s failed: %v",
		utils.StatusLabel(string(r.Status)), r.Line, label, r.Stage, r.Err)
	if r.CleanedUp {
		im.logger.Warning("  site %s was removed again", r.SiteID)
	} else if r.SiteCreated {
		im.logger.Warning("  site %s was left in place", r.SiteID)
	}
}

// printSummary prints the final counts
func (im *Importer) printSummary(s *Summary) {
	im.logger.Plain(separator)
	im.logger.Info("Processed %d rows in %s", s.Total(), time.Since(s.StartedAt).Round(time.Millisecond))
	if s.Failed == 0 {
		im.logger.Success("%d succeeded, 0 failed", s.Succeeded)
		return
	}
	im.logger.Error("%d succeeded, %d failed", nil, s.Succeeded, s.Failed)
}
