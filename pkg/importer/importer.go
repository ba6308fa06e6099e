package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/braunma/steelconnect-import/pkg/client"
	"github.com/braunma/steelconnect-import/pkg/loader"
	"github.com/braunma/steelconnect-import/pkg/models"
	"github.com/braunma/steelconnect-import/pkg/utils"
)

// API is the part of the SCM client the import needs
type API interface {
	EnsureSite(ctx context.Context, rec *models.SiteRecord) (*models.Site, bool, error)
	CreateZone(ctx context.Context, siteID, name, subnet string, vlan int) (*models.Zone, error)
	FindWAN(ctx context.Context, name string) (*models.WAN, error)
	CreateUplink(ctx context.Context, req models.UplinkRequest) (*models.Uplink, error)
	DeleteSite(ctx context.Context, site *models.Site) error
}

// RecordSource yields CSV records until io.EOF
type RecordSource interface {
	Next() (*models.SiteRecord, error)
}

// Status of a processed row
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Pipeline stages, reported for failed rows
const (
	StageValidate = "validate"
	StageSite     = "site"
	StageZone     = "zone"
	StageWAN      = "wan"
	StageUplink   = "uplink"
)

// cleanupTimeout bounds the compensating delete, which also runs after an interrupt
const cleanupTimeout = 15 * time.Second

// Options tunes the import
type Options struct {
	// Delete a site created by a row when a later step of that row fails
	CleanupOnFailure bool
}

// RowResult is the outcome of one CSV row
type RowResult struct {
	Line        int
	Site        string
	Status      Status
	Stage       string
	SiteID      string
	SiteCreated bool
	ZoneID      string
	UplinkID    string
	CleanedUp   bool
	Err         error
}

// Summary aggregates all row results of a run
type Summary struct {
	Results     []RowResult
	Succeeded   int
	Failed      int
	Interrupted bool
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Total returns the number of rows processed
func (s *Summary) Total() int {
	return len(s.Results)
}

// PartialFailureError is returned by Run when at least one row failed
type PartialFailureError struct {
	Failed int
	Total  int
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%d of %d rows failed", e.Failed, e.Total)
}

// Importer drives the row-by-row import
type Importer struct {
	api    API
	logger *utils.Logger
	opts   Options
}

// NewImporter creates a new importer
func NewImporter(api API, logger *utils.Logger, opts Options) *Importer {
	return &Importer{
		api:    api,
		logger: logger,
		opts:   opts,
	}
}

// Run processes every record of src in order. Row failures are recorded and
// never stop the run; only a source error or cancellation does.
func (im *Importer) Run(ctx context.Context, src RecordSource) (*Summary, error) {
	summary := &Summary{StartedAt: time.Now()}
	defer func() { summary.FinishedAt = time.Now() }()

	for {
		if err := ctx.Err(); err != nil {
			summary.Interrupted = true
			im.logger.Warning("Import interrupted, %d rows processed", summary.Total())
			im.printSummary(summary)
			return summary, err
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		var result RowResult
		var vErr *loader.ValidationError
		switch {
		case errors.As(err, &vErr):
			result = RowResult{Line: vErr.Line, Status: StatusFailed, Stage: StageValidate, Err: err}
			im.logger.Plain(separator)
		case err != nil:
			return summary, fmt.Errorf("failed to read records: %w", err)
		default:
			result = im.importRow(ctx, rec)
		}

		summary.Results = append(summary.Results, result)
		if result.Status == StatusSucceeded {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		im.printResult(result)
	}

	im.printSummary(summary)

	if summary.Failed > 0 {
		return summary, &PartialFailureError{Failed: summary.Failed, Total: summary.Total()}
	}
	return summary, nil
}

// importRow runs site → zone → WAN → uplink for a single record
func (im *Importer) importRow(ctx context.Context, rec *models.SiteRecord) RowResult {
	result := RowResult{Line: rec.Line, Site: rec.Name, Status: StatusFailed}
	im.printBanner(rec)
	im.logger.Debug("Importing %s", rec.Label())

	site, created, err := im.api.EnsureSite(ctx, rec)
	if err != nil {
		result.Stage, result.Err = StageSite, err
		return result
	}
	result.SiteID, result.SiteCreated = site.ID, created
	if created {
		im.logger.Success("  Created site %s (%s)", site.Name, site.ID)
	} else {
		im.logger.Warning("  Site %s already exists (%s), reusing it", site.Name, site.ID)
	}

	zone, err := im.api.CreateZone(ctx, site.ID, rec.ZoneName, rec.ZoneIP, rec.VLAN)
	if err != nil {
		return im.fail(ctx, result, site, StageZone, err)
	}
	result.ZoneID = zone.ID
	im.logger.Success("  Configured zone %s (VLAN %d)", zone.Name, zone.VLAN)

	wan, err := im.api.FindWAN(ctx, rec.WANName)
	if err != nil {
		return im.fail(ctx, result, site, StageWAN, err)
	}

	uplink, err := im.api.CreateUplink(ctx, models.UplinkRequest{
		SiteID:     site.ID,
		WAN:        *wan,
		InternetIP: rec.InternetIP,
		InternetGW: rec.InternetGW,
		WANIP:      rec.WANIP,
		WANGW:      rec.WANGW,
		Zone:       zone,
	})
	if err != nil {
		return im.fail(ctx, result, site, StageUplink, err)
	}
	result.UplinkID = uplink.ID
	im.logger.Success("  Created %s uplink (%s)", wan.Name, uplink.Type)

	result.Status = StatusSucceeded
	return result
}

// fail marks the row failed and, if enabled, removes the site the row created
func (im *Importer) fail(ctx context.Context, result RowResult, site *models.Site, stage string, err error) RowResult {
	result.Stage, result.Err = stage, err

	if !im.opts.CleanupOnFailure || !result.SiteCreated {
		return result
	}

	// the row context may already be canceled by an interrupt
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	im.logger.Warning("  Removing site %s created by this row", site.Name)
	if cErr := im.api.DeleteSite(cleanupCtx, site); cErr != nil {
		result.Err = fmt.Errorf("%w (cleanup failed: %v)", err, cErr)
		return result
	}
	result.CleanedUp = true
	return result
}

// ErrorKind classifies a row error for reports
func ErrorKind(err error) string {
	var vErr *loader.ValidationError
	var nfErr *client.NotFoundError
	var apiErr *client.APIError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &vErr):
		return "validation"
	case errors.As(err, &nfErr):
		return "not_found"
	case errors.As(err, &apiErr):
		return "api"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
