package report

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/braunma/steelconnect-import/pkg/importer"
)

// Report is the YAML document written after a run
type Report struct {
	RunID        string    `yaml:"run_id"`
	Controller   string    `yaml:"controller"`
	Organization string    `yaml:"organization"`
	File         string    `yaml:"file"`
	DryRun       bool      `yaml:"dry_run"`
	StartedAt    time.Time `yaml:"started_at"`
	FinishedAt   time.Time `yaml:"finished_at"`
	Interrupted  bool      `yaml:"interrupted,omitempty"`
	Totals       Totals    `yaml:"totals"`
	Rows         []Row     `yaml:"rows"`
}

// Totals counts row outcomes
type Totals struct {
	Rows      int `yaml:"rows"`
	Succeeded int `yaml:"succeeded"`
	Failed    int `yaml:"failed"`
}

// Row is one row result
type Row struct {
	Line      int    `yaml:"line"`
	Site      string `yaml:"site,omitempty"`
	Status    string `yaml:"status"`
	Stage     string `yaml:"stage,omitempty"`
	SiteID    string `yaml:"site_id,omitempty"`
	ZoneID    string `yaml:"zone_id,omitempty"`
	UplinkID  string `yaml:"uplink_id,omitempty"`
	Created   bool   `yaml:"site_created,omitempty"`
	CleanedUp bool   `yaml:"cleaned_up,omitempty"`
	Error     string `yaml:"error,omitempty"`
	ErrorKind string `yaml:"error_kind,omitempty"`
}

// Meta describes the run the summary belongs to
type Meta struct {
	Controller   string
	Organization string
	File         string
	DryRun       bool
}

// New builds a report from a run summary. A nil summary yields an empty report.
func New(meta Meta, summary *importer.Summary) *Report {
	r := &Report{
		RunID:        uuid.NewString(),
		Controller:   meta.Controller,
		Organization: meta.Organization,
		File:         meta.File,
		DryRun:       meta.DryRun,
		Rows:         []Row{},
	}
	if summary == nil {
		return r
	}

	r.StartedAt = summary.StartedAt
	r.FinishedAt = summary.FinishedAt
	r.Interrupted = summary.Interrupted
	r.Totals = Totals{Rows: summary.Total(), Succeeded: summary.Succeeded, Failed: summary.Failed}

	for _, res := range summary.Results {
		row := Row{
			Line:      res.Line,
			Site:      res.Site,
			Status:    string(res.Status),
			SiteID:    res.SiteID,
			ZoneID:    res.ZoneID,
			UplinkID:  res.UplinkID,
			Created:   res.SiteCreated,
			CleanedUp: res.CleanedUp,
		}
		if res.Err != nil {
			row.Stage = res.Stage
			row.Error = res.Err.Error()
			row.ErrorKind = importer.ErrorKind(res.Err)
		}
		r.Rows = append(r.Rows, row)
	}
	return r
}

// Marshal encodes the report as YAML
func (r *Report) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return data, nil
}

// Write writes the report to path, replacing any existing file
func (r *Report) Write(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
