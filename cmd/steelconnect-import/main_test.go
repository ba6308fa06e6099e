package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/braunma/steelconnect-import/internal/config"
	"github.com/braunma/steelconnect-import/internal/constants"
	"github.com/braunma/steelconnect-import/pkg/importer"
	"github.com/braunma/steelconnect-import/pkg/loader"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, constants.ExitOK},
		{"rows failed", &importer.PartialFailureError{Failed: 1, Total: 3}, constants.ExitRowsFailed},
		{"wrapped rows failed", fmt.Errorf("run: %w", &importer.PartialFailureError{Failed: 2, Total: 2}), constants.ExitRowsFailed},
		{"bad file", &loader.ParseError{Path: "x.csv", Missing: []string{"vlan"}}, constants.ExitFatal},
		{"interrupted", context.Canceled, constants.ExitFatal},
		{"other", errors.New("boom"), constants.ExitFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.expected {
				t.Errorf("exitCode() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCmd(config.New())

	for _, name := range []string{"username", "password", "timeout", "insecure", "dry-run", "verbose", "no-color", "managed-tag", "config", "env-file"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
	for _, name := range []string{"file", "cleanup-on-failure", "report"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}

	sub, _, err := cmd.Find([]string{"delete-sites"})
	if err != nil || sub.Name() != "delete-sites" {
		t.Fatalf("delete-sites subcommand not found: %v", err)
	}
	for _, name := range []string{"keep", "managed-only", "yes"} {
		if sub.Flags().Lookup(name) == nil {
			t.Errorf("delete-sites is missing --%s", name)
		}
	}
}

func TestRootCommandRequiresTwoArgs(t *testing.T) {
	cmd := newRootCmd(config.New())
	cmd.SetArgs([]string{"only-one"})
	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("expected an argument error")
	}
}

func TestFlagsReachConfig(t *testing.T) {
	v := config.New()
	cmd := newRootCmd(v)
	if err := cmd.ParseFlags([]string{"-u", "admin", "--timeout", "7", "--managed-tag", "imported", "--dry-run"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Username != "admin" || cfg.Timeout != 7 || cfg.ManagedTag != "imported" || !cfg.DryRun {
		t.Errorf("cfg = %+v", cfg)
	}
}
