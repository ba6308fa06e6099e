package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/braunma/steelconnect-import/internal/config"
	"github.com/braunma/steelconnect-import/internal/constants"
	"github.com/braunma/steelconnect-import/pkg/client"
	"github.com/braunma/steelconnect-import/pkg/importer"
	"github.com/braunma/steelconnect-import/pkg/loader"
	"github.com/braunma/steelconnect-import/pkg/models"
	"github.com/braunma/steelconnect-import/pkg/report"
	"github.com/braunma/steelconnect-import/pkg/utils"
)

var (
	configFile  string
	envFile     string
	keepSites   []string
	managedOnly bool
	assumeYes   bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(config.New()).ExecuteContext(ctx)
	stop()

	code := exitCode(err)
	if code == constants.ExitFatal {
		utils.NewLogger(false).Error("Aborted", err)
	}
	os.Exit(code)
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "steelconnect-import <controller> <organization> -f <file.csv>",
		Short: "SteelConnect Manager bulk site import",
		Long: `Creates sites, zones and uplinks in a SteelConnect Manager organization
from a CSV file, one site per row`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, v, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringP(config.KeyUsername, "u", "", "SCM user name (prompted when empty)")
	pf.StringP(config.KeyPassword, "p", "", "SCM password (prompted when empty)")
	pf.Int(config.KeyTimeout, constants.DefaultTimeout, "HTTP timeout in seconds")
	pf.Bool(config.KeyInsecure, false, "Skip TLS certificate verification")
	pf.Bool(config.KeyDryRun, false, "Simulate changes without applying them")
	pf.BoolP(config.KeyVerbose, "v", false, "Print API requests")
	pf.Bool(config.KeyNoColor, false, "Disable colored output")
	pf.String(config.KeyManagedTag, "", "Tag added to every imported site")
	pf.StringVar(&configFile, "config", config.DefaultConfigFile, "YAML configuration file")
	pf.StringVar(&envFile, "env-file", config.DefaultEnvFile, "Environment file with SCM_* variables")

	f := rootCmd.Flags()
	f.StringP(config.KeyFile, "f", "", "CSV file to import")
	f.Bool(config.KeyCleanupOnFailure, false, "Delete a site again when a later step of its row fails")
	f.String(config.KeyReport, "", "Write a YAML run report to this file")

	// Bind errors only happen for nil flags
	_ = v.BindPFlags(pf)
	_ = v.BindPFlags(f)

	rootCmd.AddCommand(newDeleteSitesCmd(v))
	return rootCmd
}

func newDeleteSitesCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-sites <controller> <organization>",
		Short: "Delete sites of an organization",
		Long: `Deletes every site of the organization except the ones passed with --keep.
With --managed-only only sites carrying the --managed-tag are deleted.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleteSites(cmd, v, args)
		},
	}

	cmd.Flags().StringSliceVar(&keepSites, "keep", nil, "Site names to keep (repeatable)")
	cmd.Flags().BoolVar(&managedOnly, "managed-only", false, "Only delete sites carrying the managed tag")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func runImport(cmd *cobra.Command, v *viper.Viper, args []string) error {
	cfg, logger, err := setup(cmd, v, args)
	if err != nil {
		return err
	}
	if cfg.File == "" {
		return errors.New("no CSV file given, use -f <file.csv>")
	}

	// A bad file fails before any request is made
	reader, err := loader.Open(cfg.File, logger)
	if err != nil {
		return err
	}
	defer reader.Close()

	ctx := cmd.Context()
	c, org, err := connect(ctx, cfg, logger, config.NewPrompter())
	if err != nil {
		return err
	}

	im := importer.NewImporter(c, logger, importer.Options{CleanupOnFailure: cfg.CleanupOnFailure})
	summary, runErr := im.Run(ctx, reader)

	if cfg.Report != "" {
		rep := report.New(report.Meta{
			Controller:   cfg.Controller,
			Organization: org.Name,
			File:         cfg.File,
			DryRun:       cfg.DryRun,
		}, summary)
		if err := rep.Write(cfg.Report); err != nil {
			logger.Error("Failed to write report", err)
			if runErr == nil {
				return err
			}
		} else {
			logger.Info("Report written to %s", cfg.Report)
		}
	}

	logger.Debug("Read %d data rows from %s", reader.Rows(), cfg.File)
	if c.IsDryRun() {
		logger.Warning("DRY RUN COMPLETE: No changes applied")
	}
	return runErr
}

func runDeleteSites(cmd *cobra.Command, v *viper.Viper, args []string) error {
	cfg, logger, err := setup(cmd, v, args)
	if err != nil {
		return err
	}
	if managedOnly && cfg.ManagedTag == "" {
		return errors.New("--managed-only requires --managed-tag")
	}

	ctx := cmd.Context()
	prompter := config.NewPrompter()
	c, org, err := connect(ctx, cfg, logger, prompter)
	if err != nil {
		return err
	}

	var managed func(*models.Site) bool
	if managedOnly {
		managed = c.Tags().IsManaged
	}

	sites := c.Sites()
	selected := importer.SelectSites(sites, keepSites, managed)
	logger.Info("%s", importer.DescribeSelection(selected, len(sites), org.Name))
	if len(selected) == 0 {
		logger.Success("Nothing to delete")
		return nil
	}
	for _, site := range selected {
		logger.Plain("  - %s (%s)", site.Name, site.ID)
	}

	if !assumeYes && !cfg.DryRun {
		questions := []string{
			fmt.Sprintf("Delete %d sites from '%s'?", len(selected), org.Name),
			"This cannot be undone. Really delete them?",
		}
		for _, q := range questions {
			ok, err := prompter.Confirm(q)
			if err != nil {
				return err
			}
			if !ok {
				logger.Warning("Aborted, nothing was deleted")
				return nil
			}
		}
	}

	return importer.DeleteSites(ctx, c, selected, logger)
}

// setup merges .env, config file, environment and flags and builds the logger
func setup(cmd *cobra.Command, v *viper.Viper, args []string) (*config.Config, *utils.Logger, error) {
	if err := config.LoadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
		return nil, nil, err
	}
	if err := config.ReadConfigFile(v, configFile, cmd.Flags().Changed("config")); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}

	utils.SetColorEnabled(!cfg.NoColor)
	logger := utils.NewLogger(cfg.DryRun)
	logger.SetVerbose(cfg.Verbose)

	controller, org, swapped := config.NormalizeTarget(args[0], args[1])
	if swapped {
		logger.Warning("Arguments look swapped, using controller '%s' and organization '%s'", controller, org)
	}
	cfg.Controller, cfg.Organization = controller, org

	return cfg, logger, nil
}

// connect resolves credentials, logs in and loads the organization inventory
func connect(ctx context.Context, cfg *config.Config, logger *utils.Logger, prompter *config.Prompter) (*client.SCMClient, *models.Organization, error) {
	if err := cfg.ResolveCredentials(prompter); err != nil {
		return nil, nil, err
	}

	c, err := client.NewClient(client.Config{
		Controller: cfg.Controller,
		Username:   cfg.Username,
		Password:   cfg.Password,
		Timeout:    time.Duration(cfg.Timeout) * time.Second,
		Insecure:   cfg.Insecure,
		DryRun:     cfg.DryRun,
		ManagedTag: cfg.ManagedTag,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Connecting to %s...", client.BuildBaseURL(cfg.Controller))
	org, err := c.Connect(ctx, cfg.Organization)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.IsAuthError() {
			return nil, nil, fmt.Errorf("authentication failed for user %s: %w", cfg.Username, err)
		}
		return nil, nil, err
	}

	logger.Success("Organization %s (%s)", org.Name, org.ID)
	logger.Plain("%s", utils.Status("site", c.Cache().Size(constants.ResourceSite), fmt.Sprintf("in '%s'", org.Name)))
	logger.Debug("%s", utils.Status("WAN", c.Cache().Size(constants.ResourceWAN), ""))
	return c, org, nil
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	if err == nil {
		return constants.ExitOK
	}
	var pErr *importer.PartialFailureError
	if errors.As(err, &pErr) {
		return constants.ExitRowsFailed
	}
	return constants.ExitFatal
}
