package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/braunma/steelconnect-import/internal/constants"
)

const (
	// EnvPrefix is prepended to every environment variable, e.g. SCM_USERNAME
	EnvPrefix = "SCM"

	DefaultConfigFile = "steelconnect.yaml"
	DefaultEnvFile    = ".env"
)

// Keys shared by flags, environment and config file
const (
	KeyUsername         = "username"
	KeyPassword         = "password"
	KeyTimeout          = "timeout"
	KeyInsecure         = "insecure"
	KeyDryRun           = "dry-run"
	KeyVerbose          = "verbose"
	KeyNoColor          = "no-color"
	KeyManagedTag       = "managed-tag"
	KeyCleanupOnFailure = "cleanup-on-failure"
	KeyReport           = "report"
	KeyFile             = "file"
)

// Config holds the settings of one invocation
type Config struct {
	Controller   string `mapstructure:"-"`
	Organization string `mapstructure:"-"`

	File             string `mapstructure:"file"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	Timeout          int    `mapstructure:"timeout"`
	Insecure         bool   `mapstructure:"insecure"`
	DryRun           bool   `mapstructure:"dry-run"`
	Verbose          bool   `mapstructure:"verbose"`
	NoColor          bool   `mapstructure:"no-color"`
	ManagedTag       string `mapstructure:"managed-tag"`
	CleanupOnFailure bool   `mapstructure:"cleanup-on-failure"`
	Report           string `mapstructure:"report"`
}

// New returns a viper instance with defaults and SCM_ environment lookup
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyUsername, "")
	v.SetDefault(KeyPassword, "")
	v.SetDefault(KeyTimeout, constants.DefaultTimeout)
	v.SetDefault(KeyInsecure, false)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyNoColor, false)
	v.SetDefault(KeyManagedTag, "")
	v.SetDefault(KeyCleanupOnFailure, false)
	v.SetDefault(KeyReport, "")
	v.SetDefault(KeyFile, "")
	return v
}

// LoadEnvFile loads KEY=value pairs from a .env file into the process
// environment. Variables already set are not overwritten. A missing file is
// only an error when required is set.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ReadConfigFile merges a YAML config file into v. A missing file is only an
// error when required is set.
func ReadConfigFile(v *viper.Viper, path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// Load decodes the merged settings of v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %d", cfg.Timeout)
	}
	cfg.ManagedTag = strings.TrimSpace(cfg.ManagedTag)
	return &cfg, nil
}

// NormalizeTarget returns controller and organization in the right order.
// Organization names never end in the controller domain, so arguments given
// the other way round are swapped.
func NormalizeTarget(controller, organization string) (string, string, bool) {
	if strings.HasSuffix(organization, constants.ControllerTLD) && !strings.HasSuffix(controller, constants.ControllerTLD) {
		return organization, controller, true
	}
	return controller, organization, false
}
