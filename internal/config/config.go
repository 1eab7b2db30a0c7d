// Package config loads the techshop configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/techshop/internal/i18n"
	"github.com/roach88/techshop/internal/storage"
)

// EnvVar names the environment variable that points at the config file.
const EnvVar = "TECHSHOP_CONFIG"

// DefaultPath is read when neither --config nor EnvVar is set.
// A missing file at this path means defaults.
const DefaultPath = "techshop.yaml"

// Config is the full configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Locale   string         `yaml:"locale"`
	Log      LogConfig      `yaml:"log"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Identity IdentityConfig `yaml:"identity"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// LogConfig controls logging. File enables a rotating JSON log next to the
// text log on stderr.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type CheckoutConfig struct {
	PlacementDelay time.Duration `yaml:"placement_delay"`
}

type IdentityConfig struct {
	MinPasswordLength int           `yaml:"min_password_length"`
	MaxFailedAttempts int           `yaml:"max_failed_attempts"`
	Lockout           time.Duration `yaml:"lockout"`
	AllowSignUp       bool          `yaml:"allow_signup"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Backend: storage.BackendSQLite,
			Path:    "techshop.db",
		},
		Locale: string(i18n.Russian),
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  64,
			MaxBackups: 7,
			MaxAgeDays: 7,
		},
		Checkout: CheckoutConfig{
			PlacementDelay: time.Second,
		},
		Identity: IdentityConfig{
			MinPasswordLength: 6,
			MaxFailedAttempts: 5,
			Lockout:           15 * time.Minute,
			AllowSignUp:       true,
		},
	}
}

// Resolve picks the config path: explicit flag, then EnvVar, then DefaultPath.
// explicit reports whether the file must exist.
func Resolve(flag string) (path string, explicit bool) {
	if flag != "" {
		return flag, true
	}
	if env := os.Getenv(EnvVar); env != "" {
		return env, true
	}
	return DefaultPath, false
}

// Load reads path over the defaults. When mustExist is false a missing file
// yields Default().
func Load(path string, mustExist bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !mustExist && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults. Unknown keys are errors.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if !slices.Contains(storage.Backends, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend))
	}
	if c.Storage.Backend != storage.BackendMemory && c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path: required"))
	}
	if _, err := i18n.ParseLang(c.Locale); err != nil {
		errs = append(errs, fmt.Errorf("locale: %w", err))
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	if c.Checkout.PlacementDelay < 0 {
		errs = append(errs, errors.New("checkout.placement_delay: must not be negative"))
	}
	if c.Identity.MinPasswordLength < 1 {
		errs = append(errs, errors.New("identity.min_password_length: must be at least 1"))
	}
	if c.Identity.MaxFailedAttempts < 0 {
		errs = append(errs, errors.New("identity.max_failed_attempts: must not be negative"))
	}
	if c.Identity.Lockout < 0 {
		errs = append(errs, errors.New("identity.lockout: must not be negative"))
	}
	return errors.Join(errs...)
}
