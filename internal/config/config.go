// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/ssdtrim/internal/ctxlog"
	"github.com/matt-FFFFFF/ssdtrim/internal/drive"
	"github.com/spf13/afero"
)

const (
	// DefaultThrottleInterval is the minimum spacing of throttled progress updates.
	DefaultThrottleInterval = 500 * time.Millisecond
	// DefaultDayOfMonth is the day scheduled tasks run on.
	DefaultDayOfMonth = 1
	// DefaultRunAs is the account scheduled tasks run under.
	DefaultRunAs = "SYSTEM"

	defaultBaseFolderName = "SSDTools"
	maxDayOfMonth         = 31
)

var (
	// ErrInvalidYaml is returned when the configuration cannot be decoded.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrInvalidConfig wraps all validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrEmptyBaseFolder is returned when no base folder can be determined.
	ErrEmptyBaseFolder = errors.New("base folder must not be empty")
	// ErrInvalidLogLevel is returned for an unknown log level.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidThrottleInterval is returned for a throttle interval that is not positive.
	ErrInvalidThrottleInterval = errors.New("throttle interval must be greater than zero")
	// ErrInvalidDayOfMonth is returned for a day outside 1-31.
	ErrInvalidDayOfMonth = errors.New("schedule day of month must be between 1 and 31")
	// ErrInvalidDriveEntry is returned for an exclude_drives entry that is not a drive letter.
	ErrInvalidDriveEntry = errors.New("exclude_drives entries must be drive letters")
	// ErrEmptyRunAs is returned when the scheduled task account is blank.
	ErrEmptyRunAs = errors.New("schedule run_as must not be empty")
)

// Schedule controls the monthly scheduled tasks.
type Schedule struct {
	DayOfMonth int    `yaml:"day_of_month"`
	RunAs      string `yaml:"run_as"`
}

// Config is the decoded configuration.
type Config struct {
	BaseFolder       string        `yaml:"base_folder"`
	LogLevel         string        `yaml:"log_level"`
	ThrottleInterval time.Duration `yaml:"throttle_interval"`
	Schedule         Schedule      `yaml:"schedule"`
	ExcludeDrives    DriveList     `yaml:"exclude_drives"`
}

// DriveList is a list of drive letters. In YAML each entry is either a
// scalar or a bare key such as "D:", which decodes as a single-key mapping.
type DriveList []string

// UnmarshalYAML implements yaml.InterfaceUnmarshaler.
func (d *DriveList) UnmarshalYAML(unmarshal func(any) error) error {
	var raw []any
	if err := unmarshal(&raw); err != nil {
		return err
	}

	var list DriveList

	for i, item := range raw {
		switch v := item.(type) {
		case string:
			list = append(list, v)
		case map[string]any:
			if len(v) != 1 {
				return fmt.Errorf("exclude_drives[%d]: %w", i, ErrInvalidDriveEntry)
			}

			for k, val := range v {
				if val != nil {
					return fmt.Errorf("exclude_drives[%d]: %w", i, ErrInvalidDriveEntry)
				}

				list = append(list, k+":")
			}
		default:
			return fmt.Errorf("exclude_drives[%d]: %w: %v", i, ErrInvalidDriveEntry, item)
		}
	}

	*d = list

	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

// Load returns the default configuration when url is empty, otherwise it
// fetches, decodes and validates the file at url.
func Load(ctx context.Context, url string) (*Config, error) {
	if url == "" {
		ctxlog.Debug(ctx, "no configuration file given, using defaults")

		cfg := Default()

		return cfg, cfg.Validate()
	}

	data, err := Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	ctxlog.Debug(ctx, "configuration fetched", "url", url, "bytes", len(data))

	return Parse(data)
}

// Parse decodes and validates YAML. Unknown keys are rejected and missing
// keys take their default values.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}

	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidYaml, yaml.FormatError(err, false, true))
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every field and reports all problems at once.
// Valid exclude letters are normalised in place.
func (c *Config) Validate() error {
	var merr *multierror.Error

	if c.BaseFolder == "" {
		merr = multierror.Append(merr, ErrEmptyBaseFolder)
	}

	if c.LogLevel != "" {
		if _, ok := ctxlog.ParseLevel(c.LogLevel); !ok {
			merr = multierror.Append(merr, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel))
		}
	}

	if c.ThrottleInterval <= 0 {
		merr = multierror.Append(merr, fmt.Errorf("%w: %s", ErrInvalidThrottleInterval, c.ThrottleInterval))
	}

	if c.Schedule.DayOfMonth < 1 || c.Schedule.DayOfMonth > maxDayOfMonth {
		merr = multierror.Append(merr, fmt.Errorf("%w: %d", ErrInvalidDayOfMonth, c.Schedule.DayOfMonth))
	}

	if c.Schedule.RunAs == "" {
		merr = multierror.Append(merr, ErrEmptyRunAs)
	}

	var excluded DriveList

	for _, l := range c.ExcludeDrives {
		n, err := drive.Normalise(l)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}

		excluded = append(excluded, n)
	}

	if err := merr.ErrorOrNil(); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	c.ExcludeDrives = excluded

	return nil
}

// Excluded reports whether the normalised letter is in ExcludeDrives.
func (c *Config) Excluded(letter string) bool {
	return slices.Contains(c.ExcludeDrives, letter)
}

// WrapperFolder is where scheduled task wrapper scripts are written.
func (c *Config) WrapperFolder() string {
	return filepath.Join(c.BaseFolder, "TrimTasks")
}

func (c *Config) applyDefaults() {
	if c.BaseFolder == "" {
		c.BaseFolder = defaultBaseFolder()
	}

	if c.ThrottleInterval == 0 {
		c.ThrottleInterval = DefaultThrottleInterval
	}

	if c.Schedule.DayOfMonth == 0 {
		c.Schedule.DayOfMonth = DefaultDayOfMonth
	}

	if c.Schedule.RunAs == "" {
		c.Schedule.RunAs = DefaultRunAs
	}
}

func defaultBaseFolder() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, "Documents", defaultBaseFolderName)
}

// ReadFile reads a local configuration file through FsFactory.
func ReadFile(path string) ([]byte, error) {
	b, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return nil, errors.Join(ErrGetConfigFile, err)
	}

	return b, nil
}
