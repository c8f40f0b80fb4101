// Package config provides configuration management and validation for nightlyprep.
// It centralizes all command-line options and runtime settings, providing
// validation logic to catch configuration errors before any file is touched.
package config

import (
	"path/filepath"
	"strings"

	"nightlyprep/internal/errors"
)

// LogFormat represents the supported output formats for the run report.
type LogFormat string

// Supported report formats.
const (
	LogFormatJSON LogFormat = "json"
	LogFormatCSV  LogFormat = "csv"
	LogFormatText LogFormat = "text"
)

// Defaults reproduce the glecs nightly build preparation.
const (
	DefaultPluginFile    = "plugin.cfg"
	DefaultNightlyName   = "GlecsNightly"
	DefaultVersionSuffix = "-nightly"
)

// Config holds all runtime configuration options for a preparation run.
type Config struct {
	Directory     string
	PluginFile    string
	NightlyName   string
	VersionSuffix string
	DryRun        bool
	Backup        bool
	Verbose       bool
	Debug         bool
	Quiet         bool
	LogFile       string
	LogFormat     LogFormat
}

// New returns a Config populated with the default nightly settings for dir.
func New(dir string) *Config {
	return &Config{
		Directory:     dir,
		PluginFile:    DefaultPluginFile,
		NightlyName:   DefaultNightlyName,
		VersionSuffix: DefaultVersionSuffix,
		LogFormat:     LogFormatText,
	}
}

// Validate checks every setting and normalises paths. Errors are returned as
// *errors.ConfigError.
func (c *Config) Validate() error {
	if err := c.validateDirectory(); err != nil {
		return err
	}

	if err := c.validatePluginFile(); err != nil {
		return err
	}

	if err := c.validateRewrite(); err != nil {
		return err
	}

	if err := c.validateLogFormat(); err != nil {
		return err
	}

	c.normalizeConfig()
	return nil
}

func (c *Config) validateDirectory() error {
	if c.Directory == "" {
		c.Directory = "."
	}

	absDir, err := filepath.Abs(c.Directory)
	if err != nil {
		return errors.NewConfigErrorWithPath(c.Directory, "invalid directory path", err)
	}
	c.Directory = absDir
	return nil
}

func (c *Config) validatePluginFile() error {
	if strings.TrimSpace(c.PluginFile) == "" {
		return errors.NewConfigError("plugin file is required", nil)
	}
	// The plugin file lives inside the addon directory.
	if filepath.IsAbs(c.PluginFile) {
		return errors.NewConfigErrorWithPath(c.PluginFile, "plugin file must be relative to the addon directory", nil)
	}
	clean := filepath.Clean(c.PluginFile)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return errors.NewConfigErrorWithPath(c.PluginFile, "plugin file must be inside the addon directory", nil)
	}
	c.PluginFile = clean
	return nil
}

func (c *Config) validateRewrite() error {
	if c.NightlyName == "" {
		return errors.NewConfigError("nightly name cannot be empty", nil)
	}
	if strings.ContainsAny(c.NightlyName, "\"\n") {
		return errors.NewConfigError("nightly name cannot contain quotes or newlines", nil)
	}
	if c.VersionSuffix == "" {
		return errors.NewConfigError("version suffix cannot be empty", nil)
	}
	if strings.ContainsAny(c.VersionSuffix, "\"\n") {
		return errors.NewConfigError("version suffix cannot contain quotes or newlines", nil)
	}
	return nil
}

func (c *Config) validateLogFormat() error {
	switch c.LogFormat {
	case "", LogFormatJSON, LogFormatCSV, LogFormatText:
		return nil
	default:
		return errors.NewConfigError("log format must be 'json', 'csv' or 'text'", nil)
	}
}

func (c *Config) normalizeConfig() {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	if c.LogFile != "" {
		if abs, err := filepath.Abs(c.LogFile); err == nil {
			c.LogFile = abs
		}
	}
}

// PluginPath returns the plugin configuration path inside the addon directory.
func (c *Config) PluginPath() string {
	return filepath.Join(c.Directory, c.PluginFile)
}

// IsVerbose reports whether verbose logging is enabled. Quiet wins.
func (c *Config) IsVerbose() bool {
	return c.Verbose && !c.Quiet
}

// IsDebug reports whether debug logging is enabled. Quiet wins.
func (c *Config) IsDebug() bool {
	return c.Debug && !c.Quiet
}

// ShouldLog determines if any logging should occur.
func (c *Config) ShouldLog() bool {
	return !c.Quiet
}

// LogLevel maps the verbosity flags onto a zap level: -1 debug, 0 info,
// 1 warn, 2 error.
func (c *Config) LogLevel() int8 {
	switch {
	case c.IsDebug():
		return -1
	case c.IsVerbose():
		return 0
	case c.Quiet:
		return 2
	default:
		return 1
	}
}
