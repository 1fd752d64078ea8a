package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Ning0612/lsparse/internal/core/name"
	"github.com/Ning0612/lsparse/internal/domain"
	"github.com/Ning0612/lsparse/internal/logger"
)

// Config represents the complete configuration for lsparse
type Config struct {
	Parser    ParserConfig    `mapstructure:"parser"`
	Output    OutputConfig    `mapstructure:"output"`
	Log       LogConfig       `mapstructure:"log"`
	Snapshots SnapshotsConfig `mapstructure:"snapshots"`

	// Hosts listings can be fetched from over SSH
	Hosts []domain.Host `mapstructure:"hosts"`
}

// ParserConfig selects parser options
type ParserConfig struct {
	// Dialect is the quoting style the listing was produced with: c, escape, literal
	Dialect string `mapstructure:"dialect"`

	// SkipDotEntries drops "." and ".."
	SkipDotEntries bool `mapstructure:"skip_dot_entries"`

	// AllowAccessMarker accepts a trailing '.', '+' or '@' on the mode column
	AllowAccessMarker bool `mapstructure:"allow_access_marker"`

	// Mode is fail-fast or collect
	Mode domain.ErrorPolicy `mapstructure:"mode"`
}

// OutputConfig selects how results are printed
type OutputConfig struct {
	Format domain.OutputFormat `mapstructure:"format"`
}

// LogConfig mirrors logger.Config in a file-friendly form
type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig enables rotated file logging
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// SnapshotsConfig locates the snapshot database
type SnapshotsConfig struct {
	Dir string `mapstructure:"dir"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Parser: ParserConfig{
			Dialect: string(name.DialectC),
			Mode:    domain.PolicyCollect,
		},
		Output: OutputConfig{Format: domain.OutputTable},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File: LogFileConfig{
				MaxSizeMB:  10,
				MaxAgeDays: 30,
				MaxBackups: 3,
			},
		},
		Snapshots: SnapshotsConfig{Dir: DefaultSnapshotDir()},
	}
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	if !name.Dialect(c.Parser.Dialect).IsValid() {
		return fmt.Errorf("%w: unknown parser dialect: %s", domain.ErrConfigInvalid, c.Parser.Dialect)
	}
	if !c.Parser.Mode.IsValid() {
		return fmt.Errorf("%w: unknown parser mode: %s", domain.ErrConfigInvalid, c.Parser.Mode)
	}
	if !c.Output.Format.IsValid() {
		return fmt.Errorf("%w: unknown output format: %s", domain.ErrConfigInvalid, c.Output.Format)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}
	if _, err := logger.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	hostNames := make(map[string]bool)
	for _, h := range c.Hosts {
		if err := h.Validate(); err != nil {
			return err
		}
		if hostNames[h.Name] {
			return fmt.Errorf("%w: duplicate host name: %s", domain.ErrConfigInvalid, h.Name)
		}
		hostNames[h.Name] = true
	}

	return nil
}

// GetHost returns a host by name
func (c *Config) GetHost(name string) (*domain.Host, error) {
	for i := range c.Hosts {
		if c.Hosts[i].Name == name {
			return &c.Hosts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrHostNotFound, name)
}

// LoggerConfig converts the log section for logger.Init.
// Logs go to stderr so stdout stays clean for parse output.
// Unknown level or format names fall back to info and text; Validate rejects them.
func (c *Config) LoggerConfig() logger.Config {
	level, _ := logger.ParseLevel(c.Log.Level)
	format, _ := logger.ParseFormat(c.Log.Format)
	cfg := logger.Config{
		Level:   level,
		Format:  format,
		Outputs: []logger.OutputConfig{{Type: logger.OutputStderr}},
	}
	if c.Log.File.Path != "" {
		cfg.Outputs = append(cfg.Outputs, logger.OutputConfig{Type: logger.OutputFile})
		cfg.File = logger.FileConfig{
			Enabled:    true,
			Path:       ExpandPath(c.Log.File.Path),
			MaxSizeMB:  c.Log.File.MaxSizeMB,
			MaxAgeDays: c.Log.File.MaxAgeDays,
			MaxBackups: c.Log.File.MaxBackups,
			Compress:   c.Log.File.Compress,
		}
	}
	return cfg
}

// DefaultSnapshotDir returns the data directory for the snapshot database
func DefaultSnapshotDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "lsparse")
	}
	return filepath.Join(".", ".lsparse")
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
