package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Ning0612/lsparse/internal/domain"
)

// EnvPrefix is prepended to environment overrides, e.g. LSPARSE_PARSER_DIALECT
const EnvPrefix = "LSPARSE"

// DefaultConfigPaths returns the default paths to search for config files
func DefaultConfigPaths() []string {
	paths := []string{
		".",
		"./configs",
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "lsparse"))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "lsparse"))
		paths = append(paths, filepath.Join(homeDir, ".lsparse"))
	}

	return paths
}

// NewViper returns a viper instance with defaults and environment overrides.
// Callers may bind command-line flags to it before LoadFrom.
func NewViper() *viper.Viper {
	v := viper.New()

	def := Default()
	v.SetDefault("parser.dialect", def.Parser.Dialect)
	v.SetDefault("parser.skip_dot_entries", def.Parser.SkipDotEntries)
	v.SetDefault("parser.allow_access_marker", def.Parser.AllowAccessMarker)
	v.SetDefault("parser.mode", string(def.Parser.Mode))
	v.SetDefault("output.format", string(def.Output.Format))
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.file.path", def.Log.File.Path)
	v.SetDefault("log.file.max_size_mb", def.Log.File.MaxSizeMB)
	v.SetDefault("log.file.max_age_days", def.Log.File.MaxAgeDays)
	v.SetDefault("log.file.max_backups", def.Log.File.MaxBackups)
	v.SetDefault("log.file.compress", def.Log.File.Compress)
	v.SetDefault("snapshots.dir", def.Snapshots.Dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads and parses a configuration file.
// If path is empty, searches default locations for lsparse.yaml.
func Load(path string) (*Config, error) {
	return LoadFrom(NewViper(), path)
}

// LoadFrom reads configuration into v and decodes it.
// With an empty path and no file in the default locations the defaults
// (plus environment and bound flags) are used.
func LoadFrom(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("lsparse")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			// defaults only
		case path != "" && errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		default:
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
	}

	return decode(v)
}

// LoadFromString parses configuration from a YAML string
func LoadFromString(yamlContent string) (*Config, error) {
	v := NewViper()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	cfg.Snapshots.Dir = ExpandPath(cfg.Snapshots.Dir)
	for i := range cfg.Hosts {
		if cfg.Hosts[i].KeyFile != "" {
			cfg.Hosts[i].KeyFile = ExpandPath(cfg.Hosts[i].KeyFile)
		}
		if cfg.Hosts[i].KnownHosts != "" {
			cfg.Hosts[i].KnownHosts = ExpandPath(cfg.Hosts[i].KnownHosts)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
