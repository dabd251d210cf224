package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every environment variable, e.g. GOODNOTES_PDF_LOGLEVEL
	EnvPrefix = "GOODNOTES_PDF"

	// Default values
	DefaultLogLevel       = "info"
	DefaultMaxArchiveSize = 512 * 1024 * 1024 // 512MB
	DefaultMaxEntrySize   = 256 * 1024 * 1024 // 256MB

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Flag and configuration keys
const (
	KeyConfig         = "config"
	KeyDir            = "dir"
	KeyOut            = "out"
	KeyLogLevel       = "loglevel"
	KeyMaxArchiveSize = "maxarchivesize"
	KeyMaxEntrySize   = "maxentrysize"
	KeyWorkers        = "workers"
	KeyNoMerge        = "no-merge"
	KeyOverwrite      = "overwrite"
	KeyManifest       = "manifest"
)

// Config holds all configuration for goodnotes-pdf
type Config struct {
	// Directory is the root that MCP tool paths are confined to
	Directory string
	// OutputDir is where extracted PDFs go; empty means next to the archive
	OutputDir string

	// Extraction configuration
	MaxArchiveSize int64
	MaxEntrySize   int64
	Workers        int
	Merge          bool
	Overwrite      bool
	WriteManifest  bool

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Directory:      currentDir,
		MaxArchiveSize: DefaultMaxArchiveSize,
		MaxEntrySize:   DefaultMaxEntrySize,
		Workers:        runtime.NumCPU(),
		Merge:          true,
		Version:        "1.0.0",
		ServerName:     "goodnotes-pdf",
		LogLevel:       DefaultLogLevel,
	}
}

// RegisterFlags defines every configuration flag on fs
func RegisterFlags(fs *pflag.FlagSet) {
	RegisterCommonFlags(fs)
	RegisterExtractFlags(fs)
	RegisterServerFlags(fs)
}

// RegisterCommonFlags defines the flags shared by the command line and the MCP server
func RegisterCommonFlags(fs *pflag.FlagSet) {
	cfg := DefaultConfig()

	fs.String(KeyConfig, "", "Path to a YAML configuration file")
	fs.String(KeyLogLevel, cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64(KeyMaxArchiveSize, cfg.MaxArchiveSize, "Maximum archive size in bytes")
	fs.Int64(KeyMaxEntrySize, cfg.MaxEntrySize, "Maximum size of a single attachment in bytes")
	fs.Int(KeyWorkers, cfg.Workers, "Number of attachments read concurrently")
	fs.Bool(KeyNoMerge, false, "Do not build merged.pdf")
	fs.Bool(KeyOverwrite, cfg.Overwrite, "Replace existing output files")
	fs.Bool(KeyManifest, cfg.WriteManifest, "Write manifest.yaml next to the extracted PDFs")
}

// RegisterExtractFlags defines the flags of a single command line extraction
func RegisterExtractFlags(fs *pflag.FlagSet) {
	fs.StringP(KeyOut, "o", "", "Output directory for extracted PDFs (default: next to the archive)")
}

// RegisterServerFlags defines the flags of the MCP server
func RegisterServerFlags(fs *pflag.FlagSet) {
	fs.String(KeyDir, DefaultConfig().Directory, "Root directory that MCP tool paths are confined to")
}

// Load resolves configuration from defaults, an optional config file,
// GOODNOTES_PDF_* environment variables and the flags in fs, in increasing precedence
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	setupViperEnvironment(v, cfg)
	bindFlagsToViper(v, fs)

	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
	}

	populateConfigFromViper(v, cfg)

	// Expand paths if needed
	if cfg.Directory != "" {
		if expandedPath, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDir, cfg.Directory)
	v.SetDefault(KeyOut, cfg.OutputDir)
	v.SetDefault(KeyLogLevel, cfg.LogLevel)
	v.SetDefault(KeyMaxArchiveSize, cfg.MaxArchiveSize)
	v.SetDefault(KeyMaxEntrySize, cfg.MaxEntrySize)
	v.SetDefault(KeyWorkers, cfg.Workers)
	v.SetDefault(KeyNoMerge, !cfg.Merge)
	v.SetDefault(KeyOverwrite, cfg.Overwrite)
	v.SetDefault(KeyManifest, cfg.WriteManifest)
}

// bindFlagsToViper binds every flag that is defined on fs
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) {
	if fs == nil {
		return
	}
	for _, key := range []string{
		KeyConfig, KeyDir, KeyOut, KeyLogLevel, KeyMaxArchiveSize,
		KeyMaxEntrySize, KeyWorkers, KeyNoMerge, KeyOverwrite, KeyManifest,
	} {
		if flag := fs.Lookup(key); flag != nil {
			_ = v.BindPFlag(key, flag)
		}
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Directory = v.GetString(KeyDir)
	cfg.OutputDir = v.GetString(KeyOut)
	cfg.LogLevel = strings.ToLower(v.GetString(KeyLogLevel))
	cfg.MaxArchiveSize = v.GetInt64(KeyMaxArchiveSize)
	cfg.MaxEntrySize = v.GetInt64(KeyMaxEntrySize)
	cfg.Workers = v.GetInt(KeyWorkers)
	cfg.Merge = !v.GetBool(KeyNoMerge)
	cfg.Overwrite = v.GetBool(KeyOverwrite)
	cfg.WriteManifest = v.GetBool(KeyManifest)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Directory == "" {
		return errors.New("directory cannot be empty")
	}

	// Check if the root directory exists, create if it doesn't
	if _, err := os.Stat(c.Directory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.Directory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", c.Directory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access directory %s: %w", c.Directory, err)
	}

	if c.MaxArchiveSize <= 0 {
		return errors.New("maximum archive size must be positive")
	}
	if c.MaxEntrySize <= 0 {
		return errors.New("maximum entry size must be positive")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Directory: %s, OutputDir: %s, LogLevel: %s, MaxArchiveSize: %d, "+
		"MaxEntrySize: %d, Workers: %d, Merge: %t, Overwrite: %t, WriteManifest: %t}",
		c.Directory, c.OutputDir, c.LogLevel, c.MaxArchiveSize,
		c.MaxEntrySize, c.Workers, c.Merge, c.Overwrite, c.WriteManifest)
}
