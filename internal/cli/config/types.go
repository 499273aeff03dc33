// Package config provides configuration management for the sqlcst CLI.
//
// Values are layered, lowest to highest precedence: built-in defaults, the
// project file (sqlcst.yaml), SQLCST_* environment variables, and flags that
// were set explicitly on the command line.
package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/sqlcst/pkg/dialect"
)

// Default configuration values.
const (
	DefaultDialect   = "standard"
	DefaultOutput    = "auto" // TTY=text, otherwise JSON
	DefaultLogLevel  = "warn"
	DefaultCachePath = ".sqlcst/cache.db"
	DefaultJobs      = 0 // 0 means runtime.NumCPU()
)

// OutputFormats lists the accepted values of the output key.
var OutputFormats = []string{"auto", "text", "json", "yaml"}

// Config holds all CLI configuration options.
type Config struct {
	Dialect      string `koanf:"dialect"`
	DialectFile  string `koanf:"dialect_file"`
	OutputFormat string `koanf:"output"`
	Verbose      bool   `koanf:"verbose"`
	LogLevel     string `koanf:"log_level"`
	Jobs         int    `koanf:"jobs"`
	CachePath    string `koanf:"cache_path"`
	NoCache      bool   `koanf:"no_cache"`

	// ProjectRoot is the directory holding the config file, or the working
	// directory when there is none. Relative paths are resolved against it.
	ProjectRoot string `koanf:"-"`
}

// Default returns the configuration used when nothing else is loaded.
func Default() *Config {
	return &Config{
		Dialect:      DefaultDialect,
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		Jobs:         DefaultJobs,
		CachePath:    DefaultCachePath,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (want one of %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Dialect == "" && c.DialectFile == "" {
		return fmt.Errorf("dialect is required")
	}
	return nil
}

// Level returns the slog level for LogLevel. Verbose forces debug.
func (c *Config) Level() (slog.Level, error) {
	if c.Verbose {
		return slog.LevelDebug, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// LoadDialect resolves the configured dialect. A dialect file takes
// precedence over the dialect name.
func (c *Config) LoadDialect() (dialect.Config, error) {
	if c.DialectFile != "" {
		return dialect.LoadFile(resolvePathRelativeTo(c.DialectFile, c.ProjectRoot))
	}
	return dialect.Lookup(c.Dialect)
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
