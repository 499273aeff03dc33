package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read as configuration.
const EnvPrefix = "SQLCST_"

// configFileNames are searched in this order in each directory.
var configFileNames = []string{"sqlcst.yaml", "sqlcst.yml"}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Context keys shared between the root command and subcommands.
type (
	loggerKey struct{}
	configKey struct{}
)

var configFileUsed string

// configExistsIn returns the config file in dir, if any.
func configExistsIn(dir string) string {
	for _, name := range configFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if path := configExistsIn(dir); path != "" {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ResetConfig forgets the config file of the previous load. Used for testing.
func ResetConfig() {
	configFileUsed = ""
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	def := Default()

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"dialect":    def.Dialect,
		"output":     def.OutputFormat,
		"verbose":    false,
		"log_level":  def.LogLevel,
		"jobs":       def.Jobs,
		"cache_path": def.CachePath,
		"no_cache":   false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file: explicit, or searched upward from the working directory
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	projectRoot := cwd
	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	}
	configFileUsed = cfgFile
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Environment: SQLCST_DIALECT_FILE -> dialect_file
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	flagPaths := map[string]bool{}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if key == "dialect_file" || key == "cache_path" {
				flagPaths[key] = true
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	// Paths from flags are relative to the working directory, the others to
	// the project root.
	if flagPaths["dialect_file"] {
		cfg.DialectFile = resolvePathRelativeTo(cfg.DialectFile, cwd)
	}
	if flagPaths["cache_path"] {
		cfg.CachePath = resolvePathRelativeTo(cfg.CachePath, cwd)
	} else {
		cfg.CachePath = resolvePathRelativeTo(cfg.CachePath, projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// NewLogger builds the CLI logger: a text handler at the configured level.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// ConfigKey returns the context key used for storing the configuration.
func ConfigKey() any {
	return configKey{}
}

// GetConfig retrieves the configuration from the command context, falling
// back to the defaults.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return Default()
}
