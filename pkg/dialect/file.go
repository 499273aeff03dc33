package dialect

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for dialect files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported dialect file format")

// Supported dialect file formats.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// FormatFromPath returns the dialect file format implied by the file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadFile reads a dialect definition from a YAML or TOML file.
// A file without a name takes the file's base name.
func LoadFile(path string) (Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Config{}, err
	}

	raw := koanf.New(".")
	switch format {
	case FormatYAML:
		if err := raw.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load dialect file %s: %w", path, err)
		}
	case FormatTOML:
		data, err := file.Provider(path).ReadBytes()
		if err != nil {
			return Config{}, fmt.Errorf("failed to read dialect file %s: %w", path, err)
		}
		if err := loadTOML(raw, data); err != nil {
			return Config{}, fmt.Errorf("failed to parse dialect file %s: %w", path, err)
		}
	}

	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	cfg, err := decode(raw, fallback)
	if err != nil {
		return Config{}, fmt.Errorf("dialect file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads a dialect definition from raw YAML or TOML bytes.
func Parse(data []byte, format string) (Config, error) {
	raw := koanf.New(".")
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		m, err := yaml.Parser().Unmarshal(data)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse dialect: %w", err)
		}
		if err := raw.Load(confmap.Provider(m, ""), nil); err != nil {
			return Config{}, err
		}
	case FormatTOML:
		if err := loadTOML(raw, data); err != nil {
			return Config{}, fmt.Errorf("failed to parse dialect: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return decode(raw, "")
}

func loadTOML(k *koanf.Koanf, data []byte) error {
	var m map[string]any
	if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return err
	}
	return k.Load(confmap.Provider(m, ""), nil)
}

// decode layers the raw file values over the base dialect named by
// "extends" (if any), decodes the result and validates it.
func decode(raw *koanf.Koanf, fallbackName string) (Config, error) {
	k := koanf.New(".")
	if base := raw.String("extends"); base != "" {
		baseCfg, err := Lookup(base)
		if err != nil {
			return Config{}, fmt.Errorf("extends: %w", err)
		}
		if err := k.Load(confmap.Provider(baseCfg.values(), ""), nil); err != nil {
			return Config{}, err
		}
	}
	if err := k.Merge(raw); err != nil {
		return Config{}, err
	}

	var out Config
	err := k.UnmarshalWithConf("", &out, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.ComposeDecodeHookFunc(mapstructure.StringToSliceHookFunc(",")),
			Result:           &out,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			TagName:          "koanf",
		},
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode dialect: %w", err)
	}
	if out.Name == "" {
		out.Name = fallbackName
	}

	cfg := Extend(out).Name(out.Name).Build()
	cfg.Extends = out.Extends
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// values returns the config as a koanf-keyed map. The name is left out so
// an extending file without a name does not inherit it.
func (c Config) values() map[string]any {
	return map[string]any{
		"reserved_commands":          c.ReservedCommands,
		"reserved_dependent_clauses": c.ReservedDependentClauses,
		"reserved_binary_commands":   c.ReservedBinaryCommands,
		"reserved_joins":             c.ReservedJoins,
		"reserved_join_conditions":   c.ReservedJoinConditions,
		"reserved_keywords":          c.ReservedKeywords,
		"open_parens":                c.OpenParens,
		"close_parens":               c.CloseParens,
		"string_types":               c.StringTypes,
		"ident_types":                c.IdentTypes,
		"line_comment_types":         c.LineCommentTypes,
		"operators":                  c.Operators,
		"extra_ident_chars":          c.ExtraIdentChars,
	}
}

// Marshal renders a config as YAML in the same shape LoadFile reads.
func Marshal(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yamlv3.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to marshal dialect %s: %w", cfg.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
