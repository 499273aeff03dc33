package dialect

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Dialect registry. Entries are immutable configs; lookups hand out copies.
var (
	dialectsMu  sync.RWMutex
	dialects    = make(map[string]Config)
	defaultName string
)

// ErrUnknownDialect is returned when a dialect name is not registered.
var ErrUnknownDialect = errors.New("unknown dialect")

// Register registers a dialect in the global registry, replacing any dialect
// of the same name. Called by builtin dialects in their init() functions.
func Register(cfg Config) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[strings.ToLower(cfg.Name)] = cfg.Clone()
}

// Get returns a dialect by name.
func Get(name string) (Config, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	cfg, ok := dialects[strings.ToLower(name)]
	if !ok {
		return Config{}, false
	}
	return cfg.Clone(), true
}

// Lookup is Get with an error naming the registered dialects.
func Lookup(name string) (Config, error) {
	cfg, ok := Get(name)
	if !ok {
		return Config{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownDialect, name, strings.Join(List(), ", "))
	}
	return cfg, nil
}

// MustGet returns a dialect by name and panics if it is not registered.
func MustGet(name string) Config {
	cfg, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return cfg
}

// List returns all registered dialect names (sorted).
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetDefault marks a registered dialect as the default.
func SetDefault(name string) error {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	key := strings.ToLower(name)
	if _, ok := dialects[key]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownDialect, name)
	}
	defaultName = key
	return nil
}

// Default returns the default dialect.
func Default() Config {
	dialectsMu.RLock()
	name := defaultName
	dialectsMu.RUnlock()
	return MustGet(name)
}

// DefaultName returns the name of the default dialect.
func DefaultName() string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	return defaultName
}
