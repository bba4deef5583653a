// Package config implements layered configuration resolution for the test
// harness. An effective configuration is produced by merging three ranked
// sources, lowest priority first: the base defaults file (default.yaml,
// required), an optional environment-named overlay file, and process
// environment variables carrying a recognized prefix. A key present in a
// higher-priority source always shadows the same key from a lower one.
//
// The resolver is constructed explicitly in main and passed by reference to
// every collaborator that reads configuration; there is no package-level
// instance. Sources are read once per environment and the merged result is
// cached for the lifetime of the process.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultsBaseName = "default"

var documentExtensions = []string{".yaml", ".yml", ".json"} //nolint:gochecknoglobals

// Resolver loads and caches effective configurations from a directory of
// configuration documents.
type Resolver struct {
	dir    string
	prefix string
	mu     sync.Mutex
	cache  map[string]*Config
}

// NewResolver creates a Resolver reading documents from dir. Environment
// variables whose names start with envPrefix (case-sensitive) override file
// values; passing "" selects DefaultEnvPrefix.
func NewResolver(dir string, envPrefix string) *Resolver {
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix
	}
	return &Resolver{
		dir:    dir,
		prefix: envPrefix,
		cache:  make(map[string]*Config),
	}
}

// Resolve produces the effective configuration for the named environment.
//
// The base defaults document must exist and parse as a mapping; anything else
// is a fatal error. The overlay document <environment>.yaml is optional and
// its absence is treated as an empty overlay. Environment variables are read
// as a point-in-time snapshot on the first call; the result is cached per
// environment, so repeated calls return the identical value without
// re-reading any source.
func (r *Resolver) Resolve(environment string) (*Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.cache[environment]; ok {
		return cached, nil
	}

	base, err := r.loadDocument(defaultsBaseName, true)
	if err != nil {
		return nil, err
	}

	merged := base
	if environment != "" && environment != defaultsBaseName {
		overlay, err := r.loadDocument(environment, false)
		if err != nil {
			return nil, err
		}
		merged = mergeMaps(base, overlay)
	}

	applyEnvOverrides(merged, r.prefix, os.Environ())

	cfg := &Config{environment: environment, values: merged}
	r.cache[environment] = cfg
	return cfg, nil
}

// loadDocument reads one source document by base name, trying each recognized
// extension. A missing required document (the base defaults) is an error; a
// missing optional document (an overlay) yields an empty mapping.
func (r *Resolver) loadDocument(baseName string, required bool) (map[string]interface{}, error) {
	for _, ext := range documentExtensions {
		path := filepath.Join(r.dir, baseName+ext)
		data, err := os.ReadFile(path) //nolint:gosec // the config directory is caller-controlled
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %q: %w", path, err)
		}
		parsed, err := parseDocument(data)
		if err != nil {
			return nil, fmt.Errorf("error parsing %q: %w", path, err)
		}
		return parsed, nil
	}
	if required {
		return nil, fmt.Errorf("base configuration %q not found in %q", baseName, r.dir)
	}
	return map[string]interface{}{}, nil
}

// Config is one effective configuration: the fully merged, override-applied
// mapping used by all collaborators during a run. It is immutable once
// resolved.
type Config struct {
	environment string
	values      map[string]interface{}
}

// Environment returns the environment identifier this configuration was
// resolved for.
func (c *Config) Environment() string { return c.environment }

// Get looks up a dotted key path ("api.base_url") and returns the value found
// there, or defaultValue the moment a path segment is missing or a
// non-mapping value is reached while segments remain. It never fails for a
// missing key.
func (c *Config) Get(keyPath string, defaultValue interface{}) interface{} {
	node := interface{}(c.values)
	for _, key := range strings.Split(keyPath, ".") {
		m, ok := node.(map[string]interface{})
		if !ok {
			return defaultValue
		}
		node, ok = m[key]
		if !ok {
			return defaultValue
		}
	}
	return node
}

// GetString returns the string at keyPath, or defaultValue if the key is
// absent or holds a non-string.
func (c *Config) GetString(keyPath string, defaultValue string) string {
	if s, ok := c.Get(keyPath, nil).(string); ok {
		return s
	}
	return defaultValue
}

// GetInt returns the integer at keyPath. Values injected through environment
// variables are raw strings, so numeric strings are accepted too.
func (c *Config) GetInt(keyPath string, defaultValue int) int {
	switch v := c.Get(keyPath, nil).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

// GetFloat returns the floating-point value at keyPath, with the same lenient
// string handling as GetInt.
func (c *Config) GetFloat(keyPath string, defaultValue float64) float64 {
	switch v := c.Get(keyPath, nil).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetBool returns the boolean at keyPath, accepting strconv.ParseBool syntax
// for string values.
func (c *Config) GetBool(keyPath string, defaultValue bool) bool {
	switch v := c.Get(keyPath, nil).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetDuration returns the duration at keyPath. Bare numbers are interpreted
// as seconds; strings may use time.ParseDuration syntax ("90s", "2m") or be
// bare numbers of seconds.
func (c *Config) GetDuration(keyPath string, defaultValue time.Duration) time.Duration {
	switch v := c.Get(keyPath, nil).(type) {
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(f * float64(time.Second))
		}
	}
	return defaultValue
}
