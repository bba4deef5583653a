package config

import (
	"strings"
)

// DefaultEnvPrefix is the prefix that marks a process environment variable as a
// configuration override. The match is case-sensitive.
const DefaultEnvPrefix = "TEST_"

// applyEnvOverrides writes every environment variable from environ whose name
// starts with prefix into cfg, mutating cfg in place. The variable name after
// the prefix is lowercased and translated into a nested key path by
// splitEnvKey; the value is stored as a raw string with no type coercion.
// Overrides are applied last, so they win over every file-based source.
func applyEnvOverrides(cfg map[string]interface{}, prefix string, environ []string) {
	for _, kv := range environ {
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			continue
		}
		name, value := kv[:eq], kv[eq+1:]
		if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
			continue
		}
		path := splitEnvKey(strings.TrimPrefix(name, prefix), cfg)
		setPath(cfg, path, value)
	}
}

// splitEnvKey translates the suffix of an override variable name (the part
// after the prefix) into a nested key path. The suffix is lowercased and split
// on underscores; because configuration keys may themselves contain
// underscores (API_BASE_URL could mean api.base_url or api.base.url), the
// split consults the already-merged tree: at each level the longest
// underscore-joined run of segments that names an existing key wins. Segments
// that match nothing fall back to one key per segment.
func splitEnvKey(suffix string, known map[string]interface{}) []string {
	segments := strings.Split(strings.ToLower(suffix), "_")
	path := make([]string, 0, len(segments))
	node := known
	for i := 0; i < len(segments); {
		key := segments[i]
		next := i + 1
		if node != nil {
			for j := len(segments); j > i; j-- {
				candidate := strings.Join(segments[i:j], "_")
				if _, ok := node[candidate]; ok {
					key, next = candidate, j
					break
				}
			}
		}
		path = append(path, key)
		if child, ok := node[key].(map[string]interface{}); ok {
			node = child
		} else {
			node = nil
		}
		i = next
	}
	return path
}

// setPath writes value at the given key path, creating intermediate mappings
// as needed. Any non-mapping value in the way of an intermediate key is
// replaced, since overrides always win.
func setPath(cfg map[string]interface{}, path []string, value interface{}) {
	node := cfg
	for _, key := range path[:len(path)-1] {
		child, ok := node[key].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			node[key] = child
		}
		node = child
	}
	node[path[len(path)-1]] = value
}
