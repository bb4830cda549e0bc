package config

import (
	"fmt"
	"sort"
	"strings"
)

// Flatten turns nested JSON objects into dot-separated keys:
// {"backend": {"base_url": "x"}} becomes {"backend.base_url": "x"}.
// Empty objects produce no keys.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any)
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			if prefix != "" {
				k = prefix + "." + k
			}
			if child, ok := v.(map[string]any); ok {
				walk(k, child)
				continue
			}
			out[k] = v
		}
	}
	walk("", m)
	return out
}

// Unflatten is the inverse of Flatten. A key that is both a value and a
// section ("backend" next to "backend.base_url") is an error rather than
// silently dropping one of them.
func Unflatten(flat map[string]any) (map[string]any, error) {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	// Sorting puts "backend" ahead of "backend.base_url".
	sort.Strings(keys)

	out := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		section := out
		for i, part := range parts[:len(parts)-1] {
			switch next := section[part].(type) {
			case nil:
				child := make(map[string]any)
				section[part] = child
				section = child
			case map[string]any:
				section = next
			default:
				return nil, fmt.Errorf("config key %s conflicts with value at %s", key, strings.Join(parts[:i+1], "."))
			}
		}
		section[parts[len(parts)-1]] = flat[key]
	}
	return out, nil
}
