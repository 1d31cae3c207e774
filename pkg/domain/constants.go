package domain

import (
	"slices"
	"sort"
)

// Router types of the bundled templates.
const (
	TypeRoot    = "root"
	TypeScene   = "scene"
	TypeStack   = "stack"
	TypeFeature = "feature"
	TypeData    = "data"
)

// Built-in action names every template implements.
const (
	ActionShow = "show"
	ActionHide = "hide"
)

// DefaultCacheKey is the search key that carries a serialized cache snapshot.
const DefaultCacheKey = "__cache"

// DefaultHistorySize bounds the per-router state history.
const DefaultHistorySize = 2

// OrderedKeys returns the keys of m, first those listed in order (when
// present in m) and then the remaining ones sorted.
func OrderedKeys[V any](order []string, m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for _, k := range order {
		if _, ok := m[k]; ok && !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	rest := make([]string, 0, len(m)-len(keys))
	for k := range m {
		if !slices.Contains(keys, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
