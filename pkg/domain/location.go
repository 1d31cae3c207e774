package domain

import (
	"slices"
	"strconv"
)

// Search holds the query half of a Location.
//
// Values are string, []string, bool or int. A key mapped to nil is an
// explicit removal: the codec drops it instead of carrying the previous
// value forward.
type Search map[string]any

// LocationOptions travel with a Location (and with every action call) but are
// never serialized.
type LocationOptions struct {
	// Data is the value written by data routers.
	Data string `json:"data,omitempty"`
	// DisableCaching stops the target router from writing its cache slot for this call only.
	DisableCaching bool `json:"disable_caching,omitempty"`
	// ReplaceLocation asks the transport to replace the current entry instead of pushing.
	ReplaceLocation bool `json:"replace_location,omitempty"`
	// DryRun computes the new location without handing it to the transport.
	DryRun bool `json:"dry_run,omitempty"`
}

// ActionOptions are the per-call options of an action.
type ActionOptions = LocationOptions

// Location is the structured form of a serialized location string
// ("/seg1/seg2?key=value").
type Location struct {
	Pathname []string        `json:"pathname"`
	Search   Search          `json:"search"`
	Options  LocationOptions `json:"-"`
}

// NewLocation returns an empty location with an allocated search map.
func NewLocation() Location {
	return Location{Pathname: []string{}, Search: Search{}}
}

// Clone returns a deep copy so action functions can mutate freely.
func (l Location) Clone() Location {
	out := Location{
		Pathname: slices.Clone(l.Pathname),
		Search:   make(Search, len(l.Search)),
		Options:  l.Options,
	}
	if out.Pathname == nil {
		out.Pathname = []string{}
	}
	for k, v := range l.Search {
		if arr, ok := v.([]string); ok {
			v = slices.Clone(arr)
		}
		out.Search[k] = v
	}
	return out
}

// Segment returns the pathname segment at index i, or "" when out of range.
func (l Location) Segment(i int) string {
	if i < 0 || i >= len(l.Pathname) {
		return ""
	}
	return l.Pathname[i]
}

// SetSegment writes value at index i and drops every deeper segment.
func (l *Location) SetSegment(i int, value string) {
	if i < 0 {
		return
	}
	if i < len(l.Pathname) {
		l.Pathname = append(l.Pathname[:i], value)
		return
	}
	l.Pathname = append(l.Pathname, value)
}

// TruncatePath drops the segment at index i and everything after it.
func (l *Location) TruncatePath(i int) {
	if i < 0 || i >= len(l.Pathname) {
		return
	}
	l.Pathname = l.Pathname[:i]
}

// Has reports whether key is present with a non-nil value.
func (s Search) Has(key string) bool {
	v, ok := s[key]
	return ok && v != nil
}

// Bool reports whether key holds a true flag: the bool true set by an action
// or the string "true" read back from a serialized location.
func (s Search) Bool(key string) bool {
	switch v := s[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// String returns the value of key as a string. Flags render as "true"/"false"
// and lists yield their first element.
func (s Search) String(key string) (string, bool) {
	switch v := s[key].(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case []string:
		if len(v) > 0 {
			return v[0], true
		}
	}
	return "", false
}

// Int parses the value of key as an integer.
func (s Search) Int(key string) (int, bool) {
	switch v := s[key].(type) {
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
