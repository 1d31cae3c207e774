package domain

import (
	"maps"
	"reflect"
)

// RouterState is the state a reducer derives for one router.
type RouterState struct {
	Visible bool   `json:"visible"`
	Data    string `json:"data,omitempty"`
	// Order is the 1-based rank of stack routers; 0 when unranked.
	Order int            `json:"order,omitempty"`
	Extra map[string]any `json:"extra,omitempty"`
}

// Equal reports whether two states carry the same values.
func (s RouterState) Equal(o RouterState) bool {
	if s.Visible != o.Visible || s.Data != o.Data || s.Order != o.Order {
		return false
	}
	return maps.EqualFunc(s.Extra, o.Extra, func(a, b any) bool { return reflect.DeepEqual(a, b) })
}

// RouterSnapshot is a router's current state plus its bounded history,
// newest first.
type RouterSnapshot struct {
	Current    RouterState   `json:"current"`
	Historical []RouterState `json:"historical,omitempty"`
}

// WasVisible reports whether the previous state was visible.
func (s RouterSnapshot) WasVisible() bool {
	return len(s.Historical) > 0 && s.Historical[0].Visible
}
