package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventAction       EventType = "action"
	EventStateChange  EventType = "state_change"
	EventCacheWrite   EventType = "cache_write"
	EventRehydrate    EventType = "rehydrate"
	EventRouterAdd    EventType = "router_add"
	EventRouterRemove EventType = "router_remove"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	ActionID  string    `json:"action_id,omitempty"`
}

// ActionEvent is emitted once per externally triggered action.
type ActionEvent struct {
	EventBase
	Router   string        `json:"router"`
	Action   string        `json:"action"`
	DryRun   bool          `json:"dry_run,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// StateEvent is emitted after a reducer pass is published.
type StateEvent struct {
	EventBase
	Location string     `json:"location"`
	Diff     *StateDiff `json:"diff,omitempty"`
}

// CacheEvent is emitted when a cache slot is written or consumed.
type CacheEvent struct {
	EventBase
	Router string `json:"router"`
	Value  any    `json:"value"`
}

// TreeEvent is emitted when routers are added or removed.
type TreeEvent struct {
	EventBase
	Routers []string `json:"routers"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnAction      func(context.Context, *ActionEvent)
	OnStateChange func(context.Context, *StateEvent)
	OnCacheWrite  func(context.Context, *CacheEvent)
	OnRehydrate   func(context.Context, *CacheEvent)
	OnTreeChange  func(context.Context, *TreeEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnAction:      chain(h.OnAction, other.OnAction),
		OnStateChange: chain(h.OnStateChange, other.OnStateChange),
		OnCacheWrite:  chain(h.OnCacheWrite, other.OnCacheWrite),
		OnRehydrate:   chain(h.OnRehydrate, other.OnRehydrate),
		OnTreeChange:  chain(h.OnTreeChange, other.OnTreeChange),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
