package ports

import "github.com/aretw0/arbor/pkg/domain"

// StateObserver receives a router's new snapshot.
type StateObserver func(domain.RouterSnapshot)

// RouterStateStore publishes per-router state computed by the reducer pass.
type RouterStateStore interface {
	// SetState replaces the whole state map. Routers whose state value did not
	// change keep their history and their observers are not called.
	SetState(states map[string]domain.RouterState)

	// Getter returns a function reading the current snapshot of name.
	Getter(name string) func() domain.RouterSnapshot

	// Subscriber returns a function registering observers for name.
	Subscriber(name string) func(StateObserver) (unsubscribe func())

	// UnsubscribeAll drops every observer of name.
	UnsubscribeAll(name string)

	// Snapshot copies the state of every router.
	Snapshot() map[string]domain.RouterSnapshot
}
