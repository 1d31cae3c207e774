package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// RouterManager is the surface driving adapters (HTTP, MCP, CLI) use.
type RouterManager interface {
	// Do runs an action on a router and hands the result to the transport.
	Do(ctx context.Context, router, action string, opts domain.ActionOptions) error

	// LinkTo returns the serialized location the action would produce.
	LinkTo(router, action string, opts domain.ActionOptions) (string, error)

	// LinkToWithCache is LinkTo with the remaining cache embedded in the link.
	LinkToWithCache(router, action string, opts domain.ActionOptions) (string, error)

	// Navigate replaces the location with a serialized one.
	Navigate(ctx context.Context, serialized string) error

	// Location returns the current serialized location.
	Location(ctx context.Context) (string, error)

	AddRouters(ctx context.Context, decl *domain.Declaration) error
	RemoveRouter(ctx context.Context, name string) error

	State(name string) (domain.RouterSnapshot, bool)
	Snapshot() map[string]domain.RouterSnapshot
	Inspect() []domain.RouterInfo

	// OnStateChange registers a listener for published reducer passes.
	OnStateChange(fn func(*domain.StateEvent)) (unsubscribe func())
}
