package arbor

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Router is a handle on one router of a Manager. It stays valid until the
// router is removed; calls after that fail with domain.ErrRouterNotFound.
type Router struct {
	manager *Manager
	name    string
	typ     string
}

// Name returns the router name.
func (r *Router) Name() string { return r.name }

// Type returns the router type.
func (r *Router) Type() string { return r.typ }

// Show makes the router visible.
func (r *Router) Show(ctx context.Context, opts domain.ActionOptions) error {
	return r.manager.Do(ctx, r.name, domain.ActionShow, opts)
}

// Hide hides the router and its subtree.
func (r *Router) Hide(ctx context.Context, opts domain.ActionOptions) error {
	return r.manager.Do(ctx, r.name, domain.ActionHide, opts)
}

// Do runs a template-specific action, such as a stack reorder.
func (r *Router) Do(ctx context.Context, action string, opts domain.ActionOptions) error {
	return r.manager.Do(ctx, r.name, action, opts)
}

// LinkTo returns the location action would produce.
func (r *Router) LinkTo(action string, opts domain.ActionOptions) (string, error) {
	return r.manager.LinkTo(r.name, action, opts)
}

// State returns the published snapshot.
func (r *Router) State() domain.RouterSnapshot {
	return r.manager.store.Getter(r.name)()
}

// Visible reports the published visibility.
func (r *Router) Visible() bool {
	return r.State().Current.Visible
}

// Subscribe registers an observer called whenever the router's state
// changes. Observers run synchronously after the location is written and
// must not call back into actions of the same Manager.
func (r *Router) Subscribe(fn ports.StateObserver) func() {
	return r.manager.store.Subscriber(r.name)(fn)
}
