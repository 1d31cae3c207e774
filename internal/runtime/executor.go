package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/google/uuid"
)

// NewActionContext seeds the context of an externally triggered action.
// The per-call DisableCaching option of the entry call holds for the whole
// cascade.
func (e *Engine) NewActionContext(action string, opts domain.ActionOptions) domain.ActionContext {
	return domain.ActionContext{
		ActionName:                 action,
		ActionID:                   uuid.NewString(),
		DisableCaching:             opts.DisableCaching,
		RehydrateChildRoutersState: true,
		ErrorWhenMissingData:       e.errorWhenMissingData,
		DryRun:                     opts.DryRun,
	}
}

// Execute runs action on the named router against loc and returns the
// location the whole cascade produces. loc is never modified. On error no
// partial location is returned and the cache is rolled back to what it held
// before the call.
func (e *Engine) Execute(ctx context.Context, name string, opts domain.ActionOptions, loc domain.Location, actx domain.ActionContext) (domain.Location, error) {
	if actx.ActionName == "" {
		return domain.Location{}, domain.ErrEmptyActionName
	}
	n, ok := e.nodes[name]
	if !ok {
		return domain.Location{}, fmt.Errorf("%w: %q", domain.ErrRouterNotFound, name)
	}

	saved := e.cache.Export()
	out, err := e.execute(ctx, n, actx.ActionName, opts, loc.Clone(), actx)
	if err != nil {
		e.cache.Restore(saved)
		e.logger.Debug("cascade aborted, cache restored", "router", name, "action", actx.ActionName, "err", err)
		return domain.Location{}, err
	}
	out.Options = opts
	return out, nil
}

func (e *Engine) execute(ctx context.Context, n *Node, action string, opts domain.ActionOptions, loc domain.Location, actx domain.ActionContext) (domain.Location, error) {
	fn, ok := e.template(n).Action(action)
	if !ok {
		return domain.Location{}, &domain.DispatchError{Router: n.name, Type: n.typ, Action: action}
	}
	actx = actx.WithAction(action)

	e.logger.Debug("router action",
		"router", n.name,
		"action", action,
		"direction", string(actx.CallDirection),
		"action_id", actx.ActionID,
	)

	switch action {
	case domain.ActionShow:
		return e.show(ctx, n, fn, opts, loc, actx)
	case domain.ActionHide:
		return e.hide(ctx, n, fn, opts, loc, actx)
	}

	wasVisible := e.visible(n, loc)
	next, err := fn(ctx, n, opts, loc, actx)
	if err != nil {
		return domain.Location{}, err
	}
	if !wasVisible && e.visible(n, next) {
		return e.activateChildren(ctx, n, next, actx)
	}
	return next, nil
}

// show activates the parent chain when needed, applies the template's show
// and then restores or defaults the children of a router that just became
// visible.
func (e *Engine) show(ctx context.Context, n *Node, fn domain.ActionFunc, opts domain.ActionOptions, loc domain.Location, actx domain.ActionContext) (domain.Location, error) {
	wasVisible := e.visible(n, loc)

	var err error
	if p := n.parent; p != nil && n.config.ShouldInverselyActivate && !e.visible(p, loc) {
		loc, err = e.execute(ctx, p, domain.ActionShow, domain.ActionOptions{}, loc, actx.Up(n.typ))
		if err != nil {
			return domain.Location{}, err
		}
	}

	loc, err = fn(ctx, n, opts, loc, actx)
	if err != nil {
		return domain.Location{}, err
	}

	e.dropSiblingSlots(n, loc)

	if wasVisible && n.parent != nil {
		return loc, nil
	}
	return e.activateChildren(ctx, n, loc, actx)
}

// dropSiblingSlots clears the cache of the hidden members of n's group when
// the group is exclusive, so a later rehydration of the parent restores n
// and not a sibling hidden earlier.
func (e *Engine) dropSiblingSlots(n *Node, loc domain.Location) {
	if n.parent == nil || n.config.ShouldParentTryToActivateSiblings {
		return
	}
	for _, sibling := range n.parent.children[n.typ] {
		if sibling == n || e.visible(sibling, loc) || !e.cache.Has(sibling.name) {
			continue
		}
		e.cache.Remove(sibling.name)
		e.logger.Debug("stale sibling slot dropped", "router", sibling.name, "shown", n.name)
	}
}

// hide hides the children of a visible router first, so each of them can
// cache its own state, then writes n's cache slot and applies the
// template's hide.
func (e *Engine) hide(ctx context.Context, n *Node, fn domain.ActionFunc, opts domain.ActionOptions, loc domain.Location, actx domain.ActionContext) (domain.Location, error) {
	if e.visible(n, loc) {
		e.writeCache(ctx, n, opts, loc, actx)

		next := loc
		down := actx.Down()
		for _, typ := range n.childOrder {
			for _, child := range n.children[typ] {
				var err error
				next, err = e.execute(ctx, child, domain.ActionHide, domain.ActionOptions{}, next, down)
				if err != nil {
					return domain.Location{}, err
				}
			}
		}
		loc = next
	}
	return fn(ctx, n, opts, loc, actx)
}

// activateChildren walks the children of n after n became visible. Per
// child-type group: visible children are descended into, cached children
// are rehydrated, and the rest run their default actions. Whether children
// may be rehydrated is n's own setting, else the one carried from above.
func (e *Engine) activateChildren(ctx context.Context, n *Node, loc domain.Location, actx domain.ActionContext) (domain.Location, error) {
	fromChild := actx.CallDirection == domain.DirectionUp && actx.ActivatedByChildType != ""
	down := actx.Down()
	down.RehydrateChildRoutersState = rehydrateFor(n, actx.RehydrateChildRoutersState)

	var err error
	for _, typ := range n.childOrder {
		group := n.children[typ]
		if len(group) == 0 {
			continue
		}
		if fromChild {
			// The activating child shows itself once its parent is visible.
			if typ == actx.ActivatedByChildType || !group[0].config.ShouldParentTryToActivateNeighbors {
				continue
			}
		}
		exclusive := !group[0].config.ShouldParentTryToActivateSiblings

		var pending []*Node
		for _, child := range group {
			switch {
			case e.visible(child, loc):
				loc, err = e.activateChildren(ctx, child, loc, down)
			case e.canRehydrate(child, down):
				if exclusive && e.anyVisible(group, loc) {
					// Another sibling already owns this level; its cache is stale.
					e.cache.Remove(child.name)
					continue
				}
				loc, err = e.rehydrate(ctx, child, loc, down)
			default:
				pending = append(pending, child)
			}
			if err != nil {
				return domain.Location{}, err
			}
		}

		for _, child := range pending {
			if len(child.config.DefaultAction) == 0 || e.visible(child, loc) {
				continue
			}
			if exclusive && e.anyVisible(group, loc) {
				continue
			}
			for _, action := range child.config.DefaultAction {
				loc, err = e.execute(ctx, child, action, domain.ActionOptions{}, loc, down)
				if err != nil {
					return domain.Location{}, err
				}
			}
		}
	}
	return loc, nil
}

func (e *Engine) anyVisible(group []*Node, loc domain.Location) bool {
	for _, n := range group {
		if e.visible(n, loc) {
			return true
		}
	}
	return false
}

func (e *Engine) canRehydrate(n *Node, actx domain.ActionContext) bool {
	return actx.RehydrateChildRoutersState &&
		!actx.DisableCaching &&
		!e.cachingDisabled(n) &&
		e.cache.Has(n.name)
}

// rehydrate restores n from its cache slot, consuming it, then continues
// into n's children.
func (e *Engine) rehydrate(ctx context.Context, n *Node, loc domain.Location, actx domain.ActionContext) (domain.Location, error) {
	value, ok := e.cache.Take(n.name)
	if !ok {
		return loc, nil
	}

	next := loc.Clone()
	if n.config.IsPathRouter {
		seg, isString := value.(string)
		if !isString {
			return loc, nil
		}
		next.SetSegment(n.PathLocation(), seg)
	} else {
		next.Search[n.config.RouteKey] = value
	}

	e.logger.Debug("router rehydrated", "router", n.name, "value", value, "action_id", actx.ActionID)
	if e.hooks.OnRehydrate != nil && !actx.DryRun {
		e.hooks.OnRehydrate(ctx, &domain.CacheEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRehydrate, ActionID: actx.ActionID},
			Router:    n.name,
			Value:     value,
		})
	}
	return e.activateChildren(ctx, n, next, actx)
}

// writeCache records n's current visibility value, unless caching is off
// for this call, this cascade or (by inheritance) this router.
func (e *Engine) writeCache(ctx context.Context, n *Node, opts domain.ActionOptions, loc domain.Location, actx domain.ActionContext) {
	if opts.DisableCaching || actx.DisableCaching || e.cachingDisabled(n) {
		return
	}
	value, ok := cacheValue(n, loc)
	if !ok || !e.cache.Set(n.name, value) {
		return
	}

	e.logger.Debug("router cached", "router", n.name, "value", value, "action_id", actx.ActionID)
	if e.hooks.OnCacheWrite != nil && !actx.DryRun {
		e.hooks.OnCacheWrite(ctx, &domain.CacheEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCacheWrite, ActionID: actx.ActionID},
			Router:    n.name,
			Value:     value,
		})
	}
}

// cacheValue extracts what n needs to be restored later: its path segment,
// or its search value with flags normalized to true.
func cacheValue(n *Node, loc domain.Location) (any, bool) {
	if n.config.IsPathRouter {
		seg := loc.Segment(n.PathLocation())
		return seg, seg != ""
	}
	if !loc.Search.Has(n.config.RouteKey) {
		return nil, false
	}
	if loc.Search.Bool(n.config.RouteKey) {
		return true, true
	}
	return loc.Search[n.config.RouteKey], true
}
