package runtime

import (
	"fmt"
	"slices"

	"github.com/aretw0/arbor/pkg/domain"
)

// firstSet returns the strongest explicitly set layer, or fallback.
func firstSet(fallback bool, layers ...*bool) bool {
	for _, l := range layers {
		if l != nil {
			return *l
		}
	}
	return fallback
}

// firstSetPtr is firstSet for settings that may stay unset ("inherit").
func firstSetPtr(layers ...*bool) *bool {
	for _, l := range layers {
		if l != nil {
			v := *l
			return &v
		}
	}
	return nil
}

// resolveConfig merges a declaration with its template defaults and the
// parent's resolved path routing. Layers go strongest to weakest:
// declaration, template, built-in default.
func resolveConfig(decl *domain.Declaration, typ string, tmpl domain.Template, parent *Node) (domain.Config, error) {
	tc := tmpl.Config
	parentIsPath := parent == nil || parent.config.IsPathRouter

	if decl.IsPathRouter != nil && *decl.IsPathRouter {
		if !tc.CanBePathRouter {
			return domain.Config{}, &domain.ConfigError{
				Router: decl.Name,
				Err:    domain.ErrInvalidPathRouter,
				Detail: fmt.Sprintf("router type %q cannot be a path router", typ),
			}
		}
		if !parentIsPath {
			return domain.Config{}, &domain.ConfigError{
				Router: decl.Name,
				Err:    domain.ErrInvalidPathRouter,
				Detail: fmt.Sprintf("parent %q is not a path router", parent.name),
			}
		}
	}

	routeKey := decl.RouteKey
	if routeKey == "" {
		routeKey = decl.Name
	}

	defaultAction := slices.Clone(decl.DefaultAction)
	if defaultAction == nil {
		defaultAction = []string{}
	}
	for _, action := range defaultAction {
		if _, ok := tmpl.Action(action); !ok {
			return domain.Config{}, &domain.ConfigError{
				Router: decl.Name,
				Err:    domain.ErrActionNotFound,
				Detail: fmt.Sprintf("default action %q is not implemented by router type %q", action, typ),
			}
		}
	}

	return domain.Config{
		RouteKey:                   routeKey,
		IsPathRouter:               tc.CanBePathRouter && parentIsPath && firstSet(false, decl.IsPathRouter, tc.IsPathRouter),
		ShouldInverselyActivate:    firstSet(true, decl.ShouldInverselyActivate, tc.ShouldInverselyActivate),
		DisableCaching:             firstSetPtr(decl.DisableCaching, tc.DisableCaching),
		RehydrateChildRoutersState: firstSetPtr(decl.RehydrateChildRoutersState),
		DefaultAction:              defaultAction,

		ShouldParentTryToActivateSiblings:  firstSet(true, tc.ShouldParentTryToActivateSiblings),
		ShouldParentTryToActivateNeighbors: firstSet(true, tc.ShouldParentTryToActivateNeighbors),
	}, nil
}

// cachingDisabled walks up from n until a router states an explicit
// preference. Caching is enabled when nobody does.
func (e *Engine) cachingDisabled(n *Node) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.config.DisableCaching != nil {
			return *cur.config.DisableCaching
		}
	}
	return false
}

// rehydrateFor resolves whether the children of n may be rehydrated: n's
// explicit setting, otherwise the value carried from the triggering
// ancestor.
func rehydrateFor(n *Node, inherited bool) bool {
	if v := n.config.RehydrateChildRoutersState; v != nil {
		return *v
	}
	return inherited
}
