// Package templates provides the bundled router templates: root, scene,
// stack, feature and data.
//
// A template is a strategy table (actions, reducer, config defaults) looked
// up by router type; the engine knows nothing about their bodies.
package templates

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// Defaults returns every bundled template keyed by router type.
func Defaults() domain.Templates {
	return domain.Templates{
		domain.TypeRoot:    Root(),
		domain.TypeScene:   Scene(),
		domain.TypeStack:   Stack(),
		domain.TypeFeature: Feature(),
		domain.TypeData:    Data(),
	}
}

// Root is the template of the tree's top router. It is always visible and
// its actions leave the location untouched.
func Root() domain.Template {
	noop := func(_ context.Context, _ domain.Router, _ domain.ActionOptions, loc domain.Location, _ domain.ActionContext) (domain.Location, error) {
		return loc.Clone(), nil
	}
	return domain.Template{
		Actions: map[string]domain.ActionFunc{
			domain.ActionShow: noop,
			domain.ActionHide: noop,
		},
		Reducer: func(domain.Location, domain.Router) domain.RouterState {
			return domain.RouterState{Visible: true}
		},
		Config: domain.TemplateConfig{
			CanBePathRouter: true,
			IsPathRouter:    domain.Bool(true),
		},
	}
}

// Feature is an independent boolean flag stored in the query.
func Feature() domain.Template {
	return domain.Template{
		Actions: map[string]domain.ActionFunc{
			domain.ActionShow: func(_ context.Context, r domain.Router, _ domain.ActionOptions, loc domain.Location, _ domain.ActionContext) (domain.Location, error) {
				next := loc.Clone()
				next.Search[r.RouteKey()] = true
				return next, nil
			},
			domain.ActionHide: func(_ context.Context, r domain.Router, _ domain.ActionOptions, loc domain.Location, _ domain.ActionContext) (domain.Location, error) {
				next := loc.Clone()
				next.Search[r.RouteKey()] = nil
				return next, nil
			},
		},
		Reducer: func(loc domain.Location, r domain.Router) domain.RouterState {
			return domain.RouterState{Visible: loc.Search.Bool(r.RouteKey())}
		},
		Config: domain.TemplateConfig{
			CanBePathRouter: false,
		},
	}
}
