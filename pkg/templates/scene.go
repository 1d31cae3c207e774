package templates

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// Scene is the template for mutually exclusive siblings: showing one hides
// the others. Scenes are path routers unless declared otherwise.
func Scene() domain.Template {
	return domain.Template{
		Actions: map[string]domain.ActionFunc{
			domain.ActionShow: sceneShow,
			domain.ActionHide: sceneHide,
		},
		Reducer: sceneReducer,
		Config: domain.TemplateConfig{
			CanBePathRouter:                   true,
			IsPathRouter:                      domain.Bool(true),
			ShouldInverselyActivate:           domain.Bool(true),
			ShouldParentTryToActivateSiblings: domain.Bool(false),
		},
	}
}

func sceneShow(ctx context.Context, r domain.Router, _ domain.ActionOptions, loc domain.Location, actx domain.ActionContext) (domain.Location, error) {
	next := loc
	for _, sibling := range r.Siblings() {
		// Hidden siblings must not come back through a later rehydration.
		var err error
		next, err = sibling.Invoke(ctx, domain.ActionHide, domain.ActionOptions{DisableCaching: true}, next, actx)
		if err != nil {
			return domain.Location{}, err
		}
	}

	next = next.Clone()
	if r.IsPathRouter() {
		next.SetSegment(r.PathLocation(), r.RouteKey())
	} else {
		next.Search[r.RouteKey()] = true
	}
	return next, nil
}

func sceneHide(_ context.Context, r domain.Router, _ domain.ActionOptions, loc domain.Location, _ domain.ActionContext) (domain.Location, error) {
	next := loc.Clone()
	if r.IsPathRouter() {
		if next.Segment(r.PathLocation()) == r.RouteKey() {
			next.TruncatePath(r.PathLocation())
		}
	} else {
		next.Search[r.RouteKey()] = nil
	}
	return next, nil
}

func sceneReducer(loc domain.Location, r domain.Router) domain.RouterState {
	if r.IsPathRouter() {
		return domain.RouterState{Visible: loc.Segment(r.PathLocation()) == r.RouteKey()}
	}
	return domain.RouterState{Visible: loc.Search.Bool(r.RouteKey())}
}
