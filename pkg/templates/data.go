package templates

import (
	"context"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// Data is the template for routers whose visibility carries a value: the
// path segment (path routers) or the query value under the route key.
func Data() domain.Template {
	return domain.Template{
		Actions: map[string]domain.ActionFunc{
			domain.ActionShow: dataShow,
			domain.ActionHide: dataHide,
		},
		Reducer: dataReducer,
		Config: domain.TemplateConfig{
			CanBePathRouter: true,
			IsPathRouter:    domain.Bool(false),
		},
	}
}

func dataShow(_ context.Context, r domain.Router, opts domain.ActionOptions, loc domain.Location, actx domain.ActionContext) (domain.Location, error) {
	data := opts.Data
	if data == "" {
		data = lastData(r.State())
	}
	if data == "" {
		if actx.ErrorWhenMissingData {
			return domain.Location{}, fmt.Errorf("router %q: %w", r.Name(), domain.ErrMissingData)
		}
		return loc.Clone(), nil
	}

	next := loc.Clone()
	if r.IsPathRouter() {
		next.SetSegment(r.PathLocation(), data)
	} else {
		next.Search[r.RouteKey()] = data
	}
	return next, nil
}

func dataHide(_ context.Context, r domain.Router, _ domain.ActionOptions, loc domain.Location, _ domain.ActionContext) (domain.Location, error) {
	next := loc.Clone()
	if r.IsPathRouter() {
		next.TruncatePath(r.PathLocation())
	} else {
		next.Search[r.RouteKey()] = nil
	}
	return next, nil
}

func dataReducer(loc domain.Location, r domain.Router) domain.RouterState {
	var value string
	if r.IsPathRouter() {
		value = loc.Segment(r.PathLocation())
	} else if v, ok := loc.Search.String(r.RouteKey()); ok {
		value = v
	}
	return domain.RouterState{Visible: value != "", Data: value}
}

// lastData returns the most recent data value a router published.
func lastData(s domain.RouterSnapshot) string {
	if s.Current.Data != "" {
		return s.Current.Data
	}
	for _, h := range s.Historical {
		if h.Data != "" {
			return h.Data
		}
	}
	return ""
}
