package templates

import (
	"context"
	"math"
	"slices"
	"sort"

	"github.com/aretw0/arbor/pkg/domain"
)

// Stack actions beyond show and hide.
const (
	ActionBringToFront = "bringToFront"
	ActionSendToBack   = "sendToBack"
	ActionMoveForward  = "moveForward"
	ActionMoveBackward = "moveBackward"
)

// Stack is the template for ordered, non-exclusive siblings. Each visible
// stack router stores its 1-based rank under its route key; rank 1 is the
// front.
func Stack() domain.Template {
	return domain.Template{
		Actions: map[string]domain.ActionFunc{
			domain.ActionShow:  reorder(toFront),
			domain.ActionHide:  reorder(remove),
			ActionBringToFront: reorder(toFront),
			ActionSendToBack:   reorder(toBack),
			ActionMoveForward:  reorder(forward),
			ActionMoveBackward: reorder(backward),
		},
		Reducer: func(loc domain.Location, r domain.Router) domain.RouterState {
			if !loc.Search.Has(r.RouteKey()) {
				return domain.RouterState{}
			}
			// A rank that is not a number still means the router is open.
			order, _ := loc.Search.Int(r.RouteKey())
			return domain.RouterState{Visible: true, Order: order}
		},
		Config: domain.TemplateConfig{
			CanBePathRouter: false,
		},
	}
}

// placement reinserts key into keys, given the index it had (-1 if absent)
// and the list with it already removed.
type placement func(keys []string, key string, index int) []string

func toFront(keys []string, key string, _ int) []string {
	return slices.Insert(keys, 0, key)
}

func toBack(keys []string, key string, _ int) []string {
	return append(keys, key)
}

func remove(keys []string, _ string, _ int) []string {
	return keys
}

func forward(keys []string, key string, index int) []string {
	return slices.Insert(keys, max(index-1, 0), key)
}

func backward(keys []string, key string, index int) []string {
	return slices.Insert(keys, min(index+1, len(keys)), key)
}

func reorder(place placement) domain.ActionFunc {
	return func(_ context.Context, r domain.Router, _ domain.ActionOptions, loc domain.Location, _ domain.ActionContext) (domain.Location, error) {
		keys := OrderedStackKeys(r, loc)
		index := slices.Index(keys, r.RouteKey())
		if index >= 0 {
			keys = slices.Delete(keys, index, index+1)
		}
		keys = place(keys, r.RouteKey(), index)

		next := loc.Clone()
		if !slices.Contains(keys, r.RouteKey()) {
			next.Search[r.RouteKey()] = nil
		}
		for i, k := range keys {
			next.Search[k] = i + 1
		}
		return next, nil
	}
}

// OrderedStackKeys returns the route keys of r's stack group present in loc,
// front first. Ties keep declaration order; keys whose rank is not a number
// go last.
func OrderedStackKeys(r domain.Router, loc domain.Location) []string {
	group := []domain.Router{r}
	if p := r.Parent(); p != nil {
		group = p.Children(r.Type())
	}

	type ranked struct {
		key   string
		order int
	}
	var entries []ranked
	for _, member := range group {
		if !loc.Search.Has(member.RouteKey()) {
			continue
		}
		order, ok := loc.Search.Int(member.RouteKey())
		if !ok {
			order = math.MaxInt
		}
		entries = append(entries, ranked{key: member.RouteKey(), order: order})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].order < entries[j].order })

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys
}
