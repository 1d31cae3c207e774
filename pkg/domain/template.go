package domain

import "context"

// ActionFunc computes a new location for router r. Implementations must not
// mutate loc in place; Clone it first.
type ActionFunc func(ctx context.Context, r Router, opts ActionOptions, loc Location, actx ActionContext) (Location, error)

// ReducerFunc derives the state of router r from a location.
type ReducerFunc func(loc Location, r Router) RouterState

// Template is the strategy table for one router type.
type Template struct {
	Actions map[string]ActionFunc
	Reducer ReducerFunc
	Config  TemplateConfig
}

// Action looks up an action by name.
func (t Template) Action(name string) (ActionFunc, bool) {
	fn, ok := t.Actions[name]
	return fn, ok && fn != nil
}

// Templates maps router types to their templates.
type Templates map[string]Template

// Merge returns a copy of t with every entry of other added or replaced.
func (t Templates) Merge(other Templates) Templates {
	out := make(Templates, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
