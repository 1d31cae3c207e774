package runtime

import (
	"io"
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
)

// StateReader returns the last published state of a router.
type StateReader func(name string) domain.RouterSnapshot

// Engine owns the router tree, the cache and the template table. It runs
// action cascades and reducer passes but never talks to a transport: the
// current location is always an argument.
//
// Engine is not safe for concurrent use; callers serialize access.
type Engine struct {
	templates domain.Templates
	nodes     map[string]*Node
	routeKeys map[string]string
	root      *Node
	cache     *Cache

	states               StateReader
	hooks                domain.LifecycleHooks
	logger               *slog.Logger
	errorWhenMissingData bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithStateReader lets templates read published router state.
func WithStateReader(reader StateReader) EngineOption {
	return func(e *Engine) {
		e.states = reader
	}
}

// WithCache shares a cache store with the engine.
func WithCache(cache *Cache) EngineOption {
	return func(e *Engine) {
		if cache != nil {
			e.cache = cache
		}
	}
}

// WithErrorWhenMissingData makes data routers fail when shown without data.
func WithErrorWhenMissingData(enabled bool) EngineOption {
	return func(e *Engine) {
		e.errorWhenMissingData = enabled
	}
}

// NewEngine creates an engine with an empty tree.
func NewEngine(templates domain.Templates, opts ...EngineOption) *Engine {
	e := &Engine{
		templates: templates,
		nodes:     make(map[string]*Node),
		routeKeys: make(map[string]string),
		cache:     NewCache(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Root returns the root router, or nil before one is added.
func (e *Engine) Root() *Node {
	return e.root
}

// Router looks up a router by name.
func (e *Engine) Router(name string) (*Node, bool) {
	n, ok := e.nodes[name]
	return n, ok
}

// Cache exposes the cache store.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Templates returns the registered template table.
func (e *Engine) Templates() domain.Templates {
	return e.templates
}

// Len returns the number of routers in the tree.
func (e *Engine) Len() int {
	return len(e.nodes)
}

func (e *Engine) template(n *Node) domain.Template {
	return e.templates[n.typ]
}

// visible evaluates n's reducer against loc.
func (e *Engine) visible(n *Node, loc domain.Location) bool {
	reducer := e.template(n).Reducer
	if reducer == nil {
		return false
	}
	return reducer(loc, n).Visible
}

func (e *Engine) snapshot(name string) domain.RouterSnapshot {
	if e.states == nil {
		return domain.RouterSnapshot{}
	}
	return e.states(name)
}
