package arbor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/templates"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

const tracerName = "github.com/aretw0/arbor"

// Manager is the high-level entry point of the library. It owns the router
// tree and the cache, turns router actions into locations handed to the
// transport, and publishes one state snapshot per location the transport
// accepts.
type Manager struct {
	engine    *runtime.Engine
	cache     *runtime.Cache
	transport ports.LocationTransport
	store     ports.RouterStateStore
	templates domain.Templates
	hooks     domain.LifecycleHooks
	logger    *slog.Logger

	tracerProvider trace.TracerProvider
	tracer         trace.Tracer

	locker  ports.DistributedLocker
	lockTTL time.Duration

	cacheKey                    string
	removeCacheAfterRehydration bool
	historySize                 int
	errorWhenMissingData        bool

	// actionMu serializes cascades together with the location write ending
	// them. mu guards the tree, the cache and reducer passes; the transport
	// notification path only takes mu.
	actionMu sync.Mutex
	mu       sync.Mutex

	listenersMu  sync.Mutex
	listeners    map[int]func(*domain.StateEvent)
	nextListener int

	unsubscribe  func()
	actions      *atomic.Int64
	computations *atomic.Int64
}

var _ ports.RouterManager = (*Manager)(nil)

// New builds a Manager for the declaration tree decl (nil starts empty),
// subscribes to the transport and shows the root with ReplaceLocation, so
// the starting location is the current one merged with every default
// action and any cache carried in it.
func New(decl *domain.Declaration, opts ...Option) (*Manager, error) {
	m := &Manager{
		templates:                   templates.Defaults(),
		cacheKey:                    domain.DefaultCacheKey,
		removeCacheAfterRehydration: true,
		historySize:                 domain.DefaultHistorySize,
		lockTTL:                     30 * time.Second,
		listeners:                   make(map[int]func(*domain.StateEvent)),
		actions:                     atomic.NewInt64(0),
		computations:                atomic.NewInt64(0),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if m.transport == nil {
		m.transport = memory.NewTransport()
	}
	if m.store == nil {
		m.store = memory.NewStateStore(m.historySize)
	}
	if m.tracerProvider == nil {
		m.tracerProvider = otel.GetTracerProvider()
	}
	m.tracer = m.tracerProvider.Tracer(tracerName)

	m.cache = runtime.NewCache()
	m.engine = runtime.NewEngine(m.templates,
		runtime.WithLogger(m.logger),
		runtime.WithLifecycleHooks(m.hooks),
		runtime.WithCache(m.cache),
		runtime.WithErrorWhenMissingData(m.errorWhenMissingData),
		runtime.WithStateReader(func(name string) domain.RouterSnapshot {
			return m.store.Getter(name)()
		}),
	)

	if decl != nil {
		if _, err := m.engine.AddRouters(decl); err != nil {
			return nil, err
		}
	}

	m.unsubscribe = m.transport.Subscribe(m.onLocation)

	if err := m.start(context.Background()); err != nil {
		m.unsubscribe()
		return nil, err
	}
	return m, nil
}

// start imports any cache carried by the current location and shows the
// root, replacing the location in one write.
func (m *Manager) start(ctx context.Context) error {
	m.actionMu.Lock()
	defer m.actionMu.Unlock()

	loc, err := m.transport.Location(ctx)
	if err != nil {
		return fmt.Errorf("failed to read location: %w", err)
	}

	m.mu.Lock()
	root := m.engine.Root()
	if root == nil {
		m.mu.Unlock()
		m.onLocation(loc)
		return nil
	}
	loc = m.importCache(loc)

	opts := domain.ActionOptions{ReplaceLocation: true}
	actx := m.engine.NewActionContext(domain.ActionShow, opts)
	next, err := m.engine.Execute(ctx, root.Name(), opts, loc, actx)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.transport.SetState(ctx, next)
}

// Close detaches the Manager from its transport.
func (m *Manager) Close() error {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return nil
}

// Do runs action on the named router against the current location and
// hands the result to the transport. With opts.DryRun nothing is written,
// the cache included.
func (m *Manager) Do(ctx context.Context, router, action string, opts domain.ActionOptions) error {
	_, err := m.run(ctx, router, action, opts)
	return err
}

// Preview returns the location Do would produce without writing anything.
func (m *Manager) Preview(ctx context.Context, router, action string, opts domain.ActionOptions) (domain.Location, error) {
	opts.DryRun = true
	res, err := m.run(ctx, router, action, opts)
	return res.location, err
}

func (m *Manager) run(ctx context.Context, router, action string, opts domain.ActionOptions) (runResult, error) {
	ctx, span := m.tracer.Start(ctx, "arbor."+action,
		trace.WithAttributes(
			attribute.String("arbor.router", router),
			attribute.String("arbor.action", action),
			attribute.Bool("arbor.dry_run", opts.DryRun),
		),
	)
	defer span.End()

	start := time.Now()
	res, err := m.runLocked(ctx, router, action, opts)
	actionID := res.actionID

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	if actionID != "" {
		span.SetAttributes(attribute.String("arbor.action_id", actionID))
	}

	if m.hooks.OnAction != nil {
		m.hooks.OnAction(ctx, &domain.ActionEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventAction, ActionID: actionID},
			Router:    router,
			Action:    action,
			DryRun:    opts.DryRun,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	return res, err
}

// runResult is what one action produced. cache holds the slots a dry run
// would have left, before they were restored.
type runResult struct {
	location domain.Location
	actionID string
	cache    map[string]any
}

func (m *Manager) runLocked(ctx context.Context, router, action string, opts domain.ActionOptions) (runResult, error) {
	m.actionMu.Lock()
	defer m.actionMu.Unlock()

	if m.locker != nil && !opts.DryRun {
		unlock, err := m.locker.Lock(ctx, "tree", m.lockTTL)
		if err != nil {
			return runResult{}, fmt.Errorf("failed to acquire lock: %w", err)
		}
		defer func() {
			if err := unlock(context.Background()); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)", "err", err)
			}
		}()
	}

	current, err := m.transport.Location(ctx)
	if err != nil {
		return runResult{}, fmt.Errorf("failed to read location: %w", err)
	}

	m.mu.Lock()
	actx := m.engine.NewActionContext(action, opts)
	var saved map[string]any
	if opts.DryRun {
		saved = m.cache.Export()
	}
	next, err := m.engine.Execute(ctx, router, opts, current, actx)
	res := runResult{actionID: actx.ActionID}
	if opts.DryRun {
		res.cache = m.cache.Export()
		m.cache.Restore(saved)
	}
	m.mu.Unlock()

	if err != nil {
		return res, err
	}
	m.actions.Inc()
	res.location = next
	if opts.DryRun {
		return res, nil
	}
	if err := m.transport.SetState(ctx, next); err != nil {
		return runResult{actionID: actx.ActionID}, fmt.Errorf("failed to write location: %w", err)
	}
	return res, nil
}

// LinkTo returns the serialized location action on router would produce,
// without side effects.
func (m *Manager) LinkTo(router, action string, opts domain.ActionOptions) (string, error) {
	next, current, _, err := m.link(router, action, opts)
	if err != nil {
		return "", err
	}
	return codec.Serialize(next, &current), nil
}

// LinkToWithCache is LinkTo with the cache embedded under the cache key, so
// opening the link restores hidden routers the same way. Slots the action
// itself would consume are left out.
func (m *Manager) LinkToWithCache(router, action string, opts domain.ActionOptions) (string, error) {
	next, current, left, err := m.link(router, action, opts)
	if err != nil {
		return "", err
	}
	if len(left) > 0 {
		raw, err := json.Marshal(left)
		if err != nil {
			return "", err
		}
		next.Search[m.cacheKey] = string(raw)
	}
	return codec.Serialize(next, &current), nil
}

func (m *Manager) link(router, action string, opts domain.ActionOptions) (domain.Location, domain.Location, map[string]any, error) {
	m.mu.Lock()
	_, ok := m.engine.Router(router)
	m.mu.Unlock()
	if !ok {
		return domain.Location{}, domain.Location{}, nil, fmt.Errorf("%w: %q, could not generate link", domain.ErrRouterNotFound, router)
	}
	if action == "" {
		return domain.Location{}, domain.Location{}, nil, domain.ErrEmptyActionName
	}

	ctx := context.Background()
	current, err := m.transport.Location(ctx)
	if err != nil {
		return domain.Location{}, domain.Location{}, nil, fmt.Errorf("failed to read location: %w", err)
	}
	opts.DryRun = true
	res, err := m.run(ctx, router, action, opts)
	if err != nil {
		return domain.Location{}, domain.Location{}, nil, err
	}
	next := res.location
	if next.Search == nil {
		next.Search = domain.Search{}
	}
	return next, current, res.cache, nil
}

// Navigate replaces the location with a serialized one. A cache carried
// under the cache key is imported first.
func (m *Manager) Navigate(ctx context.Context, serialized string) error {
	m.actionMu.Lock()
	defer m.actionMu.Unlock()

	loc := codec.Deserialize(serialized)
	loc.Options.ReplaceLocation = false

	// Keys absent from the target must not be carried forward.
	current, err := m.transport.Location(ctx)
	if err != nil {
		return fmt.Errorf("failed to read location: %w", err)
	}
	for k := range current.Search {
		if !loc.Search.Has(k) {
			loc.Search[k] = nil
		}
	}

	m.mu.Lock()
	loc = m.importCache(loc)
	m.mu.Unlock()
	return m.transport.SetState(ctx, loc)
}

// importCache fills empty cache slots from the cache marker of loc and,
// unless disabled, returns loc with the marker removed. Callers hold mu.
func (m *Manager) importCache(loc domain.Location) domain.Location {
	if !m.carriesCache(loc) {
		return loc
	}
	raw, _ := loc.Search.String(m.cacheKey)

	values, err := runtime.DecodeSnapshot(raw)
	if err != nil {
		m.logger.Warn("Ignoring malformed cache in location", "err", err)
	} else {
		written := m.cache.Import(values)
		m.logger.Debug("cache imported from location", "routers", written)
	}

	if !m.removeCacheAfterRehydration {
		return loc
	}
	loc = loc.Clone()
	loc.Search[m.cacheKey] = nil
	return loc
}

func (m *Manager) carriesCache(loc domain.Location) bool {
	if m.cacheKey == "" {
		return false
	}
	raw, ok := loc.Search.String(m.cacheKey)
	return ok && raw != ""
}

// onLocation handles every location the transport accepts: a location
// still carrying the cache marker is imported and replaced by the stripped
// one, which comes back through here; any other location yields exactly one
// reducer pass.
func (m *Manager) onLocation(loc domain.Location) {
	ctx := context.Background()

	m.mu.Lock()
	if m.carriesCache(loc) {
		stripped := m.importCache(loc)
		if m.removeCacheAfterRehydration {
			m.mu.Unlock()

			stripped.Options.ReplaceLocation = true
			if err := m.transport.SetState(ctx, stripped); err != nil {
				m.logger.Error("Failed to strip cache from location", "err", err)
			}
			return
		}
	}

	states := m.engine.ComputeState(loc)
	m.computations.Inc()
	m.mu.Unlock()

	previous := m.store.Snapshot()
	m.store.SetState(states)

	current := make(map[string]domain.RouterState, len(previous))
	for name, snap := range previous {
		current[name] = snap.Current
	}
	diff := domain.Diff(current, states)

	m.logger.Debug("state computed", "routers", len(states), "changed", diffSize(diff))

	event := &domain.StateEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStateChange},
		Location:  codec.Serialize(loc, nil),
		Diff:      diff,
	}
	if m.hooks.OnStateChange != nil {
		m.hooks.OnStateChange(ctx, event)
	}
	for _, fn := range m.stateListeners() {
		fn(event)
	}
}

func diffSize(d *domain.StateDiff) int {
	if d == nil {
		return 0
	}
	return len(d.Changed) + len(d.Removed)
}

// OnStateChange registers fn for every published reducer pass.
func (m *Manager) OnStateChange(fn func(*domain.StateEvent)) func() {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = fn
	return func() {
		m.listenersMu.Lock()
		defer m.listenersMu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) stateListeners() []func(*domain.StateEvent) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(*domain.StateEvent), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.listeners[id])
	}
	return fns
}

// Location returns the current serialized location.
func (m *Manager) Location(ctx context.Context) (string, error) {
	loc, err := m.transport.Location(ctx)
	if err != nil {
		return "", err
	}
	return codec.Serialize(loc, nil), nil
}

// State returns the published snapshot of a router.
func (m *Manager) State(name string) (domain.RouterSnapshot, bool) {
	m.mu.Lock()
	_, ok := m.engine.Router(name)
	m.mu.Unlock()
	if !ok {
		return domain.RouterSnapshot{}, false
	}
	return m.store.Getter(name)(), true
}

// Snapshot copies the published state of every router.
func (m *Manager) Snapshot() map[string]domain.RouterSnapshot {
	return m.store.Snapshot()
}

// Inspect lists the router tree in pre-order.
func (m *Manager) Inspect() []domain.RouterInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Inspect()
}

// Cache copies the filled cache slots.
func (m *Manager) Cache() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Export()
}

// Stats reports how many actions ran and how many reducer passes were
// published since the Manager was built.
func (m *Manager) Stats() (actions, computations int64) {
	return m.actions.Load(), m.computations.Load()
}

// AddRouter inserts a single router under decl.ParentName and republishes
// state. The router is not shown.
func (m *Manager) AddRouter(ctx context.Context, decl *domain.Declaration) error {
	m.actionMu.Lock()
	defer m.actionMu.Unlock()

	m.mu.Lock()
	n, err := m.engine.AddRouter(decl)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.treeChanged(ctx, domain.EventRouterAdd, []string{n.Name()})
}

// AddRouters inserts decl and its subtree, all or nothing, and republishes
// state.
func (m *Manager) AddRouters(ctx context.Context, decl *domain.Declaration) error {
	m.actionMu.Lock()
	defer m.actionMu.Unlock()

	m.mu.Lock()
	added, err := m.engine.AddRouters(decl)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.treeChanged(ctx, domain.EventRouterAdd, added)
}

// RemoveRouter detaches a router and its subtree, dropping their observers
// and cache slots, and republishes state.
func (m *Manager) RemoveRouter(ctx context.Context, name string) error {
	m.actionMu.Lock()
	defer m.actionMu.Unlock()

	m.mu.Lock()
	removed, err := m.engine.RemoveRouter(name)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	for _, rn := range removed {
		m.store.UnsubscribeAll(rn)
	}
	return m.treeChanged(ctx, domain.EventRouterRemove, removed)
}

func (m *Manager) treeChanged(ctx context.Context, typ domain.EventType, routers []string) error {
	if m.hooks.OnTreeChange != nil {
		m.hooks.OnTreeChange(ctx, &domain.TreeEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ},
			Routers:   routers,
		})
	}
	loc, err := m.transport.Location(ctx)
	if err != nil {
		return fmt.Errorf("failed to read location: %w", err)
	}
	m.onLocation(loc)
	return nil
}

// Router returns a handle bound to the named router.
func (m *Manager) Router(name string) (*Router, error) {
	m.mu.Lock()
	n, ok := m.engine.Router(name)
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrRouterNotFound, name)
	}
	return &Router{manager: m, name: name, typ: n.Type()}, nil
}

// IsNotFound reports whether err means a router does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrRouterNotFound)
}
