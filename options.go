package arbor

import (
	"log/slog"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"go.opentelemetry.io/otel/trace"
)

// Option defines a functional option for configuring the Manager.
type Option func(*Manager)

// WithLogger sets a custom structured logger for the manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithTransport injects the location transport (default: in-memory).
func WithTransport(t ports.LocationTransport) Option {
	return func(m *Manager) {
		m.transport = t
	}
}

// WithStateStore injects the router state store (default: in-memory).
func WithStateStore(s ports.RouterStateStore) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithTemplates adds or overrides router templates by type name.
func WithTemplates(templates domain.Templates) Option {
	return func(m *Manager) {
		m.templates = m.templates.Merge(templates)
	}
}

// WithTemplate registers a single router template.
func WithTemplate(name string, tmpl domain.Template) Option {
	return WithTemplates(domain.Templates{name: tmpl})
}

// WithCacheKey sets the search key carrying a serialized cache (default "__cache").
func WithCacheKey(key string) Option {
	return func(m *Manager) {
		m.cacheKey = key
	}
}

// WithRemoveCacheAfterRehydration controls whether the cache marker is
// stripped from the location once imported (default true).
func WithRemoveCacheAfterRehydration(enabled bool) Option {
	return func(m *Manager) {
		m.removeCacheAfterRehydration = enabled
	}
}

// WithHistorySize bounds per-router state history of the default store.
func WithHistorySize(n int) Option {
	return func(m *Manager) {
		m.historySize = n
	}
}

// WithErrorWhenMissingData makes data routers fail when shown without data.
func WithErrorWhenMissingData(enabled bool) Option {
	return func(m *Manager) {
		m.errorWhenMissingData = enabled
	}
}

// WithLocker serializes action cascades across processes sharing a transport.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of the distributed lock (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls chain.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = m.hooks.Merge(hooks)
	}
}

// WithTracerProvider sets the OpenTelemetry provider used for action spans
// (default: the global provider).
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Manager) {
		m.tracerProvider = tp
	}
}
