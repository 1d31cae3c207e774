package observability

import (
	"context"
	"errors"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	Actions        *prometheus.CounterVec
	ActionErrors   *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
	StateChanges   prometheus.Counter
	ChangedRouters prometheus.Histogram
	CacheWrites    *prometheus.CounterVec
	Rehydrations   *prometheus.CounterVec
	TreeChanges    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_actions_total",
			Help: "Router actions triggered from outside the engine.",
		}, []string{"router", "action"}),
		ActionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_action_errors_total",
			Help: "Router actions that failed.",
		}, []string{"router", "action"}),
		ActionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arbor_action_duration_seconds",
			Help:    "Duration of a full action cascade.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"action"}),
		StateChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbor_state_changes_total",
			Help: "Published reducer passes that changed at least one router.",
		}),
		ChangedRouters: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbor_state_changed_routers",
			Help:    "Routers whose state changed in one published pass.",
			Buckets: prometheus.LinearBuckets(1, 2, 8),
		}),
		CacheWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_cache_writes_total",
			Help: "Cache slots written when routers were hidden.",
		}, []string{"router"}),
		Rehydrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_rehydrations_total",
			Help: "Routers restored from their cache slot.",
		}, []string{"router"}),
		TreeChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_tree_changes_total",
			Help: "Routers added to or removed from the tree.",
		}, []string{"kind"}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Actions, m.ActionErrors, m.ActionDuration,
		m.StateChanges, m.ChangedRouters,
		m.CacheWrites, m.Rehydrations, m.TreeChanges,
	}
}

// Hooks returns lifecycle hooks recording into m. Dry runs are not counted.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAction: func(_ context.Context, e *domain.ActionEvent) {
			if e.DryRun {
				return
			}
			m.Actions.WithLabelValues(e.Router, e.Action).Inc()
			m.ActionDuration.WithLabelValues(e.Action).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.ActionErrors.WithLabelValues(e.Router, e.Action).Inc()
			}
		},
		OnStateChange: func(_ context.Context, e *domain.StateEvent) {
			if e.Diff == nil {
				return
			}
			m.StateChanges.Inc()
			m.ChangedRouters.Observe(float64(len(e.Diff.Changed) + len(e.Diff.Removed)))
		},
		OnCacheWrite: func(_ context.Context, e *domain.CacheEvent) {
			m.CacheWrites.WithLabelValues(e.Router).Inc()
		},
		OnRehydrate: func(_ context.Context, e *domain.CacheEvent) {
			m.Rehydrations.WithLabelValues(e.Router).Inc()
		},
		OnTreeChange: func(_ context.Context, e *domain.TreeEvent) {
			kind := "add"
			if e.Type == domain.EventRouterRemove {
				kind = "remove"
			}
			m.TreeChanges.WithLabelValues(kind).Add(float64(len(e.Routers)))
		},
	}
}
