package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one structured line per
// event: Info for actions and tree changes, Debug for cache traffic, Error
// for failed actions.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAction: func(ctx context.Context, e *domain.ActionEvent) {
			attrs := []any{
				"router", e.Router,
				"action", e.Action,
				"action_id", e.ActionID,
				"duration", e.Duration,
			}
			if e.DryRun {
				attrs = append(attrs, "dry_run", true)
			}
			if e.Err != nil {
				logger.ErrorContext(ctx, "action failed", append(attrs, "error", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "action", attrs...)
		},
		OnStateChange: func(ctx context.Context, e *domain.StateEvent) {
			changed := 0
			if e.Diff != nil {
				changed = len(e.Diff.Changed) + len(e.Diff.Removed)
			}
			logger.InfoContext(ctx, "state_change", "location", e.Location, "changed", changed, "action_id", e.ActionID)
		},
		OnCacheWrite: func(ctx context.Context, e *domain.CacheEvent) {
			logger.DebugContext(ctx, "cache_write", "router", e.Router, "value", e.Value)
		},
		OnRehydrate: func(ctx context.Context, e *domain.CacheEvent) {
			logger.DebugContext(ctx, "rehydrate", "router", e.Router, "value", e.Value)
		},
		OnTreeChange: func(ctx context.Context, e *domain.TreeEvent) {
			logger.InfoContext(ctx, string(e.Type), "routers", e.Routers)
		},
	}
}
