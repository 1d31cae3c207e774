package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tree() *domain.Declaration {
	b := dsl.New("app")
	b.Root().Scene("home").Default(domain.ActionShow).
		Feature("menu")
	b.Root().Scene("settings")
	return b.Build()
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	m, err := arbor.New(tree(), arbor.WithLifecycleHooks(metrics.Hooks()))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, m.Do(ctx, "menu", domain.ActionShow, domain.ActionOptions{}))
	require.NoError(t, m.Do(ctx, "home", domain.ActionHide, domain.ActionOptions{}))
	require.NoError(t, m.Do(ctx, "home", domain.ActionShow, domain.ActionOptions{}))
	_, err = m.Preview(ctx, "settings", domain.ActionShow, domain.ActionOptions{})
	require.NoError(t, err)
	assert.Error(t, m.Do(ctx, "menu", "spin", domain.ActionOptions{}))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Actions.WithLabelValues("menu", domain.ActionShow)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Actions.WithLabelValues("home", domain.ActionHide)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ActionErrors.WithLabelValues("menu", "spin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheWrites.WithLabelValues("menu")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Rehydrations.WithLabelValues("menu")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.StateChanges), 3.0)

	require.NoError(t, m.RemoveRouter(ctx, "menu"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TreeChanges.WithLabelValues("remove")))

	count, err := testutil.GatherAndCount(reg, "arbor_actions_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count, "dry runs are not counted")
}

func TestNewMetrics_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	// A second set on the same registry is tolerated.
	_, err = observability.NewMetrics(reg)
	assert.NoError(t, err)

	m, err := observability.NewMetrics(nil)
	require.NoError(t, err)
	assert.NotNil(t, m.Actions)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m, err := arbor.New(tree(), arbor.WithLifecycleHooks(observability.LoggingHooks(logger)))
	require.NoError(t, err)
	require.NoError(t, m.Do(context.Background(), "menu", domain.ActionShow, domain.ActionOptions{}))

	out := buf.String()
	assert.Contains(t, out, "msg=action router=menu action=show")
	assert.Contains(t, out, "msg=state_change")
	assert.True(t, strings.Contains(out, `location="/home?menu=true"`), out)
}
