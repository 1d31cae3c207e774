// Package tests holds reusable contract suites for port implementations.
package tests

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLocationTransportContract verifies that a LocationTransport honors the
// codec contract and notifies observers. newTransport must return an empty
// transport on every call.
func RunLocationTransportContract(t *testing.T, newTransport func(t *testing.T) ports.LocationTransport) {
	t.Helper()
	ctx := context.Background()

	t.Run("Empty Location", func(t *testing.T) {
		tr := newTransport(t)
		loc, err := tr.Location(ctx)
		require.NoError(t, err)
		assert.Empty(t, loc.Pathname)
		assert.Empty(t, loc.Search)
	})

	t.Run("SetState And Read Back", func(t *testing.T) {
		tr := newTransport(t)
		err := tr.SetState(ctx, domain.Location{
			Pathname: []string{"a", "b"},
			Search:   domain.Search{"flag": true, "name": "x"},
		})
		require.NoError(t, err)

		loc, err := tr.Location(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, loc.Pathname)
		assert.Equal(t, "true", loc.Search["flag"])
		assert.Equal(t, "x", loc.Search["name"])
	})

	t.Run("Carry Forward And Explicit Removal", func(t *testing.T) {
		tr := newTransport(t)
		require.NoError(t, tr.SetState(ctx, domain.Location{Search: domain.Search{"a": "1", "b": "hello"}}))
		require.NoError(t, tr.SetState(ctx, domain.Location{Search: domain.Search{"a": "25"}}))

		loc, err := tr.Location(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Search{"a": "25", "b": "hello"}, loc.Search)

		require.NoError(t, tr.SetState(ctx, domain.Location{Search: domain.Search{"b": nil}}))
		loc, err = tr.Location(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Search{"a": "25"}, loc.Search)
	})

	t.Run("Observers", func(t *testing.T) {
		tr := newTransport(t)

		var seen []domain.Location
		unsubscribe := tr.Subscribe(func(loc domain.Location) {
			seen = append(seen, loc)
		})

		require.NoError(t, tr.SetState(ctx, domain.Location{Pathname: []string{"one"}}))
		require.Len(t, seen, 1)
		assert.Equal(t, []string{"one"}, seen[0].Pathname)

		unsubscribe()
		require.NoError(t, tr.SetState(ctx, domain.Location{Pathname: []string{"two"}}))
		assert.Len(t, seen, 1, "unsubscribed observer must not be called")
	})
}

// RunStateStoreContract verifies a RouterStateStore implementation.
// newStore must return an empty store on every call.
func RunStateStoreContract(t *testing.T, newStore func() ports.RouterStateStore) {
	t.Helper()

	t.Run("SetState And Getter", func(t *testing.T) {
		store := newStore()
		store.SetState(map[string]domain.RouterState{
			"a": {Visible: true},
			"b": {Order: 2, Visible: true},
		})

		assert.True(t, store.Getter("a")().Current.Visible)
		assert.Equal(t, 2, store.Getter("b")().Current.Order)
		assert.Equal(t, domain.RouterSnapshot{}, store.Getter("missing")())
		assert.Len(t, store.Snapshot(), 2)
	})

	t.Run("History Is Newest First", func(t *testing.T) {
		store := newStore()
		store.SetState(map[string]domain.RouterState{"a": {Visible: true}})
		store.SetState(map[string]domain.RouterState{"a": {Visible: false}})

		snap := store.Getter("a")()
		assert.False(t, snap.Current.Visible)
		require.NotEmpty(t, snap.Historical)
		assert.True(t, snap.Historical[0].Visible)
		assert.True(t, snap.WasVisible())
	})

	t.Run("Observers Only On Change", func(t *testing.T) {
		store := newStore()
		store.SetState(map[string]domain.RouterState{"a": {}, "b": {}})

		calls := map[string]int{}
		store.Subscriber("a")(func(domain.RouterSnapshot) { calls["a"]++ })
		store.Subscriber("b")(func(domain.RouterSnapshot) { calls["b"]++ })

		store.SetState(map[string]domain.RouterState{"a": {Visible: true}, "b": {}})
		assert.Equal(t, 1, calls["a"])
		assert.Equal(t, 0, calls["b"])
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		store := newStore()
		calls := 0
		unsubscribe := store.Subscriber("a")(func(domain.RouterSnapshot) { calls++ })
		store.Subscriber("a")(func(domain.RouterSnapshot) { calls++ })

		unsubscribe()
		store.SetState(map[string]domain.RouterState{"a": {Visible: true}})
		assert.Equal(t, 1, calls)

		store.UnsubscribeAll("a")
		store.SetState(map[string]domain.RouterState{"a": {}})
		assert.Equal(t, 1, calls)
	})
}
