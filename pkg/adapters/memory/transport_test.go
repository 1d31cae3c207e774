package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	contract "github.com/aretw0/arbor/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_Contract(t *testing.T) {
	contract.RunLocationTransportContract(t, func(t *testing.T) ports.LocationTransport {
		return memory.NewTransport()
	})
}

func TestTransport_History(t *testing.T) {
	ctx := context.Background()
	tr := memory.NewTransport()

	require.NoError(t, tr.SetState(ctx, domain.Location{Pathname: []string{"a"}}))
	require.NoError(t, tr.SetState(ctx, domain.Location{Pathname: []string{"b"}}))
	assert.Equal(t, "/b", tr.Serialized())

	require.NoError(t, tr.Back(ctx))
	assert.Equal(t, "/a", tr.Serialized())

	require.NoError(t, tr.Forward(ctx))
	assert.Equal(t, "/b", tr.Serialized())

	// Forward past the end is a no-op.
	require.NoError(t, tr.Forward(ctx))
	assert.Equal(t, "/b", tr.Serialized())

	// Pushing after Back drops forward entries.
	require.NoError(t, tr.Back(ctx))
	require.NoError(t, tr.SetState(ctx, domain.Location{Pathname: []string{"c"}}))
	history, index := tr.History()
	assert.Equal(t, []string{"/", "/a", "/c"}, history)
	assert.Equal(t, 2, index)
}

func TestTransport_ReplaceLocation(t *testing.T) {
	ctx := context.Background()
	tr := memory.NewTransport(memory.WithInitialLocation("/start?x=1"))

	require.NoError(t, tr.SetState(ctx, domain.Location{
		Pathname: []string{"next"},
		Options:  domain.LocationOptions{ReplaceLocation: true},
	}))

	history, index := tr.History()
	assert.Equal(t, []string{"/next?x=1"}, history)
	assert.Equal(t, 0, index)
}

func TestTransport_MaxHistory(t *testing.T) {
	ctx := context.Background()
	tr := memory.NewTransport(memory.WithMaxHistory(2))

	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, tr.SetState(ctx, domain.Location{Pathname: []string{p}}))
	}

	history, index := tr.History()
	assert.Equal(t, []string{"/b", "/c"}, history)
	assert.Equal(t, 1, index)
}

func TestTransport_BackNotifiesObservers(t *testing.T) {
	ctx := context.Background()
	tr := memory.NewTransport()
	require.NoError(t, tr.SetState(ctx, domain.Location{Pathname: []string{"a"}}))

	var got []string
	tr.Subscribe(func(loc domain.Location) {
		got = append(got, loc.Segment(0))
	})
	require.NoError(t, tr.Back(ctx))
	assert.Equal(t, []string{""}, got)
}
