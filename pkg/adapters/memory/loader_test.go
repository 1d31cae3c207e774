package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_ReturnsCopies(t *testing.T) {
	decl := &domain.Declaration{
		Name: "root",
		Children: map[string][]*domain.Declaration{
			"scene": {{Name: "home", RouteKey: "home"}},
		},
	}
	loader, err := memory.NewLoader(decl)
	require.NoError(t, err)

	first, err := loader.Load(context.Background())
	require.NoError(t, err)
	first.Children["scene"][0].Name = "mutated"

	second, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "home", second.Children["scene"][0].Name)
}

func TestLoader_FromJSON(t *testing.T) {
	loader := memory.NewLoaderFromJSON(`{"name":"root","children":{"feature":[{"name":"f","disable_caching":true}]}}`)
	decl, err := loader.Load(context.Background())
	require.NoError(t, err)

	f := decl.Children["feature"][0]
	assert.Equal(t, "f", f.Name)
	require.NotNil(t, f.DisableCaching)
	assert.True(t, *f.DisableCaching)

	_, err = memory.NewLoaderFromJSON(`{`).Load(context.Background())
	assert.Error(t, err)
}
