package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Tree(t *testing.T) {
	b := dsl.New("app")

	b.Root().Scene("home").Default(domain.ActionShow).
		Feature("menu").DisableCaching(true).
		Up().Stack("modal")
	b.Root().Scene("settings").RouteKey("prefs")
	b.Root().Data("user").PathRouter(false).Rehydrate(false).InverselyActivate(false)

	decl := b.Build()
	assert.Equal(t, "app", decl.Name)
	assert.Equal(t, domain.TypeRoot, decl.Type)
	assert.Equal(t, []string{domain.TypeScene, domain.TypeData}, decl.ChildOrder)

	scenes := decl.Children[domain.TypeScene]
	require.Len(t, scenes, 2)
	assert.Equal(t, []string{domain.ActionShow}, scenes[0].DefaultAction)
	assert.Equal(t, "prefs", scenes[1].RouteKey)

	home := scenes[0]
	assert.Equal(t, []string{domain.TypeFeature, domain.TypeStack}, home.ChildOrder)
	require.NotNil(t, home.Children[domain.TypeFeature][0].DisableCaching)
	assert.True(t, *home.Children[domain.TypeFeature][0].DisableCaching)

	user := decl.Children[domain.TypeData][0]
	assert.False(t, *user.IsPathRouter)
	assert.False(t, *user.RehydrateChildRoutersState)
	assert.False(t, *user.ShouldInverselyActivate)
}

func TestBuilder_WalkOrder(t *testing.T) {
	b := dsl.New("root")
	b.Root().Scene("a").Feature("a1")
	b.Root().Scene("b")
	b.Root().Feature("f")

	var names []string
	require.NoError(t, b.Build().Walk(func(_, d *domain.Declaration, _ string) error {
		names = append(names, d.Name)
		return nil
	}))
	assert.Equal(t, []string{"root", "a", "a1", "b", "f"}, names)
}

func TestBuilder_Loader(t *testing.T) {
	b := dsl.New("app")
	b.Root().Scene("home")

	loader, err := b.Loader()
	require.NoError(t, err)

	decl, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "home", decl.Children[domain.TypeScene][0].Name)
}

func TestNodeBuilder_UpOnRoot(t *testing.T) {
	b := dsl.New("app")
	assert.Same(t, b.Root(), b.Root().Up())
}
