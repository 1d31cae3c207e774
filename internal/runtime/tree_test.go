package runtime_test

import (
	"errors"
	"testing"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, decl *domain.Declaration, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	e := runtime.NewEngine(templates.Defaults(), opts...)
	_, err := e.AddRouters(decl)
	require.NoError(t, err)
	return e
}

func appTree() *domain.Declaration {
	b := dsl.New("app")
	b.Root().Scene("home").Default(domain.ActionShow).
		Feature("menu")
	b.Root().Scene("settings").
		Data("tab").RouteKey("t")
	b.Root().Feature("banner")
	return b.Build()
}

func TestEngine_AddRouters(t *testing.T) {
	e := newEngine(t, appTree())

	assert.Equal(t, 6, e.Len())
	require.NotNil(t, e.Root())
	assert.Equal(t, "app", e.Root().Name())
	assert.Equal(t, domain.TypeRoot, e.Root().Type())

	var names []string
	for _, info := range e.Inspect() {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"app", "home", "menu", "settings", "tab", "banner"}, names)

	home, ok := e.Router("home")
	require.True(t, ok)
	assert.True(t, home.IsPathRouter())
	assert.Equal(t, 0, home.PathLocation())
	assert.Equal(t, "home", home.RouteKey())
	assert.Equal(t, []string{domain.ActionShow}, home.Config().DefaultAction)
	assert.Equal(t, "app", home.ParentName())

	tab, _ := e.Router("tab")
	assert.Equal(t, "t", tab.RouteKey())
	assert.False(t, tab.IsPathRouter())
	assert.Equal(t, 1, tab.PathLocation())

	menu, _ := e.Router("menu")
	assert.Nil(t, menu.Config().DisableCaching, "caching is inherited unless declared")
	assert.True(t, menu.Config().ShouldInverselyActivate)
	assert.Equal(t, []string{}, menu.Config().DefaultAction)
}

func TestNode_Relations(t *testing.T) {
	e := newEngine(t, appTree())
	home, _ := e.Router("home")

	names := func(rs []domain.Router) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.Name())
		}
		return out
	}

	assert.Equal(t, []string{"settings"}, names(home.Siblings()))
	assert.Equal(t, []string{"banner"}, names(home.Neighbors()))
	assert.Equal(t, []string{domain.TypeScene, domain.TypeFeature}, e.Root().ChildTypes())
	assert.Equal(t, []string{"home", "settings"}, names(e.Root().Children(domain.TypeScene)))
	assert.Equal(t, "app", home.Root().Name())
	assert.Equal(t, "app", home.Parent().Name())
	assert.Nil(t, e.Root().Parent())
	assert.Empty(t, e.Root().Siblings())
}

func TestEngine_AddRouters_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *domain.Declaration
		want  error
		who   string
	}{
		{
			name: "duplicate name",
			build: func() *domain.Declaration {
				b := dsl.New("app")
				b.Root().Feature("a")
				b.Root().Scene("a")
				return b.Build()
			},
			want: domain.ErrDuplicateName,
			who:  "a",
		},
		{
			name: "duplicate route key",
			build: func() *domain.Declaration {
				b := dsl.New("app")
				b.Root().Feature("a").RouteKey("k")
				b.Root().Feature("b").RouteKey("k")
				return b.Build()
			},
			want: domain.ErrDuplicateRouteKey,
			who:  "b",
		},
		{
			name: "unknown type",
			build: func() *domain.Declaration {
				b := dsl.New("app")
				b.Root().Child("modal", "m")
				return b.Build()
			},
			want: domain.ErrUnknownRouterType,
			who:  "m",
		},
		{
			name: "feature as path router",
			build: func() *domain.Declaration {
				b := dsl.New("app")
				b.Root().Feature("f").PathRouter(true)
				return b.Build()
			},
			want: domain.ErrInvalidPathRouter,
			who:  "f",
		},
		{
			name: "path router under query router",
			build: func() *domain.Declaration {
				b := dsl.New("app")
				b.Root().Feature("f").
					Data("d").PathRouter(true)
				return b.Build()
			},
			want: domain.ErrInvalidPathRouter,
			who:  "d",
		},
		{
			name: "two path router types at one level",
			build: func() *domain.Declaration {
				b := dsl.New("app")
				b.Root().Scene("home")
				b.Root().Data("id").PathRouter(true)
				return b.Build()
			},
			want: domain.ErrPathRouterConflict,
			who:  "id",
		},
		{
			name: "default action the type does not implement",
			build: func() *domain.Declaration {
				b := dsl.New("app")
				b.Root().Feature("f").Default("bogus")
				return b.Build()
			},
			want: domain.ErrActionNotFound,
			who:  "f",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := runtime.NewEngine(templates.Defaults())
			_, err := e.AddRouters(tt.build())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var cfgErr *domain.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.who, cfgErr.Router)

			// Nothing of the failed subtree stays behind.
			assert.Equal(t, 0, e.Len())
			assert.Nil(t, e.Root())
		})
	}
}

func TestEngine_AddRouter(t *testing.T) {
	e := newEngine(t, appTree())

	n, err := e.AddRouter(&domain.Declaration{Name: "about", Type: domain.TypeScene, ParentName: "app"})
	require.NoError(t, err)
	assert.Equal(t, 0, n.PathLocation())
	assert.Equal(t, 7, e.Len())

	_, err = e.AddRouter(&domain.Declaration{Name: "orphan", Type: domain.TypeFeature, ParentName: "nope"})
	assert.ErrorIs(t, err, domain.ErrParentNotFound)

	_, err = e.AddRouter(&domain.Declaration{Name: "untyped", ParentName: "app"})
	assert.ErrorIs(t, err, domain.ErrInvalidDeclaration)

	_, err = e.AddRouter(&domain.Declaration{Name: "second"})
	assert.ErrorIs(t, err, domain.ErrRootExists)

	_, err = e.AddRouter(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidDeclaration)
}

func TestEngine_AddRouters_Subtree(t *testing.T) {
	e := newEngine(t, appTree())

	sub := &domain.Declaration{
		Name:       "profile",
		Type:       domain.TypeScene,
		ParentName: "app",
		Children: map[string][]*domain.Declaration{
			domain.TypeFeature: {{Name: "avatar"}},
		},
	}
	added, err := e.AddRouters(sub)
	require.NoError(t, err)
	assert.Equal(t, []string{"profile", "avatar"}, added)

	avatar, ok := e.Router("avatar")
	require.True(t, ok)
	assert.Equal(t, "profile", avatar.ParentName())
	assert.Equal(t, domain.TypeFeature, avatar.Type())

	// A child claiming another parent is rejected and nothing is kept.
	bad := &domain.Declaration{
		Name:       "help",
		Type:       domain.TypeScene,
		ParentName: "app",
		Children: map[string][]*domain.Declaration{
			domain.TypeFeature: {{Name: "faq", ParentName: "home"}},
		},
	}
	_, err = e.AddRouters(bad)
	assert.ErrorIs(t, err, domain.ErrInvalidDeclaration)
	_, ok = e.Router("help")
	assert.False(t, ok)
}

func TestEngine_RemoveRouter(t *testing.T) {
	e := newEngine(t, appTree())
	e.Cache().Set("menu", true)
	e.Cache().Set("banner", true)

	removed, err := e.RemoveRouter("home")
	require.NoError(t, err)
	assert.Equal(t, []string{"menu", "home"}, removed)
	assert.Equal(t, 4, e.Len())
	assert.False(t, e.Cache().Has("menu"))
	assert.True(t, e.Cache().Has("banner"))

	settings, _ := e.Router("settings")
	assert.Empty(t, settings.Siblings())

	// Route keys are released with their routers.
	_, err = e.AddRouter(&domain.Declaration{Name: "home", Type: domain.TypeScene, ParentName: "app"})
	require.NoError(t, err)

	_, err = e.RemoveRouter("missing")
	assert.ErrorIs(t, err, domain.ErrRouterNotFound)

	// The last router of a type takes the group with it.
	_, err = e.RemoveRouter("banner")
	require.NoError(t, err)
	assert.Equal(t, []string{domain.TypeScene}, e.Root().ChildTypes())
}

func TestEngine_RemoveRoot(t *testing.T) {
	e := newEngine(t, appTree())

	removed, err := e.RemoveRouter("app")
	require.NoError(t, err)
	assert.Len(t, removed, 6)
	assert.Equal(t, "app", removed[len(removed)-1])
	assert.Nil(t, e.Root())
	assert.Empty(t, e.Inspect())
	assert.Empty(t, e.ComputeState(domain.NewLocation()))
}

func TestResolveConfig_PathInheritance(t *testing.T) {
	b := dsl.New("app")
	b.Root().Feature("f").
		Scene("nested")
	b.Root().Scene("top").PathRouter(false)
	e := newEngine(t, b.Build())

	nested, _ := e.Router("nested")
	assert.False(t, nested.IsPathRouter(), "scenes below a query router live in the query")

	top, _ := e.Router("top")
	assert.False(t, top.IsPathRouter())
	assert.True(t, e.Root().IsPathRouter())
}
