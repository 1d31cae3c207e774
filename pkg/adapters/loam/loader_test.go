package loam_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/internal/testutils"
	loamAdapter "github.com/aretw0/arbor/pkg/adapters/loam"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/templates"
	"github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, files map[string]string) *loamAdapter.Loader {
	t.Helper()
	_, repo := testutils.SetupRouterRepo(t, files)
	return loamAdapter.New(loam.NewTypedRepository[loamAdapter.RouterMetadata](repo))
}

func TestLoader_Load(t *testing.T) {
	loader := seed(t, map[string]string{
		"app.md": `---
name: app
child_order: [scene, feature]
---
The application shell.`,
		"home.md": `---
type: scene
parent: app
default_action: [show]
---
Landing page.`,
		"settings.md": `---
type: scene
parent: app
---`,
		"menu.md": `---
type: feature
parent: home
disable_caching: true
---`,
		"banner.json": `{
  "type": "feature",
  "parent": "app",
  "route_key": "b"
}`,
	})

	decl, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "app", decl.Name)
	assert.Equal(t, []string{domain.TypeScene, domain.TypeFeature}, decl.ChildOrder)

	scenes := decl.Children[domain.TypeScene]
	require.Len(t, scenes, 2)
	assert.Equal(t, "home", scenes[0].Name, "siblings follow document order")
	assert.Equal(t, []string{domain.ActionShow}, scenes[0].DefaultAction)
	assert.Equal(t, "settings", scenes[1].Name)

	menu := scenes[0].Children[domain.TypeFeature]
	require.Len(t, menu, 1)
	require.NotNil(t, menu[0].DisableCaching)
	assert.True(t, *menu[0].DisableCaching)

	banner := decl.Children[domain.TypeFeature]
	require.Len(t, banner, 1)
	assert.Equal(t, "b", banner[0].RouteKey)

	e := runtime.NewEngine(templates.Defaults())
	_, err = e.AddRouters(decl)
	require.NoError(t, err)
	assert.Equal(t, 5, e.Len())
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  error
	}{
		{
			name: "two roots",
			files: map[string]string{
				"a.md": "---\nname: a\n---",
				"b.md": "---\nname: b\n---",
			},
			want: domain.ErrRootExists,
		},
		{
			name: "missing parent",
			files: map[string]string{
				"app.md":  "---\nname: app\n---",
				"menu.md": "---\ntype: feature\nparent: nowhere\n---",
			},
			want: domain.ErrParentNotFound,
		},
		{
			name: "child without type",
			files: map[string]string{
				"app.md":  "---\nname: app\n---",
				"menu.md": "---\nparent: app\n---",
			},
			want: domain.ErrInvalidDeclaration,
		},
		{
			name: "cycle",
			files: map[string]string{
				"app.md": "---\nname: app\n---",
				"x.md":   "---\ntype: feature\nparent: y\n---",
				"y.md":   "---\ntype: feature\nparent: x\n---",
			},
			want: domain.ErrInvalidDeclaration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seed(t, tt.files).Load(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoader_Load_DetectsCollisions(t *testing.T) {
	loader := seed(t, map[string]string{
		"app.md":  "---\nname: app\n---",
		"menu.md": "---\ntype: feature\nparent: app\n---",
		"menu.json": `{
  "name": "menu",
  "type": "feature",
  "parent": "app"
}`,
	})

	_, err := loader.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}
