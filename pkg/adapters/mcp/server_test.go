package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *arbor.Manager) {
	t.Helper()
	b := dsl.New("app")
	b.Root().Scene("home").Default(domain.ActionShow).
		Feature("menu")
	b.Root().Scene("settings")
	b.Root().Stack("chat")
	b.Root().Stack("help")

	m, err := arbor.New(b.Build(), arbor.WithLogger(logging.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return NewServer(m), m
}

func TestTools_ShowAndHide(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	res, err := s.handleShow(ctx, req, map[string]interface{}{"router": "menu"})
	require.NoError(t, err)
	assert.Equal(t, "/home?menu=true", res.Location)

	res, err = s.handleHide(ctx, req, map[string]interface{}{"router": "home"})
	require.NoError(t, err)
	assert.Equal(t, "/", res.Location)

	// The hidden subtree comes back from the cache.
	res, err = s.handleShow(ctx, req, map[string]interface{}{"router": "home"})
	require.NoError(t, err)
	assert.Equal(t, "/home?menu=true", res.Location)

	_, err = s.handleShow(ctx, req, map[string]interface{}{"router": "nope"})
	assert.ErrorIs(t, err, domain.ErrRouterNotFound)
}

func TestTools_RouterAction(t *testing.T) {
	s, m := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	for _, name := range []string{"chat", "help"} {
		_, err := s.handleShow(ctx, req, map[string]interface{}{"router": name})
		require.NoError(t, err)
	}

	res, err := s.handleAction(ctx, req, map[string]interface{}{"router": "chat", "action": "bringToFront", "dry_run": true})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, "/home?chat=1&help=2", res.Location)

	chat, _ := m.State("chat")
	assert.Equal(t, 2, chat.Current.Order, "dry runs leave the state alone")

	res, err = s.handleAction(ctx, req, map[string]interface{}{"router": "chat", "action": "bringToFront"})
	require.NoError(t, err)
	assert.False(t, res.DryRun)
	assert.Equal(t, "/home?chat=1&help=2", res.Location)

	_, err = s.handleAction(ctx, req, map[string]interface{}{"router": "menu", "action": "bringToFront"})
	assert.ErrorIs(t, err, domain.ErrActionNotFound)
}

func TestTools_LinkTo(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	link, err := s.handleLink(ctx, req, map[string]interface{}{"router": "settings", "action": "show"})
	require.NoError(t, err)
	assert.Equal(t, "/settings", link.Href)

	_, err = s.handleLink(ctx, req, map[string]interface{}{"router": "settings", "action": ""})
	assert.ErrorIs(t, err, domain.ErrEmptyActionName)
}

func TestTools_GetStateAndNavigate(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	res, err := s.handleNavigate(ctx, req, map[string]interface{}{"location": "/settings?help=1"})
	require.NoError(t, err)
	assert.Equal(t, "/settings?help=1", res.Location)

	state, err := s.handleState(ctx, req, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "/settings?help=1", state.Location)
	assert.Len(t, state.Routers, 6)
	assert.True(t, state.Routers["help"].Current.Visible)

	state, err = s.handleState(ctx, req, map[string]interface{}{"router": "home"})
	require.NoError(t, err)
	require.Len(t, state.Routers, 1)
	assert.False(t, state.Routers["home"].Current.Visible)
	assert.True(t, state.Routers["home"].WasVisible())

	_, err = s.handleState(ctx, req, map[string]interface{}{"router": "nope"})
	assert.ErrorIs(t, err, domain.ErrRouterNotFound)
}

func TestResources_Tree(t *testing.T) {
	s, _ := newTestServer(t)

	contents, err := s.readTree(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, treeURI, text.URI)

	var infos []domain.RouterInfo
	require.NoError(t, json.Unmarshal([]byte(text.Text), &infos))
	require.Len(t, infos, 6)
	assert.Equal(t, "app", infos[0].Name)
}
