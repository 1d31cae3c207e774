package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/arbor"
	arborhttp "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appTree() *domain.Declaration {
	b := dsl.New("app")
	b.Root().Scene("home").Default(domain.ActionShow).
		Feature("menu")
	b.Root().Scene("settings")
	b.Root().Feature("banner")
	return b.Build()
}

func newServer(t *testing.T, opts ...arborhttp.Option) (*arborhttp.Server, *arbor.Manager) {
	t.Helper()
	m, err := arbor.New(appTree())
	require.NoError(t, err)
	srv, err := arborhttp.NewServer(m, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = srv.Close()
		_ = m.Close()
	})
	return srv, m
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&v), w.Body.String())
	return v
}

func TestServer_HealthAndInfo(t *testing.T) {
	srv, _ := newServer(t)

	w := do(t, srv, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])

	w = do(t, srv, "GET", "/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]string](t, w)
	assert.Equal(t, "arbor-http", info["app"])
	assert.Equal(t, arbor.Version, info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])
}

func TestServer_RunAction(t *testing.T) {
	srv, m := newServer(t)

	w := do(t, srv, "GET", "/location", "")
	assert.Equal(t, "/home", decode[arborhttp.LocationResponse](t, w).Location)

	w = do(t, srv, "POST", "/routers/settings/actions/show", "{}")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/settings", decode[arborhttp.LocationResponse](t, w).Location)

	w = do(t, srv, "POST", "/routers/menu/actions/show", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/home?menu=true", decode[arborhttp.LocationResponse](t, w).Location)

	home, ok := m.State("home")
	require.True(t, ok)
	assert.True(t, home.Current.Visible)
}

func TestServer_RunAction_DryRun(t *testing.T) {
	srv, m := newServer(t)

	w := do(t, srv, "POST", "/routers/menu/actions/show", `{"dry_run": true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/home?menu=true", decode[arborhttp.LocationResponse](t, w).Location)

	loc, err := m.Location(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/home", loc)
}

func TestServer_Errors(t *testing.T) {
	srv, _ := newServer(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"unknown router", "POST", "/routers/nope/actions/show", "", http.StatusNotFound},
		{"action not implemented", "POST", "/routers/menu/actions/bringToFront", "", http.StatusBadRequest},
		{"unknown router state", "GET", "/state/nope", "", http.StatusNotFound},
		{"body fails the schema", "PUT", "/location", `{}`, http.StatusBadRequest},
		{"wrong option type", "POST", "/routers/menu/actions/show", `{"dry_run": "yes"}`, http.StatusBadRequest},
		{"bad query parameter", "GET", "/links/menu/show?cache=maybe", "", http.StatusBadRequest},
		{"remove unknown router", "DELETE", "/routers/nope", "", http.StatusNotFound},
		{"duplicate router", "POST", "/routers", `{"name": "menu", "type": "feature", "parent": "app"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestServer_StateAndRouters(t *testing.T) {
	srv, _ := newServer(t)

	w := do(t, srv, "GET", "/state/home", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[domain.RouterSnapshot](t, w).Current.Visible)

	w = do(t, srv, "GET", "/state", "")
	state := decode[map[string]domain.RouterSnapshot](t, w)
	assert.Len(t, state, 5)
	assert.False(t, state["settings"].Current.Visible)

	w = do(t, srv, "GET", "/routers", "")
	infos := decode[[]domain.RouterInfo](t, w)
	require.Len(t, infos, 5)
	assert.Equal(t, "app", infos[0].Name)
	assert.Equal(t, domain.TypeRoot, infos[0].Type)
}

func TestServer_Navigate(t *testing.T) {
	srv, m := newServer(t)

	w := do(t, srv, "PUT", "/location", `{"location": "/settings?banner=true"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/settings?banner=true", decode[arborhttp.LocationResponse](t, w).Location)

	banner, _ := m.State("banner")
	assert.True(t, banner.Current.Visible)
}

func TestServer_Links(t *testing.T) {
	srv, m := newServer(t)
	ctx := context.Background()

	w := do(t, srv, "GET", "/links/menu/show", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/home?menu=true", decode[arborhttp.LinkResponse](t, w).Href)

	require.NoError(t, m.Do(ctx, "menu", domain.ActionShow, domain.ActionOptions{}))
	require.NoError(t, m.Do(ctx, "settings", domain.ActionShow, domain.ActionOptions{}))

	w = do(t, srv, "GET", "/links/home/show?cache=true", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/home?menu=true", decode[arborhttp.LinkResponse](t, w).Href)

	// Slots the previewed action does not consume travel in the link.
	w = do(t, srv, "GET", "/links/banner/show?cache=true", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	href := decode[arborhttp.LinkResponse](t, w).Href
	assert.True(t, strings.HasPrefix(href, "/settings?"), href)
	assert.Contains(t, href, "__cache=")
	assert.Contains(t, href, "banner=true")

	w = do(t, srv, "GET", "/links/banner/show", "")
	assert.Equal(t, "/settings?banner=true", decode[arborhttp.LinkResponse](t, w).Href)
}

func TestServer_AddAndRemoveRouters(t *testing.T) {
	srv, m := newServer(t)

	w := do(t, srv, "POST", "/routers", `{"name": "about", "type": "scene", "parent": "app", "children": {"feature": [{"name": "faq"}]}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, m.Inspect(), 7)

	w = do(t, srv, "POST", "/routers/faq/actions/show", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/about?faq=true", decode[arborhttp.LocationResponse](t, w).Location)

	w = do(t, srv, "DELETE", "/routers/about", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, m.Inspect(), 5)
}

func TestServer_Docs(t *testing.T) {
	srv, _ := newServer(t)

	w := do(t, srv, "GET", "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Arbor Router API")

	w = do(t, srv, "GET", "/swagger", "")
	assert.Contains(t, w.Body.String(), "swagger-ui")

	w = do(t, srv, "OPTIONS", "/location", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	m, err := arbor.New(appTree(), arbor.WithLifecycleHooks(metrics.Hooks()))
	require.NoError(t, err)
	defer m.Close()
	srv, err := arborhttp.NewServer(m, arborhttp.WithMetrics(reg))
	require.NoError(t, err)
	defer srv.Close()

	do(t, srv, "POST", "/routers/settings/actions/show", "")

	w := do(t, srv, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `arbor_actions_total{action="show",router="settings"} 1`)
}

func TestServer_WebSocketStream(t *testing.T) {
	srv, m := newServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg arborhttp.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, arborhttp.MessageSnapshot, msg.Type)
	assert.Equal(t, "/home", msg.Location)
	assert.True(t, msg.State["home"].Current.Visible)
	assert.Equal(t, 1, srv.Streams.ClientCount())

	require.NoError(t, m.Do(context.Background(), "settings", domain.ActionShow, domain.ActionOptions{}))

	msg = arborhttp.StreamMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, arborhttp.MessageStateChange, msg.Type)
	assert.Equal(t, "/settings", msg.Location)
	require.NotNil(t, msg.Diff)
	assert.Contains(t, msg.Diff.Changed, "settings")
}
