package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var rawSpec []byte

// Server exposes a RouterManager over REST plus a WebSocket state stream.
type Server struct {
	Manager ports.RouterManager
	Streams *StreamManager

	spec     *openapi3.T
	router   routers.Router
	gatherer prometheus.Gatherer
	handler  http.Handler
	stop     func()
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves the gatherer's metrics on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer loads the embedded API document, wires the routes and starts
// forwarding state changes of m to WebSocket clients. Call Close to detach.
func NewServer(m ports.RouterManager, opts ...Option) (*Server, error) {
	spec, err := loadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	router, err := legacy.NewRouter(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to build request router: %w", err)
	}

	s := &Server{
		Manager: m,
		Streams: NewStreamManager(),
		spec:    spec,
		router:  router,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Get("/ws", s.Streams.ServeWS(s.snapshotMessage))
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.validateRequest)
		r.Get("/health", s.GetHealth)
		r.Get("/info", s.GetInfo)
		r.Get("/location", s.GetLocation)
		r.Put("/location", s.Navigate)
		r.Get("/state", s.GetState)
		r.Get("/state/{router}", s.GetRouterState)
		r.Get("/routers", s.ListRouters)
		r.Post("/routers", s.AddRouters)
		r.Delete("/routers/{router}", s.RemoveRouter)
		r.Post("/routers/{router}/actions/{action}", s.RunAction)
		r.Get("/links/{router}/{action}", s.LinkTo)
	})

	s.handler = enableCORS(r)
	s.stop = m.OnStateChange(func(ev *domain.StateEvent) {
		s.Streams.Broadcast(StreamMessage{Type: MessageStateChange, Location: ev.Location, Diff: ev.Diff})
	})
	return s, nil
}

func loadSpec(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	if err := spec.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}
	return spec, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close stops forwarding state changes and disconnects stream clients.
func (s *Server) Close() error {
	s.stop()
	s.Streams.Close()
	return nil
}

// validateRequest checks requests against the API document. Routes the
// document does not describe pass through untouched.
func (s *Server) validateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := s.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
			slog.Warn("Request rejected", "path", r.URL.Path, "error", err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Arbor API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// LocationResponse carries a serialized location.
type LocationResponse struct {
	Location string `json:"location"`
}

// LinkResponse carries a generated link.
type LinkResponse struct {
	Href string `json:"href"`
}

// NavigateRequest is the body of PUT /location.
type NavigateRequest struct {
	Location string `json:"location"`
}

// LinkParams are the query parameters of GET /links/{router}/{action}.
type LinkParams struct {
	Data  string
	Cache bool
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "arbor-http",
		"version":     arbor.Version,
		"api_version": apiVersion,
	})
}

// GetLocation handles the GET /location request.
func (s *Server) GetLocation(w http.ResponseWriter, r *http.Request) {
	s.writeLocation(w, r)
}

// Navigate handles the PUT /location request.
func (s *Server) Navigate(w http.ResponseWriter, r *http.Request) {
	var body NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn("Navigate: Invalid request body", "error", err)
		return
	}
	if err := s.Manager.Navigate(r.Context(), body.Location); err != nil {
		writeError(w, "Navigate", err)
		return
	}
	s.writeLocation(w, r)
}

// GetState handles the GET /state request.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Manager.Snapshot())
}

// GetRouterState handles the GET /state/{router} request.
func (s *Server) GetRouterState(w http.ResponseWriter, r *http.Request) {
	name, ok := pathParam(w, r, "router")
	if !ok {
		return
	}
	snap, found := s.Manager.State(name)
	if !found {
		http.Error(w, fmt.Sprintf("Router %q not found", name), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListRouters handles the GET /routers request.
func (s *Server) ListRouters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Manager.Inspect())
}

// AddRouters handles the POST /routers request.
func (s *Server) AddRouters(w http.ResponseWriter, r *http.Request) {
	var decl domain.Declaration
	if err := json.NewDecoder(r.Body).Decode(&decl); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn("AddRouters: Invalid request body", "error", err)
		return
	}
	if err := s.Manager.AddRouters(r.Context(), &decl); err != nil {
		writeError(w, "AddRouters", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// RemoveRouter handles the DELETE /routers/{router} request.
func (s *Server) RemoveRouter(w http.ResponseWriter, r *http.Request) {
	name, ok := pathParam(w, r, "router")
	if !ok {
		return
	}
	if err := s.Manager.RemoveRouter(r.Context(), name); err != nil {
		writeError(w, "RemoveRouter", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunAction handles the POST /routers/{router}/actions/{action} request.
// Dry runs answer with the location the action would produce.
func (s *Server) RunAction(w http.ResponseWriter, r *http.Request) {
	router, ok := pathParam(w, r, "router")
	if !ok {
		return
	}
	action, ok := pathParam(w, r, "action")
	if !ok {
		return
	}

	var opts domain.ActionOptions
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			slog.Warn("RunAction: Invalid request body", "error", err)
			return
		}
	}

	if opts.DryRun {
		href, err := s.Manager.LinkTo(router, action, opts)
		if err != nil {
			writeError(w, "RunAction", err)
			return
		}
		writeJSON(w, http.StatusOK, LocationResponse{Location: href})
		return
	}

	if err := s.Manager.Do(r.Context(), router, action, opts); err != nil {
		writeError(w, "RunAction", err)
		return
	}
	s.writeLocation(w, r)
}

// LinkTo handles the GET /links/{router}/{action} request.
func (s *Server) LinkTo(w http.ResponseWriter, r *http.Request) {
	router, ok := pathParam(w, r, "router")
	if !ok {
		return
	}
	action, ok := pathParam(w, r, "action")
	if !ok {
		return
	}

	var params LinkParams
	if err := runtime.BindQueryParameter("form", true, false, "data", r.URL.Query(), &params.Data); err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter data: %v", err), http.StatusBadRequest)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "cache", r.URL.Query(), &params.Cache); err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter cache: %v", err), http.StatusBadRequest)
		return
	}

	opts := domain.ActionOptions{Data: params.Data}
	link := s.Manager.LinkTo
	if params.Cache {
		link = s.Manager.LinkToWithCache
	}
	href, err := link(router, action, opts)
	if err != nil {
		writeError(w, "LinkTo", err)
		return
	}
	writeJSON(w, http.StatusOK, LinkResponse{Href: href})
}

func (s *Server) writeLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := s.Manager.Location(r.Context())
	if err != nil {
		writeError(w, "Location", err)
		return
	}
	writeJSON(w, http.StatusOK, LocationResponse{Location: loc})
}

func (s *Server) snapshotMessage(ctx context.Context) (StreamMessage, error) {
	loc, err := s.Manager.Location(ctx)
	if err != nil {
		return StreamMessage{}, err
	}
	return StreamMessage{Type: MessageSnapshot, Location: loc, State: s.Manager.Snapshot()}, nil
}

// -- Helpers --

func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &value, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter %s: %v", name, err), http.StatusBadRequest)
		return "", false
	}
	return value, true
}

// statusOf maps engine errors onto HTTP status codes.
func statusOf(err error) int {
	var cfgErr *domain.ConfigError
	switch {
	case errors.Is(err, domain.ErrRouterNotFound), errors.Is(err, domain.ErrParentNotFound):
		return http.StatusNotFound
	case errors.As(err, &cfgErr),
		errors.Is(err, domain.ErrActionNotFound),
		errors.Is(err, domain.ErrEmptyActionName),
		errors.Is(err, domain.ErrMissingData):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
	if status == http.StatusInternalServerError {
		slog.Error(op+" failed", "error", err)
		return
	}
	slog.Debug(op+" rejected", "error", err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}
