package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const treeURI = "arbor://tree"

// ActionResponse is returned by every tool that moves the location.
type ActionResponse struct {
	Location string `json:"location" jsonschema_description:"Serialized location after the action"`
	DryRun   bool   `json:"dry_run,omitempty" jsonschema_description:"True when the location was only computed"`
}

// LinkResponse carries a generated link.
type LinkResponse struct {
	Href string `json:"href" jsonschema_description:"Serialized location the action would produce"`
}

// StateResponse is the published state of one or every router.
type StateResponse struct {
	Location string                           `json:"location" jsonschema_description:"Current serialized location"`
	Routers  map[string]domain.RouterSnapshot `json:"routers" jsonschema_description:"Router name to current and historical state"`
}

// Server wraps a RouterManager and exposes it as an MCP Server.
type Server struct {
	manager   ports.RouterManager
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(manager ports.RouterManager) *Server {
	s := &Server{
		manager:   manager,
		mcpServer: server.NewMCPServer("arbor-mcp", arbor.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it
// gracefully when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	showTool := mcp.NewTool("show_router",
		mcp.WithDescription("Show a router. Ancestors are shown first and exclusive siblings are hidden."),
		mcp.WithString("router", mcp.Required(), mcp.Description("Router name")),
		mcp.WithString("data", mcp.Description("Value for data routers (optional)")),
		mcp.WithOutputSchema[ActionResponse](),
	)
	s.mcpServer.AddTool(showTool, mcp.NewStructuredToolHandler(s.handleShow))

	hideTool := mcp.NewTool("hide_router",
		mcp.WithDescription("Hide a router and its descendants, caching their visibility."),
		mcp.WithString("router", mcp.Required(), mcp.Description("Router name")),
		mcp.WithBoolean("disable_caching", mcp.Description("Do not cache the hidden subtree")),
		mcp.WithOutputSchema[ActionResponse](),
	)
	s.mcpServer.AddTool(hideTool, mcp.NewStructuredToolHandler(s.handleHide))

	actionTool := mcp.NewTool("router_action",
		mcp.WithDescription("Run any action implemented by the router's type (e.g. bringToFront on stacks)."),
		mcp.WithString("router", mcp.Required(), mcp.Description("Router name")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action name")),
		mcp.WithString("data", mcp.Description("Value for data routers (optional)")),
		mcp.WithBoolean("disable_caching", mcp.Description("Do not cache hidden routers")),
		mcp.WithBoolean("dry_run", mcp.Description("Only compute the resulting location")),
		mcp.WithOutputSchema[ActionResponse](),
	)
	s.mcpServer.AddTool(actionTool, mcp.NewStructuredToolHandler(s.handleAction))

	linkTool := mcp.NewTool("link_to",
		mcp.WithDescription("Compute the location an action would produce without applying it."),
		mcp.WithString("router", mcp.Required(), mcp.Description("Router name")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action name")),
		mcp.WithString("data", mcp.Description("Value for data routers (optional)")),
		mcp.WithBoolean("cache", mcp.Description("Embed the router cache in the link")),
		mcp.WithOutputSchema[LinkResponse](),
	)
	s.mcpServer.AddTool(linkTool, mcp.NewStructuredToolHandler(s.handleLink))

	stateTool := mcp.NewTool("get_state",
		mcp.WithDescription("Get the published state of one router, or of every router when omitted."),
		mcp.WithString("router", mcp.Description("Router name (optional)")),
		mcp.WithOutputSchema[StateResponse](),
	)
	s.mcpServer.AddTool(stateTool, mcp.NewStructuredToolHandler(s.handleState))

	navigateTool := mcp.NewTool("navigate",
		mcp.WithDescription("Replace the current location with a serialized one."),
		mcp.WithString("location", mcp.Required(), mcp.Description("Serialized location, e.g. /home?menu=true")),
		mcp.WithOutputSchema[ActionResponse](),
	)
	s.mcpServer.AddTool(navigateTool, mcp.NewStructuredToolHandler(s.handleNavigate))
}

func (s *Server) handleShow(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ActionResponse, error) {
	return s.run(ctx, str(args, "router"), domain.ActionShow, domain.ActionOptions{Data: str(args, "data")})
}

func (s *Server) handleHide(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ActionResponse, error) {
	return s.run(ctx, str(args, "router"), domain.ActionHide, domain.ActionOptions{DisableCaching: flag(args, "disable_caching")})
}

func (s *Server) handleAction(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ActionResponse, error) {
	opts := domain.ActionOptions{
		Data:           str(args, "data"),
		DisableCaching: flag(args, "disable_caching"),
		DryRun:         flag(args, "dry_run"),
	}
	return s.run(ctx, str(args, "router"), str(args, "action"), opts)
}

func (s *Server) run(ctx context.Context, router, action string, opts domain.ActionOptions) (ActionResponse, error) {
	if opts.DryRun {
		href, err := s.manager.LinkTo(router, action, opts)
		if err != nil {
			return ActionResponse{}, fmt.Errorf("%s failed: %w", action, err)
		}
		return ActionResponse{Location: href, DryRun: true}, nil
	}

	if err := s.manager.Do(ctx, router, action, opts); err != nil {
		slog.Warn("MCP: action rejected", "router", router, "action", action, "error", err)
		return ActionResponse{}, fmt.Errorf("%s failed: %w", action, err)
	}
	loc, err := s.manager.Location(ctx)
	if err != nil {
		return ActionResponse{}, fmt.Errorf("failed to read location: %w", err)
	}
	return ActionResponse{Location: loc}, nil
}

func (s *Server) handleLink(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (LinkResponse, error) {
	link := s.manager.LinkTo
	if flag(args, "cache") {
		link = s.manager.LinkToWithCache
	}
	href, err := link(str(args, "router"), str(args, "action"), domain.ActionOptions{Data: str(args, "data")})
	if err != nil {
		return LinkResponse{}, fmt.Errorf("link failed: %w", err)
	}
	return LinkResponse{Href: href}, nil
}

func (s *Server) handleState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	loc, err := s.manager.Location(ctx)
	if err != nil {
		return StateResponse{}, fmt.Errorf("failed to read location: %w", err)
	}

	name := str(args, "router")
	if name == "" {
		return StateResponse{Location: loc, Routers: s.manager.Snapshot()}, nil
	}
	snap, ok := s.manager.State(name)
	if !ok {
		return StateResponse{}, fmt.Errorf("%w: %q", domain.ErrRouterNotFound, name)
	}
	return StateResponse{Location: loc, Routers: map[string]domain.RouterSnapshot{name: snap}}, nil
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ActionResponse, error) {
	if err := s.manager.Navigate(ctx, str(args, "location")); err != nil {
		return ActionResponse{}, fmt.Errorf("navigate failed: %w", err)
	}
	loc, err := s.manager.Location(ctx)
	if err != nil {
		return ActionResponse{}, fmt.Errorf("failed to read location: %w", err)
	}
	return ActionResponse{Location: loc}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(treeURI, "Router Tree",
		mcp.WithResourceDescription("Every router in pre-order with its resolved configuration"),
		mcp.WithMIMEType("application/json"),
	), s.readTree)
}

func (s *Server) readTree(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.manager.Inspect())
	if err != nil {
		return nil, fmt.Errorf("failed to encode tree: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      treeURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func str(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func flag(args map[string]interface{}, key string) bool {
	v, _ := args[key].(bool)
	return v
}
