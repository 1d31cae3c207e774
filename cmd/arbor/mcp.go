package main

import (
	"os"
	"os/signal"
	"syscall"

	mcpAdapter "github.com/aretw0/arbor/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the router tree as an MCP server",
	Long: `Starts a Model Context Protocol server with the tools show_router, hide_router, router_action,
link_to, get_state and navigate, and the arbor://tree resource. Uses stdio unless --sse is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sse, _ := cmd.Flags().GetBool("sse")
		port, _ := cmd.Flags().GetInt("port")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := newSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		srv := mcpAdapter.NewServer(s.Manager)
		if sse {
			return srv.ServeSSE(ctx, port)
		}
		return srv.ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().Bool("sse", false, "Serve over SSE instead of stdio")
	mcpCmd.Flags().Int("port", 8081, "Port for the SSE transport")
}
