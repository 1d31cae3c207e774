package main

import (
	"fmt"
	"sort"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the router tree as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of the router tree. Path routers hang from solid
edges, query routers from dotted ones. With --state, visible and cached routers are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		withState, _ := cmd.Flags().GetBool("state")

		s, err := newSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		var overlay *graph.StateOverlay
		if withState {
			overlay = &graph.StateOverlay{}
			for _, info := range s.Inspect() {
				if snap, ok := s.State(info.Name); ok && snap.Current.Visible {
					overlay.Visible = append(overlay.Visible, info.Name)
				}
			}
			for name := range s.Cache() {
				overlay.Cached = append(overlay.Cached, name)
			}
			sort.Strings(overlay.Cached)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(s.Inspect(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("state", false, "Highlight visible and cached routers")
}
