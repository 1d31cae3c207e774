package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the state every router derives from the current location",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")

		s, err := newSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		loc, err := s.Location(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"location": loc,
				"routers":  s.Snapshot(),
				"cache":    s.Cache(),
			})
		}

		plain = plain || !term.IsTerminal(int(os.Stdout.Fd()))
		render := tui.NewRenderer(plain)
		out, err := render(tui.StateMarkdown(loc, s.Inspect(), s.Snapshot()))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().Bool("json", false, "Print state as JSON")
	stateCmd.Flags().Bool("plain", false, "Print raw markdown")
}
