package main

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <router> <action>",
	Short: "Run an action on a router and store the new location",
	Long: `Runs an action (show, hide, bringToFront, ...) on a router. The resulting location is written
to the shared location (file or Redis) and printed. With --dry-run nothing is written.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := actionOptions(cmd)
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		s, err := newSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if dryRun {
			link, err := s.LinkTo(args[0], args[1], opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		}

		if err := s.Do(cmd.Context(), args[0], args[1], opts); err != nil {
			return err
		}
		loc, err := s.Location(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), loc)
		return nil
	},
}

var linkCmd = &cobra.Command{
	Use:   "link <router> <action>",
	Short: "Print the location an action would produce",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		withCache, _ := cmd.Flags().GetBool("cache")

		s, err := newSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		link := s.LinkTo
		if withCache {
			link = s.LinkToWithCache
		}
		href, err := link(args[0], args[1], actionOptions(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), href)
		return nil
	},
}

var navigateCmd = &cobra.Command{
	Use:   "navigate <location>",
	Short: "Replace the stored location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Navigate(cmd.Context(), args[0]); err != nil {
			return err
		}
		loc, err := s.Location(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), loc)
		return nil
	},
}

func actionOptions(cmd *cobra.Command) domain.ActionOptions {
	data, _ := cmd.Flags().GetString("data")
	disableCaching, _ := cmd.Flags().GetBool("disable-caching")
	return domain.ActionOptions{Data: data, DisableCaching: disableCaching}
}

func init() {
	rootCmd.AddCommand(execCmd, linkCmd, navigateCmd)
	for _, c := range []*cobra.Command{execCmd, linkCmd} {
		c.Flags().String("data", "", "Value for data routers")
		c.Flags().Bool("disable-caching", false, "Do not cache hidden routers")
	}
	execCmd.Flags().Bool("dry-run", false, "Print the resulting location without storing it")
	linkCmd.Flags().Bool("cache", false, "Embed the router cache in the link")
}
