package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/arbor/pkg/adapters/loam"
	"github.com/aretw0/arbor/pkg/declaration"
	"github.com/aretw0/arbor/pkg/templates"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a router declaration for consistency",
	Long: `Loads the declaration and reports every problem at once: duplicate names or route keys,
unknown router types, invalid path routers and default actions the router type does not implement.

With --watch (requires --dir) the directory is validated again after every document change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			_ = cmd.Flags().Set("file", args[0])
		}
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			return watchValidate(cmd)
		}
		if !report(cmd.OutOrStdout(), runValidate(cmd)) {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().Bool("watch", false, "Revalidate the --dir documents whenever they change")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command) error {
	decl, err := loadDeclaration(cmd)
	if err != nil {
		return err
	}
	return declaration.Validate(decl, templates.Defaults())
}

// report prints the outcome of a validation and returns whether it passed.
func report(w io.Writer, err error) bool {
	if err == nil {
		fmt.Fprintln(w, "Declaration is valid! ✅")
		return true
	}
	fmt.Fprintln(w, "Validation failed:")
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			fmt.Fprintf(w, "  - %v\n", e)
		}
	} else {
		fmt.Fprintf(w, "  - %v\n", err)
	}
	return false
}

func watchValidate(cmd *cobra.Command) error {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		return errors.New("--watch requires --dir")
	}
	loader, err := loam.Open(dir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	changes, err := loader.Watch(ctx)
	if err != nil {
		return err
	}
	report(cmd.OutOrStdout(), runValidate(cmd))
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes (Ctrl+C to stop)\n", dir)

	for id := range changes {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s changed\n", id)
		report(cmd.OutOrStdout(), runValidate(cmd))
	}
	return nil
}
