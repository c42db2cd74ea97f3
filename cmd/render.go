package cmd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// ErrNoMatch is returned by render when no route matches the location
var ErrNoMatch = errors.New("no route matches location")

// newRenderCmd creates the 'render' subcommand
func newRenderCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render <path>",
		Short: "Render one location to stdout",
		Long: `Render the full page for an app-relative location, exactly as the server
would answer it. Unmatched locations still print the layout and exit non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			site, err := loadOffline(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			status, err := site.instance.Render(ctx, cmd.OutOrStdout(), args[0])
			if err != nil {
				return fmt.Errorf("failed to render %s: %w", args[0], err)
			}
			if status == http.StatusNotFound {
				return fmt.Errorf("%w: %s", ErrNoMatch, args[0])
			}
			return nil
		},
	}
}
