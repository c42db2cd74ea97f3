package cmd

import (
	"fmt"

	"folio/bootstrap"

	"github.com/spf13/cobra"
)

// newServeCmd creates the 'serve' subcommand
func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  "Mount the application and serve it together with health, metrics and the route API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.NewApp(cmd.Context(), opts.configFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.Shutdown()

			if err := app.Start(cmd.Context()); err != nil {
				return fmt.Errorf("failed to start application: %w", err)
			}

			return app.WaitForShutdown()
		},
	}
}
