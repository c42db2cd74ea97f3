// Package cmd provides the command-line interface for folio.
package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"folio/app"
	"folio/bootstrap"
	"folio/config"
	"folio/router"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

// defaultTimeout bounds offline commands
const defaultTimeout = time.Minute

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	configFile string
	noColor    bool
	quiet      bool
}

// NewRootCmd creates the folio command with all subcommands. Without a
// subcommand it serves the site.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	serveCmd := newServeCmd(opts)
	rootCmd := &cobra.Command{
		Use:   "folio",
		Short: "Serve a small two-page site",
		Long: `folio renders a landing page and an about page behind clean URLs.

Run without a subcommand to start the HTTP server.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
		RunE: serveCmd.RunE,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file path (default ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&opts.quiet, "quiet", false, "Suppress non-essential output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newRoutesCmd(opts))
	rootCmd.AddCommand(newRenderCmd(opts))
	rootCmd.AddCommand(newExportCmd(opts))

	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// offlineApp is a mounted application used without the HTTP server
type offlineApp struct {
	config   *config.Config
	instance *app.App
	router   *router.Router
}

// loadOffline builds the mounted application for commands that do not serve.
// Warnings go to errOut unless quiet is set.
func loadOffline(opts *rootOptions, errOut io.Writer) (*offlineApp, error) {
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	sugar := zap.NewNop().Sugar()
	if !opts.quiet {
		_, sugar, err = bootstrap.NewLogger(errOut, "warn", "console")
		if err != nil {
			return nil, err
		}
	}

	instance, nav, err := bootstrap.BuildApplication(cfg, sugar, nil)
	if err != nil {
		return nil, err
	}
	return &offlineApp{config: cfg, instance: instance, router: nav}, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, defaultTimeout)
}
