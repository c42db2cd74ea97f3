package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"folio/pages"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

// newExportCmd creates the 'export' subcommand
func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		dir          string
		showProgress bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Prerender every route into a directory",
		Long: `Write one index.html per route plus the assets, laid out so that any static
file server hosting the directory at the configured base serves the same URLs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			site, err := loadOffline(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var s *spinner.Spinner
			if showProgress && !opts.quiet {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
				s.Suffix = " Exporting site..."
				s.Start()
			}

			files, err := exportSite(ctx, site, dir)

			if s != nil {
				s.Stop()
			}

			if err != nil {
				return fmt.Errorf("failed to export site: %w", err)
			}

			if !opts.quiet {
				for _, f := range files {
					infoColor.Fprintf(cmd.OutOrStdout(), "  %s\n", f)
				}
				successColor.Fprintf(cmd.OutOrStdout(), "Exported %d files to %s\n", len(files), dir)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "dist", "Output directory")
	cmd.Flags().BoolVar(&showProgress, "progress", true, "Show progress indicator")

	return cmd
}

// exportSite renders each route and copies the static assets under dir.
// It returns the written paths relative to dir.
func exportSite(ctx context.Context, site *offlineApp, dir string) ([]string, error) {
	dir = filepath.Clean(dir)
	var written []string

	for _, entry := range site.router.Entries() {
		var buf bytes.Buffer
		status, err := site.instance.Render(ctx, &buf, entry.Path)
		if err != nil {
			return written, fmt.Errorf("render %s: %w", entry.Name, err)
		}
		if status != http.StatusOK {
			return written, fmt.Errorf("render %s: status %d", entry.Name, status)
		}

		rel := routeFile(entry.Path)
		if err := writeFile(filepath.Join(dir, rel), buf.Bytes()); err != nil {
			return written, err
		}
		written = append(written, rel)
	}

	static := pages.Static()
	err := fs.WalkDir(static, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(static, p)
		if err != nil {
			return err
		}
		rel := filepath.Join("assets", filepath.FromSlash(p))
		if err := writeFile(filepath.Join(dir, rel), data); err != nil {
			return err
		}
		written = append(written, rel)
		return nil
	})
	return written, err
}

// routeFile maps a route path to the file a static server answers it with
func routeFile(routePath string) string {
	clean := strings.Trim(path.Clean("/"+routePath), "/")
	if clean == "" {
		return "index.html"
	}
	return filepath.Join(filepath.FromSlash(clean), "index.html")
}

func writeFile(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
