package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"folio/router"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newRoutesCmd creates the 'routes' subcommand
func newRoutesCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		Long:  "Print every route with its name, component and the href it is served at.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := loadOffline(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return writeEntries(cmd.OutOrStdout(), site.router.Entries(), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")

	return cmd
}

// writeEntries writes the route entries in the requested format
func writeEntries(w io.Writer, entries []router.Entry, format string) error {
	switch format {
	case "table":
		renderRoutesTable(w, entries)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// renderRoutesTable displays routes in a formatted table
func renderRoutesTable(w io.Writer, entries []router.Entry) {
	if len(entries) == 0 {
		warningColor.Fprintln(w, "No routes configured")
		return
	}

	headerColor.Fprintln(w, "ROUTES")
	headerColor.Fprintln(w, strings.Repeat("=", 64))
	fmt.Fprintf(w, "%-16s %-10s %-16s %s\n", "Path", "Name", "Component", "Href")
	fmt.Fprintln(w, strings.Repeat("-", 64))

	for _, e := range entries {
		fmt.Fprintf(w, "%-16s %-10s %-16s %s\n", e.Path, e.Name, e.Component, e.Href)
	}

	fmt.Fprintln(w, strings.Repeat("=", 64))
}
