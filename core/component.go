package core

import (
	"context"
	"html/template"
	"io"
)

// Component is a presentational unit that renders HTML into a writer.
type Component interface {
	// Name identifies the component in logs, metrics and the route API
	Name() string
	// Render writes the component's markup for the given view
	Render(ctx context.Context, w io.Writer, view View) error
}

// View is the data handed to a component while rendering.
type View struct {
	// Title is the application title
	Title string
	// Route is the matched route; zero when nothing matched
	Route Route
	// Matched reports whether Route is set
	Matched bool
	// Links maps route names to hrefs for navigation
	Links map[string]string
	// Outlet is the already rendered markup of the matched route component
	Outlet template.HTML
}

// Href returns the link for a route name, or "#" when the name is unknown
func (v View) Href(name string) string {
	if href, ok := v.Links[name]; ok {
		return href
	}
	return "#"
}

// IsActive reports whether name is the matched route
func (v View) IsActive(name string) bool {
	return v.Matched && v.Route.Name == name
}
