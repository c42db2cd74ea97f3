// Package pages holds the presentational components and the host document
// the application is mounted into.
package pages

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"folio/core"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Static returns the stylesheet and other assets served under the assets prefix
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("pages: static assets: %v", err))
	}
	return sub
}

// templateComponent renders one named template with the view as data.
type templateComponent struct {
	name     string
	template string
}

func (c *templateComponent) Name() string {
	return c.name
}

func (c *templateComponent) Render(_ context.Context, w io.Writer, view core.View) error {
	if err := templates.ExecuteTemplate(w, c.template, view); err != nil {
		return fmt.Errorf("render %s: %w", c.name, err)
	}
	return nil
}

// App is the root layout: navigation plus the router outlet.
func App() core.Component {
	return &templateComponent{name: "App", template: "app.html"}
}

// LandingPage is rendered at the Home route.
func LandingPage() core.Component {
	return &templateComponent{name: "LandingPage", template: "landing.html"}
}

// AboutMe is rendered at the About route.
func AboutMe() core.Component {
	return &templateComponent{name: "AboutMe", template: "about.html"}
}
