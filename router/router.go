// Package router provides the navigation plugin: a history mode plus a route
// table matched with gorilla/mux.
package router

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"folio/app"
	"folio/core"

	"github.com/gorilla/mux"
)

// ErrUnknownRoute is returned when resolving a URL for a name that is not registered
var ErrUnknownRoute = errors.New("unknown route")

// ErrNoHistory is returned when Options has no History
var ErrNoHistory = errors.New("router requires a history")

// Options configures a Router
type Options struct {
	History History
	Routes  []core.Route
	// Sensitive makes path matching case sensitive
	Sensitive bool
	// Strict makes a trailing slash significant
	Strict bool
}

// Entry describes one route for listing
type Entry struct {
	Path      string `json:"path" yaml:"path"`
	Name      string `json:"name" yaml:"name"`
	Component string `json:"component" yaml:"component"`
	Href      string `json:"href" yaml:"href"`
}

// Router resolves locations to routes and builds URLs from route names.
type Router struct {
	history   History
	table     *core.RouteTable
	mux       *mux.Router
	sensitive bool
	strict    bool
	links     map[string]string
}

var (
	_ app.Plugin    = (*Router)(nil)
	_ app.Navigator = (*Router)(nil)
)

// New validates the route table and registers every route on a mux router
func New(opts Options) (*Router, error) {
	if opts.History == nil {
		return nil, ErrNoHistory
	}

	table, err := core.NewRouteTable(opts.Routes...)
	if err != nil {
		return nil, fmt.Errorf("route table: %w", err)
	}

	r := &Router{
		history:   opts.History,
		table:     table,
		mux:       mux.NewRouter(),
		sensitive: opts.Sensitive,
		strict:    opts.Strict,
		links:     make(map[string]string, table.Len()),
	}

	for _, route := range table.Routes() {
		r.mux.NewRoute().Path(r.normalize(route.Path)).Name(route.Name)
		r.links[route.Name] = r.history.Href(route.Path)
	}

	return r, nil
}

// Name identifies the router as a plugin
func (r *Router) Name() string {
	return "router"
}

// Install provides the router as the app's navigator
func (r *Router) Install(a *app.App) error {
	return a.ProvideNavigator(r)
}

// History returns the router's history mode
func (r *Router) History() History {
	return r.history
}

// Table returns the route table
func (r *Router) Table() *core.RouteTable {
	return r.table
}

// Location returns the app-relative location for a request
func (r *Router) Location(req *http.Request) string {
	return r.history.Location(req)
}

// Resolve matches a location against the route table
func (r *Router) Resolve(location string) (core.Route, bool) {
	req := &http.Request{
		Method: http.MethodGet,
		URL:    &url.URL{Path: r.normalize(location)},
	}

	var match mux.RouteMatch
	if !r.mux.Match(req, &match) || match.Route == nil {
		return core.Route{}, false
	}
	return r.table.ByName(match.Route.GetName())
}

// URL builds the href for a named route
func (r *Router) URL(name string) (string, error) {
	if r.mux.Get(name) == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, name)
	}
	return r.links[name], nil
}

// Links maps every route name to its href
func (r *Router) Links() map[string]string {
	out := make(map[string]string, len(r.links))
	for k, v := range r.links {
		out[k] = v
	}
	return out
}

// Entries lists the routes in registration order
func (r *Router) Entries() []Entry {
	routes := r.table.Routes()
	entries := make([]Entry, 0, len(routes))
	for _, route := range routes {
		entries = append(entries, Entry{
			Path:      route.Path,
			Name:      route.Name,
			Component: route.Component.Name(),
			Href:      r.links[route.Name],
		})
	}
	return entries
}

// normalize applies case and trailing slash rules before registering or matching
func (r *Router) normalize(path string) string {
	if path == "" {
		path = "/"
	}
	if !r.sensitive {
		path = strings.ToLower(path)
	}
	if !r.strict && len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
