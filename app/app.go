// Package app provides the application instance: a root component, the
// plugins installed on it, and the page element it is mounted into.
//
// Usage:
//
//	a := app.New(pages.App(), app.WithDocument(doc))
//	if err := a.Use(r); err != nil {
//	    return err
//	}
//	if err := a.Mount("#app"); err != nil {
//	    return err
//	}
//	http.ListenAndServe(":8080", a)
package app

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"folio/core"
	"folio/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyMounted is returned when Mount is called on a mounted app
	ErrAlreadyMounted = errors.New("app already mounted")
	// ErrNotMounted is returned when rendering before Mount
	ErrNotMounted = errors.New("app not mounted")
	// ErrNavigatorExists is returned when a second navigator is provided
	ErrNavigatorExists = errors.New("navigator already provided")
	// ErrNilPlugin is returned by Use when given a nil plugin
	ErrNilPlugin = errors.New("nil plugin")
)

// Plugin extends an App with a capability. Install is called once per App.
type Plugin interface {
	Name() string
	Install(a *App) error
}

// Navigator maps an incoming request to a route. The router plugin provides it.
type Navigator interface {
	// Location returns the app-relative path for a request
	Location(r *http.Request) string
	// Resolve matches a location against the route table
	Resolve(location string) (core.Route, bool)
	// Links maps route names to hrefs
	Links() map[string]string
}

// App is the application instance.
type App struct {
	root     core.Component
	title    string
	document []byte
	logger   *zap.SugaredLogger
	tracer   trace.Tracer
	cache    *lru.Cache[string, []byte]

	// installMu serializes Use so a plugin is installed at most once
	installMu sync.Mutex
	mu        sync.RWMutex
	plugins   map[string]Plugin
	navigator Navigator
	mount     *mountPoint
}

// Option configures an App
type Option func(*App)

// WithLogger sets the logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithTracer sets the tracer used for render spans
func WithTracer(tracer trace.Tracer) Option {
	return func(a *App) {
		if tracer != nil {
			a.tracer = tracer
		}
	}
}

// WithTitle sets the title passed to every component
func WithTitle(title string) Option {
	return func(a *App) {
		a.title = title
	}
}

// WithDocument sets the host HTML document the app is mounted into
func WithDocument(doc []byte) Option {
	return func(a *App) {
		a.document = doc
	}
}

// WithRenderCache caches rendered pages per route. Size 0 disables caching.
func WithRenderCache(size int) Option {
	return func(a *App) {
		if size <= 0 {
			a.cache = nil
			return
		}
		cache, err := lru.New[string, []byte](size)
		if err != nil {
			a.logger.Warnw("Render cache disabled", "size", size, "error", err)
			return
		}
		a.cache = cache
	}
}

// New creates an application instance wrapping the root component
func New(root core.Component, opts ...Option) *App {
	a := &App{
		root:    root,
		logger:  zap.NewNop().Sugar(),
		tracer:  noop.NewTracerProvider().Tracer("folio/app"),
		plugins: make(map[string]Plugin),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Use installs a plugin. Installing a plugin with the same name twice is a no-op.
func (a *App) Use(p Plugin) error {
	if p == nil {
		return ErrNilPlugin
	}

	a.installMu.Lock()
	defer a.installMu.Unlock()

	name := p.Name()
	a.mu.RLock()
	_, installed := a.plugins[name]
	a.mu.RUnlock()
	if installed {
		a.logger.Warnw("Plugin has already been applied to target app", "plugin", name)
		return nil
	}

	if err := p.Install(a); err != nil {
		return fmt.Errorf("install plugin %s: %w", name, err)
	}

	a.mu.Lock()
	a.plugins[name] = p
	a.mu.Unlock()

	a.logger.Debugw("Plugin installed", "plugin", name)
	return nil
}

// ProvideNavigator registers the navigator that resolves locations to routes
func (a *App) ProvideNavigator(n Navigator) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.navigator != nil {
		return ErrNavigatorExists
	}
	a.navigator = n
	return nil
}

// Plugins returns the names of installed plugins
func (a *App) Plugins() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.plugins))
	for name := range a.plugins {
		names = append(names, name)
	}
	return names
}

// Mount attaches the app to the element identified by selector in the host
// document. An app can be mounted once.
func (a *App) Mount(selector string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mount != nil {
		a.logger.Warnw("App has already been mounted", "selector", a.mount.selector)
		return ErrAlreadyMounted
	}

	mp, err := newMountPoint(a.document, selector)
	if err != nil {
		a.logger.Warnw("Failed to mount app", "selector", selector, "error", err)
		return err
	}
	a.mount = mp

	metrics.AppMounts.Inc()
	a.logger.Infow("App mounted",
		"selector", selector,
		"root", a.root.Name(),
		"router", a.navigator != nil)
	return nil
}

// Mounted reports whether Mount succeeded
func (a *App) Mounted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mount != nil
}
