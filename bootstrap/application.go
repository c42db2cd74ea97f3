package bootstrap

import (
	"fmt"

	"folio/app"
	"folio/config"
	"folio/core"
	"folio/pages"
	"folio/router"
	"folio/server"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Routes returns the route table of the site
func Routes() []core.Route {
	return []core.Route{
		{Path: "/", Name: "Home", Component: pages.LandingPage()},
		{Path: "/about", Name: "About", Component: pages.AboutMe()},
	}
}

// BuildApplication creates the router with web history, wraps the root
// component in an application instance, installs the router and mounts the
// instance into the host document.
func BuildApplication(cfg *config.Config, sugar *zap.SugaredLogger, tracer trace.Tracer) (*app.App, *router.Router, error) {
	nav, err := router.New(router.Options{
		History: router.WebHistory(cfg.App.Base),
		Routes:  Routes(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create router: %w", err)
	}

	doc, err := pages.Document(pages.DocumentData{
		Title:  cfg.App.Title,
		Assets: server.AssetsPrefix(nav.History()),
	})
	if err != nil {
		return nil, nil, err
	}

	instance := app.New(pages.App(),
		app.WithLogger(sugar),
		app.WithTracer(tracer),
		app.WithTitle(cfg.App.Title),
		app.WithDocument(doc),
		app.WithRenderCache(cfg.App.RenderCacheSize),
	)

	if err := instance.Use(nav); err != nil {
		return nil, nil, err
	}

	if err := instance.Mount(cfg.App.MountSelector); err != nil {
		return nil, nil, fmt.Errorf("failed to mount app on %s: %w", cfg.App.MountSelector, err)
	}

	return instance, nav, nil
}
