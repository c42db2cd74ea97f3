package app

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"folio/core"
	"folio/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ServeHTTP renders the mounted app for the request location.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	status, err := a.Render(r.Context(), &buf, a.location(r))
	if err != nil {
		if errors.Is(err, ErrNotMounted) {
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return
		}
		a.logger.Errorw("Render failed", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodGet {
		_, _ = w.Write(buf.Bytes())
	}
}

func (a *App) location(r *http.Request) string {
	a.mu.RLock()
	nav := a.navigator
	a.mu.RUnlock()
	if nav == nil {
		return r.URL.Path
	}
	return nav.Location(r)
}

// Render writes the full host document for location and returns the HTTP
// status the page should be served with. Unmatched locations render the root
// component with an empty outlet and report 404.
func (a *App) Render(ctx context.Context, w io.Writer, location string) (int, error) {
	a.mu.RLock()
	mount := a.mount
	nav := a.navigator
	a.mu.RUnlock()

	if mount == nil {
		return 0, ErrNotMounted
	}

	start := time.Now()
	defer func() {
		metrics.RenderDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, span := a.tracer.Start(ctx, "app.render",
		trace.WithAttributes(attribute.String("app.location", location)))
	defer span.End()

	view := core.View{Title: a.title}
	status := http.StatusOK

	if nav != nil {
		view.Links = nav.Links()
		if route, ok := nav.Resolve(location); ok {
			view.Route = route
			view.Matched = true
			span.SetAttributes(attribute.String("app.route", route.Name))
		} else {
			status = http.StatusNotFound
			metrics.UnmatchedNavigations.Inc()
			a.logger.Warnw("No match found for location", "location", location)
		}
	}

	cacheKey := view.Route.Name
	if a.cache != nil && view.Matched {
		if page, ok := a.cache.Get(cacheKey); ok {
			metrics.PageRenders.WithLabelValues(cacheKey, "hit").Inc()
			span.SetAttributes(attribute.Bool("app.cache_hit", true))
			_, err := w.Write(page)
			return status, err
		}
	}

	var page bytes.Buffer
	page.Write(mount.prefix)
	if err := a.renderTree(ctx, &page, view); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	page.Write(mount.suffix)

	if a.cache != nil && view.Matched {
		a.cache.Add(cacheKey, page.Bytes())
	}
	metrics.PageRenders.WithLabelValues(routeLabel(view), "miss").Inc()

	_, err := w.Write(page.Bytes())
	return status, err
}

// renderTree renders the matched component into the outlet, then the root around it.
func (a *App) renderTree(ctx context.Context, w io.Writer, view core.View) error {
	if view.Matched {
		var outlet bytes.Buffer
		if err := view.Route.Component.Render(ctx, &outlet, view); err != nil {
			metrics.RenderErrors.WithLabelValues(view.Route.Component.Name()).Inc()
			return err
		}
		view.Outlet = template.HTML(outlet.String())
	}

	if err := a.root.Render(ctx, w, view); err != nil {
		metrics.RenderErrors.WithLabelValues(a.root.Name()).Inc()
		return err
	}
	return nil
}

func routeLabel(view core.View) string {
	if !view.Matched {
		return "unmatched"
	}
	return view.Route.Name
}
