package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"folio/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testDocument = `<html><body><div id="app"><p>loading</p></div><script src="x.js"></script></body></html>`

// textComponent renders its name and the outlet, counting renders.
type textComponent struct {
	name    string
	renders int
	err     error
}

func (c *textComponent) Name() string { return c.name }

func (c *textComponent) Render(_ context.Context, w io.Writer, view core.View) error {
	c.renders++
	if c.err != nil {
		return c.err
	}
	_, err := fmt.Fprintf(w, "[%s|%s]", c.name, view.Outlet)
	return err
}

// staticNavigator resolves exact paths from a map.
type staticNavigator struct {
	routes map[string]core.Route
}

func (n *staticNavigator) Location(r *http.Request) string { return r.URL.Path }

func (n *staticNavigator) Resolve(location string) (core.Route, bool) {
	r, ok := n.routes[location]
	return r, ok
}

func (n *staticNavigator) Links() map[string]string {
	links := make(map[string]string, len(n.routes))
	for path, r := range n.routes {
		links[r.Name] = path
	}
	return links
}

// navPlugin installs a navigator, like the router does.
type navPlugin struct {
	nav      Navigator
	installs int
	err      error
}

func (p *navPlugin) Name() string { return "nav" }

func (p *navPlugin) Install(a *App) error {
	p.installs++
	if p.err != nil {
		return p.err
	}
	return a.ProvideNavigator(p.nav)
}

func newTestNavigator(landing, about core.Component) *staticNavigator {
	return &staticNavigator{routes: map[string]core.Route{
		"/":      {Path: "/", Name: "Home", Component: landing},
		"/about": {Path: "/about", Name: "About", Component: about},
	}}
}

func newMountedApp(t *testing.T, opts ...Option) (*App, *textComponent) {
	t.Helper()
	landing := &textComponent{name: "landing"}
	about := &textComponent{name: "about"}

	a := New(&textComponent{name: "root"}, append([]Option{WithDocument([]byte(testDocument))}, opts...)...)
	require.NoError(t, a.Use(&navPlugin{nav: newTestNavigator(landing, about)}))
	require.NoError(t, a.Mount("#app"))
	return a, landing
}

func TestMount_Once(t *testing.T) {
	a := New(&textComponent{name: "root"}, WithDocument([]byte(testDocument)))
	assert.False(t, a.Mounted())

	require.NoError(t, a.Mount("#app"))
	assert.True(t, a.Mounted())

	err := a.Mount("#app")
	assert.ErrorIs(t, err, ErrAlreadyMounted)
}

func TestMount_Errors(t *testing.T) {
	tests := []struct {
		name     string
		document string
		selector string
		wantErr  error
	}{
		{"class selector", testDocument, ".app", ErrInvalidSelector},
		{"bare hash", testDocument, "#", ErrInvalidSelector},
		{"compound selector", testDocument, "#app .x", ErrInvalidSelector},
		{"missing element", testDocument, "#root", ErrMountTargetNotFound},
		{"no document", "", "#app", ErrMountTargetNotFound},
		{"self closing", `<div id="app"/>`, "#app", ErrMountTargetNotFound},
		{"unclosed", `<div id="app"><p>`, "#app", ErrMountTargetNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(&textComponent{name: "root"}, WithDocument([]byte(tt.document)))
			err := a.Mount(tt.selector)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, a.Mounted())
		})
	}
}

func TestLocateElement(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		inner   string
		wantErr error
	}{
		{"nested same tag", `<body><div id="app"><div>a</div><div>b</div></div><footer/></body>`, "<div>a</div><div>b</div>", nil},
		{"single quotes", `<section id='app'>x</section>`, "x", nil},
		{"unquoted", `<div id=app>x</div>`, "x", nil},
		{"uppercase tag", `<DIV ID="app">x</DIV>`, "x", nil},
		{"data-id is not id", `<body><span data-id="app">x</span><div id="app"></div></body>`, "", nil},
		{"aria attribute is not id", `<p aria-id="app">no</p><main id="app">yes</main>`, "yes", nil},
		{"id in text", `<p>id="app"</p><div id="app">in</div>`, "in", nil},
		{"id in script", `<script>var s = '<div id="app">';</script><div id="app">ok</div>`, "ok", nil},
		{"existing children replaced", `<div id="app"><p>loading</p></div>`, "<p>loading</p>", nil},
		{"only data-id", `<span data-id="app">x</span>`, "", ErrMountTargetNotFound},
		{"self closing target", `<div id="app"/>`, "", ErrMountTargetNotFound},
		{"void target", `<input id="app">`, "", ErrMountTargetNotFound},
		{"never closed", `<div id="app"><div>x</div>`, "", ErrMountTargetNotFound},
		{"other id", `<div id="application">x</div>`, "", ErrMountTargetNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := []byte(tt.doc)
			start, end, err := locateElement(doc, "app")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.inner, string(doc[start:end]))
		})
	}
}

func TestMount_SkipsDataID(t *testing.T) {
	doc := `<body><span data-id="app">x</span><div id="app"></div></body>`
	mp, err := newMountPoint([]byte(doc), "#app")
	require.NoError(t, err)
	assert.Equal(t, `<body><span data-id="app">x</span><div id="app">`, string(mp.prefix))
	assert.Equal(t, `</div></body>`, string(mp.suffix))
}

func TestUse_InstallsOnce(t *testing.T) {
	observed, logs := observer.New(zapcore.WarnLevel)
	a := New(&textComponent{name: "root"}, WithLogger(zap.New(observed).Sugar()))
	p := &navPlugin{nav: &staticNavigator{}}

	require.NoError(t, a.Use(p))
	require.NoError(t, a.Use(p))

	assert.Equal(t, 1, p.installs)
	assert.Equal(t, []string{"nav"}, a.Plugins())
	assert.Equal(t, 1, logs.FilterMessage("Plugin has already been applied to target app").Len())
}

// countingPlugin counts installs and is safe for concurrent use
type countingPlugin struct {
	installs atomic.Int32
}

func (p *countingPlugin) Name() string { return "counter" }

func (p *countingPlugin) Install(*App) error {
	p.installs.Add(1)
	return nil
}

func TestUse_ConcurrentInstallsOnce(t *testing.T) {
	a := New(&textComponent{name: "root"})
	p := &countingPlugin{}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, a.Use(p))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), p.installs.Load())
	assert.Equal(t, []string{"counter"}, a.Plugins())
}

func TestUse_Errors(t *testing.T) {
	a := New(&textComponent{name: "root"})
	assert.ErrorIs(t, a.Use(nil), ErrNilPlugin)

	boom := errors.New("boom")
	err := a.Use(&navPlugin{err: boom})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, a.Plugins())
}

func TestProvideNavigator_Twice(t *testing.T) {
	a := New(&textComponent{name: "root"})
	require.NoError(t, a.ProvideNavigator(&staticNavigator{}))
	assert.ErrorIs(t, a.ProvideNavigator(&staticNavigator{}), ErrNavigatorExists)
}

func TestRender_NotMounted(t *testing.T) {
	a := New(&textComponent{name: "root"}, WithDocument([]byte(testDocument)))

	var sb strings.Builder
	_, err := a.Render(context.Background(), &sb, "/")
	assert.ErrorIs(t, err, ErrNotMounted)

	w := httptest.NewRecorder()
	a.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServeHTTP_RendersMatchedRoute(t *testing.T) {
	a, _ := newMountedApp(t)

	tests := []struct {
		path string
		want string
	}{
		{"/", `<div id="app">[root|[landing|]]</div>`},
		{"/about", `<div id="app">[root|[about|]]</div>`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			a.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
			body := w.Body.String()
			assert.Contains(t, body, tt.want)
			assert.NotContains(t, body, "loading")
			assert.True(t, strings.HasSuffix(body, `<script src="x.js"></script></body></html>`))
		})
	}
}

func TestServeHTTP_UnmatchedFallsThrough(t *testing.T) {
	observed, logs := observer.New(zapcore.WarnLevel)
	a, _ := newMountedApp(t, WithLogger(zap.New(observed).Sugar()))

	w := httptest.NewRecorder()
	a.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/contact", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `<div id="app">[root|]</div>`)
	assert.Equal(t, 1, logs.FilterMessage("No match found for location").Len())
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	a, _ := newMountedApp(t)

	w := httptest.NewRecorder()
	a.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, HEAD", w.Header().Get("Allow"))
}

func TestServeHTTP_HeadOmitsBody(t *testing.T) {
	a, _ := newMountedApp(t)

	w := httptest.NewRecorder()
	a.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, w.Body.Len())
}

func TestServeHTTP_RenderError(t *testing.T) {
	a := New(&textComponent{name: "root", err: errors.New("template broke")}, WithDocument([]byte(testDocument)))
	require.NoError(t, a.Mount("#app"))

	w := httptest.NewRecorder()
	a.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRender_WithoutNavigator(t *testing.T) {
	a := New(&textComponent{name: "root"}, WithDocument([]byte(testDocument)))
	require.NoError(t, a.Mount("#app"))

	var sb strings.Builder
	status, err := a.Render(context.Background(), &sb, "/anything")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, sb.String(), "[root|]")
}

func TestRender_Cache(t *testing.T) {
	a, landing := newMountedApp(t, WithRenderCache(4))

	for i := 0; i < 3; i++ {
		var sb strings.Builder
		status, err := a.Render(context.Background(), &sb, "/")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, sb.String(), "[landing|]")
	}
	assert.Equal(t, 1, landing.renders)
}

func TestRender_NoCacheByDefault(t *testing.T) {
	a, landing := newMountedApp(t)

	for i := 0; i < 2; i++ {
		var sb strings.Builder
		_, err := a.Render(context.Background(), &sb, "/")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, landing.renders)
}

func TestRender_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	a, _ := newMountedApp(t, WithTracer(tp.Tracer("test")))

	var sb strings.Builder
	_, err := a.Render(context.Background(), &sb, "/about")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "app.render", spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "/about", attrs["app.location"])
	assert.Equal(t, "About", attrs["app.route"])
}
