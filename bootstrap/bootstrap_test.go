package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"folio/app"
	"folio/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	return cfg
}

func TestRoutes(t *testing.T) {
	routes := Routes()
	require.Len(t, routes, 2)

	assert.Equal(t, "/", routes[0].Path)
	assert.Equal(t, "Home", routes[0].Name)
	assert.Equal(t, "LandingPage", routes[0].Component.Name())

	assert.Equal(t, "/about", routes[1].Path)
	assert.Equal(t, "About", routes[1].Name)
	assert.Equal(t, "AboutMe", routes[1].Component.Name())
}

func TestBuildApplication(t *testing.T) {
	cfg := defaultConfig(t)
	instance, nav, err := BuildApplication(cfg, zaptest.NewLogger(t).Sugar(), noop.NewTracerProvider().Tracer("test"))
	require.NoError(t, err)

	assert.True(t, instance.Mounted())
	assert.ElementsMatch(t, []string{"router"}, instance.Plugins())
	assert.ElementsMatch(t, []string{"Home", "About"}, nav.Table().Names())

	// a second mount on the same instance is refused
	assert.ErrorIs(t, instance.Mount(cfg.App.MountSelector), app.ErrAlreadyMounted)

	tests := []struct {
		location string
		status   int
		contains string
	}{
		{"/", http.StatusOK, `class="landing"`},
		{"/about", http.StatusOK, `class="about"`},
		{"/missing", http.StatusNotFound, `<main class="router-view"></main>`},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			var buf bytes.Buffer
			status, err := instance.Render(context.Background(), &buf, tt.location)
			require.NoError(t, err)
			assert.Equal(t, tt.status, status)
			assert.Contains(t, buf.String(), tt.contains)
			assert.Contains(t, buf.String(), "<title>Folio</title>")
		})
	}
}

func TestBuildApplication_Base(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.App.Base = "/site/"

	instance, nav, err := BuildApplication(cfg, zaptest.NewLogger(t).Sugar(), nil)
	require.NoError(t, err)

	href, err := nav.URL("About")
	require.NoError(t, err)
	assert.Equal(t, "/site/about", href)

	var buf bytes.Buffer
	_, err = instance.Render(context.Background(), &buf, "/")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `href="/site/assets/style.css"`)
}

func TestBuildApplication_MountTargetMissing(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.App.MountSelector = "#root"

	_, _, err := BuildApplication(cfg, zaptest.NewLogger(t).Sugar(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, app.ErrMountTargetNotFound)
}

func TestBuildApplication_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := InitTracer(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	instance, _, err := BuildApplication(defaultConfig(t), zaptest.NewLogger(t).Sugar(), tp.Tracer(TracerName))
	require.NoError(t, err)

	_, err = instance.Render(context.Background(), io.Discard, "/about")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "app.render", spans[0].Name())
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		wantErr bool
	}{
		{"info", "console", false},
		{"debug", "json", false},
		{"warn", "", false},
		{"verbose", "console", true},
		{"info", "xml", true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.level, tt.format), func(t *testing.T) {
			logger, sugar, err := InitLogger(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
			assert.NotNil(t, sugar)
		})
	}
}

func TestInitConfig_MissingFile(t *testing.T) {
	_, err := InitConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestApp_Lifecycle(t *testing.T) {
	port := freePort(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf("server:\n  host: 127.0.0.1\n  port: %d\nlogging:\n  level: error\n", port)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	a, err := NewApp(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	defer a.Shutdown()

	url := fmt.Sprintf("http://127.0.0.1:%d/about", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	// a signal ends the wait without an error
	done := make(chan error, 1)
	go func() { done <- a.WaitForShutdown() }()
	require.Eventually(t, func() bool {
		select {
		case a.signalCh <- syscall.SIGTERM:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForShutdown did not return")
	}
}

func TestApp_ListenFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	cfg := defaultConfig(t)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = l.Addr().(*net.TCPAddr).Port

	logger := zaptest.NewLogger(t)
	a, err := newApp(cfg, logger, logger.Sugar(), InitTracer())
	require.NoError(t, err)
	defer a.Shutdown()

	require.NoError(t, a.Start(context.Background()))

	select {
	case err := <-a.errCh:
		assert.Contains(t, err.Error(), "http server")
	case <-time.After(5 * time.Second):
		t.Fatal("expected listen failure")
	}
}
