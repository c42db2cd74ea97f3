package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"folio/app"
	"folio/config"
	"folio/router"
	"folio/server"
	"folio/util/goroutine"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// App represents the running site with all its components.
type App struct {
	// Configuration
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	// Application
	Instance *app.App
	Router   *router.Router
	Server   *server.Server

	tracerProvider *sdktrace.TracerProvider
	errCh          chan error
	signalCh       chan os.Signal
}

// NewApp loads configuration, initializes logging and tracing, and builds the
// mounted application. configPath may be empty.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := InitConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, sugar, err := InitLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return newApp(cfg, logger, sugar, InitTracer())
}

// newApp wires the components from already initialized dependencies
func newApp(cfg *config.Config, logger *zap.Logger, sugar *zap.SugaredLogger, tp *sdktrace.TracerProvider) (*App, error) {
	sugar.Info("Folio starting...")
	logConfig(cfg, sugar)

	instance, nav, err := BuildApplication(cfg, sugar, tp.Tracer(TracerName))
	if err != nil {
		_ = shutdownTracer(context.Background(), tp)
		return nil, err
	}

	return &App{
		Config:         cfg,
		Logger:         logger,
		Sugar:          sugar,
		Instance:       instance,
		Router:         nav,
		Server:         server.New(instance, nav, cfg, sugar),
		tracerProvider: tp,
		errCh:          make(chan error, 1),
		signalCh:       make(chan os.Signal, 1),
	}, nil
}

// Start starts the HTTP server in the background. Listen failures are
// reported by WaitForShutdown.
func (a *App) Start(ctx context.Context) error {
	if a.Server == nil {
		return errors.New("server not initialized")
	}

	addr := a.Config.Addr()
	goroutine.Go("http-server", a.Sugar, a.errCh, func() error {
		var err error
		if a.Config.Server.TLS {
			a.Sugar.Infow("Starting HTTPS server", "addr", addr)
			err = a.Server.StartTLS(addr, a.Config.Server.CertFile, a.Config.Server.KeyFile)
		} else {
			a.Sugar.Infow("Starting HTTP server", "addr", addr)
			err = a.Server.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	return nil
}

// WaitForShutdown blocks until a shutdown signal is received or the server
// fails. A server failure is returned.
func (a *App) WaitForShutdown() error {
	signal.Notify(a.signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(a.signalCh)

	select {
	case sig := <-a.signalCh:
		a.Sugar.Infow("Shutdown signal received", "signal", sig.String())
		return nil
	case err := <-a.errCh:
		a.Sugar.Errorw("Server stopped unexpectedly", "error", err)
		return err
	}
}

// Shutdown gracefully stops the server and flushes telemetry.
func (a *App) Shutdown() {
	a.Sugar.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if a.Server != nil {
		if err := a.Server.Stop(ctx); err != nil {
			a.Sugar.Errorw("Failed to stop HTTP server", "error", err)
		}
	}

	if err := shutdownTracer(ctx, a.tracerProvider); err != nil {
		a.Sugar.Errorw("Failed to shut down tracer provider", "error", err)
	}

	a.Sugar.Info("Shutdown complete")
	_ = a.Logger.Sync()
}
