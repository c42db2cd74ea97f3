// Package server exposes the mounted application over HTTP together with
// health, metrics, assets and a route listing API.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"folio/app"
	"folio/config"
	"folio/pages"
	"folio/router"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// rateLimiterEntry holds a rate limiter with last seen time
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Server holds the HTTP server
type Server struct {
	router         *mux.Router
	server         *http.Server
	serverMu       sync.Mutex
	app            *app.App
	nav            *router.Router
	config         *config.Config
	logger         *zap.SugaredLogger
	rateLimiters   map[string]*rateLimiterEntry
	rateLimitersMu sync.Mutex
	stopCh         chan struct{}
	stopOnce       sync.Once
}

// New creates a new HTTP server for a mounted app
func New(a *app.App, nav *router.Router, cfg *config.Config, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		router:       mux.NewRouter(),
		app:          a,
		nav:          nav,
		config:       cfg,
		logger:       logger,
		rateLimiters: make(map[string]*rateLimiterEntry),
		stopCh:       make(chan struct{}),
	}
	s.setupRoutes()
	go s.cleanupRateLimiters()
	return s
}

// AssetsPrefix is the URL path static assets are served under for a history base
func AssetsPrefix(h router.History) string {
	return h.Href("/assets/")
}

// setupRoutes sets up the routes. Everything under the history base that is
// not an API, health, metrics or asset path is handed to the app.
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.errorRecoveryMiddleware)
	s.router.Use(s.securityHeadersMiddleware)
	s.router.Use(s.rateLimitMiddleware)

	s.router.HandleFunc("/health", s.healthCheck).Methods(http.MethodGet, http.MethodHead)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/api/routes", s.listRoutes).Methods(http.MethodGet)

	assets := AssetsPrefix(s.nav.History())
	s.router.PathPrefix(assets).Handler(
		http.StripPrefix(assets, http.FileServer(http.FS(pages.Static()))),
	).Methods(http.MethodGet, http.MethodHead)

	base := s.nav.History().Base()
	if base != "/" {
		s.router.Path(strings.TrimSuffix(base, "/")).Handler(s.app)
	}
	s.router.PathPrefix(base).Handler(s.app)
}

// Handler returns the root handler, useful for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) newHTTPServer(addr string) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       s.config.Server.ReadTimeout,
		ReadHeaderTimeout: s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout,
	}
	s.serverMu.Lock()
	s.server = srv
	s.serverMu.Unlock()
	return srv
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.newHTTPServer(addr).ListenAndServe()
}

// StartTLS starts the server with TLS
func (s *Server) StartTLS(addr, certFile, keyFile string) error {
	return s.newHTTPServer(addr).ListenAndServeTLS(certFile, keyFile)
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.serverMu.Lock()
	srv := s.server
	s.serverMu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	return nil
}
