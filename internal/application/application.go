package application

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/discuss-config/internal/api"
	"github.com/eugenenazirov/discuss-config/internal/config"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	document config.Document
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
	listener net.Listener
}

// New initializes the application serving doc with the provided settings.
func New(settings config.Settings, doc config.Document, logger *zap.Logger) *App {
	handler := api.NewHandler(doc, api.WithRedaction(settings.RedactSecrets))
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(settings.EnableRequestLogging),
		api.WithRateLimit(settings.RateLimitRPS, settings.RateLimitBurst),
	)

	return &App{
		document: doc,
		handler:  handler,
		router:   apiRouter,
		logger:   logger,
		server:   NewServer(settings, apiRouter),
	}
}

// NewServer creates and configures an HTTP server from the provided settings.
func NewServer(settings config.Settings, handler http.Handler) *http.Server {
	addr := settings.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: settings.ReadHeaderTimeout,
		WriteTimeout:      settings.WriteTimeout,
		IdleTimeout:       settings.IdleTimeout,
	}
}

// Start binds the listen address and serves in a goroutine. Bind errors are
// returned; serve errors after that are fatal.
func (a *App) Start() error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}
	a.listener = ln

	a.logger.Info("server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("database_host", a.document.Database.Host),
		zap.String("url", a.document.URL),
	)
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr reports the bound address once Start has succeeded, else the configured one.
func (a *App) Addr() string {
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.server.Addr
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}
