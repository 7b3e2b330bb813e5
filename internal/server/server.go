// Package server wires the reference host: router, middleware, handlers,
// services and storage, plus graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/snippet-desk/internal/auth"
	"github.com/sakif/snippet-desk/internal/config"
	"github.com/sakif/snippet-desk/internal/handler"
	"github.com/sakif/snippet-desk/internal/metrics"
	"github.com/sakif/snippet-desk/internal/middleware"
	"github.com/sakif/snippet-desk/internal/model"
	"github.com/sakif/snippet-desk/internal/repository/disk"
	sqliteRepo "github.com/sakif/snippet-desk/internal/repository/sqlite"
	"github.com/sakif/snippet-desk/internal/service"
)

// Server holds the router and everything it owns. The database is closed by
// Start on shutdown, or by Close when Start is never called (tests).
type Server struct {
	router  *chi.Mux
	config  config.Host
	logger  *slog.Logger
	db      *sqliteRepo.DB
	media   *disk.MediaStore
	metrics *metrics.Metrics
	pairing *service.PairingService
}

// New opens storage and builds the routes.
//
// Authentication is on when JWT_SECRET is set: every route except
// /api/pair, /metrics and /media/* then needs a paired device's token.
func New(cfg config.Host, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	media, err := disk.NewMediaStore(cfg.MediaDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening media dir: %w", err)
	}

	var tokens *auth.TokenService
	if cfg.JWTSecret != "" {
		if tokens, err = auth.NewTokenService(cfg.JWTSecret); err != nil {
			db.Close()
			return nil, err
		}
	}

	m := metrics.New()
	pairing, err := service.NewPairingService(db, tokens, auth.NewCodeHasher(), cfg.PairingCode, m, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		media:   media,
		metrics: m,
		pairing: pairing,
	}
	s.setupRoutes()

	return s, nil
}

// Handler exposes the router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.router }

// Close releases the database.
func (s *Server) Close() error { return s.db.Close() }

// setupRoutes registers middleware and handlers.
//
// MIDDLEWARE ORDER: RequestID first so every log line carries it; Recoverer
// before the logger so a panic is still logged as a 500.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger, s.metrics))

	snippetHandler := handler.NewSnippetHandler(
		service.NewSnippetService(s.db, s.media, s.metrics, s.logger),
		s.logger,
	)
	pairingHandler := handler.NewPairingHandler(s.pairing, s.logger)
	statusHandler := handler.NewStatusHandler(model.HostStatus{
		AccentColor: s.config.AccentColor,
		ThemeMode:   s.config.ThemeMode,
		IPAddress:   localIP(),
		Port:        s.config.Port,
	})

	s.router.Handle("/metrics", s.metrics.Handler())
	s.router.Post("/api/pair", pairingHandler.HandlePair)

	// Media names are random UUIDs, so the URLs are served without a token
	// and can be opened in a browser. Directory listings are refused.
	fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(s.media.Dir())))
	s.router.Get("/media/*", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})

	s.router.Group(func(r chi.Router) {
		if s.pairing.Enabled() {
			r.Use(auth.RequireDevice(s.pairing))
		}

		r.Get("/status", statusHandler.HandleStatus)

		r.Route("/api", func(r chi.Router) {
			r.Get("/snippets", snippetHandler.HandleList)
			r.Post("/snippets/create", snippetHandler.HandleCreate)
			r.Post("/snippets/update", snippetHandler.HandleUpdate)
			r.Post("/snippets/delete", snippetHandler.HandleDelete)
			r.Post("/media/upload", snippetHandler.HandleUpload)

			r.Get("/devices", pairingHandler.HandleListDevices)
			r.Delete("/devices/{id}", pairingHandler.HandleRevokeDevice)
		})
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests (an exit reconciliation from a client may be one of them) and
// closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	// WriteTimeout is generous: uploads stream up to 25 MiB.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://%s:%d", localIP(), s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.String("media", s.config.MediaDir),
			slog.Bool("auth", s.pairing.Enabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// localIP returns the first non-loopback IPv4 address, which is what a
// client on the same network should use as SNIPPETS_HOST.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ip4 := ipnet.IP.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}
	return ""
}
