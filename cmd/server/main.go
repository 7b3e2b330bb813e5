// Package main is the entry point for the reference snippet host.
//
// The main package stays minimal: it reads configuration, creates the
// logger, and starts the server. Routing, storage and auth live in
// internal/server and the packages it wires together.
//
// Environment (a .env file in the working directory is read first):
//
//	PORT          listen port (default 8080)
//	DB_PATH       SQLite file (default data/snippets.db)
//	MEDIA_DIR     uploaded media (default data/media)
//	JWT_SECRET    enables device tokens; unset means an open host
//	PAIRING_CODE  code terminals exchange for a token (needs JWT_SECRET)
//	ACCENT_COLOR  hex colour reported by /status
//	THEME_MODE    dark or light
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/snippet-desk/internal/config"
	"github.com/sakif/snippet-desk/internal/server"
)

func main() {
	// === 1. SET UP LOGGING ===
	// Text output for humans at the terminal. Debug shows every autosave
	// write as it lands.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// === 2. READ CONFIGURATION ===
	if err := config.LoadDotEnv(); err != nil {
		logger.Error("failed to read .env", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg, err := config.LoadHost()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, any client on the network can read and write snippets")
	}

	// === 3. ENSURE THE DATA DIRECTORY EXISTS ===
	// os.MkdirAll is `mkdir -p`. The media directory is created by the media
	// store itself.
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
