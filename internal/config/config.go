// Package config reads client and host settings from the environment.
//
// An optional .env file in the working directory is loaded first. Variables
// already set in the process environment win over the file, so
// `SNIPPETS_HOST=... snippets` behaves as expected.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/autosave"
	"github.com/sakif/snippet-desk/internal/liveness"
)

// Client is the configuration of the snippets client.
type Client struct {
	Host         string
	Token        string
	LogFile      string
	Debounce     time.Duration
	PollInterval time.Duration
}

// Host is the configuration of the reference host.
type Host struct {
	Port        int
	DBPath      string
	MediaDir    string
	JWTSecret   string
	PairingCode string
	AccentColor string
	ThemeMode   string
}

// LoadDotEnv loads the given files (default ".env"). A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: loading %s: %w", f, err)
		}
	}
	return nil
}

// LoadClient reads the client settings from the environment.
func LoadClient() (Client, error) {
	cfg := Client{
		Host:         envOr("SNIPPETS_HOST", "localhost:8080"),
		Token:        os.Getenv("SNIPPETS_TOKEN"),
		LogFile:      os.Getenv("SNIPPETS_LOG_FILE"),
		Debounce:     autosave.DefaultDelay,
		PollInterval: liveness.DefaultInterval,
	}

	var err error
	if cfg.Debounce, err = durationEnv("SNIPPETS_DEBOUNCE", cfg.Debounce); err != nil {
		return Client{}, err
	}
	if cfg.PollInterval, err = durationEnv("SNIPPETS_POLL_INTERVAL", cfg.PollInterval); err != nil {
		return Client{}, err
	}
	return cfg, nil
}

// LoadHost reads the reference host settings from the environment.
func LoadHost() (Host, error) {
	cfg := Host{
		Port:        8080,
		DBPath:      envOr("DB_PATH", "data/snippets.db"),
		MediaDir:    envOr("MEDIA_DIR", "data/media"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		PairingCode: os.Getenv("PAIRING_CODE"),
		AccentColor: envOr("ACCENT_COLOR", "#7c3aed"),
		ThemeMode:   strings.ToLower(envOr("THEME_MODE", "dark")),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return Host{}, apperror.ValidationFailed("PORT", fmt.Sprintf("invalid PORT value %q", portStr))
		}
		cfg.Port = port
	}
	if cfg.ThemeMode != "dark" && cfg.ThemeMode != "light" {
		return Host{}, apperror.ValidationFailed("THEME_MODE", "THEME_MODE must be dark or light")
	}
	if cfg.PairingCode != "" && cfg.JWTSecret == "" {
		return Host{}, apperror.ValidationFailed("JWT_SECRET", "JWT_SECRET is required when PAIRING_CODE is set")
	}
	return cfg, nil
}

func envOr(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

// durationEnv accepts Go durations ("1500ms", "2s") or a bare number of milliseconds.
func durationEnv(k string, d time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(k))
	if raw == "" {
		return d, nil
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		if ms <= 0 {
			return 0, apperror.ValidationFailed(k, k+" must be positive")
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return 0, apperror.ValidationFailed(k, fmt.Sprintf("invalid %s value %q", k, raw))
	}
	return v, nil
}
