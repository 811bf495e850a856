/*
Package configs loads and parses the application's configuration settings.

Configuration comes from environment variables, optionally seeded from a
.env file, covering the running environment, port, frontend origin, and
CORS allowed origins.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig contains all configuration parameters required at runtime.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// FrontendURL is the origin of the collaborating frontend, reported on
	// the root endpoint and always included in the CORS allowlist.
	FrontendURL string

	// AllowedOrigins lists additional origins permitted for CORS and
	// WebSocket upgrades.
	AllowedOrigins []string
}

// devFrontendURL is the frontend origin assumed during local development.
const devFrontendURL = "http://localhost:5173"

// LoadConfig reads the application configuration from environment variables,
// loading a .env file first if one is present. It applies development
// defaults and validates each value.
func LoadConfig() (*AppConfig, error) {
	// A missing .env file is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	// --- General Server Settings ---
	// Environment
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Port
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "3000"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Frontend / CORS Settings ---
	cfg.FrontendURL = os.Getenv("FRONTEND_URL")
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = devFrontendURL
	}

	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	// The frontend origin and the dev origin are always acceptable, matching
	// how the hosted frontend and local development coexist.
	cfg.AllowedOrigins = appendUnique(cfg.AllowedOrigins, cfg.FrontendURL)
	cfg.AllowedOrigins = appendUnique(cfg.AllowedOrigins, devFrontendURL)

	return cfg, nil
}

// appendUnique appends value to list unless it is already present.
func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
