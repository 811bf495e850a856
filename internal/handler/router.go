/*
Package handler provides the HTTP handlers and routing for the relay.

This file defines the main Router, applying logging, CORS, and rate limiting
middleware before delegating to the JSON endpoints and the WebSocket
handler.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"codecollab/internal/pkg/limiter"
	"codecollab/internal/pkg/logx"
	"codecollab/internal/pkg/metrics"
	"codecollab/internal/pkg/resp"
)

const (
	// ConnectRate and ConnectBurst bound how fast one IP may open sockets.
	ConnectRate  = 0.5
	ConnectBurst = 5
)

// Router sets up the HTTP routing table for the relay: CORS, request
// logging, the root and health endpoints, Prometheus metrics, and the
// WebSocket accept path.
func Router(deps *AppDeps) http.Handler {
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: origin not allowed.", "origin", origin)
			return false
		},
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"message":  "Welcome to the Real-Time Code Collaboration Backend",
			"frontend": deps.Config.FrontendURL,
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"message": "Backend is running",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Handle("/metrics", metrics.Handler())

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
