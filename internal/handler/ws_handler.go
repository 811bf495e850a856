/*
Package handler provides the HTTP handlers and routing for the relay.

This file contains HandleWebSocket, which rate limits and upgrades incoming
connections, assigns the opaque connection id, and runs the client
lifecycle.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"codecollab/internal/pkg/errs"
	"codecollab/internal/pkg/limiter"
	"codecollab/internal/pkg/logx"
	"codecollab/internal/pkg/randx"
	"codecollab/internal/pkg/resp"
	"codecollab/internal/ws"
)

// HandleWebSocket returns the handler for WebSocket connection requests.
// No room or user parameters are taken here; admission happens over the
// socket via the join-request event.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		connectionID := randx.ConnectionID()

		client := ws.NewClient(connectionID, conn, deps.Transport, deps.Hub)
		deps.Transport.Register(client)
		deps.Hub.HandleConnectionOpen(connectionID)

		go client.WritePump()

		logx.Info("WebSocket connection established", "connection_id", connectionID)

		client.ReadPump()
	}
}
