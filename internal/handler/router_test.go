package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecollab/internal/app/collab"
	"codecollab/internal/configs"
	"codecollab/internal/handler"
	"codecollab/internal/ws"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment:    "development",
		Port:           3000,
		FrontendURL:    "http://localhost:5173",
		AllowedOrigins: []string{"http://localhost:5173"},
	}

	transport := ws.NewTransport()
	hub := collab.NewHub(transport)

	router := handler.Router(&handler.AppDeps{
		Hub:       hub,
		Transport: transport,
		Config:    cfg,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	t.Cleanup(transport.Shutdown)

	return srv
}

func TestRouter_Root(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Code int `json:"code"`
		Data struct {
			Message  string `json:"message"`
			Frontend string `json:"frontend"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))

	assert.Zero(t, body.Code)
	assert.Contains(t, body.Data.Message, "Real-Time Code Collaboration")
	assert.Equal(t, "http://localhost:5173", body.Data.Frontend)
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Code int `json:"code"`
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "ok", body.Data.Status)
}

func TestRouter_Metrics(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
}

// dialWS opens a WebSocket against the test server's /ws endpoint.
func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

// sendEvent writes one envelope frame.
func sendEvent(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()

	frame, err := json.Marshal(map[string]any{"event": event, "payload": payload})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

// readEvent reads one envelope frame, failing the test on timeout.
func readEvent(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(frame, &env))
	return env.Event, env.Payload
}

func TestWebSocket_JoinAndRelay(t *testing.T) {
	srv := newTestServer(t)

	// alice joins r1 and is alone.
	alice := dialWS(t, srv)
	sendEvent(t, alice, "join-request", map[string]string{"roomId": "r1", "username": "alice"})

	event, payload := readEvent(t, alice)
	require.Equal(t, "join-accepted", event)

	var accepted struct {
		User  collab.User   `json:"user"`
		Users []collab.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(payload, &accepted))
	assert.Equal(t, "alice", accepted.User.Username)
	require.Len(t, accepted.Users, 1)

	// bob joins: bob sees both members, alice hears user-joined.
	bob := dialWS(t, srv)
	sendEvent(t, bob, "join-request", map[string]string{"roomId": "r1", "username": "bob"})

	event, payload = readEvent(t, bob)
	require.Equal(t, "join-accepted", event)
	require.NoError(t, json.Unmarshal(payload, &accepted))
	assert.Len(t, accepted.Users, 2)

	event, payload = readEvent(t, alice)
	require.Equal(t, "user-joined", event)
	var joined struct {
		User collab.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(payload, &joined))
	assert.Equal(t, "bob", joined.User.Username)

	// A duplicate username is turned away without touching the room.
	intruder := dialWS(t, srv)
	sendEvent(t, intruder, "join-request", map[string]string{"roomId": "r1", "username": "alice"})
	event, _ = readEvent(t, intruder)
	assert.Equal(t, "username-exists", event)

	// A generic event from bob reaches alice verbatim, not bob.
	sendEvent(t, bob, "cursor-update", map[string]int{"line": 4})
	event, payload = readEvent(t, alice)
	assert.Equal(t, "cursor-update", event)
	assert.JSONEq(t, `{"line":4}`, string(payload))

	// bob leaves: alice hears user-disconnected.
	require.NoError(t, bob.Close())
	event, payload = readEvent(t, alice)
	require.Equal(t, "user-disconnected", event)
	require.NoError(t, json.Unmarshal(payload, &joined))
	assert.Equal(t, "bob", joined.User.Username)
}
