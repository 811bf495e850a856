/*
Package ws is the WebSocket transport for the collaboration relay. It owns
the gorilla/websocket connections and the room groups used for fan-out;
protocol decisions live in the collab package.

This file defines the Client struct wrapping one connection, with the read
and write pumps and the heartbeat handling.
*/
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"codecollab/internal/app/collab"
	"codecollab/internal/pkg/logx"
)

const (
	// timeout for a single write to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time to wait for a Pong before considering the peer gone.
	pongWait = 60 * time.Second

	// frequency of server Ping messages.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame. Collaborative
	// edits can carry whole file contents, so this is generous.
	maxMessageSize = 1 << 20

	// sendQueueSize is the per-client outbound buffer. A full queue means a
	// slow consumer; frames for that client are dropped rather than
	// stalling the room.
	sendQueueSize = 256
)

// EventHandler receives the transport's connection and event notifications.
// *collab.Hub is the production implementation.
type EventHandler interface {
	HandleConnectionOpen(connectionID string)
	HandleEvent(connectionID string, event collab.EventName, payload json.RawMessage)
	HandleDisconnect(connectionID string)
}

// Client represents one active WebSocket connection.
type Client struct {
	// id is the opaque connection id assigned at accept time.
	id string

	// underlying WebSocket connection.
	conn *websocket.Conn

	// transport that tracks this client and its room groups.
	transport *Transport

	// handler the read pump dispatches inbound events to.
	handler EventHandler

	// buffered channel of frames waiting to be written out.
	send chan []byte

	// closeOnce guards the send channel so transport shutdown and the
	// per-connection cleanup path cannot both close it.
	closeOnce sync.Once

	// structured logger with connection context.
	logger zerolog.Logger
}

// closeSend closes the send channel exactly once, terminating the write
// pump.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// NewClient wraps an accepted connection. The caller registers the client
// with the transport and starts both pumps.
func NewClient(id string, conn *websocket.Conn, transport *Transport, handler EventHandler) *Client {
	clientLogger := logx.Logger().With().
		Str("component", "ws").
		Str("connection_id", id).
		Logger()

	return &Client{
		id:        id,
		conn:      conn,
		transport: transport,
		handler:   handler,
		send:      make(chan []byte, sendQueueSize),
		logger:    clientLogger,
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// ReadPump reads frames until the connection fails or closes, dispatching
// each decoded envelope to the handler. It performs disconnect cleanup on
// exit, so the disconnect protocol runs exactly once per connection from
// this path.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		var env collab.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid JSON frame")
			continue
		}

		if env.Event == "" {
			c.logger.Warn().Msg("Client sent frame without event name")
			continue
		}

		c.handler.HandleEvent(c.id, env.Event, env.Payload)
	}
}

// cleanupOnDisconnect runs the disconnect protocol and withdraws the client
// from the transport when the read pump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Connection cleanup starting.")

	c.handler.HandleDisconnect(c.id)
	c.transport.Unregister(c.id)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error")
	}
}

// enqueue queues a frame for delivery without blocking. Frames to a full
// queue are dropped with a warning.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Send queue full, dropping frame")
	}
}

// WritePump writes queued frames to the connection and keeps the heartbeat
// going. It terminates when the send channel closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeQueuedFrame writes one frame, or a close message when the send
// channel has been closed. Returns false when the pump should stop.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePing sends the periodic heartbeat Ping. Returns false when the pump
// should stop.
func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
