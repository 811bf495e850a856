/*
Package ws is the WebSocket transport for the collaboration relay.

This file defines the Transport, the directory of live connections and room
groups. It implements collab.Transport: one-to-one sends, room broadcasts
that skip the sender, and the group bookkeeping the Hub drives through
JoinRoom and LeaveRoom.
*/
package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"codecollab/internal/app/collab"
	"codecollab/internal/pkg/logx"
	"codecollab/internal/pkg/metrics"
)

// Transport tracks live clients and their room groups.
type Transport struct {
	// mu protects clients and rooms.
	mu sync.RWMutex

	// clients maps connection id to client.
	clients map[string]*Client

	// rooms maps room id to the group of clients joined to it. Groups exist
	// only while non-empty.
	rooms map[string]map[string]*Client

	// structured logger with transport context.
	logger zerolog.Logger
}

// NewTransport returns an empty Transport.
func NewTransport() *Transport {
	transportLogger := logx.Logger().With().Str("component", "Transport").Logger()

	return &Transport{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		logger:  transportLogger,
	}
}

// Register adds an accepted client to the directory.
func (t *Transport) Register(c *Client) {
	t.mu.Lock()
	t.clients[c.id] = c
	total := len(t.clients)
	t.mu.Unlock()

	metrics.ActiveConnections.Inc()

	t.logger.Info().
		Str("connection_id", c.id).
		Int("total_connections", total).
		Msg("Client registered.")
}

// Unregister removes a client and closes its send queue, which terminates
// its write pump. Room membership is expected to be gone already (the Hub
// calls LeaveRoom during the disconnect protocol), but any leftover group
// entries are swept as well.
func (t *Transport) Unregister(connectionID string) {
	t.mu.Lock()

	c, ok := t.clients[connectionID]
	if !ok {
		t.mu.Unlock()
		return
	}

	delete(t.clients, connectionID)

	for roomID, group := range t.rooms {
		if _, in := group[connectionID]; in {
			delete(group, connectionID)
			if len(group) == 0 {
				delete(t.rooms, roomID)
			}
		}
	}

	// Closing under the lock keeps the close mutually exclusive with
	// enqueues, which always run under the read lock.
	c.closeSend()

	total := len(t.clients)
	t.mu.Unlock()

	metrics.ActiveConnections.Dec()

	t.logger.Info().
		Str("connection_id", connectionID).
		Int("total_connections", total).
		Msg("Client unregistered.")
}

// JoinRoom adds the connection to a room group.
func (t *Transport) JoinRoom(connectionID, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.clients[connectionID]
	if !ok {
		t.logger.Warn().
			Str("connection_id", connectionID).
			Str("room_id", roomID).
			Msg("JoinRoom for unknown connection.")
		return
	}

	group, ok := t.rooms[roomID]
	if !ok {
		group = make(map[string]*Client)
		t.rooms[roomID] = group
	}
	group[connectionID] = c
}

// LeaveRoom removes the connection from a room group, forgetting the group
// when its last member leaves.
func (t *Transport) LeaveRoom(connectionID, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	group, ok := t.rooms[roomID]
	if !ok {
		return
	}

	delete(group, connectionID)
	if len(group) == 0 {
		delete(t.rooms, roomID)
	}
}

// Send queues one event for one connection. Unknown connections are dropped;
// the registry may outlive a socket by one operation during close races.
func (t *Transport) Send(connectionID string, event collab.EventName, payload any) {
	frame, err := marshalFrame(event, payload)
	if err != nil {
		t.logger.Error().Err(err).Str("event", string(event)).Msg("Failed to marshal outbound frame.")
		return
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	c, ok := t.clients[connectionID]
	if !ok {
		t.logger.Debug().
			Str("connection_id", connectionID).
			Str("event", string(event)).
			Msg("Send to unknown connection dropped.")
		return
	}

	c.enqueue(frame)
}

// BroadcastToRoomExcept queues one event for every member of the room except
// the excluded connection. The frame is marshaled once and shared.
func (t *Transport) BroadcastToRoomExcept(roomID, excludeConnectionID string, event collab.EventName, payload any) {
	frame, err := marshalFrame(event, payload)
	if err != nil {
		t.logger.Error().Err(err).Str("event", string(event)).Msg("Failed to marshal outbound frame.")
		return
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	for id, c := range t.rooms[roomID] {
		if id == excludeConnectionID {
			continue
		}
		c.enqueue(frame)
	}
}

// Shutdown closes the send queue of every client, letting each write pump
// deliver a close frame and exit. Read pumps then unwind through the normal
// disconnect path.
func (t *Transport) Shutdown() {
	t.mu.Lock()
	closed := len(t.clients)
	for _, c := range t.clients {
		c.closeSend()
	}
	t.clients = make(map[string]*Client)
	t.rooms = make(map[string]map[string]*Client)
	t.mu.Unlock()

	t.logger.Info().Int("closed_connections", closed).Msg("Transport shutdown complete.")
}

// marshalFrame encodes one outbound envelope.
func marshalFrame(event collab.EventName, payload any) ([]byte, error) {
	return json.Marshal(struct {
		Event   collab.EventName `json:"event"`
		Payload any              `json:"payload,omitempty"`
	}{
		Event:   event,
		Payload: payload,
	})
}
