/*
Package collab contains the core logic for room membership and event relay.

This file defines the Hub, which owns the Registry and drives the join,
disconnect, and fan-out protocols against a Transport.
*/
package collab

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"codecollab/internal/pkg/logx"
	"codecollab/internal/pkg/metrics"
)

// Transport is the delivery side the Hub talks to. The transport queues
// frames without blocking; ordering within one connection follows the order
// of calls.
type Transport interface {
	// Send delivers one event to one connection.
	Send(connectionID string, event EventName, payload any)

	// BroadcastToRoomExcept delivers one event to every connection the
	// transport associates with the room, except the excluded one.
	BroadcastToRoomExcept(roomID, excludeConnectionID string, event EventName, payload any)

	// JoinRoom and LeaveRoom maintain the transport's room groups so
	// BroadcastToRoomExcept stays a single group walk.
	JoinRoom(connectionID, roomID string)
	LeaveRoom(connectionID, roomID string)
}

// Hub owns the connection registry and applies each inbound notification as
// one serialized state transition. The mutex guarantees that concurrent
// joins can never both pass the duplicate-username check and that membership
// snapshots are consistent with the mutation they follow.
type Hub struct {
	mu        sync.Mutex
	registry  *Registry
	transport Transport
	logger    zerolog.Logger
}

// NewHub constructs a Hub delivering through the given transport.
func NewHub(transport Transport) *Hub {
	hubLogger := logx.Logger().With().Str("component", "Hub").Logger()

	return &Hub{
		registry:  NewRegistry(),
		transport: transport,
		logger:    hubLogger,
	}
}

// HandleConnectionOpen records that a connection exists. No registry state
// is created until a join request arrives.
func (h *Hub) HandleConnectionOpen(connectionID string) {
	h.logger.Debug().Str("connection_id", connectionID).Msg("Connection opened.")
}

// HandleEvent is the dispatch point for every inbound frame. Join requests
// and disconnect notices are handled specially; everything else is relayed
// verbatim to the sender's roommates.
func (h *Hub) HandleEvent(connectionID string, event EventName, payload json.RawMessage) {
	switch event {
	case EventJoinRequest:
		var req JoinRequestPayload
		if err := json.Unmarshal(payload, &req); err != nil {
			h.logger.Warn().
				Str("connection_id", connectionID).
				Err(err).
				Msg("Client sent invalid join-request payload.")
			return
		}
		h.handleJoinRequest(connectionID, req)

	case EventDisconnecting:
		h.HandleDisconnect(connectionID)

	default:
		h.relay(connectionID, event, payload)
	}
}

// handleJoinRequest admits the connection into the requested room unless the
// username is already taken there (exact, case-sensitive match). Rejection
// mutates nothing and answers the requester alone with username-exists.
//
// Empty room ids and usernames are admitted as degenerate users; the wire
// protocol has no rejection message for them and the upstream frontend never
// sends them.
func (h *Hub) handleJoinRequest(connectionID string, req JoinRequestPayload) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, member := range h.registry.ListByRoom(req.RoomID) {
		if member.Username == req.Username {
			h.logger.Info().
				Str("connection_id", connectionID).
				Str("room_id", req.RoomID).
				Str("username", req.Username).
				Msg("Join rejected: username already taken in room.")

			metrics.JoinsTotal.WithLabelValues("rejected").Inc()
			h.transport.Send(connectionID, EventUsernameExists, nil)
			return
		}
	}

	user := NewUser(connectionID, req.RoomID, req.Username)
	h.registry.Insert(user)
	h.transport.JoinRoom(connectionID, req.RoomID)

	h.logger.Info().
		Str("connection_id", connectionID).
		Str("room_id", req.RoomID).
		Str("username", req.Username).
		Int("room_size", len(h.registry.ListByRoom(req.RoomID))).
		Msg("User joined room.")

	metrics.JoinsTotal.WithLabelValues("accepted").Inc()

	h.transport.BroadcastToRoomExcept(req.RoomID, connectionID, EventUserJoined, UserEventPayload{User: user})

	h.transport.Send(connectionID, EventJoinAccepted, JoinAcceptedPayload{
		User:  user,
		Users: h.registry.ListByRoom(req.RoomID),
	})
}

// HandleDisconnect removes the connection's user and notifies the remaining
// room members. Unknown connections are a no-op, so a close racing a
// just-processed disconnect (or a connection that never joined) is harmless.
//
// The notification is computed before the removal, while the departing
// user's roommates are still the room's registered members; both happen
// under the mutex, so no other operation observes the intermediate state.
func (h *Hub) HandleDisconnect(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	user, ok := h.registry.FindByConnection(connectionID)
	if !ok {
		return
	}

	h.transport.BroadcastToRoomExcept(user.RoomID, connectionID, EventUserDisconnected, UserEventPayload{User: user})

	h.registry.Remove(connectionID)
	h.transport.LeaveRoom(connectionID, user.RoomID)

	h.logger.Info().
		Str("connection_id", connectionID).
		Str("room_id", user.RoomID).
		Str("username", user.Username).
		Msg("User disconnected from room.")
}

// relay forwards an opaque event to every other member of the sender's room.
// Events from connections with no registered user are dropped silently.
func (h *Hub) relay(connectionID string, event EventName, payload json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	roomID, ok := h.registry.FindRoomOf(connectionID)
	if !ok {
		h.logger.Debug().
			Str("connection_id", connectionID).
			Str("event", string(event)).
			Msg("Dropping event from unregistered connection.")
		return
	}

	metrics.EventsRelayed.Inc()
	h.transport.BroadcastToRoomExcept(roomID, connectionID, event, payload)
}

// UsersInRoom returns the current membership of a room, a consistent
// snapshot taken under the Hub's lock.
func (h *Hub) UsersInRoom(roomID string) []User {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.registry.ListByRoom(roomID)
}

// ConnectedUsers returns the total number of registered users.
func (h *Hub) ConnectedUsers() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.registry.Len()
}
