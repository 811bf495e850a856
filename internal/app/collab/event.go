/*
Package collab contains the core logic for room membership and event relay.

This file defines the wire envelope and the event names the relay treats
specially. Every other event name is opaque and passes through the generic
fan-out unchanged.
*/
package collab

import "encoding/json"

// EventName identifies a message on the wire.
type EventName string

const (
	// EventJoinRequest asks to be admitted to a room.
	EventJoinRequest EventName = "join-request"

	// EventUsernameExists rejects a join whose username is taken in that
	// room. Sent to the requester only, with no payload.
	EventUsernameExists EventName = "username-exists"

	// EventJoinAccepted confirms admission, carrying the new user's record
	// and the full room membership.
	EventJoinAccepted EventName = "join-accepted"

	// EventUserJoined informs existing members about a new participant.
	EventUserJoined EventName = "user-joined"

	// EventUserDisconnected informs remaining members that a participant
	// left, carrying the departing user's last record.
	EventUserDisconnected EventName = "user-disconnected"

	// EventDisconnecting is the client's advance notice that the connection
	// is about to close. It has no payload; the read-loop exit triggers the
	// same path, so handling is idempotent.
	EventDisconnecting EventName = "disconnecting"
)

// Envelope is the one-object-per-frame wire format: an event name and an
// arbitrary JSON payload the relay never inspects for generic events.
type Envelope struct {
	Event   EventName       `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinRequestPayload carries the fields of a join-request event.
type JoinRequestPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

// JoinAcceptedPayload answers a successful join: the requester's own record
// plus the room membership including the requester.
type JoinAcceptedPayload struct {
	User  User   `json:"user"`
	Users []User `json:"users"`
}

// UserEventPayload wraps a single user record for user-joined and
// user-disconnected notifications.
type UserEventPayload struct {
	User User `json:"user"`
}
