/*
Package collab contains the core logic for room membership and event relay:
who is connected to which collaboration session, and how events fan out to
the other participants.

This file defines the User record, one per active connection.
*/
package collab

// Status describes a participant's connection state.
type Status string

const (
	// StatusOnline marks a connected participant. Every user the relay
	// creates is online; disconnects delete the record instead of flipping
	// the status.
	StatusOnline Status = "online"

	// StatusOffline is reserved for clients that render historical
	// participants; the relay never stores it.
	StatusOffline Status = "offline"
)

// User is the record kept for one active connection. Username is unique
// within its room; SocketID is the transport's opaque connection id, unique
// across all users. Both are immutable after creation.
//
// CursorPosition, Typing, and CurrentFile are informational fields the
// frontend reads from join payloads. The relay initializes them and never
// mutates them; live updates travel as opaque relayed events.
type User struct {
	Username string `json:"username"`
	RoomID   string `json:"roomId"`
	Status   Status `json:"status"`

	CursorPosition int     `json:"cursorPosition"`
	Typing         bool    `json:"typing"`
	SocketID       string  `json:"socketId"`
	CurrentFile    *string `json:"currentFile"`
}

// NewUser builds the record for a freshly admitted participant.
func NewUser(connectionID, roomID, username string) User {
	return User{
		Username:       username,
		RoomID:         roomID,
		Status:         StatusOnline,
		CursorPosition: 0,
		Typing:         false,
		SocketID:       connectionID,
		CurrentFile:    nil,
	}
}
