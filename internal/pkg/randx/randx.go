/*
Package randx generates the opaque identifiers the relay hands out.

Connection ids are UUID v4 strings assigned by the transport when a socket is
accepted; they stay stable for the connection's lifetime and carry no
meaning beyond identity.
*/
package randx

import (
	"github.com/google/uuid"
)

// ConnectionID returns a new opaque connection identifier.
func ConnectionID() string {
	return uuid.New().String()
}

// IsValidConnectionID reports whether id parses as a UUID string.
// The relay itself never requires this; it exists for log hygiene checks and
// tests that assert id shape.
func IsValidConnectionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
