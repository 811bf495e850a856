/*
Package collab contains the core logic for room membership and event relay.

This file defines the Registry, the in-memory directory of connected users.
*/
package collab

import "sort"

// Registry maps connection ids to User records and answers room-scoped
// queries. It is the sole owner of User state.
//
// The Registry itself is not safe for concurrent use; the Hub serializes all
// access under its own mutex, the single-writer discipline for the only
// shared mutable state in the relay.
type Registry struct {
	users map[string]User
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]User),
	}
}

// Insert adds a user. The caller guarantees the connection id is not already
// present.
func (reg *Registry) Insert(u User) {
	reg.users[u.SocketID] = u
}

// Remove deletes the user with the given connection id; unknown ids are a
// no-op.
func (reg *Registry) Remove(connectionID string) {
	delete(reg.users, connectionID)
}

// FindByConnection returns the user for a connection id, if registered.
func (reg *Registry) FindByConnection(connectionID string) (User, bool) {
	u, ok := reg.users[connectionID]
	return u, ok
}

// FindRoomOf returns the room the connection belongs to, if registered.
func (reg *Registry) FindRoomOf(connectionID string) (string, bool) {
	u, ok := reg.users[connectionID]
	if !ok {
		return "", false
	}
	return u.RoomID, true
}

// ListByRoom returns every user registered in the room, sorted by username
// so the order is deterministic for a given registry state.
func (reg *Registry) ListByRoom(roomID string) []User {
	members := make([]User, 0)
	for _, u := range reg.users {
		if u.RoomID == roomID {
			members = append(members, u)
		}
	}

	sort.Slice(members, func(i, j int) bool {
		if members[i].Username != members[j].Username {
			return members[i].Username < members[j].Username
		}
		return members[i].SocketID < members[j].SocketID
	})

	return members
}

// Len returns the number of registered users across all rooms.
func (reg *Registry) Len() int {
	return len(reg.users)
}
