package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecollab/internal/app/collab"
)

// nopHandler satisfies EventHandler for tests that never pump frames.
type nopHandler struct{}

func (nopHandler) HandleConnectionOpen(string) {}
func (nopHandler) HandleEvent(string, collab.EventName, json.RawMessage) {}
func (nopHandler) HandleDisconnect(string) {}

// newTestClient builds a registered client without a real socket; only the
// send queue is exercised.
func newTestClient(t *testing.T, transport *Transport, id string) *Client {
	t.Helper()

	c := NewClient(id, nil, transport, nopHandler{})
	transport.Register(c)
	return c
}

// drain reads every frame currently queued for the client.
func drain(c *Client) [][]byte {
	var frames [][]byte
	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return frames
			}
			frames = append(frames, frame)
		default:
			return frames
		}
	}
}

func TestTransport_SendTargetsOneConnection(t *testing.T) {
	transport := NewTransport()
	c1 := newTestClient(t, transport, "c1")
	c2 := newTestClient(t, transport, "c2")

	transport.Send("c1", collab.EventUsernameExists, nil)

	frames := drain(c1)
	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"event":"username-exists"}`, string(frames[0]))

	assert.Empty(t, drain(c2))

	// Unknown connections are dropped without effect.
	transport.Send("c9", collab.EventUsernameExists, nil)
}

func TestTransport_BroadcastSkipsExcludedConnection(t *testing.T) {
	transport := NewTransport()
	c1 := newTestClient(t, transport, "c1")
	c2 := newTestClient(t, transport, "c2")
	c3 := newTestClient(t, transport, "c3")
	other := newTestClient(t, transport, "c4")

	transport.JoinRoom("c1", "r1")
	transport.JoinRoom("c2", "r1")
	transport.JoinRoom("c3", "r1")
	transport.JoinRoom("c4", "r2")

	payload := json.RawMessage(`{"line":4}`)
	transport.BroadcastToRoomExcept("r1", "c1", "cursor-update", payload)

	assert.Empty(t, drain(c1))
	assert.Empty(t, drain(other))

	for _, c := range []*Client{c2, c3} {
		frames := drain(c)
		require.Len(t, frames, 1)
		assert.JSONEq(t, `{"event":"cursor-update","payload":{"line":4}}`, string(frames[0]))
	}
}

func TestTransport_BroadcastToUnknownRoomIsNoop(t *testing.T) {
	transport := NewTransport()
	c1 := newTestClient(t, transport, "c1")

	transport.BroadcastToRoomExcept("nowhere", "c1", "cursor-update", nil)
	assert.Empty(t, drain(c1))
}

func TestTransport_LeaveRoomStopsDelivery(t *testing.T) {
	transport := NewTransport()
	c1 := newTestClient(t, transport, "c1")
	c2 := newTestClient(t, transport, "c2")

	transport.JoinRoom("c1", "r1")
	transport.JoinRoom("c2", "r1")
	transport.LeaveRoom("c2", "r1")

	transport.BroadcastToRoomExcept("r1", "", "tick", nil)

	require.Len(t, drain(c1), 1)
	assert.Empty(t, drain(c2))

	// Leaving a room never joined, or one already left, is harmless.
	transport.LeaveRoom("c2", "r1")
	transport.LeaveRoom("c2", "r9")
}

func TestTransport_UnregisterClosesQueueAndSweepsRooms(t *testing.T) {
	transport := NewTransport()
	c1 := newTestClient(t, transport, "c1")
	c2 := newTestClient(t, transport, "c2")

	transport.JoinRoom("c1", "r1")
	transport.JoinRoom("c2", "r1")

	transport.Unregister("c1")

	_, open := <-c1.send
	assert.False(t, open)

	// The swept client no longer receives room traffic.
	transport.BroadcastToRoomExcept("r1", "", "tick", nil)
	require.Len(t, drain(c2), 1)

	// Unregistering twice is a no-op.
	transport.Unregister("c1")
}

func TestTransport_ShutdownClosesAllClients(t *testing.T) {
	transport := NewTransport()
	c1 := newTestClient(t, transport, "c1")
	c2 := newTestClient(t, transport, "c2")
	transport.JoinRoom("c1", "r1")

	transport.Shutdown()

	for _, c := range []*Client{c1, c2} {
		_, open := <-c.send
		assert.False(t, open)
	}

	// A late disconnect-path unregister after shutdown must not panic.
	transport.Unregister("c1")
}

func TestTransport_FullQueueDropsFrame(t *testing.T) {
	transport := NewTransport()
	c1 := newTestClient(t, transport, "c1")
	transport.JoinRoom("c1", "r1")

	for i := 0; i < sendQueueSize+10; i++ {
		transport.Send("c1", "tick", nil)
	}

	// The queue holds at most its capacity; overflow was dropped, not
	// blocked on.
	assert.Len(t, drain(c1), sendQueueSize)
}
