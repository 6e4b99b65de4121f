package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizbattle/internal/service/roomengine"
)

// newTestClient builds a Client with no real *websocket.Conn. Broadcast only
// ever calls enqueue, which touches the send channel and sendClosed flag --
// never conn -- so a nil conn is safe for hub-level tests.
func newTestClient(hub *Hub, pin string, playerID uint) *Client {
	return NewClient(hub, nil, pin, playerID, nil)
}

func TestHub_Broadcast_DeliversToAllRegisteredPeers(t *testing.T) {
	h := NewHub()
	c1 := newTestClient(h, "ABC123", 1)
	c2 := newTestClient(h, "ABC123", 2)
	h.Register("ABC123", c1)
	h.Register("ABC123", c2)

	h.Broadcast("ABC123", roomengine.Envelope{Type: "state", Data: map[string]int{"score_a": 3}})

	msg1 := <-c1.send
	msg2 := <-c2.send
	assert.Contains(t, string(msg1), `"type":"state"`)
	assert.Contains(t, string(msg2), `"score_a":3`)
}

func TestHub_Broadcast_DoesNotCrossPins(t *testing.T) {
	h := NewHub()
	c1 := newTestClient(h, "ROOM01", 1)
	c2 := newTestClient(h, "ROOM02", 2)
	h.Register("ROOM01", c1)
	h.Register("ROOM02", c2)

	h.Broadcast("ROOM01", roomengine.Envelope{Type: "pong"})

	select {
	case <-c2.send:
		t.Fatal("a peer registered under a different pin must not receive the broadcast")
	default:
	}
	require.Len(t, c1.send, 1)
}

func TestHub_Broadcast_DropsFailedPeer(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, "ABC123", 1)
	h.Register("ABC123", c)

	// Fill the send buffer so the next enqueue fails.
	for i := 0; i < cap(c.send); i++ {
		c.send <- []byte("x")
	}

	h.Broadcast("ABC123", roomengine.Envelope{Type: "state"})

	h.mu.RLock()
	_, stillRegistered := h.peers["ABC123"][c]
	h.mu.RUnlock()
	assert.False(t, stillRegistered, "a send failure must deregister the peer immediately")
}

func TestHub_Unregister_IsIdempotent(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, "ABC123", 1)
	h.Register("ABC123", c)
	h.Unregister("ABC123", c)
	assert.NotPanics(t, func() { h.Unregister("ABC123", c) })
}

func TestHub_Broadcast_NoPeersIsNoop(t *testing.T) {
	h := NewHub()
	assert.NotPanics(t, func() {
		h.Broadcast("EMPTY1", roomengine.Envelope{Type: "state"})
	})
}
