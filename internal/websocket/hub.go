// Package websocket hosts the Connection Hub component from spec.md §4.4:
// a PIN-keyed set of accepted connections with best-effort broadcast.
//
// This replaces the teacher's horizontally-sharded ShardedHub/Shard/pubsub
// machinery (see DESIGN.md's "Dropped teacher modules" section): QuizBattle
// rooms live entirely on one process, so there is no cross-instance fan-out
// to shard across, only the two operations spec.md §4.4 actually asks for.
package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/yourusername/quizbattle/internal/service/roomengine"
)

// Hub maintains the set of accepted connections per PIN and implements
// roomengine.Broadcaster.
type Hub struct {
	mu    sync.RWMutex
	peers map[string]map[*Client]struct{}
}

// NewHub builds an empty Hub.
func NewHub() *Hub {
	return &Hub{peers: make(map[string]map[*Client]struct{})}
}

// Register adds an accepted connection to a PIN's peer set.
func (h *Hub) Register(pin string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.peers[pin]
	if !ok {
		set = make(map[*Client]struct{})
		h.peers[pin] = set
	}
	set[c] = struct{}{}
	log.Printf("[Hub] registered connection pin=%s conn=%s (peers=%d)", pin, c.ConnectionID, len(set))
}

// Unregister removes a connection from a PIN's peer set. Idempotent.
func (h *Hub) Unregister(pin string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.peers[pin]
	if !ok {
		return
	}
	if _, present := set[c]; !present {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.peers, pin)
	}
	log.Printf("[Hub] unregistered connection pin=%s conn=%s", pin, c.ConnectionID)
}

// Broadcast fans env out to every peer registered under pin, best-effort
// and in parallel. A send failure immediately deregisters that peer
// (spec.md §4.4); failures across peers are aggregated with
// hashicorp/go-multierror purely so one log line reports the whole fan-out
// instead of one line per dropped peer.
func (h *Hub) Broadcast(pin string, env roomengine.Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		log.Printf("[Hub] failed to marshal envelope type=%s pin=%s: %v", env.Type, pin, err)
		return
	}

	h.mu.RLock()
	set := h.peers[pin]
	targets := make([]*Client, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sendErrs *multierror.Error
	)
	for _, c := range targets {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			if err := c.enqueue(payload); err != nil {
				mu.Lock()
				sendErrs = multierror.Append(sendErrs, err)
				mu.Unlock()
				h.Unregister(pin, c)
			}
		}(c)
	}
	wg.Wait()

	if sendErrs != nil {
		log.Printf("[Hub] broadcast pin=%s type=%s dropped %d/%d peers: %v", pin, env.Type, len(sendErrs.Errors), len(targets), sendErrs)
	}
}
