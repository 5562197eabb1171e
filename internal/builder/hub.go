package builder

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound means the hub has no session with that id.
var ErrNotFound = errors.New("session not found")

// Hub owns the live build sessions, one Builder per id. Sessions are
// independent: actions on one never block another.
type Hub struct {
	mu      sync.Mutex
	order   []string
	byID    map[string]*Builder
	factory func(id string) *Builder
}

// NewHub constructs a Hub. factory builds the Builder for each new
// session id.
func NewHub(factory func(id string) *Builder) *Hub {
	return &Hub{
		byID:    make(map[string]*Builder),
		factory: factory,
	}
}

// Create starts a new session and returns its Builder.
func (h *Hub) Create() *Builder {
	id := uuid.NewString()
	b := h.factory(id)
	h.mu.Lock()
	h.byID[id] = b
	h.order = append(h.order, id)
	h.mu.Unlock()
	return b
}

// Get returns the session with the given id.
func (h *Hub) Get(id string) (*Builder, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return b, nil
}

// Remove drops a session from the hub.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.byID[id]; !ok {
		return
	}
	delete(h.byID, id)
	for i, other := range h.order {
		if other == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// List returns a snapshot of every live session in creation order.
func (h *Hub) List() []Session {
	h.mu.Lock()
	builders := make([]*Builder, 0, len(h.order))
	for _, id := range h.order {
		builders = append(builders, h.byID[id])
	}
	h.mu.Unlock()

	sessions := make([]Session, 0, len(builders))
	for _, b := range builders {
		sessions = append(sessions, b.Snapshot())
	}
	return sessions
}
