package player

import (
	"sync"
	"weak"

	"github.com/google/uuid"
)

// Coordinator keeps at most one registered player playing. It holds weak
// references, so a player that is dropped without Close is pruned once it
// has been collected.
type Coordinator struct {
	mu      sync.Mutex
	players map[uuid.UUID]weak.Pointer[Player]
}

// NewCoordinator creates an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{players: make(map[uuid.UUID]weak.Pointer[Player])}
}

// Register adds p and returns its registration id.
func (c *Coordinator) Register(p *Player) uuid.UUID {
	id := uuid.New()
	c.mu.Lock()
	c.players[id] = weak.Make(p)
	c.mu.Unlock()
	return id
}

// Unregister removes the player registered under id.
func (c *Coordinator) Unregister(id uuid.UUID) {
	c.mu.Lock()
	delete(c.players, id)
	c.mu.Unlock()
}

// Len returns the number of live registrations.
func (c *Coordinator) Len() int {
	return len(c.live())
}

// RequestPlay stops every other live player that is playing and returns how
// many were stopped.
func (c *Coordinator) RequestPlay(p *Player) int {
	stopped := 0
	for _, other := range c.live() {
		if other == p || !other.IsPlaying() {
			continue
		}
		other.stopForOther()
		stopped++
	}
	return stopped
}

// live prunes collected players and returns the rest. Players are called
// outside the lock.
func (c *Coordinator) live() []*Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Player, 0, len(c.players))
	for id, wp := range c.players {
		p := wp.Value()
		if p == nil {
			delete(c.players, id)
			continue
		}
		out = append(out, p)
	}
	return out
}
