// File: enginedriver/context.go
package enginedriver

import (
	"sync"

	"github.com/google/uuid"
)

// engineContext backs the ctx table injected into the Lua state before
// every Init/Update call. playersRemaining is the one piece of state the
// driver's own tick loop and a script-invoked callback both touch, so it
// alone is guarded by a mutex; everything else here only ever runs on the
// driver's own goroutine.
type engineContext struct {
	playerOrder  []uuid.UUID
	ticksPerGame int
	ticksLeft    int
	onKilled     func(uuid.UUID)

	mu               sync.Mutex
	playersRemaining map[uuid.UUID]bool
}

func newEngineContext(order []uuid.UUID, ticksPerGame int, onKilled func(uuid.UUID)) *engineContext {
	remaining := make(map[uuid.UUID]bool, len(order))
	for _, id := range order {
		remaining[id] = true
	}
	return &engineContext{
		playerOrder:      order,
		ticksPerGame:     ticksPerGame,
		ticksLeft:        ticksPerGame,
		onKilled:         onKilled,
		playersRemaining: remaining,
	}
}

// kill implements notifyPlayerKilled: idempotent if id is already absent.
func (ec *engineContext) kill(id uuid.UUID) {
	ec.mu.Lock()
	_, present := ec.playersRemaining[id]
	if present {
		delete(ec.playersRemaining, id)
	}
	ec.mu.Unlock()

	if present && ec.onKilled != nil {
		ec.onKilled(id)
	}
}

func (ec *engineContext) isRemaining(id uuid.UUID) bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.playersRemaining[id]
}

// remainingSnapshot returns players still in the match, in playerOrder.
func (ec *engineContext) remainingSnapshot() []uuid.UUID {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	out := make([]uuid.UUID, 0, len(ec.playersRemaining))
	for _, id := range ec.playerOrder {
		if ec.playersRemaining[id] {
			out = append(out, id)
		}
	}
	return out
}
