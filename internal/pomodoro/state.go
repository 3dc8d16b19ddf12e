package pomodoro

import (
	"sync"

	"github.com/verte-zerg/pomo/internal/model"
)

// stateCell is the only value touched directly by both the foreground and a
// run goroutine. The lock is held for a single read or write, never across a
// sleep or a channel operation.
//
// owner is the id of the run allowed to write the cell. Starting a run takes
// ownership; an eager stop releases it, so a run goroutine that is still
// winding down cannot overwrite the state of whatever came after it.
type stateCell struct {
	mu    sync.Mutex
	state model.TimerState
	owner string
}

func (c *stateCell) get() model.TimerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// begin moves Idle -> Working for runID. It fails if any run is active.
func (c *stateCell) begin(runID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != model.Idle {
		return false
	}
	c.state = model.Working
	c.owner = runID
	return true
}

// set writes state on behalf of runID. Writes from a run that no longer owns
// the cell are dropped and reported as false.
func (c *stateCell) set(runID string, state model.TimerState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner == "" || c.owner != runID {
		return false
	}
	c.state = state
	if state == model.Idle {
		c.owner = ""
	}
	return true
}

// reset forces Idle and releases ownership.
func (c *stateCell) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = model.Idle
	c.owner = ""
}
