package pomodoro

import (
	"sync"
	"time"
)

// Command is a control directive sent from the foreground to a running countdown.
type Command int

const (
	CmdPause Command = iota
	CmdStart
	CmdStop
	CmdQueryRemaining
)

func (c Command) String() string {
	switch c {
	case CmdPause:
		return "pause"
	case CmdStart:
		return "start"
	case CmdStop:
		return "stop"
	case CmdQueryRemaining:
		return "query-remaining"
	default:
		return "unknown"
	}
}

const (
	commandBuffer   = 16
	telemetryBuffer = 1
)

// channels is the command/telemetry pair created fresh for every run.
type channels struct {
	commands  chan Command
	telemetry chan time.Duration
	done      chan struct{}
}

func newChannels() channels {
	return channels{
		commands:  make(chan Command, commandBuffer),
		telemetry: make(chan time.Duration, telemetryBuffer),
		done:      make(chan struct{}),
	}
}

// Commander sends commands into a run's command channel.
// Control sends are fire-and-forget; only QueryRemaining reports failure.
type Commander struct {
	mu       sync.Mutex
	closed   bool
	commands chan<- Command
	done     <-chan struct{}
}

func newCommander(commands chan<- Command, done <-chan struct{}) *Commander {
	return &Commander{commands: commands, done: done}
}

// Pause asks the countdown to pause.
func (c *Commander) Pause() {
	c.send(CmdPause)
}

// Stop asks the countdown to terminate.
func (c *Commander) Stop() {
	c.send(CmdStop)
}

// Resume asks a paused countdown to continue.
func (c *Commander) Resume() {
	c.send(CmdStart)
}

// QueryRemaining asks the countdown for its remaining time. It returns false
// when the countdown has already exited.
func (c *Commander) QueryRemaining() bool {
	return c.send(CmdQueryRemaining)
}

// Close drops the sending side. A countdown still waiting on commands treats
// this as Stop.
func (c *Commander) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.commands)
}

// Alive reports whether the countdown goroutine is still running.
func (c *Commander) Alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *Commander) send(cmd Command) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.Alive() {
		return false
	}
	// The runner drains the buffer every poll quantum, so a full buffer only
	// delays the send until the next poll or until the runner exits.
	select {
	case c.commands <- cmd:
		return true
	case <-c.done:
		return false
	}
}
