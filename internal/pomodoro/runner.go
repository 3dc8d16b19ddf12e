package pomodoro

import (
	"time"
)

// DefaultPollInterval is how often an active countdown checks for commands.
const DefaultPollInterval = 10 * time.Millisecond

// ExitCondition reports how a countdown ended.
type ExitCondition int

const (
	ExitCompleted ExitCondition = iota
	ExitTerminated
)

func (e ExitCondition) String() string {
	if e == ExitTerminated {
		return "terminated"
	}
	return "completed"
}

// Runner counts down one phase at a time on the goroutine that calls Run.
// It is owned by that goroutine and must not be shared.
type Runner struct {
	commands     <-chan Command
	telemetry    chan time.Duration
	pollInterval time.Duration
}

// NewRunner wires a runner to its command and telemetry channels.
func NewRunner(commands <-chan Command, telemetry chan time.Duration, pollInterval time.Duration) *Runner {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Runner{
		commands:     commands,
		telemetry:    telemetry,
		pollInterval: pollInterval,
	}
}

// Run blocks until duration of active (unpaused) time has elapsed or a Stop
// arrives. Time spent paused extends the deadline instead of counting
// against it.
func (r *Runner) Run(duration time.Duration) ExitCondition {
	start := time.Now()
	var timeInPause time.Duration

	for time.Since(start) < duration+timeInPause {
		time.Sleep(r.pollInterval)

		remaining := duration + timeInPause - time.Since(start)
		if remaining < 0 {
			remaining = 0
		}

		var cmd Command
		select {
		case c, ok := <-r.commands:
			if !ok {
				return ExitTerminated
			}
			cmd = c
		default:
			continue
		}

		switch cmd {
		case CmdStart:
			continue
		case CmdPause:
			pauseStart := time.Now()
			if !r.waitForResume(remaining) {
				return ExitTerminated
			}
			timeInPause += time.Since(pauseStart)
		case CmdStop:
			return ExitTerminated
		case CmdQueryRemaining:
			r.report(remaining)
		}
	}

	return ExitCompleted
}

// waitForResume blocks while paused. It returns false when the run must end.
func (r *Runner) waitForResume(frozen time.Duration) bool {
	for cmd := range r.commands {
		switch cmd {
		case CmdPause:
			continue
		case CmdStart:
			return true
		case CmdQueryRemaining:
			r.report(frozen)
		case CmdStop:
			return false
		}
	}
	return false
}

// report queues remaining without blocking, replacing an unread older reply.
func (r *Runner) report(remaining time.Duration) {
	for {
		select {
		case r.telemetry <- remaining:
			return
		default:
		}
		select {
		case <-r.telemetry:
		default:
		}
	}
}
