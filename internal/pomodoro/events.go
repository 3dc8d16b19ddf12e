package pomodoro

import (
	"time"

	"github.com/verte-zerg/pomo/internal/model"
)

// EventType defines the kind of timer event.
type EventType string

const (
	EventPhaseChange   EventType = "phase_change"
	EventRunCompleted  EventType = "run_completed"
	EventRunTerminated EventType = "run_terminated"
	EventPersistFailed EventType = "persist_failed"
	EventNotified      EventType = "notified"
	EventNotifyFailed  EventType = "notify_failed"
)

// Event is a side effect of a run goroutine, reported to observers.
type Event struct {
	Type    EventType
	RunID   string
	State   model.TimerState
	Message string
	Err     error
	At      time.Time
}

// Subscribe registers an observer channel. Events are dropped for observers
// that fall behind.
func (t *Timer) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	t.eventsMu.Lock()
	t.events = append(t.events, ch)
	t.eventsMu.Unlock()
	return ch
}

func (t *Timer) emit(event Event) {
	if event.At.IsZero() {
		event.At = t.now()
	}
	t.eventsMu.Lock()
	defer t.eventsMu.Unlock()
	for _, ch := range t.events {
		select {
		case ch <- event:
		default:
		}
	}
}
