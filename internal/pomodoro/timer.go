// Package pomodoro implements the pausable work/break timer.
//
// A Timer runs at most one background goroutine at a time. The goroutine owns
// the countdown and is driven through a Commander; its remaining time comes
// back on a telemetry channel and its phase is published through a small
// mutex-guarded cell that the foreground reads on every render.
package pomodoro

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/pomo/internal/model"
	"github.com/verte-zerg/pomo/internal/stats"
)

// ErrNoActiveRun is returned when a query needs a run and none is active.
var ErrNoActiveRun = errors.New("no active run")

const persistTimeout = 5 * time.Second

const (
	notifySummary   = "pomo"
	workDoneBody    = "Good work! Take a break before continuing."
	breakOverBody   = "The break is over! Continue with your good work."
)

// RunStore persists completed runs.
type RunStore interface {
	CreateTimerRun(ctx context.Context, run model.NewTimerRun) (int64, error)
	GetTimerRuns(ctx context.Context, user string) ([]model.TimerRun, error)
	GetUsers(ctx context.Context) ([]string, error)
}

// Notifier shows a desktop notification. Failures are not fatal.
type Notifier interface {
	Notify(summary, body string) error
}

// Config contains the durations and collaborators of a Timer.
type Config struct {
	WorkDuration  time.Duration
	BreakDuration time.Duration
	PollInterval  time.Duration
	Store         RunStore
	Notifier      Notifier
	Now           func() time.Time
}

// Timer sequences Idle -> Working -> Breaking -> Idle runs.
type Timer struct {
	cell stateCell

	mu            sync.Mutex
	workDuration  time.Duration
	breakDuration time.Duration
	commander     *Commander
	telemetry     chan time.Duration
	lastRemaining time.Duration
	hasRemaining  bool
	username      string

	pollInterval time.Duration
	store        RunStore
	notifier     Notifier
	now          func() time.Time

	eventsMu sync.Mutex
	events   []chan Event
}

// New creates an idle Timer.
func New(cfg Config) *Timer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.WorkDuration < 0 {
		cfg.WorkDuration = 0
	}
	if cfg.BreakDuration < 0 {
		cfg.BreakDuration = 0
	}
	return &Timer{
		workDuration:  cfg.WorkDuration,
		breakDuration: cfg.BreakDuration,
		pollInterval:  cfg.PollInterval,
		store:         cfg.Store,
		notifier:      cfg.Notifier,
		now:           cfg.Now,
	}
}

// State returns the current phase.
func (t *Timer) State() model.TimerState {
	return t.cell.get()
}

// StartRun begins a new run if the timer is idle and reports whether it did.
// The transition out of Idle happens under the state cell's lock, so two
// concurrent calls cannot both spawn a run.
func (t *Timer) StartRun() bool {
	runID := uuid.NewString()
	if !t.cell.begin(runID) {
		return false
	}

	ch := newChannels()

	t.mu.Lock()
	if t.commander != nil {
		t.commander.Close()
	}
	t.commander = newCommander(ch.commands, ch.done)
	t.telemetry = ch.telemetry
	t.lastRemaining = 0
	t.hasRemaining = false
	work := t.workDuration
	brk := t.breakDuration
	user := t.username
	t.mu.Unlock()

	log.Printf("pomodoro: run %s started (work %s, break %s)", runID, work, brk)
	go t.run(runID, ch, work, brk, user)
	return true
}

func (t *Timer) run(runID string, ch channels, work, brk time.Duration, user string) {
	defer close(ch.done)
	runner := NewRunner(ch.commands, ch.telemetry, t.pollInterval)

	t.emit(Event{Type: EventPhaseChange, RunID: runID, State: model.Working})
	if runner.Run(work) == ExitTerminated {
		t.terminate(runID, model.Working)
		return
	}
	t.notify(runID, workDoneBody)

	if !t.cell.set(runID, model.Breaking) {
		// Stopped between phases; the Stop command is still queued.
		t.terminate(runID, model.Working)
		return
	}
	t.emit(Event{Type: EventPhaseChange, RunID: runID, State: model.Breaking})
	if runner.Run(brk) == ExitTerminated {
		t.terminate(runID, model.Breaking)
		return
	}
	t.notify(runID, breakOverBody)

	if !t.cell.set(runID, model.Idle) {
		t.terminate(runID, model.Breaking)
		return
	}
	log.Printf("pomodoro: run %s completed", runID)
	t.emit(Event{Type: EventRunCompleted, RunID: runID, State: model.Idle})

	if user != "" {
		t.persist(runID, user, work, brk)
	}
}

func (t *Timer) terminate(runID string, phase model.TimerState) {
	t.cell.set(runID, model.Idle)
	log.Printf("pomodoro: run %s terminated while %s", runID, phase)
	t.emit(Event{Type: EventRunTerminated, RunID: runID, State: model.Idle, Message: phase.String()})
}

func (t *Timer) persist(runID, user string, work, brk time.Duration) {
	if t.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	run := model.NewTimerRun{
		RunID:            runID,
		User:             user,
		WorkingTimeSecs:  int32(work / time.Second),
		BreakingTimeSecs: int32(brk / time.Second),
		Date:             t.now(),
	}
	if _, err := t.store.CreateTimerRun(ctx, run); err != nil {
		log.Printf("pomodoro: run %s: failed to save run for %s: %v", runID, user, err)
		t.emit(Event{Type: EventPersistFailed, RunID: runID, State: model.Idle, Message: "failed to save run", Err: err})
	}
}

func (t *Timer) notify(runID, body string) {
	if t.notifier == nil {
		return
	}
	if err := t.notifier.Notify(notifySummary, body); err != nil {
		log.Printf("pomodoro: run %s: notification failed: %v", runID, err)
		t.emit(Event{Type: EventNotifyFailed, RunID: runID, State: t.cell.get(), Message: body, Err: err})
		return
	}
	t.emit(Event{Type: EventNotified, RunID: runID, State: t.cell.get(), Message: body})
}

// StartTimer starts a run from Idle; otherwise it resumes the active run.
func (t *Timer) StartTimer() {
	if t.StartRun() {
		return
	}
	t.ResumeTimer()
}

// PauseTimer pauses the active run. It does nothing while idle.
func (t *Timer) PauseTimer() {
	if t.State() == model.Idle {
		return
	}
	c := t.activeCommander()
	if c == nil {
		log.Printf("pomodoro: pause ignored, no active run")
		return
	}
	c.Pause()
}

// StopTimer terminates the active run. The state flips to Idle immediately,
// before the run goroutine has seen the Stop command.
func (t *Timer) StopTimer() {
	if t.State() == model.Idle {
		return
	}
	c := t.activeCommander()
	if c == nil {
		log.Printf("pomodoro: stop ignored, no active run")
		return
	}
	t.cell.reset()
	c.Stop()
}

// ResumeTimer resumes a paused run.
func (t *Timer) ResumeTimer() {
	c := t.activeCommander()
	if c == nil {
		log.Printf("pomodoro: resume ignored, no active run")
		return
	}
	c.Resume()
}

func (t *Timer) activeCommander() *Commander {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commander
}

// RemainingTime is Remaining without the activity flag.
func (t *Timer) RemainingTime() time.Duration {
	d, _ := t.Remaining()
	return d
}

// Remaining asks the active run for its remaining time without blocking.
// It returns false when no run is active, in which case the duration is the
// configured work duration. The answer may lag by one poll: when no reply is
// queued yet the last reply of this run is returned.
func (t *Timer) Remaining() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.commander == nil || t.telemetry == nil {
		return t.workDuration, false
	}
	if t.cell.get() == model.Idle || !t.commander.QueryRemaining() {
		t.clearRunLocked()
		return t.workDuration, false
	}

	select {
	case d := <-t.telemetry:
		t.lastRemaining = d
		t.hasRemaining = true
		return d, true
	default:
	}
	if t.hasRemaining {
		return t.lastRemaining, true
	}
	return t.workDuration, true
}

// WaitRemaining asks the active run for its remaining time and waits for the
// reply.
func (t *Timer) WaitRemaining(ctx context.Context) (time.Duration, error) {
	t.mu.Lock()
	c, telemetry := t.commander, t.telemetry
	t.mu.Unlock()
	if c == nil || telemetry == nil {
		return 0, ErrNoActiveRun
	}

	for drained := false; !drained; {
		select {
		case <-telemetry:
		default:
			drained = true
		}
	}
	if !c.QueryRemaining() {
		return 0, ErrNoActiveRun
	}

	select {
	case d := <-telemetry:
		return d, nil
	case <-c.done:
		select {
		case d := <-telemetry:
			return d, nil
		default:
			return 0, ErrNoActiveRun
		}
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (t *Timer) clearRunLocked() {
	t.commander = nil
	t.telemetry = nil
	t.lastRemaining = 0
	t.hasRemaining = false
}

// WorkDuration returns the configured work duration.
func (t *Timer) WorkDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.workDuration
}

// BreakDuration returns the configured break duration.
func (t *Timer) BreakDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.breakDuration
}

// SetWorkDuration changes the work duration of future runs.
func (t *Timer) SetWorkDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.mu.Lock()
	t.workDuration = d
	t.mu.Unlock()
}

// SetBreakDuration changes the break duration of future runs.
func (t *Timer) SetBreakDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.mu.Lock()
	t.breakDuration = d
	t.mu.Unlock()
}

// SetStateTimePeriod stops any active run and sets the duration of phase.
// Idle has no duration and is ignored.
func (t *Timer) SetStateTimePeriod(d time.Duration, phase model.TimerState) {
	t.StopTimer()
	switch phase {
	case model.Working:
		t.SetWorkDuration(d)
	case model.Breaking:
		t.SetBreakDuration(d)
	}
}

// SignIn sets the user that completed runs are attributed to. It fails while
// a run is active, since the run has already captured the previous user.
func (t *Timer) SignIn(username string) bool {
	username = strings.TrimSpace(username)
	if username == "" {
		return false
	}
	if t.State() != model.Idle {
		return false
	}
	t.mu.Lock()
	t.username = username
	t.mu.Unlock()
	return true
}

// SignOut clears the user. Like SignIn it only works while idle.
func (t *Timer) SignOut() bool {
	if t.State() != model.Idle {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.username == "" {
		return false
	}
	t.username = ""
	return true
}

// Username returns the signed in user, if any.
func (t *Timer) Username() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.username, t.username != ""
}

// TotalTime sums the signed in user's completed runs in seconds.
func (t *Timer) TotalTime(ctx context.Context, period model.Period) (int, int, error) {
	user, ok := t.Username()
	if !ok || t.store == nil {
		return 0, 0, nil
	}
	runs, err := t.store.GetTimerRuns(ctx, user)
	if err != nil {
		return 0, 0, err
	}
	working, breaking := stats.Totals(runs, period, t.now())
	return working, breaking, nil
}

// Users lists every user with at least one completed run.
func (t *Timer) Users(ctx context.Context) ([]string, error) {
	if t.store == nil {
		return nil, nil
	}
	return t.store.GetUsers(ctx)
}

// History returns the signed in user's completed runs, oldest first.
func (t *Timer) History(ctx context.Context) ([]model.TimerRun, error) {
	user, ok := t.Username()
	if !ok || t.store == nil {
		return nil, nil
	}
	return t.store.GetTimerRuns(ctx, user)
}
