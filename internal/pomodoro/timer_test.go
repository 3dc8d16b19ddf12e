package pomodoro

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/verte-zerg/pomo/internal/model"
)

type fakeStore struct {
	mu   sync.Mutex
	runs []model.NewTimerRun
	err  error
}

func (s *fakeStore) CreateTimerRun(_ context.Context, run model.NewTimerRun) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.runs = append(s.runs, run)
	return int64(len(s.runs)), nil
}

func (s *fakeStore) GetTimerRuns(_ context.Context, user string) ([]model.TimerRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []model.TimerRun
	for i, run := range s.runs {
		if run.User != user {
			continue
		}
		out = append(out, model.TimerRun{
			ID:               int64(i + 1),
			RunID:            run.RunID,
			User:             run.User,
			WorkingTimeSecs:  run.WorkingTimeSecs,
			BreakingTimeSecs: run.BreakingTimeSecs,
			Date:             run.Date,
		})
	}
	return out, nil
}

func (s *fakeStore) GetUsers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var users []string
	for _, run := range s.runs {
		if !seen[run.User] {
			seen[run.User] = true
			users = append(users, run.User)
		}
	}
	return users, nil
}

func (s *fakeStore) saved() []model.NewTimerRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.NewTimerRun, len(s.runs))
	copy(out, s.runs)
	return out
}

type fakeNotifier struct {
	mu     sync.Mutex
	bodies []string
	err    error
}

func (n *fakeNotifier) Notify(_, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bodies = append(n.bodies, body)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.bodies)
}

func newTestTimer(work, brk time.Duration, st RunStore, n Notifier) *Timer {
	return New(Config{
		WorkDuration:  work,
		BreakDuration: brk,
		PollInterval:  testPoll,
		Store:         st,
		Notifier:      n,
	})
}

func waitForEvent(t *testing.T, events <-chan Event, typ EventType) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func waitForState(t *testing.T, timer *Timer, state model.TimerState) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for timer.State() != state {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for state %s, still %s", state, timer.State())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewTimerIsIdle(t *testing.T) {
	timer := newTestTimer(20*time.Minute, 5*time.Minute, nil, nil)
	if timer.State() != model.Idle {
		t.Fatalf("expected idle, got %s", timer.State())
	}
	d, active := timer.Remaining()
	if active || d != 20*time.Minute {
		t.Fatalf("expected work duration while idle, got %s (active=%v)", d, active)
	}
	if _, err := timer.WaitRemaining(context.Background()); !errors.Is(err, ErrNoActiveRun) {
		t.Fatalf("expected ErrNoActiveRun, got %v", err)
	}
}

func TestCompletedRunIsPersisted(t *testing.T) {
	st := &fakeStore{}
	n := &fakeNotifier{}
	timer := newTestTimer(2*time.Second, time.Second, st, n)
	events := timer.Subscribe(64)

	if !timer.SignIn("alice") {
		t.Fatalf("expected sign in to succeed")
	}
	timer.SetWorkDuration(40 * time.Millisecond)
	timer.SetBreakDuration(20 * time.Millisecond)
	if !timer.StartRun() {
		t.Fatalf("expected run to start")
	}
	if timer.State() != model.Working {
		t.Fatalf("expected working right after start, got %s", timer.State())
	}

	breaking := waitForEvent(t, events, EventPhaseChange)
	if breaking.State == model.Working {
		breaking = waitForEvent(t, events, EventPhaseChange)
	}
	if breaking.State != model.Breaking {
		t.Fatalf("expected breaking phase, got %s", breaking.State)
	}
	completed := waitForEvent(t, events, EventRunCompleted)
	if timer.State() != model.Idle {
		t.Fatalf("expected idle after completion, got %s", timer.State())
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(st.saved()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	saved := st.saved()
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved run, got %d", len(saved))
	}
	if saved[0].User != "alice" || saved[0].RunID != completed.RunID {
		t.Fatalf("unexpected saved run: %+v", saved[0])
	}
	if n.count() != 2 {
		t.Fatalf("expected 2 notifications, got %d", n.count())
	}
}

func TestRunWithoutUserIsNotPersisted(t *testing.T) {
	st := &fakeStore{}
	timer := newTestTimer(10*time.Millisecond, 10*time.Millisecond, st, nil)
	events := timer.Subscribe(64)

	timer.StartTimer()
	waitForEvent(t, events, EventRunCompleted)
	time.Sleep(20 * time.Millisecond)
	if got := len(st.saved()); got != 0 {
		t.Fatalf("expected no saved runs, got %d", got)
	}
}

func TestZeroDurationsCompleteImmediately(t *testing.T) {
	st := &fakeStore{}
	timer := newTestTimer(0, 0, st, nil)
	events := timer.Subscribe(64)
	timer.SignIn("alice")

	timer.StartTimer()
	waitForEvent(t, events, EventRunCompleted)
	waitForState(t, timer, model.Idle)
}

func TestStartRunOnlyFromIdle(t *testing.T) {
	timer := newTestTimer(time.Minute, time.Minute, nil, nil)
	if !timer.StartRun() {
		t.Fatalf("expected first start to succeed")
	}
	defer timer.StopTimer()
	if timer.StartRun() {
		t.Fatalf("expected second start to be rejected")
	}
}

func TestStopIsImmediateAndNotPersisted(t *testing.T) {
	st := &fakeStore{}
	timer := newTestTimer(time.Minute, time.Minute, st, nil)
	events := timer.Subscribe(64)
	timer.SignIn("alice")

	timer.StartTimer()
	timer.StopTimer()
	if timer.State() != model.Idle {
		t.Fatalf("expected idle right after stop, got %s", timer.State())
	}
	ev := waitForEvent(t, events, EventRunTerminated)
	if ev.Message != model.Working.String() {
		t.Fatalf("expected termination while working, got %q", ev.Message)
	}
	if got := len(st.saved()); got != 0 {
		t.Fatalf("expected no saved runs, got %d", got)
	}
	if d, active := timer.Remaining(); active || d != time.Minute {
		t.Fatalf("expected work duration after stop, got %s (active=%v)", d, active)
	}
}

func TestStopThenRestartKeepsNewRun(t *testing.T) {
	timer := newTestTimer(time.Minute, time.Minute, nil, nil)
	events := timer.Subscribe(64)

	timer.StartTimer()
	timer.StopTimer()
	timer.StartTimer()

	waitForEvent(t, events, EventRunTerminated)
	time.Sleep(10 * time.Millisecond)
	if timer.State() != model.Working {
		t.Fatalf("expected the new run to stay working, got %s", timer.State())
	}
	timer.StopTimer()
}

func TestPauseFreezesRemaining(t *testing.T) {
	timer := newTestTimer(time.Minute, time.Minute, nil, nil)
	defer timer.StopTimer()
	ctx := context.Background()

	timer.StartTimer()
	time.Sleep(5 * time.Millisecond)
	timer.PauseTimer()

	first, err := timer.WaitRemaining(ctx)
	if err != nil {
		t.Fatalf("wait remaining: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	second, err := timer.WaitRemaining(ctx)
	if err != nil {
		t.Fatalf("wait remaining: %v", err)
	}
	if first != second {
		t.Fatalf("expected frozen remaining time, got %s then %s", first, second)
	}
	if timer.State() != model.Working {
		t.Fatalf("expected pause to keep the phase, got %s", timer.State())
	}

	timer.ResumeTimer()
	time.Sleep(30 * time.Millisecond)
	third, err := timer.WaitRemaining(ctx)
	if err != nil {
		t.Fatalf("wait remaining: %v", err)
	}
	if third >= second {
		t.Fatalf("expected countdown to continue after resume, got %s then %s", second, third)
	}
}

func TestStartTimerResumesPausedRun(t *testing.T) {
	timer := newTestTimer(30*time.Millisecond, 0, nil, nil)
	events := timer.Subscribe(64)

	timer.StartTimer()
	timer.PauseTimer()
	time.Sleep(60 * time.Millisecond)
	if timer.State() != model.Working {
		t.Fatalf("expected paused run to stay working, got %s", timer.State())
	}
	timer.StartTimer()
	waitForEvent(t, events, EventRunCompleted)
}

func TestRemainingWhileActive(t *testing.T) {
	timer := newTestTimer(time.Minute, time.Minute, nil, nil)
	defer timer.StopTimer()

	timer.StartTimer()
	deadline := time.Now().Add(time.Second)
	for {
		d, active := timer.Remaining()
		if !active {
			t.Fatalf("expected an active run")
		}
		if d < time.Minute {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("remaining time never dropped below the work duration")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestPersistFailureEmitsEvent(t *testing.T) {
	st := &fakeStore{err: errors.New("disk full")}
	timer := newTestTimer(5*time.Millisecond, 5*time.Millisecond, st, nil)
	events := timer.Subscribe(64)
	timer.SignIn("alice")

	timer.StartTimer()
	ev := waitForEvent(t, events, EventPersistFailed)
	if ev.Err == nil || ev.Err.Error() != "disk full" {
		t.Fatalf("unexpected error: %v", ev.Err)
	}
	if timer.State() != model.Idle {
		t.Fatalf("expected idle, got %s", timer.State())
	}
}

func TestNotifyFailureIsNotFatal(t *testing.T) {
	n := &fakeNotifier{err: errors.New("no bus")}
	timer := newTestTimer(5*time.Millisecond, 5*time.Millisecond, nil, n)
	events := timer.Subscribe(64)

	timer.StartTimer()
	waitForEvent(t, events, EventNotifyFailed)
	waitForEvent(t, events, EventRunCompleted)
}

func TestSignInAndOut(t *testing.T) {
	timer := newTestTimer(time.Minute, time.Minute, nil, nil)

	if timer.SignIn("   ") {
		t.Fatalf("expected blank username to be rejected")
	}
	if _, ok := timer.Username(); ok {
		t.Fatalf("expected no user")
	}
	if timer.SignOut() {
		t.Fatalf("expected sign out without user to fail")
	}
	if !timer.SignIn(" alice ") {
		t.Fatalf("expected sign in to succeed")
	}
	if user, _ := timer.Username(); user != "alice" {
		t.Fatalf("expected alice, got %q", user)
	}

	timer.StartTimer()
	if timer.SignIn("bob") {
		t.Fatalf("expected sign in during a run to fail")
	}
	if timer.SignOut() {
		t.Fatalf("expected sign out during a run to fail")
	}
	timer.StopTimer()

	if !timer.SignOut() {
		t.Fatalf("expected sign out to succeed")
	}
	if _, ok := timer.Username(); ok {
		t.Fatalf("expected no user after sign out")
	}
}

func TestSetStateTimePeriodStopsRun(t *testing.T) {
	timer := newTestTimer(time.Minute, time.Minute, nil, nil)

	timer.StartTimer()
	timer.SetStateTimePeriod(90*time.Second, model.Working)
	if timer.State() != model.Idle {
		t.Fatalf("expected set to stop the run, got %s", timer.State())
	}
	if timer.WorkDuration() != 90*time.Second {
		t.Fatalf("expected 90s work duration, got %s", timer.WorkDuration())
	}
	timer.SetStateTimePeriod(3*time.Minute, model.Breaking)
	if timer.BreakDuration() != 3*time.Minute {
		t.Fatalf("expected 3m break duration, got %s", timer.BreakDuration())
	}
	timer.SetStateTimePeriod(time.Hour, model.Idle)
	if timer.WorkDuration() != 90*time.Second || timer.BreakDuration() != 3*time.Minute {
		t.Fatalf("expected idle period to be ignored")
	}
}

func TestTotalTime(t *testing.T) {
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.Local)
	st := &fakeStore{runs: []model.NewTimerRun{
		{User: "alice", WorkingTimeSecs: 1200, BreakingTimeSecs: 300, Date: now.AddDate(0, 0, -1)},
		{User: "alice", WorkingTimeSecs: 1500, BreakingTimeSecs: 300, Date: now},
		{User: "bob", WorkingTimeSecs: 100, BreakingTimeSecs: 10, Date: now},
	}}
	timer := New(Config{Store: st, Now: func() time.Time { return now }})
	ctx := context.Background()

	working, breaking, err := timer.TotalTime(ctx, model.AllTime)
	if err != nil || working != 0 || breaking != 0 {
		t.Fatalf("expected zero totals without a user, got %d/%d (%v)", working, breaking, err)
	}

	timer.SignIn("alice")
	working, breaking, err = timer.TotalTime(ctx, model.AllTime)
	if err != nil {
		t.Fatalf("total time: %v", err)
	}
	if working != 2700 || breaking != 600 {
		t.Fatalf("expected 2700/600, got %d/%d", working, breaking)
	}
	working, breaking, err = timer.TotalTime(ctx, model.Today)
	if err != nil {
		t.Fatalf("total time: %v", err)
	}
	if working != 1500 || breaking != 300 {
		t.Fatalf("expected 1500/300, got %d/%d", working, breaking)
	}

	users, err := timer.Users(ctx)
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %v", users)
	}
}

func TestPauseDoesNotLeakActiveTime(t *testing.T) {
	if testing.Short() {
		t.Skip("waits two seconds")
	}
	timer := newTestTimer(10*time.Second, time.Second, nil, nil)
	defer timer.StopTimer()
	ctx := context.Background()

	timer.StartTimer()
	before, err := timer.WaitRemaining(ctx)
	if err != nil {
		t.Fatalf("wait remaining: %v", err)
	}
	timer.PauseTimer()
	time.Sleep(2 * time.Second)
	timer.ResumeTimer()
	after, err := timer.WaitRemaining(ctx)
	if err != nil {
		t.Fatalf("wait remaining: %v", err)
	}
	if diff := before - after; diff < 0 || diff >= time.Second {
		t.Fatalf("expected less than 1s of drift across the pause, got %s (%s -> %s)", diff, before, after)
	}
}

func TestFullRunRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a full run")
	}
	st := &fakeStore{}
	timer := newTestTimer(2*time.Second, time.Second, st, nil)
	timer.SignIn("alice")

	timer.StartTimer()
	time.Sleep(3500 * time.Millisecond)
	waitForState(t, timer, model.Idle)

	deadline := time.Now().Add(time.Second)
	for len(st.saved()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	saved := st.saved()
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved run, got %d", len(saved))
	}
	if saved[0].WorkingTimeSecs != 2 || saved[0].BreakingTimeSecs != 1 {
		t.Fatalf("expected (2,1), got (%d,%d)", saved[0].WorkingTimeSecs, saved[0].BreakingTimeSecs)
	}

	ctx := context.Background()
	working, breaking, err := timer.TotalTime(ctx, model.Today)
	if err != nil {
		t.Fatalf("total time: %v", err)
	}
	if working != 2 || breaking != 1 {
		t.Fatalf("expected (2,1) today, got (%d,%d)", working, breaking)
	}

	other := newTestTimer(time.Second, time.Second, st, nil)
	other.SignIn("bob")
	working, breaking, err = other.TotalTime(ctx, model.Today)
	if err != nil {
		t.Fatalf("total time: %v", err)
	}
	if working != 0 || breaking != 0 {
		t.Fatalf("expected (0,0) for another user, got (%d,%d)", working, breaking)
	}
}
