package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/pomo/internal/model"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "pomo.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st, path
}

func TestCreateAndGetTimerRuns(t *testing.T) {
	st, _ := openTemp(t)
	ctx := context.Background()

	day1 := time.Date(2024, 4, 1, 22, 30, 0, 0, time.Local)
	day2 := time.Date(2024, 4, 2, 8, 0, 0, 0, time.Local)
	inputs := []model.NewTimerRun{
		{RunID: "b", User: "alice", WorkingTimeSecs: 1200, BreakingTimeSecs: 300, Date: day2},
		{RunID: "a", User: "alice", WorkingTimeSecs: 1500, BreakingTimeSecs: 300, Date: day1},
		{RunID: "c", User: "bob", WorkingTimeSecs: 60, BreakingTimeSecs: 30, Date: day1},
	}
	for _, in := range inputs {
		id, err := st.CreateTimerRun(ctx, in)
		if err != nil {
			t.Fatalf("create run: %v", err)
		}
		if id <= 0 {
			t.Fatalf("expected positive id, got %d", id)
		}
	}

	runs, err := st.GetTimerRuns(ctx, "alice")
	if err != nil {
		t.Fatalf("get runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "a" || runs[1].RunID != "b" {
		t.Fatalf("expected runs ordered by date, got %q then %q", runs[0].RunID, runs[1].RunID)
	}
	if runs[0].WorkingTimeSecs != 1500 || runs[0].BreakingTimeSecs != 300 {
		t.Fatalf("unexpected durations: %+v", runs[0])
	}
	y, m, d := runs[0].Date.Date()
	if y != 2024 || m != time.April || d != 1 {
		t.Fatalf("expected 2024-04-01, got %s", runs[0].Date)
	}

	none, err := st.GetTimerRuns(ctx, "carol")
	if err != nil {
		t.Fatalf("get runs: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no runs, got %d", len(none))
	}

	since, err := st.GetTimerRunsSince(ctx, "alice", day2)
	if err != nil {
		t.Fatalf("get runs since: %v", err)
	}
	if len(since) != 1 || since[0].RunID != "b" {
		t.Fatalf("unexpected runs since: %+v", since)
	}
}

func TestGetUsersAndSummaries(t *testing.T) {
	st, _ := openTemp(t)
	ctx := context.Background()

	users, err := st.GetUsers(ctx)
	if err != nil {
		t.Fatalf("get users: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no users, got %v", users)
	}

	day := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	for _, in := range []model.NewTimerRun{
		{User: "zoe", WorkingTimeSecs: 1, Date: day},
		{User: "adam", WorkingTimeSecs: 1, Date: day},
		{User: "zoe", WorkingTimeSecs: 1, Date: day.AddDate(0, 0, 3)},
	} {
		if _, err := st.CreateTimerRun(ctx, in); err != nil {
			t.Fatalf("create run: %v", err)
		}
	}

	users, err = st.GetUsers(ctx)
	if err != nil {
		t.Fatalf("get users: %v", err)
	}
	if len(users) != 2 || users[0] != "adam" || users[1] != "zoe" {
		t.Fatalf("unexpected users: %v", users)
	}

	summaries, err := st.UserSummaries(ctx)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	zoe := summaries[1]
	if zoe.User != "zoe" || zoe.Runs != 2 || zoe.LastRun.Day() != 4 {
		t.Fatalf("unexpected summary: %+v", zoe)
	}
}

func TestReopenKeepsRunsAndSchema(t *testing.T) {
	st, path := openTemp(t)
	ctx := context.Background()
	if _, err := st.CreateTimerRun(ctx, model.NewTimerRun{User: "alice", WorkingTimeSecs: 10}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() {
		_ = reopened.Close()
	}()

	var version int
	if err := reopened.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", SchemaVersion, version)
	}
	runs, err := reopened.GetTimerRuns(ctx, "alice")
	if err != nil {
		t.Fatalf("get runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run after reopen, got %d", len(runs))
	}
}
