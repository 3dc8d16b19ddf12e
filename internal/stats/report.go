// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"
	"time"

	"github.com/verte-zerg/pomo/internal/model"
	"github.com/verte-zerg/pomo/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	User         string
	Period       model.Period
	Runs         int
	WorkingSecs  int
	BreakingSecs int
	Days         []model.DayTotal
	BestDays     []model.DayTotal
}

const bestDays = 3

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig, now time.Time) (Report, error) {
	var (
		runs []model.TimerRun
		err  error
	)
	if cfg.Since != nil {
		runs, err = st.GetTimerRunsSince(ctx, cfg.User, *cfg.Since)
	} else {
		runs, err = st.GetTimerRuns(ctx, cfg.User)
	}
	if err != nil {
		return Report{}, err
	}
	if cfg.Period == model.Today {
		runs = filterDay(runs, now)
	}

	working, breaking := Totals(runs, model.AllTime, now)
	days := DailyTotals(runs)
	return Report{
		User:         cfg.User,
		Period:       cfg.Period,
		Runs:         len(runs),
		WorkingSecs:  working,
		BreakingSecs: breaking,
		Days:         days,
		BestDays:     TopDays(days, bestDays),
	}, nil
}

func filterDay(runs []model.TimerRun, day time.Time) []model.TimerRun {
	out := make([]model.TimerRun, 0, len(runs))
	for _, run := range runs {
		if SameDay(day, run.Date) {
			out = append(out, run)
		}
	}
	return out
}
