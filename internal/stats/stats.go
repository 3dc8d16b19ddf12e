// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/pomo/internal/model"
)

const sparkChars = " .:-=+*#%@"

const dateLayout = "2006-01-02"

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Totals folds runs into working and breaking seconds. With Today only runs
// dated on now's calendar day count.
func Totals(runs []model.TimerRun, period model.Period, now time.Time) (working, breaking int) {
	for _, run := range runs {
		if period == model.Today && !SameDay(now, run.Date) {
			continue
		}
		working += int(run.WorkingTimeSecs)
		breaking += int(run.BreakingTimeSecs)
	}
	return working, breaking
}

// DailyTotals groups runs by calendar day, oldest first.
func DailyTotals(runs []model.TimerRun) []model.DayTotal {
	byDay := map[string]*model.DayTotal{}
	for _, run := range runs {
		key := run.Date.Format(dateLayout)
		day, ok := byDay[key]
		if !ok {
			y, m, d := run.Date.Date()
			day = &model.DayTotal{Date: time.Date(y, m, d, 0, 0, 0, 0, run.Date.Location())}
			byDay[key] = day
		}
		day.Runs++
		day.WorkingSecs += int(run.WorkingTimeSecs)
		day.BreakingSecs += int(run.BreakingTimeSecs)
	}
	out := make([]model.DayTotal, 0, len(byDay))
	for _, day := range byDay {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// FormatDuration renders seconds as minutes, or as hours past one hour.
func FormatDuration(secs int) string {
	minutes := float64(secs) / 60.0
	if minutes > 60.0 {
		return fmt.Sprintf("%.2f hours", minutes/60.0)
	}
	return fmt.Sprintf("%.2f minutes", minutes)
}

// FormatClock renders d as MM:SS, rounding partial seconds down.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the totals of a report.
func RenderSummary(w io.Writer, report Report) error {
	if _, err := fmt.Fprintf(w, "Summary for %s (%s)\n", report.User, report.Period); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Runs: %d\n", report.Runs); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Total work duration: %s\n", FormatDuration(report.WorkingSecs)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Total break duration: %s\n", FormatDuration(report.BreakingSecs)); err != nil {
		return err
	}
	if len(report.Days) > 1 {
		values := make([]float64, len(report.Days))
		for i, day := range report.Days {
			values[i] = float64(day.WorkingSecs)
		}
		if _, err := fmt.Fprintf(w, "Trend: [%s]\n", Sparkline(values)); err != nil {
			return err
		}
	}
	if len(report.BestDays) > 0 {
		parts := make([]string, 0, len(report.BestDays))
		for _, day := range report.BestDays {
			parts = append(parts, fmt.Sprintf("%s (%.1fm)", day.Date.Format(dateLayout), float64(day.WorkingSecs)/60.0))
		}
		if _, err := fmt.Fprintf(w, "Best days: %s\n", strings.Join(parts, ", ")); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderDayTable prints per-day totals with a bar scaled to totalWidth.
// A totalWidth of zero uses the terminal width.
func RenderDayTable(w io.Writer, days []model.DayTotal, totalWidth int) error {
	if len(days) == 0 {
		_, err := fmt.Fprintln(w, "No completed runs found.")
		return err
	}
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}

	maxWorking := 0
	for _, day := range days {
		if day.WorkingSecs > maxWorking {
			maxWorking = day.WorkingSecs
		}
	}

	headers := []string{"Date", "Runs", "Working", "Breaking"}
	rows := make([][]string, 0, len(days))
	for _, day := range days {
		rows = append(rows, []string{
			day.Date.Format(dateLayout),
			fmt.Sprintf("%d", day.Runs),
			fmt.Sprintf("%.1fm", float64(day.WorkingSecs)/60.0),
			fmt.Sprintf("%.1fm", float64(day.BreakingSecs)/60.0),
		})
	}
	lines := formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true})

	barWidth := totalWidth - displayWidth(lines[0]) - 1
	for i, line := range lines {
		if i > 0 && barWidth > 0 {
			line += " " + bar(days[i-1].WorkingSecs, maxWorking, barWidth)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func bar(value, maxValue, width int) string {
	if maxValue <= 0 || value <= 0 || width <= 0 {
		return ""
	}
	n := int(math.Round(float64(value) / float64(maxValue) * float64(width)))
	if n < 1 {
		n = 1
	}
	return strings.Repeat("#", n)
}
