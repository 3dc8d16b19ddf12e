package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/pomo/internal/model"
	"github.com/verte-zerg/pomo/internal/stats"
)

func historyColumns(width int) []table.Column {
	columns := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Working", Width: 8},
		{Title: "Breaking", Width: 8},
		{Title: "Run", Width: 8},
	}
	used := 0
	for _, c := range columns {
		used += c.Width + 2
	}
	if extra := width - used; extra > 0 {
		columns[len(columns)-1].Width += extra
	}
	return columns
}

func newHistoryTable() table.Model {
	t := table.New(
		table.WithColumns(historyColumns(0)),
		table.WithHeight(1),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		BorderBottom(true).
		Bold(false)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#3A3A3A")).
		Bold(false)
	t.SetStyles(styles)
	return t
}

func historyRows(runs []model.TimerRun) []table.Row {
	rows := make([]table.Row, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		id := run.RunID
		if len(id) > 8 {
			id = id[:8]
		}
		rows = append(rows, table.Row{
			run.Date.Format("2006-01-02"),
			stats.FormatClock(secondsToDuration(run.WorkingTimeSecs)),
			stats.FormatClock(secondsToDuration(run.BreakingTimeSecs)),
			id,
		})
	}
	return rows
}

func (m *Model) toggleHistory() {
	m.showHistory = !m.showHistory
	if m.showHistory {
		m.loadHistory()
	}
}

func (m *Model) loadHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if _, ok := m.timer.Username(); !ok {
		m.historyErr = "Sign in to see your history"
		return
	}
	runs, err := m.timer.History(ctx)
	if err != nil {
		m.historyErr = fmt.Sprintf("Could not load history: %v", err)
		return
	}
	m.historyErr = ""
	m.history.SetRows(historyRows(runs))
	m.history.GotoTop()
}

func (m *Model) setHistorySize(width, height int) {
	m.history.SetColumns(historyColumns(width))
	m.history.SetWidth(width)
	m.history.SetHeight(maxInt(1, height-1))
}

func secondsToDuration(secs int32) time.Duration {
	return time.Duration(secs) * time.Second
}
