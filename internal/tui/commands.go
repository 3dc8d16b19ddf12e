package tui

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/pomo/internal/model"
	"github.com/verte-zerg/pomo/internal/stats"
)

const queryTimeout = 5 * time.Second

const helpText = "Commands: start, stop, pause, resume, set <working|breaking> <duration in min>, " +
	"stats <today|all-time>, login <user-name>, logout, whoami, users, help"

func (m *Model) submitCommand() {
	line := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	m.prevMessage = 0
	if line == "" {
		return
	}

	reply, kind := m.execute(strings.Fields(line))
	m.messages = append(m.messages, message{text: line, kind: kind})
	if reply != "" {
		m.messages = append(m.messages, message{text: reply, kind: kindInfo})
	}
	m.remaining = m.timer.RemainingTime()
	m.refreshMessages()
}

// execute runs one command line and returns the reply shown to the user.
func (m *Model) execute(args []string) (string, messageKind) {
	if len(args) == 0 {
		return "", kindInvalid
	}
	switch strings.ToLower(args[0]) {
	case "start":
		if _, ok := m.timer.Username(); !ok {
			return "You have to login with a user before you can start a session", kindInvalid
		}
		m.timer.StartTimer()
		return "", kindValid
	case "stop":
		m.timer.StopTimer()
		return "", kindValid
	case "pause":
		m.timer.PauseTimer()
		return "", kindValid
	case "resume":
		if m.timer.State() == model.Idle {
			return "There is no session to resume", kindInvalid
		}
		m.timer.ResumeTimer()
		return "", kindValid
	case "help":
		return helpText, kindValid
	case "set":
		return m.executeSet(args[1:])
	case "stats":
		return m.executeStats(args[1:])
	case "login":
		if len(args) < 2 {
			return "Enter a username please", kindInvalid
		}
		if !m.timer.SignIn(args[1]) {
			return "Cannot sign in while a session is running", kindInvalid
		}
		return "You are signed in!", kindValid
	case "logout":
		if _, ok := m.timer.Username(); !ok {
			return "You are not signed in", kindInvalid
		}
		if !m.timer.SignOut() {
			return "Cannot sign out while a session is running", kindInvalid
		}
		return "You are signed out", kindValid
	case "whoami":
		if user, ok := m.timer.Username(); ok {
			return fmt.Sprintf("You are signed in as %q", user), kindValid
		}
		return "You are not signed in", kindValid
	case "users":
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()
		users, err := m.timer.Users(ctx)
		if err != nil {
			return fmt.Sprintf("Could not load users: %v", err), kindInvalid
		}
		if len(users) == 0 {
			return "No users yet", kindValid
		}
		return "Users: " + strings.Join(users, ", "), kindValid
	default:
		return "Unknown command, type help for the list of commands", kindInvalid
	}
}

func (m *Model) executeSet(args []string) (string, messageKind) {
	if len(args) == 0 {
		return "Usage: set <working|breaking> <duration in min>", kindInvalid
	}
	phase, err := model.ParsePhase(args[0])
	if err != nil {
		return "Can only set the time for working or breaking.", kindInvalid
	}
	if len(args) < 2 {
		return "Usage: set <working|breaking> <duration in min>", kindInvalid
	}
	minutes, err := strconv.ParseFloat(args[1], 64)
	if err != nil || minutes < 0 || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return "Invalid time", kindInvalid
	}
	period := time.Duration(math.Floor(minutes*60)) * time.Second
	m.timer.SetStateTimePeriod(period, phase)
	return fmt.Sprintf("%s duration set to %s", phase, stats.FormatClock(period)), kindValid
}

func (m *Model) executeStats(args []string) (string, messageKind) {
	if len(args) == 0 {
		return "Usage: stats <today|all-time>", kindInvalid
	}
	period, err := model.ParsePeriod(args[0])
	if err != nil {
		return "Usage: stats <today|all-time>", kindInvalid
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	working, breaking, err := m.timer.TotalTime(ctx, period)
	if err != nil {
		return fmt.Sprintf("Could not load stats: %v", err), kindInvalid
	}
	user, ok := m.timer.Username()
	if !ok {
		user = "None"
	}
	return fmt.Sprintf("%s: Total work duration: %s. Total break duration: %s",
		user, stats.FormatDuration(working), stats.FormatDuration(breaking)), kindValid
}

// choosePrevCommand walks back through previously submitted valid commands.
func (m *Model) choosePrevCommand(direction tea.KeyType) {
	var prev []string
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].kind == kindValid {
			prev = append(prev, m.messages[i].text)
		}
	}

	switch direction {
	case tea.KeyUp:
		if m.prevMessage < len(prev) {
			m.prevMessage++
		}
	case tea.KeyDown:
		if m.prevMessage > 0 {
			m.prevMessage--
		}
	}

	if m.prevMessage == 0 {
		m.input.Reset()
		return
	}
	m.input.SetValue(prev[m.prevMessage-1])
	m.input.CursorEnd()
}
