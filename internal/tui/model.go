// Package tui provides the Bubble Tea pomodoro interface.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/pomo/internal/pomodoro"
	"github.com/verte-zerg/pomo/internal/stats"
)

const (
	tickInterval = time.Second
	eventBuffer  = 16
	timerHeight  = 8
	inputHeight  = 3
	helpHeight   = 1
)

type inputMode int

const (
	modeNormal inputMode = iota
	modeEditing
)

type messageKind int

const (
	kindValid messageKind = iota
	kindInvalid
	kindInfo
)

type message struct {
	text string
	kind messageKind
}

type tickMsg time.Time

type timerEventMsg pomodoro.Event

// Model implements the Bubble Tea pomodoro UI.
type Model struct {
	timer  *pomodoro.Timer
	events <-chan pomodoro.Event

	mode        inputMode
	input       textinput.Model
	messages    []message
	prevMessage int

	viewport    viewport.Model
	history     table.Model
	showHistory bool
	historyErr  string
	help        help.Model

	remaining time.Duration

	width  int
	height int
}

var (
	timerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52C41A")).
			Border(lipgloss.RoundedBorder(), true).
			Padding(0, 1)
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	editingBoxStyle = boxStyle.Copy().BorderForeground(lipgloss.Color("#FADB14"))
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	validStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	invalidStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	infoStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FADB14"))
	normalHintStyle = lipgloss.NewStyle().Blink(true)
)

// NewModel constructs the pomodoro TUI around a timer.
func NewModel(timer *pomodoro.Timer) *Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "type help for commands"
	input.CharLimit = 256

	m := &Model{
		timer:    timer,
		events:   timer.Subscribe(eventBuffer),
		mode:     modeNormal,
		input:    input,
		viewport: viewport.New(0, 0),
		history:  newHistoryTable(),
		help:     help.New(),
	}
	m.remaining = timer.RemainingTime()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), waitForEvent(m.events))
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(events <-chan pomodoro.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return timerEventMsg(ev)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tickMsg:
		m.remaining = m.timer.RemainingTime()
		return m, tick()
	case timerEventMsg:
		m.handleTimerEvent(pomodoro.Event(msg))
		return m, waitForEvent(m.events)
	case tea.KeyMsg:
		if key.Matches(msg, forceQuit) {
			return m, tea.Quit
		}
		if m.mode == modeEditing {
			return m.updateEditing(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, normalKeyMap.Quit):
		return m, tea.Quit
	case key.Matches(msg, normalKeyMap.Edit):
		m.mode = modeEditing
		return m, m.input.Focus()
	case key.Matches(msg, normalKeyMap.History):
		m.toggleHistory()
		return m, nil
	}
	if m.showHistory {
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.submitCommand()
		return m, nil
	case tea.KeyEsc:
		m.mode = modeNormal
		m.input.Blur()
		return m, nil
	case tea.KeyUp, tea.KeyDown:
		m.choosePrevCommand(msg.Type)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleTimerEvent(ev pomodoro.Event) {
	switch ev.Type {
	case pomodoro.EventNotified:
		m.pushMessage(ev.Message, kindInfo)
	case pomodoro.EventRunCompleted:
		m.pushMessage("Pomodoro completed.", kindInfo)
	case pomodoro.EventPersistFailed:
		m.pushMessage(fmt.Sprintf("Could not save the completed run: %v", ev.Err), kindInvalid)
	case pomodoro.EventNotifyFailed:
		m.pushMessage(ev.Message, kindInfo)
	}
	m.remaining = m.timer.RemainingTime()
	if m.showHistory && ev.Type == pomodoro.EventRunCompleted {
		m.loadHistory()
	}
}

func (m *Model) pushMessage(text string, kind messageKind) {
	m.messages = append(m.messages, message{text: text, kind: kind})
	m.refreshMessages()
}

func (m *Model) refreshMessages() {
	m.viewport.SetContent(renderMessages(m.messages, m.viewport.Width))
	m.viewport.GotoTop()
}

func (m *Model) updateLayout() {
	innerWidth := maxInt(1, m.width-2)
	m.input.Width = maxInt(1, innerWidth-len(m.input.Prompt)-1)
	m.help.Width = m.width
	bodyHeight := maxInt(1, m.height-timerHeight-helpHeight-inputHeight-2)
	m.viewport.Width = innerWidth
	m.viewport.Height = bodyHeight
	m.setHistorySize(innerWidth, bodyHeight)
	m.refreshMessages()
}

// View implements tea.Model.
func (m *Model) View() string {
	sections := []string{
		m.renderTimer(),
		m.renderHelp(),
		m.renderInput(),
		m.renderBody(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTimer() string {
	user, ok := m.timer.Username()
	if !ok {
		user = "not signed in"
	}
	lines := []string{
		fmt.Sprintf("Time remaining: %s", stats.FormatClock(m.remaining)),
		"",
		fmt.Sprintf("Timer state: %s", m.timer.State()),
		"",
		fmt.Sprintf("Current settings: Working %s and breaking %s",
			stats.FormatClock(m.timer.WorkDuration()), stats.FormatClock(m.timer.BreakDuration())),
		fmt.Sprintf("User: %s", user),
	}
	style := timerStyle
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	return style.Render(titleStyle.Render("Timer") + "\n" + strings.Join(lines, "\n"))
}

func (m *Model) renderHelp() string {
	view := m.help.View(m.helpBindings())
	if m.mode == modeNormal {
		return normalHintStyle.Render(view)
	}
	return view
}

func (m *Model) renderInput() string {
	style := boxStyle
	if m.mode == modeEditing {
		style = editingBoxStyle
	}
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	return style.Render(m.input.View())
}

func (m *Model) renderBody() string {
	style := boxStyle
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	if m.showHistory {
		if m.historyErr != "" {
			return style.Render(invalidStyle.Render(m.historyErr))
		}
		return style.Render(titleStyle.Render("History") + "\n" + m.history.View())
	}
	return style.Render(titleStyle.Render("Messages") + "\n" + m.viewport.View())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
