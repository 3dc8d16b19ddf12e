package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// renderMessages lists messages newest first, one line each, cut to width
// terminal cells.
func renderMessages(messages []message, width int) string {
	if len(messages) == 0 {
		return ""
	}
	lines := make([]string, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		text := truncate(msg.text, width)
		lines = append(lines, styleFor(msg.kind).Render(text))
	}
	return strings.Join(lines, "\n")
}

func truncate(text string, width int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, ellipsis)
}

func styleFor(kind messageKind) lipgloss.Style {
	switch kind {
	case kindValid:
		return validStyle
	case kindInvalid:
		return invalidStyle
	default:
		return infoStyle
	}
}
