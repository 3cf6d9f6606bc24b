// Package output renders terminal output for the CLI: plain report
// helpers, bordered panels, and accent styles.
package output

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	// DefaultWidth is the rendering width used when stdout is not a
	// terminal.
	DefaultWidth = 80

	// DefaultKeyWidth is the key column width for KeyValue.
	DefaultKeyWidth = 20
)

// Accent styles for CLI text. Lipgloss resolves them against the
// terminal's color profile, so piped output stays plain.
var (
	Bold    = lipgloss.NewStyle().Bold(true)
	Dim     = lipgloss.NewStyle().Faint(true)
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	Failure = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

var panelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 1)

// TerminalWidth reports the stdout width, falling back to DefaultWidth
// when stdout is not a terminal or its size cannot be read.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return DefaultWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}

// Panel draws content inside a rounded border with the title set into
// the top edge. Content wider than the interior wraps.
func Panel(title, content string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	box := panelStyle.Width(width - 2).Render(content)
	if title == "" {
		return box
	}
	lines := strings.Split(box, "\n")
	lines[0] = spliceTitle(lines[0], title)
	return strings.Join(lines, "\n")
}

// spliceTitle centers a spaced label in the top border run. A label too
// wide for the run leaves the border untouched.
func spliceTitle(top, title string) string {
	border := []rune(top)
	label := []rune(" " + title + " ")
	if len(label) > len(border)-4 {
		return top
	}
	start := (len(border) - len(label)) / 2
	spliced := make([]rune, 0, len(border))
	spliced = append(spliced, border[:start]...)
	spliced = append(spliced, label...)
	spliced = append(spliced, border[start+len(label):]...)
	return string(spliced)
}
