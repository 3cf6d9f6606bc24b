package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// Header formats a title centered between full-width "=" rules.
func Header(text string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	border := strings.Repeat("=", width)
	pad := (width - lipgloss.Width(text) - 2) / 2
	if pad < 0 {
		pad = 0
	}
	centered := strings.Repeat(" ", pad) + text + strings.Repeat(" ", pad)
	if lipgloss.Width(centered) < width-2 {
		centered += " "
	}
	return fmt.Sprintf("%s\n %s \n%s", border, centered, border)
}

// Section formats a titled block with a dashed rule under the title.
func Section(title, content string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	return fmt.Sprintf("\n%s\n%s\n%s\n", title, strings.Repeat("-", width), content)
}

// List formats items as a bulleted or numbered list, one per line.
// Empty input yields an empty string.
func List(items []string, numbered bool, indent int) string {
	if len(items) == 0 {
		return ""
	}
	if indent < 0 {
		indent = 0
	}
	pad := strings.Repeat(" ", indent)
	lines := make([]string, 0, len(items))
	for i, item := range items {
		prefix := "- "
		if numbered {
			prefix = fmt.Sprintf("%d. ", i+1)
		}
		lines = append(lines, pad+prefix+item)
	}
	return strings.Join(lines, "\n")
}

// KeyValue formats a key padded to keyWidth followed by the value.
func KeyValue(key, value string, keyWidth int) string {
	if keyWidth <= 0 {
		keyWidth = DefaultKeyWidth
	}
	return fmt.Sprintf("%-*s %s", keyWidth, key, value)
}

// Table formats headers and rows into aligned columns with a dashed
// rule under the header. Column widths are computed from the content
// when widths is nil. Empty headers or rows yield an empty string.
func Table(headers []string, rows [][]string, widths []int) string {
	if len(headers) == 0 || len(rows) == 0 {
		return ""
	}
	if widths == nil {
		widths = make([]int, len(headers))
		for i, header := range headers {
			w := lipgloss.Width(header)
			for _, row := range rows {
				if i < len(row) && lipgloss.Width(row[i]) > w {
					w = lipgloss.Width(row[i])
				}
			}
			widths[i] = w + 2
		}
	}

	var b strings.Builder
	for i, header := range headers {
		if i < len(widths) {
			fmt.Fprintf(&b, "%-*s", widths[i], header)
		}
	}
	total := 0
	for _, w := range widths {
		total += w
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", total))
	for _, row := range rows {
		b.WriteString("\n")
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(&b, "%-*s", widths[i], cell)
			}
		}
	}
	return b.String()
}

// Wrap breaks text at word boundaries to fit width, indenting
// continuation lines by indent spaces. Words longer than a line are
// hard-broken.
func Wrap(text string, width, indent int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	if indent < 0 {
		indent = 0
	}
	limit := width - indent
	if limit < 1 {
		limit = 1
	}
	wrapped := wrap.String(wordwrap.String(text, limit), limit)
	if indent == 0 {
		return wrapped
	}
	lines := strings.Split(wrapped, "\n")
	pad := strings.Repeat(" ", indent)
	for i := 1; i < len(lines); i++ {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

// Truncate caps text at max runes, replacing the tail with "..." when
// it does not fit.
func Truncate(text string, max int) string {
	const suffix = "..."
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max <= len(suffix) {
		return string(runes[:max])
	}
	return string(runes[:max-len(suffix)]) + suffix
}
