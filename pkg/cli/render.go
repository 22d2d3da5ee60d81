package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme of rendered output.
type Theme struct {
	Primary lipgloss.Color // titles, borders, model speaker
	Accent  lipgloss.Color // user speaker
	Dim     lipgloss.Color // labels, help text
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Accent:  lipgloss.Color("#ffb86c"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
	User   lipgloss.Style
	Model  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  lipgloss.NewStyle().Foreground(t.Dim),
		Border: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 1),
		Help:   lipgloss.NewStyle().Foreground(t.Dim).Italic(true),
		User:   lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Model:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
	}
}

// Field is a labeled value of a Card.
type Field struct {
	Label string
	Value string
}

// Card is a bordered block: a title, aligned fields, then free text
// sections.
type Card struct {
	Title    string
	Fields   []Field
	Sections []Field
}

// Render renders the card at most width cells wide. Empty fields and
// sections are skipped.
func (c Card) Render(s Styles, width int) string {
	inner := max(width-4, 20)
	var parts []string
	if c.Title != "" {
		parts = append(parts, s.Title.Render(c.Title))
	}

	labelWidth := 0
	for _, f := range c.Fields {
		if f.Value != "" {
			labelWidth = max(labelWidth, lipgloss.Width(f.Label))
		}
	}
	var rows []string
	for _, f := range c.Fields {
		if f.Value == "" {
			continue
		}
		label := s.Label.Render(f.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(f.Label)))
		value := lipgloss.NewStyle().Width(max(inner-labelWidth-2, 10)).Render(f.Value)
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, label, "  ", value))
	}
	if len(rows) > 0 {
		parts = append(parts, strings.Join(rows, "\n"))
	}

	for _, sec := range c.Sections {
		if sec.Value == "" {
			continue
		}
		body := lipgloss.NewStyle().Width(inner).Render(sec.Value)
		if sec.Label != "" {
			body = s.Label.Render(sec.Label) + "\n" + body
		}
		parts = append(parts, body)
	}
	return s.Border.Render(strings.Join(parts, "\n\n"))
}

// Line is one entry of a chat transcript.
type Line struct {
	Speaker string
	User    bool
	Text    string
}

// RenderTranscript renders chat lines with the speaker name above the
// wrapped text, user lines indented.
func RenderTranscript(s Styles, lines []Line, width int) string {
	inner := max(width, 20)
	var out []string
	for _, l := range lines {
		name := s.Model.Render(l.Speaker)
		text := lipgloss.NewStyle().Width(inner - 2).Render(l.Text)
		if l.User {
			name = s.User.Render(l.Speaker)
		}
		block := lipgloss.JoinVertical(lipgloss.Left, name, text)
		if l.User {
			block = lipgloss.NewStyle().PaddingLeft(2).Render(block)
		}
		out = append(out, block)
	}
	return strings.Join(out, "\n\n")
}

// Truncate shortens s to at most width cells, appending "…" when cut.
func Truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	w := 0
	for i, r := range runes {
		rw := lipgloss.Width(string(r))
		if w+rw > width-1 {
			return string(runes[:i]) + "…"
		}
		w += rw
	}
	return s
}
