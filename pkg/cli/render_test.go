package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestCard_Render(t *testing.T) {
	s := NewStyles(DefaultTheme)
	card := Card{
		Title: "Vision",
		Fields: []Field{
			{Label: "Mythology", Value: "Norse"},
			{Label: "Empty", Value: ""},
			{Label: "Vibe", Value: "Electric"},
		},
		Sections: []Field{
			{Label: "Description", Value: "A raven made of circuitry."},
			{Label: "Skipped", Value: ""},
		},
	}
	out := card.Render(s, 60)
	for _, want := range []string{"Vision", "Mythology", "Norse", "Vibe", "Description", "raven"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
	for _, unwanted := range []string{"Empty", "Skipped"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("render should skip %q:\n%s", unwanted, out)
		}
	}
	for _, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > 60 {
			t.Errorf("line width %d exceeds 60: %q", w, line)
		}
	}
}

func TestRenderTranscript(t *testing.T) {
	s := NewStyles(DefaultTheme)
	out := RenderTranscript(s, []Line{
		{Speaker: "You", User: true, Text: "Who is Odin?"},
		{Speaker: "ROOTS", Text: "The Allfather of the Norse pantheon."},
	}, 40)
	you := strings.Index(out, "You")
	roots := strings.Index(out, "ROOTS")
	if you < 0 || roots < 0 || you > roots {
		t.Errorf("transcript order wrong:\n%s", out)
	}
	if !strings.Contains(out, "  ") {
		t.Errorf("user lines should be indented:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s     string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 6, "hello…"},
		{"神话故事", 5, "神话…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.s, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.width, got, tt.want)
		}
	}
}
