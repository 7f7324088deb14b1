package formats

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// TextGenerator renders a human readable listing. Styling follows the
// terminal behind w and is dropped entirely when color is off.
type TextGenerator struct {
	rows   []Row
	styles textStyles
}

type textStyles struct {
	path    lipgloss.Style
	name    lipgloss.Style
	failure lipgloss.Style
	status  lipgloss.Style
	summary lipgloss.Style
}

func NewTextGenerator(rows []Row, w io.Writer, color bool) *TextGenerator {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &TextGenerator{
		rows: rows,
		styles: textStyles{
			path:    r.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
			name:    r.NewStyle().MarginLeft(2),
			failure: r.NewStyle().MarginLeft(2).Foreground(lipgloss.Color("#F87171")).Bold(true),
			status:  r.NewStyle().Foreground(lipgloss.Color("#64748B")).Italic(true),
			summary: r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		},
	}
}

func (t *TextGenerator) Generate() (string, error) {
	var b strings.Builder
	s := t.styles

	for _, row := range t.rows {
		header := s.path.Render(row.Path)
		switch {
		case row.Removed:
			header += " " + s.status.Render("(removed)")
		case row.Cached:
			header += " " + s.status.Render("(cached)")
		}
		b.WriteString(header + "\n")

		if row.Error != "" {
			b.WriteString(s.failure.Render("error: "+row.Error) + "\n")
			continue
		}
		for _, name := range row.Names {
			b.WriteString(s.name.Render(name) + "\n")
		}
	}

	sum := Summarize(t.rows)
	line := fmt.Sprintf("%d files, %d names, %d failed, %d cached", sum.Files, sum.Names, sum.Failed, sum.Cached)
	if sum.Removed > 0 {
		line += fmt.Sprintf(", %d removed", sum.Removed)
	}
	b.WriteString(s.summary.Render(line) + "\n")
	return b.String(), nil
}
