package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// 256-colour palette shared by status lines, tables and the graph view.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

type theme struct {
	title     lipgloss.Style
	dim       lipgloss.Style
	value     lipgloss.Style
	warn      lipgloss.Style
	ok        lipgloss.Style
	fail      lipgloss.Style
	note      lipgloss.Style
	spin      lipgloss.Style
	concealed lipgloss.Style // hidden fragment counts and markers
}

var styles = theme{
	title:     lipgloss.NewStyle().Bold(true).Foreground(colorCyan),
	dim:       lipgloss.NewStyle().Foreground(colorDim),
	value:     lipgloss.NewStyle().Foreground(colorWhite),
	warn:      lipgloss.NewStyle().Foreground(colorYellow),
	ok:        lipgloss.NewStyle().Foreground(colorGreen),
	fail:      lipgloss.NewStyle().Foreground(colorRed),
	note:      lipgloss.NewStyle().Foreground(colorGray),
	spin:      lipgloss.NewStyle().Foreground(colorCyan),
	concealed: lipgloss.NewStyle().Foreground(colorYellow),
}

// isTerminal reports whether w is a terminal. Animated output is drawn only
// there.
func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// status writes one decorated line per message. Commands point it at stderr
// when stdout carries a graph or dump, and at stdout otherwise.
type status struct{ w io.Writer }

func statusTo(w io.Writer) status { return status{w: w} }

func (s status) line(icon lipgloss.Style, glyph, msg string) {
	fmt.Fprintln(s.w, icon.Render(glyph)+" "+msg)
}

func (s status) success(format string, args ...any) {
	s.line(styles.ok, "✓", fmt.Sprintf(format, args...))
}

func (s status) failure(format string, args ...any) {
	s.line(styles.fail, "✗", fmt.Sprintf(format, args...))
}

func (s status) warning(format string, args ...any) {
	s.line(styles.warn, "!", styles.warn.Render(fmt.Sprintf(format, args...)))
}

func (s status) info(format string, args ...any) {
	s.line(styles.note, "›", fmt.Sprintf(format, args...))
}

// detail prints an indented secondary line under the previous message.
func (s status) detail(format string, args ...any) {
	fmt.Fprintln(s.w, "  "+styles.dim.Render(fmt.Sprintf(format, args...)))
}

func (s status) file(path string) {
	fmt.Fprintln(s.w, "  "+styles.dim.Render("→")+" "+styles.value.Render(path))
}

// stats prints the size of a session: commits read, visible rows and, when
// any are concealed, the number of hidden fragments.
func (s status) stats(commits, rows, hidden int) {
	parts := []string{
		styles.dim.Render(fmt.Sprintf("%d commits", commits)),
		styles.dim.Render(fmt.Sprintf("%d rows", rows)),
	}
	if hidden > 0 {
		parts = append(parts, styles.concealed.Render(fmt.Sprintf("%d hidden fragments", hidden)))
	}
	fmt.Fprintln(s.w, "  "+strings.Join(parts, styles.dim.Render(" · ")))
}
