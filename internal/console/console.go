// Package console prints the colored, user-facing messages of a scaffold run.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled lines to a single writer. Colors are dropped
// automatically when the writer is not a terminal.
type Printer struct {
	w io.Writer

	errStyle     lipgloss.Style
	okStyle      lipgloss.Style
	warnStyle    lipgloss.Style
	nameStyle    lipgloss.Style
	commandStyle lipgloss.Style
	dimStyle     lipgloss.Style
}

// New returns a Printer whose color profile is detected from w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:            w,
		errStyle:     r.NewStyle().Foreground(lipgloss.Color("1")),
		okStyle:      r.NewStyle().Foreground(lipgloss.Color("2")),
		warnStyle:    r.NewStyle().Foreground(lipgloss.Color("3")),
		nameStyle:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		commandStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
		dimStyle:     r.NewStyle().Faint(true),
	}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

// Error prints msg in red.
func (p *Printer) Error(msg string) { p.Println(p.errStyle.Render(msg)) }

// Success prints msg in green.
func (p *Printer) Success(msg string) { p.Println(p.okStyle.Render(msg)) }

// Warn prints msg in yellow.
func (p *Printer) Warn(msg string) { p.Println(p.warnStyle.Render(msg)) }

// Name styles a project name or path (bold yellow).
func (p *Printer) Name(s string) string { return p.nameStyle.Render(s) }

// Command styles a shell command the user should type (bold blue).
func (p *Printer) Command(s string) string { return p.commandStyle.Render(s) }

// Dim styles secondary text.
func (p *Printer) Dim(s string) string { return p.dimStyle.Render(s) }

// Println joins parts with single spaces and terminates the line.
func (p *Printer) Println(parts ...string) {
	fmt.Fprintln(p.w, strings.Join(parts, " "))
}

// Printf is fmt.Fprintf on the underlying writer.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}
