// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Console output helpers

package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Printer writes user-facing messages. Status lines go to Out, errors to Err.
type Printer struct {
	Out io.Writer
	Err io.Writer

	success *color.Color
	warning *color.Color
	failure *color.Color
	info    *color.Color
	header  *color.Color
	label   *color.Color
	dim     *color.Color
}

// New creates a printer on stdout/stderr. Colour is disabled when noColor is set
// or stdout is not a terminal.
func New(noColor bool) *Printer {
	p := NewWithWriters(os.Stdout, os.Stderr)
	if noColor || !IsTerminal(os.Stdout) {
		p.DisableColor()
	}
	return p
}

// NewWithWriters creates a printer on the given writers. Used by tests.
func NewWithWriters(out, errOut io.Writer) *Printer {
	return &Printer{
		Out:     out,
		Err:     errOut,
		success: color.New(color.FgGreen, color.Bold),
		warning: color.New(color.FgYellow, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
		info:    color.New(color.FgCyan),
		header:  color.New(color.FgBlue, color.Bold),
		label:   color.New(color.FgWhite, color.Bold),
		dim:     color.New(color.FgHiBlack),
	}
}

// DisableColor turns off ANSI sequences on every colour of this printer
func (p *Printer) DisableColor() {
	for _, c := range []*color.Color{p.success, p.warning, p.failure, p.info, p.header, p.label, p.dim} {
		c.DisableColor()
	}
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Step prints a numbered phase header, e.g. "[2/5] Ensure virtual environment"
func (p *Printer) Step(n, total int, title string) {
	_, _ = p.header.Fprintf(p.Out, "\n[%d/%d] %s\n", n, total, title)
}

// Section prints a section header
func (p *Printer) Section(title string) {
	fmt.Fprintln(p.Out)
	_, _ = p.header.Fprintf(p.Out, "▸ %s\n", title)
}

// Detail prints an indented progress line
func (p *Printer) Detail(format string, args ...any) {
	fmt.Fprintf(p.Out, "  → %s\n", fmt.Sprintf(format, args...))
}

// Success prints a success message with a checkmark
func (p *Printer) Success(format string, args ...any) {
	_, _ = p.success.Fprintf(p.Out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	_, _ = p.warning.Fprintf(p.Out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error message to Err
func (p *Printer) Error(format string, args ...any) {
	_, _ = p.failure.Fprintf(p.Err, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Info prints a plain message
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

// LabelValue prints an aligned label/value pair
func (p *Printer) LabelValue(label, value string) {
	_, _ = p.label.Fprintf(p.Out, "  %-12s ", label+":")
	_, _ = p.dim.Fprintln(p.Out, value)
}

// Block prints a multi-line text indented by the given number of levels
func (p *Printer) Block(text string, indent int) {
	prefix := strings.Repeat("  ", indent)
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		_, _ = p.info.Fprintf(p.Out, "%s%s\n", prefix, line)
	}
}

// List prints bullet items
func (p *Printer) List(items []string, indent int) {
	prefix := strings.Repeat("  ", indent)
	for _, item := range items {
		_, _ = p.info.Fprintf(p.Out, "%s• %s\n", prefix, item)
	}
}

// Plural formats a count with the right noun form
func Plural(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
