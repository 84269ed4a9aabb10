package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Status is the bracketed tag printed in front of a check line.
type Status string

// Check statuses, padded to a common width.
const (
	StatusOK   Status = "[ OK ]"
	StatusWarn Status = "[WARN]"
	StatusFail Status = "[FAIL]"
	StatusMiss Status = "[MISS]"
	StatusFix  Status = "[FIX ]"
	StatusSkip Status = "[SKIP]"
)

// Printer handles formatted output to a writer.
type Printer struct {
	w      io.Writer
	errW   io.Writer
	json   bool
	isTTY  bool
	styles *Styles
}

// Styles holds lipgloss styles for human-readable output.
type Styles struct {
	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Bold    lipgloss.Style
	Dim     lipgloss.Style
	Title   lipgloss.Style
	Added   lipgloss.Style
	Removed lipgloss.Style
	Changed lipgloss.Style
}

// NewStyles returns the palette used by Printer, or plain styles when color is off.
func NewStyles(color bool) *Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return &Styles{
			Error: plain, Success: plain, Warning: plain, Info: plain, Bold: plain,
			Dim: plain, Title: plain, Added: plain, Removed: plain, Changed: plain,
		}
	}
	return &Styles{
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true), // Red
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),           // Green
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),           // Yellow
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),           // Blue
		Bold:    lipgloss.NewStyle().Bold(true),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Added:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Removed: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Changed: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// NewPrinter creates a new Printer.
// If jsonMode is true, structured results are written as JSON.
// If isTTY is true, colors are enabled for human output.
func NewPrinter(writer io.Writer, jsonMode bool, isTTY bool) *Printer {
	return &Printer{
		w:      writer,
		errW:   writer,
		json:   jsonMode,
		isTTY:  isTTY,
		styles: NewStyles(isTTY),
	}
}

// WithStderr sets a separate writer for errors and warnings.
func (p *Printer) WithStderr(w io.Writer) *Printer {
	p.errW = w
	return p
}

// IsJSON returns true if the printer is in JSON mode.
func (p *Printer) IsJSON() bool { return p.json }

// IsTTY returns true if the printer output is a TTY.
func (p *Printer) IsTTY() bool { return p.isTTY }

// Styles exposes the active palette, e.g. for diff rendering.
func (p *Printer) Styles() *Styles { return p.styles }

// Writer returns the main output writer.
func (p *Printer) Writer() io.Writer { return p.w }

// Success prints a green line. Suppressed in JSON mode.
func (p *Printer) Success(format string, args ...any) {
	p.line(p.w, p.styles.Success, format, args...)
}

// Info prints a blue line. Suppressed in JSON mode.
func (p *Printer) Info(format string, args ...any) {
	p.line(p.w, p.styles.Info, format, args...)
}

// Warn prints a yellow warning to the error writer.
func (p *Printer) Warn(format string, args ...any) {
	if p.json {
		return
	}
	msg := fmt.Sprintf(format, args...)
	mustWrite(fmt.Fprintf(p.errW, "%s: %s\n", p.styles.Warning.Render("Warning"), msg))
}

// Error outputs an error. JSON mode writes {"error": "...", "code": N}.
func (p *Printer) Error(err error) {
	exitErr := &ExitError{}
	if !errors.As(err, &exitErr) {
		exitErr = &ExitError{Code: ExitUserError, Message: err.Error()}
	}
	if p.json {
		mustWrite(p.w.Write(ErrorJSON(exitErr.Error(), exitErr.Code)))
		mustWrite(fmt.Fprintln(p.w))
		return
	}
	mustWrite(fmt.Fprintf(p.errW, "%s: %s\n", p.styles.Error.Render("Error"), exitErr.Error()))
}

// Check prints an indented doctor-style line: "  [ OK ] message".
func (p *Printer) Check(status Status, format string, args ...any) {
	if p.json {
		return
	}
	style := p.styles.Dim
	switch status {
	case StatusOK, StatusFix:
		style = p.styles.Success
	case StatusWarn, StatusMiss:
		style = p.styles.Warning
	case StatusFail:
		style = p.styles.Error
	}
	msg := fmt.Sprintf(format, args...)
	mustWrite(fmt.Fprintf(p.w, "  %s %s\n", style.Render(string(status)), msg))
}

// Title prints a bold section heading.
func (p *Printer) Title(format string, args ...any) {
	p.line(p.w, p.styles.Title, format, args...)
}

// Print formats and writes to the output without a newline.
func (p *Printer) Print(format string, args ...any) {
	if p.json {
		return
	}
	mustWrite(fmt.Fprintf(p.w, format, args...))
}

// Println writes a line to the output.
func (p *Printer) Println(args ...any) {
	if p.json {
		return
	}
	mustWrite(fmt.Fprintln(p.w, args...))
}

// WriteJSON encodes any data as indented JSON.
func (p *Printer) WriteJSON(data any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

func (p *Printer) line(w io.Writer, style lipgloss.Style, format string, args ...any) {
	if p.json {
		return
	}
	mustWrite(fmt.Fprintln(w, style.Render(fmt.Sprintf(format, args...))))
}

// ErrorJSON returns JSON-formatted error bytes.
// Format: {"error": "message", "code": N}
func ErrorJSON(message string, code int) []byte {
	result, _ := json.Marshal(map[string]any{
		"error": message,
		"code":  code,
	})
	return result
}

// mustWrite discards write results; a broken stdout leaves nothing to report to.
func mustWrite(_ int, _ error) {}
