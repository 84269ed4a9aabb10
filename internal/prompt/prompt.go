// Package prompt asks the user yes/no and multiple-choice questions. On a
// terminal it uses huh forms; otherwise it reads answers line by line, which
// keeps piped input and tests working.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// ErrAborted is returned when the user cancels a form (Ctrl+C / Esc).
var ErrAborted = errors.New("prompt aborted")

// Option is one choice of a Choose question. Key is what the user types in
// line mode and what Choose returns.
type Option struct {
	Key   string
	Label string
}

// Prompter asks questions. Implementations must treat an empty answer as the
// default.
type Prompter interface {
	Confirm(question string, def bool) (bool, error)
	Choose(question string, options []Option, def string) (string, error)
}

// New returns a form-based prompter when in is a terminal and a line-based
// one otherwise.
func New(in io.Reader, out io.Writer) Prompter {
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		return Form{}
	}
	return NewLine(in, out)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Form prompts with huh widgets.
type Form struct{}

// Confirm implements Prompter.
func (Form) Confirm(question string, def bool) (bool, error) {
	answer := def
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(question).Affirmative("Yes").Negative("No").Value(&answer),
	)).Run()
	if err != nil {
		return def, formErr(err)
	}
	return answer, nil
}

// Choose implements Prompter.
func (Form) Choose(question string, options []Option, def string) (string, error) {
	selected := def
	opts := make([]huh.Option[string], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o.Label, o.Key)
	}
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title(question).Options(opts...).Value(&selected),
	)).Run()
	if err != nil {
		return def, formErr(err)
	}
	return selected, nil
}

func formErr(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return fmt.Errorf("prompt: %w", err)
}

// Line prompts by printing the question and reading one line per answer.
// End of input selects the default.
type Line struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLine returns a Line prompter.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewReader(in), out: out}
}

// Confirm implements Prompter: y/yes is true, n/no is false.
func (l *Line) Confirm(question string, def bool) (bool, error) {
	hint := "(y/N)"
	if def {
		hint = "(Y/n)"
	}
	for {
		fmt.Fprintf(l.out, "%s %s: ", question, hint)
		answer, eof, err := l.readLine()
		if err != nil {
			return def, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if eof {
			return def, nil
		}
		fmt.Fprintf(l.out, "  invalid answer %q, enter y or n\n", answer)
	}
}

// Choose implements Prompter. Keys match case-insensitively.
func (l *Line) Choose(question string, options []Option, def string) (string, error) {
	keys := make([]string, len(options))
	for i, o := range options {
		keys[i] = o.Key
	}
	for {
		fmt.Fprintln(l.out, question)
		for _, o := range options {
			marker := ""
			if o.Key == def {
				marker = " (default)"
			}
			fmt.Fprintf(l.out, "  [%s] %s%s\n", o.Key, o.Label, marker)
		}
		fmt.Fprintf(l.out, "Choose (%s): ", strings.Join(keys, "/"))

		answer, eof, err := l.readLine()
		if err != nil {
			return def, err
		}
		if answer == "" {
			return def, nil
		}
		for _, o := range options {
			if strings.EqualFold(answer, o.Key) {
				return o.Key, nil
			}
		}
		if eof {
			return def, nil
		}
		fmt.Fprintf(l.out, "  invalid option %q, enter %s\n", answer, strings.Join(keys, "/"))
	}
}

func (l *Line) readLine() (string, bool, error) {
	line, err := l.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		return strings.TrimSpace(line), true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(line), false, nil
}

// Fixed answers every question without asking. It backs --yes and hooks.
type Fixed struct {
	Answer bool
	// Choice is returned by Choose; empty means the question's default.
	Choice string
}

// Confirm implements Prompter.
func (f Fixed) Confirm(string, bool) (bool, error) { return f.Answer, nil }

// Choose implements Prompter.
func (f Fixed) Choose(_ string, _ []Option, def string) (string, error) {
	if f.Choice == "" {
		return def, nil
	}
	return f.Choice, nil
}
