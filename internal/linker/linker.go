package linker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zco-team/zco-claude/internal/output"
	"github.com/zco-team/zco-claude/internal/platform"
)

// SkipPrefix marks template entries that are never linked.
const SkipPrefix = "_."

var (
	// ErrNoSource is returned when the template path to link does not exist.
	ErrNoSource = errors.New("template source does not exist")
	// ErrNotDir is returned when a link destination exists but is not a directory.
	ErrNotDir = errors.New("destination is not a directory")
)

// Action is what happened to a single link.
type Action string

// Link actions.
const (
	ActionCreated  Action = "created"
	ActionReplaced Action = "replaced"
	ActionExists   Action = "exists"
	ActionSkipped  Action = "skipped"
	ActionRemoved  Action = "removed"
)

// Linked reports whether the link is in place after the action.
func (a Action) Linked() bool {
	return a == ActionCreated || a == ActionReplaced || a == ActionExists
}

// Change records one link touched by LinkSubtree or Repair.
type Change struct {
	Name   string `json:"name"`
	Link   string `json:"link"`
	Target string `json:"target"`
	Action Action `json:"action"`
}

// Confirmer asks a yes/no question. prompt.Prompter satisfies it.
type Confirmer interface {
	Confirm(question string, def bool) (bool, error)
}

// Options controls LinkSubtree.
type Options struct {
	// IncludeFiles links regular files as well as directories.
	IncludeFiles bool
	// Confirmer decides whether an unexpected existing path is replaced.
	// Nil leaves such paths alone.
	Confirmer Confirmer
	// Printer reports each link; nil is silent.
	Printer *output.Printer
}

// Link makes link a symlink to src. A link already pointing at src is left
// untouched. Anything else at link is deleted and recreated only when c
// confirms; directories are removed recursively.
func Link(src, link string, c Confirmer) (Action, error) {
	if _, err := os.Stat(src); err != nil {
		return ActionSkipped, fmt.Errorf("%s: %w", src, ErrNoSource)
	}

	replaced := false
	if platform.Exists(link) {
		if platform.PointsTo(link, src) {
			return ActionExists, nil
		}
		if c == nil {
			return ActionSkipped, nil
		}
		ok, err := c.Confirm(fmt.Sprintf("%s already exists. Delete and recreate?", link), false)
		if err != nil {
			return ActionSkipped, err
		}
		if !ok {
			return ActionSkipped, nil
		}
		if err := platform.RemovePath(link); err != nil {
			return ActionSkipped, fmt.Errorf("removing %s: %w", link, err)
		}
		replaced = true
	}

	if err := platform.CreateSymlink(src, link); err != nil {
		return ActionSkipped, fmt.Errorf("linking %s: %w", link, err)
	}
	if replaced {
		return ActionReplaced, nil
	}
	return ActionCreated, nil
}

// LinkSubtree links every top-level entry of src into dst. Entries named
// with the "_." prefix are skipped, and files are linked only with
// IncludeFiles. dst is created when missing. Nothing is linked when dst
// exists but is not a directory, or when dst already resolves to src (for
// example a whole-directory link made earlier).
func LinkSubtree(src, dst string, opts Options) ([]Change, error) {
	absSrc := platform.Resolve(src)
	entries, err := os.ReadDir(absSrc)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", src, ErrNoSource)
		}
		return nil, fmt.Errorf("reading %s: %w", src, err)
	}

	info, err := os.Stat(dst)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dst, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dst, err)
		}
	case err != nil:
		return nil, err
	case !info.IsDir():
		return nil, fmt.Errorf("%s: %w", dst, ErrNotDir)
	case platform.SamePath(dst, absSrc):
		return nil, nil
	}

	var changes []Change
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, SkipPrefix) {
			continue
		}
		target := filepath.Join(absSrc, name)
		if !isDir(target) && !opts.IncludeFiles {
			continue
		}
		link := filepath.Join(dst, name)
		action, err := Link(target, link, opts.Confirmer)
		if err != nil {
			errs = append(errs, err)
		}
		ch := Change{Name: name, Link: link, Target: target, Action: action}
		printChange(opts.Printer, ch)
		changes = append(changes, ch)
	}
	return changes, errors.Join(errs...)
}

// isDir follows symlinks, so a template entry that is itself a link to a
// directory counts as one.
func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func printChange(p *output.Printer, ch Change) {
	if p == nil {
		return
	}
	switch ch.Action {
	case ActionExists:
		p.Check(output.StatusOK, "%s already linked", ch.Link)
	case ActionCreated:
		p.Check(output.StatusOK, "%s -> %s", ch.Link, ch.Target)
	case ActionReplaced, ActionRemoved:
		p.Check(output.StatusFix, "%s %s", ch.Link, ch.Action)
	default:
		p.Check(output.StatusSkip, "%s left unchanged", ch.Link)
	}
}
