package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zco-team/zco-claude/internal/fsutil"
	"github.com/zco-team/zco-claude/internal/output"
	"github.com/zco-team/zco-claude/internal/prompt"
)

// Outcome says what Apply did with the target file.
type Outcome string

// Apply outcomes.
const (
	OutcomeCreated   Outcome = "created"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeKept      Outcome = "kept"
	OutcomeReplaced  Outcome = "replaced"
	OutcomeMerged    Outcome = "merged"
)

// Result reports the result of Apply.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Path    string  `json:"path"`
	Backup  string  `json:"backup,omitempty"`
	Policy  string  `json:"policy,omitempty"`
}

// Applier writes a settings template over an existing file after showing a
// diff and asking the user what to do.
type Applier struct {
	Prompter prompt.Prompter
	Printer  *output.Printer
	// Now stamps backups; nil means time.Now.
	Now func() time.Time
	// Width is the column width of the side-by-side diff.
	Width int
}

func (a *Applier) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// Apply installs tpl at path. A missing file is created without asking. An
// existing one is shown side by side with the template, then the user picks
// overwrite, keep, merge or a unified diff view. Every write of an existing
// file is preceded by a read-only backup.
func (a *Applier) Apply(path string, tpl Document) (*Result, error) {
	newData, err := Marshal(tpl)
	if err != nil {
		return nil, err
	}
	if res, err := Validate(tpl); err == nil && !res.Valid {
		for _, issue := range res.Issues {
			a.Printer.Warn("template %s: %s", filepath.Base(path), issue)
		}
	}

	oldData, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := fsutil.WriteAtomic(path, newData, 0644); err != nil {
			return nil, err
		}
		a.Printer.Success("Created %s", path)
		return &Result{Outcome: OutcomeCreated, Path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	existing, parseErr := Parse(oldData)
	if parseErr != nil {
		return a.applyUnparsable(path, oldData, newData, parseErr)
	}
	if Equal(existing, tpl) {
		a.Printer.Info("%s is up to date", path)
		return &Result{Outcome: OutcomeUnchanged, Path: path}, nil
	}

	existingText, err := Marshal(existing)
	if err != nil {
		return nil, err
	}
	a.Printer.Println(SideBySide(string(existingText), string(newData), a.Width, a.diffStyles()))

	for {
		choice, err := a.Prompter.Choose(fmt.Sprintf("%s differs from the template", path), []prompt.Option{
			{Key: "y", Label: "overwrite with the template"},
			{Key: "n", Label: "keep the current file"},
			{Key: "m", Label: "merge the template into the current file"},
			{Key: "d", Label: "show a unified diff"},
		}, "n")
		if err != nil {
			return nil, err
		}

		switch choice {
		case "y":
			backup, err := a.write(path, newData)
			if err != nil {
				return nil, err
			}
			a.Printer.Success("Replaced %s", path)
			return &Result{Outcome: OutcomeReplaced, Path: path, Backup: backup}, nil
		case "m":
			return a.merge(path, existing, tpl)
		case "d":
			a.Printer.Println(UnifiedDiff(filepath.Base(path), string(existingText), string(newData)))
		default:
			a.Printer.Info("Kept %s", path)
			return &Result{Outcome: OutcomeKept, Path: path}, nil
		}
	}
}

func (a *Applier) merge(path string, existing, tpl Document) (*Result, error) {
	key, err := a.Prompter.Choose("On conflicting values, which side wins?", []prompt.Option{
		{Key: "1", Label: "template"},
		{Key: "2", Label: "current file"},
	}, "1")
	if err != nil {
		return nil, err
	}
	policy := TemplatePriority
	if key == "2" {
		policy = ExistingPriority
	}

	merged := Merge(existing, tpl, policy)
	if Equal(merged, existing) {
		a.Printer.Info("Merge leaves %s unchanged", path)
		return &Result{Outcome: OutcomeUnchanged, Path: path, Policy: policy.String()}, nil
	}
	data, err := Marshal(merged)
	if err != nil {
		return nil, err
	}
	backup, err := a.write(path, data)
	if err != nil {
		return nil, err
	}
	a.Printer.Success("Merged template into %s (%s)", path, policy)
	return &Result{Outcome: OutcomeMerged, Path: path, Backup: backup, Policy: policy.String()}, nil
}

// applyUnparsable handles an existing file that is not valid JSON: merging
// is impossible, so only overwrite or keep are offered.
func (a *Applier) applyUnparsable(path string, oldData, newData []byte, parseErr error) (*Result, error) {
	a.Printer.Warn("%s is not valid JSON: %v", path, parseErr)
	a.Printer.Println(UnifiedDiff(filepath.Base(path), string(oldData), string(newData)))

	ok, err := a.Prompter.Confirm(fmt.Sprintf("Overwrite %s with the template?", path), false)
	if err != nil {
		return nil, err
	}
	if !ok {
		a.Printer.Info("Kept %s", path)
		return &Result{Outcome: OutcomeKept, Path: path}, nil
	}
	backup, err := a.write(path, newData)
	if err != nil {
		return nil, err
	}
	a.Printer.Success("Replaced %s", path)
	return &Result{Outcome: OutcomeReplaced, Path: path, Backup: backup}, nil
}

func (a *Applier) write(path string, data []byte) (string, error) {
	backup, err := fsutil.Backup(path, a.now(), true)
	if err != nil {
		return "", err
	}
	slog.Debug("settings backup written", "path", backup)
	a.Printer.Info("Backup: %s", backup)
	if err := fsutil.WriteAtomic(path, data, 0644); err != nil {
		return backup, err
	}
	return backup, nil
}

func (a *Applier) diffStyles() DiffStyles {
	st := a.Printer.Styles()
	return DiffStyles{Header: st.Bold.Render, Added: st.Added.Render, Removed: st.Removed.Render, Changed: st.Changed.Render}
}
