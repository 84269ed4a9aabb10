package linker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zco-team/zco-claude/internal/ignore"
	"github.com/zco-team/zco-claude/internal/manifest"
	"github.com/zco-team/zco-claude/internal/output"
	"github.com/zco-team/zco-claude/internal/platform"
	"github.com/zco-team/zco-claude/internal/settings"
)

const (
	claudeDir   = ".claude"
	commandsDir = "commands"
)

// ErrProjectMissing is returned when the project directory does not exist.
var ErrProjectMissing = errors.New("project directory does not exist")

// subtree is a template directory linked entry by entry.
type subtree struct {
	name         string
	includeFiles bool
}

// Hook scripts are files, so hooks/ links files as well as directories.
var subtrees = []subtree{
	{name: "rules"},
	{name: "hooks", includeFiles: true},
	{name: "skills"},
}

// ClaudeDir returns <project>/.claude.
func ClaudeDir(project string) string {
	return filepath.Join(project, claudeDir)
}

// InitOptions configures Init.
type InitOptions struct {
	TplDir     string
	RecordFile string
	// UserHome locates ~/.gitignore_global for the .claudeignore merge.
	UserHome  string
	Confirmer Confirmer
	// Settings applies the template's settings.local.json; nil skips that step.
	Settings *settings.Applier
	Printer  *output.Printer
	Now      func() time.Time
}

func (o InitOptions) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// InitReport summarizes Init.
type InitReport struct {
	Project  string           `json:"project"`
	Links    []Change         `json:"links"`
	Settings *settings.Result `json:"settings,omitempty"`
	Ignore   *ignore.Report   `json:"ignore,omitempty"`
	Recorded bool             `json:"recorded"`
	Warnings []string         `json:"warnings,omitempty"`
}

func (r *InitReport) warn(p *output.Printer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	if p != nil {
		p.Warn("%s", msg)
	}
}

// Init links the template into project/.claude. rules, hooks and skills are
// linked entry by entry and commands as a whole directory. The template's
// settings.local.json, when present, is applied to the project, the
// .claudeignore is merged, and the project is recorded if at least one link
// is in place. Link failures do not stop the remaining steps; they are
// returned together at the end.
func Init(ctx context.Context, project string, opts InitOptions) (*InitReport, error) {
	abs, err := validateProject(project)
	if err != nil {
		return nil, err
	}
	report := &InitReport{Project: abs}
	claude := ClaudeDir(abs)
	if err := os.MkdirAll(claude, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", claude, err)
	}

	var errs []error
	linked := false
	for _, st := range subtrees {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if opts.Printer != nil {
			opts.Printer.Title("%s/", st.name)
		}
		changes, err := LinkSubtree(filepath.Join(opts.TplDir, st.name), filepath.Join(claude, st.name), Options{
			IncludeFiles: st.includeFiles,
			Confirmer:    opts.Confirmer,
			Printer:      opts.Printer,
		})
		switch {
		case errors.Is(err, ErrNoSource):
			report.warn(opts.Printer, "template has no %s/, skipped", st.name)
		case errors.Is(err, ErrNotDir):
			report.warn(opts.Printer, "%s is not a directory, skipped", filepath.Join(claude, st.name))
		case err != nil:
			errs = append(errs, err)
		}
		for _, ch := range changes {
			linked = linked || ch.Action.Linked()
		}
		report.Links = append(report.Links, changes...)
	}

	if opts.Printer != nil {
		opts.Printer.Title("%s/", commandsDir)
	}
	ch := Change{Name: commandsDir, Link: filepath.Join(claude, commandsDir), Target: filepath.Join(platform.Resolve(opts.TplDir), commandsDir)}
	ch.Action, err = Link(ch.Target, ch.Link, opts.Confirmer)
	switch {
	case errors.Is(err, ErrNoSource):
		report.warn(opts.Printer, "template has no %s/, skipped", commandsDir)
	case err != nil:
		errs = append(errs, err)
		report.Links = append(report.Links, ch)
	default:
		printChange(opts.Printer, ch)
		report.Links = append(report.Links, ch)
		linked = linked || ch.Action.Linked()
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if opts.Settings != nil {
		res, err := applyLocalSettings(abs, opts)
		if err != nil {
			errs = append(errs, err)
		}
		report.Settings = res
	}

	ig, err := ignore.Merge(abs, opts.UserHome, opts.TplDir, opts.now())
	if err != nil {
		report.warn(opts.Printer, "merging %s failed: %v", ignore.FileName, err)
	}
	report.Ignore = ig

	if linked && opts.RecordFile != "" {
		if err := recordProject(abs, opts); err != nil {
			errs = append(errs, err)
		} else {
			report.Recorded = true
		}
	}
	return report, errors.Join(errs...)
}

func validateProject(project string) (string, error) {
	abs := platform.Resolve(project)
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%s: %w", abs, ErrProjectMissing)
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", abs, ErrNotDir)
	}
	return abs, nil
}

// applyLocalSettings installs <tpl>/settings.local.json into the project.
// A template without one is not an error.
func applyLocalSettings(project string, opts InitOptions) (*settings.Result, error) {
	tpl, err := settings.Load(filepath.Join(opts.TplDir, settings.LocalFileName))
	if errors.Is(err, settings.ErrNotFound) {
		slog.Debug("no project settings template", "tpl", opts.TplDir)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return opts.Settings.Apply(filepath.Join(ClaudeDir(project), settings.LocalFileName), tpl)
}

func recordProject(project string, opts InitOptions) error {
	rec, err := manifest.Load(opts.RecordFile)
	if err != nil {
		return err
	}
	rec.Upsert(project, platform.Resolve(opts.TplDir), opts.now())
	return rec.Save(opts.RecordFile)
}

// RepairReport counts the links Repair touched in one project.
type RepairReport struct {
	Project string   `json:"project"`
	Fixed   int      `json:"fixed"`
	OK      int      `json:"ok"`
	Changes []Change `json:"changes,omitempty"`
}

func (r *RepairReport) add(ch Change) {
	switch ch.Action {
	case ActionExists:
		r.OK++
	case ActionCreated, ActionReplaced, ActionRemoved:
		r.Fixed++
		r.Changes = append(r.Changes, ch)
	}
}

// Repair brings the links under project/.claude back in line with tplDir
// without asking. Missing links are created, symlinks that are dangling or
// point elsewhere are recreated, and dangling links with no template entry
// are removed. Real files and directories are never touched.
func Repair(ctx context.Context, project, tplDir string) (*RepairReport, error) {
	abs, err := validateProject(project)
	if err != nil {
		return nil, err
	}
	tpl := platform.Resolve(tplDir)
	claude := ClaudeDir(abs)
	report := &RepairReport{Project: abs}

	var errs []error
	for _, st := range subtrees {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := repairSubtree(filepath.Join(tpl, st.name), filepath.Join(claude, st.name), st.includeFiles, report); err != nil {
			errs = append(errs, err)
		}
	}

	src := filepath.Join(tpl, commandsDir)
	if isDir(src) {
		link := filepath.Join(claude, commandsDir)
		action, err := relink(src, link)
		if err != nil {
			errs = append(errs, err)
		}
		report.add(Change{Name: commandsDir, Link: link, Target: src, Action: action})
	}
	return report, errors.Join(errs...)
}

func repairSubtree(src, dst string, includeFiles bool, report *RepairReport) error {
	if platform.IsSymlink(dst) {
		// A whole-directory link is fine as long as it points at the template.
		if platform.PointsTo(dst, src) {
			report.add(Change{Name: filepath.Base(dst), Link: dst, Target: src, Action: ActionExists})
			return nil
		}
		if err := platform.RemovePath(dst); err != nil {
			return err
		}
		report.add(Change{Name: filepath.Base(dst), Link: dst, Action: ActionRemoved})
	}

	wanted := map[string]bool{}
	var errs []error
	if entries, err := os.ReadDir(src); err == nil {
		if err := os.MkdirAll(dst, 0755); err != nil {
			return err
		}
		for _, e := range entries {
			name := e.Name()
			target := filepath.Join(src, name)
			if strings.HasPrefix(name, SkipPrefix) || (!isDir(target) && !includeFiles) {
				continue
			}
			wanted[name] = true
			link := filepath.Join(dst, name)
			action, err := relink(target, link)
			if err != nil {
				errs = append(errs, err)
			}
			report.add(Change{Name: name, Link: link, Target: target, Action: action})
		}
	}

	existing, err := os.ReadDir(dst)
	if err != nil {
		return errors.Join(errs...)
	}
	for _, e := range existing {
		link := filepath.Join(dst, e.Name())
		if wanted[e.Name()] || !platform.IsSymlink(link) {
			continue
		}
		if _, err := os.Stat(link); err == nil {
			continue
		}
		if err := platform.RemovePath(link); err != nil {
			errs = append(errs, err)
			continue
		}
		report.add(Change{Name: e.Name(), Link: link, Action: ActionRemoved})
	}
	return errors.Join(errs...)
}

// relink makes link point at target unless a real file or directory is in
// the way.
func relink(target, link string) (Action, error) {
	action := ActionCreated
	switch {
	case platform.PointsTo(link, target):
		return ActionExists, nil
	case platform.IsSymlink(link):
		if err := platform.RemovePath(link); err != nil {
			return ActionSkipped, err
		}
		action = ActionReplaced
	case platform.Exists(link):
		return ActionSkipped, nil
	}
	if err := platform.CreateSymlink(target, link); err != nil {
		return ActionSkipped, fmt.Errorf("linking %s: %w", link, err)
	}
	return action, nil
}

// FleetOptions configures RepairAll.
type FleetOptions struct {
	// TplDir is used for entries whose recorded template no longer exists.
	TplDir string
	// RemoveNotFound drops entries whose project directory is gone.
	RemoveNotFound bool
	Printer        *output.Printer
	Now            func() time.Time
}

// FleetReport summarizes RepairAll in project counts.
type FleetReport struct {
	Fixed    int             `json:"fixed"`
	Removed  int             `json:"removed"`
	OK       int             `json:"ok"`
	Missing  int             `json:"missing"`
	Projects []*RepairReport `json:"projects,omitempty"`
}

// RepairAll repairs every project in rec, optionally prunes missing ones,
// and refreshes each entry's status. Projects that needed changes are
// marked fixed. The caller saves rec.
func RepairAll(ctx context.Context, rec *manifest.Record, opts FleetOptions) (*FleetReport, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	report := &FleetReport{}
	fixed := map[*manifest.Entry]bool{}

	var errs []error
	for _, e := range rec.Projects {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if manifest.Check(e.Path) == manifest.StatusMissing {
			if opts.Printer != nil {
				opts.Printer.Check(output.StatusMiss, "%s", e.Path)
			}
			continue
		}
		if e.TplDir == "" || !isDir(e.TplDir) {
			e.TplDir = opts.TplDir
		}
		r, err := Repair(ctx, e.Path, e.TplDir)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Path, err))
		}
		if r == nil {
			continue
		}
		report.Projects = append(report.Projects, r)
		if r.Fixed > 0 {
			fixed[e] = true
			report.Fixed++
			if opts.Printer != nil {
				opts.Printer.Check(output.StatusFix, "%s (%d links)", e.Path, r.Fixed)
			}
			continue
		}
		report.OK++
		if opts.Printer != nil {
			opts.Printer.Check(output.StatusOK, "%s", e.Path)
		}
	}

	if opts.RemoveNotFound {
		for _, e := range rec.Prune() {
			report.Removed++
			if opts.Printer != nil {
				opts.Printer.Check(output.StatusFix, "removed %s", e.Path)
			}
		}
	}

	rec.Verify(now())
	for _, e := range rec.Projects {
		switch {
		case e.Status == manifest.StatusMissing:
			report.Missing++
		case fixed[e] && e.Status == manifest.StatusOK:
			e.Status = manifest.StatusFixed
		}
	}
	return report, errors.Join(errs...)
}
