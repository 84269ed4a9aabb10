package cli

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/zco-team/zco-claude/internal/config"
	"github.com/zco-team/zco-claude/internal/linker"
	"github.com/zco-team/zco-claude/internal/manifest"
	"github.com/zco-team/zco-claude/internal/output"
	"github.com/zco-team/zco-claude/internal/platform"
	"github.com/zco-team/zco-claude/internal/settings"
)

var (
	doctorTpl        string
	doctorRecordFile string
	doctorFix        bool
)

func init() {
	doctorCmd.Flags().StringVar(&doctorTpl, "tpl", "", "Template directory (default from config)")
	doctorCmd.Flags().StringVar(&doctorRecordFile, "record-file", "", "Linked-projects record (default from config)")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Repair broken links in the project and every recorded project")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor [path]",
	Short: "Check the template, links and settings",
	Long: `Run diagnostic checks: the template directory, symlink support, git,
the linked-projects record, the links under <path>/.claude, and every
settings file that applies to <path>. Defaults to the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := resolveOptions(doctorTpl, doctorRecordFile)
		p := newPrinter(cmd, false)
		if failed := runDoctor(cmd.Context(), p, opts, projectArg(args), doctorFix); failed > 0 {
			return output.NewUserError("doctor found problems")
		}
		return nil
	},
}

// runDoctor prints every check and returns the number that failed.
func runDoctor(ctx context.Context, p *output.Printer, opts config.Options, project string, fix bool) int {
	failed := 0
	fail := func(format string, args ...any) {
		failed++
		p.Check(output.StatusFail, format, args...)
	}

	p.Title("Template")
	if info, err := os.Stat(opts.TplDir); err != nil || !info.IsDir() {
		p.Check(output.StatusMiss, "%s does not exist", opts.TplDir)
		p.Println("         Set it with '--tpl' or 'config set tpl_dir <dir>'")
		failed++
	} else {
		p.Check(output.StatusOK, "%s", opts.TplDir)
		for _, sub := range manifest.LinkedDirs {
			dir := filepath.Join(opts.TplDir, sub)
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				p.Check(output.StatusOK, "%s/", sub)
			} else {
				p.Check(output.StatusMiss, "%s/ not in template", sub)
			}
		}
	}

	p.Title("Environment")
	if platform.IsSymlinkSupported(os.TempDir()) {
		p.Check(output.StatusOK, "symlinks supported")
	} else {
		fail("symlinks not supported in %s", os.TempDir())
	}
	if path, err := exec.LookPath("git"); err == nil {
		p.Check(output.StatusOK, "git (%s)", path)
	} else {
		p.Check(output.StatusWarn, "git not found; auto-commit and repo detection are disabled")
	}

	p.Title("Project")
	claude := linker.ClaudeDir(project)
	if _, err := os.Stat(claude); err != nil {
		p.Check(output.StatusSkip, "%s not initialized", project)
	} else {
		if target, err := platform.ReadSymlinkTarget(filepath.Join(claude, "commands")); err == nil {
			p.Check(output.StatusOK, "commands -> %s", target)
		}
		switch manifest.Check(project) {
		case manifest.StatusOK:
			p.Check(output.StatusOK, "%s links intact", claude)
		default:
			if fix && platform.Exists(opts.TplDir) {
				if r, err := linker.Repair(ctx, project, opts.TplDir); err == nil {
					p.Check(output.StatusFix, "%s: repaired %d links", claude, r.Fixed)
					break
				}
			}
			fail("%s has broken links; run 'fix'", claude)
		}
	}

	p.Title("Record")
	failed += checkRecord(ctx, p, opts, fix)

	p.Title("Settings")
	reports, _ := validateFiles(settings.Paths(opts.ClaudeHome, project))
	if len(reports) == 0 {
		p.Check(output.StatusMiss, "no settings files; run 'global'")
	}
	for _, r := range reports {
		if r.Valid {
			p.Check(output.StatusOK, "%s", r.Path)
			continue
		}
		fail("%s", r.Path)
		for _, issue := range r.Issues {
			p.Println("         " + issue)
		}
	}
	return failed
}

func checkRecord(ctx context.Context, p *output.Printer, opts config.Options, fix bool) int {
	if !platform.Exists(opts.RecordFile) {
		p.Check(output.StatusSkip, "%s not created yet", opts.RecordFile)
		return 0
	}
	rec, err := manifest.Load(opts.RecordFile)
	if err != nil {
		p.Check(output.StatusFail, "%v", err)
		return 1
	}
	p.Check(output.StatusOK, "%s (%d projects)", opts.RecordFile, len(rec.Projects))

	if fix {
		report, err := linker.RepairAll(ctx, rec, linker.FleetOptions{TplDir: opts.TplDir, Printer: p})
		if serr := rec.Save(opts.RecordFile); serr != nil {
			p.Check(output.StatusFail, "saving record: %v", serr)
			return 1
		}
		if err != nil {
			p.Check(output.StatusFail, "%v", err)
			return 1
		}
		p.Check(output.StatusFix, "fixed %d, ok %d", report.Fixed, report.OK)
		return 0
	}

	failed := 0
	rec.Verify(time.Now())
	for _, e := range rec.Projects {
		switch e.Status {
		case manifest.StatusOK:
			p.Check(output.StatusOK, "%s", e.Path)
		case manifest.StatusMissing:
			p.Check(output.StatusMiss, "%s", e.Path)
		default:
			failed++
			p.Check(output.StatusFail, "%s %s", e.Path, e.Status)
		}
	}
	if failed > 0 {
		p.Println("         Run 'fix-linked-repos' to repair")
	}
	return failed
}
