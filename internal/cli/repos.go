package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zco-team/zco-claude/internal/linker"
	"github.com/zco-team/zco-claude/internal/manifest"
	"github.com/zco-team/zco-claude/internal/output"
)

var (
	listRecordFile string
	listJSON       bool

	fleetRecordFile string
	fleetTpl        string
	fleetPrune      bool
	fleetJSON       bool

	fixTpl        string
	fixRecordFile string
	fixJSON       bool
)

func init() {
	listReposCmd.Flags().StringVar(&listRecordFile, "record-file", "", "Linked-projects record (default from config)")
	listReposCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listReposCmd)

	fixReposCmd.Flags().StringVar(&fleetRecordFile, "record-file", "", "Linked-projects record (default from config)")
	fixReposCmd.Flags().StringVar(&fleetTpl, "tpl", "", "Template used when a project's own is gone")
	fixReposCmd.Flags().BoolVar(&fleetPrune, "remove-not-found", false, "Drop projects whose directory no longer exists")
	fixReposCmd.Flags().BoolVar(&fleetJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(fixReposCmd)

	fixCmd.Flags().StringVar(&fixTpl, "tpl", "", "Template directory (default: recorded or configured)")
	fixCmd.Flags().StringVar(&fixRecordFile, "record-file", "", "Linked-projects record (default from config)")
	fixCmd.Flags().BoolVar(&fixJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(fixCmd)
}

var listReposCmd = &cobra.Command{
	Use:   "list-linked-repos",
	Short: "List projects linked to the template",
	Long: `List every project in the linked-projects record with its current status.

Status is re-checked and saved on every run: ok, broken (a link under
.claude is dangling) or missing (the project directory is gone).`,
	Args: cobra.NoArgs,
	RunE: runListRepos,
}

var fixReposCmd = &cobra.Command{
	Use:   "fix-linked-repos",
	Short: "Repair links in every recorded project",
	Long: `Recreate missing, dangling and stale links in every recorded project and
refresh the record. Real files are never replaced.

With --remove-not-found, projects whose directory no longer exists are
dropped from the record.`,
	Args: cobra.NoArgs,
	RunE: runFixRepos,
}

var fixCmd = &cobra.Command{
	Use:   "fix [path]",
	Short: "Repair links in one project",
	Long: `Recreate missing, dangling and stale links under <path>/.claude and record
the project. Defaults to the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFix,
}

func runListRepos(cmd *cobra.Command, _ []string) error {
	opts := resolveOptions("", listRecordFile)
	p := newPrinter(cmd, listJSON)

	rec, err := manifest.Load(opts.RecordFile)
	if err != nil {
		return output.NewSystemError("loading record", err)
	}
	rec.Verify(time.Now())
	if len(rec.Projects) > 0 {
		if err := rec.Save(opts.RecordFile); err != nil {
			return output.NewSystemError("saving record", err)
		}
	}

	if listJSON {
		return p.WriteJSON(rec.Projects)
	}
	if len(rec.Projects) == 0 {
		p.Info("No linked projects in %s", opts.RecordFile)
		return nil
	}

	w := tabwriter.NewWriter(p.Writer(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "STATUS\tGIT\tLINKED\tPATH")
	for _, e := range rec.Projects {
		git := "-"
		if e.IsGit {
			git = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Status, git, e.LinkedAt, e.Path)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	p.Println()
	p.Info("%d projects in %s", len(rec.Projects), opts.RecordFile)
	return nil
}

func runFixRepos(cmd *cobra.Command, _ []string) error {
	opts := resolveOptions(fleetTpl, fleetRecordFile)
	p := newPrinter(cmd, fleetJSON)

	rec, err := manifest.Load(opts.RecordFile)
	if err != nil {
		return output.NewSystemError("loading record", err)
	}
	report, repairErr := linker.RepairAll(cmd.Context(), rec, linker.FleetOptions{
		TplDir:         opts.TplDir,
		RemoveNotFound: fleetPrune,
		Printer:        p,
	})
	if err := rec.Save(opts.RecordFile); err != nil {
		return output.NewSystemError("saving record", err)
	}

	if fleetJSON {
		if err := p.WriteJSON(report); err != nil {
			return err
		}
	} else {
		p.Println()
		p.Success("fixed %d, removed %d, ok %d", report.Fixed, report.Removed, report.OK)
		if report.Missing > 0 && !fleetPrune {
			p.Warn("%d projects not found; rerun with --remove-not-found to drop them", report.Missing)
		}
	}
	if repairErr != nil {
		return output.NewSystemError("some links could not be repaired", repairErr)
	}
	return nil
}

func runFix(cmd *cobra.Command, args []string) error {
	opts := resolveOptions(fixTpl, fixRecordFile)
	project := projectArg(args)
	p := newPrinter(cmd, fixJSON)

	rec, err := manifest.Load(opts.RecordFile)
	if err != nil {
		return output.NewSystemError("loading record", err)
	}
	if e := rec.Find(project); e != nil && fixTpl == "" && e.TplDir != "" {
		opts.TplDir = e.TplDir
	}
	if err := requireTemplate(opts); err != nil {
		return err
	}

	report, repairErr := linker.Repair(cmd.Context(), project, opts.TplDir)
	if errors.Is(repairErr, linker.ErrProjectMissing) {
		return output.NewUserError(repairErr.Error())
	}
	if report == nil {
		return output.NewSystemError("repair failed", repairErr)
	}

	rec.Refresh(report.Project, opts.TplDir, time.Now())
	rec.Verify(time.Now())
	if err := rec.Save(opts.RecordFile); err != nil {
		return output.NewSystemError("saving record", err)
	}

	if fixJSON {
		if err := p.WriteJSON(report); err != nil {
			return err
		}
	} else {
		for _, ch := range report.Changes {
			p.Check(output.StatusFix, "%s %s", ch.Link, ch.Action)
		}
		p.Success("%s: fixed %d, ok %d", report.Project, report.Fixed, report.OK)
	}
	if repairErr != nil {
		return output.NewSystemError("some links could not be repaired", repairErr)
	}
	return nil
}
