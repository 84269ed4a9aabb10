package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zco-team/zco-claude/internal/ignore"
	"github.com/zco-team/zco-claude/internal/output"
)

var (
	ignoreTpl  string
	ignoreJSON bool
)

var ignoreCmd = &cobra.Command{
	Use:   "ignore",
	Short: "Manage .claudeignore",
}

var ignoreMergeCmd = &cobra.Command{
	Use:   "merge [path]",
	Short: "Merge ignore patterns into <path>/.claudeignore",
	Long: `Rebuild <path>/.claudeignore from, in order:

  1. the existing .claudeignore
  2. ~/.gitignore_global, or the template's DOT.claudeignore when that is empty
  3. <path>/.gitignore

Each pattern is kept once, at its first occurrence. The previous file is
backed up to .claudeignore.bak.<timestamp>.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := resolveOptions(ignoreTpl, "")
		project := projectArg(args)
		if info, err := os.Stat(project); err != nil || !info.IsDir() {
			return output.NewUserError(project + " is not a directory")
		}
		p := newPrinter(cmd, ignoreJSON)

		report, err := ignore.Merge(project, opts.UserHome, opts.TplDir, time.Now())
		if err != nil {
			return output.NewSystemError("merging .claudeignore", err)
		}
		if ignoreJSON {
			return p.WriteJSON(report)
		}
		for _, s := range report.Sources {
			p.Check(output.StatusOK, "%s: %d new patterns", s.Label, s.Contributed)
		}
		if !report.Written {
			p.Info("Nothing to merge")
			return nil
		}
		if report.Backup != "" {
			p.Info("Backup: %s", report.Backup)
		}
		p.Success("Wrote %d patterns to %s", report.Total, report.Path)
		return nil
	},
}

func init() {
	ignoreMergeCmd.Flags().StringVar(&ignoreTpl, "tpl", "", "Template directory for the DOT.claudeignore fallback")
	ignoreMergeCmd.Flags().BoolVar(&ignoreJSON, "json", false, "Output in JSON format")
	ignoreCmd.AddCommand(ignoreMergeCmd)
	rootCmd.AddCommand(ignoreCmd)
}
