package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/zco-team/zco-claude/internal/config"
	"github.com/zco-team/zco-claude/internal/fsutil"
	"github.com/zco-team/zco-claude/internal/gitx"
	"github.com/zco-team/zco-claude/internal/history"
	"github.com/zco-team/zco-claude/internal/hook"
	"github.com/zco-team/zco-claude/internal/output"
)

var (
	histDays   int
	histDir    string
	histOut    string
	histRender bool
	histJSON   bool
)

var histCmd = &cobra.Command{
	Use:   "hist",
	Short: "Saved chat history",
}

var histSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize saved chat logs",
	Long: `Aggregate the chat logs saved by the hook handlers into one report: tool
usage, touched files, URLs and a per-chat index.

  -d 1   today (default)
  -d 7   the last 7 days, starting at midnight
  -d 0   all history

The report is written to $AICO_DOCS, or <git root>/AICO_DOCS, as
zco_hist_smy_YYYYmmdd.md.`,
	Args: cobra.NoArgs,
	RunE: runHistSummary,
}

func init() {
	histSummaryCmd.Flags().IntVarP(&histDays, "days", "d", 1, "Days to include; 0 means all")
	histSummaryCmd.Flags().StringVar(&histDir, "dir", "", "Chat log directory (default: <git root>/<chat_save_dir>)")
	histSummaryCmd.Flags().StringVar(&histOut, "out", "", "Report directory (default: $AICO_DOCS or <git root>/AICO_DOCS)")
	histSummaryCmd.Flags().BoolVar(&histRender, "render", false, "Also render the report in the terminal")
	histSummaryCmd.Flags().BoolVar(&histJSON, "json", false, "Print stats as JSON instead")
	histCmd.AddCommand(histSummaryCmd)
	rootCmd.AddCommand(histCmd)
}

// histPaths resolves the log directory and report path for cwd.
func histPaths(ctx context.Context, cwd, logDir, outDir string, getenv func(string) string, now time.Time) (string, string) {
	if logDir == "" {
		logDir = hook.LogDir(ctx, cwd, config.Get(config.KeyChatSaveDir))
	}
	if outDir == "" {
		outDir = history.OutputDir(getenv, gitx.Toplevel(ctx, cwd))
	}
	return logDir, filepath.Join(outDir, history.FileName(now))
}

func runHistSummary(cmd *cobra.Command, _ []string) error {
	if histDays < 0 {
		return output.NewUserError("--days must be 0 or more")
	}
	cwd, err := os.Getwd()
	if err != nil {
		return output.NewSystemError("resolving working directory", err)
	}
	now := time.Now()
	p := newPrinter(cmd, histJSON)
	ctx := cmd.Context()

	logDir, reportPath := histPaths(ctx, cwd, absOrEmpty(histDir), absOrEmpty(histOut), os.Getenv, now)
	sum, err := history.Summarize(logDir, histDays, now)
	if err != nil {
		return output.NewSystemError("summarizing history", err)
	}

	if err := os.MkdirAll(filepath.Dir(reportPath), 0755); err != nil {
		return output.NewSystemError("creating report directory", err)
	}
	if err := fsutil.WriteAtomic(reportPath, []byte(sum.Markdown), 0644); err != nil {
		return output.NewSystemError("writing report", err)
	}

	if histJSON {
		return p.WriteJSON(struct {
			Report string        `json:"report"`
			Stats  history.Stats `json:"stats"`
		}{reportPath, sum.Stats})
	}

	if histRender {
		rendered, err := glamour.Render(sum.Markdown, "auto")
		if err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}
		p.Print("%s", rendered)
	}
	p.Success("%d chats, %d tool calls from %s", sum.Stats.TotalChats, sum.Stats.TotalTools, logDir)
	p.Info("Report: %s", reportPath)
	return nil
}

func absOrEmpty(p string) string {
	if p == "" {
		return ""
	}
	return absPath(p)
}
