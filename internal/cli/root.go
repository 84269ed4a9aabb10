package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/zco-team/zco-claude/internal/branding"
	"github.com/zco-team/zco-claude/internal/config"
	"github.com/zco-team/zco-claude/internal/output"
	"github.com/zco-team/zco-claude/internal/prompt"
	"github.com/zco-team/zco-claude/internal/settings"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	debugFlag bool
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` links a template of rules, hooks, skills and commands into project
.claude directories, generates and merges Claude Code settings, and provides the
hook handlers that save chat transcripts and auto-commit work in progress.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd.ErrOrStderr(), debugFlag || os.Getenv(branding.EnvVar("debug")) == "1")
		config.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log debug details to stderr")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(ctx context.Context, version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return fang.Execute(ctx, rootCmd,
		fang.WithVersion(versionString()),
		fang.WithErrorHandler(handleError),
	)
}

// handleError leaves errors the command already reported to the command.
func handleError(w io.Writer, styles fang.Styles, err error) {
	if output.IsSilent(err) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// setupLogging sends slog output to w as text.
func setupLogging(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func newPrinter(cmd *cobra.Command, jsonMode bool) *output.Printer {
	out := cmd.OutOrStdout()
	return output.NewPrinter(out, jsonMode, output.IsTTY(out)).WithStderr(cmd.ErrOrStderr())
}

// newPrompter asks on the terminal, or accepts the template everywhere with
// --yes.
func newPrompter(cmd *cobra.Command, yes bool) prompt.Prompter {
	if yes {
		return prompt.Fixed{Answer: true, Choice: "y"}
	}
	return prompt.New(cmd.InOrStdin(), cmd.ErrOrStderr())
}

// settingsPrompter is newPrompter, except that a --merge policy answers the
// settings questions without asking.
func settingsPrompter(cmd *cobra.Command, yes bool, merge string) (prompt.Prompter, error) {
	if merge == "" {
		return newPrompter(cmd, yes), nil
	}
	policy, err := settings.ParsePolicy(merge)
	if err != nil {
		return nil, output.NewUserError(err.Error())
	}
	return policyPrompter{policy: policy, confirm: yes}, nil
}

// policyPrompter picks the settings answers that apply policy. Other
// confirmations get confirm.
type policyPrompter struct {
	policy  settings.Policy
	confirm bool
}

func (p policyPrompter) Confirm(string, bool) (bool, error) { return p.confirm, nil }

func (p policyPrompter) Choose(_ string, options []prompt.Option, def string) (string, error) {
	has := func(key string) bool {
		return slices.ContainsFunc(options, func(o prompt.Option) bool { return o.Key == key })
	}
	switch {
	case has("m") && p.policy == settings.Replace:
		return "y", nil
	case has("m"):
		return "m", nil
	case has("2") && p.policy == settings.ExistingPriority:
		return "2", nil
	case has("1"):
		return "1", nil
	}
	return def, nil
}

// resolveOptions loads the configured options and applies flag overrides.
func resolveOptions(tplDir, recordFile string) config.Options {
	opts := config.Resolve()
	if tplDir != "" {
		opts.TplDir = absPath(tplDir)
	}
	if recordFile != "" {
		opts.RecordFile = absPath(recordFile)
	}
	return opts
}

// requireTemplate fails with a user error when the template dir is missing.
func requireTemplate(opts config.Options) error {
	info, err := os.Stat(opts.TplDir)
	if err != nil || !info.IsDir() {
		return output.NewUserError(fmt.Sprintf("template directory %s not found (use --tpl or set %s)",
			opts.TplDir, branding.EnvVar(config.KeyTplDir)))
	}
	return nil
}

func projectArg(args []string) string {
	if len(args) > 0 {
		return absPath(args[0])
	}
	return absPath(".")
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
