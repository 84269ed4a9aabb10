package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/zco-team/zco-claude/internal/branding"
	"github.com/zco-team/zco-claude/internal/config"
	"github.com/zco-team/zco-claude/internal/linker"
	"github.com/zco-team/zco-claude/internal/output"
	"github.com/zco-team/zco-claude/internal/prompt"
	"github.com/zco-team/zco-claude/internal/settings"
)

var (
	initTpl        string
	initRecordFile string
	initYes        bool
	initSkipGlobal bool
	initJSON       bool
	initMerge      string

	globalTpl   string
	globalYes   bool
	globalMerge string
)

func init() {
	initCmd.Flags().StringVar(&initTpl, "tpl", "", "Template directory (default from config)")
	initCmd.Flags().StringVar(&initRecordFile, "record-file", "", "Linked-projects record (default from config)")
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Accept the template without prompting")
	initCmd.Flags().BoolVar(&initSkipGlobal, "skip-global", false, "Do not touch ~/.claude/settings.json")
	initCmd.Flags().BoolVar(&initJSON, "json", false, "Print the report as JSON")
	initCmd.Flags().StringVar(&initMerge, "merge", "", "Settings policy without prompting: replace, template-priority or existing-priority")
	rootCmd.AddCommand(initCmd)

	globalCmd.Flags().StringVar(&globalTpl, "tpl", "", "Template directory (default from config)")
	globalCmd.Flags().BoolVarP(&globalYes, "yes", "y", false, "Accept the template without prompting")
	globalCmd.Flags().StringVar(&globalMerge, "merge", "", "Settings policy without prompting: replace, template-priority or existing-priority")
	rootCmd.AddCommand(globalCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Link the template into a project's .claude directory",
	Long: `Set up a project for Claude Code from the template directory.

Steps:
  1. Generate or merge the global ~/.claude/settings.json
  2. Link template rules/*, hooks/* and skills/* into <path>/.claude/
  3. Link template commands/ as a whole directory
  4. Apply the template's settings.local.json to the project, if it has one
  5. Merge .claudeignore from the existing file, ~/.gitignore_global and .gitignore
  6. Record the project in the linked-projects record

Links are absolute. Existing correct links are left alone; anything else in
the way is replaced only after confirmation. Template entries named "_.*" are
never linked. Defaults to the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var globalCmd = &cobra.Command{
	Use:   "global",
	Short: "Generate or merge ~/.claude/settings.json",
	Long: `Write the default global settings, which enable the chat-saving and
auto-commit hooks through environment flags that default to off.

When the file exists and differs, a side-by-side diff is shown and you can
overwrite it, keep it, merge the template into it, or view a unified diff.
Every overwrite is preceded by a read-only timestamped backup.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := resolveOptions(globalTpl, "")
		p := newPrinter(cmd, false)
		pr, err := settingsPrompter(cmd, globalYes, globalMerge)
		if err != nil {
			return err
		}
		res, err := applyGlobal(opts, &settings.Applier{Prompter: pr, Printer: p})
		if err != nil {
			return promptErr(err)
		}
		if res.Backup != "" {
			p.Info("Previous settings kept at %s", res.Backup)
		}
		return nil
	},
}

// globalTemplate is the default settings, overlaid with the template
// directory's settings.json when there is one.
func globalTemplate(opts config.Options) (settings.Document, error) {
	tpl := settings.Default(branding.CLIName())
	extra, err := settings.Load(filepath.Join(opts.TplDir, settings.FileName))
	if errors.Is(err, settings.ErrNotFound) {
		return tpl, nil
	}
	if err != nil {
		return nil, err
	}
	return settings.Merge(tpl, extra, settings.TemplatePriority), nil
}

func applyGlobal(opts config.Options, a *settings.Applier) (*settings.Result, error) {
	tpl, err := globalTemplate(opts)
	if err != nil {
		return nil, err
	}
	a.Printer.Title("Global settings")
	return a.Apply(opts.GlobalSettingsPath(), tpl)
}

func runInit(cmd *cobra.Command, args []string) error {
	opts := resolveOptions(initTpl, initRecordFile)
	if err := requireTemplate(opts); err != nil {
		return err
	}
	project := projectArg(args)
	p := newPrinter(cmd, initJSON)
	pr, err := settingsPrompter(cmd, initYes, initMerge)
	if err != nil {
		return err
	}
	applier := &settings.Applier{Prompter: pr, Printer: p}

	p.Info("Template: %s", opts.TplDir)
	p.Info("Project:  %s", project)

	if !initSkipGlobal {
		if _, err := applyGlobal(opts, applier); err != nil {
			return promptErr(err)
		}
	}

	report, err := linker.Init(cmd.Context(), project, linker.InitOptions{
		TplDir:     opts.TplDir,
		RecordFile: opts.RecordFile,
		UserHome:   opts.UserHome,
		Confirmer:  applier.Prompter,
		Settings:   applier,
		Printer:    p,
	})
	switch {
	case errors.Is(err, linker.ErrProjectMissing), errors.Is(err, linker.ErrNotDir):
		return output.NewUserError(err.Error())
	case errors.Is(err, prompt.ErrAborted):
		return promptErr(err)
	case err != nil && report == nil:
		return output.NewSystemError("init failed", err)
	}

	if initJSON {
		if werr := p.WriteJSON(report); werr != nil {
			return werr
		}
	} else {
		printInitSummary(p, report, opts)
	}
	if err != nil {
		return output.NewSystemError("some links could not be created", err)
	}
	return nil
}

func printInitSummary(p *output.Printer, r *linker.InitReport, opts config.Options) {
	linked := 0
	for _, ch := range r.Links {
		if ch.Action.Linked() {
			linked++
		}
	}
	p.Println()
	p.Success("Done: %d links in place under %s", linked, linker.ClaudeDir(r.Project))
	if r.Ignore != nil && r.Ignore.Written {
		p.Success("Merged %d patterns into %s", r.Ignore.Total, r.Ignore.Path)
	}
	if r.Recorded {
		p.Info("Recorded in %s", opts.RecordFile)
	}
}

// promptErr turns an aborted prompt into a quiet user error.
func promptErr(err error) error {
	if errors.Is(err, prompt.ErrAborted) {
		return output.NewUserError("aborted")
	}
	return fmt.Errorf("applying settings: %w", err)
}
