package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/zco-team/zco-claude/internal/output"
	"github.com/zco-team/zco-claude/internal/settings"
)

// Settings scopes, lowest priority first.
const (
	scopeGlobal    = "global"
	scopeProject   = "project"
	scopeLocal     = "local"
	scopeEffective = "effective"
)

var (
	settingsScope  string
	settingsRender bool
	settingsJSON   bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect Claude Code settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print settings for a project",
	Long: `Print one settings file, or the effective settings of a project.

Scopes, lowest priority first:
  global     ~/.claude/settings.json
  project    <path>/.claude/settings.json
  local      <path>/.claude/settings.local.json
  effective  all three layered (default)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsShow,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate settings against the schema",
	Long: `Validate a settings file against the settings schema. Without a file,
every settings file that applies to the current directory is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsValidate,
}

func init() {
	settingsShowCmd.Flags().StringVar(&settingsScope, "scope", scopeEffective, "global, project, local or effective")
	settingsShowCmd.Flags().BoolVar(&settingsRender, "render", false, "Render as highlighted markdown")
	settingsValidateCmd.Flags().BoolVar(&settingsJSON, "json", false, "Output in JSON format")
	settingsCmd.AddCommand(settingsShowCmd, settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

// scopePaths returns the files read for scope.
func scopePaths(scope, claudeHome, project string) ([]string, error) {
	paths := settings.Paths(claudeHome, project)
	switch scope {
	case scopeGlobal:
		return paths[:1], nil
	case scopeProject:
		return paths[1:2], nil
	case scopeLocal:
		return paths[2:], nil
	case scopeEffective, "":
		return paths, nil
	default:
		return nil, fmt.Errorf("unknown scope %q (want global, project, local or effective)", scope)
	}
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	opts := resolveOptions("", "")
	paths, err := scopePaths(settingsScope, opts.ClaudeHome, projectArg(args))
	if err != nil {
		return output.NewUserError(err.Error())
	}
	p := newPrinter(cmd, false)

	doc, used, err := settings.Effective(paths...)
	if err != nil {
		return output.NewSystemError("reading settings", err)
	}
	if len(used) == 0 {
		return output.NewUserError(fmt.Sprintf("no settings found in %v", paths))
	}
	data, err := settings.Marshal(doc)
	if err != nil {
		return err
	}

	if !settingsRender {
		p.Print("%s", data)
		return nil
	}
	md := "```json\n" + string(data) + "```\n"
	for _, u := range used {
		md = "- `" + u + "`\n" + md
	}
	rendered, err := glamour.Render(md, "auto")
	if err != nil {
		return fmt.Errorf("rendering settings: %w", err)
	}
	p.Print("%s", rendered)
	return nil
}

// fileReport is the validation outcome for one file.
type fileReport struct {
	Path   string   `json:"path"`
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

func validateFiles(paths []string) ([]fileReport, bool) {
	var reports []fileReport
	allValid := true
	for _, path := range paths {
		res, err := settings.ValidateFile(path)
		if errors.Is(err, settings.ErrNotFound) {
			continue
		}
		r := fileReport{Path: path, Valid: err == nil && res.Valid}
		switch {
		case err != nil:
			r.Issues = []string{err.Error()}
		default:
			for _, issue := range res.Issues {
				r.Issues = append(r.Issues, issue.String())
			}
		}
		allValid = allValid && r.Valid
		reports = append(reports, r)
	}
	return reports, allValid
}

func runSettingsValidate(cmd *cobra.Command, args []string) error {
	opts := resolveOptions("", "")
	p := newPrinter(cmd, settingsJSON)

	paths := settings.Paths(opts.ClaudeHome, projectArg(nil))
	if len(args) > 0 {
		path := absPath(args[0])
		if _, err := os.Stat(path); err != nil {
			return output.NewUserError(fmt.Sprintf("%s: no such file", path))
		}
		paths = []string{path}
	}

	reports, ok := validateFiles(paths)
	if settingsJSON {
		if err := p.WriteJSON(reports); err != nil {
			return err
		}
	} else {
		if len(reports) == 0 {
			p.Info("No settings files found")
		}
		for _, r := range reports {
			if r.Valid {
				p.Check(output.StatusOK, "%s", r.Path)
				continue
			}
			p.Check(output.StatusFail, "%s", r.Path)
			for _, issue := range r.Issues {
				p.Println("        " + issue)
			}
		}
	}
	if !ok {
		return output.NewUserError("settings validation failed")
	}
	return nil
}
