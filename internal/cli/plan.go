package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/zco-team/zco-claude/internal/output"
	"github.com/zco-team/zco-claude/internal/plan"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan document metadata",
}

var planUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a plan's status and tags from a JSON request on stdin",
	Long: `Read {"plan_path": "...", "action": "...", "tags": [...]} from stdin and
update the plan's YAML front matter.

Actions: start, complete, fail, cancel.
On success the updated metadata is printed to stdout as JSON. On failure
{"success": false, "error": "..."} is printed to stderr and the exit code is 1.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPlanUpdate(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), time.Now())
	},
}

func init() {
	planCmd.AddCommand(planUpdateCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlanUpdate(in io.Reader, stdout, stderr io.Writer, now time.Time) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return planFailure(stderr, fmt.Errorf("reading stdin: %w", err))
	}
	req, err := plan.DecodeRequest(data)
	if err != nil {
		return planFailure(stderr, err)
	}
	res, err := plan.Update(req, now)
	if err != nil {
		return planFailure(stderr, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return planFailure(stderr, err)
	}
	_, err = stdout.Write(buf.Bytes())
	return err
}

// planFailure writes the JSON failure and returns an error fang will not
// print again.
func planFailure(stderr io.Writer, err error) error {
	data, merr := json.Marshal(plan.Failure{Success: false, Error: err.Error()})
	if merr != nil {
		return merr
	}
	fmt.Fprintln(stderr, string(data))
	return output.NewSilentError(output.ExitUserError)
}
