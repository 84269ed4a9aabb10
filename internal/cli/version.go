package cli

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
	"github.com/zco-team/zco-claude/internal/branding"
	"github.com/zco-team/zco-claude/internal/manifest"
)

var (
	versionShort bool
	versionJSON  bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version info as JSON")
	rootCmd.AddCommand(versionCmd)
}

// versionString normalizes the build version through semver when it parses,
// so "1.2" prints as "1.2.0". Dev builds print as they are.
func versionString() string {
	if v, err := semver.NewVersion(buildVersion); err == nil {
		return v.String()
	}
	return buildVersion
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
			return nil
		}

		if versionJSON {
			return newPrinter(cmd, true).WriteJSON(map[string]string{
				"version":        versionString(),
				"commit":         buildCommit,
				"date":           buildDate,
				"record_version": manifest.CurrentVersion,
				"repository":     "https://github.com/" + branding.GitHubRepo(),
			})
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (commit: %s, built: %s, record format %s)\n",
			branding.CLIName(), versionString(), buildCommit, buildDate, manifest.CurrentVersion)
		return nil
	},
}
