package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zco-team/zco-claude/internal/branding"
	"github.com/zco-team/zco-claude/internal/config"
	"github.com/zco-team/zco-claude/internal/output"
)

var configJSON bool

func init() {
	configListCmd.Flags().BoolVar(&configJSON, "json", false, "Output in JSON format")
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage tool configuration",
	Long: `Read and write configuration stored at ~/.claude/zco-claude.yaml.

Keys: tpl_dir, record_file, chat_save_dir. Each can also be set through the
matching ZCO_<KEY> environment variable, which takes precedence over the file.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if !config.IsKnownKey(key) {
			return output.NewUserError(fmt.Sprintf("unknown config key %q (valid: %v)", key, config.Keys()))
		}
		if err := config.Set(key, value); err != nil {
			return output.NewSystemError("saving config", err)
		}
		newPrinter(cmd, false).Success("%s = %s", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !config.IsKnownKey(args[0]) {
			return output.NewUserError(fmt.Sprintf("unknown config key %q (valid: %v)", args[0], config.Keys()))
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.Get(args[0]))
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every key with its effective value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := config.Resolve()
		values := map[string]string{
			config.KeyTplDir:      opts.TplDir,
			config.KeyRecordFile:  opts.RecordFile,
			config.KeyChatSaveDir: opts.ChatSaveDir,
		}
		if configJSON {
			return newPrinter(cmd, true).WriteJSON(values)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "KEY\tENV\tVALUE")
		for _, key := range config.Keys() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", key, branding.EnvVar(key), values[key])
		}
		return w.Flush()
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), config.FilePath())
		return nil
	},
}
