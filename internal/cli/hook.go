package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zco-team/zco-claude/internal/config"
	"github.com/zco-team/zco-claude/internal/hook"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Claude Code hook handlers",
	Long: `Hook handlers invoked by Claude Code with the event payload on stdin.

Every hook exits 0: failures are logged to stderr and never block the
session. Handlers are gated by environment flags:

  ZCO_AUTO_GIT_COMMIT_MODE   0 off, 1 staged, 2 +unstaged, 3 +untracked
  ZCO_CHAT_SAVE_PLAIN=1      save a plain transcript on Stop
  ZCO_CHAT_SAVE_SPEC=1       save a spec-style transcript on Stop
  ZCO_CHAT_SAVE_CLI=1        save a CLI-style transcript on Stop
  ZCO_CHAT_SAVE_DIR          where transcripts go (default _.zco_hist)`,
}

func init() {
	for _, ev := range []struct {
		use   string
		event hook.EventType
	}{
		{"stop", hook.EventStop},
		{"user-prompt-submit", hook.EventUserPromptSubmit},
	} {
		event := ev.event
		hookCmd.AddCommand(&cobra.Command{
			Use:   ev.use,
			Short: "Dispatch the " + string(event) + " handlers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				env := hookEnv(os.Getenv)
				reg := hook.Defaults(env, time.Now)
				runHook(cmd.Context(), cmd.InOrStdin(), func(ctx context.Context, in *hook.Input) error {
					return reg.Dispatch(ctx, event, in)
				})
				return nil
			},
		})
	}

	handlers := map[string]func(config.HookEnv) hook.Handler{
		"git-auto-commit": func(env config.HookEnv) hook.Handler {
			return hook.GitAutoCommit{Mode: env.AutoCommitMode}
		},
		"save-chat-plain": func(env config.HookEnv) hook.Handler {
			return hook.SaveChat{Style: hook.StylePlain, Enabled: env.SavePlain, Dir: env.SaveDir}
		},
		"save-chat-spec": func(env config.HookEnv) hook.Handler {
			return hook.SaveChat{Style: hook.StyleSpec, Enabled: env.SaveSpec, Dir: env.SaveDir}
		},
		"save-chat-cli": func(env config.HookEnv) hook.Handler {
			return hook.SaveChat{Style: hook.StyleCLI, Enabled: env.SaveCLI, Dir: env.SaveDir}
		},
		"debug": func(env config.HookEnv) hook.Handler {
			return hook.Debug{Dir: env.SaveDir}
		},
	}
	for name, build := range handlers {
		hookCmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: "Run the " + name + " handler alone",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				h := build(hookEnv(os.Getenv))
				runHook(cmd.Context(), cmd.InOrStdin(), func(ctx context.Context, in *hook.Input) error {
					ctx, cancel := context.WithTimeout(ctx, hook.DefaultTimeout)
					defer cancel()
					return h.Handle(ctx, in)
				})
				return nil
			},
		})
	}

	rootCmd.AddCommand(hookCmd)
}

// hookEnv reads the hook flags, using the configured chat_save_dir when the
// environment does not set one.
func hookEnv(getenv func(string) string) config.HookEnv {
	env := config.ReadHookEnv(getenv)
	if env.SaveDir == "" {
		env.SaveDir = config.Get(config.KeyChatSaveDir)
	}
	return env
}

// runHook decodes the payload from r and hands it to fn. Nothing is
// returned: a hook must never fail the Claude Code session.
func runHook(ctx context.Context, r io.Reader, fn func(context.Context, *hook.Input) error) {
	in, err := hook.ReadInput(r)
	if errors.Is(err, hook.ErrEmptyInput) {
		slog.Debug("hook called without input")
		return
	}
	if err != nil {
		slog.Error("reading hook input", "error", err.Error())
		return
	}
	if err := fn(ctx, in); err != nil {
		slog.Error("hook failed", "event", string(in.HookEventName), "error", err.Error())
	}
}
