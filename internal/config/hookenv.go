package config

import (
	"strconv"
	"strings"

	"github.com/zco-team/zco-claude/internal/branding"
)

// Auto-commit modes read from ZCO_AUTO_GIT_COMMIT_MODE.
const (
	CommitOff       = 0
	CommitStaged    = 1
	CommitUnstaged  = 2
	CommitUntracked = 3
)

// HookEnv holds the environment flags that gate hook handlers.
type HookEnv struct {
	AutoCommitMode int
	SavePlain      bool
	SaveSpec       bool
	SaveCLI        bool
	// SaveDir is empty when ZCO_CHAT_SAVE_DIR is unset.
	SaveDir string
}

// ReadHookEnv reads hook flags through getenv (os.Getenv in production).
// Save flags are enabled only by the exact value "1"; a commit mode that is
// unparsable or outside 0..3 counts as off.
func ReadHookEnv(getenv func(string) string) HookEnv {
	mode, err := strconv.Atoi(strings.TrimSpace(getenv(branding.EnvVar("auto_git_commit_mode"))))
	if err != nil || mode < CommitOff || mode > CommitUntracked {
		mode = CommitOff
	}
	return HookEnv{
		AutoCommitMode: mode,
		SavePlain:      getenv(branding.EnvVar("chat_save_plain")) == "1",
		SaveSpec:       getenv(branding.EnvVar("chat_save_spec")) == "1",
		SaveCLI:        getenv(branding.EnvVar("chat_save_cli")) == "1",
		SaveDir:        getenv(branding.EnvVar("chat_save_dir")),
	}
}
