package hook

import (
	"time"

	"github.com/zco-team/zco-claude/internal/config"
)

// Defaults returns the registry behind `hook stop` and
// `hook user-prompt-submit`: the three chat savers on Stop and git
// auto-commit on UserPromptSubmit, each gated by env.
func Defaults(env config.HookEnv, now func() time.Time) *Registry {
	r := NewRegistry()
	r.Register(EventUserPromptSubmit, GitAutoCommit{Mode: env.AutoCommitMode})
	for _, s := range []SaveChat{
		{Style: StylePlain, Enabled: env.SavePlain},
		{Style: StyleSpec, Enabled: env.SaveSpec},
		{Style: StyleCLI, Enabled: env.SaveCLI},
	} {
		s.Dir = env.SaveDir
		s.Now = now
		r.Register(EventStop, s)
	}
	return r
}
