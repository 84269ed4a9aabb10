package hook

import (
	"context"
	"log/slog"

	"github.com/zco-team/zco-claude/internal/config"
	"github.com/zco-team/zco-claude/internal/gitx"
)

// Commit messages written by GitAutoCommit.
const (
	MsgStaged    = "tm: auto commit staged"
	MsgUnstaged  = "tm: auto commit unstaged"
	MsgUntracked = "tm: auto commit untracked"
)

// GitAutoCommit snapshots the working tree of the payload's cwd. The mode
// sets how far it reaches: 1 commits what is staged, 2 also stages and
// commits tracked modifications, 3 also adds untracked files. At most one
// commit is made per call, for the first kind of change found.
type GitAutoCommit struct {
	Mode int
}

// Name implements Handler.
func (GitAutoCommit) Name() string { return "git-auto-commit" }

// Handle implements Handler.
func (g GitAutoCommit) Handle(ctx context.Context, in *Input) error {
	_, err := g.Run(ctx, in.CWD)
	return err
}

// Run commits in dir and returns which kind of change was committed: "staged",
// "unstaged", "untracked", or "" when nothing was.
func (g GitAutoCommit) Run(ctx context.Context, dir string) (string, error) {
	if g.Mode <= config.CommitOff {
		return "", nil
	}
	if dir == "" {
		dir = "."
	}
	if !gitx.IsRepo(ctx, dir) {
		slog.Info("not a git repository, skipping auto commit", "dir", dir)
		return "", nil
	}

	var (
		kind string
		err  error
	)
	if g.Mode >= config.CommitStaged {
		if kind, err = g.try(ctx, dir, "staged", gitx.HasStaged, nil, MsgStaged); kind != "" || err != nil {
			return kind, err
		}
	}
	if g.Mode >= config.CommitUnstaged {
		if kind, err = g.try(ctx, dir, "unstaged", gitx.HasUnstaged, []string{"-u"}, MsgUnstaged); kind != "" || err != nil {
			return kind, err
		}
	}
	if g.Mode >= config.CommitUntracked {
		if kind, err = g.try(ctx, dir, "untracked", gitx.HasUntracked, []string{"."}, MsgUntracked); kind != "" || err != nil {
			return kind, err
		}
	}
	slog.Info("nothing to auto commit", "dir", dir)
	return "", nil
}

// try commits one kind of change when check finds some. add, when set, is
// staged first.
func (GitAutoCommit) try(ctx context.Context, dir, kind string, check func(context.Context, string) (bool, error), add []string, msg string) (string, error) {
	found, err := check(ctx, dir)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	slog.Info("auto committing", "kind", kind, "dir", dir)
	if len(add) > 0 {
		if err := gitx.Add(ctx, dir, add...); err != nil {
			return "", err
		}
	}
	if err := gitx.Commit(ctx, dir, msg); err != nil {
		return "", err
	}
	return kind, nil
}
