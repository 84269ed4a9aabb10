// Package gitx runs the system git binary for the few repository queries and
// commits the hooks and commands need.
package gitx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTimeout bounds a single git invocation.
const DefaultTimeout = 10 * time.Second

// ErrGitNotFound is returned when git is not on PATH.
var ErrGitNotFound = errors.New("git not found in PATH")

// run executes git in dir and returns trimmed stdout. Stderr is folded into
// the error. The environment disables credential prompts and localization.
func run(ctx context.Context, dir string, args ...string) (string, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return "", ErrGitNotFound
	}

	cmd := exec.CommandContext(ctx, gitPath, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_TERMINAL_PROMPT=0",
		"LC_ALL=C",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(args) > 0 {
			return "", fmt.Errorf("git %s: %s: %w", args[0], msg, err)
		}
		return "", fmt.Errorf("git: %s: %w", msg, err)
	}
	return strings.TrimRight(stdout.String(), "\n\r"), nil
}

// differs runs a `git diff --quiet` style command, which exits 1 when there
// are differences.
func differs(ctx context.Context, dir string, args ...string) (bool, error) {
	_, err := run(ctx, dir, args...)
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, err
}

// IsRepo reports whether dir is inside a git work tree.
func IsRepo(ctx context.Context, dir string) bool {
	_, err := run(ctx, dir, "rev-parse", "--git-dir")
	return err == nil
}

// Toplevel returns the root of the work tree containing dir. When dir is not
// in a repository, or git is unavailable, dir itself is returned.
func Toplevel(ctx context.Context, dir string) string {
	out, err := run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil || out == "" {
		return dir
	}
	return filepath.Clean(out)
}

// HasStaged reports whether the index differs from HEAD.
func HasStaged(ctx context.Context, dir string) (bool, error) {
	return differs(ctx, dir, "diff", "--cached", "--quiet")
}

// HasUnstaged reports whether tracked files differ from the index.
func HasUnstaged(ctx context.Context, dir string) (bool, error) {
	return differs(ctx, dir, "diff", "--quiet")
}

// HasUntracked reports whether there are untracked, non-ignored files.
func HasUntracked(ctx context.Context, dir string) (bool, error) {
	out, err := run(ctx, dir, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// Add stages paths; pass "-u" to stage modifications of tracked files only.
func Add(ctx context.Context, dir string, paths ...string) error {
	_, err := run(ctx, dir, append([]string{"add"}, paths...)...)
	return err
}

// Commit records the index with message.
func Commit(ctx context.Context, dir, message string) error {
	_, err := run(ctx, dir, "commit", "-m", message)
	return err
}
