//go:build integration

package integration_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/zco-team/zco-claude/internal/output"
	"github.com/zco-team/zco-claude/internal/prompt"
	"github.com/zco-team/zco-claude/internal/settings"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir    string // HOME, with .claude/ for global settings and the record
	TplDir     string // template tree
	ProjectDir string // a mock project
	RecordFile string
}

// setupTestEnv creates isolated temp directories and points HOME at one of
// them so nothing touches the real ~/.claude.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:    t.TempDir(),
		TplDir:     t.TempDir(),
		ProjectDir: t.TempDir(),
	}
	env.RecordFile = filepath.Join(env.HomeDir, ".claude", "zco-linked-projects.json")
	t.Setenv("HOME", env.HomeDir)
	for _, key := range []string{"ZCO_AUTO_GIT_COMMIT_MODE", "ZCO_CHAT_SAVE_PLAIN", "ZCO_CHAT_SAVE_SPEC", "ZCO_CHAT_SAVE_CLI", "ZCO_CHAT_SAVE_DIR", "AICO_DOCS"} {
		t.Setenv(key, "")
	}
	return env
}

// setupTemplate writes a small template tree.
func setupTemplate(t *testing.T, tpl string) {
	t.Helper()
	for _, dir := range []string{"rules/go", "rules/docs", "skills/review", "commands", "hooks"} {
		if err := os.MkdirAll(filepath.Join(tpl, dir), 0755); err != nil {
			t.Fatalf("creating %s: %v", dir, err)
		}
	}
	writeFile(t, filepath.Join(tpl, "rules/go/style.md"), "# Go style\n")
	writeFile(t, filepath.Join(tpl, "commands/plan.md"), "# plan\n")
	writeFile(t, filepath.Join(tpl, "hooks/notify.sh"), "#!/bin/sh\n")
	writeFile(t, filepath.Join(tpl, "hooks/_.draft.sh"), "#!/bin/sh\n")
	writeFile(t, filepath.Join(tpl, "DOT.claudeignore"), "node_modules/\n*.log\n")
}

func applier() *settings.Applier {
	return &settings.Applier{
		Prompter: prompt.Fixed{Answer: true, Choice: "y"},
		Printer:  output.NewPrinter(io.Discard, false, false),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func assertSymlink(t *testing.T, path string) {
	t.Helper()
	info, err := os.Lstat(path)
	if err != nil {
		t.Errorf("expected symlink at %s: %v", path, err)
		return
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Errorf("%s is not a symlink", path)
	}
}

func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); err == nil {
		t.Errorf("expected %s to not exist", path)
	}
}
