//go:build integration

package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zco-team/zco-claude/internal/config"
	"github.com/zco-team/zco-claude/internal/history"
	"github.com/zco-team/zco-claude/internal/hook"
	"github.com/zco-team/zco-claude/internal/linker"
	"github.com/zco-team/zco-claude/internal/manifest"
	"github.com/zco-team/zco-claude/internal/settings"
)

// TestInitBreakRepair covers init -> links go stale -> fix-linked-repos ->
// a second repair finds nothing to do.
func TestInitBreakRepair(t *testing.T) {
	env := setupTestEnv(t)
	setupTemplate(t, env.TplDir)
	ctx := context.Background()

	a := applier()
	global := filepath.Join(env.HomeDir, ".claude", settings.FileName)
	if _, err := a.Apply(global, settings.Default("zco-claude")); err != nil {
		t.Fatalf("Apply(global): %v", err)
	}

	report, err := linker.Init(ctx, env.ProjectDir, linker.InitOptions{
		TplDir:     env.TplDir,
		RecordFile: env.RecordFile,
		UserHome:   env.HomeDir,
		Confirmer:  a.Prompter,
		Settings:   a,
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !report.Recorded {
		t.Error("project was not recorded")
	}

	claude := linker.ClaudeDir(env.ProjectDir)
	assertSymlink(t, filepath.Join(claude, "rules", "go"))
	assertSymlink(t, filepath.Join(claude, "skills", "review"))
	assertSymlink(t, filepath.Join(claude, "hooks", "notify.sh"))
	assertSymlink(t, filepath.Join(claude, "commands"))
	assertNotExists(t, filepath.Join(claude, "hooks", "_.draft.sh"))

	ignored, err := os.ReadFile(filepath.Join(env.ProjectDir, ".claudeignore"))
	if err != nil || !strings.Contains(string(ignored), "node_modules/") {
		t.Errorf(".claudeignore = %q, %v; want template patterns", ignored, err)
	}

	// Stale state: a link removed and a dangling link whose template entry is gone.
	os.Remove(filepath.Join(claude, "rules", "go"))
	os.RemoveAll(filepath.Join(env.TplDir, "rules", "docs"))

	rec, err := manifest.Load(env.RecordFile)
	if err != nil {
		t.Fatalf("Load record: %v", err)
	}
	rec.Verify(time.Now())
	if got := rec.Projects[0].Status; got != manifest.StatusBroken {
		t.Errorf("status before repair = %s, want %s", got, manifest.StatusBroken)
	}

	fleet, err := linker.RepairAll(ctx, rec, linker.FleetOptions{TplDir: env.TplDir, RemoveNotFound: true})
	if err != nil {
		t.Fatalf("RepairAll: %v", err)
	}
	if fleet.Fixed != 1 || fleet.Removed != 0 {
		t.Errorf("first repair fixed %d removed %d, want 1 and 0", fleet.Fixed, fleet.Removed)
	}
	if err := rec.Save(env.RecordFile); err != nil {
		t.Fatalf("Save record: %v", err)
	}
	assertSymlink(t, filepath.Join(claude, "rules", "go"))
	assertNotExists(t, filepath.Join(claude, "rules", "docs"))

	rec, _ = manifest.Load(env.RecordFile)
	fleet, err = linker.RepairAll(ctx, rec, linker.FleetOptions{TplDir: env.TplDir, RemoveNotFound: true})
	if err != nil {
		t.Fatalf("second RepairAll: %v", err)
	}
	if fleet.Fixed != 0 || fleet.Removed != 0 || fleet.OK != 1 {
		t.Errorf("second repair = %+v, want 0 fixed, 0 removed, 1 ok", fleet)
	}
}

// TestStopHookThenSummary saves a chat through the Stop registry and then
// summarizes the log directory.
func TestStopHookThenSummary(t *testing.T) {
	env := setupTestEnv(t)
	t.Setenv("ZCO_CHAT_SAVE_PLAIN", "1")
	t.Setenv("ZCO_CHAT_SAVE_CLI", "1")

	transcript, err := filepath.Abs("../../internal/transcript/testdata/session.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	logDir := filepath.Join(env.ProjectDir, "logs")
	hookEnv := config.ReadHookEnv(os.Getenv)
	hookEnv.SaveDir = logDir

	in := &hook.Input{
		HookEventName:  hook.EventStop,
		SessionID:      "s-1",
		TranscriptPath: transcript,
		CWD:            env.ProjectDir,
	}
	reg := hook.Defaults(hookEnv, time.Now)
	if err := reg.Dispatch(context.Background(), hook.EventStop, in); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("reading %s: %v", logDir, err)
	}
	if len(entries) != 2 {
		t.Fatalf("saved %d files, want plain and cli", len(entries))
	}

	sum, err := history.Summarize(logDir, 1, time.Now())
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Stats.TotalChats != 2 {
		t.Errorf("TotalChats = %d, want 2", sum.Stats.TotalChats)
	}
	if !strings.Contains(sum.Markdown, "对话历史汇总报告") {
		t.Error("summary is missing its title")
	}
}
