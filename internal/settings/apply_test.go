package settings

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zco-team/zco-claude/internal/output"
	"github.com/zco-team/zco-claude/internal/prompt"
)

var fixedNow = time.Date(2025, 3, 4, 10, 20, 30, 0, time.UTC)

func newApplier(p prompt.Prompter) (*Applier, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Applier{
		Prompter: p,
		Printer:  output.NewPrinter(&buf, false, false),
		Now:      func() time.Time { return fixedNow },
		Width:    40,
	}, &buf
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestApplyCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	a, _ := newApplier(prompt.Fixed{Choice: "n"})

	res, err := a.Apply(path, Default("zco-claude"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.Empty(t, res.Backup)

	got, err := Load(path)
	require.NoError(t, err)
	assert.True(t, Equal(got, Default("zco-claude")))
}

func TestApplyUnchangedWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	data, err := Marshal(Default("zco-claude"))
	require.NoError(t, err)
	writeFile(t, path, string(data))

	a, _ := newApplier(prompt.Fixed{Choice: "y"})
	res, err := a.Apply(path, Default("zco-claude"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, res.Outcome)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no backup should be written")
}

func TestApplyChoices(t *testing.T) {
	const existing = `{"model":"opus","permissions":{"allow":["Bash(git:*)"]}}`
	tpl := Document{"model": "sonnet", "permissions": map[string]any{"allow": []any{"Bash(ls:*)"}}}

	tests := []struct {
		name        string
		answers     string
		want        Outcome
		wantModel   string
		wantAllow   []any
		wantBackup  bool
		wantPrinted string
	}{
		{"keep by default", "\n", OutcomeKept, "opus", []any{"Bash(git:*)"}, false, "Kept"},
		{"overwrite", "y\n", OutcomeReplaced, "sonnet", []any{"Bash(ls:*)"}, true, "Replaced"},
		{"merge template wins", "m\n1\n", OutcomeMerged, "sonnet", []any{"Bash(git:*)", "Bash(ls:*)"}, true, "Merged"},
		{"merge existing wins", "m\n2\n", OutcomeMerged, "opus", []any{"Bash(git:*)", "Bash(ls:*)"}, true, "existing-priority"},
		{"diff then keep", "d\nn\n", OutcomeKept, "opus", []any{"Bash(git:*)"}, false, "+++ b/settings.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.json")
			writeFile(t, path, existing)

			var out bytes.Buffer
			a, buf := newApplier(prompt.NewLine(strings.NewReader(tt.answers), &out))
			res, err := a.Apply(path, tpl)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Outcome)
			assert.Contains(t, buf.String(), tt.wantPrinted)

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, got["model"])
			assert.Equal(t, tt.wantAllow, got["permissions"].(map[string]any)["allow"])

			if !tt.wantBackup {
				assert.Empty(t, res.Backup)
				return
			}
			assert.Equal(t, path+".bak.20250304_102030", res.Backup)
			backup, err := os.ReadFile(res.Backup)
			require.NoError(t, err)
			assert.Equal(t, existing, string(backup))
			info, err := os.Stat(res.Backup)
			require.NoError(t, err)
			assert.Zero(t, info.Mode().Perm()&0222, "backup must be read-only")
		})
	}
}

func TestApplyMergeWithoutChangeSkipsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, `{"model":"opus","env":{"A":"1"}}`)

	a, _ := newApplier(prompt.Fixed{Choice: "m"})
	// Fixed answers "m" to both questions; "m" is not a policy key, so the
	// merge falls back to template priority.
	res, err := a.Apply(path, Document{"env": map[string]any{"A": "1"}, "model": "sonnet"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeMerged, res.Outcome)

	res, err = a.Apply(path, Document{"env": map[string]any{"A": "1"}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, res.Outcome)
	assert.Empty(t, res.Backup)
}

func TestApplyUnparsableExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, "{not json")

	a, buf := newApplier(prompt.Fixed{Answer: true})
	res, err := a.Apply(path, Document{"model": "sonnet"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplaced, res.Outcome)
	assert.NotEmpty(t, res.Backup)
	assert.Contains(t, buf.String(), "-{not json")
}

func TestApplyWritesThroughSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}
	tmp := t.TempDir()
	dotfile := filepath.Join(tmp, "dotfiles", "settings.json")
	link := filepath.Join(tmp, "home", ".claude", "settings.json")
	writeFile(t, dotfile, `{"env": {"A": "1"}}`)
	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0755))
	require.NoError(t, os.Symlink(dotfile, link))

	a, _ := newApplier(prompt.Fixed{Choice: "y"})
	res, err := a.Apply(link, Default("zco-claude"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplaced, res.Outcome)
	assert.NotEmpty(t, res.Backup)

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "settings link was replaced by a file")

	got, err := Load(dotfile)
	require.NoError(t, err)
	assert.True(t, Equal(got, Default("zco-claude")), "dotfile was not updated")
}
