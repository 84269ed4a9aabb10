package linker

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/zco-team/zco-claude/internal/platform"
	"github.com/zco-team/zco-claude/internal/prompt"
)

func skipWithoutSymlinks(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" && !platform.IsSymlinkSupported(t.TempDir()) {
		t.Skip("symlinks unavailable")
	}
}

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(p, 0755); err != nil {
			t.Fatal(err)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLinkSubtreeFiltersEntries(t *testing.T) {
	skipWithoutSymlinks(t)
	tmp := t.TempDir()
	src := filepath.Join(tmp, "tpl", "rules")
	mkdirs(t, filepath.Join(src, "go"), filepath.Join(src, "cpp"), filepath.Join(src, "_.draft"))
	writeFile(t, filepath.Join(src, "README.md"), "readme")
	writeFile(t, filepath.Join(src, "_.notes.md"), "private")
	dst := filepath.Join(tmp, "project", ".claude", "rules")

	tests := []struct {
		name         string
		includeFiles bool
		want         []string
	}{
		{"dirs only", false, []string{"cpp", "go"}},
		{"with files", true, []string{"README.md", "cpp", "go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.RemoveAll(dst)
			changes, err := LinkSubtree(src, dst, Options{IncludeFiles: tt.includeFiles})
			if err != nil {
				t.Fatalf("LinkSubtree() error = %v", err)
			}
			entries, err := os.ReadDir(dst)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, e := range entries {
				got = append(got, e.Name())
			}
			if len(got) != len(tt.want) {
				t.Fatalf("linked = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("linked[%d] = %q, want %q", i, got[i], tt.want[i])
				}
				if !platform.PointsTo(filepath.Join(dst, got[i]), filepath.Join(src, got[i])) {
					t.Errorf("%s does not point into the template", got[i])
				}
			}
			for _, ch := range changes {
				if ch.Action != ActionCreated {
					t.Errorf("%s action = %q, want %q", ch.Name, ch.Action, ActionCreated)
				}
			}
		})
	}
}

func TestLinkSubtreeIdempotent(t *testing.T) {
	skipWithoutSymlinks(t)
	tmp := t.TempDir()
	src := filepath.Join(tmp, "tpl", "skills")
	mkdirs(t, filepath.Join(src, "review"), filepath.Join(src, "commit"))
	dst := filepath.Join(tmp, "project", ".claude", "skills")

	if _, err := LinkSubtree(src, dst, Options{}); err != nil {
		t.Fatal(err)
	}
	// A second run must not ask anything, so a nil Confirmer is fine.
	changes, err := LinkSubtree(src, dst, Options{})
	if err != nil {
		t.Fatalf("second LinkSubtree() error = %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("changes = %d, want 2", len(changes))
	}
	for _, ch := range changes {
		if ch.Action != ActionExists {
			t.Errorf("%s action = %q, want %q", ch.Name, ch.Action, ActionExists)
		}
	}
}

func TestLinkSubtreeSkipsSameDirectory(t *testing.T) {
	skipWithoutSymlinks(t)
	tmp := t.TempDir()
	src := filepath.Join(tmp, "tpl", "rules")
	mkdirs(t, filepath.Join(src, "go"))
	dst := filepath.Join(tmp, "project", ".claude", "rules")
	if err := platform.CreateSymlink(src, dst); err != nil {
		t.Fatal(err)
	}

	changes, err := LinkSubtree(src, dst, Options{})
	if err != nil {
		t.Fatalf("LinkSubtree() error = %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("changes = %v, want none", changes)
	}
	if platform.Exists(filepath.Join(src, "go", "go")) {
		t.Error("linked the template into itself")
	}
}

func TestLinkSubtreeErrors(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "tpl", "rules")
	mkdirs(t, src)
	file := filepath.Join(tmp, "not-a-dir")
	writeFile(t, file, "x")

	if _, err := LinkSubtree(filepath.Join(tmp, "missing"), filepath.Join(tmp, "out"), Options{}); !errors.Is(err, ErrNoSource) {
		t.Errorf("missing source error = %v, want ErrNoSource", err)
	}
	if _, err := LinkSubtree(src, file, Options{}); !errors.Is(err, ErrNotDir) {
		t.Errorf("file destination error = %v, want ErrNotDir", err)
	}
}

func TestLinkExistingPath(t *testing.T) {
	skipWithoutSymlinks(t)

	tests := []struct {
		name      string
		confirmer Confirmer
		want      Action
		linked    bool
	}{
		{"no confirmer", nil, ActionSkipped, false},
		{"declined", prompt.Fixed{Answer: false}, ActionSkipped, false},
		{"confirmed", prompt.Fixed{Answer: true}, ActionReplaced, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmp := t.TempDir()
			src := filepath.Join(tmp, "tpl", "commands")
			mkdirs(t, src)
			link := filepath.Join(tmp, "project", ".claude", "commands")
			writeFile(t, filepath.Join(link, "local.md"), "mine")

			got, err := Link(src, link, tt.confirmer)
			if err != nil {
				t.Fatalf("Link() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Link() = %q, want %q", got, tt.want)
			}
			if platform.PointsTo(link, src) != tt.linked {
				t.Errorf("PointsTo() = %v, want %v", !tt.linked, tt.linked)
			}
		})
	}
}

func TestLinkMissingSource(t *testing.T) {
	tmp := t.TempDir()
	got, err := Link(filepath.Join(tmp, "nope"), filepath.Join(tmp, "link"), nil)
	if !errors.Is(err, ErrNoSource) {
		t.Errorf("Link() error = %v, want ErrNoSource", err)
	}
	if got != ActionSkipped {
		t.Errorf("Link() = %q, want %q", got, ActionSkipped)
	}
}
