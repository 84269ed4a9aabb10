package gitx

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// initRepo creates a repository with one committed file.
func initRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	ctx := context.Background()
	for _, args := range [][]string{
		{"init", "-q"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test"},
		{"config", "commit.gpgsign", "false"},
	} {
		if _, err := run(ctx, dir, args...); err != nil {
			t.Fatalf("git %v: %v", args, err)
		}
	}
	writeFile(t, filepath.Join(dir, "a.txt"), "one\n")
	if err := Add(ctx, dir, "."); err != nil {
		t.Fatal(err)
	}
	if err := Commit(ctx, dir, "init"); err != nil {
		t.Fatal(err)
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestToplevel(t *testing.T) {
	dir := initRepo(t)
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(Toplevel(ctx, sub))
	if got != want {
		t.Errorf("Toplevel() = %q, want %q", got, want)
	}

	plain := t.TempDir()
	if got := Toplevel(ctx, plain); got != plain {
		t.Errorf("Toplevel(non-repo) = %q, want %q", got, plain)
	}
	if IsRepo(ctx, plain) {
		t.Error("IsRepo(non-repo) = true")
	}
}

func TestChangeDetection(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()

	check := func(name string, f func(context.Context, string) (bool, error), want bool) {
		t.Helper()
		got, err := f(ctx, dir)
		if err != nil {
			t.Fatalf("%s() error = %v", name, err)
		}
		if got != want {
			t.Errorf("%s() = %v, want %v", name, got, want)
		}
	}

	check("HasStaged", HasStaged, false)
	check("HasUnstaged", HasUnstaged, false)
	check("HasUntracked", HasUntracked, false)

	writeFile(t, filepath.Join(dir, "a.txt"), "two\n")
	writeFile(t, filepath.Join(dir, "new.txt"), "new\n")
	check("HasUnstaged", HasUnstaged, true)
	check("HasUntracked", HasUntracked, true)

	if err := Add(ctx, dir, "-u"); err != nil {
		t.Fatal(err)
	}
	check("HasStaged", HasStaged, true)
	check("HasUnstaged", HasUnstaged, false)
	check("HasUntracked", HasUntracked, true)
}
