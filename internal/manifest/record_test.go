package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 9, 30, 0, 0, time.Local)

func TestLoadMissingIsEmpty(t *testing.T) {
	rec, err := Load(filepath.Join(t.TempDir(), "record.json"))
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, rec.Version)
	assert.Empty(t, rec.Projects)
}

func TestParseLegacy(t *testing.T) {
	data := []byte(`{"linked-projects": [["/a", "2024-01-01 00:00:00"], ["/b", "2024-02-02 00:00:00"], ["/a", "2024-03-03 00:00:00"], []]}`)
	rec, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, rec.Projects, 2)
	assert.Equal(t, "/a", rec.Projects[0].Path)
	assert.Equal(t, "2024-03-03 00:00:00", rec.Projects[0].LinkedAt)
	assert.NotEmpty(t, rec.Projects[0].ID)
	assert.NotEqual(t, rec.Projects[0].ID, rec.Projects[1].ID)
}

func TestParseRejectsNewerMajor(t *testing.T) {
	_, err := Parse([]byte(`{"version": "3.0.0", "linked-projects": []}`))
	assert.True(t, errors.Is(err, ErrUnsupportedVersion), "err = %v", err)

	_, err = Parse([]byte(`{"version": "2.9.1", "linked-projects": []}`))
	assert.NoError(t, err)
}

func TestParseValidatesEntries(t *testing.T) {
	_, err := Parse([]byte(`{"version": "2.0.0", "linked-projects": [{"path": "/a"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid record")
}

func TestLegacyUpgradedOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"linked-projects": [["/x", "2024-01-01 00:00:00"]]}`), 0644))

	rec, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, rec.Save(path))

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, again.Version)
	require.Len(t, again.Projects, 1)
	assert.Equal(t, rec.Projects[0].ID, again.Projects[0].ID)
}

func TestUpsertMatchesResolvedPath(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "proj")
	require.NoError(t, os.MkdirAll(filepath.Join(project, ".git"), 0755))
	alias := filepath.Join(dir, "alias")
	require.NoError(t, os.Symlink(project, alias))

	rec := New()
	first := rec.Upsert(project, "/tpl", now)
	second := rec.Upsert(alias, "/tpl2", now.Add(time.Hour))

	require.Len(t, rec.Projects, 1)
	assert.Same(t, first, second)
	assert.Equal(t, "/tpl2", second.TplDir)
	assert.Equal(t, "2025-06-01 10:30:00", second.LinkedAt)
	assert.True(t, second.IsGit)
	assert.Equal(t, StatusOK, second.Status)
}

func TestRefreshKeepsLinkedAt(t *testing.T) {
	project := t.TempDir()
	rec := New()
	rec.Upsert(project, "/tpl", now)

	e := rec.Refresh(project, "/tpl", now.Add(time.Hour))
	require.Len(t, rec.Projects, 1)
	assert.Equal(t, "2025-06-01 09:30:00", e.LinkedAt)
	assert.Equal(t, "2025-06-01 10:30:00", e.LastCheckAt)

	other := t.TempDir()
	fresh := rec.Refresh(other, "/tpl", now.Add(time.Hour))
	assert.Equal(t, "2025-06-01 10:30:00", fresh.LinkedAt, "a new entry gets the refresh time")
}

func TestVerifyAndPrune(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good")
	broken := filepath.Join(dir, "broken")
	gone := filepath.Join(dir, "gone")
	for _, p := range []string{good, broken, gone} {
		require.NoError(t, os.MkdirAll(filepath.Join(p, ".claude", "rules"), 0755))
	}
	require.NoError(t, os.Symlink(filepath.Join(dir, "nowhere"), filepath.Join(broken, ".claude", "rules", "go")))

	rec := New()
	for _, p := range []string{good, broken, gone} {
		rec.Upsert(p, "", now)
	}
	require.NoError(t, os.RemoveAll(gone))

	rec.Verify(now.Add(time.Minute))
	statuses := map[string]Status{}
	for _, e := range rec.Projects {
		statuses[filepath.Base(e.Path)] = e.Status
		assert.Equal(t, "2025-06-01 09:31:00", e.LastCheckAt)
	}
	assert.Equal(t, map[string]Status{"good": StatusOK, "broken": StatusBroken, "gone": StatusMissing}, statuses)

	removed := rec.Prune()
	require.Len(t, removed, 1)
	assert.Equal(t, "gone", filepath.Base(removed[0].Path))
	assert.Len(t, rec.Projects, 2)
	assert.Empty(t, rec.Prune(), "a second prune removes nothing")
}
