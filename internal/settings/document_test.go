package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalKeepsUnicodeAndNumbers(t *testing.T) {
	doc, err := Parse([]byte(`{"title":"对话 <b>","timeout":1.50}`))
	require.NoError(t, err)

	data, err := Marshal(doc)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, "对话 <b>")
	assert.Contains(t, s, "1.50")
	assert.True(t, strings.HasSuffix(s, "}\n"))
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".claude", FileName)
	doc := Default("zco-claude")
	require.NoError(t, Save(path, doc))

	got, err := Load(path)
	require.NoError(t, err)
	assert.True(t, Equal(doc, got))
}

func TestEffectiveLaterFilesWin(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global.json")
	local := filepath.Join(dir, "local.json")
	require.NoError(t, os.WriteFile(global, []byte(`{"model":"opus","env":{"A":"1"}}`), 0644))
	require.NoError(t, os.WriteFile(local, []byte(`{"model":"haiku","env":{"B":"2"}}`), 0644))

	doc, used, err := Effective(global, filepath.Join(dir, "missing.json"), local)
	require.NoError(t, err)
	assert.Equal(t, []string{global, local}, used)
	assert.Equal(t, "haiku", doc["model"])
	assert.Len(t, doc["env"], 2)
}

func TestDefaultIsValid(t *testing.T) {
	res, err := Validate(Default("zco-claude"))
	require.NoError(t, err)
	assert.True(t, res.Valid, "issues: %v", res.Issues)
}

func TestValidateRejectsBadShapes(t *testing.T) {
	doc := Document{
		"env":   map[string]any{"A": 1},
		"hooks": map[string]any{"Stop": "not a list"},
	}
	res, err := Validate(doc)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Issues)
}
