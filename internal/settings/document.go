package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zco-team/zco-claude/internal/fsutil"
)

// File names inside a .claude directory.
const (
	FileName      = "settings.json"
	LocalFileName = "settings.local.json"
)

// ErrNotFound is returned by Load when the settings file does not exist.
var ErrNotFound = errors.New("settings file not found")

// Document is a decoded settings.json object.
type Document map[string]any

// Parse decodes a settings document. Numbers stay json.Number so they are
// written back exactly as read.
func Parse(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing settings JSON: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Load reads and parses the settings file at path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Marshal encodes doc as two-space indented JSON with a trailing newline.
// Non-ASCII text and HTML characters are written literally.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes doc to path atomically.
func Save(path string, doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	return fsutil.WriteAtomic(path, data, 0644)
}

// Clone returns a deep copy of doc.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(map[string]any(d)).(map[string]any)
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Document:
		return cloneValue(map[string]any(val))
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

// Paths returns the three settings files in priority order, lowest first:
// global, project shared, project local.
func Paths(claudeHome, project string) []string {
	dir := filepath.Join(project, ".claude")
	return []string{
		filepath.Join(claudeHome, FileName),
		filepath.Join(dir, FileName),
		filepath.Join(dir, LocalFileName),
	}
}

// Effective loads the layered settings for a project. Missing files are
// skipped; later files win scalar conflicts and their list entries are
// appended.
func Effective(paths ...string) (Document, []string, error) {
	result := Document{}
	var used []string
	for _, p := range paths {
		doc, err := Load(p)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, used, err
		}
		result = Merge(result, doc, TemplatePriority)
		used = append(used, p)
	}
	return result, used, nil
}
