// Package ignore builds a project's .claudeignore from the patterns already
// in it, the user's global gitignore and the project's .gitignore.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zco-team/zco-claude/internal/fsutil"
	"github.com/zco-team/zco-claude/internal/platform"
)

// File names read and written by Merge.
const (
	FileName        = ".claudeignore"
	GlobalGitignore = ".gitignore_global"
	Gitignore       = ".gitignore"
	TemplateFile    = "DOT.claudeignore"
)

// Source is one input of a merge.
type Source struct {
	Label    string   `json:"label"`
	Path     string   `json:"path"`
	Patterns []string `json:"-"`
	// Contributed counts patterns this source added that no earlier source had.
	Contributed int `json:"contributed"`
}

// Report describes a finished merge.
type Report struct {
	Path    string    `json:"path"`
	Backup  string    `json:"backup,omitempty"`
	Sources []*Source `json:"sources"`
	Total   int       `json:"total"`
	Written bool      `json:"written"`
}

// ReadFile returns the patterns in an ignore file, dropping blank lines and
// comments. A missing file has no patterns.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return patterns, nil
}

// MergeUnique concatenates the sources' patterns, keeping only the first
// occurrence of each, and records each source's contribution count. The
// result is grouped by source in input order.
func MergeUnique(sources ...*Source) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, src := range sources {
		src.Contributed = 0
		for _, p := range src.Patterns {
			if seen[p] {
				continue
			}
			seen[p] = true
			merged = append(merged, p)
			src.Contributed++
		}
	}
	return merged
}

// Render formats merged patterns with a timestamp header and one section per
// contributing source. Sections are cut from merged by contribution counts,
// so merged must come from MergeUnique over the same sources.
func Render(merged []string, sources []*Source, now time.Time) string {
	lines := []string{"###; update@" + now.Format(time.DateTime), ""}
	start := 0
	for _, src := range sources {
		if src.Contributed == 0 {
			continue
		}
		lines = append(lines, "#######; merged from "+src.Label)
		lines = append(lines, merged[start:start+src.Contributed]...)
		lines = append(lines, "")
		start += src.Contributed
	}
	return strings.Join(lines, "\n")
}

// Merge rewrites <project>/.claudeignore. The global gitignore under
// userHome is used when it has patterns; otherwise the template's
// DOT.claudeignore stands in. An existing .claudeignore is backed up first.
// Nothing is written when no source has any pattern.
func Merge(project, userHome, tplDir string, now time.Time) (*Report, error) {
	target := filepath.Join(project, FileName)

	existing, err := load("existing "+FileName, target)
	if err != nil {
		return nil, err
	}
	global, err := load("$HOME/"+GlobalGitignore, filepath.Join(userHome, GlobalGitignore))
	if err != nil {
		return nil, err
	}
	if len(global.Patterns) == 0 && tplDir != "" {
		global, err = load("template "+TemplateFile, filepath.Join(tplDir, TemplateFile))
		if err != nil {
			return nil, err
		}
	}
	local, err := load(Gitignore, filepath.Join(project, Gitignore))
	if err != nil {
		return nil, err
	}

	sources := []*Source{existing, global, local}
	merged := MergeUnique(sources...)
	report := &Report{Path: target, Sources: sources, Total: len(merged)}
	if len(merged) == 0 {
		return report, nil
	}

	if platform.Exists(target) {
		report.Backup, err = fsutil.Backup(target, now, false)
		if err != nil {
			return report, err
		}
	}
	if err := fsutil.WriteAtomic(target, []byte(Render(merged, sources, now)), 0644); err != nil {
		return report, err
	}
	report.Written = true
	return report, nil
}

func load(label, path string) (*Source, error) {
	patterns, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Source{Label: label, Path: path, Patterns: patterns}, nil
}
