// Package history summarizes the chat logs saved by the hooks into a single
// Markdown report: how many sessions ran, which tools they used, which files
// and URLs they touched.
package history

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
)

// TimeLayout is the timestamp format of saved chat logs and the report.
const TimeLayout = "2006-01-02 15:04:05"

var (
	summaryToolPattern = regexp.MustCompile(`<summary>.*?<b>([\p{L}\p{N}_]+)</b>`)
	countToolPattern   = regexp.MustCompile(`-\s+([\p{L}\p{N}_]+):\s*\d+`)
	fileRefPattern     = regexp.MustCompile("📄\\s+`?([^`\\n]+)`?")
	filePathPattern    = regexp.MustCompile(`"file_path":\s*"([^"]+)"`)
	urlRefPattern      = regexp.MustCompile(`🌐\s+(https?://[^\s]+)`)
	titlePattern       = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	timePattern        = regexp.MustCompile(`\*\*(?:时间|Time)\*\*[:：]\s*(.+)`)
)

// ToolCount is the number of times a tool shows up.
type ToolCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Chat is what the summary extracts from one saved log.
type Chat struct {
	File    string      `json:"file"`
	Title   string      `json:"title"`
	ModTime time.Time   `json:"mod_time"`
	Time    time.Time   `json:"time"`
	Tools   []ToolCount `json:"tools,omitempty"`
	Files   []string    `json:"files,omitempty"`
	URLs    []string    `json:"urls,omitempty"`
}

// Window bounds the modification times of the logs to summarize. A zero
// Start means all history.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowFor returns the window covering the last days calendar days up to
// now, today included. days <= 0 selects all history.
func WindowFor(days int, now time.Time) Window {
	if days <= 0 {
		return Window{End: now}
	}
	start := now.AddDate(0, 0, -(days - 1))
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: now}
}

// All reports whether the window is unbounded.
func (w Window) All() bool { return w.Start.IsZero() }

func (w Window) contains(t time.Time) bool {
	if w.All() {
		return true
	}
	return !t.Before(w.Start) && !t.After(w.End)
}

// Collect returns the *.md logs in dir modified within w, oldest first. Debug
// dumps and earlier summaries (names containing "debug" or "smy") are
// skipped. A missing dir has no logs.
func Collect(dir string, w Window) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history dir: %w", err)
	}

	type logFile struct {
		path  string
		mtime time.Time
	}
	var logs []logFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".md" {
			continue
		}
		if strings.Contains(name, "debug") || strings.Contains(name, "smy") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if w.contains(info.ModTime()) {
			logs = append(logs, logFile{filepath.Join(dir, name), info.ModTime()})
		}
	}
	slices.SortStableFunc(logs, func(a, b logFile) int { return a.mtime.Compare(b.mtime) })

	paths := make([]string, len(logs))
	for i, l := range logs {
		paths[i] = l.path
	}
	return paths, nil
}

// ParseChat extracts the title, time, tools, files and URLs of a saved log.
// The time comes from the log's time line, or its modification time when
// that is missing or unparsable.
func ParseChat(path string) (*Chat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := string(data)

	c := &Chat{
		File:    filepath.Base(path),
		Title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		ModTime: info.ModTime(),
		Time:    info.ModTime(),
	}
	if m := titlePattern.FindStringSubmatch(content); m != nil {
		c.Title = strings.TrimSpace(m[1])
	}
	if m := timePattern.FindStringSubmatch(content); m != nil {
		if t, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(m[1]), time.Local); err == nil {
			c.Time = t
		}
	}

	var tools []string
	tools = append(tools, submatches(summaryToolPattern, content)...)
	tools = append(tools, submatches(countToolPattern, content)...)
	c.Tools = countTools(tools)

	files := append(submatches(fileRefPattern, content), submatches(filePathPattern, content)...)
	c.Files = uniqueSorted(files)
	c.URLs = uniqueSorted(submatches(urlRefPattern, content))
	return c, nil
}

func submatches(re *regexp.Regexp, s string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

// countTools counts names, most common first; ties keep first-seen order.
func countTools(names []string) []ToolCount {
	var counts []ToolCount
	index := make(map[string]int)
	for _, n := range names {
		if i, ok := index[n]; ok {
			counts[i].Count++
			continue
		}
		index[n] = len(counts)
		counts = append(counts, ToolCount{Name: n, Count: 1})
	}
	slices.SortStableFunc(counts, func(a, b ToolCount) int { return b.Count - a.Count })
	return counts
}

func uniqueSorted(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	out := slices.Clone(items)
	slices.Sort(out)
	return slices.Compact(out)
}
