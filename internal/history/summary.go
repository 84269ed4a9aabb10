package history

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxListedFiles caps the file list of a report.
const MaxListedFiles = 50

var printer = message.NewPrinter(language.English)

// Stats are the headline numbers of a report.
type Stats struct {
	TotalChats       int            `json:"total_chats"`
	TotalTools       int            `json:"total_tools"`
	ToolDistribution map[string]int `json:"tool_distribution"`
	FilesCount       int            `json:"files_count"`
	URLsCount        int            `json:"urls_count"`
}

// Summary is a rendered report.
type Summary struct {
	Window   Window  `json:"-"`
	Chats    []*Chat `json:"chats"`
	Stats    Stats   `json:"stats"`
	Markdown string  `json:"-"`
}

// FileName returns the report file name for the day of now.
func FileName(now time.Time) string {
	return "zco_hist_smy_" + now.Format("20060102") + ".md"
}

// Summarize parses the logs in dir from the last days days and renders the
// report. Logs that cannot be read are left out.
func Summarize(dir string, days int, now time.Time) (*Summary, error) {
	w := WindowFor(days, now)
	paths, err := Collect(dir, w)
	if err != nil {
		return nil, err
	}

	var chats []*Chat
	for _, p := range paths {
		c, err := ParseChat(p)
		if err != nil {
			slog.Warn("skipping unreadable chat log", "path", p, "error", err)
			continue
		}
		chats = append(chats, c)
	}

	md, stats := Render(chats, w, now)
	return &Summary{Window: w, Chats: chats, Stats: stats, Markdown: md}, nil
}

// Render formats chats as the summary report.
func Render(chats []*Chat, w Window, now time.Time) (string, Stats) {
	if len(chats) == 0 {
		return "# 对话历史汇总报告\n\n没有找到符合条件的对话记录。\n", Stats{ToolDistribution: map[string]int{}}
	}

	var all []string
	files := make(map[string]bool)
	urls := make(map[string]bool)
	for _, c := range chats {
		for _, tc := range c.Tools {
			for range tc.Count {
				all = append(all, tc.Name)
			}
		}
		for _, f := range c.Files {
			files[f] = true
		}
		for _, u := range c.URLs {
			urls[u] = true
		}
	}
	tools := countTools(all)
	stats := Stats{
		TotalChats:       len(chats),
		TotalTools:       len(all),
		ToolDistribution: make(map[string]int, len(tools)),
		FilesCount:       len(files),
		URLsCount:        len(urls),
	}
	for _, tc := range tools {
		stats.ToolDistribution[tc.Name] = tc.Count
	}

	var lines []string
	add := func(format string, args ...any) { lines = append(lines, fmt.Sprintf(format, args...)) }

	add("# 对话历史汇总报告")
	add("")
	add("**生成时间**: %s", now.Format(TimeLayout))
	if w.All() {
		add("**统计周期**: 全部历史")
	} else {
		add("**统计周期**: %s 至 %s", w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly))
	}
	add("**总对话数**: %d", stats.TotalChats)
	add("")
	add("---")
	add("")

	add("## 📊 统计概览")
	add("")
	add("| 指标 | 数值 |")
	add("|------|------|")
	add("| 总对话数 | %d |", stats.TotalChats)
	add("| 使用工具次数 | %d |", stats.TotalTools)
	add("| 涉及文件数 | %d |", stats.FilesCount)
	add("| 访问 URLs | %d |", stats.URLsCount)
	add("")

	if len(tools) > 0 {
		add("### 工具使用分布")
		add("")
		add("| 工具 | 次数 | 占比 |")
		add("|------|------|------|")
		for _, tc := range tools {
			pct := float64(tc.Count) / float64(stats.TotalTools) * 100
			add("| %s | %d | %s |", tc.Name, tc.Count, printer.Sprintf("%.1f%%", pct))
		}
		add("")
	}

	add("---")
	add("")
	add("## 📝 对话列表")
	add("")
	for i, c := range chats {
		add("### %d. %s", i+1, c.File)
		add("")
		add("- **标题**: %s", c.Title)
		add("- **时间**: %s", c.Time.Format(TimeLayout))
		if len(c.Tools) > 0 {
			parts := make([]string, len(c.Tools))
			for j, tc := range c.Tools {
				parts[j] = fmt.Sprintf("%s×%d", tc.Name, tc.Count)
			}
			add("- **工具**: %s", strings.Join(parts, ", "))
		}
		if len(c.Files) > 0 {
			add("- **文件**: %s", strings.Join(c.Files[:min(3, len(c.Files))], ", "))
			if len(c.Files) > 3 {
				add("  - ... 等 %d 个文件", len(c.Files))
			}
		}
		add("")
	}

	if len(files) > 0 {
		add("---")
		add("")
		add("## 📁 涉及文件汇总")
		add("")
		sorted := sortedKeys(files)
		for _, f := range sorted[:min(MaxListedFiles, len(sorted))] {
			add("- `%s`", f)
		}
		if len(sorted) > MaxListedFiles {
			add("- ... 等共 %d 个文件", len(sorted))
		}
		add("")
	}

	if len(urls) > 0 {
		add("---")
		add("")
		add("## 🔗 参考资源汇总")
		add("")
		for _, u := range sortedKeys(urls) {
			add("- [%s](%s)", u, u)
		}
		add("")
	}

	add("---")
	add("")
	add("*生成于 %s*", now.Format(TimeLayout))
	add("")
	return strings.Join(lines, "\n"), stats
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// OutputDir returns where reports go: $AICO_DOCS when set, otherwise
// <root>/AICO_DOCS.
func OutputDir(getenv func(string) string, root string) string {
	if dir := getenv("AICO_DOCS"); dir != "" {
		return dir
	}
	return filepath.Join(root, "AICO_DOCS")
}
