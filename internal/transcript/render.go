package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// TimeLayout formats timestamps inside rendered logs.
const TimeLayout = "2006-01-02 15:04:05"

// fileStamp is the timestamp embedded in log file names.
const fileStamp = "060102_150405"

// Meta carries the session details printed in log headers.
type Meta struct {
	SessionID string
	Model     string
	Now       time.Time
}

// PlainFileName returns the file name of a plain log written at now.
func PlainFileName(now time.Time) string {
	return "log_" + now.Format(fileStamp) + "_plain.md"
}

// SpecBaseName returns the file name, without extension, of a spec log.
func SpecBaseName(now time.Time, keywords string) string {
	return "AiCode_log_" + now.Format(fileStamp) + "_" + keywords
}

// CLIFileName returns the file name of a cli-style log written at now.
func CLIFileName(now time.Time) string {
	return "log_" + now.Format(fileStamp) + "_cli_style.md"
}

// RenderPlain renders only the text exchanged, one bold speaker label per
// message. Messages without text are left out.
func RenderPlain(t *Transcript, meta Meta) string {
	ts := meta.Now.Format(TimeLayout)
	var sb strings.Builder
	sb.WriteString("# AI Code Conversation\n\n")
	fmt.Fprintf(&sb, "**Time**: %s\n", ts)
	fmt.Fprintf(&sb, "**Session ID**: %s\n\n", meta.SessionID)
	sb.WriteString("---\n\n")

	for _, m := range t.Messages {
		text := m.Text("\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		switch m.Type {
		case TypeUser:
			fmt.Fprintf(&sb, "**User**:\n%s\n\n", text)
		case TypeAssistant:
			fmt.Fprintf(&sb, "**AiCode**:\n%s\n\n", text)
		}
	}
	fmt.Fprintf(&sb, "\n---\n*Generated at %s*\n", ts)
	return sb.String()
}

// specText joins text items and marks each tool call inline.
func specText(m Message) string {
	var sb strings.Builder
	for _, it := range m.Content {
		switch it.Type {
		case ItemText:
			sb.WriteString(it.Text)
		case ItemToolUse:
			fmt.Fprintf(&sb, "\n[使用工具: %s]\n", nameOr(it.Name))
		}
	}
	return sb.String()
}

// RenderSpec renders the reference-oriented report: header, references, tool
// usage counts, numbered messages and an appendix with every tool call's
// input.
func RenderSpec(t *Transcript, meta Meta) string {
	if len(t.Messages) == 0 {
		return "# 对话记录\n\n无对话内容。\n"
	}
	ts := meta.Now.Format(TimeLayout)

	lines := []string{
		"# AI Code 对话记录\n",
		fmt.Sprintf("**时间**: %s\n", ts),
		fmt.Sprintf("**会话 ID**: %s\n", meta.SessionID),
	}

	if refs := t.References(); len(refs) > 0 {
		lines = append(lines, "\n## 📚 参考资源\n")
		for _, ref := range refs {
			lines = append(lines, fmt.Sprintf("- %s\n", ref))
		}
	}

	if len(t.Calls) > 0 {
		lines = append(lines, fmt.Sprintf("\n**使用工具**: %d 次\n", len(t.Calls)))
		counts := t.ToolCounts()
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("  - %s: %d 次\n", name, counts[name]))
		}
	}

	lines = append(lines, "\n---\n")

	for i, m := range t.Messages {
		text := specText(m)
		if strings.TrimSpace(text) == "" {
			continue
		}
		switch m.Type {
		case TypeUser:
			lines = append(lines, fmt.Sprintf("\n## 👤 用户提问 #%d\n", i+1), text+"\n")
		case TypeAssistant:
			lines = append(lines, fmt.Sprintf("\n## 🤖 AiCode 回答 #%d\n", i+1), text+"\n")
		}
	}

	lines = append(lines, "\n---\n")

	if len(t.Calls) > 0 {
		lines = append(lines, "\n## 📋 附录：工具调用详情\n")
		for i, c := range t.Calls {
			lines = append(lines,
				fmt.Sprintf("\n### 工具 %d: %s\n", i+1, c.Name),
				"```json\n",
				callJSON(c),
				"\n```\n",
			)
		}
	}

	lines = append(lines, "\n---\n", fmt.Sprintf("*自动生成于 %s*\n", ts))
	return strings.Join(lines, "\n")
}

// RenderResources renders the companion reference list of a spec log.
func RenderResources(refs []string, base string, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("# 参考资源\n")
	fmt.Fprintf(&sb, "# 生成时间: %s\n", now.Format(TimeLayout))
	fmt.Fprintf(&sb, "# 对话文件: %s.md\n\n", base)
	for _, ref := range refs {
		sb.WriteString(ref + "\n")
	}
	return sb.String()
}

func callJSON(c ToolCall) string {
	input := c.Input
	if len(bytes.TrimSpace(input)) == 0 {
		input = json.RawMessage("{}")
	}
	return indentJSON(struct {
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
		ID    string          `json:"id"`
	}{c.Name, input, c.ID})
}

// indentJSON encodes v with two-space indentation, keeping non-ASCII and
// HTML characters literal. RawMessage values keep their key order.
func indentJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		if raw, ok := v.(json.RawMessage); ok {
			return string(raw)
		}
		return fmt.Sprint(v)
	}
	return strings.TrimRight(buf.String(), "\n")
}

var toolIcons = map[string]string{
	"read":      "📄",
	"write":     "✏️",
	"edit":      "✏️",
	"bash":      "⚡",
	"task":      "🔧",
	"glob":      "📁",
	"grep":      "🔍",
	"webfetch":  "🌐",
	"websearch": "🔎",
}

// Limits of the cli-style layout.
const (
	summaryLimit = 60
	resultLimit  = 500
)

// RenderCLI renders the session the way the terminal shows it: a prompt
// marker per speaker, and each tool call as a collapsible block followed by
// its result.
func RenderCLI(t *Transcript, meta Meta) string {
	ts := meta.Now.Format(TimeLayout)
	lines := []string{
		"# AI Code 会话记录",
		"",
		"<div align='right'>",
		"",
		fmt.Sprintf("**会话 ID**: `%s`  ", meta.SessionID),
	}
	if meta.Model != "" {
		lines = append(lines, fmt.Sprintf("**模型**: `%s`  ", meta.Model))
	}
	lines = append(lines,
		fmt.Sprintf("**时间**: %s", ts),
		"</div>",
		"",
		"---",
	)

	for _, m := range t.Messages {
		if block := cliMessage(m, t.Results); block != "" {
			lines = append(lines, block)
		}
	}

	lines = append(lines, "", "---", fmt.Sprintf("*生成于 %s*", ts))
	return strings.Join(lines, "\n")
}

// cliMessage renders one message, or "" when it has nothing to show, such
// as a user record that only carries tool results.
func cliMessage(m Message, results map[string]string) string {
	var body []string
	for _, it := range m.Content {
		switch it.Type {
		case ItemText:
			body = append(body, it.Text)
		case ItemToolUse:
			block := cliToolCall(nameOr(it.Name), it.Input)
			if res, ok := results[it.ID]; ok && it.ID != "" {
				block += "\n" + cliToolResult(nameOr(it.Name), res)
			}
			body = append(body, block)
		}
	}
	if len(body) == 0 {
		return ""
	}

	header := "\n### ⬢ **Claude**\n"
	if m.Type == TypeUser {
		header = "\n### ❯ **User**\n"
	}
	return strings.Join(append([]string{header}, body...), "\n")
}

func cliToolCall(name string, input json.RawMessage) string {
	icon, ok := toolIcons[strings.ToLower(name)]
	if !ok {
		icon = "🔧"
	}
	if len(bytes.TrimSpace(input)) == 0 {
		input = json.RawMessage("{}")
	}
	call := ToolCall{Name: name, Input: input}

	var summary string
	switch name {
	case "Read", "Write", "Edit":
		summary = call.Field("file_path")
	case "Bash":
		summary = truncate(call.Field("command"), summaryLimit, "...")
	case "Task":
		agent := call.Field("subagent_type")
		if agent == "" {
			agent = "unknown"
		}
		summary = "Agent: " + agent
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, input); err == nil {
			summary = cut(buf.String(), summaryLimit)
		}
	}

	return strings.Join([]string{
		"\n<details>",
		fmt.Sprintf("<summary>%s <b>%s</b> %s</summary>", icon, name, summary),
		"",
		"```json",
		indentJSON(input),
		"```",
		"</details>",
	}, "\n")
}

func cliToolResult(name, result string) string {
	if n := utf8.RuneCountInString(result); n > resultLimit {
		result = cut(result, resultLimit) + fmt.Sprintf("\n\n... (%d 字符已省略)", n-resultLimit)
	}
	return strings.Join([]string{
		"<details>",
		fmt.Sprintf("<summary>◗ <b>%s</b> 结果</summary>", name),
		"",
		"```",
		result,
		"```",
		"</details>\n",
	}, "\n")
}

// cut returns the first n runes of s.
func cut(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// truncate cuts s to n runes and appends marker when it was longer.
func truncate(s string, n int, marker string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return cut(s, n) + marker
}
