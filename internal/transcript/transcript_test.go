package transcript

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 5, 1, 12, 30, 45, 0, time.UTC)

func loadSession(t *testing.T) *Transcript {
	t.Helper()
	tr, err := ParseFile("testdata/session.jsonl")
	require.NoError(t, err)
	return tr
}

func TestParse(t *testing.T) {
	tr := loadSession(t)

	require.Len(t, tr.Messages, 5, "summary and malformed lines are skipped")
	assert.Equal(t, "如何 配置 golang 项目的 linter?", tr.Messages[0].Text("\n"))
	assert.Equal(t, "claude-sonnet-4", tr.Model())

	names := make([]string, len(tr.Calls))
	for i, c := range tr.Calls {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"Read", "Bash", "Task", "WebFetch"}, names)

	assert.Contains(t, tr.Results["tu_1"], "enable: [govet]")
	assert.Equal(t, "ok\ndone", tr.Results["tu_2"], "the inline result wins over the top-level toolUseResult")
}

func TestParseResultPrecedence(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "inline over top-level",
			line: `{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"t","content":"inline"}]},"toolUseResult":{"tool_use_id":"t","content":"top"}}`,
			want: "inline",
		},
		{
			name: "top-level alone",
			line: `{"type":"user","message":{"content":"x"},"toolUseResult":{"tool_use_id":"t","content":"top"}}`,
			want: "top",
		},
		{
			name: "empty inline still wins",
			line: `{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"t"}]},"toolUseResult":{"tool_use_id":"t","content":"top"}}`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Parse(strings.NewReader(tt.line + "\n"))
			require.NoError(t, err)
			got, ok := tr.Results["t"]
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	tr, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, tr.Messages)
	assert.Equal(t, "# 对话记录\n\n无对话内容。\n", RenderSpec(tr, Meta{Now: testNow}))
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"如何 配置 golang 项目的 linter?", "配置_golang_项目的"},
		{"the a in", DefaultKeyword},
		{"", DefaultKeyword},
		{"fix fix the bug, fix it", "fix_bug_it"},
		{"x y z", DefaultKeyword},
	}
	for _, tt := range tests {
		if got := Keywords(tt.text, 3); got != tt.want {
			t.Errorf("Keywords(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestReferences(t *testing.T) {
	tr := loadSession(t)
	want := []string{
		"🌐 https://go.dev/doc",
		"🌐 https://golangci-lint.run/usage/configuration/",
		"📄 /repo/.golangci.yml",
		"🤖 Agent: reviewer",
	}
	assert.Equal(t, want, tr.References())
}

func TestRenderPlain(t *testing.T) {
	tr := loadSession(t)
	got := RenderPlain(tr, Meta{SessionID: "s-1", Now: testNow})

	assert.True(t, strings.HasPrefix(got, "# AI Code Conversation\n\n**Time**: 2025-05-01 12:30:45\n**Session ID**: s-1\n\n---\n\n"))
	assert.Contains(t, got, "**User**:\n如何 配置 golang 项目的 linter?\n\n")
	assert.Contains(t, got, "**AiCode**:\nLet me look.\n\n")
	assert.Contains(t, got, "**AiCode**:\nDone.\n\n")
	assert.Equal(t, 1, strings.Count(got, "**User**"), "tool-result-only messages are skipped")
	assert.True(t, strings.HasSuffix(got, "\n---\n*Generated at 2025-05-01 12:30:45*\n"))
}

func TestRenderSpec(t *testing.T) {
	tr := loadSession(t)
	got := RenderSpec(tr, Meta{SessionID: "s-1", Now: testNow})

	for _, want := range []string{
		"# AI Code 对话记录\n\n**时间**: 2025-05-01 12:30:45\n\n**会话 ID**: s-1\n",
		"## 📚 参考资源\n\n- 🌐 https://go.dev/doc\n",
		"**使用工具**: 4 次\n\n  - Bash: 1 次\n\n  - Read: 1 次\n",
		"## 👤 用户提问 #1\n",
		"## 🤖 AiCode 回答 #2\n\nLet me look.\n[使用工具: Read]\n\n[使用工具: Bash]\n",
		"## 🤖 AiCode 回答 #5\n",
		"### 工具 1: Read\n\n```json\n\n{\n  \"name\": \"Read\",\n  \"input\": {\n    \"file_path\": \"/repo/.golangci.yml\"\n  },\n  \"id\": \"tu_1\"\n}",
		"*自动生成于 2025-05-01 12:30:45*\n",
	} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, "用户提问 #3", "tool-result-only messages are skipped")
}

func TestRenderResources(t *testing.T) {
	got := RenderResources([]string{"📄 a", "🌐 b"}, "AiCode_log_x", testNow)
	want := "# 参考资源\n# 生成时间: 2025-05-01 12:30:45\n# 对话文件: AiCode_log_x.md\n\n📄 a\n🌐 b\n"
	assert.Equal(t, want, got)
}

func TestRenderCLI(t *testing.T) {
	tr := loadSession(t)
	got := RenderCLI(tr, Meta{SessionID: "s-1", Model: "claude-sonnet-4", Now: testNow})

	assert.True(t, strings.HasPrefix(got, "# AI Code 会话记录\n\n<div align='right'>\n\n**会话 ID**: `s-1`  \n**模型**: `claude-sonnet-4`  \n**时间**: 2025-05-01 12:30:45\n</div>\n\n---\n"))
	assert.Contains(t, got, "\n### ❯ **User**\n")
	assert.Contains(t, got, "\n### ⬢ **Claude**\n")
	assert.Contains(t, got, "<summary>📄 <b>Read</b> /repo/.golangci.yml</summary>")
	assert.Contains(t, got, "<summary>⚡ <b>Bash</b> golangci-lint run ./... --timeout 5m --out-format colored-li...</summary>")
	assert.Contains(t, got, "<summary>🔧 <b>Task</b> Agent: reviewer</summary>")
	assert.Contains(t, got, "<summary>🌐 <b>WebFetch</b> {\"url\":\"https://go.dev/doc\",\"prompt\":\"x\"}</summary>")
	assert.Contains(t, got, "<summary>◗ <b>Bash</b> 结果</summary>\n\n```\nok\ndone\n```\n</details>\n")
	assert.Equal(t, 1, strings.Count(got, "### ❯ **User**"))
	assert.True(t, strings.HasSuffix(got, "\n\n---\n*生成于 2025-05-01 12:30:45*"))
}

func TestCLIResultTruncation(t *testing.T) {
	long := strings.Repeat("字", 520)
	got := cliToolResult("Bash", long)
	assert.Contains(t, got, strings.Repeat("字", 500)+"\n\n... (20 字符已省略)\n```")
	assert.NotContains(t, got, strings.Repeat("字", 501))

	short := cliToolResult("Bash", "fine")
	assert.NotContains(t, short, "已省略")
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "log_250501_123045_plain.md", PlainFileName(testNow))
	assert.Equal(t, "log_250501_123045_cli_style.md", CLIFileName(testNow))
	assert.Equal(t, "AiCode_log_250501_123045_golang", SpecBaseName(testNow, "golang"))
}
