package transcript

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	urlPattern     = regexp.MustCompile("https?://[^\\s<>\"{}|\\\\^`\\[\\]]+")
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s]`)
)

var stopWords = map[string]bool{
	"的": true, "了": true, "是": true, "在": true, "我": true, "有": true, "和": true,
	"就": true, "不": true, "人": true, "都": true, "一": true, "一个": true,
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "is": true, "are": true,
	"请": true, "帮": true, "我要": true, "能否": true, "如何": true, "什么": true,
	"怎么": true, "吗": true, "呢": true,
}

// DefaultKeyword names a spec log whose first prompt yields no keywords.
const DefaultKeyword = "spec"

// Keywords picks up to max distinct words of at least two characters from
// text, skipping stop words, and joins them with "_". Punctuation separates
// words.
func Keywords(text string, max int) string {
	text = nonWordPattern.ReplaceAllString(text, " ")
	var words []string
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) < 2 || stopWords[w] || slices.Contains(words, w) {
			continue
		}
		words = append(words, w)
		if len(words) >= max {
			break
		}
	}
	if len(words) == 0 {
		return DefaultKeyword
	}
	return strings.Join(words, "_")
}

// References collects the resources a session touched: fetched URLs, read
// files, delegated agents and URLs mentioned in tool results. The result is
// sorted and free of duplicates.
func (t *Transcript) References() []string {
	seen := make(map[string]bool)
	add := func(ref string) { seen[ref] = true }

	for _, c := range t.Calls {
		switch c.Name {
		case "WebFetch", "WebSearch":
			if url := c.Field("url"); url != "" {
				add("🌐 " + url)
			}
		case "Read":
			if p := c.Field("file_path"); p != "" {
				add("📄 " + p)
			}
		case "Task":
			if agent := c.Field("subagent_type"); agent != "" {
				add("🤖 Agent: " + agent)
			}
		}
	}
	for _, result := range t.Results {
		for _, url := range urlPattern.FindAllString(result, -1) {
			add("🌐 " + url)
		}
	}

	refs := make([]string, 0, len(seen))
	for ref := range seen {
		refs = append(refs, ref)
	}
	slices.Sort(refs)
	return refs
}

// ToolCounts counts calls per tool name.
func (t *Transcript) ToolCounts() map[string]int {
	counts := make(map[string]int)
	for _, c := range t.Calls {
		counts[c.Name]++
	}
	return counts
}
