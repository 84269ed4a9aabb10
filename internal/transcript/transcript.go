package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Message types kept by Parse.
const (
	TypeUser      = "user"
	TypeAssistant = "assistant"
)

// Content item types.
const (
	ItemText       = "text"
	ItemToolUse    = "tool_use"
	ItemToolResult = "tool_result"
)

// Item is one entry of a message's content list. A plain string content is
// read as a single text item.
type Item struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

// Message is a user or assistant record of the transcript.
type Message struct {
	Type          string
	Timestamp     string
	Model         string
	Content       []Item
	ToolUseResult json.RawMessage
}

// ToolCall is a tool_use item from an assistant message.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// Transcript is a parsed session.
type Transcript struct {
	Messages []Message
	// Calls lists tool calls in transcript order.
	Calls []ToolCall
	// Results maps a tool_use id to the text of its result.
	Results map[string]string
}

type record struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Message   struct {
		Model   string          `json:"model"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
	ToolUseResult json.RawMessage `json:"toolUseResult"`
}

// ParseFile opens and parses the transcript at path.
func ParseFile(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads JSON Lines from r, keeping user and assistant records. Lines
// that are not valid JSON are skipped.
func Parse(r io.Reader) (*Transcript, error) {
	t := &Transcript{Results: make(map[string]string)}
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			lineNo++
			t.add(line, lineNo)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading transcript: %w", err)
		}
	}
	return t, nil
}

func (t *Transcript) add(line []byte, lineNo int) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		slog.Debug("skipping malformed transcript line", "line", lineNo, "error", err)
		return
	}
	if rec.Type != TypeUser && rec.Type != TypeAssistant {
		return
	}

	msg := Message{
		Type:          rec.Type,
		Timestamp:     rec.Timestamp,
		Model:         rec.Message.Model,
		Content:       decodeContent(rec.Message.Content),
		ToolUseResult: rec.ToolUseResult,
	}
	t.Messages = append(t.Messages, msg)

	if id, text, ok := topLevelResult(rec.ToolUseResult); ok {
		t.Results[id] = text
	}
	// An item-level result overrides a top-level one for the same call.
	for _, item := range msg.Content {
		switch item.Type {
		case ItemToolUse:
			if msg.Type == TypeAssistant {
				t.Calls = append(t.Calls, ToolCall{ID: item.ID, Name: nameOr(item.Name), Input: item.Input})
			}
		case ItemToolResult:
			t.Results[item.ToolUseID] = ResultText(item.Content)
		}
	}
}

func decodeContent(raw json.RawMessage) []Item {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []Item{{Type: ItemText, Text: s}}
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return []Item{{Type: ItemText, Text: string(raw)}}
	}
	items := make([]Item, 0, len(parts))
	for _, p := range parts {
		var it Item
		if err := json.Unmarshal(p, &it); err == nil {
			items = append(items, it)
			continue
		}
		if err := json.Unmarshal(p, &s); err == nil {
			items = append(items, Item{Type: ItemText, Text: s})
		}
	}
	return items
}

// topLevelResult reads a {"tool_use_id": ..., "content": ...} toolUseResult.
func topLevelResult(raw json.RawMessage) (string, string, bool) {
	if len(raw) == 0 {
		return "", "", false
	}
	var res struct {
		ToolUseID *string         `json:"tool_use_id"`
		Content   json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw, &res); err != nil || res.ToolUseID == nil {
		return "", "", false
	}
	return *res.ToolUseID, ResultText(res.Content), true
}

// ResultText flattens tool result content: strings are returned as is, lists
// contribute their text parts joined by newlines, and anything else is
// returned as compact JSON.
func ResultText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		var texts []string
		for _, p := range parts {
			if p.Type == ItemText {
				texts = append(texts, p.Text)
			}
		}
		return strings.Join(texts, "\n")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Text joins the text items of m with sep.
func (m Message) Text(sep string) string {
	var parts []string
	for _, it := range m.Content {
		if it.Type == ItemText {
			parts = append(parts, it.Text)
		}
	}
	return strings.Join(parts, sep)
}

// FirstUserText returns the text of the first user message that has any.
func (t *Transcript) FirstUserText() string {
	for _, m := range t.Messages {
		if m.Type != TypeUser {
			continue
		}
		if text := specText(m); text != "" {
			return text
		}
	}
	return ""
}

// Model returns the model of the last assistant message that names one.
func (t *Transcript) Model() string {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if m := t.Messages[i]; m.Type == TypeAssistant && m.Model != "" {
			return m.Model
		}
	}
	return ""
}

// Field returns a string field of the call's input, or "".
func (c ToolCall) Field(key string) string {
	var in map[string]any
	if err := json.Unmarshal(c.Input, &in); err != nil {
		return ""
	}
	s, _ := in[key].(string)
	return s
}

func nameOr(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
