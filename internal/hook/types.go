package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// EventType is the hook_event_name of a payload.
type EventType string

// Hook events this tool handles.
const (
	EventStop             EventType = "Stop"
	EventUserPromptSubmit EventType = "UserPromptSubmit"
	EventSessionStart     EventType = "SessionStart"
	EventSessionEnd       EventType = "SessionEnd"
	EventPreToolUse       EventType = "PreToolUse"
	EventPostToolUse      EventType = "PostToolUse"
)

// ErrEmptyInput is returned by ReadInput when stdin carries no payload.
var ErrEmptyInput = errors.New("empty hook input")

// Input is the payload Claude Code writes to a hook's stdin.
type Input struct {
	HookEventName  EventType       `json:"hook_event_name"`
	SessionID      string          `json:"session_id"`
	TranscriptPath string          `json:"transcript_path"`
	CWD            string          `json:"cwd"`
	Model          json.RawMessage `json:"model,omitempty"`
	ProjectDir     string          `json:"project_dir,omitempty"`
	Source         string          `json:"source,omitempty"`

	// Raw is the payload as received, kept for the debug dump.
	Raw json.RawMessage `json:"-"`
}

// ModelName returns the model from the payload. The field is either a plain
// string or an object with an id.
func (in *Input) ModelName() string {
	if len(in.Model) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(in.Model, &s); err == nil {
		return s
	}
	var obj struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(in.Model, &obj); err == nil {
		if obj.ID != "" {
			return obj.ID
		}
		return obj.DisplayName
	}
	return ""
}

// ReadInput decodes a hook payload from r.
func ReadInput(r io.Reader) (*Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading hook input: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing hook input: %w", err)
	}
	in.Raw = data
	return &in, nil
}

// Handler processes one hook payload.
type Handler interface {
	// Name identifies the handler in logs.
	Name() string
	Handle(ctx context.Context, in *Input) error
}
