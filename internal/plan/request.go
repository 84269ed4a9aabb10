package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingField is returned when a request lacks plan_path or action.
var ErrMissingField = errors.New("Missing required field")

// Tags is the optional tags field of a request: a JSON list, or a string of
// comma-separated tags.
type Tags struct {
	List []string
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tags) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.List = []string{}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				t.List = append(t.List, part)
			}
		}
		return nil
	}
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("tags must be a list or a comma-separated string")
	}
	t.List = make([]string, len(items))
	for i, item := range items {
		if s, ok := item.(string); ok {
			t.List[i] = s
			continue
		}
		t.List[i] = fmt.Sprint(item)
	}
	return nil
}

// Request is the JSON input of an update.
type Request struct {
	PlanPath string `json:"plan_path"`
	Action   string `json:"action"`
	// Tags is nil when the request leaves tags alone.
	Tags *Tags `json:"tags,omitempty"`
}

// Result is the JSON output of an update.
type Result struct {
	Success   bool     `json:"success"`
	PlanPath  string   `json:"plan_path"`
	OldStatus string   `json:"old_status"`
	NewStatus string   `json:"new_status"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
	Tags      []string `json:"tags"`
}

// Failure is the JSON output of a failed update.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// DecodeRequest parses a request and checks that its required fields are
// present.
func DecodeRequest(data []byte) (*Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("Invalid JSON input: %w", err)
	}
	for _, key := range []string{"plan_path", "action"} {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, key)
		}
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("Invalid JSON input: %w", err)
	}
	if string(fields["tags"]) == "null" {
		req.Tags = nil
	}
	return &req, nil
}

// Update applies req to its plan file and returns the outcome.
func Update(req *Request, now time.Time) (*Result, error) {
	status, ok := StatusFor(req.Action)
	if !ok {
		return nil, fmt.Errorf("Invalid action: %s. Must be one of: %s", req.Action, actionNames())
	}

	doc, err := Load(req.PlanPath)
	if err != nil {
		return nil, err
	}
	old, err := doc.Transition(status, req.Tags, now)
	if err != nil {
		return nil, err
	}
	if err := doc.Save(req.PlanPath); err != nil {
		return nil, err
	}

	created, _ := doc.Get("created_at")
	updated, _ := doc.Get("updated_at")
	return &Result{
		Success:   true,
		PlanPath:  req.PlanPath,
		OldStatus: old,
		NewStatus: status,
		CreatedAt: created,
		UpdatedAt: updated,
		Tags:      doc.Tags(),
	}, nil
}
