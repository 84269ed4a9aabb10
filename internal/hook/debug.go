package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zco-team/zco-claude/internal/fsutil"
)

// modelEnv lists the environment variables that decide which model runs.
var modelEnv = []string{
	"ANTHROPIC_MODEL",
	"ANTHROPIC_DEFAULT_SONNET_MODEL",
	"ANTHROPIC_DEFAULT_OPUS_MODEL",
	"ANTHROPIC_DEFAULT_HAIKU_MODEL",
	"CLAUDE_CODE_SUBAGENT_MODEL",
}

// Debug dumps the payload, with the model environment, to
// hook_debug_<event>.json in the chat log directory.
type Debug struct {
	Dir    string
	Getenv func(string) string
	Now    func() time.Time
}

type debugInfo struct {
	Timestamp      string             `json:"timestamp"`
	HookEventName  EventType          `json:"hook_event_name"`
	SessionID      string             `json:"session_id"`
	Model          json.RawMessage    `json:"model"`
	CWD            string             `json:"cwd"`
	TranscriptPath string             `json:"transcript_path"`
	ProjectDir     string             `json:"project_dir"`
	Source         string             `json:"source"`
	Env            map[string]*string `json:"env"`
	FullInput      json.RawMessage    `json:"full_input"`
}

// Name implements Handler.
func (Debug) Name() string { return "debug" }

// Handle implements Handler.
func (d Debug) Handle(ctx context.Context, in *Input) error {
	_, err := d.Dump(ctx, in)
	return err
}

// Dump writes the debug file and returns its path.
func (d Debug) Dump(ctx context.Context, in *Input) (string, error) {
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	getenv := d.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	info := debugInfo{
		Timestamp:      now.Format("2006-01-02T15:04:05.000000"),
		HookEventName:  in.HookEventName,
		SessionID:      in.SessionID,
		Model:          orNull(in.Model),
		CWD:            in.CWD,
		TranscriptPath: in.TranscriptPath,
		ProjectDir:     in.ProjectDir,
		Source:         in.Source,
		Env:            make(map[string]*string, len(modelEnv)),
		FullInput:      orNull(in.Raw),
	}
	for _, key := range modelEnv {
		if v := getenv(key); v != "" {
			info.Env[key] = &v
		} else {
			info.Env[key] = nil
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(info); err != nil {
		return "", fmt.Errorf("encoding debug info: %w", err)
	}

	cwd := in.CWD
	if cwd == "" {
		cwd = "."
	}
	dir := LogDir(ctx, cwd, d.Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	event := string(in.HookEventName)
	if event == "" {
		event = "unknown"
	}
	path := filepath.Join(dir, "hook_debug_"+event+".json")
	if err := fsutil.WriteAtomic(path, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	slog.Info("debug info saved", "path", path, "model", in.ModelName())
	return path, nil
}

func orNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
