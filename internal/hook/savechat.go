package hook

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zco-team/zco-claude/internal/branding"
	"github.com/zco-team/zco-claude/internal/fsutil"
	"github.com/zco-team/zco-claude/internal/gitx"
	"github.com/zco-team/zco-claude/internal/transcript"
)

// Style selects the Markdown rendering of a saved chat.
type Style string

// Chat log styles.
const (
	StylePlain Style = "plain"
	StyleSpec  Style = "spec"
	StyleCLI   Style = "cli"
)

// maxKeywords is the number of words from the first prompt used in spec log
// file names.
const maxKeywords = 3

// SaveChat writes the session transcript as Markdown when a session stops.
// It does nothing unless Enabled, and only for Stop events.
type SaveChat struct {
	Style   Style
	Enabled bool
	// Dir is the log directory, relative to the repository root of the
	// payload's cwd unless absolute. Empty means _.zco_hist.
	Dir string
	Now func() time.Time
}

// Name implements Handler.
func (s SaveChat) Name() string { return "save-chat-" + string(s.Style) }

// Handle implements Handler.
func (s SaveChat) Handle(ctx context.Context, in *Input) error {
	_, err := s.Save(ctx, in)
	return err
}

// Save renders and writes the log and returns the files written.
func (s SaveChat) Save(ctx context.Context, in *Input) ([]string, error) {
	if !s.Enabled || in.HookEventName != EventStop {
		return nil, nil
	}
	if in.TranscriptPath == "" || in.CWD == "" {
		slog.Warn("missing required data", "transcript_path", in.TranscriptPath, "cwd", in.CWD)
		return nil, nil
	}

	t, err := transcript.ParseFile(in.TranscriptPath)
	if err != nil {
		return nil, err
	}
	if len(t.Messages) == 0 {
		slog.Info("no messages to save", "transcript", in.TranscriptPath)
		return nil, nil
	}

	dir := LogDir(ctx, in.CWD, s.Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	meta := transcript.Meta{SessionID: in.SessionID, Model: in.ModelName(), Now: now}
	if meta.SessionID == "" {
		meta.SessionID = "unknown"
	}
	if meta.Model == "" {
		meta.Model = t.Model()
	}

	files := map[string]string{}
	var order []string
	add := func(name, content string) {
		path := filepath.Join(dir, name)
		files[path] = content
		order = append(order, path)
	}
	switch s.Style {
	case StylePlain:
		add(transcript.PlainFileName(now), transcript.RenderPlain(t, meta))
	case StyleSpec:
		base := transcript.SpecBaseName(now, transcript.Keywords(t.FirstUserText(), maxKeywords))
		add(base+".md", transcript.RenderSpec(t, meta))
		if refs := t.References(); len(refs) > 0 {
			add(base+"_resources.txt", transcript.RenderResources(refs, base, now))
		}
	case StyleCLI:
		add(transcript.CLIFileName(now), transcript.RenderCLI(t, meta))
	default:
		return nil, fmt.Errorf("unknown chat style %q", s.Style)
	}

	for _, path := range order {
		if err := fsutil.WriteAtomic(path, []byte(files[path]), 0644); err != nil {
			return nil, err
		}
		slog.Info("conversation saved", "path", path)
	}
	return order, nil
}

// LogDir returns where chat logs for cwd go: dir under the repository root,
// or cwd itself outside a repository.
func LogDir(ctx context.Context, cwd, dir string) string {
	if dir == "" {
		dir = branding.ChatSaveDir()
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(gitx.Toplevel(ctx, cwd), dir)
}
