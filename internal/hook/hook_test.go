package hook

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zco-team/zco-claude/internal/config"
)

var fixedNow = time.Date(2025, 5, 1, 10, 20, 30, 0, time.Local)

const sessionFile = "../transcript/testdata/session.jsonl"

func TestReadInput(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   error
		wantEvent EventType
		wantModel string
	}{
		{
			name:      "string model",
			input:     `{"hook_event_name":"Stop","session_id":"s1","cwd":"/repo","model":"claude-sonnet-4"}`,
			wantEvent: EventStop,
			wantModel: "claude-sonnet-4",
		},
		{
			name:      "object model",
			input:     `{"hook_event_name":"UserPromptSubmit","model":{"id":"claude-opus-4","display_name":"Opus"}}`,
			wantEvent: EventUserPromptSubmit,
			wantModel: "claude-opus-4",
		},
		{
			name:      "no model",
			input:     `{"hook_event_name":"Stop"}`,
			wantEvent: EventStop,
		},
		{name: "empty", input: "  \n", wantErr: ErrEmptyInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := ReadInput(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ReadInput() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadInput() error = %v", err)
			}
			if in.HookEventName != tt.wantEvent {
				t.Errorf("HookEventName = %q, want %q", in.HookEventName, tt.wantEvent)
			}
			if got := in.ModelName(); got != tt.wantModel {
				t.Errorf("ModelName() = %q, want %q", got, tt.wantModel)
			}
			if string(in.Raw) != strings.TrimSpace(tt.input) {
				t.Errorf("Raw = %s, want the input", in.Raw)
			}
		})
	}

	if _, err := ReadInput(strings.NewReader("{not json")); err == nil {
		t.Error("ReadInput(malformed) error = nil, want error")
	}
}

type recordingHandler struct {
	name  string
	err   error
	calls *[]string
}

func (h recordingHandler) Name() string { return h.name }

func (h recordingHandler) Handle(_ context.Context, in *Input) error {
	*h.calls = append(*h.calls, h.name+":"+string(in.HookEventName))
	return h.err
}

func TestRegistryDispatch(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	r := NewRegistry()
	r.Register(EventStop, recordingHandler{name: "first", err: boom, calls: &calls})
	r.Register(EventStop, recordingHandler{name: "second", calls: &calls})
	r.Register(EventUserPromptSubmit, recordingHandler{name: "other", calls: &calls})

	err := r.Dispatch(context.Background(), EventStop, &Input{})
	if !errors.Is(err, boom) {
		t.Errorf("Dispatch() error = %v, want it to wrap boom", err)
	}
	want := []string{"first:Stop", "second:Stop"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", calls, want)
	}

	if err := r.Dispatch(context.Background(), EventSessionEnd, &Input{}); err != nil {
		t.Errorf("Dispatch(no handlers) error = %v, want nil", err)
	}
	if n := len(r.Handlers(EventStop)); n != 2 {
		t.Errorf("Handlers(Stop) = %d, want 2", n)
	}
}

func TestDefaults(t *testing.T) {
	r := Defaults(config.HookEnv{AutoCommitMode: 2, SaveSpec: true, SaveDir: "logs"}, nil)

	stop := r.Handlers(EventStop)
	if len(stop) != 3 {
		t.Fatalf("Stop handlers = %d, want 3", len(stop))
	}
	for _, h := range stop {
		s := h.(SaveChat)
		if s.Enabled != (s.Style == StyleSpec) {
			t.Errorf("%s Enabled = %v", s.Name(), s.Enabled)
		}
		if s.Dir != "logs" {
			t.Errorf("%s Dir = %q, want %q", s.Name(), s.Dir, "logs")
		}
	}
	submit := r.Handlers(EventUserPromptSubmit)
	if len(submit) != 1 || submit[0].(GitAutoCommit).Mode != 2 {
		t.Errorf("UserPromptSubmit handlers = %+v", submit)
	}
}

func stopInput(t *testing.T, cwd string) *Input {
	t.Helper()
	abs, err := filepath.Abs(sessionFile)
	if err != nil {
		t.Fatal(err)
	}
	return &Input{HookEventName: EventStop, SessionID: "sess-1", TranscriptPath: abs, CWD: cwd}
}

func TestSaveChatGating(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		event   EventType
	}{
		{"disabled", false, EventStop},
		{"wrong event", true, EventUserPromptSubmit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cwd := t.TempDir()
			in := stopInput(t, cwd)
			in.HookEventName = tt.event
			s := SaveChat{Style: StylePlain, Enabled: tt.enabled, Dir: "hist", Now: func() time.Time { return fixedNow }}
			files, err := s.Save(context.Background(), in)
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if len(files) != 0 {
				t.Errorf("Save() wrote %v, want nothing", files)
			}
			if _, err := os.Stat(filepath.Join(cwd, "hist")); !os.IsNotExist(err) {
				t.Error("log directory should not be created")
			}
		})
	}
}

func TestSaveChatStyles(t *testing.T) {
	tests := []struct {
		style Style
		want  []string
	}{
		{StylePlain, []string{"log_250501_102030_plain.md"}},
		{StyleCLI, []string{"log_250501_102030_cli_style.md"}},
		{StyleSpec, []string{
			"AiCode_log_250501_102030_配置_golang_项目的.md",
			"AiCode_log_250501_102030_配置_golang_项目的_resources.txt",
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			cwd := t.TempDir()
			abs := filepath.Join(t.TempDir(), "abs-logs")
			s := SaveChat{Style: tt.style, Enabled: true, Dir: abs, Now: func() time.Time { return fixedNow }}
			files, err := s.Save(context.Background(), stopInput(t, cwd))
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if len(files) != len(tt.want) {
				t.Fatalf("Save() = %v, want %v", files, tt.want)
			}
			for i, f := range files {
				if f != filepath.Join(abs, tt.want[i]) {
					t.Errorf("file[%d] = %q, want %q", i, f, filepath.Join(abs, tt.want[i]))
				}
				data, err := os.ReadFile(f)
				if err != nil {
					t.Fatal(err)
				}
				if len(data) == 0 {
					t.Errorf("%s is empty", f)
				}
			}
		})
	}
}

func TestLogDirOutsideRepo(t *testing.T) {
	cwd := t.TempDir()
	got := LogDir(context.Background(), cwd, "")
	if filepath.Base(got) != "_.zco_hist" {
		t.Errorf("LogDir() = %q, want a _.zco_hist directory", got)
	}
}

func TestDebugDump(t *testing.T) {
	cwd := t.TempDir()
	logs := filepath.Join(t.TempDir(), "logs")
	raw := `{"hook_event_name":"Stop","session_id":"s1","cwd":"` + cwd + `","model":"claude-sonnet-4","extra":42}`
	in, err := ReadInput(strings.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	env := map[string]string{"ANTHROPIC_MODEL": "claude-opus-4"}
	d := Debug{Dir: logs, Getenv: func(k string) string { return env[k] }, Now: func() time.Time { return fixedNow }}

	path, err := d.Dump(context.Background(), in)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if filepath.Base(path) != "hook_debug_Stop.json" {
		t.Errorf("path = %q, want hook_debug_Stop.json", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("debug file is not JSON: %v", err)
	}
	if got["timestamp"] != "2025-05-01T10:20:30.000000" {
		t.Errorf("timestamp = %v", got["timestamp"])
	}
	if got["model"] != "claude-sonnet-4" {
		t.Errorf("model = %v", got["model"])
	}
	envOut := got["env"].(map[string]any)
	if envOut["ANTHROPIC_MODEL"] != "claude-opus-4" || envOut["CLAUDE_CODE_SUBAGENT_MODEL"] != nil {
		t.Errorf("env = %v", envOut)
	}
	full := got["full_input"].(map[string]any)
	if full["extra"] != float64(42) {
		t.Errorf("full_input.extra = %v, want 42", full["extra"])
	}
}

func TestDebugUnknownEvent(t *testing.T) {
	logs := t.TempDir()
	path, err := Debug{Dir: logs}.Dump(context.Background(), &Input{CWD: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "hook_debug_unknown.json" {
		t.Errorf("path = %q, want hook_debug_unknown.json", path)
	}
}
