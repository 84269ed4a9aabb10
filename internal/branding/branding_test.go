package branding

import "testing"

func TestEnvVar(t *testing.T) {
	tests := []struct {
		suffix string
		want   string
	}{
		{"chat_save_dir", "ZCO_CHAT_SAVE_DIR"},
		{"AUTO_GIT_COMMIT_MODE", "ZCO_AUTO_GIT_COMMIT_MODE"},
		{"tpl_dir", "ZCO_TPL_DIR"},
	}
	for _, tt := range tests {
		if got := EnvVar(tt.suffix); got != tt.want {
			t.Errorf("EnvVar(%q) = %q, want %q", tt.suffix, got, tt.want)
		}
	}
}

func TestEmbeddedValues(t *testing.T) {
	if CLIName() != "zco-claude" {
		t.Errorf("CLIName() = %q", CLIName())
	}
	if HomeDir() != ".claude" {
		t.Errorf("HomeDir() = %q", HomeDir())
	}
	if ChatSaveDir() != "_.zco_hist" {
		t.Errorf("ChatSaveDir() = %q", ChatSaveDir())
	}
}
