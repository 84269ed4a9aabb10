// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded into the binary; edit it to rename the tool,
// its home directory, or the prefix of the environment variables it reads.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	GoModule    string `yaml:"go_module"`
	GitHubRepo  string `yaml:"github_repo"`
	RecordFile  string `yaml:"record_file"`
	ChatSaveDir string `yaml:"chat_save_dir"`
}

func load() {
	once.Do(func() {
		defaults = brand{
			CLIName:     "zco-claude",
			DisplayName: "ZCO Claude",
			Description: "Template linking, settings merge, and chat hooks for Claude Code",
			HomeDir:     ".claude",
			EnvPrefix:   "ZCO",
			GoModule:    "github.com/zco-team/zco-claude",
			GitHubRepo:  "zco-team/zco-claude",
			RecordFile:  "zco-linked-projects.json",
			ChatSaveDir: "_.zco_hist",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "zco-claude").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME that Claude Code reads (".claude").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "ZCO").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GitHubRepo returns the "owner/repo" string.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// RecordFile returns the file name of the linked-projects record under HomeDir.
func RecordFile() string { load(); return defaults.RecordFile }

// ChatSaveDir returns the default per-repo directory for saved conversations.
func ChatSaveDir() string { load(); return defaults.ChatSaveDir }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("chat_save_dir") → "ZCO_CHAT_SAVE_DIR".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
