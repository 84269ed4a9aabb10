package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/viper"
	"github.com/zco-team/zco-claude/internal/branding"
)

const (
	fileName = "zco-claude"
	fileType = "yaml"

	// tplDirName is the template directory looked up next to the executable.
	tplDirName = "ClaudeSettings"
)

// Config keys. Each maps to a ZCO_<KEY> environment variable.
const (
	KeyTplDir      = "tpl_dir"
	KeyRecordFile  = "record_file"
	KeyChatSaveDir = "chat_save_dir"
)

// Keys lists every key accepted by `config set`.
func Keys() []string {
	return []string{KeyTplDir, KeyRecordFile, KeyChatSaveDir}
}

// Options is the resolved configuration passed into every operation.
type Options struct {
	// TplDir holds the rules/hooks/skills/commands template tree.
	TplDir string
	// RecordFile is the linked-projects record.
	RecordFile string
	// ChatSaveDir is the directory, relative to a repo root, for saved chats.
	ChatSaveDir string
	// ClaudeHome is ~/.claude, where the global settings.json lives.
	ClaudeHome string
	// UserHome is $HOME, used for ~/.gitignore_global.
	UserHome string
}

// GlobalSettingsPath returns ~/.claude/settings.json.
func (o Options) GlobalSettingsPath() string {
	return filepath.Join(o.ClaudeHome, "settings.json")
}

// Dir returns the path to the Claude home directory (~/.claude/).
func Dir() string {
	return filepath.Join(userHome(), branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.claude/zco-claude.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault(KeyRecordFile, filepath.Join(Dir(), branding.RecordFile()))
	viper.SetDefault(KeyChatSaveDir, branding.ChatSaveDir())
	viper.SetDefault(KeyTplDir, DefaultTplDir())

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key %q (valid: %v)", key, Keys())
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Resolve builds Options from the loaded Viper state. Load must run first.
func Resolve() Options {
	return Options{
		TplDir:      absOrSelf(Get(KeyTplDir)),
		RecordFile:  absOrSelf(Get(KeyRecordFile)),
		ChatSaveDir: Get(KeyChatSaveDir),
		ClaudeHome:  Dir(),
		UserHome:    userHome(),
	}
}

// DefaultTplDir prefers a ClaudeSettings directory shipped next to the
// executable and falls back to ~/.claude/zco-tpl.
func DefaultTplDir() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		candidate := filepath.Join(filepath.Dir(exe), tplDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return filepath.Join(Dir(), "zco-tpl")
}

// IsKnownKey reports whether key is one of Keys.
func IsKnownKey(key string) bool {
	return slices.Contains(Keys(), key)
}

func absOrSelf(p string) string {
	if p == "" {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
