package settings

// Default builds the settings template written by `init` and `global`. Hook
// commands invoke cli, the installed binary name, so the runtime calls back
// into this tool.
func Default(cli string) Document {
	hook := func(name string) map[string]any {
		return map[string]any{"type": "command", "command": cli + " hook " + name}
	}
	return Document{
		"env": map[string]any{
			"ZCO_CHAT_SAVE_SPEC":            "0",
			"ZCO_CHAT_SAVE_PLAIN":           "0",
			"ZCO_CHAT_SAVE_CLI":             "0",
			"ZCO_AUTO_GIT_COMMIT_MODE":      "0",
			"CLAUDE_CODE_MAX_OUTPUT_TOKENS": "3000",
		},
		"alwaysThinkingEnabled": true,
		"permissions": map[string]any{
			"deny": []any{
				"Read(./.DS_Store)",
				"Read(**/.DS_Store)",
				"Read(**/__pycache__)",
				"Read(**/__pycache__/**)",
				"Write(**/docs/manual/**)",
			},
			"allow": []any{
				"Bash(echo:*)",
				"Bash(tree -L 2 -d:*)",
				"Bash(tree:*)",
				"Bash(head:*)",
				"Bash(grep:*)",
				"Bash(xargs cat:*)",
				"Bash(xargs ls:*)",
				"Bash(find:*)",
				"Bash(wc:*)",
				"Read(docs/*)",
				"Write(_.claude_hist/*)",
				"Bash(cat:*)",
				"Bash(ls:*)",
				"Bash(git submodule status:*)",
			},
		},
		"hooks": map[string]any{
			"Stop": []any{
				map[string]any{"hooks": []any{
					hook("save-chat-plain"),
					hook("save-chat-spec"),
					hook("save-chat-cli"),
				}},
			},
			"UserPromptSubmit": []any{
				map[string]any{"hooks": []any{
					hook("git-auto-commit"),
				}},
			},
		},
	}
}
