// Package config manages user-level settings stored at ~/.claude/zco-claude.yaml.
// Values resolve from flags, then ZCO_* environment variables, then the config
// file, then built-in defaults. Operations receive the resolved Options value
// instead of reading process-wide state.
package config
