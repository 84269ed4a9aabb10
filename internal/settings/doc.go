// Package settings reads, merges, validates and writes Claude Code
// settings.json documents.
//
// A Document is kept as a generic JSON object so keys this package does not
// know about survive a round trip. Three files layer on top of each other:
// the global ~/.claude/settings.json, the project .claude/settings.json and
// the project .claude/settings.local.json, later files taking priority.
//
// Writes go through Applier, which compares the template with what is on
// disk, shows a diff, asks whether to overwrite, keep or merge, backs the old
// file up read-only, and then replaces it atomically.
package settings
