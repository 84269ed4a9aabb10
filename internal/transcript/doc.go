// Package transcript reads Claude Code session transcripts (JSON Lines) and
// renders them as Markdown chat logs in three layouts: plain text, a
// reference-oriented report and a terminal-like view with collapsible tool
// calls.
package transcript
