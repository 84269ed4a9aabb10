// Package cli defines the Cobra command tree for the zco-claude CLI. Each file
// in this package registers one top-level command (init, hook, plan, etc.)
// with the root command. Command implementations delegate to internal packages
// for the work and only handle flag parsing, output formatting, and prompts.
package cli
