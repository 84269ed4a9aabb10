// Package output provides styled terminal output and exit-code-carrying
// errors for the CLI.
//
// A Printer renders human-readable lines with lipgloss styles that switch off
// when the writer is not a terminal, or JSON when --json is set:
//
//	p := output.NewPrinter(cmd.OutOrStdout(), jsonMode, output.IsTTY(cmd.OutOrStdout()))
//	p.Success("linked %s", path)
//	p.Check(output.StatusOK, "%s is a valid record", file)
//
// Errors built with NewUserError or NewSystemError carry the process exit
// code; main reads it back with GetExitCode.
package output
