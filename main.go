package main

import (
	"context"
	"os"

	"github.com/zco-team/zco-claude/internal/cli"
	"github.com/zco-team/zco-claude/internal/output"
)

// version, commit, and date are set via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	err := cli.Execute(context.Background(), version, commit, date)
	os.Exit(output.GetExitCode(err))
}
