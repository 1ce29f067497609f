// Package main provides the entry point for the vcsync CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/vcsync/internal/cli"
)

// Build-time variables set via ldflags.
var (
	version = "" //nolint:gochecknoglobals // Set by the linker
	commit  = "" //nolint:gochecknoglobals // Set by the linker
	date    = "" //nolint:gochecknoglobals // Set by the linker
)

func main() {
	ctx := context.Background()
	info := cli.BuildInfo{Version: version, Commit: commit, Date: date}
	if err := cli.Execute(ctx, info); err != nil {
		os.Exit(cli.ExitCodeForError(err))
	}
}
