package cli

import (
	stderrors "errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/vcsync/internal/errors"
)

// Exit codes for the CLI.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0
	// ExitError indicates a general error, including failed VCS operations.
	ExitError = 1
	// ExitInvalidInput indicates invalid user input.
	ExitInvalidInput = 2
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Verbose enables debug-level logging and command echo.
	Verbose bool
	// Quiet suppresses non-essential output (warn level only).
	Quiet bool
	// Timeout overrides the per-command wall-clock limit from config.
	Timeout time.Duration
}

// AddGlobalFlags adds global flags to a command via PersistentFlags.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.PersistentFlags().DurationVar(&flags.Timeout, "timeout", 0, "per-command timeout (0 = no limit)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// BindGlobalFlags binds global flags to viper for environment variable
// support (VCSYNC_VERBOSE, VCSYNC_QUIET, VCSYNC_TIMEOUT).
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	rootFlags := cmd.Root().PersistentFlags()

	for _, name := range []string{"verbose", "quiet", "timeout"} {
		if err := v.BindPFlag(name, rootFlags.Lookup(name)); err != nil {
			return err
		}
	}

	v.SetEnvPrefix("VCSYNC")
	v.AutomaticEnv()
	return nil
}

// ExitCodeForError maps an error to a process exit code.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if stderrors.Is(err, errors.ErrUnknownKind) || stderrors.Is(err, errors.ErrEmptyValue) {
		return ExitInvalidInput
	}
	return ExitError
}
