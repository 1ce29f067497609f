package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/vcsync/internal/config"
	"github.com/mrz1836/vcsync/internal/execx"
	"github.com/mrz1836/vcsync/internal/vcs"
	"github.com/mrz1836/vcsync/internal/vcs/bzr"
	"github.com/mrz1836/vcsync/internal/vcs/git"
	"github.com/mrz1836/vcsync/internal/vcs/hg"
	"github.com/mrz1836/vcsync/internal/vcs/svn"
	"github.com/mrz1836/vcsync/internal/vcs/tarball"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// app carries the wired collaborators every subcommand needs. It is built
// once in the root command's PersistentPreRunE.
type app struct {
	flags    *GlobalFlags
	cfg      *config.Config
	logger   zerolog.Logger
	registry *vcs.Registry
	runner   execx.Runner
}

// newRegistry builds the adapter registry with every supported backend.
// The registry is constructed once here and passed by reference; there is no
// ambient global.
func newRegistry() *vcs.Registry {
	registry := vcs.NewRegistry()
	registry.Register(vcs.KindGit, git.Factory)
	registry.Register(vcs.KindSvn, svn.Factory)
	registry.Register(vcs.KindHg, hg.Factory)
	registry.Register(vcs.KindBzr, bzr.Factory)
	registry.Register(vcs.KindTar, tarball.Factory)
	return registry
}

// init wires config, logger, runner and registry after flag parsing.
func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = InitLogger(a.flags.Verbose, a.flags.Quiet, cfg.Log.File)

	opts := []execx.Option{execx.WithLogger(a.logger)}
	if a.flags.Verbose {
		opts = append(opts, execx.WithEcho(os.Stdout))
	}
	a.runner = execx.New(opts...)
	a.registry = newRegistry()
	return nil
}

// timeout resolves the effective per-command timeout: flag over config.
func (a *app) timeout() time.Duration {
	if a.flags.Timeout > 0 {
		return a.flags.Timeout
	}
	return a.cfg.Timeout
}

// deps builds the adapter dependencies for a backend kind, applying any
// configured binary override.
func (a *app) deps(kind vcs.Kind) vcs.Deps {
	return vcs.Deps{
		Runner:  a.runner,
		Logger:  a.logger,
		Tool:    a.cfg.Tools[kind.String()],
		Timeout: a.timeout(),
	}
}

// adapterFor detects the kind of the working copy at path and constructs the
// matching adapter.
func (a *app) adapterFor(ctx context.Context, path string) (vcs.Adapter, error) {
	kind, err := vcs.DetectKind(path)
	if err != nil {
		return nil, err
	}
	return a.registry.New(ctx, kind, path, a.deps(kind))
}

// newRootCmd creates the root command for the vcsync CLI.
func newRootCmd(a *app, info BuildInfo) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "vcsync",
		Short: "vcsync - synchronize working copies across VCS tools",
		Long: `vcsync unifies checkout, update, status, diff and version operations
over git, svn, hg, bzr and tar archives behind one interface, and keeps
whole workspaces of repositories in sync from a single manifest.`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			return a.init()
		},
		// SilenceUsage prevents printing usage on error
		// (we handle our own error messages)
		SilenceUsage: true,
	}

	AddGlobalFlags(cmd, a.flags)

	AddCheckoutCommand(cmd, a)
	AddUpdateCommand(cmd, a)
	AddStatusCommand(cmd, a)
	AddDiffCommand(cmd, a)
	AddVersionCommand(cmd, a)
	AddDetectCommand(cmd, a)
	AddSyncCommand(cmd, a)

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
func Execute(ctx context.Context, info BuildInfo) error {
	a := &app{flags: &GlobalFlags{}}
	cmd := newRootCmd(a, info)
	defer CloseLogFile()

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("command failed")
	}
	return err
}
