// Package svn implements the vcs.Adapter contract on top of the svn CLI.
// Subversion has no local branches or tracking relations, so update is a
// plain `svn update` pinned to a revision when one is requested.
package svn

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/vcsync/internal/ctxutil"
	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/execx"
	"github.com/mrz1836/vcsync/internal/vcs"
)

const defaultTool = "svn"

// Adapter wraps one svn working copy.
type Adapter struct {
	path    string
	tool    string
	timeout time.Duration
	runner  execx.Runner
	logger  zerolog.Logger
}

var _ vcs.Adapter = (*Adapter)(nil)

// Factory adapts New to the vcs.Factory signature.
func Factory(ctx context.Context, path string, deps vcs.Deps) (vcs.Adapter, error) {
	return New(ctx, path, deps)
}

// New creates an Adapter rooted at path, verifying the svn binary is
// invocable.
func New(ctx context.Context, path string, deps vcs.Deps) (*Adapter, error) {
	if path == "" {
		return nil, fmt.Errorf("working copy path cannot be empty: %w", vcserrors.ErrEmptyValue)
	}
	if deps.Runner == nil {
		return nil, fmt.Errorf("runner cannot be nil: %w", vcserrors.ErrEmptyValue)
	}

	a := &Adapter{
		path:    path,
		tool:    deps.Tool,
		timeout: deps.Timeout,
		runner:  deps.Runner,
		logger:  deps.Logger.With().Str("vcs", "svn").Str("path", path).Logger(),
	}
	if a.tool == "" {
		a.tool = defaultTool
	}

	res, err := a.runner.Run(ctx, execx.Request{
		Args:    []string{a.tool, "--version", "--quiet"},
		Dir:     ".",
		Timeout: a.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", a.tool, err, vcserrors.ErrToolMissing)
	}
	if !res.Ok() {
		return nil, fmt.Errorf("%s --version failed: %s: %w", a.tool, res.Diag, vcserrors.ErrToolMissing)
	}

	return a, nil
}

// Kind returns vcs.KindSvn.
func (a *Adapter) Kind() vcs.Kind {
	return vcs.KindSvn
}

// DetectPresence reports whether the path holds an svn working copy.
func (a *Adapter) DetectPresence() bool {
	info, err := os.Stat(filepath.Join(a.path, ".svn"))
	return err == nil && info.IsDir()
}

// Checkout runs `svn checkout`, pinned to ref when one is given.
func (a *Adapter) Checkout(ctx context.Context, url, ref string) bool {
	if err := a.checkout(ctx, url, ref); err != nil {
		a.logger.Error().Err(err).Str("url", url).Str("ref", ref).Msg("checkout failed")
		return false
	}
	return true
}

// Update runs `svn update`, pinned to ref when one is given.
func (a *Adapter) Update(ctx context.Context, ref string) bool {
	if err := ctxutil.Canceled(ctx); err != nil {
		a.logger.Error().Err(err).Msg("update canceled")
		return false
	}

	args := []string{"update"}
	if ref != "" {
		args = append(args, "-r", ref)
	}
	res, err := a.run(ctx, args...)
	if err != nil || !res.Ok() {
		a.logger.Error().AnErr("err", err).Str("diag", res.Diag).Msg("update failed")
		return false
	}
	return true
}

// Version returns the working copy revision, or the revision spec resolves
// to. Empty on failure.
func (a *Adapter) Version(ctx context.Context, spec string) string {
	args := []string{"info"}
	if spec != "" {
		args = append(args, "-r", spec)
	}
	res, err := a.run(ctx, args...)
	if err != nil || !res.Ok() {
		return ""
	}
	return parseInfoField(res.Output, "Revision")
}

// URL returns the checkout URL recorded in `svn info`.
func (a *Adapter) URL(ctx context.Context) string {
	res, err := a.run(ctx, "info")
	if err != nil || !res.Ok() {
		return ""
	}
	return parseInfoField(res.Output, "URL")
}

// Diff returns `svn diff` output; path prefixing is left to svn itself when
// run from basepath.
func (a *Adapter) Diff(ctx context.Context, basepath string) string {
	dir := a.path
	args := []string{"diff"}
	if basepath != "" {
		if rel, err := filepath.Rel(basepath, a.path); err == nil && rel != "." {
			dir = basepath
			args = append(args, filepath.ToSlash(rel))
		}
	}
	res, err := a.runner.Run(ctx, execx.Request{
		Args:    append([]string{a.tool}, args...),
		Dir:     dir,
		Timeout: a.timeout,
	})
	if err != nil || !res.Ok() {
		return ""
	}
	return res.Output
}

// Status returns `svn status` output. Untracked ("?") entries are dropped
// with -q when untracked is false.
func (a *Adapter) Status(ctx context.Context, basepath string, untracked bool) string {
	dir := a.path
	args := []string{"status"}
	if !untracked {
		args = append(args, "-q")
	}
	if basepath != "" {
		if rel, err := filepath.Rel(basepath, a.path); err == nil && rel != "." {
			dir = basepath
			args = append(args, filepath.ToSlash(rel))
		}
	}
	res, err := a.runner.Run(ctx, execx.Request{
		Args:    append([]string{a.tool}, args...),
		Dir:     dir,
		Timeout: a.timeout,
	})
	if err != nil || !res.Ok() {
		return ""
	}
	return res.Output
}

func (a *Adapter) checkout(ctx context.Context, url, ref string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	if url == "" {
		return fmt.Errorf("checkout url cannot be empty: %w", vcserrors.ErrEmptyValue)
	}

	parent := filepath.Dir(a.path)
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return fmt.Errorf("creating checkout parent: %w", err)
	}

	args := []string{a.tool, "checkout"}
	if ref != "" {
		args = append(args, "-r", ref)
	}
	args = append(args, url, a.path)

	res, err := a.runner.Run(ctx, execx.Request{Args: args, Dir: parent, Timeout: a.timeout})
	if err != nil {
		return err
	}
	return execx.ResultError(res)
}

func (a *Adapter) run(ctx context.Context, args ...string) (execx.Result, error) {
	return a.runner.Run(ctx, execx.Request{
		Args:    append([]string{a.tool}, args...),
		Dir:     a.path,
		Timeout: a.timeout,
	})
}

// parseInfoField extracts "<field>: value" from `svn info` output.
func parseInfoField(output, field string) string {
	prefix := field + ": "
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return ""
}
