// Package hg implements the vcs.Adapter contract on top of the Mercurial
// CLI. Output is captured directly from the command invocation; there is no
// output-sink redirection trickery at this boundary.
package hg

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

const defaultTool = "hg"

// Adapter wraps one Mercurial working copy.
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

// New creates an Adapter rooted at path, verifying the hg binary is
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
		logger:  deps.Logger.With().Str("vcs", "hg").Str("path", path).Logger(),
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

// Kind returns vcs.KindHg.
func (a *Adapter) Kind() vcs.Kind {
	return vcs.KindHg
}

// DetectPresence reports whether the path holds a Mercurial working copy.
func (a *Adapter) DetectPresence() bool {
	info, err := os.Stat(filepath.Join(a.path, ".hg"))
	return err == nil && info.IsDir()
}

// Checkout clones url and optionally updates to ref.
func (a *Adapter) Checkout(ctx context.Context, url, ref string) bool {
	if err := a.checkout(ctx, url, ref); err != nil {
		a.logger.Error().Err(err).Str("url", url).Str("ref", ref).Msg("checkout failed")
		return false
	}
	return true
}

// Update pulls from the default remote and updates the working copy,
// pinned to ref when one is given.
func (a *Adapter) Update(ctx context.Context, ref string) bool {
	if err := a.update(ctx, ref); err != nil {
		a.logger.Error().Err(err).Str("ref", ref).Msg("update failed")
		return false
	}
	return true
}

// Version returns the working copy's changeset identifier, or the one spec
// resolves to. The dirty marker ("+") Mercurial appends is stripped.
func (a *Adapter) Version(ctx context.Context, spec string) string {
	args := []string{"identify", "-i"}
	if spec != "" {
		args = append(args, "-r", spec)
	}
	res, err := a.run(ctx, args...)
	if err != nil || !res.Ok() {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSpace(res.Output), "+")
}

// URL returns the default pull path.
func (a *Adapter) URL(ctx context.Context) string {
	res, err := a.run(ctx, "paths", "default")
	if err != nil || !res.Ok() {
		return ""
	}
	return strings.TrimSpace(res.Output)
}

// Diff returns `hg diff` output.
func (a *Adapter) Diff(ctx context.Context, basepath string) string {
	dir := a.path
	args := []string{"diff"}
	if basepath != "" {
		if rel, err := filepath.Rel(basepath, a.path); err == nil && rel != "." {
			dir = basepath
			args = append(args, "-R", filepath.ToSlash(rel))
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

// Status returns `hg status` output; -q drops untracked ("?") entries.
func (a *Adapter) Status(ctx context.Context, basepath string, untracked bool) string {
	dir := a.path
	args := []string{"status"}
	if !untracked {
		args = append(args, "-q")
	}
	if basepath != "" {
		if rel, err := filepath.Rel(basepath, a.path); err == nil && rel != "." {
			dir = basepath
			args = append(args, "-R", filepath.ToSlash(rel))
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

	res, err := a.runner.Run(ctx, execx.Request{
		Args:    []string{a.tool, "clone", url, a.path},
		Dir:     parent,
		Timeout: a.timeout,
	})
	if err != nil {
		return err
	}
	if !res.Ok() {
		return execx.ResultError(res)
	}

	if ref != "" {
		return a.update(ctx, ref)
	}
	return nil
}

func (a *Adapter) update(ctx context.Context, ref string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	res, err := a.run(ctx, "pull")
	if err != nil {
		return err
	}
	if !res.Ok() {
		return execx.ResultError(res)
	}

	args := []string{"update"}
	if ref != "" {
		args = append(args, "-r", ref)
	}
	res, err = a.run(ctx, args...)
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
