// Package bzr implements the vcs.Adapter contract on top of the Bazaar CLI.
package bzr

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

const defaultTool = "bzr"

// Adapter wraps one Bazaar working copy.
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

// New creates an Adapter rooted at path, verifying the bzr binary is
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
		logger:  deps.Logger.With().Str("vcs", "bzr").Str("path", path).Logger(),
	}
	if a.tool == "" {
		a.tool = defaultTool
	}

	res, err := a.runner.Run(ctx, execx.Request{
		Args:    []string{a.tool, "version", "--short"},
		Dir:     ".",
		Timeout: a.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", a.tool, err, vcserrors.ErrToolMissing)
	}
	if !res.Ok() {
		return nil, fmt.Errorf("%s version failed: %s: %w", a.tool, res.Diag, vcserrors.ErrToolMissing)
	}

	return a, nil
}

// Kind returns vcs.KindBzr.
func (a *Adapter) Kind() vcs.Kind {
	return vcs.KindBzr
}

// DetectPresence reports whether the path holds a Bazaar working copy.
func (a *Adapter) DetectPresence() bool {
	info, err := os.Stat(filepath.Join(a.path, ".bzr"))
	return err == nil && info.IsDir()
}

// Checkout branches url into the adapter's path, pinned to ref when given.
func (a *Adapter) Checkout(ctx context.Context, url, ref string) bool {
	if err := a.checkout(ctx, url, ref); err != nil {
		a.logger.Error().Err(err).Str("url", url).Str("ref", ref).Msg("checkout failed")
		return false
	}
	return true
}

// Update pulls from the parent branch; with a ref, the tree is additionally
// moved to that revision.
func (a *Adapter) Update(ctx context.Context, ref string) bool {
	if err := a.update(ctx, ref); err != nil {
		a.logger.Error().Err(err).Str("ref", ref).Msg("update failed")
		return false
	}
	return true
}

// Version returns the tree revision number, or the revision id spec
// resolves to.
func (a *Adapter) Version(ctx context.Context, spec string) string {
	if spec != "" {
		res, err := a.run(ctx, "revision-info", "-r", spec)
		if err != nil || !res.Ok() {
			return ""
		}
		// Output is "<revno> <revision-id>"; the revno is the identifier
		// users pin in manifests.
		fields := strings.Fields(res.Output)
		if len(fields) == 0 {
			return ""
		}
		return fields[0]
	}

	res, err := a.run(ctx, "revno", "--tree")
	if err != nil || !res.Ok() {
		return ""
	}
	return strings.TrimSpace(res.Output)
}

// URL returns the parent branch location from `bzr info`.
func (a *Adapter) URL(ctx context.Context) string {
	res, err := a.run(ctx, "info")
	if err != nil || !res.Ok() {
		return ""
	}
	for _, line := range strings.Split(res.Output, "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "parent branch: "); ok {
			return strings.TrimSpace(after)
		}
	}
	return ""
}

// Diff returns `bzr diff` output. bzr exits 1 when differences exist, so a
// nonzero exit with output is still a successful diff.
func (a *Adapter) Diff(ctx context.Context, basepath string) string {
	args := []string{"diff"}
	if basepath != "" {
		if rel, err := filepath.Rel(basepath, a.path); err == nil && rel != "." {
			args = append(args, "--prefix", filepath.ToSlash(rel)+"/old:"+filepath.ToSlash(rel)+"/new")
		}
	}
	res, err := a.run(ctx, args...)
	if err != nil {
		return ""
	}
	return res.Output
}

// Status returns `bzr status -S` output; untracked ("?") entries are
// filtered out when untracked is false.
func (a *Adapter) Status(ctx context.Context, basepath string, untracked bool) string {
	args := []string{"status", "-S"}
	if !untracked {
		args = append(args, "-V")
	}
	res, err := a.run(ctx, args...)
	if err != nil || !res.Ok() {
		return ""
	}

	rel := ""
	if basepath != "" {
		if r, err := filepath.Rel(basepath, a.path); err == nil && r != "." {
			rel = filepath.ToSlash(r)
		}
	}
	if rel == "" || res.Output == "" {
		return res.Output
	}

	var sb strings.Builder
	for _, line := range strings.Split(res.Output, "\n") {
		if len(line) > 4 {
			sb.WriteString(line[:4] + rel + "/" + line[4:])
		} else {
			sb.WriteString(line)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
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

	args := []string{a.tool, "branch"}
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

func (a *Adapter) update(ctx context.Context, ref string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	args := []string{"pull"}
	if ref != "" {
		args = append(args, "-r", ref)
	}
	res, err := a.run(ctx, args...)
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
