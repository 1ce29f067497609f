// Package git implements the vcs.Adapter contract on top of the git CLI.
//
// The update path is the interesting part: moving a working copy to a
// requested reference must never orphan commits reachable only from the
// current HEAD. See update.go for the transition rules.
package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/vcsync/internal/constants"
	"github.com/mrz1836/vcsync/internal/ctxutil"
	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/execx"
	"github.com/mrz1836/vcsync/internal/vcs"
)

// defaultTool is the git binary name used when no override is configured.
const defaultTool = "git"

// Adapter wraps one git working copy. Instances are not safe for concurrent
// use against the same path; batch callers run one adapter per repository.
type Adapter struct {
	path    string
	tool    string
	remote  string
	timeout time.Duration
	runner  execx.Runner
	logger  zerolog.Logger

	// version is the detected tool version, read once at construction and
	// cached for the adapter's lifetime. nil when the version string could
	// not be parsed; version-gated features are then disabled.
	version *toolVersion
}

var _ vcs.Adapter = (*Adapter)(nil)

// Factory adapts New to the vcs.Factory signature.
func Factory(ctx context.Context, path string, deps vcs.Deps) (vcs.Adapter, error) {
	return New(ctx, path, deps)
}

// New creates an Adapter rooted at path. It verifies the git binary is
// invocable (ErrToolMissing otherwise) and caches the detected tool version.
// The path does not need to hold a working copy yet; Checkout creates one.
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
		remote:  constants.TrustedRemote,
		timeout: deps.Timeout,
		runner:  deps.Runner,
		logger:  deps.Logger.With().Str("vcs", "git").Str("path", path).Logger(),
	}
	if a.tool == "" {
		a.tool = defaultTool
	}

	version, err := a.detectToolVersion(ctx)
	if err != nil {
		return nil, err
	}
	a.version = version

	return a, nil
}

// Kind returns vcs.KindGit.
func (a *Adapter) Kind() vcs.Kind {
	return vcs.KindGit
}

// DetectPresence reports whether the path holds a git working copy. A .git
// entry of any type counts: worktrees use a file, clones use a directory.
func (a *Adapter) DetectPresence() bool {
	_, err := os.Stat(filepath.Join(a.path, ".git"))
	return err == nil
}

// Checkout clones url into the adapter's path and optionally moves the new
// working copy to ref via the regular update transition.
func (a *Adapter) Checkout(ctx context.Context, url, ref string) bool {
	if err := a.checkout(ctx, url, ref); err != nil {
		a.logger.Error().Err(err).Str("url", url).Str("ref", ref).Msg("checkout failed")
		return false
	}
	return true
}

// Update moves the working copy to ref, or reconciles it with its tracked
// upstream when ref is empty. See update.go for the transition rules.
func (a *Adapter) Update(ctx context.Context, ref string) bool {
	if err := a.update(ctx, ref); err != nil {
		a.logger.Error().Err(err).Str("ref", ref).Msg("update failed")
		return false
	}
	return true
}

// Version resolves spec (or HEAD when empty) to a commit identifier.
// Returns the empty string when the spec does not resolve.
func (a *Adapter) Version(ctx context.Context, spec string) string {
	if spec == "" {
		spec = "HEAD"
	}
	sha, err := a.revParse(ctx, spec)
	if err != nil {
		a.logger.Debug().Err(err).Str("spec", spec).Msg("version lookup failed")
		return ""
	}
	return sha
}

// URL returns the configured URL of the trusted remote.
func (a *Adapter) URL(ctx context.Context) string {
	res, err := a.run(ctx, "config", "--get", "remote."+a.remote+".url")
	if err != nil || !res.Ok() {
		return ""
	}
	return strings.TrimSpace(res.Output)
}

// Diff returns the unified diff of local modifications against HEAD. When
// basepath is given, diff path prefixes are rewritten so the paths read
// relative to basepath rather than the repository root.
func (a *Adapter) Diff(ctx context.Context, basepath string) string {
	args := []string{"diff", "HEAD"}
	if rel := a.relToBase(basepath); rel != "" {
		args = append(args, "--src-prefix="+rel+"/", "--dst-prefix="+rel+"/")
	}
	res, err := a.run(ctx, args...)
	if err != nil || !res.Ok() {
		return ""
	}
	return res.Output
}

// Status returns `git status -s` output, optionally excluding untracked
// files, with paths prefixed relative to basepath when given.
func (a *Adapter) Status(ctx context.Context, basepath string, untracked bool) string {
	args := []string{"status", "-s"}
	if !untracked {
		args = append(args, "-uno")
	}
	res, err := a.run(ctx, args...)
	if err != nil || !res.Ok() {
		return ""
	}
	rel := a.relToBase(basepath)
	if rel == "" || res.Output == "" {
		return res.Output
	}

	// Porcelain short format is "XY path"; splice the relative prefix in
	// front of the path column.
	var sb strings.Builder
	for _, line := range strings.Split(res.Output, "\n") {
		if len(line) > 3 {
			sb.WriteString(line[:3] + rel + "/" + line[3:])
		} else {
			sb.WriteString(line)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// checkout clones and optionally updates to ref.
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
	return a.syncSubmodules(ctx)
}

// run executes a git subcommand in the working copy.
func (a *Adapter) run(ctx context.Context, args ...string) (execx.Result, error) {
	return a.runner.Run(ctx, execx.Request{
		Args:    append([]string{a.tool}, args...),
		Dir:     a.path,
		Timeout: a.timeout,
	})
}

// revParse resolves ref to a full commit identifier. An unresolvable ref is
// not an error: it returns the empty string so callers can use the result as
// an existence probe.
func (a *Adapter) revParse(ctx context.Context, ref string) (string, error) {
	res, err := a.run(ctx, "rev-parse", "--verify", ref)
	if err != nil {
		return "", err
	}
	if !res.Ok() {
		return "", nil
	}
	return strings.TrimSpace(res.Output), nil
}

// relToBase returns the working copy's path relative to basepath with
// forward slashes, or "" when basepath is empty or the paths do not relate.
func (a *Adapter) relToBase(basepath string) string {
	if basepath == "" {
		return ""
	}
	rel, err := filepath.Rel(basepath, a.path)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}
