package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrz1836/vcsync/internal/ctxutil"
	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/execx"
)

// transition carries the per-operation state of one update, most importantly
// whether this operation has already fetched from the trusted remote. Every
// step that might need remote-tracking data goes through ensureFetched, so a
// single update never fetches twice and never skips a needed fetch.
type transition struct {
	fetched bool
}

// ensureFetched fetches from the trusted remote exactly once per transition.
func (t *transition) ensureFetched(ctx context.Context, a *Adapter) error {
	if t.fetched {
		return nil
	}
	res, err := a.run(ctx, "fetch", a.remote)
	if err != nil {
		return err
	}
	if !res.Ok() {
		return execx.ResultError(res)
	}
	t.fetched = true
	return nil
}

// headState is the observed position of the working copy.
type headState struct {
	branch string // local branch name, "" when detached
	commit string // full identifier of HEAD
}

// onBranch reports whether HEAD is on a named local branch.
func (s headState) onBranch() bool {
	return s.branch != ""
}

// headState reads the current branch (if any) and commit.
func (a *Adapter) headState(ctx context.Context) (headState, error) {
	res, err := a.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return headState{}, err
	}
	if !res.Ok() {
		return headState{}, execx.ResultError(res)
	}

	st := headState{}
	if name := strings.TrimSpace(res.Output); name != "HEAD" {
		st.branch = name
	}

	res, err = a.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return headState{}, err
	}
	if !res.Ok() {
		return headState{}, execx.ResultError(res)
	}
	st.commit = strings.TrimSpace(res.Output)
	return st, nil
}

// update is the transition logic behind Update. Rules, evaluated in order:
//
//  1. No target: fast-forward against the tracked upstream when one exists,
//     otherwise only sub-repositories are synchronized.
//  2. Target names the current branch or its upstream: fast-forward when
//     tracking exists, otherwise nothing to reconcile.
//  3. Target is a different reference: classify it, refuse moves that would
//     orphan the current commit, then check out (fetching at most once).
//  4. Always conclude by synchronizing submodules (version-gated).
//
// Any command failure at the checkout step aborts the whole update; the
// working copy is left wherever git left it. There is no rollback.
func (a *Adapter) update(ctx context.Context, target string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	tr := &transition{}
	st, err := a.headState(ctx)
	if err != nil {
		return err
	}

	// Rule 1: no explicit target.
	if target == "" {
		upstream := ""
		if st.onBranch() {
			if upstream, err = a.trackedUpstream(ctx, tr); err != nil {
				return err
			}
		}
		if upstream != "" {
			if err := a.fastForward(ctx, upstream, tr); err != nil {
				return err
			}
		}
		return a.syncSubmodules(ctx)
	}

	// Rule 2: same-branch move.
	if st.onBranch() {
		upstream, err := a.trackedUpstream(ctx, tr)
		if err != nil {
			return err
		}
		if target == st.branch || (upstream != "" && target == upstream) {
			if upstream != "" {
				if err := a.fastForward(ctx, upstream, tr); err != nil {
					return err
				}
			}
			return a.syncSubmodules(ctx)
		}
	}

	// Rule 3: moving to a different reference.
	return a.moveTo(ctx, st, target, tr)
}

// moveTo performs the transition to a reference that is neither the current
// branch nor its upstream.
func (a *Adapter) moveTo(ctx context.Context, st headState, target string, tr *transition) error {
	isLocal, err := a.IsLocalBranch(ctx, target)
	if err != nil {
		return err
	}
	isBranch := isLocal
	if !isLocal {
		isRemote, err := a.isRemoteBranch(ctx, target, tr)
		if err != nil {
			return err
		}
		isBranch = isRemote
	}

	// Fast path: a non-branch target that is already checked out.
	if !isBranch {
		sha, err := a.revParse(ctx, target)
		if err != nil {
			return err
		}
		if sha != "" && sha == st.commit {
			return a.syncSubmodules(ctx)
		}
	}

	// Safety check: when detached on a commit no branch or tag reaches,
	// moving away would orphan it. Permit the move only when the target
	// descends from the current commit.
	if !st.onBranch() {
		dangling, err := a.isDangling(ctx, st.commit)
		if err != nil {
			return err
		}
		if dangling {
			if err := tr.ensureFetched(ctx, a); err != nil {
				return err
			}
			forward, err := a.isAncestor(ctx, st.commit, target)
			if err != nil {
				return err
			}
			if !forward {
				return fmt.Errorf("current commit %s is referenced by no branch or tag and %q does not descend from it: %w",
					shortID(st.commit), target, vcserrors.ErrUnsafeMove)
			}
		}
	}

	if err := tr.ensureFetched(ctx, a); err != nil {
		return err
	}

	res, err := a.run(ctx, "checkout", target)
	if err != nil {
		return err
	}
	if !res.Ok() {
		return execx.ResultError(res)
	}

	// A local branch may track an upstream of its own; reconcile it now that
	// it is checked out.
	if isLocal {
		upstream, err := a.trackedUpstream(ctx, tr)
		if err != nil {
			return err
		}
		if upstream != "" {
			if err := a.fastForward(ctx, upstream, tr); err != nil {
				return err
			}
		}
	}

	return a.syncSubmodules(ctx)
}

// isDangling reports whether commit is reachable from no branch (local or
// remote-tracking) and no tag, making it eligible for garbage collection.
func (a *Adapter) isDangling(ctx context.Context, commit string) (bool, error) {
	probes := [][]string{
		{"branch", "--contains", commit},
		{"branch", "-r", "--contains", commit},
		{"tag", "--contains", commit},
	}
	for _, args := range probes {
		res, err := a.run(ctx, args...)
		if err != nil {
			return false, err
		}
		if !res.Ok() {
			return false, execx.ResultError(res)
		}
		if len(parseBranchList(res.Output)) > 0 {
			return false, nil
		}
	}
	return true, nil
}

// isAncestor reports whether ancestor is reachable from descendant. It runs
// the reachability difference (commits reachable from ancestor but not from
// descendant): an empty difference means descendant contains ancestor.
func (a *Adapter) isAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	res, err := a.run(ctx, "rev-list", ancestor, "--not", descendant)
	if err != nil {
		return false, err
	}
	if !res.Ok() {
		return false, execx.ResultError(res)
	}
	return strings.TrimSpace(res.Output) == "", nil
}

// syncSubmodules recursively initializes and updates submodules. Tool
// versions below the documented threshold skip this entirely.
func (a *Adapter) syncSubmodules(ctx context.Context) error {
	if !a.versionAtLeast(minVersionSubmodules) {
		return nil
	}
	res, err := a.run(ctx, "submodule", "update", "--init", "--recursive")
	if err != nil {
		return err
	}
	if !res.Ok() {
		return execx.ResultError(res)
	}
	return nil
}

// shortID abbreviates a commit identifier for diagnostics.
func shortID(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
