package git

import (
	"context"
	"fmt"
	"strings"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/execx"
)

// fastForward reconciles the current branch with its tracked upstream.
//
// After refreshing remote-tracking data (at most once per transition) it is
// a no-op when the upstream tip is already reachable from HEAD, that is when
// the branch is equal or local-ahead. A strictly behind branch is advanced:
// tool versions at or above minVersionResetKeep use `reset --keep`, which
// preserves local edits in files the delta does not touch; older versions
// replay local commits with `rebase`. A diverged branch (local and upstream
// both hold commits the other lacks) must never be reset, since that would
// orphan the local commits: the reset path refuses it with ErrUnsafeMove,
// while the rebase path replays the local commits on the upstream tip. A
// conflict on either path fails the whole operation.
func (a *Adapter) fastForward(ctx context.Context, upstream string, tr *transition) error {
	if err := tr.ensureFetched(ctx, a); err != nil {
		return err
	}

	remoteRef := a.remote + "/" + upstream

	current, err := a.revParse(ctx, "HEAD")
	if err != nil {
		return err
	}
	if current == "" {
		return fmt.Errorf("HEAD does not resolve: %w", vcserrors.ErrCommandFailed)
	}

	tip, err := a.revParse(ctx, remoteRef)
	if err != nil {
		return err
	}
	if tip == "" {
		return fmt.Errorf("tracked upstream %s does not resolve: %w", remoteRef, vcserrors.ErrCommandFailed)
	}

	if current == tip {
		return nil
	}

	// Upstream tip reachable from HEAD means the local branch is strictly
	// ahead; there is nothing to reconcile.
	ahead, err := a.isAncestor(ctx, remoteRef, "HEAD")
	if err != nil {
		return err
	}
	if ahead {
		return nil
	}

	if a.versionAtLeast(minVersionResetKeep) {
		// Resetting is only safe when the upstream contains every local
		// commit. On a diverged branch it would move the ref off commits
		// nothing else references.
		behind, err := a.isAncestor(ctx, "HEAD", remoteRef)
		if err != nil {
			return err
		}
		if !behind {
			return fmt.Errorf("branch and %s have diverged: %w", remoteRef, vcserrors.ErrUnsafeMove)
		}
		return a.resetKeep(ctx, remoteRef)
	}
	return a.rebaseOnto(ctx, remoteRef)
}

// resetKeep advances the branch with `reset --keep`.
func (a *Adapter) resetKeep(ctx context.Context, remoteRef string) error {
	res, err := a.run(ctx, "reset", "--keep", remoteRef)
	if err != nil {
		return err
	}
	if !res.Ok() {
		if isConflictDiag(res.Diag) {
			return fmt.Errorf("reset --keep onto %s: %w", remoteRef, vcserrors.ErrRebaseConflict)
		}
		return execx.ResultError(res)
	}
	return nil
}

// rebaseOnto replays local commits on top of the upstream tip.
func (a *Adapter) rebaseOnto(ctx context.Context, remoteRef string) error {
	res, err := a.run(ctx, "rebase", remoteRef)
	if err != nil {
		return err
	}
	if !res.Ok() {
		if isConflictDiag(res.Diag) {
			return fmt.Errorf("rebase onto %s: %w", remoteRef, vcserrors.ErrRebaseConflict)
		}
		return execx.ResultError(res)
	}
	return nil
}

// isConflictDiag classifies tool diagnostics that indicate the working copy
// and the upstream delta could not be reconciled automatically.
func isConflictDiag(diag string) bool {
	diag = strings.ToLower(diag)
	return strings.Contains(diag, "conflict") ||
		strings.Contains(diag, "could not apply") ||
		strings.Contains(diag, "would be overwritten")
}
