package git

import (
	"context"
	"strings"
)

// refPrefixes are stripped, in order, from a configured merge-ref before it
// is tested as a remote branch name.
var refPrefixes = []string{"refs/", "heads/", "tags/", "remotes/"} //nolint:gochecknoglobals // Constant-like table

// TrackedUpstream returns the name of the remote branch the current local
// branch is configured to track, or "" when tracking is undefined. The
// relation is re-derived on every call because a checkout can change it.
//
// Tracking is undefined when:
//   - HEAD is detached,
//   - no merge-ref is configured, or more than one is (unsupported layout),
//   - the configured remote is not the trusted remote.
func (a *Adapter) TrackedUpstream(ctx context.Context, fetch bool) (string, error) {
	return a.trackedUpstream(ctx, &transition{fetched: !fetch})
}

// trackedUpstream is the transition-aware variant used by the update engine.
func (a *Adapter) trackedUpstream(ctx context.Context, tr *transition) (string, error) {
	st, err := a.headState(ctx)
	if err != nil {
		return "", err
	}
	if !st.onBranch() {
		return "", nil
	}

	mergeRef, ok, err := a.configuredMergeRef(ctx, st.branch)
	if err != nil || !ok {
		return "", err
	}

	remote, err := a.configuredRemote(ctx, st.branch)
	if err != nil {
		return "", err
	}
	if remote != a.remote {
		// Only the single trusted remote is supported. A branch tracking
		// anything else is treated as untracked, not as an error.
		return "", nil
	}

	stripped := mergeRef
	for _, prefix := range refPrefixes {
		stripped = strings.TrimPrefix(stripped, prefix)
	}

	if isRemote, err := a.isRemoteBranch(ctx, stripped, tr); err != nil {
		return "", err
	} else if isRemote {
		return stripped, nil
	}

	// Arbitrarily named refs can collide with the path-like prefixes above;
	// fall back to the raw configured value before giving up.
	if stripped != mergeRef {
		if isRemote, err := a.isRemoteBranch(ctx, mergeRef, tr); err != nil {
			return "", err
		} else if isRemote {
			return mergeRef, nil
		}
	}

	return "", nil
}

// configuredMergeRef reads branch.<name>.merge. ok is false when no single
// merge-ref is configured: zero entries mean no tracking, several entries
// mean an unsupported layout. Both yield "tracking undefined".
func (a *Adapter) configuredMergeRef(ctx context.Context, branch string) (ref string, ok bool, err error) {
	res, err := a.run(ctx, "config", "--get-all", "branch."+branch+".merge")
	if err != nil {
		return "", false, err
	}
	if !res.Ok() {
		// git config exits 1 when the key is absent.
		return "", false, nil
	}

	var refs []string
	for _, line := range strings.Split(res.Output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			refs = append(refs, line)
		}
	}
	if len(refs) != 1 {
		return "", false, nil
	}
	return refs[0], true, nil
}

// configuredRemote reads branch.<name>.remote, "" when absent.
func (a *Adapter) configuredRemote(ctx context.Context, branch string) (string, error) {
	res, err := a.run(ctx, "config", "--get", "branch."+branch+".remote")
	if err != nil {
		return "", err
	}
	if !res.Ok() {
		return "", nil
	}
	return strings.TrimSpace(res.Output), nil
}
