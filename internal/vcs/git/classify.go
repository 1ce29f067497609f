package git

import (
	"context"
	"strings"

	"github.com/mrz1836/vcsync/internal/execx"
)

// Reference classification. A name may simultaneously be a commit id, a
// local branch, a remote branch, and a tag; git itself is the source of
// truth. Classification precedence is local-first: the update engine asks
// IsLocalBranch before anything else.

// IsLocalBranch reports whether name exactly matches a local branch.
func (a *Adapter) IsLocalBranch(ctx context.Context, name string) (bool, error) {
	res, err := a.run(ctx, "branch")
	if err != nil {
		return false, err
	}
	if !res.Ok() {
		return false, execx.ResultError(res)
	}
	for _, branch := range parseBranchList(res.Output) {
		if branch == name {
			return true, nil
		}
	}
	return false, nil
}

// IsRemoteBranch reports whether name exactly matches a branch on the
// trusted remote. When fetch is true the remote-tracking data is refreshed
// first (at most once per update operation).
func (a *Adapter) IsRemoteBranch(ctx context.Context, name string, fetch bool) (bool, error) {
	return a.isRemoteBranch(ctx, name, &transition{fetched: !fetch})
}

// isRemoteBranch is the transition-aware variant used by the update engine.
func (a *Adapter) isRemoteBranch(ctx context.Context, name string, tr *transition) (bool, error) {
	if err := tr.ensureFetched(ctx, a); err != nil {
		return false, err
	}

	res, err := a.run(ctx, "branch", "-r")
	if err != nil {
		return false, err
	}
	if !res.Ok() {
		return false, execx.ResultError(res)
	}

	// Only branches under the trusted remote count; "origin/HEAD -> ..."
	// aliases are skipped.
	want := a.remote + "/" + name
	for _, line := range strings.Split(res.Output, "\n") {
		branch := strings.TrimSpace(line)
		if branch == "" || strings.Contains(branch, " -> ") {
			continue
		}
		if branch == want {
			return true, nil
		}
	}
	return false, nil
}

// IsTag reports whether name exactly matches a tag. When fetch is true the
// remote is consulted first.
func (a *Adapter) IsTag(ctx context.Context, name string, fetch bool) (bool, error) {
	return a.isTag(ctx, name, &transition{fetched: !fetch})
}

// isTag is the transition-aware variant used by the update engine.
func (a *Adapter) isTag(ctx context.Context, name string, tr *transition) (bool, error) {
	if err := tr.ensureFetched(ctx, a); err != nil {
		return false, err
	}

	res, err := a.run(ctx, "tag", "-l", name)
	if err != nil {
		return false, err
	}
	if !res.Ok() {
		return false, execx.ResultError(res)
	}

	matches := 0
	for _, line := range strings.Split(res.Output, "\n") {
		if strings.TrimSpace(line) == name {
			matches++
		}
	}
	return matches == 1, nil
}

// parseBranchList extracts branch names from `git branch` output, stripping
// the current-branch marker and skipping the "(HEAD detached at ...)" line.
func parseBranchList(output string) []string {
	var branches []string
	for _, line := range strings.Split(output, "\n") {
		branch := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "* "))
		if branch == "" || strings.HasPrefix(branch, "(") {
			continue
		}
		branches = append(branches, branch)
	}
	return branches
}
