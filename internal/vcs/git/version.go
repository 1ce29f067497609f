package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/execx"
)

// Version thresholds for version-gated behavior.
const (
	// minVersionResetKeep is the first git release with `reset --keep`,
	// the non-destructive fast-forward that preserves unrelated local edits.
	minVersionResetKeep = "1.7.1"

	// minVersionSubmodules is the first release whose submodule command set
	// is complete enough for recursive init-and-update.
	minVersionSubmodules = "1.7.0"
)

// toolVersion is the parsed git version, cached per adapter.
type toolVersion struct {
	parsed *semver.Version
	raw    string
}

// detectToolVersion runs `git --version` once. A launch failure means the
// binary is missing entirely and is fatal; an unparsable version string is
// tolerated and disables version-gated features.
func (a *Adapter) detectToolVersion(ctx context.Context) (*toolVersion, error) {
	res, err := a.runner.Run(ctx, execx.Request{
		Args:    []string{a.tool, "--version"},
		Dir:     ".",
		Timeout: a.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", a.tool, err, vcserrors.ErrToolMissing)
	}
	if !res.Ok() {
		return nil, fmt.Errorf("%s --version failed: %s: %w", a.tool, res.Diag, vcserrors.ErrToolMissing)
	}

	tv := &toolVersion{raw: strings.TrimSpace(res.Output)}
	if parsed, err := parseToolVersion(res.Output); err == nil {
		tv.parsed = parsed
	} else {
		a.logger.Debug().Str("output", tv.raw).Msg("unparsable git version, version-gated features disabled")
	}
	return tv, nil
}

// parseToolVersion extracts a semantic version from `git --version` output
// such as "git version 2.39.2" or "git version 2.39.2.windows.1". Only the
// first three numeric components are kept.
func parseToolVersion(output string) (*semver.Version, error) {
	for _, field := range strings.Fields(output) {
		if field == "" || field[0] < '0' || field[0] > '9' {
			continue
		}
		parts := strings.Split(field, ".")
		numeric := make([]string, 0, 3)
		for _, p := range parts {
			if !allDigits(p) || len(numeric) == 3 {
				break
			}
			numeric = append(numeric, p)
		}
		if len(numeric) == 0 {
			continue
		}
		return semver.NewVersion(strings.Join(numeric, "."))
	}
	return nil, fmt.Errorf("no version in %q: %w", output, vcserrors.ErrToolMissing)
}

// allDigits reports whether s is non-empty and entirely ASCII digits.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// versionAtLeast reports whether the cached tool version is at or above min.
// An unknown version always reports false so gated features stay off.
func (a *Adapter) versionAtLeast(min string) bool {
	if a.version == nil || a.version.parsed == nil {
		return false
	}
	threshold, err := semver.NewVersion(min)
	if err != nil {
		return false
	}
	return !a.version.parsed.LessThan(threshold)
}
