// Package vcs defines the adapter contract shared by all version control
// backends, the closed set of supported kinds, and the registry used to
// construct the right adapter for a working copy.
package vcs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/execx"
)

// Kind identifies a version control backend. The set is closed: dispatch is
// by typed constant, never by string comparison in hot paths.
type Kind int

// Supported backends.
const (
	KindUnknown Kind = iota
	KindGit
	KindSvn
	KindHg
	KindBzr
	KindTar
)

// kindNames maps kinds to their canonical tags as used in manifests and on
// the command line.
var kindNames = map[Kind]string{ //nolint:gochecknoglobals // Constant-like mapping
	KindGit: "git",
	KindSvn: "svn",
	KindHg:  "hg",
	KindBzr: "bzr",
	KindTar: "tar",
}

// String returns the canonical tag for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind converts a manifest/CLI tag into a Kind.
func ParseKind(tag string) (Kind, error) {
	for k, name := range kindNames {
		if name == tag {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("%q: %w", tag, vcserrors.ErrUnknownKind)
}

// UnmarshalYAML implements yaml.Unmarshaler so manifests can use the
// canonical tags directly.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var tag string
	if err := value.Decode(&tag); err != nil {
		return err
	}
	parsed, err := ParseKind(tag)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Adapter is the public contract every backend exposes. Mutating operations
// report failure by returning false and logging a diagnostic; lookups that
// find nothing return the empty string. Only construction may return an
// error (missing tool, empty path).
type Adapter interface {
	// Kind returns the backend this adapter wraps.
	Kind() Kind

	// DetectPresence reports whether the adapter's path holds a working copy
	// of this kind.
	DetectPresence() bool

	// Checkout creates a working copy at the adapter's path from url,
	// optionally moved to ref.
	Checkout(ctx context.Context, url, ref string) bool

	// Update moves the existing working copy to ref. An empty ref means
	// "reconcile with the tracked upstream" where the backend supports
	// tracking, and is otherwise a no-op.
	Update(ctx context.Context, ref string) bool

	// Version returns the identifier of the commit/revision spec resolves
	// to, or of the current state when spec is empty. Empty on failure.
	Version(ctx context.Context, spec string) string

	// URL returns the upstream location the working copy was created from.
	// Empty when unknown.
	URL(ctx context.Context) string

	// Diff returns a unified diff of local modifications. When basepath is
	// non-empty, paths in the diff are expressed relative to it. Empty when
	// there are no changes or on failure.
	Diff(ctx context.Context, basepath string) string

	// Status returns short status lines for local modifications. untracked
	// controls whether unversioned files are listed. Empty when clean or on
	// failure.
	Status(ctx context.Context, basepath string, untracked bool) string
}

// Deps carries the collaborators injected into every adapter.
type Deps struct {
	// Runner executes external commands. Required for all kinds except tar.
	Runner execx.Runner

	// Logger receives adapter diagnostics.
	Logger zerolog.Logger

	// Tool overrides the backend binary name (e.g. an absolute git path).
	// Empty means the backend default.
	Tool string

	// Timeout is the wall-clock limit applied to each external command.
	// Zero means no limit beyond the context.
	Timeout time.Duration
}

// Factory constructs an adapter rooted at path. Construction verifies the
// external tool is invocable and fails with ErrToolMissing otherwise; it does
// not require a working copy to exist yet (Checkout creates one).
type Factory func(ctx context.Context, path string, deps Deps) (Adapter, error)
