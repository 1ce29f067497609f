// Package workspace loads workspace manifests and synchronizes the
// repositories they describe. Parallelism lives here, above the adapters:
// one adapter instance per repository, no shared mutable state.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/vcs"
)

// Entry describes one repository in the manifest.
type Entry struct {
	// Path is the working copy location, relative to the manifest root.
	Path string `yaml:"path"`
	// Kind is the VCS backend tag (git, svn, hg, bzr, tar).
	Kind vcs.Kind `yaml:"kind"`
	// URL is the upstream location (a filesystem path for tar).
	URL string `yaml:"url"`
	// Ref optionally pins a reference; empty means the backend default.
	Ref string `yaml:"ref,omitempty"`
}

// Manifest is the parsed workspace description.
type Manifest struct {
	Repos []Entry `yaml:"repos"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- manifest path supplied by the caller
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%v: %w", err, vcserrors.ErrManifestInvalid)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks entry completeness and rejects duplicate or escaping paths.
func (m *Manifest) Validate() error {
	if len(m.Repos) == 0 {
		return fmt.Errorf("manifest lists no repositories: %w", vcserrors.ErrManifestInvalid)
	}

	seen := make(map[string]struct{}, len(m.Repos))
	for i, entry := range m.Repos {
		if entry.Path == "" {
			return fmt.Errorf("repo %d: path is required: %w", i, vcserrors.ErrManifestInvalid)
		}
		if entry.URL == "" {
			return fmt.Errorf("repo %q: url is required: %w", entry.Path, vcserrors.ErrManifestInvalid)
		}
		if entry.Kind == vcs.KindUnknown {
			return fmt.Errorf("repo %q: kind is required: %w", entry.Path, vcserrors.ErrManifestInvalid)
		}

		clean := filepath.Clean(entry.Path)
		if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
			return fmt.Errorf("repo %q: path must stay inside the workspace: %w", entry.Path, vcserrors.ErrManifestInvalid)
		}
		if _, dup := seen[clean]; dup {
			return fmt.Errorf("repo %q: duplicate path: %w", entry.Path, vcserrors.ErrManifestInvalid)
		}
		seen[clean] = struct{}{}
	}
	return nil
}
