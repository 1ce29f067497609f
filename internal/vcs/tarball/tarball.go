// Package tarball implements the vcs.Adapter contract for tar archives.
//
// A "checkout" extracts a local tarball (plain or gzip-compressed) into the
// working path, optionally restricted to members under a prefix, and records
// the source in a marker file so the tree can be re-identified later. There
// is no history, so diff and status are always empty. Fetching archives over
// the network is out of scope; the url is a filesystem path.
package tarball

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/vcsync/internal/ctxutil"
	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/vcs"
)

// marker records where an extracted tree came from. It is written to
// vcs.TarMarkerFile at the root of the working path.
type marker struct {
	URL    string `yaml:"url"`
	Ref    string `yaml:"ref,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
}

// Adapter wraps one extracted archive tree.
type Adapter struct {
	path   string
	logger zerolog.Logger
}

var _ vcs.Adapter = (*Adapter)(nil)

// Factory adapts New to the vcs.Factory signature. The tar backend needs no
// external tool, so deps.Runner is unused.
func Factory(_ context.Context, path string, deps vcs.Deps) (vcs.Adapter, error) {
	return New(path, deps)
}

// New creates an Adapter rooted at path.
func New(path string, deps vcs.Deps) (*Adapter, error) {
	if path == "" {
		return nil, fmt.Errorf("working copy path cannot be empty: %w", vcserrors.ErrEmptyValue)
	}
	return &Adapter{
		path:   path,
		logger: deps.Logger.With().Str("vcs", "tar").Str("path", path).Logger(),
	}, nil
}

// Kind returns vcs.KindTar.
func (a *Adapter) Kind() vcs.Kind {
	return vcs.KindTar
}

// DetectPresence reports whether the path holds an extracted archive tree.
func (a *Adapter) DetectPresence() bool {
	_, err := a.readMarker()
	return err == nil
}

// Checkout extracts the archive at url into the adapter's path. ref selects
// the member prefix to extract (commonly the single top-level directory);
// when empty and every member shares one top-level directory, that directory
// is stripped automatically.
func (a *Adapter) Checkout(ctx context.Context, url, ref string) bool {
	if err := a.checkout(ctx, url, ref); err != nil {
		a.logger.Error().Err(err).Str("url", url).Str("ref", ref).Msg("checkout failed")
		return false
	}
	return true
}

// Update re-extracts only when the requested ref differs from the recorded
// one. Updating with the same ref is a no-op.
func (a *Adapter) Update(ctx context.Context, ref string) bool {
	m, err := a.readMarker()
	if err != nil {
		a.logger.Error().Err(err).Msg("update failed: no archive marker")
		return false
	}
	if ref == "" || ref == m.Ref {
		return true
	}
	if err := os.RemoveAll(a.path); err != nil {
		a.logger.Error().Err(err).Msg("update failed: cannot remove old tree")
		return false
	}
	return a.Checkout(ctx, m.URL, ref)
}

// Version returns the recorded ref, or the archive path when no ref was
// pinned. There is no tool to resolve spec against, so a non-empty spec is
// echoed back unchanged.
func (a *Adapter) Version(_ context.Context, spec string) string {
	if spec != "" {
		return spec
	}
	m, err := a.readMarker()
	if err != nil {
		return ""
	}
	if m.Ref != "" {
		return m.Ref
	}
	return m.URL
}

// URL returns the recorded archive location.
func (a *Adapter) URL(_ context.Context) string {
	m, err := a.readMarker()
	if err != nil {
		return ""
	}
	return m.URL
}

// Diff is always empty: archives carry no modification history.
func (a *Adapter) Diff(_ context.Context, _ string) string {
	return ""
}

// Status is always empty: archives carry no modification history.
func (a *Adapter) Status(_ context.Context, _ string, _ bool) string {
	return ""
}

func (a *Adapter) checkout(ctx context.Context, url, ref string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	if url == "" {
		return fmt.Errorf("archive path cannot be empty: %w", vcserrors.ErrEmptyValue)
	}

	prefix := ref
	if prefix == "" {
		shared, err := sharedTopLevel(url)
		if err != nil {
			return err
		}
		prefix = shared
	}

	// Extract into a uuid-suffixed staging directory beside the target, then
	// rename into place so a failed extraction never leaves a partial tree.
	staging := a.path + ".staging-" + uuid.NewString()
	if err := extract(url, prefix, staging); err != nil {
		_ = os.RemoveAll(staging)
		return err
	}

	m := marker{URL: url, Ref: ref, Prefix: prefix}
	if err := writeMarker(staging, m); err != nil {
		_ = os.RemoveAll(staging)
		return err
	}

	if err := os.RemoveAll(a.path); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("clearing target path: %w", err)
	}
	if err := os.Rename(staging, a.path); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("moving extracted tree into place: %w", err)
	}
	return nil
}

func (a *Adapter) readMarker() (marker, error) {
	data, err := os.ReadFile(filepath.Join(a.path, vcs.TarMarkerFile))
	if err != nil {
		return marker{}, err
	}
	var m marker
	if err := yaml.Unmarshal(data, &m); err != nil {
		return marker{}, fmt.Errorf("%v: %w", err, vcserrors.ErrArchiveInvalid)
	}
	return m, nil
}

func writeMarker(dir string, m marker) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, vcs.TarMarkerFile), data, 0o600)
}

// openArchive opens url and returns a tar reader, transparently decoding
// gzip. The caller closes the returned closer.
func openArchive(url string) (*tar.Reader, io.Closer, error) {
	f, err := os.Open(url) //#nosec G304 -- archive path supplied by the caller
	if err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, vcserrors.ErrArchiveInvalid)
	}

	head := make([]byte, 2)
	if _, err := io.ReadFull(f, head); err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("reading archive header: %w", vcserrors.ErrArchiveInvalid)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, nil, err
	}

	// gzip magic
	if head[0] == 0x1f && head[1] == 0x8b {
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("%v: %w", err, vcserrors.ErrArchiveInvalid)
		}
		return tar.NewReader(gz), f, nil
	}
	return tar.NewReader(f), f, nil
}

// sharedTopLevel returns the single top-level directory shared by every
// member, or "" when members do not share one.
func sharedTopLevel(url string) (string, error) {
	tr, closer, err := openArchive(url)
	if err != nil {
		return "", err
	}
	defer func() { _ = closer.Close() }()

	shared := ""
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%v: %w", err, vcserrors.ErrArchiveInvalid)
		}
		name := strings.TrimPrefix(filepath.ToSlash(hdr.Name), "./")
		if name == "" || name == "." {
			continue
		}
		top, _, _ := strings.Cut(name, "/")
		switch {
		case shared == "":
			shared = top
		case shared != top:
			return "", nil
		}
	}
	return shared, nil
}

// extract writes the archive members under prefix into dest, with the prefix
// stripped. Member paths are validated against traversal outside dest.
func extract(url, prefix, dest string) error {
	tr, closer, err := openArchive(url)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	if err := os.MkdirAll(dest, 0o750); err != nil {
		return err
	}

	extracted := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%v: %w", err, vcserrors.ErrArchiveInvalid)
		}

		name := strings.TrimPrefix(filepath.ToSlash(hdr.Name), "./")
		rel, ok := memberPath(name, prefix)
		if !ok {
			continue
		}

		target := filepath.Join(dest, filepath.FromSlash(rel))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("member %q escapes extraction root: %w", hdr.Name, vcserrors.ErrArchiveInvalid)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o750); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeMember(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		default:
			// Symlinks and special files are skipped: extracted trees feed
			// build tooling, and links escaping the tree are a hazard.
			continue
		}
		extracted++
	}

	if extracted == 0 {
		return fmt.Errorf("no members under prefix %q: %w", prefix, vcserrors.ErrArchiveInvalid)
	}
	return nil
}

// memberPath maps an archive member name to its extraction-relative path,
// applying the prefix restriction. ok is false for members outside the
// prefix and for the prefix directory itself.
func memberPath(name, prefix string) (rel string, ok bool) {
	if prefix == "" {
		if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
			return "", false
		}
		return name, true
	}
	if name == prefix || name == prefix+"/" {
		return "", false
	}
	after, found := strings.CutPrefix(name, prefix+"/")
	if !found || after == "" || strings.Contains(after, "..") {
		return "", false
	}
	return after, true
}

// writeMember writes one regular file member.
func writeMember(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm) //#nosec G304 -- path validated against traversal
	if err != nil {
		return err
	}
	//#nosec G110 -- archives come from trusted manifests; size limits are out of scope
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
