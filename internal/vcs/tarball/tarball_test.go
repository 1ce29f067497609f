package tarball

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/vcs"
)

type member struct {
	name string
	body string
	dir  bool
	link bool
}

// writeArchive builds a tar (optionally gzip-compressed) archive in dir and
// returns its path.
func writeArchive(t *testing.T, dir string, compress bool, members []member) string {
	t.Helper()

	name := "archive.tar"
	if compress {
		name = "archive.tar.gz"
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	require.NoError(t, err)

	var w io.WriteCloser = f
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(f)
		w = gz
	}
	tw := tar.NewWriter(w)

	for _, m := range members {
		hdr := &tar.Header{Name: m.name, Mode: 0o644}
		switch {
		case m.dir:
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
		case m.link:
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = "/etc/passwd"
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(m.body))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(m.body))
			require.NoError(t, err)
		}
	}

	require.NoError(t, tw.Close())
	if gz != nil {
		require.NoError(t, gz.Close())
	}
	require.NoError(t, f.Close())
	return path
}

func newTestAdapter(t *testing.T, path string) *Adapter {
	t.Helper()

	adapter, err := New(path, vcs.Deps{Logger: zerolog.Nop()})
	require.NoError(t, err)
	return adapter
}

func TestCheckoutStripsSharedTopLevel(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, false, []member{
		{name: "proj-1.0/", dir: true},
		{name: "proj-1.0/main.go", body: "package main"},
		{name: "proj-1.0/sub/", dir: true},
		{name: "proj-1.0/sub/a.go", body: "package sub"},
	})

	target := filepath.Join(dir, "out")
	adapter := newTestAdapter(t, target)

	require.True(t, adapter.Checkout(context.Background(), archive, ""))

	data, err := os.ReadFile(filepath.Join(target, "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "package main", string(data))

	data, err = os.ReadFile(filepath.Join(target, "sub", "a.go"))
	require.NoError(t, err)
	assert.Equal(t, "package sub", string(data))

	assert.True(t, adapter.DetectPresence(), "marker written at tree root")
}

func TestCheckoutGzip(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, true, []member{
		{name: "proj/", dir: true},
		{name: "proj/main.go", body: "package main"},
	})

	target := filepath.Join(dir, "out")
	adapter := newTestAdapter(t, target)

	require.True(t, adapter.Checkout(context.Background(), archive, ""))
	assert.FileExists(t, filepath.Join(target, "main.go"))
}

func TestCheckoutExplicitPrefix(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, false, []member{
		{name: "a/", dir: true},
		{name: "a/one.go", body: "one"},
		{name: "b/", dir: true},
		{name: "b/two.go", body: "two"},
	})

	target := filepath.Join(dir, "out")
	adapter := newTestAdapter(t, target)

	require.True(t, adapter.Checkout(context.Background(), archive, "b"))
	assert.FileExists(t, filepath.Join(target, "two.go"))
	assert.NoFileExists(t, filepath.Join(target, "one.go"))
}

func TestCheckoutReplacesExistingTree(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, false, []member{
		{name: "proj/", dir: true},
		{name: "proj/new.go", body: "new"},
	})

	target := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(target, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(target, "stale.go"), []byte("stale"), 0o600))

	adapter := newTestAdapter(t, target)
	require.True(t, adapter.Checkout(context.Background(), archive, ""))

	assert.FileExists(t, filepath.Join(target, "new.go"))
	assert.NoFileExists(t, filepath.Join(target, "stale.go"), "extraction replaces, never merges")
}

func TestCheckoutSkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, false, []member{
		{name: "proj/", dir: true},
		{name: "proj/ok.go", body: "ok"},
		{name: "proj/evil", link: true},
	})

	target := filepath.Join(dir, "out")
	adapter := newTestAdapter(t, target)

	require.True(t, adapter.Checkout(context.Background(), archive, ""))
	assert.FileExists(t, filepath.Join(target, "ok.go"))
	_, err := os.Lstat(filepath.Join(target, "evil"))
	assert.True(t, os.IsNotExist(err))
}

func TestCheckoutFailures(t *testing.T) {
	t.Run("missing archive", func(t *testing.T) {
		adapter := newTestAdapter(t, filepath.Join(t.TempDir(), "out"))
		assert.False(t, adapter.Checkout(context.Background(), "/no/such/archive.tar", ""))
	})

	t.Run("empty url", func(t *testing.T) {
		adapter := newTestAdapter(t, filepath.Join(t.TempDir(), "out"))
		assert.False(t, adapter.Checkout(context.Background(), "", ""))
	})

	t.Run("prefix matching nothing", func(t *testing.T) {
		dir := t.TempDir()
		archive := writeArchive(t, dir, false, []member{
			{name: "proj/", dir: true},
			{name: "proj/a.go", body: "a"},
		})
		target := filepath.Join(dir, "out")
		adapter := newTestAdapter(t, target)

		assert.False(t, adapter.Checkout(context.Background(), archive, "other"))
		assert.NoDirExists(t, target, "failed extraction must not leave a partial tree")
	})

	t.Run("failed extraction leaves no staging directory", func(t *testing.T) {
		dir := t.TempDir()
		archive := writeArchive(t, dir, false, []member{
			{name: "proj/", dir: true},
			{name: "proj/a.go", body: "a"},
		})
		target := filepath.Join(dir, "out")
		adapter := newTestAdapter(t, target)

		require.False(t, adapter.Checkout(context.Background(), archive, "other"))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotContains(t, e.Name(), ".staging-")
		}
	})
}

func TestUpdate(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, false, []member{
		{name: "v1/", dir: true},
		{name: "v1/a.go", body: "one"},
		{name: "v2/", dir: true},
		{name: "v2/b.go", body: "two"},
	})

	target := filepath.Join(dir, "out")
	adapter := newTestAdapter(t, target)
	require.True(t, adapter.Checkout(context.Background(), archive, "v1"))

	t.Run("same ref is a no-op", func(t *testing.T) {
		assert.True(t, adapter.Update(context.Background(), "v1"))
		assert.FileExists(t, filepath.Join(target, "a.go"))
	})

	t.Run("empty ref keeps the current tree", func(t *testing.T) {
		assert.True(t, adapter.Update(context.Background(), ""))
		assert.FileExists(t, filepath.Join(target, "a.go"))
	})

	t.Run("new ref re-extracts", func(t *testing.T) {
		require.True(t, adapter.Update(context.Background(), "v2"))
		assert.FileExists(t, filepath.Join(target, "b.go"))
		assert.NoFileExists(t, filepath.Join(target, "a.go"))
	})

	t.Run("no marker fails", func(t *testing.T) {
		bare := newTestAdapter(t, t.TempDir())
		assert.False(t, bare.Update(context.Background(), "v1"))
	})
}

func TestVersionAndURL(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, false, []member{
		{name: "v1/", dir: true},
		{name: "v1/a.go", body: "one"},
	})

	target := filepath.Join(dir, "out")
	adapter := newTestAdapter(t, target)
	require.True(t, adapter.Checkout(context.Background(), archive, "v1"))

	assert.Equal(t, "v1", adapter.Version(context.Background(), ""))
	assert.Equal(t, "anything", adapter.Version(context.Background(), "anything"), "spec echoed back")
	assert.Equal(t, archive, adapter.URL(context.Background()))
	assert.Empty(t, adapter.Diff(context.Background(), ""))
	assert.Empty(t, adapter.Status(context.Background(), "", true))
}

func TestMemberPath(t *testing.T) {
	tests := []struct {
		name    string
		member  string
		prefix  string
		wantRel string
		wantOK  bool
	}{
		{name: "prefix stripped", member: "proj/a.go", prefix: "proj", wantRel: "a.go", wantOK: true},
		{name: "nested under prefix", member: "proj/sub/b.go", prefix: "proj", wantRel: "sub/b.go", wantOK: true},
		{name: "prefix dir itself skipped", member: "proj/", prefix: "proj", wantOK: false},
		{name: "outside prefix skipped", member: "other/a.go", prefix: "proj", wantOK: false},
		{name: "traversal rejected", member: "proj/../../etc/passwd", prefix: "proj", wantOK: false},
		{name: "no prefix keeps path", member: "a.go", prefix: "", wantRel: "a.go", wantOK: true},
		{name: "no prefix absolute rejected", member: "/etc/passwd", prefix: "", wantOK: false},
		{name: "no prefix traversal rejected", member: "../x", prefix: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, ok := memberPath(tt.member, tt.prefix)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantRel, rel)
			}
		})
	}
}

func TestSharedTopLevel(t *testing.T) {
	t.Run("single top level", func(t *testing.T) {
		dir := t.TempDir()
		archive := writeArchive(t, dir, false, []member{
			{name: "proj/", dir: true},
			{name: "proj/a.go", body: "a"},
		})
		top, err := sharedTopLevel(archive)
		require.NoError(t, err)
		assert.Equal(t, "proj", top)
	})

	t.Run("mixed top levels", func(t *testing.T) {
		dir := t.TempDir()
		archive := writeArchive(t, dir, false, []member{
			{name: "a/x.go", body: "x"},
			{name: "b/y.go", body: "y"},
		})
		top, err := sharedTopLevel(archive)
		require.NoError(t, err)
		assert.Empty(t, top)
	})
}

func TestReadMarkerRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, vcs.TarMarkerFile), []byte("\tnot yaml"), 0o600))

	adapter := newTestAdapter(t, dir)
	_, err := adapter.readMarker()
	require.ErrorIs(t, err, vcserrors.ErrArchiveInvalid)
}
