package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/vcs"
)

const validManifest = `repos:
  - path: lib/app
    kind: git
    url: https://example.com/app.git
    ref: v1.0.0
  - path: lib/legacy
    kind: svn
    url: https://svn.example.com/legacy/trunk
  - path: vendor/blob
    kind: tar
    url: /archives/blob.tar.gz
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	require.NoError(t, err)
	require.Len(t, m.Repos, 3)

	assert.Equal(t, "lib/app", m.Repos[0].Path)
	assert.Equal(t, vcs.KindGit, m.Repos[0].Kind)
	assert.Equal(t, "v1.0.0", m.Repos[0].Ref)
	assert.Equal(t, vcs.KindSvn, m.Repos[1].Kind)
	assert.Empty(t, m.Repos[1].Ref)
	assert.Equal(t, vcs.KindTar, m.Repos[2].Kind)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "not yaml", yaml: "\t{nope"},
		{name: "no repos", yaml: "repos: []"},
		{name: "unknown kind", yaml: "repos:\n  - path: a\n    kind: cvs\n    url: x"},
		{name: "missing path", yaml: "repos:\n  - kind: git\n    url: x"},
		{name: "missing url", yaml: "repos:\n  - path: a\n    kind: git"},
		{name: "missing kind", yaml: "repos:\n  - path: a\n    url: x"},
		{name: "absolute path", yaml: "repos:\n  - path: /etc\n    kind: git\n    url: x"},
		{name: "escaping path", yaml: "repos:\n  - path: ../outside\n    kind: git\n    url: x"},
		{name: "sneaky escaping path", yaml: "repos:\n  - path: a/../../outside\n    kind: git\n    url: x"},
		{name: "duplicate path", yaml: "repos:\n  - path: a\n    kind: git\n    url: x\n  - path: a\n    kind: git\n    url: y"},
		{name: "duplicate after cleaning", yaml: "repos:\n  - path: a/b\n    kind: git\n    url: x\n  - path: a//b\n    kind: git\n    url: y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "workspace.yaml")
		require.NoError(t, os.WriteFile(path, []byte(validManifest), 0o600))

		m, err := Load(path)
		require.NoError(t, err)
		assert.Len(t, m.Repos, 3)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestValidateErrorKind(t *testing.T) {
	m := &Manifest{}
	err := m.Validate()
	require.ErrorIs(t, err, vcserrors.ErrManifestInvalid)
}
