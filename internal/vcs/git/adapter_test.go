package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/execx/execxtest"
	"github.com/mrz1836/vcsync/internal/vcs"
)

func TestNew(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := New(context.Background(), "", vcs.Deps{Runner: execxtest.NewScript()})
		require.ErrorIs(t, err, vcserrors.ErrEmptyValue)
	})

	t.Run("nil runner", func(t *testing.T) {
		_, err := New(context.Background(), "/repo", vcs.Deps{})
		require.ErrorIs(t, err, vcserrors.ErrEmptyValue)
	})

	t.Run("missing binary", func(t *testing.T) {
		script := execxtest.NewScript().
			OnError("git --version", errors.New("exec: \"git\": executable file not found in $PATH"))
		_, err := New(context.Background(), "/repo", vcs.Deps{Runner: script})
		require.ErrorIs(t, err, vcserrors.ErrToolMissing)
	})

	t.Run("tool override", func(t *testing.T) {
		script := execxtest.NewScript().
			OnOutput("/opt/git/bin/git --version", "git version 2.39.0")
		adapter, err := New(context.Background(), "/repo", vcs.Deps{
			Runner: script,
			Tool:   "/opt/git/bin/git",
		})
		require.NoError(t, err)
		assert.Equal(t, vcs.KindGit, adapter.Kind())
	})
}

func TestDetectPresence(t *testing.T) {
	dir := t.TempDir()
	script := execxtest.NewScript().
		OnOutput("git --version", "git version 2.39.0")
	adapter, err := New(context.Background(), dir, vcs.Deps{Runner: script, Logger: zerolog.Nop()})
	require.NoError(t, err)

	assert.False(t, adapter.DetectPresence())

	// Worktrees use a .git file rather than a directory; both count.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: elsewhere"), 0o600))
	assert.True(t, adapter.DetectPresence())
}

func TestVersion(t *testing.T) {
	script := execxtest.NewScript().
		OnOutput("git rev-parse --verify HEAD", shaNew+"\n").
		OnFailure("git rev-parse --verify nope", "fatal: Needed a single revision")
	adapter := newTestAdapter(t, script, "2.39.0")

	assert.Equal(t, shaNew, adapter.Version(context.Background(), ""))
	assert.Empty(t, adapter.Version(context.Background(), "nope"))
}

func TestURL(t *testing.T) {
	script := execxtest.NewScript().
		OnOutput("git config --get remote.origin.url", "https://example.com/demo.git\n")
	adapter := newTestAdapter(t, script, "2.39.0")

	assert.Equal(t, "https://example.com/demo.git", adapter.URL(context.Background()))
}

func TestStatus(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		script := execxtest.NewScript().
			OnOutput("git status -s", " M a.go\n?? b.go")
		adapter := newTestAdapter(t, script, "2.39.0")

		assert.Equal(t, " M a.go\n?? b.go", adapter.Status(context.Background(), "", true))
	})

	t.Run("untracked excluded", func(t *testing.T) {
		script := execxtest.NewScript().
			OnOutput("git status -s -uno", " M a.go")
		adapter := newTestAdapter(t, script, "2.39.0")

		assert.Equal(t, " M a.go", adapter.Status(context.Background(), "", false))
	})

	t.Run("basepath prefixes paths", func(t *testing.T) {
		script := execxtest.NewScript().
			OnOutput("git --version", "git version 2.39.0").
			OnOutput("git status -s", " M a.go\n?? b.go")
		adapter, err := New(context.Background(), "/ws/repo", vcs.Deps{Runner: script, Logger: zerolog.Nop()})
		require.NoError(t, err)

		got := adapter.Status(context.Background(), "/ws", true)
		assert.Equal(t, " M repo/a.go\n?? repo/b.go", got)
	})
}

func TestDiff(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		script := execxtest.NewScript().
			OnOutput("git diff HEAD", "diff --git a/a.go b/a.go")
		adapter := newTestAdapter(t, script, "2.39.0")

		assert.Equal(t, "diff --git a/a.go b/a.go", adapter.Diff(context.Background(), ""))
	})

	t.Run("basepath rewrites prefixes", func(t *testing.T) {
		script := execxtest.NewScript().
			OnOutput("git --version", "git version 2.39.0").
			OnOutput("git diff HEAD --src-prefix=repo/ --dst-prefix=repo/", "diff --git repo/a.go repo/a.go")
		adapter, err := New(context.Background(), "/ws/repo", vcs.Deps{Runner: script, Logger: zerolog.Nop()})
		require.NoError(t, err)

		assert.Equal(t, "diff --git repo/a.go repo/a.go", adapter.Diff(context.Background(), "/ws"))
	})
}

func TestCheckout(t *testing.T) {
	t.Run("clone without ref", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repo")
		script := execxtest.NewScript().
			OnOutput("git --version", "git version 1.6.0").
			OnOutput("git clone https://example.com/demo.git "+path, "")
		adapter, err := New(context.Background(), path, vcs.Deps{Runner: script, Logger: zerolog.Nop()})
		require.NoError(t, err)

		assert.True(t, adapter.Checkout(context.Background(), "https://example.com/demo.git", ""))

		// The clone runs from the parent directory; the target does not exist yet.
		calls := script.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, filepath.Dir(path), calls[1].Dir)
	})

	t.Run("clone then update to ref", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repo")
		script := execxtest.NewScript().
			OnOutput("git --version", "git version 1.6.0").
			OnOutput("git clone https://example.com/demo.git "+path, "").
			OnOutput("git rev-parse --abbrev-ref HEAD", "main").
			OnOutput("git rev-parse HEAD", shaTag).
			OnFailure("git config --get-all branch.main.merge", "").
			OnOutput("git branch", "* main").
			OnOutput("git fetch origin", "").
			OnOutput("git branch -r", "  origin/main").
			OnOutput("git rev-parse --verify v1.0.0", shaTag)
		adapter, err := New(context.Background(), path, vcs.Deps{Runner: script, Logger: zerolog.Nop()})
		require.NoError(t, err)

		assert.True(t, adapter.Checkout(context.Background(), "https://example.com/demo.git", "v1.0.0"))
	})

	t.Run("empty url", func(t *testing.T) {
		adapter := newTestAdapter(t, execxtest.NewScript(), "2.39.0")
		assert.False(t, adapter.Checkout(context.Background(), "", ""))
	})

	t.Run("clone failure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repo")
		script := execxtest.NewScript().
			OnOutput("git --version", "git version 2.39.0").
			OnFailure("git clone https://example.com/demo.git "+path, "fatal: repository not found")
		adapter, err := New(context.Background(), path, vcs.Deps{Runner: script, Logger: zerolog.Nop()})
		require.NoError(t, err)

		assert.False(t, adapter.Checkout(context.Background(), "https://example.com/demo.git", ""))
	})
}
