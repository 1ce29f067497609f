package git

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/vcsync/internal/execx/execxtest"
	"github.com/mrz1836/vcsync/internal/vcs"
)

// Commit identifiers used across the update/fast-forward tests.
const (
	shaOld  = "1111111111111111111111111111111111111111"
	shaNew  = "2222222222222222222222222222222222222222"
	shaTag  = "3333333333333333333333333333333333333333"
	shaDang = "4444444444444444444444444444444444444444"
)

// newTestAdapter builds an Adapter against a scripted runner. The version
// probe is registered here; tests pick old versions to disable the
// version-gated submodule sync when it is not under test.
func newTestAdapter(t *testing.T, script *execxtest.Script, gitVersion string) *Adapter {
	t.Helper()

	script.OnOutput("git --version", "git version "+gitVersion)
	adapter, err := New(context.Background(), "/repo", vcs.Deps{
		Runner: script,
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	return adapter
}
