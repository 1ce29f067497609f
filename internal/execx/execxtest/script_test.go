package execxtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/execx"
)

func TestScriptQueueAndStickiness(t *testing.T) {
	script := NewScript().
		OnOutput("git rev-parse HEAD", "first").
		OnOutput("git rev-parse HEAD", "second")

	req := execx.Request{Args: []string{"git", "rev-parse", "HEAD"}, Dir: "/repo"}

	res, err := script.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "first", res.Output)

	res, err = script.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "second", res.Output)

	// The final response is sticky once the queue drains.
	res, err = script.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "second", res.Output)

	assert.Equal(t, 3, script.CallCount("git rev-parse HEAD"))
}

func TestScriptUnconfiguredCommand(t *testing.T) {
	script := NewScript()

	_, err := script.Run(context.Background(), execx.Request{Args: []string{"git", "status"}, Dir: "/repo"})
	require.ErrorIs(t, err, vcserrors.ErrCommandNotConfigured)
}

func TestScriptRecordsCalls(t *testing.T) {
	script := NewScript().
		OnFailure("git fetch origin", "network down")

	res, err := script.Run(context.Background(), execx.Request{Args: []string{"git", "fetch", "origin"}, Dir: "/repo"})
	require.NoError(t, err)
	assert.False(t, res.Ok())
	assert.Equal(t, "network down", res.Diag)

	calls := script.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"git", "fetch", "origin"}, calls[0].Args)
	assert.Equal(t, "/repo", calls[0].Dir)
}
