package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "context"))

	err := Wrap(ErrCommandFailed, "fetching origin")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommandFailed))
	assert.Equal(t, "fetching origin: command failed", err.Error())
}

func TestWrapf(t *testing.T) {
	assert.NoError(t, Wrapf(nil, "updating %s", "repo"))

	err := Wrapf(ErrUnsafeMove, "updating %s", "repo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsafeMove))
	assert.Contains(t, err.Error(), "updating repo")
}
