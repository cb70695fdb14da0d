package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotFoundError_UnwrapsToSentinel(t *testing.T) {
	err := &NotFoundError{Kind: "item", ID: "abc"}
	require.True(t, errors.Is(err, ErrNotFound))
	require.True(t, IsNotFound(err))
}

func TestStoreError_WrapsUnderlying(t *testing.T) {
	underlying := errors.New("disk full")
	err := NewStoreError("create_item", underlying)
	require.ErrorIs(t, err, underlying)
}

func TestNewStoreError_NilPassthrough(t *testing.T) {
	require.NoError(t, NewStoreError("noop", nil))
}

func TestIsClientError(t *testing.T) {
	require.True(t, IsClientError(ErrDependencyNotMet))
	require.True(t, IsClientError(ErrRollAlreadyDone))
	require.True(t, IsClientError(ErrCyclicDependency))
	require.False(t, IsClientError(ErrStoreFailure))
	require.False(t, IsClientError(errors.New("some other error")))
}

func TestInvalidArgumentError_Message(t *testing.T) {
	err := &InvalidArgumentError{Field: "energy", Reason: "out of range"}
	require.Contains(t, err.Error(), "energy")
	require.Contains(t, err.Error(), "out of range")
}
