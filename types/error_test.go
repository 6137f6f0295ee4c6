package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	t.Parallel()
	err := NewError(ErrUnknownNode, "node not registered: tester")
	assert.Equal(t, "[UNKNOWN_NODE] node not registered: tester", err.Error())

	cause := errors.New("lookup failed")
	withCause := NewError(ErrUpstreamError, "provider call failed").WithCause(cause)
	assert.Contains(t, withCause.Error(), "lookup failed")
	assert.ErrorIs(t, withCause, cause)
}

func TestError_Helpers(t *testing.T) {
	t.Parallel()
	err := NewError(ErrRateLimited, "slow down").WithRetryable(true).WithProvider("openai")

	assert.True(t, IsRetryable(err))
	assert.Equal(t, ErrRateLimited, GetErrorCode(err))
	assert.Equal(t, "openai", err.Provider)

	assert.False(t, IsRetryable(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
}
