package respireerrors_test

import (
	"fmt"
	"testing"

	"github.com/aabtop/respire-go/internal/respireerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasErrorCode(t *testing.T) {
	err := respireerrors.New(respireerrors.CyclicDependency, "a -> b -> a")
	assert.True(t, respireerrors.HasErrorCode(err, respireerrors.CyclicDependency))
	assert.False(t, respireerrors.HasErrorCode(err, respireerrors.OutputConflict))
}

func TestHasErrorCodeThroughWrap(t *testing.T) {
	inner := respireerrors.New(respireerrors.MissingOutput, "out.txt missing")
	wrapped := fmt.Errorf("running command: %w", inner)
	assert.True(t, respireerrors.HasErrorCode(wrapped, respireerrors.MissingOutput))
}

func TestCodeOf(t *testing.T) {
	code, ok := respireerrors.CodeOf(respireerrors.Newf(respireerrors.CommandFailed, "exit %d", 1))
	require.True(t, ok)
	assert.Equal(t, respireerrors.CommandFailed, code)

	_, ok = respireerrors.CodeOf(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "OutputConflict", respireerrors.OutputConflict.String())
	assert.Equal(t, "Unknown", respireerrors.Code(99).String())
}
