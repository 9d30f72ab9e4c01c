package vmerrors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorParts(t *testing.T) {
	assert.Equal(t, "S1", GetErrorCode(ErrSStackOverflow))
	assert.Equal(t, "StackOverflow", GetErrorName(ErrSStackOverflow))
	assert.Equal(t, "C2_DepthExceeded", GetErrorCodeWithName(ErrCDepthExceeded))
	assert.Equal(t, "Charge exceeds the remaining gas.", GetErrorDesc(ErrGOutOfGas))
	assert.Equal(t, "No Error", GetErrorName(nil))
	assert.Equal(t, []string{"OutOfGas", "InvalidJump"}, GetErrorNames([]error{ErrGOutOfGas, ErrJInvalidJump}))
}

func TestClassify(t *testing.T) {
	wrapped := fmt.Errorf("%w: section 2", ErrVInvalidCodeSize)
	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsValidation(ErrGOutOfGas))

	assert.True(t, IsRevert(fmt.Errorf("%w: depth 3", ErrCRevert)))
	assert.False(t, ConsumesAllGas(ErrCRevert))
	assert.False(t, ConsumesAllGas(ErrCDepthExceeded))
	assert.True(t, ConsumesAllGas(ErrJInvalidJump))
	assert.True(t, ConsumesAllGas(fmt.Errorf("%w: pc 4", ErrGOutOfGas)))
}
