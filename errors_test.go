package nn

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatsWithOp(t *testing.T) {
	e := NewError("AddObject", ErrCodeFull, "no free slots")
	assert.Equal(t, "nn: AddObject: no free slots", e.Error())
}

func TestErrorFallsBackToCodeWhenMsgEmpty(t *testing.T) {
	e := NewError("Send", ErrCodeIOError, "")
	assert.Equal(t, "nn: Send: io_error", e.Error())
}

func TestWrapErrorNilInner(t *testing.T) {
	assert.Nil(t, WrapError("op", nil))
}

func TestWrapErrorPreservesCodeOnRestructuredError(t *testing.T) {
	inner := NewNodeError("Apply", [16]byte{1}, ErrCodeMalformed, "bad header")
	wrapped := WrapError("Pump", inner)
	assert.Equal(t, ErrCodeMalformed, wrapped.Code)
	assert.Equal(t, "Pump", wrapped.Op)
	assert.Equal(t, inner.NodeID, wrapped.NodeID)
}

func TestWrapErrorMapsErrno(t *testing.T) {
	wrapped := WrapError("Send", syscall.EAGAIN)
	assert.Equal(t, ErrCodeIOError, wrapped.Code)
	assert.Equal(t, syscall.EAGAIN, wrapped.Errno)
}

func TestIsCode(t *testing.T) {
	err := fmtWrap(NewError("AddObject", ErrCodeFull, "full"))
	assert.True(t, IsCode(err, ErrCodeFull))
	assert.False(t, IsCode(err, ErrCodeOversize))
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	a := NewError("op1", ErrCodeBufferFull, "x")
	b := NewError("op2", ErrCodeBufferFull, "y")
	assert.True(t, errors.Is(a, b))
}

// fmtWrap simulates a caller wrapping a structured error with the
// standard library's errors.Join further up the call stack.
func fmtWrap(e *Error) error {
	return errors.Join(e)
}
