package wfderr_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openwfd/wfd/wfderr"
)

func TestKindOfClassifiedError(t *testing.T) {
	err := wfderr.New(wfderr.Timeout, "request timed out")
	assert.Equal(t, wfderr.Timeout, wfderr.KindOf(err))
	assert.True(t, wfderr.Is(err, wfderr.Timeout))
}

func TestKindOfWrappedCause(t *testing.T) {
	err := wfderr.Wrap(wfderr.IO, io.ErrClosedPipe, "read failed")
	assert.Equal(t, wfderr.IO, wfderr.KindOf(err))
	assert.Contains(t, err.Error(), io.ErrClosedPipe.Error())
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, wfderr.Unknown, wfderr.KindOf(io.EOF))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "timeout", wfderr.Timeout.String())
	assert.Equal(t, "unknown", wfderr.Kind(999).String())
}
