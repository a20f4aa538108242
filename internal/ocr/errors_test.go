package ocr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapEngineError(t *testing.T) {
	err := WrapEngineError("Recognize", SegmentBlock, ErrRecognitionFailed, "boom")

	assert.ErrorIs(t, err, ErrRecognitionFailed)
	assert.Contains(t, err.Error(), "Recognize")
	assert.Contains(t, err.Error(), "block")
	assert.Contains(t, err.Error(), "boom")
}

func TestWrapEngineErrorDoesNotDoubleWrap(t *testing.T) {
	inner := WrapEngineError("Recognize", SegmentSparse, ErrTimeout, "")
	outer := WrapEngineError("Recognize", SegmentSparse, inner, "again")

	assert.Equal(t, inner, outer)
}

func TestWrapEngineErrorNil(t *testing.T) {
	assert.NoError(t, WrapEngineError("Recognize", SegmentBlock, nil, ""))
}

func TestEngineErrorUnwrap(t *testing.T) {
	err := WrapEngineError("Recognize", SegmentSparse, ErrEmptyText, "")

	var engineErr *EngineError
	assert.True(t, errors.As(err, &engineErr))
	assert.Equal(t, ErrEmptyText, engineErr.Unwrap())
	assert.Equal(t, SegmentSparse, engineErr.Mode)
}

func TestSegmentationModeString(t *testing.T) {
	assert.Equal(t, "block", SegmentBlock.String())
	assert.Equal(t, "sparse", SegmentSparse.String())
	assert.Equal(t, "unknown", SegmentationMode(42).String())
}
