package ocr

import (
	"errors"
	"fmt"
)

// Common OCR processing errors
var (
	// ErrTimeout is returned when a recognition pass exceeds its context
	// deadline. The in-flight Tesseract work is abandoned; callers may
	// retry with a larger budget.
	ErrTimeout = errors.New("ocr recognition timed out")

	// ErrRecognitionFailed is returned when the Tesseract engine fails to
	// process the image.
	ErrRecognitionFailed = errors.New("ocr recognition failed")

	// ErrEmptyText is returned when a pass produces no readable text.
	ErrEmptyText = errors.New("image contains no readable text")

	// ErrCanceled is returned when recognition is canceled via context.
	ErrCanceled = errors.New("ocr recognition was canceled")
)

// EngineError wraps errors with additional context about the recognition failure.
type EngineError struct {
	// Op is the operation that failed (e.g., "Recognize").
	Op string

	// Mode is the segmentation mode of the failing pass.
	Mode SegmentationMode

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s (%s) failed: %s: %v", e.Op, e.Mode, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s (%s) failed: %v", e.Op, e.Mode, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *EngineError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapEngineError wraps an error as an EngineError if it isn't already one.
func WrapEngineError(op string, mode SegmentationMode, err error, details string) error {
	if err == nil {
		return nil
	}

	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return err // Already wrapped
	}

	return &EngineError{Op: op, Mode: mode, Err: err, Details: details}
}
