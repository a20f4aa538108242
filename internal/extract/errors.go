package extract

import (
	"errors"
	"fmt"

	"github.com/Taciturno11/API-Digitalizacion/pkg/models"
)

// The four failure classes of an extraction call. Anything not in this
// taxonomy is reported as a warning on the Result instead of an error.
var (
	// ErrUnsupportedFormat is returned for a format the engine does not
	// handle.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrMalformedInput is returned when the bytes cannot be read as the
	// declared format: no PDF text layer, XML that does not parse, an
	// undecodable image.
	ErrMalformedInput = errors.New("document is malformed for its format")

	// ErrOCRTimeout is returned when recognition exceeds its time budget.
	ErrOCRTimeout = errors.New("ocr processing timed out")

	// ErrInsufficientExtraction is returned when the document was read but
	// neither party nor the grand total could be established.
	ErrInsufficientExtraction = errors.New("extraction yielded insufficient data")
)

// ExtractionError wraps errors with context about the failing call.
type ExtractionError struct {
	// Op is the operation that failed (e.g., "Extract").
	Op string

	// Format is the document format being processed.
	Format Format

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string

	// Partial holds the raw field map when extraction read the document
	// but produced too little data (ErrInsufficientExtraction), so callers
	// can inspect what was found. Nil for every other failure class.
	Partial *models.RawInvoice

	// Warnings are the warnings gathered before the failure, when any.
	Warnings []string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("extract: %s (%s) failed: %s: %v", e.Op, e.Format, e.Details, e.Err)
	}
	return fmt.Sprintf("extract: %s (%s) failed: %v", e.Op, e.Format, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapError wraps an error as an ExtractionError if it isn't already one.
func WrapError(op string, format Format, err error, details string) error {
	if err == nil {
		return nil
	}

	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return err // Already wrapped
	}

	return &ExtractionError{Op: op, Format: format, Err: err, Details: details}
}
