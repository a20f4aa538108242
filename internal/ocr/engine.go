// Package ocr provides the optical character recognition capability the
// image extractor consumes.
//
// The engine is local and synchronous (Tesseract via gosseract): each
// recognition pass is CPU-bound, so callers are expected to bound it with
// a context deadline. A pass that outlives its context is abandoned and
// surfaces ErrTimeout instead of a partial transcription.
package ocr

import (
	"context"
)

// SegmentationMode selects the page-layout assumption for a recognition
// pass. SUNAT invoices need both: the body is a uniform block of text,
// while header fields (RUC, invoice number) sit in visually isolated
// boxes that block segmentation tends to swallow.
type SegmentationMode int

const (
	// SegmentBlock assumes a single uniform block of text (PSM 6).
	SegmentBlock SegmentationMode = iota
	// SegmentSparse assumes sparse, isolated text fragments (PSM 11).
	SegmentSparse
)

func (m SegmentationMode) String() string {
	switch m {
	case SegmentBlock:
		return "block"
	case SegmentSparse:
		return "sparse"
	default:
		return "unknown"
	}
}

// Engine defines the recognition capability.
type Engine interface {
	// Recognize transcribes a PNG-encoded image under the given
	// segmentation assumption and returns the full transcription.
	Recognize(ctx context.Context, png []byte, mode SegmentationMode) (string, error)
}
