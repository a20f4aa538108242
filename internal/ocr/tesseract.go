package ocr

import (
	"context"
	"errors"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine on a local Tesseract installation.
//
// A fresh gosseract client is created per call: clients are cheap, not
// safe for concurrent use, and a per-call client keeps the engine fully
// stateless so extraction calls can run in parallel without locking.
type TesseractEngine struct {
	language string
}

// NewTesseractEngine creates an engine using the given language pack
// (e.g. "spa" for SUNAT invoices).
func NewTesseractEngine(language string) *TesseractEngine {
	if language == "" {
		language = "spa"
	}
	return &TesseractEngine{language: language}
}

func pageSegMode(mode SegmentationMode) gosseract.PageSegMode {
	if mode == SegmentSparse {
		return gosseract.PSM_SPARSE_TEXT
	}
	return gosseract.PSM_SINGLE_BLOCK
}

// Recognize transcribes a PNG-encoded image under the given segmentation
// assumption. The blocking Tesseract call runs in its own goroutine; when
// ctx expires first the call returns ErrTimeout and the transcription is
// discarded when it eventually finishes.
func (t *TesseractEngine) Recognize(ctx context.Context, png []byte, mode SegmentationMode) (string, error) {
	const op = "Recognize"

	if err := ctx.Err(); err != nil {
		return "", timeoutOrCanceled(op, mode, err)
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		client := gosseract.NewClient()
		defer client.Close()

		if err := client.SetLanguage(t.language); err != nil {
			done <- outcome{err: WrapEngineError(op, mode, ErrRecognitionFailed, "setting language: "+err.Error())}
			return
		}
		if err := client.SetPageSegMode(pageSegMode(mode)); err != nil {
			done <- outcome{err: WrapEngineError(op, mode, ErrRecognitionFailed, "setting segmentation mode: "+err.Error())}
			return
		}
		if err := client.SetImageFromBytes(png); err != nil {
			done <- outcome{err: WrapEngineError(op, mode, ErrRecognitionFailed, "loading image: "+err.Error())}
			return
		}

		text, err := client.Text()
		if err != nil {
			done <- outcome{err: WrapEngineError(op, mode, ErrRecognitionFailed, err.Error())}
			return
		}
		done <- outcome{text: text}
	}()

	select {
	case <-ctx.Done():
		return "", timeoutOrCanceled(op, mode, ctx.Err())
	case out := <-done:
		if out.err != nil {
			return "", out.err
		}
		if strings.TrimSpace(out.text) == "" {
			return "", WrapEngineError(op, mode, ErrEmptyText, "")
		}
		return out.text, nil
	}
}

func timeoutOrCanceled(op string, mode SegmentationMode, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapEngineError(op, mode, ErrTimeout, "")
	}
	return WrapEngineError(op, mode, ErrCanceled, err.Error())
}
