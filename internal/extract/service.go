// Package extract is the engine's entry point: one call takes document
// bytes and a format and returns the canonical record with its warnings.
//
// The service owns the format dispatch and the error taxonomy. Each
// format has its own extractor producing a raw field map; a shared
// validator turns that map into the canonical record. Extraction is
// stateless, one service handles concurrent calls without locking.
package extract

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Taciturno11/API-Digitalizacion/internal/config"
	"github.com/Taciturno11/API-Digitalizacion/internal/image"
	"github.com/Taciturno11/API-Digitalizacion/internal/invoice"
	"github.com/Taciturno11/API-Digitalizacion/internal/logger"
	"github.com/Taciturno11/API-Digitalizacion/internal/ocr"
	"github.com/Taciturno11/API-Digitalizacion/internal/pdf"
	"github.com/Taciturno11/API-Digitalizacion/internal/ubl"
	"github.com/Taciturno11/API-Digitalizacion/pkg/models"
)

// Format identifies a supported document format.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatXML   Format = "xml"
	FormatImage Format = "image"
)

// ParseFormat maps a file name to its document format by extension.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF, nil
	case ".xml":
		return FormatXML, nil
	case ".png", ".jpg", ".jpeg":
		return FormatImage, nil
	default:
		return "", WrapError("ParseFormat", "", ErrUnsupportedFormat, name)
	}
}

// Service converts one document into the canonical invoice record.
type Service interface {
	// Extract processes the document bytes as the given format. The
	// returned Result is complete even when it carries warnings; an error
	// from the taxonomy means no usable record was produced.
	Extract(ctx context.Context, data []byte, format Format) (*models.Result, error)
}

// documentExtractor reads a structured document synchronously.
type documentExtractor interface {
	Extract(data []byte) (*models.RawInvoice, []string, error)
}

// scanExtractor runs recognition and therefore takes a context.
type scanExtractor interface {
	Extract(ctx context.Context, data []byte) (*models.RawInvoice, []string, error)
}

type service struct {
	pdf        documentExtractor
	xml        documentExtractor
	scan       scanExtractor
	validator  *invoice.Validator
	ocrTimeout time.Duration
	log        zerolog.Logger
}

// NewService wires the extraction engine from configuration.
func NewService(cfg *config.Config) Service {
	engine := ocr.NewTesseractEngine(cfg.OCRLanguage)
	return &service{
		pdf:        pdf.NewExtractor(),
		xml:        ubl.NewExtractor(),
		scan:       image.NewExtractor(engine, cfg.ImageUpscale),
		validator:  invoice.NewValidator(cfg.AmountTolerance),
		ocrTimeout: cfg.OCRTimeout,
		log:        logger.WithComponent("extract-service"),
	}
}

func (s *service) Extract(ctx context.Context, data []byte, format Format) (*models.Result, error) {
	const op = "Extract"
	start := time.Now()

	var (
		raw      *models.RawInvoice
		warnings []string
		err      error
	)
	switch format {
	case FormatPDF:
		raw, warnings, err = s.pdf.Extract(data)
	case FormatXML:
		raw, warnings, err = s.xml.Extract(data)
	case FormatImage:
		scanCtx := ctx
		if s.ocrTimeout > 0 {
			var cancel context.CancelFunc
			scanCtx, cancel = context.WithTimeout(ctx, s.ocrTimeout)
			defer cancel()
		}
		raw, warnings, err = s.scan.Extract(scanCtx, data)
	default:
		return nil, WrapError(op, format, ErrUnsupportedFormat, string(format))
	}
	if err != nil {
		return nil, s.classify(op, format, err)
	}

	result, err := s.validator.Validate(raw, warnings)
	if err != nil {
		return nil, s.classify(op, format, err)
	}

	s.log.Info().
		Str("format", string(format)).
		Str("invoice", result.Invoice.InvoiceNumber).
		Int("warnings", len(result.Warnings)).
		Dur("elapsed", time.Since(start)).
		Msg("document extracted")

	return result, nil
}

// classify maps extractor-local failures onto the error taxonomy.
func (s *service) classify(op string, format Format, err error) error {
	var insufficient *invoice.InsufficientError
	switch {
	case errors.Is(err, ocr.ErrTimeout):
		return WrapError(op, format, ErrOCRTimeout, err.Error())
	case errors.As(err, &insufficient):
		// keep the partial field map and warnings for diagnostics
		return &ExtractionError{
			Op:       op,
			Format:   format,
			Err:      ErrInsufficientExtraction,
			Partial:  insufficient.Raw,
			Warnings: insufficient.Warnings,
		}
	case errors.Is(err, pdf.ErrNoTextLayer),
		errors.Is(err, ubl.ErrNotWellFormed),
		errors.Is(err, image.ErrUndecodable),
		errors.Is(err, ocr.ErrEmptyText),
		errors.Is(err, ocr.ErrRecognitionFailed):
		return WrapError(op, format, ErrMalformedInput, err.Error())
	default:
		return WrapError(op, format, err, "")
	}
}
