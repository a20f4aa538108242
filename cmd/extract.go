package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Taciturno11/API-Digitalizacion/internal/config"
	"github.com/Taciturno11/API-Digitalizacion/internal/extract"
	"github.com/Taciturno11/API-Digitalizacion/internal/logger"
)

var extractCmd = &cobra.Command{
	Use:   "extract [document]",
	Short: "Extract a SUNAT invoice into the canonical JSON record",
	Long: `Process one electronic-invoice document and print the canonical record
together with its validation warnings as JSON.

The document format is inferred from the file extension (.pdf, .xml,
.png, .jpg, .jpeg) unless --format is given. Scanned images are
processed with a local Tesseract installation and the language pack
configured via OCR_LANGUAGE (default "spa").`,
	Example: `  # Extract a PDF with a text layer
  digitalizacion extract factura.pdf

  # Extract a UBL 2.1 XML, writing the record to a file
  digitalizacion extract factura.xml -o factura.json

  # Extract a scan, overriding the format inference and the OCR budget
  digitalizacion extract foto.bin --format image --timeout 300`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("format", "f", "", "Document format: pdf, xml or image (default: by extension)")
	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Int("timeout", 0, "OCR timeout in seconds (default: OCR_TIMEOUT_SECONDS)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	documentPath := args[0]
	log := logger.WithDocument(filepath.Base(documentPath))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if timeoutSecs > 0 {
		cfg.OCRTimeout = time.Duration(timeoutSecs) * time.Second
	}

	format, err := resolveFormat(documentPath, formatFlag)
	if err != nil {
		return err
	}

	data, err := readDocument(documentPath, log)
	if err != nil {
		return err
	}

	log.Info().
		Str("file", documentPath).
		Str("format", string(format)).
		Int("size", len(data)).
		Msg("Starting extraction")

	ctx, cancel := signalContext(log)
	defer cancel()

	startTime := time.Now()
	result, err := extract.NewService(cfg).Extract(ctx, data, format)
	if err != nil {
		return handleExtractError(err, log)
	}

	log.Info().
		Str("invoice", result.Invoice.InvoiceNumber).
		Int("warnings", len(result.Warnings)).
		Dur("duration", time.Since(startTime)).
		Msg("Extraction completed successfully")

	return outputResult(result, outputPath, log)
}

// resolveFormat applies the --format override, falling back to the file
// extension.
func resolveFormat(path, flag string) (extract.Format, error) {
	switch flag {
	case "":
		return extract.ParseFormat(path)
	case "pdf":
		return extract.FormatPDF, nil
	case "xml":
		return extract.FormatXML, nil
	case "image":
		return extract.FormatImage, nil
	default:
		return "", fmt.Errorf("unknown format %q: expected pdf, xml or image", flag)
	}
}

// readDocument checks the path and reads the whole document into memory.
func readDocument(path string, log zerolog.Logger) ([]byte, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", path).
				Msg("Document not found")
			return nil, fmt.Errorf("document not found: %s", path)
		}
		return nil, fmt.Errorf("error accessing document: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		log.Error().
			Str("file", path).
			Msg("Path is not a regular file")
		return nil, fmt.Errorf("path is not a regular file: %s", path)
	}
	if fileInfo.Size() == 0 {
		log.Error().
			Str("file", path).
			Msg("Document is empty")
		return nil, fmt.Errorf("document is empty: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().
			Err(err).
			Str("file", path).
			Msg("Failed to read document")
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

// signalContext returns a context canceled on SIGINT/SIGTERM so a long
// OCR pass can be interrupted cleanly.
func signalContext(log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling extraction")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// handleExtractError provides user-friendly messages for the failure
// classes of the extraction engine.
func handleExtractError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Extraction failed")

	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return fmt.Errorf("unsupported document format. Supported inputs: .pdf, .xml, .png, .jpg, .jpeg")
	case errors.Is(err, extract.ErrMalformedInput):
		return fmt.Errorf("the document could not be read as its format. For PDFs without a text layer, rasterize and retry with --format image")
	case errors.Is(err, extract.ErrOCRTimeout):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or scanning at a lower resolution")
	case errors.Is(err, extract.ErrInsufficientExtraction):
		return fmt.Errorf("no usable invoice data found in the document. Check that it is a SUNAT electronic invoice")
	default:
		return fmt.Errorf("extraction failed: %w", err)
	}
}

// outputResult marshals the record and writes it to the output file or
// stdout.
func outputResult(result any, outputPath string, log zerolog.Logger) error {
	outputData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON output")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(outputData)).
			Msg("Record written to file")
		return nil
	}

	if _, err := os.Stdout.Write(outputData); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}
