// Package image extracts invoice fields from a scanned raster document.
//
// The pipeline is preprocess, recognize twice, locate fields, correct.
// Recognition quality on phone photos and low-DPI scans is poor enough
// that every located value goes through OCR-specific corrections before
// joining the raw field map.
package image

import (
	"bytes"
	"errors"

	"github.com/disintegration/imaging"
)

// ErrUndecodable is returned when the bytes are not a decodable raster
// image.
var ErrUndecodable = errors.New("image cannot be decoded")

// Preprocess decodes the scan and prepares it for recognition: grayscale
// conversion, then Lanczos upscaling by the given factor. Tesseract's
// accuracy on small print improves sharply with resolution, and color
// carries no signal on an invoice.
func Preprocess(data []byte, upscale int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUndecodable
	}
	if upscale < 1 {
		upscale = 1
	}

	gray := imaging.Grayscale(img)
	width := gray.Bounds().Dx() * upscale
	scaled := imaging.Resize(gray, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
