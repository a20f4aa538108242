package image

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Taciturno11/API-Digitalizacion/internal/catalog"
	"github.com/Taciturno11/API-Digitalizacion/internal/logger"
	"github.com/Taciturno11/API-Digitalizacion/internal/normalize"
	"github.com/Taciturno11/API-Digitalizacion/internal/ocr"
	"github.com/Taciturno11/API-Digitalizacion/pkg/models"
)

var (
	rucLabelRe      = regexp.MustCompile(`(?i)R\.?\s*U\.?\s*C\.?[^0-9]{0,6}([0-9OolIUB]{11})`)
	rucBareRe       = regexp.MustCompile(`\b[12][O0579][0-9OolIU]{9}\b`)
	invoiceNumberRe = regexp.MustCompile(`([EFB8])\s*(\d{3})\s*-\s*(\d{1,8})`)
	issueDateRe     = regexp.MustCompile(`(?i)Emisi[oó]n[^0-9]{0,6}(\d{2}/\d{2}/\d{4})`)
	anyDateRe       = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`)
	recipientRe     = regexp.MustCompile(`(?i)Se[ñnfh]i?[oó]r\s*\(?es\)?\s*:?\s*(.+)`)
	currencyRe      = regexp.MustCompile(`(?i)Moneda[^A-Z]{0,6}([A-Z]{3}|SOLES|DOLARES)`)
	wordsRe         = regexp.MustCompile(`(?i)SON\s*:?\s*([A-ZÁÉÍÓÚÑ /0-9]+(?:SOLES|DOLARES[A-Z ]*))`)
	amountTokenRe   = regexp.MustCompile(`[0-9OoUIl][0-9OoUIl.,]*\.[0-9OoUIl]{2}`)
	datedAmountRe   = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})\s+[S5s$]?[/lI1]?\s*([\d,]+\.\d{2})`)
	lineItemRe      = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(UNIDAD|NIU|KGM|LTR|MTR|GLL)[:\s]+(.+?)\s+([\d,]+\.\d{2})`)
)

// Amount labels of the totals section. The sol symbol and the digits
// themselves arrive mangled, so each label pattern only anchors the label
// text and the correction layer repairs the captured token.
var totalFields = []struct {
	assign  func(*models.RawInvoice, string)
	pattern *regexp.Regexp
}{
	{func(r *models.RawInvoice, v string) { r.FreeAmount = v }, labelRe(`Operaciones\s+Gratuitas`)},
	{func(r *models.RawInvoice, v string) { r.Subtotal = v }, labelRe(`Sub\s*Total\s+Ventas`)},
	{func(r *models.RawInvoice, v string) { r.Advance = v }, labelRe(`Anticipos`)},
	{func(r *models.RawInvoice, v string) { r.Discount = v }, labelRe(`Descuentos`)},
	{func(r *models.RawInvoice, v string) { r.SaleValue = v }, labelRe(`Valor\s+Venta`)},
	{func(r *models.RawInvoice, v string) { r.ISC = v }, labelRe(`ISC`)},
	{func(r *models.RawInvoice, v string) { r.IGV = v }, labelRe(`[I1l]GV`)},
	{func(r *models.RawInvoice, v string) { r.OtherCharges = v }, labelRe(`Otros\s+Cargos`)},
	{func(r *models.RawInvoice, v string) { r.OtherTaxes = v }, labelRe(`Otros\s+Tributos`)},
	{func(r *models.RawInvoice, v string) { r.Rounding = v }, labelRe(`redondeo`)},
	{func(r *models.RawInvoice, v string) { r.Total = v }, labelRe(`Importe\s+Total`)},
	{func(r *models.RawInvoice, v string) { r.OutstandingDue = v }, labelRe(`pendiente\s+de\s+pago`)},
}

// labelRe anchors a totals label and captures the digit run after it,
// skipping a sol symbol misread as "5/" or "SI" when one sits in between.
func labelRe(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + label + `[^0-9OoUIl\n]{0,12}(?:[S5s][/lI1]\.?|SI|sI)?\s*([0-9OoUIl][0-9OoUIl.,]*)`)
}

// Extractor locates invoice fields in the transcriptions of a scan.
type Extractor struct {
	engine  ocr.Engine
	upscale int
	log     zerolog.Logger
}

// NewExtractor creates an image extractor on the given recognition engine.
func NewExtractor(engine ocr.Engine, upscale int) *Extractor {
	return &Extractor{
		engine:  engine,
		upscale: upscale,
		log:     logger.WithComponent("image-extractor"),
	}
}

// Extract preprocesses the scan, runs both recognition passes and walks
// the per-field fallback chains over the transcriptions.
//
// The block pass is mandatory. The sparse pass exists to catch header
// fields the block pass swallows, so its failure degrades to single-pass
// extraction with a warning, except for a context timeout, which aborts.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*models.RawInvoice, []string, error) {
	png, err := Preprocess(data, e.upscale)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	block, err := e.engine.Recognize(ctx, png, ocr.SegmentBlock)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	sparse, err := e.engine.Recognize(ctx, png, ocr.SegmentSparse)
	if err != nil {
		if errors.Is(err, ocr.ErrTimeout) || errors.Is(err, ocr.ErrCanceled) {
			return nil, nil, err
		}
		e.log.Warn().Err(err).Msg("sparse pass failed, continuing with block pass only")
		warnings = append(warnings, "ocr: sparse recognition pass failed, header fields may be incomplete")
		sparse = ""
	}
	e.log.Debug().
		Dur("elapsed", time.Since(start)).
		Int("block_len", len(block)).
		Int("sparse_len", len(sparse)).
		Msg("recognition passes complete")

	raw, parseWarnings := parseTranscriptions(block, sparse)
	warnings = append(warnings, parseWarnings...)
	warnings = append(warnings, reconcileTotals(raw)...)
	return raw, warnings, nil
}

// parseTranscriptions runs each field's fallback chain, stopping at the
// first candidate that survives its field's plausibility check.
//
// Header fields (RUCs, invoice number, recipient name) try the sparse
// pass first: they sit in visually isolated boxes that block segmentation
// swallows or garbles. Body fields (dates, currency, totals) read better
// in block mode and try it first.
func parseTranscriptions(block, sparse string) (*models.RawInvoice, []string) {
	raw := &models.RawInvoice{Source: models.SourceImage}
	var warnings []string
	warn := func(msg string) { warnings = append(warnings, msg) }
	headerSources := []string{sparse, block}
	sources := []string{block, sparse}

	rucs := findRUCs(headerSources)
	if len(rucs) > 0 {
		raw.IssuerRUC = rucs[0]
	} else {
		warn("rucEmisor: no RUC recognized in either pass")
	}
	if len(rucs) > 1 {
		raw.RecipientRUC = rucs[1]
	} else {
		warn("rucReceptor: no second RUC recognized")
	}

	if name := issuerName(block); name != "" {
		raw.IssuerName = name
	} else {
		warn("razonSocialEmisor: no plausible issuer name near top of scan")
	}

	raw.InvoiceNumber = findInvoiceNumber(headerSources)
	if raw.InvoiceNumber == "" {
		warn("numeroFactura: no series-number recognized")
	}

	for _, src := range sources {
		if m := issueDateRe.FindStringSubmatch(src); m != nil {
			raw.IssueDate = m[1]
			break
		}
	}
	if raw.IssueDate == "" {
		if m := anyDateRe.FindStringSubmatch(block); m != nil {
			raw.IssueDate = m[1]
		} else {
			warn("fechaEmision: no date recognized")
		}
	}

	for _, src := range headerSources {
		if m := recipientRe.FindStringSubmatch(src); m != nil {
			candidate := normalize.JoinSpacedLetters(normalize.Clean(m[1]))
			candidate = strings.TrimLeft(candidate, ": ")
			if len(candidate) >= 3 {
				raw.RecipientName = candidate
				break
			}
		}
	}
	if raw.RecipientName == "" {
		warn("razonSocialReceptor: recipient label not recognized")
	}

	for _, src := range sources {
		if m := currencyRe.FindStringSubmatch(src); m != nil {
			raw.Currency = m[1]
			break
		}
	}

	switch {
	case containsFold(block, "crédito") || containsFold(block, "credito"):
		raw.PaymentTerm = "Crédito"
	case containsFold(block, "contado"):
		raw.PaymentTerm = "Contado"
	}

	for _, tf := range totalFields {
		for _, src := range sources {
			if m := tf.pattern.FindStringSubmatch(src); m != nil {
				if token := amountTokenRe.FindString(m[1]); token != "" {
					tf.assign(raw, token)
					break
				}
			}
		}
	}

	if m := wordsRe.FindStringSubmatch(block); m != nil {
		raw.AmountInWords = strings.TrimSpace(m[1])
	}

	raw.Lines = findLineItems(block)
	raw.Installments = findInstallments(block, raw.IssueDate)

	return raw, warnings
}

// headerLineLimit bounds the bare-RUC scan: an unlabeled 11-digit run
// deeper in the transcription is far more likely a body-text number
// (order id, bank account) than a party RUC.
const headerLineLimit = 20

// findRUCs collects distinct RUCs across the passes, labeled hits first,
// then bare 11-digit runs limited to the header lines. Every candidate
// goes through digit repair before the validity check.
func findRUCs(sources []string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(candidate string) {
		fixed := repairDigits(candidate)
		if catalog.ValidRUC(fixed) && !seen[fixed] {
			seen[fixed] = true
			out = append(out, fixed)
		}
	}
	for _, src := range sources {
		for _, m := range rucLabelRe.FindAllStringSubmatch(src, -1) {
			add(m[1])
		}
	}
	for _, src := range sources {
		for _, m := range rucBareRe.FindAllString(topLines(src, headerLineLimit), -1) {
			add(m)
		}
	}
	return out
}

// topLines returns the first n lines of a transcription.
func topLines(s string, n int) string {
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

// findInvoiceNumber locates the series-number pair. SUNAT series start
// with E, F or B; a leading 8 is accepted as a misread B.
func findInvoiceNumber(sources []string) string {
	for _, src := range sources {
		m := invoiceNumberRe.FindStringSubmatch(src)
		if m == nil {
			continue
		}
		series := m[1]
		if series == "8" {
			series = "B"
		}
		return series + m[2] + "-" + m[3]
	}
	return ""
}

// issuerName picks the first plausible legal name in the top lines of the
// block transcription: mostly letters, at least two words, not a document
// title or a label line.
func issuerName(block string) string {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		if i >= 6 {
			break
		}
		candidate := normalize.JoinSpacedLetters(normalize.Clean(line))
		if len(candidate) < 6 || len(strings.Fields(candidate)) < 2 {
			continue
		}
		upper := strings.ToUpper(candidate)
		if strings.Contains(upper, "FACTURA") || strings.Contains(upper, "BOLETA") ||
			strings.Contains(upper, "RUC") || strings.Contains(upper, "ELECTR") {
			continue
		}
		if !mostlyLetters(candidate) {
			continue
		}
		return candidate
	}
	return ""
}

func mostlyLetters(s string) bool {
	letters, digits := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r != ' ':
			letters++
		}
	}
	return letters > digits*3
}

// findLineItems recovers detail rows from the block transcription:
// `<quantity> <unit> <description> <amount>`, one row per line. Scans
// print the unit as its name, so UNIDAD is folded back to its code and
// the validator sees the same vocabulary as the other formats.
func findLineItems(block string) []models.RawLine {
	var items []models.RawLine
	for _, m := range lineItemRe.FindAllStringSubmatch(block, -1) {
		unit := strings.ToUpper(m[2])
		if unit == "UNIDAD" {
			unit = "NIU"
		}
		items = append(items, models.RawLine{
			Quantity:    m[1],
			Unit:        unit,
			Description: normalize.JoinSpacedLetters(normalize.Clean(m[3])),
			UnitPrice:   m[4],
		})
	}
	return items
}

// findInstallments reads cuota candidates: a date paired with an amount,
// excluding the issue date itself. Numbers are assigned sequentially in
// transcription order because the printed row numbers rarely survive OCR.
func findInstallments(block, issueDate string) []models.RawInstallment {
	var out []models.RawInstallment
	for _, m := range datedAmountRe.FindAllStringSubmatch(block, -1) {
		if m[1] == issueDate {
			continue
		}
		if !laterThan(m[1], issueDate) {
			continue
		}
		out = append(out, models.RawInstallment{
			Number:  len(out) + 1,
			DueDate: m[1],
			Amount:  m[2],
		})
	}
	return out
}

// laterThan reports whether due falls strictly after issue. Unparseable
// dates are kept; the validator flags them later.
func laterThan(due, issue string) bool {
	d, errD := time.Parse("02/01/2006", due)
	i, errI := time.Parse("02/01/2006", issue)
	if errD != nil || errI != nil {
		return true
	}
	return d.After(i)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
