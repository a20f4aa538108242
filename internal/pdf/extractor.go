// Package pdf extracts invoice fields from the text layer of a SUNAT
// electronic-invoice PDF.
//
// The printed representation has a fixed section order (issuer header,
// recipient block, detail table, totals, installments), so extraction
// walks the first-page text line by line with an ordered set of anchored
// patterns per field. A field whose patterns all miss is omitted and
// reported as a warning; only an unreadable text layer is fatal.
package pdf

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Taciturno11/API-Digitalizacion/internal/normalize"
	"github.com/Taciturno11/API-Digitalizacion/pkg/models"
)

// ErrNoTextLayer is returned when the document cannot be opened as a PDF
// or its first page carries no extractable text.
var ErrNoTextLayer = errors.New("pdf has no readable text layer")

var (
	rucRe           = regexp.MustCompile(`RUC\s*:?\s*(\d{11})`)
	invoiceNumberRe = regexp.MustCompile(`([EFB]\d{3}-\d+)`)
	dateRe          = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`)
	issueDateRe     = regexp.MustCompile(`Fecha\s*(?:de\s*)?Emisi[oó]n\s*:?\s*(\d{2}/\d{2}/\d{4})`)
	recipientRe     = regexp.MustCompile(`Se.or\(es\)\s*:?`)
	currencyRe      = regexp.MustCompile(`Tipo de Moneda\s*:?\s*(\w+)`)
	addressLeadRe   = regexp.MustCompile(`(?i)^(AV|CAL|CALLE|JR|PSJE|MZA|URB)\.?\s`)
	lineItemRe      = regexp.MustCompile(`^(\d+\.\d{2})\s+(\S+)\s+(.+?)\s+(\d+(?:,\d{3})*\.\d{2})$`)
	lineContinueRe  = regexp.MustCompile(`(?i)^(\d|Valor|Sub|SON|ISC|IGV|Importe|Operaciones|Anticipos|Descuentos|Otros|Monto|Total)`)
	wordsRe         = regexp.MustCompile(`(?im)SON\s*:\s*(.+?)\s*$`)
	installmentRe   = regexp.MustCompile(`(\d{1,2})\s+(\d{2}/\d{2}/\d{4})\s+([\d,]+\.\d{2})`)
	datedAmountRe   = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})\s+([\d,]+\.\d{2})`)
	countRe         = regexp.MustCompile(`Total de Cuotas\s*:?\s*(\d+)`)
	tableHeaderRe   = regexp.MustCompile(`Cantidad.*Unidad.*Descripci`)
)

// Amount labels of the totals section, in printed order. Each is matched
// as `<label> ... S/ <amount>` against the whole text.
var totalPatterns = []struct {
	field   string
	pattern *regexp.Regexp
}{
	{"ventaGratuita", amountPattern(`Operaciones Gratuitas`)},
	{"subtotalVenta", amountPattern(`Sub Total Ventas`)},
	{"anticipo", amountPattern(`Anticipos`)},
	{"descuento", amountPattern(`Descuentos`)},
	{"valorVenta", amountPattern(`Valor Venta`)},
	{"isc", amountPattern(`ISC`)},
	{"igv", amountPattern(`IGV`)},
	{"otrosCargos", amountPattern(`Otros Cargos`)},
	{"otrosTributos", amountPattern(`Otros Tributos`)},
	{"montoRedondeo", amountPattern(`Monto de redondeo`)},
	{"importeTotal", amountPattern(`Importe Total`)},
	{"montoNetoPendientePago", amountPattern(`pendiente de pago`)},
}

func amountPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + label + `\s*:?\s*S/\s*([\d,]+\.\d{2})`)
}

// Extractor pulls the raw field map out of a PDF document.
type Extractor struct{}

// NewExtractor creates a PDF field extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the first-page text layer and recovers the raw field map.
func (e *Extractor) Extract(data []byte) (*models.RawInvoice, []string, error) {
	text, err := firstPageText(data)
	if err != nil {
		return nil, nil, err
	}
	raw, warnings := parseText(text)
	return raw, warnings, nil
}

// firstPageText extracts the first page as one string with the layout's
// line structure preserved.
func firstPageText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", ErrNoTextLayer
	}
	if reader.NumPage() < 1 {
		return "", ErrNoTextLayer
	}

	page := reader.Page(1)
	if page.V.IsNull() {
		return "", ErrNoTextLayer
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", ErrNoTextLayer
	}

	var b strings.Builder
	for _, row := range rows {
		for i, word := range row.Content {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(word.S)
		}
		b.WriteString("\n")
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrNoTextLayer
	}
	return text, nil
}

// parseText runs the per-field rules over the extracted text layer.
func parseText(text string) (*models.RawInvoice, []string) {
	raw := &models.RawInvoice{Source: models.SourcePDF}
	var warnings []string
	warn := func(msg string) { warnings = append(warnings, msg) }

	lines := splitLines(text)

	// Section 1: issuer header. Line order is title, legal name,
	// RUC, address, invoice number, district-province-department.
	issuerIdx := -1
	for i, line := range lines {
		if i >= 6 {
			break
		}
		if m := rucRe.FindStringSubmatch(line); m != nil {
			raw.IssuerRUC = m[1]
			issuerIdx = i
			break
		}
	}
	if raw.IssuerRUC == "" {
		warn("rucEmisor: no RUC pattern in header block")
	}

	if name := issuerName(lines, issuerIdx); name != "" {
		raw.IssuerName = normalize.JoinSpacedLetters(name)
	} else {
		warn("razonSocialEmisor: header block carries no legal name")
	}

	if issuerIdx >= 0 && issuerIdx+1 < len(lines) && !invoiceNumberRe.MatchString(lines[issuerIdx+1]) {
		raw.IssuerAddress = strings.TrimSpace(lines[issuerIdx+1])
	}

	for i, line := range lines {
		if i >= 8 {
			break
		}
		if m := invoiceNumberRe.FindStringSubmatch(line); m != nil {
			raw.InvoiceNumber = m[1]
			break
		}
	}
	if raw.InvoiceNumber == "" {
		warn("numeroFactura: no series-number pattern found")
	}

	for i, line := range lines {
		if i >= 10 {
			break
		}
		if d, p, dep := normalize.SplitGeo(line); d != "" {
			raw.District, raw.Province, raw.Department = d, p, dep
			break
		}
	}

	// Section 2: recipient and operation metadata.
	if m := issueDateRe.FindStringSubmatch(text); m != nil {
		raw.IssueDate = m[1]
	} else if m := dateRe.FindStringSubmatch(text); m != nil {
		raw.IssueDate = m[1]
	} else {
		warn("fechaEmision: no date found")
	}

	switch {
	case strings.Contains(text, "Crédito") || strings.Contains(text, "Credito"):
		raw.PaymentTerm = "Crédito"
	case strings.Contains(text, "Contado"):
		raw.PaymentTerm = "Contado"
	}

	recipientStart := indexOf(lines, func(l string) bool { return recipientRe.MatchString(l) })
	recipientRUCIdx := -1
	if recipientStart >= 0 {
		for i := recipientStart; i < len(lines) && i < recipientStart+10; i++ {
			if m := rucRe.FindStringSubmatch(lines[i]); m != nil && m[1] != raw.IssuerRUC {
				raw.RecipientRUC = m[1]
				recipientRUCIdx = i
				break
			}
		}
	}
	if raw.RecipientRUC == "" {
		// fall back to any second distinct RUC in the document
		for _, m := range rucRe.FindAllStringSubmatch(text, -1) {
			if m[1] != raw.IssuerRUC {
				raw.RecipientRUC = m[1]
				break
			}
		}
	}
	if raw.RecipientRUC == "" {
		warn("rucReceptor: no second RUC found after recipient label")
	}

	if recipientStart >= 0 && recipientRUCIdx > recipientStart {
		var parts []string
		for i := recipientStart; i < recipientRUCIdx; i++ {
			line := recipientRe.ReplaceAllString(lines[i], "")
			line = strings.TrimSpace(line)
			if line != "" {
				parts = append(parts, line)
			}
		}
		raw.RecipientName = normalize.JoinSpacedLetters(strings.Join(parts, " "))
	}
	if raw.RecipientName == "" {
		warn("razonSocialReceptor: recipient block carries no legal name")
	}

	parseAddresses(lines, recipientRUCIdx, raw)

	if m := currencyRe.FindStringSubmatch(text); m != nil {
		raw.Currency = m[1]
	}

	raw.Observation = observation(lines)

	// Section 3: detail rows.
	raw.Lines = parseLineItems(lines)
	if len(raw.Lines) == 0 {
		warn("lineaFactura: no detail rows matched the table pattern")
	}

	// Section 4: totals.
	for _, tp := range totalPatterns {
		m := tp.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		setTotal(raw, tp.field, m[1])
	}

	if m := wordsRe.FindStringSubmatch(text); m != nil {
		raw.AmountInWords = strings.TrimSpace(m[1])
	}

	// Section 5: installments.
	raw.Installments = parseInstallments(lines, raw.IssueDate)
	if m := countRe.FindStringSubmatch(text); m != nil {
		raw.InstallmentCount = m[1]
	}

	return raw, warnings
}

// issuerName walks backwards from the issuer RUC line skipping the
// document title; the legal name always comes out of the text layer,
// never a fixed literal.
func issuerName(lines []string, rucIdx int) string {
	if rucIdx <= 0 {
		return ""
	}
	// name on the same line, left of the RUC label
	if m := regexp.MustCompile(`^(.+?)\s*RUC`).FindStringSubmatch(lines[rucIdx]); m != nil {
		if c := strings.TrimSpace(m[1]); c != "" {
			return c
		}
	}
	for i := rucIdx - 1; i >= 0; i-- {
		c := strings.TrimSpace(lines[i])
		if c == "" || strings.Contains(strings.ToUpper(c), "FACTURA") || strings.Contains(strings.ToUpper(c), "BOLETA") {
			continue
		}
		if addressLeadRe.MatchString(c) {
			continue
		}
		return c
	}
	return ""
}

// parseAddresses reconstructs the recipient and customer addresses.
// Layouts render them with partial duplication between the fiscal block
// and the delivery block, so the two candidates go through the
// guillotine before landing in the field map.
func parseAddresses(lines []string, rucIdx int, raw *models.RawInvoice) {
	if rucIdx < 0 {
		return
	}

	receptorLabel := indexOf(lines, func(l string) bool {
		return strings.Contains(l, "Direcci") && strings.Contains(l, "Receptor")
	})
	clienteLabel := indexOf(lines, func(l string) bool {
		return strings.Contains(l, "Direcci") && strings.Contains(l, "Cliente")
	})
	monedaIdx := indexOf(lines, func(l string) bool { return strings.Contains(l, "Tipo de Moneda") })

	fiscal := collectBlock(lines, rucIdx+1, receptorLabel)
	delivery := ""
	if receptorLabel >= 0 {
		end := clienteLabel
		if end < 0 {
			end = monedaIdx
		}
		delivery = collectBlock(lines, receptorLabel, end)
	}
	raw.RecipientAddress = normalize.Guillotine(fiscal, delivery)

	if clienteLabel >= 0 && monedaIdx > clienteLabel {
		raw.CustomerAddress = collectBlock(lines, clienteLabel, monedaIdx)
	} else {
		raw.CustomerAddress = raw.RecipientAddress
	}
}

// collectBlock joins the address content of lines[from:to), dropping the
// section labels themselves but keeping inline values after their colon.
func collectBlock(lines []string, from, to int) string {
	if from < 0 {
		return ""
	}
	if to < 0 || to > len(lines) {
		to = len(lines)
	}
	var parts []string
	for i := from; i < to && i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if strings.Contains(line, "Direcci") {
			if _, after, ok := strings.Cut(line, ":"); ok {
				if v := strings.TrimSpace(after); v != "" {
					parts = append(parts, v)
				}
			}
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

func observation(lines []string) string {
	monedaIdx := indexOf(lines, func(l string) bool { return strings.Contains(l, "Tipo de Moneda") })
	tableIdx := indexOf(lines, func(l string) bool { return tableHeaderRe.MatchString(l) })
	if monedaIdx < 0 || tableIdx <= monedaIdx {
		return ""
	}
	var parts []string
	obsLabelRe := regexp.MustCompile(`Observaci.n\s*:?`)
	for i := monedaIdx + 1; i < tableIdx; i++ {
		line := strings.TrimSpace(obsLabelRe.ReplaceAllString(lines[i], ""))
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

// parseLineItems matches `<qty> <unit> <description> <unit price>` rows,
// gluing a continuation line onto the description when the next line is
// neither a new row nor a totals label.
func parseLineItems(lines []string) []models.RawLine {
	var items []models.RawLine
	for i, line := range lines {
		m := lineItemRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		description := strings.TrimSpace(m[3])
		if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if next != "" && !lineContinueRe.MatchString(next) {
				description += " " + next
			}
		}
		items = append(items, models.RawLine{
			Quantity:    m[1],
			Unit:        m[2],
			Description: description,
			UnitPrice:   m[4],
		})
	}
	return items
}

// parseInstallments reads cuota rows. The explicit `<n> <date> <amount>`
// form wins; a line holding two or more bare `<date> <amount>` pairs is
// accepted as implicitly numbered. Duplicated numbers keep the first hit.
func parseInstallments(lines []string, issueDate string) []models.RawInstallment {
	seen := map[int]bool{}
	var out []models.RawInstallment

	for _, line := range lines {
		numbered := installmentRe.FindAllStringSubmatch(line, -1)
		if len(numbered) > 0 {
			for _, m := range numbered {
				n, err := strconv.Atoi(m[1])
				if err != nil || n < 1 || n > 20 || seen[n] {
					continue
				}
				seen[n] = true
				out = append(out, models.RawInstallment{Number: n, DueDate: m[2], Amount: m[3]})
			}
			continue
		}
		pairs := datedAmountRe.FindAllStringSubmatch(line, -1)
		if len(pairs) >= 2 {
			for _, m := range pairs {
				if m[1] == issueDate {
					continue
				}
				n := len(out) + 1
				if seen[n] {
					continue
				}
				seen[n] = true
				out = append(out, models.RawInstallment{Number: n, DueDate: m[1], Amount: m[2]})
			}
		}
	}

	sortInstallments(out)
	return out
}

func sortInstallments(installments []models.RawInstallment) {
	for i := 1; i < len(installments); i++ {
		for j := i; j > 0 && installments[j].Number < installments[j-1].Number; j-- {
			installments[j], installments[j-1] = installments[j-1], installments[j]
		}
	}
}

func setTotal(raw *models.RawInvoice, field, value string) {
	switch field {
	case "ventaGratuita":
		raw.FreeAmount = value
	case "subtotalVenta":
		raw.Subtotal = value
	case "anticipo":
		raw.Advance = value
	case "descuento":
		raw.Discount = value
	case "valorVenta":
		raw.SaleValue = value
	case "isc":
		raw.ISC = value
	case "igv":
		raw.IGV = value
	case "otrosCargos":
		raw.OtherCharges = value
	case "otrosTributos":
		raw.OtherTaxes = value
	case "montoRedondeo":
		raw.Rounding = value
	case "importeTotal":
		raw.Total = value
	case "montoNetoPendientePago":
		raw.OutstandingDue = value
	}
}

func splitLines(text string) []string {
	rawLines := strings.Split(text, "\n")
	lines := make([]string, 0, len(rawLines))
	for _, l := range rawLines {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}

func indexOf(lines []string, match func(string) bool) int {
	for i, l := range lines {
		if match(l) {
			return i
		}
	}
	return -1
}
