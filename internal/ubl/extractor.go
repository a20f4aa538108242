// Package ubl extracts invoice fields from a SUNAT UBL 2.1 XML document.
//
// XML is the authoritative representation: every field sits at a known
// element path, so extraction is path navigation rather than pattern
// matching. The digital-signature extension block is ignored entirely.
package ubl

import (
	"errors"
	"strings"

	"github.com/beevik/etree"

	"github.com/Taciturno11/API-Digitalizacion/internal/catalog"
	"github.com/Taciturno11/API-Digitalizacion/pkg/models"
)

// ErrNotWellFormed is returned when the bytes do not parse as XML or the
// root element is not a UBL Invoice.
var ErrNotWellFormed = errors.New("document is not a well-formed ubl invoice")

// Extractor pulls the raw field map out of a UBL 2.1 document.
type Extractor struct{}

// NewExtractor creates a UBL field extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses the document and recovers the raw field map.
func (e *Extractor) Extract(data []byte) (*models.RawInvoice, []string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, nil, ErrNotWellFormed
	}
	root := doc.Root()
	if root == nil || root.Tag != "Invoice" {
		return nil, nil, ErrNotWellFormed
	}

	raw := &models.RawInvoice{Source: models.SourceXML}
	var warnings []string

	raw.InvoiceNumber = text(root, "cbc:ID")
	raw.IssueDate = text(root, "cbc:IssueDate")
	raw.Currency = text(root, "cbc:DocumentCurrencyCode")

	if code := text(root, "cbc:InvoiceTypeCode"); code != "" && code != "01" {
		warnings = append(warnings, "documento: type is "+catalog.DocumentTypeName(code)+", expected FACTURA")
	}

	extractIssuer(root, raw)
	extractRecipient(root, raw)
	extractNotes(root, raw)
	extractMonetaryTotals(root, raw)
	warnings = append(warnings, extractTaxTotals(root, raw)...)
	raw.Lines = extractLines(root)
	warnings = append(warnings, extractPaymentTerms(root, raw)...)

	return raw, warnings, nil
}

// find walks a slash-separated path of child elements, matching each
// segment by local name only. SUNAT documents in the wild bind the cac
// and cbc namespaces to arbitrary prefixes (or a default namespace), so
// the prefixes in the path literals document intent but do not constrain
// the match.
func find(parent *etree.Element, path string) *etree.Element {
	els := findAll(parent, path)
	if len(els) == 0 {
		return nil
	}
	return els[0]
}

func findAll(parent *etree.Element, path string) []*etree.Element {
	els := []*etree.Element{parent}
	for _, seg := range strings.Split(path, "/") {
		if i := strings.IndexByte(seg, ':'); i >= 0 {
			seg = seg[i+1:]
		}
		var next []*etree.Element
		for _, el := range els {
			for _, child := range el.ChildElements() {
				if child.Tag == seg {
					next = append(next, child)
				}
			}
		}
		els = next
	}
	return els
}

// text returns the trimmed text of the first element at path, or "".
func text(parent *etree.Element, path string) string {
	if el := find(parent, path); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

func extractIssuer(root *etree.Element, raw *models.RawInvoice) {
	party := find(root, "cac:AccountingSupplierParty/cac:Party")
	if party == nil {
		return
	}
	raw.IssuerRUC = text(party, "cac:PartyIdentification/cbc:ID")
	raw.IssuerName = text(party, "cac:PartyLegalEntity/cbc:RegistrationName")

	if addr := find(party, "cac:PartyLegalEntity/cac:RegistrationAddress"); addr != nil {
		raw.IssuerAddress = text(addr, "cac:AddressLine/cbc:Line")
		raw.District = text(addr, "cbc:District")
		raw.Province = text(addr, "cbc:CityName")
		raw.Department = text(addr, "cbc:CountrySubentity")
	}
}

func extractRecipient(root *etree.Element, raw *models.RawInvoice) {
	party := find(root, "cac:AccountingCustomerParty/cac:Party")
	if party == nil {
		return
	}
	raw.RecipientRUC = text(party, "cac:PartyIdentification/cbc:ID")
	raw.RecipientName = text(party, "cac:PartyLegalEntity/cbc:RegistrationName")
	raw.RecipientAddress = text(party, "cac:PartyLegalEntity/cac:RegistrationAddress/cac:AddressLine/cbc:Line")

	// delivery address, when distinct from the fiscal one
	raw.CustomerAddress = text(root, "cac:Delivery/cac:DeliveryLocation/cac:Address/cac:AddressLine/cbc:Line")
	if raw.CustomerAddress == "" {
		raw.CustomerAddress = raw.RecipientAddress
	}
}

// extractNotes reads the cbc:Note elements. The note with locale code
// 1000 carries the amount in words; any other note is the free-form
// observation.
func extractNotes(root *etree.Element, raw *models.RawInvoice) {
	for _, note := range findAll(root, "cbc:Note") {
		value := strings.TrimSpace(note.Text())
		if value == "" {
			continue
		}
		if note.SelectAttrValue("languageLocaleID", "") == "1000" ||
			strings.HasPrefix(strings.ToUpper(value), "SON") {
			raw.AmountInWords = strings.TrimPrefix(strings.TrimPrefix(value, "SON:"), "SON ")
			raw.AmountInWords = strings.TrimSpace(raw.AmountInWords)
			continue
		}
		if raw.Observation == "" {
			raw.Observation = value
		}
	}
}

func extractMonetaryTotals(root *etree.Element, raw *models.RawInvoice) {
	totals := find(root, "cac:LegalMonetaryTotal")
	if totals == nil {
		return
	}
	raw.Subtotal = text(totals, "cbc:LineExtensionAmount")
	raw.SaleValue = raw.Subtotal
	raw.Total = text(totals, "cbc:PayableAmount")
	raw.Advance = text(totals, "cbc:PrepaidAmount")
	raw.Discount = text(totals, "cbc:AllowanceTotalAmount")
	raw.OtherCharges = text(totals, "cbc:ChargeTotalAmount")
	raw.Rounding = text(totals, "cbc:PayableRoundingAmount")
}

// extractTaxTotals buckets each TaxSubtotal by its SUNAT tax-scheme code.
// IGV and ISC land in their own fields; an unrecognized scheme is folded
// into otrosTributos with a warning so no tax amount silently vanishes.
func extractTaxTotals(root *etree.Element, raw *models.RawInvoice) []string {
	var warnings []string
	for _, sub := range findAll(root, "cac:TaxTotal/cac:TaxSubtotal") {
		amount := text(sub, "cbc:TaxAmount")
		scheme := text(sub, "cac:TaxCategory/cac:TaxScheme/cbc:ID")
		switch scheme {
		case catalog.TaxSchemeIGV:
			raw.IGV = amount
		case catalog.TaxSchemeISC:
			raw.ISC = amount
		case catalog.TaxSchemeExport, catalog.TaxSchemeFree:
			// exempt buckets carry no payable amount
			if scheme == catalog.TaxSchemeFree {
				raw.FreeAmount = text(sub, "cbc:TaxableAmount")
			}
		case catalog.TaxSchemeOther:
			raw.OtherTaxes = amount
		default:
			raw.OtherTaxes = amount
			warnings = append(warnings, "otrosTributos: unrecognized tax scheme code "+scheme)
		}
	}
	return warnings
}

func extractLines(root *etree.Element) []models.RawLine {
	var lines []models.RawLine
	for _, el := range findAll(root, "cac:InvoiceLine") {
		line := models.RawLine{
			Description: text(el, "cac:Item/cbc:Description"),
			UnitPrice:   text(el, "cac:Price/cbc:PriceAmount"),
		}
		if qty := find(el, "cbc:InvoicedQuantity"); qty != nil {
			line.Quantity = strings.TrimSpace(qty.Text())
			line.Unit = qty.SelectAttrValue("unitCode", "")
		}
		lines = append(lines, line)
	}
	return lines
}

// extractPaymentTerms walks the SUNAT FormaPago terms. A Contado term
// means cash; a Credito term carries the outstanding balance; CuotaNNN
// terms each carry one installment. Absent terms default to Contado.
func extractPaymentTerms(root *etree.Element, raw *models.RawInvoice) []string {
	var warnings []string
	for _, terms := range findAll(root, "cac:PaymentTerms") {
		if text(terms, "cbc:ID") != "FormaPago" {
			continue
		}
		means := text(terms, "cbc:PaymentMeansID")
		switch {
		case strings.EqualFold(means, "Contado"):
			raw.PaymentTerm = "Contado"
		case strings.EqualFold(means, "Credito"):
			raw.PaymentTerm = "Crédito"
			raw.OutstandingDue = text(terms, "cbc:Amount")
		case strings.HasPrefix(means, "Cuota"):
			number := parseCuotaNumber(means)
			if number == 0 {
				warnings = append(warnings, "cuotas: unparseable installment id "+means)
				continue
			}
			raw.Installments = append(raw.Installments, models.RawInstallment{
				Number:  number,
				DueDate: text(terms, "cbc:PaymentDueDate"),
				Amount:  text(terms, "cbc:Amount"),
			})
		}
	}
	if raw.PaymentTerm == "" {
		raw.PaymentTerm = "Contado"
	}
	return warnings
}

// parseCuotaNumber reads the NNN of a CuotaNNN payment-means id.
func parseCuotaNumber(means string) int {
	digits := strings.TrimPrefix(means, "Cuota")
	n := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
