// Package invoice turns the raw field map an extractor produced into the
// canonical record, validating every business rule along the way.
//
// Validation never rejects a document: a rule violation becomes a warning
// on the Result and the offending value is kept or repaired. The single
// fatal condition is a document so empty that no identification survived.
package invoice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Taciturno11/API-Digitalizacion/internal/catalog"
	"github.com/Taciturno11/API-Digitalizacion/internal/logger"
	"github.com/Taciturno11/API-Digitalizacion/internal/normalize"
	"github.com/Taciturno11/API-Digitalizacion/pkg/models"
)

// ErrInsufficient is returned when neither party can be identified and no
// grand total was found or derivable. Such a record is useless downstream.
var ErrInsufficient = errors.New("extraction yielded insufficient data")

// InsufficientError carries the partial field map and the warnings that
// accumulated before the record was rejected, for diagnostics. It matches
// ErrInsufficient under errors.Is.
type InsufficientError struct {
	// Raw is the partial field map the extractor produced.
	Raw *models.RawInvoice

	// Warnings are the extractor and validation warnings gathered so far.
	Warnings []string
}

// Error implements the error interface.
func (e *InsufficientError) Error() string {
	return fmt.Sprintf("%v (%d warnings)", ErrInsufficient, len(e.Warnings))
}

// Unwrap returns the sentinel for error matching.
func (e *InsufficientError) Unwrap() error {
	return ErrInsufficient
}

var invoiceNumberFormRe = regexp.MustCompile(`^[EFB]\d{3}-\d+$`)

// Validator builds and checks the canonical record.
type Validator struct {
	tolerance float64
	log       zerolog.Logger
}

// NewValidator creates a validator with the given monetary reconciliation
// tolerance, in currency units.
func NewValidator(tolerance float64) *Validator {
	if tolerance <= 0 {
		tolerance = 0.01
	}
	return &Validator{
		tolerance: tolerance,
		log:       logger.WithComponent("validator"),
	}
}

// Validate converts the raw field map into the canonical record and runs
// every business rule over it. Extractor warnings are prepended to the
// validation warnings so the Result carries the full account.
func (v *Validator) Validate(raw *models.RawInvoice, extractorWarnings []string) (*models.Result, error) {
	warnings := append([]string{}, extractorWarnings...)
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	inv := &models.Invoice{}

	v.identification(raw, inv, warn)
	v.parties(raw, inv, warn)
	v.metadata(raw, inv, warn)
	v.lines(raw, inv, warn)
	hasTotal := v.totals(raw, inv, warn)
	v.installments(raw, inv, warn)

	// a derived grand total counts: the record is usable once any of the
	// three identification anchors exists
	if inv.IssuerRUC == "" && inv.RecipientRUC == "" && !hasTotal {
		return nil, &InsufficientError{Raw: raw, Warnings: warnings}
	}

	v.log.Debug().
		Str("invoice", inv.InvoiceNumber).
		Str("source", string(raw.Source)).
		Int("warnings", len(warnings)).
		Msg("validation complete")

	return &models.Result{Invoice: inv, Warnings: warnings}, nil
}

func (v *Validator) identification(raw *models.RawInvoice, inv *models.Invoice, warn func(string, ...any)) {
	inv.InvoiceNumber = strings.ToUpper(normalize.Clean(raw.InvoiceNumber))
	if inv.InvoiceNumber != "" && !invoiceNumberFormRe.MatchString(inv.InvoiceNumber) {
		warn("numeroFactura: %q does not follow the series-number form", inv.InvoiceNumber)
	}

	if raw.IssueDate != "" {
		if d, ok := normalize.Date(raw.IssueDate); ok {
			inv.IssueDate = d
		} else {
			inv.IssueDate = normalize.Clean(raw.IssueDate)
			warn("fechaEmision: %q is not a recognizable date", raw.IssueDate)
		}
	}
	// the accounting period follows the issue date unless stated otherwise
	inv.AccountingDate = inv.IssueDate
}

func (v *Validator) parties(raw *models.RawInvoice, inv *models.Invoice, warn func(string, ...any)) {
	inv.IssuerName = normalize.Clean(raw.IssuerName)
	inv.IssuerAddress = normalize.Clean(raw.IssuerAddress)
	inv.Department = normalize.Clean(raw.Department)
	inv.Province = normalize.Clean(raw.Province)
	inv.District = normalize.Clean(raw.District)
	inv.RecipientName = normalize.Clean(raw.RecipientName)
	inv.RecipientAddress = normalize.Clean(raw.RecipientAddress)
	inv.CustomerAddress = normalize.Clean(raw.CustomerAddress)

	inv.IssuerRUC = raw.IssuerRUC
	if inv.IssuerRUC != "" && !catalog.ValidRUC(inv.IssuerRUC) {
		warn("rucEmisor: %q is not a valid RUC", inv.IssuerRUC)
	}
	inv.RecipientRUC = raw.RecipientRUC
	if inv.RecipientRUC != "" && !catalog.ValidRUC(inv.RecipientRUC) {
		warn("rucReceptor: %q is not a valid RUC", inv.RecipientRUC)
	}

	v.log.Debug().
		Str("issuer_type", catalog.RUCType(inv.IssuerRUC)).
		Str("recipient_type", catalog.RUCType(inv.RecipientRUC)).
		Msg("parties identified")
}

func (v *Validator) metadata(raw *models.RawInvoice, inv *models.Invoice, warn func(string, ...any)) {
	inv.Currency = catalog.CurrencyName(raw.Currency)
	inv.Observation = normalize.Clean(raw.Observation)

	switch normalize.Clean(raw.PaymentTerm) {
	case "Contado", "contado", "CONTADO":
		inv.PaymentTerm = "Contado"
	case "Crédito", "Credito", "credito", "CREDITO":
		inv.PaymentTerm = "Crédito"
	case "":
		if len(raw.Installments) > 0 {
			inv.PaymentTerm = "Crédito"
		} else {
			inv.PaymentTerm = "Contado"
		}
	default:
		inv.PaymentTerm = normalize.Clean(raw.PaymentTerm)
		warn("formaPago: %q is neither Contado nor Crédito", raw.PaymentTerm)
	}
}

func (v *Validator) lines(raw *models.RawInvoice, inv *models.Invoice, warn func(string, ...any)) {
	if len(raw.Lines) == 0 {
		warn("lineaFactura: no detail rows extracted")
		return
	}
	for i, rl := range raw.Lines {
		line := models.LineItem{
			Description: normalize.Clean(rl.Description),
			Unit:        catalog.UnitName(rl.Unit),
		}
		if rl.Unit != "" && !catalog.KnownUnit(rl.Unit) {
			warn("lineaFactura[%d].unidadMedida: unrecognized unit code %q", i, rl.Unit)
		}
		if qty, ok := normalize.Amount(rl.Quantity); ok {
			line.Quantity = qty
		} else if rl.Quantity != "" {
			warn("lineaFactura[%d].cantidad: unparseable quantity %q", i, rl.Quantity)
		}
		if price, ok := normalize.Amount(rl.UnitPrice); ok {
			line.UnitPrice = price
		} else if rl.UnitPrice != "" {
			warn("lineaFactura[%d].valorUnitario: unparseable amount %q", i, rl.UnitPrice)
		}
		inv.Lines = append(inv.Lines, line)
	}
}

// totals coerces every monetary field, derives the members of the totals
// identity that the document did not carry and checks the identity at the
// configured tolerance. Reports whether a grand total exists, parsed or
// derived.
func (v *Validator) totals(raw *models.RawInvoice, inv *models.Invoice, warn func(string, ...any)) bool {
	coerce := func(field, value string) (float64, bool) {
		if value == "" {
			return 0, false
		}
		n, ok := normalize.Amount(value)
		if !ok {
			warn("%s: unparseable amount %q", field, value)
			return 0, false
		}
		return n, true
	}

	inv.FreeAmount, _ = coerce("ventaGratuita", raw.FreeAmount)
	inv.Advance, _ = coerce("anticipo", raw.Advance)
	inv.Discount, _ = coerce("descuento", raw.Discount)
	inv.ISC, _ = coerce("isc", raw.ISC)
	inv.OtherCharges, _ = coerce("otrosCargos", raw.OtherCharges)
	inv.OtherTaxes, _ = coerce("otrosTributos", raw.OtherTaxes)
	inv.Rounding, _ = coerce("montoRedondeo", raw.Rounding)

	subtotal, hasSubtotal := coerce("subtotalVenta", raw.Subtotal)
	igv, hasIGV := coerce("igv", raw.IGV)
	total, hasTotal := coerce("importeTotal", raw.Total)

	switch {
	case !hasTotal && hasSubtotal && hasIGV:
		total = v.identity(subtotal, igv, inv)
		hasTotal = true
		warn("importeTotal: derived from the other totals")
	case !hasIGV && hasSubtotal && hasTotal:
		igv = normalize.Round2(subtotal * catalog.IGVRate)
		warn("igv: derived from subtotalVenta at the standard rate")
	case !hasSubtotal && hasTotal && hasIGV:
		subtotal = normalize.Round2(total - igv + inv.Discount + inv.Advance - inv.ISC - inv.OtherCharges - inv.OtherTaxes - inv.Rounding)
		warn("subtotalVenta: derived from the other totals")
	}

	inv.Subtotal = subtotal
	inv.IGV = igv
	inv.Total = total

	inv.SaleValue, _ = coerce("valorVenta", raw.SaleValue)
	if inv.SaleValue == 0 {
		inv.SaleValue = subtotal
	}

	if hasSubtotal && hasIGV && hasTotal {
		expected := v.identity(subtotal, igv, inv)
		if d := expected - total; d > v.tolerance || d < -v.tolerance {
			warn("importeTotal: totals do not reconcile (expected %.2f, found %.2f)", expected, total)
		}
	}

	for _, amount := range []struct {
		field string
		value float64
	}{
		{"subtotalVenta", inv.Subtotal}, {"igv", inv.IGV}, {"isc", inv.ISC},
		{"importeTotal", inv.Total}, {"descuento", inv.Discount}, {"anticipo", inv.Advance},
	} {
		if amount.value < 0 {
			warn("%s: negative amount %.2f", amount.field, amount.value)
		}
	}

	inv.AmountInWords = normalize.Clean(raw.AmountInWords)
	if inv.AmountInWords == "" && inv.Total > 0 {
		inv.AmountInWords = AmountInWords(inv.Total, raw.Currency)
		warn("descripcionImporteTotal: generated from importeTotal")
	}

	return hasTotal
}

// identity evaluates the totals equation from the non-derived members.
func (v *Validator) identity(subtotal, igv float64, inv *models.Invoice) float64 {
	return normalize.Round2(subtotal + igv + inv.ISC + inv.OtherCharges +
		inv.OtherTaxes + inv.Rounding - inv.Discount - inv.Advance)
}

// installments checks the credit schedule: contiguous 1-based numbering,
// parseable due dates, the declared count, and the sum against the
// outstanding balance.
func (v *Validator) installments(raw *models.RawInvoice, inv *models.Invoice, warn func(string, ...any)) {
	outstanding, hasOutstanding := normalize.Amount(raw.OutstandingDue)

	var sum float64
	for _, ri := range raw.Installments {
		inst := models.Installment{Number: ri.Number}
		if d, ok := normalize.Date(ri.DueDate); ok {
			inst.DueDate = d
		} else {
			inst.DueDate = normalize.Clean(ri.DueDate)
			warn("cuotas[%d].fechaVencimiento: %q is not a recognizable date", ri.Number, ri.DueDate)
		}
		if a, ok := normalize.Amount(ri.Amount); ok {
			inst.Amount = a
			sum += a
		} else {
			warn("cuotas[%d].monto: unparseable amount %q", ri.Number, ri.Amount)
		}
		inv.Installments = append(inv.Installments, inst)
	}

	for i, inst := range inv.Installments {
		if inst.Number != i+1 {
			warn("cuotas: installment numbers are not contiguous from 1")
			break
		}
	}

	if raw.InstallmentCount != "" {
		if declared, err := strconv.Atoi(strings.TrimSpace(raw.InstallmentCount)); err == nil {
			inv.InstallmentCount = declared
			if declared != len(inv.Installments) {
				warn("totalCuota: declares %d installments, found %d", declared, len(inv.Installments))
			}
		} else {
			warn("totalCuota: unparseable count %q", raw.InstallmentCount)
			inv.InstallmentCount = len(inv.Installments)
		}
	} else {
		inv.InstallmentCount = len(inv.Installments)
	}

	sum = normalize.Round2(sum)
	switch {
	case hasOutstanding:
		inv.OutstandingDue = outstanding
		if len(inv.Installments) > 0 {
			if d := sum - outstanding; d > v.tolerance || d < -v.tolerance {
				warn("cuotas: installments sum %.2f, outstanding balance is %.2f", sum, outstanding)
			}
		}
	case len(inv.Installments) > 0:
		inv.OutstandingDue = sum
		warn("montoNetoPendientePago: derived from the installment schedule")
	case inv.PaymentTerm == "Crédito":
		inv.OutstandingDue = inv.Total
		warn("montoNetoPendientePago: derived from importeTotal")
	}

	if inv.PaymentTerm == "Contado" && len(inv.Installments) > 0 {
		warn("formaPago: cash terms with an installment schedule")
	}
}
