package image

import (
	"strconv"
	"strings"

	"github.com/Taciturno11/API-Digitalizacion/internal/normalize"
	"github.com/Taciturno11/API-Digitalizacion/pkg/models"
)

// repairDigits maps the usual letter-for-digit misreads inside a numeric
// token. Only safe on text already known to be a number.
func repairDigits(s string) string {
	return strings.NewReplacer(
		"O", "0", "o", "0",
		"U", "0", "u", "0",
		"D", "0",
		"l", "1", "I", "1",
		"B", "8",
		"S", "5", "s", "5",
	).Replace(s)
}

// reconcileTotals repairs the totals block using the arithmetic identity
// subtotal + igv - descuento - anticipo = importeTotal.
//
// Two repairs apply, in order. A phantom leading digit on the grand total
// (a table rule or fold read as a 1) is dropped when doing so makes the
// identity hold. Then any single missing member of the identity is
// reconstructed from the others; when both subtotal and igv are missing
// but the total is present, the pair is split at the standard IGV rate.
// Every repair is reported as a warning.
func reconcileTotals(raw *models.RawInvoice) []string {
	var warnings []string

	sub, hasSub := normalize.Amount(raw.Subtotal)
	igv, hasIGV := normalize.Amount(raw.IGV)
	total, hasTotal := normalize.Amount(raw.Total)
	discount, _ := normalize.Amount(raw.Discount)
	advance, _ := normalize.Amount(raw.Advance)

	const tol = 0.01

	if hasSub && hasIGV && hasTotal {
		expected := normalize.Round2(sub + igv - discount - advance)
		if diff(expected, total) > tol {
			if fixed, ok := dropLeadingDigit(total); ok && diff(expected, fixed) <= tol {
				warnings = append(warnings,
					"importeTotal: dropped phantom leading digit ("+formatAmount(total)+" -> "+formatAmount(fixed)+")")
				total = fixed
				raw.Total = formatAmount(fixed)
			}
		}
		return warnings
	}

	switch {
	case hasSub && hasIGV && !hasTotal:
		total = normalize.Round2(sub + igv - discount - advance)
		raw.Total = formatAmount(total)
		warnings = append(warnings, "importeTotal: derived from subtotal and igv")
	case hasSub && hasTotal && !hasIGV:
		igv = normalize.Round2(total - sub + discount + advance)
		raw.IGV = formatAmount(igv)
		warnings = append(warnings, "igv: derived from subtotal and total")
	case hasIGV && hasTotal && !hasSub:
		sub = normalize.Round2(total - igv + discount + advance)
		raw.Subtotal = formatAmount(sub)
		warnings = append(warnings, "subtotalVenta: derived from igv and total")
	case hasTotal && !hasSub && !hasIGV:
		sub = normalize.Round2(total / 1.18)
		igv = normalize.Round2(total - sub)
		raw.Subtotal = formatAmount(sub)
		raw.IGV = formatAmount(igv)
		warnings = append(warnings, "subtotalVenta, igv: split from importeTotal at the standard rate")
	}

	return warnings
}

// dropLeadingDigit removes the first digit of a two-decimal amount:
// 14956.00 becomes 4956.00. Amounts under five integer digits are left
// alone, a real total that small does not get misread this way.
func dropLeadingDigit(v float64) (float64, bool) {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, _, _ := strings.Cut(s, ".")
	if len(intPart) < 5 {
		return 0, false
	}
	fixed, err := strconv.ParseFloat(s[1:], 64)
	if err != nil {
		return 0, false
	}
	return fixed, true
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
