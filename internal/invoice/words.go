package invoice

import (
	"fmt"
	"strings"

	"github.com/Taciturno11/API-Digitalizacion/internal/catalog"
	"github.com/Taciturno11/API-Digitalizacion/internal/normalize"
)

var (
	unitWords = []string{"", "UNO", "DOS", "TRES", "CUATRO", "CINCO", "SEIS", "SIETE",
		"OCHO", "NUEVE", "DIEZ", "ONCE", "DOCE", "TRECE", "CATORCE", "QUINCE",
		"DIECISEIS", "DIECISIETE", "DIECIOCHO", "DIECINUEVE", "VEINTE"}
	tensWords = []string{"", "", "VEINTI", "TREINTA", "CUARENTA", "CINCUENTA",
		"SESENTA", "SETENTA", "OCHENTA", "NOVENTA"}
	hundredWords = []string{"", "CIENTO", "DOSCIENTOS", "TRESCIENTOS", "CUATROCIENTOS",
		"QUINIENTOS", "SEISCIENTOS", "SETECIENTOS", "OCHOCIENTOS", "NOVECIENTOS"}
)

// AmountInWords renders a monetary amount the way the SUNAT printed
// representation does: integer part in uppercase Spanish words, cents as
// a NN/100 fraction, then the currency name.
//
//	4956.00, "PEN" -> "CUATRO MIL NOVECIENTOS CINCUENTA Y SEIS CON 00/100 SOLES"
func AmountInWords(amount float64, currencyCode string) string {
	amount = normalize.Round2(amount)
	units := int64(amount)
	cents := int64(normalize.Round2((amount-float64(units))*100) + 0.5)

	return fmt.Sprintf("%s CON %02d/100 %s",
		integerWords(units), cents, catalog.CurrencyName(currencyCode))
}

func integerWords(n int64) string {
	switch {
	case n == 0:
		return "CERO"
	case n >= 1_000_000:
		millions := n / 1_000_000
		rest := n % 1_000_000
		var head string
		if millions == 1 {
			head = "UN MILLON"
		} else {
			head = integerWords(millions) + " MILLONES"
		}
		if rest == 0 {
			return head
		}
		return head + " " + integerWords(rest)
	case n >= 1000:
		thousands := n / 1000
		rest := n % 1000
		var head string
		if thousands == 1 {
			head = "MIL"
		} else {
			head = hundredsWords(thousands) + " MIL"
		}
		if rest == 0 {
			return head
		}
		return head + " " + hundredsWords(rest)
	default:
		return hundredsWords(n)
	}
}

func hundredsWords(n int64) string {
	if n == 100 {
		return "CIEN"
	}
	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, hundredWords[h])
	}
	if rest := n % 100; rest > 0 {
		parts = append(parts, tensAndUnits(rest))
	}
	return strings.Join(parts, " ")
}

func tensAndUnits(n int64) string {
	if n <= 20 {
		return unitWords[n]
	}
	tens, units := n/10, n%10
	if units == 0 {
		if tens == 2 {
			return "VEINTE"
		}
		return tensWords[tens]
	}
	if tens == 2 {
		// the twenties fuse: VEINTIDOS, not VEINTE Y DOS
		return "VEINTI" + unitWords[units]
	}
	return tensWords[tens] + " Y " + unitWords[units]
}
