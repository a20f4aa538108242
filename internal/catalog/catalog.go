// Package catalog holds the SUNAT UBL 2.1 code tables used across the
// extractors and the validator.
//
// Sources: Guía XML Factura Electrónica v2.1 and Anexos I-IV of
// Resolución 318-2017/SUNAT. The XML carries codes; the printed
// representation carries human-readable names, so the engine converts
// every code it meets into the printed vocabulary.
package catalog

import "strings"

// Catálogo N° 03 - unit of measure codes (UN/ECE Rec 20) to printed names.
var unitNames = map[string]string{
	"NIU": "UNIDAD", // goods, the most common
	"ZZ":  "UNIDAD", // services
	"UM":  "MILLON DE UNIDADES",
	"KGM": "KILOGRAMO",
	"LTR": "LITRO",
	"MTR": "METRO",
	"MTK": "METRO CUADRADO",
	"MTQ": "METRO CUBICO",
	"GRM": "GRAMO",
	"TNE": "TONELADA",
	"BX":  "CAJA",
	"PK":  "PAQUETE",
	"DZN": "DOCENA",
	"GLL": "GALON",
	"ONZ": "ONZA",
	"LBR": "LIBRA",
	"SET": "JUEGO",
	"ROL": "ROLLO",
	"BG":  "BOLSA",
	"PR":  "PAR",
	"MLT": "MILILITRO",
	"CMT": "CENTIMETRO",
	"INH": "PULGADA",
	"FOT": "PIE",
	"YRD": "YARDA",
	"DAY": "DIA",
	"HUR": "HORA",
	"MON": "MES",
	"ANN": "AÑO",
	"MIN": "MINUTO",
	"SEC": "SEGUNDO",
}

// Catálogo N° 02 - ISO 4217 currency codes to printed names.
var currencyNames = map[string]string{
	"PEN": "SOLES",
	"USD": "DOLARES AMERICANOS",
	"EUR": "EUROS",
}

// Catálogo N° 05 - tax scheme codes.
const (
	TaxSchemeIGV    = "1000" // Impuesto General a las Ventas (VAT)
	TaxSchemeIVAP   = "1016" // rice sales VAT variant
	TaxSchemeISC    = "2000" // Impuesto Selectivo al Consumo (excise)
	TaxSchemeExport = "9995"
	TaxSchemeFree   = "9996"
	TaxSchemeExempt = "9997"
	TaxSchemeOther  = "9999"
)

var taxNames = map[string]string{
	TaxSchemeIGV:    "IGV",
	TaxSchemeIVAP:   "IVAP",
	TaxSchemeISC:    "ISC",
	TaxSchemeExport: "EXP",
	TaxSchemeFree:   "GRA",
	TaxSchemeExempt: "EXO",
	"9998":          "INA",
	TaxSchemeOther:  "OTROS",
}

// Catálogo N° 01 - document type codes.
var documentTypeNames = map[string]string{
	"01": "FACTURA",
	"03": "BOLETA DE VENTA",
	"07": "NOTA DE CREDITO",
	"08": "NOTA DE DEBITO",
	"09": "GUIA DE REMISION REMITENTE",
	"31": "GUIA DE REMISION TRANSPORTISTA",
}

// IGVRate is the standard Peruvian VAT rate.
const IGVRate = 0.18

// UnitName converts a UN/ECE unit code to its printed SUNAT name.
// Unrecognized codes pass through unchanged, uppercased.
func UnitName(code string) string {
	if code == "" {
		return "UNIDAD"
	}
	upper := strings.ToUpper(strings.TrimSpace(code))
	if name, ok := unitNames[upper]; ok {
		return name
	}
	return upper
}

// KnownUnit reports whether the unit code appears in catalog 03.
func KnownUnit(code string) bool {
	_, ok := unitNames[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// CurrencyName converts an ISO 4217 code to its printed name.
// Unrecognized codes pass through unchanged, uppercased.
func CurrencyName(code string) string {
	if code == "" {
		return "SOLES"
	}
	upper := strings.ToUpper(strings.TrimSpace(code))
	if name, ok := currencyNames[upper]; ok {
		return name
	}
	return upper
}

// TaxName returns the short tax name for a catalog 05 scheme code.
func TaxName(code string) string {
	if name, ok := taxNames[strings.TrimSpace(code)]; ok {
		return name
	}
	return "DESCONOCIDO"
}

// DocumentTypeName returns the printed name for a catalog 01 code.
func DocumentTypeName(code string) string {
	if name, ok := documentTypeNames[strings.TrimSpace(code)]; ok {
		return name
	}
	return "DOCUMENTO"
}

// RUC registrant types by two-digit prefix.
var rucTypes = map[string]string{
	"10": "PERSONA NATURAL",
	"15": "SECTOR PUBLICO",
	"17": "SECTOR PUBLICO",
	"20": "PERSONA JURIDICA",
}

// ValidRUC reports whether s is a well-formed Peruvian RUC: exactly 11
// digits starting with a known registrant-type prefix.
func ValidRUC(s string) bool {
	if len(s) != 11 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	_, ok := rucTypes[s[:2]]
	return ok
}

// RUCType classifies a RUC by its prefix. Returns "DESCONOCIDO" for an
// unrecognized prefix or a malformed number.
func RUCType(s string) string {
	if len(s) != 11 {
		return "DESCONOCIDO"
	}
	if t, ok := rucTypes[s[:2]]; ok {
		return t
	}
	return "DESCONOCIDO"
}
