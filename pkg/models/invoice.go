// Package models defines the canonical invoice record produced by the
// extraction engine, independent of the source document format.
//
// The JSON keys follow the SUNAT printed-representation vocabulary
// (razonSocialEmisor, subtotalVenta, cuotas, ...) so downstream accounting
// and compliance consumers receive the same record regardless of whether
// the document arrived as a PDF, a UBL 2.1 XML or a scanned image.
package models

// Invoice is the canonical structured record for one electronic invoice.
//
// An Invoice is built once per extraction call and never mutated after the
// validator finishes. Monetary amounts are expressed in the document
// currency with two-digit precision; dates use the dd/mm/yyyy literal form
// of the printed representation.
type Invoice struct {
	// Issuer (emisor)
	IssuerName    string `json:"razonSocialEmisor"`
	IssuerAddress string `json:"direccionEmisor"`
	Department    string `json:"departamento"`
	Province      string `json:"provincia"`
	District      string `json:"distrito"`
	IssuerRUC     string `json:"rucEmisor"`

	// Series and number, e.g. "E001-123".
	InvoiceNumber string `json:"numeroFactura"`

	// Dates
	IssueDate      string `json:"fechaEmision"`
	AccountingDate string `json:"fechaContable"`

	// Recipient (receptor)
	RecipientName    string `json:"razonSocialReceptor"`
	RecipientRUC     string `json:"rucReceptor"`
	RecipientAddress string `json:"direccionReceptorFactura"`
	CustomerAddress  string `json:"direccionCliente"`

	// Transaction metadata
	Currency    string `json:"tipoMoneda"`
	Observation string `json:"observacion"`
	PaymentTerm string `json:"formaPago"` // "Contado" or "Crédito"

	// Detail rows, in document order.
	Lines []LineItem `json:"lineaFactura"`

	// Totals
	FreeAmount     float64 `json:"ventaGratuita"`
	AmountInWords  string  `json:"descripcionImporteTotal"`
	Subtotal       float64 `json:"subtotalVenta"`
	Advance        float64 `json:"anticipo"`
	Discount       float64 `json:"descuento"`
	SaleValue      float64 `json:"valorVenta"`
	ISC            float64 `json:"isc"`
	IGV            float64 `json:"igv"`
	OtherCharges   float64 `json:"otrosCargos"`
	OtherTaxes     float64 `json:"otrosTributos"`
	Rounding       float64 `json:"montoRedondeo"`
	Total          float64 `json:"importeTotal"`
	OutstandingDue float64 `json:"montoNetoPendientePago"`

	// Credit terms
	InstallmentCount int           `json:"totalCuota"`
	Installments     []Installment `json:"cuotas"`
}

// LineItem is one invoice detail row. It has no identity outside its
// Invoice.
type LineItem struct {
	Quantity    float64 `json:"cantidad"`
	Unit        string  `json:"unidadMedida"`
	Description string  `json:"descripcion"`
	UnitPrice   float64 `json:"valorUnitario"`
}

// Installment is one scheduled partial payment (cuota) under credit terms.
// Numbers are 1-based and strictly increasing within an Invoice.
type Installment struct {
	Number  int     `json:"numero"`
	DueDate string  `json:"fechaVencimiento"`
	Amount  float64 `json:"monto"`
}

// Result pairs the canonical Invoice with the ordered validation-warning
// sequence. Warnings describe fields that could not be established with
// confidence or whose reconciliation failed; they are never silently
// dropped, and a record carrying warnings is not equivalent to a fully
// verified one.
type Result struct {
	Invoice  *Invoice `json:"factura"`
	Warnings []string `json:"validacion"`
}
