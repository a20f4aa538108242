package models

// SourceFormat tags a RawInvoice with the kind of document it was
// extracted from.
type SourceFormat string

const (
	SourcePDF   SourceFormat = "pdf"
	SourceXML   SourceFormat = "xml"
	SourceImage SourceFormat = "image"
)

// RawInvoice is the intermediate field map every extractor produces.
//
// All scalar values are kept as the raw strings found in the document;
// type coercion (string → decimal/date), cleaning and invariant checking
// happen later in the validator so the three extractors stay strictly
// about locating field values. A missing field is the empty string.
type RawInvoice struct {
	Source SourceFormat

	IssuerName    string
	IssuerAddress string
	Department    string
	Province      string
	District      string
	IssuerRUC     string

	InvoiceNumber string
	IssueDate     string

	RecipientName    string
	RecipientRUC     string
	RecipientAddress string
	CustomerAddress  string

	Currency    string
	Observation string
	PaymentTerm string

	Lines []RawLine

	FreeAmount    string
	AmountInWords string
	Subtotal      string
	Advance       string
	Discount      string
	SaleValue     string
	ISC           string
	IGV           string
	OtherCharges  string
	OtherTaxes    string
	Rounding      string
	Total         string

	OutstandingDue   string
	InstallmentCount string
	Installments     []RawInstallment
}

// RawLine is one unparsed detail row.
type RawLine struct {
	Quantity    string
	Unit        string
	Description string
	UnitPrice   string
}

// RawInstallment is one unparsed cuota row. Number is already an integer
// because every extractor derives it from a matched index or from document
// order, never from a free-form value.
type RawInstallment struct {
	Number  int
	DueDate string
	Amount  string
}
