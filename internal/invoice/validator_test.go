package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taciturno11/API-Digitalizacion/pkg/models"
)

func completeRaw() *models.RawInvoice {
	return &models.RawInvoice{
		Source:           models.SourcePDF,
		IssuerName:       "COMERCIAL GAMBOA S.A.C.",
		IssuerRUC:        "20123456789",
		InvoiceNumber:    "E001-123",
		IssueDate:        "15/03/2024",
		RecipientName:    "DISTRIBUIDORA ANDINA E.I.R.L.",
		RecipientRUC:     "10431552898",
		Currency:         "PEN",
		PaymentTerm:      "Crédito",
		Lines:            []models.RawLine{
			{Quantity: "2.00", Unit: "NIU", Description: "CEMENTO PORTLAND", UnitPrice: "25.00"},
		},
		Subtotal:         "4,200.00",
		IGV:              "756.00",
		Total:            "4,956.00",
		OutstandingDue:   "4,956.00",
		InstallmentCount: "2",
		AmountInWords:    "CUATRO MIL NOVECIENTOS CINCUENTA Y SEIS CON 00/100 SOLES",
		Installments:     []models.RawInstallment{
			{Number: 1, DueDate: "15/04/2024", Amount: "2,478.00"},
			{Number: 2, DueDate: "15/05/2024", Amount: "2,478.00"},
		},
	}
}

func TestValidateCompleteInvoice(t *testing.T) {
	v := NewValidator(0.01)

	result, err := v.Validate(completeRaw(), nil)
	require.NoError(t, err)
	require.NotNil(t, result.Invoice)

	inv := result.Invoice
	assert.Equal(t, "20123456789", inv.IssuerRUC)
	assert.Equal(t, "E001-123", inv.InvoiceNumber)
	assert.Equal(t, "15/03/2024", inv.IssueDate)
	assert.Equal(t, "15/03/2024", inv.AccountingDate)
	assert.Equal(t, "SOLES", inv.Currency)
	assert.Equal(t, "Crédito", inv.PaymentTerm)
	assert.Equal(t, 4200.00, inv.Subtotal)
	assert.Equal(t, 756.00, inv.IGV)
	assert.Equal(t, 4956.00, inv.Total)
	assert.Equal(t, 4956.00, inv.OutstandingDue)
	assert.Equal(t, 2, inv.InstallmentCount)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "UNIDAD", inv.Lines[0].Unit)
	assert.Equal(t, 2.00, inv.Lines[0].Quantity)
	assert.Empty(t, result.Warnings)
}

func TestValidateXMLDatesAreCanonicalized(t *testing.T) {
	raw := completeRaw()
	raw.IssueDate = "2024-03-15"
	raw.Installments[0].DueDate = "2024-04-15"

	result, err := NewValidator(0.01).Validate(raw, nil)
	require.NoError(t, err)

	assert.Equal(t, "15/03/2024", result.Invoice.IssueDate)
	assert.Equal(t, "15/04/2024", result.Invoice.Installments[0].DueDate)
}

func TestValidateInvalidRUCWarns(t *testing.T) {
	raw := completeRaw()
	raw.IssuerRUC = "30123456789" // unknown registrant prefix

	result, err := NewValidator(0.01).Validate(raw, nil)
	require.NoError(t, err)

	assert.Contains(t, result.Warnings, `rucEmisor: "30123456789" is not a valid RUC`)
	assert.Equal(t, "30123456789", result.Invoice.IssuerRUC)
}

func TestValidateTotalsMismatchWarns(t *testing.T) {
	raw := completeRaw()
	raw.Total = "5,000.00"
	raw.OutstandingDue = ""
	raw.Installments = nil
	raw.InstallmentCount = ""

	result, err := NewValidator(0.01).Validate(raw, nil)
	require.NoError(t, err)

	assert.Contains(t, result.Warnings, "importeTotal: totals do not reconcile (expected 4956.00, found 5000.00)")
}

func TestValidateDerivesMissingTotal(t *testing.T) {
	raw := completeRaw()
	raw.Total = ""
	raw.OutstandingDue = ""
	raw.Installments = nil
	raw.InstallmentCount = ""
	raw.AmountInWords = ""

	result, err := NewValidator(0.01).Validate(raw, nil)
	require.NoError(t, err)

	assert.Equal(t, 4956.00, result.Invoice.Total)
	assert.Contains(t, result.Warnings, "importeTotal: derived from the other totals")
}

func TestValidateGeneratesAmountInWords(t *testing.T) {
	raw := completeRaw()
	raw.AmountInWords = ""

	result, err := NewValidator(0.01).Validate(raw, nil)
	require.NoError(t, err)

	assert.Equal(t, "CUATRO MIL NOVECIENTOS CINCUENTA Y SEIS CON 00/100 SOLES",
		result.Invoice.AmountInWords)
	assert.Contains(t, result.Warnings, "descripcionImporteTotal: generated from importeTotal")
}

func TestValidateInstallmentGapWarns(t *testing.T) {
	raw := completeRaw()
	raw.Installments = []models.RawInstallment{
		{Number: 1, DueDate: "15/04/2024", Amount: "2,478.00"},
		{Number: 3, DueDate: "15/06/2024", Amount: "2,478.00"},
	}

	result, err := NewValidator(0.01).Validate(raw, nil)
	require.NoError(t, err)

	assert.Contains(t, result.Warnings, "cuotas: installment numbers are not contiguous from 1")
}

func TestValidateInstallmentSumMismatchWarns(t *testing.T) {
	raw := completeRaw()
	raw.Installments[1].Amount = "1,000.00"

	result, err := NewValidator(0.01).Validate(raw, nil)
	require.NoError(t, err)

	assert.Contains(t, result.Warnings, "cuotas: installments sum 3478.00, outstanding balance is 4956.00")
}

func TestValidateDeclaredCountMismatchWarns(t *testing.T) {
	raw := completeRaw()
	raw.InstallmentCount = "3"

	result, err := NewValidator(0.01).Validate(raw, nil)
	require.NoError(t, err)

	assert.Contains(t, result.Warnings, "totalCuota: declares 3 installments, found 2")
	assert.Equal(t, 3, result.Invoice.InstallmentCount)
}

func TestValidateUnknownUnitWarns(t *testing.T) {
	raw := completeRaw()
	raw.Lines[0].Unit = "XYZ"

	result, err := NewValidator(0.01).Validate(raw, nil)
	require.NoError(t, err)

	assert.Equal(t, "XYZ", result.Invoice.Lines[0].Unit)
	assert.Contains(t, result.Warnings, `lineaFactura[0].unidadMedida: unrecognized unit code "XYZ"`)
}

func TestValidateInsufficientExtraction(t *testing.T) {
	raw := &models.RawInvoice{Source: models.SourceImage}

	_, err := NewValidator(0.01).Validate(raw, nil)
	assert.ErrorIs(t, err, ErrInsufficient)
}

func TestValidateDerivableTotalIsSufficient(t *testing.T) {
	raw := &models.RawInvoice{
		Source:   models.SourceImage,
		Subtotal: "4,200.00",
		IGV:      "756.00",
	}

	result, err := NewValidator(0.01).Validate(raw, nil)
	require.NoError(t, err)

	assert.Equal(t, 4956.00, result.Invoice.Total)
	assert.Contains(t, result.Warnings, "importeTotal: derived from the other totals")
}

func TestValidateInsufficientErrorCarriesPartial(t *testing.T) {
	raw := &models.RawInvoice{
		Source:     models.SourceImage,
		IssuerName: "EMPRESA DEMO S.A.C.",
	}

	_, err := NewValidator(0.01).Validate(raw,
		[]string{"rucEmisor: no RUC recognized in either pass"})

	var insufficient *InsufficientError
	require.ErrorAs(t, err, &insufficient)
	assert.Same(t, raw, insufficient.Raw)
	assert.Contains(t, insufficient.Warnings, "rucEmisor: no RUC recognized in either pass")
}

func TestValidatePrependsExtractorWarnings(t *testing.T) {
	result, err := NewValidator(0.01).Validate(completeRaw(), []string{"ocr: sparse recognition pass failed, header fields may be incomplete"})
	require.NoError(t, err)

	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, "ocr: sparse recognition pass failed, header fields may be incomplete", result.Warnings[0])
}

func TestAmountInWords(t *testing.T) {
	cases := []struct {
		amount   float64
		currency string
		want     string
	}{
		{4956.00, "PEN", "CUATRO MIL NOVECIENTOS CINCUENTA Y SEIS CON 00/100 SOLES"},
		{100.00, "PEN", "CIEN CON 00/100 SOLES"},
		{21.50, "USD", "VEINTIUNO CON 50/100 DOLARES AMERICANOS"},
		{1000000.00, "PEN", "UN MILLON CON 00/100 SOLES"},
		{0.00, "PEN", "CERO CON 00/100 SOLES"},
		{735.10, "PEN", "SETECIENTOS TREINTA Y CINCO CON 10/100 SOLES"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AmountInWords(tc.amount, tc.currency))
	}
}
