package ubl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taciturno11/API-Digitalizacion/pkg/models"
)

const sampleUBL = `<?xml version="1.0" encoding="UTF-8"?>
<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
         xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
         xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
  <cbc:ID>E001-123</cbc:ID>
  <cbc:IssueDate>2024-03-15</cbc:IssueDate>
  <cbc:DocumentCurrencyCode>PEN</cbc:DocumentCurrencyCode>
  <cbc:Note languageLocaleID="1000">CUATRO MIL NOVECIENTOS CINCUENTA Y SEIS CON 00/100 SOLES</cbc:Note>
  <cbc:Note>Entrega en almacén central</cbc:Note>
  <cac:AccountingSupplierParty>
    <cac:Party>
      <cac:PartyIdentification>
        <cbc:ID schemeID="6">10431552898</cbc:ID>
      </cac:PartyIdentification>
      <cac:PartyLegalEntity>
        <cbc:RegistrationName>COMERCIAL GAMBOA S.A.C.</cbc:RegistrationName>
        <cac:RegistrationAddress>
          <cbc:District>SAN ISIDRO</cbc:District>
          <cbc:CityName>LIMA</cbc:CityName>
          <cbc:CountrySubentity>LIMA</cbc:CountrySubentity>
          <cac:AddressLine>
            <cbc:Line>AV. INDUSTRIAL 456 URB. LOS SAUCES</cbc:Line>
          </cac:AddressLine>
        </cac:RegistrationAddress>
      </cac:PartyLegalEntity>
    </cac:Party>
  </cac:AccountingSupplierParty>
  <cac:AccountingCustomerParty>
    <cac:Party>
      <cac:PartyIdentification>
        <cbc:ID schemeID="6">20123456789</cbc:ID>
      </cac:PartyIdentification>
      <cac:PartyLegalEntity>
        <cbc:RegistrationName>DISTRIBUIDORA ANDINA E.I.R.L.</cbc:RegistrationName>
        <cac:RegistrationAddress>
          <cac:AddressLine>
            <cbc:Line>AV. LIMA 123 DISTRITO X</cbc:Line>
          </cac:AddressLine>
        </cac:RegistrationAddress>
      </cac:PartyLegalEntity>
    </cac:Party>
  </cac:AccountingCustomerParty>
  <cac:PaymentTerms>
    <cbc:ID>FormaPago</cbc:ID>
    <cbc:PaymentMeansID>Credito</cbc:PaymentMeansID>
    <cbc:Amount currencyID="PEN">4956.00</cbc:Amount>
  </cac:PaymentTerms>
  <cac:PaymentTerms>
    <cbc:ID>FormaPago</cbc:ID>
    <cbc:PaymentMeansID>Cuota001</cbc:PaymentMeansID>
    <cbc:Amount currencyID="PEN">2478.00</cbc:Amount>
    <cbc:PaymentDueDate>2024-04-15</cbc:PaymentDueDate>
  </cac:PaymentTerms>
  <cac:PaymentTerms>
    <cbc:ID>FormaPago</cbc:ID>
    <cbc:PaymentMeansID>Cuota002</cbc:PaymentMeansID>
    <cbc:Amount currencyID="PEN">2478.00</cbc:Amount>
    <cbc:PaymentDueDate>2024-05-15</cbc:PaymentDueDate>
  </cac:PaymentTerms>
  <cac:TaxTotal>
    <cbc:TaxAmount currencyID="PEN">756.00</cbc:TaxAmount>
    <cac:TaxSubtotal>
      <cbc:TaxableAmount currencyID="PEN">4200.00</cbc:TaxableAmount>
      <cbc:TaxAmount currencyID="PEN">756.00</cbc:TaxAmount>
      <cac:TaxCategory>
        <cac:TaxScheme>
          <cbc:ID>1000</cbc:ID>
          <cbc:Name>IGV</cbc:Name>
        </cac:TaxScheme>
      </cac:TaxCategory>
    </cac:TaxSubtotal>
  </cac:TaxTotal>
  <cac:LegalMonetaryTotal>
    <cbc:LineExtensionAmount currencyID="PEN">4200.00</cbc:LineExtensionAmount>
    <cbc:TaxInclusiveAmount currencyID="PEN">4956.00</cbc:TaxInclusiveAmount>
    <cbc:PayableAmount currencyID="PEN">4956.00</cbc:PayableAmount>
  </cac:LegalMonetaryTotal>
  <cac:InvoiceLine>
    <cbc:ID>1</cbc:ID>
    <cbc:InvoicedQuantity unitCode="NIU">2.00</cbc:InvoicedQuantity>
    <cac:Item>
      <cbc:Description>CEMENTO PORTLAND TIPO I 42.5KG</cbc:Description>
    </cac:Item>
    <cac:Price>
      <cbc:PriceAmount currencyID="PEN">25.00</cbc:PriceAmount>
    </cac:Price>
  </cac:InvoiceLine>
  <cac:InvoiceLine>
    <cbc:ID>2</cbc:ID>
    <cbc:InvoicedQuantity unitCode="KGM">10.00</cbc:InvoicedQuantity>
    <cac:Item>
      <cbc:Description>ALAMBRE DE CONSTRUCCION</cbc:Description>
    </cac:Item>
    <cac:Price>
      <cbc:PriceAmount currencyID="PEN">4.20</cbc:PriceAmount>
    </cac:Price>
  </cac:InvoiceLine>
</Invoice>`

func TestExtractFullDocument(t *testing.T) {
	e := NewExtractor()

	raw, warnings, err := e.Extract([]byte(sampleUBL))
	require.NoError(t, err)
	require.NotNil(t, raw)

	assert.Equal(t, models.SourceXML, raw.Source)
	assert.Equal(t, "E001-123", raw.InvoiceNumber)
	assert.Equal(t, "2024-03-15", raw.IssueDate)
	assert.Equal(t, "PEN", raw.Currency)
	assert.Equal(t, "10431552898", raw.IssuerRUC)
	assert.Equal(t, "COMERCIAL GAMBOA S.A.C.", raw.IssuerName)
	assert.Equal(t, "AV. INDUSTRIAL 456 URB. LOS SAUCES", raw.IssuerAddress)
	assert.Equal(t, "SAN ISIDRO", raw.District)
	assert.Equal(t, "LIMA", raw.Province)
	assert.Equal(t, "LIMA", raw.Department)
	assert.Equal(t, "20123456789", raw.RecipientRUC)
	assert.Equal(t, "DISTRIBUIDORA ANDINA E.I.R.L.", raw.RecipientName)
	assert.Equal(t, "AV. LIMA 123 DISTRITO X", raw.RecipientAddress)
	assert.Equal(t, "AV. LIMA 123 DISTRITO X", raw.CustomerAddress)
	assert.Equal(t, "756.00", raw.IGV)
	assert.Equal(t, "4200.00", raw.Subtotal)
	assert.Equal(t, "4956.00", raw.Total)
	assert.Equal(t, "CUATRO MIL NOVECIENTOS CINCUENTA Y SEIS CON 00/100 SOLES", raw.AmountInWords)
	assert.Equal(t, "Entrega en almacén central", raw.Observation)
	assert.Empty(t, warnings)
}

func TestExtractPaymentTerms(t *testing.T) {
	e := NewExtractor()

	raw, _, err := e.Extract([]byte(sampleUBL))
	require.NoError(t, err)

	assert.Equal(t, "Crédito", raw.PaymentTerm)
	assert.Equal(t, "4956.00", raw.OutstandingDue)
	require.Len(t, raw.Installments, 2)
	assert.Equal(t, 1, raw.Installments[0].Number)
	assert.Equal(t, "2024-04-15", raw.Installments[0].DueDate)
	assert.Equal(t, "2478.00", raw.Installments[0].Amount)
	assert.Equal(t, 2, raw.Installments[1].Number)
}

func TestExtractLines(t *testing.T) {
	e := NewExtractor()

	raw, _, err := e.Extract([]byte(sampleUBL))
	require.NoError(t, err)

	require.Len(t, raw.Lines, 2)
	assert.Equal(t, "2.00", raw.Lines[0].Quantity)
	assert.Equal(t, "NIU", raw.Lines[0].Unit)
	assert.Equal(t, "CEMENTO PORTLAND TIPO I 42.5KG", raw.Lines[0].Description)
	assert.Equal(t, "25.00", raw.Lines[0].UnitPrice)
}

func TestExtractUnknownTaxScheme(t *testing.T) {
	xml := `<?xml version="1.0"?>
<Invoice xmlns:cac="urn:cac" xmlns:cbc="urn:cbc">
  <cbc:ID>E001-1</cbc:ID>
  <cac:TaxTotal>
    <cac:TaxSubtotal>
      <cbc:TaxAmount>12.00</cbc:TaxAmount>
      <cac:TaxCategory>
        <cac:TaxScheme>
          <cbc:ID>7777</cbc:ID>
        </cac:TaxScheme>
      </cac:TaxCategory>
    </cac:TaxSubtotal>
  </cac:TaxTotal>
</Invoice>`

	raw, warnings, err := NewExtractor().Extract([]byte(xml))
	require.NoError(t, err)

	assert.Equal(t, "12.00", raw.OtherTaxes)
	assert.Contains(t, warnings, "otrosTributos: unrecognized tax scheme code 7777")
}

func TestExtractDefaultsToContado(t *testing.T) {
	xml := `<?xml version="1.0"?>
<Invoice xmlns:cbc="urn:cbc">
  <cbc:ID>E001-2</cbc:ID>
</Invoice>`

	raw, _, err := NewExtractor().Extract([]byte(xml))
	require.NoError(t, err)

	assert.Equal(t, "Contado", raw.PaymentTerm)
	assert.Empty(t, raw.Installments)
}

func TestExtractAlternateNamespacePrefixes(t *testing.T) {
	xml := `<?xml version="1.0"?>
<n0:Invoice xmlns:n0="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
            xmlns:n1="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
            xmlns:n2="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
  <n2:ID>E001-77</n2:ID>
  <n2:IssueDate>2024-06-01</n2:IssueDate>
  <n1:AccountingSupplierParty>
    <n1:Party>
      <n1:PartyIdentification>
        <n2:ID>20123456789</n2:ID>
      </n1:PartyIdentification>
      <n1:PartyLegalEntity>
        <n2:RegistrationName>FERRETERIA EL SOL S.R.L.</n2:RegistrationName>
      </n1:PartyLegalEntity>
    </n1:Party>
  </n1:AccountingSupplierParty>
  <n1:TaxTotal>
    <n1:TaxSubtotal>
      <n2:TaxAmount>18.00</n2:TaxAmount>
      <n1:TaxCategory>
        <n1:TaxScheme>
          <n2:ID>1000</n2:ID>
        </n1:TaxScheme>
      </n1:TaxCategory>
    </n1:TaxSubtotal>
  </n1:TaxTotal>
  <n1:LegalMonetaryTotal>
    <n2:LineExtensionAmount>100.00</n2:LineExtensionAmount>
    <n2:PayableAmount>118.00</n2:PayableAmount>
  </n1:LegalMonetaryTotal>
</n0:Invoice>`

	raw, _, err := NewExtractor().Extract([]byte(xml))
	require.NoError(t, err)

	assert.Equal(t, "E001-77", raw.InvoiceNumber)
	assert.Equal(t, "2024-06-01", raw.IssueDate)
	assert.Equal(t, "20123456789", raw.IssuerRUC)
	assert.Equal(t, "FERRETERIA EL SOL S.R.L.", raw.IssuerName)
	assert.Equal(t, "100.00", raw.Subtotal)
	assert.Equal(t, "18.00", raw.IGV)
	assert.Equal(t, "118.00", raw.Total)
}

func TestExtractDefaultNamespaceChildren(t *testing.T) {
	xml := `<?xml version="1.0"?>
<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2">
  <ID>F001-9</ID>
  <LegalMonetaryTotal>
    <PayableAmount>59.00</PayableAmount>
  </LegalMonetaryTotal>
</Invoice>`

	raw, _, err := NewExtractor().Extract([]byte(xml))
	require.NoError(t, err)

	assert.Equal(t, "F001-9", raw.InvoiceNumber)
	assert.Equal(t, "59.00", raw.Total)
}

func TestExtractRejectsMalformedXML(t *testing.T) {
	_, _, err := NewExtractor().Extract([]byte("<Invoice><unclosed>"))
	assert.ErrorIs(t, err, ErrNotWellFormed)
}

func TestExtractRejectsNonInvoiceRoot(t *testing.T) {
	_, _, err := NewExtractor().Extract([]byte("<CreditNote></CreditNote>"))
	assert.ErrorIs(t, err, ErrNotWellFormed)
}
