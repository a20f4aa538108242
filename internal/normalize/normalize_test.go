package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanStripsArtifacts(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  AV.   LIMA  123 ", "AV. LIMA 123"},
		{"COMERCIAL | GAMBOA • SAC", "COMERCIAL GAMBOA SAC"},
		{"RUC: 20123456789", "RUC: 20123456789"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Clean(tc.in))
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"AV. LIMA 123 ~ DISTRITO » X",
		"  COMERCIAL   GAMBOA  ",
		"S/ 4,200.00",
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once))
	}
}

func TestJoinSpacedLetters(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"GAMB O A", "GAMBOA"},
		{"S A C", "SAC"},
		{"COMERCIAL GAMB O A S.A.C.", "COMERCIAL GAMBOA S.A.C."},
		{"EMPRESA NORMAL", "EMPRESA NORMAL"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, JoinSpacedLetters(tc.in))
	}
}

func TestAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"4,200.00", 4200.00},
		{"4.200,00", 4200.00},
		{"S/ 756.00", 756.00},
		{"5/ 756.00", 756.00},
		{"SI 756.00", 756.00},
		{"S/. 100.50", 100.50},
		{"75O.0O", 750.00},
		{"1l2.00", 112.00},
		{"0.00", 0.00},
		{"123,45", 123.45},
	}
	for _, tc := range cases {
		got, ok := Amount(tc.in)
		assert.True(t, ok, "Amount(%q)", tc.in)
		assert.Equal(t, tc.want, got, "Amount(%q)", tc.in)
	}
}

func TestAmountRejectsNonNumeric(t *testing.T) {
	for _, in := range []string{"", "   ", "SOLES", "S/"} {
		_, ok := Amount(in)
		assert.False(t, ok, "Amount(%q)", in)
	}
}

func TestDate(t *testing.T) {
	got, ok := Date("15/03/2024")
	assert.True(t, ok)
	assert.Equal(t, "15/03/2024", got)

	got, ok = Date("2024-03-15")
	assert.True(t, ok)
	assert.Equal(t, "15/03/2024", got)

	_, ok = Date("31/02/2024")
	assert.False(t, ok)
	_, ok = Date("pronto")
	assert.False(t, ok)
}

func TestGuillotine(t *testing.T) {
	cases := []struct {
		a, b string
		want string
	}{
		// duplicated leading segment collapses
		{"AV. LIMA 123 AV. LIMA 123 DISTRITO X", "AV. LIMA 123 DISTRITO X", "AV. LIMA 123 DISTRITO X"},
		// containment
		{"AV. LIMA 123", "AV. LIMA 123 DISTRITO X", "AV. LIMA 123 DISTRITO X"},
		// suffix/prefix overlap merges
		{"AV. LIMA 123 DISTRITO", "DISTRITO X LIMA", "AV. LIMA 123 DISTRITO X LIMA"},
		// no relation, longer wins
		{"JR. UNION 890", "AV. AREQUIPA 1500 MIRAFLORES", "AV. AREQUIPA 1500 MIRAFLORES"},
		// one side empty
		{"", "AV. LIMA 123", "AV. LIMA 123"},
		{"AV. LIMA 123", "", "AV. LIMA 123"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Guillotine(tc.a, tc.b), "Guillotine(%q, %q)", tc.a, tc.b)
	}
}

func TestSplitGeo(t *testing.T) {
	d, p, dep := SplitGeo("SAN ISIDRO - LIMA - LIMA")
	assert.Equal(t, "SAN ISIDRO", d)
	assert.Equal(t, "LIMA", p)
	assert.Equal(t, "LIMA", dep)

	d, p, dep = SplitGeo("E001-123")
	assert.Empty(t, d)
	assert.Empty(t, p)
	assert.Empty(t, dep)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 4956.00, Round2(4955.999999))
	assert.Equal(t, 0.01, Round2(0.005))
	assert.Equal(t, -1.23, Round2(-1.2349))
}
