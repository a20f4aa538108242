// Package normalize provides the shared text-cleaning utilities used by
// every extractor and the validator: whitespace collapsing, OCR artifact
// repair, currency parsing and date canonicalization.
//
// Every function is pure and idempotent: normalizing an already-normalized
// value is a no-op.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	currencyLeadRe  = regexp.MustCompile(`^[Ss5$€][/lI1]\s*`)
	currencyBareRe  = regexp.MustCompile(`^[Ss5]\s+`)
	currencyInnerRe = regexp.MustCompile(`[Ss]/\.?\s*`)
	digitsRe        = regexp.MustCompile(`\d`)
	geoSepRe        = regexp.MustCompile(`\s*-\s*`)
)

// Clean collapses runs of whitespace and strips glyphs that OCR engines
// leave behind but that never appear in a SUNAT printed representation.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		case strings.ContainsRune(`.,:;()/-_'"&%#°+`, r):
			b.WriteRune(r)
		default:
			// artifact glyph: |, •, », ~, box-drawing, ...
			b.WriteRune(' ')
		}
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(b.String(), " "))
}

// JoinSpacedLetters repairs text whose letters were split by the text
// layer or the OCR engine: "GAMB O A" -> "GAMBOA", "S A C" -> "SAC".
//
// Runs of single letters fuse into one word; a short run (1-2 letters)
// directly after a word is treated as the torn-off tail of that word.
func JoinSpacedLetters(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return s
	}

	type group struct {
		letters bool
		text    string
	}

	var groups []group
	for i := 0; i < len(words); {
		w := words[i]
		if isSingleLetter(w) {
			j := i + 1
			fused := w
			for j < len(words) && isSingleLetter(words[j]) {
				fused += words[j]
				j++
			}
			groups = append(groups, group{letters: true, text: fused})
			i = j
			continue
		}
		groups = append(groups, group{text: w})
		i++
	}

	var out []string
	for i := 0; i < len(groups); i++ {
		g := groups[i]
		if !g.letters && i+1 < len(groups) && groups[i+1].letters && len([]rune(groups[i+1].text)) <= 2 {
			out = append(out, g.text+groups[i+1].text)
			i++
			continue
		}
		out = append(out, g.text)
	}
	return strings.Join(out, " ")
}

func isSingleLetter(w string) bool {
	runes := []rune(w)
	return len(runes) == 1 && unicode.IsLetter(runes[0])
}

// Amount converts a currency string to a decimal value.
//
// It tolerates the usual OCR misreads of the sol symbol ("S/" seen as
// "5/", "SI", "sI", a bare leading 5) and of digits (O for 0, l/I for 1,
// U and D for 0), and understands both 4,200.00 and 4.200,00 separator
// styles. Returns false when no numeric content survives.
func Amount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// the inner form first: it owns the trailing dot of "S/."
	s = currencyInnerRe.ReplaceAllString(s, "")
	s = currencyLeadRe.ReplaceAllString(s, "")
	s = currencyBareRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("$", "", "€", "", " ", "").Replace(s)

	// OCR digit confusions, only once currency tokens are gone
	s = strings.NewReplacer(
		"O", "0", "o", "0",
		"U", "0", "u", "0",
		"D", "0",
		"l", "1", "I", "1",
	).Replace(s)

	if !digitsRe.MatchString(s) {
		return 0, false
	}

	// Separator styles: 4,200.00 vs 4.200,00 vs bare comma decimals
	ci, di := strings.Index(s, ","), strings.Index(s, ".")
	switch {
	case ci >= 0 && di >= 0 && ci < di:
		s = strings.ReplaceAll(s, ",", "")
	case ci >= 0 && di >= 0:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case ci >= 0:
		parts := strings.Split(s, ",")
		if len(parts[len(parts)-1]) == 2 {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	// Drop anything that is not part of the leading number
	end := 0
	seenDot := false
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return Round2(v), true
}

// Round2 rounds to two-digit currency precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Date canonicalizes a calendar date to the dd/mm/yyyy literal the
// printed representation uses. It accepts dd/mm/yyyy (already canonical)
// and the ISO yyyy-mm-dd form the XML carries.
func Date(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("02/01/2006", s); err == nil {
		return t.Format("02/01/2006"), true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("02/01/2006"), true
	}
	return "", false
}

// Guillotine reconstructs an address from two candidate strings that the
// invoice layout may have rendered with partial duplication. Each
// candidate first has its own repeated-prefix duplication removed; then
// the longest suffix/prefix overlap between the two is collapsed and the
// union of the unique text kept. With no detectable duplication the
// longer candidate wins.
func Guillotine(a, b string) string {
	a = collapseRepeat(Clean(a))
	b = collapseRepeat(Clean(b))

	switch {
	case a == "":
		return b
	case b == "":
		return a
	case a == b:
		return a
	case strings.Contains(a, b):
		return a
	case strings.Contains(b, a):
		return b
	}

	at, bt := strings.Fields(a), strings.Fields(b)
	if merged, ok := overlapJoin(at, bt); ok {
		return merged
	}
	if merged, ok := overlapJoin(bt, at); ok {
		return merged
	}

	if len(b) > len(a) {
		return b
	}
	return a
}

// collapseRepeat removes a duplicated leading segment: tokens
// [X1..Xk X1..Xk rest] become [X1..Xk rest], for the largest such k.
func collapseRepeat(s string) string {
	t := strings.Fields(s)
	for k := len(t) / 2; k > 0; k-- {
		if equalTokens(t[:k], t[k:2*k]) {
			return strings.Join(t[k:], " ")
		}
	}
	return s
}

// overlapJoin merges head+tail when a suffix of head equals a prefix of
// tail; the longest such overlap wins.
func overlapJoin(head, tail []string) (string, bool) {
	max := len(head)
	if len(tail) < max {
		max = len(tail)
	}
	for k := max; k > 0; k-- {
		if equalTokens(head[len(head)-k:], tail[:k]) {
			return strings.Join(append(head, tail[k:]...), " "), true
		}
	}
	return "", false
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SplitGeo splits a "distrito - provincia - departamento" line into its
// three parts. Returns empty strings when the line does not carry the
// three-part pattern.
func SplitGeo(line string) (district, province, department string) {
	parts := geoSepRe.Split(strings.TrimSpace(line), -1)
	if len(parts) >= 3 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
	}
	return "", "", ""
}
