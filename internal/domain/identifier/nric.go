// Package identifier recognises national registration identifiers (one
// letter from S/T/F/G/M, seven digits, one check letter) in noisy portal text.
package identifier

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

type Variant string

const (
	VariantCompact   Variant = "compact"
	VariantDelimited Variant = "delimited"
	VariantSpaced    Variant = "spaced"
	VariantSeparated Variant = "separated"
)

type pattern struct {
	variant Variant
	re      *regexp.Regexp
}

// patterns are tried in this order; the first variant that matches wins.
var patterns = []pattern{
	{VariantCompact, regexp.MustCompile(`(?i)\b[STFGM]\d{7}[A-Z]\b`)},
	{VariantDelimited, regexp.MustCompile(`(?i)\b[STFGM]\s*[-/]\s*\d{7}\s*[-/]\s*[A-Z]\b`)},
	{VariantSpaced, regexp.MustCompile(`(?i)\b[STFGM]\s*\d{7}\s*[A-Z]\b`)},
	{VariantSeparated, regexp.MustCompile(`(?i)\b[STFGM][\s./-]*(?:\d[\s./-]*){6}\d[\s./-]*[A-Z]\b`)},
}

var canonical = regexp.MustCompile(`^[STFGM]\d{7}[A-Z]$`)

type Match struct {
	Value   string
	Raw     string
	Start   int
	End     int
	Variant Variant
}

// Normalize strips every separator and upper-cases the result.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// Valid reports whether s normalizes to the canonical 9-character shape.
func Valid(s string) bool {
	return canonical.MatchString(Normalize(s))
}

// Find returns the first identifier in text using the variant priority.
func Find(text string) (Match, bool) {
	for _, p := range patterns {
		loc := p.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		raw := text[loc[0]:loc[1]]
		value := Normalize(raw)
		if !canonical.MatchString(value) {
			continue
		}
		return Match{Value: value, Raw: raw, Start: loc[0], End: loc[1], Variant: p.variant}, true
	}
	return Match{}, false
}

// FindAll returns every non-overlapping identifier in text ordered by
// position. Earlier variants claim their spans first.
func FindAll(text string) []Match {
	var out []Match
	overlaps := func(start, end int) bool {
		for _, m := range out {
			if start < m.End && end > m.Start {
				return true
			}
		}
		return false
	}

	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if overlaps(loc[0], loc[1]) {
				continue
			}
			raw := text[loc[0]:loc[1]]
			value := Normalize(raw)
			if !canonical.MatchString(value) {
				continue
			}
			out = append(out, Match{Value: value, Raw: raw, Start: loc[0], End: loc[1], Variant: p.variant})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

var (
	weights      = [7]int{2, 7, 6, 5, 4, 3, 2}
	checkLocal   = []byte("JZIHGFEDCBA")
	checkForeign = []byte("XWUTRQPNMLK")
)

// Checksum verifies the check letter for S, T, F and G series identifiers.
// M series identifiers use an unpublished scheme and always pass.
func Checksum(s string) bool {
	id := Normalize(s)
	if !canonical.MatchString(id) {
		return false
	}

	sum := 0
	for i := 0; i < 7; i++ {
		sum += int(id[i+1]-'0') * weights[i]
	}

	var table []byte
	switch id[0] {
	case 'S':
		table = checkLocal
	case 'T':
		sum += 4
		table = checkLocal
	case 'F':
		table = checkForeign
	case 'G':
		sum += 4
		table = checkForeign
	default:
		return true
	}

	return table[sum%11] == id[8]
}
