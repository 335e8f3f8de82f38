package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_StripsSeparators(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"S1234567D", "S1234567D"},
		{"s1234567d", "S1234567D"},
		{"S 1234567 D", "S1234567D"},
		{"S-1234567-D", "S1234567D"},
		{"S/1234567/D", "S1234567D"},
		{" S 123 45 67 D ", "S1234567D"},
		{"S.123.4567.D", "S1234567D"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalization must be idempotent")
			assert.True(t, Valid(got))
		})
	}
}

func TestNormalize_IdempotentAcrossSeparatorMixes(t *testing.T) {
	separators := []string{"", " ", "  ", "-", "/", ".", " - ", "\t"}
	for _, a := range separators {
		for _, b := range separators {
			raw := "t" + a + "012" + b + "3456" + a + "g"
			once := Normalize(raw)
			require.Len(t, once, 9, raw)
			assert.Equal(t, "T0123456G", once)
			assert.Equal(t, once, Normalize(once))
		}
	}
}

func TestFind_VariantPriority(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		variant Variant
	}{
		{"compact", "Patient S1234567D visited", "S1234567D", VariantCompact},
		{"delimited slash", "ID: S/1234567/D", "S1234567D", VariantDelimited},
		{"delimited dash", "ID: S-1234567-D", "S1234567D", VariantDelimited},
		{"spaced", "NRIC S 1234567 D", "S1234567D", VariantSpaced},
		{"separated digits", "NRIC S 123 4567 D", "S1234567D", VariantSeparated},
		{"compact wins over later spaced", "S 7654321 F then S1234567D", "S1234567D", VariantCompact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Find(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, m.Value)
			assert.Equal(t, tt.variant, m.Variant)
		})
	}
}

func TestFind_RejectsNonIdentifiers(t *testing.T) {
	for _, text := range []string{
		"",
		"A1234567D",
		"S123456D",
		"S12345678D",
		"Invoice 1234567",
		"BS1234567DX",
	} {
		_, ok := Find(text)
		assert.False(t, ok, text)
	}
}

func TestFindAll_OrderedAndNonOverlapping(t *testing.T) {
	text := "1 TAN MEI LING S 7654321 F 45.00 2 LIM AH KOW S1234567D 12.50 3 ONG T-0123456-G"
	matches := FindAll(text)
	require.Len(t, matches, 3)

	assert.Equal(t, "S7654321F", matches[0].Value)
	assert.Equal(t, "S1234567D", matches[1].Value)
	assert.Equal(t, "T0123456G", matches[2].Value)
	assert.Less(t, matches[0].Start, matches[1].Start)
	assert.Less(t, matches[1].Start, matches[2].Start)
}

func TestChecksum(t *testing.T) {
	assert.True(t, Checksum("S1234567D"))
	assert.True(t, Checksum("S7654321F"))
	assert.True(t, Checksum("S1111111D"))
	assert.True(t, Checksum("T0000000G"))
	assert.True(t, Checksum("s 1234567 d"))
	assert.True(t, Checksum("M1234567X"), "M series is not verified")

	assert.False(t, Checksum("S1234567A"))
	assert.False(t, Checksum("nonsense"))
}
