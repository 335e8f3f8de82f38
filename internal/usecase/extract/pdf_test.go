package extract

import (
	"os"
	"path/filepath"
	"testing"

	"claim-extractor/internal/domain/entity"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordsFromText(t *testing.T) {
	text := "Queue Report\n" +
		"1 S1234567D JANE TAN 45.50\n" +
		"2 S7654321F LIM WEI MING $30.00\n" +
		"Page 1 of 1\n"

	cands := RecordsFromText(text, NewRowFilter(nil), "pdf")
	require.Len(t, cands, 2)

	first := cands[0].Fields
	assert.Equal(t, "S1234567D", first.NRIC)
	assert.Equal(t, "1", first.QNo)
	assert.Equal(t, "JANE TAN", first.PatientName)
	require.NotNil(t, first.Fee)
	assert.InDelta(t, 45.50, *first.Fee, 0.001)

	second := cands[1].Fields
	assert.Equal(t, "2", second.QNo)
	assert.Equal(t, "LIM WEI MING", second.PatientName)
	require.NotNil(t, second.Fee)
	assert.InDelta(t, 30.0, *second.Fee, 0.001)
	assert.Equal(t, 1, cands[1].Row)
}

func TestRecordsFromText_NameBeforeIdentifier(t *testing.T) {
	cands := RecordsFromText("3 JANE TAN S1234567D 45.50\n", NewRowFilter(nil), "pdf")
	require.Len(t, cands, 1)

	assert.Equal(t, "JANE TAN", cands[0].Fields.PatientName)
	assert.Equal(t, "3", cands[0].Fields.QNo)
}

func TestRecordsFromText_SpacedIdentifier(t *testing.T) {
	cands := RecordsFromText("4 S 1234567 D Jane Tan 12.00\n", NewRowFilter(nil), "pdf")
	require.Len(t, cands, 1)

	assert.Equal(t, "S1234567D", cands[0].Fields.NRIC)
}

func TestRecordsFromText_ObstructionDropped(t *testing.T) {
	cands := RecordsFromText("1 S1234567D JANE TAN 45.50\nPlease update your profile\n", NewRowFilter(nil), "pdf")

	assert.Empty(t, cands)
}

func TestPdfText_RejectsGarbage(t *testing.T) {
	_, err := PdfText([]byte("not a pdf"))
	assert.ErrorIs(t, err, entity.ErrParseFailed)
}

func TestPdfText_KeepsLinesApart(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "two_records.pdf"))
	require.NoError(t, err)

	text, err := PdfText(data)
	require.NoError(t, err)
	assert.Contains(t, text, "1 S1234567D Jane Tan 45.50\n2 S7654321F Lim Wei 30.00\n")

	cands := RecordsFromText(text, NewRowFilter(nil), "pdf")
	require.Len(t, cands, 2)

	first := cands[0].Fields
	assert.Equal(t, "S1234567D", first.NRIC)
	assert.Equal(t, "1", first.QNo)
	require.NotNil(t, first.Fee)
	assert.InDelta(t, 45.50, *first.Fee, 0.001)

	second := cands[1].Fields
	assert.Equal(t, "S7654321F", second.NRIC)
	assert.Equal(t, "2", second.QNo)
	assert.Equal(t, "Lim Wei", second.PatientName)
	require.NotNil(t, second.Fee)
	assert.InDelta(t, 30.0, *second.Fee, 0.001)
}

func TestPageLines_GroupsByBaseline(t *testing.T) {
	glyphs := []pdf.Text{
		{X: 72, Y: 704, FontSize: 12, S: "2"},
		{X: 72, Y: 720, FontSize: 12, S: "1"},
		{X: 200, Y: 720, FontSize: 12, S: "4"},
		{X: 200, Y: 720, FontSize: 12, S: "5"},
		{X: 200, Y: 720, FontSize: 12, S: "\n"},
		{X: 200, Y: 720, FontSize: 12, S: "x"},
	}

	assert.Equal(t, []string{"1 45 x", "2"}, pageLines(glyphs))
}
