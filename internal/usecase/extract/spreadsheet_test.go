package extract

import (
	"context"
	"testing"

	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/infrastructure/browser/memdoc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseSpreadsheet_Xlsx(t *testing.T) {
	data := workbook(t,
		[]any{"Daily Queue Report"},
		[]any{"Q No", "Patient Name", "NRIC", "Fee ($)"},
		[]any{"1", "Jane Tan", "S1234567D", "45.50"},
		[]any{"2", "Lim Wei", "S7654321F", "30.00"},
		[]any{"Total", "", "", "75.50"},
	)

	set, err := ParseSpreadsheet(&entity.Download{Name: "queue.xlsx", Data: data})
	require.NoError(t, err)
	assert.Equal(t, []string{"Q No", "Patient Name", "NRIC", "Fee ($)"}, set.Headers)

	cands := set.Candidates(NewRowFilter(nil), "spreadsheet")
	require.Len(t, cands, 2)
	assert.Equal(t, "S1234567D", cands[0].Fields.NRIC)
	assert.Equal(t, "Lim Wei", cands[1].Fields.PatientName)
	assert.Equal(t, 1, cands[1].Row)
}

func TestParseSpreadsheet_CSV(t *testing.T) {
	set, err := ParseSpreadsheet(&entity.Download{
		Name: "queue.csv",
		Data: []byte("\xef\xbb\xbfQNo,Name,NRIC,Fee\n3,\"Tan, Jane\",S1234567D,45.50\n"),
	})
	require.NoError(t, err)

	cands := set.Candidates(NewRowFilter(nil), "spreadsheet")
	require.Len(t, cands, 1)
	assert.Equal(t, "Tan, Jane", cands[0].Fields.PatientName)
	assert.Equal(t, "3", cands[0].Fields.QNo)
}

func TestParseSpreadsheet_CSVWithoutHeader(t *testing.T) {
	set, err := ParseSpreadsheet(&entity.Download{
		Name: "export",
		Data: []byte("7,88213,\"TAN, MEI LING\",196.20\n"),
		// served as text, no extension
		ContentType: "text/csv; charset=utf-8",
	})
	require.NoError(t, err)

	cands := set.Candidates(NewRowFilter(nil), "spreadsheet")
	require.Len(t, cands, 1)
	assert.Equal(t, "88213", cands[0].Fields.RecordNo)
	assert.Equal(t, "TAN, MEI LING", cands[0].Fields.PatientName)
}

func TestParseSpreadsheet_CSVTitleRowWithoutHeader(t *testing.T) {
	set, err := ParseSpreadsheet(&entity.Download{
		Name: "visits.csv",
		Data: []byte("Visit Listing Report\n7,88213,\"TAN, MEI LING\",196.20\n8,88214,\"LIM, WEI\",30.00\n"),
	})
	require.NoError(t, err)

	cands := set.Candidates(NewRowFilter(nil), "spreadsheet")
	require.Len(t, cands, 2)

	first := cands[0]
	assert.Equal(t, 1, first.Row)
	assert.Equal(t, "7", first.Fields.QNo)
	assert.Equal(t, "88213", first.Fields.RecordNo)
	assert.Equal(t, "TAN, MEI LING", first.Fields.PatientName)
	require.NotNil(t, first.Fields.Fee)
	assert.InDelta(t, 196.20, *first.Fields.Fee, 0.001)

	assert.Equal(t, 2, cands[1].Row)
	assert.Equal(t, "8", cands[1].Fields.QNo)
	assert.Equal(t, "LIM, WEI", cands[1].Fields.PatientName)
}

func TestParseSpreadsheet_HTMLDisguisedAsXls(t *testing.T) {
	set, err := ParseSpreadsheet(&entity.Download{
		Name: "queue.xls",
		Data: []byte("<html><body>" + queueTableHTML + "</body></html>"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"QNo", "Name", "NRIC", "Fee"}, set.Headers)
	assert.Len(t, set.Rows, 1)
}

func TestParseSpreadsheet_Rejects(t *testing.T) {
	tests := []struct {
		name string
		d    entity.Download
	}{
		{"legacy binary", entity.Download{Name: "queue.xls", Data: []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}}},
		{"unknown", entity.Download{Name: "queue.bin", Data: []byte{0x01, 0x02, 0x03}}},
		{"broken zip", entity.Download{Name: "queue.xlsx", Data: []byte("PK\x03\x04garbage")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpreadsheet(&tt.d)
			assert.ErrorIs(t, err, entity.ErrParseFailed)
		})
	}
}

func TestSpreadsheet_Extract(t *testing.T) {
	doc := memdoc.New().Add("a[href$='.xlsx' i]", &memdoc.Node{
		Attrs: map[string]string{"href": "queue.xlsx"},
		Download: &entity.Download{Name: "queue.xlsx", Data: workbook(t,
			[]any{"QNo", "Name", "NRIC", "Fee"},
			[]any{"3", "Jane Tan", "S1234567D", "45.50"},
		)},
	})
	s := NewSpreadsheet(NewFetcher(0), nil)

	present, err := s.Present(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, present)

	cands, err := s.Extract(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "spreadsheet:queue.xlsx", cands[0].SourceTag)
}
