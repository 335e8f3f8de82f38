package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/domain/signature"

	"github.com/xuri/excelize/v2"
)

var (
	zipMagic  = []byte("PK\x03\x04")
	biffMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
)

// headerScanRows bounds how far down a sheet the header row is searched.
const headerScanRows = 20

type Spreadsheet struct {
	fetcher  *Fetcher
	strategy entity.SelectorStrategy
	filter   RowFilter
}

func NewSpreadsheet(fetcher *Fetcher, table *signature.Table) *Spreadsheet {
	return &Spreadsheet{
		fetcher:  fetcher,
		strategy: SpreadsheetExportStrategy,
		filter:   NewRowFilter(table),
	}
}

func (s *Spreadsheet) Present(ctx context.Context, doc output.DocumentDriver) (bool, error) {
	return s.fetcher.Available(ctx, doc, s.strategy)
}

func (s *Spreadsheet) Extract(ctx context.Context, doc output.DocumentDriver) ([]entity.ExtractionCandidate, error) {
	d, err := s.fetcher.Fetch(ctx, doc, s.strategy)
	if err != nil {
		return nil, err
	}
	set, err := ParseSpreadsheet(d)
	if err != nil {
		return nil, err
	}
	return set.Candidates(s.filter, "spreadsheet:"+d.Name), nil
}

// ParseSpreadsheet reads the first sheet of an xlsx workbook, a CSV file or
// an HTML table saved with an .xls name. Legacy binary workbooks are
// rejected.
func ParseSpreadsheet(d *entity.Download) (RowSet, error) {
	data := d.Data
	trimmed := bytes.TrimLeft(data, " \t\r\n\xef\xbb\xbf")

	var rows [][]string
	var err error
	switch {
	case bytes.HasPrefix(data, zipMagic):
		rows, err = readWorkbook(data)
	case bytes.HasPrefix(data, biffMagic):
		return RowSet{}, fmt.Errorf("%w: %s is a legacy binary workbook", entity.ErrParseFailed, d.Name)
	case len(trimmed) > 0 && trimmed[0] == '<':
		return htmlWorkbook(string(trimmed), d.Name)
	case isCSV(d):
		rows, err = readCSV(trimmed)
	default:
		return RowSet{}, fmt.Errorf("%w: %s: unrecognised spreadsheet format", entity.ErrParseFailed, d.Name)
	}
	if err != nil {
		return RowSet{}, err
	}
	return splitHeader(rows), nil
}

func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx: %v", entity.ErrParseFailed, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: xlsx has no sheets", entity.ErrParseFailed)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx sheet %q: %v", entity.ErrParseFailed, sheets[0], err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv: %v", entity.ErrParseFailed, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func htmlWorkbook(markup, name string) (RowSet, error) {
	sets, err := ParseTables(markup)
	if err != nil {
		return RowSet{}, err
	}
	if len(sets) == 0 {
		return RowSet{}, fmt.Errorf("%w: %s has no table", entity.ErrParseFailed, name)
	}
	for _, set := range sets {
		if KeywordCount(set.Headers) >= 2 {
			return set, nil
		}
	}
	var all [][]string
	if len(sets[0].Headers) > 0 {
		all = append(all, sets[0].Headers)
	}
	return splitHeader(append(all, sets[0].Rows...)), nil
}

// splitHeader takes the first row with at least two header keywords as the
// header. Without one every row is data; RowSet.Columns separates any
// leading title rows.
func splitHeader(rows [][]string) RowSet {
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		if KeywordCount(rows[i]) >= 2 {
			return RowSet{Headers: rows[i], Rows: rows[i+1:]}
		}
	}
	return RowSet{Rows: rows}
}

func isCSV(d *entity.Download) bool {
	if strings.EqualFold(filepath.Ext(d.Name), ".csv") {
		return true
	}
	ct := strings.ToLower(d.ContentType)
	return strings.Contains(ct, "csv") || strings.HasPrefix(ct, "text/plain")
}
