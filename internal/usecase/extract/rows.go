package extract

import (
	"regexp"
	"strings"

	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/domain/identifier"
	"claim-extractor/internal/domain/signature"
)

var (
	summaryWord = regexp.MustCompile(`(?i)\b(?:sub\s*)?total\b`)
	numericCell = regexp.MustCompile(`^\(?-?(?:S?\$|SGD)?\s*-?[\d,]+(?:\.\d+)?\)?%?$`)
	spaces      = regexp.MustCompile(`\s+`)
)

// RowFilter drops rows that can never carry a record: blanks, report
// summaries and anything overlay text leaked into.
type RowFilter struct {
	table *signature.Table
}

func NewRowFilter(table *signature.Table) RowFilter {
	if table == nil {
		table = signature.Default()
	}
	return RowFilter{table: table}
}

// Skip reports whether a data row should be dropped and why.
func (f RowFilter) Skip(cells []string) (string, bool) {
	joined := joinCells(cells, " ")
	if joined == "" {
		return "empty", true
	}
	if sig, ok := f.table.MatchObstruction(joined); ok {
		return "obstruction:" + sig, true
	}
	if phrase, ok := f.table.MatchRejection(joined); ok {
		return "rejection:" + phrase, true
	}
	if _, hasID := findIdentifier(joined); !hasID && summaryWord.MatchString(joined) {
		return "summary", true
	}

	numeric := true
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c != "" && !numericCell.MatchString(c) {
			numeric = false
			break
		}
	}
	if numeric {
		return "numeric-only", true
	}
	return "", false
}

// Obstructed reports overlay text in free text that has no row structure.
func (f RowFilter) Obstructed(text string) bool {
	_, ok := f.table.MatchObstruction(text)
	return ok
}

// RowSet is a header row plus data rows as read from any tabular format.
type RowSet struct {
	Headers []string
	Rows    [][]string
}

// Columns maps the header row. When fewer than two roles are recognised
// the roles come from the first row the filter keeps whose shape yields at
// least two of them; title and date rows above it are preamble. start is
// the first row Candidates reads.
func (s RowSet) Columns(filter RowFilter) (cols ColumnMap, start int, positional bool) {
	cols = MapHeaders(s.Headers)
	if len(cols) >= 2 {
		return cols, 0, false
	}
	for i, row := range s.Rows {
		if _, skip := filter.Skip(row); skip {
			continue
		}
		if inferred := InferPositional(row); len(inferred) >= 2 {
			return inferred, i, true
		}
	}
	return cols, 0, true
}

// Candidates converts every kept data row into a candidate tagged with
// sourceTag. Rows keep their 0-based position among the data rows.
func (s RowSet) Candidates(filter RowFilter, sourceTag string) []entity.ExtractionCandidate {
	cols, start, _ := s.Columns(filter)
	var out []entity.ExtractionCandidate
	for i := start; i < len(s.Rows); i++ {
		row := s.Rows[i]
		if _, skip := filter.Skip(row); skip {
			continue
		}
		fields := FieldsFromRow(row, cols)
		if fields.IsEmpty() {
			continue
		}
		out = append(out, entity.NewRowCandidate(i, joinCells(row, " | "), sourceTag, fields))
	}
	return out
}

// FieldsFromRow reads the mapped cells of one row. An identifier found in
// an unmapped cell is still picked up.
func FieldsFromRow(cells []string, cols ColumnMap) entity.RecordFields {
	var f entity.RecordFields
	for i, role := range cols {
		if i >= len(cells) {
			continue
		}
		v := cleanCell(cells[i])
		if v == "" {
			continue
		}
		switch role {
		case RoleNRIC:
			if m, ok := findIdentifier(v); ok {
				f.NRIC = m
			}
		case RoleRecordNo:
			f.RecordNo = v
		case RoleQNo:
			f.QNo = v
		case RoleName:
			f.PatientName = v
		case RoleFee:
			if fee, ok := ParseFee(v); ok {
				f.Fee = &fee
			}
		case RolePayType:
			f.PayType = v
		case RoleVisitType:
			f.VisitType = v
		case RoleDiagnosis:
			f.Diagnosis = v
		case RoleReferral:
			f.ReferralClinic = v
		}
	}

	if f.NRIC == "" {
		for _, c := range cells {
			if m, ok := findIdentifier(c); ok {
				f.NRIC = m
				break
			}
		}
	}
	return f
}

func findIdentifier(s string) (string, bool) {
	m, ok := identifier.Find(s)
	if !ok {
		return "", false
	}
	return m.Value, true
}

func cleanCell(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(strings.ReplaceAll(s, "\u00a0", " "), " "))
}

func joinCells(cells []string, sep string) string {
	parts := make([]string, 0, len(cells))
	for _, c := range cells {
		if c = cleanCell(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, sep)
}
