package entity

// RecordFields are the structured sub-fields an extractor could derive
// alongside the raw text of a candidate.
type RecordFields struct {
	NRIC           string
	PatientName    string
	QNo            string
	RecordNo       string
	PayType        string
	VisitType      string
	Diagnosis      string
	ReferralClinic string
	Fee            *float64
}

func (f RecordFields) IsEmpty() bool {
	return f.NRIC == "" && f.PatientName == "" && f.QNo == "" && f.RecordNo == "" &&
		f.PayType == "" && f.VisitType == "" && f.Diagnosis == "" &&
		f.ReferralClinic == "" && f.Fee == nil
}

// ExtractionCandidate is an unvalidated piece of extracted text with its
// provenance. Values are never mutated after construction; scoring returns a
// copy.
type ExtractionCandidate struct {
	Text      string
	Score     float64
	Length    int
	SourceTag string
	Fields    RecordFields
	Reasons   []string
	// Row is the 0-based data-row position in the source report, or -1.
	Row int
}

func NewCandidate(text, sourceTag string, fields RecordFields) ExtractionCandidate {
	return ExtractionCandidate{
		Text:      text,
		Length:    len([]rune(text)),
		SourceTag: sourceTag,
		Fields:    fields,
		Row:       -1,
	}
}

func NewRowCandidate(row int, text, sourceTag string, fields RecordFields) ExtractionCandidate {
	c := NewCandidate(text, sourceTag, fields)
	c.Row = row
	return c
}

func (c ExtractionCandidate) WithScore(score float64, reasons []string) ExtractionCandidate {
	c.Score = score
	c.Reasons = append([]string(nil), reasons...)
	return c
}
