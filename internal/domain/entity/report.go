package entity

type ReportSourceKind int

const (
	SourceNone ReportSourceKind = iota
	SourceGrid
	SourceTable
	SourceEmbeddedFrame
	SourceNestedEmbeddedFrame
	SourcePdfDocument
	SourceSpreadsheetExport
)

func (k ReportSourceKind) String() string {
	switch k {
	case SourceGrid:
		return "grid"
	case SourceTable:
		return "table"
	case SourceEmbeddedFrame:
		return "embedded_frame"
	case SourceNestedEmbeddedFrame:
		return "nested_embedded_frame"
	case SourcePdfDocument:
		return "pdf"
	case SourceSpreadsheetExport:
		return "spreadsheet"
	default:
		return "none"
	}
}

func ParseReportSourceKind(s string) (ReportSourceKind, bool) {
	for k := SourceGrid; k <= SourceSpreadsheetExport; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return SourceNone, false
}

// DefaultSourceOrder is the fidelity order used when more than one format
// signal is present: lossless in-page formats first, downloads last.
var DefaultSourceOrder = []ReportSourceKind{
	SourceGrid,
	SourceTable,
	SourceNestedEmbeddedFrame,
	SourceEmbeddedFrame,
	SourceSpreadsheetExport,
	SourcePdfDocument,
}
