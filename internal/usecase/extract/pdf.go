package extract

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/domain/identifier"
	"claim-extractor/internal/domain/signature"

	"github.com/ledongthuc/pdf"
)

// pdfWindow bounds how far past an identifier the record fields are looked
// for when the next identifier is further away.
const pdfWindow = 240

var (
	pdfFee  = regexp.MustCompile(`(?:S?\$\s*)?\d{1,3}(?:,\d{3})*\.\d{2}\b`)
	pdfName = regexp.MustCompile(`[A-Z][A-Za-z'.-]*(?:,?[ ]+[A-Z][A-Za-z'.-]*){1,4}`)
	pdfQNo  = regexp.MustCompile(`^\s*(\d{1,3})\b`)
)

type Pdf struct {
	fetcher  *Fetcher
	strategy entity.SelectorStrategy
	filter   RowFilter
}

func NewPdf(fetcher *Fetcher, table *signature.Table) *Pdf {
	return &Pdf{
		fetcher:  fetcher,
		strategy: PdfExportStrategy,
		filter:   NewRowFilter(table),
	}
}

func (p *Pdf) Present(ctx context.Context, doc output.DocumentDriver) (bool, error) {
	return p.fetcher.Available(ctx, doc, p.strategy)
}

func (p *Pdf) Extract(ctx context.Context, doc output.DocumentDriver) ([]entity.ExtractionCandidate, error) {
	d, err := p.fetcher.Fetch(ctx, doc, p.strategy)
	if err != nil {
		return nil, err
	}
	text, err := PdfText(d.Data)
	if err != nil {
		return nil, err
	}
	return RecordsFromText(text, p.filter, "pdf:"+d.Name), nil
}

// PdfText returns the text of every page line by line, one page per block.
func PdfText(data []byte) (text string, err error) {
	defer func() {
		// the pdf reader panics on some malformed streams
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: pdf: %v", entity.ErrParseFailed, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %v", entity.ErrParseFailed, err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, line := range pageLines(page.Content().Text) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// pageLines rebuilds text lines from positioned glyphs. Glyphs on the same
// baseline form one line, top line first, in drawing order. A jump between
// glyph runs wider than a third of the font size becomes a space.
func pageLines(glyphs []pdf.Text) []string {
	type line struct {
		y     float64
		sb    strings.Builder
		prev  *pdf.Text
		space bool
	}
	var lines []*line
	at := func(y float64) *line {
		for _, l := range lines {
			if math.Abs(l.y-y) < 1 {
				return l
			}
		}
		l := &line{y: y}
		lines = append(lines, l)
		return l
	}

	for i := range glyphs {
		g := &glyphs[i]
		l := at(g.Y)
		if g.S == "\n" {
			// end of a TJ array
			l.space = true
			continue
		}
		if l.prev != nil && math.Abs(g.X-(l.prev.X+l.prev.W)) > g.FontSize/3 {
			l.space = true
		}
		if l.space && l.sb.Len() > 0 && g.S != " " && !strings.HasSuffix(l.prev.S, " ") {
			l.sb.WriteByte(' ')
		}
		l.space = false
		l.sb.WriteString(g.S)
		l.prev = g
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if text := strings.TrimSpace(l.sb.String()); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// RecordsFromText recovers one candidate per identifier in free report
// text. Fields are read from a window around the identifier: the queue
// number from the start of its line, then name and fee after it on the
// same line, falling back to the rest of the window.
func RecordsFromText(text string, filter RowFilter, sourceTag string) []entity.ExtractionCandidate {
	matches := identifier.FindAll(text)
	var out []entity.ExtractionCandidate
	for i, m := range matches {
		lineStart := strings.LastIndexByte(text[:m.Start], '\n') + 1
		if i > 0 && lineStart < matches[i-1].End {
			lineStart = matches[i-1].End
		}

		end := len(text)
		if i+1 < len(matches) {
			next := matches[i+1]
			end = strings.LastIndexByte(text[:next.Start], '\n') + 1
			if end <= m.End {
				end = next.Start
			}
		}
		if end-m.End > pdfWindow {
			end = m.End + pdfWindow
		}

		before := text[lineStart:m.Start]
		after := text[m.End:end]
		sameLine := after
		if nl := strings.IndexByte(after, '\n'); nl >= 0 {
			sameLine = after[:nl]
		}

		fields := entity.RecordFields{NRIC: m.Value}
		if q := pdfQNo.FindStringSubmatch(before); q != nil {
			fields.QNo = q[1]
		}
		fields.PatientName = firstName(sameLine)
		if fields.PatientName == "" {
			fields.PatientName = firstName(before)
		}
		if fields.PatientName == "" {
			fields.PatientName = firstName(after)
		}
		fee := pdfFee.FindString(sameLine)
		if fee == "" {
			fee = pdfFee.FindString(after)
		}
		if v, ok := ParseFee(fee); ok {
			fields.Fee = &v
		}

		window := cleanCell(text[lineStart:end])
		if filter.Obstructed(window) {
			continue
		}
		out = append(out, entity.NewRowCandidate(i, window, sourceTag, fields))
	}
	return out
}

// firstName returns the first multi-word capitalised run that is not a
// column heading.
func firstName(s string) string {
	for _, n := range pdfName.FindAllString(s, -1) {
		n = cleanCell(n)
		if _, isHeader := RoleOf(n); isHeader {
			continue
		}
		return n
	}
	return ""
}
