package extract

import (
	"context"

	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/domain/signature"
	"claim-extractor/internal/usecase/selector"
)

// DefaultTablePatterns list report tables from most to least specific.
var DefaultTablePatterns = []string{
	"table#reportTable",
	"table.report-table",
	"table.dataTable",
	"table.table",
	"table",
}

// Table reads plain HTML tables. Each table costs one driver round trip:
// its outer HTML is parsed locally.
type Table struct {
	patterns []string
	filter   RowFilter
}

func NewTable(table *signature.Table, patterns ...string) *Table {
	if len(patterns) == 0 {
		patterns = DefaultTablePatterns
	}
	return &Table{patterns: patterns, filter: NewRowFilter(table)}
}

// Present reports a visible table whose header row maps at least two roles.
func (t *Table) Present(ctx context.Context, doc output.DocumentDriver) (bool, error) {
	sets, err := t.visibleTables(ctx, doc)
	if err != nil {
		return false, err
	}
	for _, set := range sets {
		if KeywordCount(set.Headers) >= 2 {
			return true, nil
		}
	}
	return false, nil
}

// Extract returns the rows of the first table that yields candidates.
// Tables with a recognised header are tried before header-less ones.
func (t *Table) Extract(ctx context.Context, doc output.DocumentDriver) ([]entity.ExtractionCandidate, error) {
	sets, err := t.visibleTables(ctx, doc)
	if err != nil {
		return nil, err
	}

	var headerless []RowSet
	for _, set := range sets {
		if KeywordCount(set.Headers) < 2 {
			headerless = append(headerless, set)
			continue
		}
		if cands := set.Candidates(t.filter, "table"); len(cands) > 0 {
			return cands, nil
		}
	}
	for _, set := range headerless {
		cols, _, _ := set.Columns(t.filter)
		if len(cols) < 2 {
			continue
		}
		if cands := set.Candidates(t.filter, "table:positional"); len(cands) > 0 {
			return cands, nil
		}
	}
	return nil, nil
}

func (t *Table) visibleTables(ctx context.Context, doc output.DocumentDriver) ([]RowSet, error) {
	r := selector.New(doc, selector.Config{Attempts: 1})
	seen := make(map[string]bool)
	var sets []RowSet
	for _, pattern := range t.patterns {
		refs, err := r.VisibleAll(ctx, pattern)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			if seen[ref.ID] {
				continue
			}
			seen[ref.ID] = true

			markup, err := doc.HTML(ctx, ref)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				continue
			}
			parsed, err := ParseTables(markup)
			if err != nil || len(parsed) == 0 {
				continue
			}
			sets = append(sets, parsed[0])
		}
	}
	return sets, nil
}
