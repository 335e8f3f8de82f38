package extract

import (
	"context"
	"strings"

	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/domain/signature"
	"claim-extractor/internal/usecase/selector"
)

// GridFlavor describes one virtualized grid library's markup.
type GridFlavor struct {
	Name      string
	Container string
	Header    string
	Row       string
	Cell      string
	// RowIndexAttrs identify one logical row across pinned containers.
	RowIndexAttrs []string
}

var DefaultGridFlavors = []GridFlavor{
	{
		Name:          "ag-grid",
		Container:     ".ag-root-wrapper",
		Header:        ".ag-header-cell",
		Row:           ".ag-row",
		Cell:          ".ag-cell",
		RowIndexAttrs: []string{"row-index", "aria-rowindex"},
	},
	{
		Name:          "mui-datagrid",
		Container:     ".MuiDataGrid-root",
		Header:        ".MuiDataGrid-columnHeaderTitle",
		Row:           ".MuiDataGrid-row",
		Cell:          ".MuiDataGrid-cell",
		RowIndexAttrs: []string{"data-rowindex", "aria-rowindex"},
	},
	{
		Name:          "devextreme",
		Container:     ".dx-datagrid",
		Header:        ".dx-header-row td",
		Row:           ".dx-data-row",
		Cell:          "td",
		RowIndexAttrs: []string{"aria-rowindex"},
	},
	{
		Name:          "kendo",
		Container:     ".k-grid",
		Header:        "th.k-header",
		Row:           "tr.k-master-row",
		Cell:          "td",
		RowIndexAttrs: []string{"data-uid"},
	},
	{
		Name:      "slickgrid",
		Container: ".slickgrid-container",
		Header:    ".slick-header-column",
		Row:       ".slick-row",
		Cell:      ".slick-cell",
	},
	{
		Name:          "aria-grid",
		Container:     "[role='grid']",
		Header:        "[role='columnheader']",
		Row:           "[role='row']",
		Cell:          "[role='gridcell']",
		RowIndexAttrs: []string{"aria-rowindex"},
	},
}

type Grid struct {
	flavors []GridFlavor
	filter  RowFilter
}

func NewGrid(table *signature.Table, flavors ...GridFlavor) *Grid {
	if len(flavors) == 0 {
		flavors = DefaultGridFlavors
	}
	return &Grid{flavors: flavors, filter: NewRowFilter(table)}
}

// Present reports a visible grid container with at least one populated row.
func (g *Grid) Present(ctx context.Context, doc output.DocumentDriver) (bool, error) {
	r := selector.New(doc, selector.Config{Attempts: 1})
	for _, fl := range g.flavors {
		containers, err := r.VisibleAll(ctx, fl.Container)
		if err != nil {
			return false, err
		}
		for _, c := range containers {
			rows, err := doc.QueryIn(ctx, c, fl.Row)
			if err != nil {
				if ctx.Err() != nil {
					return false, ctx.Err()
				}
				continue
			}
			for _, row := range rows {
				cells, err := doc.QueryIn(ctx, row, fl.Cell)
				if err == nil && len(cells) > 0 {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func (g *Grid) Extract(ctx context.Context, doc output.DocumentDriver) ([]entity.ExtractionCandidate, error) {
	r := selector.New(doc, selector.Config{Attempts: 1})
	for _, fl := range g.flavors {
		containers, err := r.VisibleAll(ctx, fl.Container)
		if err != nil {
			return nil, err
		}
		for _, c := range containers {
			set, err := g.read(ctx, doc, c, fl)
			if err != nil {
				return nil, err
			}
			if cands := set.Candidates(g.filter, "grid:"+fl.Name); len(cands) > 0 {
				return cands, nil
			}
		}
	}
	return nil, nil
}

// read collects the header and the rows of one container. Row fragments
// sharing a row index (pinned left/center/right panes) are concatenated in
// document order.
func (g *Grid) read(ctx context.Context, doc output.DocumentDriver, container entity.ElementRef, fl GridFlavor) (RowSet, error) {
	var set RowSet

	headers, err := doc.QueryIn(ctx, container, fl.Header)
	if err != nil && ctx.Err() != nil {
		return set, ctx.Err()
	}
	for _, h := range headers {
		text, err := doc.TextContent(ctx, h)
		if err != nil {
			if ctx.Err() != nil {
				return set, ctx.Err()
			}
			text = ""
		}
		set.Headers = append(set.Headers, cleanCell(text))
	}

	rows, err := doc.QueryIn(ctx, container, fl.Row)
	if err != nil {
		return set, ctx.Err()
	}

	index := make(map[string]int)
	for _, row := range rows {
		cells, err := g.cells(ctx, doc, row, fl)
		if err != nil {
			return set, err
		}
		if len(cells) == 0 {
			continue
		}

		key := rowKey(ctx, doc, row, fl.RowIndexAttrs)
		if key == "" {
			set.Rows = append(set.Rows, cells)
			continue
		}
		if i, ok := index[key]; ok {
			set.Rows[i] = append(set.Rows[i], cells...)
			continue
		}
		index[key] = len(set.Rows)
		set.Rows = append(set.Rows, cells)
	}
	return set, nil
}

func (g *Grid) cells(ctx context.Context, doc output.DocumentDriver, row entity.ElementRef, fl GridFlavor) ([]string, error) {
	refs, err := doc.QueryIn(ctx, row, fl.Cell)
	if err != nil {
		return nil, ctx.Err()
	}
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		text, err := doc.TextContent(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			text = ""
		}
		out = append(out, cleanCell(text))
	}
	return out, nil
}

func rowKey(ctx context.Context, doc output.DocumentDriver, row entity.ElementRef, attrs []string) string {
	for _, a := range attrs {
		v, ok, err := doc.Attribute(ctx, row, a)
		if err == nil && ok && strings.TrimSpace(v) != "" {
			return a + "=" + strings.TrimSpace(v)
		}
	}
	return ""
}
