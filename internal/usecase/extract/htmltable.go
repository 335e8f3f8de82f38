package extract

import (
	"fmt"
	"strconv"
	"strings"

	"claim-extractor/internal/domain/entity"

	"golang.org/x/net/html"
)

var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// ParseTables parses markup and returns every table as a RowSet. Rows of
// nested tables belong to the nested table only.
func ParseTables(markup string) ([]RowSet, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("%w: html: %v", entity.ErrParseFailed, err)
	}

	var sets []RowSet
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			if set, ok := tableRows(n); ok {
				sets = append(sets, set)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sets, nil
}

// ParseTable returns the first table in markup that has at least one row.
func ParseTable(markup string) (RowSet, error) {
	sets, err := ParseTables(markup)
	if err != nil {
		return RowSet{}, err
	}
	if len(sets) == 0 {
		return RowSet{}, fmt.Errorf("%w: no table rows", entity.ErrParseFailed)
	}
	return sets[0], nil
}

type htmlRow struct {
	cells  []string
	header bool
}

func tableRows(table *html.Node) (RowSet, bool) {
	var rows []htmlRow
	var walk func(n *html.Node, inHead bool)
	walk = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "table":
				continue
			case "thead":
				walk(c, true)
			case "tr":
				rows = append(rows, readRow(c, inHead))
			default:
				walk(c, inHead)
			}
		}
	}
	walk(table, false)

	if len(rows) == 0 {
		return RowSet{}, false
	}

	var set RowSet
	start := 0
	if rows[0].header || KeywordCount(rows[0].cells) >= 2 {
		set.Headers = rows[0].cells
		start = 1
	}
	for _, r := range rows[start:] {
		if r.header && len(set.Rows) == 0 {
			// second header line; keep the first
			continue
		}
		set.Rows = append(set.Rows, r.cells)
	}
	return set, true
}

func readRow(tr *html.Node, inHead bool) htmlRow {
	row := htmlRow{header: inHead}
	allTH := true
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		if c.Data == "td" {
			allTH = false
		}
		row.cells = append(row.cells, nodeText(c))
		for i := 1; i < colspan(c); i++ {
			row.cells = append(row.cells, "")
		}
	}
	if len(row.cells) > 0 && allTH {
		row.header = true
	}
	return row
}

func colspan(n *html.Node) int {
	for _, a := range n.Attr {
		if a.Key == "colspan" {
			if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && v > 1 && v < 100 {
				return v
			}
		}
	}
	return 1
}

// nodeText is the collapsed visible text of n. Block-level children and
// <br> are separated by a space.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if skippedTags[n.Data] {
				return
			}
			if n.Data == "br" {
				sb.WriteByte(' ')
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && (n.Data == "div" || n.Data == "p" || n.Data == "li") {
			sb.WriteByte(' ')
		}
	}
	walk(n)
	return cleanCell(sb.String())
}
