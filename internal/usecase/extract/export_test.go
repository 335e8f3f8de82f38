package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/infrastructure/browser/memdoc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvLink = "a[href$='.csv' i]"

func TestFetcher_CachesDownloads(t *testing.T) {
	file := &entity.Download{Name: "queue.csv", Data: []byte("QNo,Name\n1,Jane Tan\n")}
	link := &memdoc.Node{Attrs: map[string]string{"href": "/export/queue.csv"}, Download: file}
	doc := memdoc.New().Add(csvLink, link)
	f := NewFetcher(time.Minute)

	first, err := f.Fetch(context.Background(), doc, SpreadsheetExportStrategy)
	require.NoError(t, err)
	assert.Same(t, file, first)

	link.Download = nil
	second, err := f.Fetch(context.Background(), doc, SpreadsheetExportStrategy)
	require.NoError(t, err)
	assert.Same(t, file, second)

	f.Forget()
	_, err = f.Fetch(context.Background(), doc, SpreadsheetExportStrategy)
	assert.ErrorIs(t, err, entity.ErrDownloadFailed)
}

func TestFetcher_Failures(t *testing.T) {
	tests := []struct {
		name string
		node *memdoc.Node
	}{
		{"no affordance", nil},
		{"download error", &memdoc.Node{DownloadErr: errors.New("timeout")}},
		{"empty file", &memdoc.Node{Download: &entity.Download{Name: "queue.csv"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := memdoc.New()
			if tt.node != nil {
				doc.Add(csvLink, tt.node)
			}

			_, err := NewFetcher(0).Fetch(context.Background(), doc, SpreadsheetExportStrategy)
			assert.ErrorIs(t, err, entity.ErrDownloadFailed)
		})
	}
}

func TestFetcher_Available(t *testing.T) {
	f := NewFetcher(0)

	ok, err := f.Available(context.Background(), memdoc.New().Add(csvLink, &memdoc.Node{}), SpreadsheetExportStrategy)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Available(context.Background(), memdoc.New(), PdfExportStrategy)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetcher_KeysByPage(t *testing.T) {
	const excel = "button[title*='Excel' i]"
	page := func(name string) (*memdoc.Doc, *entity.Download) {
		file := &entity.Download{Name: name, Data: []byte("QNo,Name\n1,Jane Tan\n")}
		return memdoc.New().Add(excel, &memdoc.Node{Text: "Export to Excel", Download: file}), file
	}
	f := NewFetcher(time.Minute)

	t.Run("different documents", func(t *testing.T) {
		page1, a := page("a.csv")
		page2, b := page("b.csv")

		got, err := f.Fetch(context.Background(), page1, SpreadsheetExportStrategy)
		require.NoError(t, err)
		assert.Same(t, a, got)

		got, err = f.Fetch(context.Background(), page2, SpreadsheetExportStrategy)
		require.NoError(t, err)
		assert.Same(t, b, got)
	})

	t.Run("same document after navigation", func(t *testing.T) {
		doc, a := page("a.csv")
		got, err := f.Fetch(context.Background(), doc, SpreadsheetExportStrategy)
		require.NoError(t, err)
		assert.Same(t, a, got)

		b := &entity.Download{Name: "b.csv", Data: []byte("QNo,Name\n2,Lim Wei\n")}
		doc.Navigate()
		doc.Remove(excel)
		doc.Add(excel, &memdoc.Node{Text: "Export to Excel", Download: b})

		got, err = f.Fetch(context.Background(), doc, SpreadsheetExportStrategy)
		require.NoError(t, err)
		assert.Same(t, b, got)
	})
}
