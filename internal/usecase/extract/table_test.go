package extract

import (
	"context"
	"testing"

	"claim-extractor/internal/domain/signature"
	"claim-extractor/internal/infrastructure/browser/memdoc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_HeaderRoundTrip(t *testing.T) {
	doc := memdoc.New().Add("table", &memdoc.Node{HTML: queueTableHTML})
	tbl := NewTable(signature.Default())

	present, err := tbl.Present(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, present)

	cands, err := tbl.Extract(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, cands, 1)

	f := cands[0].Fields
	assert.Equal(t, "3", f.QNo)
	assert.Equal(t, "Jane Tan", f.PatientName)
	assert.Equal(t, "S1234567D", f.NRIC)
	require.NotNil(t, f.Fee)
	assert.InDelta(t, 45.50, *f.Fee, 0.001)
	assert.Equal(t, "table", cands[0].SourceTag)
	assert.Equal(t, 0, cands[0].Row)
}

func TestTable_HiddenTableIsIgnored(t *testing.T) {
	doc := memdoc.New().Add("table", &memdoc.Node{HTML: queueTableHTML, Hidden: true})
	tbl := NewTable(nil)

	present, err := tbl.Present(context.Background(), doc)
	require.NoError(t, err)
	assert.False(t, present)

	cands, err := tbl.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestTable_SingleKeywordHeaderIsNotAReport(t *testing.T) {
	doc := memdoc.New().Add("table", &memdoc.Node{
		HTML: `<table><tr><th>Setting</th><th>Name</th></tr><tr><td>Theme</td><td>Dark</td></tr></table>`,
	})

	present, err := NewTable(nil).Present(context.Background(), doc)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestTable_PositionalFallback(t *testing.T) {
	doc := memdoc.New().Add("table", &memdoc.Node{
		HTML: `<table><tr><td>7</td><td>88213</td><td>TAN, MEI LING</td><td>196.20</td></tr></table>`,
	})

	cands, err := NewTable(nil).Extract(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, cands, 1)

	f := cands[0].Fields
	assert.Equal(t, "7", f.QNo)
	assert.Equal(t, "88213", f.RecordNo)
	assert.Equal(t, "TAN, MEI LING", f.PatientName)
	require.NotNil(t, f.Fee)
	assert.InDelta(t, 196.20, *f.Fee, 0.001)
	assert.Equal(t, "table:positional", cands[0].SourceTag)
}

func TestTable_OverlayRowsAreDropped(t *testing.T) {
	doc := memdoc.New().Add("table", &memdoc.Node{HTML: `<table>
		<tr><th>QNo</th><th>Name</th><th>NRIC</th></tr>
		<tr><td>1</td><td>Please update your profile</td><td></td></tr>
		<tr><td>2</td><td>Lim Wei</td><td>S7654321F</td></tr>
	</table>`})

	cands, err := NewTable(nil).Extract(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "Lim Wei", cands[0].Fields.PatientName)
	assert.Equal(t, 1, cands[0].Row)
}

func TestTable_Cancelled(t *testing.T) {
	doc := memdoc.New().Add("table", &memdoc.Node{HTML: queueTableHTML})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTable(nil).Extract(ctx, doc)
	assert.ErrorIs(t, err, context.Canceled)
}
