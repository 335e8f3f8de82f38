package memdoc

import (
	"context"
	"errors"
	"testing"

	"claim-extractor/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoc_QueryAndRead(t *testing.T) {
	ctx := context.Background()
	row := &Node{Text: "row"}
	row.Add("td", &Node{Text: "3"}, &Node{Text: "Jane Tan"})
	doc := New().Add("tr", row)

	refs, err := doc.Query(ctx, "tr")
	require.NoError(t, err)
	require.Len(t, refs, 1)

	cells, err := doc.QueryIn(ctx, refs[0], "td")
	require.NoError(t, err)
	require.Len(t, cells, 2)

	text, err := doc.TextContent(ctx, cells[1])
	require.NoError(t, err)
	assert.Equal(t, "Jane Tan", text)

	none, err := doc.Query(ctx, "table")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDoc_NavigateInvalidatesRefs(t *testing.T) {
	ctx := context.Background()
	doc := New().Add("button", &Node{Text: "Go"})

	refs, err := doc.Query(ctx, "button")
	require.NoError(t, err)

	doc.Navigate()

	_, err = doc.TextContent(ctx, refs[0])
	assert.ErrorIs(t, err, entity.ErrStaleElement)

	fresh, err := doc.Query(ctx, "button")
	require.NoError(t, err)
	text, err := doc.TextContent(ctx, fresh[0])
	require.NoError(t, err)
	assert.Equal(t, "Go", text)
}

func TestDoc_VisibilityAndBox(t *testing.T) {
	ctx := context.Background()
	doc := New().
		Add("a", &Node{}).
		Add("b", &Node{Hidden: true}).
		Add("c", &Node{Box: &entity.Rect{Width: 0, Height: 10}})

	for pattern, want := range map[string]bool{"a": true, "b": false, "c": false} {
		refs, err := doc.Query(ctx, pattern)
		require.NoError(t, err)
		visible, err := doc.IsVisible(ctx, refs[0])
		require.NoError(t, err)
		assert.Equal(t, want, visible, pattern)
	}
}

func TestDoc_FrameAccess(t *testing.T) {
	ctx := context.Background()
	inner := New()
	doc := New().
		Add("iframe#ok", &Node{Frame: inner}).
		Add("iframe#denied", &Node{FrameErr: errors.New("cross-origin")})

	refs, _ := doc.Query(ctx, "iframe#ok")
	frame, err := doc.Frame(ctx, refs[0])
	require.NoError(t, err)
	assert.Same(t, inner, frame)

	refs, _ = doc.Query(ctx, "iframe#denied")
	_, err = doc.Frame(ctx, refs[0])
	var accessErr *entity.FrameAccessError
	assert.ErrorAs(t, err, &accessErr)
}
