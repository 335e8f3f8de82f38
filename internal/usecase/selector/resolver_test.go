package selector

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

func newTestResolver(doc *memdoc.Doc, attempts int) (*Resolver, *int) {
	r := New(doc, Config{Attempts: attempts})
	sleeps := 0
	r.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		return ctx.Err()
	}
	return r, &sleeps
}

func TestResolve_FirstVisibleWinsOverEarlierHidden(t *testing.T) {
	doc := memdoc.New().
		Add("#nric", &memdoc.Node{Hidden: true, Text: "stale"}).
		Add("input[name='nric']", &memdoc.Node{Text: "live"}).
		Add("input", &memdoc.Node{Text: "generic"})

	r, _ := newTestResolver(doc, 1)
	res, err := r.Resolve(context.Background(),
		entity.NewStrategy("nric", "#nric", "input[name='nric']", "input"))
	require.NoError(t, err)

	assert.Equal(t, "input[name='nric']", res.Pattern)
	assert.Equal(t, "nric", res.Label)
	text, _ := doc.TextContent(context.Background(), res.Ref)
	assert.Equal(t, "live", text)
}

func TestResolve_EarlierVisibleIsNotOverridden(t *testing.T) {
	doc := memdoc.New().
		Add("#specific", &memdoc.Node{Text: "specific"}).
		Add("input", &memdoc.Node{Text: "generic"})

	r, _ := newTestResolver(doc, 1)
	res, err := r.Resolve(context.Background(),
		entity.NewStrategy("primary", "#specific"),
		entity.NewStrategy("fallback", "input"))
	require.NoError(t, err)
	assert.Equal(t, "#specific", res.Pattern)
}

func TestResolve_ZeroSizeBoxIsNotVisible(t *testing.T) {
	doc := memdoc.New().
		Add("#collapsed", &memdoc.Node{Box: &entity.Rect{Width: 100, Height: 0}}).
		Add("#shown", &memdoc.Node{})

	r, _ := newTestResolver(doc, 1)
	res, err := r.Resolve(context.Background(), entity.NewStrategy("x", "#collapsed", "#shown"))
	require.NoError(t, err)
	assert.Equal(t, "#shown", res.Pattern)
}

func TestResolve_SingleVisiblePatternWinsInAnyOrder(t *testing.T) {
	patterns := []string{"#a", "#b", "#c"}
	permutations := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	for _, perm := range permutations {
		doc := memdoc.New().
			Add("#a", &memdoc.Node{Hidden: true}).
			Add("#b", &memdoc.Node{Text: "target"})
		// #c matches nothing

		ordered := make([]string, 0, 3)
		for _, i := range perm {
			ordered = append(ordered, patterns[i])
		}

		r, _ := newTestResolver(doc, 1)
		res, err := r.Resolve(context.Background(), entity.NewStrategy("perm", ordered...))
		require.NoError(t, err, ordered)
		assert.Equal(t, "#b", res.Pattern, ordered)
	}
}

func TestResolve_NotFoundAfterBoundedAttempts(t *testing.T) {
	doc := memdoc.New().Add("#hidden", &memdoc.Node{Hidden: true})

	r, sleeps := newTestResolver(doc, 3)
	_, err := r.Resolve(context.Background(),
		entity.NewStrategy("missing", "#nope"),
		entity.NewStrategy("hidden", "#hidden"))

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.Contains(t, err.Error(), "missing, hidden")
	assert.Equal(t, 2, *sleeps)
}

func TestResolve_HonoursCancellation(t *testing.T) {
	doc := memdoc.New().Add("#x", &memdoc.Node{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, _ := newTestResolver(doc, 3)
	_, err := r.Resolve(ctx, entity.NewStrategy("x", "#x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveAndAct_ClickFallsBackToForced(t *testing.T) {
	var forced bool
	doc := memdoc.New().Add("#submit", &memdoc.Node{OnClick: func(force bool) error {
		if !force {
			return errors.New("element intercepted by overlay")
		}
		forced = true
		return nil
	}})

	r, _ := newTestResolver(doc, 1)
	_, err := r.ResolveAndAct(context.Background(), Click(), entity.NewStrategy("submit", "#submit"))
	require.NoError(t, err)
	assert.True(t, forced)
	assert.Len(t, doc.Clicks, 1)
	assert.Len(t, doc.ForceClicks, 1)
}

func TestResolveAndAct_ClickBothFail(t *testing.T) {
	doc := memdoc.New().Add("#submit", &memdoc.Node{OnClick: func(bool) error {
		return errors.New("detached")
	}})

	r, _ := newTestResolver(doc, 1)
	_, err := r.ResolveAndAct(context.Background(), Click(), entity.NewStrategy("submit", "#submit"))

	var actionErr *entity.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, "click", actionErr.Action)
	assert.Len(t, actionErr.Causes, 2)
}

func TestResolveAndAct_FillFallsBackToDirectAssignment(t *testing.T) {
	node := &memdoc.Node{OnFill: func(string) error { return errors.New("not focusable") }}
	doc := memdoc.New().Add("#remarks", node)

	var gotJS string
	var gotArgs []any
	doc.OnEvaluate = func(n *memdoc.Node, js string, args []any) (any, error) {
		gotJS = js
		gotArgs = args
		n.Value = args[0].(string)
		return n.Value, nil
	}

	r, _ := newTestResolver(doc, 1)
	_, err := r.ResolveAndAct(context.Background(), Fill("URTI"), entity.NewStrategy("remarks", "#remarks"))
	require.NoError(t, err)

	assert.Contains(t, gotJS, "dispatchEvent(new Event('input'")
	assert.Contains(t, gotJS, "dispatchEvent(new Event('change'")
	assert.Equal(t, []any{"URTI"}, gotArgs)
	assert.Equal(t, "URTI", node.Value)
}

func TestResolveAndAct_FillFocusedWrite(t *testing.T) {
	node := &memdoc.Node{}
	doc := memdoc.New().Add("#qty", node)

	r, _ := newTestResolver(doc, 1)
	_, err := r.ResolveAndAct(context.Background(), Fill("2"), entity.NewStrategy("qty", "#qty"))
	require.NoError(t, err)
	assert.Equal(t, "2", node.Value)
}

func TestReadValue_PrefersInputValue(t *testing.T) {
	doc := memdoc.New().
		Add("#nric", &memdoc.Node{Value: " S1234567D ", Text: "ignored"}).
		Add("#name", &memdoc.Node{Text: "  Jane Tan  "})

	r, _ := newTestResolver(doc, 1)

	value, res, err := r.ReadValue(context.Background(), entity.NewStrategy("nric", "#nric"))
	require.NoError(t, err)
	assert.Equal(t, "S1234567D", value)
	assert.Equal(t, "selector:#nric", res.Source())

	value, _, err = r.ReadValue(context.Background(), entity.NewStrategy("name", "#name"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Tan", value)
}

func TestVisibleAll(t *testing.T) {
	doc := memdoc.New().Add("tr",
		&memdoc.Node{Text: "1"},
		&memdoc.Node{Text: "2", Hidden: true},
		&memdoc.Node{Text: "3"},
	)

	r, _ := newTestResolver(doc, 1)
	refs, err := r.VisibleAll(context.Background(), "tr")
	require.NoError(t, err)
	assert.Len(t, refs, 2)
}
