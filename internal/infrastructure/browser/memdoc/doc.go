// Package memdoc is an in-memory DocumentDriver. Nodes are registered under
// the exact query patterns that should find them, which lets extraction logic
// run against scripted portal states without a browser.
package memdoc

import (
	"context"
	"fmt"
	"strconv"

	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/entity"

	"github.com/ysmood/gson"
)

var _ output.DocumentDriver = (*Doc)(nil)

var defaultBox = entity.Rect{X: 10, Y: 10, Width: 120, Height: 24}

type Node struct {
	Text   string
	HTML   string
	Value  string
	Attrs  map[string]string
	Hidden bool
	// Box overrides the default non-empty bounding box.
	Box *entity.Rect

	Frame       *Doc
	FrameErr    error
	Download    *entity.Download
	DownloadErr error

	OnClick func(force bool) error
	OnFill  func(value string) error

	id       string
	children map[string][]*Node
}

// Add registers children under pattern for QueryIn on this node.
func (n *Node) Add(pattern string, children ...*Node) *Node {
	if n.children == nil {
		n.children = make(map[string][]*Node)
	}
	n.children[pattern] = append(n.children[pattern], children...)
	return n
}

func (n *Node) visible() bool {
	if n.Hidden {
		return false
	}
	if n.Box != nil {
		return !n.Box.Empty()
	}
	return true
}

type Doc struct {
	OnKey      func(key string) error
	OnEvaluate func(node *Node, js string, args []any) (any, error)

	Clicks      []string
	ForceClicks []string
	Keys        []string
	Screenshots []string
	Loads       int

	nodes      map[string][]*Node
	byID       map[string]*Node
	generation uint64
	seq        int
}

func New() *Doc {
	return &Doc{
		nodes: make(map[string][]*Node),
		byID:  make(map[string]*Node),
	}
}

// Add registers nodes under pattern for Query.
func (d *Doc) Add(pattern string, nodes ...*Node) *Doc {
	d.nodes[pattern] = append(d.nodes[pattern], nodes...)
	return d
}

// Remove drops every node registered under pattern.
func (d *Doc) Remove(pattern string) {
	delete(d.nodes, pattern)
}

// Navigate simulates a page navigation: every ref handed out so far
// becomes stale.
func (d *Doc) Navigate() {
	d.generation++
	d.byID = make(map[string]*Node)
}

func (d *Doc) Query(ctx context.Context, pattern string) ([]entity.ElementRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.refs(d.nodes[pattern]), nil
}

func (d *Doc) QueryIn(ctx context.Context, root entity.ElementRef, pattern string) ([]entity.ElementRef, error) {
	n, err := d.node(ctx, root)
	if err != nil {
		return nil, err
	}
	return d.refs(n.children[pattern]), nil
}

func (d *Doc) IsVisible(ctx context.Context, ref entity.ElementRef) (bool, error) {
	n, err := d.node(ctx, ref)
	if err != nil {
		return false, err
	}
	return n.visible(), nil
}

func (d *Doc) BoundingBox(ctx context.Context, ref entity.ElementRef) (*entity.Rect, error) {
	n, err := d.node(ctx, ref)
	if err != nil {
		return nil, err
	}
	if n.Hidden {
		return nil, nil
	}
	if n.Box != nil {
		box := *n.Box
		return &box, nil
	}
	box := defaultBox
	return &box, nil
}

func (d *Doc) TextContent(ctx context.Context, ref entity.ElementRef) (string, error) {
	n, err := d.node(ctx, ref)
	if err != nil {
		return "", err
	}
	return n.Text, nil
}

func (d *Doc) InputValue(ctx context.Context, ref entity.ElementRef) (string, error) {
	n, err := d.node(ctx, ref)
	if err != nil {
		return "", err
	}
	return n.Value, nil
}

func (d *Doc) HTML(ctx context.Context, ref entity.ElementRef) (string, error) {
	n, err := d.node(ctx, ref)
	if err != nil {
		return "", err
	}
	return n.HTML, nil
}

func (d *Doc) Attribute(ctx context.Context, ref entity.ElementRef, name string) (string, bool, error) {
	n, err := d.node(ctx, ref)
	if err != nil {
		return "", false, err
	}
	v, ok := n.Attrs[name]
	return v, ok, nil
}

func (d *Doc) Click(ctx context.Context, ref entity.ElementRef, opts entity.ClickOptions) error {
	n, err := d.node(ctx, ref)
	if err != nil {
		return err
	}
	if opts.Force {
		d.ForceClicks = append(d.ForceClicks, ref.ID)
	} else {
		d.Clicks = append(d.Clicks, ref.ID)
	}
	if n.OnClick != nil {
		return n.OnClick(opts.Force)
	}
	return nil
}

func (d *Doc) Fill(ctx context.Context, ref entity.ElementRef, value string) error {
	n, err := d.node(ctx, ref)
	if err != nil {
		return err
	}
	if n.OnFill != nil {
		return n.OnFill(value)
	}
	n.Value = value
	return nil
}

func (d *Doc) PressKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.Keys = append(d.Keys, key)
	if d.OnKey != nil {
		return d.OnKey(key)
	}
	return nil
}

func (d *Doc) Evaluate(ctx context.Context, ref *entity.ElementRef, js string, args ...any) (gson.JSON, error) {
	var target *Node
	if ref != nil {
		n, err := d.node(ctx, *ref)
		if err != nil {
			return gson.New(nil), err
		}
		target = n
	} else if err := ctx.Err(); err != nil {
		return gson.New(nil), err
	}

	if d.OnEvaluate == nil {
		return gson.New(nil), nil
	}
	v, err := d.OnEvaluate(target, js, args)
	if err != nil {
		return gson.New(nil), err
	}
	return gson.New(v), nil
}

func (d *Doc) WaitForLoad(ctx context.Context) error {
	d.Loads++
	return ctx.Err()
}

func (d *Doc) Screenshot(ctx context.Context, path string) error {
	d.Screenshots = append(d.Screenshots, path)
	return ctx.Err()
}

func (d *Doc) Frame(ctx context.Context, ref entity.ElementRef) (output.DocumentDriver, error) {
	n, err := d.node(ctx, ref)
	if err != nil {
		return nil, err
	}
	if n.FrameErr != nil {
		return nil, &entity.FrameAccessError{Frame: ref.ID, Reason: "scripted", Err: n.FrameErr}
	}
	if n.Frame == nil {
		return nil, &entity.FrameAccessError{Frame: ref.ID, Reason: "not a frame"}
	}
	return n.Frame, nil
}

func (d *Doc) Download(ctx context.Context, ref entity.ElementRef) (*entity.Download, error) {
	n, err := d.node(ctx, ref)
	if err != nil {
		return nil, err
	}
	if n.DownloadErr != nil {
		return nil, n.DownloadErr
	}
	if n.Download == nil {
		return nil, fmt.Errorf("%w: element %s produced no file", entity.ErrDownloadFailed, ref.ID)
	}
	return n.Download, nil
}

// Ref returns the ref of a registered node, assigning one if needed.
func (d *Doc) Ref(n *Node) entity.ElementRef {
	if n.id == "" || d.byID[n.id] != n {
		d.seq++
		n.id = "mem-" + strconv.Itoa(d.seq)
		d.byID[n.id] = n
	}
	return entity.ElementRef{ID: n.id, Generation: d.generation}
}

func (d *Doc) refs(nodes []*Node) []entity.ElementRef {
	out := make([]entity.ElementRef, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, d.Ref(n))
	}
	return out
}

func (d *Doc) node(ctx context.Context, ref entity.ElementRef) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ref.Generation != d.generation {
		return nil, fmt.Errorf("%w: %s", entity.ErrStaleElement, ref.ID)
	}
	n, ok := d.byID[ref.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrStaleElement, ref.ID)
	}
	return n, nil
}
