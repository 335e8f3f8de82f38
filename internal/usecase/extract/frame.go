package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/usecase/selector"
)

var DefaultFramePatterns = []string{
	"iframe[id*='report' i]",
	"iframe[name*='report' i]",
	"iframe[src*='report' i]",
	"iframe.report-viewer",
	"frame",
}

type FrameConfig struct {
	Patterns []string
	// MaxDepth bounds how many frame levels are descended.
	MaxDepth int
	// Polls bounds how often an accessible frame is re-read while its
	// content is still loading.
	Polls        int
	PollInterval time.Duration
}

func DefaultFrameConfig() FrameConfig {
	return FrameConfig{
		Patterns:     DefaultFramePatterns,
		MaxDepth:     3,
		Polls:        3,
		PollInterval: 500 * time.Millisecond,
	}
}

// FrameHandle is one node of a frame tree. The top document has depth 0.
type FrameHandle struct {
	Doc   output.DocumentDriver
	Depth int
	Path  []string
}

func (h FrameHandle) String() string {
	return fmt.Sprintf("frame[%d]%v", h.Depth, h.Path)
}

// Frame reruns the in-page extractors against report-viewer frames,
// descending into nested frames. Inaccessible frames yield nothing.
type Frame struct {
	cfg   FrameConfig
	grid  *Grid
	table *Table
	sleep func(ctx context.Context, d time.Duration) error
}

func NewFrame(cfg FrameConfig, grid *Grid, table *Table) *Frame {
	def := DefaultFrameConfig()
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = def.Patterns
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.Polls <= 0 {
		cfg.Polls = 1
	}
	return &Frame{cfg: cfg, grid: grid, table: table, sleep: sleepWithContext}
}

// Depth returns 0 when no report frame is visible, 1 for a single frame and
// 2 or more when a report frame contains another one. An inaccessible frame
// still counts as present.
func (f *Frame) Depth(ctx context.Context, doc output.DocumentDriver) (int, error) {
	return f.depth(ctx, FrameHandle{Doc: doc})
}

func (f *Frame) depth(ctx context.Context, h FrameHandle) (int, error) {
	if h.Depth >= f.cfg.MaxDepth {
		return 0, nil
	}
	refs, err := f.frameElements(ctx, h.Doc)
	if err != nil || len(refs) == 0 {
		return 0, err
	}

	deepest := 1
	for _, ref := range refs {
		child, err := h.Doc.Frame(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			continue
		}
		d, err := f.depth(ctx, FrameHandle{Doc: child, Depth: h.Depth + 1})
		if err != nil {
			return 0, err
		}
		if d+1 > deepest {
			deepest = d + 1
		}
	}
	return deepest, nil
}

func (f *Frame) Extract(ctx context.Context, doc output.DocumentDriver) ([]entity.ExtractionCandidate, error) {
	return f.extractFrom(ctx, FrameHandle{Doc: doc})
}

func (f *Frame) extractFrom(ctx context.Context, h FrameHandle) ([]entity.ExtractionCandidate, error) {
	if h.Depth >= f.cfg.MaxDepth {
		return nil, nil
	}
	children, err := f.children(ctx, h)
	if err != nil {
		return nil, err
	}

	for _, child := range children {
		for poll := 0; poll < f.cfg.Polls; poll++ {
			if poll > 0 {
				if err := f.sleep(ctx, f.cfg.PollInterval); err != nil {
					return nil, err
				}
			}

			cands, err := f.inFrame(ctx, child)
			if err != nil {
				return nil, err
			}
			if len(cands) > 0 {
				return cands, nil
			}

			grandchildren, err := f.frameElements(ctx, child.Doc)
			if err != nil {
				return nil, err
			}
			if len(grandchildren) > 0 {
				nested, err := f.extractFrom(ctx, child)
				if err != nil {
					return nil, err
				}
				if len(nested) > 0 {
					return nested, nil
				}
				break
			}
		}
	}
	return nil, nil
}

// children opens every visible report frame of h. Frames that refuse access
// are skipped.
func (f *Frame) children(ctx context.Context, h FrameHandle) ([]FrameHandle, error) {
	refs, err := f.frameElements(ctx, h.Doc)
	if err != nil {
		return nil, err
	}

	var out []FrameHandle
	for _, ref := range refs {
		doc, err := f.open(ctx, h.Doc, ref)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if err := doc.WaitForLoad(ctx); err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		path := append(append([]string(nil), h.Path...), ref.ID)
		out = append(out, FrameHandle{Doc: doc, Depth: h.Depth + 1, Path: path})
	}
	return out, nil
}

// open retries a frame that is not accessible yet. Any other failure, such
// as a stale element, is returned at once.
func (f *Frame) open(ctx context.Context, parent output.DocumentDriver, ref entity.ElementRef) (output.DocumentDriver, error) {
	var lastErr error
	for poll := 0; poll < f.cfg.Polls; poll++ {
		if poll > 0 {
			if err := f.sleep(ctx, f.cfg.PollInterval); err != nil {
				return nil, err
			}
		}
		doc, err := parent.Frame(ctx, ref)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		var fae *entity.FrameAccessError
		if !errors.As(err, &fae) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (f *Frame) inFrame(ctx context.Context, h FrameHandle) ([]entity.ExtractionCandidate, error) {
	for _, ex := range []interface {
		Extract(context.Context, output.DocumentDriver) ([]entity.ExtractionCandidate, error)
	}{f.grid, f.table} {
		cands, err := ex.Extract(ctx, h.Doc)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if len(cands) == 0 {
			continue
		}
		for i := range cands {
			cands[i].SourceTag = fmt.Sprintf("frame[%d]/%s", h.Depth, cands[i].SourceTag)
		}
		return cands, nil
	}
	return nil, nil
}

func (f *Frame) frameElements(ctx context.Context, doc output.DocumentDriver) ([]entity.ElementRef, error) {
	r := selector.New(doc, selector.Config{Attempts: 1})
	seen := make(map[string]bool)
	var out []entity.ElementRef
	for _, pattern := range f.cfg.Patterns {
		refs, err := r.VisibleAll(ctx, pattern)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			if !seen[ref.ID] {
				seen[ref.ID] = true
				out = append(out, ref)
			}
		}
	}
	return out, nil
}

// FrameSource exposes a Frame extractor under one of the two frame kinds.
type FrameSource struct {
	Frame  *Frame
	Nested bool
}

func (s FrameSource) Present(ctx context.Context, doc output.DocumentDriver) (bool, error) {
	d, err := s.Frame.Depth(ctx, doc)
	if err != nil {
		return false, err
	}
	if s.Nested {
		return d >= 2, nil
	}
	return d == 1, nil
}

func (s FrameSource) Extract(ctx context.Context, doc output.DocumentDriver) ([]entity.ExtractionCandidate, error) {
	return s.Frame.Extract(ctx, doc)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
