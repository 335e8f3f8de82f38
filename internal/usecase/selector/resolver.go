package selector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/entity"
)

const fillFallbackJS = `function(value) {
	if (typeof this.focus === 'function') this.focus();
	const desc = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(this), 'value');
	if (desc && desc.set) { desc.set.call(this, value); } else { this.value = value; }
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
	return this.value;
}`

type Config struct {
	// Attempts bounds how many full ordered passes are made before NotFound.
	Attempts int
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Attempts: 3,
		Interval: 250 * time.Millisecond,
	}
}

type ActionKind string

const (
	ActionClick ActionKind = "click"
	ActionFill  ActionKind = "fill"
)

type Action struct {
	Kind  ActionKind
	Value string
}

func Click() Action {
	return Action{Kind: ActionClick}
}

func Fill(value string) Action {
	return Action{Kind: ActionFill, Value: value}
}

// Resolution records which strategy and pattern produced the element.
type Resolution struct {
	Ref     entity.ElementRef
	Label   string
	Pattern string
}

func (r Resolution) Source() string {
	return "selector:" + r.Pattern
}

type Resolver struct {
	doc   output.DocumentDriver
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
}

func New(doc output.DocumentDriver, cfg Config) *Resolver {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	return &Resolver{
		doc:   doc,
		cfg:   cfg,
		sleep: sleepWithContext,
	}
}

// Document returns the driver this resolver queries.
func (r *Resolver) Document() output.DocumentDriver {
	return r.doc
}

// Resolve returns the first visible element, trying strategies and their
// patterns strictly in order. A hidden match never stops the search.
func (r *Resolver) Resolve(ctx context.Context, strategies ...entity.SelectorStrategy) (Resolution, error) {
	for attempt := 1; attempt <= r.cfg.Attempts; attempt++ {
		if attempt > 1 {
			if err := r.sleep(ctx, r.cfg.Interval); err != nil {
				return Resolution{}, err
			}
		}

		for _, s := range strategies {
			for _, pattern := range s.Patterns {
				ref, ok, err := r.firstVisible(ctx, pattern)
				if err != nil {
					return Resolution{}, err
				}
				if ok {
					return Resolution{Ref: ref, Label: s.Label, Pattern: pattern}, nil
				}
			}
		}
	}

	return Resolution{}, fmt.Errorf("%w: %s", entity.ErrNotFound, labels(strategies))
}

func (r *Resolver) ResolveVisible(ctx context.Context, strategies ...entity.SelectorStrategy) (entity.ElementRef, error) {
	res, err := r.Resolve(ctx, strategies...)
	return res.Ref, err
}

// ResolveAndAct resolves and then performs action with its fallbacks.
func (r *Resolver) ResolveAndAct(ctx context.Context, action Action, strategies ...entity.SelectorStrategy) (Resolution, error) {
	res, err := r.Resolve(ctx, strategies...)
	if err != nil {
		return res, err
	}

	switch action.Kind {
	case ActionClick:
		err = r.ClickRef(ctx, res.Ref, res.Label)
	case ActionFill:
		err = r.FillRef(ctx, res.Ref, res.Label, action.Value)
	default:
		err = fmt.Errorf("unknown action %q", action.Kind)
	}
	return res, err
}

// ClickRef clicks normally and retries once with a forced click.
func (r *Resolver) ClickRef(ctx context.Context, ref entity.ElementRef, label string) error {
	soft := r.doc.Click(ctx, ref, entity.ClickOptions{})
	if soft == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	forced := r.doc.Click(ctx, ref, entity.ClickOptions{Force: true})
	if forced == nil {
		return nil
	}
	return &entity.ActionError{
		Action:   string(ActionClick),
		Strategy: label,
		Causes:   []error{fmt.Errorf("click: %w", soft), fmt.Errorf("forced click: %w", forced)},
	}
}

// FillRef writes through the focused element and falls back to assigning
// the value directly with synthetic input/change events.
func (r *Resolver) FillRef(ctx context.Context, ref entity.ElementRef, label, value string) error {
	focused := r.doc.Fill(ctx, ref, value)
	if focused == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	_, direct := r.doc.Evaluate(ctx, &ref, fillFallbackJS, value)
	if direct == nil {
		return nil
	}
	return &entity.ActionError{
		Action:   string(ActionFill),
		Strategy: label,
		Causes:   []error{fmt.Errorf("fill: %w", focused), fmt.Errorf("assign value: %w", direct)},
	}
}

// ReadValue resolves and returns the element's value: the live value of form
// controls, otherwise its rendered text.
func (r *Resolver) ReadValue(ctx context.Context, strategies ...entity.SelectorStrategy) (string, Resolution, error) {
	res, err := r.Resolve(ctx, strategies...)
	if err != nil {
		return "", res, err
	}

	value, err := r.doc.InputValue(ctx, res.Ref)
	if err == nil && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), res, nil
	}
	text, err := r.doc.TextContent(ctx, res.Ref)
	if err != nil {
		return "", res, err
	}
	return strings.TrimSpace(text), res, nil
}

// Visible applies the visibility contract: rendered (not display:none or
// visibility:hidden) and a non-zero bounding box.
func (r *Resolver) Visible(ctx context.Context, ref entity.ElementRef) (bool, error) {
	visible, err := r.doc.IsVisible(ctx, ref)
	if err != nil || !visible {
		return false, err
	}
	box, err := r.doc.BoundingBox(ctx, ref)
	if err != nil {
		return false, err
	}
	return box != nil && !box.Empty(), nil
}

// VisibleAll returns every visible match of pattern in document order.
func (r *Resolver) VisibleAll(ctx context.Context, pattern string) ([]entity.ElementRef, error) {
	refs, err := r.doc.Query(ctx, pattern)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}

	var out []entity.ElementRef
	for _, ref := range refs {
		ok, err := r.Visible(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if ok {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (r *Resolver) firstVisible(ctx context.Context, pattern string) (entity.ElementRef, bool, error) {
	refs, err := r.doc.Query(ctx, pattern)
	if err != nil {
		// An unsupported or malformed pattern only disqualifies itself.
		return entity.ElementRef{}, false, ctx.Err()
	}
	for _, ref := range refs {
		ok, err := r.Visible(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return entity.ElementRef{}, false, ctx.Err()
			}
			continue
		}
		if ok {
			return ref, true, nil
		}
	}
	return entity.ElementRef{}, false, nil
}

func labels(strategies []entity.SelectorStrategy) string {
	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, s.Label)
	}
	return strings.Join(names, ", ")
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
