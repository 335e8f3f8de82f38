package obstruction

import (
	"context"
	"strings"

	"claim-extractor/internal/domain/entity"
)

var overlayPatterns = []string{
	"[role='dialog']",
	"[role='alertdialog']",
	"[aria-modal='true']",
	".modal.show",
	".modal.in",
	".modal[style*='display: block']",
	".ui-dialog",
	".swal2-popup",
	".mat-dialog-container",
	".MuiDialog-root",
	".k-window",
}

var buttonPatterns = []string{
	"button",
	"[role='button']",
	"input[type='button']",
	"input[type='submit']",
	"a.btn",
}

var closeStrategy = entity.NewStrategy("close-affordance",
	"[aria-label*='close' i]",
	"button.close",
	".btn-close",
	"[data-dismiss='modal']",
	"[data-bs-dismiss='modal']",
	".ui-dialog-titlebar-close",
	".swal2-close",
	".mat-dialog-close",
	"xpath=//button[normalize-space(.)='×' or normalize-space(.)='Close']",
	"xpath=//a[normalize-space(.)='×' or normalize-space(.)='Close']",
	"xpath=//span[normalize-space(.)='×']",
)

var documentCancelPatterns = []string{
	"xpath=//*[normalize-space(text())='Cancel']",
	"button",
	"a",
	"span",
	"div[role='button']",
	"[role='button']",
	"input[type='button']",
}

var backdropStrategy = entity.NewStrategy("backdrop",
	".modal-backdrop",
	".ui-widget-overlay",
	".cdk-overlay-backdrop",
	".MuiBackdrop-root",
	".swal2-container",
	".k-overlay",
)

const pointerSequenceJS = `function() {
	const r = this.getBoundingClientRect();
	const opts = { bubbles: true, cancelable: true, view: window, clientX: r.x + r.width / 2, clientY: r.y + r.height / 2 };
	for (const type of ['pointerdown', 'mousedown', 'pointerup', 'mouseup', 'click']) {
		const Ev = type.startsWith('pointer') && window.PointerEvent ? PointerEvent : MouseEvent;
		this.dispatchEvent(new Ev(type, opts));
	}
	return true;
}`

const geometryScanJS = `() => {
	let clicked = 0;
	for (const el of document.querySelectorAll('body *')) {
		const text = (el.innerText || el.value || '').trim();
		if (text !== 'Cancel') continue;
		const r = el.getBoundingClientRect();
		if (r.width <= 0 || r.height <= 0) continue;
		const opts = { bubbles: true, cancelable: true, view: window, clientX: r.x + r.width / 2, clientY: r.y + r.height / 2 };
		for (const type of ['pointerdown', 'mousedown', 'pointerup', 'mouseup', 'click']) {
			const Ev = type.startsWith('pointer') && window.PointerEvent ? PointerEvent : MouseEvent;
			el.dispatchEvent(new Ev(type, opts));
		}
		clicked++;
	}
	return clicked;
}`

const (
	StrategyCancelButton    = "cancel-button"
	StrategyCloseAffordance = "close-affordance"
	StrategyEscapeKey       = "escape-key"
	StrategyDocumentCancel  = "document-cancel"
	StrategyBackdrop        = "backdrop"
	StrategyGeometryScan    = "geometry-scan"

	cancelLabel = "Cancel"
)

type strategy struct {
	name string
	run  func(ctx context.Context) (bool, error)
}

func (c *Clearer) strategies() []strategy {
	return []strategy{
		{StrategyCancelButton, c.clickCancelButton},
		{StrategyCloseAffordance, c.clickCloseAffordance},
		{StrategyEscapeKey, c.pressEscape},
		{StrategyDocumentCancel, c.dispatchDocumentCancel},
		{StrategyBackdrop, c.clickBackdrop},
	}
}

func (c *Clearer) clickCancelButton(ctx context.Context) (bool, error) {
	for _, pattern := range buttonPatterns {
		refs, err := c.resolver.VisibleAll(ctx, pattern)
		if err != nil {
			return false, err
		}
		for _, ref := range refs {
			if c.accessibleName(ctx, ref) != cancelLabel {
				continue
			}
			if err := c.resolver.ClickRef(ctx, ref, StrategyCancelButton); err != nil {
				if ctx.Err() != nil {
					return false, ctx.Err()
				}
				continue
			}
			return true, nil
		}
	}
	return false, nil
}

func (c *Clearer) clickCloseAffordance(ctx context.Context) (bool, error) {
	res, err := c.resolver.Resolve(ctx, closeStrategy)
	if err != nil {
		return false, ctx.Err()
	}
	if err := c.resolver.ClickRef(ctx, res.Ref, StrategyCloseAffordance); err != nil {
		return false, ctx.Err()
	}
	return true, nil
}

func (c *Clearer) pressEscape(ctx context.Context) (bool, error) {
	if err := c.doc.PressKey(ctx, "Escape"); err != nil {
		return false, ctx.Err()
	}
	return true, nil
}

// dispatchDocumentCancel targets overlays whose Cancel control ignores
// trusted clicks but listens for raw pointer events.
func (c *Clearer) dispatchDocumentCancel(ctx context.Context) (bool, error) {
	seen := make(map[string]bool)
	dispatched := false
	for _, pattern := range documentCancelPatterns {
		refs, err := c.doc.Query(ctx, pattern)
		if err != nil {
			if ctx.Err() != nil {
				return dispatched, ctx.Err()
			}
			continue
		}
		for _, ref := range refs {
			if seen[ref.ID] {
				continue
			}
			seen[ref.ID] = true

			text, err := c.doc.TextContent(ctx, ref)
			if err != nil || strings.TrimSpace(text) != cancelLabel {
				continue
			}
			ref := ref
			if _, err := c.doc.Evaluate(ctx, &ref, pointerSequenceJS); err != nil {
				if ctx.Err() != nil {
					return dispatched, ctx.Err()
				}
				continue
			}
			dispatched = true
		}
	}
	return dispatched, nil
}

func (c *Clearer) clickBackdrop(ctx context.Context) (bool, error) {
	res, err := c.resolver.Resolve(ctx, backdropStrategy)
	if err != nil {
		return false, ctx.Err()
	}
	if err := c.doc.Click(ctx, res.Ref, entity.ClickOptions{Force: true}); err != nil {
		return false, ctx.Err()
	}
	return true, nil
}

func (c *Clearer) geometryScan(ctx context.Context) (bool, error) {
	res, err := c.doc.Evaluate(ctx, nil, geometryScanJS)
	if err != nil {
		return false, ctx.Err()
	}
	return res.Int() > 0, nil
}

// accessibleName approximates the accessible name: aria-label, then
// rendered text, then the value of input buttons.
func (c *Clearer) accessibleName(ctx context.Context, ref entity.ElementRef) string {
	if label, ok, err := c.doc.Attribute(ctx, ref, "aria-label"); err == nil && ok && strings.TrimSpace(label) != "" {
		return strings.TrimSpace(label)
	}
	if text, err := c.doc.TextContent(ctx, ref); err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	if value, ok, err := c.doc.Attribute(ctx, ref, "value"); err == nil && ok {
		return strings.TrimSpace(value)
	}
	return ""
}
