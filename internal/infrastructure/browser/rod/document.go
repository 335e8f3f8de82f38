package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.DocumentDriver = (*Document)(nil)

const boxJS = `function() {
	const r = this.getBoundingClientRect();
	return {x: r.x, y: r.y, width: r.width, height: r.height};
}`

const forceClickJS = `function() { this.click(); }`

var keys = map[string]input.Key{
	"Escape":    input.Escape,
	"Enter":     input.Enter,
	"Tab":       input.Tab,
	"Space":     input.Space,
	"Backspace": input.Backspace,
}

// maxElements bounds the handles kept per page generation. The oldest
// refs go stale first once the bound is reached.
const maxElements = 2048

// registry hands out element refs. A page and all of its frames share one
// registry so a navigation invalidates every ref at once.
type registry struct {
	mu         sync.Mutex
	generation uint64
	seq        int
	oldest     int
	limit      int
	elements   map[string]*rod.Element
}

func newRegistry() *registry {
	return &registry{elements: make(map[string]*rod.Element), oldest: 1, limit: maxElements}
}

func (r *registry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.oldest = r.seq + 1
	r.elements = make(map[string]*rod.Element)
}

func (r *registry) add(els rod.Elements) []entity.ElementRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.ElementRef, 0, len(els))
	for _, el := range els {
		r.seq++
		id := "el-" + strconv.Itoa(r.seq)
		r.elements[id] = el
		out = append(out, entity.ElementRef{ID: id, Generation: r.generation})
	}
	for len(r.elements) > r.limit {
		delete(r.elements, "el-"+strconv.Itoa(r.oldest))
		r.oldest++
	}
	return out
}

func (r *registry) get(ref entity.ElementRef) (*rod.Element, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	el, ok := r.elements[ref.ID]
	if !ok || ref.Generation != r.generation {
		return nil, fmt.Errorf("%w: %s", entity.ErrStaleElement, ref.ID)
	}
	return el, nil
}

// Document is a DocumentDriver over one rod page or frame.
type Document struct {
	page *rod.Page
	reg  *registry
	cfg  BrowserConfig
}

func newDocument(page *rod.Page, reg *registry, cfg BrowserConfig) *Document {
	return &Document{page: page, reg: reg, cfg: cfg}
}

func (d *Document) Query(ctx context.Context, pattern string) ([]entity.ElementRef, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	p := d.page.Context(ctx)
	var (
		els rod.Elements
		err error
	)
	if entity.IsXPath(pattern) {
		els, err = p.ElementsX(entity.TrimXPath(pattern))
	} else {
		els, err = p.Elements(pattern)
	}
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", pattern, err)
	}
	return d.reg.add(els), nil
}

func (d *Document) QueryIn(ctx context.Context, root entity.ElementRef, pattern string) ([]entity.ElementRef, error) {
	el, cancel, err := d.element(ctx, root)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var els rod.Elements
	if entity.IsXPath(pattern) {
		els, err = el.ElementsX(entity.TrimXPath(pattern))
	} else {
		els, err = el.Elements(pattern)
	}
	if err != nil {
		return nil, d.wrap(root, err)
	}
	return d.reg.add(els), nil
}

func (d *Document) IsVisible(ctx context.Context, ref entity.ElementRef) (bool, error) {
	el, cancel, err := d.element(ctx, ref)
	if err != nil {
		return false, err
	}
	defer cancel()

	visible, err := el.Visible()
	if err != nil {
		return false, d.wrap(ref, err)
	}
	return visible, nil
}

func (d *Document) BoundingBox(ctx context.Context, ref entity.ElementRef) (*entity.Rect, error) {
	el, cancel, err := d.element(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer cancel()

	res, err := el.Eval(boxJS)
	if err != nil {
		return nil, d.wrap(ref, err)
	}
	v := res.Value
	return &entity.Rect{
		X:      v.Get("x").Num(),
		Y:      v.Get("y").Num(),
		Width:  v.Get("width").Num(),
		Height: v.Get("height").Num(),
	}, nil
}

func (d *Document) TextContent(ctx context.Context, ref entity.ElementRef) (string, error) {
	el, cancel, err := d.element(ctx, ref)
	if err != nil {
		return "", err
	}
	defer cancel()

	text, err := el.Text()
	if err != nil {
		return "", d.wrap(ref, err)
	}
	return text, nil
}

func (d *Document) InputValue(ctx context.Context, ref entity.ElementRef) (string, error) {
	el, cancel, err := d.element(ctx, ref)
	if err != nil {
		return "", err
	}
	defer cancel()

	v, err := el.Property("value")
	if err != nil {
		return "", d.wrap(ref, err)
	}
	if v.Nil() {
		return "", nil
	}
	return v.Str(), nil
}

func (d *Document) HTML(ctx context.Context, ref entity.ElementRef) (string, error) {
	el, cancel, err := d.element(ctx, ref)
	if err != nil {
		return "", err
	}
	defer cancel()

	html, err := el.HTML()
	if err != nil {
		return "", d.wrap(ref, err)
	}
	return html, nil
}

func (d *Document) Attribute(ctx context.Context, ref entity.ElementRef, name string) (string, bool, error) {
	el, cancel, err := d.element(ctx, ref)
	if err != nil {
		return "", false, err
	}
	defer cancel()

	v, err := el.Attribute(name)
	if err != nil {
		return "", false, d.wrap(ref, err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// Click performs a real pointer click, which fails when another element
// covers the target. Force dispatches the click on the element directly.
func (d *Document) Click(ctx context.Context, ref entity.ElementRef, opts entity.ClickOptions) error {
	el, cancel, err := d.element(ctx, ref)
	if err != nil {
		return err
	}
	defer cancel()

	if opts.Force {
		_, err = el.Eval(forceClickJS)
	} else {
		err = el.Click(proto.InputMouseButtonLeft, 1)
	}
	if err != nil {
		return fmt.Errorf("click failed: %w", d.wrap(ref, err))
	}
	return nil
}

func (d *Document) Fill(ctx context.Context, ref entity.ElementRef, value string) error {
	el, cancel, err := d.element(ctx, ref)
	if err != nil {
		return err
	}
	defer cancel()

	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("input failed: %w", d.wrap(ref, err))
	}
	return nil
}

func (d *Document) PressKey(ctx context.Context, key string) error {
	k, ok := keys[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	ctx, cancel := d.bound(ctx)
	defer cancel()

	if err := d.page.Context(ctx).Keyboard.Press(k); err != nil {
		return fmt.Errorf("failed to press %s: %w", key, err)
	}
	return nil
}

func (d *Document) Evaluate(ctx context.Context, ref *entity.ElementRef, js string, args ...any) (gson.JSON, error) {
	var (
		res *proto.RuntimeRemoteObject
		err error
	)
	if ref != nil {
		el, cancel, elErr := d.element(ctx, *ref)
		if elErr != nil {
			return gson.New(nil), elErr
		}
		defer cancel()
		res, err = el.Eval(js, args...)
	} else {
		bctx, cancel := d.bound(ctx)
		defer cancel()
		res, err = d.page.Context(bctx).Eval(js, args...)
	}
	if err != nil {
		return gson.New(nil), fmt.Errorf("evaluate failed: %w", err)
	}
	return res.Value, nil
}

func (d *Document) WaitForLoad(ctx context.Context) error {
	ctx, cancel := d.bound(ctx)
	defer cancel()
	return d.page.Context(ctx).WaitLoad()
}

func (d *Document) Screenshot(ctx context.Context, path string) error {
	shot, err := d.capture(ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	return os.WriteFile(path, shot.Data, 0o644)
}

func (d *Document) capture(ctx context.Context) (*entity.Screenshot, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	imgBytes, err := d.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}
	if img.Bounds().Dx() > d.cfg.ScreenshotWidth {
		img = imaging.Resize(img, d.cfg.ScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (d *Document) Frame(ctx context.Context, ref entity.ElementRef) (output.DocumentDriver, error) {
	el, cancel, err := d.element(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer cancel()

	frame, err := el.Frame()
	if err != nil {
		return nil, &entity.FrameAccessError{Frame: ref.ID, Reason: "detached", Err: err}
	}
	// cross-origin documents refuse script access
	state, err := frame.Eval(`function() { return document.readyState; }`)
	if err != nil {
		return nil, &entity.FrameAccessError{Frame: ref.ID, Reason: "no script access", Err: err}
	}
	if s := state.Value.Str(); s == "loading" {
		return nil, &entity.FrameAccessError{Frame: ref.ID, Reason: "loading"}
	}
	return newDocument(frame, d.reg, d.cfg), nil
}

// Download clicks ref and waits for the browser to finish the file it
// starts.
func (d *Document) Download(ctx context.Context, ref entity.ElementRef) (*entity.Download, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	wait := d.page.Browser().Context(ctx).WaitDownload(d.cfg.DownloadDir)
	if err := d.Click(ctx, ref, entity.ClickOptions{}); err != nil {
		if err := d.Click(ctx, ref, entity.ClickOptions{Force: true}); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrDownloadFailed, err)
		}
	}

	info := wait()
	if info == nil {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrDownloadFailed, err)
		}
		return nil, fmt.Errorf("%w: no download started", entity.ErrDownloadFailed)
	}

	path := filepath.Join(d.cfg.DownloadDir, info.GUID)
	defer os.Remove(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDownloadFailed, err)
	}

	name := info.SuggestedFilename
	return &entity.Download{
		Name:        name,
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(name))),
		Data:        data,
	}, nil
}

func (d *Document) element(ctx context.Context, ref entity.ElementRef) (*rod.Element, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, func() {}, err
	}
	el, err := d.reg.get(ref)
	if err != nil {
		return nil, func() {}, err
	}
	ctx, cancel := d.bound(ctx)
	return el.Context(ctx), cancel, nil
}

func (d *Document) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.cfg.Timeout)
}

// wrap maps errors from a detached node onto ErrStaleElement.
func (d *Document) wrap(ref entity.ElementRef, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "Could not find node") ||
		strings.Contains(msg, "Cannot find context") ||
		strings.Contains(msg, "Node is detached") ||
		strings.Contains(msg, "Cannot find object") {
		return fmt.Errorf("%w: %s: %v", entity.ErrStaleElement, ref.ID, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s: %w", ref.ID, err)
}
