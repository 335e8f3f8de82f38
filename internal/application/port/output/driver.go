package output

import (
	"context"

	"claim-extractor/internal/domain/entity"

	"github.com/ysmood/gson"
)

// DocumentDriver is the live document tree of one automated session. Calls
// must be made sequentially; the tree mutates underneath them.
type DocumentDriver interface {
	Query(ctx context.Context, pattern string) ([]entity.ElementRef, error)
	QueryIn(ctx context.Context, root entity.ElementRef, pattern string) ([]entity.ElementRef, error)

	IsVisible(ctx context.Context, ref entity.ElementRef) (bool, error)
	BoundingBox(ctx context.Context, ref entity.ElementRef) (*entity.Rect, error)
	TextContent(ctx context.Context, ref entity.ElementRef) (string, error)
	InputValue(ctx context.Context, ref entity.ElementRef) (string, error)
	HTML(ctx context.Context, ref entity.ElementRef) (string, error)
	Attribute(ctx context.Context, ref entity.ElementRef, name string) (string, bool, error)

	Click(ctx context.Context, ref entity.ElementRef, opts entity.ClickOptions) error
	Fill(ctx context.Context, ref entity.ElementRef, value string) error
	PressKey(ctx context.Context, key string) error

	// Evaluate runs js as a function. With a non-nil ref the function is
	// bound to the element (this); otherwise it runs at document level.
	Evaluate(ctx context.Context, ref *entity.ElementRef, js string, args ...any) (gson.JSON, error)

	WaitForLoad(ctx context.Context) error
	Screenshot(ctx context.Context, path string) error

	// Frame returns the document of an iframe/frame element. Inaccessible
	// frames return *entity.FrameAccessError.
	Frame(ctx context.Context, ref entity.ElementRef) (DocumentDriver, error)

	// Download activates ref and returns the file it produces.
	Download(ctx context.Context, ref entity.ElementRef) (*entity.Download, error)
}
