package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/usecase/selector"

	gocache "github.com/patrickmn/go-cache"
)

var SpreadsheetExportStrategy = entity.NewStrategy("spreadsheet export",
	"a[href$='.xlsx' i]",
	"a[href$='.xls' i]",
	"a[href$='.csv' i]",
	"button[title*='Excel' i]",
	"[aria-label*='Excel' i]",
	"xpath=//button[contains(normalize-space(.),'Excel')]",
	"xpath=//a[contains(normalize-space(.),'Excel')]",
	"xpath=//*[self::a or self::button][contains(normalize-space(.),'CSV')]",
)

var PdfExportStrategy = entity.NewStrategy("pdf export",
	"a[href$='.pdf' i]",
	"button[title*='PDF' i]",
	"[aria-label*='PDF' i]",
	"xpath=//button[contains(normalize-space(.),'PDF')]",
	"xpath=//a[contains(normalize-space(.),'PDF')]",
)

// Fetcher downloads export files and remembers them while the page that
// offered them is loaded, so falling back from one format to another
// never repeats a download. Entries are keyed by document and page
// generation; a navigation or a different document misses the cache.
type Fetcher struct {
	cache *gocache.Cache
}

func NewFetcher(ttl time.Duration) *Fetcher {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Fetcher{cache: gocache.New(ttl, 2*ttl)}
}

// Available reports whether a visible affordance for strategy exists.
func (f *Fetcher) Available(ctx context.Context, doc output.DocumentDriver, strategy entity.SelectorStrategy) (bool, error) {
	r := selector.New(doc, selector.Config{Attempts: 1})
	if _, err := r.Resolve(ctx, strategy); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return true, nil
}

func (f *Fetcher) Fetch(ctx context.Context, doc output.DocumentDriver, strategy entity.SelectorStrategy) (*entity.Download, error) {
	r := selector.New(doc, selector.Config{Attempts: 1})
	res, err := r.Resolve(ctx, strategy)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", entity.ErrDownloadFailed, err)
	}

	key := f.key(ctx, doc, res)
	if v, ok := f.cache.Get(key); ok {
		return v.(*entity.Download), nil
	}

	d, err := doc.Download(ctx, res.Ref)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, entity.ErrDownloadFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrDownloadFailed, strategy.Label, err)
	}
	if d == nil || len(d.Data) == 0 {
		return nil, fmt.Errorf("%w: %s: empty file", entity.ErrDownloadFailed, strategy.Label)
	}

	f.cache.Set(key, d, gocache.DefaultExpiration)
	return d, nil
}

// Forget drops every cached download.
func (f *Fetcher) Forget() {
	f.cache.Flush()
}

func (f *Fetcher) key(ctx context.Context, doc output.DocumentDriver, res selector.Resolution) string {
	target, _, _ := doc.Attribute(ctx, res.Ref, "href")
	if target == "" {
		text, _ := doc.TextContent(ctx, res.Ref)
		target = strings.TrimSpace(text)
	}
	return fmt.Sprintf("%p|%d|%s|%s|%s", doc, res.Ref.Generation, res.Label, res.Pattern, target)
}
