package rod

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	defaultTimeout         = 15 * time.Second
	defaultSlowMotion      = 0
	defaultScreenshotWidth = 1280
)

var (
	ErrBrowserNotConnected = errors.New("browser not connected")
	ErrInvalidURL          = errors.New("invalid url")
)

type BrowserConfig struct {
	Headless   bool
	SlowMotion time.Duration
	// Timeout bounds every single driver call that has no deadline of its own.
	Timeout   time.Duration
	NoSandbox bool
	DevTools  bool
	// DownloadDir receives export files before they are read into memory.
	// Empty uses a temporary directory.
	DownloadDir     string
	ScreenshotWidth int
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:        true,
		SlowMotion:      defaultSlowMotion,
		Timeout:         defaultTimeout,
		NoSandbox:       false,
		DevTools:        false,
		ScreenshotWidth: defaultScreenshotWidth,
	}
}

// BrowserAdapter owns the Chrome process and the single page the
// extraction runs against.
type BrowserAdapter struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	doc      *Document
	tempDir  string
	closed   bool
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ScreenshotWidth <= 0 {
		cfg.ScreenshotWidth = defaultScreenshotWidth
	}

	var tempDir string
	if cfg.DownloadDir == "" {
		dir, err := os.MkdirTemp("", "claim-extractor-downloads-")
		if err != nil {
			return nil, fmt.Errorf("failed to create download dir: %w", err)
		}
		cfg.DownloadDir = dir
		tempDir = dir
	}

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")

	controlURL, err := l.Launch()
	if err != nil {
		cleanupDir(tempDir)
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(controlURL).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		cleanupDir(tempDir)
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		cleanupDir(tempDir)
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	doc := newDocument(page, newRegistry(), cfg)
	// navigations the page starts itself (redirects, form posts) also
	// invalidate refs
	go page.EachEvent(func(e *proto.PageFrameNavigated) {
		if e.Frame != nil && e.Frame.ParentID == "" {
			doc.reg.reset()
		}
	})()

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		doc:      doc,
		tempDir:  tempDir,
	}, nil
}

// Document is the driver for the adapter's page. It stays valid across
// navigations; element refs do not.
func (b *BrowserAdapter) Document() *Document {
	return b.doc
}

func (b *BrowserAdapter) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed && b.browser != nil && b.page != nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, rawURL string) error {
	if !b.IsReady() {
		return ErrBrowserNotConnected
	}
	if err := validateURL(rawURL); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, b.doc.cfg.Timeout)
	defer cancel()

	b.doc.reg.reset()
	p := b.page.Context(ctx)
	if err := p.Navigate(rawURL); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("page load failed: %w", err)
	}
	_ = p.WaitIdle(2 * time.Second)
	return nil
}

func (b *BrowserAdapter) CurrentURL() string {
	if !b.IsReady() {
		return ""
	}
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true

	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
	cleanupDir(b.tempDir)
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "http", "https", "file":
		return nil
	default:
		return fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
	}
}

func cleanupDir(dir string) {
	if dir != "" {
		_ = os.RemoveAll(dir)
	}
}
