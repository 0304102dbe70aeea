package export

import (
	"context"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds one browser session.
	DefaultTimeout = 30 * time.Second
	// DefaultSelector is the share card root element.
	DefaultSelector = "#comparison-card"
	// DefaultScale matches a 2x device pixel ratio.
	DefaultScale = 2.0
	// DefaultViewportWidth fits the default card width.
	DefaultViewportWidth = 1280
	// DefaultViewportHeight is the initial viewport height; the element screenshot is not clipped to it.
	DefaultViewportHeight = 900
)

// Config controls headless rendering.
type Config struct {
	Timeout        time.Duration
	Selector       string
	Scale          float64
	ViewportWidth  int64
	ViewportHeight int64
	// ExecPath overrides Chrome discovery.
	ExecPath string
	Logger   *zap.Logger
}

// DefaultConfig returns the default export configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:        DefaultTimeout,
		Selector:       DefaultSelector,
		Scale:          DefaultScale,
		ViewportWidth:  DefaultViewportWidth,
		ViewportHeight: DefaultViewportHeight,
		Logger:         zap.NewNop(),
	}
}

func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Timeout <= 0 {
		out.Timeout = d.Timeout
	}
	if out.Selector == "" {
		out.Selector = d.Selector
	}
	if out.Scale <= 0 {
		out.Scale = d.Scale
	}
	if out.ViewportWidth <= 0 {
		out.ViewportWidth = d.ViewportWidth
	}
	if out.ViewportHeight <= 0 {
		out.ViewportHeight = d.ViewportHeight
	}
	if out.Logger == nil {
		out.Logger = d.Logger
	}
	return &out
}

// AllocatorOptions returns the exec allocator flags for a headless session.
func (c *Config) AllocatorOptions() []chromedp.ExecAllocatorOption {
	cfg := c.withDefaults()
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(int(cfg.ViewportWidth), int(cfg.ViewportHeight)),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// Screenshot loads html into a headless browser and returns a PNG of the
// element matched by the configured selector. Requires Chrome or Chromium.
func Screenshot(ctx context.Context, html string, config *Config) ([]byte, error) {
	if html == "" {
		return nil, &Error{Message: "html is empty"}
	}
	cfg := config.withDefaults()
	logger := cfg.Logger.Named("export")

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, cfg.AllocatorOptions()...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, cfg.Timeout)
	defer cancel()

	start := time.Now()
	var png []byte
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(cfg.ViewportWidth, cfg.ViewportHeight, chromedp.EmulateScale(cfg.Scale)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitVisible(cfg.Selector, chromedp.ByQuery),
		chromedp.Screenshot(cfg.Selector, &png, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &Error{Message: "browser rendering failed", Cause: err}
	}

	logger.Debug("rendered share card",
		zap.Int("bytes", len(png)),
		zap.Duration("elapsed", time.Since(start)))
	return png, nil
}

// WriteFile renders html and writes the PNG to path.
func WriteFile(ctx context.Context, html, path string, config *Config) error {
	png, err := Screenshot(ctx, html, config)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return &Error{Message: "failed to write image", Cause: err}
	}
	return nil
}
