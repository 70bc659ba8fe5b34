package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Chrome drives a Chromium instance through the DevTools protocol.
type Chrome struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// NewChrome starts a browser with the given options. The portal uses a
// certificate chain some distributions reject, so certificate errors are
// ignored.
func NewChrome(opts Options) (Driver, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{},
		chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(1920, 1080),
	)
	if opts.ProfileDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.ProfileDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// Run a no-op so startup failures surface here instead of on the
	// first page action.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Chrome{ctx: ctx, cancel: cancel, allocCancel: allocCancel}, nil
}

func (c *Chrome) Navigate(url string) error {
	return chromedp.Run(c.ctx, chromedp.Navigate(url))
}

func (c *Chrome) WaitFor(sel string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.WaitVisible(sel, chromedp.BySearch))
}

func (c *Chrome) Click(sel string) error {
	return chromedp.Run(c.ctx, chromedp.Click(sel, chromedp.BySearch))
}

func (c *Chrome) Fill(sel, value string) error {
	return chromedp.Run(c.ctx,
		chromedp.Clear(sel, chromedp.BySearch),
		chromedp.SendKeys(sel, value, chromedp.BySearch),
	)
}

func (c *Chrome) Attr(sel, name string) (string, bool, error) {
	var value string
	var ok bool
	err := chromedp.Run(c.ctx, chromedp.AttributeValue(sel, name, &value, &ok, chromedp.BySearch))
	return value, ok, err
}

func (c *Chrome) TableRows(sel string) ([][]string, error) {
	script := fmt.Sprintf(`(() => {
		const res = document.evaluate(%q, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		const rows = [];
		for (let i = 0; i < res.snapshotLength; i++) {
			const tr = res.snapshotItem(i);
			rows.push(Array.from(tr.cells || []).map(c => c.innerText.trim()));
		}
		return rows;
	})()`, sel)

	var rows [][]string
	if err := chromedp.Run(c.ctx, chromedp.Evaluate(script, &rows)); err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	return rows, nil
}

func (c *Chrome) Screenshot() ([]byte, error) {
	var buf []byte
	if err := chromedp.Run(c.ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *Chrome) Close() error {
	c.cancel()
	c.allocCancel()
	return nil
}
