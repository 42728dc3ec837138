package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Browser wraps one shared headless Chrome process. Each lookup runs in its
// own tab so concurrent requests do not trample each other's navigation.
type Browser struct {
	allocCtx   context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
}

// NewBrowser starts the shared Chrome allocator.
func NewBrowser(navTimeout time.Duration) *Browser {
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Browser{allocCtx: allocCtx, cancel: cancel, navTimeout: navTimeout}
}

// CollectHrefs navigates to pageURL in a fresh tab and returns every anchor
// href on the page.
func (b *Browser) CollectHrefs(ctx context.Context, pageURL string) ([]string, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.navTimeout)
	defer cancelTimeout()

	// honor the caller's cancellation as well
	go func() {
		select {
		case <-ctx.Done():
			cancelTab()
		case <-tabCtx.Done():
		}
	}()

	var hrefs []string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(`Array.from(document.querySelectorAll('a')).map(a => a.href)`, &hrefs),
	)
	if err != nil {
		return nil, fmt.Errorf("collect hrefs %s: %w", pageURL, err)
	}
	return hrefs, nil
}

// Close shuts the shared Chrome process down.
func (b *Browser) Close() {
	b.cancel()
}
