package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	defaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	defaultPageLoadTimeout = 10 * time.Second
)

// PageFetcher returns the rendered markup of a page.
type PageFetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
	Close() error
}

// BrowserOptions configures the headless browser session.
type BrowserOptions struct {
	Headless        bool
	ExecPath        string
	UserAgent       string
	PageLoadTimeout time.Duration
	SettleMin       time.Duration
	SettleMax       time.Duration
}

// ChromeFetcher drives one headless Chrome process for the lifetime of a job.
type ChromeFetcher struct {
	opts        BrowserOptions
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
}

// NewChromeFetcher starts the browser. The caller must call Close, which quits it.
func NewChromeFetcher(parent context.Context, opts BrowserOptions) (*ChromeFetcher, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = defaultPageLoadTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// An empty Run allocates the browser and its first tab.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, newJobError(NavigationError, "browser startup", err)
	}
	log.Println("[I] [Browser] Headless browser started.")

	return &ChromeFetcher{opts: opts, ctx: ctx, cancel: cancel, allocCancel: allocCancel}, nil
}

// FetchHTML navigates to url, waits for the body, lets client-side rendering
// settle and returns the document markup.
func (c *ChromeFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	stop := context.AfterFunc(ctx, c.cancel)
	defer stop()

	log.Printf("[I] [Browser] Navigating to %s", url)
	navCtx, navCancel := context.WithTimeout(c.ctx, c.opts.PageLoadTimeout)
	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	navCancel()
	if err != nil {
		return "", newJobError(NavigationError, "page load", fmt.Errorf("%s: %w", url, err))
	}

	if d := settleDelay(c.opts.SettleMin, c.opts.SettleMax); d > 0 {
		log.Printf("[D] [Browser] Waiting %s for the page to settle...", d.Round(time.Millisecond))
		if err := sleepContext(c.ctx, d); err != nil {
			return "", newJobError(NavigationError, "page settle", err)
		}
	}

	var html string
	if err := chromedp.Run(c.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", newJobError(NavigationError, "read page source", err)
	}
	log.Printf("[D] [Browser] Page source captured (%d bytes).", len(html))
	return html, nil
}

// Close quits the browser. It is safe to call more than once.
func (c *ChromeFetcher) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.allocCancel()
		log.Println("[I] [Browser] Headless browser closed.")
	})
	return nil
}
