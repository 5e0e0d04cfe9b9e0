package fetcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// browserTimeout gives headless fetches extra room over plain HTTP.
func (o Options) browserTimeout() time.Duration {
	timeout := o.Timeout()
	if timeout < 30*time.Second {
		return 45 * time.Second
	}
	return timeout + 15*time.Second
}

func (o Options) allocatorOptions() []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.Flag("headless", "new"),
		chromedp.UserAgent(o.UserAgent),
		chromedp.UserDataDir(userDataDir()),
	}
	if o.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(o.ChromePath))
	}
	return allocOpts
}

// WithBrowser fetches a URL through headless Chrome and returns the rendered
// document. The body text is returned when the response is not HTML.
func (f *Fetcher) WithBrowser(ctx context.Context, targetURL string) (*Result, error) {
	start := time.Now()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, f.opts.allocatorOptions()...)
	defer allocCancel()

	ctx, cancel := context.WithTimeout(allocCtx, f.opts.browserTimeout())
	defer cancel()

	ctx, cancel = chromedp.NewContext(ctx)
	defer cancel()

	var status atomic.Int64
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			status.Store(resp.Response.Status)
		}
	})

	var html string
	var finalURL string
	err := chromedp.Run(ctx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers(map[string]interface{}{
			"Accept":          "text/html,application/xhtml+xml,*/*;q=0.8",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
			"Cache-Control":   "no-cache",
		})),
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return nil, fmt.Errorf("browser fetch: %w", err)
	}
	if code := status.Load(); code != 0 && (code < 200 || code > 299) {
		return nil, &StatusError{Code: int(code), Status: fmt.Sprintf("%d", code)}
	}

	return &Result{
		HTML:        html,
		FinalURL:    finalURL,
		UsedBrowser: true,
		FetchTime:   time.Since(start),
	}, nil
}
