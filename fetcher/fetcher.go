// Package fetcher retrieves content units from the book server, over plain
// HTTP or through a headless browser.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pageahead/logging"
	"pageahead/session"
)

// ErrStatus is matched by errors.Is for every non-2xx response.
var ErrStatus = errors.New("unexpected status")

// StatusError carries the status of a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %s", e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Result contains the fetched markup and metadata.
type Result struct {
	HTML        string
	FinalURL    string // URL after following redirects
	UsedBrowser bool
	FetchTime   time.Duration
}

// Options configures the fetcher behavior.
type Options struct {
	UserAgent      string
	TimeoutSeconds int
	ChromePath     string // Path to Chrome binary (empty = auto-detect)
	UseBrowser     bool   // Always fetch through headless Chrome
	// BrowserFallback retries through headless Chrome when the plain
	// response looks like a bot challenge.
	BrowserFallback bool
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:       "pageahead/1.0 (Terminal Reader)",
		TimeoutSeconds:  30,
		BrowserFallback: true,
	}
}

// Timeout returns the configured timeout duration.
func (o Options) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// Fetcher loads content units for an endpoint.
type Fetcher struct {
	endpoint session.Endpoint
	opts     Options
	client   *http.Client
	logger   *slog.Logger
	browser  func(ctx context.Context, targetURL string) (*Result, error)
}

// New creates a fetcher. A nil client gets one with the configured timeout.
func New(endpoint session.Endpoint, opts Options, client *http.Client) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultOptions().UserAgent
	}
	if opts.TimeoutSeconds <= 0 {
		opts.TimeoutSeconds = DefaultOptions().TimeoutSeconds
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout()}
	}
	f := &Fetcher{endpoint: endpoint, opts: opts, client: client, logger: logging.Discard()}
	f.browser = f.WithBrowser
	return f
}

// SetLogger sets where fetch timings are reported. A nil logger discards them.
func (f *Fetcher) SetLogger(l *slog.Logger) {
	if l == nil {
		l = logging.Discard()
	}
	f.logger = l
}

// FetchContentUnit fetches the markup of one content unit.
func (f *Fetcher) FetchContentUnit(ctx context.Context, baseResource string, index int) (string, error) {
	result, err := f.Fetch(ctx, f.endpoint.Address(baseResource, index))
	if err != nil {
		return "", err
	}
	f.logger.Debug("fetch: unit received",
		"index", index,
		"url", result.FinalURL,
		"browser", result.UsedBrowser,
		"took", result.FetchTime.Round(time.Millisecond),
	)
	return result.HTML, nil
}

// Fetch retrieves targetURL using the configured strategy.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	if f.opts.UseBrowser {
		return f.browser(ctx, targetURL)
	}

	result, err := f.Simple(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	if blocked, reason := IsBlockedResponse(result.HTML); blocked {
		if !f.opts.BrowserFallback {
			return nil, fmt.Errorf("blocked: %s", reason)
		}
		return f.browser(ctx, targetURL)
	}
	return result, nil
}

// Simple fetches a URL using standard HTTP.
func (f *Fetcher) Simple(ctx context.Context, targetURL string) (*Result, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", targetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &Result{
		HTML:      string(body),
		FinalURL:  resp.Request.URL.String(),
		FetchTime: time.Since(start),
	}, nil
}

// IsBlockedResponse checks if the markup is a bot challenge rather than
// content.
func IsBlockedResponse(html string) (bool, string) {
	switch {
	case strings.Contains(html, "Just a moment..."),
		strings.Contains(html, "Checking your browser"),
		strings.Contains(html, "cf-browser-verification"):
		return true, "Cloudflare challenge"
	case strings.Contains(html, "captcha-delivery.com"):
		return true, "DataDome bot protection"
	case strings.Contains(html, "px-captcha"):
		return true, "PerimeterX bot protection"
	}
	return false, ""
}

// userDataDir returns a persistent directory for Chrome user data so
// cookies survive between fetches.
func userDataDir() string {
	dir, _ := os.UserCacheDir()
	return filepath.Join(dir, "pageahead-chrome-profile")
}
