package fetcher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pageahead/logging"
	"pageahead/session"
)

func TestFetchContentUnit(t *testing.T) {
	var gotPath, gotBook, gotIndex, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBook = r.URL.Query().Get("url")
		gotIndex = r.URL.Query().Get("index")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`<div chapterindex="3"><div class="title">Three</div></div>`))
	}))
	defer srv.Close()

	f := New(session.DefaultEndpoint(srv.URL), DefaultOptions(), nil)
	content, err := f.FetchContentUnit(context.Background(), "book/a b", 3)
	if err != nil {
		t.Fatalf("FetchContentUnit failed: %v", err)
	}

	if !strings.Contains(content, "Three") {
		t.Errorf("unexpected content %q", content)
	}
	if gotPath != "/getBookContent" || gotBook != "book/a b" || gotIndex != "3" {
		t.Errorf("unexpected request path=%q url=%q index=%q", gotPath, gotBook, gotIndex)
	}
	if gotUA != DefaultOptions().UserAgent {
		t.Errorf("expected default user agent, got %q", gotUA)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(session.DefaultEndpoint(srv.URL), DefaultOptions(), nil)
	_, err := f.FetchContentUnit(context.Background(), "book", 99)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}

	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Errorf("expected StatusError with 404, got %v", err)
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	f := New(session.DefaultEndpoint(addr), DefaultOptions(), nil)
	if _, err := f.FetchContentUnit(context.Background(), "book", 1); err == nil {
		t.Fatal("expected error from closed server")
	}
}

func TestFetchBlockedFallsBackToBrowser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<title>Just a moment...</title>`))
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		fallback bool
		wantErr  bool
	}{
		{"fallback enabled", true, false},
		{"fallback disabled", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.BrowserFallback = tt.fallback
			f := New(session.DefaultEndpoint(srv.URL), opts, nil)

			browserCalls := 0
			f.browser = func(ctx context.Context, targetURL string) (*Result, error) {
				browserCalls++
				return &Result{HTML: "rendered", UsedBrowser: true}, nil
			}

			result, err := f.Fetch(context.Background(), srv.URL+"/getBookContent?url=b&index=0")
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "Cloudflare") {
					t.Errorf("expected blocked error, got %v", err)
				}
				if browserCalls != 0 {
					t.Errorf("browser should not be used, called %d times", browserCalls)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if !result.UsedBrowser || browserCalls != 1 {
				t.Errorf("expected one browser fetch, got %d (UsedBrowser=%v)", browserCalls, result.UsedBrowser)
			}
		})
	}
}

func TestUseBrowserSkipsHTTP(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.UseBrowser = true
	f := New(session.DefaultEndpoint(srv.URL), opts, nil)
	f.browser = func(ctx context.Context, targetURL string) (*Result, error) {
		return &Result{HTML: "via chrome", UsedBrowser: true}, nil
	}

	content, err := f.FetchContentUnit(context.Background(), "b", 1)
	if err != nil {
		t.Fatalf("FetchContentUnit failed: %v", err)
	}
	if content != "via chrome" || hits != 0 {
		t.Errorf("expected browser-only fetch, got %q with %d HTTP hits", content, hits)
	}
}

func TestIsBlockedResponse(t *testing.T) {
	tests := []struct {
		html    string
		blocked bool
	}{
		{`<div chapterindex="1">正文</div>`, false},
		{`<title>Just a moment...</title>`, true},
		{`<script src="https://ct.captcha-delivery.com/c.js">`, true},
		{`<div id="px-captcha"></div>`, true},
	}
	for _, tt := range tests {
		if blocked, _ := IsBlockedResponse(tt.html); blocked != tt.blocked {
			t.Errorf("IsBlockedResponse(%q) = %v, expected %v", tt.html, blocked, tt.blocked)
		}
	}
}

func TestFetchLogsTiming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div chapterindex="4"></div>`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	f := New(session.DefaultEndpoint(srv.URL), DefaultOptions(), nil)
	f.SetLogger(logging.New(&buf, slog.LevelDebug, false))

	if _, err := f.FetchContentUnit(context.Background(), "book", 4); err != nil {
		t.Fatalf("FetchContentUnit failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"fetch: unit received", "index=4", "browser=false", "took=", srv.URL + "/getBookContent"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}
