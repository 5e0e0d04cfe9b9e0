package observer

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type recorder struct {
	mu        sync.Mutex
	addresses []string
}

func (r *recorder) ObserveOutboundRequest(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addresses = append(r.addresses, address)
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.addresses...)
}

func newServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Header().Set("X-Echo", r.Header.Get("X-Token"))
		io.WriteString(w, r.URL.RawQuery)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestClientDoObservesWithoutAltering(t *testing.T) {
	srv, hits := newServer(t)
	rec := &recorder{}
	client := NewClient(nil, rec)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/getBookContent?url=b&index=2", nil)
	req.Header.Set("X-Token", "secret")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if string(body) != "url=b&index=2" {
		t.Errorf("request query was altered: %q", body)
	}
	if resp.Header.Get("X-Echo") != "secret" {
		t.Errorf("request headers were altered: %q", resp.Header.Get("X-Echo"))
	}
	if *hits != 1 {
		t.Errorf("expected exactly one request, got %d", *hits)
	}

	seen := rec.seen()
	if len(seen) != 1 || seen[0] != srv.URL+"/getBookContent?url=b&index=2" {
		t.Errorf("unexpected observed addresses %v", seen)
	}
}

func TestClientGoObserves(t *testing.T) {
	srv, hits := newServer(t)
	rec := &recorder{}
	client := NewClient(nil, rec)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/getBookContent?url=b&index=9", nil)
	result := <-client.Go(req)
	if result.Err != nil {
		t.Fatalf("Go failed: %v", result.Err)
	}
	result.Response.Body.Close()

	if *hits != 1 {
		t.Errorf("expected exactly one request, got %d", *hits)
	}
	if seen := rec.seen(); len(seen) != 1 {
		t.Errorf("expected one observation, got %v", seen)
	}
}

func TestTransportPassesErrorsThrough(t *testing.T) {
	rec := &recorder{}
	client := NewClient(nil, rec)

	req, _ := http.NewRequest(http.MethodGet, "http://127.0.0.1:1/getBookContent?url=b&index=1", nil)
	if _, err := client.Do(req); err == nil {
		t.Fatal("expected dial error")
	}
	if len(rec.seen()) != 1 {
		t.Error("failed requests should still be observed")
	}
}

func TestNewClientKeepsBaseSettings(t *testing.T) {
	base := &http.Client{Timeout: 42}
	client := NewClient(base, ObserverFunc(func(string) {}))

	if client.HTTP.Timeout != 42 {
		t.Errorf("expected timeout to be copied, got %v", client.HTTP.Timeout)
	}
	if base.Transport != nil {
		t.Error("base client must not be modified")
	}
	if _, ok := client.HTTP.Transport.(*Transport); !ok {
		t.Errorf("expected observer transport, got %T", client.HTTP.Transport)
	}
}
