// Package observer lets a passive listener see every outbound request a
// host application makes without changing the request or its timing.
package observer

import (
	"net/http"
)

// Observer is told the address of each outbound request.
type Observer interface {
	ObserveOutboundRequest(address string)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(address string)

func (f ObserverFunc) ObserveOutboundRequest(address string) { f(address) }

// Transport is an http.RoundTripper decorator. It reports each request's URL
// to the observers and hands the request, untouched, to Base.
type Transport struct {
	Base      http.RoundTripper
	Observers []Observer
}

// Wrap decorates base (http.DefaultTransport when nil).
func Wrap(base http.RoundTripper, observers ...Observer) *Transport {
	return &Transport{Base: base, Observers: observers}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL != nil {
		address := req.URL.String()
		for _, o := range t.Observers {
			o.ObserveOutboundRequest(address)
		}
	}
	return t.base().RoundTrip(req)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// Result is the outcome of a request issued with Client.Go.
type Result struct {
	Response *http.Response
	Err      error
}

// Client issues host requests in both call styles the host uses: Do waits
// for the response, Go returns immediately and delivers the response later.
// Both paths go through the same observed transport.
type Client struct {
	HTTP *http.Client
}

// NewClient returns a client whose transport is base wrapped for observers.
func NewClient(base *http.Client, observers ...Observer) *Client {
	c := &http.Client{}
	if base != nil {
		*c = *base
	}
	c.Transport = Wrap(c.Transport, observers...)
	return &Client{HTTP: c}
}

// Do sends the request and waits for the response.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.HTTP.Do(req)
}

// Go sends the request in the background. The channel receives exactly one
// Result and is then closed.
func (c *Client) Go(req *http.Request) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		resp, err := c.HTTP.Do(req)
		ch <- Result{Response: resp, Err: err}
	}()
	return ch
}
