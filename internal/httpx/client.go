// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

// package httpx provides the HTTP client stack used to talk to record APIs.
// A Client wraps http.Client with a middleware chain so cross-cutting
// behavior (retries, user agent, compression, response caching) composes
// without touching the data-source code.
package httpx

import (
	"net"
	"net/http"
	"runtime"
	"time"
)

// DefaultTimeout bounds every request issued through NewDefault clients.
const DefaultTimeout = 10 * time.Second

// Responder receives an http request and returns a response.
type Responder func(*http.Request) (*http.Response, error)

// MiddlewareFunc wraps a Responder with additional behavior.
type MiddlewareFunc func(*http.Client, Responder) Responder

// Client is a wrapper on top of http.Client that applies a middleware
// chain around the underlying transport.
type Client struct {
	defaultResponder Responder
	middleware       []MiddlewareFunc
	Client           *http.Client
}

// NewClient creates a middleware-capable client over the given transport.
// A nil transport gets a pooled default.
func NewClient(transport http.RoundTripper) *Client {
	if transport == nil {
		transport = DefaultPooledTransport()
	}
	c := &Client{
		defaultResponder: transport.RoundTrip,
	}
	c.Client = &http.Client{
		Transport: c,
		Timeout:   DefaultTimeout,
	}
	return c
}

// Use appends middleware to the chain, run in the order given.
func (c *Client) Use(middleware ...MiddlewareFunc) {
	c.middleware = append(c.middleware, middleware...)
}

// RoundTrip executes a single HTTP transaction through the middleware chain.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	h := applyMiddleware(c.Client, c.defaultResponder, c.middleware...)
	return h(req)
}

func applyMiddleware(c *http.Client, h Responder, middleware ...MiddlewareFunc) Responder {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](c, h)
	}
	return h
}

// DefaultPooledTransport returns a new http.Transport with similar default
// values to http.DefaultTransport. Only use this for clients that will be
// re-used for the same host(s), which is the normal case for a table
// browsing one API.
func DefaultPooledTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   runtime.GOMAXPROCS(0) + 1,
	}
}
