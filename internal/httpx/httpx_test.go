// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package httpx_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/toeirei/tabula/internal/httpx"
)

type httpMock struct {
	calls int // number of attempts seen by the transport
	mock  *httpx.MockTransport
}

// createGetMock registers a GET responder that fails errCnt times with
// errCode before answering statusCode/body. errCnt < 0 means always answer
// with statusCode.
func createGetMock(url string, statusCode int, body string, errCnt, errCode int) *httpMock {
	m := &httpMock{
		mock: httpx.NewMockTransport(true),
	}
	m.mock.RegisterResponder(http.MethodGet, url,
		func(request *http.Request) (*http.Response, error) {
			m.calls++
			code := statusCode
			if errCnt >= 0 && m.calls <= errCnt {
				code = errCode
			}
			return &http.Response{
				StatusCode: code,
				Status:     http.StatusText(code),
				Header:     http.Header{},
				Body:       io.NopCloser(bytes.NewBufferString(body)),
				Request:    request,
			}, nil
		})
	return m
}

func newRetryConfig() httpx.RetryConfig {
	c := httpx.DefaultRetryConfig
	c.Backoff = func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		return 0 // keep tests fast
	}
	return c
}

func assertResponse(t testing.TB, response *http.Response, err error, wantStatusCode int, wantBody string) {
	t.Helper()
	if err != nil {
		t.Fatalf("did not expect an error but got one: %v", err)
	}
	if response.StatusCode != wantStatusCode {
		t.Errorf("status got %d, want %d", response.StatusCode, wantStatusCode)
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("did not expect an error but got one: %v", err)
	}
	if string(body) != wantBody {
		t.Errorf("body got %q, want %q", string(body), wantBody)
	}
}

func TestRetryMiddleware(t *testing.T) {
	const url = "https://api.example.com/users"

	t.Run("no retry on successful response", func(t *testing.T) {
		m := createGetMock(url, http.StatusOK, `{"users":[]}`, -1, 0)
		c := httpx.NewClient(m.mock)
		c.Use(httpx.RetryWithConfig(newRetryConfig()))

		resp, err := c.Client.Get(url)
		assertResponse(t, resp, err, http.StatusOK, `{"users":[]}`)
		if m.calls != 1 {
			t.Errorf("attempts got %d, want 1", m.calls)
		}
	})

	t.Run("no retry on client error", func(t *testing.T) {
		m := createGetMock(url, http.StatusNotFound, `not found`, -1, 0)
		c := httpx.NewClient(m.mock)
		c.Use(httpx.RetryWithConfig(newRetryConfig()))

		resp, err := c.Client.Get(url)
		assertResponse(t, resp, err, http.StatusNotFound, `not found`)
		if m.calls != 1 {
			t.Errorf("attempts got %d, want 1", m.calls)
		}
	})

	t.Run("recovers after transient server errors", func(t *testing.T) {
		m := createGetMock(url, http.StatusOK, `ok`, 2, http.StatusInternalServerError)
		c := httpx.NewClient(m.mock)
		c.Use(httpx.RetryWithConfig(newRetryConfig()))

		resp, err := c.Client.Get(url)
		assertResponse(t, resp, err, http.StatusOK, `ok`)
		if m.calls != 3 {
			t.Errorf("attempts got %d, want 3", m.calls)
		}
	})

	t.Run("gives up after RetryMax persistent failures", func(t *testing.T) {
		m := createGetMock(url, http.StatusInternalServerError, `boom`, -1, 0)
		c := httpx.NewClient(m.mock)
		cfg := newRetryConfig()
		cfg.RetryMax = 2
		c.Use(httpx.RetryWithConfig(cfg))

		resp, err := c.Client.Get(url)
		assertResponse(t, resp, err, http.StatusInternalServerError, `boom`)
		if m.calls != 3 {
			t.Errorf("attempts got %d, want 3", m.calls)
		}
	})

	t.Run("request hook runs before every attempt", func(t *testing.T) {
		m := createGetMock(url, http.StatusOK, `ok`, 1, http.StatusServiceUnavailable)
		c := httpx.NewClient(m.mock)
		cfg := newRetryConfig()
		hooked := 0
		cfg.RequestHook = func(r *http.Request) { hooked++ }
		c.Use(httpx.RetryWithConfig(cfg))

		resp, err := c.Client.Get(url)
		assertResponse(t, resp, err, http.StatusOK, `ok`)
		if hooked != 2 {
			t.Errorf("hook ran %d times, want 2", hooked)
		}
	})
}

func TestUserAgentMiddleware(t *testing.T) {
	const url = "https://api.example.com/users"

	var gotUA string
	m := httpx.NewMockTransport(true)
	m.RegisterResponder(http.MethodGet, url, func(request *http.Request) (*http.Response, error) {
		gotUA = request.Header.Get("User-Agent")
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(bytes.NewBufferString(`ok`)),
			Request:    request,
		}, nil
	})

	c := httpx.NewClient(m)
	c.Use(httpx.UserAgent(httpx.UserAgentConfig{App: "tabula", Version: "1.0.0"}))

	resp, err := c.Client.Get(url)
	assertResponse(t, resp, err, http.StatusOK, `ok`)
	if gotUA != "tabula/1.0.0" {
		t.Errorf("User-Agent got %q, want %q", gotUA, "tabula/1.0.0")
	}
}

func TestGzipMiddleware(t *testing.T) {
	const url = "https://api.example.com/users"

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(`{"total":208}`)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	m := httpx.NewMockTransport(true)
	m.RegisterResponder(http.MethodGet, url, func(request *http.Request) (*http.Response, error) {
		if request.Header.Get("Accept-Encoding") != "gzip" {
			t.Error("expected Accept-Encoding: gzip on the request")
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Encoding": []string{"gzip"}},
			Body:       io.NopCloser(bytes.NewReader(buf.Bytes())),
			Request:    request,
		}, nil
	})

	c := httpx.NewClient(m)
	c.Use(httpx.Gzip())

	resp, err := c.Client.Get(url)
	assertResponse(t, resp, err, http.StatusOK, `{"total":208}`)
}

func TestGetJSON(t *testing.T) {
	const url = "https://api.example.com/users?limit=10"

	t.Run("decodes a JSON payload", func(t *testing.T) {
		m := createGetMock(url, http.StatusOK, `{"total": 208, "limit": 10}`, -1, 0)
		c := httpx.NewClient(m.mock)

		var out struct {
			Total int `json:"total"`
			Limit int `json:"limit"`
		}
		if err := httpx.GetJSON(context.Background(), c, url, &out); err != nil {
			t.Fatalf("GetJSON: %v", err)
		}
		if out.Total != 208 || out.Limit != 10 {
			t.Errorf("decoded %+v", out)
		}
	})

	t.Run("maps non-2xx to StatusError", func(t *testing.T) {
		m := createGetMock(url, http.StatusNotFound, `{"message":"not found"}`, -1, 0)
		c := httpx.NewClient(m.mock)

		err := httpx.GetJSON(context.Background(), c, url, &struct{}{})
		var se *httpx.StatusError
		if !errors.As(err, &se) {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if se.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode got %d", se.StatusCode)
		}
	})

	t.Run("reports malformed JSON as an error", func(t *testing.T) {
		m := createGetMock(url, http.StatusOK, `<!doctype html>`, -1, 0)
		c := httpx.NewClient(m.mock)

		if err := httpx.GetJSON(context.Background(), c, url, &struct{}{}); err == nil {
			t.Fatal("expected a decode error")
		}
	})
}
