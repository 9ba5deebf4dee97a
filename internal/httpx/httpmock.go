// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoResponderFound is returned when no responder matches a request.
var ErrNoResponderFound = errors.New("no responder found")

// MockTransport implements http.RoundTripper without touching the network,
// deferring to a registered list of responders. Tests use it to script API
// behavior, including the deliberately-broken endpoints the error-fallback
// paths need.
type MockTransport struct {
	FailNoResponder bool
	responders      map[string]Responder
}

// NewMockTransport creates a new MockTransport. When failNoResponder is
// true, unmatched requests return ErrNoResponderFound, which is the
// equivalent of a network error.
func NewMockTransport(failNoResponder bool) *MockTransport {
	return &MockTransport{
		FailNoResponder: failNoResponder,
		responders:      map[string]Responder{},
	}
}

// NewRoundTripKey creates the key for the responder mapping.
func NewRoundTripKey(method, url string) string {
	return fmt.Sprintf("%s %s", method, url)
}

// RoundTrip consults the responder table instead of the network.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := NewRoundTripKey(req.Method, req.URL.String())

	for k, r := range m.responders {
		if k != key {
			continue
		}
		return r(req)
	}

	if m.FailNoResponder {
		return nil, ErrNoResponderFound
	}

	return http.DefaultTransport.RoundTrip(req)
}

// RegisterResponder adds a responder for the given HTTP method and URL.
func (m *MockTransport) RegisterResponder(method, url string, responder Responder) {
	m.responders[NewRoundTripKey(method, url)] = responder
}
