// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// StatusError reports a non-2xx response from the API. The data sources
// surface it to the UI instead of panicking, which is the error-fallback
// contract for broken endpoints.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %s", e.URL, e.Status)
}

// GetJSON issues a GET request through the client and decodes the JSON
// response into v. Non-2xx responses become a *StatusError.
func GetJSON(ctx context.Context, c *Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drainBody(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: url}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}
