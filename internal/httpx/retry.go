// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package httpx

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultRetryWaitMin = 1 * time.Second
	defaultRetryWaitMax = 30 * time.Second
	defaultRetryMax     = 3

	// We need to consume response bodies to maintain http connections, but
	// limit the size we consume to respBodyReadLimit.
	respBodyReadLimit = 1024
)

type (
	// Backoff specifies a policy for how long to wait between retries.
	// It is called after a failing request to determine the amount of time
	// that should pass before trying again.
	Backoff func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration

	// CheckRetry specifies a policy for handling retries. It is called
	// following each request with the response and error values returned by
	// the transport. Returning false stops retrying and hands the response
	// to the caller; a returned error replaces the transport error.
	CheckRetry func(ctx context.Context, resp *http.Response, err error) (bool, error)

	// RequestHook runs before each HTTP attempt. The data sources use it
	// to expose the beforeRequest extension point to profiles.
	RequestHook func(*http.Request)

	// RetryConfig configures the Retry middleware.
	RetryConfig struct {
		RetryWaitMin time.Duration
		RetryWaitMax time.Duration
		RetryMax     int
		CheckRetry   CheckRetry
		RequestHook  RequestHook
		Backoff      Backoff
	}
)

// DefaultRetryConfig is the Retry middleware config used when none is given.
var DefaultRetryConfig = RetryConfig{
	RetryWaitMin: defaultRetryWaitMin,
	RetryWaitMax: defaultRetryWaitMax,
	RetryMax:     defaultRetryMax,
	CheckRetry:   DefaultRetryPolicy,
	Backoff:      DefaultBackoff,
}

// DefaultRetryPolicy retries on connection errors, 429 and 5xx responses.
// Table fetches are read-only GETs, so repeating them is always safe.
func DefaultRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	// do not retry on context.Canceled or context.DeadlineExceeded
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return true, nil
	}

	// 429 Too Many Requests is recoverable.
	if resp.StatusCode == http.StatusTooManyRequests {
		return true, nil
	}

	// Retry on 500-range responses to allow the server time to recover;
	// 501 is permanent by definition.
	if resp.StatusCode >= 500 && resp.StatusCode != 501 {
		return true, nil
	}
	if resp.StatusCode == 0 {
		return true, fmt.Errorf("unexpected HTTP status %s", resp.Status)
	}

	return false, nil
}

// DefaultBackoff performs exponential backoff based on the attempt number,
// bounded by min and max. It honors the Retry-After header on 429 and 503
// responses.
func DefaultBackoff(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if resp != nil {
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			if s, ok := resp.Header["Retry-After"]; ok {
				if sleep, err := strconv.ParseInt(s[0], 10, 64); err == nil {
					return time.Second * time.Duration(sleep)
				}
			}
		}
	}

	mult := math.Pow(2, float64(attemptNum)) * float64(min)
	sleep := time.Duration(mult)
	if float64(sleep) != mult || sleep > max {
		sleep = max
	}
	return sleep
}

// drainBody reads a little of the response body so the connection can be
// reused across retries.
func drainBody(body io.ReadCloser) {
	defer func() {
		_ = body.Close()
	}()
	_, _ = io.Copy(io.Discard, io.LimitReader(body, respBodyReadLimit))
}

// Retry creates retry middleware with DefaultRetryConfig.
func Retry() MiddlewareFunc {
	return RetryWithConfig(DefaultRetryConfig)
}

// RetryWithConfig creates retry middleware with the given config. Requests
// issued by Tabula carry no body, so no body rewinding is needed between
// attempts.
func RetryWithConfig(config RetryConfig) MiddlewareFunc {
	if config.CheckRetry == nil {
		config.CheckRetry = DefaultRetryPolicy
	}
	if config.Backoff == nil {
		config.Backoff = DefaultBackoff
	}
	return func(c *http.Client, next Responder) Responder {
		return func(request *http.Request) (*http.Response, error) {
			var resp *http.Response
			var shouldRetry bool
			var attempt int
			var doErr, checkErr error

			for i := 0; ; i++ {
				attempt++

				if config.RequestHook != nil {
					config.RequestHook(request)
				}

				resp, doErr = next(request)

				// Check if we should continue with retries.
				shouldRetry, checkErr = config.CheckRetry(request.Context(), resp, doErr)
				if !shouldRetry {
					break
				}

				remain := config.RetryMax - i
				if remain <= 0 {
					break
				}

				if doErr == nil && resp.Body != nil {
					drainBody(resp.Body)
				}
				wait := config.Backoff(config.RetryWaitMin, config.RetryWaitMax, i, resp)
				select {
				case <-request.Context().Done():
					c.CloseIdleConnections()
					return nil, request.Context().Err()
				case <-time.After(wait):
				}
			}

			// this is the closest we have to success criteria
			if doErr == nil && checkErr == nil && !shouldRetry {
				return resp, nil
			}

			defer c.CloseIdleConnections()

			err := doErr
			if checkErr != nil {
				err = checkErr
			}

			if err == nil {
				return resp, nil
			}

			return nil, fmt.Errorf("%s %s giving up after %d attempt(s): %w",
				request.Method, request.URL, attempt, err)
		}
	}
}
