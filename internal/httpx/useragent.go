// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package httpx

import (
	"fmt"
	"net/http"
)

// UserAgentConfig defines the config for the UserAgent middleware.
type UserAgentConfig struct {
	// App is the name of the application.
	App string
	// Version is the version of the application.
	Version string
}

// UserAgent sets the User-Agent header on every outgoing request.
func UserAgent(cfg UserAgentConfig) MiddlewareFunc {
	userAgent := fmt.Sprintf("%s/%s", cfg.App, cfg.Version)
	return func(c *http.Client, next Responder) Responder {
		return func(request *http.Request) (*http.Response, error) {
			request.Header.Set("User-Agent", userAgent)
			return next(request)
		}
	}
}
