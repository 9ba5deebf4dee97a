// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package httpx

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/toeirei/tabula/internal/logging"
)

const defaultCacheTTL = 60 * time.Second

// CacheConfig configures the Redis response cache middleware.
type CacheConfig struct {
	// Redis is the client used for cache storage.
	Redis *redis.Client
	// TTL is how long a cached page stays fresh. Zero means defaultCacheTTL.
	TTL time.Duration
}

// NewRedisClient connects to the given address and verifies the connection.
func NewRedisClient(addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(client.Context()).Err(); err != nil {
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// CacheKey builds the cache key for a request. Exported so tests and cache
// invalidation can agree on the layout.
func CacheKey(req *http.Request) string {
	return "tabula:resp:" + req.Method + " " + req.URL.String()
}

// Cache serves repeated GET requests from Redis. Only 200 responses are
// stored; everything else passes through untouched. Cache failures degrade
// to a normal fetch, they never fail the request.
func Cache(cfg CacheConfig) MiddlewareFunc {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return func(c *http.Client, next Responder) Responder {
		return func(request *http.Request) (*http.Response, error) {
			if cfg.Redis == nil || request.Method != http.MethodGet {
				return next(request)
			}

			key := CacheKey(request)
			if data, err := cfg.Redis.Get(request.Context(), key).Bytes(); err == nil {
				return &http.Response{
					Status:     "200 OK",
					StatusCode: http.StatusOK,
					Proto:      "HTTP/1.1",
					ProtoMajor: 1,
					ProtoMinor: 1,
					Header:     http.Header{"Content-Type": []string{"application/json"}},
					Body:       io.NopCloser(bytes.NewReader(data)),
					Request:    request,
				}, nil
			}

			resp, err := next(request)
			if err != nil || resp.StatusCode != http.StatusOK || resp.Body == nil {
				return resp, err
			}

			body, err := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if err != nil {
				return nil, err
			}
			if err := cfg.Redis.Set(request.Context(), key, body, ttl).Err(); err != nil {
				logging.Debugf("response cache store failed for %s: %v", key, err)
			}
			resp.Body = io.NopCloser(bytes.NewReader(body))
			return resp, nil
		}
	}
}
