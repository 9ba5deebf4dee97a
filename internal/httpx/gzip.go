// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package httpx

import (
	"io"
	"net/http"

	"github.com/klauspost/compress/gzip"
)

// gzipReader decompresses the wrapped response body and closes both the
// gzip stream and the underlying body.
type gzipReader struct {
	*gzip.Reader
	underlying io.Closer
}

func (r *gzipReader) Close() error {
	if err := r.Reader.Close(); err != nil {
		_ = r.underlying.Close()
		return err
	}
	return r.underlying.Close()
}

// Gzip advertises gzip support to the server and transparently decompresses
// gzip-encoded responses. Setting Accept-Encoding manually disables the
// stdlib transport's automatic handling, so decompression happens here.
func Gzip() MiddlewareFunc {
	return func(c *http.Client, next Responder) Responder {
		return func(request *http.Request) (*http.Response, error) {
			request.Header.Set("Accept-Encoding", "gzip")
			resp, err := next(request)
			if err != nil {
				return resp, err
			}
			if resp.Header.Get("Content-Encoding") != "gzip" || resp.Body == nil {
				return resp, nil
			}

			zr, err := gzip.NewReader(resp.Body)
			if err != nil {
				_ = resp.Body.Close()
				return nil, err
			}
			resp.Body = &gzipReader{Reader: zr, underlying: resp.Body}
			resp.Header.Del("Content-Encoding")
			resp.ContentLength = -1
			return resp, nil
		}
	}
}
