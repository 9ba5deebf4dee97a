// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package source

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/toeirei/tabula/internal/httpx"
	"github.com/toeirei/tabula/internal/logging"
	"github.com/toeirei/tabula/internal/model"
)

// ParamMap names the query parameters a REST API uses for paging, search
// and sorting. Empty names mean the API has no such parameter and the
// corresponding query state is not sent.
type ParamMap struct {
	Limit  string `mapstructure:"limit" yaml:"limit"`
	Skip   string `mapstructure:"skip" yaml:"skip"`
	Search string `mapstructure:"search" yaml:"search"`
	SortBy string `mapstructure:"sort_by" yaml:"sort_by"`
	Order  string `mapstructure:"order" yaml:"order"`
}

// DummyJSONParams is the parameter dialect of the DummyJSON demo API and
// the default for new profiles.
var DummyJSONParams = ParamMap{
	Limit:  "limit",
	Skip:   "skip",
	Search: "q",
	SortBy: "sortBy",
	Order:  "order",
}

// BeforeRequest lets a profile rewrite the outgoing parameters right
// before the URL is built. It receives the query state and the parameters
// produced by the ParamMap and returns the final set.
type BeforeRequest func(q model.Query, params url.Values) url.Values

// RESTConfig describes how to fetch one collection from a REST API.
type RESTConfig struct {
	// BaseURL is the collection endpoint, e.g. https://dummyjson.com/users.
	BaseURL string
	// SearchPath, when non-empty, is appended to BaseURL whenever a search
	// term is active (DummyJSON uses a separate /search route).
	SearchPath string
	// DataSrc is the dot path to the row array inside the response
	// envelope, e.g. "users". Empty means the response body is the array.
	DataSrc string
	// TotalField is the dot path to the collection total. Empty defaults
	// to "total"; when the field is absent the row count is used.
	TotalField string
	// Params maps query state onto the API's parameter names.
	Params ParamMap
	// BeforeRequest optionally rewrites parameters before each request.
	BeforeRequest BeforeRequest
}

// RESTSource fetches pages straight from a remote API (server-side mode):
// every page, sort and search change becomes a new request.
type RESTSource struct {
	cfg    RESTConfig
	client *httpx.Client
}

// NewRESTSource creates a REST data source over the given client. A nil
// client gets a default one with retry, user agent and gzip middleware.
func NewRESTSource(cfg RESTConfig, client *httpx.Client) *RESTSource {
	if client == nil {
		client = httpx.NewClient(nil)
		client.Use(
			httpx.UserAgent(httpx.UserAgentConfig{App: "tabula", Version: "dev"}),
			httpx.Gzip(),
			httpx.Retry(),
		)
	}
	if cfg.TotalField == "" {
		cfg.TotalField = "total"
	}
	return &RESTSource{cfg: cfg, client: client}
}

// Fetch implements Source.
func (s *RESTSource) Fetch(ctx context.Context, q model.Query) (model.Page, error) {
	reqURL, err := s.buildURL(q)
	if err != nil {
		return model.Page{}, err
	}
	logging.Debugf("fetching %s", reqURL)

	var envelope any
	if err := httpx.GetJSON(ctx, s.client, reqURL, &envelope); err != nil {
		return model.Page{}, err
	}

	records, err := extractRows(envelope, s.cfg.DataSrc)
	if err != nil {
		return model.Page{}, err
	}

	total := len(records)
	if v, ok := model.Lookup(envelope, s.cfg.TotalField); ok {
		if f, ok := v.(float64); ok {
			total = int(f)
		}
	}

	return model.Page{
		Records:  records,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}

// fetchAllChunk sizes the per-page requests when the API refuses an
// unlimited page; fetchAllMaxRequests bounds the drain against servers
// that ignore the skip parameter.
const (
	fetchAllChunk       = 100
	fetchAllMaxRequests = 500
)

// FetchAll retrieves the entire collection. It first asks for an unlimited
// page (limit 0, the DummyJSON convention); when that response comes back
// short of the reported total, the collection is drained page by page
// instead, sized by what the API actually returns so the offsets line up.
func (s *RESTSource) FetchAll(ctx context.Context) ([]model.Record, error) {
	first, err := s.Fetch(ctx, model.Query{Page: 1, PageSize: 0})
	if err != nil {
		return nil, err
	}
	if len(first.Records) >= first.Total {
		return first.Records, nil
	}
	logging.Debugf("unlimited page returned %d of %d records, draining paged", len(first.Records), first.Total)

	q := model.Query{Page: 1, PageSize: fetchAllChunk}
	var records []model.Record
	for i := 0; i < fetchAllMaxRequests; i++ {
		page, err := s.Fetch(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(page.Records) == 0 {
			break
		}
		if q.Page == 1 && len(page.Records) < q.PageSize {
			// The API caps pages below the requested chunk; adopt its size
			// so the next skip starts where this page ended.
			q.PageSize = len(page.Records)
		}
		records = append(records, page.Records...)
		if len(records) >= page.Total {
			break
		}
		q.Page++
	}
	return records, nil
}

// buildURL assembles the request URL for the query: endpoint path (the
// search route when a term is active), mapped parameters, then the
// beforeRequest hook.
func (s *RESTSource) buildURL(q model.Query) (string, error) {
	base := s.cfg.BaseURL
	if q.Search != "" && s.cfg.SearchPath != "" {
		base = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(s.cfg.SearchPath, "/")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", base, err)
	}

	params := u.Query()
	p := s.cfg.Params
	if p.Limit != "" {
		params.Set(p.Limit, strconv.Itoa(q.PageSize))
	}
	if p.Skip != "" {
		params.Set(p.Skip, strconv.Itoa(q.Offset()))
	}
	if q.Search != "" && p.Search != "" {
		params.Set(p.Search, q.Search)
	}
	if q.Sort != model.SortNone && q.SortKey != "" && p.SortBy != "" {
		params.Set(p.SortBy, q.SortKey)
		if p.Order != "" {
			params.Set(p.Order, q.Sort.Param())
		}
	}

	if s.cfg.BeforeRequest != nil {
		params = s.cfg.BeforeRequest(q, params)
	}

	u.RawQuery = params.Encode()
	return u.String(), nil
}

// extractRows pulls the record array out of a decoded response envelope.
func extractRows(envelope any, dataSrc string) ([]model.Record, error) {
	rows, ok := model.Lookup(envelope, dataSrc)
	if !ok {
		return nil, fmt.Errorf("%w (path %q missing)", ErrNoRows, dataSrc)
	}
	arr, ok := rows.([]any)
	if !ok {
		return nil, fmt.Errorf("%w (path %q is not an array)", ErrNoRows, dataSrc)
	}

	records := make([]model.Record, 0, len(arr))
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			// Scalar rows (arrays of strings etc.) are wrapped so the
			// table always works with records.
			records = append(records, model.Record{"value": item})
			continue
		}
		records = append(records, model.Record(m))
	}
	return records, nil
}
