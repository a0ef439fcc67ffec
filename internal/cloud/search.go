// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with Google Cloud services.
// This file wraps the Google Custom Search JSON API and a plain HTTP client
// behind the retrieval interfaces the candidate search service depends on:
// paginated web search, HTML page fetches for the PDP-extraction fallback,
// and product image downloads for visual scoring.
//
// The og:image / twitter:image metatags carried in the Custom Search
// pagemap are the primary source for candidate image URLs, with the
// pagemap's cse_image entries as a fallback, mirroring how product pages
// typically expose their hero image.
package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"

	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
)

// Retrieval limits. Responses larger than these are truncated rather than
// failing the fetch; partial HTML is still useful for anchor scanning.
const (
	userAgent        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxFetchBytes    = 2 << 20 // 2 MiB cap on fetched pages and images.
	defaultFetchWait = 5 * time.Second
)

// CustomSearchClient adapts the Custom Search service and an HTTP client
// to the retriever's interfaces. The zero timeout fields fall back to
// short fixed bounds; every network call is bounded.
type CustomSearchClient struct {
	Service      *customsearch.Service
	CxID         string // The Custom Search engine ID.
	HTTPClient   *http.Client
	FetchTimeout time.Duration
}

// NewCustomSearchClient builds the search client.
//
// Inputs:
//   - service: The initialized Custom Search API service.
//   - cxID: The search engine identifier.
//   - timeout: Bound for page and image fetches; zero selects the default.
//
// Outputs:
//   - *CustomSearchClient: The configured client.
func NewCustomSearchClient(service *customsearch.Service, cxID string, timeout time.Duration) *CustomSearchClient {
	if timeout <= 0 {
		timeout = defaultFetchWait
	}
	return &CustomSearchClient{
		Service:      service,
		CxID:         cxID,
		HTTPClient:   &http.Client{Timeout: timeout},
		FetchTimeout: timeout,
	}
}

// Search issues one page of a Custom Search query and maps the raw items
// into SearchResult records. The `start` parameter is the 1-based index of
// the first result on the page, matching the Custom Search API contract.
//
// Inputs:
//   - ctx: The request context.
//   - query: The query string.
//   - start: 1-based index of the first result (1, 11, 21, ...).
//   - num: Results requested for this page (the API caps this at 10).
//
// Outputs:
//   - []*model.SearchResult: The mapped results, possibly empty.
//   - error: An error if the API call fails.
func (c *CustomSearchClient) Search(ctx context.Context, query string, start, num int64) ([]*model.SearchResult, error) {
	if c.Service == nil || c.CxID == "" {
		return nil, fmt.Errorf("custom search is not configured")
	}
	if num <= 0 || num > 10 {
		num = 10
	}
	if start <= 0 {
		start = 1
	}

	call := c.Service.Cse.List().
		Cx(c.CxID).
		Q(query).
		Start(start).
		Num(num).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		// A 4xx on an out-of-range page is a normal end of pagination.
		if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == 400 {
			return nil, nil
		}
		return nil, fmt.Errorf("custom search %q: %w", query, err)
	}

	out := make([]*model.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		out = append(out, &model.SearchResult{
			Title:    item.Title,
			URL:      item.Link,
			Snippet:  item.Snippet,
			Domain:   item.DisplayLink,
			ImageURL: imageFromPagemap(item.Pagemap),
		})
	}
	return out, nil
}

// imageFromPagemap pulls a representative image URL out of the pagemap
// blob attached to a search result, preferring the page's og:image.
func imageFromPagemap(raw googleapi.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var pagemap struct {
		Metatags []map[string]string `json:"metatags"`
		CseImage []struct {
			Src string `json:"src"`
		} `json:"cse_image"`
	}
	if err := json.Unmarshal(raw, &pagemap); err != nil {
		return ""
	}
	if len(pagemap.Metatags) > 0 {
		meta := pagemap.Metatags[0]
		if v := meta["og:image"]; v != "" {
			return v
		}
		if v := meta["twitter:image"]; v != "" {
			return v
		}
	}
	if len(pagemap.CseImage) > 0 {
		return pagemap.CseImage[0].Src
	}
	return ""
}

// FetchPage downloads the HTML body of a URL with a short timeout. The
// PDP-extraction fallback scans the result for product anchors.
//
// Inputs:
//   - ctx: The request context.
//   - url: The page URL.
//
// Outputs:
//   - string: The (possibly truncated) HTML body.
//   - error: An error for network failures or non-2xx responses.
func (c *CustomSearchClient) FetchPage(ctx context.Context, url string) (string, error) {
	body, err := c.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchImage downloads an image for embedding, subject to the same cap
// and timeout as page fetches.
//
// Inputs:
//   - ctx: The request context.
//   - url: The image URL.
//
// Outputs:
//   - []byte: The encoded image bytes.
//   - error: An error for network failures or non-2xx responses.
func (c *CustomSearchClient) FetchImage(ctx context.Context, url string) ([]byte, error) {
	return c.fetch(ctx, url)
}

// fetch performs a bounded GET with a browser user agent. Some retail
// CDNs reject requests without one.
func (c *CustomSearchClient) fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
}
