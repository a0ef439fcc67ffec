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

// This file, `web_search.go`, defines the ProductSearchService. It
// expands a query pack into a small beam of query variants, pages the
// web search API for each, scores every result URL for how likely it is
// a product detail page (PDP), drops results scoring at or below the
// floor, and keeps only PDPs. When the strict pass finds nothing the
// service degrades through three fallbacks: a synthetic link to the
// brand's own on-site search, product anchors scraped out of the
// surviving result pages, and finally one fresh unfiltered search on
// the base query alone.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-reel-search/internal/cloud"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"golang.org/x/net/html"
)

// URL score deltas. A result qualifies as a PDP when its URL carries a
// product hint and no bad fragment; the numeric score orders PDPs among
// themselves.
const (
	badFragmentPenalty  = -2.0
	productHintBonus    = 2.5
	httpsBonus          = 0.3
	deepPathBonus       = 0.5
	landingTitlePenalty = -1.0
	productNounBonus    = 0.4
	urlScoreFloor       = -1.0
)

const (
	// fallbackPageLimit and fallbackLinksPerPage bound the anchor
	// extraction fallback so a bad query cannot trigger a crawl.
	fallbackPageLimit    = 3
	fallbackLinksPerPage = 2
)

// ErrNoCandidates indicates the beam search and every fallback came up
// empty.
var ErrNoCandidates = errors.New("no product candidates found")

// ProductSearchService finds purchasable product pages for a query pack.
type ProductSearchService struct {
	Searcher        WebSearcher
	Fetcher         PageFetcher // Used only by the anchor-extraction fallback; may be nil.
	PagesPerVariant int
	ResultsPerPage  int64
	MaxCandidates   int
}

// NewProductSearchService builds the service from the search section of
// the application config.
func NewProductSearchService(searcher WebSearcher, fetcher PageFetcher, config *cloud.Config) *ProductSearchService {
	return &ProductSearchService{
		Searcher:        searcher,
		Fetcher:         fetcher,
		PagesPerVariant: config.Search.PagesPerVariant,
		ResultsPerPage:  int64(config.Search.ResultsPerPage),
		MaxCandidates:   config.Search.MaxCandidates,
	}
}

// Search runs the beam search for pack and returns up to MaxCandidates
// product candidates, best URL score first. An empty result is a valid
// outcome, not an error; errors are reserved for a searcher that could
// not run at all.
func (s *ProductSearchService) Search(ctx context.Context, pack *model.QueryPack) ([]*model.Candidate, error) {
	if s.Searcher == nil {
		return nil, fmt.Errorf("search client not configured")
	}

	results := s.collect(ctx, BuildQueryVariants(pack))

	type scoredResult struct {
		result *model.SearchResult
		score  float64
	}
	// Score everything and drop results at or below the floor before
	// any filtering, so junk pages never reach the fallbacks either.
	var pool []scoredResult
	for _, r := range results {
		score := ScoreProductURL(r.URL, r.Title)
		if score <= urlScoreFloor {
			continue
		}
		pool = append(pool, scoredResult{result: r, score: score})
	}
	// Insertion sort keeps the API-order tie break stable; the slice is
	// at most a few dozen entries.
	for i := 1; i < len(pool); i++ {
		for j := i; j > 0 && pool[j].score > pool[j-1].score; j-- {
			pool[j], pool[j-1] = pool[j-1], pool[j]
		}
	}

	var survivors []*model.SearchResult
	var ordered []*model.SearchResult
	for _, p := range pool {
		survivors = append(survivors, p.result)
		if IsProductPage(p.result.URL) {
			ordered = append(ordered, p.result)
		}
	}
	if len(ordered) == 0 {
		ordered = s.fallback(ctx, pack, survivors)
	}

	if len(ordered) > s.MaxCandidates {
		ordered = ordered[:s.MaxCandidates]
	}
	return toCandidates(ordered), nil
}

// collect pages the searcher for every variant and merges the results,
// deduplicated by URL. Per-page failures are logged and skipped so one
// quota error does not sink the whole beam.
func (s *ProductSearchService) collect(ctx context.Context, variants []string) []*model.SearchResult {
	var out []*model.SearchResult
	seen := make(map[string]bool)
	for _, v := range variants {
		for page := 0; page < s.PagesPerVariant; page++ {
			start := int64(page)*s.ResultsPerPage + 1
			results, err := s.Searcher.Search(ctx, v, start, s.ResultsPerPage)
			if err != nil {
				slog.Warn("search page failed", "query", v, "start", start, "error", err)
				break
			}
			if len(results) == 0 {
				break
			}
			for _, r := range results {
				if r.URL == "" || seen[r.URL] {
					continue
				}
				seen[r.URL] = true
				out = append(out, r)
			}
		}
	}
	return out
}

// BuildQueryVariants expands a pack into its deduplicated query beam:
// the full descriptive query, a tight brand+color+type form, the full
// query with a "product" suffix, and a loose brand+type form. Blank
// variants are dropped.
func BuildQueryVariants(pack *model.QueryPack) []string {
	base := baseQuery(pack)

	var tight []string
	if pack.Brand != "" {
		tight = append(tight, pack.Brand)
	}
	if len(pack.Colors) > 0 {
		tight = append(tight, pack.Colors[0])
	}
	if pack.ProductType != "" {
		tight = append(tight, pack.ProductType)
	}

	var loose []string
	if pack.Brand != "" {
		loose = append(loose, pack.Brand)
	}
	if pack.ProductType != "" {
		loose = append(loose, pack.ProductType)
	}

	raw := []string{
		base,
		strings.Join(tight, " "),
		strings.TrimSpace(base + " product"),
		strings.Join(loose, " "),
	}

	var variants []string
	seen := make(map[string]bool)
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" || v == "product" || seen[v] {
			continue
		}
		seen[v] = true
		variants = append(variants, v)
	}
	return variants
}

// baseQuery joins the pack's strongest signals in descriptive order:
// brand, model, colors, attributes, product type, then the user's own
// words when everything else is thin.
func baseQuery(pack *model.QueryPack) string {
	var parts []string
	if pack.Brand != "" {
		parts = append(parts, pack.Brand)
	}
	if pack.ModelGuess != "" {
		parts = append(parts, pack.ModelGuess)
	}
	parts = append(parts, pack.Colors...)
	parts = append(parts, pack.Attributes...)
	if pack.ProductType != "" {
		parts = append(parts, pack.ProductType)
	}
	if len(parts) < 2 && pack.UserText != "" {
		parts = append(parts, pack.UserText)
	}
	return strings.Join(parts, " ")
}

// ScoreProductURL scores how product-page-like a URL is. The raw score
// is returned unclamped; callers filter out anything at or below
// urlScoreFloor.
func ScoreProductURL(rawURL string, title string) float64 {
	score := 0.0
	lower := strings.ToLower(rawURL)
	for _, frag := range badURLFragments {
		if strings.Contains(lower, frag) {
			score += badFragmentPenalty
			break
		}
	}
	for _, hint := range productURLHints {
		if strings.Contains(lower, hint) {
			score += productHintBonus
			break
		}
	}
	if strings.HasPrefix(lower, "https://") {
		score += httpsBonus
	}
	// Slash count over the whole URL; the scheme contributes two, so
	// this rewards two or more path segments.
	if strings.Count(lower, "/") >= 4 {
		score += deepPathBonus
	}
	lowerTitle := strings.ToLower(title)
	if strings.Contains(lowerTitle, "logo") || strings.Contains(lowerTitle, "home") {
		score += landingTitlePenalty
	}
	for _, noun := range productNouns {
		if strings.Contains(lowerTitle, noun) {
			score += productNounBonus
			break
		}
	}
	return score
}

// IsProductPage reports whether a URL looks like a single-product
// detail page: it must carry a known product path hint and must not
// carry any listing or account fragment.
func IsProductPage(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, frag := range badURLFragments {
		if strings.Contains(lower, frag) {
			return false
		}
	}
	for _, hint := range productURLHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// fallback degrades through the brand-site link, anchor extraction, and
// finally one fresh unfiltered search on the base query.
func (s *ProductSearchService) fallback(ctx context.Context, pack *model.QueryPack, results []*model.SearchResult) []*model.SearchResult {
	if synthetic := brandSiteResult(pack); synthetic != nil {
		slog.Info("no product pages in results, linking brand site search", "brand", pack.Brand)
		return []*model.SearchResult{synthetic}
	}
	if extracted := s.extractProductAnchors(ctx, results); len(extracted) > 0 {
		slog.Info("no product pages in results, using anchors from result pages", "count", len(extracted))
		return extracted
	}
	query := strings.TrimSpace(baseQuery(pack))
	if query == "" {
		query = strings.TrimSpace(pack.UserText)
	}
	if query == "" {
		return nil
	}
	slog.Info("no product pages found, retrying with an unfiltered basic search", "query", query)
	basic, err := s.Searcher.Search(ctx, query, 1, s.ResultsPerPage)
	if err != nil {
		slog.Warn("unfiltered basic search failed", "query", query, "error", err)
		return nil
	}
	return basic
}

// brandSiteResult synthesizes a result pointing at the brand's own
// search page when the brand is one we know the storefront of.
func brandSiteResult(pack *model.QueryPack) *model.SearchResult {
	if pack.Brand == "" {
		return nil
	}
	template, ok := brandSites[strings.ToLower(pack.Brand)]
	if !ok {
		return nil
	}
	query := url.QueryEscape(strings.TrimSpace(baseQuery(pack)))
	link := strings.ReplaceAll(template, "{query}", query)
	return &model.SearchResult{
		Title:   fmt.Sprintf("%s official store search", pack.Brand),
		URL:     link,
		Snippet: fmt.Sprintf("Search results for this product on the official %s site.", pack.Brand),
		Domain:  domainOf(link),
	}
}

// extractProductAnchors fetches a few of the listing pages already in
// hand and pulls product-looking anchors out of their HTML.
func (s *ProductSearchService) extractProductAnchors(ctx context.Context, results []*model.SearchResult) []*model.SearchResult {
	if s.Fetcher == nil {
		return nil
	}
	var out []*model.SearchResult
	seen := make(map[string]bool)
	pages := 0
	for _, r := range results {
		if pages == fallbackPageLimit {
			break
		}
		pages++
		body, err := s.Fetcher.FetchPage(ctx, r.URL)
		if err != nil {
			slog.Warn("fallback page fetch failed", "url", r.URL, "error", err)
			continue
		}
		for _, link := range productAnchors(body, r.URL, fallbackLinksPerPage) {
			if seen[link] {
				continue
			}
			seen[link] = true
			out = append(out, &model.SearchResult{
				Title:   r.Title,
				URL:     link,
				Snippet: r.Snippet,
				Domain:  domainOf(link),
			})
		}
	}
	return out
}

// productAnchors parses an HTML document and returns up to limit
// absolute product-page hrefs, resolved against baseURL.
func productAnchors(body string, baseURL string, limit int) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(links) == limit {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				ref, err := url.Parse(attr.Val)
				if err != nil {
					continue
				}
				abs := base.ResolveReference(ref).String()
				if IsProductPage(abs) {
					links = append(links, abs)
				}
				break
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

// toCandidates converts ordered results into product candidates.
func toCandidates(results []*model.SearchResult) []*model.Candidate {
	out := make([]*model.Candidate, 0, len(results))
	for _, r := range results {
		out = append(out, &model.Candidate{
			ID:          uuid.New().String(),
			Title:       r.Title,
			Description: r.Snippet,
			ImageURL:    r.ImageURL,
			ProductURL:  r.URL,
			Source:      r.Domain,
		})
	}
	return out
}

// domainOf returns the hostname of a URL, or the input on parse failure.
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}
