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

package services

import (
	"context"
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/assert"
)

// stubSearcher replays canned results on the first page of every query.
type stubSearcher struct {
	results []*model.SearchResult
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, query string, start, _ int64) ([]*model.SearchResult, error) {
	s.queries = append(s.queries, query)
	if start > 1 {
		return nil, nil
	}
	return s.results, nil
}

// stubFetcher serves canned HTML pages keyed by URL and records which
// URLs were fetched.
type stubFetcher struct {
	pages   map[string]string
	fetched []string
}

func (s *stubFetcher) FetchPage(_ context.Context, url string) (string, error) {
	s.fetched = append(s.fetched, url)
	return s.pages[url], nil
}

func (s *stubFetcher) FetchImage(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}

func newSearchService(searcher WebSearcher, fetcher PageFetcher) *ProductSearchService {
	return &ProductSearchService{
		Searcher:        searcher,
		Fetcher:         fetcher,
		PagesPerVariant: 2,
		ResultsPerPage:  10,
		MaxCandidates:   20,
	}
}

func TestIsProductPage(t *testing.T) {
	assert.True(t, IsProductPage("https://www.nike.com/t/air-max-270-mens-shoes-KkLcGR"))
	assert.True(t, IsProductPage("https://www.amazon.com/dp/B08XYZ1234"))
	assert.True(t, IsProductPage("https://www.target.com/p/sneaker/-/A-123"))

	// Listing and search pages are never product pages, even with a hint.
	assert.False(t, IsProductPage("https://www.nike.com/w?q=shoes"))
	assert.False(t, IsProductPage("https://www.zara.com/us/en/search?searchTerm=jacket"))
	assert.False(t, IsProductPage("https://example.com/product/abc?q=related"))
	assert.False(t, IsProductPage("https://example.com/blog/best-sneakers"))
}

func TestScoreProductURLOrdersPDPAboveListing(t *testing.T) {
	pdp := ScoreProductURL("https://www.nike.com/t/air-max-270-mens-shoes-KkLcGR", "Nike Air Max 270 Men's Shoe")
	listing := ScoreProductURL("https://www.nike.com/w?q=air+max", "Nike Search")
	assert.True(t, pdp > listing)

	// https, deep path, and a product noun in the title all add up.
	rich := ScoreProductURL("https://shop.example.com/product/shoes/mens/air-270", "Air 270 running shoe")
	plain := ScoreProductURL("http://example.com/product/x", "x")
	assert.True(t, rich > plain)
}

func TestScoreProductURLUnclamped(t *testing.T) {
	// The raw score is returned as-is; a page that is both a search
	// page and a landing page stacks its penalties.
	score := ScoreProductURL("http://example.com/search?q=home", "Home logo page")
	assert.Equal(t, -3.0, score)
}

func TestBuildQueryVariants(t *testing.T) {
	pack := &model.QueryPack{
		Brand:       "Nike",
		ModelGuess:  "MAX 270",
		ProductType: "footwear",
		Colors:      []string{"blue", "white"},
	}
	variants := BuildQueryVariants(pack)
	require.NotEmpty(t, variants)
	assert.Equal(t, "Nike MAX 270 blue white footwear", variants[0])
	require.Contains(t, variants, "Nike blue footwear")
	require.Contains(t, variants, "Nike MAX 270 blue white footwear product")
	require.Contains(t, variants, "Nike footwear")

	// No duplicates.
	seen := map[string]bool{}
	for _, v := range variants {
		assert.False(t, seen[v])
		seen[v] = true
	}
}

func TestBuildQueryVariantsFallsBackToNote(t *testing.T) {
	pack := &model.QueryPack{UserText: "that blue jacket from the video"}
	variants := BuildQueryVariants(pack)
	require.NotEmpty(t, variants)
	assert.True(t, strings.Contains(variants[0], "that blue jacket from the video"))
}

func TestSearchKeepsOnlyProductPages(t *testing.T) {
	searcher := &stubSearcher{results: []*model.SearchResult{
		{Title: "Nike Search", URL: "https://www.nike.com/w?q=air+max", Domain: "www.nike.com"},
		{Title: "Nike Air Max 270", URL: "https://www.nike.com/t/air-max-270-KkLcGR", Domain: "www.nike.com"},
		{Title: "Air Max on Amazon", URL: "https://www.amazon.com/dp/B08XYZ1234", Domain: "www.amazon.com"},
	}}
	svc := newSearchService(searcher, nil)

	candidates, err := svc.Search(context.Background(), &model.QueryPack{Brand: "Nike", ProductType: "footwear"})
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	for _, c := range candidates {
		assert.True(t, IsProductPage(c.ProductURL))
		assert.True(t, c.ID != "")
	}
}

func TestSearchBrandSiteFallback(t *testing.T) {
	// Only listing pages come back, but the brand has a known storefront:
	// the fallback links its on-site search.
	searcher := &stubSearcher{results: []*model.SearchResult{
		{Title: "Nike Search", URL: "https://www.nike.com/w?q=air+max", Domain: "www.nike.com"},
	}}
	svc := newSearchService(searcher, nil)

	candidates, err := svc.Search(context.Background(), &model.QueryPack{Brand: "Nike", ProductType: "footwear"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.True(t, strings.HasPrefix(candidates[0].ProductURL, "https://www.nike.com/w?q="))
	assert.True(t, strings.Contains(candidates[0].Title, "official store"))
}

func TestSearchAnchorExtractionFallback(t *testing.T) {
	listing := "https://shop.example.com/category/sneakers"
	searcher := &stubSearcher{results: []*model.SearchResult{
		{Title: "Sneakers", URL: listing, Snippet: "all sneakers", Domain: "shop.example.com"},
	}}
	fetcher := &stubFetcher{pages: map[string]string{
		listing: `<html><body>
			<a href="/product/air-runner-blue">Air Runner</a>
			<a href="/category/more">More</a>
			<a href="https://shop.example.com/product/road-racer">Road Racer</a>
			<a href="/product/third-shoe">Third</a>
		</body></html>`,
	}}
	svc := newSearchService(searcher, fetcher)

	// No recognized brand, so the chain goes straight to anchor extraction.
	candidates, err := svc.Search(context.Background(), &model.QueryPack{ProductType: "footwear"})
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "https://shop.example.com/product/air-runner-blue", candidates[0].ProductURL)
	assert.Equal(t, "https://shop.example.com/product/road-racer", candidates[1].ProductURL)
}

func TestSearchSubFloorPagesSkippedInAnchorFallback(t *testing.T) {
	// Two listing pages come back; the one scoring at or below the
	// floor never reaches the anchor extractor.
	kept := "https://shop.example.com/category/sneakers"
	junk := "http://shop.example.com/search?q=shoes"
	searcher := &stubSearcher{results: []*model.SearchResult{
		{Title: "Home logo", URL: junk, Domain: "shop.example.com"},
		{Title: "Sneaker deals", URL: kept, Snippet: "all sneakers", Domain: "shop.example.com"},
	}}
	fetcher := &stubFetcher{pages: map[string]string{
		kept: `<html><body><a href="/product/air-runner-blue">Air Runner</a></body></html>`,
		junk: `<html><body><a href="/product/should-not-appear">Nope</a></body></html>`,
	}}
	svc := newSearchService(searcher, fetcher)

	candidates, err := svc.Search(context.Background(), &model.QueryPack{ProductType: "footwear"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "https://shop.example.com/product/air-runner-blue", candidates[0].ProductURL)
	assert.DeepEqual(t, []string{kept}, fetcher.fetched)
}

func TestSearchBasicQueryFallback(t *testing.T) {
	// Blog posts score below the floor, there is no brand and no page
	// fetcher, so the last resort is one fresh search on the base query
	// alone, returned unfiltered.
	searcher := &stubSearcher{results: []*model.SearchResult{
		{Title: "Some blog", URL: "https://example.com/blog/post", Domain: "example.com"},
	}}
	svc := newSearchService(searcher, nil)

	candidates, err := svc.Search(context.Background(), &model.QueryPack{ProductType: "footwear"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "https://example.com/blog/post", candidates[0].ProductURL)
	assert.Equal(t, "footwear", searcher.queries[len(searcher.queries)-1])
	// Beam variants page twice; the closing basic search runs one page.
	assert.Equal(t, 5, len(searcher.queries))
}

func TestSearchWithoutClient(t *testing.T) {
	svc := newSearchService(nil, nil)
	_, err := svc.Search(context.Background(), &model.QueryPack{})
	require.Error(t, err)
}
