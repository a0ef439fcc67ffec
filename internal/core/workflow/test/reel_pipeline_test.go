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

// Package workflow_test contains integration tests for the analysis
// pipeline. These tests assemble the real command chain over the real
// services, substituting only the cloud collaborators with the
// deterministic fakes from the testutil package, so the full
// frame-to-products flow runs hermetically.
package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-reel-search/internal/core/commands"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/services"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-reel-search/internal/testutil"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/assert"
)

// buildChain assembles the four post-download stages over fake
// collaborators, mirroring the wiring of the full workflow.
func buildChain(annotator services.FrameAnnotator, searcher services.WebSearcher, fetcher services.PageFetcher) cor.Chain {
	config := test.NewTestConfig()
	chain := cor.NewBaseChain("reel-pipeline-test")
	chain.AddCommand(commands.NewFrameSelectionCommand("frame-selection", services.NewFrameSelector(nil), workflow.DefaultSelectedFrames))
	chain.AddCommand(commands.NewFrameUnderstandingCommand("frame-understanding", services.NewQueryPackExtractor(annotator)))
	chain.AddCommand(commands.NewCandidateSearchCommand("candidate-search", services.NewProductSearchService(searcher, fetcher, config)))
	chain.AddCommand(commands.NewProductRankingCommand("product-ranking", services.NewProductRanker(nil, fetcher, config)))
	return chain
}

func runChain(chain cor.Chain, frames []*model.Frame, note string) cor.Context {
	c := cor.NewBaseContext()
	c.SetContext(context.Background())
	c.Add(commands.CtxRequest, &model.ReelAnalysisRequest{VideoURL: "https://example.com/reel", Note: note})
	c.Add(cor.CtxIn, frames)
	chain.Execute(c)
	return c
}

func testFrames(n int) []*model.Frame {
	out := make([]*model.Frame, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &model.Frame{Payload: []byte{byte(i + 1)}, Index: i})
	}
	return out
}

func TestReelPipelineEndToEnd(t *testing.T) {
	annotator := &test.FakeAnnotator{Bundle: &model.RecognitionBundle{
		Labels: []model.Annotation{
			{Description: "Shoe", Score: 0.97},
			{Description: "Blue", Score: 0.91},
		},
		Logos:        []model.Annotation{{Description: "Adidas", Score: 0.88}},
		TextSegments: []string{"ULTRABOOST"},
	}}
	searcher := &test.FakeSearcher{Results: []*model.SearchResult{
		{Title: "adidas Ultraboost Shoes", URL: "https://www.adidas.com/us/p/ultraboost-GZ0127/item/GZ0127.html", Domain: "www.adidas.com"},
		{Title: "adidas search", URL: "https://www.adidas.com/us/search?q=ultraboost", Domain: "www.adidas.com"},
		{Title: "Ultraboost on Amazon", URL: "https://www.amazon.com/dp/B09ABC1234", Domain: "www.amazon.com"},
	}}

	chain := buildChain(annotator, searcher, nil)
	c := runChain(chain, testFrames(3), "blue adidas ultraboost")

	require.False(t, c.HasErrors(), "pipeline errors: %v", c.GetErrors())

	pack, ok := c.Get(commands.CtxQueryPack).(*model.QueryPack)
	require.True(t, ok)
	assert.Equal(t, "Adidas", pack.Brand)
	assert.Equal(t, "footwear", pack.ProductType)
	assert.Equal(t, "Ultraboost", pack.ModelGuess)

	ranked, ok := c.Get(cor.CtxIn).([]*model.Candidate)
	require.True(t, ok)
	require.Len(t, ranked, 2)
	for _, p := range ranked {
		assert.True(t, p.FinalScore > 0)
		assert.True(t, services.IsProductPage(p.ProductURL))
	}
	// Both product pages carry the brand: the brand domain outranks the
	// trusted retailer.
	assert.Equal(t, "www.adidas.com", ranked[0].Source)

	// Recognition runs once, on the best selected frame only.
	assert.Equal(t, 1, annotator.Calls)
}

func TestReelPipelineNoCandidates(t *testing.T) {
	// An unbranded pack with an empty search index exhausts every
	// fallback and must surface the typed terminal error.
	annotator := &test.FakeAnnotator{Bundle: &model.RecognitionBundle{
		Labels: []model.Annotation{{Description: "Chair", Score: 0.9}},
	}}
	searcher := &test.FakeSearcher{}

	chain := buildChain(annotator, searcher, nil)
	c := runChain(chain, testFrames(2), "")

	require.True(t, c.HasErrors())
	var found bool
	for _, err := range c.GetErrors() {
		if errors.Is(err, services.ErrNoCandidates) {
			found = true
		}
	}
	assert.True(t, found)

	// The pack survives for the error response.
	pack, ok := c.Get(commands.CtxQueryPack).(*model.QueryPack)
	require.True(t, ok)
	assert.Equal(t, "furniture", pack.ProductType)
}

func TestReelPipelineRecognitionOutage(t *testing.T) {
	// Vision failing on the best frame must not kill the run: the pack
	// is built from the note alone and the search still happens.
	annotator := &test.FakeAnnotator{Err: errors.New("vision unavailable")}
	searcher := &test.FakeSearcher{Results: []*model.SearchResult{
		{Title: "Blue Jacket", URL: "https://shop.example.com/product/blue-jacket", Domain: "shop.example.com"},
	}}

	chain := buildChain(annotator, searcher, nil)
	c := runChain(chain, testFrames(2), "blue jacket")

	require.False(t, c.HasErrors(), "pipeline errors: %v", c.GetErrors())
	pack := c.Get(commands.CtxQueryPack).(*model.QueryPack)
	assert.Equal(t, "clothing", pack.ProductType)

	ranked := c.Get(cor.CtxIn).([]*model.Candidate)
	require.Len(t, ranked, 1)
}

func TestNoCandidatesErrorUnwraps(t *testing.T) {
	err := error(&workflow.NoCandidatesError{Pack: &model.QueryPack{ProductType: "footwear"}})
	assert.True(t, errors.Is(err, services.ErrNoCandidates))

	var typed *workflow.NoCandidatesError
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, "footwear", typed.Pack.ProductType)
}
