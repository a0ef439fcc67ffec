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
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/zeebo/assert"
)

func newRanker(embedder Embedder, fetcher PageFetcher) *ProductRanker {
	return &ProductRanker{
		Embedder:          embedder,
		Fetcher:           fetcher,
		VisualWeight:      0.45,
		TextWeight:        0.35,
		BrandWeight:       0.20,
		NeutralTextScore:  0.5,
		NeutralBrandScore: 0.5,
	}
}

func TestBrandScoreLadder(t *testing.T) {
	ranker := newRanker(nil, nil)

	assert.Equal(t, 1.0, ranker.brandScore("Nike", &model.Candidate{Source: "www.nike.com"}))
	assert.Equal(t, 1.0, ranker.brandScore("Nike", &model.Candidate{ProductURL: "https://shop.example.com/nike/air-max", Source: "shop.example.com"}))
	assert.Equal(t, 0.8, ranker.brandScore("Nike", &model.Candidate{Source: "shop.example.com", Title: "Nike Air Max"}))
	assert.Equal(t, 0.6, ranker.brandScore("Nike", &model.Candidate{Source: "www.amazon.com", Title: "Air Max"}))
	assert.Equal(t, 0.4, ranker.brandScore("Nike", &model.Candidate{Source: "random.example.com", Title: "Air Max"}))

	// Multi-word brands match the domain with the spaces removed.
	assert.Equal(t, 1.0, ranker.brandScore("North Face", &model.Candidate{Source: "www.northface.com"}))
}

func TestBrandScoreNoBrandIsFlat(t *testing.T) {
	// Without a detected brand there is nothing to rank sellers by, so
	// every candidate gets the same configured neutral score, trusted
	// retailer or not.
	ranker := newRanker(nil, nil)
	assert.Equal(t, 0.5, ranker.brandScore("", &model.Candidate{Source: "www.walmart.com"}))
	assert.Equal(t, 0.5, ranker.brandScore("", &model.Candidate{Source: "random.example.com"}))
}

func TestRankScoresWithoutCollaborators(t *testing.T) {
	ranker := newRanker(nil, nil)
	candidates := []*model.Candidate{
		{ID: "a", Source: "www.nike.com"},
		{ID: "b", Source: "random.example.com"},
	}
	pack := &model.QueryPack{Brand: "Nike"}

	ranked := ranker.Rank(context.Background(), candidates, pack, nil)
	assert.Equal(t, 2, len(ranked))

	// With no embedder the visual factor scores zero, text goes
	// neutral, and brand affinity decides the order.
	assert.Equal(t, "a", ranked[0].ID)
	assert.Equal(t, 0.0, ranked[0].VisualSimilarity)
	assert.Equal(t, 0.5, ranked[0].TextSimilarity)
	assert.Equal(t, 1.0, ranked[0].BrandMatch)
	// 0.45*0.0 + 0.35*0.5 + 0.20*1.0 = 0.375
	assert.Equal(t, 0.375, ranked[0].FinalScore)
	// 0.45*0.0 + 0.35*0.5 + 0.20*0.4 = 0.255
	assert.Equal(t, 0.255, ranked[1].FinalScore)
}

func TestRankPreservesCardinality(t *testing.T) {
	ranker := newRanker(nil, nil)
	candidates := []*model.Candidate{
		{ID: "a", Source: "x.com"},
		{ID: "b", Source: "www.nike.com"},
		{ID: "c", Source: "www.amazon.com"},
	}
	ranked := ranker.Rank(context.Background(), candidates, &model.QueryPack{Brand: "Nike"}, nil)

	// Every candidate comes back scored; trimming is the caller's job.
	assert.Equal(t, 3, len(ranked))
	for i := 1; i < len(ranked); i++ {
		assert.True(t, ranked[i-1].FinalScore >= ranked[i].FinalScore)
	}
	assert.Equal(t, "b", ranked[0].ID)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	ranker := newRanker(nil, nil)
	candidates := []*model.Candidate{{ID: "a", Source: "www.nike.com"}}
	_ = ranker.Rank(context.Background(), candidates, &model.QueryPack{Brand: "Nike"}, nil)
	assert.Equal(t, 0.0, candidates[0].FinalScore)
	assert.Equal(t, 0.0, candidates[0].BrandMatch)
}

func TestRankUsesVisualSimilarity(t *testing.T) {
	embedder := &pinnedEmbedder{
		text: []float32{1, 0},
		byFrame: map[byte][]float32{
			'f': {1, 0}, // the frame itself
			'm': {1, 0}, // matching product image
			'o': {0, 1}, // off-target product image
		},
	}
	fetcher := &imageFetcher{images: map[string][]byte{
		"https://img/match": []byte("match"),
		"https://img/other": []byte("other"),
	}}
	ranker := newRanker(embedder, fetcher)

	candidates := []*model.Candidate{
		{ID: "off", ImageURL: "https://img/other", Source: "x.com"},
		{ID: "hit", ImageURL: "https://img/match", Source: "x.com"},
	}
	selected := []*model.SelectedFrame{{Frame: &model.Frame{Payload: []byte("frame")}}}

	ranked := ranker.Rank(context.Background(), candidates, &model.QueryPack{}, selected)
	assert.Equal(t, "hit", ranked[0].ID)
	assert.True(t, ranked[0].VisualSimilarity > ranked[1].VisualSimilarity)
}

func TestRankVisualTakesBestFrame(t *testing.T) {
	// The candidate image matches the second selected frame, not the
	// first; the visual score is the best match over all of them.
	embedder := &pinnedEmbedder{
		text: []float32{1, 0},
		byFrame: map[byte][]float32{
			'a': {0, 1}, // first frame, orthogonal to the image
			'b': {1, 0}, // second frame, identical to the image
			'm': {1, 0}, // the product image
		},
	}
	fetcher := &imageFetcher{images: map[string][]byte{
		"https://img/match": []byte("match"),
	}}
	ranker := newRanker(embedder, fetcher)

	candidates := []*model.Candidate{{ID: "hit", ImageURL: "https://img/match", Source: "x.com"}}
	selected := []*model.SelectedFrame{
		{Frame: &model.Frame{Payload: []byte("aaa")}},
		{Frame: &model.Frame{Payload: []byte("bbb")}},
	}

	ranked := ranker.Rank(context.Background(), candidates, &model.QueryPack{}, selected)
	assert.Equal(t, 1.0, ranked[0].VisualSimilarity)
}

func TestRankVisualZeroWhenImageMissing(t *testing.T) {
	embedder := &pinnedEmbedder{
		text:    []float32{1, 0},
		byFrame: map[byte][]float32{'f': {1, 0}},
	}
	fetcher := &imageFetcher{
		images: map[string][]byte{},
		err:    errors.New("404"),
	}
	ranker := newRanker(embedder, fetcher)

	candidates := []*model.Candidate{
		{ID: "no-image", Source: "x.com"},
		{ID: "dead-link", ImageURL: "https://img/gone", Source: "x.com"},
	}
	selected := []*model.SelectedFrame{{Frame: &model.Frame{Payload: []byte("frame")}}}

	ranked := ranker.Rank(context.Background(), candidates, &model.QueryPack{}, selected)
	for _, c := range ranked {
		assert.Equal(t, 0.0, c.VisualSimilarity)
	}
}

func TestRankEmptyInput(t *testing.T) {
	ranker := newRanker(nil, nil)
	ranked := ranker.Rank(context.Background(), nil, &model.QueryPack{}, nil)
	assert.Equal(t, 0, len(ranked))
}

// imageFetcher serves canned image payloads keyed by URL. An unknown
// URL returns err when set.
type imageFetcher struct {
	images map[string][]byte
	err    error
}

func (f *imageFetcher) FetchPage(_ context.Context, _ string) (string, error) {
	return "", nil
}

func (f *imageFetcher) FetchImage(_ context.Context, url string) ([]byte, error) {
	if image, ok := f.images[url]; ok {
		return image, nil
	}
	return nil, f.err
}
