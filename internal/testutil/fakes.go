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

// This file provides deterministic in-memory fakes for the pipeline's
// cloud collaborators. The fake embedder hashes its input into a unit
// vector so identical inputs always land on identical vectors, which
// makes similarity-driven assertions stable without any network access.
package test

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/jaycherian/gcp-go-reel-search/internal/cloud"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/similarity"
)

// FakeEmbedder derives a deterministic unit vector from the input bytes.
// Vectors lists inputs with pinned vectors; anything absent is hashed.
type FakeEmbedder struct {
	Vectors map[string][]float32
	Err     error
}

// EmbedText returns the pinned or hashed vector for text.
func (f *FakeEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if v, ok := f.Vectors[text]; ok {
		return v, nil
	}
	return hashVector([]byte(text)), nil
}

// EmbedImage returns the pinned or hashed vector for the image bytes.
func (f *FakeEmbedder) EmbedImage(_ context.Context, image []byte) ([]float32, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if v, ok := f.Vectors[string(image)]; ok {
		return v, nil
	}
	return hashVector(image), nil
}

// hashVector expands the FNV hash of the payload into an 8-dimensional
// unit vector.
func hashVector(payload []byte) []float32 {
	h := fnv.New64a()
	_, _ = h.Write(payload)
	seed := h.Sum64()

	out := make([]float32, 8)
	for i := range out {
		seed = seed*6364136223846793005 + 1442695040888963407
		out[i] = float32(float64(int64(seed>>32)) / float64(math.MaxInt32))
	}
	return similarity.Normalize(out)
}

// FakeAnnotator returns a fixed recognition bundle for every frame.
type FakeAnnotator struct {
	Bundle *model.RecognitionBundle
	Err    error
	Calls  int
}

// Annotate returns the configured bundle.
func (f *FakeAnnotator) Annotate(_ context.Context, _ []byte) (*model.RecognitionBundle, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Bundle == nil {
		return &model.RecognitionBundle{}, nil
	}
	return f.Bundle, nil
}

// FakeSearcher replays canned results for the first page of every query
// and empty pages after that. Queries records what was asked.
type FakeSearcher struct {
	Results []*model.SearchResult
	Err     error
	Queries []string
}

// Search returns the canned results on page one, nothing after.
func (f *FakeSearcher) Search(_ context.Context, query string, start, _ int64) ([]*model.SearchResult, error) {
	f.Queries = append(f.Queries, fmt.Sprintf("%s@%d", query, start))
	if f.Err != nil {
		return nil, f.Err
	}
	if start > 1 {
		return nil, nil
	}
	return f.Results, nil
}

// FakeFetcher serves canned pages and images keyed by URL.
type FakeFetcher struct {
	Pages  map[string]string
	Images map[string][]byte
}

// FetchPage returns the canned page body for url.
func (f *FakeFetcher) FetchPage(_ context.Context, url string) (string, error) {
	body, ok := f.Pages[url]
	if !ok {
		return "", fmt.Errorf("no canned page for %s", url)
	}
	return body, nil
}

// FetchImage returns the canned image payload for url.
func (f *FakeFetcher) FetchImage(_ context.Context, url string) ([]byte, error) {
	payload, ok := f.Images[url]
	if !ok {
		return nil, fmt.Errorf("no canned image for %s", url)
	}
	return payload, nil
}

// NewTestConfig builds an in-memory configuration with the same values
// the checked-in test TOML files carry, for tests that do not want to
// touch the filesystem.
func NewTestConfig() *cloud.Config {
	config := cloud.NewConfig()
	config.Application.Name = "reel-search-test"
	config.Application.Port = 8080
	config.Video.YtDlpPath = "yt-dlp"
	config.Video.FFMpegPath = "ffmpeg"
	config.Video.DefaultFrameCount = 6
	config.Video.MaxFrameCount = 12
	config.Video.TimeoutInSeconds = 60
	config.Vision.MaxLabels = 10
	config.Vision.MaxLogos = 5
	config.Vision.MinLabelConfidence = 0.5
	config.Search.PagesPerVariant = 2
	config.Search.ResultsPerPage = 10
	config.Search.MaxCandidates = 20
	config.Search.TimeoutInSeconds = 10
	config.Ranking.VisualWeight = 0.45
	config.Ranking.TextWeight = 0.35
	config.Ranking.BrandWeight = 0.20
	config.Ranking.NeutralTextScore = 0.5
	config.Ranking.NeutralBrandScore = 0.5
	config.Ranking.MaxResults = 10
	return config
}
