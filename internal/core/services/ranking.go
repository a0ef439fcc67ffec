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

// This file, `ranking.go`, defines the ProductRanker. Candidates are
// ordered by a weighted blend of three factors: visual similarity
// between the selected reel frames and the candidate's product image,
// text similarity between the query and the candidate's title and
// snippet, and a brand affinity ladder over the candidate's URL and
// title. The visual factor scores zero whenever it cannot be computed
// (no image, fetch failure, embedding failure); the text factor goes
// neutral only when the query itself could not be embedded.
package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/jaycherian/gcp-go-reel-search/internal/cloud"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/similarity"
)

// Brand affinity ladder.
const (
	brandInDomainScore   = 1.0
	brandInTitleScore    = 0.8
	trustedRetailerScore = 0.6
	unknownSourceScore   = 0.4
)

// candidateTextLimit caps the text sent to the embedder per candidate.
const candidateTextLimit = 500

// ProductRanker scores and orders product candidates.
type ProductRanker struct {
	Embedder Embedder    // May be nil; visual scores zero, text goes neutral.
	Fetcher  PageFetcher // May be nil; visual similarity then scores zero.

	VisualWeight      float64
	TextWeight        float64
	BrandWeight       float64
	NeutralTextScore  float64
	NeutralBrandScore float64
}

// NewProductRanker builds the ranker from the ranking section of the
// application config.
func NewProductRanker(embedder Embedder, fetcher PageFetcher, config *cloud.Config) *ProductRanker {
	return &ProductRanker{
		Embedder:          embedder,
		Fetcher:           fetcher,
		VisualWeight:      config.Ranking.VisualWeight,
		TextWeight:        config.Ranking.TextWeight,
		BrandWeight:       config.Ranking.BrandWeight,
		NeutralTextScore:  config.Ranking.NeutralTextScore,
		NeutralBrandScore: config.Ranking.NeutralBrandScore,
	}
}

// Rank scores every candidate and returns decorated copies ordered by
// descending final score. The output carries the same candidates as
// the input; response-size caps belong to the caller. The input slice
// and its elements are not mutated. selected may be empty when frame
// extraction was skipped.
//
// Inputs:
//   - ctx: Propagated to embedding and image fetch calls.
//   - candidates: The unscored candidates from the search stage.
//   - pack: The query pack driving text and brand scoring.
//   - selected: The selected frames, best first. May be empty.
//
// Outputs:
//   - []*model.Candidate: Scored copies, best first.
func (r *ProductRanker) Rank(ctx context.Context, candidates []*model.Candidate, pack *model.QueryPack, selected []*model.SelectedFrame) []*model.Candidate {
	if len(candidates) == 0 {
		return []*model.Candidate{}
	}

	frameVecs := r.embedFrames(ctx, selected)
	queryVec := r.embedQuery(ctx, pack)

	out := make([]*model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		scored := c.Clone()
		scored.VisualSimilarity = r.visualScore(ctx, frameVecs, c.ImageURL)
		scored.TextSimilarity = r.textScore(ctx, queryVec, c)
		scored.BrandMatch = r.brandScore(pack.Brand, c)
		scored.FinalScore = similarity.Round3(
			r.VisualWeight*scored.VisualSimilarity +
				r.TextWeight*scored.TextSimilarity +
				r.BrandWeight*scored.BrandMatch)
		scored.SimilarityScore = scored.FinalScore
		out = append(out, scored)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore > out[j].FinalScore
	})
	return out
}

// embedFrames embeds each selected frame once for reuse across
// candidates. Frames that fail to embed are skipped.
func (r *ProductRanker) embedFrames(ctx context.Context, selected []*model.SelectedFrame) [][]float32 {
	if r.Embedder == nil {
		return nil
	}
	out := make([][]float32, 0, len(selected))
	for _, f := range selected {
		vec, err := r.Embedder.EmbedImage(ctx, f.Frame.Payload)
		if err != nil {
			slog.Warn("frame embedding failed", "frame", f.OriginalIndex, "error", err)
			continue
		}
		out = append(out, vec)
	}
	return out
}

// embedQuery embeds the pack's descriptive query once.
func (r *ProductRanker) embedQuery(ctx context.Context, pack *model.QueryPack) []float32 {
	if r.Embedder == nil {
		return nil
	}
	query := strings.TrimSpace(baseQuery(pack) + " " + pack.UserText)
	if query == "" {
		return nil
	}
	vec, err := r.Embedder.EmbedText(ctx, query)
	if err != nil {
		slog.Warn("query embedding failed, text scores go neutral", "error", err)
		return nil
	}
	return vec
}

// visualScore fetches and embeds the candidate image and takes the best
// cosine similarity across the selected frames. Any gap in the chain
// scores zero: a candidate that cannot be compared visually earns
// nothing on the visual factor.
func (r *ProductRanker) visualScore(ctx context.Context, frameVecs [][]float32, imageURL string) float64 {
	if len(frameVecs) == 0 || r.Fetcher == nil || imageURL == "" {
		return 0.0
	}
	image, err := r.Fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		slog.Warn("candidate image fetch failed", "url", imageURL, "error", err)
		return 0.0
	}
	vec, err := r.Embedder.EmbedImage(ctx, image)
	if err != nil {
		slog.Warn("candidate image embedding failed", "url", imageURL, "error", err)
		return 0.0
	}
	best := 0.0
	for _, frameVec := range frameVecs {
		if sim := similarity.Clamp01(similarity.Cosine(frameVec, vec)); sim > best {
			best = sim
		}
	}
	return best
}

// textScore compares the query vector to the candidate's title and
// snippet, truncated so a runaway snippet does not blow the token
// budget.
func (r *ProductRanker) textScore(ctx context.Context, queryVec []float32, c *model.Candidate) float64 {
	if queryVec == nil {
		return r.NeutralTextScore
	}
	text := strings.TrimSpace(c.Title + " " + c.Description)
	if len(text) > candidateTextLimit {
		text = text[:candidateTextLimit]
	}
	if text == "" {
		return r.NeutralTextScore
	}
	vec, err := r.Embedder.EmbedText(ctx, text)
	if err != nil {
		slog.Warn("candidate text embedding failed", "candidate", c.ID, "error", err)
		return r.NeutralTextScore
	}
	return similarity.Clamp01(similarity.Cosine(queryVec, vec))
}

// brandScore walks the affinity ladder: an exact brand token in the
// product URL or source domain beats one in the title, which beats a
// trusted multi-brand retailer, which beats everything else. Without a
// detected brand every candidate gets the configured neutral score.
func (r *ProductRanker) brandScore(brand string, c *model.Candidate) float64 {
	if brand == "" {
		return r.NeutralBrandScore
	}
	productURL := strings.ToLower(c.ProductURL)
	source := strings.ToLower(c.Source)
	token := strings.ToLower(brand)
	// Multi-word brands match the domain with the spaces removed.
	domainToken := strings.ReplaceAll(token, " ", "")
	if strings.Contains(productURL, domainToken) || strings.Contains(source, domainToken) {
		return brandInDomainScore
	}
	if strings.Contains(strings.ToLower(c.Title), token) {
		return brandInTitleScore
	}
	for _, retailer := range trustedRetailers {
		if strings.Contains(productURL, retailer) || strings.Contains(source, retailer) {
			return trustedRetailerScore
		}
	}
	return unknownSourceScore
}
