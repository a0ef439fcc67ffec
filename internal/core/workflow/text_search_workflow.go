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

// This file implements the text-only search workflow, used when the
// caller has a product description but no reel. It derives a query pack
// from the text alone, then reuses the same search and ranking stages
// as the full pipeline.
package workflow

import (
	"context"

	"github.com/jaycherian/gcp-go-reel-search/internal/cloud"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/commands"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/services"
)

// TextSearchWorkflow runs the search and ranking stages over a query
// pack built from free text.
type TextSearchWorkflow struct {
	cor.BaseCommand
	chain      cor.Chain
	maxResults int
}

// Execute runs the underlying command chain. The input param must hold
// the *model.QueryPack to search for.
func (w *TextSearchWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Search derives a query pack from the request text, runs the chain,
// and assembles the response. used_clip is reported false since no
// video was involved.
func (w *TextSearchWorkflow) Search(ctx context.Context, request *model.TextSearchRequest) (*model.ProductResponse, error) {
	pack := services.BuildQueryPack(&model.RecognitionBundle{}, request.Query)

	c := cor.NewBaseContext()
	c.SetContext(ctx)
	defer c.Close()
	c.Add(cor.CtxIn, pack)
	c.Add(commands.CtxQueryPack, pack)

	w.Execute(c)

	if c.HasErrors() {
		return nil, mapPipelineError(c)
	}

	// The chain leaves the final command's output in the input slot.
	ranked, _ := c.Get(cor.CtxIn).([]*model.Candidate)
	limit := w.maxResults
	if request.NumResults > 0 {
		limit = request.NumResults
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	response := model.NewProductResponse(ranked)
	response.Brand = pack.Brand
	usedClip := false
	response.UsedClip = &usedClip
	return response, nil
}

// NewTextSearchWorkflow builds the two-stage chain from the shared
// cloud clients.
func NewTextSearchWorkflow(config *cloud.Config, serviceClients *cloud.ServiceClients) *TextSearchWorkflow {
	embedder, _, searcher, fetcher := collaborators(serviceClients)

	out := &TextSearchWorkflow{
		BaseCommand: *cor.NewBaseCommand("text-search-workflow"),
		maxResults:  config.Ranking.MaxResults,
	}
	chain := cor.NewBaseChain(out.GetName())
	chain.AddCommand(commands.NewCandidateSearchCommand("candidate-search", services.NewProductSearchService(searcher, fetcher, config)))
	chain.AddCommand(commands.NewProductRankingCommand("product-ranking", services.NewProductRanker(embedder, fetcher, config)))
	out.chain = chain
	return out
}
