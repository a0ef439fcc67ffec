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

// Package workflow defines the high-level business logic orchestrations,
// combining commands into coherent pipelines. This file implements the
// end-to-end reel analysis workflow: download the reel, sample frames,
// select the best ones, derive the query pack, search the web, and rank
// the candidates into a product response.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-reel-search/internal/cloud"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/commands"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/services"
)

// DefaultEmbeddingModel is the config key of the multimodal embedding
// model the pipeline uses for frames, queries, and candidate images.
const DefaultEmbeddingModel = "multimodal"

// DefaultSelectedFrames is how many of the extracted frames survive
// selection and feed recognition.
const DefaultSelectedFrames = 3

// NoCandidatesError reports an exhausted search, carrying the query
// pack so callers can show the user what was searched for.
type NoCandidatesError struct {
	Pack *model.QueryPack
}

func (e *NoCandidatesError) Error() string { return services.ErrNoCandidates.Error() }

// Unwrap lets errors.Is match services.ErrNoCandidates.
func (e *NoCandidatesError) Unwrap() error { return services.ErrNoCandidates }

// ReelAnalysisWorkflow orchestrates the full video-to-products pipeline.
type ReelAnalysisWorkflow struct {
	cor.BaseCommand
	chain       cor.Chain
	maxResults  int
	clipEnabled bool
}

// Execute runs the underlying command chain.
func (w *ReelAnalysisWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Analyze runs the pipeline for one request and assembles the HTTP
// response body. It is the entry point the API layer calls.
//
// Inputs:
//   - ctx: The request-scoped Go context, carrying cancellation and tracing.
//   - request: The validated analysis request.
//
// Outputs:
//   - *model.ProductResponse: The ranked products plus detection report.
//   - error: services.ErrVideoDownload, services.ErrNoFrames, a
//     *NoCandidatesError, or the first unexpected pipeline error.
func (w *ReelAnalysisWorkflow) Analyze(ctx context.Context, request *model.ReelAnalysisRequest) (*model.ProductResponse, error) {
	c := cor.NewBaseContext()
	c.SetContext(ctx)
	defer c.Close()
	c.Add(cor.CtxIn, request)

	w.Execute(c)

	if c.HasErrors() {
		return nil, mapPipelineError(c)
	}

	// The chain leaves the final command's output in the input slot.
	// The ranker preserves cardinality; the response is capped here.
	ranked, _ := c.Get(cor.CtxIn).([]*model.Candidate)
	if w.maxResults > 0 && len(ranked) > w.maxResults {
		ranked = ranked[:w.maxResults]
	}
	response := model.NewProductResponse(ranked)
	w.decorateWithDetection(response, c)
	return response, nil
}

// mapPipelineError translates chain errors into the workflow's typed
// errors, preferring the most specific match.
func mapPipelineError(c cor.Context) error {
	var first error
	for _, err := range c.GetErrors() {
		if errors.Is(err, services.ErrNoCandidates) {
			pack, _ := c.Get(commands.CtxQueryPack).(*model.QueryPack)
			return &NoCandidatesError{Pack: pack}
		}
		if errors.Is(err, services.ErrNoFrames) || errors.Is(err, services.ErrVideoDownload) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return fmt.Errorf("reel analysis failed: %w", first)
}

// decorateWithDetection copies the recognition report and frame
// bookkeeping from the chain context onto the response.
func (w *ReelAnalysisWorkflow) decorateWithDetection(response *model.ProductResponse, c cor.Context) {
	if pack, ok := c.Get(commands.CtxQueryPack).(*model.QueryPack); ok {
		response.Brand = pack.Brand
	}
	if recognition, ok := c.Get(commands.CtxRecognition).(*model.RecognitionBundle); ok {
		for _, l := range recognition.Labels {
			response.Labels = append(response.Labels, model.DetectedLabel{
				Label:      l.Description,
				Confidence: l.Score,
			})
		}
	}
	usedClip := w.clipEnabled
	response.UsedClip = &usedClip
	if count, ok := c.Get(commands.CtxFrameCount).(int); ok {
		response.FrameCount = &count
	}
}

// initializeChain wires the six pipeline stages in order. The chain
// stops at the first recorded error.
func (w *ReelAnalysisWorkflow) initializeChain(
	config *cloud.Config,
	videoService *services.VideoService,
	selector *services.FrameSelector,
	extractor *services.QueryPackExtractor,
	searchService *services.ProductSearchService,
	ranker *services.ProductRanker) {

	out := cor.NewBaseChain(w.GetName())
	out.AddCommand(commands.NewReelDownloadCommand("reel-download", videoService))
	out.AddCommand(commands.NewFrameExtractionCommand("frame-extraction", videoService, config))
	out.AddCommand(commands.NewFrameSelectionCommand("frame-selection", selector, DefaultSelectedFrames))
	out.AddCommand(commands.NewFrameUnderstandingCommand("frame-understanding", extractor))
	out.AddCommand(commands.NewCandidateSearchCommand("candidate-search", searchService))
	out.AddCommand(commands.NewProductRankingCommand("product-ranking", ranker))
	w.chain = out
}

// NewReelAnalysisWorkflow builds the workflow and its service layer
// from the application config and the shared cloud clients. Missing
// collaborators (no vision client, no search key) leave nil interfaces
// behind, which the services degrade around.
func NewReelAnalysisWorkflow(config *cloud.Config, serviceClients *cloud.ServiceClients) *ReelAnalysisWorkflow {
	embedder, annotator, searcher, fetcher := collaborators(serviceClients)

	out := &ReelAnalysisWorkflow{
		BaseCommand: *cor.NewBaseCommand("reel-analysis-workflow"),
		maxResults:  config.Ranking.MaxResults,
		clipEnabled: embedder != nil,
	}
	out.initializeChain(
		config,
		services.NewVideoService(config),
		services.NewFrameSelector(embedder),
		services.NewQueryPackExtractor(annotator),
		services.NewProductSearchService(searcher, fetcher, config),
		services.NewProductRanker(embedder, fetcher, config))
	return out
}

// collaborators adapts the concrete cloud clients into the service
// interfaces, mapping a missing client to a truly nil interface value
// rather than a non-nil interface holding a nil pointer.
func collaborators(serviceClients *cloud.ServiceClients) (services.Embedder, services.FrameAnnotator, services.WebSearcher, services.PageFetcher) {
	var embedder services.Embedder
	var annotator services.FrameAnnotator
	var searcher services.WebSearcher
	var fetcher services.PageFetcher
	if serviceClients == nil {
		return embedder, annotator, searcher, fetcher
	}
	if m := serviceClients.EmbeddingModels[DefaultEmbeddingModel]; m != nil {
		embedder = m
	}
	if serviceClients.Annotator != nil {
		annotator = serviceClients.Annotator
	}
	if serviceClients.SearchClient != nil {
		searcher = serviceClients.SearchClient
		fetcher = serviceClients.SearchClient
	}
	return embedder, annotator, searcher, fetcher
}
