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
// This file implements a wrapper around the Vertex AI embedding models using
// the Decorator pattern: the wrapper adds rate limiting and bounded retries
// to the raw genai client without altering its code.
//
// Why this is important:
//   - Rate Limiting: Vertex AI enforces per-minute quotas on embedding
//     requests. The ranker may embed dozens of candidate images in a single
//     request, so an unthrottled burst would trip the quota immediately.
//   - Retry Logic: Embedding calls can fail for transient reasons. A small,
//     bounded retry makes the pipeline resilient without hiding persistent
//     outages from the degradation policy upstream.
//
// Structs:
//   - QuotaAwareEmbeddingModel: Wraps a genai.Models handle with a rate limiter.
//
// Functions:
//   - NewQuotaAwareEmbeddingModel: Constructor for the wrapped model.
//   - EmbedText / EmbedImage: Throttled, retried embedding calls.
package cloud

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// MaxEmbeddingRetries bounds the transparent retries performed by the
// quota-aware wrapper before the error is surfaced to the caller.
const MaxEmbeddingRetries = 3

// QuotaAwareEmbeddingModel is a decorator over a genai.Models handle that
// enforces a request rate and retries transient failures. One instance is
// created per configured embedding model and shared by all requests; the
// limiter is the only mutable state and is internally synchronized.
type QuotaAwareEmbeddingModel struct {
	ModelName   string        // The Vertex AI model identifier (e.g., "multimodalembedding@001").
	ModelHandle *genai.Models // The underlying genai models handle.
	RateLimit   *rate.Limiter // Token bucket limiting requests per second.
}

// NewQuotaAwareEmbeddingModel wraps the given models handle with a rate
// limiter allowing `requestsPerSecond` calls per second with an equal burst.
//
// Inputs:
//   - name: The Vertex AI embedding model name.
//   - handle: The genai models handle obtained from the GenAI client.
//   - requestsPerSecond: The allowed request rate for this model.
//
// Outputs:
//   - *QuotaAwareEmbeddingModel: A pointer to the newly created wrapper.
func NewQuotaAwareEmbeddingModel(name string, handle *genai.Models, requestsPerSecond int) *QuotaAwareEmbeddingModel {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &QuotaAwareEmbeddingModel{
		ModelName:   name,
		ModelHandle: handle,
		RateLimit:   rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
	}
}

// EmbedText produces an embedding vector for the given text. The call
// blocks on the rate limiter (respecting context cancellation) and retries
// transient failures up to MaxEmbeddingRetries times.
//
// Inputs:
//   - ctx: The request context; cancellation abandons waiting and retries.
//   - text: The text to embed.
//
// Outputs:
//   - []float32: The embedding vector.
//   - error: An error if the call fails after all retries.
func (q *QuotaAwareEmbeddingModel) EmbedText(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}
	return q.embed(ctx, contents, 0)
}

// EmbedImage produces an embedding vector for the given encoded image
// bytes using the same throttling and retry policy as EmbedText. Text and
// image vectors from the same joint model are directly comparable, which
// is what the frame selector and the visual ranker rely on.
//
// Inputs:
//   - ctx: The request context.
//   - image: Encoded image bytes (JPEG).
//
// Outputs:
//   - []float32: The embedding vector.
//   - error: An error if the call fails after all retries.
func (q *QuotaAwareEmbeddingModel) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromBytes(image, "image/jpeg", genai.RoleUser),
	}
	return q.embed(ctx, contents, 0)
}

// embed performs the throttled EmbedContent call with bounded retries.
func (q *QuotaAwareEmbeddingModel) embed(ctx context.Context, contents []*genai.Content, tryCount int) ([]float32, error) {
	// Wait blocks until a token is available or the context is cancelled.
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := q.ModelHandle.EmbedContent(ctx, q.ModelName, contents, nil)
	if err != nil {
		if tryCount < MaxEmbeddingRetries && ctx.Err() == nil {
			return q.embed(ctx, contents, tryCount+1)
		}
		return nil, err
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("embedding response contained no values")
	}
	return resp.Embeddings[0].Values, nil
}
