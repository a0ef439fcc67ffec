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

// Package services contains the business logic of the reel analysis
// pipeline. This file declares the interfaces of the external
// collaborators each stage depends on. Services accept these interfaces
// rather than concrete clients so that tests substitute fakes and so a
// nil collaborator can express "not configured" uniformly; the cloud
// package provides the production implementations.
package services

import (
	"context"

	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
)

// Embedder computes vectors from a pretrained joint vision-language
// encoder. Text and image vectors are directly comparable.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)
}

// FrameAnnotator runs label, logo, and OCR recognition on one encoded
// image.
type FrameAnnotator interface {
	Annotate(ctx context.Context, image []byte) (*model.RecognitionBundle, error)
}

// WebSearcher issues one page of a web search. `start` is the 1-based
// index of the first result; `num` the page size.
type WebSearcher interface {
	Search(ctx context.Context, query string, start, num int64) ([]*model.SearchResult, error)
}

// PageFetcher retrieves raw web content: HTML pages for the PDP
// extraction fallback and candidate images for visual scoring.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
	FetchImage(ctx context.Context, url string) ([]byte, error)
}
