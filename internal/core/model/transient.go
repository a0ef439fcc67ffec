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

// Package model defines the core data structures for the application.
// This file contains the in-memory records that flow through the reel
// analysis pipeline: extracted frames, vision recognition output, the
// derived query pack, and product candidates. These objects live for a
// single request; nothing in this package is persisted.
package model

// Frame is a single still image sampled from a reel. The payload is the
// encoded image bytes (JPEG) exactly as produced by the frame grabber.
// Frames are read-only once created and are discarded when the request
// completes.
type Frame struct {
	Payload []byte // Encoded image bytes.
	Index   int    // Zero-based position of the frame in the extraction sequence.
}

// SelectedFrame pairs a frame with the relevance score assigned by the
// frame selector. OriginalIndex is preserved so callers can report which
// sampled frame was used.
type SelectedFrame struct {
	Frame         *Frame
	Score         float64 // Relevance in [0,1].
	OriginalIndex int
}

// Annotation is a single recognition result (a label or a detected logo)
// with the confidence reported by the vision collaborator.
type Annotation struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// RecognitionBundle is the per-frame output of the vision collaborator:
// ordered labels, ordered logos, and the OCR text segments found in the
// frame. Produced once per analyzed frame and immutable afterwards.
type RecognitionBundle struct {
	Labels       []Annotation
	Logos        []Annotation
	TextSegments []string
}

// QueryPack is the structured, best-effort description of the product
// derived from one analyzed frame plus the user's note. Every derived
// field may legitimately be empty: absence of signal is an expected
// state, and downstream stages must tolerate a pack with nothing but
// the verbatim user text in it.
type QueryPack struct {
	ProductType string   `json:"product_type,omitempty"` // One of the fixed taxonomy categories, or empty.
	Brand       string   `json:"brand,omitempty"`
	ModelGuess  string   `json:"model_guess,omitempty"`
	Colors      []string `json:"colors,omitempty"`     // Discovery order, deduplicated, at most 3.
	Attributes  []string `json:"attributes,omitempty"` // Deduplicated, at most 5.
	VisibleText []string `json:"visible_text,omitempty"`
	OCRText     string   `json:"ocr_text,omitempty"` // All OCR segments joined with spaces.
	Labels      []string `json:"labels,omitempty"`
	Logos       []string `json:"logos,omitempty"`
	UserText    string   `json:"user_text,omitempty"` // Verbatim note from the request.
}

// SearchResult is one raw row returned by the web search collaborator
// before any product filtering has happened.
type SearchResult struct {
	Title    string
	URL      string
	Snippet  string
	ImageURL string
	Domain   string
}

// Candidate is a retrieved product record. Retrieval populates the
// descriptive fields; ranking attaches the component scores to a new
// decorated copy rather than mutating in place, so a Candidate coming
// out of the retriever is safe to share.
type Candidate struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	ImageURL    string   `json:"image_url"`
	ProductURL  string   `json:"product_url"`
	Source      string   `json:"source"`
	Tags        []string `json:"tags"`

	// Scores, set only on candidates returned by the ranker. All are
	// rounded to three decimal places and bounded by [0,1].
	VisualSimilarity float64 `json:"visual_similarity"`
	TextSimilarity   float64 `json:"text_similarity"`
	BrandMatch       float64 `json:"brand_match"`
	FinalScore       float64 `json:"final_score"`
	SimilarityScore  float64 `json:"similarity_score"` // Mirrors FinalScore for API compatibility.
}

// Clone returns a copy of the candidate with its own tag slice. The
// ranker decorates clones so that the retriever's output stays immutable.
func (c *Candidate) Clone() *Candidate {
	out := *c
	out.Tags = append([]string(nil), c.Tags...)
	return &out
}
