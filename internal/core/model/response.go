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
// This file holds the JSON shapes returned by the HTTP API. The product
// array shape is shared by the reel analysis endpoint and the text-only
// search endpoint; the reel endpoint additionally reports the detected
// labels and brand plus frame bookkeeping fields.
package model

// ProductView is the wire representation of a ranked candidate.
type ProductView struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Price            float64  `json:"price"`
	Currency         string   `json:"currency"`
	ImageURL         string   `json:"image_url"`
	ProductURL       string   `json:"product_url"`
	SimilarityScore  float64  `json:"similarity_score"`
	VisualSimilarity float64  `json:"visual_similarity"`
	Tags             []string `json:"tags"`
	Source           string   `json:"source"`
}

// DetectedLabel is a recognition label included in the response for
// debugging and client-side display.
type DetectedLabel struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ProductResponse is the success body for both search endpoints. The
// legacy fields (PrimarySku, PrimaryLink, AltLinks) predate the
// primary/alternatives split and are kept for older clients.
type ProductResponse struct {
	Products     []*ProductView  `json:"products"`
	Count        int             `json:"count"`
	Primary      *ProductView    `json:"primary"`
	Alternatives []*ProductView  `json:"alternatives"`
	Labels       []DetectedLabel `json:"detected_labels,omitempty"`
	Brand        string          `json:"detected_brand,omitempty"`
	UsedClip     *bool           `json:"used_clip,omitempty"`
	FrameCount   *int            `json:"frames_extracted,omitempty"`
	PrimarySku   string          `json:"primarySku,omitempty"`
	PrimaryLink  string          `json:"primaryLink,omitempty"`
	AltLinks     []string        `json:"altLinks,omitempty"`
}

// NewProductResponse builds the response body from ranked candidates.
// Products arrive already sorted by descending final score, so the
// first entry becomes the primary match and the next three become the
// alternatives.
func NewProductResponse(products []*Candidate) *ProductResponse {
	views := make([]*ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, &ProductView{
			ID:               p.ID,
			Title:            p.Title,
			Description:      p.Description,
			Price:            p.Price,
			Currency:         p.Currency,
			ImageURL:         p.ImageURL,
			ProductURL:       p.ProductURL,
			SimilarityScore:  p.SimilarityScore,
			VisualSimilarity: p.VisualSimilarity,
			Tags:             p.Tags,
			Source:           p.Source,
		})
	}

	out := &ProductResponse{
		Products:     views,
		Count:        len(views),
		Alternatives: make([]*ProductView, 0),
	}
	if len(views) > 0 {
		out.Primary = views[0]
		out.PrimarySku = views[0].Title
		out.PrimaryLink = views[0].ProductURL
	}
	if len(views) > 1 {
		end := len(views)
		if end > 4 {
			end = 4
		}
		out.Alternatives = views[1:end]
		for _, v := range views[1:min(3, len(views))] {
			out.AltLinks = append(out.AltLinks, v.ProductURL)
		}
	}
	return out
}
