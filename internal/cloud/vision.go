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
// This file wraps the Cloud Vision ImageAnnotatorClient behind the narrow
// interface the pipeline needs: one call per analyzed frame that returns
// labels, logos, and OCR text together.
//
// Logic Flow:
//  1. A single BatchAnnotateImages request carries all three feature types
//     (LABEL_DETECTION, LOGO_DETECTION, TEXT_DETECTION), so each frame
//     costs one round trip instead of three.
//  2. Labels below the configured confidence floor are discarded.
//  3. The first text annotation holds the full OCR block; it is split into
//     trimmed, non-empty lines, which is the granularity the query-pack
//     extractor matches brand names and model codes against.
package cloud

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
)

// DefaultVisionTimeout bounds each annotation round trip. A slow Vision
// call degrades that frame, never the whole request.
const DefaultVisionTimeout = 8 * time.Second

// VisionAnnotator adapts the Cloud Vision client to the pipeline's
// recognition interface. It is safe for concurrent use once constructed.
type VisionAnnotator struct {
	Client             *vision.ImageAnnotatorClient
	MaxLabels          int32   // Maximum labels requested per frame.
	MaxLogos           int32   // Maximum logos requested per frame.
	MinLabelConfidence float64 // Labels under this score are dropped.
}

// NewVisionAnnotator builds the annotator from the application config.
//
// Inputs:
//   - client: An initialized ImageAnnotatorClient.
//   - cfg: The vision section of the application configuration.
//
// Outputs:
//   - *VisionAnnotator: The configured annotator.
func NewVisionAnnotator(client *vision.ImageAnnotatorClient, cfg Vision) *VisionAnnotator {
	maxLabels := int32(cfg.MaxLabels)
	if maxLabels <= 0 {
		maxLabels = 20
	}
	maxLogos := int32(cfg.MaxLogos)
	if maxLogos <= 0 {
		maxLogos = 5
	}
	return &VisionAnnotator{
		Client:             client,
		MaxLabels:          maxLabels,
		MaxLogos:           maxLogos,
		MinLabelConfidence: cfg.MinLabelConfidence,
	}
}

// Annotate runs label, logo, and text detection on one encoded image and
// collects the results into a RecognitionBundle.
//
// Inputs:
//   - ctx: The request context; the call is bounded by DefaultVisionTimeout.
//   - image: Encoded image bytes.
//
// Outputs:
//   - *model.RecognitionBundle: Labels, logos, and OCR lines for the frame.
//   - error: An error if the Vision API call itself fails.
func (v *VisionAnnotator) Annotate(ctx context.Context, image []byte) (*model.RecognitionBundle, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultVisionTimeout)
	defer cancel()

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: v.MaxLabels},
					{Type: visionpb.Feature_LOGO_DETECTION, MaxResults: v.MaxLogos},
					{Type: visionpb.Feature_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.Client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision annotate: %w", err)
	}
	if len(resp.Responses) == 0 {
		return &model.RecognitionBundle{}, nil
	}
	res := resp.Responses[0]
	if res.Error != nil {
		return nil, fmt.Errorf("vision annotate: %s", res.Error.Message)
	}

	bundle := &model.RecognitionBundle{}

	for _, label := range res.LabelAnnotations {
		if float64(label.Score) < v.MinLabelConfidence {
			continue
		}
		bundle.Labels = append(bundle.Labels, model.Annotation{
			Description: label.Description,
			Score:       float64(label.Score),
		})
	}

	for _, logo := range res.LogoAnnotations {
		if logo.Description == "" {
			continue
		}
		bundle.Logos = append(bundle.Logos, model.Annotation{
			Description: logo.Description,
			Score:       float64(logo.Score),
		})
	}

	// The first text annotation is the full OCR block; the rest repeat it
	// word by word. Split the block into trimmed lines.
	if len(res.TextAnnotations) > 0 {
		for _, line := range strings.Split(res.TextAnnotations[0].Description, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				bundle.TextSegments = append(bundle.TextSegments, line)
			}
		}
	}

	return bundle, nil
}
