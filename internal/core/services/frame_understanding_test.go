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
	"testing"

	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/zeebo/assert"
)

func bundleWith(labels []string, logos []string, text []string) *model.RecognitionBundle {
	out := &model.RecognitionBundle{TextSegments: text}
	for _, l := range labels {
		out.Labels = append(out.Labels, model.Annotation{Description: l, Score: 0.9})
	}
	for _, l := range logos {
		out.Logos = append(out.Logos, model.Annotation{Description: l, Score: 0.9})
	}
	return out
}

func TestBuildQueryPackProductTypePrecedence(t *testing.T) {
	// "sneaker" (footwear) and "jacket" (clothing) both present: footwear
	// wins by bucket order.
	pack := BuildQueryPack(bundleWith([]string{"Sneaker", "Jacket"}, nil, nil), "")
	assert.Equal(t, "footwear", pack.ProductType)

	pack = BuildQueryPack(bundleWith([]string{"Handbag"}, nil, nil), "")
	assert.Equal(t, "accessory", pack.ProductType)

	pack = BuildQueryPack(bundleWith([]string{"Sky", "Tree"}, nil, nil), "")
	assert.Equal(t, "", pack.ProductType)
}

func TestBuildQueryPackProductTypeNoteBeatsLabels(t *testing.T) {
	// The note names clothing and the labels footwear. What the user
	// asked about wins, even though footwear outranks clothing in the
	// bucket order.
	pack := BuildQueryPack(bundleWith([]string{"Sneaker"}, nil, nil), "that red jacket")
	assert.Equal(t, "clothing", pack.ProductType)
}

func TestBuildQueryPackBrandLogoBeatsOCR(t *testing.T) {
	// The OCR text says Adidas but the logo detector saw Nike; the logo
	// wins.
	bundle := bundleWith(nil, []string{"Nike"}, []string{"ADIDAS ORIGINALS"})
	pack := BuildQueryPack(bundle, "")
	assert.Equal(t, "Nike", pack.Brand)
}

func TestBuildQueryPackBrandFromOCR(t *testing.T) {
	bundle := bundleWith(nil, nil, []string{"ADIDAS ORIGINALS"})
	pack := BuildQueryPack(bundle, "")
	assert.Equal(t, "Adidas", pack.Brand)
}

func TestBuildQueryPackBrandNeverFromNote(t *testing.T) {
	// The note is the user's words, not evidence of what is on screen;
	// only logos, OCR text, and labels may set the brand.
	pack := BuildQueryPack(&model.RecognitionBundle{}, "those white converse high tops")
	assert.Equal(t, "", pack.Brand)
}

func TestBuildQueryPackBrandFromLabelExactOnly(t *testing.T) {
	// A label sets the brand only on an exact match; a phrase that
	// merely mentions a brand does not.
	pack := BuildQueryPack(bundleWith([]string{"converse"}, nil, nil), "")
	assert.Equal(t, "Converse", pack.Brand)

	pack = BuildQueryPack(bundleWith([]string{"converse sneaker"}, nil, nil), "")
	assert.Equal(t, "", pack.Brand)
}

func TestBuildQueryPackUnknownLogoPassesThrough(t *testing.T) {
	// A logo outside the known-brand list is still brand-specific
	// evidence and passes through verbatim.
	bundle := bundleWith(nil, []string{"Allbirds"}, nil)
	pack := BuildQueryPack(bundle, "")
	assert.Equal(t, "Allbirds", pack.Brand)
}

func TestBuildQueryPackColorsCappedAndDeduped(t *testing.T) {
	bundle := bundleWith([]string{"Black shoe", "White sole", "Red stripe", "Blue laces"}, nil, nil)
	pack := BuildQueryPack(bundle, "")
	assert.Equal(t, 3, len(pack.Colors))
	assert.DeepEqual(t, []string{"black", "white", "red"}, pack.Colors)

	// grey and gray collapse to one entry.
	bundle = bundleWith([]string{"Gray hoodie", "grey fabric"}, nil, nil)
	pack = BuildQueryPack(bundle, "")
	assert.DeepEqual(t, []string{"gray"}, pack.Colors)
}

func TestBuildQueryPackColorsNoteLeads(t *testing.T) {
	// Colors from the note come before colors from the labels, so the
	// shade the user asked for leads the search query.
	bundle := bundleWith([]string{"Black shoe", "White sole"}, nil, nil)
	pack := BuildQueryPack(bundle, "the blue ones")
	assert.DeepEqual(t, []string{"blue", "black", "white"}, pack.Colors)
}

func TestBuildQueryPackModelFromOCR(t *testing.T) {
	bundle := bundleWith(nil, nil, []string{"AIR MAX 270"})
	pack := BuildQueryPack(bundle, "")
	assert.Equal(t, "MAX 270", pack.ModelGuess)

	bundle = bundleWith(nil, nil, []string{"style W2986 runner"})
	pack = BuildQueryPack(bundle, "")
	assert.Equal(t, "W2986", pack.ModelGuess)
}

func TestBuildQueryPackModelFromNote(t *testing.T) {
	// Product line names are recognized in the user's note, not in the
	// OCR text, and come back title-cased.
	pack := BuildQueryPack(&model.RecognitionBundle{}, "the ultraboost fits great")
	assert.Equal(t, "Ultraboost", pack.ModelGuess)

	bundle := bundleWith(nil, nil, []string{"the ultraboost fits great"})
	pack = BuildQueryPack(bundle, "")
	assert.Equal(t, "", pack.ModelGuess)
}

func TestBuildQueryPackVisibleTextDeduped(t *testing.T) {
	bundle := bundleWith(nil, nil, []string{"SALE", "AIR", "SALE", ""})
	pack := BuildQueryPack(bundle, "")
	assert.DeepEqual(t, []string{"SALE", "AIR"}, pack.VisibleText)
	assert.Equal(t, "SALE AIR", pack.OCRText)
}

func TestBuildQueryPackAttributesCapped(t *testing.T) {
	bundle := bundleWith([]string{"casual vintage leather denim mesh knit fleece"}, nil, nil)
	pack := BuildQueryPack(bundle, "")
	assert.Equal(t, 5, len(pack.Attributes))
}

func TestBuildQueryPackAttributesFromLabelsOnly(t *testing.T) {
	// Attribute terms come from the labels; the note contributes type
	// and colors but not attributes.
	pack := BuildQueryPack(&model.RecognitionBundle{}, "casual leather boots")
	assert.Equal(t, 0, len(pack.Attributes))
}

// countingAnnotator records how many frames were sent to the vision
// API.
type countingAnnotator struct {
	bundle *model.RecognitionBundle
	calls  int
}

func (c *countingAnnotator) Annotate(_ context.Context, _ []byte) (*model.RecognitionBundle, error) {
	c.calls++
	return c.bundle, nil
}

func TestExtractAnnotatesOnlyBestFrame(t *testing.T) {
	annotator := &countingAnnotator{bundle: bundleWith([]string{"Sneaker"}, nil, nil)}
	extractor := NewQueryPackExtractor(annotator)

	selected := []*model.SelectedFrame{
		{Frame: &model.Frame{Payload: []byte{0}, Index: 2}, Score: 1.0, OriginalIndex: 2},
		{Frame: &model.Frame{Payload: []byte{1}, Index: 0}, Score: 0.7, OriginalIndex: 0},
		{Frame: &model.Frame{Payload: []byte{2}, Index: 4}, Score: 0.5, OriginalIndex: 4},
	}
	pack, recognition := extractor.Extract(context.Background(), selected, "")

	assert.Equal(t, 1, annotator.calls)
	assert.Equal(t, "footwear", pack.ProductType)
	assert.Equal(t, 1, len(recognition.Labels))
}

func TestBuildQueryPackCarriesNote(t *testing.T) {
	pack := BuildQueryPack(&model.RecognitionBundle{}, "  blue running shoes  ")
	assert.Equal(t, "blue running shoes", pack.UserText)
	assert.Equal(t, "footwear", pack.ProductType)
	assert.DeepEqual(t, []string{"blue"}, pack.Colors)
}

func TestBuildQueryPackDeterministic(t *testing.T) {
	bundle := bundleWith([]string{"Sneaker", "Blue"}, []string{"Nike"}, []string{"AIR FORCE 1"})
	a := BuildQueryPack(bundle, "note")
	b := BuildQueryPack(bundle, "note")
	assert.DeepEqual(t, a, b)
}
