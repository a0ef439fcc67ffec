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

// This file, `frame_understanding.go`, defines the QueryPackExtractor.
// It runs vision recognition over the best selected frame and distills
// the raw labels, logos, and OCR text into a structured QueryPack: the
// product type, brand, model guess, colors, and attributes that drive
// the downstream web search. Each field has its own evidence order:
// type and colors check the user's note before the labels, brand goes
// logo > OCR > label, and the model guess goes OCR > note.
package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
)

const (
	maxQueryPackColors     = 3
	maxQueryPackAttributes = 5
)

// QueryPackExtractor turns an annotated frame into a search query pack.
type QueryPackExtractor struct {
	Annotator FrameAnnotator
}

// NewQueryPackExtractor is the constructor for QueryPackExtractor.
func NewQueryPackExtractor(annotator FrameAnnotator) *QueryPackExtractor {
	return &QueryPackExtractor{Annotator: annotator}
}

// Extract annotates the best selected frame and derives the query pack
// from the recognition output. An annotation failure is logged and the
// pack is built from the user's note alone, so the search stage always
// has something to run with.
//
// Inputs:
//   - ctx: Propagated to the vision call.
//   - frames: The selected frames, best first.
//   - note: The user's free-text description, possibly empty.
//
// Outputs:
//   - *model.QueryPack: The derived pack. Never nil.
//   - *model.RecognitionBundle: The raw recognition output, kept for
//     the response's detected-label report. Never nil.
func (e *QueryPackExtractor) Extract(ctx context.Context, frames []*model.SelectedFrame, note string) (*model.QueryPack, *model.RecognitionBundle) {
	recognition := &model.RecognitionBundle{}
	if e.Annotator != nil && len(frames) > 0 {
		best := frames[0]
		bundle, err := e.Annotator.Annotate(ctx, best.Frame.Payload)
		if err != nil {
			slog.Warn("frame annotation failed", "frame", best.OriginalIndex, "error", err)
		} else {
			recognition = bundle
		}
	}
	return BuildQueryPack(recognition, note), recognition
}

// BuildQueryPack derives the structured pack from recognition output
// and the user's note. It is deterministic and side-effect free, which
// keeps it directly testable without a vision client.
func BuildQueryPack(bundle *model.RecognitionBundle, note string) *model.QueryPack {
	pack := &model.QueryPack{UserText: strings.TrimSpace(note)}

	labelTexts := make([]string, 0, len(bundle.Labels))
	for _, l := range bundle.Labels {
		labelTexts = append(labelTexts, l.Description)
		pack.Labels = append(pack.Labels, l.Description)
	}
	for _, l := range bundle.Logos {
		pack.Logos = append(pack.Logos, l.Description)
	}
	pack.VisibleText = dedupe(bundle.TextSegments)
	pack.OCRText = strings.Join(pack.VisibleText, " ")

	labelCorpus := strings.ToLower(strings.Join(labelTexts, " "))
	userCorpus := strings.ToLower(pack.UserText)

	pack.ProductType = detectProductType(userCorpus, labelCorpus)
	pack.Brand = detectBrand(pack.Logos, pack.VisibleText, labelTexts)
	pack.ModelGuess = detectModel(pack.VisibleText, userCorpus)
	pack.Colors = detectColors(userCorpus, labelCorpus)
	pack.Attributes = detectAttributes(labelCorpus)
	return pack
}

// detectProductType returns the first type bucket, in fixed precedence
// order, with a keyword in the user's note; the labels are only
// consulted when the note names no type.
func detectProductType(userCorpus, labelCorpus string) string {
	for _, corpus := range []string{userCorpus, labelCorpus} {
		for _, t := range productTypeOrder {
			for _, kw := range productTypeKeywords[t] {
				if strings.Contains(corpus, kw) {
					return t
				}
			}
		}
	}
	return ""
}

// detectBrand resolves the brand with logo > OCR > label precedence.
// Logo annotations are matched against the known-brand list so casing
// is canonical; an unmatched logo description is still accepted as-is
// because the vision logo detector is brand-specific by construction.
// OCR lines match a known brand as a substring; labels only on an
// exact match, since a label is a single classification term.
func detectBrand(logos []string, ocrLines []string, labels []string) string {
	for _, logo := range logos {
		lower := strings.ToLower(logo)
		for _, b := range knownBrands {
			if strings.Contains(lower, b) {
				return titleCase(b)
			}
		}
	}
	if len(logos) > 0 {
		return logos[0]
	}
	for _, line := range ocrLines {
		lower := strings.ToLower(line)
		for _, b := range knownBrands {
			if strings.Contains(lower, b) {
				return titleCase(b)
			}
		}
	}
	for _, label := range labels {
		lower := strings.ToLower(label)
		for _, b := range knownBrands {
			if b == lower {
				return titleCase(b)
			}
		}
	}
	return ""
}

// detectModel scans each OCR line for alphanumeric model designations
// and falls back to well-known product line names in the user's note.
func detectModel(ocrLines []string, userCorpus string) string {
	for _, line := range ocrLines {
		for _, re := range modelPatterns {
			if m := re.FindString(line); m != "" {
				return strings.TrimSpace(m)
			}
		}
	}
	for _, m := range commonModels {
		if strings.Contains(userCorpus, m) {
			return titleCase(m)
		}
	}
	return ""
}

// detectColors keeps up to maxQueryPackColors colors without
// duplicates, the user's note scanned before the labels so the colors
// the user asked for lead the query. "grey" and "gray" are collapsed.
func detectColors(userCorpus, labelCorpus string) []string {
	var colors []string
	seen := make(map[string]bool)
	for _, corpus := range []string{userCorpus, labelCorpus} {
		for _, c := range colorKeywords {
			if len(colors) == maxQueryPackColors {
				return colors
			}
			canonical := c
			if c == "grey" {
				canonical = "gray"
			}
			if seen[canonical] {
				continue
			}
			if strings.Contains(corpus, c) {
				seen[canonical] = true
				colors = append(colors, canonical)
			}
		}
	}
	return colors
}

// detectAttributes keeps up to maxQueryPackAttributes attribute terms
// from the labels, in vocabulary order, without duplicates.
func detectAttributes(labelCorpus string) []string {
	var attrs []string
	seen := make(map[string]bool)
	for _, a := range attributeKeywords {
		if len(attrs) == maxQueryPackAttributes {
			break
		}
		canonical := strings.ReplaceAll(a, " ", "-")
		if seen[canonical] {
			continue
		}
		if strings.Contains(labelCorpus, a) {
			seen[canonical] = true
			attrs = append(attrs, canonical)
		}
	}
	return attrs
}

// dedupe removes duplicate strings preserving first-seen order.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// titleCase upper-cases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
