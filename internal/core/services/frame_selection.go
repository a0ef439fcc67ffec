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

// This file, `frame_selection.go`, defines the FrameSelector, which
// picks the frames most likely to show the product the user asked
// about. Without a note there is nothing to match against, so the
// first frames pass through in temporal order at full score. With a
// note and an embedder, frames are ranked by cosine similarity between
// the frame embedding and the note embedding; when the embedder is
// unavailable a positional heuristic stands in, since interior frames
// usually hold the product shot while the first frame tends to be an
// intro card and the last an outro.
package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/similarity"
)

// Positional scores used when no text guidance is available.
const (
	firstFrameScore    = 0.7
	lastFrameScore     = 0.8
	interiorFrameScore = 1.0
)

// FrameSelector ranks extracted frames against the user's note.
type FrameSelector struct {
	Embedder Embedder // May be nil; selection then falls back to the positional heuristic.
}

// NewFrameSelector is the constructor for FrameSelector.
func NewFrameSelector(embedder Embedder) *FrameSelector {
	return &FrameSelector{Embedder: embedder}
}

// Select returns the topK highest scoring frames, ordered by descending
// score with the original temporal index as the tie breaker. A blank
// note short-circuits to the first topK frames in temporal order, all
// at full score. The input slice is never mutated. A topK larger than
// the frame count returns every frame; an empty input returns an empty
// slice.
//
// Inputs:
//   - ctx: Propagated to the embedding calls.
//   - frames: The temporally ordered frames from the extractor.
//   - note: The user's free-text description, possibly empty.
//   - topK: The maximum number of frames to keep.
//
// Outputs:
//   - []*model.SelectedFrame: The kept frames with their scores.
func (s *FrameSelector) Select(ctx context.Context, frames []*model.Frame, note string, topK int) []*model.SelectedFrame {
	if len(frames) == 0 || topK < 1 {
		return []*model.SelectedFrame{}
	}
	if topK > len(frames) {
		topK = len(frames)
	}

	note = strings.TrimSpace(note)
	if note == "" {
		out := make([]*model.SelectedFrame, 0, topK)
		for _, f := range frames[:topK] {
			out = append(out, &model.SelectedFrame{Frame: f, Score: 1.0, OriginalIndex: f.Index})
		}
		return out
	}

	scored := s.scoreByText(ctx, frames, note)
	if scored == nil {
		scored = scoreByPosition(frames)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].OriginalIndex < scored[j].OriginalIndex
	})

	return scored[:topK]
}

// scoreByText embeds the note once and each frame individually, scoring
// frames by cosine similarity. It returns nil when text guidance is not
// usable (missing embedder or embedding failure) so the caller can fall
// back to the positional heuristic.
func (s *FrameSelector) scoreByText(ctx context.Context, frames []*model.Frame, note string) []*model.SelectedFrame {
	if s.Embedder == nil {
		return nil
	}

	noteVec, err := s.Embedder.EmbedText(ctx, note)
	if err != nil {
		slog.Warn("note embedding failed, using positional frame scores", "error", err)
		return nil
	}

	out := make([]*model.SelectedFrame, 0, len(frames))
	for _, f := range frames {
		frameVec, err := s.Embedder.EmbedImage(ctx, f.Payload)
		if err != nil {
			slog.Warn("frame embedding failed, using positional frame scores", "frame", f.Index, "error", err)
			return nil
		}
		out = append(out, &model.SelectedFrame{
			Frame:         f,
			Score:         similarity.Cosine(noteVec, frameVec),
			OriginalIndex: f.Index,
		})
	}
	return out
}

// scoreByPosition applies the fixed positional heuristic. A single
// frame always scores 1.0.
func scoreByPosition(frames []*model.Frame) []*model.SelectedFrame {
	out := make([]*model.SelectedFrame, 0, len(frames))
	for i, f := range frames {
		score := interiorFrameScore
		if len(frames) > 1 {
			switch i {
			case 0:
				score = firstFrameScore
			case len(frames) - 1:
				score = lastFrameScore
			}
		}
		out = append(out, &model.SelectedFrame{Frame: f, Score: score, OriginalIndex: f.Index})
	}
	return out
}
