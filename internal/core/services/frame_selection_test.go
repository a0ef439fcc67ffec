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
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/zeebo/assert"
)

func makeFrames(n int) []*model.Frame {
	out := make([]*model.Frame, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &model.Frame{Payload: []byte{byte(i)}, Index: i})
	}
	return out
}

// pinnedEmbedder returns fixed vectors so similarity ordering is exact.
type pinnedEmbedder struct {
	text    []float32
	byFrame map[byte][]float32
	err     error
}

func (p *pinnedEmbedder) EmbedText(_ context.Context, _ string) ([]float32, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.text, nil
}

func (p *pinnedEmbedder) EmbedImage(_ context.Context, image []byte) ([]float32, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.byFrame[image[0]], nil
}

func TestSelectBlankNoteKeepsTemporalOrder(t *testing.T) {
	// With nothing to rank against, selection keeps the first topK
	// frames in their original order, all at full score. An embedder
	// being present must not change that.
	embedder := &pinnedEmbedder{
		text: []float32{1, 0},
		byFrame: map[byte][]float32{
			0: {0, 1},
			1: {1, 0},
			2: {1, 0},
			3: {1, 0},
		},
	}
	for _, note := range []string{"", "   \t"} {
		for _, selector := range []*FrameSelector{NewFrameSelector(nil), NewFrameSelector(embedder)} {
			selected := selector.Select(context.Background(), makeFrames(4), note, 3)
			assert.Equal(t, 3, len(selected))
			for i, f := range selected {
				assert.Equal(t, i, f.OriginalIndex)
				assert.Equal(t, 1.0, f.Score)
			}
		}
	}
}

func TestSelectPositionalHeuristicWithNote(t *testing.T) {
	selector := NewFrameSelector(nil)
	frames := makeFrames(4)

	selected := selector.Select(context.Background(), frames, "red sneakers", 4)
	assert.Equal(t, 4, len(selected))

	// Interior frames (score 1.0) come first in temporal order, then the
	// last frame (0.8), then the first (0.7).
	assert.Equal(t, 1, selected[0].OriginalIndex)
	assert.Equal(t, 2, selected[1].OriginalIndex)
	assert.Equal(t, 3, selected[2].OriginalIndex)
	assert.Equal(t, 0, selected[3].OriginalIndex)
	assert.Equal(t, 1.0, selected[0].Score)
	assert.Equal(t, 0.8, selected[2].Score)
	assert.Equal(t, 0.7, selected[3].Score)
}

func TestSelectSingleFrameScoresFull(t *testing.T) {
	selector := NewFrameSelector(nil)
	selected := selector.Select(context.Background(), makeFrames(1), "red sneakers", 3)
	assert.Equal(t, 1, len(selected))
	assert.Equal(t, 1.0, selected[0].Score)
}

func TestSelectTopKBounds(t *testing.T) {
	selector := NewFrameSelector(nil)
	frames := makeFrames(5)

	assert.Equal(t, 2, len(selector.Select(context.Background(), frames, "", 2)))
	assert.Equal(t, 5, len(selector.Select(context.Background(), frames, "", 10)))
	assert.Equal(t, 0, len(selector.Select(context.Background(), frames, "", 0)))
	assert.Equal(t, 0, len(selector.Select(context.Background(), nil, "", 3)))
}

func TestSelectRanksBySimilarityWithNote(t *testing.T) {
	embedder := &pinnedEmbedder{
		text: []float32{1, 0},
		byFrame: map[byte][]float32{
			0: {0, 1},        // orthogonal, similarity 0
			1: {1, 0},        // identical, similarity 1
			2: {0.7, 0.7142}, // diagonal-ish, similarity ~0.7
		},
	}
	selector := NewFrameSelector(embedder)
	frames := makeFrames(3)

	selected := selector.Select(context.Background(), frames, "red sneakers", 2)
	assert.Equal(t, 2, len(selected))
	assert.Equal(t, 1, selected[0].OriginalIndex)
	assert.Equal(t, 2, selected[1].OriginalIndex)
	assert.True(t, selected[0].Score > selected[1].Score)
}

func TestSelectFallsBackWhenEmbeddingFails(t *testing.T) {
	embedder := &pinnedEmbedder{err: errors.New("quota exhausted")}
	selector := NewFrameSelector(embedder)
	frames := makeFrames(3)

	selected := selector.Select(context.Background(), frames, "red sneakers", 3)
	assert.Equal(t, 3, len(selected))
	// Positional heuristic: the interior frame wins.
	assert.Equal(t, 1, selected[0].OriginalIndex)
	assert.Equal(t, 1.0, selected[0].Score)
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	selector := NewFrameSelector(nil)
	frames := makeFrames(3)

	_ = selector.Select(context.Background(), frames, "", 3)
	for i, f := range frames {
		assert.Equal(t, i, f.Index)
	}
}
