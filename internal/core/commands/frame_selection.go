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

// This file defines the command that picks the most product-relevant
// frames, guided by the user's note when one was given.
package commands

import (
	"github.com/jaycherian/gcp-go-reel-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/services"
)

// FrameSelectionCommand ranks extracted frames and keeps the best few.
type FrameSelectionCommand struct {
	cor.BaseCommand
	selector *services.FrameSelector
	topK     int
}

// NewFrameSelectionCommand is the constructor for FrameSelectionCommand.
func NewFrameSelectionCommand(name string, selector *services.FrameSelector, topK int) *FrameSelectionCommand {
	return &FrameSelectionCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		selector:    selector,
		topK:        topK,
	}
}

// Execute reads the []*model.Frame from the input param, selects the
// topK best against the user's note, and writes the selection both to
// the output param and under CtxSelectedFrames for the ranking stage.
func (c *FrameSelectionCommand) Execute(context cor.Context) {
	frames := context.Get(c.GetInputParam()).([]*model.Frame)

	note := ""
	if request, ok := context.Get(CtxRequest).(*model.ReelAnalysisRequest); ok {
		note = request.Note
	}

	selected := c.selector.Select(context.GetContext(), frames, note, c.topK)
	context.Add(CtxSelectedFrames, selected)
	context.Add(c.GetOutputParam(), selected)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
