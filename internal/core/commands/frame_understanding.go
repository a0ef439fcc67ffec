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

// This file defines the command that runs vision recognition over the
// best selected frame and distills the result into the query pack that
// drives the search.
package commands

import (
	"github.com/jaycherian/gcp-go-reel-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/services"
)

// FrameUnderstandingCommand derives a query pack from the best
// selected frame.
type FrameUnderstandingCommand struct {
	cor.BaseCommand
	extractor *services.QueryPackExtractor
}

// NewFrameUnderstandingCommand is the constructor for FrameUnderstandingCommand.
func NewFrameUnderstandingCommand(name string, extractor *services.QueryPackExtractor) *FrameUnderstandingCommand {
	return &FrameUnderstandingCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		extractor:   extractor,
	}
}

// Execute reads the []*model.SelectedFrame from the input param and
// writes the derived *model.QueryPack both to the output param and
// under CtxQueryPack, where the ranking stage and the workflow's error
// responses read it.
func (c *FrameUnderstandingCommand) Execute(context cor.Context) {
	frames := context.Get(c.GetInputParam()).([]*model.SelectedFrame)

	note := ""
	if request, ok := context.Get(CtxRequest).(*model.ReelAnalysisRequest); ok {
		note = request.Note
	}

	pack, recognition := c.extractor.Extract(context.GetContext(), frames, note)
	context.Add(CtxQueryPack, pack)
	context.Add(CtxRecognition, recognition)
	context.Add(c.GetOutputParam(), pack)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
