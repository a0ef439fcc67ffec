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

// This file defines the command that samples frames out of the
// downloaded clip. The requested frame count is clamped against the
// configured bounds, and a clip that produces zero frames terminates
// the chain with services.ErrNoFrames.
package commands

import (
	"github.com/jaycherian/gcp-go-reel-search/internal/cloud"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/services"
)

// FrameExtractionCommand samples evenly spaced frames from a clip.
type FrameExtractionCommand struct {
	cor.BaseCommand
	videoService      *services.VideoService
	defaultFrameCount int
	maxFrameCount     int
}

// NewFrameExtractionCommand is the constructor for FrameExtractionCommand.
func NewFrameExtractionCommand(name string, videoService *services.VideoService, config *cloud.Config) *FrameExtractionCommand {
	return &FrameExtractionCommand{
		BaseCommand:       *cor.NewBaseCommand(name),
		videoService:      videoService,
		defaultFrameCount: config.Video.DefaultFrameCount,
		maxFrameCount:     config.Video.MaxFrameCount,
	}
}

// Execute reads the local video path from the input param, extracts the
// frames, records the count under CtxFrameCount, and writes the frame
// slice to the output param.
func (c *FrameExtractionCommand) Execute(context cor.Context) {
	videoPath := context.Get(c.GetInputParam()).(string)

	frameCount := c.defaultFrameCount
	if request, ok := context.Get(CtxRequest).(*model.ReelAnalysisRequest); ok && request.FrameCount > 0 {
		frameCount = request.FrameCount
	}
	if frameCount > c.maxFrameCount {
		frameCount = c.maxFrameCount
	}

	frames, err := c.videoService.ExtractFrames(context.GetContext(), videoPath, frameCount)
	if err == nil && len(frames) == 0 {
		err = services.ErrNoFrames
	}
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	context.Add(CtxFrameCount, len(frames))
	context.Add(c.GetOutputParam(), frames)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
