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

// This file defines the command that acquires the reel video. It is the
// first stage of the analysis chain: it reads the inbound request,
// downloads the clip into a temp directory, registers that directory
// for cleanup at workflow end, and passes the local file path on.
package commands

import (
	"path/filepath"

	"github.com/jaycherian/gcp-go-reel-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/services"
)

// ReelDownloadCommand downloads the requested reel to local disk.
type ReelDownloadCommand struct {
	cor.BaseCommand
	videoService *services.VideoService
}

// NewReelDownloadCommand is the constructor for ReelDownloadCommand.
func NewReelDownloadCommand(name string, videoService *services.VideoService) *ReelDownloadCommand {
	return &ReelDownloadCommand{
		BaseCommand:  *cor.NewBaseCommand(name),
		videoService: videoService,
	}
}

// Execute reads the *model.ReelAnalysisRequest from the input param,
// downloads the clip, and writes the local video path to the output
// param. The request itself is stashed under CtxRequest for the stages
// that need the user's note or frame count.
func (c *ReelDownloadCommand) Execute(context cor.Context) {
	request := context.Get(c.GetInputParam()).(*model.ReelAnalysisRequest)
	context.Add(CtxRequest, request)

	videoPath, _, err := c.videoService.Download(context.GetContext(), request.VideoURL)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}
	// Track the whole temp directory; Close removes it recursively.
	context.AddTempFile(filepath.Dir(videoPath))

	context.Add(c.GetOutputParam(), videoPath)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
