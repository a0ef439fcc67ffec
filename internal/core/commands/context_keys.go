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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface for the reel analysis
// pipeline. Each command wraps one pipeline stage; the chain pipes each
// command's primary output into the next command's primary input, while
// the named keys below carry secondary state several stages share.
package commands

// Shared context keys. The chain's CtxIn/CtxOut piping covers the main
// data flow; these keys carry values needed by non-adjacent commands and
// by the workflow's response assembly.
const (
	// CtxRequest holds the *model.ReelAnalysisRequest for the run.
	CtxRequest = "reel_request"
	// CtxSelectedFrames holds the []*model.SelectedFrame kept by selection.
	CtxSelectedFrames = "selected_frames"
	// CtxQueryPack holds the *model.QueryPack derived from the frames.
	CtxQueryPack = "query_pack"
	// CtxRecognition holds the merged *model.RecognitionBundle from the
	// understanding stage, reported back to the client as detected labels.
	CtxRecognition = "recognition"
	// CtxFrameCount holds the int count of frames extracted from the clip.
	CtxFrameCount = "frame_count"
)
