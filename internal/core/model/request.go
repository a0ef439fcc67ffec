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

package model

// ReelAnalysisRequest is the inbound payload of the reel analysis
// endpoint: a public reel URL plus the user's free-text note about the
// product they saw. FrameCount of 0 means "use the configured default".
type ReelAnalysisRequest struct {
	VideoURL   string `json:"url" binding:"required"`
	Note       string `json:"note"`
	FrameCount int    `json:"num_frames"`
}

// TextSearchRequest is the inbound payload of the note-only product
// search endpoint, used when the caller has no reel to analyze.
// NumResults of 0 means "use the configured maximum".
type TextSearchRequest struct {
	Query      string `json:"query" binding:"required"`
	NumResults int    `json:"num_results"`
}
