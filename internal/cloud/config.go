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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for the external collaborators of the reel analysis pipeline: the Vision
// API, Vertex AI embedding models, Google Custom Search, Cloud Storage, and
// the local video tooling (yt-dlp and ffmpeg).
//
// Structs:
//   - Storage: Configuration for the screenshot upload bucket.
//   - Video: Paths and limits for the video download / frame grab tools.
//   - Vision: Limits and confidence floors for image recognition.
//   - Search: Google Custom Search credentials and paging policy.
//   - Ranking: The fixed scoring policy for the product ranker.
//   - VertexAiEmbeddingModel: Configuration for a Vertex AI embedding model.
//   - Config: The top-level struct aggregating everything above.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config object with empty maps.
package cloud

// Storage represents the configuration for storage buckets.
type Storage struct {
	ScreenshotBucket string `toml:"screenshot_bucket"` // Bucket receiving uploaded product screenshots.
}

// Video holds the settings for the video acquisition collaborator: the
// external binaries used to download reels and sample frames from them.
type Video struct {
	YtDlpPath         string `toml:"ytdlp_path"`          // Path to the yt-dlp executable.
	FFMpegPath        string `toml:"ffmpeg_path"`         // Path to the ffmpeg executable.
	DefaultFrameCount int    `toml:"default_frame_count"` // Frames sampled when the request does not specify a count.
	MaxFrameCount     int    `toml:"max_frame_count"`     // Upper bound on frames per request.
	TimeoutInSeconds  int    `toml:"timeout_in_seconds"`  // Timeout for each external command invocation.
}

// Vision configures the image recognition collaborator.
type Vision struct {
	MaxLabels          int     `toml:"max_labels"`           // Maximum labels requested per frame.
	MaxLogos           int     `toml:"max_logos"`            // Maximum logos requested per frame.
	MinLabelConfidence float64 `toml:"min_label_confidence"` // Labels below this score are discarded.
}

// Search configures the Google Custom Search collaborator and the paging
// policy of the candidate retriever.
type Search struct {
	APIKeyEnv        string `toml:"api_key_env"`        // Name of the env var holding the Custom Search API key.
	CxIDEnv          string `toml:"cx_id_env"`          // Name of the env var holding the search engine ID.
	PagesPerVariant  int    `toml:"pages_per_variant"`  // Result pages fetched per query variant.
	ResultsPerPage   int    `toml:"results_per_page"`   // Results per page (Custom Search caps this at 10).
	MaxCandidates    int    `toml:"max_candidates"`     // Cap on deduplicated candidates returned by retrieval.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // Timeout for each search or page fetch.
}

// Ranking holds the weighting policy of the product ranker. The weights
// are deployment policy, not per-request tuning knobs: they are read once
// at startup and sum to 1.0.
type Ranking struct {
	VisualWeight      float64 `toml:"visual_weight"`
	TextWeight        float64 `toml:"text_weight"`
	BrandWeight       float64 `toml:"brand_weight"`
	NeutralTextScore  float64 `toml:"neutral_text_score"`  // Used when the query-text embedding is unavailable.
	NeutralBrandScore float64 `toml:"neutral_brand_score"` // Used when no brand was detected.
	MaxResults        int     `toml:"max_results"`         // Products returned to the caller.
}

// VertexAiEmbeddingModel represents the configuration for a Vertex AI embedding model.
type VertexAiEmbeddingModel struct {
	Model     string `toml:"model"`      // The name of the Vertex AI embedding model.
	RateLimit int    `toml:"rate_limit"` // Allowed requests per second for this model.
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other
// configuration structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID.
		GoogleLocation  string `toml:"location"`          // The Google Cloud location.
		Port            int    `toml:"port"`              // HTTP listen port.
		ThreadPoolSize  int    `toml:"thread_pool_size"`  // Worker pool size for parallel candidate scoring.
	} `toml:"application"`
	Storage         Storage                           `toml:"storage"`
	Video           Video                             `toml:"video"`
	Vision          Vision                            `toml:"vision"`
	Search          Search                            `toml:"search"`
	Ranking         Ranking                           `toml:"ranking"`
	EmbeddingModels map[string]VertexAiEmbeddingModel `toml:"embedding_models"` // Keyed by logical name ("text", "multimodal").
}

// NewConfig is a constructor function that creates a new, initialized
// Config instance. The map fields must be initialized before the TOML
// loader populates them.
//
// Outputs:
//   - *Config: A pointer to a new Config struct with its map fields initialized.
func NewConfig() *Config {
	return &Config{
		EmbeddingModels: make(map[string]VertexAiEmbeddingModel),
	}
}
