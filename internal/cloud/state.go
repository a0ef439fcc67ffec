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

// Package cloud provides components for interacting with Google Cloud services.
// This file is central to the application's architecture: it initializes and
// holds all the client objects needed to communicate with the external
// collaborators, acting as a dependency injection container. A single shared
// ServiceClients struct is constructed at process start and passed into each
// pipeline stage; once constructed it is effectively read-only and safe to
// share across concurrent requests.
//
// Logic Flow:
//  1. NewCloudServiceClients is called at application startup.
//  2. It initializes clients for Cloud Storage, Cloud Vision, GenAI (Vertex
//     embeddings), and the Custom Search JSON API.
//  3. Each configured embedding model is wrapped in the quota-aware decorator.
//  4. Collaborators that are not configured (for example no search API key)
//     leave their slot nil. Pipeline stages detect nil collaborators and
//     degrade to their documented fallback behavior instead of failing.
//
// Structs:
//   - ServiceClients: Container for all initialized collaborator handles.
//
// Functions:
//   - Close: A convenience method to gracefully shut down client connections.
//   - NewCloudServiceClients: Factory constructing and configuring every client.
package cloud

import (
	"context"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/storage"
	vision "cloud.google.com/go/vision/v2/apiv1"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
	"google.golang.org/genai"
)

// ServiceClients is a struct that acts as a central container for all the
// clients that interact with external services. This pattern is a form of
// dependency injection, making it easy to manage and share these client
// connections across the entire application. Any field may be nil when the
// corresponding collaborator is not configured; consumers must treat a nil
// handle as "collaborator unavailable" and degrade accordingly.
type ServiceClients struct {
	StorageClient   *storage.Client                      // Client for Google Cloud Storage (screenshot uploads).
	VisionClient    *vision.ImageAnnotatorClient         // Client for Cloud Vision label/logo/OCR recognition.
	GenAIClient     *genai.Client                        // Client for Vertex AI embedding models.
	Annotator       *VisionAnnotator                     // Recognition wrapper over VisionClient.
	SearchClient    *CustomSearchClient                  // Custom Search + page/image fetch wrapper.
	EmbeddingModels map[string]*QuotaAwareEmbeddingModel // Quota-aware embedding models, keyed by logical name.
}

// Close is a utility method to gracefully shut down the active client
// connections. Client lifetimes are normally tied to the root context, but
// tests and controlled shutdowns use this for explicit release.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.VisionClient != nil {
		_ = c.VisionClient.Close()
	}
}

// NewCloudServiceClients is a factory function that initializes the service
// clients the pipeline depends on. Collaborators are best-effort: a failure
// to initialize one is logged as a warning and leaves its slot nil rather
// than aborting startup, because every pipeline stage has a documented
// degraded mode for a missing collaborator.
//
// Inputs:
//   - ctx: The root context.Context for the application.
//   - config: A pointer to the loaded application configuration.
//
// Outputs:
//   - *ServiceClients: A pointer to the initialized ServiceClients struct.
//   - error: An error only when no collaborator at all could be constructed
//     would be surprising in practice; individual failures degrade.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	clients := &ServiceClients{
		EmbeddingModels: make(map[string]*QuotaAwareEmbeddingModel),
	}

	// Cloud Storage, used only by the screenshot upload endpoint.
	if sc, err := storage.NewClient(ctx); err != nil {
		slog.Warn("storage client unavailable", "error", err)
	} else {
		clients.StorageClient = sc
	}

	// Cloud Vision, the recognition collaborator.
	if vc, err := vision.NewImageAnnotatorClient(ctx); err != nil {
		slog.Warn("vision client unavailable", "error", err)
	} else {
		clients.VisionClient = vc
		clients.Annotator = NewVisionAnnotator(vc, config.Vision)
	}

	// Vertex AI embeddings via the GenAI client.
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  config.Application.GoogleProjectId,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		slog.Warn("genai client unavailable", "error", err)
	} else {
		clients.GenAIClient = gc
		for key, values := range config.EmbeddingModels {
			clients.EmbeddingModels[key] = NewQuotaAwareEmbeddingModel(values.Model, gc.Models, values.RateLimit)
		}
	}

	// Google Custom Search. Both the API key and the engine ID are read
	// from the environment through the names the config points at, so the
	// TOML files never carry secrets.
	apiKey := os.Getenv(config.Search.APIKeyEnv)
	cxID := os.Getenv(config.Search.CxIDEnv)
	if apiKey == "" || cxID == "" {
		slog.Warn("custom search not configured",
			"api_key_env", config.Search.APIKeyEnv,
			"cx_id_env", config.Search.CxIDEnv)
	} else {
		svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			slog.Warn("custom search client unavailable", "error", err)
		} else {
			timeout := time.Duration(config.Search.TimeoutInSeconds) * time.Second
			clients.SearchClient = NewCustomSearchClient(svc, cxID, timeout)
		}
	}

	return clients, nil
}
