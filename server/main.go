// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// *****************************************************************************************************//
// Package main is the entry point for the reel search backend server.
//
// This application sets up and runs a web server using the Gin framework. It
// provides a REST API that turns a short product video (a "reel") plus a
// free-text note into ranked links to purchasable product pages. The server
// is instrumented with OpenTelemetry for logging, tracing, and metrics.
//
// The main function initializes the application's configuration, sets up
// logging and telemetry, and initializes the application state, including
// clients for Google Cloud services. It defines API routes for reel
// analysis, text-only product search, screenshot uploads, and health
// checking, then runs until interrupted.
//
// Functions:
//   - main: The entry point. Sets up the server, configures routes, and
//     handles graceful shutdown.
//   - ReelRouter: Registers the reel analysis and product search routes.
//   - ScreenshotUpload: Registers the multipart screenshot upload route.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/services"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/workflow"
	"github.com/jaycherian/gcp-go-reel-search/internal/telemetry"
)

// main is the primary entry point for the application. It orchestrates
// the setup of logging, telemetry, configuration, cloud services, the
// web server, and API routes, then blocks until an interrupt signal
// triggers a graceful shutdown.
func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()
	r.HandleMethodNotAllowed = true

	// Trace every inbound request.
	r.Use(otelgin.Middleware("reel-search-server"))

	// Permissive CORS; the browser frontend runs on a different origin.
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		ReelRouter(apiV1)
		ScreenshotUpload(apiV1)
		apiV1.GET("/health", func(c *gin.Context) {
			// Reports which optional collaborators came up so a
			// frontend can degrade its UI instead of failing calls.
			c.JSON(http.StatusOK, gin.H{
				"status":    "ok",
				"vision":    state.cloud != nil && state.cloud.Annotator != nil,
				"search":    state.cloud != nil && state.cloud.SearchClient != nil,
				"embedding": state.cloud != nil && len(state.cloud.EmbeddingModels) > 0,
				"storage":   state.cloud != nil && state.cloud.StorageClient != nil,
			})
		})
	}

	port := config.Application.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
		// Reel analysis shells out to yt-dlp and pages a search API, so
		// the write timeout is generous.
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready", "port", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// ReelRouter sets up the API routes for reel analysis and product search.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the routes are added, allowing
//     nesting under a common prefix (e.g., "/api/v1").
//
// This function defines the following endpoints:
//   - POST /reels/analyze: Runs the full reel-to-products pipeline.
//   - POST /products/search: Runs the text-only search pipeline.
func ReelRouter(r *gin.RouterGroup) {
	reels := r.Group("/reels")
	{
		// Handler for POST /reels/analyze
		reels.POST("/analyze", func(c *gin.Context) {
			var request model.ReelAnalysisRequest
			if err := c.ShouldBindJSON(&request); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": err.Error()})
				return
			}

			response, err := state.reelWorkflow.Analyze(c.Request.Context(), &request)
			if err != nil {
				writePipelineError(c, err)
				return
			}
			c.JSON(http.StatusOK, response)
		})
	}

	products := r.Group("/products")
	{
		// Handler for POST /products/search
		products.POST("/search", func(c *gin.Context) {
			var request model.TextSearchRequest
			if err := c.ShouldBindJSON(&request); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": err.Error()})
				return
			}

			response, err := state.textWorkflow.Search(c.Request.Context(), &request)
			if err != nil {
				writePipelineError(c, err)
				return
			}
			c.JSON(http.StatusOK, response)
		})
	}
}

// writePipelineError maps the workflow's typed errors onto HTTP
// statuses. An exhausted search is a 404 carrying the query pack so
// the client can show the user what was searched for; input-shaped
// failures are 400s; everything else is a 500.
func writePipelineError(c *gin.Context, err error) {
	var noCandidates *workflow.NoCandidatesError
	switch {
	case errors.Is(err, services.ErrVideoDownload):
		c.JSON(http.StatusBadRequest, gin.H{"error": "video_download_failed"})
	case errors.Is(err, services.ErrNoFrames):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no_frame_extracted"})
	case errors.As(err, &noCandidates):
		c.JSON(http.StatusNotFound, gin.H{"error": "no_products_found", "query_pack": noCandidates.Pack})
	default:
		slog.Error("pipeline failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

// ScreenshotUpload sets up the route for uploading product screenshots.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the upload route is added.
//
// This function configures a POST endpoint at "/uploads" that accepts
// multipart/form-data. Each file sent under the "files" form field is
// streamed into the configured Cloud Storage bucket with its content
// type sniffed from the payload. The route exists for clients that have
// a screenshot of the product rather than the reel itself.
func ScreenshotUpload(r *gin.RouterGroup) {
	upload := r.Group("/uploads")
	{
		// Handler for POST /uploads
		upload.POST("", func(c *gin.Context) {
			if state.cloud == nil || state.cloud.StorageClient == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage_not_configured"})
				return
			}

			form, err := c.MultipartForm()
			if err != nil {
				c.String(http.StatusBadRequest, "get form err: %s", err.Error())
				return
			}
			files := form.File["files"]
			bucket := state.cloud.StorageClient.Bucket(state.config.Storage.ScreenshotBucket)

			for _, file := range files {
				src, err := file.Open()
				if err != nil {
					c.String(http.StatusBadRequest, "upload file err: %s", err.Error())
					return
				}

				head := make([]byte, 261)
				n, _ := src.Read(head)
				contentType := "application/octet-stream"
				if kind, err := filetype.Match(head[:n]); err == nil && kind.MIME.Value != "" {
					contentType = kind.MIME.Value
				}
				if _, err := src.Seek(0, 0); err != nil {
					_ = src.Close()
					c.Status(http.StatusInternalServerError)
					return
				}

				wc := bucket.Object(file.Filename).NewWriter(c)
				wc.ContentType = contentType
				if _, err = io.Copy(wc, src); err != nil {
					_ = src.Close()
					c.String(http.StatusInternalServerError, "write file to bucket err: %s", err.Error())
					return
				}
				if err := wc.Close(); err != nil {
					log.Printf("failed to close bucket handle: %v\n", err)
				}
				_ = src.Close()
			}
			c.String(http.StatusOK, "Uploaded successfully %d files.", len(files))
		})
	}
}
