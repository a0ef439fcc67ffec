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

// Package main contains the setup and initialization logic for the
// application's state: a centralized container holding the loaded
// configuration, the Google Cloud service clients, and the two
// workflows the API routes dispatch to.
//
// Functions:
//   - SetupOS: Points the configuration loader at the right TOML files
//     and pulls secrets from a local .env file when one exists.
//   - GetConfig: Singleton accessor for the TOML configuration.
//   - InitState: Creates the cloud clients and wires the workflows.
package main

import (
	"context"
	"log"
	"os"

	"github.com/jaycherian/gcp-go-reel-search/internal/cloud"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/workflow"
	"github.com/joho/godotenv"
)

// StateManager holds all the shared dependencies for the application,
// avoiding globals scattered across route handlers.
type StateManager struct {
	config       *cloud.Config
	cloud        *cloud.ServiceClients
	reelWorkflow *workflow.ReelAnalysisWorkflow
	textWorkflow *workflow.TextSearchWorkflow
}

// state is the single instance of StateManager for the process.
var state = &StateManager{}

// SetupOS prepares the process environment for configuration loading.
// Secrets such as the Custom Search API key live outside the TOML files;
// a local .env file is loaded when present so development machines do
// not need to export them by hand.
//
// Outputs:
//   - error: An error if setting any of the environment variables fails.
func SetupOS() (err error) {
	// Missing .env is fine; deployed environments inject real env vars.
	_ = godotenv.Load()

	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig provides a singleton instance of the application
// configuration, loading the TOML files on first call.
//
// Outputs:
//   - *cloud.Config: A pointer to the loaded application configuration struct.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the entire application state: the Google Cloud
// service clients and the two workflows. Collaborators that fail to
// initialize (for example when no search API key is configured) are
// left nil; the pipeline degrades around them rather than refusing to
// start.
//
// Inputs:
//   - ctx: The root context.Context for the application, governing the
//     lifecycle of the client connections.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	state.reelWorkflow = workflow.NewReelAnalysisWorkflow(config, cloudClients)
	state.textWorkflow = workflow.NewTextSearchWorkflow(config, cloudClients)
}
