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

// This file defines the command that runs the web beam search for the
// query pack. An empty candidate set, after every fallback, terminates
// the chain with services.ErrNoCandidates; the query pack stays in the
// context so the caller can report what was searched for.
package commands

import (
	"github.com/jaycherian/gcp-go-reel-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/services"
)

// CandidateSearchCommand finds purchasable product pages for a pack.
type CandidateSearchCommand struct {
	cor.BaseCommand
	searchService *services.ProductSearchService
}

// NewCandidateSearchCommand is the constructor for CandidateSearchCommand.
func NewCandidateSearchCommand(name string, searchService *services.ProductSearchService) *CandidateSearchCommand {
	return &CandidateSearchCommand{
		BaseCommand:   *cor.NewBaseCommand(name),
		searchService: searchService,
	}
}

// Execute reads the *model.QueryPack from the input param and writes
// the unranked []*model.Candidate to the output param.
func (c *CandidateSearchCommand) Execute(context cor.Context) {
	pack := context.Get(c.GetInputParam()).(*model.QueryPack)

	candidates, err := c.searchService.Search(context.GetContext(), pack)
	if err == nil && len(candidates) == 0 {
		err = services.ErrNoCandidates
	}
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	context.Add(c.GetOutputParam(), candidates)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
