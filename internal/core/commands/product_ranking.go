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

// This file defines the final command of the chain: scoring the raw
// candidates against the reel's selected frames and the query pack,
// and ordering them for the response.
package commands

import (
	"github.com/jaycherian/gcp-go-reel-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/services"
)

// ProductRankingCommand orders candidates by the blended match score.
type ProductRankingCommand struct {
	cor.BaseCommand
	ranker *services.ProductRanker
}

// NewProductRankingCommand is the constructor for ProductRankingCommand.
func NewProductRankingCommand(name string, ranker *services.ProductRanker) *ProductRankingCommand {
	return &ProductRankingCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		ranker:      ranker,
	}
}

// Execute reads the unranked []*model.Candidate from the input param,
// pulls the query pack and the selected frames from the context, and
// writes the ranked candidates to the output param.
func (c *ProductRankingCommand) Execute(context cor.Context) {
	candidates := context.Get(c.GetInputParam()).([]*model.Candidate)

	pack, _ := context.Get(CtxQueryPack).(*model.QueryPack)
	if pack == nil {
		pack = &model.QueryPack{}
	}
	selected, _ := context.Get(CtxSelectedFrames).([]*model.SelectedFrame)

	ranked := c.ranker.Rank(context.GetContext(), candidates, pack, selected)
	context.Add(c.GetOutputParam(), ranked)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
