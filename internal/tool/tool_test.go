// Copyright 2019 Google LLC
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

package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salikh/grafl/internal/gen"
	"github.com/salikh/grafl/internal/grammar"
	"github.com/salikh/grafl/internal/individual"
	"github.com/salikh/grafl/internal/model"
	"github.com/salikh/grafl/internal/ruletree"
)

func newTestTool(t *testing.T, seed int64, limit ruletree.Size) *Tool {
	t.Helper()
	reg := grammar.MaxTokens()
	m := model.New(seed)
	return New(reg, m, seed, limit)
}

func seedIndividual(t *testing.T, tool *Tool) *individual.Individual {
	t.Helper()
	s := gen.NewState(tool.Registry, tool.Model, ruletree.Size{Depth: 20, Tokens: 60})
	root, err := s.Generate("")
	require.NoError(t, err)
	return individual.New(root)
}

func TestNewRegistersAllCreators(t *testing.T) {
	tool := newTestTool(t, 1, ruletree.Size{Depth: 20, Tokens: 60})
	want := []string{
		"generate",
		"regenerate_rule", "delete_quantified", "replicate_quantified",
		"shuffle_quantifieds", "hoist_rule", "swap_local_nodes",
		"insert_local_node", "unrestricted_delete", "unrestricted_hoist_rule",
		"replace_node", "insert_quantified",
	}
	for _, name := range want {
		assert.Contains(t, tool.creators, name, "missing creator %q", name)
	}
	assert.Len(t, tool.creators, len(want))
}

func TestEnabledRespectsAllowlistAndBlocklist(t *testing.T) {
	tool := newTestTool(t, 1, ruletree.Size{Depth: 20, Tokens: 60})
	assert.True(t, tool.enabled("generate"))

	tool.Blocklist["generate"] = true
	assert.False(t, tool.enabled("generate"))
	assert.True(t, tool.enabled("regenerate_rule"))

	tool.Blocklist = map[string]bool{}
	tool.Allowlist["generate"] = true
	assert.True(t, tool.enabled("generate"))
	assert.False(t, tool.enabled("regenerate_rule"))
}

func TestCreatorSetForModeGenerateIgnoresPopulation(t *testing.T) {
	tool := newTestTool(t, 1, ruletree.Size{Depth: 20, Tokens: 60})
	set := tool.creatorSetFor(ModeGenerate, true)
	require.Len(t, set, 1)
	assert.Equal(t, "generate", set[0].Name)
}

func TestCreatorSetForModeRecombineRequiresPopulation(t *testing.T) {
	tool := newTestTool(t, 1, ruletree.Size{Depth: 20, Tokens: 60})
	assert.Nil(t, tool.creatorSetFor(ModeRecombine, false))
	assert.Len(t, tool.creatorSetFor(ModeRecombine, true), 2)
}

func TestCreatorSetForModeAnyFallsBackToGenerateWithoutPopulation(t *testing.T) {
	tool := newTestTool(t, 1, ruletree.Size{Depth: 20, Tokens: 60})
	set := tool.creatorSetFor(ModeAny, false)
	require.Len(t, set, 1)
	assert.Equal(t, "generate", set[0].Name)
}

// TestMutationRoundTripPreservesSize runs 100 mutate cycles and checks
// every resulting tree still respects the configured limit, the §8
// "Mutation round-trip" scenario.
func TestMutationRoundTripPreservesSize(t *testing.T) {
	limit := ruletree.Size{Depth: 20, Tokens: 60}
	tool := newTestTool(t, 42, limit)
	tool.Memo = NewMemo(1024)
	ind := seedIndividual(t, tool)

	for i := 0; i < 100; i++ {
		node := tool.CreateUnique(ModeMutate, ind, nil)
		require.NotNil(t, node, "cycle %d produced no tree", i)
		size := ruletree.RecomputeSize(node)
		assert.LessOrEqual(t, size.Depth, limit.Depth, "cycle %d depth", i)
		assert.LessOrEqual(t, size.Tokens, limit.Tokens, "cycle %d tokens", i)
		ind = individual.New(node)
	}
}

func TestMemoZeroCapacityNeverRejects(t *testing.T) {
	tool := newTestTool(t, 7, ruletree.Size{Depth: 20, Tokens: 60})
	tool.Memo = NewMemo(0)
	ind := seedIndividual(t, tool)
	for i := 0; i < 10; i++ {
		node := tool.CreateUnique(ModeGenerate, ind, nil)
		require.NotNil(t, node)
	}
	assert.Equal(t, 0, tool.Memo.Len())
	assert.Equal(t, 10, tool.Stats.MemoMisses)
}

func TestCreateTreeFallsBackToRecipientWhenAllCreatorsDecline(t *testing.T) {
	tool := newTestTool(t, 3, ruletree.Size{Depth: 20, Tokens: 60})
	// A limit so tight nothing regenerates or grows; only the fallback
	// path (unmodified recipient clone) can satisfy it.
	tool.Limit = ruletree.Size{Depth: 1, Tokens: 1}
	for name := range tool.creators {
		if name != "unrestricted_delete" {
			tool.Blocklist[name] = true
		}
	}
	tool.Blocklist["unrestricted_delete"] = true // block everything
	ind := seedIndividual(t, tool)
	node := tool.CreateTree(ModeMutate, ind, nil)
	require.NotNil(t, node)
	assert.Equal(t, ruletree.Text(ind.Root()), ruletree.Text(node))
}
