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

package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salikh/grafl/internal/model"
	"github.com/salikh/grafl/internal/ruletree"
)

// TestWeightsApplyForcesAlt exercises the §8 scenario 4 weights shape
// through the config loader rather than a hand-built map.
func TestWeightsApplyForcesAlt(t *testing.T) {
	const doc = `{"alts": {"start": {"0": {"1": 10000}}}, "quants": {}}`
	w, err := LoadWeights(strings.NewReader(doc))
	require.NoError(t, err)

	weighted := model.NewWeighted(model.New(1), map[model.AltKey]float64{}, map[model.QuantKey]float64{},
		func(n *ruletree.Node) string { return n.Name })
	w.Apply(weighted, map[string]bool{"start": true})

	chosen := weighted.Choice(ruletree.NewParserRule("start"), 0, []float64{1, 1, 1})
	assert.Equal(t, 1, chosen)
}

func TestLoadAFLEnvDefaults(t *testing.T) {
	t.Setenv("GRAFL_MAX_DEPTH", "")
	got := LoadAFLEnv(AFLEnv{Limit: ruletree.Size{Depth: 10, Tokens: 20}, MemoSize: 256})
	assert.Equal(t, 10, got.Limit.Depth)
	assert.Equal(t, 256, got.MemoSize)
}

func TestLoadAFLEnvOverrides(t *testing.T) {
	t.Setenv("GRAFL_MAX_DEPTH", "7")
	t.Setenv("GRAFL_MEMO_SIZE", "4096")
	t.Setenv("GRAFL_RANDOM_MUTATORS", "true")
	got := LoadAFLEnv(AFLEnv{Limit: ruletree.Size{Depth: 10, Tokens: 20}})
	assert.Equal(t, 7, got.Limit.Depth)
	assert.Equal(t, 4096, got.MemoSize)
	assert.True(t, got.RandomMutators)
}
