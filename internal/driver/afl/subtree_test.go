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

package afl

import (
	"hash/fnv"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salikh/grafl/internal/annotate"
	"github.com/salikh/grafl/internal/codec"
	"github.com/salikh/grafl/internal/gen"
	"github.com/salikh/grafl/internal/grammar"
	"github.com/salikh/grafl/internal/model"
	"github.com/salikh/grafl/internal/ruletree"
	"github.com/salikh/grafl/internal/trim"
)

func fnvHash(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}

func TestSubTreePopulationInternAndSelect(t *testing.T) {
	reg := grammar.MaxTokens()
	s := gen.NewState(reg, model.New(1), ruletree.Size{Depth: 10, Tokens: 20})
	root, err := s.Generate("")
	require.NoError(t, err)

	pool := NewSubTreePopulation(rand.New(rand.NewSource(2)), fnvHash)
	pool.Intern(root)
	ann := annotate.Build(root)
	key, ok := annotate.Key(ann.RulesByName["a"][0])
	require.True(t, ok)

	got := pool.SelectByType(key, 10, 20)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.Name)
	assert.NotSame(t, ann.RulesByName["a"][0], got, "SelectByType must return a clone")
}

func TestSubTreePopulationSelectByTypeRespectsBudget(t *testing.T) {
	reg := grammar.MaxTokens()
	s := gen.NewState(reg, model.New(1), ruletree.Size{Depth: 10, Tokens: 20})
	root, err := s.Generate("")
	require.NoError(t, err)
	pool := NewSubTreePopulation(rand.New(rand.NewSource(2)), fnvHash)
	pool.Intern(root)
	ann := annotate.Build(root)
	key, _ := annotate.Key(ann.RulesByName["a"][0])
	assert.Nil(t, pool.SelectByType(key, 0, 0))
}

func TestAFLTrimReducesQuantifiedSet(t *testing.T) {
	reg := grammar.MaxTokens()
	s := gen.NewState(reg, model.New(3), ruletree.Size{Depth: 10, Tokens: 50})
	root, err := s.Generate("")
	require.NoError(t, err)

	tr := AFLCustomInitTrim(root, fnvHash, 0, 256)
	for {
		data, status := tr.CustomTrim()
		if status != trim.StatusContinue {
			break
		}
		decoded, err := codec.DecodeBinary(data)
		require.NoError(t, err)
		// Oracle: keep trimming as long as at least one 'b' survives.
		ok := false
		for _, tok := range ruletree.Tokens(decoded) {
			if tok.Src == "b" {
				ok = true
				break
			}
		}
		tr.CustomPostTrim(ok)
	}
	result, err := tr.Result()
	require.NoError(t, err)
	found := false
	for _, tok := range ruletree.Tokens(result) {
		if tok.Src == "b" {
			found = true
		}
	}
	assert.True(t, found)
}
