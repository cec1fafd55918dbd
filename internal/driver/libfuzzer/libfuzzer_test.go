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

package libfuzzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salikh/grafl/internal/codec"
	"github.com/salikh/grafl/internal/gen"
	"github.com/salikh/grafl/internal/grammar"
	"github.com/salikh/grafl/internal/model"
	"github.com/salikh/grafl/internal/ruletree"
	"github.com/salikh/grafl/internal/tool"
)

func seedBytes(t *testing.T) []byte {
	t.Helper()
	reg := grammar.MaxTokens()
	s := gen.NewState(reg, model.New(1), ruletree.Size{Depth: 10, Tokens: 20})
	root, err := s.Generate("")
	require.NoError(t, err)
	return codec.EncodeBinary(root)
}

func TestCustomMutatorOutputFitsMaxLen(t *testing.T) {
	reg := grammar.MaxTokens()
	tl := tool.New(reg, model.New(5), 5, ruletree.Size{Depth: 10, Tokens: 20})
	d := New(tl)
	data := seedBytes(t)

	out := d.CustomMutator(data, len(data)+64, 99)
	require.NotEmpty(t, out)
	assert.LessOrEqual(t, len(out), len(data)+64)
}

func TestOneInputReusesCacheOnRepeatedInput(t *testing.T) {
	reg := grammar.MaxTokens()
	tl := tool.New(reg, model.New(5), 5, ruletree.Size{Depth: 10, Tokens: 20})
	d := New(tl)
	data := seedBytes(t)

	d.OneInput(data)
	first := d.lastTree
	d.OneInput(data)
	assert.Same(t, first, d.lastTree, "decoding the same buffer twice should hit the cache")
}

func TestCustomCrossOverProducesDecodableTree(t *testing.T) {
	reg := grammar.MaxTokens()
	tl := tool.New(reg, model.New(9), 9, ruletree.Size{Depth: 10, Tokens: 20})
	d := New(tl)
	a := seedBytes(t)
	b := seedBytes(t)

	out := d.CustomCrossOver(a, b, len(a)+len(b), 1)
	_, err := codec.DecodeBinary(out)
	require.NoError(t, err)
}
