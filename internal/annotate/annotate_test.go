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

package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salikh/grafl/internal/ruletree"
)

func buildSampleTree() *ruletree.Node {
	root := ruletree.NewParserRule(ruletree.RootName)
	start := ruletree.NewParserRule("start")
	ruletree.InsertChild(root, 0, start)

	q := ruletree.NewQuantifier(0, 0, ruletree.Unbounded)
	ruletree.InsertChild(start, 0, q)
	for i := 0; i < 2; i++ {
		quantified := ruletree.NewQuantified()
		ruletree.InsertChild(q, i, quantified)
		alt := ruletree.NewAlternative(0, 0)
		ruletree.InsertChild(quantified, 0, alt)
		ruletree.InsertChild(alt, 0, ruletree.NewLexerLeaf("A", "a", 1, 1, false))
	}
	ruletree.InsertChild(start, 1, ruletree.NewLexerLeaf("EOF", "", 1, 0, true))
	return root
}

func TestBuildSkipsRootAndImmutableLeaves(t *testing.T) {
	root := buildSampleTree()
	a := Build(root)

	assert.NotContains(t, a.RulesByName, ruletree.RootName)
	assert.NotContains(t, a.RulesByName, "EOF")
	require.Contains(t, a.RulesByName, "start")
	require.Contains(t, a.RulesByName, "A")
	assert.Len(t, a.RulesByName["A"], 2)
}

func TestQuantKeyIncludesEnclosingRuleName(t *testing.T) {
	root := buildSampleTree()
	a := Build(root)
	keys := a.SortedQuantKeys()
	require.Len(t, keys, 1)
	assert.Equal(t, "start", keys[0].Rule)
	assert.Equal(t, 0, keys[0].Index)
}

func TestAltKeyIncludesEnclosingRuleName(t *testing.T) {
	root := buildSampleTree()
	a := Build(root)
	keys := a.SortedAltKeys()
	require.Len(t, keys, 1)
	assert.Equal(t, "start", keys[0].Rule)
	assert.Len(t, a.AltsByKey[keys[0]], 2)
}

func TestNodeInfoMatchesFreshRecompute(t *testing.T) {
	root := buildSampleTree()
	a := Build(root)
	want := ruletree.RecomputeSize(root)
	got := a.NodeInfo[root]
	assert.Equal(t, want.Depth, got.SubtreeDepth)
	assert.Equal(t, want.Tokens, got.SubtreeTokens)
}

func TestSortedRuleNamesDeterministic(t *testing.T) {
	root := buildSampleTree()
	a := Build(root)
	names := a.SortedRuleNames()
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i])
	}
}
