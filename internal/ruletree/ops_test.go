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

package ruletree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Node {
	root := NewParserRule("start")
	a := NewLexerLeaf("A", "a", 1, 1, false)
	b := NewLexerLeaf("B", "b", 1, 1, false)
	InsertChild(root, 0, a)
	InsertChild(root, 1, b)
	return root
}

func TestInsertChildOrdersAndReparents(t *testing.T) {
	root := sampleTree()
	require.Len(t, root.Children, 2)
	assert.Equal(t, "a", root.Children[0].Src)
	assert.Equal(t, "b", root.Children[1].Src)
	assert.Same(t, root, root.Children[0].Parent)

	c := NewLexerLeaf("C", "c", 1, 1, false)
	InsertChild(root, 1, c)
	assert.Equal(t, []string{"a", "c", "b"}, childSrcs(root))
}

func childSrcs(n *Node) []string {
	var out []string
	for _, ch := range n.Children {
		out = append(out, ch.Src)
	}
	return out
}

func TestReplaceDetachesNewNodeAndLeavesSelfParentless(t *testing.T) {
	root := sampleTree()
	old := root.Children[0]
	donorParent := NewParserRule("donor")
	donor := NewLexerLeaf("D", "d", 1, 1, false)
	InsertChild(donorParent, 0, donor)

	got := Replace(old, donor)
	assert.Same(t, donor, got)
	assert.Same(t, root, donor.Parent)
	assert.Nil(t, old.Parent)
	assert.Empty(t, donorParent.Children)
	assert.Equal(t, []string{"d", "b"}, childSrcs(root))
}

func TestReplaceSelfIsNoOp(t *testing.T) {
	root := sampleTree()
	a := root.Children[0]
	got := Replace(a, a)
	assert.Same(t, a, got)
	assert.Same(t, root, a.Parent)
}

func TestRemoveDetaches(t *testing.T) {
	root := sampleTree()
	a := root.Children[0]
	Remove(a)
	assert.Nil(t, a.Parent)
	assert.Equal(t, []string{"b"}, childSrcs(root))
}

func TestCloneIsDeepAndSharesNoNodes(t *testing.T) {
	root := sampleTree()
	clone := Clone(root)

	require.True(t, Equals(root, clone))
	assert.Nil(t, clone.Parent)
	require.NotSame(t, root, clone)
	require.NotSame(t, root.Children[0], clone.Children[0])

	// Mutating the clone must not affect the original.
	clone.Children[0].Src = "z"
	assert.Equal(t, "a", root.Children[0].Src)

	if diff := cmp.Diff(root, clone, cmpopts.IgnoreFields(Node{}, "Parent")); diff == "" {
		t.Errorf("clone should differ from root after mutation, diff was empty")
	}
}

func TestTokensSkipsEmptySrcLeaves(t *testing.T) {
	root := NewParserRule("start")
	InsertChild(root, 0, NewLexerLeaf("EOF", "", 1, 0, true))
	InsertChild(root, 1, NewLexerLeaf("A", "a", 1, 1, false))
	toks := Tokens(root)
	require.Len(t, toks, 1)
	assert.Equal(t, "a", toks[0].Src)
	assert.Equal(t, "a", Text(root))
}

func TestRecomputeSizeMatchesHandBuiltTree(t *testing.T) {
	root := NewParserRule("start")
	q := NewQuantifier(0, 0, Unbounded)
	InsertChild(root, 0, q)
	for i := 0; i < 3; i++ {
		quantified := NewQuantified()
		InsertChild(q, i, quantified)
		InsertChild(quantified, 0, NewLexerLeaf("A", "a", 1, 1, false))
	}
	size := RecomputeSize(root)
	assert.Equal(t, 3, size.Tokens)
	assert.GreaterOrEqual(t, size.Depth, 3)
}

func TestSizeArithmetic(t *testing.T) {
	a := Size{Depth: 3, Tokens: 5}
	b := Size{Depth: 1, Tokens: 2}
	assert.Equal(t, Size{Depth: 4, Tokens: 7}, a.Add(b))
	assert.Equal(t, Size{Depth: 2, Tokens: 3}, a.Sub(b))
	assert.True(t, b.LessEqual(a))
	assert.False(t, a.LessEqual(b))
}
