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

package individual

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salikh/grafl/internal/ruletree"
)

func sampleRoot() *ruletree.Node {
	root := ruletree.NewParserRule("start")
	ruletree.InsertChild(root, 0, ruletree.NewLexerLeaf("A", "a", 1, 1, false))
	return root
}

func TestAnnotationsCachedUntilInvalidated(t *testing.T) {
	ind := New(sampleRoot())
	a1 := ind.Annotations()
	a2 := ind.Annotations()
	assert.Same(t, a1, a2)

	ind.Invalidate()
	a3 := ind.Annotations()
	assert.NotSame(t, a1, a3)
}

func TestSetRootInvalidates(t *testing.T) {
	ind := New(sampleRoot())
	_ = ind.Annotations()
	ind.SetRoot(sampleRoot())
	a := ind.Annotations()
	require.NotNil(t, a)
	assert.Same(t, ind.Root(), a.Root)
}

func TestCloneSharesNoNodes(t *testing.T) {
	ind := New(sampleRoot())
	clone := ind.Clone()
	require.NotSame(t, ind.Root(), clone.Root())
	assert.True(t, ruletree.Equals(ind.Root(), clone.Root()))
}

func TestPopulationRandomEmptyReturnsNil(t *testing.T) {
	p := NewPopulation()
	assert.Nil(t, p.Random(rand.New(rand.NewSource(1))))
}

func TestPopulationRandomReturnsMember(t *testing.T) {
	p := NewPopulation(New(sampleRoot()), New(sampleRoot()))
	got := p.Random(rand.New(rand.NewSource(1)))
	require.NotNil(t, got)
	assert.Contains(t, p.All(), got)
}
