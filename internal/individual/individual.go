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

// Package individual implements Individual and Population (§4.5): a
// mutable carrier pairing a tree with its lazily computed Annotations,
// and a pool an evolution engine draws donor/recipient individuals
// from.
package individual

import (
	"math/rand"

	"github.com/salikh/grafl/internal/annotate"
	"github.com/salikh/grafl/internal/ruletree"
)

// Individual owns a root tree and lazily computes Annotations over it.
// Any tree-modifying operation performed through Invalidate discards
// the cached Annotations; the next Annotations() call rebuilds them.
type Individual struct {
	root *ruletree.Node
	ann  *annotate.Annotations
}

// New wraps root as a fresh Individual with no cached Annotations.
func New(root *ruletree.Node) *Individual {
	return &Individual{root: root}
}

// Root returns the individual's tree root.
func (ind *Individual) Root() *ruletree.Node {
	return ind.root
}

// SetRoot replaces the individual's tree root and invalidates any
// cached Annotations.
func (ind *Individual) SetRoot(root *ruletree.Node) {
	ind.root = root
	ind.Invalidate()
}

// Invalidate discards the cached Annotations (§3: "Annotations are
// invalidated by tree-modifying operations performed on this
// individual; the engine rebuilds them lazily on next access").
func (ind *Individual) Invalidate() {
	ind.ann = nil
}

// Annotations returns the individual's Annotations, building them on
// first access (or after the last Invalidate) and caching the result.
func (ind *Individual) Annotations() *annotate.Annotations {
	if ind.ann == nil {
		ind.ann = annotate.Build(ind.root)
	}
	return ind.ann
}

// Clone returns a new Individual wrapping a deep copy of ind's tree,
// with no cached Annotations.
func (ind *Individual) Clone() *Individual {
	return New(ruletree.Clone(ind.root))
}

// Population is a pool of individuals an evolution engine draws
// donor/recipient individuals from (§4.5). It is the only cross-tree
// shared structure besides a driver's SubTreePopulation (§5); its
// members are never mutated by a creator directly — CreateTree always
// operates on a freshly cloned recipient (see internal/tool).
type Population struct {
	members []*Individual
}

// NewPopulation wraps the given individuals as a Population.
func NewPopulation(members ...*Individual) *Population {
	return &Population{members: members}
}

// Len returns the number of individuals in the population.
func (p *Population) Len() int {
	if p == nil {
		return 0
	}
	return len(p.members)
}

// Add appends ind to the population.
func (p *Population) Add(ind *Individual) {
	p.members = append(p.members, ind)
}

// Random returns a uniformly random individual from the population, or
// nil if the population is empty.
func (p *Population) Random(r *rand.Rand) *Individual {
	if p.Len() == 0 {
		return nil
	}
	return p.members[r.Intn(len(p.members))]
}

// All returns the population's members in insertion order.
func (p *Population) All() []*Individual {
	if p == nil {
		return nil
	}
	return p.members
}
