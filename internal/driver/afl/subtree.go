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

// Package afl implements the §4.7 AFL++ adapter contract: Init reads
// the GRAFL_* environment variables (§6) into a Tool and an empty
// SubTreePopulation; SubTreePopulation interns subtrees by content
// hash with refcounts; the afl_custom_init_trim/_trim/_post_trim trio
// wires onto internal/trim's ContentTrimmer. Unless GRAFL_RANDOM_MUTATORS
// is set, the core's replace_node and insert_quantified recombiners
// are blocklisted in favor of the pool-backed ReplaceFromPool/
// InsertQuantifiedFromPool below (§9 open question: the source does
// not document whether the exclusion is semantic or
// performance-driven, so this adapter honors it as given rather than
// guessing a reason).
package afl

import (
	"math/rand"

	"github.com/salikh/grafl/internal/annotate"
	"github.com/salikh/grafl/internal/codec"
	"github.com/salikh/grafl/internal/individual"
	"github.com/salikh/grafl/internal/ruletree"
	"github.com/salikh/grafl/internal/tool"
)

// Hasher reduces a tree's binary encoding to a content-addressing key.
type Hasher func(data []byte) uint64

type entry struct {
	node     *ruletree.Node
	key      annotate.NodeKey
	hash     uint64
	refcount int
}

// SubTreePopulation interns subtrees by content hash (§4.7, §5: "the
// only cross-tree shared structure; its interned subtrees are never
// mutated in place — every selection returns a clone()").
type SubTreePopulation struct {
	hasher Hasher
	byHash map[uint64]*entry
	byType map[annotate.NodeKey][]*entry
	rand   *rand.Rand
}

// NewSubTreePopulation constructs an empty pool.
func NewSubTreePopulation(r *rand.Rand, hasher Hasher) *SubTreePopulation {
	return &SubTreePopulation{
		hasher: hasher,
		byHash: map[uint64]*entry{},
		byType: map[annotate.NodeKey][]*entry{},
		rand:   r,
	}
}

// Intern adds node to the pool (incrementing its refcount if an
// identical-content node is already present) for every keyable node in
// its subtree — not just the root — so select_by_type can later find
// interior quantifiers and alternatives too.
func (p *SubTreePopulation) Intern(root *ruletree.Node) {
	ruletree.Walk(root, func(n *ruletree.Node) {
		key, ok := annotate.Key(n)
		if !ok {
			return
		}
		data := codec.EncodeBinary(n)
		hash := p.hasher(data)
		if e, ok := p.byHash[hash]; ok {
			e.refcount++
			return
		}
		e := &entry{node: ruletree.Clone(n), key: key, hash: hash, refcount: 1}
		p.byHash[hash] = e
		p.byType[key] = append(p.byType[key], e)
	})
}

// SelectByType samples one interned subtree matching key, restricted
// to ones fitting within (maxDepth, maxTokens), with probability
// proportional to 1/refcount (§4.7: favor rare, less-duplicated
// shapes). It returns a clone, or nil if nothing matches.
func (p *SubTreePopulation) SelectByType(key annotate.NodeKey, maxDepth, maxTokens int) *ruletree.Node {
	candidates := p.byType[key]
	var weights []float64
	var nodes []*ruletree.Node
	for _, e := range candidates {
		size := ruletree.RecomputeSize(e.node)
		if size.Depth > maxDepth || size.Tokens > maxTokens {
			continue
		}
		weights = append(weights, 1/float64(e.refcount))
		nodes = append(nodes, e.node)
	}
	if len(nodes) == 0 {
		return nil
	}
	var sum float64
	for _, w := range weights {
		sum += w
	}
	r := p.rand.Float64() * sum
	var acc float64
	for i, w := range weights {
		acc += w
		if r < acc {
			return ruletree.Clone(nodes[i])
		}
	}
	return ruletree.Clone(nodes[len(nodes)-1])
}

// ReplaceFromPool is a pool-backed mutator: pick a recipient node,
// replace it with a same-key clone drawn from the pool via
// SelectByType. It never touches recipient in place.
func ReplaceFromPool(t *tool.Tool, pool *SubTreePopulation, recipient *individual.Individual) *ruletree.Node {
	if recipient == nil {
		return nil
	}
	clone := ruletree.Clone(recipient.Root())
	ann := annotate.Build(clone)
	keys := ann.SortedQuantKeys()
	keys = append(keys, ann.SortedAltKeys()...)
	for _, name := range ann.SortedRuleNames() {
		keys = append(keys, annotate.NodeKey{Rule: name, Kind: annotate.KindRule})
	}
	order := t.Rand.Perm(len(keys))
	for _, idx := range order {
		key := keys[idx]
		var candidates []*ruletree.Node
		switch key.Kind {
		case annotate.KindRule:
			candidates = ann.RulesByName[key.Rule]
		case annotate.KindQuantifier:
			candidates = ann.QuantsByKey[key]
		case annotate.KindAlternative:
			candidates = ann.AltsByKey[key]
		}
		var r *ruletree.Node
		for _, n := range candidates {
			if n.Parent != nil {
				r = n
				break
			}
		}
		if r == nil {
			continue
		}
		info := ann.NodeInfo[r]
		dup := pool.SelectByType(key, t.Limit.Depth-info.Level, t.Limit.Tokens)
		if dup == nil {
			continue
		}
		ruletree.Replace(r, dup)
		return clone
	}
	return nil
}

// InsertQuantifiedFromPool is a pool-backed mutator: pick a recipient
// quantifier with room, insert a pool-drawn clone keyed to it.
func InsertQuantifiedFromPool(t *tool.Tool, pool *SubTreePopulation, recipient *individual.Individual) *ruletree.Node {
	if recipient == nil {
		return nil
	}
	clone := ruletree.Clone(recipient.Root())
	ann := annotate.Build(clone)
	keys := ann.SortedQuantKeys()
	order := t.Rand.Perm(len(keys))
	for _, idx := range order {
		key := keys[idx]
		for _, q := range ann.QuantsByKey[key] {
			if q.Stop != ruletree.Unbounded && len(q.Children) >= q.Stop {
				continue
			}
			info := ann.NodeInfo[q]
			dup := pool.SelectByType(key, t.Limit.Depth-info.Level, t.Limit.Tokens)
			if dup == nil {
				continue
			}
			pos := t.Rand.Intn(len(q.Children) + 1)
			ruletree.InsertChild(q, pos, dup)
			return clone
		}
	}
	return nil
}
