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
	"math/rand"
	"sort"

	"github.com/salikh/grafl/internal/annotate"
	"github.com/salikh/grafl/internal/ruletree"
)

func pickNode(r *rand.Rand, nodes []*ruletree.Node) *ruletree.Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[r.Intn(len(nodes))]
}

func pickKey(r *rand.Rand, keys []annotate.NodeKey) (annotate.NodeKey, bool) {
	if len(keys) == 0 {
		return annotate.NodeKey{}, false
	}
	return keys[r.Intn(len(keys))], true
}

// allKeyed returns every node indexed under any of Annotations' three
// key-able indices (rules, alternatives, quantifiers), grouped by
// NodeKey, for creators that operate uniformly over node-key
// compatibility (§4.5).
func allKeyed(a *annotate.Annotations) map[annotate.NodeKey][]*ruletree.Node {
	out := map[annotate.NodeKey][]*ruletree.Node{}
	for name, nodes := range a.RulesByName {
		key := annotate.NodeKey{Rule: name, Kind: annotate.KindRule}
		out[key] = append(out[key], nodes...)
	}
	for key, nodes := range a.QuantsByKey {
		out[key] = append(out[key], nodes...)
	}
	for key, nodes := range a.AltsByKey {
		out[key] = append(out[key], nodes...)
	}
	return out
}

func sortedCommonKeys(a, b map[annotate.NodeKey][]*ruletree.Node) []annotate.NodeKey {
	var out []annotate.NodeKey
	for k := range a {
		if len(b[k]) > 0 {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rule != out[j].Rule {
			return out[i].Rule < out[j].Rule
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// rootTokens returns the total token count of the tree root is part
// of, by walking to the root first.
func rootTokens(n *ruletree.Node) int {
	root := n
	for root.Parent != nil {
		root = root.Parent
	}
	return ruletree.RecomputeSize(root).Tokens
}

func treeRoot(n *ruletree.Node) *ruletree.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// withinLimit reports whether replacing a subtree at atLevel that holds
// oldSubtreeTokens of the tree's totalTokens by one costing newCost keeps
// the whole tree within limit, per the regenerate_rule / replace_node
// budget checks of §4.5.
func withinLimit(limit ruletree.Size, atLevel, totalTokens, oldSubtreeTokens int, newCost ruletree.Size) bool {
	if atLevel+newCost.Depth > limit.Depth {
		return false
	}
	if totalTokens-oldSubtreeTokens+newCost.Tokens > limit.Tokens {
		return false
	}
	return true
}
