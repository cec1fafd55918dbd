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

// Package annotate implements Annotations (§4.4): the lazily built
// indices over a derivation tree that the evolution engine's creators
// (§4.5) use to find candidate mutation/recombination sites in time
// proportional to the index lookup, not a fresh tree walk per creator.
package annotate

import (
	"sort"

	"github.com/salikh/grafl/internal/ruletree"
)

// NodeKind discriminates the four kinds a NodeKey can name; it mirrors
// ruletree.Kind but collapses LexerLeaf/ParserRule into one "rule" kind
// since §4.5 says "a parser-rule node and a same-name lexer leaf are
// compatible".
type NodeKind int

const (
	KindRule NodeKind = iota
	KindAlternative
	KindQuantifier
	KindQuantified
)

// NodeKey is the compatibility tuple (rule_name, kind, index) used to
// decide whether two nodes may be swapped, replaced, or merged (§4.5).
type NodeKey struct {
	Rule  string
	Kind  NodeKind
	Index int
}

// NodeInfo is the (level, subtree_depth, subtree_tokens) triple §4.4
// records for every node.
type NodeInfo struct {
	Level        int
	SubtreeDepth int
	SubtreeTokens int
}

// Annotations indexes one tree. It is built by a single DFS (§4.4) and
// is invalidated (discarded) whenever the owning Individual's tree is
// mutated; see individual.Individual.
type Annotations struct {
	Root *ruletree.Node

	RulesByName map[string][]*ruletree.Node
	QuantsByKey map[NodeKey][]*ruletree.Node
	AltsByKey   map[NodeKey][]*ruletree.Node
	NodeInfo    map[*ruletree.Node]NodeInfo
}

// enclosingRuleName walks the parent chain to find the nearest
// ParserRule/LexerLeaf ancestor, since Quantifier/Alternative nodes
// don't themselves carry the rule name they belong to (§4.5: keys for
// those kinds still need "rule name and index agree").
func enclosingRuleName(n *ruletree.Node) string {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == ruletree.KindParserRule || p.Kind == ruletree.KindLexerLeaf {
			return p.Name
		}
	}
	return ""
}

func keyFor(n *ruletree.Node) (NodeKey, bool) {
	switch n.Kind {
	case ruletree.KindParserRule, ruletree.KindLexerLeaf:
		return NodeKey{Rule: n.Name, Kind: KindRule}, true
	case ruletree.KindQuantifier:
		return NodeKey{Rule: enclosingRuleName(n), Kind: KindQuantifier, Index: n.QuantIndex}, true
	case ruletree.KindAlternative:
		return NodeKey{Rule: enclosingRuleName(n), Kind: KindAlternative, Index: n.AltIndex}, true
	default:
		return NodeKey{}, false
	}
}

// skip reports whether n must be excluded from every index: the
// synthetic root/invalid sentinels and immutable lexer leaves (§4.4).
func skip(n *ruletree.Node) bool {
	if n.Kind == ruletree.KindLexerLeaf && n.Immutable {
		return true
	}
	if n.Kind == ruletree.KindParserRule || n.Kind == ruletree.KindLexerLeaf {
		if n.Name == ruletree.RootName || n.Name == ruletree.InvalidName {
			return true
		}
	}
	return false
}

// Build performs one DFS populating NodeInfo, then a second walk
// populating the name/key-keyed indices (§4.4).
func Build(root *ruletree.Node) *Annotations {
	a := &Annotations{
		Root:        root,
		RulesByName: map[string][]*ruletree.Node{},
		QuantsByKey: map[NodeKey][]*ruletree.Node{},
		AltsByKey:   map[NodeKey][]*ruletree.Node{},
		NodeInfo:    map[*ruletree.Node]NodeInfo{},
	}
	var walk func(n *ruletree.Node, level int) (int, int)
	walk = func(n *ruletree.Node, level int) (int, int) {
		if n == nil {
			return level, 0
		}
		var maxDepth, tokens int
		if n.Kind == ruletree.KindLexerLeaf {
			maxDepth = level + 1
			if n.Src != "" {
				tokens = 1
			}
		} else {
			maxDepth = level + 1
			for _, ch := range n.Children {
				d, t := walk(ch, level+1)
				if d > maxDepth {
					maxDepth = d
				}
				tokens += t
			}
		}
		a.NodeInfo[n] = NodeInfo{Level: level, SubtreeDepth: maxDepth - level, SubtreeTokens: tokens}
		return maxDepth, tokens
	}
	walk(root, 0)

	var index func(n *ruletree.Node)
	index = func(n *ruletree.Node) {
		if n == nil {
			return
		}
		if !skip(n) {
			switch n.Kind {
			case ruletree.KindParserRule, ruletree.KindLexerLeaf:
				a.RulesByName[n.Name] = append(a.RulesByName[n.Name], n)
			case ruletree.KindQuantifier:
				k, _ := keyFor(n)
				a.QuantsByKey[k] = append(a.QuantsByKey[k], n)
			case ruletree.KindAlternative:
				k, _ := keyFor(n)
				a.AltsByKey[k] = append(a.AltsByKey[k], n)
			}
		}
		for _, ch := range n.Children {
			index(ch)
		}
	}
	index(root)
	return a
}

// Key returns the NodeKey of n, and whether n participates in
// compatibility matching at all (Quantified nodes do not have their
// own key; they are addressed through their parent Quantifier).
func Key(n *ruletree.Node) (NodeKey, bool) {
	return keyFor(n)
}

// SortedRuleNames returns the rule names present in the index, sorted,
// so that iteration over the index is deterministic under a fixed seed
// (§5 ordering guarantee).
func (a *Annotations) SortedRuleNames() []string {
	names := make([]string, 0, len(a.RulesByName))
	for n := range a.RulesByName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SortedQuantKeys returns the quantifier keys present in the index,
// sorted by (Rule, Index).
func (a *Annotations) SortedQuantKeys() []NodeKey {
	return sortedKeys(a.QuantsByKey)
}

// SortedAltKeys returns the alternative keys present in the index,
// sorted by (Rule, Index).
func (a *Annotations) SortedAltKeys() []NodeKey {
	return sortedKeys(a.AltsByKey)
}

func sortedKeys(m map[NodeKey][]*ruletree.Node) []NodeKey {
	keys := make([]NodeKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Rule != keys[j].Rule {
			return keys[i].Rule < keys[j].Rule
		}
		return keys[i].Index < keys[j].Index
	})
	return keys
}
