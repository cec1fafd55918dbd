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

	"github.com/salikh/grafl/internal/annotate"
	"github.com/salikh/grafl/internal/gen"
	"github.com/salikh/grafl/internal/individual"
	"github.com/salikh/grafl/internal/ruletree"
)

// registerBuiltinCreators installs the full §4.5 catalog: one
// generator, nine intra-tree mutators, two cross-tree recombiners.
func registerBuiltinCreators(t *Tool) {
	t.register(&Creator{Name: "generate", Kind: KindGenerator, Fn: createGenerate})

	t.register(&Creator{Name: "regenerate_rule", Kind: KindMutator, Fn: createRegenerateRule})
	t.register(&Creator{Name: "delete_quantified", Kind: KindMutator, Fn: createDeleteQuantified})
	t.register(&Creator{Name: "replicate_quantified", Kind: KindMutator, Fn: createReplicateQuantified})
	t.register(&Creator{Name: "shuffle_quantifieds", Kind: KindMutator, Fn: createShuffleQuantifieds})
	t.register(&Creator{Name: "hoist_rule", Kind: KindMutator, Fn: createHoistRule})
	t.register(&Creator{Name: "swap_local_nodes", Kind: KindMutator, Fn: createSwapLocalNodes})
	t.register(&Creator{Name: "insert_local_node", Kind: KindMutator, Fn: createInsertLocalNode})
	t.register(&Creator{Name: "unrestricted_delete", Kind: KindMutator, Fn: createUnrestrictedDelete})
	t.register(&Creator{Name: "unrestricted_hoist_rule", Kind: KindMutator, Fn: createUnrestrictedHoistRule})

	t.register(&Creator{Name: "replace_node", Kind: KindRecombiner, Fn: createReplaceNode})
	t.register(&Creator{Name: "insert_quantified", Kind: KindRecombiner, Fn: createInsertQuantified})
}

// createGenerate ignores recipient/donor entirely and grows a fresh
// tree from the registry's default rule (§4.5 "generate: ignore both
// inputs, run the generator from the default rule").
func createGenerate(t *Tool, recipient, donor *individual.Individual) *ruletree.Node {
	s := gen.NewState(t.Registry, t.Model, t.Limit)
	s.OnRelax = t.noteRelaxation
	node, err := s.Generate("")
	if err != nil {
		return nil
	}
	return node
}

// regenerateCandidates collects recipient's rule/leaf nodes whose name
// has a registered RuleFunc (only named entry points can be
// regenerated standalone, §4.5/§6).
func regenerateCandidates(t *Tool, ann *annotate.Annotations) []*ruletree.Node {
	var out []*ruletree.Node
	for _, name := range ann.SortedRuleNames() {
		if _, ok := t.Registry.Rules[name]; !ok {
			continue
		}
		out = append(out, ann.RulesByName[name]...)
	}
	return out
}

// createRegenerateRule clones recipient, picks a rule node whose
// static minimum cost still fits the remaining budget at its level,
// and replaces it with a freshly generated subtree for the same rule
// (§4.5 "regenerate_rule").
func createRegenerateRule(t *Tool, recipient, donor *individual.Individual) *ruletree.Node {
	if recipient == nil {
		return nil
	}
	clone := ruletree.Clone(recipient.Root())
	ann := annotate.Build(clone)
	candidates := regenerateCandidates(t, ann)
	if len(candidates) == 0 {
		return nil
	}
	total := ruletree.RecomputeSize(clone).Tokens
	// Candidates are tried once each in a random permutation, matching
	// create_tree's own
	// "try, remove, retry" discipline at the per-creator level (§4.5).
	order := t.Rand.Perm(len(candidates))
	for _, idx := range order {
		n := candidates[idx]
		info := ann.NodeInfo[n]
		min, ok := t.Registry.RuleSizes[n.Name]
		if !ok {
			continue
		}
		if !withinLimit(t.Limit, info.Level, total, info.SubtreeTokens, min) {
			continue
		}
		avail := ruletree.Size{
			Depth:  t.Limit.Depth - info.Level,
			Tokens: t.Limit.Tokens - (total - info.SubtreeTokens),
		}
		s := gen.NewState(t.Registry, t.Model, avail)
		s.OnRelax = t.noteRelaxation
		fresh, err := s.Generate(n.Name)
		if err != nil {
			continue
		}
		if n.Parent == nil {
			return fresh
		}
		ruletree.Replace(n, fresh)
		return clone
	}
	return nil
}

// quantifiersWithChildren returns every Quantifier node in ann that
// currently has at least min children.
func quantifiersWithChildren(ann *annotate.Annotations, min int) []*ruletree.Node {
	var out []*ruletree.Node
	for _, k := range ann.SortedQuantKeys() {
		for _, q := range ann.QuantsByKey[k] {
			if len(q.Children) >= min {
				out = append(out, q)
			}
		}
	}
	return out
}

// createDeleteQuantified removes one repetition from a quantifier that
// has more than its mandatory minimum (§4.5 "delete_quantified").
func createDeleteQuantified(t *Tool, recipient, donor *individual.Individual) *ruletree.Node {
	if recipient == nil {
		return nil
	}
	clone := ruletree.Clone(recipient.Root())
	ann := annotate.Build(clone)
	var candidates []*ruletree.Node
	for _, k := range ann.SortedQuantKeys() {
		for _, q := range ann.QuantsByKey[k] {
			if len(q.Children) > q.Start {
				candidates = append(candidates, q)
			}
		}
	}
	q := pickNode(t.Rand, candidates)
	if q == nil {
		return nil
	}
	victim := pickNode(t.Rand, q.Children)
	ruletree.Remove(victim)
	return clone
}

// createReplicateQuantified clones a non-empty Quantified and inserts
// between 1 and as many copies as the token budget and the
// quantifier's stop bound allow, at most 8 per call
// (§4.5 "replicate_quantified").
func createReplicateQuantified(t *Tool, recipient, donor *individual.Individual) *ruletree.Node {
	if recipient == nil {
		return nil
	}
	clone := ruletree.Clone(recipient.Root())
	ann := annotate.Build(clone)
	candidates := quantifiersWithChildren(ann, 1)
	order := t.Rand.Perm(len(candidates))
	total := ruletree.RecomputeSize(clone).Tokens
	for _, idx := range order {
		q := candidates[idx]
		src := pickNode(t.Rand, q.Children)
		tokens := ruletree.RecomputeSize(src).Tokens
		if tokens <= 0 {
			continue
		}
		maxByTokens := (t.Limit.Tokens - total) / tokens
		maxByStop := maxByTokens
		if q.Stop != ruletree.Unbounded {
			if room := q.Stop - len(q.Children); room < maxByStop {
				maxByStop = room
			}
		}
		n := maxByStop
		if n < 1 {
			continue
		}
		if n > 8 {
			n = 8 // avoid pathological blowup from a single creator call
		}
		count := 1 + t.Rand.Intn(n)
		for i := 0; i < count; i++ {
			dup := ruletree.Clone(src)
			pos := t.Rand.Intn(len(q.Children) + 1)
			ruletree.InsertChild(q, pos, dup)
		}
		return clone
	}
	return nil
}

// createShuffleQuantifieds permutes the children of a quantifier with
// at least two repetitions (§4.5 "shuffle_quantifieds").
func createShuffleQuantifieds(t *Tool, recipient, donor *individual.Individual) *ruletree.Node {
	if recipient == nil {
		return nil
	}
	clone := ruletree.Clone(recipient.Root())
	ann := annotate.Build(clone)
	candidates := quantifiersWithChildren(ann, 2)
	q := pickNode(t.Rand, candidates)
	if q == nil {
		return nil
	}
	t.Rand.Shuffle(len(q.Children), func(i, j int) {
		q.Children[i], q.Children[j] = q.Children[j], q.Children[i]
	})
	return clone
}

// sameNameAncestors returns n's ancestors (excluding root) that share
// n's rule name, the candidate set hoist_rule draws from (§4.5).
func sameNameAncestors(root, n *ruletree.Node) []*ruletree.Node {
	var out []*ruletree.Node
	for _, a := range ruletree.Ancestors(n) {
		if a == root {
			continue
		}
		if a.Name == n.Name && (a.Kind == ruletree.KindParserRule || a.Kind == ruletree.KindLexerLeaf) {
			out = append(out, a)
		}
	}
	return out
}

// createHoistRule replaces a rule node's same-named ancestor with
// itself, collapsing the recursion between them (§4.5 "hoist_rule").
func createHoistRule(t *Tool, recipient, donor *individual.Individual) *ruletree.Node {
	if recipient == nil {
		return nil
	}
	clone := ruletree.Clone(recipient.Root())
	ann := annotate.Build(clone)
	var pairs []struct{ descendant, ancestor *ruletree.Node }
	for _, name := range ann.SortedRuleNames() {
		for _, n := range ann.RulesByName[name] {
			for _, a := range sameNameAncestors(clone, n) {
				pairs = append(pairs, struct{ descendant, ancestor *ruletree.Node }{n, a})
			}
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	p := pairs[t.Rand.Intn(len(pairs))]
	ruletree.Replace(p.ancestor, p.descendant)
	return clone
}

// unrestrictedAncestors returns n's rule-node ancestors with more than
// one child, excluding root; unrestricted_hoist_rule does not require
// a name match (§4.5).
func unrestrictedAncestors(root, n *ruletree.Node) []*ruletree.Node {
	var out []*ruletree.Node
	for _, a := range ruletree.Ancestors(n) {
		if a == root {
			continue
		}
		if a.Kind == ruletree.KindParserRule && len(a.Children) > 1 {
			out = append(out, a)
		}
	}
	return out
}

// createUnrestrictedHoistRule replaces an ancestor rule node by any of
// its rule-node descendants regardless of name, provided the two don't
// already produce the same text (§4.5 "unrestricted_hoist_rule": a
// grammar-violating escape hatch).
func createUnrestrictedHoistRule(t *Tool, recipient, donor *individual.Individual) *ruletree.Node {
	if recipient == nil {
		return nil
	}
	clone := ruletree.Clone(recipient.Root())
	ann := annotate.Build(clone)
	var pairs []struct{ descendant, ancestor *ruletree.Node }
	for _, name := range ann.SortedRuleNames() {
		for _, n := range ann.RulesByName[name] {
			for _, a := range unrestrictedAncestors(clone, n) {
				if ruletree.Text(a) == ruletree.Text(n) {
					continue
				}
				pairs = append(pairs, struct{ descendant, ancestor *ruletree.Node }{n, a})
			}
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	p := pairs[t.Rand.Intn(len(pairs))]
	ruletree.Replace(p.ancestor, p.descendant)
	return clone
}

// createUnrestrictedDelete removes any single rule node from the tree
// outright, with no grammar-validity guarantee (§4.5
// "unrestricted_delete").
func createUnrestrictedDelete(t *Tool, recipient, donor *individual.Individual) *ruletree.Node {
	if recipient == nil {
		return nil
	}
	clone := ruletree.Clone(recipient.Root())
	ann := annotate.Build(clone)
	var candidates []*ruletree.Node
	for _, name := range ann.SortedRuleNames() {
		for _, n := range ann.RulesByName[name] {
			if n.Parent != nil {
				candidates = append(candidates, n)
			}
		}
	}
	n := pickNode(t.Rand, candidates)
	if n == nil {
		return nil
	}
	ruletree.Remove(n)
	return clone
}

// createSwapLocalNodes exchanges two disjoint, non-token-equivalent
// nodes sharing a NodeKey, provided the swap keeps both new positions
// within the depth limit (§4.5 "swap_local_nodes"). The exchange goes
// through a throwaway placeholder node so it is correct whether or not
// the two nodes share a parent.
func createSwapLocalNodes(t *Tool, recipient, donor *individual.Individual) *ruletree.Node {
	if recipient == nil {
		return nil
	}
	clone := ruletree.Clone(recipient.Root())
	ann := annotate.Build(clone)
	keyed := allKeyed(ann)
	var keys []annotate.NodeKey
	for k, nodes := range keyed {
		if len(nodes) >= 2 {
			keys = append(keys, k)
		}
	}
	order := t.Rand.Perm(len(keys))
	for _, idx := range order {
		nodes := keyed[keys[idx]]
		a, b := pickDisjointPair(t.Rand, nodes)
		if a == nil {
			continue
		}
		if ruletree.Text(a) == ruletree.Text(b) {
			continue
		}
		infoA, infoB := ann.NodeInfo[a], ann.NodeInfo[b]
		// a moves to b's old position (and vice versa): each new subtree's
		// deepest leaf sits at the other node's level plus its own depth.
		if infoB.Level+infoA.SubtreeDepth > t.Limit.Depth || infoA.Level+infoB.SubtreeDepth > t.Limit.Depth {
			continue
		}
		temp := &ruletree.Node{}
		ruletree.Replace(a, temp)
		ruletree.Replace(b, a)
		ruletree.Replace(temp, b)
		return clone
	}
	return nil
}

// pickDisjointPair returns two distinct, non-overlapping nodes from
// nodes chosen uniformly at random, retrying a bounded number of times
// before giving up.
func pickDisjointPair(r *rand.Rand, nodes []*ruletree.Node) (*ruletree.Node, *ruletree.Node) {
	if len(nodes) < 2 {
		return nil, nil
	}
	for attempt := 0; attempt < 16; attempt++ {
		i := r.Intn(len(nodes))
		j := r.Intn(len(nodes))
		if i == j {
			continue
		}
		a, b := nodes[i], nodes[j]
		if ruletree.Contains(a, b) || ruletree.Contains(b, a) {
			continue
		}
		return a, b
	}
	return nil, nil
}

// createInsertLocalNode clones a child from one quantifier and inserts
// it into another quantifier of the same key within the same tree
// (§4.5 "insert_local_node").
func createInsertLocalNode(t *Tool, recipient, donor *individual.Individual) *ruletree.Node {
	if recipient == nil {
		return nil
	}
	clone := ruletree.Clone(recipient.Root())
	ann := annotate.Build(clone)
	for _, k := range ann.SortedQuantKeys() {
		qs := ann.QuantsByKey[k]
		if len(qs) < 2 {
			continue
		}
		srcQ, dstQ := pickDisjointPair(t.Rand, qs)
		if srcQ == nil || len(srcQ.Children) == 0 {
			continue
		}
		if dstQ.Stop != ruletree.Unbounded && len(dstQ.Children) >= dstQ.Stop {
			continue
		}
		src := pickNode(t.Rand, srcQ.Children)
		dup := ruletree.Clone(src)
		cost := ruletree.RecomputeSize(dup)
		total := ruletree.RecomputeSize(clone).Tokens
		dstInfo := ann.NodeInfo[dstQ]
		if !withinLimit(t.Limit, dstInfo.Level, total, 0, cost) {
			continue
		}
		pos := t.Rand.Intn(len(dstQ.Children) + 1)
		ruletree.InsertChild(dstQ, pos, dup)
		return clone
	}
	return nil
}

// createReplaceNode replaces a recipient node by a clone of a
// donor node sharing the same NodeKey, if the result still fits the
// size limit (§4.5 "replace_node").
func createReplaceNode(t *Tool, recipient, donor *individual.Individual) *ruletree.Node {
	if recipient == nil || donor == nil {
		return nil
	}
	clone := ruletree.Clone(recipient.Root())
	recAnn := annotate.Build(clone)
	donAnn := donor.Annotations()
	recKeyed := allKeyed(recAnn)
	donKeyed := allKeyed(donAnn)
	keys := sortedCommonKeys(recKeyed, donKeyed)
	order := t.Rand.Perm(len(keys))
	total := ruletree.RecomputeSize(clone).Tokens
	for _, idx := range order {
		key := keys[idx]
		var rNodes []*ruletree.Node
		for _, n := range recKeyed[key] {
			if n.Parent != nil {
				rNodes = append(rNodes, n)
			}
		}
		if len(rNodes) == 0 {
			continue
		}
		r := pickNode(t.Rand, rNodes)
		d := pickNode(t.Rand, donKeyed[key])
		info := recAnn.NodeInfo[r]
		dup := ruletree.Clone(d)
		cost := ruletree.RecomputeSize(dup)
		if !withinLimit(t.Limit, info.Level-1, total, info.SubtreeTokens, cost) {
			continue
		}
		if ruletree.Text(r) == ruletree.Text(dup) {
			continue
		}
		ruletree.Replace(r, dup)
		return clone
	}
	return nil
}

// createInsertQuantified inserts a clone of a donor quantifier's child
// into a recipient quantifier sharing the same key (§4.5
// "insert_quantified").
func createInsertQuantified(t *Tool, recipient, donor *individual.Individual) *ruletree.Node {
	if recipient == nil || donor == nil {
		return nil
	}
	clone := ruletree.Clone(recipient.Root())
	recAnn := annotate.Build(clone)
	donAnn := donor.Annotations()
	keys := sortedCommonKeys(recAnn.QuantsByKey, donAnn.QuantsByKey)
	order := t.Rand.Perm(len(keys))
	total := ruletree.RecomputeSize(clone).Tokens
	for _, idx := range order {
		key := keys[idx]
		dstCandidates := recAnn.QuantsByKey[key]
		dst := pickNode(t.Rand, dstCandidates)
		if dst == nil {
			continue
		}
		if dst.Stop != ruletree.Unbounded && len(dst.Children) >= dst.Stop {
			continue
		}
		srcQ := pickNode(t.Rand, donAnn.QuantsByKey[key])
		if srcQ == nil || len(srcQ.Children) == 0 {
			continue
		}
		src := pickNode(t.Rand, srcQ.Children)
		dup := ruletree.Clone(src)
		cost := ruletree.RecomputeSize(dup)
		info := recAnn.NodeInfo[dst]
		if !withinLimit(t.Limit, info.Level, total, 0, cost) {
			continue
		}
		pos := t.Rand.Intn(len(dst.Children) + 1)
		ruletree.InsertChild(dst, pos, dup)
		return clone
	}
	return nil
}
