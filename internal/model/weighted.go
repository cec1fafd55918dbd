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

package model

import "github.com/salikh/grafl/internal/ruletree"

// AltKey identifies one alternative of one alternation: (rule, alt
// set index, alt index). It matches the weights-file shape of §6.
type AltKey struct {
	Rule    string
	AltSet  int
	Alt     int
}

// QuantKey identifies one quantifier: (rule, quantifier index).
type QuantKey struct {
	Rule  string
	Quant int
}

// Weighted wraps a Model, pre-multiplying Choice weights by a
// per-(rule, alt_set, alt) table and overriding Quantify's probability
// by a per-(rule, quant) table, per §4.2. Entries absent from either
// table default to a multiplier/probability of 1.0/the caller-supplied
// prob respectively, so a partially specified weights file degrades to
// the wrapped Model's defaults.
type Weighted struct {
	Inner    Model
	AltMul   map[AltKey]float64
	QuantProb map[QuantKey]float64

	// ruleNameOf recovers the rule name a node belongs
	// to, since ruletree.Node does not itself carry the enclosing rule
	// name for Quantifier/Alternative nodes (only ParserRule does).
	// The generator contract always calls Choice/Quantify with the
	// enclosing RuleContext's node, so callers pass that rule's name
	// through ruleNameOf.
	ruleNameOf func(node *ruletree.Node) string
}

// NewWeighted constructs a Weighted wrapper. ruleNameOf recovers the
// enclosing rule's name for a node passed to Choice/Quantify; the
// generator contract always invokes Model methods with the currently
// open RuleContext's node as the first argument (§4.3), so a generator
// can supply `func(n *ruletree.Node) string { return n.Name }` when n
// is always a ParserRule.
func NewWeighted(inner Model, altMul map[AltKey]float64, quantProb map[QuantKey]float64, ruleNameOf func(*ruletree.Node) string) *Weighted {
	return &Weighted{Inner: inner, AltMul: altMul, QuantProb: quantProb, ruleNameOf: ruleNameOf}
}

// Choice implements Model, multiplying each weight by the configured
// per-alt multiplier (default 1.0) before delegating to Inner.Choice.
func (w *Weighted) Choice(node *ruletree.Node, alternationIndex int, weights []float64) int {
	rule := w.ruleNameOf(node)
	scaled := make([]float64, len(weights))
	for i, wt := range weights {
		mul, ok := w.AltMul[AltKey{Rule: rule, AltSet: alternationIndex, Alt: i}]
		if !ok {
			mul = 1.0
		}
		scaled[i] = wt * mul
	}
	return w.Inner.Choice(node, alternationIndex, scaled)
}

// Quantify implements Model, overriding prob from the per-quant table
// when present.
func (w *Weighted) Quantify(node *ruletree.Node, quantIndex, currentCount, start, stop int, prob float64) bool {
	rule := w.ruleNameOf(node)
	if p, ok := w.QuantProb[QuantKey{Rule: rule, Quant: quantIndex}]; ok {
		prob = p
	}
	return w.Inner.Quantify(node, quantIndex, currentCount, start, stop, prob)
}

// Charset delegates unchanged: §4.2 gives Weighted no charset table.
func (w *Weighted) Charset(node *ruletree.Node, setIndex int, chars []string) string {
	return w.Inner.Charset(node, setIndex, chars)
}
