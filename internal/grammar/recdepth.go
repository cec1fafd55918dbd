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

package grammar

import (
	"github.com/salikh/grafl/internal/gen"
	"github.com/salikh/grafl/internal/ruletree"
)

// RecursiveDepth returns the grammar from §8 scenario 2:
//
//	start: listofelements;
//	listofelements: element | element ' ' listofelements;
//	element: 'pass' | '(' listofelements ')';
//
// Minimum subtree costs (depth counts rule nesting, tokens count leaf
// tokens):
//
//	element minimal ('pass')            depth=1 tokens=1
//	listofelements minimal (one element) depth=2 tokens=1
//	start minimal                        depth=3 tokens=1
func RecursiveDepth() *gen.Registry {
	elementAlt := func(s *gen.State) (*ruletree.Node, error) {
		node, _, close := gen.OpenRule(s, "element")
		defer close()
		mins := []ruletree.Size{
			{Depth: 0, Tokens: 1}, // 'pass'
			{Depth: 2, Tokens: 3}, // '(' listofelements ')'
		}
		chosen := gen.AlternationContext(s, "element", 0, []float64{1, 1}, mins)
		_, err := gen.WrapAlternative(s, 0, chosen, func() (*ruletree.Node, error) {
			switch chosen {
			case 0:
				gen.EmitLeaf(s, "element", "pass", 1, 1, false)
				return nil, nil
			default:
				gen.EmitLeaf(s, "element", "(", 1, 1, false)
				if _, err := s.Registry.Rules["listofelements"](s); err != nil {
					return nil, err
				}
				gen.EmitLeaf(s, "element", ")", 1, 1, false)
				return nil, nil
			}
		})
		return node, err
	}
	listAlt := func(s *gen.State) (*ruletree.Node, error) {
		node, _, close := gen.OpenRule(s, "listofelements")
		defer close()
		mins := []ruletree.Size{
			{Depth: 1, Tokens: 1}, // element
			{Depth: 2, Tokens: 3}, // element ' ' listofelements
		}
		chosen := gen.AlternationContext(s, "listofelements", 0, []float64{1, 1}, mins)
		_, err := gen.WrapAlternative(s, 0, chosen, func() (*ruletree.Node, error) {
			if _, err := s.Registry.Rules["element"](s); err != nil {
				return nil, err
			}
			if chosen == 1 {
				gen.EmitLeaf(s, "listofelements", " ", 1, 1, false)
				if _, err := s.Registry.Rules["listofelements"](s); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		return node, err
	}
	startRule := func(s *gen.State) (*ruletree.Node, error) {
		node, _, close := gen.OpenRule(s, "start")
		defer close()
		if _, err := s.Registry.Rules["listofelements"](s); err != nil {
			return nil, err
		}
		return node, nil
	}
	return &gen.Registry{
		Rules: map[string]gen.RuleFunc{
			"element":        elementAlt,
			"listofelements": listAlt,
			"start":          startRule,
		},
		DefaultRule: "start",
		RuleSizes: gen.RuleSizes{
			"element":        {Depth: 1, Tokens: 1},
			"listofelements": {Depth: 2, Tokens: 1},
			"start":          {Depth: 3, Tokens: 1},
		},
		AltSizes: gen.AltSizes{
			{Rule: "element", AltSet: 0, Alt: 0}:        {Depth: 0, Tokens: 1},
			{Rule: "element", AltSet: 0, Alt: 1}:        {Depth: 2, Tokens: 3},
			{Rule: "listofelements", AltSet: 0, Alt: 0}: {Depth: 1, Tokens: 1},
			{Rule: "listofelements", AltSet: 0, Alt: 1}: {Depth: 2, Tokens: 3},
		},
		QuantSizes: gen.QuantSizes{},
	}
}
