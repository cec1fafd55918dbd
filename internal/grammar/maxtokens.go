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

// MaxTokens returns the grammar from §8 scenario 3:
//
//	start: a b+ c;
//	a: A A A | A A A A;
//	A:'a'; B:'b'; C:'c';
//
// The trailing 'c' is reserved before the b+ loop runs (§4.3 Reserve),
// so the quantifier never overruns the token budget.
func MaxTokens() *gen.Registry {
	aRule := func(s *gen.State) (*ruletree.Node, error) {
		node, _, close := gen.OpenRule(s, "a")
		defer close()
		mins := []ruletree.Size{
			{Depth: 0, Tokens: 3},
			{Depth: 0, Tokens: 4},
		}
		chosen := gen.AlternationContext(s, "a", 0, []float64{1, 1}, mins)
		_, err := gen.WrapAlternative(s, 0, chosen, func() (*ruletree.Node, error) {
			n := 3
			if chosen == 1 {
				n = 4
			}
			for i := 0; i < n; i++ {
				gen.EmitLeaf(s, "a", "a", 1, 1, false)
			}
			return nil, nil
		})
		return node, err
	}
	startRule := func(s *gen.State) (*ruletree.Node, error) {
		node, _, close := gen.OpenRule(s, "start")
		defer close()
		if _, err := s.Registry.Rules["a"](s); err != nil {
			return nil, err
		}
		err := gen.Reserve(s, 1, func() error {
			_, err := gen.QuantifierContext(s, "start", 0, 1, ruletree.Unbounded, ruletree.Size{Depth: 0, Tokens: 1}, func() (*ruletree.Node, error) {
				gen.EmitLeaf(s, "b", "b", 1, 1, false)
				return nil, nil
			})
			return err
		})
		if err != nil {
			return nil, err
		}
		gen.EmitLeaf(s, "start", "c", 1, 1, false)
		return node, nil
	}
	return &gen.Registry{
		Rules: map[string]gen.RuleFunc{
			"a":     aRule,
			"start": startRule,
		},
		DefaultRule: "start",
		RuleSizes: gen.RuleSizes{
			"a":     {Depth: 1, Tokens: 3},
			"start": {Depth: 1, Tokens: 5},
		},
		AltSizes: gen.AltSizes{
			{Rule: "a", AltSet: 0, Alt: 0}: {Depth: 0, Tokens: 3},
			{Rule: "a", AltSet: 0, Alt: 1}: {Depth: 0, Tokens: 4},
		},
		QuantSizes: gen.QuantSizes{
			{Rule: "start", Quant: 0}: {Depth: 0, Tokens: 1},
		},
	}
}
