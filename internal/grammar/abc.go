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

// ABC returns the grammar from §8 scenario 4: `start: (a|b|c);`.
func ABC() *gen.Registry {
	letters := []string{"a", "b", "c"}
	startRule := func(s *gen.State) (*ruletree.Node, error) {
		node, _, close := gen.OpenRule(s, "start")
		defer close()
		mins := []ruletree.Size{{Tokens: 1}, {Tokens: 1}, {Tokens: 1}}
		chosen := gen.AlternationContext(s, "start", 0, []float64{1, 1, 1}, mins)
		_, err := gen.WrapAlternative(s, 0, chosen, func() (*ruletree.Node, error) {
			gen.EmitLeaf(s, "start", letters[chosen], 1, 1, false)
			return nil, nil
		})
		return node, err
	}
	return &gen.Registry{
		Rules:       map[string]gen.RuleFunc{"start": startRule},
		DefaultRule: "start",
		RuleSizes:   gen.RuleSizes{"start": {Depth: 1, Tokens: 1}},
		AltSizes: gen.AltSizes{
			{Rule: "start", AltSet: 0, Alt: 0}: {Tokens: 1},
			{Rule: "start", AltSet: 0, Alt: 1}: {Tokens: 1},
			{Rule: "start", AltSet: 0, Alt: 2}: {Tokens: 1},
		},
		QuantSizes: gen.QuantSizes{},
	}
}
