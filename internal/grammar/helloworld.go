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

// Package grammar hand-writes a handful of compiled rule-function sets
// conforming exactly to the §6 processor contract (a RuleFunc per rule,
// a default rule name, and the three static size tables). These stand
// in for the `.g4` front-end's output, which spec.md treats as an
// external collaborator out of scope for this repo; they exist so the
// §8 end-to-end scenarios can exercise internal/gen, internal/tool and
// internal/trim without a real processor.
package grammar

import (
	"github.com/salikh/grafl/internal/gen"
	"github.com/salikh/grafl/internal/ruletree"
)

// HelloWorld returns the grammar from §8 scenario 1:
//
//	start: hello ' ' grammarinator '!';
//
// with hello/grammarinator spelled out one character-literal at a time,
// so that Text(root) joined one space apart between every leaf token
// reproduces "H e l l o   G r a m m a r i n a t o r !" exactly.
func HelloWorld() *gen.Registry {
	rules := map[string]gen.RuleFunc{
		"hello": func(s *gen.State) (*ruletree.Node, error) {
			node, _, close := gen.OpenRule(s, "hello")
			defer close()
			for _, r := range "Hello" {
				gen.EmitLeaf(s, "hello", string(r), 1, 1, false)
			}
			return node, nil
		},
		"grammarinator": func(s *gen.State) (*ruletree.Node, error) {
			node, _, close := gen.OpenRule(s, "grammarinator")
			defer close()
			for _, r := range "Grammarinator" {
				gen.EmitLeaf(s, "grammarinator", string(r), 1, 1, false)
			}
			return node, nil
		},
		"start": func(s *gen.State) (*ruletree.Node, error) {
			node, _, close := gen.OpenRule(s, "start")
			defer close()
			if _, err := s.Registry.Rules["hello"](s); err != nil {
				return nil, err
			}
			gen.EmitLeaf(s, "start", " ", 1, 1, false)
			if _, err := s.Registry.Rules["grammarinator"](s); err != nil {
				return nil, err
			}
			gen.EmitLeaf(s, "start", "!", 1, 1, false)
			return node, nil
		},
	}
	return &gen.Registry{
		Rules:       rules,
		DefaultRule: "start",
		RuleSizes: gen.RuleSizes{
			"hello":         {Depth: 1, Tokens: 5},
			"grammarinator": {Depth: 1, Tokens: 13},
			"start":         {Depth: 1, Tokens: 20},
		},
		AltSizes:   gen.AltSizes{},
		QuantSizes: gen.QuantSizes{},
	}
}

// SimpleSpaceSerializer joins every token (lexer-leaf Src) of root with
// a single space, the "simple_space_serializer" of §8 scenario 1.
func SimpleSpaceSerializer(root *ruletree.Node) string {
	toks := ruletree.Tokens(root)
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Src
	}
	return joinSpace(out)
}

func joinSpace(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	n := len(parts) - 1
	for _, p := range parts {
		n += len(p)
	}
	b := make([]byte, 0, n)
	for i, p := range parts {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, p...)
	}
	return string(b)
}
