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

package codec

import (
	"encoding/json"
	"fmt"

	"github.com/salikh/grafl/internal/ruletree"
)

// jsonKind is the JSON "t" tag for each node kind.
type jsonKind string

const (
	jsonLexerLeaf   jsonKind = "leaf"
	jsonParserRule  jsonKind = "rule"
	jsonQuantifier  jsonKind = "quant"
	jsonQuantified  jsonKind = "rep"
	jsonAlternative jsonKind = "alt"
)

// jsonNode is the on-the-wire JSON shape of §6, under short field
// names: t, n, s, z, i, ai, b, e, plus "ch" for an Alternative's
// chosen index and "c" for the child list (see DESIGN.md).
type jsonNode struct {
	T  jsonKind    `json:"t"`
	N  string      `json:"n,omitempty"`
	S  string      `json:"s,omitempty"`
	Z  *[2]int     `json:"z,omitempty"`
	I  bool        `json:"i,omitempty"`
	AI int         `json:"ai,omitempty"`
	Ch int         `json:"ch,omitempty"`
	B  int         `json:"b,omitempty"`
	E  int         `json:"e,omitempty"`
	C  []*jsonNode `json:"c,omitempty"`
}

func toJSONNode(n *ruletree.Node) (*jsonNode, error) {
	jn := &jsonNode{}
	switch n.Kind {
	case ruletree.KindLexerLeaf:
		jn.T = jsonLexerLeaf
		jn.N = n.Name
		jn.S = n.Src
		jn.Z = &[2]int{n.Depth, n.Tokens}
		jn.I = n.Immutable
	case ruletree.KindParserRule:
		jn.T = jsonParserRule
		jn.N = n.Name
	case ruletree.KindQuantifier:
		jn.T = jsonQuantifier
		jn.AI = n.QuantIndex
		jn.B = n.Start
		jn.E = n.Stop
	case ruletree.KindAlternative:
		jn.T = jsonAlternative
		jn.AI = n.AltIndex
		jn.Ch = n.Chosen
	case ruletree.KindQuantified:
		jn.T = jsonQuantified
	default:
		return nil, fmt.Errorf("%w: unknown node kind %v", ErrCorruptTree, n.Kind)
	}
	for _, ch := range n.Children {
		cj, err := toJSONNode(ch)
		if err != nil {
			return nil, err
		}
		jn.C = append(jn.C, cj)
	}
	return jn, nil
}

func fromJSONNode(jn *jsonNode) (*ruletree.Node, error) {
	if jn == nil {
		return nil, fmt.Errorf("%w: nil node", ErrCorruptTree)
	}
	n := &ruletree.Node{}
	switch jn.T {
	case jsonLexerLeaf:
		n.Kind = ruletree.KindLexerLeaf
		n.Name = jn.N
		n.Src = jn.S
		if jn.Z == nil {
			return nil, fmt.Errorf("%w: lexer leaf %q missing size", ErrCorruptTree, jn.N)
		}
		n.Depth, n.Tokens = jn.Z[0], jn.Z[1]
		n.Immutable = jn.I
	case jsonParserRule:
		n.Kind = ruletree.KindParserRule
		n.Name = jn.N
	case jsonQuantifier:
		n.Kind = ruletree.KindQuantifier
		n.QuantIndex = jn.AI
		n.Start = jn.B
		n.Stop = jn.E
	case jsonAlternative:
		n.Kind = ruletree.KindAlternative
		n.AltIndex = jn.AI
		n.Chosen = jn.Ch
	case jsonQuantified:
		n.Kind = ruletree.KindQuantified
	default:
		return nil, fmt.Errorf("%w: unknown node kind %q", ErrCorruptTree, jn.T)
	}
	for i, cj := range jn.C {
		ch, err := fromJSONNode(cj)
		if err != nil {
			return nil, err
		}
		ruletree.InsertChild(n, i, ch)
	}
	return n, nil
}

// EncodeJSON serializes root into the JSON tree format of §6.
func EncodeJSON(root *ruletree.Node) ([]byte, error) {
	jn, err := toJSONNode(root)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jn)
}

// DecodeJSON parses data produced by EncodeJSON, returning
// ErrCorruptTree on malformed JSON, an unknown "t" tag, or a node
// missing a field required for its kind.
func DecodeJSON(data []byte) (*ruletree.Node, error) {
	var jn jsonNode
	if err := json.Unmarshal(data, &jn); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptTree, err)
	}
	return fromJSONNode(&jn)
}
