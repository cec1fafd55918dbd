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

// Package ruletree implements the derivation tree data model: a tagged
// node type covering the five rule-tree variants (lexer leaf, parser
// rule, quantifier, quantified repetition, alternative), plus the
// structural operations (replace/remove/insert/clone) used by both the
// generator and the evolution engine.
package ruletree

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the five node variants. Dynamic dispatch over an
// open interface hierarchy is deliberately avoided in favor of a small
// tagged-union algebra: every operation below switches on Kind once.
type Kind int

const (
	// KindLexerLeaf is a terminal node carrying emitted text.
	KindLexerLeaf Kind = iota
	// KindParserRule is a named non-terminal.
	KindParserRule
	// KindQuantifier groups 0..n Quantified repetitions of one subexpression.
	KindQuantifier
	// KindQuantified is a single repetition housed under a Quantifier.
	KindQuantified
	// KindAlternative wraps the expansion chosen among an alternation's alts.
	KindAlternative
)

func (k Kind) String() string {
	switch k {
	case KindLexerLeaf:
		return "LexerLeaf"
	case KindParserRule:
		return "ParserRule"
	case KindQuantifier:
		return "Quantifier"
	case KindQuantified:
		return "Quantified"
	case KindAlternative:
		return "Alternative"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Unbounded is the sentinel for a Quantifier's Stop meaning "no upper
// bound". The binary and JSON codecs encode it as -1 (§6).
const Unbounded = -1

// RootName and InvalidName are synthetic rule names skipped by
// Annotations indices (§4.4): the root wrapper node generators attach
// real trees under, and a sentinel used by callers that need to hand
// back a tree without a meaningful rule (e.g. a CorruptTree recovery
// root, §7).
const (
	RootName    = "<ROOT>"
	InvalidName = "<INVALID>"
)

// Node is one node of a derivation tree. Only the fields relevant to
// Kind are meaningful; the zero value of the others is ignored. See the
// per-Kind constructors below for the canonical way to build one.
type Node struct {
	Kind Kind

	// ParserRule, LexerLeaf: the rule name.
	Name string
	// LexerLeaf: the emitted text.
	Src string
	// LexerLeaf: size contribution of this single leaf.
	Depth, Tokens int
	// LexerLeaf: true if produced by a fragment/implicit token that must
	// never be altered or replaced by a mutator.
	Immutable bool

	// Quantifier: this quantifier's index within its containing rule.
	QuantIndex int
	// Quantifier: inclusive repetition bounds. Stop == Unbounded means +inf.
	Start, Stop int

	// Alternative: the alternation's index within its containing rule,
	// and the index of the chosen alternative.
	AltIndex int
	Chosen   int

	Parent   *Node
	Children []*Node
}

// NewLexerLeaf constructs a terminal node.
func NewLexerLeaf(name, src string, depth, tokens int, immutable bool) *Node {
	return &Node{Kind: KindLexerLeaf, Name: name, Src: src, Depth: depth, Tokens: tokens, Immutable: immutable}
}

// NewParserRule constructs an (initially childless) non-terminal node.
func NewParserRule(name string) *Node {
	return &Node{Kind: KindParserRule, Name: name}
}

// NewQuantifier constructs an (initially childless) quantifier node.
func NewQuantifier(quantIndex, start, stop int) *Node {
	return &Node{Kind: KindQuantifier, QuantIndex: quantIndex, Start: start, Stop: stop}
}

// NewQuantified constructs a single repetition wrapper; the caller is
// expected to insert it under a Quantifier via InsertChild.
func NewQuantified() *Node {
	return &Node{Kind: KindQuantified}
}

// NewAlternative constructs an alternative wrapper around the chosen
// alt's expansion.
func NewAlternative(altIndex, chosen int) *Node {
	return &Node{Kind: KindAlternative, AltIndex: altIndex, Chosen: chosen}
}

// IsImmutable reports whether n must never be altered or replaced by a
// mutator: a lexer leaf explicitly marked immutable (§3 invariant).
func (n *Node) IsImmutable() bool {
	return n != nil && n.Kind == KindLexerLeaf && n.Immutable
}

func (n *Node) toString(indent string) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(n.Kind.String())
	switch n.Kind {
	case KindLexerLeaf:
		fmt.Fprintf(&b, " name(%s)", n.Name)
		if n.Immutable {
			b.WriteString(" immutable")
		}
		fmt.Fprintf(&b, " %q", n.Src)
	case KindParserRule:
		fmt.Fprintf(&b, " name(%s)", n.Name)
	case KindQuantifier:
		stop := "inf"
		if n.Stop != Unbounded {
			stop = strconv.Itoa(n.Stop)
		}
		fmt.Fprintf(&b, " idx(%d) bounds(%d,%s)", n.QuantIndex, n.Start, stop)
	case KindAlternative:
		fmt.Fprintf(&b, " idx(%d) chosen(%d)", n.AltIndex, n.Chosen)
	}
	nl := len(n.Children) > 1
	for _, ch := range n.Children {
		s := ch.toString(indent + "  ")
		if nl {
			b.WriteString("\n")
			b.WriteString(indent)
			b.WriteString("  ")
		} else {
			b.WriteString(" ")
		}
		b.WriteString(s)
	}
	b.WriteString(")")
	return b.String()
}

// String renders n as a compact S-expression.
func (n *Node) String() string {
	if n == nil {
		return "(nil)"
	}
	return n.toString("")
}
