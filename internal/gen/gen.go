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

// Package gen implements the generator contract (§4.3): the
// bookkeeping contexts (RuleContext, AlternationContext,
// QuantifierContext, Reserve) that per-rule generator functions (the
// processor's output, §6) are woven around, plus the rule-function
// registry and listener dispatch those functions share through one
// State value per generation call.
package gen

import (
	"errors"
	"fmt"

	log "github.com/golang/glog"
	"github.com/salikh/grafl/internal/model"
	"github.com/salikh/grafl/internal/ruletree"
)

// Limit is the pair (max_depth, max_tokens) bounding one generation
// attempt (§4.3, Glossary "Limit").
type Limit = ruletree.Size

// ErrUnknownRule is returned when Generate is called for a name not
// registered in a State's rule table (§7 UnknownRule: surfaced to
// caller).
var ErrUnknownRule = errors.New("gen: unknown rule")

// RuleFunc is the signature the processor emits per grammar rule: given
// the open State, it builds and returns the subtree for one call of
// that rule (an entry point per rule, §6).
type RuleFunc func(s *State) (*ruletree.Node, error)

// RuleSizes, AltSizes and QuantSizes are the three static tables the
// processor is contractually required to supply (§3, §6): per-rule
// minimum cost, per-alt minimum cost, and per-quantifier
// minimum-single-expansion cost.
type RuleSizes map[string]ruletree.Size

// AltSizeKey identifies one alternative within one alternation.
type AltSizeKey struct {
	Rule   string
	AltSet int
	Alt    int
}

// AltSizes maps an alternative to its minimum derivation cost.
type AltSizes map[AltSizeKey]ruletree.Size

// QuantSizeKey identifies one quantifier.
type QuantSizeKey struct {
	Rule  string
	Quant int
}

// QuantSizes maps a quantifier to the minimum cost of one expansion.
type QuantSizes map[QuantSizeKey]ruletree.Size

// Listener receives EnterRule/ExitRule for every rule invocation, in
// registration order on enter and reverse order on exit (§4.3, §5
// ordering guarantee).
type Listener interface {
	EnterRule(node *ruletree.Node)
	ExitRule(node *ruletree.Node)
}

// Registry bundles everything a State needs to know about the grammar:
// the compiled rule functions and the three static tables (§6 "to the
// processor" contract).
type Registry struct {
	Rules       map[string]RuleFunc
	DefaultRule string
	RuleSizes   RuleSizes
	AltSizes    AltSizes
	QuantSizes  QuantSizes
}

// State is the per-generation-call bookkeeping threaded through every
// RuleFunc invocation: current depth/token consumption, the limit, the
// decision Model, the rule registry, and the registered listeners.
// A State is used for exactly one Generate call; it is not
// re-entrant across concurrent goroutines (§5: single-threaded engine).
type State struct {
	Registry  *Registry
	Model     model.Model
	Limit     Limit
	Listeners []Listener

	// OnRelax, if set, is called each time AlternationContext must
	// relax the budget (§7 SizeInfeasible). Used by internal/tool to
	// maintain Stats.Relaxations.
	OnRelax func()

	// Current is the (depth, tokens) consumed so far: depth is the
	// current recursion depth (incremented on RuleContext.Enter,
	// decremented on Close), tokens is a running count of emitted
	// leaf tokens plus any outstanding Reserve commitments.
	Current ruletree.Size

	// parentNode is the innermost open node that new rules, leaves,
	// Alternatives and Quantifiers are appended to; OpenLexerSubRule
	// retargets its Name for lexer sub-rule calls.
	parentNode *ruletree.Node
}

// NewState constructs a State ready to drive one Generate call.
func NewState(reg *Registry, m model.Model, limit Limit, listeners ...Listener) *State {
	return &State{Registry: reg, Model: m, Limit: limit, Listeners: listeners}
}

// Generate invokes the named rule's RuleFunc as the root of a fresh
// tree. It returns ErrUnknownRule (wrapped with the name) if ruleName
// is not registered.
func (s *State) Generate(ruleName string) (*ruletree.Node, error) {
	if ruleName == "" {
		ruleName = s.Registry.DefaultRule
	}
	fn, ok := s.Registry.Rules[ruleName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, ruleName)
	}
	return fn(s)
}

// Reserve adds tokens to the current token budget for the duration of
// f, to account for tail tokens a caller commits to but has not yet
// materialized (e.g. a literal suffix emitted after a nested call
// returns, §4.3 "Reserve"). It is removed again once f returns,
// regardless of error.
func Reserve(s *State, tokens int, f func() error) error {
	s.Current.Tokens += tokens
	defer func() { s.Current.Tokens -= tokens }()
	return f()
}

// RuleContext scopes one rule invocation: on Open it increments depth,
// appends a new node to the currently open parent (if any) and fires
// EnterRule listeners in registration order; on Close it fires
// ExitRule in reverse order and decrements depth. It guarantees
// ExitRule fires on every path, including error unwinding, when used
// via OpenRule (§5 "scoped acquisition of rule contexts").
type RuleContext struct {
	s        *State
	node     *ruletree.Node
	prevNode *ruletree.Node
}

// OpenRule opens a RuleContext for a ParserRule named name, appending
// it as a child of the currently open parent (if any), and returns a
// close function the caller must defer immediately.
func OpenRule(s *State, name string) (*ruletree.Node, *RuleContext, func()) {
	node := ruletree.NewParserRule(name)
	if s.parentNode != nil {
		ruletree.InsertChild(s.parentNode, len(s.parentNode.Children), node)
	}
	rc := &RuleContext{s: s, node: node, prevNode: s.parentNode}
	s.parentNode = node
	s.Current.Depth++
	for _, l := range s.Listeners {
		l.EnterRule(node)
	}
	return node, rc, rc.close
}

func (rc *RuleContext) close() {
	s := rc.s
	for i := len(s.Listeners) - 1; i >= 0; i-- {
		s.Listeners[i].ExitRule(rc.node)
	}
	s.Current.Depth--
	s.parentNode = rc.prevNode
}

// OpenLexerSubRule retargets the currently open parent's Name for the
// duration of a lexer sub-rule call without creating a new node (§4.3:
// "For lexer sub-rules invoked inside another lexer rule, no new node
// is created; the parent's name is temporarily retargeted"). The
// returned function restores the previous name.
func OpenLexerSubRule(s *State, name string) func() {
	if s.parentNode == nil {
		return func() {}
	}
	prev := s.parentNode.Name
	s.parentNode.Name = name
	return func() { s.parentNode.Name = prev }
}

// EmitLeaf appends a LexerLeaf child to the currently open parent (or
// returns it unattached if there is none, for a rule generating a
// standalone leaf) and accounts its token into Current.
func EmitLeaf(s *State, name, src string, depth, tokens int, immutable bool) *ruletree.Node {
	leaf := ruletree.NewLexerLeaf(name, src, depth, tokens, immutable)
	if s.parentNode != nil {
		ruletree.InsertChild(s.parentNode, len(s.parentNode.Children), leaf)
	}
	s.Current.Tokens += tokens
	return leaf
}

// relaxBudget implements §4.3's AlternationContext budget relaxation:
// when every alt's weight has collapsed to zero, find the feasible
// alt with the smallest minimum cost and raise limit.Depth/Tokens to
// exactly accommodate it, logging a warning (§7 SizeInfeasible:
// "raise budget; warn; continue").
func relaxBudget(s *State, rule string, altSet int, mins []ruletree.Size) int {
	best := 0
	bestCost := mins[0].Depth + mins[0].Tokens
	for i, m := range mins[1:] {
		cost := m.Depth + m.Tokens
		if cost < bestCost {
			best = i + 1
			bestCost = cost
		}
	}
	need := s.Current.Add(mins[best])
	if need.Depth > s.Limit.Depth {
		s.Limit.Depth = need.Depth
	}
	if need.Tokens > s.Limit.Tokens {
		s.Limit.Tokens = need.Tokens
	}
	log.Warningf("gen: relaxing budget for rule %q alt_set %d to (%d,%d): no alt fit within the original limit",
		rule, altSet, s.Limit.Depth, s.Limit.Tokens)
	if s.OnRelax != nil {
		s.OnRelax()
	}
	return best
}

// AlternationContext chooses one alternative of an alternation,
// relaxing the budget if none fit (§4.3). condWeights is the per-alt
// semantic-predicate weight (1.0 when absent); mins is the per-alt
// static minimum cost from Registry.AltSizes, in alt order.
func AlternationContext(s *State, rule string, altSet int, condWeights []float64, mins []ruletree.Size) int {
	weights := make([]float64, len(mins))
	anyFeasible := false
	for i, m := range mins {
		if s.Current.Add(m).LessEqual(s.Limit) {
			weights[i] = condWeights[i]
			if weights[i] != 0 {
				anyFeasible = true
			}
		}
	}
	if !anyFeasible {
		relaxed := relaxBudget(s, rule, altSet, mins)
		weights = make([]float64, len(mins))
		weights[relaxed] = 1
	}
	var node *ruletree.Node
	if s.parentNode != nil {
		node = s.parentNode
	}
	return s.Model.Choice(node, altSet, weights)
}

// WrapAlternative wraps child, the expansion of the chosen alt, in an
// Alternative node and appends it to the currently open parent.
func WrapAlternative(s *State, altSet, chosen int, build func() (*ruletree.Node, error)) (*ruletree.Node, error) {
	alt := ruletree.NewAlternative(altSet, chosen)
	parent := s.parentNode
	if parent != nil {
		ruletree.InsertChild(parent, len(parent.Children), alt)
	}
	prevParent := s.parentNode
	s.parentNode = alt
	child, err := build()
	s.parentNode = prevParent
	if err != nil {
		if parent != nil {
			ruletree.Remove(alt)
		}
		return nil, err
	}
	_ = child
	return alt, nil
}

// QuantifierContext drives one quantifier's repetition loop. It opens
// a Quantifier node under the currently open parent and calls next
// repeatedly; next should build and return one repetition's content
// (wrapped internally into a Quantified child) and an error. The loop
// stops when start..stop bounds and the token/depth budget are
// exhausted; an error from next ends the loop and is returned.
//
// start == stop == 0 is accepted as a no-op quantifier that always
// contributes zero children (§9 open question).
func QuantifierContext(s *State, rule string, quantIndex, start, stop int, oneMin ruletree.Size, next func() (*ruletree.Node, error)) (*ruletree.Node, error) {
	q := ruletree.NewQuantifier(quantIndex, start, stop)
	if s.parentNode != nil {
		ruletree.InsertChild(s.parentNode, len(s.parentNode.Children), q)
	}
	if start == 0 && stop == 0 {
		return q, nil
	}
	count := 0
	for {
		mandatory := count < start
		if !mandatory {
			if stop != ruletree.Unbounded && count >= stop {
				break
			}
			if !s.Current.Add(oneMin).LessEqual(s.Limit) {
				break
			}
			var node *ruletree.Node
			if s.parentNode != nil {
				node = s.parentNode
			}
			if !s.Model.Quantify(node, quantIndex, count, start, stop, 0.5) {
				break
			}
		}
		quantified := ruletree.NewQuantified()
		ruletree.InsertChild(q, len(q.Children), quantified)
		prevParent := s.parentNode
		s.parentNode = quantified
		_, err := next()
		s.parentNode = prevParent
		if err != nil {
			ruletree.Remove(quantified)
			return nil, err
		}
		count++
	}
	return q, nil
}
