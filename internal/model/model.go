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

// Package model implements the decision oracle (§4.2): the capability
// set {Choice, Quantify, Charset} a generator consults at every
// alternation, quantifier continuation, and charset terminal. Model is
// intentionally a small interface rather than a class hierarchy so
// that Weighted and Dispatching can both wrap any other Model.
package model

import (
	"math/rand"

	"github.com/salikh/grafl/internal/ruletree"
)

// Model is the decision oracle consulted while generating or mutating
// a tree. Implementations are expected to be stateless except for
// their random source; a Model is owned by exactly one engine
// instance (§5: no process-wide singleton).
type Model interface {
	// Choice returns the index of the chosen alternative, given the
	// per-alt weights (already budget-filtered by the caller, §4.3).
	Choice(node *ruletree.Node, alternationIndex int, weights []float64) int
	// Quantify returns whether to take another repetition beyond the
	// minimum already satisfied.
	Quantify(node *ruletree.Node, quantIndex, currentCount, start, stop int, prob float64) bool
	// Charset picks one token from chars (e.g. a rune rendered as a
	// string, or a short literal) for a charset terminal.
	Charset(node *ruletree.Node, setIndex int, chars []string) string
}

// Default is the baseline Model: weighted random choice, Bernoulli
// quantifier continuation, and uniform charset selection, all driven
// by a per-instance *rand.Rand (§5: never a global/process-wide RNG).
type Default struct {
	Rand *rand.Rand
}

// New builds a Default model seeded deterministically from seed.
func New(seed int64) *Default {
	return &Default{Rand: rand.New(rand.NewSource(seed))}
}

// Choice implements Model. If every weight is zero, it returns the
// last index, matching §4.2's documented default.
func (m *Default) Choice(_ *ruletree.Node, _ int, weights []float64) int {
	if len(weights) == 0 {
		return 0
	}
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return len(weights) - 1
	}
	r := m.Rand.Float64() * sum
	var acc float64
	for i, w := range weights {
		acc += w
		if r < acc {
			return i
		}
	}
	return len(weights) - 1
}

// Quantify implements Model with a Bernoulli trial of probability prob.
func (m *Default) Quantify(_ *ruletree.Node, _, _, _, _ int, prob float64) bool {
	return m.Rand.Float64() < prob
}

// Charset implements Model with uniform selection over chars.
func (m *Default) Charset(_ *ruletree.Node, _ int, chars []string) string {
	if len(chars) == 0 {
		return ""
	}
	return chars[m.Rand.Intn(len(chars))]
}
