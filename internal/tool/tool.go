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

// Package tool implements the evolution engine (§4.5): the creator
// catalog (one generator, nine intra-tree mutators, two cross-tree
// recombiners), creator-set selection, the create_tree pipeline, and
// unique-output memoization.
package tool

import (
	"math/rand"

	log "github.com/golang/glog"

	"github.com/salikh/grafl/internal/gen"
	"github.com/salikh/grafl/internal/individual"
	"github.com/salikh/grafl/internal/model"
	"github.com/salikh/grafl/internal/ruletree"
)

// Kind discriminates the three creator sets (§4.5).
type Kind int

const (
	KindGenerator Kind = iota
	KindMutator
	KindRecombiner
)

// CreatorFunc is the shape every creator implements: given the
// recipient and/or donor individual (either may be nil depending on
// the creator's Kind), it returns a fresh tree on success. A nil
// return is CreatorFailure (§7): silent, the caller tries another
// creator. Creators never mutate recipient/donor in place — see the
// per-creator doc comments in creators.go for how each one clones
// before committing.
type CreatorFunc func(t *Tool, recipient, donor *individual.Individual) *ruletree.Node

// Creator names one entry of the catalog.
type Creator struct {
	Name string
	Kind Kind
	Fn   CreatorFunc
}

// Stats holds lightweight per-engine operational counters (not part of
// spec.md; see SPEC_FULL.md §4 "internal/tool.Stats").
type Stats struct {
	Attempted   map[string]int
	Succeeded   map[string]int
	MemoHits    int
	MemoMisses  int
	Relaxations int
}

func newStats() *Stats {
	return &Stats{Attempted: map[string]int{}, Succeeded: map[string]int{}}
}

// Tool is one evolution engine instance: single-threaded, single-seed,
// owning its own Memo (§5). Do not share a Tool across goroutines.
type Tool struct {
	Registry *gen.Registry
	Model    model.Model
	Rand     *rand.Rand
	Limit    ruletree.Size

	Allowlist map[string]bool
	Blocklist map[string]bool

	Memo *Memo
	// UniqueAttempts bounds the DuplicateTest retry loop (§7).
	UniqueAttempts int

	// Transformers is the ordered list of post-processing functions
	// create_tree's step 3 applies to the committed tree before
	// returning it (§4.5 "Apply the ordered list of transformer
	// functions to the tree").
	Transformers []func(*ruletree.Node) *ruletree.Node

	creators map[string]*Creator
	order    []string // registration order, for deterministic listing

	Stats *Stats
}

// New constructs a Tool with the full built-in creator catalog
// registered and enabled (no allowlist/blocklist).
func New(reg *gen.Registry, m model.Model, seed int64, limit ruletree.Size) *Tool {
	t := &Tool{
		Registry:       reg,
		Model:          m,
		Rand:           rand.New(rand.NewSource(seed)),
		Limit:          limit,
		Allowlist:      map[string]bool{},
		Blocklist:      map[string]bool{},
		Memo:           NewMemo(0),
		UniqueAttempts: 1,
		creators:       map[string]*Creator{},
		Stats:          newStats(),
	}
	registerBuiltinCreators(t)
	return t
}

func (t *Tool) register(c *Creator) {
	t.creators[c.Name] = c
	t.order = append(t.order, c.Name)
}

// enabled reports whether creator name is active under the current
// allowlist/blocklist (§4.5: "enabled = in allowlist (or allowlist
// empty) and not in blocklist").
func (t *Tool) enabled(name string) bool {
	if t.Blocklist[name] {
		return false
	}
	if len(t.Allowlist) == 0 {
		return true
	}
	return t.Allowlist[name]
}

// setOf returns the enabled creators of the given kinds, in
// registration order.
func (t *Tool) setOf(kinds ...Kind) []*Creator {
	want := map[Kind]bool{}
	for _, k := range kinds {
		want[k] = true
	}
	var out []*Creator
	for _, name := range t.order {
		c := t.creators[name]
		if want[c.Kind] && t.enabled(name) {
			out = append(out, c)
		}
	}
	return out
}

// Mode selects which creator set(s) CreateTree draws from.
type Mode int

const (
	ModeGenerate Mode = iota
	ModeMutate
	ModeRecombine
	ModeAny
)

// creatorSetFor resolves a Mode (and population availability, for
// ModeAny) to the concrete list of candidate creators (§4.5: "Sets are
// chosen per call ... depending on availability of a non-empty
// population").
func (t *Tool) creatorSetFor(mode Mode, havePopulation bool) []*Creator {
	switch mode {
	case ModeGenerate:
		return t.setOf(KindGenerator)
	case ModeMutate:
		return t.setOf(KindMutator)
	case ModeRecombine:
		if !havePopulation {
			return nil
		}
		return t.setOf(KindRecombiner)
	default: // ModeAny
		if !havePopulation {
			return t.setOf(KindGenerator)
		}
		return t.setOf(KindGenerator, KindMutator, KindRecombiner)
	}
}

// noteRelaxation is installed as gen.State.OnRelax by the creators that
// run the generator; Tool itself does not intercept glog output, so this
// helper just records the Stats counter increment used by CLI `stats`.
func (t *Tool) noteRelaxation() {
	t.Stats.Relaxations++
	log.V(2).Infof("tool: size relaxation #%d", t.Stats.Relaxations)
}
