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

// Package trim implements the two-layer delta-debugging reducer of
// §4.6: ConfigTrimmer minimizes a set of opaque unit names under an
// optional link map, and ContentTrimmer wraps it with a
// serializer/hasher pair so a host driver can reduce a derivation
// tree's quantified-node set under a black-box oracle.
package trim

import (
	"sort"
	"strings"
)

// Status is the small integer ConfigTrimmer.Trim/Post return to drive
// the host's trim loop (§4.6).
type Status int

const (
	// StatusContinue means candidate holds a config to test next.
	StatusContinue Status = iota
	// StatusDone means the trimmer has converged; Current() is final.
	StatusDone
	// StatusBoundReached means MaxSteps was exceeded (§7
	// TrimBoundReached: "commit best-so-far, end trimming").
	StatusBoundReached
)

type phase int

const (
	phaseSubset phase = iota
	phaseComplement
)

// ConfigTrimmer runs minimizing delta debugging (ddmin) over a set of
// unit names, honoring a directed link map: links[a] lists units whose
// removal is forced whenever a is removed (§4.6, Glossary "Link").
type ConfigTrimmer struct {
	links map[string][]string

	current     []string
	granularity int
	phase       phase
	chunkIdx    int
	pending     []string

	cache map[string]int // canonical key -> size, for "evict no smaller than accepted"

	steps    int
	MaxSteps int // 0 means unbounded
}

// NewConfigTrimmer constructs a trimmer starting from the full unit
// set, split factor 2.
func NewConfigTrimmer(units []string, links map[string][]string) *ConfigTrimmer {
	u := append([]string(nil), units...)
	sort.Strings(u)
	return &ConfigTrimmer{
		links:       links,
		current:     u,
		granularity: 2,
		cache:       map[string]int{},
	}
}

// Current returns the best configuration accepted so far.
func (c *ConfigTrimmer) Current() []string {
	return append([]string(nil), c.current...)
}

func canonical(kept []string) string {
	s := append([]string(nil), kept...)
	sort.Strings(s)
	return strings.Join(s, ",")
}

// close extends a removed-set to satisfy the link map's forced
// removals, then returns the corresponding kept-set (still relative to
// c.current), closed under links and restricted to c.current.
func (c *ConfigTrimmer) close(kept []string) []string {
	keptSet := map[string]bool{}
	for _, u := range kept {
		keptSet[u] = true
	}
	removed := map[string]bool{}
	for _, u := range c.current {
		if !keptSet[u] {
			removed[u] = true
		}
	}
	frontier := make([]string, 0, len(removed))
	for u := range removed {
		frontier = append(frontier, u)
	}
	for len(frontier) > 0 {
		var next []string
		for _, u := range frontier {
			for _, dep := range c.links[u] {
				if !removed[dep] {
					removed[dep] = true
					next = append(next, dep)
				}
			}
		}
		frontier = next
	}
	var out []string
	for _, u := range c.current {
		if !removed[u] {
			out = append(out, u)
		}
	}
	return out
}

func splitChunks(units []string, n int) [][]string {
	if n <= 0 || n > len(units) {
		n = len(units)
	}
	if n == 0 {
		return nil
	}
	chunks := make([][]string, n)
	base := len(units) / n
	extra := len(units) % n
	idx := 0
	for i := 0; i < n; i++ {
		size := base
		if i < extra {
			size++
		}
		chunks[i] = units[idx : idx+size]
		idx += size
	}
	return chunks
}

func complement(all, chunk []string) []string {
	chunkSet := map[string]bool{}
	for _, u := range chunk {
		chunkSet[u] = true
	}
	var out []string
	for _, u := range all {
		if !chunkSet[u] {
			out = append(out, u)
		}
	}
	return out
}

// Trim returns the next candidate configuration to test, or
// StatusDone once granularity exceeds len(current) with no further
// reduction possible, or StatusBoundReached once MaxSteps candidates
// have been proposed.
func (c *ConfigTrimmer) Trim() ([]string, Status) {
	for {
		if len(c.current) <= 1 || c.granularity > len(c.current) {
			return nil, StatusDone
		}
		chunks := splitChunks(c.current, c.granularity)
		if c.phase == phaseComplement && len(chunks) < 2 {
			// A single chunk's complement is the empty set; nothing left
			// to try at this granularity.
			c.granularity *= 2
			c.phase = phaseSubset
			c.chunkIdx = 0
			continue
		}
		if c.chunkIdx >= len(chunks) {
			if c.phase == phaseSubset {
				c.phase = phaseComplement
				c.chunkIdx = 0
				continue
			}
			c.granularity *= 2
			c.phase = phaseSubset
			c.chunkIdx = 0
			continue
		}
		chunk := chunks[c.chunkIdx]
		var kept []string
		if c.phase == phaseSubset {
			kept = chunk
		} else {
			kept = complement(c.current, chunk)
		}
		kept = c.close(kept)
		key := canonical(kept)
		if _, seen := c.cache[key]; seen {
			c.chunkIdx++
			continue
		}
		c.cache[key] = len(kept)
		c.pending = kept
		c.steps++
		if c.MaxSteps > 0 && c.steps > c.MaxSteps {
			return nil, StatusBoundReached
		}
		return append([]string(nil), kept...), StatusContinue
	}
}

// Post reports whether the last candidate from Trim still satisfied
// the target property. On success it rebases to the accepted
// configuration, evicts cached entries no smaller than it, resets the
// split factor to 2, and re-splits (§4.6). On failure it advances to
// the next chunk at the current granularity/phase.
func (c *ConfigTrimmer) Post(success bool) Status {
	if !success {
		c.chunkIdx++
		return StatusContinue
	}
	accepted := c.pending
	for key, size := range c.cache {
		if size >= len(accepted) {
			delete(c.cache, key)
		}
	}
	c.current = accepted
	c.granularity = 2
	c.phase = phaseSubset
	c.chunkIdx = 0
	if len(c.current) <= 1 {
		return StatusDone
	}
	return StatusContinue
}
