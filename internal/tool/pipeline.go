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

package tool

import (
	log "github.com/golang/glog"

	"github.com/salikh/grafl/internal/individual"
	"github.com/salikh/grafl/internal/ruletree"
)

// CreateTree runs the create_tree pipeline (§4.5): draw the creator
// set for mode, try creators one at a time in random order without
// replacement until one succeeds, apply the ordered Transformers to
// its output, and fall back to the unmodified recipient if every
// creator in the set fails, including when the set is empty. It returns
// nil only when no creator produced a tree and there is no recipient
// (e.g. ModeRecombine with no population).
func (t *Tool) CreateTree(mode Mode, recipient, donor *individual.Individual) *ruletree.Node {
	set := t.creatorSetFor(mode, donor != nil)
	order := t.Rand.Perm(len(set))
	for _, idx := range order {
		c := set[idx]
		t.Stats.Attempted[c.Name]++
		node := c.Fn(t, recipient, donor)
		if node == nil {
			log.V(3).Infof("tool: creator %q declined", c.Name)
			continue
		}
		t.Stats.Succeeded[c.Name]++
		return t.applyTransformers(node)
	}
	log.V(2).Infof("tool: all %d creators in set failed, falling back to recipient unmodified", len(set))
	if recipient != nil {
		return t.applyTransformers(ruletree.Clone(recipient.Root()))
	}
	return nil
}

func (t *Tool) applyTransformers(node *ruletree.Node) *ruletree.Node {
	for _, xf := range t.Transformers {
		node = xf(node)
	}
	return node
}

// CreateUnique repeats CreateTree up to UniqueAttempts times, rejecting
// any output whose serialized text the Memo has already seen, and
// records the first unseen output before returning it (§4.5
// "DuplicateTest"; §7 DuplicateOutput retried up to UniqueAttempts
// times, then returned anyway on exhaustion). With Memo capacity 0,
// every output is accepted on the first attempt (§8 boundary
// behavior).
func (t *Tool) CreateUnique(mode Mode, recipient, donor *individual.Individual) *ruletree.Node {
	attempts := t.UniqueAttempts
	if attempts < 1 {
		attempts = 1
	}
	var last *ruletree.Node
	for i := 0; i < attempts; i++ {
		node := t.CreateTree(mode, recipient, donor)
		if node == nil {
			return nil
		}
		last = node
		key := []byte(ruletree.Text(node))
		if t.Memo.Seen(key) {
			t.Stats.MemoHits++
			continue
		}
		t.Stats.MemoMisses++
		t.Memo.Add(key)
		return node
	}
	log.V(2).Infof("tool: exhausted %d unique-output attempts, returning a duplicate", attempts)
	return last
}
