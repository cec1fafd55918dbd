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

// Package libfuzzer implements the §4.7 libFuzzer adapter contract:
// OneInput, CustomMutator and CustomCrossOver over the binary codec,
// sharing one Tool pipeline with the blackbox adapter.
package libfuzzer

import (
	"bytes"

	log "github.com/golang/glog"

	"github.com/salikh/grafl/internal/codec"
	"github.com/salikh/grafl/internal/individual"
	"github.com/salikh/grafl/internal/ruletree"
	"github.com/salikh/grafl/internal/tool"
)

// Driver is one libFuzzer adapter instance. It caches the (bytes, tree)
// pair of the last input seen by CustomMutator/CustomCrossOver to skip
// a redundant decode on repeated calls with the same buffer (§4.7).
type Driver struct {
	Tool *tool.Tool

	lastData []byte
	lastTree *ruletree.Node
}

// New constructs a Driver.
func New(t *tool.Tool) *Driver {
	return &Driver{Tool: t}
}

func (d *Driver) decode(data []byte) *ruletree.Node {
	if d.lastTree != nil && bytes.Equal(d.lastData, data) {
		return d.lastTree
	}
	tree, err := codec.DecodeBinary(data)
	if err != nil {
		log.V(2).Infof("libfuzzer: corrupt input (%v), synthesizing empty root", err)
		tree = ruletree.NewParserRule(ruletree.InvalidName)
	}
	d.lastData = append([]byte(nil), data...)
	d.lastTree = tree
	return tree
}

// OneInput decodes data, populating the last-input cache that
// CustomMutator/CustomCrossOver reuse; libFuzzer's harness contract
// only requires a 0 return on every input that didn't crash.
func (d *Driver) OneInput(data []byte) int32 {
	d.decode(data)
	return 0
}

// CustomMutator decodes data (or reuses the cached tree), mutates it
// through the shared Tool pipeline, re-encodes and truncates to
// maxLen, matching libFuzzer's custom_mutator contract.
func (d *Driver) CustomMutator(data []byte, maxLen int, seed int64) []byte {
	d.Tool.Rand.Seed(seed)
	tree := d.decode(data)
	ind := individual.New(tree)
	mutated := d.Tool.CreateUnique(tool.ModeMutate, ind, nil)
	if mutated == nil {
		mutated = tree
	}
	out := codec.EncodeBinary(mutated)
	if len(out) > maxLen {
		out = out[:maxLen]
	}
	d.lastData = append([]byte(nil), out...)
	d.lastTree = mutated
	return out
}

// CustomCrossOver decodes data1 and data2 as recipient and donor,
// recombines them through the shared Tool pipeline, re-encodes and
// truncates to maxLen, matching libFuzzer's custom_cross_over
// contract.
func (d *Driver) CustomCrossOver(data1, data2 []byte, maxLen int, seed int64) []byte {
	d.Tool.Rand.Seed(seed)
	recipient := individual.New(d.decode(data1))
	donorTree, err := codec.DecodeBinary(data2)
	if err != nil {
		donorTree = ruletree.NewParserRule(ruletree.InvalidName)
	}
	donor := individual.New(donorTree)
	node := d.Tool.CreateUnique(tool.ModeRecombine, recipient, donor)
	if node == nil {
		node = recipient.Root()
	}
	out := codec.EncodeBinary(node)
	if len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}
