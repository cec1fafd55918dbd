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

package afl

import (
	"strconv"

	"github.com/salikh/grafl/internal/codec"
	"github.com/salikh/grafl/internal/ruletree"
	"github.com/salikh/grafl/internal/trim"
)

// quantifiedNode pairs a Quantified node with a structural path id
// (child-index chain from the tree root), stable across clones of the
// same unmutated tree.
type quantifiedNode struct {
	id   string
	node *ruletree.Node
}

func quantifiedNodes(root *ruletree.Node) []quantifiedNode {
	var out []quantifiedNode
	var walk func(n *ruletree.Node, path string)
	walk = func(n *ruletree.Node, path string) {
		if n.Kind == ruletree.KindQuantified {
			out = append(out, quantifiedNode{id: path, node: n})
		}
		for i, ch := range n.Children {
			walk(ch, path+"."+strconv.Itoa(i))
		}
	}
	walk(root, "root")
	return out
}

// Trim wires internal/trim's ContentTrimmer to the tree-shaped
// AFL++ `afl_custom_init_trim`/`_trim`/`_post_trim` trio (§4.7): the
// "set of quantified nodes" is the unit set, the link map is left
// empty (removing one repetition never forces removing another in
// this tree shape), and the serializer re-encodes a pruned clone of
// the original tree through the binary codec.
type Trim struct {
	ct         *trim.ContentTrimmer
	root       *ruletree.Node
	serializer trim.Serializer
}

// AFLCustomInitTrim corresponds to `afl_custom_init_trim`: it records
// every quantified node of root as a trimmable unit and prepares the
// ConfigTrimmer/ContentTrimmer pair driving the reduction.
func AFLCustomInitTrim(root *ruletree.Node, hasher trim.Hasher, maxSteps, cacheSize int) *Trim {
	qs := quantifiedNodes(root)
	units := make([]string, len(qs))
	for i, q := range qs {
		units[i] = q.id
	}
	serializer := func(kept []string) []byte {
		clone := ruletree.Clone(root)
		keptSet := map[string]bool{}
		for _, id := range kept {
			keptSet[id] = true
		}
		for _, q := range quantifiedNodes(clone) {
			if !keptSet[q.id] {
				ruletree.Remove(q.node)
			}
		}
		return codec.EncodeBinary(clone)
	}
	ct := trim.NewContentTrimmer(units, nil, serializer, hasher, cacheSize)
	ct.SetMaxSteps(maxSteps)
	return &Trim{ct: ct, root: root, serializer: serializer}
}

// CustomTrim corresponds to `afl_custom_trim`: it returns the next
// candidate buffer to test, or (nil, trim.StatusDone) once the
// reduction has converged.
func (t *Trim) CustomTrim() ([]byte, trim.Status) {
	return t.ct.TrimStep()
}

// CustomPostTrim corresponds to `afl_custom_post_trim`: the host
// reports whether the last CustomTrim candidate still reproduced.
func (t *Trim) CustomPostTrim(success bool) trim.Status {
	return t.ct.PostStep(success)
}

// Result decodes the best configuration found so far back into a
// tree, for the caller to commit once trimming ends.
func (t *Trim) Result() (*ruletree.Node, error) {
	data := t.serializer(t.ct.Current())
	return codec.DecodeBinary(data)
}
