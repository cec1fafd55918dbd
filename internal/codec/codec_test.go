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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salikh/grafl/internal/ruletree"
)

func sampleTree() *ruletree.Node {
	root := ruletree.NewParserRule("start")
	q := ruletree.NewQuantifier(0, 1, ruletree.Unbounded)
	ruletree.InsertChild(root, 0, q)
	quantified := ruletree.NewQuantified()
	ruletree.InsertChild(q, 0, quantified)
	alt := ruletree.NewAlternative(2, 1)
	ruletree.InsertChild(quantified, 0, alt)
	ruletree.InsertChild(alt, 0, ruletree.NewLexerLeaf("A", "a", 1, 1, false))
	ruletree.InsertChild(root, 1, ruletree.NewLexerLeaf("EOF", "", 1, 0, true))
	return root
}

func TestBinaryRoundTrip(t *testing.T) {
	tree := sampleTree()
	data := EncodeBinary(tree)
	got, err := DecodeBinary(data)
	require.NoError(t, err)
	assert.True(t, ruletree.Equals(tree, got))
}

func TestJSONRoundTrip(t *testing.T) {
	tree := sampleTree()
	data, err := EncodeJSON(tree)
	require.NoError(t, err)
	got, err := DecodeJSON(data)
	require.NoError(t, err)
	assert.True(t, ruletree.Equals(tree, got))
}

func TestBinaryDecodeTruncatedIsCorrupt(t *testing.T) {
	tree := sampleTree()
	data := EncodeBinary(tree)
	_, err := DecodeBinary(data[:len(data)-3])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptTree))
}

func TestBinaryDecodeUnknownKindIsCorrupt(t *testing.T) {
	_, err := DecodeBinary([]byte{0xFF, 0, 0, 0, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptTree))
}

func TestJSONDecodeUnknownKindIsCorrupt(t *testing.T) {
	_, err := DecodeJSON([]byte(`{"t":"bogus"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptTree))
}

func TestJSONDecodeMalformedIsCorrupt(t *testing.T) {
	_, err := DecodeJSON([]byte(`{not json`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptTree))
}
