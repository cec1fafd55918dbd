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

package blackbox

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salikh/grafl/internal/grammar"
	"github.com/salikh/grafl/internal/individual"
	"github.com/salikh/grafl/internal/model"
	"github.com/salikh/grafl/internal/ruletree"
	"github.com/salikh/grafl/internal/tool"
)

func textSerializer(n *ruletree.Node) []byte {
	return []byte(ruletree.Text(n))
}

func TestCreateTestWritesToWriterWithoutOutDir(t *testing.T) {
	reg := grammar.ABC()
	tl := tool.New(reg, model.New(1), 1, ruletree.Size{Depth: 5, Tokens: 5})
	pop := individual.NewPopulation()
	var buf bytes.Buffer
	d := New(tl, pop, textSerializer)
	d.Writer = &buf
	path, err := d.CreateTest(0)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.NotEmpty(t, buf.String())
}

func TestCreateTestWritesFileAndPersists(t *testing.T) {
	reg := grammar.ABC()
	tl := tool.New(reg, model.New(2), 2, ruletree.Size{Depth: 5, Tokens: 5})
	pop := individual.NewPopulation()
	dir := t.TempDir()
	d := New(tl, pop, textSerializer)
	d.OutDir = dir
	d.Persist = true

	path, err := d.CreateTest(3)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "test-000003"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, 1, pop.Len())
}
