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

// Package blackbox implements the §4.7 blackbox adapter contract:
// create_test composes generation/mutation/recombination through one
// Tool, serializes the result, and either writes it into a population
// directory or prints it to stdout.
package blackbox

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/golang/glog"

	"github.com/salikh/grafl/internal/individual"
	"github.com/salikh/grafl/internal/ruletree"
	"github.com/salikh/grafl/internal/tool"
)

// ErrNoOutput is returned when the engine could not produce a tree at
// all (every creator in the resolved set failed and there was no
// recipient to fall back to).
var ErrNoOutput = errors.New("blackbox: no output produced")

// Serializer renders a tree to the bytes persisted or printed.
type Serializer func(*ruletree.Node) []byte

// Driver is one blackbox adapter instance.
type Driver struct {
	Tool       *tool.Tool
	Population *individual.Population
	Serializer Serializer
	Mode       tool.Mode

	// OutDir, if non-empty, receives one file per CreateTest call named
	// test-NNNNNN; otherwise output goes to Writer (stdout by default).
	OutDir string
	Writer io.Writer

	// Persist adds every produced tree back into Population, growing the
	// pool available to future recombine calls.
	Persist bool
}

// New constructs a Driver writing to stdout with Mode ModeAny.
func New(t *tool.Tool, pop *individual.Population, serializer Serializer) *Driver {
	return &Driver{Tool: t, Population: pop, Serializer: serializer, Mode: tool.ModeAny, Writer: os.Stdout}
}

// CreateTest runs one create_tree call and returns the path written
// (empty string if written to Writer instead of OutDir).
func (d *Driver) CreateTest(index int) (string, error) {
	var recipient, donor *individual.Individual
	if d.Population.Len() > 0 {
		recipient = d.Population.Random(d.Tool.Rand)
		donor = d.Population.Random(d.Tool.Rand)
	}
	node := d.Tool.CreateUnique(d.Mode, recipient, donor)
	if node == nil {
		return "", ErrNoOutput
	}
	data := d.Serializer(node)
	if d.Persist {
		d.Population.Add(individual.New(node))
	}
	if d.OutDir == "" {
		w := d.Writer
		if w == nil {
			w = os.Stdout
		}
		if _, err := w.Write(data); err != nil {
			return "", err
		}
		return "", nil
	}
	path := filepath.Join(d.OutDir, fmt.Sprintf("test-%06d", index))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	log.V(2).Infof("blackbox: wrote %s (%d bytes)", path, len(data))
	return path, nil
}
