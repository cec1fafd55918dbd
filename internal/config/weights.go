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

// Package config loads the §6 weights file and the GRAFL_* environment
// variables the AFL++ adapter surface reads.
package config

import (
	"encoding/json"
	"io"
	"os"
	"strconv"

	log "github.com/golang/glog"

	"github.com/salikh/grafl/internal/model"
)

// Weights mirrors the §6 weights file shape:
//
//	{"alts": {rule: {alt_set: {alt: weight}}}, "quants": {rule: {quant: probability}}}
type Weights struct {
	Alts   map[string]map[string]map[string]float64 `json:"alts"`
	Quants map[string]map[string]float64            `json:"quants"`
}

// LoadWeights parses a weights file from r.
func LoadWeights(r io.Reader) (*Weights, error) {
	var w Weights
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return nil, err
	}
	return &w, nil
}

// LoadWeightsFile opens path and parses it as a weights file.
func LoadWeightsFile(path string) (*Weights, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadWeights(f)
}

// Apply copies w onto a model.Weighted, warning (not failing) on any
// rule/alt/quant name the registry doesn't know about — grammars and
// weight files are allowed to evolve independently (SPEC_FULL.md §4).
func (w *Weights) Apply(weighted *model.Weighted, knownRules map[string]bool) {
	for rule, altSets := range w.Alts {
		if !knownRules[rule] {
			log.Warningf("config: weights file names unknown rule %q in alts", rule)
		}
		for altSetStr, alts := range altSets {
			altSet, err := strconv.Atoi(altSetStr)
			if err != nil {
				log.Warningf("config: weights file has non-integer alt_set %q for rule %q", altSetStr, rule)
				continue
			}
			for altStr, weight := range alts {
				alt, err := strconv.Atoi(altStr)
				if err != nil {
					log.Warningf("config: weights file has non-integer alt %q for rule %q", altStr, rule)
					continue
				}
				weighted.AltMul[model.AltKey{Rule: rule, AltSet: altSet, Alt: alt}] = weight
			}
		}
	}
	for rule, quants := range w.Quants {
		if !knownRules[rule] {
			log.Warningf("config: weights file names unknown rule %q in quants", rule)
		}
		for quantStr, prob := range quants {
			quant, err := strconv.Atoi(quantStr)
			if err != nil {
				log.Warningf("config: weights file has non-integer quant %q for rule %q", quantStr, rule)
				continue
			}
			weighted.QuantProb[model.QuantKey{Rule: rule, Quant: quant}] = prob
		}
	}
}
