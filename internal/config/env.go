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

package config

import (
	"os"
	"strconv"

	"github.com/salikh/grafl/internal/ruletree"
)

// AFLEnv is the §6 "Environment variables (AFL++ adapter surface)"
// set, parsed once at adapter init.
type AFLEnv struct {
	Limit         ruletree.Size
	MemoSize      int
	RandomMutators bool
	WeightsPath   string
	MaxTrimSteps  int
}

// LoadAFLEnv reads GRAFL_MAX_DEPTH, GRAFL_MAX_TOKENS, GRAFL_MEMO_SIZE,
// GRAFL_RANDOM_MUTATORS, GRAFL_WEIGHTS and GRAFL_MAX_TRIM_STEPS,
// applying defaults for anything unset or unparsable.
func LoadAFLEnv(defaults AFLEnv) AFLEnv {
	env := defaults
	if v, ok := envInt("GRAFL_MAX_DEPTH"); ok {
		env.Limit.Depth = v
	}
	if v, ok := envInt("GRAFL_MAX_TOKENS"); ok {
		env.Limit.Tokens = v
	}
	if v, ok := envInt("GRAFL_MEMO_SIZE"); ok {
		env.MemoSize = v
	}
	if v, ok := envBool("GRAFL_RANDOM_MUTATORS"); ok {
		env.RandomMutators = v
	}
	if v, ok := os.LookupEnv("GRAFL_WEIGHTS"); ok && v != "" {
		env.WeightsPath = v
	}
	if v, ok := envInt("GRAFL_MAX_TRIM_STEPS"); ok {
		env.MaxTrimSteps = v
	}
	return env
}

func envInt(name string) (int, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(name string) (bool, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
