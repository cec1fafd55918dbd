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
	"math/rand"

	log "github.com/golang/glog"

	"github.com/salikh/grafl/internal/config"
	"github.com/salikh/grafl/internal/gen"
	"github.com/salikh/grafl/internal/model"
	"github.com/salikh/grafl/internal/ruletree"
	"github.com/salikh/grafl/internal/tool"
)

// unrestrictedRecombiners are added to the Tool's blocklist by Init
// unless GRAFL_RANDOM_MUTATORS is set; the pool-backed ReplaceFromPool
// and InsertQuantifiedFromPool take their place.
var unrestrictedRecombiners = []string{"replace_node", "insert_quantified"}

// Init builds the Tool and SubTreePopulation an AFL++ shared library's
// afl_custom_init would construct once per process, configured from
// the GRAFL_* environment variables read by config.LoadAFLEnv (§6):
// GRAFL_MAX_DEPTH, GRAFL_MAX_TOKENS, GRAFL_MEMO_SIZE,
// GRAFL_RANDOM_MUTATORS, GRAFL_WEIGHTS and GRAFL_MAX_TRIM_STEPS. reg is
// the target's compiled grammar, fixed at build time rather than
// environment-driven. It returns the configured Tool, an empty
// SubTreePopulation ready for Intern calls, and the resolved
// environment for callers that also need MaxTrimSteps.
func Init(reg *gen.Registry, seed int64, hasher Hasher) (*tool.Tool, *SubTreePopulation, config.AFLEnv) {
	env := config.LoadAFLEnv(config.AFLEnv{
		Limit:    ruletree.Size{Depth: 20, Tokens: 200},
		MemoSize: 0,
	})

	m := model.New(seed)
	t := tool.New(reg, m, seed, env.Limit)
	t.Memo = tool.NewMemo(env.MemoSize)

	if !env.RandomMutators {
		for _, name := range unrestrictedRecombiners {
			t.Blocklist[name] = true
		}
	}

	if env.WeightsPath != "" {
		w, err := config.LoadWeightsFile(env.WeightsPath)
		if err != nil {
			log.Warningf("afl: loading GRAFL_WEIGHTS %q: %v", env.WeightsPath, err)
		} else {
			known := map[string]bool{}
			for name := range reg.Rules {
				known[name] = true
			}
			weighted := model.NewWeighted(m, map[model.AltKey]float64{}, map[model.QuantKey]float64{},
				func(n *ruletree.Node) string { return n.Name })
			w.Apply(weighted, known)
			t.Model = weighted
		}
	}

	pool := NewSubTreePopulation(rand.New(rand.NewSource(seed)), hasher)
	return t, pool, env
}
