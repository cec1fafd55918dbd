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

package trim

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitsOf(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a' + i))
	}
	return out
}

func contains(set []string, want map[string]bool) bool {
	if len(set) != len(want) {
		return false
	}
	for _, u := range set {
		if !want[u] {
			return false
		}
	}
	return true
}

// TestConfigTrimmerConvergesToWitness is the §8 "Trimmer monotonicity"
// scenario: an oracle that returns true only for configs containing a
// fixed witness subset W converges to exactly W.
func TestConfigTrimmerConvergesToWitness(t *testing.T) {
	units := unitsOf(10)
	witness := map[string]bool{"b": true, "e": true, "h": true}
	oracle := func(kept []string) bool {
		present := map[string]bool{}
		for _, u := range kept {
			present[u] = true
		}
		for w := range witness {
			if !present[w] {
				return false
			}
		}
		return true
	}

	ct := NewConfigTrimmer(units, nil)
	for {
		candidate, status := ct.Trim()
		if status != StatusContinue {
			break
		}
		ct.Post(oracle(candidate))
	}
	got := ct.Current()
	sort.Strings(got)
	assert.True(t, contains(got, witness), "converged to %v, want %v", got, witness)
}

func TestConfigTrimmerHonorsLinks(t *testing.T) {
	units := unitsOf(6)
	// Removing "a" forces removing "c": a witness-only oracle should
	// never strand "c" without "a".
	links := map[string][]string{"a": {"c"}}
	oracle := func(kept []string) bool {
		present := map[string]bool{}
		for _, u := range kept {
			present[u] = true
		}
		if present["c"] && !present["a"] {
			t.Fatalf("oracle saw c without a: %v", kept)
		}
		return present["a"] && present["c"]
	}
	ct := NewConfigTrimmer(units, links)
	for {
		candidate, status := ct.Trim()
		if status != StatusContinue {
			break
		}
		ct.Post(oracle(candidate))
	}
	got := ct.Current()
	assert.Contains(t, got, "a")
	assert.Contains(t, got, "c")
}

func TestConfigTrimmerBoundReached(t *testing.T) {
	units := unitsOf(20)
	ct := NewConfigTrimmer(units, nil)
	ct.MaxSteps = 2
	_, status1 := ct.Trim()
	require.Equal(t, StatusContinue, status1)
	ct.Post(false)
	_, status2 := ct.Trim()
	if status2 == StatusContinue {
		ct.Post(false)
		_, status2 = ct.Trim()
	}
	assert.Equal(t, StatusBoundReached, status2)
}

func TestContentTrimmerRunConvergesToWitness(t *testing.T) {
	units := unitsOf(8)
	witness := map[string]bool{"a": true, "b": true}
	calls := 0
	oracle := func(data []byte) bool {
		calls++
		s := string(data)
		for w := range witness {
			found := false
			for _, r := range s {
				if string(r) == w {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	serialize := func(kept []string) []byte {
		out := make([]byte, 0, len(kept))
		for _, u := range kept {
			out = append(out, u[0])
		}
		return out
	}
	hash := func(data []byte) uint64 {
		var h uint64 = 1469598103934665603
		for _, b := range data {
			h ^= uint64(b)
			h *= 1099511628211
		}
		return h
	}
	ct := NewContentTrimmer(units, nil, serialize, hash, 64)
	got := ct.Run(oracle)
	sort.Strings(got)
	assert.True(t, contains(got, witness), "converged to %v", got)
	assert.Greater(t, calls, 0)
}
