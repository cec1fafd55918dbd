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

import "container/list"

// Oracle decides whether the tree serialized as data still satisfies
// whatever property the host driver is minimizing for (§4.6: "supplied
// by the host driver").
type Oracle func(data []byte) bool

// Serializer renders a kept unit set (e.g. the surviving quantified
// node identifiers) back into the bytes the host would test.
type Serializer func(kept []string) []byte

// Hasher reduces serialized bytes to a cache key.
type Hasher func(data []byte) uint64

// ContentTrimmer wraps a ConfigTrimmer with a serializer/hasher pair,
// caching oracle results by content hash so re-visiting a
// structurally-identical candidate never re-invokes the (expensive)
// oracle (§4.6).
type ContentTrimmer struct {
	cfg         *ConfigTrimmer
	serializer  Serializer
	hasher      Hasher
	cache       *hashCache
	pendingHash uint64
}

// NewContentTrimmer constructs a ContentTrimmer over units (e.g. one
// identifier per quantified node in a derivation tree), with a
// content-hash cache bounded to cacheSize entries (0 disables the
// cache, always invoking oracle).
func NewContentTrimmer(units []string, links map[string][]string, serializer Serializer, hasher Hasher, cacheSize int) *ContentTrimmer {
	return &ContentTrimmer{
		cfg:        NewConfigTrimmer(units, links),
		serializer: serializer,
		hasher:     hasher,
		cache:      newHashCache(cacheSize),
	}
}

// SetMaxSteps bounds the number of oracle-driving candidates before
// Run commits to the best configuration found so far.
func (ct *ContentTrimmer) SetMaxSteps(n int) {
	ct.cfg.MaxSteps = n
}

// Current returns the best kept-unit configuration found so far.
func (ct *ContentTrimmer) Current() []string {
	return ct.cfg.Current()
}

// TrimStep returns the next serialized candidate to test, skipping
// past any candidate whose content hash was already verdicted (the
// cached verdict is replayed to ConfigTrimmer automatically). This is
// the shape `afl_custom_trim` wraps directly: the host runs its own
// target against data and reports the result via PostStep.
func (ct *ContentTrimmer) TrimStep() ([]byte, Status) {
	for {
		candidate, status := ct.cfg.Trim()
		if status != StatusContinue {
			return nil, status
		}
		data := ct.serializer(candidate)
		h := ct.hasher(data)
		if verdict, ok := ct.cache.get(h); ok {
			ct.cfg.Post(verdict)
			continue
		}
		ct.pendingHash = h
		return data, StatusContinue
	}
}

// PostStep records success for the candidate last returned by
// TrimStep, both in the content-hash cache and in the wrapped
// ConfigTrimmer (`afl_custom_post_trim`'s counterpart).
func (ct *ContentTrimmer) PostStep(success bool) Status {
	ct.cache.put(ct.pendingHash, success)
	return ct.cfg.Post(success)
}

// Run drives the ConfigTrimmer to convergence (or to MaxSteps) against
// oracle in one call, and returns the final kept-unit configuration —
// the shape a blackbox/libFuzzer-style driver uses instead of AFL++'s
// step-wise trim/post_trim pair.
func (ct *ContentTrimmer) Run(oracle Oracle) []string {
	for {
		data, status := ct.TrimStep()
		if status != StatusContinue {
			return ct.cfg.Current()
		}
		ct.PostStep(oracle(data))
	}
}

// hashCache is a FIFO-bounded map[uint64]bool, the same eviction
// discipline as tool.Memo applied to oracle verdicts instead of raw
// output bytes.
type hashCache struct {
	capacity int
	order    *list.List
	index    map[uint64]*list.Element
	verdicts map[uint64]bool
}

type hashCacheEntry struct {
	key uint64
}

func newHashCache(capacity int) *hashCache {
	return &hashCache{
		capacity: capacity,
		order:    list.New(),
		index:    map[uint64]*list.Element{},
		verdicts: map[uint64]bool{},
	}
}

func (h *hashCache) get(key uint64) (bool, bool) {
	if h.capacity <= 0 {
		return false, false
	}
	v, ok := h.verdicts[key]
	return v, ok
}

func (h *hashCache) put(key uint64, verdict bool) {
	if h.capacity <= 0 {
		return
	}
	if _, ok := h.verdicts[key]; ok {
		h.verdicts[key] = verdict
		return
	}
	h.verdicts[key] = verdict
	el := h.order.PushBack(hashCacheEntry{key: key})
	h.index[key] = el
	for h.order.Len() > h.capacity {
		oldest := h.order.Front()
		if oldest == nil {
			break
		}
		h.order.Remove(oldest)
		k := oldest.Value.(hashCacheEntry).key
		delete(h.index, k)
		delete(h.verdicts, k)
	}
}
