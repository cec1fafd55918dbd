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

package tool

import "container/list"

// Memo is a bounded FIFO set of recently emitted outputs (§3, §4.5): a
// capacity of 0 disables deduplication outright (§8 boundary:
// "with memo_size = 0, the engine never rejects duplicates").
type Memo struct {
	capacity int
	order    *list.List
	index    map[string]*list.Element
}

// NewMemo constructs a Memo with the given capacity.
func NewMemo(capacity int) *Memo {
	return &Memo{capacity: capacity, order: list.New(), index: map[string]*list.Element{}}
}

// Seen reports whether data was already recorded.
func (m *Memo) Seen(data []byte) bool {
	if m.capacity <= 0 {
		return false
	}
	_, ok := m.index[string(data)]
	return ok
}

// Add records data, evicting the oldest entry if capacity is exceeded.
// A no-op when capacity is 0.
func (m *Memo) Add(data []byte) {
	if m.capacity <= 0 {
		return
	}
	key := string(data)
	if _, ok := m.index[key]; ok {
		return
	}
	el := m.order.PushBack(key)
	m.index[key] = el
	for m.order.Len() > m.capacity {
		oldest := m.order.Front()
		if oldest == nil {
			break
		}
		m.order.Remove(oldest)
		delete(m.index, oldest.Value.(string))
	}
}

// Len returns the number of entries currently recorded.
func (m *Memo) Len() int {
	return m.order.Len()
}
