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

// Package codec implements the two tree wire formats of §6: a
// self-describing binary record format ("FlatBuffers-like", but not
// the real google/flatbuffers runtime — see DESIGN.md) and a JSON
// format under short field names. Both round-trip on every valid tree.
package codec

import "errors"

// ErrCorruptTree is returned by either codec's Decode when the input
// names an unknown node kind or is missing a field required for the
// kind it claims (§7 CorruptTree).
var ErrCorruptTree = errors.New("codec: corrupt tree")
