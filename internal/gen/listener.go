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

package gen

import (
	"reflect"

	"github.com/salikh/grafl/internal/ruletree"
)

// DispatchingListener routes EnterRule/ExitRule to Enter<Name>/Exit<Name>
// methods on Target, looked up by the node's rule name via
// reflect.Value method lookup. A rule name with no matching method is
// silently skipped: this supplements §4.3's listener ordering contract
// with a concrete dispatch helper, it does not replace plain Listener
// implementations that want every callback.
type DispatchingListener struct {
	Target interface{}

	v reflect.Value
}

// NewDispatchingListener constructs a DispatchingListener over target.
func NewDispatchingListener(target interface{}) *DispatchingListener {
	return &DispatchingListener{Target: target, v: reflect.ValueOf(target)}
}

func (d *DispatchingListener) call(prefix string, node *ruletree.Node) {
	m := d.v.MethodByName(prefix + node.Name)
	if !m.IsValid() {
		return
	}
	m.Call([]reflect.Value{reflect.ValueOf(node)})
}

// EnterRule implements Listener.
func (d *DispatchingListener) EnterRule(node *ruletree.Node) {
	d.call("Enter", node)
}

// ExitRule implements Listener.
func (d *DispatchingListener) ExitRule(node *ruletree.Node) {
	d.call("Exit", node)
}

// FuncListener adapts two plain functions to the Listener interface,
// useful for ad-hoc tracing without defining a named type.
type FuncListener struct {
	Enter func(node *ruletree.Node)
	Exit  func(node *ruletree.Node)
}

// EnterRule implements Listener.
func (f FuncListener) EnterRule(node *ruletree.Node) {
	if f.Enter != nil {
		f.Enter(node)
	}
}

// ExitRule implements Listener.
func (f FuncListener) ExitRule(node *ruletree.Node) {
	if f.Exit != nil {
		f.Exit(node)
	}
}
