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

package model

import (
	"reflect"

	log "github.com/golang/glog"
	"github.com/salikh/grafl/internal/ruletree"
)

// Dispatching wraps a default Model and routes Choice/Quantify/Charset
// to per-rule overrides by rule name, via reflect.Value method lookup.
// Overrides is typically a pointer to a struct with methods named
// Choice_<rule>, Quantify_<rule>, Charset_<rule>; a missing method
// falls back to Default.
type Dispatching struct {
	Default    Model
	Overrides  interface{}
	ruleNameOf func(*ruletree.Node) string

	v reflect.Value
}

// NewDispatching constructs a Dispatching model. overrides may be nil,
// in which case every call falls back to def.
func NewDispatching(def Model, overrides interface{}, ruleNameOf func(*ruletree.Node) string) *Dispatching {
	d := &Dispatching{Default: def, Overrides: overrides, ruleNameOf: ruleNameOf}
	if overrides != nil {
		d.v = reflect.ValueOf(overrides)
	}
	return d
}

func (d *Dispatching) method(prefix, rule string) (reflect.Value, bool) {
	if !d.v.IsValid() {
		return reflect.Value{}, false
	}
	m := d.v.MethodByName(prefix + "_" + rule)
	if !m.IsValid() {
		return reflect.Value{}, false
	}
	return m, true
}

// Choice implements Model.
func (d *Dispatching) Choice(node *ruletree.Node, alternationIndex int, weights []float64) int {
	rule := d.ruleNameOf(node)
	if m, ok := d.method("Choice", rule); ok {
		out := m.Call([]reflect.Value{reflect.ValueOf(node), reflect.ValueOf(alternationIndex), reflect.ValueOf(weights)})
		return int(out[0].Int())
	}
	return d.Default.Choice(node, alternationIndex, weights)
}

// Quantify implements Model.
func (d *Dispatching) Quantify(node *ruletree.Node, quantIndex, currentCount, start, stop int, prob float64) bool {
	rule := d.ruleNameOf(node)
	if m, ok := d.method("Quantify", rule); ok {
		out := m.Call([]reflect.Value{
			reflect.ValueOf(node), reflect.ValueOf(quantIndex), reflect.ValueOf(currentCount),
			reflect.ValueOf(start), reflect.ValueOf(stop), reflect.ValueOf(prob),
		})
		return out[0].Bool()
	}
	return d.Default.Quantify(node, quantIndex, currentCount, start, stop, prob)
}

// Charset implements Model.
func (d *Dispatching) Charset(node *ruletree.Node, setIndex int, chars []string) string {
	rule := d.ruleNameOf(node)
	if m, ok := d.method("Charset", rule); ok {
		out := m.Call([]reflect.Value{reflect.ValueOf(node), reflect.ValueOf(setIndex), reflect.ValueOf(chars)})
		return out[0].String()
	}
	log.V(5).Infof("model: no Charset override for rule %q, using default", rule)
	return d.Default.Charset(node, setIndex, chars)
}
