// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jsontree converts between JSON text and an ordered value tree.
//
// A tree node is one of:
//
//	nil, bool, string, json.Number, float64, int64,
//	[]any, *orderedmap.OrderedMap and json.RawMessage.
//
// Decode produces only nil, bool, string, json.Number, []any and
// *orderedmap.OrderedMap. Encode accepts every node kind, plus
// map[string]any whose entries are written in sorted key order.
package jsontree

import (
	"github.com/iancoleman/orderedmap"
)

// NewObject returns an empty object node.
func NewObject() *orderedmap.OrderedMap {
	return orderedmap.New()
}

// Without returns a copy of obj without key, preserving the order of the other entries.
func Without(obj *orderedmap.OrderedMap, key string) *orderedmap.OrderedMap {
	out := orderedmap.New()
	for _, k := range obj.Keys() {
		if k == key {
			continue
		}
		v, _ := obj.Get(k)
		out.Set(k, v)
	}
	return out
}

// Lookup returns the value of key in obj.
// It returns false if obj is not an object node or lacks key.
func Lookup(obj any, key string) (any, bool) {
	o, ok := obj.(*orderedmap.OrderedMap)
	if !ok {
		return nil, false
	}
	return o.Get(key)
}

// Kind describes the JSON kind of a node for error messages.
func Kind(node any) string {
	switch node.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case *orderedmap.OrderedMap, orderedmap.OrderedMap, map[string]any:
		return "object"
	default:
		if IsNumber(node) {
			return "number"
		}
		return "raw"
	}
}
