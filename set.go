// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import "reflect"

// Set is an unordered collection of distinct values.
// It is serialized as a JSON array.
type Set[T comparable] map[T]struct{}

// NewSet returns a set holding vs.
func NewSet[T comparable](vs ...T) Set[T] {
	s := make(Set[T], len(vs))
	for _, v := range vs {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v into s.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has reports whether v is in s.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

func (Set[T]) isJacksonSet() {}

type setMarker interface{ isJacksonSet() }

var setMarkerType = reflect.TypeOf((*setMarker)(nil)).Elem()

func isSetType(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem() == emptyStructTyp && t.Implements(setMarkerType)
}
