// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"reflect"
	"strings"
)

var (
	anyType        = reflect.TypeOf((*any)(nil)).Elem()
	sliceAnyType   = reflect.TypeOf((*[]any)(nil)).Elem()
	mapStringAny   = reflect.TypeOf((*map[string]any)(nil)).Elem()
	setAnyType     = reflect.TypeOf((*Set[any])(nil)).Elem()
	errorType      = reflect.TypeOf((*error)(nil)).Elem()
	emptyStructTyp = reflect.TypeOf((*struct{})(nil)).Elem()
)

// TypeDescriptor describes a possibly parameterized type.
//
// Type is the outer type and Params describe its contents positionally:
// a map takes its key and value, a slice or Set takes its element,
// and an array takes one parameter per position
// (a single parameter applies to every position).
//
// The Go destination type always determines storage.
// Params guide the decoding of values whose static type is an interface.
type TypeDescriptor struct {
	Type   reflect.Type
	Params []TypeDescriptor
}

// TypeFor returns the descriptor of T with the given parameters.
func TypeFor[T any](params ...TypeDescriptor) TypeDescriptor {
	return TypeDescriptor{Type: reflect.TypeOf((*T)(nil)).Elem(), Params: params}
}

// Describe returns the descriptor of t with the given parameters.
func Describe(t reflect.Type, params ...TypeDescriptor) TypeDescriptor {
	return TypeDescriptor{Type: t, Params: params}
}

// ListOf describes a list whose elements are described by elem.
func ListOf(elem TypeDescriptor) TypeDescriptor {
	return Describe(sliceAnyType, elem)
}

// MapOf describes an object whose keys and values are described by key and value.
func MapOf(key, value TypeDescriptor) TypeDescriptor {
	return Describe(mapStringAny, key, value)
}

// SetOf describes a set whose elements are described by elem.
func SetOf(elem TypeDescriptor) TypeDescriptor {
	return Describe(setAnyType, elem)
}

// TupleOf describes a fixed length array with one descriptor per position.
func TupleOf(elems ...TypeDescriptor) TypeDescriptor {
	return Describe(reflect.ArrayOf(len(elems), anyType), elems...)
}

// IsZero reports whether d describes nothing.
func (d TypeDescriptor) IsZero() bool { return d.Type == nil && len(d.Params) == 0 }

// param returns the i-th parameter, if present.
func (d TypeDescriptor) param(i int) TypeDescriptor {
	if i >= 0 && i < len(d.Params) {
		return d.Params[i]
	}
	return TypeDescriptor{}
}

// elem returns the descriptor of the contents of a slice, array, set or map.
func (d TypeDescriptor) elem() TypeDescriptor {
	if d.Type != nil && d.Type.Kind() == reflect.Map && !isSetType(d.Type) {
		return d.param(1)
	}
	return d.param(0)
}

// key returns the descriptor of the keys of a map.
func (d TypeDescriptor) key() TypeDescriptor {
	if d.Type != nil && d.Type.Kind() == reflect.Map && !isSetType(d.Type) {
		return d.param(0)
	}
	return TypeDescriptor{}
}

// at returns the descriptor of the i-th position of a tuple.
func (d TypeDescriptor) at(i int) TypeDescriptor {
	if len(d.Params) == 1 {
		return d.Params[0]
	}
	return d.param(i)
}

// Materialize returns the concrete Go type denoted by d,
// replacing interface element types by the types of its parameters.
// Set types keep their storage type.
func (d TypeDescriptor) Materialize() reflect.Type {
	t := d.Type
	if t == nil {
		if len(d.Params) > 0 {
			return sliceAnyType
		}
		return anyType
	}
	if len(d.Params) == 0 || isSetType(t) {
		return t
	}
	switch t.Kind() {
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Interface && t.Name() == "" {
			return reflect.SliceOf(d.elem().Materialize())
		}
	case reflect.Map:
		if t.Name() != "" {
			return t
		}
		k, v := t.Key(), t.Elem()
		if k.Kind() == reflect.Interface && d.key().Type != nil {
			if mk := d.key().Materialize(); mk.Comparable() {
				k = mk
			}
		}
		if v.Kind() == reflect.Interface && !d.elem().IsZero() {
			v = d.elem().Materialize()
		}
		return reflect.MapOf(k, v)
	case reflect.Array:
		if t.Elem().Kind() != reflect.Interface || t.Name() != "" {
			return t
		}
		var et reflect.Type
		for i := 0; i < t.Len(); i++ {
			pt := d.at(i).Materialize()
			if et != nil && et != pt {
				return t
			}
			et = pt
		}
		if et != nil {
			return reflect.ArrayOf(t.Len(), et)
		}
	}
	return t
}

// String formats d as a bracketed class list, for example "[[]interface {} [main.User]]".
func (d TypeDescriptor) String() string {
	var sb strings.Builder
	d.format(&sb)
	return sb.String()
}

func (d TypeDescriptor) format(sb *strings.Builder) {
	if len(d.Params) == 0 {
		if d.Type == nil {
			sb.WriteString("<nil>")
		} else {
			sb.WriteString(d.Type.String())
		}
		return
	}
	sb.WriteByte('[')
	if d.Type == nil {
		sb.WriteString("<nil>")
	} else {
		sb.WriteString(d.Type.String())
	}
	for _, p := range d.Params {
		sb.WriteByte(' ')
		sb.WriteByte('[')
		p.format(sb)
		sb.WriteByte(']')
	}
	sb.WriteByte(']')
}
