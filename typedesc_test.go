// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeDescriptorMaterialize(t *testing.T) {
	item := TypeFor[Item]()
	tests := []struct {
		name string
		in   TypeDescriptor
		want reflect.Type
	}{
		{"Zero", TypeDescriptor{}, anyType},
		{"Plain", TypeFor[Person](), personType},
		{"List", ListOf(item), reflect.TypeOf([]Item(nil))},
		{"NestedList", ListOf(ListOf(item)), reflect.TypeOf([][]Item(nil))},
		{"Map", MapOf(TypeFor[string](), item), reflect.TypeOf(map[string]Item(nil))},
		{"MapValueOnly", MapOf(TypeDescriptor{}, item), reflect.TypeOf(map[string]Item(nil))},
		{"InterfaceKeys", Describe(reflect.TypeOf(map[any]any(nil)), TypeFor[int](), item), reflect.TypeOf(map[int]Item(nil))},
		{"SetKeepsStorage", SetOf(item), setAnyType},
		{"Tuple", TupleOf(item, item), reflect.TypeOf([2]Item{})},
		{"MixedTuple", TupleOf(item, TypeFor[string]()), reflect.TypeOf([2]any{})},
		{"ConcreteSlice", TypeFor[[]string](item), reflect.TypeOf([]string(nil))},
		{"ParamsOnly", TypeDescriptor{Params: []TypeDescriptor{item}}, sliceAnyType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Materialize())
		})
	}
}

func TestTypeDescriptorString(t *testing.T) {
	tests := []struct {
		in   TypeDescriptor
		want string
	}{
		{TypeDescriptor{}, "<nil>"},
		{TypeFor[int](), "int"},
		{ListOf(TypeFor[Item]()), "[[]interface {} [jackson.Item]]"},
		{MapOf(TypeFor[string](), ListOf(TypeFor[Item]())), "[map[string]interface {} [string] [[[]interface {} [jackson.Item]]]]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())
	}
}

func TestTypeDescriptorAccessors(t *testing.T) {
	item, str := TypeFor[Item](), TypeFor[string]()

	m := MapOf(str, item)
	assert.Equal(t, str, m.key())
	assert.Equal(t, item, m.elem())

	l := ListOf(item)
	assert.Equal(t, item, l.elem())
	assert.True(t, l.key().IsZero())

	tup := TupleOf(item, str)
	assert.Equal(t, item, tup.at(0))
	assert.Equal(t, str, tup.at(1))
	assert.True(t, tup.at(2).IsZero())

	// A single parameter applies to every position.
	arr := Describe(reflect.TypeOf([3]any{}), item)
	assert.Equal(t, item, arr.at(2))

	assert.True(t, TypeDescriptor{}.IsZero())
	assert.False(t, TypeFor[int]().IsZero())
}
