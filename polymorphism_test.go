// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Fish struct{ Name string }

func (Fish) Sound() string { return "..." }

func TestPolymorphismRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts TypeInfoOptions
		in   Animal
		want string
	}{{
		name: "Property",
		in:   Dog{Name: "Rex"},
		want: `{"@type":"Dog","name":"Rex"}`,
	}, {
		name: "CustomProperty",
		opts: TypeInfoOptions{Property: "kind"},
		in:   Cat{Name: "Tom", Lives: 9},
		want: `{"kind":"Cat","name":"Tom","lives":9}`,
	}, {
		name: "WrapperObject",
		opts: TypeInfoOptions{Include: AsWrapperObject},
		in:   Dog{Name: "Rex"},
		want: `{"Dog":{"name":"Rex"}}`,
	}, {
		name: "WrapperArray",
		opts: TypeInfoOptions{Include: AsWrapperArray},
		in:   Dog{Name: "Rex"},
		want: `["Dog",{"name":"Rex"}]`,
	}, {
		name: "ClassID",
		opts: TypeInfoOptions{Use: TypeIDClass},
		in:   Dog{Name: "Rex"},
		want: `{"@type":"` + qualifiedName(reflect.TypeOf(Dog{})) + `","name":"Rex"}`,
	}, {
		name: "MinimalClassID",
		opts: TypeInfoOptions{Use: TypeIDMinimalClass},
		in:   Cat{Name: "Tom"},
		want: `{"@type":".Cat","name":"Tom","lives":0}`,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMapper(t, func(r *Registry) { defineAnimals(r, tt.opts) })
			got := mustStringify(t, m, tt.in)
			assert.Equal(t, tt.want, got)

			back, err := m.Parse(got, WithMainCreator(TypeFor[Animal]()))
			require.NoError(t, err)
			assert.Equal(t, tt.in, back)
		})
	}
}

func TestPolymorphismExternalProperty(t *testing.T) {
	m := newTestMapper(t, func(r *Registry) {
		defineAnimals(r, TypeInfoOptions{Include: AsExternalProperty})
	})
	zoo := Zoo{Star: Cat{Name: "Tom", Lives: 9}, Animals: []Animal{Dog{Name: "Rex"}}}
	got := mustStringify(t, m, zoo)
	assert.Equal(t, `{"star":{"name":"Tom","lives":9},"@type":"Cat","animals":[{"@type":"Dog","name":"Rex"}]}`, got)

	back, err := UnmarshalWith[Zoo](m, []byte(got))
	require.NoError(t, err)
	assert.Equal(t, zoo, back)
}

func TestPolymorphismNested(t *testing.T) {
	m := newTestMapper(t, func(r *Registry) { defineAnimals(r, TypeInfoOptions{}) })
	in := `{"star":{"@type":"Cat","name":"Tom","lives":9},"animals":[{"@type":"Dog","name":"Rex"},null]}`
	got, err := UnmarshalWith[Zoo](m, []byte(in))
	require.NoError(t, err)
	assert.Equal(t, Zoo{Star: Cat{Name: "Tom", Lives: 9}, Animals: []Animal{Dog{Name: "Rex"}, nil}}, got)
}

func TestPolymorphismTypeName(t *testing.T) {
	m := newTestMapper(t, func(r *Registry) {
		r.MustAnnotate(ClassOf[Dog](), JsonTypeName(TypeNameOptions{Value: "doggy"}))
		r.MustAnnotate(ClassOf[Animal](),
			JsonTypeInfo(),
			JsonSubTypes(SubTypesOptions{Types: []SubType{SubTypeOf[Dog](""), SubTypeOf[Cat]("kitty")}}))
	})
	assert.Equal(t, `{"@type":"doggy","name":"Rex"}`, mustStringify(t, m, Dog{Name: "Rex"}))
	assert.Equal(t, `[{"@type":"kitty","name":"Tom","lives":1}]`, mustStringify(t, m, []Animal{Cat{Name: "Tom", Lives: 1}}))
}

func TestPolymorphismErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    TypeInfoOptions
		in      string
		want    Animal
		wantErr error
	}{{
		name:    "UnknownID",
		in:      `{"@type":"Bird","name":"x"}`,
		wantErr: PolymorphismResolution,
	}, {
		name:    "MissingID",
		in:      `{"name":"x"}`,
		wantErr: PolymorphismResolution,
	}, {
		name:    "NonStringID",
		in:      `{"@type":1}`,
		wantErr: PolymorphismResolution,
	}, {
		name:    "NotAnObject",
		in:      `"Dog"`,
		wantErr: PolymorphismResolution,
	}, {
		name:    "WrapperArrayShape",
		opts:    TypeInfoOptions{Include: AsWrapperArray},
		in:      `["Dog"]`,
		wantErr: PolymorphismResolution,
	}, {
		name: "DefaultImplForMissing",
		opts: TypeInfoOptions{DefaultImpl: reflect.TypeOf(Cat{})},
		in:   `{"name":"x"}`,
		want: Cat{Name: "x"},
	}, {
		name: "DefaultImplForUnknown",
		opts: TypeInfoOptions{DefaultImpl: reflect.TypeOf(Cat{})},
		in:   `{"@type":"Bird","name":"x"}`,
		want: Cat{Name: "x"},
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMapper(t, func(r *Registry) { defineAnimals(r, tt.opts) })
			got, err := m.Parse(tt.in, WithMainCreator(TypeFor[Animal]()))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolymorphismUnregisteredSubtype(t *testing.T) {
	m := newTestMapper(t, func(r *Registry) { defineAnimals(r, TypeInfoOptions{}) })
	_, err := m.Stringify(Fish{Name: "Nemo"})
	require.ErrorIs(t, err, PolymorphismResolution)
}

func TestPolymorphismStructBase(t *testing.T) {
	m := newTestMapper(t, func(r *Registry) {
		r.MustAnnotate(ClassOf[Address](), JsonTypeInfo(TypeInfoOptions{Property: "type"}))
	})
	assert.Equal(t, `{"type":"Address","street":"Main","city":""}`, mustStringify(t, m, Address{Street: "Main"}))

	got, err := UnmarshalWith[Address](m, []byte(`{"type":"Address","street":"Main"}`))
	require.NoError(t, err)
	assert.Equal(t, Address{Street: "Main"}, got)

	_, err = UnmarshalWith[Address](m, []byte(`{"type":"Office"}`))
	require.ErrorIs(t, err, PolymorphismResolution)
}

func TestPolymorphismRoster(t *testing.T) {
	tests := []struct {
		name   string
		define func(r *Registry) error
		want   error
	}{{
		name: "NotASubtype",
		define: func(r *Registry) error {
			return r.Annotate(ClassOf[Animal](),
				JsonTypeInfo(),
				JsonSubTypes(SubTypesOptions{Types: []SubType{SubTypeOf[Address]("")}}))
		},
		want: PolymorphismResolution,
	}, {
		name: "DuplicateID",
		define: func(r *Registry) error {
			return r.Annotate(ClassOf[Animal](),
				JsonTypeInfo(),
				JsonSubTypes(SubTypesOptions{Types: []SubType{SubTypeOf[Dog]("pet"), SubTypeOf[Cat]("pet")}}))
		},
		want: DuplicateDefinition,
	}, {
		name: "NilClass",
		define: func(r *Registry) error {
			return r.Annotate(ClassOf[Animal](),
				JsonTypeInfo(),
				JsonSubTypes(SubTypesOptions{Types: []SubType{{Name: "x"}}}))
		},
		want: ErrInvalidTarget,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			require.NoError(t, tt.define(r))
			assert.ErrorIs(t, r.Validate(), tt.want)
		})
	}
}
