// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type Person struct {
	Name  string
	Age   int
	Email string

	private int
}

type Address struct {
	Street string
	City   string
}

type Employee struct {
	Name    string
	Address Address
}

type Item struct {
	SKU string `json:"sku"`
}

type Order struct {
	Items []any
}

type Node struct {
	Name string
	Next *Node
}

type Animal interface {
	Sound() string
}

type Dog struct {
	Name string
}

func (Dog) Sound() string { return "woof" }

type Cat struct {
	Name  string
	Lives int
}

func (Cat) Sound() string { return "meow" }

type Zoo struct {
	Star    Animal
	Animals []Animal
}

type PublicView struct{}

type InternalView struct{ PublicView }

// newTestMapper returns a mapper over a fresh registry populated by define.
func newTestMapper(t *testing.T, define func(r *Registry), opts ...Option) *ObjectMapper {
	t.Helper()
	r := NewRegistry()
	if define != nil {
		define(r)
	}
	base := []Option{WithRegistry(r), WithLogger(zaptest.NewLogger(t))}
	return NewObjectMapper(append(base, opts...)...)
}

func mustStringify(t *testing.T, m *ObjectMapper, v any, opts ...Option) string {
	t.Helper()
	s, err := m.Stringify(v, opts...)
	require.NoError(t, err, "Stringify(%s)", spew.Sdump(v))
	return s
}

func defineAnimals(r *Registry, o TypeInfoOptions) {
	r.MustAnnotate(ClassOf[Animal](),
		JsonTypeInfo(o),
		JsonSubTypes(SubTypesOptions{Types: []SubType{SubTypeOf[Dog](""), SubTypeOf[Cat]("")}}))
}
