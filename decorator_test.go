// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecoratorDefaults(t *testing.T) {
	tests := []struct {
		name string
		d    Decorator
		kind MetaKind
		want any
	}{
		{"Include", JsonInclude(), KindInclude, IncludeOptions{Value: IncludeAlways}},
		{"IncludeExplicit", JsonInclude(IncludeOptions{Value: IncludeNonEmpty}), KindInclude, IncludeOptions{Value: IncludeNonEmpty}},
		{"TypeInfo", JsonTypeInfo(), KindTypeInfo, TypeInfoOptions{Property: "@type"}},
		{"TypeInfoWrapper", JsonTypeInfo(TypeInfoOptions{Include: AsWrapperArray}), KindTypeInfo, TypeInfoOptions{Include: AsWrapperArray, Property: "@type"}},
		{"IdentityInfo", JsonIdentityInfo(), KindIdentityInfo, IdentityInfoOptions{Property: "@id"}},
		{"ManagedReference", JsonManagedReference(), KindManagedReference, ReferenceOptions{Value: "defaultReference"}},
		{"BackReference", JsonBackReference(ReferenceOptions{Value: "owner"}), KindBackReference, ReferenceOptions{Value: "owner"}},
		{"Ignore", JsonIgnore(), KindIgnore, IgnoreOptions{}},
		{"IgnoreDisabled", JsonIgnore(IgnoreOptions{Disabled: true}), KindIgnore, IgnoreOptions{Disabled: true}},
		{"Property", JsonProperty(PropertyOptions{Value: "first_name"}), KindProperty, PropertyOptions{Value: "first_name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.d.Kind())
			assert.Equal(t, tt.want, tt.d.Options())
		})
	}
}

func TestMetaKindString(t *testing.T) {
	assert.Equal(t, "JsonAnyGetter", KindAnyGetter.String())
	assert.Equal(t, "JsonIdentityInfo", KindIdentityInfo.String())
	assert.Equal(t, "MetaKind(?)", MetaKind(-1).String())
}

func TestTargetString(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{ClassOf[Person](), "jackson.Person"},
		{ClassOf[*Person](), "jackson.Person"},
		{Class(personType), "jackson.Person"},
		{FieldOf[Person]("Name"), "jackson.Person.Name"},
		{AccessorOf[Thermometer]("Celsius"), "jackson.Thermometer.Celsius"},
		{ParamOf[Person](1), "jackson.Person.creator#1"},
		{Target{Kind: TargetMethod, Name: "X"}, ".X"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.target.String())
	}
	assert.Equal(t, "accessor", TargetAccessor.String())
	assert.Equal(t, "parameter", TargetParameter.String())
}
