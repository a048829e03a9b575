// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"reflect"

	"github.com/google/uuid"
)

// requireKeyedLiterals can be embedded in a struct to require keyed literals.
type requireKeyedLiterals struct{}

// MetaKind identifies the kind of metadata a decorator records.
type MetaKind int

const (
	KindAnyGetter MetaKind = iota
	KindAnySetter
	KindBackReference
	KindManagedReference
	KindCreator
	KindDeserialize
	KindSerialize
	KindFormat
	KindIgnore
	KindIgnoreProperties
	KindIgnoreType
	KindInclude
	KindProperty
	KindPropertyOrder
	KindRawValue
	KindRootName
	KindSubTypes
	KindTypeInfo
	KindTypeName
	KindValue
	KindView
	KindAlias
	KindClass
	KindUnwrapped
	KindIdentityInfo
)

var metaKindNames = [...]string{
	KindAnyGetter:        "JsonAnyGetter",
	KindAnySetter:        "JsonAnySetter",
	KindBackReference:    "JsonBackReference",
	KindManagedReference: "JsonManagedReference",
	KindCreator:          "JsonCreator",
	KindDeserialize:      "JsonDeserialize",
	KindSerialize:        "JsonSerialize",
	KindFormat:           "JsonFormat",
	KindIgnore:           "JsonIgnore",
	KindIgnoreProperties: "JsonIgnoreProperties",
	KindIgnoreType:       "JsonIgnoreType",
	KindInclude:          "JsonInclude",
	KindProperty:         "JsonProperty",
	KindPropertyOrder:    "JsonPropertyOrder",
	KindRawValue:         "JsonRawValue",
	KindRootName:         "JsonRootName",
	KindSubTypes:         "JsonSubTypes",
	KindTypeInfo:         "JsonTypeInfo",
	KindTypeName:         "JsonTypeName",
	KindValue:            "JsonValue",
	KindView:             "JsonView",
	KindAlias:            "JsonAlias",
	KindClass:            "JsonClass",
	KindUnwrapped:        "JsonUnwrapped",
	KindIdentityInfo:     "JsonIdentityInfo",
}

func (k MetaKind) String() string {
	if k >= 0 && int(k) < len(metaKindNames) {
		return metaKindNames[k]
	}
	return "MetaKind(?)"
}

// singleton reports whether a class may carry at most one record of kind k.
func (k MetaKind) singleton() bool {
	switch k {
	case KindAnyGetter, KindAnySetter, KindCreator, KindValue, KindIdentityInfo, KindTypeInfo:
		return true
	}
	return false
}

// PropertyAccess restricts the direction in which a property is mapped.
type PropertyAccess int

const (
	// AccessAuto derives access from the presence of a getter and setter.
	AccessAuto PropertyAccess = iota
	// AccessWriteOnly properties are only read from input.
	AccessWriteOnly
	// AccessReadOnly properties are only written to output.
	AccessReadOnly
	AccessReadWrite
)

// IncludeType selects which property values are serialized.
type IncludeType int

const (
	// IncludeUseDefaults defers to the class level policy.
	IncludeUseDefaults IncludeType = iota
	IncludeAlways
	// IncludeNonNull omits nil values.
	IncludeNonNull
	// IncludeNonAbsent omits nil values and nil or empty optional pointers.
	IncludeNonAbsent
	// IncludeNonEmpty omits nil values, empty strings, slices and maps.
	IncludeNonEmpty
	// IncludeNonDefault omits values equal to the declared default
	// or, without one, the zero value.
	IncludeNonDefault
)

// Shape is the JSON shape requested by JsonFormat.
type Shape int

const (
	ShapeAny Shape = iota
	ShapeString
	ShapeNumber
	ShapeNumberInt
	ShapeNumberFloat
	ShapeBoolean
	ShapeArray
	ShapeObject
)

// TypeInfoID selects what identifies a subtype in the JSON output.
type TypeInfoID int

const (
	// TypeIDName uses the subtype's logical name.
	TypeIDName TypeInfoID = iota
	// TypeIDClass uses the package qualified type name.
	TypeIDClass
	// TypeIDMinimalClass uses the type name relative to the base type's package.
	TypeIDMinimalClass
)

// TypeInfoAs selects where the type identifier is written.
type TypeInfoAs int

const (
	// AsProperty writes the identifier as a sibling property.
	AsProperty TypeInfoAs = iota
	// AsWrapperObject writes {identifier: value}.
	AsWrapperObject
	// AsWrapperArray writes [identifier, value].
	AsWrapperArray
	// AsExternalProperty writes the identifier next to the property
	// in the containing object.
	AsExternalProperty
)

// ObjectIDGenerator selects how object ids are produced.
type ObjectIDGenerator int

const (
	IntSequenceGenerator ObjectIDGenerator = iota
	// PropertyGenerator uses the value of the identity property itself.
	PropertyGenerator
	UUIDv1Generator
	UUIDv3Generator
	UUIDv4Generator
	UUIDv5Generator
	XIDGenerator
)

// CreatorMode selects how a creator receives its input.
type CreatorMode int

const (
	// CreatorProperties binds each parameter to a named property.
	CreatorProperties CreatorMode = iota
	// CreatorDelegating passes the whole input to the single parameter.
	CreatorDelegating
)

// AnyGetterOptions configures JsonAnyGetter.
type AnyGetterOptions struct {
	requireKeyedLiterals
	Disabled bool

	member memberRef
}

// AnySetterOptions configures JsonAnySetter.
type AnySetterOptions struct {
	requireKeyedLiterals
	Disabled bool

	member memberRef
}

// ReferenceOptions configures JsonManagedReference and JsonBackReference.
type ReferenceOptions struct {
	requireKeyedLiterals
	Disabled bool
	// Value is the link name pairing both sides. It defaults to "defaultReference".
	Value string
}

// CreatorOptions configures JsonCreator.
type CreatorOptions struct {
	requireKeyedLiterals
	Disabled bool
	// Func is a function returning T or *T, optionally followed by an error.
	Func any
	// Properties names the property bound to each parameter.
	Properties []string
	Mode       CreatorMode
}

// DeserializeOptions configures JsonDeserialize.
type DeserializeOptions struct {
	requireKeyedLiterals
	Disabled bool
	// Using converts the JSON value tree into a value assignable
	// to the property or class. Returning ErrSkip falls back to the default.
	Using func(node any) (any, error)
}

// SerializeOptions configures JsonSerialize.
type SerializeOptions struct {
	requireKeyedLiterals
	Disabled bool
	// Using converts the value into the value to serialize instead.
	// Returning ErrSkip falls back to the default.
	Using func(value any) (any, error)
}

// FormatOptions configures JsonFormat.
type FormatOptions struct {
	requireKeyedLiterals
	Disabled bool
	Shape    Shape
	// Pattern is a layout for times, a printf verb for numbers
	// or a Go duration unit such as "ms" for durations.
	Pattern string
	// Locale is a BCP 47 tag used to format numbers.
	Locale string
	// Timezone is an IANA time zone name used to format times.
	Timezone string
}

// IgnoreOptions configures JsonIgnore.
type IgnoreOptions struct {
	requireKeyedLiterals
	Disabled bool
}

// IgnorePropertiesOptions configures JsonIgnoreProperties.
type IgnorePropertiesOptions struct {
	requireKeyedLiterals
	Disabled bool
	// Value lists logical property names to ignore.
	Value []string
	// AllowGetters still serializes the ignored properties.
	AllowGetters bool
	// AllowSetters still deserializes the ignored properties.
	AllowSetters bool
	// IgnoreUnknown skips unknown input keys regardless of features.
	IgnoreUnknown bool
}

// IgnoreTypeOptions configures JsonIgnoreType.
type IgnoreTypeOptions struct {
	requireKeyedLiterals
	Disabled bool
}

// IncludeOptions configures JsonInclude.
type IncludeOptions struct {
	requireKeyedLiterals
	Disabled bool
	Value    IncludeType
	// Content applies to the entries of maps and any-getters.
	Content IncludeType
}

// PropertyOptions configures JsonProperty.
type PropertyOptions struct {
	requireKeyedLiterals
	Disabled bool
	// Value is the logical name. It defaults to DefaultName.
	Value string
	// DefaultName defaults to the json tag name or the lower camel case Go name.
	DefaultName string
	Access      PropertyAccess
	Required    bool
	// Default is assigned when the input lacks the property.
	Default any
	// Class describes the property's contents.
	Class func() TypeDescriptor
}

// PropertyOrderOptions configures JsonPropertyOrder.
type PropertyOrderOptions struct {
	requireKeyedLiterals
	Disabled bool
	// Value lists logical or in-memory names emitted first, in order.
	Value      []string
	Alphabetic bool
}

// RawValueOptions configures JsonRawValue.
type RawValueOptions struct {
	requireKeyedLiterals
	Disabled bool
}

// RootNameOptions configures JsonRootName.
type RootNameOptions struct {
	requireKeyedLiterals
	Disabled bool
	Value    string
}

// SubType names one entry of a JsonSubTypes roster.
type SubType struct {
	Class reflect.Type
	Name  string
}

// SubTypeOf returns the roster entry for T.
func SubTypeOf[T any](name string) SubType {
	return SubType{Class: reflect.TypeOf((*T)(nil)).Elem(), Name: name}
}

// SubTypesOptions configures JsonSubTypes.
type SubTypesOptions struct {
	requireKeyedLiterals
	Disabled bool
	Types    []SubType
}

// TypeInfoOptions configures JsonTypeInfo.
type TypeInfoOptions struct {
	requireKeyedLiterals
	Disabled bool
	Use      TypeInfoID
	Include  TypeInfoAs
	// Property is the discriminator key. It defaults to "@type".
	Property string
	// DefaultImpl is used when the discriminator is missing or unknown.
	DefaultImpl reflect.Type
}

// TypeNameOptions configures JsonTypeName.
type TypeNameOptions struct {
	requireKeyedLiterals
	Disabled bool
	Value    string
}

// ValueOptions configures JsonValue.
type ValueOptions struct {
	requireKeyedLiterals
	Disabled bool

	member memberRef
}

// ViewOptions configures JsonView.
type ViewOptions struct {
	requireKeyedLiterals
	Disabled bool
	Value    []reflect.Type
}

// AliasOptions configures JsonAlias.
type AliasOptions struct {
	requireKeyedLiterals
	Disabled bool
	Values   []string
}

// ClassOptions configures JsonClass.
type ClassOptions struct {
	requireKeyedLiterals
	Disabled bool
	Class    func() TypeDescriptor
}

// UnwrappedOptions configures JsonUnwrapped.
type UnwrappedOptions struct {
	requireKeyedLiterals
	Disabled bool
	Prefix   string
	Suffix   string
}

// IdentityInfoOptions configures JsonIdentityInfo.
type IdentityInfoOptions struct {
	requireKeyedLiterals
	Disabled  bool
	Generator ObjectIDGenerator
	// Property holds the object id. It defaults to "@id".
	Property string
	// Scope partitions ids. It defaults to the class name.
	Scope string
	// Func overrides Generator with a custom id function.
	Func func(obj any) any
	// Namespace and Name seed name based UUIDs (v3 and v5).
	Namespace uuid.UUID
	Name      string
}
