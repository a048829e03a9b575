// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"reflect"
	"slices"
	"strconv"

	"golang.org/x/xerrors"
)

// TargetKind is the shape of the thing a decorator is attached to.
type TargetKind int

const (
	TargetClass TargetKind = iota
	TargetField
	TargetAccessor
	TargetMethod
	TargetParameter
)

func (k TargetKind) String() string {
	switch k {
	case TargetClass:
		return "class"
	case TargetField:
		return "field"
	case TargetAccessor:
		return "accessor"
	case TargetMethod:
		return "method"
	case TargetParameter:
		return "parameter"
	}
	return "target(?)"
}

// Target identifies what a decorator is attached to.
type Target struct {
	Kind  TargetKind
	Class reflect.Type
	// Name is the field, accessor or method name.
	// An accessor named X is backed by methods X and SetX.
	Name string
	// Index is the creator parameter index.
	Index int
}

func (t Target) String() string {
	var name string
	if t.Class != nil {
		name = t.Class.String()
	}
	switch t.Kind {
	case TargetClass:
		return name
	case TargetParameter:
		return name + ".creator#" + strconv.Itoa(t.Index)
	default:
		return name + "." + t.Name
	}
}

func typeOf[T any]() reflect.Type {
	return normalizeClass(reflect.TypeOf((*T)(nil)).Elem())
}

// normalizeClass strips pointers from a class handle.
func normalizeClass(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// ClassOf targets the named type T. T may be an interface acting as a base class.
func ClassOf[T any]() Target { return Target{Kind: TargetClass, Class: typeOf[T]()} }

// Class targets t.
func Class(t reflect.Type) Target { return Target{Kind: TargetClass, Class: normalizeClass(t)} }

// FieldOf targets the exported field name of struct T.
func FieldOf[T any](name string) Target {
	return Target{Kind: TargetField, Class: typeOf[T](), Name: name}
}

// AccessorOf targets the accessor pair name (getter name) and SetName (setter) of T.
func AccessorOf[T any](name string) Target {
	return Target{Kind: TargetAccessor, Class: typeOf[T](), Name: name}
}

// MethodOf targets the method name of T.
func MethodOf[T any](name string) Target {
	return Target{Kind: TargetMethod, Class: typeOf[T](), Name: name}
}

// ParamOf targets the index-th parameter of T's creator.
func ParamOf[T any](index int) Target {
	return Target{Kind: TargetParameter, Class: typeOf[T](), Index: index}
}

// Decorator is a piece of metadata ready to be attached to a Target.
type Decorator struct {
	kind    MetaKind
	options any
	apply   func(r *Registry, t Target) error
}

// Kind reports the metadata kind the decorator records.
func (d Decorator) Kind() MetaKind { return d.kind }

// Options returns the normalized options of the decorator.
func (d Decorator) Options() any { return d.options }

// makeDecorator returns a decorator constructor for options of type O.
// The optional first argument of the constructor holds the options.
// The defaults function fills unset options before apply records them.
func makeDecorator[O any](kind MetaKind, defaults func(O) O, apply func(r *Registry, t Target, o O) error) func(...O) Decorator {
	return func(opts ...O) Decorator {
		var o O
		if len(opts) > 0 {
			o = opts[0]
		}
		if defaults != nil {
			o = defaults(o)
		}
		return Decorator{
			kind:    kind,
			options: o,
			apply:   func(r *Registry, t Target) error { return apply(r, t, o) },
		}
	}
}

// recordOn returns an apply function that records options on the
// registry slot matching the target shape, rejecting other shapes.
func recordOn[O any](kind MetaKind, shapes ...TargetKind) func(r *Registry, t Target, o O) error {
	return func(r *Registry, t Target, o O) error {
		if !slices.Contains(shapes, t.Kind) {
			return xerrors.Errorf("%v on %v %v: %w", kind, t.Kind, t, ErrInvalidTarget)
		}
		if err := r.checkTarget(t); err != nil {
			return err
		}
		return r.annotate(kind, t, o)
	}
}

// recordMember records a class level option whose behavior lives in a member.
func recordMember[O any](kind MetaKind, bind func(O, Target) O) func(r *Registry, t Target, o O) error {
	return func(r *Registry, t Target, o O) error {
		if t.Kind != TargetField && t.Kind != TargetMethod {
			return xerrors.Errorf("%v on %v %v: %w", kind, t.Kind, t, ErrInvalidTarget)
		}
		if err := r.checkTarget(t); err != nil {
			return err
		}
		return r.annotate(kind, Target{Kind: TargetClass, Class: t.Class}, bind(o, t))
	}
}

const defaultReferenceName = "defaultReference"

var (
	// JsonAnyGetter marks a map field or a method returning a map whose
	// entries are serialized as properties of the enclosing object.
	JsonAnyGetter = makeDecorator[AnyGetterOptions](KindAnyGetter, nil, recordMember(KindAnyGetter,
		func(o AnyGetterOptions, t Target) AnyGetterOptions { o.member = memberOf(t); return o }))

	// JsonAnySetter marks a map field or a method Set(key string, value V)
	// receiving input properties that do not map to any property.
	JsonAnySetter = makeDecorator[AnySetterOptions](KindAnySetter, nil, recordMember(KindAnySetter,
		func(o AnySetterOptions, t Target) AnySetterOptions { o.member = memberOf(t); return o }))

	// JsonManagedReference marks the forward side of a parent/child link.
	JsonManagedReference = makeDecorator(KindManagedReference, defaultReferenceOptions,
		recordOn[ReferenceOptions](KindManagedReference, TargetField, TargetAccessor))

	// JsonBackReference marks the back side of a parent/child link.
	// It is omitted when serializing and restored when deserializing.
	JsonBackReference = makeDecorator(KindBackReference, defaultReferenceOptions,
		recordOn[ReferenceOptions](KindBackReference, TargetField, TargetAccessor))

	// JsonCreator registers the function used to instantiate a class.
	JsonCreator = makeDecorator[CreatorOptions](KindCreator, nil, applyCreator)

	// JsonDeserialize overrides how a property or class is deserialized.
	JsonDeserialize = makeDecorator[DeserializeOptions](KindDeserialize, nil,
		recordOn[DeserializeOptions](KindDeserialize, TargetClass, TargetField, TargetAccessor, TargetParameter))

	// JsonSerialize overrides how a property or class is serialized.
	JsonSerialize = makeDecorator[SerializeOptions](KindSerialize, nil,
		recordOn[SerializeOptions](KindSerialize, TargetClass, TargetField, TargetAccessor))

	// JsonFormat controls the shape of dates, durations, numbers and strings.
	JsonFormat = makeDecorator[FormatOptions](KindFormat, nil,
		recordOn[FormatOptions](KindFormat, TargetField, TargetAccessor, TargetParameter))

	// JsonIgnore excludes a property from mapping.
	JsonIgnore = makeDecorator[IgnoreOptions](KindIgnore, nil,
		recordOn[IgnoreOptions](KindIgnore, TargetField, TargetAccessor))

	// JsonIgnoreProperties ignores properties of a class by logical name.
	JsonIgnoreProperties = makeDecorator[IgnorePropertiesOptions](KindIgnoreProperties, nil,
		recordOn[IgnorePropertiesOptions](KindIgnoreProperties, TargetClass))

	// JsonIgnoreType excludes every property whose type is the class.
	JsonIgnoreType = makeDecorator[IgnoreTypeOptions](KindIgnoreType, nil,
		recordOn[IgnoreTypeOptions](KindIgnoreType, TargetClass))

	// JsonInclude sets the inclusion policy of a property or class.
	JsonInclude = makeDecorator(KindInclude, defaultIncludeOptions,
		recordOn[IncludeOptions](KindInclude, TargetClass, TargetField, TargetAccessor))

	// JsonProperty declares a property and its logical name.
	JsonProperty = makeDecorator[PropertyOptions](KindProperty, nil,
		recordOn[PropertyOptions](KindProperty, TargetField, TargetAccessor, TargetParameter))

	// JsonPropertyOrder sets the order in which properties are serialized.
	JsonPropertyOrder = makeDecorator[PropertyOrderOptions](KindPropertyOrder, nil,
		recordOn[PropertyOrderOptions](KindPropertyOrder, TargetClass))

	// JsonRawValue embeds a string holding JSON text verbatim.
	JsonRawValue = makeDecorator[RawValueOptions](KindRawValue, nil,
		recordOn[RawValueOptions](KindRawValue, TargetField, TargetAccessor))

	// JsonRootName names the wrapper object used by WrapRootValue.
	JsonRootName = makeDecorator[RootNameOptions](KindRootName, nil,
		recordOn[RootNameOptions](KindRootName, TargetClass))

	// JsonSubTypes lists the subtypes of a polymorphic base class.
	JsonSubTypes = makeDecorator[SubTypesOptions](KindSubTypes, nil,
		recordOn[SubTypesOptions](KindSubTypes, TargetClass))

	// JsonTypeInfo enables polymorphic type handling for a base class.
	JsonTypeInfo = makeDecorator(KindTypeInfo, defaultTypeInfoOptions,
		recordOn[TypeInfoOptions](KindTypeInfo, TargetClass))

	// JsonTypeName sets the logical type name of a subtype.
	JsonTypeName = makeDecorator[TypeNameOptions](KindTypeName, nil,
		recordOn[TypeNameOptions](KindTypeName, TargetClass))

	// JsonValue marks the field or method whose value replaces the
	// whole instance when serializing.
	JsonValue = makeDecorator[ValueOptions](KindValue, nil, recordMember(KindValue,
		func(o ValueOptions, t Target) ValueOptions { o.member = memberOf(t); return o }))

	// JsonView restricts a property or class to the given views.
	JsonView = makeDecorator[ViewOptions](KindView, nil,
		recordOn[ViewOptions](KindView, TargetClass, TargetField, TargetAccessor))

	// JsonAlias accepts alternative names for a property when deserializing.
	JsonAlias = makeDecorator[AliasOptions](KindAlias, nil,
		recordOn[AliasOptions](KindAlias, TargetField, TargetAccessor, TargetParameter))

	// JsonClass declares the element types of a property.
	JsonClass = makeDecorator[ClassOptions](KindClass, nil,
		recordOn[ClassOptions](KindClass, TargetField, TargetAccessor, TargetParameter))

	// JsonUnwrapped flattens the properties of a nested object into its parent.
	JsonUnwrapped = makeDecorator[UnwrappedOptions](KindUnwrapped, nil,
		recordOn[UnwrappedOptions](KindUnwrapped, TargetField, TargetAccessor))

	// JsonIdentityInfo serializes repeated references to an instance as its object id.
	JsonIdentityInfo = makeDecorator(KindIdentityInfo, defaultIdentityInfoOptions,
		recordOn[IdentityInfoOptions](KindIdentityInfo, TargetClass))
)

func defaultReferenceOptions(o ReferenceOptions) ReferenceOptions {
	if o.Value == "" {
		o.Value = defaultReferenceName
	}
	return o
}

func defaultIncludeOptions(o IncludeOptions) IncludeOptions {
	if o.Value == IncludeUseDefaults {
		o.Value = IncludeAlways
	}
	return o
}

func defaultTypeInfoOptions(o TypeInfoOptions) TypeInfoOptions {
	if o.Property == "" {
		o.Property = "@type"
	}
	return o
}

func defaultIdentityInfoOptions(o IdentityInfoOptions) IdentityInfoOptions {
	if o.Property == "" {
		o.Property = "@id"
	}
	return o
}

func applyCreator(r *Registry, t Target, o CreatorOptions) error {
	if t.Kind != TargetClass {
		return xerrors.Errorf("%v on %v %v: %w", KindCreator, t.Kind, t, ErrInvalidTarget)
	}
	if err := r.checkTarget(t); err != nil {
		return err
	}
	if err := checkCreatorFunc(t.Class, o); err != nil {
		return err
	}
	return r.annotate(KindCreator, t, o)
}

// checkCreatorFunc reports whether fn constructs cls.
func checkCreatorFunc(cls reflect.Type, o CreatorOptions) error {
	ft := reflect.TypeOf(o.Func)
	if ft == nil || ft.Kind() != reflect.Func {
		return xerrors.Errorf("creator for %v: Func must be a function, got %T: %w", cls, o.Func, ErrInvalidTarget)
	}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return xerrors.Errorf("creator for %v: %v must return the class and an optional error: %w", cls, ft, ErrInvalidTarget)
	}
	if normalizeClass(ft.Out(0)) != cls {
		return xerrors.Errorf("creator for %v: %v returns %v: %w", cls, ft, ft.Out(0), ErrInvalidTarget)
	}
	if o.Mode == CreatorDelegating && ft.NumIn() != 1 {
		return xerrors.Errorf("delegating creator for %v must take exactly one argument: %w", cls, ErrInvalidTarget)
	}
	if len(o.Properties) > ft.NumIn() {
		return xerrors.Errorf("creator for %v names %d properties for %d parameters: %w", cls, len(o.Properties), ft.NumIn(), ErrInvalidTarget)
	}
	return nil
}

// memberRef locates the field or method carrying class level behavior.
type memberRef struct {
	name   string
	method bool
}

func memberOf(t Target) memberRef {
	return memberRef{name: t.Name, method: t.Kind == TargetMethod}
}

// Annotate attaches decorators to target.
func (r *Registry) Annotate(target Target, decorators ...Decorator) error {
	for _, d := range decorators {
		if d.apply == nil {
			return xerrors.Errorf("annotate %v: zero Decorator: %w", target, ErrInvalidTarget)
		}
		if err := d.apply(r, target); err != nil {
			return err
		}
	}
	return nil
}

// MustAnnotate is like Annotate but panics on error.
// It is intended for package initialization.
func (r *Registry) MustAnnotate(target Target, decorators ...Decorator) {
	if err := r.Annotate(target, decorators...); err != nil {
		panic(err)
	}
}

// Annotate attaches decorators to target in the DefaultRegistry.
func Annotate(target Target, decorators ...Decorator) error {
	return DefaultRegistry.Annotate(target, decorators...)
}

// MustAnnotate attaches decorators to target in the DefaultRegistry
// and panics on error.
func MustAnnotate(target Target, decorators ...Decorator) {
	DefaultRegistry.MustAnnotate(target, decorators...)
}

// ClassDef annotates the class T and its members fluently.
// The first error is retained and reported by Err.
type ClassDef[T any] struct {
	r   *Registry
	err error
}

// Define starts a ClassDef for T in r.
func Define[T any](r *Registry) *ClassDef[T] {
	return &ClassDef[T]{r: r}
}

func (c *ClassDef[T]) do(t Target, ds []Decorator) *ClassDef[T] {
	if c.err == nil {
		c.err = c.r.Annotate(t, ds...)
	}
	return c
}

// Class annotates T itself.
func (c *ClassDef[T]) Class(ds ...Decorator) *ClassDef[T] { return c.do(ClassOf[T](), ds) }

// Field annotates the field name.
func (c *ClassDef[T]) Field(name string, ds ...Decorator) *ClassDef[T] {
	return c.do(FieldOf[T](name), ds)
}

// Accessor annotates the accessor pair name.
func (c *ClassDef[T]) Accessor(name string, ds ...Decorator) *ClassDef[T] {
	return c.do(AccessorOf[T](name), ds)
}

// Method annotates the method name.
func (c *ClassDef[T]) Method(name string, ds ...Decorator) *ClassDef[T] {
	return c.do(MethodOf[T](name), ds)
}

// Param annotates the index-th creator parameter.
func (c *ClassDef[T]) Param(index int, ds ...Decorator) *ClassDef[T] {
	return c.do(ParamOf[T](index), ds)
}

// Err reports the first annotation error.
func (c *ClassDef[T]) Err() error { return c.err }

// checkTarget reports whether t names something that exists.
func (r *Registry) checkTarget(t Target) error {
	cls := t.Class
	if cls == nil {
		return xerrors.Errorf("annotate %v: nil class: %w", t, ErrInvalidTarget)
	}
	switch t.Kind {
	case TargetClass:
		if cls.Name() == "" {
			return xerrors.Errorf("annotate %v: class must be a named type: %w", t, ErrInvalidTarget)
		}
	case TargetField:
		if cls.Kind() != reflect.Struct {
			return xerrors.Errorf("annotate %v: not a struct: %w", t, ErrInvalidTarget)
		}
		sf, ok := cls.FieldByName(t.Name)
		if !ok || !sf.IsExported() {
			return xerrors.Errorf("annotate %v: no exported field %s: %w", t, t.Name, ErrInvalidTarget)
		}
	case TargetAccessor:
		if _, ok := methodByName(cls, t.Name); ok {
			return nil
		}
		if _, ok := methodByName(cls, "Set"+t.Name); ok {
			return nil
		}
		return xerrors.Errorf("annotate %v: no method %s or Set%s: %w", t, t.Name, t.Name, ErrInvalidTarget)
	case TargetMethod:
		if _, ok := methodByName(cls, t.Name); !ok {
			return xerrors.Errorf("annotate %v: no method %s: %w", t, t.Name, ErrInvalidTarget)
		}
	case TargetParameter:
		if t.Index < 0 {
			return xerrors.Errorf("annotate %v: negative parameter index: %w", t, ErrInvalidTarget)
		}
	default:
		return xerrors.Errorf("annotate %v: unknown target kind: %w", t, ErrInvalidTarget)
	}
	return nil
}

// methodByName looks name up in the method set of *cls (or cls for interfaces).
func methodByName(cls reflect.Type, name string) (reflect.Method, bool) {
	if cls.Kind() == reflect.Interface {
		return cls.MethodByName(name)
	}
	return reflect.PointerTo(cls).MethodByName(name)
}
