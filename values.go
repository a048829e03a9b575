// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"errors"
	"reflect"
)

// seenPointers tracks the pointers on the current serialization path.
type seenPointers map[typedPointer]struct{}

type typedPointer struct {
	typ reflect.Type
	ptr any // always stores unsafe.Pointer, but avoids depending on unsafe
}

// visit records v as being visited.
// It reports false if v is already on the path.
func (m *seenPointers) visit(v reflect.Value) bool {
	p := typedPointer{v.Type(), v.UnsafePointer()}
	if _, ok := (*m)[p]; ok {
		return false
	}
	if *m == nil {
		*m = make(seenPointers)
	}
	(*m)[p] = struct{}{}
	return true
}

func (m *seenPointers) leave(v reflect.Value) {
	p := typedPointer{v.Type(), v.UnsafePointer()}
	delete(*m, p)
}

// fieldByIndex returns the field of the struct v at index.
// Nil embedded pointers are allocated when mayAlloc is set,
// otherwise the zero Value is returned.
func fieldByIndex(v reflect.Value, index []int, mayAlloc bool) reflect.Value {
	for _, i := range index {
		v = indirect(v, mayAlloc)
		if !v.IsValid() {
			return v
		}
		v = v.Field(i) // addressable if struct value is addressable
	}
	return v
}

func indirect(v reflect.Value, mayAlloc bool) reflect.Value {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			if !mayAlloc || !v.CanSet() {
				return reflect.Value{}
			}
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem() // dereferenced pointer is always addressable
	}
	return v
}

// methodValue returns the method name of the struct v,
// searching the method set of *v when v is addressable.
func methodValue(v reflect.Value, name string) reflect.Value {
	if v.CanAddr() {
		if m := v.Addr().MethodByName(name); m.IsValid() {
			return m
		}
	}
	if m := v.MethodByName(name); m.IsValid() {
		return m
	}
	if v.Kind() != reflect.Pointer && v.Kind() != reflect.Interface {
		// Pointer receivers on an unaddressable value operate on a copy.
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p.MethodByName(name)
	}
	return reflect.Value{}
}

// call invokes fn, converting a panic or a trailing error result into err.
func call(fn reflect.Value, args []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	out = fn.Call(args)
	if n := len(out); n > 0 && fn.Type().Out(n-1) == errorType {
		if e := out[n-1]; !e.IsNil() {
			return nil, e.Interface().(error)
		}
		out = out[:n-1]
	}
	return out, nil
}

// isNil reports whether v holds no value.
func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// isEmpty reports whether v is nil or has zero length.
func isEmpty(v reflect.Value) bool {
	if isNil(v) {
		return true
	}
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Interface, reflect.Pointer:
		return isEmpty(v.Elem())
	}
	return false
}

// equalsDefault reports whether v holds the declared default value def.
func equalsDefault(v reflect.Value, def any) bool {
	if !v.IsValid() {
		return def == nil
	}
	dv := reflect.ValueOf(def)
	if !dv.IsValid() {
		return isNil(v)
	}
	if dv.Type() != v.Type() {
		if !dv.Type().ConvertibleTo(v.Type()) {
			return false
		}
		dv = dv.Convert(v.Type())
	}
	return reflect.DeepEqual(v.Interface(), dv.Interface())
}

// omitted reports whether the inclusion policy drops v.
func omitted(include IncludeType, v reflect.Value, hasDefault bool, def any) bool {
	switch include {
	case IncludeNonNull, IncludeNonAbsent:
		return isNil(v) || (include == IncludeNonAbsent && v.Kind() == reflect.Pointer && isNil(v.Elem()))
	case IncludeNonEmpty:
		return isEmpty(v) || (hasDefault && equalsDefault(v, def))
	case IncludeNonDefault:
		if hasDefault {
			return equalsDefault(v, def)
		}
		return isNil(v) || v.IsZero()
	}
	return false
}

var errNotAssignable = errors.New("value is not assignable")

// assign stores x into dst, converting between compatible types.
func assign(dst reflect.Value, x any) error {
	if x == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	xv := reflect.ValueOf(x)
	switch {
	case xv.Type().AssignableTo(dst.Type()):
		dst.Set(xv)
	case xv.Kind() == reflect.Pointer && xv.Type().Elem().AssignableTo(dst.Type()):
		if xv.IsNil() {
			dst.Set(reflect.Zero(dst.Type()))
		} else {
			dst.Set(xv.Elem())
		}
	case reflect.PointerTo(xv.Type()).AssignableTo(dst.Type()):
		p := reflect.New(xv.Type())
		p.Elem().Set(xv)
		dst.Set(p)
	case xv.Type().ConvertibleTo(dst.Type()) && convertibleKinds(xv.Kind(), dst.Kind()):
		dst.Set(xv.Convert(dst.Type()))
	default:
		return errNotAssignable
	}
	return nil
}

// convertibleKinds limits conversions to those that preserve meaning.
// Go permits converting integers to strings, which is not wanted here.
func convertibleKinds(from, to reflect.Kind) bool {
	if to == reflect.String {
		return from == reflect.String
	}
	return true
}

// viewIncludes reports whether the active view selects a member
// restricted to views.
func viewIncludes(active reflect.Type, views []reflect.Type) bool {
	for _, v := range views {
		v = normalizeClass(v)
		switch {
		case active == v:
			return true
		case v.Kind() == reflect.Interface:
			if active.Implements(v) || (active.Kind() != reflect.Interface && reflect.PointerTo(active).Implements(v)) {
				return true
			}
		case active.Kind() == reflect.Struct:
			if containsType(appendEmbedded(nil, active, map[reflect.Type]bool{active: true}), v) {
				return true
			}
		}
	}
	return false
}

// visible reports whether p participates under the active view.
func (ci *classInfo) visible(p *property, view reflect.Type, defaultInclusion bool) bool {
	if view == nil {
		return true
	}
	views := p.views
	if len(views) == 0 {
		views = ci.views
	}
	if len(views) == 0 {
		return defaultInclusion
	}
	return viewIncludes(view, views)
}
