// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"errors"
	"fmt"
	"reflect"
)

// Serializer is a custom serialization step that runs before the
// metadata driven serializer for every value visited.
//
// Mapper receives the property key (the array index in decimal for
// elements, "" for the root) and the current value, and returns the value
// to serialize instead. Returning ErrSkip leaves the value unchanged.
// Serializers run in ascending Order; later serializers observe the
// values returned by earlier ones.
type Serializer struct {
	Mapper func(key string, value any) (any, error)
	// Type limits the serializer to values of this type.
	// Interface types match every value implementing them.
	Type  reflect.Type
	Order int
}

// Deserializer is a custom deserialization step that runs on the JSON value
// tree before the metadata driven deserializer.
//
// Mapper receives the property key and the JSON node and returns the node
// (or an already typed value assignable to the destination) to continue
// with. Returning ErrSkip leaves the node unchanged.
type Deserializer struct {
	Mapper func(key string, node any) (any, error)
	// Type limits the deserializer to destinations of this type.
	Type  reflect.Type
	Order int
}

// matchesType reports whether a mapper limited to want applies to t.
func matchesType(want, t reflect.Type) bool {
	switch {
	case want == nil:
		return true
	case t == nil:
		return false
	case want == t || normalizeClass(want) == normalizeClass(t):
		return true
	case want.Kind() == reflect.Interface:
		return t.Implements(want) || (t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(want))
	}
	return false
}

// runDeserializers passes node through every deserializer applicable to
// the destination type t. It reports whether any deserializer ran.
func runDeserializers(ds []Deserializer, t reflect.Type, key string, node any) (any, bool, error) {
	var ran bool
	for _, d := range ds {
		if d.Mapper == nil || !matchesType(d.Type, t) {
			continue
		}
		out, err := callMapper(d.Mapper, key, node)
		switch {
		case errors.Is(err, ErrSkip):
			continue
		case err != nil:
			return nil, false, &MappingError{Kind: CreatorFailure, Type: t, Property: key, Err: err}
		}
		node, ran = out, true
	}
	return node, ran, nil
}

// callMapper invokes a Serializer or Deserializer mapper,
// converting a panic into an error.
func callMapper(fn func(string, any) (any, error), key string, in any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn(key, in)
}

// callUsing invokes a JsonSerialize or JsonDeserialize function,
// reporting whether it declined with ErrSkip.
func callUsing(fn func(any) (any, error), t reflect.Type, key string, in any) (out any, skipped bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &MappingError{Kind: CreatorFailure, Type: t, Property: key, Err: panicError(r)}
		}
	}()
	out, err = fn(in)
	switch {
	case errors.Is(err, ErrSkip):
		return in, true, nil
	case err != nil:
		return nil, false, &MappingError{Kind: CreatorFailure, Type: t, Property: key, Err: err}
	}
	return out, false, nil
}

// panicError converts a recovered panic value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
