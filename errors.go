// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"reflect"
	"strconv"
	"strings"
)

const errorPrefix = "jackson: "

// Error matches errors returned by this package according to errors.Is.
const Error = jacksonError("jackson error")

type jacksonError string

func (e jacksonError) Error() string        { return string(e) }
func (e jacksonError) Is(target error) bool { return e == target || target == Error }

var (
	// ErrSkip may be returned by a custom Serializer or Deserializer
	// to pass the value on to the next mapper in the chain.
	ErrSkip = jacksonError(errorPrefix + "skip mapper")

	// ErrRegistryFrozen is returned when metadata is written into a Registry
	// after it has been used by a mapping call.
	ErrRegistryFrozen = jacksonError(errorPrefix + "registry is frozen")

	// ErrInvalidTarget is returned when a decorator is applied to a target
	// shape it does not support.
	ErrInvalidTarget = jacksonError(errorPrefix + "invalid decoration target")
)

// ErrorKind classifies a MappingError.
// Each kind is itself an error usable as the target of errors.Is.
type ErrorKind int

const (
	_ ErrorKind = iota
	DuplicateDefinition
	UnknownProperty
	MissingRequired
	PolymorphismResolution
	ReferenceUnresolved
	Circularity
	TypeMismatch
	CreatorFailure
)

var errorKindNames = [...]string{
	DuplicateDefinition:    "duplicate definition",
	UnknownProperty:        "unknown property",
	MissingRequired:        "missing required property",
	PolymorphismResolution: "polymorphism resolution",
	ReferenceUnresolved:    "unresolved reference",
	Circularity:            "circular reference",
	TypeMismatch:           "type mismatch",
	CreatorFailure:         "creator failure",
}

func (k ErrorKind) String() string {
	if k > 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return "ErrorKind(" + strconv.Itoa(int(k)) + ")"
}

func (k ErrorKind) Error() string        { return errorPrefix + k.String() }
func (k ErrorKind) Is(target error) bool { return k == target || target == Error }

// metricLabel is the kind as used in metric labels.
func (k ErrorKind) metricLabel() string {
	return strings.ReplaceAll(k.String(), " ", "_")
}

// MappingError describes a failure to map between a Go value and
// a JSON value tree, or a conflict in the metadata that drives the mapping.
//
// The contents of this error as produced by this package may change over time.
type MappingError struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Type is the Go type being mapped. It may be nil if unknown.
	Type reflect.Type
	// Property is the in-memory or logical property name, if any.
	Property string
	// Pointer indicates that an error occurred within this specific JSON value
	// as indicated using the JSON Pointer notation (see RFC 6901).
	Pointer string
	// Err is the underlying cause, if any.
	Err error

	str string
}

func (e *MappingError) Error() string {
	var sb strings.Builder
	sb.WriteString(errorPrefix)
	sb.WriteString(e.Kind.String())
	if e.Type != nil {
		sb.WriteString(" for Go type ")
		sb.WriteString(e.Type.String())
	}
	if e.Property != "" {
		sb.WriteString(" property ")
		sb.WriteString(strconv.Quote(e.Property))
	}
	if e.Pointer != "" {
		sb.WriteString(" at ")
		sb.WriteString(strconv.Quote(e.Pointer))
	}
	if e.str != "" {
		sb.WriteString(": ")
		sb.WriteString(e.str)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *MappingError) Unwrap() error { return e.Err }

func (e *MappingError) Is(target error) bool {
	if k, ok := target.(ErrorKind); ok {
		return k == e.Kind
	}
	return e == target || target == Error
}

func newMappingError(kind ErrorKind, t reflect.Type, prop, msg string) *MappingError {
	return &MappingError{Kind: kind, Type: t, Property: prop, str: msg}
}

func wrapMappingError(kind ErrorKind, t reflect.Type, prop string, err error) *MappingError {
	return &MappingError{Kind: kind, Type: t, Property: prop, Err: err}
}

// appendPointerToken appends a reference token to a JSON pointer,
// escaping '~' and '/' per RFC 6901, section 3.
func appendPointerToken(ptr, tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	tok = strings.ReplaceAll(tok, "/", "~1")
	return ptr + "/" + tok
}
