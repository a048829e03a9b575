// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"io"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/iancoleman/orderedmap"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/eran-medan/jackson-go/internal/jsontree"
)

// ObjectMapper converts between Go values and JSON using the metadata
// held by its Registry. An ObjectMapper is safe for concurrent use.
type ObjectMapper struct {
	opts options
}

// NewObjectMapper returns a mapper configured by opts.
// Without WithRegistry it uses DefaultRegistry.
func NewObjectMapper(opts ...Option) *ObjectMapper {
	m := &ObjectMapper{}
	m.opts.apply(opts)
	if m.opts.registry == nil {
		m.opts.registry = DefaultRegistry
	}
	if m.opts.logger == nil {
		m.opts.logger = zap.NewNop()
	}
	return m
}

// Registry returns the registry of m.
func (m *ObjectMapper) Registry() *Registry { return m.opts.registry }

var defaultMapper = sync.OnceValue(func() *ObjectMapper { return NewObjectMapper() })

// callOptions resolves the options of a single call and freezes the registry.
func (m *ObjectMapper) callOptions(opts []Option) *options {
	o := m.opts
	o.apply(opts)
	o.registry = m.opts.registry
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	o.sortChains()
	if o.registry.freeze() {
		o.logger.Debug("registry frozen")
	}
	return &o
}

// dumpTree logs the tree of a call at debug level.
func dumpTree(l *zap.Logger, msg string, tree any) {
	if ce := l.Check(zap.DebugLevel, msg); ce != nil {
		ce.Write(zap.String("tree", spew.Sdump(tree)))
	}
}

// Serialize converts v into a JSON tree of nil, bool, string, numbers,
// []any and *orderedmap.OrderedMap nodes.
func (m *ObjectMapper) Serialize(v any, opts ...Option) (tree any, err error) {
	o := m.callOptions(opts)
	defer func(start time.Time) { o.metrics.observe("serialize", start, err) }(time.Now())
	return m.serialize(o, v)
}

func (m *ObjectMapper) serialize(o *options, v any) (any, error) {
	s := newSerializeState(o)
	rv := reflect.ValueOf(v)
	tree, err := s.serialize("", rv, serializeHints{})
	if err != nil {
		return nil, err
	}
	if o.enabled(WrapRootValue) && rv.IsValid() {
		name, err := rootName(o.registry, rv.Type())
		if err != nil {
			return nil, err
		}
		root := orderedmap.New()
		root.Set(name, tree)
		tree = root
	}
	dumpTree(o.logger, "serialized", tree)
	return tree, nil
}

// rootName returns the name wrapping values of type t.
func rootName(r *Registry, t reflect.Type) (string, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		ci, err := r.classInfo(t)
		if err != nil {
			return "", err
		}
		if ci.rootName != "" {
			return ci.rootName, nil
		}
	}
	return t.Name(), nil
}

// Marshal serializes v as JSON text.
func (m *ObjectMapper) Marshal(v any, opts ...Option) (out []byte, err error) {
	o := m.callOptions(opts)
	defer func(start time.Time) { o.metrics.observe("serialize", start, err) }(time.Now())
	tree, err := m.serialize(o, v)
	if err != nil {
		return nil, err
	}
	return jsontree.Encode(tree)
}

// Stringify serializes v as a JSON string.
func (m *ObjectMapper) Stringify(v any, opts ...Option) (string, error) {
	b, err := m.Marshal(v, opts...)
	return string(b), err
}

// Write serializes v as JSON text into w.
// It does not terminate the output with a newline.
func (m *ObjectMapper) Write(w io.Writer, v any, opts ...Option) error {
	b, err := m.Marshal(v, opts...)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Deserialize converts a JSON tree into a value of the type described
// by WithMainCreator. Without a main creator the result is untyped.
func (m *ObjectMapper) Deserialize(tree any, opts ...Option) (v any, err error) {
	o := m.callOptions(opts)
	defer func(start time.Time) { o.metrics.observe("deserialize", start, err) }(time.Now())
	return m.deserializeRoot(o, tree)
}

func (m *ObjectMapper) deserializeRoot(o *options, tree any) (any, error) {
	dst := reflect.New(o.mainCreator.Materialize()).Elem()
	if err := m.deserialize(o, tree, dst); err != nil {
		return nil, err
	}
	return dst.Interface(), nil
}

// parseTree decodes JSON text, reporting malformed text as a TypeMismatch.
func parseTree(data []byte) (any, error) {
	tree, err := jsontree.Decode(data)
	if err != nil {
		return nil, wrapMappingError(TypeMismatch, nil, "", err)
	}
	return tree, nil
}

func (m *ObjectMapper) deserialize(o *options, tree any, dst reflect.Value) error {
	dumpTree(o.logger, "deserializing", tree)
	if o.enabled(UnwrapRootValue) {
		var err error
		if tree, err = unwrapRoot(o.registry, tree, dst.Type()); err != nil {
			return err
		}
	}
	d := newDeserializeState(o)
	if err := d.decode("", tree, dst, deserializeHints{class: o.mainCreator}); err != nil {
		return err
	}
	return d.finish()
}

// unwrapRoot returns the single member of the root wrapper object.
func unwrapRoot(r *Registry, tree any, t reflect.Type) (any, error) {
	obj, ok := tree.(*orderedmap.OrderedMap)
	if !ok || len(obj.Keys()) != 1 {
		return nil, newMappingError(TypeMismatch, t, "", "root value must be an object with a single member, got "+jsonKind(tree))
	}
	key := obj.Keys()[0]
	if t.Kind() != reflect.Interface {
		want, err := rootName(r, t)
		if err != nil {
			return nil, err
		}
		if key != want {
			return nil, newMappingError(TypeMismatch, t, key, "root name "+strconv.Quote(key)+" does not match "+strconv.Quote(want))
		}
	}
	inner, _ := obj.Get(key)
	return inner, nil
}

// Parse deserializes JSON text.
func (m *ObjectMapper) Parse(text string, opts ...Option) (any, error) {
	return m.ParseBytes([]byte(text), opts...)
}

// ParseBytes deserializes JSON text.
func (m *ObjectMapper) ParseBytes(data []byte, opts ...Option) (v any, err error) {
	o := m.callOptions(opts)
	defer func(start time.Time) { o.metrics.observe("deserialize", start, err) }(time.Now())
	tree, err := parseTree(data)
	if err != nil {
		return nil, err
	}
	return m.deserializeRoot(o, tree)
}

// Read deserializes the JSON text read from r until io.EOF.
func (m *ObjectMapper) Read(r io.Reader, opts ...Option) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, xerrors.Errorf("jackson: read: %w", err)
	}
	return m.ParseBytes(data, opts...)
}

// ParseInto deserializes JSON text into the value pointed to by out,
// which must be a non-nil pointer. A main creator, if any, guides
// the decoding of interface typed values.
func (m *ObjectMapper) ParseInto(data []byte, out any, opts ...Option) (err error) {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return xerrors.Errorf("jackson: ParseInto requires a non-nil pointer, got %T", out)
	}
	o := m.callOptions(opts)
	defer func(start time.Time) { o.metrics.observe("deserialize", start, err) }(time.Now())
	tree, err := parseTree(data)
	if err != nil {
		return err
	}
	return m.deserialize(o, tree, rv.Elem())
}

// Unmarshal deserializes JSON text into a T using the default mapper.
func Unmarshal[T any](data []byte, opts ...Option) (T, error) {
	return UnmarshalWith[T](defaultMapper(), data, opts...)
}

// UnmarshalWith deserializes JSON text into a T using m.
func UnmarshalWith[T any](m *ObjectMapper, data []byte, opts ...Option) (T, error) {
	var v T
	err := m.ParseInto(data, &v, opts...)
	return v, err
}

// Marshal serializes v with the default mapper.
func Marshal(v any, opts ...Option) ([]byte, error) {
	return defaultMapper().Marshal(v, opts...)
}

// Stringify serializes v as a JSON string with the default mapper.
func Stringify(v any, opts ...Option) (string, error) {
	return defaultMapper().Stringify(v, opts...)
}

// Parse deserializes JSON text with the default mapper.
func Parse(text string, opts ...Option) (any, error) {
	return defaultMapper().Parse(text, opts...)
}
