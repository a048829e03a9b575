// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"bytes"
	"encoding"
	"encoding/base64"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/iancoleman/orderedmap"
	"go.uber.org/zap"

	"github.com/eran-medan/jackson-go/internal/jsontree"
)

var (
	rawMessageType     = reflect.TypeOf((*json.RawMessage)(nil)).Elem()
	numberType         = reflect.TypeOf((*json.Number)(nil)).Elem()
	orderedMapType     = reflect.TypeOf((*orderedmap.OrderedMap)(nil)).Elem()
	bytesType          = reflect.TypeOf((*[]byte)(nil)).Elem()
	textUnmarshalerTyp = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	jsonUnmarshalerTyp = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
)

// serializeState is the per call state of the serializer.
type serializeState struct {
	opts *options
	reg  *Registry

	seenPointers seenPointers
	ids          objectIDs
}

// serializeHints carries property level metadata down to a value.
type serializeHints struct {
	format  *FormatOptions
	class   TypeDescriptor
	content IncludeType

	// external receives the type id of a value whose type info
	// is written by the enclosing object.
	external *externalTypeID
	// skipUsing disables the class level JsonSerialize once,
	// so that a converter may return a value of its own type.
	skipUsing bool
}

type externalTypeID struct {
	property string
	id       string
	set      bool
}

func newSerializeState(o *options) *serializeState {
	return &serializeState{opts: o, reg: o.registry}
}

// serialize converts v into a tree node.
func (s *serializeState) serialize(key string, v reflect.Value, h serializeHints) (any, error) {
	if len(s.opts.serializers) > 0 && v.IsValid() && v.CanInterface() {
		in := v.Interface()
		out, changed, err := s.runSerializers(key, in)
		if err != nil {
			return nil, err
		}
		if changed {
			v = reflect.ValueOf(out)
		}
	}
	return s.serializeValue(key, v, h)
}

func (s *serializeState) runSerializers(key string, value any) (any, bool, error) {
	var changed bool
	for _, sr := range s.opts.serializers {
		if sr.Mapper == nil || !matchesType(sr.Type, reflect.TypeOf(value)) {
			continue
		}
		out, err := callMapper(sr.Mapper, key, value)
		switch {
		case errors.Is(err, ErrSkip):
			continue
		case err != nil:
			return nil, false, &MappingError{Kind: CreatorFailure, Type: reflect.TypeOf(value), Property: key, Err: err}
		}
		value, changed = out, true
	}
	return value, changed, nil
}

func (s *serializeState) serializeValue(key string, v reflect.Value, h serializeHints) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	t := v.Type()

	// Types with a fixed JSON representation.
	switch t {
	case rawMessageType:
		raw := v.Bytes()
		if len(raw) == 0 {
			return nil, nil
		}
		if !json.Valid(raw) {
			return nil, newMappingError(TypeMismatch, t, key, "invalid raw JSON value")
		}
		return json.RawMessage(bytes.Clone(raw)), nil
	case numberType:
		n := v.String()
		if n == "" {
			n = "0"
		}
		if !jsontree.IsValidNumber(n) {
			return nil, newMappingError(TypeMismatch, t, key, "invalid number "+strconv.Quote(n))
		}
		return json.Number(n), nil
	case timeType:
		return s.formatTime(v.Interface().(time.Time), h.format)
	case durationType:
		return s.formatDuration(time.Duration(v.Int()), h.format)
	case orderedMapType:
		om := v.Interface().(orderedmap.OrderedMap)
		return s.serializeOrderedMap(key, &om, h)
	}

	if t.Kind() != reflect.Interface && t.Kind() != reflect.Pointer && !s.reg.hasMeta(t) {
		if node, ok, err := s.serializeMarshaler(key, v); ok || err != nil {
			return node, err
		}
	}

	switch t.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return s.serializeValue(key, v.Elem(), h)
	case reflect.Pointer:
		if v.IsNil() {
			return nil, nil
		}
		if t.Elem() == orderedMapType {
			return s.serializeOrderedMap(key, v.Interface().(*orderedmap.OrderedMap), h)
		}
		if v.Elem().Kind() == reflect.Struct {
			if id, ok, err := s.existingID(v.Elem()); ok || err != nil {
				return id, err
			}
		}
		if !s.seenPointers.visit(v) {
			return s.selfReference(key, t)
		}
		defer s.seenPointers.leave(v)
		return s.serializeValue(key, v.Elem(), h)
	case reflect.Bool:
		return formatBool(v.Bool(), h.format), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if numberAsString(h.format) {
			return s.formatNumber(key, v.Int(), h.format)
		}
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if numberAsString(h.format) {
			return s.formatNumber(key, v.Uint(), h.format)
		}
		return v.Uint(), nil
	case reflect.Float32:
		if numberAsString(h.format) {
			return s.formatNumber(key, float32(v.Float()), h.format)
		}
		return float32(v.Float()), nil
	case reflect.Float64:
		if numberAsString(h.format) {
			return s.formatNumber(key, v.Float(), h.format)
		}
		return v.Float(), nil
	case reflect.String:
		return v.String(), nil
	case reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
		if t.Elem().Kind() == reflect.Uint8 && t.Elem().Name() == "uint8" {
			return base64.StdEncoding.EncodeToString(v.Bytes()), nil
		}
		if !s.seenPointers.visit(v) {
			return s.selfReference(key, t)
		}
		defer s.seenPointers.leave(v)
		return s.serializeArray(v, h)
	case reflect.Array:
		return s.serializeArray(v, h)
	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		if mt := h.class.Type; mt != nil && normalizeClass(mt).Kind() == reflect.Struct && isStringMap(t) {
			return s.serializeAsClass(key, v, h)
		}
		if !s.seenPointers.visit(v) {
			return s.selfReference(key, t)
		}
		defer s.seenPointers.leave(v)
		if isSetType(t) {
			return s.serializeSet(v, h)
		}
		return s.serializeMap(v, h)
	case reflect.Struct:
		return s.serializeStruct(key, v, h)
	}
	return nil, newMappingError(TypeMismatch, t, key, "unsupported Go kind "+t.Kind().String())
}

// serializeMarshaler handles types that encode themselves.
func (s *serializeState) serializeMarshaler(key string, v reflect.Value) (any, bool, error) {
	t := v.Type()
	mv := v
	if !t.Implements(jsonMarshalerType) && !t.Implements(textMarshalerType) {
		pt := reflect.PointerTo(t)
		if !pt.Implements(jsonMarshalerType) && !pt.Implements(textMarshalerType) {
			return nil, false, nil
		}
		if !v.CanAddr() {
			p := reflect.New(t)
			p.Elem().Set(v)
			mv = p
		} else {
			mv = v.Addr()
		}
	}
	switch m := mv.Interface().(type) {
	case json.Marshaler:
		b, err := m.MarshalJSON()
		if err != nil {
			return nil, true, &MappingError{Kind: CreatorFailure, Type: t, Property: key, Err: err}
		}
		if !json.Valid(b) {
			return nil, true, newMappingError(TypeMismatch, t, key, "MarshalJSON returned invalid JSON")
		}
		return json.RawMessage(b), true, nil
	case encoding.TextMarshaler:
		b, err := m.MarshalText()
		if err != nil {
			return nil, true, &MappingError{Kind: CreatorFailure, Type: t, Property: key, Err: err}
		}
		return string(b), true, nil
	}
	return nil, false, nil
}

func (s *serializeState) selfReference(key string, t reflect.Type) (any, error) {
	if s.opts.enabled(WriteSelfReferencesAsNull) {
		return nil, nil
	}
	if !s.opts.enabled(FailOnSelfReferences) {
		if s.opts.logger != nil {
			s.opts.logger.Debug("wrote self reference as null", zap.Stringer("type", t), zap.String("property", key))
		}
		return nil, nil
	}
	return nil, newMappingError(Circularity, t, key, "encountered a cycle without identity info or back reference")
}

func (s *serializeState) formatNumber(key string, v any, f *FormatOptions) (any, error) {
	str, err := formatNumber(v, f)
	if err != nil {
		return nil, newMappingError(TypeMismatch, reflect.TypeOf(v), key, err.Error())
	}
	return str, nil
}

func (s *serializeState) serializeArray(v reflect.Value, h serializeHints) (any, error) {
	n := v.Len()
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		eh := serializeHints{class: h.class.at(i), format: h.format}
		if v.Kind() == reflect.Slice {
			eh.class = h.class.elem()
		}
		key := strconv.Itoa(i)
		node, err := s.serialize(key, v.Index(i), eh)
		if err != nil {
			return nil, withPointer(err, key)
		}
		out = append(out, node)
	}
	if n == 1 && v.Kind() == reflect.Slice && s.opts.enabled(WriteSingleElemArraysUnwrapped) {
		return out[0], nil
	}
	return out, nil
}

func (s *serializeState) serializeSet(v reflect.Value, h serializeHints) (any, error) {
	type entry struct {
		node any
		text string
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		node, err := s.serialize("", iter.Key(), serializeHints{class: h.class.elem(), format: h.format})
		if err != nil {
			return nil, err
		}
		text, err := jsontree.Encode(node)
		if err != nil {
			return nil, newMappingError(TypeMismatch, v.Type(), "", err.Error())
		}
		entries = append(entries, entry{node, string(text)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].text < entries[j].text })
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e.node
	}
	return out, nil
}

func (s *serializeState) serializeMap(v reflect.Value, h serializeHints) (any, error) {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k, err := mapKeyString(iter.Key())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{k, iter.Value()})
	}
	if s.opts.enabled(OrderMapEntriesByKeys) {
		sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	}
	obj := orderedmap.New()
	for _, e := range entries {
		if omitted(h.content, e.val, false, nil) {
			continue
		}
		node, err := s.serialize(e.key, e.val, serializeHints{class: h.class.elem()})
		if err != nil {
			return nil, withPointer(err, e.key)
		}
		obj.Set(e.key, node)
	}
	return obj, nil
}

func (s *serializeState) serializeOrderedMap(key string, om *orderedmap.OrderedMap, h serializeHints) (any, error) {
	if h.class.Type != nil && normalizeClass(h.class.Type).Kind() == reflect.Struct {
		return s.serializeAsClass(key, reflect.ValueOf(om), h)
	}
	obj := orderedmap.New()
	for _, k := range om.Keys() {
		val, _ := om.Get(k)
		rv := reflect.ValueOf(val)
		if omitted(h.content, rv, false, nil) {
			continue
		}
		node, err := s.serialize(k, rv, serializeHints{class: h.class.elem()})
		if err != nil {
			return nil, withPointer(err, k)
		}
		obj.Set(k, node)
	}
	return obj, nil
}

// serializeAsClass treats a loosely typed object as an instance of the
// class described by h.class, so that the class metadata applies.
func (s *serializeState) serializeAsClass(key string, v reflect.Value, h serializeHints) (any, error) {
	tree, err := s.serializeValue(key, v, serializeHints{content: h.content})
	if err != nil {
		return nil, err
	}
	d := newDeserializeState(s.opts)
	dst := reflect.New(h.class.Materialize()).Elem()
	if err := d.decode(key, tree, dst, deserializeHints{class: h.class}); err != nil {
		return nil, err
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return s.serializeValue(key, dst, serializeHints{format: h.format, content: h.content})
}

// mapKeyString converts a map key to an object name.
func mapKeyString(k reflect.Value) (string, error) {
	if k.Kind() == reflect.Interface {
		if k.IsNil() {
			return "", newMappingError(TypeMismatch, k.Type(), "", "nil map key")
		}
		k = k.Elem()
	}
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok && k.Kind() != reflect.String {
		b, err := tm.MarshalText()
		if err != nil {
			return "", &MappingError{Kind: TypeMismatch, Type: k.Type(), Err: err}
		}
		return string(b), nil
	}
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(k.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(k.Float(), 'g', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(k.Bool()), nil
	}
	return "", newMappingError(TypeMismatch, k.Type(), "", "unsupported map key type")
}

// withPointer prefixes the JSON pointer of a mapping error with tok.
func withPointer(err error, tok string) error {
	var me *MappingError
	if errors.As(err, &me) {
		me.Pointer = appendPointerToken("", tok) + me.Pointer
	}
	return err
}
