// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"encoding/json"
	"reflect"
	"sort"

	"github.com/iancoleman/orderedmap"
)

// identityProperty returns the name of the object id property.
func identityProperty(o *IdentityInfoOptions) string {
	if o.Property == "" {
		return "@id"
	}
	return o.Property
}

// typeProperty returns the name of the type id property.
func typeProperty(o *TypeInfoOptions) string {
	if o.Property == "" {
		return "@type"
	}
	return o.Property
}

// existingID returns the id node of v if v was already written
// in this call under identity info.
func (s *serializeState) existingID(v reflect.Value) (any, bool, error) {
	ci, err := s.reg.classInfo(v.Type())
	if err != nil {
		return nil, false, err
	}
	if ci.identity == nil {
		return nil, false, nil
	}
	k, ok := instanceKeyOf(identityScope(ci.identity, ci.identityBase), v)
	if !ok {
		return nil, false, nil
	}
	id, ok := s.ids.lookup(k)
	return id, ok, nil
}

func (s *serializeState) serializeStruct(key string, v reflect.Value, h serializeHints) (any, error) {
	t := v.Type()
	ci, err := s.reg.mappedClass(t)
	if err != nil {
		return nil, err
	}

	// A class level converter replaces the value.
	if ci.serializer != nil && !h.skipUsing && v.CanInterface() {
		out, skipped, err := callUsing(ci.serializer, t, key, v.Interface())
		if err != nil {
			return nil, err
		}
		if !skipped {
			rv := reflect.ValueOf(out)
			nh := serializeHints{format: h.format, external: h.external}
			nh.skipUsing = rv.IsValid() && normalizeClass(rv.Type()) == t
			return s.serializeValue(key, rv, nh)
		}
	}

	if ci.value != nil {
		rv, err := s.readMember(v, *ci.value)
		if err != nil {
			return nil, err
		}
		return s.serialize(key, rv, serializeHints{format: h.format})
	}

	// Object identity.
	var idName string
	var idValue any
	synthetic := false
	if info := ci.identity; info != nil {
		scope := identityScope(info, ci.identityBase)
		k, shareable := instanceKeyOf(scope, v)
		if shareable {
			if id, ok := s.ids.lookup(k); ok {
				return id, nil
			}
		}
		idName = identityProperty(info)
		if info.Generator == PropertyGenerator && info.Func == nil {
			p := ci.byName[idName]
			if p == nil || !p.readable() {
				return nil, newMappingError(TypeMismatch, t, idName, "identity property is not a readable property")
			}
			fv, err := s.readProperty(v, p)
			if err != nil {
				return nil, err
			}
			if idValue, err = s.serializeValue(idName, fv, serializeHints{format: p.format}); err != nil {
				return nil, err
			}
		} else {
			id, err := s.ids.generate(info, scope, v)
			if err != nil {
				return nil, err
			}
			idValue, synthetic = idNode(id), true
		}
		if shareable {
			s.ids.store(k, idValue)
		}
	}

	// Polymorphic type id.
	ti, err := s.reg.typeInfoOf(t)
	if err != nil {
		return nil, err
	}
	var typeID string
	if ti != nil {
		if typeID, err = ti.idOf(t); err != nil {
			return nil, err
		}
		if h.external != nil && ti.opts.Include == AsExternalProperty {
			h.external.property, h.external.id, h.external.set = typeProperty(&ti.opts), typeID, true
			ti = nil
		}
	}

	obj := orderedmap.New()
	if synthetic {
		obj.Set(idName, idValue)
	}
	for _, p := range s.orderedProps(ci) {
		if !s.emits(ci, p) || (synthetic && p.name == idName) {
			continue
		}
		fv, err := s.readProperty(v, p)
		if err != nil {
			return nil, err
		}
		if !fv.IsValid() {
			continue // behind a nil embedded pointer
		}
		include := p.include
		if include == IncludeUseDefaults {
			include = ci.include
		}
		if omitted(include, fv, p.hasDefault, p.defaultValue) {
			continue
		}
		if p.serializer != nil && fv.CanInterface() {
			out, skipped, err := callUsing(p.serializer, p.typ, p.name, fv.Interface())
			if err != nil {
				return nil, withPointer(err, p.name)
			}
			if !skipped {
				fv = reflect.ValueOf(out)
			}
		}
		if p.raw {
			node, err := rawValue(t, p, fv)
			if err != nil {
				return nil, err
			}
			obj.Set(p.name, node)
			continue
		}
		content := p.content
		if content == IncludeUseDefaults {
			content = ci.content
		}
		ext := new(externalTypeID)
		node, err := s.serialize(p.name, fv, serializeHints{
			format:   p.format,
			class:    p.descriptor(),
			content:  content,
			external: ext,
		})
		if err != nil {
			return nil, withPointer(err, p.name)
		}
		if p.unwrapped != nil {
			if err := splice(obj, node, p); err != nil {
				return nil, err
			}
			continue
		}
		obj.Set(p.name, node)
		if ext.set {
			obj.Set(ext.property, ext.id)
		}
	}

	if ci.anyGetter != nil {
		if err := s.serializeAnyGetter(obj, v, ci); err != nil {
			return nil, err
		}
	}

	if len(obj.Keys()) == 0 && len(ci.props) == 0 && ci.anyGetter == nil && s.opts.enabled(FailOnEmptyBeans) {
		return nil, newMappingError(TypeMismatch, t, key, "no serializable properties")
	}
	if ti != nil {
		return ti.wrap(typeID, obj), nil
	}
	return obj, nil
}

// emits reports whether p is written under the active options.
func (s *serializeState) emits(ci *classInfo, p *property) bool {
	switch {
	case p.ignored || !p.readable() || p.back != "":
		return false
	case ci.ignoredNames[p.name] && !ci.ignoreProps.AllowGetters:
		return false
	case !ci.visible(p, s.opts.view, s.opts.enabled(DefaultViewInclusion)):
		return false
	case p.typ != nil && s.reg.ignoresType(p.typ):
		return false
	}
	return true
}

// orderedProps lists the properties of ci in output order:
// those named by JsonPropertyOrder first, then the remainder,
// sorted when alphabetic ordering is requested.
func (s *serializeState) orderedProps(ci *classInfo) []*property {
	alphabetic := ci.order.Alphabetic || s.opts.enabled(SortPropertiesAlphabetically)
	if len(ci.order.Value) == 0 && !alphabetic {
		return ci.props
	}
	out := make([]*property, 0, len(ci.props))
	taken := make(map[*property]bool)
	for _, name := range ci.order.Value {
		p := ci.byName[name]
		if p == nil {
			p = ci.byGoName[name]
		}
		if p != nil && !taken[p] {
			taken[p] = true
			out = append(out, p)
		}
	}
	rest := make([]*property, 0, len(ci.props)-len(out))
	for _, p := range ci.props {
		if !taken[p] {
			rest = append(rest, p)
		}
	}
	if alphabetic {
		sort.SliceStable(rest, func(i, j int) bool { return rest[i].name < rest[j].name })
	}
	return append(out, rest...)
}

// readProperty returns the value of p in the struct v.
// The result is invalid if the field is behind a nil embedded pointer.
func (s *serializeState) readProperty(v reflect.Value, p *property) (reflect.Value, error) {
	if p.isField() {
		return fieldByIndex(v, p.index, false), nil
	}
	return s.readMember(v, memberRef{name: p.getter, method: true})
}

// readMember reads a field or calls a getter method of v.
func (s *serializeState) readMember(v reflect.Value, m memberRef) (reflect.Value, error) {
	if !m.method {
		return v.FieldByName(m.name), nil
	}
	fn := methodValue(v, m.name)
	if !fn.IsValid() {
		return reflect.Value{}, newMappingError(TypeMismatch, v.Type(), m.name, "no such method")
	}
	out, err := call(fn, nil)
	if err != nil {
		return reflect.Value{}, wrapMappingError(CreatorFailure, v.Type(), m.name, err)
	}
	if len(out) == 0 {
		return reflect.Value{}, nil
	}
	return out[0], nil
}

// rawValue returns the string held by p as pre-encoded JSON.
func rawValue(t reflect.Type, p *property, v reflect.Value) (any, error) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	var raw []byte
	switch {
	case v.Kind() == reflect.String:
		raw = []byte(v.String())
	case v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8:
		raw = v.Bytes()
	default:
		return nil, newMappingError(TypeMismatch, t, p.name, "raw value must be a string, got "+v.Type().String())
	}
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, newMappingError(TypeMismatch, t, p.name, "raw value is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

// splice copies the members of an unwrapped property into obj.
func splice(obj *orderedmap.OrderedMap, node any, p *property) error {
	if node == nil {
		return nil
	}
	inner, ok := node.(*orderedmap.OrderedMap)
	if !ok {
		return newMappingError(TypeMismatch, p.typ, p.name, "unwrapped value must serialize as an object")
	}
	for _, k := range inner.Keys() {
		val, _ := inner.Get(k)
		obj.Set(p.unwrapped.Prefix+k+p.unwrapped.Suffix, val)
	}
	return nil
}

// serializeAnyGetter appends the entries returned by the any-getter.
// Named properties take precedence.
func (s *serializeState) serializeAnyGetter(obj *orderedmap.OrderedMap, v reflect.Value, ci *classInfo) error {
	m, err := s.readMember(v, *ci.anyGetter)
	if err != nil {
		return err
	}
	for m.IsValid() && m.Kind() == reflect.Interface {
		m = m.Elem()
	}
	if !m.IsValid() || m.Kind() != reflect.Map || m.IsNil() {
		return nil
	}
	keys := m.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, k := range keys {
		name := k.String()
		if _, ok := obj.Get(name); ok {
			continue
		}
		val := m.MapIndex(k)
		if omitted(ci.content, val, false, nil) {
			continue
		}
		node, err := s.serialize(name, val, serializeHints{})
		if err != nil {
			return withPointer(err, name)
		}
		obj.Set(name, node)
	}
	return nil
}
