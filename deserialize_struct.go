// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/iancoleman/orderedmap"
	"go.uber.org/zap"

	"github.com/eran-medan/jackson-go/internal/jsontree"
)

func (d *deserializeState) decodeStruct(key string, node any, dst reflect.Value, h deserializeHints) error {
	t := dst.Type()
	ci, err := d.reg.mappedClass(t)
	if err != nil {
		return err
	}

	// A class level converter replaces the default decoding.
	if ci.deserializer != nil && !h.skipUsing {
		out, skipped, err := callUsing(ci.deserializer, t, key, node)
		if err != nil {
			return err
		}
		if !skipped {
			if !isNode(out) {
				return d.assignResult(key, dst, out)
			}
			node = out
		}
	}

	// Polymorphic type id.
	if !h.typeHandled && !(ci.identity != nil && isScalar(node)) {
		ti, err := d.reg.typeInfoOf(t)
		if err != nil {
			return err
		}
		if ti != nil {
			id, present, rest, err := ti.unwrap(node, h.external)
			if err != nil {
				return err
			}
			ct, err := ti.resolve(id, present)
			if err != nil {
				return err
			}
			if ct != t {
				return newMappingError(PolymorphismResolution, t, key, "type id "+strconv.Quote(id)+" names "+ct.String()+", which cannot be stored in "+t.String())
			}
			node = rest
		}
	}

	// Object identity.
	var scope, idName string
	synthetic := false
	if info := ci.identity; info != nil {
		scope, idName = identityScope(info, ci.identityBase), identityProperty(info)
		synthetic = info.Generator != PropertyGenerator || info.Func != nil
		if isScalar(node) {
			return d.resolveReference(key, node, dst, []string{scope})
		}
	}

	if c := ci.creator; c != nil && c.mode == CreatorDelegating {
		return d.delegate(key, node, dst, ci)
	}
	obj, ok := asObject(node)
	if !ok {
		if m := ci.value; m != nil && !m.method {
			return d.decode(key, node, dst.FieldByName(m.name), deserializeHints{})
		}
		return d.mismatch(t, key, node)
	}

	seen := make(map[*property]bool)
	consumed := make(map[string]bool)

	var idVal any
	if idName != "" {
		if v, ok := obj.Get(idName); ok {
			idVal = v
			if synthetic && ci.byName[idName] == nil {
				consumed[idName] = true
			}
		}
	}

	// Type ids of properties using AsExternalProperty.
	external := make(map[*property]*string)
	for _, p := range ci.props {
		name, ok := d.externalTypeProperty(p)
		if !ok {
			continue
		}
		if v, ok := obj.Get(name); ok {
			if s, ok := v.(string); ok {
				external[p] = &s
				consumed[name] = true
			}
		}
	}

	if c := ci.creator; c != nil {
		if err := d.create(key, obj, dst, ci, seen, consumed, external); err != nil {
			return err
		}
	}
	if idVal != nil {
		if err := d.register(scope, idVal, dst); err != nil {
			return err
		}
	}

	groups := make(map[*property]*orderedmap.OrderedMap)
	for _, k := range obj.Keys() {
		if consumed[k] {
			continue
		}
		val, _ := obj.Get(k)
		p := d.lookupProperty(ci, k)
		if ci.ignoredNames[k] && (p == nil || !ci.ignoreProps.AllowSetters) {
			continue
		}
		if p == nil {
			if up, inner := d.unwrappedFor(ci, k); up != nil {
				g := groups[up]
				if g == nil {
					g = orderedmap.New()
					groups[up] = g
				}
				g.Set(inner, val)
				continue
			}
			if ok, err := d.anySet(dst, ci, k, val); ok || err != nil {
				if err != nil {
					return err
				}
				continue
			}
			if err := d.unknown(ci, k); err != nil {
				return err
			}
			continue
		}
		if !ci.visible(p, d.opts.view, d.opts.enabled(DeserializationDefaultViewInclusion)) {
			if err := d.unknown(ci, k); err != nil {
				return err
			}
			continue
		}
		seen[p] = true
		if p.ignored || !p.writable() || p.back != "" || (p.typ != nil && d.reg.ignoresType(p.typ)) {
			continue
		}
		if err := d.decodeProperty(dst, p, val, external[p]); err != nil {
			return err
		}
	}

	for _, p := range ci.props {
		if g := groups[p]; g != nil {
			seen[p] = true
			if err := d.decodeProperty(dst, p, g, nil); err != nil {
				return err
			}
		}
	}

	for _, p := range ci.props {
		if seen[p] || p.unwrapped != nil {
			continue
		}
		if p.hasDefault && p.writable() {
			if err := d.setDefault(dst, p); err != nil {
				return err
			}
			continue
		}
		if p.required {
			return newMappingError(MissingRequired, t, p.name, "")
		}
	}

	return d.setBackReferences(dst, ci)
}

// lookupProperty returns the property accepting the input key k.
func (d *deserializeState) lookupProperty(ci *classInfo, k string) *property {
	p := ci.byName[k]
	if p == nil && d.opts.enabled(AcceptCaseInsensitiveProperties) {
		p = ci.byFolded[foldString(k)]
	}
	if p != nil && p.unwrapped != nil {
		return nil
	}
	return p
}

// findKey returns the input key naming a creator parameter.
func (d *deserializeState) findKey(obj *orderedmap.OrderedMap, name string, aliases []string) (string, any, bool) {
	for _, k := range append([]string{name}, aliases...) {
		if v, ok := obj.Get(k); ok {
			return k, v, true
		}
	}
	if d.opts.enabled(AcceptCaseInsensitiveProperties) {
		folded := foldString(name)
		for _, k := range obj.Keys() {
			if foldString(k) == folded {
				v, _ := obj.Get(k)
				return k, v, true
			}
		}
	}
	return "", nil, false
}

// unwrappedFor returns the unwrapped property receiving the input key k
// and the key as seen by that property.
func (d *deserializeState) unwrappedFor(ci *classInfo, k string) (*property, string) {
	for _, p := range ci.props {
		u := p.unwrapped
		if u == nil || p.ignored || !p.writable() {
			continue
		}
		if len(k) < len(u.Prefix)+len(u.Suffix) || !strings.HasPrefix(k, u.Prefix) || !strings.HasSuffix(k, u.Suffix) {
			continue
		}
		inner := k[len(u.Prefix) : len(k)-len(u.Suffix)]
		if d.acceptsKey(normalizeClass(p.typ), inner) {
			return p, inner
		}
	}
	return nil, ""
}

// acceptsKey reports whether the struct type t maps the input key k.
func (d *deserializeState) acceptsKey(t reflect.Type, k string) bool {
	if t == nil || t.Kind() != reflect.Struct {
		return false
	}
	ci, err := d.reg.classInfo(t)
	if err != nil {
		return false
	}
	if d.lookupProperty(ci, k) != nil || ci.ignoredNames[k] {
		return true
	}
	up, _ := d.unwrappedFor(ci, k)
	return up != nil
}

// externalTypeProperty returns the key holding the type id of p
// when the type of p writes its type id next to the property.
func (d *deserializeState) externalTypeProperty(p *property) (string, bool) {
	t := p.typ
	if desc := p.descriptor(); desc.Type != nil {
		t = desc.Type
	}
	if t == nil {
		return "", false
	}
	t = normalizeClass(t)
	if t.Kind() != reflect.Struct && t.Kind() != reflect.Interface {
		return "", false
	}
	ti, err := d.reg.typeInfoOf(t)
	if err != nil || ti == nil || ti.opts.Include != AsExternalProperty {
		return "", false
	}
	return typeProperty(&ti.opts), true
}

func (d *deserializeState) unknown(ci *classInfo, k string) error {
	if ci.ignoreProps.IgnoreUnknown || !d.opts.enabled(FailOnUnknownProperties) {
		d.logger.Debug("ignored unknown property", zap.Stringer("type", ci.typ), zap.String("property", k))
		return nil
	}
	return withPointer(newMappingError(UnknownProperty, ci.typ, k, ""), k)
}

// register records dst under the object id node.
func (d *deserializeState) register(scope string, id any, dst reflect.Value) error {
	k, ok := idKey(scope, id)
	if !ok {
		return newMappingError(TypeMismatch, dst.Type(), "", "object id must be a string or number, got "+jsonKind(id))
	}
	if _, ok := d.refs.lookup(k); ok {
		return newMappingError(DuplicateDefinition, dst.Type(), "", "object id "+k[strings.IndexByte(k, 0)+2:]+" is already defined")
	}
	if dst.CanAddr() {
		d.refs.register(k, dst)
	}
	return nil
}

func (d *deserializeState) decodeProperty(dst reflect.Value, p *property, val any, ext *string) error {
	if p.raw && val != nil && normalizeClass(p.typ).Kind() == reflect.String {
		if _, ok := val.(string); !ok {
			text, err := jsontree.Encode(val)
			if err != nil {
				return withPointer(wrapMappingError(TypeMismatch, p.typ, p.name, err), p.name)
			}
			val = string(text)
		}
	}
	h := deserializeHints{
		format:   p.format,
		class:    p.descriptor(),
		external: ext,
		using:    p.deserializer,
	}
	if p.isField() {
		fv := fieldByIndex(dst, p.index, true)
		if !fv.IsValid() || !fv.CanSet() {
			return newMappingError(TypeMismatch, dst.Type(), p.name, "field cannot be set through a nil embedded pointer")
		}
		return d.decodeAt(p.name, val, fv, h)
	}
	fn := methodValue(dst, p.setter)
	arg := reflect.New(p.typ).Elem()
	before := d.refs.numPending()
	if err := d.decodeAt(p.name, val, arg, h); err != nil {
		return err
	}
	if _, err := call(fn, []reflect.Value{arg}); err != nil {
		return withPointer(wrapMappingError(CreatorFailure, dst.Type(), p.name, err), p.name)
	}
	if d.refs.numPending() > before {
		d.refs.after = append(d.refs.after, func() { call(fn, []reflect.Value{arg}) })
	}
	return nil
}

func (d *deserializeState) setDefault(dst reflect.Value, p *property) error {
	if p.isField() {
		fv := fieldByIndex(dst, p.index, true)
		if !fv.IsValid() || assign(fv, p.defaultValue) != nil {
			return newMappingError(TypeMismatch, dst.Type(), p.name, "default value is not assignable")
		}
		return nil
	}
	arg := reflect.New(p.typ).Elem()
	if assign(arg, p.defaultValue) != nil {
		return newMappingError(TypeMismatch, dst.Type(), p.name, "default value is not assignable")
	}
	if _, err := call(methodValue(dst, p.setter), []reflect.Value{arg}); err != nil {
		return wrapMappingError(CreatorFailure, dst.Type(), p.name, err)
	}
	return nil
}

// anySet passes an otherwise unmapped input key to the any-setter.
func (d *deserializeState) anySet(dst reflect.Value, ci *classInfo, k string, val any) (bool, error) {
	m := ci.anySetter
	if m == nil {
		return false, nil
	}
	if !m.method {
		f := dst.FieldByName(m.name)
		if f.IsNil() {
			f.Set(reflect.MakeMap(f.Type()))
		}
		ev := reflect.New(f.Type().Elem()).Elem()
		if err := d.decodeAt(k, val, ev, deserializeHints{}); err != nil {
			return true, err
		}
		f.SetMapIndex(reflect.ValueOf(k).Convert(f.Type().Key()), ev)
		return true, nil
	}
	fn := methodValue(dst, m.name)
	ft := fn.Type()
	arg := reflect.New(ft.In(1)).Elem()
	if err := d.decodeAt(k, val, arg, deserializeHints{}); err != nil {
		return true, err
	}
	if _, err := call(fn, []reflect.Value{reflect.ValueOf(k).Convert(ft.In(0)), arg}); err != nil {
		return true, withPointer(wrapMappingError(CreatorFailure, dst.Type(), k, err), k)
	}
	return true, nil
}

// create instantiates dst through the properties creator of ci.
func (d *deserializeState) create(key string, obj *orderedmap.OrderedMap, dst reflect.Value, ci *classInfo,
	seen map[*property]bool, consumed map[string]bool, external map[*property]*string) error {
	t := dst.Type()
	c := ci.creator
	args := make([]reflect.Value, len(c.params))
	before := d.refs.numPending()
	for i, cp := range c.params {
		arg := reflect.New(cp.typ).Elem()
		p := ci.byName[cp.name]
		if p != nil {
			seen[p] = true
		}
		name, val, found := d.findKey(obj, cp.name, cp.aliases)
		switch {
		case found:
			consumed[name] = true
			h := deserializeHints{format: cp.format, using: cp.deser}
			if cp.class != nil {
				h.class = cp.class()
			}
			if p != nil {
				h.external = external[p]
			}
			if err := d.decodeAt(name, val, arg, h); err != nil {
				return err
			}
		case cp.hasDefault:
			if assign(arg, cp.defaultValue) != nil {
				return newMappingError(TypeMismatch, t, cp.name, "default value is not assignable")
			}
		case cp.required || d.opts.enabled(FailOnMissingCreatorProperties):
			return newMappingError(MissingRequired, t, cp.name, "missing creator parameter")
		}
		args[i] = arg
	}
	if d.refs.numPending() > before {
		return newMappingError(ReferenceUnresolved, t, key, "creator parameters cannot hold forward references")
	}
	return d.construct(key, dst, ci, args)
}

// delegate instantiates dst through the delegating creator of ci,
// which receives the whole input value.
func (d *deserializeState) delegate(key string, node any, dst reflect.Value, ci *classInfo) error {
	cp := ci.creator.params[0]
	arg := reflect.New(cp.typ).Elem()
	h := deserializeHints{format: cp.format, using: cp.deser}
	if cp.class != nil {
		h.class = cp.class()
	}
	if err := d.decode(key, node, arg, h); err != nil {
		return err
	}
	return d.construct(key, dst, ci, []reflect.Value{arg})
}

func (d *deserializeState) construct(key string, dst reflect.Value, ci *classInfo, args []reflect.Value) error {
	t := dst.Type()
	out, err := call(ci.creator.fn, args)
	if err != nil {
		return wrapMappingError(CreatorFailure, t, key, err)
	}
	res := out[0]
	if ci.creator.returnPtr {
		if res.IsNil() {
			return newMappingError(CreatorFailure, t, key, "creator returned nil")
		}
		res = res.Elem()
	}
	dst.Set(res)
	return nil
}
