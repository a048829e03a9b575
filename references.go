// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"reflect"
	"strconv"
)

// managedChild returns the class held by a managed reference,
// looking through pointers and containers.
func managedChild(t reflect.Type) reflect.Type {
	for {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		case reflect.Map:
			if isSetType(t) {
				t = t.Key()
			} else {
				t = t.Elem()
			}
		default:
			return t
		}
	}
}

// backProps returns the back references of ci paired with link.
func backProps(ci *classInfo, link string) []*property {
	var out []*property
	for _, p := range ci.props {
		if p.back == link {
			out = append(out, p)
		}
	}
	return out
}

// checkReferences verifies that every managed reference of ci is paired
// with exactly one back reference in the referenced class.
// Children held through interfaces are only known at run time.
func (r *Registry) checkReferences(ci *classInfo) error {
	links := make(map[string]string)
	for _, p := range ci.props {
		if p.managed == "" || p.typ == nil {
			continue
		}
		if other, ok := links[p.managed]; ok {
			return newMappingError(DuplicateDefinition, ci.typ, p.name, "managed reference "+strconv.Quote(p.managed)+" is also declared by "+other)
		}
		links[p.managed] = p.name
		child := managedChild(p.typ)
		if child.Kind() != reflect.Struct {
			continue
		}
		cci, err := r.classInfo(child)
		if err != nil {
			return err
		}
		switch n := len(backProps(cci, p.managed)); {
		case n == 0:
			return newMappingError(ReferenceUnresolved, ci.typ, p.name, child.String()+" has no back reference "+strconv.Quote(p.managed))
		case n > 1:
			return newMappingError(DuplicateDefinition, child, "", "back reference "+strconv.Quote(p.managed)+" is declared "+strconv.Itoa(n)+" times")
		}
	}
	return nil
}

// setBackReferences points the back references of the children held by
// the managed references of v at v. Children returned by a getter are
// linked in place, so the getter must return pointers or a shared slice.
func (d *deserializeState) setBackReferences(v reflect.Value, ci *classInfo) error {
	for _, p := range ci.props {
		if p.managed == "" {
			continue
		}
		var fv reflect.Value
		switch {
		case p.isField():
			fv = fieldByIndex(v, p.index, false)
		case p.getter != "":
			get := methodValue(v, p.getter)
			if !get.IsValid() {
				continue
			}
			out, err := call(get, nil)
			if err != nil {
				return wrapMappingError(CreatorFailure, v.Type(), p.name, err)
			}
			if len(out) > 0 {
				fv = out[0]
			}
		}
		if !fv.IsValid() {
			continue
		}
		if err := d.linkChildren(fv, v, p.managed); err != nil {
			return withPointer(err, p.name)
		}
	}
	return nil
}

func (d *deserializeState) linkChildren(v, parent reflect.Value, link string) error {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return d.linkChildren(v.Elem(), parent, link)
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := d.linkChildren(v.Index(i), parent, link); err != nil {
				return err
			}
		}
	case reflect.Map:
		if isSetType(v.Type()) {
			return nil
		}
		for _, k := range v.MapKeys() {
			// Map values are not addressable; link a copy and store it back.
			ev := reflect.New(v.Type().Elem()).Elem()
			ev.Set(v.MapIndex(k))
			if err := d.linkChildren(ev, parent, link); err != nil {
				return err
			}
			v.SetMapIndex(k, ev)
		}
	case reflect.Struct:
		if !v.CanAddr() {
			return nil
		}
		ci, err := d.reg.classInfo(v.Type())
		if err != nil {
			return err
		}
		x := parent.Interface()
		if parent.CanAddr() {
			x = parent.Addr().Interface()
		}
		for _, bp := range backProps(ci, link) {
			if bp.isField() {
				fv := fieldByIndex(v, bp.index, true)
				if !fv.IsValid() {
					continue
				}
				if assign(fv, x) != nil {
					return newMappingError(TypeMismatch, v.Type(), bp.name, "back reference cannot hold a "+parent.Type().String())
				}
				continue
			}
			if bp.setter == "" {
				continue
			}
			arg := reflect.New(bp.typ).Elem()
			if assign(arg, x) != nil {
				return newMappingError(TypeMismatch, v.Type(), bp.name, "back reference cannot hold a "+parent.Type().String())
			}
			if _, err := call(methodValue(v, bp.setter), []reflect.Value{arg}); err != nil {
				return wrapMappingError(CreatorFailure, v.Type(), bp.name, err)
			}
		}
	}
	return nil
}
