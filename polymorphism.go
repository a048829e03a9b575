// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/iancoleman/orderedmap"
	"golang.org/x/xerrors"

	"github.com/eran-medan/jackson-go/internal/jsontree"
)

// typeInfo is the resolved polymorphic configuration of a base class.
type typeInfo struct {
	base reflect.Type
	opts TypeInfoOptions

	ids   map[reflect.Type]string // concrete type to discriminator
	types map[string]reflect.Type // discriminator to concrete type
}

type typeInfoEntry struct {
	once sync.Once
	info *typeInfo
	err  error
}

// typeInfoOf returns the polymorphic configuration applying to t,
// or nil if t is not polymorphic.
func (r *Registry) typeInfoOf(t reflect.Type) (*typeInfo, error) {
	t = normalizeClass(t)
	r.mu.RLock()
	base, v, ok := r.classMetaLocked(KindTypeInfo, t)
	r.mu.RUnlock()
	if !ok || v.(TypeInfoOptions).Disabled {
		return nil, nil
	}
	e, _ := r.poly.LoadOrStore(base, new(typeInfoEntry))
	entry := e.(*typeInfoEntry)
	entry.once.Do(func() {
		r.mu.RLock()
		defer r.mu.RUnlock()
		entry.info, entry.err = r.buildTypeInfoLocked(base, v.(TypeInfoOptions))
	})
	return entry.info, entry.err
}

func (r *Registry) buildTypeInfoLocked(base reflect.Type, o TypeInfoOptions) (*typeInfo, error) {
	o.Property = typeProperty(&o)
	ti := &typeInfo{
		base:  base,
		opts:  o,
		ids:   make(map[reflect.Type]string),
		types: make(map[string]reflect.Type),
	}
	add := func(t reflect.Type, name string) error {
		t = normalizeClass(t)
		if _, ok := ti.ids[t]; ok {
			return nil
		}
		if !assignableToBase(t, base) {
			return newMappingError(PolymorphismResolution, base, "", t.String()+" is not a subtype")
		}
		id := r.typeIDLocked(ti, t, name)
		if other, ok := ti.types[id]; ok {
			return newMappingError(DuplicateDefinition, base, "", "type id "+strconv.Quote(id)+" names both "+other.String()+" and "+t.String())
		}
		ti.ids[t] = id
		ti.types[id] = t
		return nil
	}
	if base.Kind() == reflect.Struct {
		if err := add(base, ""); err != nil {
			return nil, err
		}
	}
	// Rosters of subtypes are followed transitively.
	queue := []reflect.Type{base}
	visited := map[reflect.Type]bool{base: true}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		v, ok := r.classes[t][KindSubTypes]
		if !ok || v.(SubTypesOptions).Disabled {
			continue
		}
		for _, st := range v.(SubTypesOptions).Types {
			if st.Class == nil {
				return nil, xerrors.Errorf("subtypes of %v: nil class: %w", t, ErrInvalidTarget)
			}
			if err := add(st.Class, st.Name); err != nil {
				return nil, err
			}
			if c := normalizeClass(st.Class); !visited[c] {
				visited[c] = true
				queue = append(queue, c)
			}
		}
	}
	if o.DefaultImpl != nil {
		if err := add(o.DefaultImpl, ""); err != nil {
			return nil, err
		}
	}
	return ti, nil
}

// assignableToBase reports whether values of t may stand for base.
func assignableToBase(t, base reflect.Type) bool {
	if t == base {
		return true
	}
	if base.Kind() == reflect.Interface {
		return t.Implements(base) || reflect.PointerTo(t).Implements(base)
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	return containsType(appendEmbedded(nil, t, map[reflect.Type]bool{t: true}), base)
}

// typeIDLocked computes the discriminator of t.
func (r *Registry) typeIDLocked(ti *typeInfo, t reflect.Type, rosterName string) string {
	switch ti.opts.Use {
	case TypeIDClass:
		return qualifiedName(t)
	case TypeIDMinimalClass:
		if t.PkgPath() == ti.base.PkgPath() {
			return "." + t.Name()
		}
		return qualifiedName(t)
	}
	if rosterName != "" {
		return rosterName
	}
	if v, ok := r.classes[t][KindTypeName]; ok && !v.(TypeNameOptions).Disabled && v.(TypeNameOptions).Value != "" {
		return v.(TypeNameOptions).Value
	}
	return t.Name()
}

func qualifiedName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// polymorphicBases returns the classes declaring JsonTypeInfo.
func (r *Registry) polymorphicBases() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []reflect.Type
	for t, m := range r.classes {
		if _, ok := m[KindTypeInfo]; ok {
			out = append(out, t)
		}
	}
	sortTypes(out)
	return out
}

// idOf returns the discriminator of the concrete type t.
func (ti *typeInfo) idOf(t reflect.Type) (string, error) {
	if id, ok := ti.ids[normalizeClass(t)]; ok {
		return id, nil
	}
	return "", newMappingError(PolymorphismResolution, t, "", "not a registered subtype of "+ti.base.String())
}

// resolve returns the concrete type named by id, falling back to DefaultImpl.
func (ti *typeInfo) resolve(id string, present bool) (reflect.Type, error) {
	if present {
		if t, ok := ti.types[id]; ok {
			return t, nil
		}
	}
	if ti.opts.DefaultImpl != nil {
		return normalizeClass(ti.opts.DefaultImpl), nil
	}
	if !present {
		return nil, newMappingError(PolymorphismResolution, ti.base, ti.opts.Property, "missing type id")
	}
	return nil, newMappingError(PolymorphismResolution, ti.base, "", "unknown type id "+strconv.Quote(id)+" (known: "+strings.Join(ti.sortedIDs(), ", ")+")")
}

// wrap embeds id into the serialized node of a polymorphic value.
func (ti *typeInfo) wrap(id string, node any) any {
	include := ti.opts.Include
	if include == AsExternalProperty {
		include = AsProperty
	}
	switch include {
	case AsProperty:
		obj, ok := node.(*orderedmap.OrderedMap)
		if !ok {
			return []any{id, node}
		}
		out := orderedmap.New()
		out.Set(ti.opts.Property, id)
		for _, k := range obj.Keys() {
			if k == ti.opts.Property {
				continue
			}
			v, _ := obj.Get(k)
			out.Set(k, v)
		}
		return out
	case AsWrapperObject:
		out := orderedmap.New()
		out.Set(id, node)
		return out
	default:
		return []any{id, node}
	}
}

// unwrap extracts the discriminator and the remaining node.
// An external id, when present, takes precedence for AsExternalProperty.
func (ti *typeInfo) unwrap(node any, external *string) (id string, present bool, rest any, err error) {
	include := ti.opts.Include
	if include == AsExternalProperty {
		if external != nil {
			return *external, true, node, nil
		}
		include = AsProperty
	}
	mismatch := func(want string) error {
		return newMappingError(PolymorphismResolution, ti.base, "", "expected "+want+" holding a type id, got "+jsontree.Kind(node))
	}
	switch include {
	case AsProperty:
		switch n := node.(type) {
		case *orderedmap.OrderedMap:
			v, ok := n.Get(ti.opts.Property)
			if !ok {
				return "", false, n, nil
			}
			s, ok := v.(string)
			if !ok {
				return "", false, nil, newMappingError(PolymorphismResolution, ti.base, ti.opts.Property, "type id must be a string")
			}
			return s, true, jsontree.Without(n, ti.opts.Property), nil
		case []any:
			return unwrapArray(ti, n, mismatch)
		}
		return "", false, nil, mismatch("an object")
	case AsWrapperObject:
		n, ok := node.(*orderedmap.OrderedMap)
		if !ok || len(n.Keys()) != 1 {
			return "", false, nil, mismatch("an object with a single property")
		}
		k := n.Keys()[0]
		v, _ := n.Get(k)
		return k, true, v, nil
	default:
		n, ok := node.([]any)
		if !ok {
			return "", false, nil, mismatch("an array")
		}
		return unwrapArray(ti, n, mismatch)
	}
}

func unwrapArray(ti *typeInfo, n []any, mismatch func(string) error) (string, bool, any, error) {
	if len(n) != 2 {
		return "", false, nil, mismatch("a two element array")
	}
	s, ok := n[0].(string)
	if !ok {
		return "", false, nil, mismatch("an array")
	}
	return s, true, n[1], nil
}

// sortedIDs lists the known discriminators.
func (ti *typeInfo) sortedIDs() []string {
	ids := make([]string, 0, len(ti.types))
	for id := range ti.types {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
