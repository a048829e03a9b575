// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"errors"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/xerrors"
)

// DefaultRegistry is the registry used by the package level functions.
var DefaultRegistry = NewRegistry()

// Registry stores metadata for classes, properties and creator parameters.
// It is written during initialization and frozen by the first mapping
// call that uses it. A Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	classes    map[reflect.Type]map[MetaKind]any
	props      map[reflect.Type]map[string]map[MetaKind]any
	propOrder  map[reflect.Type][]string
	params     map[reflect.Type]map[int]map[MetaKind]any
	reverse    map[reflect.Type]map[string]string
	interfaces []reflect.Type

	frozen atomic.Bool
	infos  sync.Map // map[reflect.Type]*classInfoEntry
	poly   sync.Map // map[reflect.Type]*typeInfo
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes:   make(map[reflect.Type]map[MetaKind]any),
		props:     make(map[reflect.Type]map[string]map[MetaKind]any),
		propOrder: make(map[reflect.Type][]string),
		params:    make(map[reflect.Type]map[int]map[MetaKind]any),
		reverse:   make(map[reflect.Type]map[string]string),
	}
}

// freeze marks the registry read-only. It reports whether this call froze it.
func (r *Registry) freeze() bool { return r.frozen.CompareAndSwap(false, true) }

// Frozen reports whether the registry has been used by a mapping call.
func (r *Registry) Frozen() bool { return r.frozen.Load() }

// annotate records options for a decorator, accepting identical repeats.
func (r *Registry) annotate(kind MetaKind, t Target, o any) error {
	var prev any
	var ok bool
	r.mu.RLock()
	switch t.Kind {
	case TargetClass:
		prev, ok = r.classes[t.Class][kind]
	case TargetParameter:
		prev, ok = r.params[t.Class][t.Index][kind]
	default:
		prev, ok = r.props[t.Class][t.Name][kind]
	}
	r.mu.RUnlock()
	if ok {
		if sameOptions(prev, o) {
			return nil
		}
		err := newMappingError(DuplicateDefinition, t.Class, t.Name, kind.String()+" applied twice with different options")
		return xerrors.Errorf("annotate %v: %w", t, err)
	}
	switch t.Kind {
	case TargetClass:
		return r.SetClassMeta(kind, t.Class, o)
	case TargetParameter:
		return r.SetParameterMeta(kind, t.Class, t.Index, o)
	default:
		return r.SetPropertyMeta(kind, t.Class, t.Name, o)
	}
}

func (r *Registry) checkWritable(cls reflect.Type) error {
	if r.frozen.Load() {
		return xerrors.Errorf("write metadata for %v: %w", cls, ErrRegistryFrozen)
	}
	return nil
}

// SetClassMeta records options of the given kind for cls.
// A later write of the same kind replaces an earlier one, except that
// a singleton kind already present on cls or its ancestors with different
// options fails with DuplicateDefinition.
func (r *Registry) SetClassMeta(kind MetaKind, cls reflect.Type, options any) error {
	cls = normalizeClass(cls)
	if err := r.checkWritable(cls); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind.singleton() {
		for _, anc := range r.ancestorsLocked(cls) {
			if prev, ok := r.classes[anc][kind]; ok && !sameOptions(prev, options) {
				if anc == cls || (anc.Kind() == reflect.Struct && kind != KindCreator) {
					return newMappingError(DuplicateDefinition, cls, "", "more than one "+kind.String()+" (also on "+anc.String()+")")
				}
			}
		}
	}
	m := r.classes[cls]
	if m == nil {
		m = make(map[MetaKind]any)
		r.classes[cls] = m
	}
	m[kind] = options
	if cls.Kind() == reflect.Interface && !containsType(r.interfaces, cls) {
		r.interfaces = append(r.interfaces, cls)
	}
	r.invalidateLocked()
	return nil
}

// GetClassMeta returns the options of the given kind for cls,
// walking its ancestors.
func (r *Registry) GetClassMeta(kind MetaKind, cls reflect.Type) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, v, ok := r.classMetaLocked(kind, normalizeClass(cls))
	return v, ok
}

// classMetaLocked also reports the ancestor that declares the metadata.
func (r *Registry) classMetaLocked(kind MetaKind, cls reflect.Type) (reflect.Type, any, bool) {
	for _, anc := range r.ancestorsLocked(cls) {
		if v, ok := r.classes[anc][kind]; ok {
			return anc, v, true
		}
	}
	return nil, nil, false
}

// SetPropertyMeta records options of the given kind for the property prop of cls.
func (r *Registry) SetPropertyMeta(kind MetaKind, cls reflect.Type, prop string, options any) error {
	cls = normalizeClass(cls)
	if err := r.checkWritable(cls); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch o := options.(type) {
	case PropertyOptions:
		if o.Value != "" {
			if err := r.indexNameLocked(cls, prop, o.Value); err != nil {
				return err
			}
		}
	case AliasOptions:
		for _, alias := range o.Values {
			if err := r.indexNameLocked(cls, prop, alias); err != nil {
				return err
			}
		}
	}
	pm := r.props[cls]
	if pm == nil {
		pm = make(map[string]map[MetaKind]any)
		r.props[cls] = pm
	}
	m := pm[prop]
	if m == nil {
		m = make(map[MetaKind]any)
		pm[prop] = m
		r.propOrder[cls] = append(r.propOrder[cls], prop)
	}
	m[kind] = options
	r.invalidateLocked()
	return nil
}

// indexNameLocked maps the logical or alias name to prop in the reverse index.
func (r *Registry) indexNameLocked(cls reflect.Type, prop, name string) error {
	idx := r.reverse[cls]
	if idx == nil {
		idx = make(map[string]string)
		r.reverse[cls] = idx
	}
	if other, ok := idx[name]; ok && other != prop {
		return newMappingError(DuplicateDefinition, cls, prop, "name "+name+" is already used by "+other)
	}
	idx[name] = prop
	return nil
}

// GetPropertyMeta returns the options of the given kind for the property
// prop of cls, walking its ancestors.
func (r *Registry) GetPropertyMeta(kind MetaKind, cls reflect.Type, prop string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.propertyMetaLocked(kind, normalizeClass(cls), prop)
}

func (r *Registry) propertyMetaLocked(kind MetaKind, cls reflect.Type, prop string) (any, bool) {
	for _, anc := range r.ancestorsLocked(cls) {
		if v, ok := r.props[anc][prop][kind]; ok {
			return v, true
		}
	}
	return nil, false
}

// SetParameterMeta records options of the given kind for the index-th
// parameter of the creator of cls.
func (r *Registry) SetParameterMeta(kind MetaKind, cls reflect.Type, index int, options any) error {
	cls = normalizeClass(cls)
	if err := r.checkWritable(cls); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	pm := r.params[cls]
	if pm == nil {
		pm = make(map[int]map[MetaKind]any)
		r.params[cls] = pm
	}
	m := pm[index]
	if m == nil {
		m = make(map[MetaKind]any)
		pm[index] = m
	}
	m[kind] = options
	r.invalidateLocked()
	return nil
}

// GetParameterMeta returns the options of the given kind for the
// index-th creator parameter of cls.
func (r *Registry) GetParameterMeta(kind MetaKind, cls reflect.Type, index int) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.params[normalizeClass(cls)][index][kind]
	return v, ok
}

// ListProperties returns the in-memory names of the properties of cls:
// fields, then accessor pairs, then properties known only from metadata.
func (r *Registry) ListProperties(cls reflect.Type) ([]string, error) {
	ci, err := r.classInfo(normalizeClass(cls))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ci.props))
	for i, p := range ci.props {
		names[i] = p.goName
	}
	return names, nil
}

// LookupProperty maps a logical or alias name of cls to its in-memory name.
func (r *Registry) LookupProperty(cls reflect.Type, name string) (string, bool) {
	cls = normalizeClass(cls)
	r.mu.RLock()
	for _, anc := range r.ancestorsLocked(cls) {
		if prop, ok := r.reverse[anc][name]; ok {
			r.mu.RUnlock()
			return prop, true
		}
	}
	r.mu.RUnlock()
	if cls.Kind() != reflect.Struct {
		return "", false
	}
	ci, err := r.classInfo(cls)
	if err != nil {
		return "", false
	}
	if p := ci.byName[name]; p != nil {
		return p.goName, true
	}
	return "", false
}

// Validate checks the registered metadata for conflicts that can only be
// detected across classes: property name collisions, reference pairing
// and subtype rosters.
func (r *Registry) Validate() error {
	r.mu.RLock()
	var structs []reflect.Type
	seen := make(map[reflect.Type]bool)
	add := func(t reflect.Type) {
		if t.Kind() == reflect.Struct && !seen[t] {
			seen[t] = true
			structs = append(structs, t)
		}
	}
	for t := range r.classes {
		add(t)
	}
	for t := range r.props {
		add(t)
	}
	r.mu.RUnlock()
	sortTypes(structs)

	var errs []error
	for _, t := range structs {
		ci, err := r.classInfo(t)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := r.checkReferences(ci); err != nil {
			errs = append(errs, err)
		}
	}
	for _, t := range r.polymorphicBases() {
		if _, err := r.typeInfoOf(t); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// hasMeta reports whether t or its ancestors carry any metadata.
func (r *Registry) hasMeta(t reflect.Type) bool {
	t = normalizeClass(t)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.props[t]) > 0 {
		return true
	}
	for _, anc := range r.ancestorsLocked(t) {
		if len(r.classes[anc]) > 0 {
			return true
		}
	}
	return false
}

// ignoresType reports whether properties of type t are ignored
// by JsonIgnoreType.
func (r *Registry) ignoresType(t reflect.Type) bool {
	t = normalizeClass(t)
	r.mu.RLock()
	_, v, ok := r.classMetaLocked(KindIgnoreType, t)
	r.mu.RUnlock()
	return ok && !v.(IgnoreTypeOptions).Disabled
}

// identityOf returns the identity info applying to t and its scope.
func (r *Registry) identityOf(t reflect.Type) (*IdentityInfoOptions, string) {
	r.mu.RLock()
	anc, v, ok := r.classMetaLocked(KindIdentityInfo, normalizeClass(t))
	r.mu.RUnlock()
	if !ok || v.(IdentityInfoOptions).Disabled {
		return nil, ""
	}
	o := v.(IdentityInfoOptions)
	return &o, identityScope(&o, anc)
}

// ancestorsLocked returns cls, its embedded structs depth first in
// declaration order and the registered interfaces it implements.
func (r *Registry) ancestorsLocked(cls reflect.Type) []reflect.Type {
	out := []reflect.Type{cls}
	if cls.Kind() == reflect.Struct {
		out = appendEmbedded(out, cls, map[reflect.Type]bool{cls: true})
	}
	for _, it := range r.interfaces {
		if it == cls {
			continue
		}
		if cls.Implements(it) || (cls.Kind() != reflect.Interface && reflect.PointerTo(cls).Implements(it)) {
			out = append(out, it)
		}
	}
	return out
}

// singletonConflictLocked reports a singleton kind declared with different
// options by more than one struct of the hierarchy of t, whatever the order
// of the declarations.
func (r *Registry) singletonConflictLocked(t reflect.Type) error {
	ancs := r.ancestorsLocked(t)
	for _, kind := range []MetaKind{KindAnyGetter, KindAnySetter, KindValue, KindIdentityInfo, KindTypeInfo} {
		var first reflect.Type
		for _, anc := range ancs {
			if anc.Kind() != reflect.Struct {
				continue
			}
			opts, ok := r.classes[anc][kind]
			switch {
			case !ok:
			case first == nil:
				first = anc
			case !sameOptions(r.classes[first][kind], opts):
				return newMappingError(DuplicateDefinition, first, "", "more than one "+kind.String()+" (also on "+anc.String()+")")
			}
		}
	}
	return nil
}

func appendEmbedded(out []reflect.Type, t reflect.Type, visited map[reflect.Type]bool) []reflect.Type {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.Anonymous {
			continue
		}
		ft := normalizeClass(sf.Type)
		if ft.Kind() != reflect.Struct || visited[ft] {
			continue
		}
		visited[ft] = true
		out = append(out, ft)
		out = appendEmbedded(out, ft, visited)
	}
	return out
}

func (r *Registry) invalidateLocked() {
	r.infos.Range(func(k, _ any) bool {
		r.infos.Delete(k)
		return true
	})
	r.poly.Range(func(k, _ any) bool {
		r.poly.Delete(k)
		return true
	})
}

func containsType(ts []reflect.Type, t reflect.Type) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

// sameOptions reports whether two option values are equivalent.
// Functions compare by code pointer.
func sameOptions(a, b any) bool {
	return sameValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

func sameValue(a, b reflect.Value) bool {
	if a.IsValid() != b.IsValid() {
		return false
	}
	if !a.IsValid() {
		return true
	}
	if a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case reflect.Func, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Pointer:
		if a.Pointer() == b.Pointer() {
			return true
		}
		if a.IsNil() || b.IsNil() {
			return false
		}
		return sameValue(a.Elem(), b.Elem())
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return sameValue(a.Elem(), b.Elem())
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !sameValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Slice:
		if a.IsNil() != b.IsNil() {
			return false
		}
		fallthrough
	case reflect.Array:
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !sameValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	default:
		return a.Equal(b)
	}
}

func sortTypes(ts []reflect.Type) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].String() < ts[j].String() })
}
