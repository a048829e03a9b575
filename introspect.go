// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"encoding"
	"encoding/json"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/xerrors"
)

// property is the resolved metadata of one logical property of a class.
type property struct {
	goName    string // in-memory name
	name      string // logical name
	aliases   []string
	declaring reflect.Type
	typ       reflect.Type

	index  []int  // field index; nil for accessors
	getter string // accessor method names
	setter string

	access       PropertyAccess
	required     bool
	hasDefault   bool
	defaultValue any
	class        func() TypeDescriptor
	include      IncludeType
	content      IncludeType
	format       *FormatOptions
	views        []reflect.Type
	raw          bool
	unwrapped    *UnwrappedOptions
	managed      string
	back         string
	ignored      bool
	serializer   func(any) (any, error)
	deserializer func(any) (any, error)
	metaOnly     bool
}

func (p *property) isField() bool { return p.index != nil }

func (p *property) readable() bool {
	return !p.metaOnly && (p.isField() || p.getter != "") && p.access != AccessWriteOnly
}

func (p *property) writable() bool {
	return !p.metaOnly && (p.isField() || p.setter != "") && p.access != AccessReadOnly
}

// descriptor returns the declared contents of the property.
func (p *property) descriptor() TypeDescriptor {
	if p.class != nil {
		return p.class()
	}
	return TypeDescriptor{}
}

// creatorParam is one bound parameter of a creator.
type creatorParam struct {
	name     string
	aliases  []string
	typ      reflect.Type
	class    func() TypeDescriptor
	format   *FormatOptions
	required bool
	deser    func(any) (any, error)

	hasDefault   bool
	defaultValue any
}

type creatorInfo struct {
	fn        reflect.Value
	mode      CreatorMode
	params    []creatorParam
	returnPtr bool
	returnErr bool
}

// classInfo is the resolved metadata of a struct type.
type classInfo struct {
	typ   reflect.Type
	props []*property

	byName   map[string]*property // logical names and aliases
	byFolded map[string]*property
	byGoName map[string]*property

	anyGetter *memberRef
	anySetter *memberRef
	value     *memberRef
	creator   *creatorInfo

	ignoreProps  IgnorePropertiesOptions
	ignoredNames map[string]bool
	ignoreType   bool
	include      IncludeType
	content      IncludeType
	order        PropertyOrderOptions
	rootName     string
	views        []reflect.Type
	serializer   func(any) (any, error)
	deserializer func(any) (any, error)

	identity     *IdentityInfoOptions
	identityBase reflect.Type
}

type classInfoEntry struct {
	once sync.Once
	info *classInfo
	err  error

	refsOnce sync.Once
	refsErr  error
}

// classInfo returns the cached metadata of the struct type t.
func (r *Registry) classInfo(t reflect.Type) (*classInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, xerrors.Errorf("introspect %v: %w", t, newMappingError(TypeMismatch, t, "", "not a struct"))
	}
	e := r.classEntry(t)
	return e.info, e.err
}

func (r *Registry) classEntry(t reflect.Type) *classInfoEntry {
	v, _ := r.infos.LoadOrStore(t, new(classInfoEntry))
	e := v.(*classInfoEntry)
	e.once.Do(func() {
		r.mu.RLock()
		defer r.mu.RUnlock()
		e.info, e.err = r.buildClassInfoLocked(t)
	})
	return e
}

// mappedClass is classInfo for mapping calls.
// It also fails if the managed references of t are not paired,
// checked once per type.
func (r *Registry) mappedClass(t reflect.Type) (*classInfo, error) {
	if t.Kind() != reflect.Struct {
		return r.classInfo(t)
	}
	e := r.classEntry(t)
	if e.err != nil {
		return nil, e.err
	}
	e.refsOnce.Do(func() { e.refsErr = r.checkReferences(e.info) })
	if e.refsErr != nil {
		return nil, e.refsErr
	}
	return e.info, nil
}

func (r *Registry) classOpt(kind MetaKind, t reflect.Type) (any, bool) {
	_, v, ok := r.classMetaLocked(kind, t)
	return v, ok
}

func (r *Registry) buildClassInfoLocked(t reflect.Type) (*classInfo, error) {
	ci := &classInfo{
		typ:          t,
		byName:       make(map[string]*property),
		byFolded:     make(map[string]*property),
		byGoName:     make(map[string]*property),
		ignoredNames: make(map[string]bool),
	}
	if err := r.singletonConflictLocked(t); err != nil {
		return nil, err
	}

	// Class level metadata.
	if v, ok := r.classOpt(KindAnyGetter, t); ok && !v.(AnyGetterOptions).Disabled {
		m := v.(AnyGetterOptions).member
		ci.anyGetter = &m
	}
	if v, ok := r.classOpt(KindAnySetter, t); ok && !v.(AnySetterOptions).Disabled {
		m := v.(AnySetterOptions).member
		ci.anySetter = &m
	}
	if v, ok := r.classOpt(KindValue, t); ok && !v.(ValueOptions).Disabled {
		m := v.(ValueOptions).member
		ci.value = &m
	}
	if v, ok := r.classOpt(KindIgnoreProperties, t); ok && !v.(IgnorePropertiesOptions).Disabled {
		ci.ignoreProps = v.(IgnorePropertiesOptions)
		for _, name := range ci.ignoreProps.Value {
			ci.ignoredNames[name] = true
		}
	}
	if v, ok := r.classOpt(KindIgnoreType, t); ok {
		ci.ignoreType = !v.(IgnoreTypeOptions).Disabled
	}
	if v, ok := r.classOpt(KindInclude, t); ok && !v.(IncludeOptions).Disabled {
		ci.include = v.(IncludeOptions).Value
		ci.content = v.(IncludeOptions).Content
	}
	if v, ok := r.classOpt(KindPropertyOrder, t); ok && !v.(PropertyOrderOptions).Disabled {
		ci.order = v.(PropertyOrderOptions)
	}
	if v, ok := r.classOpt(KindRootName, t); ok && !v.(RootNameOptions).Disabled {
		ci.rootName = v.(RootNameOptions).Value
	}
	if v, ok := r.classOpt(KindView, t); ok && !v.(ViewOptions).Disabled {
		ci.views = v.(ViewOptions).Value
	}
	if v, ok := r.classes[t][KindSerialize]; ok && !v.(SerializeOptions).Disabled {
		ci.serializer = v.(SerializeOptions).Using
	}
	if v, ok := r.classes[t][KindDeserialize]; ok && !v.(DeserializeOptions).Disabled {
		ci.deserializer = v.(DeserializeOptions).Using
	}
	if anc, v, ok := r.classMetaLocked(KindIdentityInfo, t); ok && !v.(IdentityInfoOptions).Disabled {
		o := v.(IdentityInfoOptions)
		ci.identity = &o
		ci.identityBase = anc
	}

	// Properties backed by fields and accessors.
	var claimed []string // members consumed by class level metadata
	for _, m := range []*memberRef{ci.anyGetter, ci.anySetter, ci.value} {
		if m != nil && !m.method {
			claimed = append(claimed, m.name)
		}
	}
	fields, err := collectFields(t)
	if err != nil {
		return nil, xerrors.Errorf("introspect %v: %w", t, err)
	}
	for _, f := range fields {
		if containsString(claimed, f.sf.Name) {
			continue
		}
		p := &property{
			goName:    f.sf.Name,
			declaring: f.declaring,
			typ:       f.sf.Type,
			index:     f.index,
		}
		r.resolvePropertyLocked(t, p, &f.tag)
		ci.add(p)
	}
	for _, a := range r.collectAccessorsLocked(t, ci) {
		r.resolvePropertyLocked(t, a, &tagOptions{})
		ci.add(a)
	}

	// Properties known only from metadata, including creator bindings.
	for _, anc := range r.ancestorsLocked(t) {
		for _, name := range r.propOrder[anc] {
			if ci.byGoName[name] != nil {
				continue
			}
			p := &property{goName: name, declaring: anc, metaOnly: true}
			r.resolvePropertyLocked(t, p, &tagOptions{})
			ci.add(p)
		}
	}

	// Index the logical names.
	for _, p := range ci.props {
		for _, name := range append([]string{p.name}, p.aliases...) {
			if other := ci.byName[name]; other != nil && other != p {
				return nil, newMappingError(DuplicateDefinition, t, p.goName, "name "+name+" is also used by "+other.goName)
			}
			ci.byName[name] = p
			folded := foldString(name)
			if ci.byFolded[folded] == nil {
				ci.byFolded[folded] = p
			}
		}
	}

	if v, ok := r.classes[t][KindCreator]; ok && !v.(CreatorOptions).Disabled {
		ci.creator, err = r.buildCreatorLocked(t, v.(CreatorOptions), ci)
		if err != nil {
			return nil, err
		}
	}
	if err := ci.checkMembers(); err != nil {
		return nil, err
	}
	return ci, nil
}

func (ci *classInfo) add(p *property) {
	ci.props = append(ci.props, p)
	ci.byGoName[p.goName] = p
}

// resolvePropertyLocked merges tag options and registered metadata into p.
func (r *Registry) resolvePropertyLocked(t reflect.Type, p *property, tag *tagOptions) {
	get := func(kind MetaKind) (any, bool) {
		return r.propertyMetaLocked(kind, t, p.goName)
	}

	p.name = tag.name
	defaultName := tag.jsonName
	if defaultName == "" {
		defaultName = lowerCamel(p.goName)
	}
	p.aliases = tag.aliases
	p.required = tag.required
	p.raw = tag.raw
	p.managed = tag.managed
	p.back = tag.back
	switch {
	case tag.readonly:
		p.access = AccessReadOnly
	case tag.writeonly:
		p.access = AccessWriteOnly
	}
	switch {
	case tag.omitdefault:
		p.include = IncludeNonDefault
	case tag.omitempty:
		p.include = IncludeNonEmpty
	case tag.omitnull:
		p.include = IncludeNonNull
	}
	if tag.unwrapped {
		p.unwrapped = &UnwrappedOptions{Prefix: tag.prefix, Suffix: tag.suffix}
	}
	if tag.format != "" {
		p.format = &FormatOptions{Pattern: tag.format}
	}

	if v, ok := get(KindProperty); ok && !v.(PropertyOptions).Disabled {
		o := v.(PropertyOptions)
		if o.DefaultName != "" {
			defaultName = o.DefaultName
		}
		if o.Value != "" {
			p.name = o.Value
		}
		if o.Access != AccessAuto {
			p.access = o.Access
		}
		p.required = p.required || o.Required
		if o.Default != nil {
			p.hasDefault, p.defaultValue = true, o.Default
		}
		if o.Class != nil {
			p.class = o.Class
		}
	}
	if p.name == "" {
		p.name = defaultName
	}
	if v, ok := get(KindAlias); ok && !v.(AliasOptions).Disabled {
		p.aliases = append(append([]string(nil), p.aliases...), v.(AliasOptions).Values...)
	}
	if v, ok := get(KindClass); ok && !v.(ClassOptions).Disabled && v.(ClassOptions).Class != nil {
		p.class = v.(ClassOptions).Class
	}
	if v, ok := get(KindInclude); ok && !v.(IncludeOptions).Disabled {
		p.include = v.(IncludeOptions).Value
		p.content = v.(IncludeOptions).Content
	}
	if v, ok := get(KindFormat); ok && !v.(FormatOptions).Disabled {
		o := v.(FormatOptions)
		p.format = &o
	}
	if v, ok := get(KindView); ok && !v.(ViewOptions).Disabled {
		p.views = v.(ViewOptions).Value
	}
	if v, ok := get(KindRawValue); ok {
		p.raw = !v.(RawValueOptions).Disabled
	}
	if v, ok := get(KindUnwrapped); ok {
		if o := v.(UnwrappedOptions); !o.Disabled {
			p.unwrapped = &o
		} else {
			p.unwrapped = nil
		}
	}
	if v, ok := get(KindManagedReference); ok && !v.(ReferenceOptions).Disabled {
		p.managed = v.(ReferenceOptions).Value
	}
	if v, ok := get(KindBackReference); ok && !v.(ReferenceOptions).Disabled {
		p.back = v.(ReferenceOptions).Value
	}
	if v, ok := get(KindIgnore); ok {
		p.ignored = !v.(IgnoreOptions).Disabled
	}
	if v, ok := get(KindSerialize); ok && !v.(SerializeOptions).Disabled {
		p.serializer = v.(SerializeOptions).Using
	}
	if v, ok := get(KindDeserialize); ok && !v.(DeserializeOptions).Disabled {
		p.deserializer = v.(DeserializeOptions).Using
	}
	if p.access == AccessAuto && !p.isField() && !p.metaOnly {
		switch {
		case p.getter != "" && p.setter == "":
			p.access = AccessReadOnly
		case p.getter == "" && p.setter != "":
			p.access = AccessWriteOnly
		}
	}
}

type structFieldInfo struct {
	sf        reflect.StructField
	index     []int
	depth     int
	declaring reflect.Type
	tag       tagOptions
}

var (
	timeType          = reflect.TypeOf((*time.Time)(nil)).Elem()
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// flattened reports whether an embedded field contributes its fields
// to the enclosing struct.
func flattened(sf reflect.StructField, tag tagOptions) bool {
	if !sf.Anonymous || tag.name != "" || tag.jsonName != "" {
		return false
	}
	t := sf.Type
	if t.Kind() == reflect.Pointer {
		if !sf.IsExported() {
			return false
		}
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return false
	}
	pt := reflect.PointerTo(t)
	return !pt.Implements(jsonMarshalerType) && !pt.Implements(textMarshalerType)
}

// collectFields returns the exported fields of t, own fields first in
// declaration order, then fields of embedded structs depth first.
// A shallower field shadows deeper fields of the same name.
func collectFields(t reflect.Type) ([]structFieldInfo, error) {
	var out []structFieldInfo
	pos := make(map[string]int)
	var walk func(t reflect.Type, index []int, depth int, visited map[reflect.Type]bool) error
	walk = func(t reflect.Type, index []int, depth int, visited map[reflect.Type]bool) error {
		type embedded struct {
			t     reflect.Type
			index []int
		}
		var nested []embedded
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			tag, err := parseTagOptions(sf)
			if err == errIgnoredField {
				continue
			}
			if err != nil {
				return err
			}
			idx := append(append([]int(nil), index...), i)
			if flattened(sf, tag) {
				nested = append(nested, embedded{normalizeClass(sf.Type), idx})
				continue
			}
			if !sf.IsExported() {
				continue
			}
			f := structFieldInfo{sf: sf, index: idx, depth: depth, declaring: t, tag: tag}
			if j, ok := pos[sf.Name]; ok {
				if out[j].depth > depth {
					out[j] = f
				}
				continue
			}
			pos[sf.Name] = len(out)
			out = append(out, f)
		}
		for _, e := range nested {
			if visited[e.t] {
				continue
			}
			visited[e.t] = true
			if err := walk(e.t, e.index, depth+1, visited); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(t, nil, 0, map[reflect.Type]bool{t: true}); err != nil {
		return nil, err
	}
	return out, nil
}

// collectAccessorsLocked pairs X() and SetX(v) methods of *t into properties.
// Unpaired getters and setters become properties only when annotated.
func (r *Registry) collectAccessorsLocked(t reflect.Type, ci *classInfo) []*property {
	pt := reflect.PointerTo(t)
	getters := make(map[string]reflect.Type)
	setters := make(map[string]reflect.Type)
	var names []string
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		mt := m.Type
		switch {
		case strings.HasPrefix(m.Name, "Set") && len(m.Name) > 3 && mt.NumIn() == 2 && mt.NumOut() == 0:
			name := m.Name[len("Set"):]
			setters[name] = mt.In(1)
			names = append(names, name)
		case mt.NumIn() == 1 && mt.NumOut() == 1 && mt.Out(0) != errorType:
			getters[m.Name] = mt.Out(0)
			names = append(names, m.Name)
		}
	}
	sort.Strings(names)
	var out []*property
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] || ci.byGoName[name] != nil {
			continue
		}
		seen[name] = true
		if ci.isClaimedMethod(name) {
			continue
		}
		gt, hasGet := getters[name]
		st, hasSet := setters[name]
		if hasGet && hasSet && gt != st {
			hasSet = false
		}
		annotated := r.hasPropertyMetaLocked(t, name)
		if !(hasGet && hasSet) && !annotated {
			continue
		}
		p := &property{goName: name, declaring: t}
		if hasGet {
			p.getter, p.typ = name, gt
		}
		if hasSet {
			p.setter, p.typ = "Set"+name, st
		}
		out = append(out, p)
	}
	return out
}

func (ci *classInfo) isClaimedMethod(name string) bool {
	for _, m := range []*memberRef{ci.anyGetter, ci.anySetter, ci.value} {
		if m != nil && m.method && m.name == name {
			return true
		}
	}
	return false
}

func (r *Registry) hasPropertyMetaLocked(t reflect.Type, prop string) bool {
	for _, anc := range r.ancestorsLocked(t) {
		if len(r.props[anc][prop]) > 0 {
			return true
		}
	}
	return false
}

// checkMembers verifies the shapes of the members named by class metadata.
func (ci *classInfo) checkMembers() error {
	t := ci.typ
	pt := reflect.PointerTo(t)
	fail := func(m *memberRef, what string) error {
		return xerrors.Errorf("introspect %v: %s %s: %w", t, what, m.name, ErrInvalidTarget)
	}
	if m := ci.anyGetter; m != nil {
		if m.method {
			mm, _ := pt.MethodByName(m.name)
			if mm.Type.NumIn() != 1 || mm.Type.NumOut() != 1 || !isStringMap(mm.Type.Out(0)) {
				return fail(m, "any-getter must return a map with string keys:")
			}
		} else if sf, _ := t.FieldByName(m.name); !isStringMap(sf.Type) {
			return fail(m, "any-getter must be a map with string keys:")
		}
	}
	if m := ci.anySetter; m != nil {
		if m.method {
			mm, _ := pt.MethodByName(m.name)
			if mm.Type.NumIn() != 3 || mm.Type.In(1).Kind() != reflect.String {
				return fail(m, "any-setter must take a string key and a value:")
			}
		} else if sf, _ := t.FieldByName(m.name); !isStringMap(sf.Type) {
			return fail(m, "any-setter must be a map with string keys:")
		}
	}
	if m := ci.value; m != nil && m.method {
		mm, _ := pt.MethodByName(m.name)
		if mm.Type.NumIn() != 1 || mm.Type.NumOut() < 1 {
			return fail(m, "value method must take no arguments and return a value:")
		}
	}
	return nil
}

func isStringMap(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Key().Kind() == reflect.String
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// buildCreatorLocked binds the parameters of the creator of t to property names.
func (r *Registry) buildCreatorLocked(t reflect.Type, o CreatorOptions, ci *classInfo) (*creatorInfo, error) {
	fn := reflect.ValueOf(o.Func)
	ft := fn.Type()
	c := &creatorInfo{
		fn:        fn,
		mode:      o.Mode,
		returnPtr: ft.Out(0).Kind() == reflect.Pointer,
		returnErr: ft.NumOut() == 2,
	}
	var argNames []string
	for i := 0; i < ft.NumIn(); i++ {
		cp := creatorParam{typ: ft.In(i)}
		if i < len(o.Properties) {
			cp.name = o.Properties[i]
		}
		pm := r.params[t][i]
		if v, ok := pm[KindProperty]; ok && !v.(PropertyOptions).Disabled {
			po := v.(PropertyOptions)
			if po.Value != "" {
				cp.name = po.Value
			}
			cp.required = po.Required
			cp.class = po.Class
			if po.Default != nil {
				cp.hasDefault, cp.defaultValue = true, po.Default
			}
		}
		if v, ok := pm[KindAlias]; ok && !v.(AliasOptions).Disabled {
			cp.aliases = v.(AliasOptions).Values
		}
		if v, ok := pm[KindClass]; ok && !v.(ClassOptions).Disabled {
			cp.class = v.(ClassOptions).Class
		}
		if v, ok := pm[KindFormat]; ok && !v.(FormatOptions).Disabled {
			f := v.(FormatOptions)
			cp.format = &f
		}
		if v, ok := pm[KindDeserialize]; ok && !v.(DeserializeOptions).Disabled {
			cp.deser = v.(DeserializeOptions).Using
		}
		if cp.name == "" && o.Mode == CreatorProperties {
			if argNames == nil {
				argNames = argumentNames(fn)
			}
			if i < len(argNames) && argNames[i] != "" {
				// Source names are in-memory names when they match a property.
				cp.name = argNames[i]
				if p := ci.propertyForArg(argNames[i]); p != nil {
					cp.name = p.name
				}
			}
		}
		if p := ci.byName[cp.name]; p != nil && cp.class == nil {
			cp.class = p.class
			cp.required = cp.required || p.required
			if cp.format == nil {
				cp.format = p.format
			}
			if !cp.hasDefault && p.hasDefault {
				cp.hasDefault, cp.defaultValue = true, p.defaultValue
			}
		}
		c.params = append(c.params, cp)
	}
	return c, nil
}

// propertyForArg matches a source parameter name to a property.
func (ci *classInfo) propertyForArg(arg string) *property {
	if p := ci.byGoName[arg]; p != nil {
		return p
	}
	if p := ci.byName[arg]; p != nil {
		return p
	}
	for _, p := range ci.props {
		if strings.EqualFold(p.goName, arg) {
			return p
		}
	}
	return ci.byFolded[foldString(arg)]
}

var argNamesCache sync.Map // map[uintptr][]string

// argumentNames returns the parameter names of fn as declared in its source.
// Names are empty when the source is unavailable or a parameter is unnamed.
func argumentNames(fn reflect.Value) []string {
	pc := fn.Pointer()
	if v, ok := argNamesCache.Load(pc); ok {
		return v.([]string)
	}
	names := parseArgumentNames(pc, fn.Type().NumIn())
	argNamesCache.Store(pc, names)
	return names
}

func parseArgumentNames(pc uintptr, n int) []string {
	names := make([]string, n)
	f := runtime.FuncForPC(pc)
	if f == nil {
		return names
	}
	file, line := f.FileLine(f.Entry())
	fset := token.NewFileSet()
	af, err := parser.ParseFile(fset, file, nil, parser.SkipObjectResolution)
	if err != nil {
		return names
	}
	var params *ast.FieldList
	ast.Inspect(af, func(node ast.Node) bool {
		if params != nil || node == nil {
			return false
		}
		var ft *ast.FuncType
		switch fn := node.(type) {
		case *ast.FuncDecl:
			ft = fn.Type
		case *ast.FuncLit:
			ft = fn.Type
		default:
			return true
		}
		if fset.Position(ft.Pos()).Line == line && ft.Params.NumFields() == n {
			params = ft.Params
			return false
		}
		return true
	})
	if params == nil {
		return names
	}
	i := 0
	for _, field := range params.List {
		if len(field.Names) == 0 {
			i++
			continue
		}
		for _, id := range field.Names {
			if i < n && id.Name != "_" {
				names[i] = id.Name
			}
			i++
		}
	}
	return names
}
