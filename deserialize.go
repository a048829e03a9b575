// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/iancoleman/orderedmap"
	"go.uber.org/zap"

	"github.com/eran-medan/jackson-go/internal/jsontree"
)

// deserializeState is the per call state of the deserializer.
type deserializeState struct {
	opts   *options
	reg    *Registry
	logger *zap.Logger

	refs references
	path []string // JSON pointer tokens of the value being decoded
}

// deserializeHints carries property level metadata down to a value.
type deserializeHints struct {
	format *FormatOptions
	class  TypeDescriptor

	// external is the type id read by the enclosing object
	// for a value using AsExternalProperty.
	external *string
	// using is the JsonDeserialize function of the property.
	using func(any) (any, error)
	// typeHandled reports that the type id was already consumed.
	typeHandled bool
	// skipUsing disables the class level JsonDeserialize once.
	skipUsing bool
}

func newDeserializeState(o *options) *deserializeState {
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &deserializeState{opts: o, reg: o.registry, logger: logger}
	d.refs.logger = logger
	return d
}

func jsonKind(node any) string { return jsontree.Kind(node) }

// pointer returns the JSON pointer of the value being decoded.
func (d *deserializeState) pointer() string {
	var ptr string
	for _, tok := range d.path {
		ptr = appendPointerToken(ptr, tok)
	}
	return ptr
}

// finish resolves the deferred work of the call.
func (d *deserializeState) finish() error {
	p := d.refs.finish()
	if p == nil {
		return nil
	}
	_, id, _ := strings.Cut(p.key, "\x00")
	if len(id) > 0 {
		id = id[1:]
	}
	if !d.opts.enabled(FailOnUnresolvedObjectIDs) {
		d.logger.Debug("unresolved object id", zap.String("id", id), zap.String("pointer", p.pointer))
		return nil
	}
	return &MappingError{Kind: ReferenceUnresolved, Pointer: p.pointer, str: "object id " + strconv.Quote(id) + " was never defined"}
}

// decodeAt decodes the member tok of the current value.
func (d *deserializeState) decodeAt(tok string, node any, dst reflect.Value, h deserializeHints) error {
	d.path = append(d.path, tok)
	err := d.decode(tok, node, dst, h)
	d.path = d.path[:len(d.path)-1]
	if err != nil {
		return withPointer(err, tok)
	}
	return nil
}

// decode stores the tree node into the settable value dst.
func (d *deserializeState) decode(key string, node any, dst reflect.Value, h deserializeHints) error {
	t := dst.Type()
	if len(d.opts.deserializers) > 0 {
		out, ran, err := runDeserializers(d.opts.deserializers, t, key, node)
		if err != nil {
			return err
		}
		if ran {
			if !isNode(out) {
				return d.assignResult(key, dst, out)
			}
			node = out
		}
	}
	if h.using != nil {
		out, skipped, err := callUsing(h.using, t, key, node)
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
	return d.decodeValue(key, node, dst, h)
}

// assignResult stores a typed value produced by user code.
func (d *deserializeState) assignResult(key string, dst reflect.Value, out any) error {
	if err := assign(dst, out); err != nil {
		return newMappingError(TypeMismatch, dst.Type(), key, "cannot assign "+reflect.TypeOf(out).String())
	}
	return nil
}

// isNode reports whether x is a JSON value tree node.
func isNode(x any) bool {
	switch x.(type) {
	case nil, bool, string, json.Number, float64, []any, *orderedmap.OrderedMap, json.RawMessage:
		return true
	}
	return false
}

// isScalar reports whether node may be an object id.
func isScalar(node any) bool {
	switch node.(type) {
	case string:
		return true
	}
	return jsontree.IsNumber(node)
}

func (d *deserializeState) mismatch(t reflect.Type, key string, node any) error {
	return newMappingError(TypeMismatch, t, key, "cannot decode JSON "+jsonKind(node))
}

func (d *deserializeState) decodeValue(key string, node any, dst reflect.Value, h deserializeHints) error {
	t := dst.Type()
	if raw, ok := node.(json.RawMessage); ok && t != rawMessageType {
		tree, err := jsontree.Decode(raw)
		if err != nil {
			return wrapMappingError(TypeMismatch, t, key, err)
		}
		node = tree
	}
	if node == nil {
		return d.decodeNull(key, dst)
	}
	if s, ok := node.(string); ok && s == "" && d.opts.enabled(AcceptEmptyStringAsNullObject) {
		switch t.Kind() {
		case reflect.Struct, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
			if t != bytesType && t != timeType {
				dst.Set(reflect.Zero(t))
				return nil
			}
		}
	}

	// Types with a fixed JSON representation.
	switch t {
	case rawMessageType:
		text, err := jsontree.Encode(node)
		if err != nil {
			return wrapMappingError(TypeMismatch, t, key, err)
		}
		dst.SetBytes(text)
		return nil
	case numberType:
		text, ok, err := numberText(node, h.format)
		if err != nil || !ok {
			return d.mismatch(t, key, node)
		}
		dst.SetString(text)
		return nil
	case timeType:
		tm, err := d.parseTime(node, h.format)
		if err != nil {
			return wrapMappingError(TypeMismatch, t, key, err)
		}
		dst.Set(reflect.ValueOf(tm))
		return nil
	case durationType:
		dur, err := parseDuration(node, h.format)
		if err != nil {
			return wrapMappingError(TypeMismatch, t, key, err)
		}
		dst.SetInt(int64(dur))
		return nil
	case orderedMapType:
		if _, ok := asObject(node); !ok {
			return d.mismatch(t, key, node)
		}
		text, err := jsontree.Encode(node)
		if err != nil {
			return wrapMappingError(TypeMismatch, t, key, err)
		}
		om := orderedmap.New()
		if err := om.UnmarshalJSON(text); err != nil {
			return wrapMappingError(TypeMismatch, t, key, err)
		}
		dst.Set(reflect.ValueOf(*om))
		return nil
	}

	if t.Kind() != reflect.Interface && t.Kind() != reflect.Pointer && dst.CanAddr() && !d.reg.hasMeta(t) {
		if ok, err := d.decodeUnmarshaler(key, node, dst); ok || err != nil {
			return err
		}
	}

	switch t.Kind() {
	case reflect.Interface:
		return d.decodeInterface(key, node, dst, h)
	case reflect.Pointer:
		return d.decodePointer(key, node, dst, h)
	case reflect.Bool:
		return d.decodeBool(key, node, dst, h)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return d.decodeInt(key, node, dst, h)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return d.decodeUint(key, node, dst, h)
	case reflect.Float32, reflect.Float64:
		return d.decodeFloat(key, node, dst, h)
	case reflect.String:
		switch v := node.(type) {
		case string:
			dst.SetString(v)
		case bool:
			dst.SetString(strconv.FormatBool(v))
		default:
			text, ok, _ := numberText(node, nil)
			if !ok {
				return d.mismatch(t, key, node)
			}
			dst.SetString(text)
		}
		return nil
	case reflect.Slice:
		return d.decodeSlice(key, node, dst, h)
	case reflect.Array:
		return d.decodeArray(key, node, dst, h)
	case reflect.Map:
		if isSetType(t) {
			return d.decodeSet(key, node, dst, h)
		}
		return d.decodeMap(key, node, dst, h)
	case reflect.Struct:
		return d.decodeStruct(key, node, dst, h)
	}
	return newMappingError(TypeMismatch, t, key, "unsupported Go kind "+t.Kind().String())
}

func (d *deserializeState) decodeNull(key string, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		if d.opts.enabled(FailOnNullForPrimitives) {
			return newMappingError(TypeMismatch, dst.Type(), key, "cannot decode JSON null into a primitive")
		}
	}
	dst.Set(reflect.Zero(dst.Type()))
	return nil
}

// decodeUnmarshaler handles types that decode themselves.
func (d *deserializeState) decodeUnmarshaler(key string, node any, dst reflect.Value) (bool, error) {
	t := dst.Type()
	switch u := dst.Addr().Interface().(type) {
	case json.Unmarshaler:
		text, err := jsontree.Encode(node)
		if err == nil {
			err = u.UnmarshalJSON(text)
		}
		if err != nil {
			return true, wrapMappingError(TypeMismatch, t, key, err)
		}
		return true, nil
	case encoding.TextUnmarshaler:
		s, ok := node.(string)
		if !ok {
			return true, d.mismatch(t, key, node)
		}
		if err := u.UnmarshalText([]byte(s)); err != nil {
			return true, wrapMappingError(TypeMismatch, t, key, err)
		}
		return true, nil
	}
	return false, nil
}

// numberText returns the text of a number node.
// Strings holding numbers are accepted as well.
func numberText(node any, f *FormatOptions) (string, bool, error) {
	switch v := node.(type) {
	case json.Number:
		return v.String(), true, nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true, nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), true, nil
	case int64:
		return strconv.FormatInt(v, 10), true, nil
	case int:
		return strconv.Itoa(v), true, nil
	case uint64:
		return strconv.FormatUint(v, 10), true, nil
	case string:
		n, err := parseFormattedNumber(v, f)
		if err != nil {
			return "", false, err
		}
		return n.String(), true, nil
	}
	return "", false, nil
}

func (d *deserializeState) decodeBool(key string, node any, dst reflect.Value, h deserializeHints) error {
	switch v := node.(type) {
	case bool:
		dst.SetBool(v)
		return nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return wrapMappingError(TypeMismatch, dst.Type(), key, err)
		}
		dst.SetBool(b)
		return nil
	}
	if h.format != nil && (h.format.Shape == ShapeNumber || h.format.Shape == ShapeNumberInt) {
		if text, ok, _ := numberText(node, nil); ok && (text == "0" || text == "1") {
			dst.SetBool(text == "1")
			return nil
		}
	}
	return d.mismatch(dst.Type(), key, node)
}

func (d *deserializeState) decodeInt(key string, node any, dst reflect.Value, h deserializeHints) error {
	text, ok, err := numberText(node, h.format)
	if err != nil || !ok {
		return d.mismatch(dst.Type(), key, node)
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return newMappingError(TypeMismatch, dst.Type(), key, "cannot decode JSON number "+text+" into an integer")
		}
		n = int64(f)
	}
	if dst.OverflowInt(n) {
		return newMappingError(TypeMismatch, dst.Type(), key, "JSON number "+text+" overflows "+dst.Type().String())
	}
	dst.SetInt(n)
	return nil
}

func (d *deserializeState) decodeUint(key string, node any, dst reflect.Value, h deserializeHints) error {
	text, ok, err := numberText(node, h.format)
	if err != nil || !ok {
		return d.mismatch(dst.Type(), key, node)
	}
	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil || f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return newMappingError(TypeMismatch, dst.Type(), key, "cannot decode JSON number "+text+" into an unsigned integer")
		}
		n = uint64(f)
	}
	if dst.OverflowUint(n) {
		return newMappingError(TypeMismatch, dst.Type(), key, "JSON number "+text+" overflows "+dst.Type().String())
	}
	dst.SetUint(n)
	return nil
}

func (d *deserializeState) decodeFloat(key string, node any, dst reflect.Value, h deserializeHints) error {
	text, ok, err := numberText(node, h.format)
	if err != nil || !ok {
		return d.mismatch(dst.Type(), key, node)
	}
	f, err := strconv.ParseFloat(text, dst.Type().Bits())
	if err != nil || dst.OverflowFloat(f) {
		return newMappingError(TypeMismatch, dst.Type(), key, "JSON number "+text+" overflows "+dst.Type().String())
	}
	dst.SetFloat(f)
	return nil
}

// untyped converts a node into the loosely typed Go representation
// stored into interface values: map[string]any, []any, float64,
// string, bool and nil.
func (d *deserializeState) untyped(node any) any {
	switch v := node.(type) {
	case *orderedmap.OrderedMap:
		out := make(map[string]any, len(v.Keys()))
		for _, k := range v.Keys() {
			e, _ := v.Get(k)
			out[k] = d.untyped(e)
		}
		return out
	case orderedmap.OrderedMap:
		return d.untyped(&v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = d.untyped(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = d.untyped(e)
		}
		return out
	case json.RawMessage:
		tree, err := jsontree.Decode(v)
		if err != nil {
			return nil
		}
		return d.untyped(tree)
	}
	if jsontree.IsNumber(node) {
		text, _, _ := numberText(node, nil)
		if d.opts.enabled(UseNumberForUntyped) {
			return json.Number(text)
		}
		f, _ := strconv.ParseFloat(text, 64)
		return f
	}
	return node
}

func (d *deserializeState) decodeInterface(key string, node any, dst reflect.Value, h deserializeHints) error {
	t := dst.Type()
	ti, err := d.reg.typeInfoOf(t)
	if err != nil {
		return err
	}
	if isScalar(node) {
		if scopes := d.identityScopes(t, ti); len(scopes) > 0 {
			return d.resolveReference(key, node, dst, scopes)
		}
	}
	if ti != nil && !h.typeHandled {
		id, present, rest, err := ti.unwrap(node, h.external)
		if err != nil {
			return err
		}
		ct, err := ti.resolve(id, present)
		if err != nil {
			return err
		}
		return d.decodeConcrete(key, rest, dst, ct, h)
	}
	if ct := h.class.Type; ct != nil && ct != t {
		ct = h.class.Materialize()
		if ct.Kind() == reflect.Interface {
			tmp := reflect.New(ct).Elem()
			if err := d.decodeValue(key, node, tmp, h); err != nil {
				return err
			}
			return d.assignResult(key, dst, tmp.Interface())
		}
		return d.decodeConcrete(key, node, dst, normalizeClass(ct), h)
	}
	if t.NumMethod() > 0 {
		return newMappingError(TypeMismatch, t, key, "cannot determine the concrete type of a non-empty interface")
	}
	dst.Set(reflect.ValueOf(d.untyped(node)))
	return nil
}

// decodeConcrete decodes node as a ct and stores it in the interface dst.
// Classes with identity info are stored by pointer to keep them shared.
func (d *deserializeState) decodeConcrete(key string, node any, dst reflect.Value, ct reflect.Type, h deserializeHints) error {
	t := dst.Type()
	byValue := ct.Implements(t)
	if ct.Kind() == reflect.Struct {
		if info, _ := d.reg.identityOf(ct); info != nil {
			byValue = false
		}
	}
	if !byValue && !reflect.PointerTo(ct).Implements(t) {
		if !ct.Implements(t) {
			return newMappingError(TypeMismatch, t, key, ct.String()+" does not implement "+t.String())
		}
		byValue = true
	}
	p := reflect.New(ct)
	h.typeHandled = true
	if err := d.decodeValue(key, node, p.Elem(), h); err != nil {
		return err
	}
	if byValue {
		dst.Set(p.Elem())
	} else {
		dst.Set(p)
	}
	return nil
}

// identityScopes returns the identity scopes a reference to t may resolve in.
func (d *deserializeState) identityScopes(t reflect.Type, ti *typeInfo) []string {
	var scopes []string
	add := func(t reflect.Type) {
		if info, scope := d.reg.identityOf(t); info != nil && !containsString(scopes, scope) {
			scopes = append(scopes, scope)
		}
	}
	add(t)
	if ti != nil {
		for _, id := range ti.sortedIDs() {
			add(ti.types[id])
		}
	}
	return scopes
}

// resolveReference stores the instance named by the id node into dst,
// deferring the assignment while the instance is not yet known.
func (d *deserializeState) resolveReference(key string, node any, dst reflect.Value, scopes []string) error {
	for _, scope := range scopes {
		k, _ := idKey(scope, node)
		if obj, ok := d.refs.lookup(k); ok {
			return d.setReference(key, dst, obj)
		}
	}
	if len(scopes) > 1 {
		return newMappingError(ReferenceUnresolved, dst.Type(), key, "ambiguous forward reference")
	}
	k, _ := idKey(scopes[0], node)
	d.refs.await(k, d.pointer(), func(obj reflect.Value) {
		if err := d.setReference(key, dst, obj); err != nil {
			d.logger.Debug("dropped forward reference", zap.Error(err))
		}
	})
	return nil
}

func (d *deserializeState) setReference(key string, dst reflect.Value, obj reflect.Value) error {
	x := obj.Interface()
	if obj.CanAddr() {
		x = obj.Addr().Interface()
	}
	if err := assign(dst, x); err != nil {
		return newMappingError(TypeMismatch, dst.Type(), key, "object id refers to a "+obj.Type().String())
	}
	return nil
}

func (d *deserializeState) decodePointer(key string, node any, dst reflect.Value, h deserializeHints) error {
	et := dst.Type().Elem()
	if et.Kind() == reflect.Struct && isScalar(node) {
		if info, scope := d.reg.identityOf(et); info != nil {
			return d.resolveReference(key, node, dst, []string{scope})
		}
	}
	if dst.IsNil() {
		dst.Set(reflect.New(et))
	}
	return d.decodeValue(key, node, dst.Elem(), h)
}

func (d *deserializeState) decodeSlice(key string, node any, dst reflect.Value, h deserializeHints) error {
	t := dst.Type()
	if t.Elem().Kind() == reflect.Uint8 && t.Elem().Name() == "uint8" {
		if s, ok := node.(string); ok {
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return wrapMappingError(TypeMismatch, t, key, err)
			}
			dst.Set(reflect.ValueOf(b).Convert(t))
			return nil
		}
	}
	arr, ok := node.([]any)
	if !ok {
		if !d.opts.enabled(AcceptSingleValueAsArray) {
			return d.mismatch(t, key, node)
		}
		arr = []any{node}
	}
	out := reflect.MakeSlice(t, len(arr), len(arr))
	for i, e := range arr {
		if err := d.decodeAt(strconv.Itoa(i), e, out.Index(i), deserializeHints{class: h.class.elem(), format: h.format}); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

func (d *deserializeState) decodeArray(key string, node any, dst reflect.Value, h deserializeHints) error {
	t := dst.Type()
	arr, ok := node.([]any)
	if !ok {
		return d.mismatch(t, key, node)
	}
	if len(arr) > t.Len() {
		return newMappingError(TypeMismatch, t, key, "too many elements: "+strconv.Itoa(len(arr)))
	}
	for i := 0; i < t.Len(); i++ {
		if i >= len(arr) {
			dst.Index(i).Set(reflect.Zero(t.Elem()))
			continue
		}
		if err := d.decodeAt(strconv.Itoa(i), arr[i], dst.Index(i), deserializeHints{class: h.class.at(i), format: h.format}); err != nil {
			return err
		}
	}
	return nil
}

// asObject returns node as an ordered object.
func asObject(node any) (*orderedmap.OrderedMap, bool) {
	switch v := node.(type) {
	case *orderedmap.OrderedMap:
		return v, v != nil
	case orderedmap.OrderedMap:
		return &v, true
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := orderedmap.New()
		for _, k := range keys {
			out.Set(k, v[k])
		}
		return out, true
	}
	return nil, false
}

func (d *deserializeState) decodeMap(key string, node any, dst reflect.Value, h deserializeHints) error {
	t := dst.Type()
	obj, ok := asObject(node)
	if !ok {
		return d.mismatch(t, key, node)
	}
	m := reflect.MakeMapWithSize(t, len(obj.Keys()))
	for _, k := range obj.Keys() {
		kv := reflect.New(t.Key()).Elem()
		if err := parseMapKey(k, kv); err != nil {
			return withPointer(err, k)
		}
		ev := reflect.New(t.Elem()).Elem()
		val, _ := obj.Get(k)
		before := d.refs.numPending()
		if err := d.decodeAt(k, val, ev, deserializeHints{class: h.class.elem(), format: h.format}); err != nil {
			return err
		}
		m.SetMapIndex(kv, ev)
		if d.refs.numPending() > before {
			// Map entries are copies; store them again once resolved.
			d.refs.after = append(d.refs.after, func() { m.SetMapIndex(kv, ev) })
		}
	}
	dst.Set(m)
	return nil
}

func (d *deserializeState) decodeSet(key string, node any, dst reflect.Value, h deserializeHints) error {
	t := dst.Type()
	arr, ok := node.([]any)
	if !ok {
		if !d.opts.enabled(AcceptSingleValueAsArray) {
			return d.mismatch(t, key, node)
		}
		arr = []any{node}
	}
	m := reflect.MakeMapWithSize(t, len(arr))
	present := reflect.Zero(t.Elem())
	for i, e := range arr {
		ev := reflect.New(t.Key()).Elem()
		if err := d.decodeAt(strconv.Itoa(i), e, ev, deserializeHints{class: h.class.elem(), format: h.format}); err != nil {
			return err
		}
		if !ev.Comparable() {
			return newMappingError(TypeMismatch, t, strconv.Itoa(i), "set element is not comparable")
		}
		m.SetMapIndex(ev, present)
	}
	dst.Set(m)
	return nil
}

// parseMapKey decodes an object name into the map key kv.
func parseMapKey(k string, kv reflect.Value) error {
	t := kv.Type()
	if t.Kind() != reflect.String {
		if u, ok := kv.Addr().Interface().(encoding.TextUnmarshaler); ok {
			if err := u.UnmarshalText([]byte(k)); err != nil {
				return wrapMappingError(TypeMismatch, t, k, err)
			}
			return nil
		}
	}
	fail := func(err error) error {
		if err == nil {
			return newMappingError(TypeMismatch, t, k, "map key overflows "+t.String())
		}
		return wrapMappingError(TypeMismatch, t, k, err)
	}
	switch t.Kind() {
	case reflect.String:
		kv.SetString(k)
	case reflect.Interface:
		if t.NumMethod() > 0 {
			return newMappingError(TypeMismatch, t, k, "unsupported map key type")
		}
		kv.Set(reflect.ValueOf(k))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(k, 10, 64)
		if err != nil || kv.OverflowInt(n) {
			return fail(err)
		}
		kv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(k, 10, 64)
		if err != nil || kv.OverflowUint(n) {
			return fail(err)
		}
		kv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(k, t.Bits())
		if err != nil {
			return fail(err)
		}
		kv.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(k)
		if err != nil {
			return fail(err)
		}
		kv.SetBool(b)
	default:
		return newMappingError(TypeMismatch, t, k, "unsupported map key type")
	}
	return nil
}
