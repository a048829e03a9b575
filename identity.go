// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"encoding/json"
	"reflect"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"go.uber.org/zap"
)

// identityScope returns the scope partitioning the ids of the classes
// sharing the identity info declared on base.
func identityScope(o *IdentityInfoOptions, base reflect.Type) string {
	if o.Scope != "" {
		return o.Scope
	}
	return qualifiedName(base)
}

type instanceKey struct {
	scope string
	typ   reflect.Type
	ptr   uintptr
}

// objectIDs tracks the ids assigned while serializing.
type objectIDs struct {
	ids map[instanceKey]any
	seq map[string]int64
}

// instanceKeyOf identifies the instance held by v.
// It reports false for values that have no address and so cannot be shared.
func instanceKeyOf(scope string, v reflect.Value) (instanceKey, bool) {
	switch {
	case v.Kind() == reflect.Pointer && !v.IsNil():
		return instanceKey{scope, v.Type().Elem(), v.Pointer()}, true
	case v.CanAddr():
		return instanceKey{scope, v.Type(), v.Addr().Pointer()}, true
	}
	return instanceKey{}, false
}

// lookup returns the id assigned to the instance, if any.
func (o *objectIDs) lookup(k instanceKey) (any, bool) {
	id, ok := o.ids[k]
	return id, ok
}

func (o *objectIDs) store(k instanceKey, id any) {
	if o.ids == nil {
		o.ids = make(map[instanceKey]any)
	}
	o.ids[k] = id
}

// generate produces a new id for obj.
// PropertyGenerator ids are read by the caller.
func (o *objectIDs) generate(info *IdentityInfoOptions, scope string, obj reflect.Value) (any, error) {
	if info.Func != nil {
		var arg any
		if obj.IsValid() && obj.CanInterface() {
			arg = obj.Interface()
		}
		return info.Func(arg), nil
	}
	if o.seq == nil {
		o.seq = make(map[string]int64)
	}
	o.seq[scope]++
	n := o.seq[scope]
	switch info.Generator {
	case IntSequenceGenerator:
		return n, nil
	case UUIDv1Generator:
		u, err := uuid.NewUUID()
		if err != nil {
			return nil, err
		}
		return u.String(), nil
	case UUIDv3Generator:
		return uuid.NewMD5(namespaceOf(info), nameOf(info, scope, n)).String(), nil
	case UUIDv4Generator:
		u, err := uuid.NewRandom()
		if err != nil {
			return nil, err
		}
		return u.String(), nil
	case UUIDv5Generator:
		return uuid.NewSHA1(namespaceOf(info), nameOf(info, scope, n)).String(), nil
	case XIDGenerator:
		return xid.New().String(), nil
	}
	return nil, newMappingError(TypeMismatch, obj.Type(), info.Property, "unsupported object id generator "+strconv.Itoa(int(info.Generator)))
}

func namespaceOf(info *IdentityInfoOptions) uuid.UUID {
	if info.Namespace == uuid.Nil {
		return uuid.NameSpaceURL
	}
	return info.Namespace
}

// nameOf is the name hashed into v3 and v5 UUIDs.
// The sequence number keeps ids of distinct instances apart.
func nameOf(info *IdentityInfoOptions, scope string, n int64) []byte {
	name := info.Name
	if name == "" {
		name = scope
	}
	return strconv.AppendInt(append([]byte(name), '#'), n, 10)
}

// idKey canonicalizes an id node for lookup.
func idKey(scope string, node any) (string, bool) {
	var id string
	switch v := node.(type) {
	case string:
		id = "s" + v
	case json.Number:
		id = "n" + v.String()
	case int64:
		id = "n" + strconv.FormatInt(v, 10)
	case float64:
		id = "n" + strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return "", false
	}
	return scope + "\x00" + id, true
}

// idNode converts a generated or property id into a tree node.
func idNode(id any) any {
	switch v := id.(type) {
	case int64:
		return json.Number(strconv.FormatInt(v, 10))
	case int:
		return json.Number(strconv.Itoa(v))
	case uuid.UUID:
		return v.String()
	case xid.ID:
		return v.String()
	}
	return id
}

type pendingRef struct {
	key     string
	pointer string
	set     func(target reflect.Value)
}

// references resolves object ids while deserializing.
type references struct {
	logger  *zap.Logger
	objects map[string]reflect.Value // addressable instances by id key
	pending map[string][]pendingRef
	order   []string // pending keys in first seen order
	after   []func() // run once all references are resolved
}

// register records the instance v under key and fixes up pending references.
func (r *references) register(key string, v reflect.Value) {
	if r.objects == nil {
		r.objects = make(map[string]reflect.Value)
	}
	r.objects[key] = v
	if refs, ok := r.pending[key]; ok {
		delete(r.pending, key)
		r.logger.Debug("resolved forward references", zap.String("id", key), zap.Int("count", len(refs)))
		for _, p := range refs {
			p.set(v)
		}
	}
}

func (r *references) lookup(key string) (reflect.Value, bool) {
	v, ok := r.objects[key]
	return v, ok
}

// await records a forward reference to key.
func (r *references) await(key, pointer string, set func(reflect.Value)) {
	if r.pending == nil {
		r.pending = make(map[string][]pendingRef)
	}
	if _, ok := r.pending[key]; !ok {
		r.order = append(r.order, key)
	}
	r.pending[key] = append(r.pending[key], pendingRef{key, pointer, set})
	r.logger.Debug("deferred forward reference", zap.String("id", key), zap.String("pointer", pointer))
}

// numPending reports the number of unresolved references.
func (r *references) numPending() int {
	n := 0
	for _, refs := range r.pending {
		n += len(refs)
	}
	return n
}

// finish runs the deferred callbacks and reports the first unresolved reference.
func (r *references) finish() *pendingRef {
	for _, f := range r.after {
		f()
	}
	for _, key := range r.order {
		if refs, ok := r.pending[key]; ok && len(refs) > 0 {
			return &refs[0]
		}
	}
	return nil
}
