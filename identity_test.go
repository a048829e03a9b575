// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/iancoleman/orderedmap"
	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Tag struct {
	Code  string
	Label string
}

func nodeIdentity(o IdentityInfoOptions) func(r *Registry) {
	return func(r *Registry) { r.MustAnnotate(ClassOf[Node](), JsonIdentityInfo(o)) }
}

func TestIdentityCycle(t *testing.T) {
	m := newTestMapper(t, nodeIdentity(IdentityInfoOptions{Property: "id"}))
	a := &Node{Name: "a"}
	a.Next = &Node{Name: "b", Next: a}

	got := mustStringify(t, m, a)
	assert.Equal(t, `{"id":1,"name":"a","next":{"id":2,"name":"b","next":1}}`, got)

	back, err := UnmarshalWith[*Node](m, []byte(got))
	require.NoError(t, err)
	require.NotNil(t, back.Next)
	assert.Equal(t, "a", back.Name)
	assert.Equal(t, "b", back.Next.Name)
	assert.Same(t, back, back.Next.Next)
}

func TestIdentityDefaultProperty(t *testing.T) {
	m := newTestMapper(t, nodeIdentity(IdentityInfoOptions{}))
	n := &Node{Name: "a"}
	assert.Equal(t, `[{"@id":1,"name":"a","next":null},1]`, mustStringify(t, m, []*Node{n, n}))
}

func TestIdentityForwardReference(t *testing.T) {
	m := newTestMapper(t, nodeIdentity(IdentityInfoOptions{Property: "id"}))
	in := `[2,{"id":1,"name":"a"},{"id":2,"name":"b","next":1}]`
	got, err := UnmarshalWith[[]*Node](m, []byte(in))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Same(t, got[2], got[0])
	assert.Same(t, got[1], got[2].Next)
	assert.Nil(t, got[1].Next)
}

func TestIdentityValueSlots(t *testing.T) {
	m := newTestMapper(t, nodeIdentity(IdentityInfoOptions{Property: "id"}))
	got, err := UnmarshalWith[[]Node](m, []byte(`[{"id":1,"name":"a","next":null},1]`))
	require.NoError(t, err)
	require.Len(t, got, 2)
	// A value slot holds a copy of the identified instance.
	assert.Equal(t, got[0], got[1])
	assert.NotSame(t, &got[0], &got[1])
}

func TestIdentityErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		opts    []Option
		wantErr error
		wantPtr string
	}{{
		name:    "Unresolved",
		in:      `[5]`,
		wantErr: ReferenceUnresolved,
		wantPtr: "/0",
	}, {
		name: "UnresolvedAllowed",
		in:   `[5]`,
		opts: []Option{Disable(FailOnUnresolvedObjectIDs)},
	}, {
		name:    "UnresolvedNested",
		in:      `[{"id":1,"name":"a","next":7}]`,
		wantErr: ReferenceUnresolved,
		wantPtr: "/0/next",
	}, {
		name:    "DuplicateID",
		in:      `[{"id":1,"name":"a"},{"id":1,"name":"b"}]`,
		wantErr: DuplicateDefinition,
	}, {
		name:    "InvalidID",
		in:      `[{"id":true,"name":"a"}]`,
		wantErr: TypeMismatch,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMapper(t, nodeIdentity(IdentityInfoOptions{Property: "id"}))
			_, err := UnmarshalWith[[]*Node](m, []byte(tt.in), tt.opts...)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantPtr != "" {
				var me *MappingError
				require.ErrorAs(t, err, &me)
				assert.Equal(t, tt.wantPtr, me.Pointer)
			}
		})
	}
}

func TestIdentityPropertyGenerator(t *testing.T) {
	m := newTestMapper(t, func(r *Registry) {
		r.MustAnnotate(ClassOf[Tag](), JsonIdentityInfo(IdentityInfoOptions{Generator: PropertyGenerator, Property: "code"}))
	})
	tag := &Tag{Code: "x", Label: "X"}
	got := mustStringify(t, m, []*Tag{tag, tag})
	assert.Equal(t, `[{"code":"x","label":"X"},"x"]`, got)

	back, err := UnmarshalWith[[]*Tag](m, []byte(got))
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, *tag, *back[0])
	assert.Same(t, back[0], back[1])
}

// firstID serializes a single node and returns its object id.
func firstID(t *testing.T, m *ObjectMapper) any {
	t.Helper()
	tree, err := m.Serialize(&Node{Name: "a"})
	require.NoError(t, err)
	obj, ok := tree.(*orderedmap.OrderedMap)
	require.True(t, ok)
	id, ok := obj.Get("id")
	require.True(t, ok)
	return id
}

func TestIdentityGenerators(t *testing.T) {
	scope := qualifiedName(reflect.TypeOf(Node{}))
	tests := []struct {
		name  string
		opts  IdentityInfoOptions
		check func(t *testing.T, id any)
	}{{
		name: "UUIDv1",
		opts: IdentityInfoOptions{Generator: UUIDv1Generator},
		check: func(t *testing.T, id any) {
			u, err := uuid.Parse(id.(string))
			require.NoError(t, err)
			assert.Equal(t, uuid.Version(1), u.Version())
		},
	}, {
		name: "UUIDv3",
		opts: IdentityInfoOptions{Generator: UUIDv3Generator, Name: "nodes"},
		check: func(t *testing.T, id any) {
			assert.Equal(t, uuid.NewMD5(uuid.NameSpaceURL, []byte("nodes#1")).String(), id)
		},
	}, {
		name: "UUIDv4",
		opts: IdentityInfoOptions{Generator: UUIDv4Generator},
		check: func(t *testing.T, id any) {
			u, err := uuid.Parse(id.(string))
			require.NoError(t, err)
			assert.Equal(t, uuid.Version(4), u.Version())
		},
	}, {
		name: "UUIDv5",
		opts: IdentityInfoOptions{Generator: UUIDv5Generator},
		check: func(t *testing.T, id any) {
			assert.Equal(t, uuid.NewSHA1(uuid.NameSpaceURL, []byte(scope+"#1")).String(), id)
		},
	}, {
		name: "UUIDv5Namespace",
		opts: IdentityInfoOptions{Generator: UUIDv5Generator, Namespace: uuid.NameSpaceOID, Scope: "graph"},
		check: func(t *testing.T, id any) {
			assert.Equal(t, uuid.NewSHA1(uuid.NameSpaceOID, []byte("graph#1")).String(), id)
		},
	}, {
		name: "XID",
		opts: IdentityInfoOptions{Generator: XIDGenerator},
		check: func(t *testing.T, id any) {
			_, err := xid.FromString(id.(string))
			assert.NoError(t, err)
		},
	}, {
		name: "Func",
		opts: IdentityInfoOptions{Func: func(obj any) any { return "node-" + obj.(Node).Name }},
		check: func(t *testing.T, id any) {
			assert.Equal(t, "node-a", id)
		},
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Property = "id"
			m := newTestMapper(t, nodeIdentity(tt.opts))
			tt.check(t, firstID(t, m))
		})
	}
}

func TestIdentityGeneratedRoundTrip(t *testing.T) {
	m := newTestMapper(t, nodeIdentity(IdentityInfoOptions{Generator: UUIDv4Generator, Property: "id"}))
	a := &Node{Name: "a"}
	a.Next = a
	got := mustStringify(t, m, a)

	back, err := UnmarshalWith[*Node](m, []byte(got))
	require.NoError(t, err)
	assert.Same(t, back, back.Next)
}
