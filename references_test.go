// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Parent struct {
	Name     string
	Children []*Child `jackson:"children,managed"`
}

type Child struct {
	Name   string
	Parent *Parent `jackson:",back"`
}

type Team struct {
	Name    string
	Members []*Member
}

type Member struct {
	Name string
	Team *Team
}

func TestReferencesRoundTrip(t *testing.T) {
	m := newTestMapper(t, nil)
	p := &Parent{Name: "p"}
	p.Children = []*Child{{Name: "c1", Parent: p}, {Name: "c2", Parent: p}}

	got := mustStringify(t, m, p)
	assert.Equal(t, `{"name":"p","children":[{"name":"c1"},{"name":"c2"}]}`, got)

	back, err := UnmarshalWith[*Parent](m, []byte(got))
	require.NoError(t, err)
	require.Len(t, back.Children, 2)
	for _, c := range back.Children {
		assert.Same(t, back, c.Parent)
	}
}

func TestReferencesDecorators(t *testing.T) {
	m := newTestMapper(t, func(r *Registry) {
		r.MustAnnotate(FieldOf[Team]("Members"), JsonManagedReference(ReferenceOptions{Value: "team"}))
		r.MustAnnotate(FieldOf[Member]("Team"), JsonBackReference(ReferenceOptions{Value: "team"}))
	})
	require.NoError(t, m.Registry().Validate())

	team := &Team{Name: "t"}
	team.Members = []*Member{{Name: "m", Team: team}}
	got := mustStringify(t, m, team)
	assert.Equal(t, `{"name":"t","members":[{"name":"m"}]}`, got)

	back, err := UnmarshalWith[Team](m, []byte(got))
	require.NoError(t, err)
	require.Len(t, back.Members, 1)
	assert.Equal(t, "t", back.Members[0].Team.Name)
}

func TestReferencesValidate(t *testing.T) {
	tests := []struct {
		name   string
		define func(r *Registry)
		want   error
	}{{
		name: "MissingBackReference",
		define: func(r *Registry) {
			r.MustAnnotate(FieldOf[Team]("Members"), JsonManagedReference())
		},
		want: ReferenceUnresolved,
	}, {
		name: "MismatchedName",
		define: func(r *Registry) {
			r.MustAnnotate(FieldOf[Team]("Members"), JsonManagedReference(ReferenceOptions{Value: "a"}))
			r.MustAnnotate(FieldOf[Member]("Team"), JsonBackReference(ReferenceOptions{Value: "b"}))
		},
		want: ReferenceUnresolved,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			tt.define(r)
			assert.ErrorIs(t, r.Validate(), tt.want)
		})
	}
}

func TestReferencesUnpaired(t *testing.T) {
	m := newTestMapper(t, func(r *Registry) {
		r.MustAnnotate(FieldOf[Team]("Members"), JsonManagedReference())
	})
	team := &Team{Name: "t"}
	team.Members = []*Member{{Name: "m"}}

	_, err := m.Stringify(team)
	assert.ErrorIs(t, err, ReferenceUnresolved)

	_, err = UnmarshalWith[Team](m, []byte(`{"name":"t","members":[{"name":"m"}]}`))
	assert.ErrorIs(t, err, ReferenceUnresolved)

	// The check is made once and reported on every call.
	_, err = m.Stringify(Team{})
	assert.ErrorIs(t, err, ReferenceUnresolved)

	// Classes without managed references are unaffected.
	got, err := m.Stringify(Member{Name: "m"})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"m","team":null}`, got)
}

type Folder struct {
	Name  string
	files []*File
}

func (f *Folder) Files() []*File      { return f.files }
func (f *Folder) SetFiles(fs []*File) { f.files = fs }

type File struct {
	Name   string
	Folder *Folder `jackson:",back"`
}

func TestReferencesAccessor(t *testing.T) {
	m := newTestMapper(t, func(r *Registry) {
		r.MustAnnotate(AccessorOf[Folder]("Files"), JsonManagedReference())
	})
	require.NoError(t, m.Registry().Validate())

	f := &Folder{Name: "docs"}
	f.SetFiles([]*File{{Name: "a", Folder: f}, {Name: "b", Folder: f}})
	got := mustStringify(t, m, f)
	assert.NotContains(t, got, `"folder"`)

	back, err := UnmarshalWith[*Folder](m, []byte(got))
	require.NoError(t, err)
	require.Len(t, back.Files(), 2)
	for _, c := range back.Files() {
		assert.Same(t, back, c.Folder)
	}
}
