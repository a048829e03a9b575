// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTagOptions(t *testing.T) {
	tests := []struct {
		name     string
		in       any // must be a struct with a single field
		wantOpts tagOptions
		wantErr  error
	}{{
		name: "NoTag",
		in: struct {
			FieldName int
		}{},
	}, {
		name: "Name",
		in: struct {
			V int `jackson:"first_name"`
		}{},
		wantOpts: tagOptions{name: "first_name"},
	}, {
		name: "QuotedName",
		in: struct {
			V int `jackson:"'first,name'"`
		}{},
		wantOpts: tagOptions{name: "first,name"},
	}, {
		name: "JSONName",
		in: struct {
			V int `json:"v_name,omitempty"`
		}{},
		wantOpts: tagOptions{jsonName: "v_name", omitempty: true},
	}, {
		name: "BothTags",
		in: struct {
			V int `json:"a" jackson:"b,required"`
		}{},
		wantOpts: tagOptions{name: "b", jsonName: "a", required: true},
	}, {
		name: "Ignored",
		in: struct {
			V int `jackson:"-"`
		}{},
		wantErr: errIgnoredField,
	}, {
		name: "IgnoredByJSON",
		in: struct {
			V int `json:"-"`
		}{},
		wantErr: errIgnoredField,
	}, {
		name: "Unexported",
		in: struct {
			v int
		}{},
		wantErr: errIgnoredField,
	}, {
		name: "UnexportedTagged",
		in: struct {
			v int `jackson:"v"`
		}{},
		wantErr: errors.New("unexported Go struct field v cannot have non-ignored `jackson:\"v\"` tag"),
	}, {
		name: "AllFlags",
		in: struct {
			V int `jackson:",required,omitnull,omitempty,omitdefault,readonly,raw"`
		}{},
		wantOpts: tagOptions{required: true, omitnull: true, omitempty: true, omitdefault: true, readonly: true, raw: true},
	}, {
		name: "Aliases",
		in: struct {
			V int `jackson:"v,alias=a|b"`
		}{},
		wantOpts: tagOptions{name: "v", aliases: []string{"a", "b"}},
	}, {
		name: "Prefix",
		in: struct {
			V int `jackson:",prefix=home_,suffix='_x'"`
		}{},
		wantOpts: tagOptions{prefix: "home_", suffix: "_x", unwrapped: true},
	}, {
		name: "References",
		in: struct {
			V int `jackson:",managed,format=2006"`
		}{},
		wantOpts: tagOptions{managed: defaultReferenceName, format: "2006"},
	}, {
		name: "NamedBackReference",
		in: struct {
			V int `jackson:",back=owner"`
		}{},
		wantOpts: tagOptions{back: "owner"},
	}, {
		name: "MissingValue",
		in: struct {
			V int `jackson:",alias"`
		}{},
		wantErr: errors.New("Go struct field V is missing value for `jackson` tag option alias"),
	}, {
		name: "UnknownOption",
		in: struct {
			V int `jackson:",bogus"`
		}{},
		wantErr: errors.New("Go struct field V has unknown `jackson` tag option bogus"),
	}, {
		name: "MisspelledOption",
		in: struct {
			V int `jackson:",omit_empty"`
		}{},
		wantErr: errors.New("Go struct field V has invalid appearance of `jackson` tag option omit_empty; specify omitempty instead"),
	}, {
		name: "DuplicateOption",
		in: struct {
			V int `jackson:",raw,raw"`
		}{},
		wantErr: errors.New("Go struct field V has duplicate appearance of `jackson` tag option raw"),
	}, {
		name: "MissingComma",
		in: struct {
			V int `jackson:"'v'raw"`
		}{},
		wantErr: errors.New("Go struct field V has malformed `jackson` tag: invalid character 'r' before next option (expecting ',')"),
	}, {
		name: "ReadWrite",
		in: struct {
			V int `jackson:",readonly,writeonly"`
		}{},
		wantErr: errors.New("Go struct field V cannot be both readonly and writeonly"),
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := reflect.TypeOf(tt.in).Field(0)
			gotOpts, gotErr := parseTagOptions(fs)
			assert.Equal(t, tt.wantOpts, gotOpts)
			if tt.wantErr == nil {
				assert.NoError(t, gotErr)
			} else {
				assert.EqualError(t, gotErr, tt.wantErr.Error())
			}
		})
	}
}

func TestLowerCamel(t *testing.T) {
	tests := []struct{ in, want string }{
		{"FirstName", "firstName"},
		{"ID", "id"},
		{"JSON", "json"},
		{"URLPath", "urlPath"},
		{"name", "name"},
		{"X", "x"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lowerCamel(tt.in), "lowerCamel(%q)", tt.in)
	}
}
