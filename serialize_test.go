// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/iancoleman/orderedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Money struct {
	Amount   int
	Currency string
}

func (m Money) String() string { return fmt.Sprintf("%d %s", m.Amount, m.Currency) }

type Thermometer struct {
	celsius float64
}

func (t *Thermometer) Celsius() float64     { return t.celsius }
func (t *Thermometer) SetCelsius(c float64) { t.celsius = c }

type Secret struct {
	Key string
}

type Vault struct {
	Name   string
	Secret Secret
}

type Bag struct {
	Name  string
	Extra map[string]any
}

type Loop struct {
	Name string
	Next *Loop
}

type Event struct {
	At      time.Time
	Timeout time.Duration
	Blob    []byte
}

type Tagged struct {
	ID       int    `jackson:"id,readonly"`
	Nick     string `json:"nick,omitempty"`
	Password string `jackson:"-"`
	Note     string `jackson:",omitnull"`
	Ptr      *int   `jackson:"ptr,omitnull"`
}

func TestSerialize(t *testing.T) {
	ann := Person{Name: "Ann", Age: 30}
	tests := []struct {
		name    string
		define  func(r *Registry)
		in      any
		opts    []Option
		want    string
		wantErr error
	}{{
		name: "Default",
		in:   ann,
		want: `{"name":"Ann","age":30,"email":""}`,
	}, {
		name: "Pointer",
		in:   &ann,
		want: `{"name":"Ann","age":30,"email":""}`,
	}, {
		name: "Rename",
		define: func(r *Registry) {
			r.MustAnnotate(FieldOf[Person]("Name"), JsonProperty(PropertyOptions{Value: "full_name"}))
		},
		in:   ann,
		want: `{"full_name":"Ann","age":30,"email":""}`,
	}, {
		name: "PropertyOrder",
		define: func(r *Registry) {
			r.MustAnnotate(ClassOf[Person](), JsonPropertyOrder(PropertyOrderOptions{Value: []string{"email", "Age"}}))
		},
		in:   ann,
		want: `{"email":"","age":30,"name":"Ann"}`,
	}, {
		name: "PropertyOrderAlphabetic",
		define: func(r *Registry) {
			r.MustAnnotate(ClassOf[Person](), JsonPropertyOrder(PropertyOrderOptions{Alphabetic: true}))
		},
		in:   ann,
		want: `{"age":30,"email":"","name":"Ann"}`,
	}, {
		name: "SortPropertiesAlphabetically",
		in:   ann,
		opts: []Option{Enable(SortPropertiesAlphabetically)},
		want: `{"age":30,"email":"","name":"Ann"}`,
	}, {
		name: "IncludeNonEmptyClass",
		define: func(r *Registry) {
			r.MustAnnotate(ClassOf[Person](), JsonInclude(IncludeOptions{Value: IncludeNonEmpty}))
		},
		in:   ann,
		want: `{"name":"Ann","age":30}`,
	}, {
		name: "IncludeNonDefaultProperty",
		define: func(r *Registry) {
			r.MustAnnotate(FieldOf[Person]("Age"), JsonInclude(IncludeOptions{Value: IncludeNonDefault}))
		},
		in:   Person{Name: "Bob"},
		want: `{"name":"Bob","email":""}`,
	}, {
		name: "IncludeNonDefaultDeclared",
		define: func(r *Registry) {
			r.MustAnnotate(FieldOf[Person]("Age"),
				JsonProperty(PropertyOptions{Default: 18}),
				JsonInclude(IncludeOptions{Value: IncludeNonDefault}))
		},
		in:   Person{Name: "Bob", Age: 18},
		want: `{"name":"Bob","email":""}`,
	}, {
		name: "Ignore",
		define: func(r *Registry) {
			r.MustAnnotate(FieldOf[Person]("Email"), JsonIgnore())
		},
		in:   ann,
		want: `{"name":"Ann","age":30}`,
	}, {
		name: "IgnoreProperties",
		define: func(r *Registry) {
			r.MustAnnotate(ClassOf[Person](), JsonIgnoreProperties(IgnorePropertiesOptions{Value: []string{"age"}}))
		},
		in:   ann,
		want: `{"name":"Ann","email":""}`,
	}, {
		name: "IgnorePropertiesAllowGetters",
		define: func(r *Registry) {
			r.MustAnnotate(ClassOf[Person](), JsonIgnoreProperties(IgnorePropertiesOptions{Value: []string{"age"}, AllowGetters: true}))
		},
		in:   ann,
		want: `{"name":"Ann","age":30,"email":""}`,
	}, {
		name: "WriteOnly",
		define: func(r *Registry) {
			r.MustAnnotate(FieldOf[Person]("Email"), JsonProperty(PropertyOptions{Access: AccessWriteOnly}))
		},
		in:   ann,
		want: `{"name":"Ann","age":30}`,
	}, {
		name: "IgnoreType",
		define: func(r *Registry) {
			r.MustAnnotate(ClassOf[Secret](), JsonIgnoreType())
		},
		in:   Vault{Name: "v", Secret: Secret{Key: "k"}},
		want: `{"name":"v"}`,
	}, {
		name: "Tags",
		in:   Tagged{ID: 7, Password: "p"},
		want: `{"id":7,"note":""}`,
	}, {
		name: "TagsPresent",
		in:   Tagged{ID: 7, Nick: "n", Ptr: new(int)},
		want: `{"id":7,"nick":"n","note":"","ptr":0}`,
	}, {
		name: "Accessors",
		in:   &Thermometer{celsius: 21.5},
		want: `{"celsius":21.5}`,
	}, {
		name: "ValueMethod",
		define: func(r *Registry) {
			r.MustAnnotate(MethodOf[Money]("String"), JsonValue())
		},
		in:   []Money{{5, "EUR"}},
		want: `["5 EUR"]`,
	}, {
		name: "ValueField",
		define: func(r *Registry) {
			r.MustAnnotate(FieldOf[Money]("Amount"), JsonValue())
		},
		in:   Money{5, "EUR"},
		want: `5`,
	}, {
		name: "AnyGetter",
		define: func(r *Registry) {
			r.MustAnnotate(FieldOf[Bag]("Extra"), JsonAnyGetter())
		},
		in:   Bag{Name: "b", Extra: map[string]any{"z": 1, "a": true, "name": "shadowed"}},
		want: `{"name":"b","a":true,"z":1}`,
	}, {
		name: "Unwrapped",
		define: func(r *Registry) {
			r.MustAnnotate(FieldOf[Employee]("Address"), JsonUnwrapped(UnwrappedOptions{Prefix: "home_"}))
		},
		in:   Employee{Name: "E", Address: Address{"Main", "Oslo"}},
		want: `{"name":"E","home_street":"Main","home_city":"Oslo"}`,
	}, {
		name: "PropertySerializer",
		define: func(r *Registry) {
			r.MustAnnotate(FieldOf[Person]("Age"), JsonSerialize(SerializeOptions{
				Using: func(v any) (any, error) { return fmt.Sprintf("%d years", v), nil },
			}))
		},
		in:   ann,
		want: `{"name":"Ann","age":"30 years","email":""}`,
	}, {
		name: "ClassSerializer",
		define: func(r *Registry) {
			r.MustAnnotate(ClassOf[Money](), JsonSerialize(SerializeOptions{
				Using: func(v any) (any, error) {
					m := v.(Money)
					return Money{m.Amount * 100, "cents"}, nil
				},
			}))
		},
		in:   Money{2, "EUR"},
		want: `{"amount":200,"currency":"cents"}`,
	}, {
		name: "ClassSerializerSkip",
		define: func(r *Registry) {
			r.MustAnnotate(ClassOf[Money](), JsonSerialize(SerializeOptions{
				Using: func(any) (any, error) { return nil, ErrSkip },
			}))
		},
		in:   Money{2, "EUR"},
		want: `{"amount":2,"currency":"EUR"}`,
	}, {
		name: "MapSorted",
		in:   map[string]int{"b": 2, "a": 1, "c": 3},
		want: `{"a":1,"b":2,"c":3}`,
	}, {
		name: "MapIntKeys",
		in:   map[int]string{10: "x", 2: "y"},
		want: `{"10":"x","2":"y"}`,
	}, {
		name: "Set",
		in:   NewSet("b", "a"),
		want: `["a","b"]`,
	}, {
		name: "SingleElemArrayUnwrapped",
		in:   []int{7},
		opts: []Option{Enable(WriteSingleElemArraysUnwrapped)},
		want: `7`,
	}, {
		name: "TimeAndBytes",
		in:   Event{At: time.UnixMilli(1500).UTC(), Timeout: 1500 * time.Millisecond, Blob: []byte("hi")},
		want: `{"at":1500,"timeout":"1.5s","blob":"aGk="}`,
	}, {
		name: "TimeAsString",
		in:   Event{At: time.UnixMilli(1000).UTC()},
		opts: []Option{Disable(WriteDatesAsTimestamps), Enable(WriteDurationsAsTimestamps)},
		want: `{"at":"1970-01-01T00:00:01Z","timeout":0,"blob":null}`,
	}, {
		name: "TimeFormatOption",
		in:   Event{At: time.UnixMilli(0).UTC()},
		opts: []Option{Disable(WriteDatesAsTimestamps), WithFormat("DateOnly")},
		want: `{"at":"1970-01-01","timeout":"0s","blob":null}`,
	}, {
		name: "RootWrap",
		define: func(r *Registry) {
			r.MustAnnotate(ClassOf[Person](), JsonRootName(RootNameOptions{Value: "person"}))
		},
		in:   ann,
		opts: []Option{Enable(WrapRootValue)},
		want: `{"person":{"name":"Ann","age":30,"email":""}}`,
	}, {
		name: "RootWrapTypeName",
		in:   &Address{"Main", "Oslo"},
		opts: []Option{Enable(WrapRootValue)},
		want: `{"Address":{"street":"Main","city":"Oslo"}}`,
	}, {
		name: "OrderedMap",
		in: func() *orderedmap.OrderedMap {
			om := orderedmap.New()
			om.Set("z", 1)
			om.Set("a", []any{"x"})
			return om
		}(),
		want: `{"z":1,"a":["x"]}`,
	}, {
		name:    "EmptyBean",
		in:      struct{}{},
		opts:    []Option{Enable(FailOnEmptyBeans)},
		wantErr: TypeMismatch,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMapper(t, tt.define)
			got, err := m.Stringify(tt.in, tt.opts...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, got)
			assert.Equal(t, tt.want, got, "member order")
		})
	}
}

func TestSerializeViews(t *testing.T) {
	define := func(r *Registry) {
		r.MustAnnotate(FieldOf[Person]("Name"), JsonView(ViewOptions{Value: []reflect.Type{typeOf[PublicView]()}}))
		r.MustAnnotate(FieldOf[Person]("Email"), JsonView(ViewOptions{Value: []reflect.Type{typeOf[InternalView]()}}))
	}
	p := Person{Name: "Ann", Age: 30, Email: "a@x"}
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{"NoView", nil, `{"name":"Ann","age":30,"email":"a@x"}`},
		{"Public", []Option{WithViewOf[PublicView]()}, `{"name":"Ann","age":30}`},
		{"Internal", []Option{WithViewOf[InternalView]()}, `{"name":"Ann","age":30,"email":"a@x"}`},
		{"PublicExplicitOnly", []Option{WithViewOf[PublicView](), Disable(DefaultViewInclusion)}, `{"name":"Ann"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMapper(t, define)
			assert.Equal(t, tt.want, mustStringify(t, m, p, tt.opts...))
		})
	}
}

func TestSerializeCycles(t *testing.T) {
	a := &Loop{Name: "a"}
	a.Next = a

	m := newTestMapper(t, nil)
	_, err := m.Stringify(a)
	require.ErrorIs(t, err, Circularity)
	var me *MappingError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "/next", me.Pointer)

	assert.Equal(t, `{"name":"a","next":null}`, mustStringify(t, m, a, Enable(WriteSelfReferencesAsNull)))
	assert.Equal(t, `{"name":"a","next":null}`, mustStringify(t, m, a, Disable(FailOnSelfReferences)))

	// Shared but acyclic pointers are not cycles.
	shared := &Address{"Main", "Oslo"}
	got := mustStringify(t, m, []*Address{shared, shared})
	assert.Equal(t, `[{"street":"Main","city":"Oslo"},{"street":"Main","city":"Oslo"}]`, got)
}

func TestSerializeRawValue(t *testing.T) {
	type Wrapper struct {
		JSON string
	}
	tests := []struct {
		name    string
		in      Wrapper
		want    string
		wantErr error
	}{
		{"Array", Wrapper{"[1,2]"}, `{"json":[1,2]}`, nil},
		{"Object", Wrapper{`{"a":null}`}, `{"json":{"a":null}}`, nil},
		{"Empty", Wrapper{""}, `{"json":null}`, nil},
		{"Invalid", Wrapper{"[1,"}, "", TypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMapper(t, func(r *Registry) {
				r.MustAnnotate(FieldOf[Wrapper]("JSON"), JsonRawValue())
			})
			got, err := m.Stringify(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerializerChain(t *testing.T) {
	var calls []string
	upper := Serializer{
		Type:  reflect.TypeOf(""),
		Order: 2,
		Mapper: func(key string, v any) (any, error) {
			calls = append(calls, "upper:"+key)
			return strings.ToUpper(v.(string)), nil
		},
	}
	skip := Serializer{
		Order: 1,
		Mapper: func(key string, v any) (any, error) {
			if key == "age" {
				return 99, nil
			}
			return nil, ErrSkip
		},
	}
	m := newTestMapper(t, nil, WithSerializers(upper))
	got := mustStringify(t, m, Person{Name: "ann", Age: 1}, WithSerializers(skip))
	assert.Equal(t, `{"name":"ANN","age":99,"email":""}`, got)
	assert.Equal(t, []string{"upper:name", "upper:email"}, calls)

	failing := Serializer{Mapper: func(string, any) (any, error) { return nil, errors.New("boom") }}
	_, err := m.Stringify(Person{}, WithSerializers(failing))
	require.ErrorIs(t, err, CreatorFailure)

	panicking := Serializer{Mapper: func(string, any) (any, error) { panic("boom") }}
	require.NotPanics(t, func() { _, err = m.Stringify(Person{}, WithSerializers(panicking)) })
	require.ErrorIs(t, err, CreatorFailure)
	assert.Contains(t, err.Error(), "panic: boom")
}

func TestWrite(t *testing.T) {
	m := newTestMapper(t, nil)
	var buf bytes.Buffer
	require.NoError(t, m.Write(&buf, Address{"Main", "Oslo"}))
	assert.Equal(t, `{"street":"Main","city":"Oslo"}`, buf.String())

	tree, err := m.Serialize(Address{"Main", "Oslo"})
	require.NoError(t, err)
	obj, ok := tree.(*orderedmap.OrderedMap)
	require.True(t, ok)
	assert.Equal(t, []string{"street", "city"}, obj.Keys())
}
