// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jackson maps Go values to and from JSON as directed by metadata
// attached to types, fields, accessors and creator parameters.
// The metadata model follows the annotations of the Jackson library:
// property renaming, inclusion policies, views, polymorphic type
// identifiers, object identity, managed and back references,
// unwrapping, raw values and custom creators.
//
// # Terminology
//
// This package uses the terms "serialize" and "deserialize" for the
// conversion between Go values and a JSON tree, and "stringify" and
// "parse" for the conversion between a tree and JSON text.
//
//   - A "class" is a named Go type, usually a struct.
//   - A "property" is a logical member of a class. It is backed by an
//     exported field or by an accessor pair X() and SetX(v).
//   - A "decorator" attaches metadata to a class, property or creator
//     parameter. Decorators are recorded in a Registry.
//   - A "tree" is a JSON value made of nil, bool, string, json.Number,
//     []any and *orderedmap.OrderedMap nodes. Objects keep member order.
//
// # Registering metadata
//
// Metadata is attached during initialization, either one target at a time
// with Annotate, or fluently with Define:
//
//	func init() {
//		jackson.Define[User](jackson.DefaultRegistry).
//			Field("FirstName", jackson.JsonProperty(jackson.PropertyOptions{Value: "first_name"}))
//	}
//
// Simple classes need no registration: the `jackson` struct tag mirrors
// the most common property decorators and the `json` tag supplies
// default names. Explicit decorators take precedence over tags.
//
// A Registry is frozen by the first mapping call that uses it.
// Later registrations fail with ErrRegistryFrozen.
//
// # Mapping
//
// An ObjectMapper combines a Registry with features and options.
// Options given to a call take precedence over the mapper's options,
// which take precedence over feature defaults.
//
//	m := jackson.NewObjectMapper(jackson.Enable(jackson.SortPropertiesAlphabetically))
//	s, err := m.Stringify(user)
//	u, err := jackson.UnmarshalWith[User](m, []byte(s))
//
// # Errors
//
// Mapping failures are reported as *MappingError values. Each error matches
// its ErrorKind and the Error sentinel with errors.Is, and carries the
// JSON pointer of the failing value.
package jackson
