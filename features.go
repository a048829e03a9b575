// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"strconv"
	"strings"
)

// Feature is an on/off switch that changes how the mapper behaves.
// It is implemented by SerializationFeature and DeserializationFeature.
type Feature interface {
	// Default reports whether the feature is enabled when not configured.
	Default() bool
	// String returns the canonical upper snake case feature name.
	String() string

	isFeature()
}

// SerializationFeature configures serialization.
type SerializationFeature int

const (
	// WrapRootValue wraps the root value in an object keyed by its root name.
	WrapRootValue SerializationFeature = iota
	// WriteDatesAsTimestamps writes time.Time values as epoch milliseconds
	// instead of RFC 3339 strings.
	WriteDatesAsTimestamps
	// WriteDurationsAsTimestamps writes time.Duration values as
	// milliseconds instead of Go duration strings.
	WriteDurationsAsTimestamps
	// FailOnSelfReferences reports a Circularity error for reference cycles
	// that are not broken by identity info or back references.
	// When disabled, the cyclic reference is written as null.
	FailOnSelfReferences
	// WriteSelfReferencesAsNull writes a cyclic reference as null.
	WriteSelfReferencesAsNull
	// SortPropertiesAlphabetically sorts properties not listed
	// by JsonPropertyOrder.
	SortPropertiesAlphabetically
	// OrderMapEntriesByKeys writes Go map entries sorted by key.
	OrderMapEntriesByKeys
	// DefaultViewInclusion includes properties without JsonView
	// when serializing with an active view.
	DefaultViewInclusion
	// WriteSingleElemArraysUnwrapped writes one element slices as the element.
	WriteSingleElemArraysUnwrapped
	// FailOnEmptyBeans reports a TypeMismatch error for structs
	// without any serializable property.
	FailOnEmptyBeans

	numSerializationFeatures
)

var serializationFeatureNames = [...]string{
	WrapRootValue:                  "WRAP_ROOT_VALUE",
	WriteDatesAsTimestamps:         "WRITE_DATES_AS_TIMESTAMPS",
	WriteDurationsAsTimestamps:     "WRITE_DURATIONS_AS_TIMESTAMPS",
	FailOnSelfReferences:           "FAIL_ON_SELF_REFERENCES",
	WriteSelfReferencesAsNull:      "WRITE_SELF_REFERENCES_AS_NULL",
	SortPropertiesAlphabetically:   "SORT_PROPERTIES_ALPHABETICALLY",
	OrderMapEntriesByKeys:          "ORDER_MAP_ENTRIES_BY_KEYS",
	DefaultViewInclusion:           "DEFAULT_VIEW_INCLUSION",
	WriteSingleElemArraysUnwrapped: "WRITE_SINGLE_ELEM_ARRAYS_UNWRAPPED",
	FailOnEmptyBeans:               "FAIL_ON_EMPTY_BEANS",
}

func (f SerializationFeature) Default() bool {
	switch f {
	case WriteDatesAsTimestamps, FailOnSelfReferences, OrderMapEntriesByKeys, DefaultViewInclusion:
		return true
	}
	return false
}

func (f SerializationFeature) String() string {
	if f >= 0 && f < numSerializationFeatures {
		return serializationFeatureNames[f]
	}
	return "SerializationFeature(" + strconv.Itoa(int(f)) + ")"
}

func (SerializationFeature) isFeature() {}

// DeserializationFeature configures deserialization.
type DeserializationFeature int

const (
	// FailOnUnknownProperties reports an UnknownProperty error for input
	// keys that do not map to any property.
	FailOnUnknownProperties DeserializationFeature = iota
	// UnwrapRootValue expects the root value wrapped in an object
	// keyed by its root name.
	UnwrapRootValue
	// AcceptSingleValueAsArray accepts a non-array value where
	// a slice or set is expected.
	AcceptSingleValueAsArray
	// AcceptEmptyStringAsNullObject treats "" as null for struct,
	// pointer, map and slice destinations.
	AcceptEmptyStringAsNullObject
	// FailOnNullForPrimitives reports a TypeMismatch error when null
	// is assigned to a bool, number or string.
	FailOnNullForPrimitives
	// FailOnMissingCreatorProperties reports a MissingRequired error when
	// a creator parameter has no input value.
	FailOnMissingCreatorProperties
	// FailOnUnresolvedObjectIDs reports a ReferenceUnresolved error for
	// object ids that never resolve within the call.
	FailOnUnresolvedObjectIDs
	// AcceptCaseInsensitiveProperties matches input keys to property
	// names using Unicode simple case folding.
	AcceptCaseInsensitiveProperties
	// DeserializationDefaultViewInclusion accepts properties without
	// JsonView when deserializing with an active view.
	DeserializationDefaultViewInclusion
	// UseNumberForUntyped decodes numbers into interface destinations
	// as json.Number instead of float64.
	UseNumberForUntyped

	numDeserializationFeatures
)

var deserializationFeatureNames = [...]string{
	FailOnUnknownProperties:             "FAIL_ON_UNKNOWN_PROPERTIES",
	UnwrapRootValue:                     "UNWRAP_ROOT_VALUE",
	AcceptSingleValueAsArray:            "ACCEPT_SINGLE_VALUE_AS_ARRAY",
	AcceptEmptyStringAsNullObject:       "ACCEPT_EMPTY_STRING_AS_NULL_OBJECT",
	FailOnNullForPrimitives:             "FAIL_ON_NULL_FOR_PRIMITIVES",
	FailOnMissingCreatorProperties:      "FAIL_ON_MISSING_CREATOR_PROPERTIES",
	FailOnUnresolvedObjectIDs:           "FAIL_ON_UNRESOLVED_OBJECT_IDS",
	AcceptCaseInsensitiveProperties:     "ACCEPT_CASE_INSENSITIVE_PROPERTIES",
	DeserializationDefaultViewInclusion: "DEFAULT_VIEW_INCLUSION",
	UseNumberForUntyped:                 "USE_NUMBER_FOR_UNTYPED",
}

func (f DeserializationFeature) Default() bool {
	switch f {
	case FailOnUnknownProperties, FailOnUnresolvedObjectIDs, DeserializationDefaultViewInclusion:
		return true
	}
	return false
}

func (f DeserializationFeature) String() string {
	if f >= 0 && f < numDeserializationFeatures {
		return deserializationFeatureNames[f]
	}
	return "DeserializationFeature(" + strconv.Itoa(int(f)) + ")"
}

func (DeserializationFeature) isFeature() {}

// FeatureSet holds explicit feature overrides.
// Features absent from the set take their Default.
type FeatureSet map[Feature]bool

// Enable returns a copy of s with the given features enabled.
func (s FeatureSet) Enable(fs ...Feature) FeatureSet {
	return s.with(true, fs)
}

// Disable returns a copy of s with the given features disabled.
func (s FeatureSet) Disable(fs ...Feature) FeatureSet {
	return s.with(false, fs)
}

func (s FeatureSet) with(on bool, fs []Feature) FeatureSet {
	out := make(FeatureSet, len(s)+len(fs))
	for f, v := range s {
		out[f] = v
	}
	for _, f := range fs {
		out[f] = on
	}
	return out
}

// Enabled reports whether f is enabled in s.
func (s FeatureSet) Enabled(f Feature) bool {
	if v, ok := s[f]; ok {
		return v
	}
	return f.Default()
}

// merge returns the overrides of s replaced by those of over.
func (s FeatureSet) merge(over FeatureSet) FeatureSet {
	if len(over) == 0 {
		return s
	}
	out := make(FeatureSet, len(s)+len(over))
	for f, v := range s {
		out[f] = v
	}
	for f, v := range over {
		out[f] = v
	}
	return out
}

// SerializationFeatures converts a map keyed by SerializationFeature.
func SerializationFeatures(m map[SerializationFeature]bool) FeatureSet {
	out := make(FeatureSet, len(m))
	for f, v := range m {
		out[f] = v
	}
	return out
}

// DeserializationFeatures converts a map keyed by DeserializationFeature.
func DeserializationFeatures(m map[DeserializationFeature]bool) FeatureSet {
	out := make(FeatureSet, len(m))
	for f, v := range m {
		out[f] = v
	}
	return out
}

// lookupFeature resolves a snake case or upper snake case feature name.
func lookupFeature(serialization bool, name string) (Feature, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if serialization {
		for i, n := range serializationFeatureNames {
			if n == name {
				return SerializationFeature(i), true
			}
		}
		return nil, false
	}
	for i, n := range deserializationFeatureNames {
		if n == name {
			return DeserializationFeature(i), true
		}
	}
	return nil, false
}
