// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"reflect"
	"sort"

	"go.uber.org/zap"
)

// Option configures an ObjectMapper or a single mapping call.
// Options passed to a call take precedence over those of the mapper.
type Option func(*options)

// options is the resolved configuration of a mapping call.
type options struct {
	registry *Registry
	logger   *zap.Logger
	metrics  *Metrics

	features      FeatureSet
	view          reflect.Type
	format        string
	serializers   []Serializer
	deserializers []Deserializer
	mainCreator   TypeDescriptor
}

// WithRegistry sets the registry holding class metadata.
// It only applies to NewObjectMapper.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records mapping calls in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithFeatures overrides features.
func WithFeatures(fs FeatureSet) Option {
	return func(o *options) { o.features = o.features.merge(fs) }
}

// Enable enables the given features.
func Enable(fs ...Feature) Option {
	return func(o *options) { o.features = o.features.Enable(fs...) }
}

// Disable disables the given features.
func Disable(fs ...Feature) Option {
	return func(o *options) { o.features = o.features.Disable(fs...) }
}

// WithView restricts mapping to properties visible in view.
func WithView(view reflect.Type) Option {
	return func(o *options) { o.view = normalizeClass(view) }
}

// WithViewOf restricts mapping to properties visible in view V.
func WithViewOf[V any]() Option {
	return WithView(reflect.TypeOf((*V)(nil)).Elem())
}

// WithFormat sets the default time layout used for time.Time values
// without JsonFormat when WriteDatesAsTimestamps is disabled.
func WithFormat(format string) Option {
	return func(o *options) { o.format = format }
}

// WithSerializers adds custom serializers.
func WithSerializers(ss ...Serializer) Option {
	return func(o *options) {
		o.serializers = append(append([]Serializer(nil), o.serializers...), ss...)
	}
}

// WithDeserializers adds custom deserializers.
func WithDeserializers(ds ...Deserializer) Option {
	return func(o *options) {
		o.deserializers = append(append([]Deserializer(nil), o.deserializers...), ds...)
	}
}

// WithMainCreator describes the root value to deserialize.
func WithMainCreator(d TypeDescriptor) Option {
	return func(o *options) { o.mainCreator = d }
}

func (o *options) apply(opts []Option) {
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
}

// sortChains orders the mapper chains by ascending Order, stable by position.
func (o *options) sortChains() {
	o.serializers = append([]Serializer(nil), o.serializers...)
	o.deserializers = append([]Deserializer(nil), o.deserializers...)
	sort.SliceStable(o.serializers, func(i, j int) bool {
		return o.serializers[i].Order < o.serializers[j].Order
	})
	sort.SliceStable(o.deserializers, func(i, j int) bool {
		return o.deserializers[i].Order < o.deserializers[j].Order
	})
}

func (o *options) enabled(f Feature) bool { return o.features.Enabled(f) }
