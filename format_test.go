// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Invoice struct {
	Total float64
	Count int
	Due   time.Time
	Wait  time.Duration
	Paid  bool
}

func defineInvoice(r *Registry) {
	Define[Invoice](r).
		Field("Total", JsonFormat(FormatOptions{Locale: "en", Pattern: "%.2f"})).
		Field("Count", JsonFormat(FormatOptions{Locale: "de", Pattern: "%d"})).
		Field("Due", JsonFormat(FormatOptions{Pattern: "DateOnly", Timezone: "UTC"})).
		Field("Wait", JsonFormat(FormatOptions{Pattern: "s"})).
		Field("Paid", JsonFormat(FormatOptions{Shape: ShapeNumber}))
}

func TestFormatRoundTrip(t *testing.T) {
	m := newTestMapper(t, defineInvoice)
	in := Invoice{
		Total: 1234.5,
		Count: 1234,
		Due:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Wait:  90 * time.Second,
		Paid:  true,
	}
	got := mustStringify(t, m, in)
	assert.Equal(t, `{"total":"1,234.50","count":"1.234","due":"2024-03-01","wait":90,"paid":1}`, got)

	back, err := UnmarshalWith[Invoice](m, []byte(got))
	require.NoError(t, err)
	assert.True(t, in.Due.Equal(back.Due), "Due = %v, want %v", back.Due, in.Due)
	back.Due = in.Due
	assert.Equal(t, in, back)
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name string
		v    any
		f    FormatOptions
		want string
	}{
		{"English", 1234.5, FormatOptions{Locale: "en", Pattern: "%.2f"}, "1,234.50"},
		{"German", int64(1234), FormatOptions{Locale: "de", Pattern: "%d"}, "1.234"},
		{"PatternOnly", int64(7), FormatOptions{Pattern: "%03d"}, "007"},
		{"ShapeOnly", 2.5, FormatOptions{Shape: ShapeString}, "2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatNumber(tt.v, &tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := formatNumber(1, &FormatOptions{Locale: "not a locale!"})
	assert.Error(t, err)
}

func TestParseFormattedNumber(t *testing.T) {
	tests := []struct {
		in      string
		f       *FormatOptions
		want    json.Number
		wantErr bool
	}{
		{in: "1,234.50", f: &FormatOptions{Locale: "en"}, want: "1234.50"},
		{in: "1.234", f: &FormatOptions{Locale: "de"}, want: "1234"},
		{in: "1.234,5", f: &FormatOptions{Locale: "de"}, want: "1234.5"},
		{in: " 42 ", want: "42"},
		{in: "forty-two", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseFormattedNumber(tt.in, tt.f)
		if tt.wantErr {
			assert.Error(t, err, "parseFormattedNumber(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "parseFormattedNumber(%q)", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatDuration(t *testing.T) {
	s := newSerializeState(&options{})
	tests := []struct {
		d    time.Duration
		f    *FormatOptions
		want any
	}{
		{1500 * time.Millisecond, nil, "1.5s"},
		{1500 * time.Millisecond, &FormatOptions{Pattern: "s"}, 1.5},
		{1500 * time.Millisecond, &FormatOptions{Pattern: "s", Shape: ShapeNumberInt}, int64(1)},
		{2 * time.Minute, &FormatOptions{Pattern: "min"}, int64(2)},
		{2 * time.Second, &FormatOptions{Shape: ShapeNumber}, int64(2000)},
		{2 * time.Second, &FormatOptions{Shape: ShapeString, Pattern: "s"}, "2s"},
	}
	for _, tt := range tests {
		got, err := s.formatDuration(tt.d, tt.f)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "formatDuration(%v, %+v)", tt.d, tt.f)
	}

	_, err := s.formatDuration(time.Second, &FormatOptions{Pattern: "fortnights"})
	assert.ErrorIs(t, err, TypeMismatch)

	d, err := parseDuration(json.Number("2"), &FormatOptions{Pattern: "s"})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)
	d, err = parseDuration("1m30s", nil)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)
	_, err = parseDuration(true, nil)
	assert.Error(t, err)
}

func TestFormatBool(t *testing.T) {
	assert.Equal(t, true, formatBool(true, nil))
	assert.Equal(t, int64(1), formatBool(true, &FormatOptions{Shape: ShapeNumber}))
	assert.Equal(t, int64(0), formatBool(false, &FormatOptions{Shape: ShapeNumberInt}))
	assert.Equal(t, "false", formatBool(false, &FormatOptions{Shape: ShapeString}))
}

func TestCheckTimeFormat(t *testing.T) {
	assert.Equal(t, time.DateOnly, checkTimeFormat("DateOnly"))
	assert.Equal(t, time.RFC3339, checkTimeFormat("RFC3339"))
	assert.Equal(t, "2006/01/02", checkTimeFormat("2006/01/02"))
	assert.Equal(t, "Monday", checkTimeFormat("Monday"))
}
