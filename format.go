// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var durationType = reflect.TypeOf((*time.Duration)(nil)).Elem()

// checkTimeFormat maps the name of a time package layout constant to its
// value. Other formats are used as layouts verbatim.
func checkTimeFormat(format string) string {
	// We assume that an exported constant in the time package will
	// always start with an uppercase ASCII letter.
	if len(format) > 0 && 'A' <= format[0] && format[0] <= 'Z' {
		switch format {
		case "ANSIC":
			return time.ANSIC
		case "UnixDate":
			return time.UnixDate
		case "RubyDate":
			return time.RubyDate
		case "RFC822":
			return time.RFC822
		case "RFC822Z":
			return time.RFC822Z
		case "RFC850":
			return time.RFC850
		case "RFC1123":
			return time.RFC1123
		case "RFC1123Z":
			return time.RFC1123Z
		case "RFC3339":
			return time.RFC3339
		case "RFC3339Nano":
			return time.RFC3339Nano
		case "Kitchen":
			return time.Kitchen
		case "Stamp":
			return time.Stamp
		case "StampMilli":
			return time.StampMilli
		case "StampMicro":
			return time.StampMicro
		case "StampNano":
			return time.StampNano
		case "DateTime":
			return time.DateTime
		case "DateOnly":
			return time.DateOnly
		case "TimeOnly":
			return time.TimeOnly
		}
	}
	return format
}

func loadLocation(f *FormatOptions) (*time.Location, error) {
	if f == nil || f.Timezone == "" {
		return nil, nil
	}
	return time.LoadLocation(f.Timezone)
}

// formatTime renders t for the given format, or by the features when f is nil.
func (s *serializeState) formatTime(t time.Time, f *FormatOptions) (any, error) {
	loc, err := loadLocation(f)
	if err != nil {
		return nil, newMappingError(TypeMismatch, timeType, "", err.Error())
	}
	if loc != nil {
		t = t.In(loc)
	}
	asNumber := s.opts.enabled(WriteDatesAsTimestamps)
	layout := s.opts.format
	if f != nil {
		switch f.Shape {
		case ShapeNumber, ShapeNumberInt, ShapeNumberFloat:
			asNumber = true
		case ShapeString:
			asNumber = false
		default:
			if f.Pattern != "" {
				asNumber = false
			}
		}
		if f.Pattern != "" {
			layout = f.Pattern
		}
	}
	if asNumber {
		return t.UnixMilli(), nil
	}
	if layout == "" {
		layout = time.RFC3339Nano
	}
	return t.Format(checkTimeFormat(layout)), nil
}

// parseTime reads a time from epoch milliseconds or a formatted string.
func (d *deserializeState) parseTime(node any, f *FormatOptions) (time.Time, error) {
	loc, err := loadLocation(f)
	if err != nil {
		return time.Time{}, err
	}
	switch v := node.(type) {
	case json.Number:
		ms, err := v.Int64()
		if err != nil {
			fl, err := v.Float64()
			if err != nil {
				return time.Time{}, err
			}
			ms = int64(fl)
		}
		t := time.UnixMilli(ms)
		if loc != nil {
			t = t.In(loc)
		}
		return t, nil
	case float64:
		return time.UnixMilli(int64(v)), nil
	case int64:
		return time.UnixMilli(v), nil
	case string:
		layouts := []string{time.RFC3339Nano, time.RFC3339}
		if f != nil && f.Pattern != "" {
			layouts = []string{checkTimeFormat(f.Pattern)}
		} else if d.opts.format != "" {
			layouts = append([]string{checkTimeFormat(d.opts.format)}, layouts...)
		}
		var firstErr error
		for _, layout := range layouts {
			var t time.Time
			var err error
			if loc != nil {
				t, err = time.ParseInLocation(layout, v, loc)
			} else {
				t, err = time.Parse(layout, v)
			}
			if err == nil {
				return t, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		return time.Time{}, firstErr
	}
	return time.Time{}, fmt.Errorf("cannot read time from %s", jsonKind(node))
}

// durationUnit maps a unit pattern to its duration.
func durationUnit(pattern string) (time.Duration, bool) {
	switch pattern {
	case "ns", "nanos":
		return time.Nanosecond, true
	case "us", "µs", "micros":
		return time.Microsecond, true
	case "ms", "millis", "":
		return time.Millisecond, true
	case "s", "sec", "seconds":
		return time.Second, true
	case "m", "min", "minutes":
		return time.Minute, true
	case "h", "hours":
		return time.Hour, true
	}
	return 0, false
}

func (s *serializeState) formatDuration(d time.Duration, f *FormatOptions) (any, error) {
	asNumber := s.opts.enabled(WriteDurationsAsTimestamps)
	pattern := ""
	if f != nil {
		switch f.Shape {
		case ShapeNumber, ShapeNumberInt, ShapeNumberFloat:
			asNumber = true
		case ShapeString:
			asNumber = false
		default:
			if f.Pattern != "" {
				asNumber = true
			}
		}
		pattern = f.Pattern
	}
	if !asNumber {
		return d.String(), nil
	}
	unit, ok := durationUnit(pattern)
	if !ok {
		return nil, newMappingError(TypeMismatch, durationType, "", "unknown duration unit "+strconv.Quote(pattern))
	}
	if d%unit == 0 || (f != nil && f.Shape == ShapeNumberInt) {
		return int64(d / unit), nil
	}
	return float64(d) / float64(unit), nil
}

func parseDuration(node any, f *FormatOptions) (time.Duration, error) {
	pattern := ""
	if f != nil {
		pattern = f.Pattern
	}
	unit, ok := durationUnit(pattern)
	if !ok {
		return 0, fmt.Errorf("unknown duration unit %q", pattern)
	}
	switch v := node.(type) {
	case string:
		return time.ParseDuration(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.Duration(n) * unit, nil
		}
		fl, err := v.Float64()
		if err != nil {
			return 0, err
		}
		return time.Duration(fl * float64(unit)), nil
	case float64:
		return time.Duration(v * float64(unit)), nil
	case int64:
		return time.Duration(v) * unit, nil
	}
	return 0, fmt.Errorf("cannot read duration from %s", jsonKind(node))
}

// numberAsString reports whether f requests a number to be written as a string.
func numberAsString(f *FormatOptions) bool {
	if f == nil {
		return false
	}
	switch f.Shape {
	case ShapeString:
		return true
	case ShapeAny:
		return f.Pattern != "" || f.Locale != ""
	}
	return false
}

func newPrinter(locale string) (*message.Printer, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, err
	}
	return message.NewPrinter(tag), nil
}

// formatNumber renders the number v as a string for f.
// A Locale selects grouping and decimal separators.
func formatNumber(v any, f *FormatOptions) (string, error) {
	pattern := f.Pattern
	if pattern == "" {
		pattern = "%v"
	}
	if f.Locale == "" {
		if f.Pattern == "" {
			return fmt.Sprint(v), nil
		}
		return fmt.Sprintf(pattern, v), nil
	}
	p, err := newPrinter(f.Locale)
	if err != nil {
		return "", err
	}
	return p.Sprintf(pattern, v), nil
}

// localeSeparators returns the grouping and decimal separators of locale.
func localeSeparators(locale string) (group, decimal string, err error) {
	p, err := newPrinter(locale)
	if err != nil {
		return "", "", err
	}
	s := p.Sprintf("%.1f", 1234.5)
	i := strings.IndexRune(s, '1')
	j := strings.IndexRune(s, '2')
	k := strings.LastIndexByte(s, '4')
	if i < 0 || j < 0 || k < 0 || !(i < j && j <= k) {
		return "", ".", nil
	}
	_, n := utf8.DecodeRuneInString(s[i:])
	group = s[i+n : j]
	_, n = utf8.DecodeRuneInString(s[k:])
	decimal = strings.TrimSuffix(s[k+n:], "5")
	return group, decimal, nil
}

// parseFormattedNumber reads a number written by formatNumber.
func parseFormattedNumber(s string, f *FormatOptions) (json.Number, error) {
	s = strings.TrimSpace(s)
	if f != nil && f.Locale != "" {
		group, decimal, err := localeSeparators(f.Locale)
		if err != nil {
			return "", err
		}
		if group != "" {
			s = strings.ReplaceAll(s, group, "")
		}
		if decimal != "." && decimal != "" {
			s = strings.ReplaceAll(s, decimal, ".")
		}
		s = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, s)
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", err
	}
	return json.Number(s), nil
}

// formatBool renders b per f's shape.
func formatBool(b bool, f *FormatOptions) any {
	if f != nil {
		switch f.Shape {
		case ShapeNumber, ShapeNumberInt:
			if b {
				return int64(1)
			}
			return int64(0)
		case ShapeString:
			return strconv.FormatBool(b)
		}
	}
	return b
}
