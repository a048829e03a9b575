// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsontree

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/iancoleman/orderedmap"
	"golang.org/x/xerrors"
)

// Encode formats the tree as compact JSON text.
// Raw nodes are copied verbatim after validation.
func Encode(tree any) ([]byte, error) {
	b := getBuffer()
	defer putBuffer(b)
	var err error
	b.buf, err = Append(b.buf, tree)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b.buf...), nil
}

// Append appends the compact JSON text of tree to dst.
func Append(dst []byte, tree any) ([]byte, error) {
	switch v := tree.(type) {
	case nil:
		return append(dst, "null"...), nil
	case bool:
		return strconv.AppendBool(dst, v), nil
	case string:
		return appendString(dst, v), nil
	case json.Number:
		if !IsValidNumber(string(v)) {
			return dst, xerrors.Errorf("jsontree: invalid number %q", string(v))
		}
		return append(dst, v...), nil
	case float64:
		return appendFloat(dst, v, 64), nil
	case float32:
		return appendFloat(dst, float64(v), 32), nil
	case int64:
		return strconv.AppendInt(dst, v, 10), nil
	case int:
		return strconv.AppendInt(dst, int64(v), 10), nil
	case uint64:
		return strconv.AppendUint(dst, v, 10), nil
	case json.RawMessage:
		if !json.Valid(v) {
			return dst, xerrors.Errorf("jsontree: invalid raw value %q", []byte(v))
		}
		return append(dst, v...), nil
	case []any:
		dst = append(dst, '[')
		for i, e := range v {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = Append(dst, e); err != nil {
				return dst, err
			}
		}
		return append(dst, ']'), nil
	case *orderedmap.OrderedMap:
		if v == nil {
			return append(dst, "null"...), nil
		}
		return appendObject(dst, v.Keys(), func(k string) any { e, _ := v.Get(k); return e })
	case orderedmap.OrderedMap:
		return appendObject(dst, v.Keys(), func(k string) any { e, _ := v.Get(k); return e })
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return appendObject(dst, keys, func(k string) any { return v[k] })
	}
	return dst, xerrors.Errorf("jsontree: unsupported node type %T", tree)
}

func appendObject(dst []byte, keys []string, get func(string) any) ([]byte, error) {
	dst = append(dst, '{')
	for i, k := range keys {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(appendString(dst, k), ':')
		var err error
		if dst, err = Append(dst, get(k)); err != nil {
			return dst, err
		}
	}
	return append(dst, '}'), nil
}

// IsNumber reports whether node is a number node.
func IsNumber(node any) bool {
	switch node.(type) {
	case json.Number, float64, float32, int64, int, uint64:
		return true
	}
	return false
}

// IsValidNumber reports whether s is a JSON number per RFC 7159, section 6.
func IsValidNumber(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
		if s == "" {
			return false
		}
	}
	switch {
	case s[0] == '0':
		s = s[1:]
	case '1' <= s[0] && s[0] <= '9':
		s = s[1:]
		for len(s) > 0 && '0' <= s[0] && s[0] <= '9' {
			s = s[1:]
		}
	default:
		return false
	}
	if len(s) >= 2 && s[0] == '.' && '0' <= s[1] && s[1] <= '9' {
		s = s[2:]
		for len(s) > 0 && '0' <= s[0] && s[0] <= '9' {
			s = s[1:]
		}
	}
	if len(s) >= 2 && (s[0] == 'e' || s[0] == 'E') {
		s = s[1:]
		if s[0] == '+' || s[0] == '-' {
			s = s[1:]
			if s == "" {
				return false
			}
		}
		for len(s) > 0 && '0' <= s[0] && s[0] <= '9' {
			s = s[1:]
		}
	}
	return s == ""
}

const hexDigits = "0123456789abcdef"

// appendString appends s as a JSON string literal in its shortest form.
// Invalid UTF-8 is replaced with U+FFFD.
func appendString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c >= utf8.RuneSelf {
			r, n := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && n == 1 {
				dst = append(dst, s[start:i]...)
				dst = append(dst, `\ufffd`...)
				start = i + 1
			}
			i += n
			continue
		}
		if c >= ' ' && c != '"' && c != '\\' {
			i++
			continue
		}
		dst = append(dst, s[start:i]...)
		switch c {
		case '"', '\\':
			dst = append(dst, '\\', c)
		case '\b':
			dst = append(dst, `\b`...)
		case '\f':
			dst = append(dst, `\f`...)
		case '\n':
			dst = append(dst, `\n`...)
		case '\r':
			dst = append(dst, `\r`...)
		case '\t':
			dst = append(dst, `\t`...)
		default:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
		}
		i++
		start = i
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"')
}

// appendFloat appends v in the shortest form that round trips at bitSize,
// using exponent notation outside [1e-6, 1e21).
// Non-finite values have no number form and are written as the strings
// "NaN", "Infinity" and "-Infinity".
func appendFloat(dst []byte, v float64, bitSize int) []byte {
	switch {
	case math.IsNaN(v):
		return append(dst, `"NaN"`...)
	case math.IsInf(v, 1):
		return append(dst, `"Infinity"`...)
	case math.IsInf(v, -1):
		return append(dst, `"-Infinity"`...)
	}
	if bitSize == 32 {
		v = float64(float32(v))
	}
	format := byte('f')
	if abs := math.Abs(v); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	dst = strconv.AppendFloat(dst, v, format, -1, bitSize)
	// strconv pads negative exponents to two digits: 1e-07 becomes 1e-7.
	if n := len(dst); format == 'e' && n >= 4 && string(dst[n-4:n-1]) == "e-0" {
		dst[n-2] = dst[n-1]
		dst = dst[:n-1]
	}
	return dst
}
