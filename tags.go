// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var errIgnoredField = errors.New("ignored field")

// tagOptions is the property metadata carried by struct tags.
type tagOptions struct {
	name     string // logical name from the jackson tag
	jsonName string // logical name from the json tag

	required    bool
	omitnull    bool
	omitempty   bool
	omitdefault bool
	readonly    bool
	writeonly   bool
	raw         bool
	unwrapped   bool
	aliases     []string
	prefix      string
	suffix      string
	managed     string
	back        string
	format      string
}

// parseTagOptions parses the `jackson` and `json` tags of a Go struct field.
// As a special case, it returns errIgnoredField if the field is ignored.
func parseTagOptions(sf reflect.StructField) (out tagOptions, err error) {
	jsonTag, hasJSON := sf.Tag.Lookup("json")
	tag, hasTag := sf.Tag.Lookup("jackson")

	// Check whether this field is explicitly ignored.
	if tag == "-" || (!hasTag && jsonTag == "-") {
		return tagOptions{}, errIgnoredField
	}

	// Check whether this field is unexported.
	if !sf.IsExported() && !sf.Anonymous {
		if hasTag {
			return tagOptions{}, fmt.Errorf("unexported Go struct field %s cannot have non-ignored `jackson:%q` tag", sf.Name, tag)
		}
		return tagOptions{}, errIgnoredField
	}

	if hasJSON {
		name, rest, _ := strings.Cut(jsonTag, ",")
		out.jsonName = name
		for _, opt := range strings.Split(rest, ",") {
			if opt == "omitempty" {
				out.omitempty = true
			}
		}
	}

	// A user-specified name may be provided as either an identifier
	// or a single-quoted string.
	if len(tag) > 0 && !strings.HasPrefix(tag, ",") {
		opt, n, err := consumeTagOption(tag)
		if err != nil {
			return tagOptions{}, fmt.Errorf("Go struct field %s has malformed `jackson` tag: %v", sf.Name, err)
		}
		out.name = opt
		tag = tag[n:]
	}

	seenOpts := make(map[string]bool)
	for len(tag) > 0 {
		// Consume comma delimiter.
		if tag[0] != ',' {
			return tagOptions{}, fmt.Errorf("Go struct field %s has malformed `jackson` tag: invalid character %q before next option (expecting ',')", sf.Name, tag[0])
		}
		tag = tag[len(","):]

		opt, n, err := consumeTagOption(tag)
		if err != nil {
			return tagOptions{}, fmt.Errorf("Go struct field %s has malformed `jackson` tag: %v", sf.Name, err)
		}
		rawOpt := tag[:n]
		tag = tag[n:]

		var val string
		switch opt {
		case "alias", "prefix", "suffix", "managed", "back", "format":
			if !strings.HasPrefix(tag, "=") {
				if opt == "managed" || opt == "back" {
					val = defaultReferenceName
					break
				}
				return tagOptions{}, fmt.Errorf("Go struct field %s is missing value for `jackson` tag option %s", sf.Name, opt)
			}
			tag = tag[len("="):]
			v, n, err := consumeTagValue(tag)
			if err != nil {
				return tagOptions{}, fmt.Errorf("Go struct field %s has malformed value for `jackson` tag option %s: %v", sf.Name, opt, err)
			}
			tag = tag[n:]
			val = v
		}

		switch opt {
		case "required":
			out.required = true
		case "omitnull":
			out.omitnull = true
		case "omitempty":
			out.omitempty = true
		case "omitdefault":
			out.omitdefault = true
		case "readonly":
			out.readonly = true
		case "writeonly":
			out.writeonly = true
		case "raw":
			out.raw = true
		case "unwrapped":
			out.unwrapped = true
		case "alias":
			out.aliases = strings.Split(val, "|")
		case "prefix":
			out.prefix = val
			out.unwrapped = true
		case "suffix":
			out.suffix = val
			out.unwrapped = true
		case "managed":
			out.managed = val
		case "back":
			out.back = val
		case "format":
			out.format = val
		default:
			// Reject keys that resemble one of the supported options.
			normOpt := strings.ReplaceAll(strings.ToLower(opt), "_", "")
			switch normOpt {
			case "required", "omitnull", "omitempty", "omitdefault", "readonly", "writeonly",
				"raw", "unwrapped", "alias", "prefix", "suffix", "managed", "back", "format":
				return tagOptions{}, fmt.Errorf("Go struct field %s has invalid appearance of `jackson` tag option %s; specify %s instead", sf.Name, opt, normOpt)
			}
			return tagOptions{}, fmt.Errorf("Go struct field %s has unknown `jackson` tag option %s", sf.Name, rawOpt)
		}

		// Reject duplicates.
		if seenOpts[opt] {
			return tagOptions{}, fmt.Errorf("Go struct field %s has duplicate appearance of `jackson` tag option %s", sf.Name, rawOpt)
		}
		seenOpts[opt] = true
	}
	if out.readonly && out.writeonly {
		return tagOptions{}, fmt.Errorf("Go struct field %s cannot be both readonly and writeonly", sf.Name)
	}
	return out, nil
}

// consumeTagValue consumes an option value, which is either
// a single-quoted string or everything up to the next comma.
func consumeTagValue(in string) (string, int, error) {
	if strings.HasPrefix(in, "'") {
		return consumeTagOption(in)
	}
	n := strings.IndexByte(in, ',')
	if n < 0 {
		n = len(in)
	}
	if n == 0 {
		return "", 0, io.ErrUnexpectedEOF
	}
	return in[:n], n, nil
}

func consumeTagOption(in string) (string, int, error) {
	switch r, _ := utf8.DecodeRuneInString(in); {
	// Option as a Go identifier.
	case r == '_' || unicode.IsLetter(r):
		n := len(in) - len(strings.TrimLeftFunc(in, isLetterOrDigit))
		return in[:n], n, nil
	// Option as a single-quoted string.
	case r == '\'':
		// The grammar is nearly identical to a double-quoted Go string literal,
		// but uses single quotes as the terminators.
		var inEscape bool
		b := []byte{'"'}
		n := len(`'`)
		for len(in) > n {
			r, rn := utf8.DecodeRuneInString(in[n:])
			switch {
			case inEscape:
				if r == '\'' {
					b = b[:len(b)-1] // remove escape character: `\'` => `'`
				}
				inEscape = false
			case r == '\\':
				inEscape = true
			case r == '"':
				b = append(b, '\\') // insert escape character: `"` => `\"`
			case r == '\'':
				b = append(b, '"')
				n += len(`'`)
				out, err := strconv.Unquote(string(b))
				if err != nil {
					return "", 0, fmt.Errorf("invalid single-quoted string: %s", in[:n])
				}
				return out, n, nil
			}
			b = append(b, in[n:][:rn]...)
			n += rn
		}
		if n > 10 {
			n = 10 // limit the amount of context printed in the error
		}
		return "", 0, fmt.Errorf("single-quoted string not terminated: %s...", in[:n])
	case len(in) == 0:
		return "", 0, io.ErrUnexpectedEOF
	default:
		return "", 0, fmt.Errorf("invalid character %q at start of option (expecting Unicode letter or single quote)", r)
	}
}

func isLetterOrDigit(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// lowerCamel converts a Go identifier to its default logical name:
// FirstName becomes firstName, ID becomes id and URLPath becomes urlPath.
func lowerCamel(s string) string {
	rs := []rune(s)
	n := 0
	for n < len(rs) && unicode.IsUpper(rs[n]) {
		n++
	}
	switch {
	case n == 0:
		return s
	case n == len(rs):
		return strings.ToLower(s)
	case n > 1:
		n-- // the last upper case rune starts the next word
	}
	for i := 0; i < n; i++ {
		rs[i] = unicode.ToLower(rs[i])
	}
	return string(rs)
}
