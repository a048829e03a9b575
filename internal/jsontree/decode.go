// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsontree

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/iancoleman/orderedmap"
	"golang.org/x/xerrors"
)

// SyntaxError reports malformed JSON text.
type SyntaxError struct {
	// Offset is the byte offset in the input where decoding stopped.
	Offset int64
	Err    error
}

func (e *SyntaxError) Error() string {
	return "jsontree: syntax error at byte offset " + strconv.FormatInt(e.Offset, 10) + ": " + e.Err.Error()
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Decode parses a single JSON value from data into a tree.
// Object member order is preserved and numbers are kept as json.Number.
// A duplicate member name keeps its first position and its last value.
// Malformed text is reported as a *SyntaxError.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, &SyntaxError{Offset: dec.InputOffset(), Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = xerrors.New("invalid character after top-level value")
		}
		return nil, &SyntaxError{Offset: dec.InputOffset(), Err: err}
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		obj := orderedmap.New()
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, xerrors.Errorf("invalid object key %v", kt)
			}
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, xerrors.Errorf("unexpected delimiter %v", d)
}
