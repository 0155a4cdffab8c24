// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package jsonutil writes indented JSON in which selected subtrees stay on a
// single line. Result files hold thousands of small records; one record per
// line keeps them readable and diffable.
package jsonutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
)

// Compact marks a value to be written on one line, with ", " and ": "
// separators, regardless of the surrounding indentation.
type Compact struct {
	V any
}

// Write encodes v to w. Containers are indented by indent spaces per level
// except inside Compact nodes. Object keys are sorted. Strings are not HTML
// escaped. No trailing newline is written.
//
// Supported values are nil, bools, numbers, strings, slices and arrays, and
// maps with string keys, plus pointers and interfaces holding them.
func Write(w io.Writer, v any, indent int) error {
	bw := bufio.NewWriter(w)
	e := &encoder{w: bw, indent: strings.Repeat(" ", indent)}
	if err := e.encode(reflect.ValueOf(v), 0, false); err != nil {
		return err
	}
	return bw.Flush()
}

// Marshal is Write into a string.
func Marshal(v any, indent int) (string, error) {
	var b strings.Builder
	if err := Write(&b, v, indent); err != nil {
		return "", err
	}
	return b.String(), nil
}

type encoder struct {
	w      *bufio.Writer
	indent string
}

var compactType = reflect.TypeFor[Compact]()

func (e *encoder) newline(depth int) {
	e.w.WriteByte('\n')
	for range depth {
		e.w.WriteString(e.indent)
	}
}

func (e *encoder) encode(v reflect.Value, depth int, compact bool) error {
	if !v.IsValid() {
		e.w.WriteString("null")
		return nil
	}
	if v.Type() == compactType {
		return e.encode(v.Field(0), depth, true)
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			e.w.WriteString("null")
			return nil
		}
		return e.encode(v.Elem(), depth, compact)

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			e.w.WriteString("null")
			return nil
		}
		if v.Len() == 0 {
			e.w.WriteString("[]")
			return nil
		}
		e.w.WriteByte('[')
		for i := range v.Len() {
			if i > 0 {
				e.separator(compact)
			}
			if !compact {
				e.newline(depth + 1)
			}
			if err := e.encode(v.Index(i), depth+1, compact); err != nil {
				return err
			}
		}
		if !compact {
			e.newline(depth)
		}
		e.w.WriteByte(']')
		return nil

	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("jsonutil: unsupported map key type %s", v.Type().Key())
		}
		if v.IsNil() {
			e.w.WriteString("null")
			return nil
		}
		if v.Len() == 0 {
			e.w.WriteString("{}")
			return nil
		}
		keys := v.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(a.String(), b.String())
		})
		e.w.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				e.separator(compact)
			}
			if !compact {
				e.newline(depth + 1)
			}
			if err := e.scalar(k.String()); err != nil {
				return err
			}
			e.w.WriteString(": ")
			if err := e.encode(v.MapIndex(k), depth+1, compact); err != nil {
				return err
			}
		}
		if !compact {
			e.newline(depth)
		}
		e.w.WriteByte('}')
		return nil

	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return e.scalar(v.Interface())
	}
	return fmt.Errorf("jsonutil: unsupported type %s", v.Type())
}

func (e *encoder) separator(compact bool) {
	if compact {
		e.w.WriteString(", ")
	} else {
		e.w.WriteByte(',')
	}
}

// scalar writes a leaf value with encoding/json, without HTML escaping so
// template arguments such as uint8<16> stay readable.
func (e *encoder) scalar(v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	e.w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return nil
}
