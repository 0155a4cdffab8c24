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

package testdesc

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry is an element of a test category: either a single Desc or a
// *Generator that expands into many.
type Entry interface {
	isEntry()
}

// Codes produces the code fragments of a Generator.
type Codes interface {
	Expand() []string
}

// Literal is a single fixed code fragment.
type Literal string

// Expand returns the fragment itself.
func (l Literal) Expand() []string {
	return []string{string(l)}
}

// Combinator substitutes every combination of Options into Template.
// Placeholder {i} takes its values from Options[i]. Combinations are
// produced with the last placeholder varying fastest.
type Combinator struct {
	Template string
	Options  [][]string
}

// Expand returns the cartesian product of the options applied to Template.
func (c Combinator) Expand() []string {
	total := 1
	for _, opts := range c.Options {
		total *= len(opts)
	}
	if total == 0 {
		return nil
	}

	out := make([]string, 0, total)
	pick := make([]int, len(c.Options))
	pairs := make([]string, 0, 2*len(c.Options))
	for {
		pairs = pairs[:0]
		for i, opts := range c.Options {
			pairs = append(pairs, "{"+strconv.Itoa(i)+"}", opts[pick[i]])
		}
		out = append(out, strings.NewReplacer(pairs...).Replace(c.Template))

		// Advance like an odometer, rightmost digit first.
		i := len(pick) - 1
		for ; i >= 0; i-- {
			pick[i]++
			if pick[i] < len(c.Options[i]) {
				break
			}
			pick[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}

// Generator is the cartesian product of code fragments, vector widths and
// operand type lists.
type Generator struct {
	Code  Codes
	Bytes []int
	Types [][]string // each in role order, see Desc.Types
}

func (*Generator) isEntry() {}

// Descs expands g. Code varies slowest, then width, then types.
func (g *Generator) Descs() []Desc {
	var out []Desc
	for _, code := range g.Code.Expand() {
		for _, b := range g.Bytes {
			for _, types := range g.Types {
				out = append(out, Desc{Code: code, Bytes: b, Types: types})
			}
		}
	}
	return out
}

// Flatten expands entries into their descriptors, in entry order.
func Flatten(entries []Entry) []Desc {
	var out []Desc
	for _, e := range entries {
		switch e := e.(type) {
		case Desc:
			out = append(out, e)
		case *Generator:
			out = append(out, e.Descs()...)
		default:
			panic(fmt.Sprintf("testdesc: unexpected entry %T", e))
		}
	}
	return out
}
