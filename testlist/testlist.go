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

// Package testlist holds the catalogue of libsimdpp operations measured by
// the asm tests, grouped into categories.
package testlist

import (
	"strings"

	"github.com/samber/lo"

	"github.com/ajroetker/hwy-asmtest/insnset"
	"github.com/ajroetker/hwy-asmtest/testdesc"
)

// Widths every operation is measured at, in bytes.
var Widths = []int{16, 32, 64}

// Operand types. B is the vector width in bytes, defined by each test.
const (
	S8  = "int8<B>"
	S16 = "int16<B/2>"
	S32 = "int32<B/4>"
	S64 = "int64<B/8>"
	U8  = "uint8<B>"
	U16 = "uint16<B/2>"
	U32 = "uint32<B/4>"
	U64 = "uint64<B/8>"
	F32 = "float32<B/4>"
	F64 = "float64<B/8>"
)

// elementCapability maps the element type of an operand to the capability
// a configuration needs to have vectors of it.
var elementCapability = map[string]insnset.Capability{
	"int8":    insnset.Int8SIMD,
	"uint8":   insnset.Int8SIMD,
	"int16":   insnset.Int16SIMD,
	"uint16":  insnset.Int16SIMD,
	"int32":   insnset.Int32SIMD,
	"uint32":  insnset.Int32SIMD,
	"int64":   insnset.Int64SIMD,
	"uint64":  insnset.Int64SIMD,
	"float32": insnset.Float32SIMD,
	"float64": insnset.Float64SIMD,
}

func triple(t string) []string {
	return []string{t, t, t}
}

// All returns the test categories for cfg. Operand type lists whose element
// types cfg has no vector support for are dropped; if no capabilities have
// been detected for cfg, everything is kept.
func All(cfg *insnset.Config) map[string][]testdesc.Entry {
	uint3 := [][]string{triple(U8), triple(U16), triple(U32), triple(U64)}
	float3 := [][]string{triple(F32), triple(F64)}
	arith := filterTypes(cfg, append(uint3, float3...))

	digits := []string{"0", "1", "2", "3", "4", "5", "6", "7"}

	return map[string][]testdesc.Entry{
		"math": {
			&testdesc.Generator{Code: testdesc.Literal("vr = add(va, vb);"), Bytes: Widths, Types: arith},
			&testdesc.Generator{Code: testdesc.Literal("vr = va + vb;"), Bytes: Widths, Types: arith},
			&testdesc.Generator{Code: testdesc.Literal("vr = sub(va, vb);"), Bytes: Widths, Types: arith},
			&testdesc.Generator{Code: testdesc.Literal("vr = va - vb;"), Bytes: Widths, Types: arith},
		},
		"shuffle": {
			&testdesc.Generator{
				Code: testdesc.Combinator{
					Template: "vr = shuffle4x2<{0}, {1}, {2}, {3}>(va, vb);",
					Options:  [][]string{digits, digits, digits, digits},
				},
				Bytes: Widths,
				Types: filterTypes(cfg, [][]string{triple(U32), triple(F32)}),
			},
		},
	}
}

func filterTypes(cfg *insnset.Config, typeLists [][]string) [][]string {
	if len(cfg.Capabilities) == 0 {
		return typeLists
	}
	return lo.Filter(typeLists, func(types []string, _ int) bool {
		return lo.EveryBy(types, func(t string) bool { return supportsType(cfg, t) })
	})
}

func supportsType(cfg *insnset.Config, t string) bool {
	elem, _, _ := strings.Cut(t, "<")
	cp, ok := elementCapability[elem]
	if !ok {
		// Scalars and libsimdpp aliases need no vector capability.
		return true
	}
	return cfg.HasCap(cp)
}
