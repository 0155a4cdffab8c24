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

package insnset

import (
	"fmt"
	"slices"
	"strings"
)

// Capability is a fine-grained feature libsimdpp reports for a given
// instruction set configuration, e.g. whether 64-bit integer vectors or a
// particular conversion are available.
type Capability string

const (
	Int8SIMD    Capability = "INT8_SIMD"
	Int16SIMD   Capability = "INT16_SIMD"
	Int32SIMD   Capability = "INT32_SIMD"
	Int64SIMD   Capability = "INT64_SIMD"
	Float32SIMD Capability = "FLOAT32_SIMD"
	Float64SIMD Capability = "FLOAT64_SIMD"

	Float64ToUint32Conversion Capability = "FLOAT64_TO_UINT32_CONVERSION"
	Int64ToFloat64Conversion  Capability = "INT64_TO_FLOAT64_CONVERSION"
	Int64ToFloat32Conversion  Capability = "INT64_TO_FLOAT32_CONVERSION"
	Uint64ToFloat64Conversion Capability = "UINT64_TO_FLOAT64_CONVERSION"
	Uint64ToFloat32Conversion Capability = "UINT64_TO_FLOAT32_CONVERSION"
	Float32ToInt64Conversion  Capability = "FLOAT32_TO_INT64_CONVERSION"
	Float32ToUint64Conversion Capability = "FLOAT32_TO_UINT64_CONVERSION"
	Float64ToInt64Conversion  Capability = "FLOAT64_TO_INT64_CONVERSION"
	Float64ToUint64Conversion Capability = "FLOAT64_TO_UINT64_CONVERSION"

	Int8ShiftLByVector   Capability = "INT8_SHIFT_L_BY_VECTOR"
	Uint8ShiftLByVector  Capability = "UINT8_SHIFT_L_BY_VECTOR"
	Int16ShiftLByVector  Capability = "INT16_SHIFT_L_BY_VECTOR"
	Uint16ShiftLByVector Capability = "UINT16_SHIFT_L_BY_VECTOR"
	Int32ShiftLByVector  Capability = "INT32_SHIFT_L_BY_VECTOR"
	Uint32ShiftLByVector Capability = "UINT32_SHIFT_L_BY_VECTOR"

	Int8ShiftRByVector   Capability = "INT8_SHIFT_R_BY_VECTOR"
	Uint8ShiftRByVector  Capability = "UINT8_SHIFT_R_BY_VECTOR"
	Uint16ShiftRByVector Capability = "UINT16_SHIFT_R_BY_VECTOR"
	Int16ShiftRByVector  Capability = "INT16_SHIFT_R_BY_VECTOR"
	Int32ShiftRByVector  Capability = "INT32_SHIFT_R_BY_VECTOR"
	Uint32ShiftRByVector Capability = "UINT32_SHIFT_R_BY_VECTOR"
)

var allCapabilities = []Capability{
	Int8SIMD, Int16SIMD, Int32SIMD, Int64SIMD, Float32SIMD, Float64SIMD,

	Float64ToUint32Conversion,
	Int64ToFloat64Conversion,
	Int64ToFloat32Conversion,
	Uint64ToFloat64Conversion,
	Uint64ToFloat32Conversion,
	Float32ToInt64Conversion,
	Float32ToUint64Conversion,
	Float64ToInt64Conversion,
	Float64ToUint64Conversion,

	Int8ShiftLByVector, Uint8ShiftLByVector,
	Int16ShiftLByVector, Uint16ShiftLByVector,
	Int32ShiftLByVector, Uint32ShiftLByVector,

	Int8ShiftRByVector, Uint8ShiftRByVector,
	Uint16ShiftRByVector, Int16ShiftRByVector,
	Int32ShiftRByVector, Uint32ShiftRByVector,
}

// AllCapabilities returns every capability libsimdpp can report.
func AllCapabilities() []Capability {
	return slices.Clone(allCapabilities)
}

// IsKnown reports whether c is one of AllCapabilities.
func (c Capability) IsKnown() bool {
	return slices.Contains(allCapabilities, c)
}

// Config is an unordered set of instruction sets compiled together, plus the
// capabilities libsimdpp reports for that combination. Capabilities are
// filled in by a separate detection pass.
type Config struct {
	sets         []InsnSet
	Capabilities []Capability
}

// NewConfig returns a configuration enabling sets. Duplicates are ignored.
func NewConfig(sets ...InsnSet) *Config {
	s := slices.Clone(sets)
	slices.Sort(s)
	return &Config{sets: slices.Compact(s)}
}

// Sets returns the enabled instruction sets in enumeration order.
func (c *Config) Sets() []InsnSet {
	return slices.Clone(c.sets)
}

// Has reports whether s is enabled.
func (c *Config) Has(s InsnSet) bool {
	_, found := slices.BinarySearch(c.sets, s)
	return found
}

// ShortIDs returns the short identifiers of the enabled sets, e.g.
// ["sse2", "sse3"].
func (c *Config) ShortIDs() []string {
	ids := make([]string, len(c.sets))
	for i, s := range c.sets {
		ids[i] = s.ShortID()
	}
	return ids
}

// Defines returns the preprocessor macros enabling the configuration.
func (c *Config) Defines() []string {
	defines := make([]string, len(c.sets))
	for i, s := range c.sets {
		defines[i] = s.Define()
	}
	return defines
}

// String returns the short identifiers joined by commas, or "none".
func (c *Config) String() string {
	if len(c.sets) == 0 {
		return "none"
	}
	return strings.Join(c.ShortIDs(), ",")
}

// WithCapabilities returns a copy of c with the given capabilities.
func (c *Config) WithCapabilities(caps []Capability) *Config {
	return &Config{sets: slices.Clone(c.sets), Capabilities: slices.Clone(caps)}
}

// HasCap reports whether cp was detected for this configuration.
// It panics if cp is not a known capability.
func (c *Config) HasCap(cp Capability) bool {
	if !cp.IsKnown() {
		panic(fmt.Sprintf("insnset: unknown capability %q", cp))
	}
	return slices.Contains(c.Capabilities, cp)
}

func (c *Config) HasInt8() bool    { return c.HasCap(Int8SIMD) }
func (c *Config) HasInt16() bool   { return c.HasCap(Int16SIMD) }
func (c *Config) HasInt32() bool   { return c.HasCap(Int32SIMD) }
func (c *Config) HasInt64() bool   { return c.HasCap(Int64SIMD) }
func (c *Config) HasFloat32() bool { return c.HasCap(Float32SIMD) }
func (c *Config) HasFloat64() bool { return c.HasCap(Float64SIMD) }

// AllConfigs returns every instruction set combination worth testing.
func AllConfigs() []*Config {
	return []*Config{
		NewConfig(X86SSE2),
		NewConfig(X86SSE3),
		NewConfig(X86SSSE3),
		NewConfig(X86SSE4_1),
		NewConfig(X86AVX),
		NewConfig(X86AVX2),
		NewConfig(X86FMA3),
		NewConfig(X86FMA4),
		NewConfig(X86XOP),
		NewConfig(X86AVX, X86FMA3),
		NewConfig(X86AVX, X86FMA4),
		NewConfig(X86AVX, X86XOP),
		NewConfig(X86AVX512F),
		NewConfig(X86AVX512F, X86FMA3),
		NewConfig(X86AVX512F, X86FMA3, X86AVX512BW, X86AVX512DQ, X86AVX512VL),
		NewConfig(ARMNEON),
		NewConfig(ARMNEONFltSP),
		NewConfig(ARM64NEON),
		NewConfig(MIPSMSA),
		NewConfig(PowerAltivec),
		NewConfig(PowerVSX206),
		NewConfig(PowerVSX207),
	}
}
