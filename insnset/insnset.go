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

// Package insnset enumerates the instruction sets libsimdpp can target and
// the combinations of them that are compiled together.
package insnset

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// InsnSet is a target CPU feature that can be enabled for one compilation.
type InsnSet int

const (
	X86SSE2 InsnSet = iota + 1
	X86SSE3
	X86SSSE3
	X86SSE4_1
	X86POPCNT
	X86AVX
	X86AVX2
	X86FMA3
	X86FMA4
	X86XOP
	X86AVX512F
	X86AVX512BW
	X86AVX512DQ
	X86AVX512VL
	ARMNEON
	ARMNEONFltSP
	ARM64NEON
	MIPSMSA
	PowerAltivec
	PowerVSX206
	PowerVSX207
)

// All returns every instruction set in enumeration order.
func All() []InsnSet {
	all := make([]InsnSet, 0, PowerVSX207)
	for s := X86SSE2; s <= PowerVSX207; s++ {
		all = append(all, s)
	}
	return all
}

// String returns the enumeration name, e.g. "X86_SSE4_1".
func (s InsnSet) String() string {
	switch s {
	case X86SSE2:
		return "X86_SSE2"
	case X86SSE3:
		return "X86_SSE3"
	case X86SSSE3:
		return "X86_SSSE3"
	case X86SSE4_1:
		return "X86_SSE4_1"
	case X86POPCNT:
		return "X86_POPCNT"
	case X86AVX:
		return "X86_AVX"
	case X86AVX2:
		return "X86_AVX2"
	case X86FMA3:
		return "X86_FMA3"
	case X86FMA4:
		return "X86_FMA4"
	case X86XOP:
		return "X86_XOP"
	case X86AVX512F:
		return "X86_AVX512F"
	case X86AVX512BW:
		return "X86_AVX512BW"
	case X86AVX512DQ:
		return "X86_AVX512DQ"
	case X86AVX512VL:
		return "X86_AVX512VL"
	case ARMNEON:
		return "ARM_NEON"
	case ARMNEONFltSP:
		return "ARM_NEON_FLT_SP"
	case ARM64NEON:
		return "ARM64_NEON"
	case MIPSMSA:
		return "MIPS_MSA"
	case PowerAltivec:
		return "POWER_ALTIVEC"
	case PowerVSX206:
		return "POWER_VSX_206"
	case PowerVSX207:
		return "POWER_VSX_207"
	default:
		return fmt.Sprintf("InsnSet(%d)", int(s))
	}
}

// ShortID returns the identifier used in result file names, e.g. "sse4.1".
func (s InsnSet) ShortID() string {
	switch s {
	case X86SSE2:
		return "sse2"
	case X86SSE3:
		return "sse3"
	case X86SSSE3:
		return "ssse3"
	case X86SSE4_1:
		return "sse4.1"
	case X86POPCNT:
		return "popcnt"
	case X86AVX:
		return "avx"
	case X86AVX2:
		return "avx2"
	case X86FMA3:
		return "fma3"
	case X86FMA4:
		return "fma4"
	case X86XOP:
		return "xop"
	case X86AVX512F:
		return "avx512f"
	case X86AVX512BW:
		return "avx512bw"
	case X86AVX512DQ:
		return "avx512dq"
	case X86AVX512VL:
		return "avx512vl"
	case ARMNEON:
		return "neon"
	case ARMNEONFltSP:
		return "neon_flt_sp"
	case ARM64NEON:
		return "neon64"
	case MIPSMSA:
		return "msa"
	case PowerAltivec:
		return "altivec"
	case PowerVSX206:
		return "vsx_206"
	case PowerVSX207:
		return "vsx_207"
	}
	panic(fmt.Sprintf("insnset: no short id for %v", s))
}

// Define returns the libsimdpp preprocessor macro enabling s.
func (s InsnSet) Define() string {
	switch s {
	case X86SSE2:
		return "SIMDPP_ARCH_X86_SSE2"
	case X86SSE3:
		return "SIMDPP_ARCH_X86_SSE3"
	case X86SSSE3:
		return "SIMDPP_ARCH_X86_SSSE3"
	case X86SSE4_1:
		return "SIMDPP_ARCH_X86_SSE4_1"
	case X86POPCNT:
		return "SIMDPP_ARCH_X86_POPCNT"
	case X86AVX:
		return "SIMDPP_ARCH_X86_AVX"
	case X86AVX2:
		return "SIMDPP_ARCH_X86_AVX2"
	case X86FMA3:
		return "SIMDPP_ARCH_X86_FMA3"
	case X86FMA4:
		return "SIMDPP_ARCH_X86_FMA4"
	case X86XOP:
		return "SIMDPP_ARCH_X86_XOP"
	case X86AVX512F:
		return "SIMDPP_ARCH_X86_AVX512F"
	case X86AVX512BW:
		return "SIMDPP_ARCH_X86_AVX512BW"
	case X86AVX512DQ:
		return "SIMDPP_ARCH_X86_AVX512DQ"
	case X86AVX512VL:
		return "SIMDPP_ARCH_X86_AVX512VL"
	case ARMNEON, ARM64NEON:
		return "SIMDPP_ARCH_ARM_NEON"
	case ARMNEONFltSP:
		return "SIMDPP_ARCH_ARM_NEON_FLT_SP"
	case MIPSMSA:
		return "SIMDPP_ARCH_MIPS_MSA"
	case PowerAltivec:
		return "SIMDPP_ARCH_POWER_ALTIVEC"
	case PowerVSX206:
		return "SIMDPP_ARCH_POWER_VSX_206"
	case PowerVSX207:
		return "SIMDPP_ARCH_POWER_VSX_207"
	}
	panic(fmt.Sprintf("insnset: no preprocessor define for %v", s))
}

// nameToInsnSet maps the command line names to instruction sets.
var nameToInsnSet = map[string]InsnSet{
	"HAS_SSE2":     X86SSE2,
	"HAS_SSE3":     X86SSE3,
	"HAS_SSSE3":    X86SSSE3,
	"HAS_SSE4_1":   X86SSE4_1,
	"HAS_POPCNT":   X86POPCNT,
	"HAS_AVX":      X86AVX,
	"HAS_AVX2":     X86AVX2,
	"HAS_FMA3":     X86FMA3,
	"HAS_FMA4":     X86FMA4,
	"HAS_XOP":      X86XOP,
	"HAS_AVX512F":  X86AVX512F,
	"HAS_AVX512BW": X86AVX512BW,
	"HAS_AVX512DQ": X86AVX512DQ,
	"HAS_AVX512VL": X86AVX512VL,
	"HAS_NEON":     ARMNEON,
}

// Names returns the accepted command line names in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(nameToInsnSet))
}

// ParseNames parses a comma separated list of names such as
// "HAS_SSE2,HAS_FMA3" into a Config.
func ParseNames(list string) (*Config, error) {
	var sets []InsnSet
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		s, ok := nameToInsnSet[name]
		if !ok {
			return nil, fmt.Errorf("unknown instruction set %q (allowed: %s)", name, strings.Join(Names(), ", "))
		}
		sets = append(sets, s)
	}
	return NewConfig(sets...), nil
}
