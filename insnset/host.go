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
	"runtime"

	"golang.org/x/sys/cpu"
)

// HostHas reports whether the CPU running this process implements s.
//
// This only says whether binaries built for s could run here; compilation
// itself does not need the host to support anything, and cross compilers
// routinely target other architectures. FMA4 and XOP are not reported by
// x/sys/cpu and are always false.
func HostHas(s InsnSet) bool {
	switch s {
	case X86SSE2:
		return cpu.X86.HasSSE2
	case X86SSE3:
		return cpu.X86.HasSSE3
	case X86SSSE3:
		return cpu.X86.HasSSSE3
	case X86SSE4_1:
		return cpu.X86.HasSSE41
	case X86POPCNT:
		return cpu.X86.HasPOPCNT
	case X86AVX:
		return cpu.X86.HasAVX
	case X86AVX2:
		return cpu.X86.HasAVX2
	case X86FMA3:
		return cpu.X86.HasFMA
	case X86FMA4, X86XOP:
		return false
	case X86AVX512F:
		return cpu.X86.HasAVX512F
	case X86AVX512BW:
		return cpu.X86.HasAVX512BW
	case X86AVX512DQ:
		return cpu.X86.HasAVX512DQ
	case X86AVX512VL:
		return cpu.X86.HasAVX512VL
	case ARMNEON, ARMNEONFltSP:
		return cpu.ARM.HasNEON
	case ARM64NEON:
		return cpu.ARM64.HasASIMD
	case MIPSMSA:
		return cpu.MIPS64X.HasMSA
	case PowerAltivec, PowerVSX206:
		// Every ppc64 target Go supports is at least POWER8.
		return runtime.GOARCH == "ppc64" || runtime.GOARCH == "ppc64le"
	case PowerVSX207:
		return cpu.PPC64.IsPOWER8
	}
	panic("insnset: no host detection for " + s.String())
}

// HostSupports reports whether the host CPU implements every instruction set
// enabled in c. An empty configuration is always supported.
func HostSupports(c *Config) bool {
	for _, s := range c.sets {
		if !HostHas(s) {
			return false
		}
	}
	return true
}
