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

package compiler

import (
	"fmt"
	"strings"

	"github.com/ajroetker/hwy-asmtest/insnset"
)

// Invocation holds the inputs of one compilation.
type Invocation struct {
	Config      *insnset.Config
	LibraryPath string // libsimdpp include root
	SrcPath     string
	DstPath     string
}

// Flags returns the command line arguments (without the compiler path) for
// inv. It fails if the flavor cannot target one of the enabled instruction
// sets.
func (c *Compiler) Flags(inv Invocation) ([]string, error) {
	var flags []string
	if c.Flavor.IsMSVC() {
		flags = []string{
			"/c", inv.SrcPath, "/Fo" + inv.DstPath,
			"/Qstd=c++11", "/I" + inv.LibraryPath,
			// Clean listing: optimized, listing file, no stack cookies.
			"/O2", "/FA", "/GS-",
		}
	} else {
		flags = []string{
			"-c", inv.SrcPath, "-o", inv.DstPath,
			"-std=c++11", "-I" + inv.LibraryPath,
			// Clean listing: optimized, no debug info, keep the .s file,
			// no frame pointer or stack protector scaffolding.
			"-O2", "-g0", "--save-temps", "-fomit-frame-pointer",
			"-fno-stack-protector",
		}
	}

	for _, s := range inv.Config.Sets() {
		setFlags, ok := c.insnSetFlags(s)
		if !ok {
			return nil, fmt.Errorf("%s compiler cannot target %v", c.Flavor, s)
		}
		flags = append(flags, setFlags...)
	}
	return flags, nil
}

func (c *Compiler) insnSetFlags(s insnset.InsnSet) ([]string, bool) {
	switch c.Flavor {
	case FlavorGCC:
		return gccFlags(s)
	case FlavorGCCIntel:
		return gccIntelFlags(s)
	case FlavorMSVC:
		return msvcFlags(s)
	case FlavorMSVCIntel:
		return msvcIntelFlags(s)
	}
	panic(fmt.Sprintf("compiler: no flag table for %v", c.Flavor))
}

func gccFlags(s insnset.InsnSet) ([]string, bool) {
	switch s {
	case insnset.X86SSE2:
		return []string{"-msse2"}, true
	case insnset.X86SSE3:
		return []string{"-msse3"}, true
	case insnset.X86SSSE3:
		return []string{"-mssse3"}, true
	case insnset.X86POPCNT:
		return []string{"-mssse3", "-mpopcnt"}, true
	case insnset.X86SSE4_1:
		return []string{"-msse4.1"}, true
	case insnset.X86AVX:
		return []string{"-mavx"}, true
	case insnset.X86AVX2:
		return []string{"-mavx2"}, true
	case insnset.X86FMA3:
		return []string{"-mfma"}, true
	case insnset.X86FMA4:
		return []string{"-mfma4"}, true
	case insnset.X86XOP:
		return []string{"-mxop"}, true
	case insnset.X86AVX512F:
		return []string{"-mavx512f"}, true
	case insnset.X86AVX512BW:
		return []string{"-mavx512bw"}, true
	case insnset.X86AVX512DQ:
		return []string{"-mavx512dq"}, true
	case insnset.X86AVX512VL:
		return []string{"-mavx512vl"}, true
	case insnset.ARMNEON, insnset.ARMNEONFltSP:
		return []string{"-mfpu=neon"}, true
	case insnset.ARM64NEON:
		return []string{"-mcpu=generic+simd"}, true
	case insnset.MIPSMSA:
		return []string{"-mips64r5", "-mmsa", "-mhard-float", "-mfp64", "-mnan=legacy"}, true
	case insnset.PowerAltivec:
		return []string{"-maltivec"}, true
	case insnset.PowerVSX206:
		return []string{"-mvsx"}, true
	case insnset.PowerVSX207:
		return []string{"-mvsx", "-mcpu=power8"}, true
	}
	return nil, false
}

func gccIntelFlags(s insnset.InsnSet) ([]string, bool) {
	switch s {
	case insnset.X86SSE2:
		return []string{"-msse2"}, true
	case insnset.X86SSE3:
		return []string{"-msse3"}, true
	case insnset.X86SSSE3:
		return []string{"-mssse3"}, true
	case insnset.X86POPCNT:
		return []string{"-mssse3", "-mpopcnt"}, true
	case insnset.X86SSE4_1:
		return []string{"-msse4.1"}, true
	case insnset.X86AVX:
		return []string{"-mavx"}, true
	case insnset.X86AVX2, insnset.X86FMA3:
		return []string{"-xCORE-AVX2"}, true
	case insnset.X86AVX512F:
		return []string{"-xCOMMON-AVX512"}, true
	case insnset.X86AVX512BW, insnset.X86AVX512VL:
		return []string{"-xCORE-AVX512"}, true
	}
	return nil, false
}

func msvcFlags(s insnset.InsnSet) ([]string, bool) {
	switch s {
	case insnset.X86SSE2, insnset.X86SSE3, insnset.X86SSSE3, insnset.X86SSE4_1:
		return []string{"/arch:SSE2"}, true
	case insnset.X86POPCNT:
		return []string{"/arch:SSE4.2"}, true
	case insnset.X86AVX, insnset.X86AVX2, insnset.X86FMA3, insnset.X86FMA4:
		return []string{"/arch:AVX"}, true
	}
	return nil, false
}

func msvcIntelFlags(s insnset.InsnSet) ([]string, bool) {
	switch s {
	case insnset.X86SSE2:
		return []string{"/arch:SSE2"}, true
	case insnset.X86SSE3:
		return []string{"/arch:SSE3"}, true
	case insnset.X86SSSE3:
		return []string{"/arch:SSSE3"}, true
	case insnset.X86POPCNT:
		return []string{"/arch:SSE4.2"}, true
	case insnset.X86SSE4_1:
		return []string{"/arch:SSE4.1"}, true
	case insnset.X86AVX, insnset.X86FMA4:
		return []string{"/arch:AVX"}, true
	case insnset.X86AVX2, insnset.X86FMA3:
		return []string{"/arch:CORE-AVX2"}, true
	case insnset.X86AVX512F:
		return []string{"/arch:COMMON-AVX512"}, true
	case insnset.X86AVX512BW, insnset.X86AVX512DQ, insnset.X86AVX512VL:
		return []string{"/arch:CORE-AVX512"}, true
	}
	return nil, false
}

// Command renders the script that runs the compiler for inv: a single
// shell line for GCC-like compilers, or a batch file that first sources
// vcvars for MSVC.
func (c *Compiler) Command(inv Invocation) (string, error) {
	flags, err := c.Flags(inv)
	if err != nil {
		return "", err
	}
	args := make([]string, 0, len(flags)+1)
	args = append(args, quote(c.Path))
	for _, f := range flags {
		args = append(args, quote(f))
	}
	cmd := strings.Join(args, " ")

	if !c.Flavor.IsMSVC() {
		return cmd + "\n", nil
	}
	lines := []string{
		"@echo off",
		fmt.Sprintf("call %s", quote(c.VCVarsPath)),
		cmd,
	}
	return strings.Join(lines, "\n") + "\n", nil
}

func quote(s string) string {
	return `"` + s + `"`
}
