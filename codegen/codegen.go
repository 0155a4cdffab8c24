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

// Package codegen emits the C++ translation units compiled by the asm tests.
//
// Each test becomes an extern "C" function named test_id_<ident>_end which
// loads its operands from memory, stores them back, runs the test's code
// fragment and stores the result. Loads and stores keep the compiler from
// optimizing the fragment away; their cost is measured separately by a
// baseline function with an empty fragment.
package codegen

import (
	"fmt"
	"strings"

	"github.com/ajroetker/hwy-asmtest/insnset"
	"github.com/ajroetker/hwy-asmtest/testdesc"
)

// DefaultOperandType is used for roles a test does not use.
const DefaultOperandType = "uint32x4"

// FunctionName returns the symbol emitted for the test with identifier ident.
func FunctionName(ident string) string {
	return "test_id_" + ident + "_end"
}

// FileHeader defines the SIMDPP_ARCH_* macro of every instruction set
// enabled in cfg and includes libsimdpp.
func FileHeader(cfg *insnset.Config) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, define := range cfg.Defines() {
		fmt.Fprintf(&b, "#define %s\n", define)
	}
	b.WriteString("\n#include <simdpp/simd.h>\n")
	return b.String()
}

// SingleTest emits the function for one test.
func SingleTest(desc testdesc.Desc, ident string) string {
	typ := func(role int) string {
		if t := desc.Type(role); t != "" {
			return t
		}
		return DefaultOperandType
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n\nnamespace ns_%s {\n", ident)
	fmt.Fprintf(&b, "static const unsigned B = %d;\n", desc.Bytes)
	b.WriteString("using namespace simdpp;\n\n")
	b.WriteString("extern \"C\"\n")
	fmt.Fprintf(&b, "const char* %s(char* pr, const char* pa)\n{\n", FunctionName(ident))
	fmt.Fprintf(&b, "    %s va = load(pa);\n", typ(testdesc.RoleA))
	fmt.Fprintf(&b, "    %s vb = load(pa+B);\n", typ(testdesc.RoleB))
	fmt.Fprintf(&b, "    %s vc = load(pa+B*2);\n", typ(testdesc.RoleC))
	fmt.Fprintf(&b, "    %s vr = load(pa+B*3);\n", typ(testdesc.RoleR))
	b.WriteString("    store(pr, va);\n")
	b.WriteString("    store(pr+B, vb);\n")
	b.WriteString("    store(pr+B*2, vc);\n")
	b.WriteString("    store(pr+B*3, vr);\n")
	fmt.Fprintf(&b, "    %s\n", desc.Code)
	b.WriteString("    store(pr+B*4, vr);\n")
	fmt.Fprintf(&b, "    return \"%s\";\n", ident)
	b.WriteString("}\n}\n")
	return b.String()
}

// ForTests emits a translation unit containing every test in order.
func ForTests(cfg *insnset.Config, tests []*testdesc.Test) string {
	var b strings.Builder
	b.WriteString(FileHeader(cfg))
	for _, t := range tests {
		b.WriteString(SingleTest(t.Desc, t.Ident))
	}
	return b.String()
}

// CapabilityFunctionName returns the symbol the capability probe emits for
// cp: has_<CAP>_cap when supported, has_no_<CAP>_cap otherwise.
func CapabilityFunctionName(cp insnset.Capability, supported bool) string {
	if supported {
		return "has_" + string(cp) + "_cap"
	}
	return "has_no_" + string(cp) + "_cap"
}

// CapabilityProbe emits a translation unit that, once compiled for cfg,
// defines exactly one of the two capability functions for each of caps,
// depending on the SIMDPP_HAS_<CAP> macro libsimdpp derives from the enabled
// instruction sets.
func CapabilityProbe(cfg *insnset.Config, caps []insnset.Capability) string {
	var b strings.Builder
	b.WriteString(FileHeader(cfg))
	for _, cp := range caps {
		fmt.Fprintf(&b, "\n#if SIMDPP_HAS_%s\n", cp)
		fmt.Fprintf(&b, "extern \"C\" void %s() {}\n", CapabilityFunctionName(cp, true))
		b.WriteString("#else\n")
		fmt.Fprintf(&b, "extern \"C\" void %s() {}\n", CapabilityFunctionName(cp, false))
		b.WriteString("#endif\n")
	}
	return b.String()
}
