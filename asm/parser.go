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

// Package asm recovers function and instruction structure from the assembly
// listings emitted by GCC, Clang and MSVC, and counts instructions.
//
// Only the first token of each instruction line is kept, so the result is the
// ordered list of mnemonics of every function in the listing:
//
//	funcs := asm.Parse(listing)
//	for _, fn := range funcs {
//	    count := asm.CountFromList(fn.Insns)
//	    ...
//	}
package asm

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Function is a function parsed from compiler output: its name and the
// mnemonics of its instructions in the order they were emitted.
type Function struct {
	Name  string
	Insns []string
}

// String returns a compact description, e.g. "Function(name=f, insns=[mov,ret])".
func (f Function) String() string {
	return fmt.Sprintf("Function(name=%s, insns=[%s])", f.Name, strings.Join(f.Insns, ","))
}

var (
	// GCC/Clang label, e.g. "test_id_id0_end:" or "main: @ comment".
	labelLine = regexp.MustCompile(`^(\w*):`)
	// MSVC listing, e.g. "_test_id_id0_end PROC ; COMDAT".
	procLine = regexp.MustCompile(`^_(\w*)\s*PROC`)
)

// parseInstruction returns the mnemonic on an indented line, or "" if the
// line is not an instruction (not indented, blank, or a directive).
func parseInstruction(line string) string {
	if line == "" || (line[0] != ' ' && line[0] != '\t') {
		return ""
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	if fields[0][0] == '.' {
		return ""
	}
	return fields[0]
}

// parseFunctionName returns the function opened by line, if any. A label
// match takes priority over an MSVC PROC declaration.
func parseFunctionName(line string) (string, bool) {
	if m := labelLine.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if m := procLine.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

// parser holds the scanning state shared by Parse and ParseReader.
type parser struct {
	funcs []Function
	cur   *Function
}

func (p *parser) line(line string) {
	if line == "" {
		return
	}
	if line[0] == ' ' || line[0] == '\t' {
		insn := parseInstruction(line)
		// Instructions before the first function belong to the file
		// prologue of some compilers.
		if insn != "" && p.cur != nil {
			p.cur.Insns = append(p.cur.Insns, insn)
		}
		return
	}
	name, ok := parseFunctionName(line)
	if !ok {
		return
	}
	p.flush()
	p.cur = &Function{Name: name}
}

func (p *parser) flush() {
	if p.cur != nil {
		p.funcs = append(p.funcs, *p.cur)
		p.cur = nil
	}
}

func (p *parser) result() []Function {
	p.flush()
	if p.funcs == nil {
		return []Function{}
	}
	return p.funcs
}

// Parse turns raw compiler output into the functions it defines, in order.
func Parse(output string) []Function {
	var p parser
	for _, line := range strings.Split(output, "\n") {
		p.line(line)
	}
	return p.result()
}

// maxLineSize bounds a single listing line. MSVC listings embed long
// mangled names and string literals.
const maxLineSize = 1 << 20

// ParseReader is like Parse but reads the listing from r.
func ParseReader(r io.Reader) ([]Function, error) {
	var p parser
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		p.line(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read assembly: %w", err)
	}
	return p.result(), nil
}

// FindFunction returns the first function whose name contains substr.
// Compilers decorate symbol names differently, so only a substring match is
// reliable across GCC, Clang and MSVC.
func FindFunction(funcs []Function, substr string) (*Function, bool) {
	for i := range funcs {
		if strings.Contains(funcs[i].Name, substr) {
			return &funcs[i], true
		}
	}
	return nil, false
}
