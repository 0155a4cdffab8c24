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

// Package testdesc describes asm tests: a C++ code fragment, the vector width
// it runs at and the operand types it uses, plus the instruction counts
// measured for it.
package testdesc

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/samber/lo"

	"github.com/ajroetker/hwy-asmtest/asm"
)

// Operand roles, in the order they appear in Desc.Types.
const (
	RoleR = iota // result, vr
	RoleA        // first argument, va
	RoleB        // second argument, vb
	RoleC        // third argument, vc
	NumRoles
)

// RoleKeys are the variable names (and JSON keys) of each role.
var RoleKeys = [NumRoles]string{"vr", "va", "vb", "vc"}

// Desc is a single test case.
type Desc struct {
	Code  string
	Bytes int // vector width in bytes, exposed to the code as B

	// Types holds the C++ operand types in role order (vr, va, vb, vc).
	// Missing trailing entries and empty strings mean the role is unused.
	Types []string
}

// Type returns the operand type of role, or "" if unused.
func (d Desc) Type(role int) string {
	if role < len(d.Types) {
		return d.Types[role]
	}
	return ""
}

func (Desc) isEntry() {}

// Test is a Desc bound to a unique identifier and, once compiled, its
// instruction counts. Insns is nil until the test has been measured.
type Test struct {
	Desc  Desc
	Ident string
	Insns *asm.Count
}

// Baseline returns the scaffolding-only twin of t: same types and width, no
// code fragment, and an identifier suffixed with "_zero". Its counts are
// subtracted from t's.
func (t *Test) Baseline() *Test {
	d := t.Desc
	d.Code = ""
	d.Types = slices.Clone(t.Desc.Types)
	return &Test{Desc: d, Ident: t.Ident + "_zero"}
}

// JSON returns the record written to result files: bytes, code, one key per
// used role, and either "success": false for unmeasured tests or the
// "zinsns" counts when any instruction remains after subtracting the
// baseline.
func (t *Test) JSON() map[string]any {
	m := map[string]any{
		"bytes": t.Desc.Bytes,
		"code":  t.Desc.Code,
	}
	for role, key := range RoleKeys {
		if typ := t.Desc.Type(role); typ != "" {
			m[key] = typ
		}
	}
	switch {
	case t.Insns == nil:
		m["success"] = false
	case t.Insns.Len() > 0:
		m["zinsns"] = t.Insns.Map()
	}
	return m
}

// Compare orders tests by code, then width, then operand types in role order.
func Compare(a, b *Test) int {
	if c := cmp.Compare(a.Desc.Code, b.Desc.Code); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Desc.Bytes, b.Desc.Bytes); c != 0 {
		return c
	}
	for role := range NumRoles {
		if c := cmp.Compare(a.Desc.Type(role), b.Desc.Type(role)); c != 0 {
			return c
		}
	}
	return 0
}

// GroupByCode partitions tests into groups sharing the same code fragment.
// Groups appear in the order their code was first seen and keep the input
// order of their members.
func GroupByCode(tests []*Test) [][]*Test {
	byCode := lo.GroupBy(tests, func(t *Test) string { return t.Desc.Code })
	codes := lo.Uniq(lo.Map(tests, func(t *Test, _ int) string { return t.Desc.Code }))
	return lo.Map(codes, func(code string, _ int) []*Test { return byCode[code] })
}

// GenerateTestList expands the entries of each requested category into
// tests. Identifiers are "id0", "id1", ... assigned across categories in
// sorted category order, so the same inputs always produce the same
// identifiers. A nil categories list selects every category.
func GenerateTestList(catToEntries map[string][]Entry, categories []string) (map[string][]*Test, error) {
	if categories == nil {
		categories = slices.Collect(maps.Keys(catToEntries))
	}
	categories = slices.Clone(categories)
	slices.Sort(categories)
	categories = slices.Compact(categories)

	result := make(map[string][]*Test, len(categories))
	next := 0
	for _, cat := range categories {
		entries, ok := catToEntries[cat]
		if !ok {
			return nil, fmt.Errorf("unknown test category %q", cat)
		}
		tests := make([]*Test, 0, len(entries))
		for _, d := range Flatten(entries) {
			tests = append(tests, &Test{Desc: d, Ident: fmt.Sprintf("id%d", next)})
			next++
		}
		result[cat] = tests
	}
	return result, nil
}

// FlattenByCategory concatenates the tests of every category in sorted
// category order.
func FlattenByCategory(testsByCat map[string][]*Test) []*Test {
	var all []*Test
	for _, cat := range slices.Sorted(maps.Keys(testsByCat)) {
		all = append(all, testsByCat[cat]...)
	}
	return all
}
