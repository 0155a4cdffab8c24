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

package asm

// EquivalenceGroup is a set of mnemonics the compiler may pick between
// freely, collapsed onto Preferred when counting.
type EquivalenceGroup struct {
	Preferred  string
	Equivalent []string
}

// DefaultEquivalenceGroups lists the interchangeable x86 vector moves.
// The aligned and unaligned moves behave identically for integer, single and
// double precision data. Groups are disjoint.
var DefaultEquivalenceGroups = []EquivalenceGroup{
	{Preferred: "movaps", Equivalent: []string{"movapd", "movdqa"}},
	{Preferred: "movups", Equivalent: []string{"movupd", "movdqu"}},
	{Preferred: "vmovaps", Equivalent: []string{"vmovapd", "vmovdqa", "vmovdqa32", "vmovdqa64"}},
	{Preferred: "vmovups", Equivalent: []string{"vmovupd", "vmovdqu", "vmovdqu8", "vmovdqu16", "vmovdqu32", "vmovdqu64"}},
}

// MergeEquivalent folds equivalent instructions in c using
// DefaultEquivalenceGroups.
func MergeEquivalent(c *Count) {
	MergeEquivalentGroups(c, DefaultEquivalenceGroups)
}

// MergeEquivalentGroups moves the whole count of every equivalent mnemonic
// onto its group's preferred mnemonic, whatever its sign. This keeps a test
// and its baseline comparable when they happen to use different members of a
// group.
func MergeEquivalentGroups(c *Count, groups []EquivalenceGroup) {
	for _, g := range groups {
		for _, eq := range g.Equivalent {
			n, ok := c.insns[eq]
			if !ok {
				continue
			}
			c.Sub(eq, n)
			c.Add(g.Preferred, n)
		}
	}
}
