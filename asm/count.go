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

import (
	"maps"
	"slices"
)

// Count maps instruction mnemonics to signed occurrence counts.
// An entry is never stored with a zero count.
//
// The zero value is not usable; create counts with NewCount or one of the
// From constructors.
type Count struct {
	insns map[string]int
}

// NewCount returns an empty count.
func NewCount() *Count {
	return &Count{insns: make(map[string]int)}
}

// CountFromList counts every mnemonic in insns.
func CountFromList(insns []string) *Count {
	c := NewCount()
	for _, insn := range insns {
		c.Add(insn, 1)
	}
	return c
}

// CountFromMap builds a count from m. Zero entries are dropped.
func CountFromMap(m map[string]int) *Count {
	c := NewCount()
	for insn, n := range m {
		c.Add(insn, n)
	}
	return c
}

// Add adds n to the count of insn.
func (c *Count) Add(insn string, n int) {
	if cur, ok := c.insns[insn]; ok {
		cur += n
		if cur == 0 {
			delete(c.insns, insn)
		} else {
			c.insns[insn] = cur
		}
		return
	}
	if n != 0 {
		c.insns[insn] = n
	}
}

// Sub subtracts n from the count of insn. A missing entry becomes -n.
func (c *Count) Sub(insn string, n int) {
	c.Add(insn, -n)
}

// SubCount subtracts every entry of other from c.
func (c *Count) SubCount(other *Count) {
	for insn, n := range other.insns {
		c.Sub(insn, n)
	}
}

// Get returns the count of insn, 0 if absent.
func (c *Count) Get(insn string) int {
	return c.insns[insn]
}

// Has reports whether insn has a non-zero count.
func (c *Count) Has(insn string) bool {
	_, ok := c.insns[insn]
	return ok
}

// Len returns the number of distinct mnemonics with a non-zero count.
func (c *Count) Len() int {
	return len(c.insns)
}

// Map returns a copy of the underlying mnemonic to count map.
func (c *Count) Map() map[string]int {
	return maps.Clone(c.insns)
}

// Mnemonics returns the counted mnemonics in sorted order.
func (c *Count) Mnemonics() []string {
	return slices.Sorted(maps.Keys(c.insns))
}

// Clone returns an independent copy of c.
func (c *Count) Clone() *Count {
	return &Count{insns: maps.Clone(c.insns)}
}

// Equal reports whether c and other hold the same entries.
func (c *Count) Equal(other *Count) bool {
	return maps.Equal(c.insns, other.insns)
}
