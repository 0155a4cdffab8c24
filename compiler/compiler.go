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

// Package compiler detects C++ compilers and invokes them to produce
// assembly listings for a given instruction set configuration.
//
// Two families are supported: GCC-like drivers (gcc, clang and the Intel
// compiler in GCC mode), which write a .s file with --save-temps, and MSVC
// (plus the Intel compiler in MSVC mode), which writes a .asm file with /FA.
package compiler

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Flavor selects the command line dialect and flag table of a compiler.
type Flavor int

const (
	FlavorGCC Flavor = iota
	FlavorGCCIntel
	FlavorMSVC
	FlavorMSVCIntel
)

func (f Flavor) String() string {
	switch f {
	case FlavorGCC:
		return "gcc"
	case FlavorGCCIntel:
		return "gcc-intel"
	case FlavorMSVC:
		return "msvc"
	case FlavorMSVCIntel:
		return "msvc-intel"
	default:
		return fmt.Sprintf("Flavor(%d)", int(f))
	}
}

// IsMSVC reports whether f uses the MSVC command line dialect.
func (f Flavor) IsMSVC() bool {
	return f == FlavorMSVC || f == FlavorMSVCIntel
}

// FlavorByName returns the flavor used for a compiler name as reported by
// detection ("gcc", "clang", "gcc-intel", "msvc", "msvc-intel").
func FlavorByName(name string) (Flavor, error) {
	switch name {
	case "gcc", "clang":
		return FlavorGCC, nil
	case "gcc-intel":
		return FlavorGCCIntel, nil
	case "msvc":
		return FlavorMSVC, nil
	case "msvc-intel":
		return FlavorMSVCIntel, nil
	}
	return 0, fmt.Errorf("unknown compiler type %q", name)
}

// Compiler describes a detected compiler.
type Compiler struct {
	Name       string // "gcc", "clang", "msvc", ...
	Version    string // as reported, e.g. "7.2.0" or "4.0.1-6"
	TargetArch string // e.g. "x86_64", "aarch64"; empty if unknown
	Path       string
	Flavor     Flavor

	// VCVarsPath is the vcvars*.bat script that sets up the MSVC environment.
	VCVarsPath string
}

// New returns a compiler with the flavor derived from name.
func New(name, version, targetArch, path string) (*Compiler, error) {
	flavor, err := FlavorByName(name)
	if err != nil {
		return nil, err
	}
	return &Compiler{
		Name:       name,
		Version:    version,
		TargetArch: targetArch,
		Path:       path,
		Flavor:     flavor,
	}, nil
}

func (c *Compiler) String() string {
	arch := c.TargetArch
	if arch == "" {
		arch = "unknown"
	}
	return fmt.Sprintf("%s %s (%s)", c.Name, c.Version, arch)
}

// ShortVersion truncates Version for use in result paths. Compilers that
// bump the major version with every feature release (GCC since 5, Clang
// since 4) keep only the major component; everything else keeps
// major.minor.
func (c *Compiler) ShortVersion() string {
	keepMajorFrom := ""
	switch c.Name {
	case "gcc":
		keepMajorFrom = "v5"
	case "clang":
		keepMajorFrom = "v4"
	}

	parts := strings.Split(c.Version, ".")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	if keepMajorFrom != "" {
		major := leadingDigits(parts[0])
		if v := "v" + major; semver.IsValid(v) && semver.Compare(v, keepMajorFrom) >= 0 {
			return major
		}
	}
	return strings.Join(parts, ".")
}

// leadingDigits returns the decimal prefix of s, e.g. "7" for "7-20170101".
func leadingDigits(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		return s
	}
	return s[:end]
}
