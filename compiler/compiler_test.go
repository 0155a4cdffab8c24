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
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/hwy-asmtest/insnset"
)

func TestDetectFromVersionOutput(t *testing.T) {
	tests := []struct {
		name        string
		output      string
		wantName    string
		wantVersion string
		wantOK      bool
	}{
		{
			name:        "gcc",
			output:      "g++ (Ubuntu 7.2.0-8ubuntu3.2) 7.2.0\nCopyright (C) 2017 Free Software Foundation, Inc.\n",
			wantName:    "gcc",
			wantVersion: "7.2.0",
			wantOK:      true,
		},
		{
			name:        "gcc cross",
			output:      "arm-linux-gnueabihf-g++-5 (Ubuntu/Linaro 5.4.1-8ubuntu1) 5.4.1 20170304\n",
			wantName:    "gcc",
			wantVersion: "5.4.1",
			wantOK:      true,
		},
		{
			name:        "clang",
			output:      "clang version 4.0.1-6 (tags/RELEASE_401/final)\nTarget: x86_64-pc-linux-gnu\n",
			wantName:    "clang",
			wantVersion: "4.0.1-6",
			wantOK:      true,
		},
		{
			name:        "vendor clang",
			output:      "Apple clang version 15.0.0 (clang-1500.3.9.4)\nTarget: arm64-apple-darwin23.4.0\n",
			wantName:    "clang",
			wantVersion: "15.0.0",
			wantOK:      true,
		},
		{
			name:   "unknown",
			output: "icpc (ICC) 18.0.1 20171018\n",
		},
		{
			name: "empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, version, ok := DetectFromVersionOutput(tt.output)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}

func TestShortVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"gcc", "4.9.2", "4.9"},
		{"gcc", "5.3.1", "5"},
		{"gcc", "7.2.0", "7"},
		{"gcc", "5.1.0.3", "5"},
		{"gcc", "7.2.0-08", "7"},
		{"gcc", "8-20180414", "8"},
		{"gcc", "4.8.5.1", "4.8"},
		{"clang", "3.8.0", "3.8"},
		{"clang", "4.0.1-6", "4"},
		{"clang", "3.9.1-4ubuntu3", "3.9"},
		{"clang", "10.0.0.1", "10"},
		{"msvc", "2015", "2015"},
		{"gcc-intel", "18.0.1", "18.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"-"+tt.version, func(t *testing.T) {
			c, err := New(tt.name, tt.version, "x86_64", "cxx")
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.ShortVersion())
		})
	}
}

func TestFlavorByName(t *testing.T) {
	for name, want := range map[string]Flavor{
		"gcc":        FlavorGCC,
		"clang":      FlavorGCC,
		"gcc-intel":  FlavorGCCIntel,
		"msvc":       FlavorMSVC,
		"msvc-intel": FlavorMSVCIntel,
	} {
		got, err := FlavorByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := FlavorByName("tcc")
	assert.Error(t, err)
}

func TestFlags(t *testing.T) {
	inv := func(sets ...insnset.InsnSet) Invocation {
		return Invocation{
			Config:      insnset.NewConfig(sets...),
			LibraryPath: "/src/libsimdpp",
			SrcPath:     "t/test.cc",
			DstPath:     "t/test.o",
		}
	}
	gccCommon := []string{
		"-c", "t/test.cc", "-o", "t/test.o", "-std=c++11", "-I/src/libsimdpp",
		"-O2", "-g0", "--save-temps", "-fomit-frame-pointer", "-fno-stack-protector",
	}
	msvcCommon := []string{
		"/c", "t/test.cc", "/Fot/test.o", "/Qstd=c++11", "/I/src/libsimdpp",
		"/O2", "/FA", "/GS-",
	}

	tests := []struct {
		name    string
		flavor  Flavor
		inv     Invocation
		want    []string
		wantErr bool
	}{
		{"gcc none", FlavorGCC, inv(), gccCommon, false},
		{"gcc popcnt", FlavorGCC, inv(insnset.X86SSE2, insnset.X86POPCNT),
			append(append([]string{}, gccCommon...), "-msse2", "-mssse3", "-mpopcnt"), false},
		{"gcc msa", FlavorGCC, inv(insnset.MIPSMSA),
			append(append([]string{}, gccCommon...), "-mips64r5", "-mmsa", "-mhard-float", "-mfp64", "-mnan=legacy"), false},
		{"gcc-intel avx2", FlavorGCCIntel, inv(insnset.X86AVX2, insnset.X86FMA3),
			append(append([]string{}, gccCommon...), "-xCORE-AVX2", "-xCORE-AVX2"), false},
		{"gcc-intel avx512dq unsupported", FlavorGCCIntel, inv(insnset.X86AVX512DQ), nil, true},
		{"msvc sse4.1", FlavorMSVC, inv(insnset.X86SSE2, insnset.X86SSE4_1),
			append(append([]string{}, msvcCommon...), "/arch:SSE2", "/arch:SSE2"), false},
		{"msvc neon unsupported", FlavorMSVC, inv(insnset.ARMNEON), nil, true},
		{"msvc-intel avx512", FlavorMSVCIntel, inv(insnset.X86AVX512F, insnset.X86AVX512VL),
			append(append([]string{}, msvcCommon...), "/arch:COMMON-AVX512", "/arch:CORE-AVX512"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Compiler{Name: "x", Path: "cxx", Flavor: tt.flavor}
			got, err := c.Flags(tt.inv)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommand(t *testing.T) {
	inv := Invocation{
		Config:      insnset.NewConfig(insnset.X86SSE2),
		LibraryPath: "lib",
		SrcPath:     "a.cc",
		DstPath:     "a.o",
	}

	gcc := &Compiler{Name: "gcc", Path: "/usr/bin/g++", Flavor: FlavorGCC}
	cmd, err := gcc.Command(inv)
	require.NoError(t, err)
	assert.Equal(t, `"/usr/bin/g++" "-c" "a.cc" "-o" "a.o" "-std=c++11" "-Ilib" "-O2" "-g0" "--save-temps" "-fomit-frame-pointer" "-fno-stack-protector" "-msse2"`+"\n", cmd)

	msvc := &Compiler{Name: "msvc", Path: `C:\vc\cl.exe`, Flavor: FlavorMSVC, VCVarsPath: `C:\vc\vcvars32.bat`}
	cmd, err = msvc.Command(inv)
	require.NoError(t, err)
	assert.Equal(t, "@echo off\n"+
		`call "C:\vc\vcvars32.bat"`+"\n"+
		`"C:\vc\cl.exe" "/c" "a.cc" "/Foa.o" "/Qstd=c++11" "/Ilib" "/O2" "/FA" "/GS-" "/arch:SSE2"`+"\n", cmd)

	_, err = msvc.Command(Invocation{Config: insnset.NewConfig(insnset.PowerVSX207)})
	assert.Error(t, err)
}

func TestResolveMSVCID(t *testing.T) {
	env := map[string]string{"VS140COMNTOOLS": filepath.Join("vs", "Common7", "Tools")}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	root := filepath.Join("vs", "VC", "bin")

	tests := []struct {
		id       string
		wantOK   bool
		wantErr  bool
		wantArch string
		wantDirs []string
	}{
		{"/usr/bin/g++", false, false, "", nil},
		{"Visual Studio 14 2015", true, false, "x86", []string{filepath.Join(root, "amd64_x86"), root}},
		{"Visual Studio 14 2015 Win64", true, false, "x86_64", []string{filepath.Join(root, "amd64"), filepath.Join(root, "x86_amd64")}},
		{"Visual Studio 14 2015 ARM", true, false, "armhf", []string{filepath.Join(root, "amd64_arm"), filepath.Join(root, "x86_arm")}},
		{"Visual Studio 15 2017", true, true, "", nil},
		{"Visual Studio 9 2008", true, true, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			cand, ok, err := resolveMSVCID(tt.id, lookup)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsKind(err, ErrDetection))
				return
			}
			require.NoError(t, err)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, "2015", cand.Version)
			assert.Equal(t, tt.wantArch, cand.TargetArch)
			assert.Equal(t, tt.wantDirs, cand.ToolDirs)
		})
	}
}

// writeScript creates an executable shell script in dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compilers are shell scripts")
	}
	if _, err := os.Stat("/bin/bash"); err != nil {
		t.Skip("/bin/bash not available")
	}
}

func TestCompileToAsm(t *testing.T) {
	skipWithoutShell(t)
	tools := t.TempDir()
	cxx := writeScript(t, tools, "fake-g++", `printf 'f:\n\tmovups (%%rsi), %%xmm0\n\tret\n' > test.s
`)
	c := &Compiler{Name: "gcc", Version: "7.2.0", Path: cxx, Flavor: FlavorGCC}

	dir := t.TempDir()
	out, err := c.CompileToAsm(context.Background(), "lib", insnset.NewConfig(insnset.X86SSE2), "int x;\n", dir)
	require.NoError(t, err)
	assert.Equal(t, "f:\n\tmovups (%rsi), %xmm0\n\tret\n", out)

	src, err := os.ReadFile(filepath.Join(dir, SourceFile))
	require.NoError(t, err)
	assert.Equal(t, "int x;\n", string(src))
	assert.FileExists(t, filepath.Join(dir, CommandFile))
}

func TestCompileToAsmFailures(t *testing.T) {
	skipWithoutShell(t)
	tools := t.TempDir()

	t.Run("nonzero exit", func(t *testing.T) {
		cxx := writeScript(t, tools, "failing-g++", "echo 'test.cc:1: error: boom' >&2\nexit 3\n")
		c := &Compiler{Name: "gcc", Path: cxx, Flavor: FlavorGCC}
		_, err := c.CompileToAsm(context.Background(), "lib", insnset.NewConfig(), "", t.TempDir())
		require.Error(t, err)
		var ce *Error
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, ErrInvocation, ce.Kind)
		assert.Equal(t, 3, ce.ExitCode)
		assert.Contains(t, ce.Stderr, "boom")
		assert.Contains(t, err.Error(), "code: 3")
	})

	t.Run("no listing", func(t *testing.T) {
		cxx := writeScript(t, tools, "silent-g++", "exit 0\n")
		c := &Compiler{Name: "gcc", Path: cxx, Flavor: FlavorGCC}
		_, err := c.CompileToAsm(context.Background(), "lib", insnset.NewConfig(), "", t.TempDir())
		require.Error(t, err)
		assert.True(t, IsKind(err, ErrInvocation))
		assert.Contains(t, err.Error(), "could not find assembly output file")
	})

	t.Run("unsupported set", func(t *testing.T) {
		c := &Compiler{Name: "msvc", Path: "cl.exe", Flavor: FlavorMSVC}
		_, err := c.CompileToAsm(context.Background(), "lib", insnset.NewConfig(insnset.ARM64NEON), "", t.TempDir())
		assert.True(t, IsKind(err, ErrInvocation))
	})
}

func TestDetect(t *testing.T) {
	skipWithoutShell(t)
	tools := t.TempDir()
	cxx := writeScript(t, tools, "g++", `case "$1" in
--version) echo 'g++ (Ubuntu 7.2.0-8ubuntu3.2) 7.2.0' ;;
-dumpmachine) echo 'x86_64-linux-gnu' ;;
esac
`)
	c, err := Detect(context.Background(), cxx)
	require.NoError(t, err)
	assert.Equal(t, "gcc", c.Name)
	assert.Equal(t, "7.2.0", c.Version)
	assert.Equal(t, "x86_64", c.TargetArch)
	assert.Equal(t, FlavorGCC, c.Flavor)
	assert.Equal(t, cxx, c.Path)

	unknown := writeScript(t, tools, "cc", "echo 'tcc version 0.9.27'\n")
	_, err = Detect(context.Background(), unknown)
	assert.True(t, IsKind(err, ErrDetection))

	_, err = Detect(context.Background(), filepath.Join(tools, "missing"))
	assert.True(t, IsKind(err, ErrDetection))
}
