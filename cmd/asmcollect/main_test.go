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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGxx answers --version and -dumpmachine like g++ 7.2.0 and otherwise
// writes a listing with one small function per test symbol. Capability
// probes report integer support only, and AVX-512 flags are rejected. With
// FAKE_GXX_FAIL_TESTS set, every unit containing tests fails to compile.
const fakeGxx = `#!/bin/sh
case "$1" in
--version) echo 'g++ (GCC) 7.2.0'; exit 0 ;;
-dumpmachine) echo 'x86_64-pc-linux-gnu'; exit 0 ;;
esac
case " $* " in
*" -mavx512f "*) echo "error: AVX-512 is not available" >&2; exit 1 ;;
esac
src="$2"
if [ -n "$FAKE_GXX_FAIL_TESTS" ] && grep -q 'test_id_' "$src"; then
	echo "error: internal compiler error" >&2
	exit 1
fi
out="${src%.cc}.s"
: > "$out"
for id in $(grep -o 'test_id_[A-Za-z0-9_]*_end' "$src"); do
	printf '%s:\n\tmovdqu\t(%%rsi), %%xmm0\n' "$id" >> "$out"
	case "$id" in
	*_zero_end) ;;
	*) printf '\tpaddd\t%%xmm1, %%xmm0\n' >> "$out" ;;
	esac
	printf '\tret\n' >> "$out"
done
for fn in $(grep -o 'has_no_[A-Z0-9_]*_cap' "$src"); do
	cap=${fn#has_no_}
	cap=${cap%_cap}
	case "$cap" in
	INT*_SIMD) name="has_${cap}_cap" ;;
	*) name="$fn" ;;
	esac
	printf '%s:\n\tret\n' "$name" >> "$out"
done
`

func fakeCompiler(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler is a shell script")
	}
	if _, err := os.Stat("/bin/bash"); err != nil {
		t.Skip("/bin/bash not available")
	}
	path := filepath.Join(t.TempDir(), "g++")
	require.NoError(t, os.WriteFile(path, []byte(fakeGxx), 0o755))
	return path
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestSingleConfigToStdout(t *testing.T) {
	cxx := fakeCompiler(t)
	stdout, _, err := execute(t, cxx, "libsimdpp",
		"--instr-sets", "HAS_SSE2", "--categories", "math", "--workers", "2", "--tests-per-file", "100")
	require.NoError(t, err)

	// Without float support only the unsigned integer generators remain.
	const header = "Using 2 threads\n\nCompiled 48/48\n"
	require.True(t, strings.HasPrefix(stdout, header), stdout)

	var groups []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout[len(header):]), &groups))
	require.NotEmpty(t, groups)
	assert.Contains(t, stdout, `{"bytes": 16, "va": "uint8<B>", "vb": "uint8<B>", "vr": "uint8<B>", "zinsns": {"paddd": 1}}`)
	assert.NotContains(t, stdout, "float32")
	assert.NotContains(t, stdout, `"success": false`)
}

func TestAllConfigsToOutputRoot(t *testing.T) {
	cxx := fakeCompiler(t)
	root := t.TempDir()
	stdout, _, err := execute(t, cxx, "libsimdpp", "--categories", "math", "--output-root", root)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Supported instruction sets:")
	assert.Contains(t, stdout, "avx,fma3")
	assert.NotContains(t, stdout, "avx512f")

	data, err := os.ReadFile(filepath.Join(root, "gcc_7", "math_x86_64_sse2.json"))
	require.NoError(t, err)
	var groups []map[string]any
	require.NoError(t, json.Unmarshal(data, &groups))
	assert.NotEmpty(t, groups)

	assert.NoFileExists(t, filepath.Join(root, "gcc_7", "math_x86_64_avx512f.json"))
}

func TestUsageErrors(t *testing.T) {
	t.Run("missing output root", func(t *testing.T) {
		cxx := fakeCompiler(t)
		_, stderr, err := execute(t, cxx, "libsimdpp")
		require.Error(t, err)
		assert.True(t, errors.As(err, new(reportedError)))
		assert.Contains(t, stderr, "Please set --output-root to test all instruction sets")
	})

	t.Run("undetectable compiler", func(t *testing.T) {
		_, stderr, err := execute(t, filepath.Join(t.TempDir(), "missing-g++"), "libsimdpp", "--instr-sets", "HAS_SSE2")
		require.Error(t, err)
		assert.True(t, errors.As(err, new(reportedError)))
		assert.Contains(t, stderr, "Could not detect compiler")
	})

	t.Run("unknown instruction set", func(t *testing.T) {
		cxx := fakeCompiler(t)
		_, _, err := execute(t, cxx, "libsimdpp", "--instr-sets", "HAS_MMX")
		assert.ErrorContains(t, err, "HAS_MMX")
	})

	t.Run("unsupported instruction set", func(t *testing.T) {
		cxx := fakeCompiler(t)
		_, _, err := execute(t, cxx, "libsimdpp", "--instr-sets", "HAS_AVX512F")
		assert.ErrorContains(t, err, "AVX-512 is not available")
	})

	t.Run("arguments", func(t *testing.T) {
		_, _, err := execute(t, "only-one")
		assert.Error(t, err)
	})
}

func TestCompileFailureWritesNothing(t *testing.T) {
	cxx := fakeCompiler(t)
	t.Setenv("FAKE_GXX_FAIL_TESTS", "1")
	root := t.TempDir()

	stdout, stderr, err := execute(t, cxx, "libsimdpp",
		"--instr-sets", "HAS_SSE2", "--categories", "math", "--workers", "1", "--output-root", root)
	require.Error(t, err)
	assert.True(t, errors.As(err, new(reportedError)), "the failure is already reported, main exits 1 without repeating it")

	assert.Equal(t, "Using 1 threads\n\n", stdout)
	assert.Contains(t, stderr, "Failed to compile...")
	assert.Contains(t, stderr, "internal compiler error")

	written, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, written)
}
