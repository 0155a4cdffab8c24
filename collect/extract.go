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

// Package collect compiles batches of asm tests, extracts per-test
// instruction counts and writes them as grouped JSON.
package collect

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/samber/lo"

	"github.com/ajroetker/hwy-asmtest/asm"
	"github.com/ajroetker/hwy-asmtest/codegen"
	"github.com/ajroetker/hwy-asmtest/compiler"
	"github.com/ajroetker/hwy-asmtest/insnset"
	"github.com/ajroetker/hwy-asmtest/testdesc"
)

// Scratch directory removal. Some toolchains (MSVC) keep files locked for a
// moment after the compiler has exited.
const (
	RemoveAttempts = 10
	RemoveDelay    = 500 * time.Millisecond
)

// Job is one compilation unit.
type Job struct {
	LibraryPath string
	WorkDir     string // parent of the per-job scratch directory
	Compiler    *compiler.Compiler
	Config      *insnset.Config
	Tests       []*testdesc.Test
	Logger      *slog.Logger
}

// CompileAndExtract compiles job.Tests together with their baselines and
// sets the Insns of every test to its instruction count minus its
// baseline's, with equivalent moves merged.
//
// The scratch directory is removed on success and kept on failure so the
// generated source and compiler output can be inspected.
func CompileAndExtract(ctx context.Context, job Job) error {
	logger := job.Logger
	if logger == nil {
		logger = slog.Default()
	}

	baselines := lo.Map(job.Tests, func(t *testdesc.Test, _ int) *testdesc.Test { return t.Baseline() })
	code := codegen.ForTests(job.Config, append(job.Tests[:len(job.Tests):len(job.Tests)], baselines...))

	dir, err := os.MkdirTemp(job.WorkDir, "batch-")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}

	start := time.Now()
	listing, err := job.Compiler.CompileToAsm(ctx, job.LibraryPath, job.Config, code, dir)
	if err != nil {
		logger.Debug("compilation failed", "dir", dir, "config", job.Config.String(), "error", err)
		return err
	}
	logger.Debug("compiled batch", "dir", dir, "config", job.Config.String(),
		"tests", len(job.Tests), "elapsed", time.Since(start))

	if err := ParseTestInsns(listing, job.Tests, baselines); err != nil {
		return err
	}
	return RemoveAllWithRetry(dir)
}

// ParseTestInsns locates the function of every test and baseline in the
// assembly listing, then assigns each test its count minus the count of the
// baseline at the same index, merged with asm.MergeEquivalent. No test is
// modified if any function is missing.
func ParseTestInsns(listing string, tests, baselines []*testdesc.Test) error {
	if len(tests) != len(baselines) {
		return fmt.Errorf("%d tests but %d baselines", len(tests), len(baselines))
	}
	funcs := asm.Parse(listing)

	countOf := func(t *testdesc.Test) (*asm.Count, error) {
		f, ok := asm.FindFunction(funcs, codegen.FunctionName(t.Ident))
		if !ok {
			return nil, &Error{Kind: ErrMissingFunction, Op: "parse listing", Ident: t.Ident, Listing: listing}
		}
		return asm.CountFromList(f.Insns), nil
	}

	counts := make([]*asm.Count, len(tests))
	for i := range tests {
		c, err := countOf(tests[i])
		if err != nil {
			return err
		}
		base, err := countOf(baselines[i])
		if err != nil {
			return err
		}
		c.SubCount(base)
		asm.MergeEquivalent(c)
		counts[i] = c
	}

	for i, t := range tests {
		t.Insns = counts[i]
	}
	return nil
}

// RemoveAllWithRetry removes path, retrying RemoveAttempts times
// RemoveDelay apart.
func RemoveAllWithRetry(path string) error {
	return removeAllWithRetry(path, RemoveAttempts, RemoveDelay, os.RemoveAll)
}

func removeAllWithRetry(path string, attempts int, delay time.Duration, remove func(string) error) error {
	var err error
	for i := range attempts {
		if err = remove(path); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return &Error{
		Kind: ErrCleanup,
		Op:   fmt.Sprintf("remove after %d attempts", attempts),
		Path: path,
		Err:  err,
	}
}
