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

package collect

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/samber/lo"

	"github.com/ajroetker/hwy-asmtest/compiler"
	"github.com/ajroetker/hwy-asmtest/insnset"
	"github.com/ajroetker/hwy-asmtest/testdesc"
	"github.com/ajroetker/hwy-asmtest/workerpool"
)

// DefaultTestsPerFile is the default number of tests compiled per
// translation unit.
const DefaultTestsPerFile = 1000

// ConfigTests pairs an instruction set configuration with the tests to run
// for it, by category.
type ConfigTests struct {
	Config *insnset.Config
	Tests  map[string][]*testdesc.Test
}

// Runner compiles test lists concurrently.
type Runner struct {
	LibraryPath  string
	Compiler     *compiler.Compiler
	TestsPerFile int // <= 0 means DefaultTestsPerFile
	Workers      int // <= 0 means DefaultWorkers()

	// TempDir is the directory in which the run's scratch directory is
	// created. Empty means os.TempDir().
	TempDir string

	Stdout io.Writer // progress; nil means os.Stdout
	Stderr io.Writer // failures; nil means os.Stderr
	Logger *slog.Logger
}

// DefaultWorkers returns the number of CPUs plus one.
func DefaultWorkers() int {
	return runtime.NumCPU() + 1
}

type batch struct {
	config    *insnset.Config
	tests     []*testdesc.Test
	processed int // tests dispatched up to and including this batch
}

// PerformAll compiles every test of every configuration and fills in their
// instruction counts.
//
// Categories are flattened in sorted order and split into batches of at
// most TestsPerFile tests; a batch may span categories. Batches are awaited
// in dispatch order and each completion prints "Compiled X/Y". On the first
// failure, batches that have not started are cancelled, the failure is
// reported on Stderr and the error returned once running batches have
// finished. All counts are then cleared and the run's scratch directory is
// kept.
func (r *Runner) PerformAll(ctx context.Context, list []ConfigTests) error {
	stdout, stderr := r.Stdout, r.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	perFile := r.TestsPerFile
	if perFile <= 0 {
		perFile = DefaultTestsPerFile
	}
	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	fmt.Fprintf(stdout, "Using %d threads\n\n", workers)

	var batches []batch
	processed := 0
	for _, ct := range list {
		for _, chunk := range lo.Chunk(testdesc.FlattenByCategory(ct.Tests), perFile) {
			processed += len(chunk)
			batches = append(batches, batch{config: ct.Config, tests: chunk, processed: processed})
		}
	}
	total := processed

	tmpDir, err := os.MkdirTemp(r.TempDir, "asmtest-")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	logger.Debug("scratch directory", "path", tmpDir, "batches", len(batches), "tests", total)

	pool := workerpool.New(workers)
	defer pool.Close()

	tasks := lo.Map(batches, func(b batch, _ int) *workerpool.Task {
		return pool.Submit(func() error {
			return CompileAndExtract(ctx, Job{
				LibraryPath: r.LibraryPath,
				WorkDir:     tmpDir,
				Compiler:    r.Compiler,
				Config:      b.config,
				Tests:       b.tests,
				Logger:      logger,
			})
		})
	})

	for i, task := range tasks {
		if err := task.Wait(); err != nil {
			pool.Cancel()
			fmt.Fprintln(stderr, "Failed to compile...")
			fmt.Fprintln(stderr, err)
			pool.Close()
			for _, b := range batches {
				for _, t := range b.tests {
					t.Insns = nil
				}
			}
			logger.Info("kept scratch directory of failed run", "path", tmpDir)
			return fmt.Errorf("compile %s batch ending at test %d: %w", batches[i].config, batches[i].processed, err)
		}
		fmt.Fprintf(stdout, "Compiled %d/%d\n", batches[i].processed, total)
	}

	pool.Close()
	return RemoveAllWithRetry(tmpDir)
}
