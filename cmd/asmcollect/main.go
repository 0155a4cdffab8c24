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

// Command asmcollect measures the instructions libsimdpp operations compile
// to.
//
// Usage:
//
//	asmcollect /usr/bin/g++ ~/src/libsimdpp --instr-sets HAS_SSE2,HAS_SSE3
//	asmcollect /usr/bin/clang++ ~/src/libsimdpp --output-root results
//	asmcollect "Visual Studio 15 2017 Win64" C:\src\libsimdpp --output-root results
//
// With --instr-sets, the given combination is measured and the results of
// the first configuration are printed to stdout unless --output-root is set.
// Without it, every instruction set combination the compiler supports is
// detected and measured, and results are written below --output-root as
// <compiler>_<version>/<category>_<arch>_<instruction sets>.json.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/ajroetker/hwy-asmtest/collect"
	"github.com/ajroetker/hwy-asmtest/compiler"
	"github.com/ajroetker/hwy-asmtest/insnset"
	"github.com/ajroetker/hwy-asmtest/testdesc"
	"github.com/ajroetker/hwy-asmtest/testlist"
)

type options struct {
	instrSets    string
	categories   string
	testsPerFile int
	outputRoot   string
	workers      int
	verbose      bool
}

// reportedError marks failures that have already been printed.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	start := time.Now()
	atexit.Register(func() {
		stop()
		slog.Debug("asmcollect finished", "elapsed", time.Since(start))
	})

	code := 0
	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		if !errors.As(err, new(reportedError)) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		code = 1
	}
	atexit.Exit(code)
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "asmcollect <cxx> <libsimdpp>",
		Short: "Count the instructions libsimdpp operations compile to",
		Long: "asmcollect compiles small libsimdpp snippets for one or more instruction set\n" +
			"configurations and records, per snippet, the instructions emitted beyond the\n" +
			"load/store scaffolding. <cxx> is the path of a GCC-like compiler or a Visual\n" +
			"Studio generator id such as \"Visual Studio 15 2017 Win64\".",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args[0], args[1], stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.instrSets, "instr-sets", "",
		"Instruction sets to test, comma separated. If not specified, all supported combinations are detected and tested. Allowed values: "+
			strings.Join(insnset.Names(), ", "))
	f.StringVar(&opts.categories, "categories", "", "Comma-separated list of test categories to generate results for")
	f.IntVar(&opts.testsPerFile, "tests-per-file", collect.DefaultTestsPerFile, "The number of tests per single compiled file")
	f.StringVar(&opts.outputRoot, "output-root", "",
		"Save the output to <output-root>/<compiler>/<category>_<arch>_<instruction sets>.json, creating directories as needed")
	f.IntVar(&opts.workers, "workers", collect.DefaultWorkers(), "Number of concurrent compilations")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug information to stderr")
	return cmd
}

func run(ctx context.Context, opts *options, cxx, libsimdpp string, stdout, stderr io.Writer) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if opts.testsPerFile <= 0 {
		return fmt.Errorf("--tests-per-file must be positive, got %d", opts.testsPerFile)
	}

	c, err := compiler.Detect(ctx, cxx)
	if err != nil {
		fmt.Fprintln(stderr, "Could not detect compiler")
		return reportedError{err}
	}
	logger.Info("detected compiler", "compiler", c.String(), "path", c.Path)

	var configs []*insnset.Config
	if opts.instrSets != "" {
		cfg, err := insnset.ParseNames(opts.instrSets)
		if err != nil {
			return err
		}
		s, err := collect.DetectSupport(ctx, libsimdpp, c, cfg)
		if err != nil {
			return err
		}
		if !s.Supported {
			return fmt.Errorf("%s cannot compile for %s: %w", c, cfg, s.Reason)
		}
		configs = []*insnset.Config{s.Config}
	} else {
		if opts.outputRoot == "" {
			fmt.Fprintln(stderr, "Please set --output-root to test all instruction sets")
			return reportedError{errors.New("--output-root is required without --instr-sets")}
		}
		supported, unsupported, err := collect.DetectSupportedConfigs(ctx, libsimdpp, c, insnset.AllConfigs(), opts.workers)
		if err != nil {
			return err
		}
		for _, u := range unsupported {
			logger.Debug("unsupported instruction sets", "config", u.Config.String(), "reason", u.Reason)
		}
		printSupported(stdout, supported)
		configs = supported
	}

	var categories []string
	if opts.categories != "" {
		categories = strings.Split(opts.categories, ",")
	}

	list := make([]collect.ConfigTests, 0, len(configs))
	for _, cfg := range configs {
		tests, err := testdesc.GenerateTestList(testlist.All(cfg), categories)
		if err != nil {
			return err
		}
		list = append(list, collect.ConfigTests{Config: cfg, Tests: tests})
	}

	r := &collect.Runner{
		LibraryPath:  libsimdpp,
		Compiler:     c,
		TestsPerFile: opts.testsPerFile,
		Workers:      opts.workers,
		Stdout:       stdout,
		Stderr:       stderr,
		Logger:       logger,
	}
	if err := r.PerformAll(ctx, list); err != nil {
		return reportedError{err}
	}

	if opts.outputRoot != "" {
		written, err := collect.WriteResultsToFiles(opts.outputRoot, c, list)
		if err != nil {
			return err
		}
		logger.Info("wrote results", "files", len(written), "root", opts.outputRoot)
		return nil
	}
	if len(list) == 0 {
		return nil
	}
	if err := collect.WriteResults(stdout, testdesc.FlattenByCategory(list[0].Tests)); err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout)
	return err
}

func printSupported(w io.Writer, configs []*insnset.Config) {
	fmt.Fprintln(w, "Supported instruction sets:")
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Instruction sets", "Runs on host", "Capabilities"})
	for _, cfg := range configs {
		caps := make([]string, len(cfg.Capabilities))
		for i, cp := range cfg.Capabilities {
			caps[i] = string(cp)
		}
		t.AppendRow(table.Row{cfg.String(), insnset.HostSupports(cfg), strings.Join(caps, "\n")})
	}
	t.Render()
}
