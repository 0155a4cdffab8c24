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
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ajroetker/hwy-asmtest/insnset"
)

// File names used inside a compilation directory.
const (
	SourceFile  = "test.cc"
	ObjectFile  = "test.o"
	CommandFile = "compiler.cmd"
)

// listingFiles are tried in order; GCC-like compilers write test.s via
// --save-temps and MSVC writes test.asm via /FA.
var listingFiles = []string{"test.s", "test.asm"}

// CompileToAsm compiles code for cfg inside dir and returns the assembly
// listing. All intermediate artifacts are left in dir.
func (c *Compiler) CompileToAsm(ctx context.Context, libraryPath string, cfg *insnset.Config, code, dir string) (string, error) {
	inv := Invocation{
		Config:      cfg,
		LibraryPath: libraryPath,
		SrcPath:     filepath.Join(dir, SourceFile),
		DstPath:     filepath.Join(dir, ObjectFile),
	}
	if err := os.WriteFile(inv.SrcPath, []byte(code), 0o644); err != nil {
		return "", &Error{Kind: ErrInvocation, Op: "compile", Message: "write source", ExitCode: -1, Err: err}
	}

	command, err := c.Command(inv)
	if err != nil {
		return "", &Error{Kind: ErrInvocation, Op: "compile", Message: "build command", ExitCode: -1, Err: err}
	}
	commandPath := filepath.Join(dir, CommandFile)
	if err := os.WriteFile(commandPath, []byte(command), 0o644); err != nil {
		return "", &Error{Kind: ErrInvocation, Op: "compile", Message: "write command file", ExitCode: -1, Err: err}
	}

	if _, err := runCommandFile(ctx, commandPath, dir); err != nil {
		return "", err
	}

	for _, name := range listingFiles {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(data), nil
		}
	}
	return "", &Error{
		Kind:     ErrInvocation,
		Op:       "compile",
		Message:  "could not find assembly output file in " + dir,
		ExitCode: -1,
	}
}

func runCommandFile(ctx context.Context, path, dir string) (string, error) {
	if runtime.GOOS == "windows" {
		return callProgram(ctx, dir, true, "cmd", "/C", path)
	}
	return callProgram(ctx, dir, true, "/bin/bash", path)
}

// callProgram runs name with args and returns its stdout. With
// checkExitCode, a nonzero exit is an ErrInvocation carrying both output
// streams.
func callProgram(ctx context.Context, dir string, checkExitCode bool, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if !checkExitCode {
			return stdout.String(), nil
		}
		return "", &Error{
			Kind:     ErrInvocation,
			Op:       "run " + filepath.Base(name),
			Message:  "program exited with an error",
			ExitCode: exitErr.ExitCode(),
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	return "", &Error{
		Kind:     ErrInvocation,
		Op:       "run " + filepath.Base(name),
		Message:  "could not start " + name,
		ExitCode: -1,
		Err:      err,
	}
}
