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
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies compiler failures.
type ErrorKind int

const (
	// ErrDetection means the compiler could not be identified.
	ErrDetection ErrorKind = iota
	// ErrInvocation means the compiler exited with an error or did not
	// produce an assembly listing.
	ErrInvocation
)

func (k ErrorKind) String() string {
	switch k {
	case ErrDetection:
		return "CompilerDetection"
	case ErrInvocation:
		return "CompilerInvocation"
	default:
		return "Unknown"
	}
}

// Error carries enough of the compiler's output to diagnose a failure
// without rerunning it.
type Error struct {
	Kind     ErrorKind
	Op       string // what was being done, e.g. "compile" or "detect"
	Message  string
	ExitCode int    // -1 if the process did not run or exit normally
	Stdout   string
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s error in %s: %s", e.Kind, e.Op, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Stdout != "" || e.Stderr != "" {
		fmt.Fprintf(&b, "\ncode: %d\nstdout:\n%s\nstderr:\n%s\n", e.ExitCode, e.Stdout, e.Stderr)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}
