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
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures of a compilation batch.
type ErrorKind int

const (
	// ErrMissingFunction means an expected function is absent from the
	// assembly listing.
	ErrMissingFunction ErrorKind = iota
	// ErrCleanup means a scratch directory could not be removed even after
	// retrying.
	ErrCleanup
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMissingFunction:
		return "MissingFunction"
	case ErrCleanup:
		return "Cleanup"
	default:
		return "Unknown"
	}
}

// Error describes a failed batch.
type Error struct {
	Kind    ErrorKind
	Op      string
	Ident   string // test identifier or capability, if any
	Path    string // scratch directory, if any
	Listing string // assembly listing, for diagnosing missing functions
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s error in %s", e.Kind, e.Op)
	switch e.Kind {
	case ErrMissingFunction:
		fmt.Fprintf(&b, ": could not find ident %s", e.Ident)
	case ErrCleanup:
		fmt.Fprintf(&b, ": could not delete path %s", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Listing != "" {
		fmt.Fprintf(&b, "\n\nCompiler output:\n%s", e.Listing)
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
