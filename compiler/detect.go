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
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// "g++ (Ubuntu 7.2.0-8ubuntu3.2) 7.2.0": the version follows the last
	// parenthesized vendor string.
	gccVersionLine   = regexp.MustCompile(`^.*\([^)]*\)\s*([\d.-]+)(?:|\s.*)$`)
	clangVersionLine = regexp.MustCompile(`^(?:[\w-]+ )?clang version ([\d.-]+)\s.*$`)
)

// DetectFromVersionOutput identifies a GCC-like compiler from the output of
// `<cxx> --version`. It returns ok == false if the output is not recognized.
func DetectFromVersionOutput(output string) (name, version string, ok bool) {
	first, _, _ := strings.Cut(output, "\n")
	first = strings.TrimRight(first, "\r")

	if strings.Contains(first, "g++") {
		if m := gccVersionLine.FindStringSubmatch(first); m != nil {
			return "gcc", m[1], true
		}
	}
	if m := clangVersionLine.FindStringSubmatch(first); m != nil {
		return "clang", m[1], true
	}
	return "", "", false
}

// TargetArchOf returns the architecture part of `<cxx> -dumpmachine`, e.g.
// "x86_64" for "x86_64-linux-gnu". It returns "" if the compiler does not
// support the query.
func TargetArchOf(ctx context.Context, path string) string {
	out, err := callProgram(ctx, "", true, path, "-dumpmachine")
	if err != nil {
		return ""
	}
	arch, _, _ := strings.Cut(strings.TrimSpace(out), "-")
	return arch
}

type msvcRelease struct {
	id      string // prefix of the generator-style compiler id
	envVar  string // points to <install>/Common7/Tools
	version string
}

var msvcReleases = []msvcRelease{
	{"Visual Studio 10 2010", "VS100COMNTOOLS", "2010"},
	{"Visual Studio 12 2013", "VS120COMNTOOLS", "2013"},
	{"Visual Studio 14 2015", "VS140COMNTOOLS", "2015"},
	{"Visual Studio 15 2017", "VS150COMNTOOLS", "2017"},
}

// msvcCandidate is the result of resolving an MSVC compiler id against the
// environment, before the tool directories are checked on disk.
type msvcCandidate struct {
	Version    string
	TargetArch string
	ToolDirs   []string // searched in order for cl.exe and vcvars*.bat
}

// resolveMSVCID maps ids such as "Visual Studio 14 2015 Win64" to candidate
// tool directories. ok is false if id does not name Visual Studio at all.
func resolveMSVCID(id string, lookupEnv func(string) (string, bool)) (cand msvcCandidate, ok bool, err error) {
	if !strings.HasPrefix(id, "Visual Studio") {
		return msvcCandidate{}, false, nil
	}

	var root string
	found := false
	for _, rel := range msvcReleases {
		if !strings.HasPrefix(id, rel.id) {
			continue
		}
		tools, present := lookupEnv(rel.envVar)
		if !present {
			return msvcCandidate{}, true, &Error{
				Kind:     ErrDetection,
				Op:       "detect",
				Message:  fmt.Sprintf("MSVC compiler %s specified, but environment does not contain %s env variable", id, rel.envVar),
				ExitCode: -1,
			}
		}
		root = filepath.Join(tools, "..", "..", "VC", "bin")
		cand.Version = rel.version
		found = true
		break
	}
	if !found {
		return msvcCandidate{}, true, &Error{
			Kind:     ErrDetection,
			Op:       "detect",
			Message:  "invalid Visual Studio compiler id " + id,
			ExitCode: -1,
		}
	}

	switch {
	case strings.Contains(id, "Win64"):
		cand.TargetArch = "x86_64"
		cand.ToolDirs = []string{filepath.Join(root, "amd64"), filepath.Join(root, "x86_amd64")}
	case strings.Contains(id, "ARM"):
		cand.TargetArch = "armhf"
		cand.ToolDirs = []string{filepath.Join(root, "amd64_arm"), filepath.Join(root, "x86_arm")}
	default:
		cand.TargetArch = "x86"
		cand.ToolDirs = []string{filepath.Join(root, "amd64_x86"), root}
	}
	return cand, true, nil
}

func findVCVars(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "vcvars") && strings.HasSuffix(name, ".bat") {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}

// Detect identifies the compiler named by pathOrID. Visual Studio ids are
// resolved through the VS*COMNTOOLS environment variables; anything else is
// treated as the path of a GCC-like driver and queried with --version.
func Detect(ctx context.Context, pathOrID string) (*Compiler, error) {
	cand, isMSVC, err := resolveMSVCID(pathOrID, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	if isMSVC {
		for _, dir := range cand.ToolDirs {
			cl := filepath.Join(dir, "cl.exe")
			if fi, err := os.Stat(cl); err != nil || fi.IsDir() {
				continue
			}
			vcvars, ok := findVCVars(dir)
			if !ok {
				continue
			}
			c, err := New("msvc", cand.Version, cand.TargetArch, cl)
			if err != nil {
				return nil, err
			}
			c.VCVarsPath = vcvars
			return c, nil
		}
		return nil, &Error{
			Kind:     ErrDetection,
			Op:       "detect",
			Message:  fmt.Sprintf("detected MSVC %s compiler but the expected path does not contain expected tools", cand.Version),
			ExitCode: -1,
		}
	}

	out, err := callProgram(ctx, "", false, pathOrID, "--version")
	if err != nil {
		return nil, &Error{Kind: ErrDetection, Op: "detect", Message: "could not run " + pathOrID, ExitCode: -1, Err: err}
	}
	name, version, ok := DetectFromVersionOutput(out)
	if !ok {
		return nil, &Error{Kind: ErrDetection, Op: "detect", Message: "unrecognized --version output of " + pathOrID, ExitCode: -1}
	}
	return New(name, version, TargetArchOf(ctx, pathOrID), pathOrID)
}
