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
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ajroetker/hwy-asmtest/compiler"
	"github.com/ajroetker/hwy-asmtest/insnset"
	"github.com/ajroetker/hwy-asmtest/jsonutil"
	"github.com/ajroetker/hwy-asmtest/testdesc"
)

// OutputLocation returns the result file of category relative to the output
// root: <name>_<short version>/<category>_<arch>_<short ids>.json.
func OutputLocation(c *compiler.Compiler, cfg *insnset.Config, category string) string {
	arch := c.TargetArch
	if arch == "" {
		arch = "unknown"
	}
	ids := cfg.ShortIDs()
	if len(ids) == 0 {
		ids = []string{"none"}
	}
	parts := append([]string{category, arch}, ids...)
	return filepath.Join(c.Name+"_"+c.ShortVersion(), strings.Join(parts, "_")+".json")
}

// WriteResults writes tests as a JSON array. Tests sharing a code fragment
// are grouped under a single "code" key with their records sorted by
// testdesc.Compare; every test record is written on one line.
func WriteResults(w io.Writer, tests []*testdesc.Test) error {
	data := make([]any, 0, len(tests))
	for _, group := range testdesc.GroupByCode(tests) {
		if len(group) == 1 {
			data = append(data, jsonutil.Compact{V: group[0].JSON()})
			continue
		}
		sorted := slices.SortedStableFunc(slices.Values(group), testdesc.Compare)
		records := make([]any, len(sorted))
		for i, t := range sorted {
			rec := t.JSON()
			delete(rec, "code")
			records[i] = jsonutil.Compact{V: rec}
		}
		data = append(data, map[string]any{
			"code":  group[0].Desc.Code,
			"tests": records,
		})
	}
	return jsonutil.Write(w, data, 2)
}

// WriteResultsToFiles writes one file per configuration and category under
// root, creating directories as needed, and returns the written paths.
func WriteResultsToFiles(root string, c *compiler.Compiler, list []ConfigTests) ([]string, error) {
	var written []string
	for _, ct := range list {
		for _, cat := range slices.Sorted(maps.Keys(ct.Tests)) {
			path := filepath.Join(root, OutputLocation(c, ct.Config, cat))
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return written, fmt.Errorf("create result directory: %w", err)
			}
			if err := writeResultsFile(path, ct.Tests[cat]); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func writeResultsFile(path string, tests []*testdesc.Test) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteResults(f, tests); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
