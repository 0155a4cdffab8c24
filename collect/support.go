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
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/hwy-asmtest/asm"
	"github.com/ajroetker/hwy-asmtest/codegen"
	"github.com/ajroetker/hwy-asmtest/compiler"
	"github.com/ajroetker/hwy-asmtest/insnset"
)

// ParseSupportedCapabilities returns the capabilities among caps that the
// compiled capability probe in listing reports as available.
func ParseSupportedCapabilities(listing string, caps []insnset.Capability) ([]insnset.Capability, error) {
	names := make(map[string]bool)
	for _, f := range asm.Parse(listing) {
		names[f.Name] = true
	}

	supported := []insnset.Capability{}
	for _, cp := range caps {
		switch {
		case names[codegen.CapabilityFunctionName(cp, true)]:
			supported = append(supported, cp)
		case names[codegen.CapabilityFunctionName(cp, false)]:
		default:
			return nil, &Error{
				Kind:    ErrMissingFunction,
				Op:      "detect capabilities",
				Ident:   string(cp),
				Listing: listing,
			}
		}
	}
	return supported, nil
}

// Support is the outcome of probing one configuration.
type Support struct {
	// Config carries the detected capabilities when Supported.
	Config    *insnset.Config
	Supported bool
	// Reason is the compiler failure that made the configuration
	// unsupported.
	Reason error
}

// removeProbeDir removes a capability probe's scratch directory.
var removeProbeDir = RemoveAllWithRetry

// DetectSupport compiles the capability probe for cfg. A compiler failure
// means the configuration is unsupported and is not an error; libsimdpp
// rejects instruction sets the compiler cannot target. The returned error
// is reserved for listings that cannot be interpreted. A scratch directory
// that cannot be removed is logged at debug level on slog.Default.
func DetectSupport(ctx context.Context, libraryPath string, c *compiler.Compiler, cfg *insnset.Config) (Support, error) {
	dir, err := os.MkdirTemp("", "asmtest-probe-")
	if err != nil {
		return Support{}, err
	}
	defer func() {
		if err := removeProbeDir(dir); err != nil {
			slog.Debug("could not remove probe directory", "path", dir, "error", err)
		}
	}()

	caps := insnset.AllCapabilities()
	listing, err := c.CompileToAsm(ctx, libraryPath, cfg, codegen.CapabilityProbe(cfg, caps), dir)
	if err != nil {
		if ctx.Err() != nil {
			return Support{}, ctx.Err()
		}
		return Support{Config: cfg, Reason: err}, nil
	}

	supported, err := ParseSupportedCapabilities(listing, caps)
	if err != nil {
		return Support{}, err
	}
	return Support{Config: cfg.WithCapabilities(supported), Supported: true}, nil
}

// DetectSupportedConfigs probes every configuration with at most workers
// concurrent compilations and partitions the results, each in input order.
func DetectSupportedConfigs(ctx context.Context, libraryPath string, c *compiler.Compiler, configs []*insnset.Config, workers int) (supported []*insnset.Config, unsupported []Support, err error) {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	results := make([]Support, len(configs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, cfg := range configs {
		g.Go(func() error {
			s, err := DetectSupport(gctx, libraryPath, c, cfg)
			if err != nil {
				return err
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for _, s := range results {
		if s.Supported {
			supported = append(supported, s.Config)
		} else {
			unsupported = append(unsupported, s)
		}
	}
	return supported, unsupported, nil
}
