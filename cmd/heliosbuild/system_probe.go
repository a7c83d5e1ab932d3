// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package main: SystemProbe answers "is toolkit X available on this host".

Probes are side-effecting environment queries (env vars, PATH lookups,
well-known install locations). They are deliberately separated from the
resolution algorithm: the resolver takes probe results as data, so it stays
deterministic and testable without a GPU or an OpenGL stack.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Capability is the tagged result of one system-dependency probe.
//
// An explicit available/unavailable record replaces exception-probing:
// callers branch on Available instead of catching lookup failures.
type Capability struct {
	// Name is the system dependency identifier (cuda, opengl, glfw).
	Name string `json:"name"`

	// Available reports whether the toolkit was found.
	Available bool `json:"available"`

	// Detail names what was found (a path, a version line) or why the
	// probe failed. Diagnostic text only.
	Detail string `json:"detail,omitempty"`
}

// SystemProbe probes the host for toolkit availability.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type SystemProbe interface {
	// ProbeAll probes every known system dependency and returns the results
	// keyed by dependency name. Probes run concurrently; failure of one
	// probe is recorded in its Capability, never propagated as an error.
	ProbeAll(ctx context.Context) map[string]Capability

	// ProbeCUDA checks for a usable CUDA toolkit.
	ProbeCUDA(ctx context.Context) Capability
}

// =============================================================================
// Default Implementation
// =============================================================================

// DefaultSystemProbe probes through environment variables, PATH lookups,
// and well-known install locations via ProcessManager.
type DefaultSystemProbe struct {
	proc ProcessManager

	// getenv is injected for tests. Defaults to os.Getenv.
	getenv func(string) string

	// goos is injected for tests. Defaults to runtime.GOOS.
	goos string

	// mu guards the one-shot cache. Probes are cheap but --discover and
	// --validate-config may both ask within a single run.
	mu     sync.Mutex
	cached map[string]Capability
}

// NewDefaultSystemProbe creates a probe using the given process manager.
func NewDefaultSystemProbe(proc ProcessManager) *DefaultSystemProbe {
	return &DefaultSystemProbe{
		proc:   proc,
		getenv: os.Getenv,
		goos:   runtime.GOOS,
	}
}

// ProbeAll probes cuda, opengl, and glfw concurrently.
func (p *DefaultSystemProbe) ProbeAll(ctx context.Context) map[string]Capability {
	p.mu.Lock()
	if p.cached != nil {
		cached := p.cached
		p.mu.Unlock()
		return cached
	}
	p.mu.Unlock()

	results := make([]Capability, 3)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { results[0] = p.ProbeCUDA(gctx); return nil })
	g.Go(func() error { results[1] = p.probeOpenGL(gctx); return nil })
	g.Go(func() error { results[2] = p.probeGLFW(gctx); return nil })
	_ = g.Wait() // probe funcs never return errors; failures live in the Capability

	out := make(map[string]Capability, len(results))
	for _, c := range results {
		out[c.Name] = c
	}

	p.mu.Lock()
	p.cached = out
	p.mu.Unlock()
	return out
}

// ProbeCUDA checks CUDA_PATH/CUDA_HOME, then nvcc on PATH, then the
// conventional /usr/local/cuda install.
func (p *DefaultSystemProbe) ProbeCUDA(ctx context.Context) Capability {
	result := Capability{Name: SystemDepCUDA}

	for _, envVar := range []string{"CUDA_PATH", "CUDA_HOME"} {
		if path := p.getenv(envVar); path != "" {
			if _, err := os.Stat(path); err == nil {
				result.Available = true
				result.Detail = fmt.Sprintf("%s=%s", envVar, path)
				return result
			}
			result.Detail = fmt.Sprintf("%s points at missing path %s", envVar, path)
		}
	}

	if path, err := p.proc.LookPath("nvcc"); err == nil {
		if version := p.nvccVersion(ctx, path); version != "" {
			result.Detail = fmt.Sprintf("nvcc at %s (%s)", path, version)
		} else {
			result.Detail = "nvcc at " + path
		}
		result.Available = true
		return result
	}

	if p.goos != "windows" {
		if _, err := os.Stat("/usr/local/cuda"); err == nil {
			result.Available = true
			result.Detail = "/usr/local/cuda"
			return result
		}
	}

	if result.Detail == "" {
		result.Detail = "no CUDA_PATH/CUDA_HOME, nvcc not on PATH, /usr/local/cuda absent"
	}
	return result
}

// nvccVersion extracts the release line from `nvcc --version` output.
// Best effort; an unparseable or failing nvcc still counts as present.
func (p *DefaultSystemProbe) nvccVersion(ctx context.Context, nvccPath string) string {
	output, err := p.proc.Run(ctx, nvccPath, "--version")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(output), "\n") {
		if strings.Contains(line, "release") {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// probeOpenGL checks for an OpenGL development stack.
func (p *DefaultSystemProbe) probeOpenGL(_ context.Context) Capability {
	result := Capability{Name: SystemDepOpenGL}

	switch p.goos {
	case "darwin":
		// OpenGL.framework ships with the OS.
		result.Available = true
		result.Detail = "system OpenGL framework"
	case "windows":
		// opengl32 is part of the platform SDK.
		result.Available = true
		result.Detail = "opengl32 (platform SDK)"
	default:
		for _, dir := range []string{"/usr/lib", "/usr/lib64", "/usr/lib/x86_64-linux-gnu", "/usr/lib/aarch64-linux-gnu"} {
			if matches, _ := filepath.Glob(filepath.Join(dir, "libGL.so*")); len(matches) > 0 {
				result.Available = true
				result.Detail = matches[0]
				return result
			}
		}
		result.Detail = "libGL.so not found; install mesa/OpenGL development packages"
	}
	return result
}

// probeGLFW checks for GLFW via pkg-config, falling back to library search.
func (p *DefaultSystemProbe) probeGLFW(ctx context.Context) Capability {
	result := Capability{Name: SystemDepGLFW}

	if _, err := p.proc.LookPath("pkg-config"); err == nil {
		if _, err := p.proc.Run(ctx, "pkg-config", "--exists", "glfw3"); err == nil {
			result.Available = true
			result.Detail = "pkg-config glfw3"
			return result
		}
	}

	// Helios vendors GLFW on platforms without a system package, so absence
	// is a warning-grade signal, not a hard incompatibility.
	switch p.goos {
	case "linux":
		for _, dir := range []string{"/usr/lib", "/usr/lib64", "/usr/lib/x86_64-linux-gnu"} {
			if matches, _ := filepath.Glob(filepath.Join(dir, "libglfw.so*")); len(matches) > 0 {
				result.Available = true
				result.Detail = matches[0]
				return result
			}
		}
		result.Detail = "glfw3 not found via pkg-config or library search"
	default:
		result.Available = true
		result.Detail = "vendored GLFW build"
	}
	return result
}

// =============================================================================
// Mock Implementation for Testing
// =============================================================================

// MockSystemProbe is a test double returning fixed capabilities.
type MockSystemProbe struct {
	// Capabilities is returned from ProbeAll verbatim. Nil means
	// "everything available".
	Capabilities map[string]Capability
}

// ProbeAll returns the configured capability map.
func (m *MockSystemProbe) ProbeAll(_ context.Context) map[string]Capability {
	if m.Capabilities == nil {
		return map[string]Capability{
			SystemDepCUDA:   {Name: SystemDepCUDA, Available: true},
			SystemDepOpenGL: {Name: SystemDepOpenGL, Available: true},
			SystemDepGLFW:   {Name: SystemDepGLFW, Available: true},
		}
	}
	return m.Capabilities
}

// ProbeCUDA returns the configured cuda capability.
func (m *MockSystemProbe) ProbeCUDA(ctx context.Context) Capability {
	return m.ProbeAll(ctx)[SystemDepCUDA]
}

// Compile-time interface compliance check.
var (
	_ SystemProbe = (*DefaultSystemProbe)(nil)
	_ SystemProbe = (*MockSystemProbe)(nil)
)
