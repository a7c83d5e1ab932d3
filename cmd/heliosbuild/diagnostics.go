// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package main: DiagnosticsCollector captures build failure context.

When a phase fails, a YAML bundle is written next to the build output so
the failure can be reported or inspected later without rerunning the
build. Toolchain output is sanitized before persisting; credential-shaped
content never lands on disk.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// DiagnosticsBundle is the persisted failure report.
type DiagnosticsBundle struct {
	RunID        string    `yaml:"run_id"`
	CollectedAt  time.Time `yaml:"collected_at"`
	Phase        string    `yaml:"phase"`
	Error        string    `yaml:"error"`
	Remediation  string    `yaml:"remediation,omitempty"`
	Output       string    `yaml:"output,omitempty"`
	GoOS         string    `yaml:"goos"`
	GoArch       string    `yaml:"goarch"`
	Plugins      []string  `yaml:"plugins,omitempty"`
	AddedPlugins []string  `yaml:"added_plugins,omitempty"`
	Warnings     []string  `yaml:"warnings,omitempty"`
	Errors       []string  `yaml:"errors,omitempty"`
}

// DiagnosticsCollector persists failure context for later inspection.
type DiagnosticsCollector interface {
	// Collect writes a bundle describing the failed phase and returns the
	// path it was written to. Collection failures are returned but callers
	// treat them as best-effort.
	Collect(ctx context.Context, phase string, failure error, resolution *ResolutionResult) (string, error)
}

// DefaultDiagnosticsCollector writes bundles into a fixed directory.
type DefaultDiagnosticsCollector struct {
	dir   string
	nowFn func() time.Time
	idFn  func() string
}

// NewDefaultDiagnosticsCollector creates a collector writing into dir.
func NewDefaultDiagnosticsCollector(dir string) *DefaultDiagnosticsCollector {
	return &DefaultDiagnosticsCollector{
		dir:   dir,
		nowFn: time.Now,
		idFn:  func() string { return uuid.NewString() },
	}
}

// Collect writes the bundle.
func (c *DefaultDiagnosticsCollector) Collect(ctx context.Context, phase string, failure error, resolution *ResolutionResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	bundle := DiagnosticsBundle{
		RunID:       c.idFn(),
		CollectedAt: c.nowFn().UTC(),
		Phase:       phase,
		GoOS:        runtime.GOOS,
		GoArch:      runtime.GOARCH,
	}
	if failure != nil {
		bundle.Error = sanitizeForDiagnostics(failure.Error())
	}

	var buildErr *BuildError
	if errors.As(failure, &buildErr) {
		bundle.Remediation = buildErr.Remediation
		bundle.Output = sanitizeForDiagnostics(buildErr.Output)
	}

	if resolution != nil {
		bundle.Plugins = resolution.FinalPlugins
		bundle.AddedPlugins = resolution.AddedPlugins
		bundle.Warnings = resolution.Warnings
		bundle.Errors = resolution.Errors
	}

	data, err := yaml.Marshal(&bundle)
	if err != nil {
		return "", fmt.Errorf("failed to encode diagnostics bundle: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create diagnostics directory: %w", err)
	}
	path := filepath.Join(c.dir, fmt.Sprintf("heliosbuild-diagnostics-%s.yaml", bundle.RunID))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write diagnostics bundle: %w", err)
	}
	return path, nil
}

// MockDiagnosticsCollector records calls for testing.
type MockDiagnosticsCollector struct {
	// CollectFunc overrides Collect behavior when set.
	CollectFunc func(ctx context.Context, phase string, failure error, resolution *ResolutionResult) (string, error)

	// Calls records every phase Collect was invoked with.
	Calls []string
}

// Collect implements DiagnosticsCollector.
func (m *MockDiagnosticsCollector) Collect(ctx context.Context, phase string, failure error, resolution *ResolutionResult) (string, error) {
	m.Calls = append(m.Calls, phase)
	if m.CollectFunc != nil {
		return m.CollectFunc(ctx, phase, failure, resolution)
	}
	return "", nil
}

// Compile-time interface compliance checks.
var (
	_ DiagnosticsCollector = (*DefaultDiagnosticsCollector)(nil)
	_ DiagnosticsCollector = (*MockDiagnosticsCollector)(nil)
)
