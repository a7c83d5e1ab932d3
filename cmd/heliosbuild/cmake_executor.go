// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"strconv"
)

// CMakeOptions configures one configure+build cycle.
type CMakeOptions struct {
	// SourceDir is the directory containing the root CMakeLists.txt.
	SourceDir string

	// BuildDir is the out-of-source build directory.
	BuildDir string

	// Definitions are the -D cache entries (plugin flags, OptiX pairing).
	Definitions []CMakeDefinition

	// ExtraArgs are user-supplied --cmake-args passthrough values.
	ExtraArgs []string

	// Env carries toolchain environment variables (CUDA_PATH and friends).
	Env *EnvVars
}

// CMakeExecutor drives the external CMake toolchain.
//
// # Error Handling
//
// Both methods wrap non-zero exits in a *BuildError carrying the captured
// combined output, so callers get the compiler transcript alongside the
// failure.
type CMakeExecutor interface {
	// Configure runs the CMake configure step.
	Configure(ctx context.Context, opts CMakeOptions) error

	// Build runs the CMake build step with the configured parallelism.
	Build(ctx context.Context, opts CMakeOptions) error
}

// DefaultCMakeExecutor implements CMakeExecutor through ProcessManager.
type DefaultCMakeExecutor struct {
	proc ProcessManager
	cfg  *BuildConfiguration
}

// NewDefaultCMakeExecutor creates an executor for the detected platform.
func NewDefaultCMakeExecutor(proc ProcessManager, cfg *BuildConfiguration) (*DefaultCMakeExecutor, error) {
	if proc == nil {
		return nil, fmt.Errorf("%w: ProcessManager", ErrNilDependency)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: BuildConfiguration", ErrNilDependency)
	}
	return &DefaultCMakeExecutor{proc: proc, cfg: cfg}, nil
}

// ConfigureArgs assembles the full configure command line. Exposed for
// manifest generation and tests; argument order is deterministic.
func (e *DefaultCMakeExecutor) ConfigureArgs(opts CMakeOptions) []string {
	args := []string{opts.SourceDir}
	if e.cfg.Generator != "" {
		args = append(args, "-G", e.cfg.Generator)
	}
	args = append(args, e.cfg.BaseCMakeArgs...)
	args = append(args, "-DCMAKE_BUILD_TYPE="+e.cfg.BuildType)
	for _, def := range opts.Definitions {
		args = append(args, def.Flag())
	}
	args = append(args, opts.ExtraArgs...)
	return args
}

// Configure runs the CMake configure step in the build directory.
func (e *DefaultCMakeExecutor) Configure(ctx context.Context, opts CMakeOptions) error {
	for _, def := range opts.Definitions {
		if err := def.Validate(); err != nil {
			return NewBuildError("configure", "invalid cmake definition",
				"check plugin names and --cmake-args values", err)
		}
	}

	output, err := e.proc.RunInDir(ctx, opts.BuildDir, opts.Env.Slice(), "cmake", e.ConfigureArgs(opts)...)
	if err != nil {
		return NewBuildError("configure", "cmake configure failed",
			"inspect the output above; missing compilers and toolkits are the usual cause", err).
			WithOutput(output)
	}
	return nil
}

// Build runs the CMake build step.
func (e *DefaultCMakeExecutor) Build(ctx context.Context, opts CMakeOptions) error {
	args := []string{"--build", ".", "--config", e.cfg.BuildType}
	if e.cfg.Parallelism > 0 {
		args = append(args, "--parallel", strconv.Itoa(e.cfg.Parallelism))
	}

	output, err := e.proc.RunInDir(ctx, opts.BuildDir, opts.Env.Slice(), "cmake", args...)
	if err != nil {
		return NewBuildError("build", "cmake build failed",
			"scroll up for the first compiler error; rerun with --buildmode debug for more detail", err).
			WithOutput(output)
	}
	return nil
}

// Compile-time interface compliance check.
var _ CMakeExecutor = (*DefaultCMakeExecutor)(nil)
