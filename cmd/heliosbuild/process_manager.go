// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package main: ProcessManager abstracts external process execution.

Every shell-out in the build pipeline (cmake, nvcc, ar, cc, ldd, otool)
goes through this interface so unit tests can mock toolchain behavior
without real processes.
*/
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// -----------------------------------------------------------------------------
// Interface Definition
// -----------------------------------------------------------------------------

// ProcessManager handles external process operations.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use from multiple goroutines.
//
// # Context Handling
//
// All methods accept a context.Context; long-running toolchain invocations
// are killed when the context is cancelled or times out.
type ProcessManager interface {
	// Run executes a command and returns its stdout.
	//
	// Stderr is captured and folded into the returned error on failure.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// RunInDir executes a command in the given working directory with extra
	// environment variables appended to the inherited environment, streaming
	// nothing: combined stdout+stderr is returned in full.
	//
	// This is the toolchain entry point: CMake interleaves progress and
	// diagnostics across both streams, and the combined transcript is what
	// goes into a BuildError when the exit status is non-zero.
	RunInDir(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error)

	// LookPath reports whether an executable is available on PATH and
	// returns its full path.
	LookPath(name string) (string, error)
}

// -----------------------------------------------------------------------------
// Implementation
// -----------------------------------------------------------------------------

// DefaultProcessManager implements ProcessManager using os/exec.
type DefaultProcessManager struct{}

// NewDefaultProcessManager creates a ProcessManager that executes real
// processes. Use MockProcessManager in tests instead.
func NewDefaultProcessManager() *DefaultProcessManager {
	return &DefaultProcessManager{}
}

// Run executes a command and returns its stdout.
func (pm *DefaultProcessManager) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// RunInDir executes a command in dir with extra environment variables,
// returning the combined output.
func (pm *DefaultProcessManager) RunInDir(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return output, nil
}

// LookPath reports whether an executable is available on PATH.
func (pm *DefaultProcessManager) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// -----------------------------------------------------------------------------
// Mock Implementation for Testing
// -----------------------------------------------------------------------------

// MockProcessManager is a test double for ProcessManager.
//
// Configure the mock by setting function fields before use. If a function
// field is nil and the corresponding method is called, it panics.
//
// # Examples
//
//	mock := &MockProcessManager{
//	    RunInDirFunc: func(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
//	        if name == "cmake" {
//	            return []byte("-- Configuring done"), nil
//	        }
//	        return nil, fmt.Errorf("unexpected command: %s", name)
//	    },
//	}
type MockProcessManager struct {
	// RunFunc is called when Run is invoked.
	RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

	// RunInDirFunc is called when RunInDir is invoked.
	RunInDirFunc func(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error)

	// LookPathFunc is called when LookPath is invoked. If nil, LookPath
	// reports every executable as present at /usr/bin/<name>.
	LookPathFunc func(name string) (string, error)

	// Calls records all method invocations for verification.
	Calls []ProcessCall

	// mu protects Calls for concurrent access.
	mu sync.Mutex
}

// ProcessCall records a single method invocation.
type ProcessCall struct {
	Method string
	Name   string
	Dir    string
	Args   []string
}

// Run delegates to RunFunc and records the call.
func (m *MockProcessManager) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.record(ProcessCall{Method: "Run", Name: name, Args: args})
	if m.RunFunc == nil {
		panic("MockProcessManager.RunFunc not set")
	}
	return m.RunFunc(ctx, name, args...)
}

// RunInDir delegates to RunInDirFunc and records the call.
func (m *MockProcessManager) RunInDir(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	m.record(ProcessCall{Method: "RunInDir", Name: name, Dir: dir, Args: args})
	if m.RunInDirFunc == nil {
		panic("MockProcessManager.RunInDirFunc not set")
	}
	return m.RunInDirFunc(ctx, dir, env, name, args...)
}

// LookPath delegates to LookPathFunc and records the call.
func (m *MockProcessManager) LookPath(name string) (string, error) {
	m.record(ProcessCall{Method: "LookPath", Name: name})
	if m.LookPathFunc == nil {
		return "/usr/bin/" + name, nil
	}
	return m.LookPathFunc(name)
}

func (m *MockProcessManager) record(call ProcessCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

// GetCalls returns a copy of all recorded calls.
func (m *MockProcessManager) GetCalls() []ProcessCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ProcessCall, len(m.Calls))
	copy(out, m.Calls)
	return out
}

// Reset clears all recorded calls.
func (m *MockProcessManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// Compile-time interface compliance check.
var (
	_ ProcessManager = (*DefaultProcessManager)(nil)
	_ ProcessManager = (*MockProcessManager)(nil)
)
