// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"strings"
)

// BuildError is the distinguished error type for pipeline-stage failures.
//
// # Description
//
// Every orchestrator phase that fails wraps its cause in a BuildError
// carrying the phase name, a remediation hint, and (for toolchain
// failures) the tail of the captured process output. The CLI catches this
// type, prints it with an [ERROR] tag, and exits 1.
//
// # Example
//
//	var buildErr *BuildError
//	if errors.As(err, &buildErr) {
//	    fmt.Println(buildErr.Phase)       // "configure"
//	    fmt.Println(buildErr.Remediation) // "install CMake 3.15 or newer"
//	}
type BuildError struct {
	// Phase is the pipeline stage that failed (e.g. "configure", "build",
	// "validate-library").
	Phase string

	// Message describes the failure and its likely root cause.
	Message string

	// Remediation is at least one concrete step the user can take.
	Remediation string

	// Output is the tail of the captured toolchain output, if any.
	Output string

	// Wrapped is the underlying error.
	Wrapped error
}

// Error returns the formatted failure message.
func (e *BuildError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Phase, e.Message)
	if e.Wrapped != nil {
		fmt.Fprintf(&b, ": %v", e.Wrapped)
	}
	if e.Remediation != "" {
		fmt.Fprintf(&b, " (try: %s)", e.Remediation)
	}
	return b.String()
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *BuildError) Unwrap() error {
	return e.Wrapped
}

// outputTailLines bounds the toolchain transcript kept on a BuildError.
const outputTailLines = 40

// NewBuildError creates a BuildError for one pipeline phase.
func NewBuildError(phase, message, remediation string, wrapped error) *BuildError {
	return &BuildError{
		Phase:       phase,
		Message:     message,
		Remediation: remediation,
		Wrapped:     wrapped,
	}
}

// WithOutput attaches the tail of a toolchain transcript and returns the
// error for chaining.
func (e *BuildError) WithOutput(output []byte) *BuildError {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) > outputTailLines {
		lines = lines[len(lines)-outputTailLines:]
	}
	e.Output = strings.Join(lines, "\n")
	return e
}
