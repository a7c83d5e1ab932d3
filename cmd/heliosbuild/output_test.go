// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"testing"
	"time"
)

// TestOutputResult_ExitCodes verifies the binary success/failure contract
// in quiet mode, where nothing is printed: success is 0 and everything
// else, findings or runtime errors alike, is 1.
func TestOutputResult_ExitCodes(t *testing.T) {
	t.Parallel()

	quiet := OutputConfig{Quiet: true}
	start := time.Now()

	if code := OutputResult(quiet, "build", start, nil, false, nil); code != 0 {
		t.Errorf("expected exit 0 on success, got: %d", code)
	}
	if code := OutputResult(quiet, "build", start, nil, true, nil); code != 1 {
		t.Errorf("expected exit 1 on findings, got: %d", code)
	}
	if code := OutputResult(quiet, "build", start, nil, false, errors.New("boom")); code != 1 {
		t.Errorf("expected exit 1 on error, got: %d", code)
	}
	if code := OutputResult(quiet, "build", start, nil, true, errors.New("boom")); code != 1 {
		t.Errorf("expected exit 1 on error with findings, got: %d", code)
	}
}

// TestOutputResult_FindingsWithoutQuiet verifies findings still change the
// exit code outside quiet mode.
func TestOutputResult_FindingsWithoutQuiet(t *testing.T) {
	t.Parallel()

	code := OutputResult(OutputConfig{}, "validate-config", time.Now(),
		&ResolveResult{}, true, nil)
	if code != CLIExitFailure {
		t.Errorf("expected failure exit, got: %d", code)
	}
}
