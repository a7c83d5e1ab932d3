// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package main provides tests for platform and architecture detection.

These tests verify:
  - The priority-ordered architecture signal sequence
  - Platform-specific generator, library name, and CMake argument defaults
  - Build mode normalization
*/
package main

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// envMap returns a getenv function backed by a fixed map.
func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

// unameMock returns a ProcessManager whose `uname -m` answer is fixed.
func unameMock(arch string) *MockProcessManager {
	return &MockProcessManager{
		RunFunc: func(_ context.Context, name string, args ...string) ([]byte, error) {
			if name == "uname" {
				return []byte(arch + "\n"), nil
			}
			return nil, errors.New("unexpected command: " + name)
		},
	}
}

// newLinuxDetector builds a detector pinned to linux with the given
// environment and uname answer.
func newLinuxDetector(env map[string]string, unameArch string) *DefaultPlatformDetector {
	d := NewDefaultPlatformDetector(unameMock(unameArch), envMap(env))
	d.goos = "linux"
	d.goarch = "amd64"
	return d
}

// =============================================================================
// Architecture Priority Tests
// =============================================================================

// TestDetectArchitecture_EnvOverrideWins verifies HELIOS_TARGET_ARCH beats
// every other signal.
func TestDetectArchitecture_EnvOverrideWins(t *testing.T) {
	t.Parallel()

	d := newLinuxDetector(map[string]string{
		"HELIOS_TARGET_ARCH": "aarch64",
		"CI_CROSS_TARGET":    "x86_64",
	}, "x86_64")

	cfg := d.Detect(context.Background(), "release")
	if cfg.Architecture != ArchARM64 {
		t.Errorf("expected arm64 from HELIOS_TARGET_ARCH, got: %q", cfg.Architecture)
	}
}

// TestDetectArchitecture_CrossTargetBeatsProbe verifies CI_CROSS_TARGET
// outranks the host probe.
func TestDetectArchitecture_CrossTargetBeatsProbe(t *testing.T) {
	t.Parallel()

	d := newLinuxDetector(map[string]string{"CI_CROSS_TARGET": "arm64"}, "x86_64")

	cfg := d.Detect(context.Background(), "release")
	if cfg.Architecture != ArchARM64 {
		t.Errorf("expected arm64 from CI_CROSS_TARGET, got: %q", cfg.Architecture)
	}
}

// TestDetectArchitecture_UnameProbe verifies the host probe is used when no
// environment override is set.
func TestDetectArchitecture_UnameProbe(t *testing.T) {
	t.Parallel()

	d := newLinuxDetector(map[string]string{}, "armv7l")

	cfg := d.Detect(context.Background(), "release")
	if cfg.Architecture != ArchARM {
		t.Errorf("expected arm from uname, got: %q", cfg.Architecture)
	}
}

// TestDetectArchitecture_GoarchFallback verifies the runtime target is used
// when the host probe fails.
func TestDetectArchitecture_GoarchFallback(t *testing.T) {
	t.Parallel()

	proc := &MockProcessManager{
		RunFunc: func(_ context.Context, _ string, _ ...string) ([]byte, error) {
			return nil, errors.New("uname unavailable")
		},
	}
	d := NewDefaultPlatformDetector(proc, envMap(nil))
	d.goos = "linux"
	d.goarch = "arm64"

	cfg := d.Detect(context.Background(), "release")
	if cfg.Architecture != ArchARM64 {
		t.Errorf("expected arm64 from runtime target, got: %q", cfg.Architecture)
	}
}

// TestDetectArchitecture_UnknownSpellingFallsThrough verifies an
// unrecognized env value does not stop the signal sequence.
func TestDetectArchitecture_UnknownSpellingFallsThrough(t *testing.T) {
	t.Parallel()

	d := newLinuxDetector(map[string]string{"HELIOS_TARGET_ARCH": "quantum"}, "x86_64")

	cfg := d.Detect(context.Background(), "release")
	if cfg.Architecture != ArchX64 {
		t.Errorf("expected x64 from the next signal, got: %q", cfg.Architecture)
	}
}

// TestDetectArchitecture_WindowsUsesProcessorArchitecture verifies windows
// probes the environment instead of uname.
func TestDetectArchitecture_WindowsUsesProcessorArchitecture(t *testing.T) {
	t.Parallel()

	proc := &MockProcessManager{
		RunFunc: func(_ context.Context, name string, _ ...string) ([]byte, error) {
			t.Errorf("unexpected process launch on windows: %s", name)
			return nil, errors.New("unexpected")
		},
	}
	d := NewDefaultPlatformDetector(proc, envMap(map[string]string{
		"PROCESSOR_ARCHITECTURE": "AMD64",
	}))
	d.goos = "windows"
	d.goarch = "amd64"

	cfg := d.Detect(context.Background(), "release")
	if cfg.Architecture != ArchX64 {
		t.Errorf("expected x64, got: %q", cfg.Architecture)
	}
}

// =============================================================================
// Platform Defaults Tests
// =============================================================================

// TestDetect_LinuxDefaults verifies the linux configuration shape.
func TestDetect_LinuxDefaults(t *testing.T) {
	t.Parallel()

	cfg := newLinuxDetector(nil, "x86_64").Detect(context.Background(), "release")

	if cfg.Platform != PlatformLinux {
		t.Errorf("expected linux, got: %q", cfg.Platform)
	}
	if cfg.Generator != "" {
		t.Errorf("expected platform-default generator, got: %q", cfg.Generator)
	}
	if cfg.LibraryName != "libhelios.so" {
		t.Errorf("expected libhelios.so, got: %q", cfg.LibraryName)
	}
	if cfg.StaticLibraryName != "libhelios.a" {
		t.Errorf("expected libhelios.a fallback, got: %q", cfg.StaticLibraryName)
	}
	if cfg.BuildType != "Release" {
		t.Errorf("expected Release, got: %q", cfg.BuildType)
	}
	if cfg.Parallelism < 1 {
		t.Errorf("expected positive parallelism, got: %d", cfg.Parallelism)
	}
	assertContainsArg(t, cfg.BaseCMakeArgs, "-DBUILD_SHARED_LIBS=ON")
	assertContainsArg(t, cfg.BaseCMakeArgs, "-DCMAKE_POSITION_INDEPENDENT_CODE=ON")
}

// TestDetect_WindowsDefaults verifies the Visual Studio configuration.
func TestDetect_WindowsDefaults(t *testing.T) {
	t.Parallel()

	d := NewDefaultPlatformDetector(&MockProcessManager{}, envMap(map[string]string{
		"PROCESSOR_ARCHITECTURE": "ARM64",
	}))
	d.goos = "windows"
	d.goarch = "amd64"

	cfg := d.Detect(context.Background(), "debug")

	if cfg.Platform != PlatformWindows {
		t.Errorf("expected windows, got: %q", cfg.Platform)
	}
	if cfg.Generator != "Visual Studio 17 2022" {
		t.Errorf("unexpected generator: %q", cfg.Generator)
	}
	if cfg.LibraryName != "libhelios.dll" {
		t.Errorf("expected libhelios.dll, got: %q", cfg.LibraryName)
	}
	if cfg.BuildType != "Debug" {
		t.Errorf("expected Debug, got: %q", cfg.BuildType)
	}
	assertContainsArg(t, cfg.BaseCMakeArgs, "-A")
	assertContainsArg(t, cfg.BaseCMakeArgs, "ARM64")
}

// TestDetect_MacOSDefaults verifies the macOS configuration.
func TestDetect_MacOSDefaults(t *testing.T) {
	t.Parallel()

	d := NewDefaultPlatformDetector(unameMock("arm64"), envMap(nil))
	d.goos = "darwin"
	d.goarch = "arm64"

	cfg := d.Detect(context.Background(), "relwithdebinfo")

	if cfg.Platform != PlatformMacOS {
		t.Errorf("expected macos, got: %q", cfg.Platform)
	}
	if cfg.LibraryName != "libhelios.dylib" {
		t.Errorf("expected libhelios.dylib, got: %q", cfg.LibraryName)
	}
	if cfg.BuildType != "RelWithDebInfo" {
		t.Errorf("expected RelWithDebInfo, got: %q", cfg.BuildType)
	}
	assertContainsArg(t, cfg.BaseCMakeArgs, "-DCMAKE_OSX_ARCHITECTURES=arm64")
}

// TestDetect_UnknownBuildModeWarns verifies an unrecognized mode degrades
// to Release with a warning.
func TestDetect_UnknownBuildModeWarns(t *testing.T) {
	t.Parallel()

	cfg := newLinuxDetector(nil, "x86_64").Detect(context.Background(), "turbo")

	if cfg.BuildType != "Release" {
		t.Errorf("expected Release fallback, got: %q", cfg.BuildType)
	}
	found := false
	for _, w := range cfg.Warnings {
		if strings.Contains(w, "turbo") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected warning naming the bad mode, got: %v", cfg.Warnings)
	}
}

// TestNormalizeArch covers the spelling table.
func TestNormalizeArch(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"x86_64":  ArchX64,
		"AMD64":   ArchX64,
		"aarch64": ArchARM64,
		"arm64":   ArchARM64,
		"i686":    ArchX86,
		"386":     ArchX86,
		"armv6l":  ArchARM,
		"riscv64": "",
		"":        "",
	}
	for raw, want := range cases {
		if got := normalizeArch(raw); got != want {
			t.Errorf("normalizeArch(%q) = %q, want %q", raw, got, want)
		}
	}
}

func assertContainsArg(t *testing.T, args []string, want string) {
	t.Helper()
	for _, a := range args {
		if a == want {
			return
		}
	}
	t.Errorf("expected %q in args %v", want, args)
}
