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
	"runtime"
	"strings"
	"unsafe"
)

// Architecture strings returned by DetectArchitecture.
const (
	ArchX64   = "x64"
	ArchARM64 = "arm64"
	ArchX86   = "x86"
	ArchARM   = "arm"
)

// Build mode strings accepted by --buildmode, mapped to CMake build types.
var buildModes = map[string]string{
	"debug":          "Debug",
	"release":        "Release",
	"relwithdebinfo": "RelWithDebInfo",
}

// BuildConfiguration describes the host-derived build parameters.
//
// # Description
//
// Computed once per orchestrator instance by DetectBuildConfiguration.
// Architecture detection follows a priority-ordered signal sequence; a
// later, more specific signal always wins over an earlier, generic one.
type BuildConfiguration struct {
	// Platform is the platform identifier (windows, linux, macos).
	Platform string

	// Architecture is one of x64, arm64, x86, arm.
	Architecture string

	// Generator is the CMake generator name, empty for the platform default.
	Generator string

	// BaseCMakeArgs are always passed to the configure step.
	BaseCMakeArgs []string

	// BuildType is the CMake build type (Debug, Release, RelWithDebInfo).
	BuildType string

	// LibraryName is the expected shared-library file name for the platform.
	LibraryName string

	// StaticLibraryName is the static-archive fallback name (Unix only).
	StaticLibraryName string

	// Parallelism is the worker count hint passed to the build tool.
	Parallelism int

	// Warnings collects non-fatal detection diagnostics.
	Warnings []string
}

// PlatformDetector derives the BuildConfiguration from the host.
type PlatformDetector interface {
	// Detect returns the build configuration for this host and build mode.
	// Never fails: missing signals degrade to defaults with warnings.
	Detect(ctx context.Context, buildMode string) *BuildConfiguration
}

// DefaultPlatformDetector implements PlatformDetector with injectable
// signal sources for testing.
type DefaultPlatformDetector struct {
	proc ProcessManager

	// getenv is injected for tests. Defaults to os.Getenv at construction.
	getenv func(string) string

	// goos/goarch are injected for tests. Default to runtime values.
	goos   string
	goarch string
}

// NewDefaultPlatformDetector creates a detector for the real host.
func NewDefaultPlatformDetector(proc ProcessManager, getenv func(string) string) *DefaultPlatformDetector {
	return &DefaultPlatformDetector{
		proc:   proc,
		getenv: getenv,
		goos:   runtime.GOOS,
		goarch: runtime.GOARCH,
	}
}

// Detect derives the full build configuration.
func (d *DefaultPlatformDetector) Detect(ctx context.Context, buildMode string) *BuildConfiguration {
	cfg := &BuildConfiguration{
		Platform:    d.platformName(),
		Parallelism: runtime.NumCPU(),
	}

	cfg.Architecture = d.DetectArchitecture(ctx, cfg)

	buildType, ok := buildModes[strings.ToLower(buildMode)]
	if !ok {
		buildType = "Release"
		if buildMode != "" {
			cfg.Warnings = append(cfg.Warnings,
				fmt.Sprintf("unknown build mode %q, using release", buildMode))
		}
	}
	cfg.BuildType = buildType

	switch cfg.Platform {
	case PlatformWindows:
		cfg.Generator = "Visual Studio 17 2022"
		cfg.LibraryName = "libhelios.dll"
		cfg.BaseCMakeArgs = []string{"-A", windowsGeneratorArch(cfg.Architecture)}
	case PlatformMacOS:
		cfg.LibraryName = "libhelios.dylib"
		cfg.StaticLibraryName = "libhelios.a"
		cfg.BaseCMakeArgs = []string{"-DCMAKE_OSX_ARCHITECTURES=" + macOSArch(cfg.Architecture)}
	default:
		cfg.LibraryName = "libhelios.so"
		cfg.StaticLibraryName = "libhelios.a"
	}

	cfg.BaseCMakeArgs = append(cfg.BaseCMakeArgs,
		"-DBUILD_SHARED_LIBS=ON",
		"-DCMAKE_POSITION_INDEPENDENT_CODE=ON",
	)

	return cfg
}

// platformName maps GOOS to the catalog's platform identifiers.
func (d *DefaultPlatformDetector) platformName() string {
	switch d.goos {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMacOS
	default:
		return PlatformLinux
	}
}

// DetectArchitecture determines the target CPU architecture.
//
// # Description
//
// Priority-ordered signal sequence; the first signal that resolves wins:
//
//  1. HELIOS_TARGET_ARCH, the explicit override with highest priority.
//  2. CI_CROSS_TARGET, a cross-compilation marker set by CI pipelines.
//  3. Host OS probe (`uname -m` on Unix, PROCESSOR_ARCHITECTURE on Windows).
//  4. Interpreter/runtime build target (GOARCH).
//  5. Pointer-width fallback.
//
// Always returns one of the four architecture strings; defaults to x64 with
// a warning when nothing resolves.
func (d *DefaultPlatformDetector) DetectArchitecture(ctx context.Context, cfg *BuildConfiguration) string {
	if arch := normalizeArch(d.getenv("HELIOS_TARGET_ARCH")); arch != "" {
		return arch
	}
	if arch := normalizeArch(d.getenv("CI_CROSS_TARGET")); arch != "" {
		return arch
	}

	if arch := d.probeHostArch(ctx); arch != "" {
		return arch
	}

	if arch := normalizeArch(d.goarch); arch != "" {
		return arch
	}

	if unsafe.Sizeof(uintptr(0)) == 4 {
		cfg.Warnings = append(cfg.Warnings, "architecture detection fell back to pointer width (32-bit)")
		return ArchX86
	}
	cfg.Warnings = append(cfg.Warnings, "could not detect architecture, assuming x64")
	return ArchX64
}

// probeHostArch asks the OS for its native architecture.
func (d *DefaultPlatformDetector) probeHostArch(ctx context.Context) string {
	if d.goos == "windows" {
		return normalizeArch(d.getenv("PROCESSOR_ARCHITECTURE"))
	}
	output, err := d.proc.Run(ctx, "uname", "-m")
	if err != nil {
		return ""
	}
	return normalizeArch(strings.TrimSpace(string(output)))
}

// normalizeArch maps the many spellings of each architecture to the four
// canonical strings. Unknown spellings map to "" so the next signal in the
// priority order gets a chance.
func normalizeArch(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "x64", "amd64", "x86_64", "em64t":
		return ArchX64
	case "arm64", "aarch64":
		return ArchARM64
	case "x86", "386", "i386", "i686":
		return ArchX86
	case "arm", "armv7l", "armv6l":
		return ArchARM
	default:
		return ""
	}
}

// windowsGeneratorArch maps canonical architectures to Visual Studio -A values.
func windowsGeneratorArch(arch string) string {
	switch arch {
	case ArchARM64:
		return "ARM64"
	case ArchX86:
		return "Win32"
	case ArchARM:
		return "ARM"
	default:
		return "x64"
	}
}

// macOSArch maps canonical architectures to CMAKE_OSX_ARCHITECTURES values.
func macOSArch(arch string) string {
	if arch == ArchARM64 {
		return "arm64"
	}
	return "x86_64"
}

// Compile-time interface compliance check.
var _ PlatformDetector = (*DefaultPlatformDetector)(nil)
