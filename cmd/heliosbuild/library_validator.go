// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package main: LibraryValidator is the fail-fast load-sanity check.

A library that builds but cannot load is treated as a build failure, not a
warning. Validation has two passes: a structural pass that parses the
artifact (correct binary format, shared-object type, matching CPU
architecture) and a linker pass that asks the platform linker tooling for
unresolved runtime dependencies. Either pass failing is a hard error with a
remediation hint.
*/
package main

import (
	"context"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LibraryValidator verifies that a built artifact is loadable.
type LibraryValidator interface {
	// Validate checks the artifact at path. Returns non-fatal notes and a
	// hard error when the library cannot be expected to load.
	Validate(ctx context.Context, path string) ([]string, error)

	// ConvertStaticToShared relinks a static archive into a self-contained,
	// relocatable shared object (Unix only, legacy builds). The result
	// must be re-validated by the caller with the same Validate check.
	ConvertStaticToShared(ctx context.Context, archivePath, buildDir string) (string, error)
}

// DefaultLibraryValidator implements LibraryValidator for the detected
// platform.
type DefaultLibraryValidator struct {
	proc ProcessManager
	cfg  *BuildConfiguration
}

// NewDefaultLibraryValidator creates a validator.
func NewDefaultLibraryValidator(proc ProcessManager, cfg *BuildConfiguration) (*DefaultLibraryValidator, error) {
	if proc == nil {
		return nil, fmt.Errorf("%w: ProcessManager", ErrNilDependency)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: BuildConfiguration", ErrNilDependency)
	}
	return &DefaultLibraryValidator{proc: proc, cfg: cfg}, nil
}

// Validate runs the structural and linker passes.
func (v *DefaultLibraryValidator) Validate(ctx context.Context, path string) ([]string, error) {
	var notes []string

	if err := v.structuralCheck(path); err != nil {
		return notes, NewBuildError("validate-library",
			fmt.Sprintf("%s failed the load check", filepath.Base(path)),
			"likely causes: missing runtime dependencies, wrong architecture, or a static build; "+
				"rebuild with shared libraries enabled (BUILD_SHARED_LIBS=ON)",
			err)
	}

	linkerNotes, err := v.linkerCheck(ctx, path)
	notes = append(notes, linkerNotes...)
	if err != nil {
		return notes, err
	}
	return notes, nil
}

// structuralCheck parses the artifact and verifies format, shared-object
// type, and CPU architecture without loading any code.
func (v *DefaultLibraryValidator) structuralCheck(path string) error {
	switch v.cfg.Platform {
	case PlatformLinux:
		return v.checkELF(path)
	case PlatformMacOS:
		return v.checkMachO(path)
	case PlatformWindows:
		return v.checkPE(path)
	default:
		return fmt.Errorf("unknown platform %q", v.cfg.Platform)
	}
}

func (v *DefaultLibraryValidator) checkELF(path string) error {
	f, err := elf.Open(path)
	if err != nil {
		return fmt.Errorf("not a valid ELF file: %w", err)
	}
	defer f.Close()

	if f.Type != elf.ET_DYN {
		return fmt.Errorf("ELF type is %v, expected ET_DYN (shared object); "+
			"a static or relocatable build cannot be loaded", f.Type)
	}

	expected := map[string]elf.Machine{
		ArchX64:   elf.EM_X86_64,
		ArchARM64: elf.EM_AARCH64,
		ArchX86:   elf.EM_386,
		ArchARM:   elf.EM_ARM,
	}[v.cfg.Architecture]
	if f.Machine != expected {
		return fmt.Errorf("ELF machine is %v but the host needs %v (%s)",
			f.Machine, expected, v.cfg.Architecture)
	}
	return nil
}

func (v *DefaultLibraryValidator) checkMachO(path string) error {
	f, err := macho.Open(path)
	if err != nil {
		// Universal binaries need the fat reader.
		fat, fatErr := macho.OpenFat(path)
		if fatErr != nil {
			return fmt.Errorf("not a valid Mach-O file: %w", err)
		}
		defer fat.Close()
		for _, arch := range fat.Arches {
			if machoCpuMatches(arch.Cpu, v.cfg.Architecture) && arch.Type == macho.TypeDylib {
				return nil
			}
		}
		return fmt.Errorf("universal binary has no %s dylib slice", v.cfg.Architecture)
	}
	defer f.Close()

	if f.Type != macho.TypeDylib {
		return fmt.Errorf("Mach-O type is %v, expected dylib", f.Type)
	}
	if !machoCpuMatches(f.Cpu, v.cfg.Architecture) {
		return fmt.Errorf("Mach-O cpu is %v but the host needs %s", f.Cpu, v.cfg.Architecture)
	}
	return nil
}

func machoCpuMatches(cpu macho.Cpu, arch string) bool {
	switch arch {
	case ArchARM64:
		return cpu == macho.CpuArm64
	case ArchX64:
		return cpu == macho.CpuAmd64
	case ArchX86:
		return cpu == macho.Cpu386
	default:
		return false
	}
}

func (v *DefaultLibraryValidator) checkPE(path string) error {
	f, err := pe.Open(path)
	if err != nil {
		return fmt.Errorf("not a valid PE file: %w", err)
	}
	defer f.Close()

	const imageFileDLL = 0x2000
	if f.Characteristics&imageFileDLL == 0 {
		return fmt.Errorf("PE file is not a DLL")
	}

	expected := map[string]uint16{
		ArchX64:   pe.IMAGE_FILE_MACHINE_AMD64,
		ArchARM64: pe.IMAGE_FILE_MACHINE_ARM64,
		ArchX86:   pe.IMAGE_FILE_MACHINE_I386,
		ArchARM:   pe.IMAGE_FILE_MACHINE_ARMNT,
	}[v.cfg.Architecture]
	if f.Machine != expected {
		return fmt.Errorf("PE machine 0x%x does not match host architecture %s",
			f.Machine, v.cfg.Architecture)
	}
	return nil
}

// linkerCheck asks the platform linker tooling whether runtime dependencies
// resolve. Tool absence degrades to a note; unresolved dependencies are a
// hard error.
func (v *DefaultLibraryValidator) linkerCheck(ctx context.Context, path string) ([]string, error) {
	switch v.cfg.Platform {
	case PlatformLinux:
		if _, err := v.proc.LookPath("ldd"); err != nil {
			return []string{"ldd not available, skipping runtime dependency check"}, nil
		}
		output, err := v.proc.Run(ctx, "ldd", path)
		if err != nil {
			return nil, NewBuildError("validate-library", "ldd could not inspect the library",
				"the artifact may be for a foreign architecture", err)
		}
		var missing []string
		for _, line := range strings.Split(string(output), "\n") {
			if strings.Contains(line, "not found") {
				missing = append(missing, strings.TrimSpace(line))
			}
		}
		if len(missing) > 0 {
			return nil, NewBuildError("validate-library",
				"unresolved runtime dependencies: "+strings.Join(missing, "; "),
				"install the missing libraries or bundle them next to the artifact", nil)
		}
		return nil, nil

	case PlatformMacOS:
		if _, err := v.proc.LookPath("otool"); err != nil {
			return []string{"otool not available, skipping runtime dependency check"}, nil
		}
		if _, err := v.proc.Run(ctx, "otool", "-L", path); err != nil {
			return nil, NewBuildError("validate-library", "otool could not inspect the library",
				"Xcode command line tools may be missing or the artifact is corrupt", err)
		}
		return nil, nil

	default:
		// No portable import-resolution tool on Windows; the structural
		// pass already verified DLL format and architecture.
		return nil, nil
	}
}

// =============================================================================
// Static-to-Shared Conversion (legacy Unix builds)
// =============================================================================

// harnessObjectMarkers identify per-plugin self-test harness objects that
// appear once per plugin inside the archive and collide at link time.
var harnessObjectMarkers = []string{"selfTest", "self_test"}

// ConvertStaticToShared relinks a static archive into a shared object.
//
// # Description
//
// Legacy Helios builds emit only a static archive. Conversion:
//  1. Extract the archive into a scratch directory (ar x; duplicate member
//     names collapse onto one file, which is the de-duplication we want).
//  2. Drop self-test harness objects, which exist once per plugin and
//     define colliding symbols.
//  3. Relink everything into a shared object, bundling dependency
//     libraries discovered in the build tree and writing a relocatable
//     run-path ($ORIGIN / @loader_path) so the result is self-contained.
//
// The caller must re-validate the result with Validate; conversion gets no
// special success criteria.
func (v *DefaultLibraryValidator) ConvertStaticToShared(ctx context.Context, archivePath, buildDir string) (string, error) {
	if v.cfg.Platform == PlatformWindows {
		return "", NewBuildError("relink", "static-to-shared conversion is not supported on windows",
			"rebuild with BUILD_SHARED_LIBS=ON", nil)
	}

	scratch := filepath.Join(buildDir, "relink")
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return "", NewBuildError("relink", "could not create scratch directory", "check build directory permissions", err)
	}

	absArchive, err := filepath.Abs(archivePath)
	if err != nil {
		return "", NewBuildError("relink", "could not resolve archive path", "", err)
	}
	if output, err := v.proc.RunInDir(ctx, scratch, nil, "ar", "x", absArchive); err != nil {
		return "", NewBuildError("relink", "failed to extract static archive",
			"binutils (ar) must be installed", err).WithOutput(output)
	}

	objects, err := v.collectObjects(scratch)
	if err != nil {
		return "", err
	}
	if len(objects) == 0 {
		return "", NewBuildError("relink", "static archive contained no object files",
			"the upstream build likely failed earlier; rerun with --clean", nil)
	}

	sharedPath := filepath.Join(scratch, v.cfg.LibraryName)
	linkArgs := v.linkArgs(sharedPath, objects, buildDir)
	if output, err := v.proc.RunInDir(ctx, scratch, nil, "cc", linkArgs...); err != nil {
		return "", NewBuildError("relink", "failed to relink shared object",
			"a C/C++ toolchain (cc) must be installed; undefined symbols usually mean a missing dependency library",
			err).WithOutput(output)
	}

	if v.cfg.Platform == PlatformMacOS {
		// Rewrite the install name so dependents resolve it via @rpath.
		if output, err := v.proc.RunInDir(ctx, scratch, nil, "install_name_tool",
			"-id", "@rpath/"+v.cfg.LibraryName, sharedPath); err != nil {
			return "", NewBuildError("relink", "failed to rewrite install name",
				"Xcode command line tools must be installed", err).WithOutput(output)
		}
	}

	return sharedPath, nil
}

// collectObjects lists extracted object files, dropping test-harness
// members.
func (v *DefaultLibraryValidator) collectObjects(scratch string) ([]string, error) {
	entries, err := os.ReadDir(scratch)
	if err != nil {
		return nil, NewBuildError("relink", "could not list extracted objects", "", err)
	}
	var objects []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".o") {
			continue
		}
		if isHarnessObject(name) {
			continue
		}
		objects = append(objects, name)
	}
	sort.Strings(objects)
	return objects, nil
}

func isHarnessObject(name string) bool {
	for _, marker := range harnessObjectMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// linkArgs assembles the relink command line, bundling dependency library
// directories found in the build tree.
func (v *DefaultLibraryValidator) linkArgs(sharedPath string, objects []string, buildDir string) []string {
	var args []string
	if v.cfg.Platform == PlatformMacOS {
		args = append(args, "-dynamiclib")
	} else {
		args = append(args, "-shared")
	}
	args = append(args, "-o", sharedPath)
	args = append(args, objects...)

	for _, dir := range v.dependencyLibDirs(buildDir) {
		args = append(args, "-L"+dir)
	}
	args = append(args, "-lstdc++", "-lm")

	if v.cfg.Platform == PlatformMacOS {
		args = append(args, "-Wl,-rpath,@loader_path")
	} else {
		args = append(args, "-Wl,-rpath,$ORIGIN")
	}
	return args
}

// dependencyLibDirs finds directories in the build tree containing shared
// libraries other than the target, sorted for deterministic command lines.
func (v *DefaultLibraryValidator) dependencyLibDirs(buildDir string) []string {
	dirs := make(map[string]bool)
	_ = filepath.WalkDir(buildDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == v.cfg.LibraryName {
			return nil
		}
		if strings.HasPrefix(name, "lib") &&
			(strings.Contains(name, ".so") || strings.HasSuffix(name, ".dylib")) {
			dirs[filepath.Dir(path)] = true
		}
		return nil
	})
	return sortedKeys(dirs)
}

// Compile-time interface compliance check.
var _ LibraryValidator = (*DefaultLibraryValidator)(nil)
