// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"runtime"
)

type BuildToolConfig struct {
	// HeliosRoot: path to the Helios C++ checkout
	HeliosRoot string `yaml:"helios_root"`

	// BuildDir: where CMake configures and compiles (reused across runs)
	BuildDir string `yaml:"build_dir"`

	// OutputDir: where packaged libraries and assets land
	OutputDir string `yaml:"output_dir"`

	// DefaultPlugins: the plugin set built when --plugins is not passed
	DefaultPlugins []string `yaml:"default_plugins"`

	// CudaPath: explicit CUDA toolkit location, overrides autodetection
	CudaPath string `yaml:"cuda_path,omitempty"`

	// Parallelism: compile job count, 0 means the CPU count
	Parallelism int `yaml:"parallelism"`

	// Personality: output verbosity level ("silent", "normal", "verbose")
	Personality string `yaml:"personality"`
}

// findHeliosCheckout looks for a Helios source tree in the usual places.
func findHeliosCheckout() string {
	if env := os.Getenv("HELIOS_ROOT"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	candidates := []string{
		filepath.Join(".", "helios"),
		filepath.Join(home, "helios"),
		filepath.Join(home, "Helios"),
	}
	for _, dir := range candidates {
		if _, err := os.Stat(filepath.Join(dir, "core", "CMakeLists.txt")); err == nil {
			return dir
		}
	}
	// Fall back to the conventional location even if it does not exist yet;
	// the build command validates it and prints a remediation hint.
	return filepath.Join(home, "helios")
}

func DefaultConfig() BuildToolConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".heliosbuild")

	cudaPath := os.Getenv("CUDA_PATH")
	if cudaPath == "" {
		cudaPath = os.Getenv("CUDA_HOME")
	}

	return BuildToolConfig{
		HeliosRoot:     findHeliosCheckout(),
		BuildDir:       filepath.Join(base, "build"),
		OutputDir:      filepath.Join(base, "lib"),
		DefaultPlugins: []string{},
		CudaPath:       cudaPath,
		Parallelism:    runtime.NumCPU(),
		Personality:    "normal",
	}
}
