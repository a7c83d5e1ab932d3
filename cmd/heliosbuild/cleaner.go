// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package main: BuildCleaner resets generated state between builds.

The build directory is reused across runs so incremental builds stay fast.
A clean removes only generated state (the CMake cache, CMake bookkeeping
directories, packaged libraries, and copied runtime assets); source trees
are never touched.
*/
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// sharedLibraryExtensions are the suffixes of packaged artifacts that a
// clean removes from the output directory.
var sharedLibraryExtensions = []string{".so", ".dylib", ".dll", ".a", ".lib"}

// BuildCleaner removes generated build and output state.
type BuildCleaner interface {
	// CleanBuildDir removes the CMake cache and bookkeeping from the build
	// directory, forcing a full reconfigure on the next run. Returns the
	// paths it removed.
	CleanBuildDir(buildDir string) ([]string, error)

	// CleanOutputDir removes packaged libraries and copied runtime assets
	// from the output directory. Returns the paths it removed.
	CleanOutputDir(outputDir string) ([]string, error)
}

// DefaultBuildCleaner implements BuildCleaner on the local filesystem.
type DefaultBuildCleaner struct{}

// NewDefaultBuildCleaner creates a cleaner.
func NewDefaultBuildCleaner() *DefaultBuildCleaner {
	return &DefaultBuildCleaner{}
}

// CleanBuildDir removes CMakeCache.txt and CMakeFiles/ if present.
func (c *DefaultBuildCleaner) CleanBuildDir(buildDir string) ([]string, error) {
	var removed []string

	cache := filepath.Join(buildDir, "CMakeCache.txt")
	if _, err := os.Stat(cache); err == nil {
		if err := os.Remove(cache); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", cache, err)
		}
		removed = append(removed, cache)
	}

	bookkeeping := filepath.Join(buildDir, "CMakeFiles")
	if info, err := os.Stat(bookkeeping); err == nil && info.IsDir() {
		if err := os.RemoveAll(bookkeeping); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", bookkeeping, err)
		}
		removed = append(removed, bookkeeping)
	}

	return removed, nil
}

// CleanOutputDir removes packaged libraries (by extension) and the plugins
// asset tree. A missing output directory is not an error.
func (c *DefaultBuildCleaner) CleanOutputDir(outputDir string) ([]string, error) {
	var removed []string

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list output directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !isPackagedArtifact(entry.Name()) {
			continue
		}
		path := filepath.Join(outputDir, entry.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed = append(removed, path)
	}

	assets := filepath.Join(outputDir, "plugins")
	if info, err := os.Stat(assets); err == nil && info.IsDir() {
		if err := os.RemoveAll(assets); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", assets, err)
		}
		removed = append(removed, assets)
	}

	return removed, nil
}

// isPackagedArtifact reports whether a filename looks like a packaged
// library, including versioned names such as libhelios.so.1.2.
func isPackagedArtifact(name string) bool {
	for _, ext := range sharedLibraryExtensions {
		if strings.HasSuffix(name, ext) || strings.Contains(name, ext+".") {
			return true
		}
	}
	return false
}

// Compile-time interface compliance check.
var _ BuildCleaner = (*DefaultBuildCleaner)(nil)
