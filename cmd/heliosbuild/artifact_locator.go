// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrLibraryNotFound is returned when no artifact matches any search path.
var ErrLibraryNotFound = errors.New("built library not found")

// ArtifactKind tags what the locator found.
type ArtifactKind int

const (
	// ArtifactShared is the expected shared library.
	ArtifactShared ArtifactKind = iota

	// ArtifactStatic is a static archive found on the Unix fallback path,
	// a degraded signal requiring static-to-shared conversion.
	ArtifactStatic
)

// LocatedArtifact is the result of a successful library search.
type LocatedArtifact struct {
	Path string
	Kind ArtifactKind
}

// ArtifactLocator finds the built library in the build tree.
type ArtifactLocator interface {
	// Locate searches for the expected library. Search order: the fixed
	// candidate path list, then a recursive walk, then (Unix only) the
	// static-archive fallback. First match wins.
	Locate(buildDir string) (*LocatedArtifact, error)
}

// DefaultArtifactLocator implements the ordered search.
type DefaultArtifactLocator struct {
	cfg *BuildConfiguration

	// statFn is injected for tests. Defaults to os.Stat.
	statFn func(string) (os.FileInfo, error)
}

// NewDefaultArtifactLocator creates a locator for the detected platform.
func NewDefaultArtifactLocator(cfg *BuildConfiguration) *DefaultArtifactLocator {
	return &DefaultArtifactLocator{cfg: cfg, statFn: os.Stat}
}

// candidateDirs is the fixed, ordered list of output locations relative to
// the build directory. Multi-config generators (Visual Studio) place
// artifacts under a per-config subdirectory, single-config generators in
// lib/ or the build root.
func (l *DefaultArtifactLocator) candidateDirs() []string {
	return []string{
		"lib",
		".",
		l.cfg.BuildType,
		filepath.Join("lib", l.cfg.BuildType),
		filepath.Join("core", l.cfg.BuildType),
	}
}

// Locate searches for the built library.
func (l *DefaultArtifactLocator) Locate(buildDir string) (*LocatedArtifact, error) {
	// Pass 1: ordered candidate paths.
	for _, dir := range l.candidateDirs() {
		path := filepath.Join(buildDir, dir, l.cfg.LibraryName)
		if info, err := l.statFn(path); err == nil && !info.IsDir() {
			return &LocatedArtifact{Path: path, Kind: ArtifactShared}, nil
		}
	}

	// Pass 2: recursive search for the shared library.
	if path := l.findByName(buildDir, l.cfg.LibraryName); path != "" {
		return &LocatedArtifact{Path: path, Kind: ArtifactShared}, nil
	}

	// Pass 3 (Unix only): static archive as a degraded signal.
	if l.cfg.StaticLibraryName != "" {
		if path := l.findByName(buildDir, l.cfg.StaticLibraryName); path != "" {
			return &LocatedArtifact{Path: path, Kind: ArtifactStatic}, nil
		}
	}

	return nil, ErrLibraryNotFound
}

// findByName walks the build tree for the first file with the given name.
// Walk order is lexical (fs.WalkDir guarantee), so the result is stable.
func (l *DefaultArtifactLocator) findByName(root, name string) string {
	var found string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep walking
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found
}

// Compile-time interface compliance check.
var _ ArtifactLocator = (*DefaultArtifactLocator)(nil)
