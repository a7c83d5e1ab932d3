// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ptxAssetSubdir is where staged OptiX kernels land under the output
// directory, matching the layout the radiation plugin expects at runtime.
const ptxAssetSubdir = "plugins/radiation"

// PTXStager copies GPU kernel assets produced by the build into the output
// directory.
type PTXStager interface {
	// Stage finds compiled .ptx kernels under buildDir and copies them to
	// outputDir. Returns the destination paths. When the radiation plugin
	// was selected and no kernels exist the build is broken, so Stage
	// returns a hard error; callers skip Stage entirely when radiation is
	// not in the final plugin set.
	Stage(buildDir, outputDir string) ([]string, error)
}

// DefaultPTXStager implements PTXStager on the local filesystem.
type DefaultPTXStager struct{}

// NewDefaultPTXStager creates a stager.
func NewDefaultPTXStager() *DefaultPTXStager {
	return &DefaultPTXStager{}
}

// Stage copies every .ptx file found under buildDir.
func (s *DefaultPTXStager) Stage(buildDir, outputDir string) ([]string, error) {
	kernels, err := findPTXFiles(buildDir)
	if err != nil {
		return nil, NewBuildError("stage-ptx", "failed to scan build tree for PTX kernels", "", err)
	}
	if len(kernels) == 0 {
		return nil, NewBuildError("stage-ptx",
			"no compiled PTX kernels found in the build tree",
			"the radiation plugin was selected but produced no GPU kernels; "+
				"check that nvcc ran during the build and rerun with --clean", nil)
	}

	destDir := filepath.Join(outputDir, filepath.FromSlash(ptxAssetSubdir))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, NewBuildError("stage-ptx", "could not create asset directory", "check output directory permissions", err)
	}

	var staged []string
	for _, src := range kernels {
		dest := filepath.Join(destDir, filepath.Base(src))
		if err := copyFile(src, dest); err != nil {
			return staged, NewBuildError("stage-ptx",
				fmt.Sprintf("failed to copy %s", filepath.Base(src)), "", err)
		}
		staged = append(staged, dest)
	}
	return staged, nil
}

// findPTXFiles walks the build tree collecting .ptx files, sorted for
// deterministic staging order.
func findPTXFiles(buildDir string) ([]string, error) {
	var kernels []string
	err := filepath.WalkDir(buildDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".ptx") {
			kernels = append(kernels, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(kernels)
	return kernels, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Compile-time interface compliance check.
var _ PTXStager = (*DefaultPTXStager)(nil)
