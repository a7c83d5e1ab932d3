// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package main provides the heliosbuild CLI for building the Helios native
simulation library with a configurable plugin set.

The catalog in this file is the single source of truth for plugin metadata:
which plugins exist, what they depend on, which platforms they build on,
and which system toolkits they need. The PluginResolver consumes this table;
nothing mutates it after construction.
*/
package main

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

// Platform identifiers used in PluginMetadata.Platforms.
const (
	PlatformWindows = "windows"
	PlatformLinux   = "linux"
	PlatformMacOS   = "macos"
)

// System dependency identifiers used in PluginMetadata.SystemDependencies.
const (
	SystemDepCUDA   = "cuda"
	SystemDepOpenGL = "opengl"
	SystemDepGLFW   = "glfw"
)

// PluginMetadata is the static, immutable descriptor for one native plugin.
//
// # Description
//
// Every field is fixed at catalog construction time. Dependency and
// exclusion sets reference other plugins by name; referential integrity is
// checked once by NewPluginCatalog rather than at every access site.
type PluginMetadata struct {
	// Name uniquely identifies the plugin. Matches the plugin's source
	// directory name under <helios-root>/plugins/.
	Name string `validate:"required,lowercase"`

	// Description is human-readable help text. No behavioral role.
	Description string `validate:"required"`

	// RequiredDependencies are plugins that MUST be present whenever this
	// plugin is selected.
	RequiredDependencies []string

	// OptionalDependencies are plugins that are added automatically when
	// compatible, unless the caller opts out.
	OptionalDependencies []string

	// MutuallyExclusive are plugins that cannot coexist with this plugin
	// in a final selection. The relation is treated as symmetric even if
	// only one side declares it.
	MutuallyExclusive []string

	// Platforms are the platform identifiers this plugin builds on.
	Platforms []string `validate:"required,min=1,dive,oneof=windows linux macos"`

	// GPURequired marks plugins that need a CUDA-capable toolchain.
	GPURequired bool

	// Optional marks plugins that may be silently absent from a build
	// without being an error.
	Optional bool

	// SystemDependencies are external toolkits (cuda, opengl, glfw) used
	// for compatibility messaging and the --nogpu / --novis filters.
	SystemDependencies []string `validate:"dive,oneof=cuda opengl glfw x11"`
}

// HasPlatform reports whether the plugin can be built on the named platform.
func (m *PluginMetadata) HasPlatform(platform string) bool {
	for _, p := range m.Platforms {
		if p == platform {
			return true
		}
	}
	return false
}

// HasSystemDependency reports whether the plugin needs the named toolkit.
func (m *PluginMetadata) HasSystemDependency(dep string) bool {
	for _, d := range m.SystemDependencies {
		if d == dep {
			return true
		}
	}
	return false
}

// PluginCatalog is an immutable collection of PluginMetadata keyed by name.
//
// # Description
//
// Replaces a mutable global table with an explicitly constructed value
// passed into the resolver. Construct with NewPluginCatalog, which
// validates every entry once. Lookup never mutates.
//
// # Thread Safety
//
// Safe for concurrent use; the catalog is read-only after construction.
type PluginCatalog struct {
	plugins map[string]*PluginMetadata
}

// catalogValidator validates metadata records at construction time.
var catalogValidator = validator.New(validator.WithRequiredStructEnabled())

// NewPluginCatalog builds a validated catalog from metadata records.
//
// # Description
//
// Validates each record (struct tags plus referential integrity of the
// dependency and exclusion sets) and freezes the result. A reference to an
// undefined plugin name is a configuration defect and is rejected here so
// the resolver never has to defend against it.
//
// # Inputs
//
//   - entries: Metadata records. Names must be unique.
//
// # Outputs
//
//   - *PluginCatalog: Ready-to-use catalog.
//   - error: Non-nil on duplicate names, invalid fields, or references to
//     undefined plugins.
func NewPluginCatalog(entries []PluginMetadata) (*PluginCatalog, error) {
	plugins := make(map[string]*PluginMetadata, len(entries))

	for i := range entries {
		entry := entries[i]
		if err := catalogValidator.Struct(&entry); err != nil {
			return nil, fmt.Errorf("plugin metadata %q invalid: %w", entry.Name, err)
		}
		if _, exists := plugins[entry.Name]; exists {
			return nil, fmt.Errorf("duplicate plugin name: %q", entry.Name)
		}
		plugins[entry.Name] = &entry
	}

	// Referential integrity: every referenced name must be a catalog key.
	for name, meta := range plugins {
		for _, ref := range meta.RequiredDependencies {
			if _, ok := plugins[ref]; !ok {
				return nil, fmt.Errorf("plugin %q requires undefined plugin %q", name, ref)
			}
		}
		for _, ref := range meta.OptionalDependencies {
			if _, ok := plugins[ref]; !ok {
				return nil, fmt.Errorf("plugin %q optionally depends on undefined plugin %q", name, ref)
			}
		}
		for _, ref := range meta.MutuallyExclusive {
			if _, ok := plugins[ref]; !ok {
				return nil, fmt.Errorf("plugin %q excludes undefined plugin %q", name, ref)
			}
		}
	}

	return &PluginCatalog{plugins: plugins}, nil
}

// Get returns the metadata for a plugin name.
func (c *PluginCatalog) Get(name string) (*PluginMetadata, bool) {
	meta, ok := c.plugins[name]
	return meta, ok
}

// Names returns all plugin names in sorted order.
//
// Sorted order matters: the resolver iterates the catalog in this order,
// which makes expansion and tie-breaking deterministic across runs.
func (c *PluginCatalog) Names() []string {
	names := make([]string, 0, len(c.plugins))
	for name := range c.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of plugins in the catalog.
func (c *PluginCatalog) Len() int {
	return len(c.plugins)
}

// GPUPlugins returns the names of plugins with GPURequired set, sorted.
func (c *PluginCatalog) GPUPlugins() []string {
	var names []string
	for name, meta := range c.plugins {
		if meta.GPURequired {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// VisualizationPlugins returns the names of plugins that depend on the
// OpenGL/GLFW stack, sorted. Used by the --novis filter.
func (c *PluginCatalog) VisualizationPlugins() []string {
	var names []string
	for name, meta := range c.plugins {
		if meta.HasSystemDependency(SystemDepOpenGL) || meta.HasSystemDependency(SystemDepGLFW) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// Built-in Catalog
// =============================================================================

// builtInPluginEntries is the static metadata table for the Helios plugin
// tree. Platform and dependency data mirrors the plugin CMake requirements:
// OptiX-based plugins do not build on macOS, visualization plugins need
// OpenGL and GLFW everywhere.
var builtInPluginEntries = []PluginMetadata{
	{
		Name:        "solarposition",
		Description: "Solar position and angle calculations from time and location",
		Platforms:   []string{PlatformWindows, PlatformLinux, PlatformMacOS},
		Optional:    true,
	},
	{
		Name:        "weberpenntree",
		Description: "Procedural tree geometry generation (Weber-Penn algorithm)",
		Platforms:   []string{PlatformWindows, PlatformLinux, PlatformMacOS},
		Optional:    true,
	},
	{
		Name:        "canopygenerator",
		Description: "Parametric crop canopy geometry generation",
		Platforms:   []string{PlatformWindows, PlatformLinux, PlatformMacOS},
		Optional:    true,
	},
	{
		Name:        "plantarchitecture",
		Description: "Procedural whole-plant architecture modeling",
		Platforms:   []string{PlatformWindows, PlatformLinux, PlatformMacOS},
		Optional:    true,
	},
	{
		Name:                 "radiation",
		Description:          "GPU ray-tracing radiation transport model (OptiX)",
		Platforms:            []string{PlatformWindows, PlatformLinux},
		GPURequired:          true,
		Optional:             true,
		SystemDependencies:   []string{SystemDepCUDA},
		OptionalDependencies: []string{"solarposition"},
	},
	{
		Name:                 "energybalance",
		Description:          "Surface energy balance solver",
		Platforms:            []string{PlatformWindows, PlatformLinux},
		GPURequired:          true,
		Optional:             true,
		SystemDependencies:   []string{SystemDepCUDA},
		RequiredDependencies: []string{"radiation"},
	},
	{
		Name:               "visualizer",
		Description:        "OpenGL 3D visualization of model geometry",
		Platforms:          []string{PlatformWindows, PlatformLinux, PlatformMacOS},
		Optional:           true,
		SystemDependencies: []string{SystemDepOpenGL, SystemDepGLFW},
	},
	{
		Name:                 "syntheticannotation",
		Description:          "Annotated synthetic image generation for ML training",
		Platforms:            []string{PlatformWindows, PlatformLinux, PlatformMacOS},
		Optional:             true,
		RequiredDependencies: []string{"visualizer"},
		SystemDependencies:   []string{SystemDepOpenGL, SystemDepGLFW},
	},
	{
		Name:                 "lidar",
		Description:          "Terrestrial LiDAR point cloud simulation and processing",
		Platforms:            []string{PlatformWindows, PlatformLinux},
		GPURequired:          true,
		Optional:             true,
		SystemDependencies:   []string{SystemDepCUDA},
		OptionalDependencies: []string{"visualizer"},
	},
	{
		Name:                 "aeriallidar",
		Description:          "Aerial LiDAR scan simulation",
		Platforms:            []string{PlatformWindows, PlatformLinux},
		GPURequired:          true,
		Optional:             true,
		SystemDependencies:   []string{SystemDepCUDA},
		RequiredDependencies: []string{"lidar"},
	},
	{
		Name:        "voxelintersection",
		Description: "GPU voxel-primitive intersection queries",
		Platforms:   []string{PlatformWindows, PlatformLinux},
		GPURequired: true,
		Optional:    true,
		SystemDependencies: []string{
			SystemDepCUDA,
		},
	},
	{
		Name:        "photosynthesis",
		Description: "Leaf photosynthesis models (empirical and Farquhar)",
		Platforms:   []string{PlatformWindows, PlatformLinux, PlatformMacOS},
		Optional:    true,
	},
	{
		Name:                 "stomatalconductance",
		Description:          "Stomatal conductance models",
		Platforms:            []string{PlatformWindows, PlatformLinux, PlatformMacOS},
		Optional:             true,
		OptionalDependencies: []string{"photosynthesis"},
	},
	{
		Name:        "boundarylayerconductance",
		Description: "Boundary layer conductance models",
		Platforms:   []string{PlatformWindows, PlatformLinux, PlatformMacOS},
		Optional:    true,
	},
	{
		Name:        "leafoptics",
		Description: "PROSPECT-based leaf optical property models",
		Platforms:   []string{PlatformWindows, PlatformLinux, PlatformMacOS},
		Optional:    true,
	},
}

// NewBuiltInCatalog returns the catalog for the standard Helios plugin tree.
//
// Panics on construction failure: the built-in table is compiled in, so a
// validation error here is a programmer error, not a runtime condition.
func NewBuiltInCatalog() *PluginCatalog {
	catalog, err := NewPluginCatalog(builtInPluginEntries)
	if err != nil {
		panic(fmt.Sprintf("built-in plugin catalog is invalid: %v", err))
	}
	return catalog
}

// DefaultPluginSet returns the plugin names selected when the user passes
// no --plugins flag: every built-in plugin. Platform and capability
// filtering happens later, in resolution, where removals can be reported.
func DefaultPluginSet(catalog *PluginCatalog) []string {
	return catalog.Names()
}
