// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Fixtures
// =============================================================================

// newTestResolver builds a resolver over the built-in catalog for the given
// platform.
func newTestResolver(t *testing.T, platform string) *DefaultPluginResolver {
	t.Helper()
	resolver, err := NewDefaultPluginResolver(NewBuiltInCatalog(), platform, &MockSystemProbe{})
	require.NoError(t, err)
	return resolver
}

// exclusionCatalog builds a small synthetic catalog with a mutual exclusion
// between render-gpu and render-cpu, each pulled in by a frontend plugin.
// The built-in catalog carries no exclusions, so conflict policy is
// exercised against this one.
func exclusionCatalog(t *testing.T) *PluginCatalog {
	t.Helper()
	catalog, err := NewPluginCatalog([]PluginMetadata{
		{
			Name:              "rendergpu",
			Description:       "GPU rendering backend",
			Platforms:         []string{"windows", "linux", "macos"},
			MutuallyExclusive: []string{"rendercpu"},
		},
		{
			Name:              "rendercpu",
			Description:       "CPU rendering backend",
			Platforms:         []string{"windows", "linux", "macos"},
			MutuallyExclusive: []string{"rendergpu"},
		},
		{
			Name:                 "viewer",
			Description:          "Interactive viewer",
			Platforms:            []string{"windows", "linux", "macos"},
			RequiredDependencies: []string{"rendergpu"},
		},
		{
			Name:                 "exporter",
			Description:          "Batch exporter",
			Platforms:            []string{"windows", "linux", "macos"},
			RequiredDependencies: []string{"rendercpu"},
		},
	})
	require.NoError(t, err)
	return catalog
}

func resolveWith(t *testing.T, catalog *PluginCatalog, opts ResolveOptions) *ResolutionResult {
	t.Helper()
	resolver, err := NewDefaultPluginResolver(catalog, "linux", &MockSystemProbe{})
	require.NoError(t, err)
	return resolver.Resolve(context.Background(), opts)
}

// =============================================================================
// Constructor Tests
// =============================================================================

func TestNewDefaultPluginResolver_NilDependencies(t *testing.T) {
	t.Parallel()

	catalog := NewBuiltInCatalog()
	probe := &MockSystemProbe{}

	_, err := NewDefaultPluginResolver(nil, "linux", probe)
	assert.ErrorIs(t, err, ErrNilDependency)

	_, err = NewDefaultPluginResolver(catalog, "", probe)
	assert.ErrorIs(t, err, ErrNilDependency)

	_, err = NewDefaultPluginResolver(catalog, "linux", nil)
	assert.ErrorIs(t, err, ErrNilDependency)
}

// =============================================================================
// Dependency Expansion Tests
// =============================================================================

func TestResolve_RequiredDependencyAdded(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "linux")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested: []string{"energybalance"},
	})

	assert.False(t, result.HasErrors(), "errors: %v", result.Errors)
	assert.True(t, result.Contains("energybalance"))
	assert.True(t, result.Contains("radiation"), "required dependency must be pulled in")
	assert.Contains(t, result.AddedPlugins, "radiation")
	assert.NotContains(t, result.AddedPlugins, "energybalance",
		"requested plugins are never reported as added")
}

func TestResolve_TransitiveRequiredDependencies(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "linux")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested: []string{"aeriallidar"},
	})

	assert.False(t, result.HasErrors(), "errors: %v", result.Errors)
	assert.True(t, result.Contains("aeriallidar"))
	assert.True(t, result.Contains("lidar"), "aeriallidar requires lidar")
}

func TestResolve_OptionalDependenciesOffByDefault(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "linux")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested: []string{"radiation"},
	})

	assert.False(t, result.HasErrors())
	assert.True(t, result.Contains("radiation"))
	assert.False(t, result.Contains("solarposition"),
		"optional dependencies stay out unless IncludeOptional is set")
}

func TestResolve_OptionalDependenciesIncluded(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "linux")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested:       []string{"radiation"},
		IncludeOptional: true,
	})

	assert.False(t, result.HasErrors())
	assert.True(t, result.Contains("solarposition"))
	assert.Contains(t, result.AddedPlugins, "solarposition")
}

// =============================================================================
// Platform Filtering Tests
// =============================================================================

func TestResolve_PlatformFilterDropsImplicitPlugins(t *testing.T) {
	t.Parallel()

	// radiation builds only on windows and linux. When it arrives through
	// the default set (implicit), macos drops it with a warning.
	resolver := newTestResolver(t, "macos")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested: []string{"radiation", "solarposition"},
	})

	assert.False(t, result.HasErrors(), "implicit platform removals are warnings, not errors")
	assert.False(t, result.Contains("radiation"))
	assert.True(t, result.Contains("solarposition"))
	assert.Contains(t, result.RemovedPlugins, "radiation")

	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "radiation") && strings.Contains(w, "macos") {
			found = true
		}
	}
	assert.True(t, found, "expected a platform warning naming radiation, got %v", result.Warnings)
}

func TestResolve_PlatformFilterExplicitPluginIsError(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "macos")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested:           []string{"radiation"},
		ExplicitlyRequested: []string{"radiation"},
	})

	require.True(t, result.HasErrors())
	assert.Contains(t, result.Errors[0], "radiation")
	assert.Contains(t, result.RemovedPlugins, "radiation")
}

func TestResolve_UnsatisfiableRequirementDropsRoot(t *testing.T) {
	t.Parallel()

	// energybalance requires radiation, which does not build on macos.
	// Implicitly requested, the root is dropped with a warning.
	resolver := newTestResolver(t, "macos")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested: []string{"energybalance"},
	})

	assert.False(t, result.HasErrors())
	assert.False(t, result.Contains("energybalance"))
	assert.Contains(t, result.RemovedPlugins, "energybalance")
}

func TestResolve_UnsatisfiableRequirementExplicitIsError(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "macos")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested:           []string{"energybalance"},
		ExplicitlyRequested: []string{"energybalance"},
	})

	require.True(t, result.HasErrors())
	assert.Contains(t, result.Errors[0], "energybalance")
}

func TestResolve_StrictModeUpgradesImplicitToError(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "macos")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested:  []string{"energybalance"},
		StrictMode: true,
	})

	assert.True(t, result.HasErrors(),
		"strict mode makes unsatisfiable requirements fatal even for implicit requests")
}

// =============================================================================
// Unknown Plugin Tests
// =============================================================================

func TestResolve_UnknownImplicitPluginIsWarning(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "linux")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested: []string{"solarposition", "doesnotexist"},
	})

	assert.False(t, result.HasErrors())
	assert.True(t, result.Contains("solarposition"))
	assert.False(t, result.Contains("doesnotexist"))
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "doesnotexist") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResolve_UnknownExplicitPluginIsError(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "linux")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested:           []string{"doesnotexist"},
		ExplicitlyRequested: []string{"doesnotexist"},
	})

	require.True(t, result.HasErrors())
	assert.Contains(t, result.Errors[0], "doesnotexist")
	assert.Empty(t, result.FinalPlugins)
}

func TestResolve_EmptyRequestYieldsEmptyResult(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "linux")
	result := resolver.Resolve(context.Background(), ResolveOptions{})

	assert.Empty(t, result.FinalPlugins)
	assert.Empty(t, result.AddedPlugins)
	assert.Empty(t, result.RemovedPlugins)
	assert.False(t, result.HasErrors())
}

// =============================================================================
// Mutual Exclusion Policy Tests
// =============================================================================

func TestResolve_ExclusionRequestedBeatsAdded(t *testing.T) {
	t.Parallel()

	// rendercpu is requested; rendergpu arrives only through viewer's
	// requirement. The requested plugin wins and viewer loses its
	// dependency on the next pass.
	result := resolveWith(t, exclusionCatalog(t), ResolveOptions{
		Requested: []string{"rendercpu", "viewer"},
	})

	assert.True(t, result.Contains("rendercpu"))
	assert.False(t, result.Contains("rendergpu"))
	assert.Contains(t, result.RemovedPlugins, "rendergpu")
	assert.Contains(t, result.RemovedPlugins, "viewer",
		"viewer is dropped once its required backend is excluded")
}

func TestResolve_ExclusionBothRequestedIsError(t *testing.T) {
	t.Parallel()

	result := resolveWith(t, exclusionCatalog(t), ResolveOptions{
		Requested: []string{"rendergpu", "rendercpu"},
	})

	require.True(t, result.HasErrors())
	count := 0
	for _, e := range result.Errors {
		if strings.Contains(e, "mutually exclusive") {
			count++
		}
	}
	assert.Equal(t, 1, count, "conflicting pair is reported exactly once")

	// The lexicographically later name is removed so the loop stabilizes,
	// but the error already invalidates the result.
	assert.True(t, result.Contains("rendercpu"))
	assert.False(t, result.Contains("rendergpu"))
}

func TestResolve_ExclusionBothAddedEarlierArrivalWins(t *testing.T) {
	t.Parallel()

	// Neither backend is requested directly. Expansion visits working-set
	// members in sorted order, so exporter pulls rendercpu before viewer
	// pulls rendergpu; the later arrival loses.
	result := resolveWith(t, exclusionCatalog(t), ResolveOptions{
		Requested: []string{"exporter", "viewer"},
	})

	assert.False(t, result.HasErrors(), "added-vs-added conflicts are warnings: %v", result.Errors)
	assert.True(t, result.Contains("rendercpu"))
	assert.False(t, result.Contains("rendergpu"))
	assert.True(t, result.Contains("exporter"))
	assert.False(t, result.Contains("viewer"))
}

// =============================================================================
// Result Invariant Tests
// =============================================================================

func TestResolve_Idempotence(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "linux")
	first := resolver.Resolve(context.Background(), ResolveOptions{
		Requested:       []string{"energybalance", "lidar"},
		IncludeOptional: true,
	})
	require.False(t, first.HasErrors())

	second := resolver.Resolve(context.Background(), ResolveOptions{
		Requested:       first.FinalPlugins,
		IncludeOptional: true,
	})
	assert.Equal(t, first.FinalPlugins, second.FinalPlugins,
		"resolving a resolved set must be a fixed point")
	assert.Empty(t, second.AddedPlugins)
	assert.Empty(t, second.RemovedPlugins)
}

func TestResolve_AddedPluginsSubsetOfFinal(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "linux")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested:       DefaultPluginSet(NewBuiltInCatalog()),
		IncludeOptional: true,
	})

	final := make(map[string]bool, len(result.FinalPlugins))
	for _, p := range result.FinalPlugins {
		final[p] = true
	}
	for _, p := range result.AddedPlugins {
		assert.True(t, final[p], "added plugin %q missing from final set", p)
	}
}

func TestResolve_DefaultSetOnLinuxKeepsGPUPlugins(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "linux")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested: DefaultPluginSet(NewBuiltInCatalog()),
	})

	assert.False(t, result.HasErrors(), "errors: %v", result.Errors)
	assert.True(t, result.Contains("radiation"))
	assert.True(t, result.Contains("lidar"))
	assert.Empty(t, result.RemovedPlugins)
}

func TestResolve_DefaultSetOnMacOSDropsGPUPlugins(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "macos")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested: DefaultPluginSet(NewBuiltInCatalog()),
	})

	assert.False(t, result.HasErrors(), "implicit removals never fail the default resolve")
	for _, gpu := range NewBuiltInCatalog().GPUPlugins() {
		assert.False(t, result.Contains(gpu), "GPU plugin %q should not survive on macos", gpu)
		assert.Contains(t, result.RemovedPlugins, gpu)
	}
	assert.True(t, result.Contains("solarposition"))
	assert.True(t, result.Contains("visualizer"))
}

func TestResolve_SortedOutputs(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "linux")
	result := resolver.Resolve(context.Background(), ResolveOptions{
		Requested: []string{"voxelintersection", "aeriallidar", "energybalance"},
	})

	for i := 1; i < len(result.FinalPlugins); i++ {
		assert.Less(t, result.FinalPlugins[i-1], result.FinalPlugins[i])
	}
	for i := 1; i < len(result.AddedPlugins); i++ {
		assert.Less(t, result.AddedPlugins[i-1], result.AddedPlugins[i])
	}
}

// =============================================================================
// ValidateConfiguration Tests
// =============================================================================

func TestValidateConfiguration_AllValid(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "linux")
	report := resolver.ValidateConfiguration(context.Background(),
		[]string{"radiation", "solarposition"})

	assert.True(t, report.Valid())
	assert.Equal(t, []string{"radiation", "solarposition"}, report.ValidPlugins)
	assert.Empty(t, report.InvalidPlugins)
	assert.True(t, report.GPURequired)
	assert.True(t, report.SystemDependencies[SystemDepCUDA])
}

func TestValidateConfiguration_UnknownPlugin(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "linux")
	report := resolver.ValidateConfiguration(context.Background(),
		[]string{"solarposition", "nosuchplugin"})

	assert.False(t, report.Valid())
	assert.Equal(t, []string{"nosuchplugin"}, report.InvalidPlugins)
	assert.Equal(t, []string{"solarposition"}, report.ValidPlugins)
}

func TestValidateConfiguration_PlatformIncompatible(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "macos")
	report := resolver.ValidateConfiguration(context.Background(),
		[]string{"radiation", "solarposition"})

	assert.False(t, report.Valid())
	assert.Equal(t, []string{"radiation"}, report.PlatformIncompatible)
	assert.Equal(t, []string{"solarposition"}, report.PlatformCompatible)
}

func TestValidateConfiguration_MissingSystemDependency(t *testing.T) {
	t.Parallel()

	probe := &MockSystemProbe{Capabilities: map[string]Capability{
		SystemDepCUDA: {Name: SystemDepCUDA, Available: false, Detail: "nvcc not found"},
	}}
	resolver, err := NewDefaultPluginResolver(NewBuiltInCatalog(), "linux", probe)
	require.NoError(t, err)

	report := resolver.ValidateConfiguration(context.Background(), []string{"radiation"})

	assert.False(t, report.Valid())
	assert.False(t, report.SystemDependencies[SystemDepCUDA])
	assert.True(t, report.GPURequired)
}

func TestValidateConfiguration_DeduplicatesRequest(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, "linux")
	report := resolver.ValidateConfiguration(context.Background(),
		[]string{"lidar", "lidar", "lidar"})

	assert.Equal(t, []string{"lidar"}, report.ValidPlugins)
}
