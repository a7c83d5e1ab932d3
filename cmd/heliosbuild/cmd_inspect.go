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
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pyhelios/heliosbuild/pkg/ux"
)

// runListPlugins lists the plugins buildable on this platform, with the
// probed availability of their system dependencies.
func runListPlugins(cmd *cobra.Command, args []string) {
	listPlugins(false)
}

// runListAllPlugins lists every known plugin, including ones this platform
// cannot build.
func runListAllPlugins(cmd *cobra.Command, args []string) {
	listPlugins(true)
}

func listPlugins(includeIncompatible bool) {
	start := time.Now()
	outCfg := OutputConfig{JSON: jsonOutput, Quiet: quietOutput}
	ctx := context.Background()

	proc := NewDefaultProcessManager()
	detector := NewDefaultPlatformDetector(proc, os.Getenv)
	buildCfg := detector.Detect(ctx, buildMode)
	catalog := NewBuiltInCatalog()
	probe := NewDefaultSystemProbe(proc)

	var capabilities map[string]Capability
	_ = ux.WithSpinner("Probing system capabilities", func() error {
		capabilities = probe.ProbeAll(ctx)
		return nil
	})

	result := PluginListResult{}
	for _, name := range catalog.Names() {
		meta, _ := catalog.Get(name)
		compatible := meta.HasPlatform(buildCfg.Platform)
		if !compatible && !includeIncompatible {
			continue
		}

		available := compatible
		var reasons []string
		if !compatible {
			reasons = append(reasons, "not buildable on "+buildCfg.Platform)
		}
		for _, dep := range meta.SystemDependencies {
			if c, ok := capabilities[dep]; ok && !c.Available {
				available = false
				reasons = append(reasons, dep+" not found")
			}
		}

		result.Plugins = append(result.Plugins, PluginSummary{
			Name:         name,
			Description:  meta.Description,
			GPURequired:  meta.GPURequired,
			Platforms:    meta.Platforms,
			Dependencies: meta.RequiredDependencies,
			Available:    available,
		})

		if !jsonOutput && !quietOutput {
			switch {
			case available:
				ux.PluginStatus(name, ux.IconSuccess, meta.Description)
			case !compatible:
				ux.Excluded(name, strings.Join(reasons, "; "))
			default:
				ux.PluginStatus(name, ux.IconWarning, strings.Join(reasons, "; "))
			}
		}
	}
	result.Count = len(result.Plugins)

	os.Exit(OutputResult(outCfg, "list-plugins", start, result, false, nil))
}

// runValidateConfig resolves the requested set and reports what would be
// built, without building anything.
func runValidateConfig(cmd *cobra.Command, args []string) {
	start := time.Now()
	outCfg := OutputConfig{JSON: jsonOutput, Quiet: quietOutput}
	ctx := context.Background()

	deps, err := newBuildDependencies(ctx)
	if err != nil {
		os.Exit(OutputResult(outCfg, "validate-config", start, nil, false, err))
	}

	opts, err := buildOptionsFromFlags()
	if err != nil {
		os.Exit(OutputResult(outCfg, "validate-config", start, nil, false, err))
	}

	data := validateConfigData(ctx, deps.resolver, deps.orch, deps.catalog, opts)

	if !jsonOutput && !quietOutput {
		renderValidationReport(data.Validation)
		for _, name := range data.FinalPlugins {
			reason := ""
			for _, added := range data.AddedPlugins {
				if added == name {
					reason = "added as dependency"
					break
				}
			}
			ux.PluginStatus(name, ux.IconSuccess, reason)
		}
		for _, w := range data.Warnings {
			ux.Warning(w)
		}
		for _, e := range data.Errors {
			ux.Error(e)
		}
		if data.Valid {
			ux.Success(fmt.Sprintf("Configuration is valid: %d plugin(s)", len(data.FinalPlugins)))
		}
	}

	// Resolution and validation findings are findings, not command
	// failures: the command itself ran fine and the payload carries the
	// details.
	os.Exit(OutputResult(outCfg, "validate-config", start, data, !data.Valid, nil))
}

// validateConfigData runs the read-only validation check alongside a dry
// resolution and folds both into the command payload.
func validateConfigData(ctx context.Context, resolver PluginResolver, orch BuildOrchestrator, catalog *PluginCatalog, opts BuildOptions) ResolveResult {
	requested := opts.Plugins
	if len(requested) == 0 {
		requested = DefaultPluginSet(catalog)
	}
	report := resolver.ValidateConfiguration(ctx, requested)

	resolution, resolveErr := orch.ResolveOnly(ctx, opts)
	data := ResolveResult{
		Valid:      resolveErr == nil && report.Valid(),
		Validation: report,
	}
	if resolution != nil {
		data.FinalPlugins = resolution.FinalPlugins
		data.AddedPlugins = resolution.AddedPlugins
		data.Warnings = resolution.Warnings
		data.Errors = resolution.Errors
	}
	return data
}

// renderValidationReport prints the read-only validation diagnostics:
// unknown names, platform drops, toolkit availability for the selection.
func renderValidationReport(report *ValidationReport) {
	for _, name := range report.InvalidPlugins {
		ux.Error("unknown plugin: " + name)
	}
	for _, name := range report.PlatformIncompatible {
		ux.Excluded(name, "not buildable on this platform")
	}
	deps := make([]string, 0, len(report.SystemDependencies))
	for name := range report.SystemDependencies {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	for _, name := range deps {
		if report.SystemDependencies[name] {
			ux.PluginStatus(name, ux.IconSuccess, "available")
		} else {
			ux.PluginStatus(name, ux.IconError, "not found")
		}
	}
	if report.GPURequired {
		ux.Info("selection requires the CUDA toolkit")
	}
}

// runDiscover probes the system and shows the build configuration that a
// build would use, validating the default plugin set against it.
func runDiscover(cmd *cobra.Command, args []string) {
	start := time.Now()
	outCfg := OutputConfig{JSON: jsonOutput, Quiet: quietOutput}
	ctx := context.Background()

	proc := NewDefaultProcessManager()
	detector := NewDefaultPlatformDetector(proc, os.Getenv)
	buildCfg := detector.Detect(ctx, buildMode)
	probe := NewDefaultSystemProbe(proc)

	var capabilities map[string]Capability
	_ = ux.WithSpinner("Probing system capabilities", func() error {
		capabilities = probe.ProbeAll(ctx)
		return nil
	})

	catalog := NewBuiltInCatalog()
	resolver, err := NewDefaultPluginResolver(catalog, buildCfg.Platform, probe)
	if err != nil {
		os.Exit(OutputResult(outCfg, "discover", start, nil, false, err))
	}
	report := resolver.ValidateConfiguration(ctx, DefaultPluginSet(catalog))

	data := DiscoverResult{
		Platform:     buildCfg.Platform,
		Architecture: buildCfg.Architecture,
		Generator:    buildCfg.Generator,
		Validation:   report,
	}
	names := make([]string, 0, len(capabilities))
	for name := range capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := capabilities[name]
		data.Capabilities = append(data.Capabilities, CapabilitySummary{
			Name:      c.Name,
			Available: c.Available,
			Detail:    c.Detail,
		})
	}

	if !jsonOutput && !quietOutput {
		generator := buildCfg.Generator
		if generator == "" {
			generator = "platform default"
		}
		ux.Box("Build Configuration", fmt.Sprintf(
			"Platform:     %s\nArchitecture: %s\nGenerator:    %s",
			buildCfg.Platform, buildCfg.Architecture, generator))
		for _, c := range data.Capabilities {
			if c.Available {
				ux.PluginStatus(c.Name, ux.IconSuccess, c.Detail)
			} else {
				ux.PluginStatus(c.Name, ux.IconError, c.Detail)
			}
		}
		renderValidationReport(report)
		for _, w := range buildCfg.Warnings {
			ux.Warning(w)
		}
	}

	os.Exit(OutputResult(outCfg, "discover", start, data, false, nil))
}

// confirmClean asks before removing generated files. Prompters that cannot
// ask (auto-approve, CI, machine output) proceed without a question.
func confirmClean(ctx context.Context, prompter UserPrompter, buildDir, outputDir string) (bool, error) {
	if !prompter.IsInteractive() {
		return true, nil
	}
	return prompter.Confirm(ctx, fmt.Sprintf(
		"Remove generated build state under %s and packaged artifacts under %s?",
		buildDir, outputDir))
}

// runClean removes generated build state and packaged artifacts.
func runClean(cmd *cobra.Command, args []string) {
	start := time.Now()
	outCfg := OutputConfig{JSON: jsonOutput, Quiet: quietOutput}

	toolCfg := effectiveToolConfig()
	cleaner := NewDefaultBuildCleaner()

	proceed, err := confirmClean(context.Background(), selectPrompter(),
		toolCfg.BuildDir, toolCfg.OutputDir)
	if err != nil {
		os.Exit(OutputResult(outCfg, "clean", start, nil, false, err))
	}
	if !proceed {
		os.Exit(OutputResult(outCfg, "clean", start, CleanResultOutput{}, false, nil))
	}

	removed, err := cleaner.CleanBuildDir(toolCfg.BuildDir)
	if err != nil {
		os.Exit(OutputResult(outCfg, "clean", start, nil, false, err))
	}
	outRemoved, err := cleaner.CleanOutputDir(toolCfg.OutputDir)
	if err != nil {
		os.Exit(OutputResult(outCfg, "clean", start, nil, false, err))
	}
	removed = append(removed, outRemoved...)

	if !jsonOutput && !quietOutput {
		for _, path := range removed {
			ux.Cleaned(path)
		}
		ux.Success(fmt.Sprintf("Cleaned %d path(s)", len(removed)))
	}

	data := CleanResultOutput{Removed: removed, Count: len(removed)}
	os.Exit(OutputResult(outCfg, "clean", start, data, false, nil))
}
