// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pyhelios/heliosbuild/cmd/heliosbuild/config"
	"github.com/pyhelios/heliosbuild/pkg/logging"
	"github.com/pyhelios/heliosbuild/pkg/ux"
)

// effectiveToolConfig merges the loaded config file with CLI overrides.
func effectiveToolConfig() *config.BuildToolConfig {
	cfg := config.Global
	if heliosRootFlag != "" {
		cfg.HeliosRoot = heliosRootFlag
	}
	if outputDirFlag != "" {
		cfg.OutputDir = outputDirFlag
	}
	if buildDirFlag != "" {
		cfg.BuildDir = buildDirFlag
	}
	return &cfg
}

// buildDependencies wires the full toolchain for a build-capable command.
type buildDependencies struct {
	proc     *DefaultProcessManager
	catalog  *PluginCatalog
	probe    *DefaultSystemProbe
	resolver *DefaultPluginResolver
	buildCfg *BuildConfiguration
	toolCfg  *config.BuildToolConfig
	orch     *DefaultBuildOrchestrator
}

// newBuildDependencies constructs every component the build command needs.
func newBuildDependencies(ctx context.Context) (*buildDependencies, error) {
	toolCfg := effectiveToolConfig()
	proc := NewDefaultProcessManager()

	detector := NewDefaultPlatformDetector(proc, os.Getenv)
	buildCfg := detector.Detect(ctx, buildMode)
	if toolCfg.Parallelism > 0 {
		buildCfg.Parallelism = toolCfg.Parallelism
	}
	for _, w := range buildCfg.Warnings {
		ux.Warning(w)
	}

	catalog := NewBuiltInCatalog()
	probe := NewDefaultSystemProbe(proc)

	resolver, err := NewDefaultPluginResolver(catalog, buildCfg.Platform, probe)
	if err != nil {
		return nil, err
	}
	executor, err := NewDefaultCMakeExecutor(proc, buildCfg)
	if err != nil {
		return nil, err
	}
	validator, err := NewDefaultLibraryValidator(proc, buildCfg)
	if err != nil {
		return nil, err
	}

	orch, err := NewDefaultBuildOrchestrator(
		catalog,
		resolver,
		probe,
		proc,
		executor,
		NewDefaultArtifactLocator(buildCfg),
		validator,
		NewDefaultBuildCleaner(),
		NewDefaultPTXStager(),
		NewDefaultDiagnosticsCollector(toolCfg.OutputDir),
		buildCfg,
		toolCfg,
	)
	if err != nil {
		return nil, err
	}
	if quietOutput || jsonOutput {
		orch.SetOutput(nil)
	}

	return &buildDependencies{
		proc:     proc,
		catalog:  catalog,
		probe:    probe,
		resolver: resolver,
		buildCfg: buildCfg,
		toolCfg:  toolCfg,
		orch:     orch,
	}, nil
}

// buildOptionsFromFlags converts CLI flags into orchestrator options.
func buildOptionsFromFlags() (BuildOptions, error) {
	opts := BuildOptions{
		Plugins:         pluginList,
		Exclude:         excludeList,
		NoGPU:           noGPU || os.Getenv("HELIOSBUILD_NOGPU") == "1",
		NoVisualization: noVisualization,
		ExplicitPlugins: len(pluginList) > 0,
		IncludeOptional: withOptional,
		StrictMode:      strictMode,
		Clean:           cleanFirst,
		ExtraCMakeArgs:  cmakeArgs,
	}
	if buildTimeout != "" {
		d, err := time.ParseDuration(buildTimeout)
		if err != nil {
			return opts, fmt.Errorf("invalid --build-timeout %q: %w", buildTimeout, err)
		}
		opts.Timeout = d
	}
	return opts, nil
}

// selectPrompter picks the prompter matching the interactivity flags.
func selectPrompter() UserPrompter {
	switch {
	case autoApprove:
		return NewAutoApprovePrompter()
	case nonInteractive || !ux.IsInteractive():
		return NewNonInteractivePrompter()
	default:
		return NewHuhPrompter(false)
	}
}

// runBuild is the main entry point for `heliosbuild` and `heliosbuild build`.
func runBuild(cmd *cobra.Command, args []string) {
	start := time.Now()
	outCfg := OutputConfig{JSON: jsonOutput, Quiet: quietOutput}

	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  "~/.heliosbuild/logs",
		Service: "heliosbuild",
	})
	// Every completion path below leaves through os.Exit, which skips
	// deferred calls, so the log file is flushed explicitly.
	exit := func(code int) {
		_ = logger.Close()
		os.Exit(code)
	}

	ctx := context.Background()
	deps, err := newBuildDependencies(ctx)
	if err != nil {
		exit(OutputResult(outCfg, "build", start, nil, false, err))
	}

	opts, err := buildOptionsFromFlags()
	if err != nil {
		exit(OutputResult(outCfg, "build", start, nil, false, err))
	}

	if interactiveMode {
		prompter := selectPrompter()
		preselected := opts.Plugins
		if len(preselected) == 0 {
			preselected = DefaultPluginSet(deps.catalog)
		}
		selected, err := prompter.SelectPlugins(ctx, deps.catalog, preselected)
		if err != nil {
			exit(OutputResult(outCfg, "build", start, nil, false, err))
		}
		opts.Plugins = selected
		opts.ExplicitPlugins = true
	}

	ux.Title("heliosbuild")
	logger.Info("build started",
		"plugins", len(opts.Plugins),
		"mode", buildMode,
		"nogpu", opts.NoGPU,
	)

	report, err := deps.orch.Build(ctx, opts)
	if err != nil {
		logger.Error("build failed", "error", err)
		reportBuildFailure(err)
		exit(OutputResult(outCfg, "build", start, nil, false, err))
	}

	logger.Info("build finished",
		"library", report.LibraryPath,
		"plugins", len(report.Resolution.FinalPlugins),
		"duration", report.Duration.String(),
	)

	for _, name := range report.Resolution.RemovedPlugins {
		ux.Excluded(name, "")
	}
	for _, w := range report.Warnings {
		ux.Warning(w)
	}
	ux.Success(fmt.Sprintf("Built %s with %d plugin(s)",
		report.LibraryPath, len(report.Resolution.FinalPlugins)))
	ux.Summary(len(report.Resolution.FinalPlugins),
		len(report.Resolution.AddedPlugins),
		len(report.Resolution.RemovedPlugins))

	data := BuildResultOutput{
		Library:      report.LibraryPath,
		Manifest:     report.ManifestPath,
		Plugins:      report.Resolution.FinalPlugins,
		StagedAssets: report.StagedAssets,
		Converted:    report.Converted,
		DurationMs:   report.Duration.Milliseconds(),
		Warnings:     report.Warnings,
	}
	exit(OutputResult(outCfg, "build", start, data, false, nil))
}

// reportBuildFailure renders a phase failure with its remediation hint.
func reportBuildFailure(err error) {
	if jsonOutput || quietOutput {
		return
	}
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		ux.Error(fmt.Sprintf("[%s] %s", buildErr.Phase, buildErr.Message))
		if buildErr.Remediation != "" && ux.GetPersonality().ShowTips {
			ux.Info("try: " + buildErr.Remediation)
		}
		if buildErr.Output != "" {
			ux.Muted(buildErr.Output)
		}
		return
	}
	ux.Error(err.Error())
}
