// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/pyhelios/heliosbuild/pkg/ux"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	pluginList       []string
	excludeList      []string
	noGPU            bool
	noVisualization  bool
	buildMode        string
	cleanFirst       bool
	interactiveMode  bool
	autoApprove      bool
	nonInteractive   bool
	strictMode       bool
	withOptional     bool
	heliosRootFlag   string
	outputDirFlag    string
	buildDirFlag     string
	cmakeArgs        []string
	buildTimeout     string
	jsonOutput       bool
	quietOutput      bool
	personalityLevel string // UX personality level (full/standard/minimal/machine)

	rootCmd = &cobra.Command{
		Use:   "heliosbuild",
		Short: "A cli to build the Helios plant-simulation native library",
		Long: `heliosbuild resolves a plugin set against its dependency graph,
				configures and compiles the Helios C++ core with CMake, and
				packages a validated shared library with its runtime assets.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}
		},
		Run: runBuild, // Defined in cmd_build.go
	}

	// --- Build ---
	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Resolve plugins and build the native library (the default command)",
		Run:   runBuild, // Defined in cmd_build.go
	}

	// --- Inspection ---
	listPluginsCmd = &cobra.Command{
		Use:   "list-plugins",
		Short: "List the plugins available on this platform with current capabilities",
		Run:   runListPlugins, // Defined in cmd_inspect.go
	}

	listAllPluginsCmd = &cobra.Command{
		Use:   "list-all-plugins",
		Short: "List every known plugin, including ones this platform cannot build",
		Run:   runListAllPlugins, // Defined in cmd_inspect.go
	}

	validateConfigCmd = &cobra.Command{
		Use:   "validate-config",
		Short: "Resolve the requested plugin set and report errors without building",
		Run:   runValidateConfig, // Defined in cmd_inspect.go
	}

	discoverCmd = &cobra.Command{
		Use:   "discover",
		Short: "Probe the system for CUDA, OpenGL, and GLFW and show the build configuration",
		Run:   runDiscover, // Defined in cmd_inspect.go
	}

	// --- Maintenance ---
	cleanCmd = &cobra.Command{
		Use:   "clean",
		Short: "Remove generated build state and packaged artifacts",
		Run:   runClean, // Defined in cmd_inspect.go
	}
)

// init runs when the Go program starts
func init() {
	// Global UX personality flag
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default, rich), standard, minimal, or machine (scripting)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().BoolVar(&quietOutput, "quiet", false, "Suppress output, exit code only")
	rootCmd.PersistentFlags().StringVar(&heliosRootFlag, "helios-root", "",
		"Path to the Helios C++ checkout (overrides config)")
	rootCmd.PersistentFlags().StringVar(&outputDirFlag, "output-dir", "",
		"Where packaged libraries land (overrides config)")
	rootCmd.PersistentFlags().StringVar(&buildDirFlag, "build-dir", "",
		"CMake build directory, reused across runs (overrides config)")

	rootCmd.AddCommand(buildCmd)
	for _, cmd := range []*cobra.Command{rootCmd, buildCmd} {
		cmd.Flags().StringSliceVar(&pluginList, "plugins", nil,
			"Comma-separated plugin set to build (default: all buildable plugins)")
		cmd.Flags().StringSliceVar(&excludeList, "exclude", nil,
			"Plugins to drop from the requested set before resolution")
		cmd.Flags().BoolVar(&noGPU, "nogpu", false,
			"Exclude all GPU-dependent plugins (also via HELIOSBUILD_NOGPU=1)")
		cmd.Flags().BoolVar(&noVisualization, "novis", false,
			"Exclude the visualization plugin family")
		cmd.Flags().StringVar(&buildMode, "buildmode", "release",
			"Build mode: debug, release, or relwithdebinfo")
		cmd.Flags().BoolVar(&cleanFirst, "clean", false,
			"Remove generated state before building (full reconfigure)")
		cmd.Flags().BoolVarP(&interactiveMode, "interactive", "i", false,
			"Pick plugins in a terminal multi-select before building")
		cmd.Flags().BoolVarP(&autoApprove, "yes", "y", false,
			"Answer yes to all prompts")
		cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false,
			"Fail instead of prompting (CI)")
		cmd.Flags().BoolVar(&strictMode, "strict", false,
			"Treat capability-based plugin drops as errors")
		cmd.Flags().BoolVar(&withOptional, "with-optional", false,
			"Pull in satisfiable optional plugin dependencies")
		cmd.Flags().StringSliceVar(&cmakeArgs, "cmake-args", nil,
			"Extra arguments appended to the CMake configure line")
		cmd.Flags().StringVar(&buildTimeout, "build-timeout", "",
			"Abort configure/compile after this duration (e.g. 45m)")
	}

	rootCmd.AddCommand(listPluginsCmd)
	rootCmd.AddCommand(listAllPluginsCmd)

	rootCmd.AddCommand(validateConfigCmd)
	validateConfigCmd.Flags().StringSliceVar(&pluginList, "plugins", nil,
		"Comma-separated plugin set to validate")
	validateConfigCmd.Flags().StringSliceVar(&excludeList, "exclude", nil,
		"Plugins to drop from the requested set before resolution")
	validateConfigCmd.Flags().BoolVar(&noGPU, "nogpu", false,
		"Exclude all GPU-dependent plugins")
	validateConfigCmd.Flags().BoolVar(&noVisualization, "novis", false,
		"Exclude the visualization plugin family")
	validateConfigCmd.Flags().BoolVar(&strictMode, "strict", false,
		"Treat capability-based plugin drops as errors")
	validateConfigCmd.Flags().BoolVar(&withOptional, "with-optional", false,
		"Pull in satisfiable optional plugin dependencies")

	rootCmd.AddCommand(discoverCmd)

	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVarP(&autoApprove, "yes", "y", false,
		"Remove without asking")
	cleanCmd.Flags().BoolVar(&nonInteractive, "non-interactive", false,
		"Never prompt (CI)")
}
