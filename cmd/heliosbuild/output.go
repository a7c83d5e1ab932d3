// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Exit codes for CLI commands. Any failure, whether a validation finding
// or a runtime error, exits 1; scripts distinguish the two through the
// tagged output or the JSON payload.
const (
	CLIExitSuccess = 0 // Operation completed successfully
	CLIExitFailure = 1 // Operation failed or reported findings
)

// OutputConfig controls output behavior.
type OutputConfig struct {
	JSON    bool // Output as JSON
	Compact bool // No indentation
	Quiet   bool // No output, exit code only
}

// CommandResult wraps command output with metadata.
type CommandResult struct {
	APIVersion string      `json:"api_version"`
	Command    string      `json:"command"`
	Timestamp  time.Time   `json:"timestamp"`
	DurationMs int64       `json:"duration_ms"`
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// OutputJSON writes structured data as JSON to stdout.
func OutputJSON(data interface{}, compact bool) error {
	encoder := json.NewEncoder(os.Stdout)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// OutputError writes an error in the appropriate format.
func OutputError(jsonMode bool, msg string, err error) {
	if jsonMode {
		result := CommandResult{
			APIVersion: "1.0",
			Timestamp:  time.Now(),
			Success:    false,
			Error:      fmt.Sprintf("%s: %v", msg, err),
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		encoder.Encode(result)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	}
}

// OutputResult handles all output scenarios with proper formatting.
//
// # Inputs
//
//   - cfg: Output configuration.
//   - cmd: Command name for metadata.
//   - start: Start time for duration calculation.
//   - data: The data to output.
//   - hasFindings: Whether the operation found issues (for exit code).
//   - err: Any error that occurred.
//
// # Outputs
//
//   - int: The exit code to use.
func OutputResult(cfg OutputConfig, cmd string, start time.Time, data interface{}, hasFindings bool, err error) int {
	if cfg.Quiet {
		if err != nil {
			return CLIExitFailure
		}
		if hasFindings {
			return CLIExitFailure
		}
		return CLIExitSuccess
	}

	if err != nil {
		OutputError(cfg.JSON, "Command failed", err)
		return CLIExitFailure
	}

	if cfg.JSON {
		result := CommandResult{
			APIVersion: "1.0",
			Command:    cmd,
			Timestamp:  time.Now(),
			DurationMs: time.Since(start).Milliseconds(),
			Success:    true,
			Data:       data,
		}
		if encErr := OutputJSON(result, cfg.Compact); encErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", encErr)
			return CLIExitFailure
		}
	}

	if hasFindings {
		return CLIExitFailure
	}
	return CLIExitSuccess
}

// PluginListResult holds list-plugins output.
type PluginListResult struct {
	Plugins []PluginSummary `json:"plugins"`
	Count   int             `json:"count"`
}

// PluginSummary represents one plugin in list output.
type PluginSummary struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	GPURequired  bool     `json:"gpu_required"`
	Platforms    []string `json:"platforms,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Available    bool     `json:"available"`
}

// ResolveResult holds validate-config output.
type ResolveResult struct {
	FinalPlugins []string          `json:"final_plugins"`
	AddedPlugins []string          `json:"added_plugins,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
	Errors       []string          `json:"errors,omitempty"`
	Valid        bool              `json:"valid"`
	Validation   *ValidationReport `json:"validation,omitempty"`
}

// DiscoverResult holds discover output.
type DiscoverResult struct {
	Platform     string              `json:"platform"`
	Architecture string              `json:"architecture"`
	Generator    string              `json:"generator"`
	Capabilities []CapabilitySummary `json:"capabilities"`
	Validation   *ValidationReport   `json:"validation,omitempty"`
}

// CapabilitySummary represents one probed system capability.
type CapabilitySummary struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// BuildResultOutput holds build output.
type BuildResultOutput struct {
	Library      string   `json:"library"`
	Manifest     string   `json:"manifest"`
	Plugins      []string `json:"plugins"`
	StagedAssets []string `json:"staged_assets,omitempty"`
	Converted    bool     `json:"converted"`
	DurationMs   int64    `json:"duration_ms"`
	Warnings     []string `json:"warnings,omitempty"`
}

// CleanResultOutput holds clean output.
type CleanResultOutput struct {
	Removed []string `json:"removed"`
	Count   int      `json:"count"`
}
