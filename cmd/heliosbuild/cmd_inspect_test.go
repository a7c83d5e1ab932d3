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
)

// =============================================================================
// validate-config Payload Tests
// =============================================================================

// TestValidateConfigData_ReportReachesPayload verifies the read-only
// validation report is attached to the command output alongside the dry
// resolution.
func TestValidateConfigData_ReportReachesPayload(t *testing.T) {
	t.Parallel()

	f := newOrchestratorFixture(t, []string{"solarposition"})
	resolver, err := NewDefaultPluginResolver(NewBuiltInCatalog(), PlatformLinux, &MockSystemProbe{})
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}

	data := validateConfigData(context.Background(), resolver, f.orch,
		NewBuiltInCatalog(), BuildOptions{
			Plugins:         []string{"solarposition"},
			ExplicitPlugins: true,
		})

	if !data.Valid {
		t.Errorf("expected valid configuration, got: %+v", data)
	}
	if data.Validation == nil {
		t.Fatal("expected validation report in payload")
	}
	if len(data.Validation.ValidPlugins) != 1 || data.Validation.ValidPlugins[0] != "solarposition" {
		t.Errorf("unexpected valid plugins: %v", data.Validation.ValidPlugins)
	}
	if len(data.FinalPlugins) != 1 || data.FinalPlugins[0] != "solarposition" {
		t.Errorf("unexpected final plugins: %v", data.FinalPlugins)
	}
}

// TestValidateConfigData_UnknownPluginInvalidates verifies unknown names
// surface through the report and mark the payload invalid.
func TestValidateConfigData_UnknownPluginInvalidates(t *testing.T) {
	t.Parallel()

	f := newOrchestratorFixture(t, []string{"solarposition"})
	resolver, err := NewDefaultPluginResolver(NewBuiltInCatalog(), PlatformLinux, &MockSystemProbe{})
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}

	data := validateConfigData(context.Background(), resolver, f.orch,
		NewBuiltInCatalog(), BuildOptions{
			Plugins:         []string{"solarposition", "notaplugin"},
			ExplicitPlugins: true,
		})

	if data.Valid {
		t.Error("expected invalid configuration")
	}
	if len(data.Validation.InvalidPlugins) != 1 || data.Validation.InvalidPlugins[0] != "notaplugin" {
		t.Errorf("unexpected invalid plugins: %v", data.Validation.InvalidPlugins)
	}
}

// TestValidateConfigData_MissingToolkitInvalidates verifies an unavailable
// system dependency fails validation even though resolution alone succeeds.
func TestValidateConfigData_MissingToolkitInvalidates(t *testing.T) {
	t.Parallel()

	f := newOrchestratorFixture(t, []string{"radiation"})
	probe := &MockSystemProbe{Capabilities: map[string]Capability{
		SystemDepCUDA: {Name: SystemDepCUDA, Available: false},
	}}
	resolver, err := NewDefaultPluginResolver(NewBuiltInCatalog(), PlatformLinux, probe)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}

	data := validateConfigData(context.Background(), resolver, f.orch,
		NewBuiltInCatalog(), BuildOptions{
			Plugins:         []string{"radiation"},
			ExplicitPlugins: true,
		})

	if data.Valid {
		t.Error("expected invalid configuration with CUDA missing")
	}
	if available, ok := data.Validation.SystemDependencies[SystemDepCUDA]; !ok || available {
		t.Errorf("expected cuda reported unavailable, got: %v", data.Validation.SystemDependencies)
	}
	if !data.Validation.GPURequired {
		t.Error("expected GPURequired for radiation")
	}
}

// TestValidateConfigData_EmptyRequestUsesDefaultSet verifies validation
// covers the default plugin set when nothing is requested.
func TestValidateConfigData_EmptyRequestUsesDefaultSet(t *testing.T) {
	t.Parallel()

	f := newOrchestratorFixture(t, nil)
	catalog := NewBuiltInCatalog()
	resolver, err := NewDefaultPluginResolver(catalog, PlatformLinux, &MockSystemProbe{})
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}

	data := validateConfigData(context.Background(), resolver, f.orch, catalog, BuildOptions{})

	if got, want := len(data.Validation.ValidPlugins), len(DefaultPluginSet(catalog)); got != want {
		t.Errorf("expected %d validated plugins, got %d", want, got)
	}
}

// =============================================================================
// Clean Confirmation Tests
// =============================================================================

// TestConfirmClean_PromptsWhenInteractive verifies the destructive clean
// asks first and names both directories.
func TestConfirmClean_PromptsWhenInteractive(t *testing.T) {
	t.Parallel()

	prompter := &MockPrompter{
		Interactive: true,
		ConfirmFunc: func(ctx context.Context, prompt string) (bool, error) {
			return true, nil
		},
	}

	proceed, err := confirmClean(context.Background(), prompter, "/tmp/build", "/tmp/out")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !proceed {
		t.Error("expected proceed on confirmation")
	}
	if len(prompter.Calls) != 1 || prompter.Calls[0].Method != "Confirm" {
		t.Fatalf("expected one Confirm call, got: %+v", prompter.Calls)
	}
	if p := prompter.Calls[0].Prompt; !strings.Contains(p, "/tmp/build") || !strings.Contains(p, "/tmp/out") {
		t.Errorf("prompt must name both directories, got: %q", p)
	}
}

// TestConfirmClean_DeclinedStopsClean verifies a "no" answer is honored.
func TestConfirmClean_DeclinedStopsClean(t *testing.T) {
	t.Parallel()

	prompter := &MockPrompter{Interactive: true}

	proceed, err := confirmClean(context.Background(), prompter, "b", "o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proceed {
		t.Error("expected clean to stop when declined")
	}
}

// TestConfirmClean_NonInteractiveProceeds verifies CI runs clean without a
// prompt instead of failing.
func TestConfirmClean_NonInteractiveProceeds(t *testing.T) {
	t.Parallel()

	proceed, err := confirmClean(context.Background(), NewNonInteractivePrompter(), "b", "o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !proceed {
		t.Error("expected non-interactive clean to proceed")
	}
}
