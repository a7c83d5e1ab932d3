// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"strings"
	"testing"
)

// =============================================================================
// EnvVar Tests
// =============================================================================

// TestEnvVar_Validate verifies key pattern enforcement.
func TestEnvVar_Validate(t *testing.T) {
	t.Parallel()

	valid := []string{"CUDA_PATH", "_private", "a", "HTTP2_ENABLED"}
	for _, key := range valid {
		if err := (EnvVar{Key: key}).Validate(); err != nil {
			t.Errorf("expected %q to be valid: %v", key, err)
		}
	}

	invalid := []string{"", "2LEADING", "has-dash", "has space", "a$b", "PATH;rm"}
	for _, key := range invalid {
		if err := (EnvVar{Key: key}).Validate(); err == nil {
			t.Errorf("expected %q to be rejected", key)
		}
	}
}

// TestEnvVar_Redacted verifies sensitive values never render in log form.
func TestEnvVar_Redacted(t *testing.T) {
	t.Parallel()

	plain := EnvVar{Key: "CUDA_PATH", Value: "/usr/local/cuda"}
	if plain.Redacted() != "CUDA_PATH=/usr/local/cuda" {
		t.Errorf("unexpected redaction of non-sensitive var: %q", plain.Redacted())
	}

	secret := EnvVar{Key: "API_TOKEN", Value: "hunter2", Sensitive: true}
	if strings.Contains(secret.Redacted(), "hunter2") {
		t.Errorf("sensitive value leaked: %q", secret.Redacted())
	}
	if secret.Redacted() != "API_TOKEN=[REDACTED]" {
		t.Errorf("unexpected redacted form: %q", secret.Redacted())
	}
	// The exec form still carries the real value.
	if secret.String() != "API_TOKEN=hunter2" {
		t.Errorf("unexpected exec form: %q", secret.String())
	}
}

// =============================================================================
// EnvVars Collection Tests
// =============================================================================

// TestEnvVars_AddAndGet verifies last-write-wins lookup.
func TestEnvVars_AddAndGet(t *testing.T) {
	t.Parallel()

	env := EmptyEnvVars()
	if err := env.Add("CUDA_PATH", "/opt/cuda-11", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.Add("CUDA_PATH", "/opt/cuda-12", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if env.Get("CUDA_PATH") != "/opt/cuda-12" {
		t.Errorf("expected last value to win, got: %q", env.Get("CUDA_PATH"))
	}
	if env.Get("MISSING") != "" {
		t.Errorf("expected empty string for missing key")
	}
	if env.Len() != 2 {
		t.Errorf("expected 2 entries, got: %d", env.Len())
	}
}

// TestEnvVars_AddInvalidKey verifies invalid keys are rejected at Add.
func TestEnvVars_AddInvalidKey(t *testing.T) {
	t.Parallel()

	env := EmptyEnvVars()
	if err := env.Add("BAD-KEY", "x", false); err == nil {
		t.Fatal("expected error for invalid key")
	}
	if env.Len() != 0 {
		t.Errorf("rejected key must not be stored, len=%d", env.Len())
	}
}

// TestNewEnvVars_ValidatesAll verifies constructor validation.
func TestNewEnvVars_ValidatesAll(t *testing.T) {
	t.Parallel()

	_, err := NewEnvVars(
		EnvVar{Key: "GOOD", Value: "1"},
		EnvVar{Key: "also bad", Value: "2"},
	)
	if err == nil {
		t.Fatal("expected error for invalid key in constructor")
	}
}

// TestEnvVars_NilReceiverSafety verifies nil receivers behave as empty.
func TestEnvVars_NilReceiverSafety(t *testing.T) {
	t.Parallel()

	var env *EnvVars
	if env.Get("X") != "" {
		t.Error("expected empty Get on nil receiver")
	}
	if env.Slice() != nil {
		t.Error("expected nil Slice on nil receiver")
	}
	if env.Len() != 0 {
		t.Error("expected zero Len on nil receiver")
	}
}

// TestEnvVars_RedactedSlice verifies the log-safe rendering.
func TestEnvVars_RedactedSlice(t *testing.T) {
	t.Parallel()

	env, err := NewEnvVars(
		EnvVar{Key: "CUDA_PATH", Value: "/usr/local/cuda"},
		EnvVar{Key: "REGISTRY_TOKEN", Value: "s3cret", Sensitive: true},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined := strings.Join(env.RedactedSlice(), " ")
	if strings.Contains(joined, "s3cret") {
		t.Errorf("sensitive value leaked in redacted slice: %q", joined)
	}
	if !strings.Contains(joined, "/usr/local/cuda") {
		t.Errorf("non-sensitive value missing: %q", joined)
	}
}

// =============================================================================
// CMake Definition Tests
// =============================================================================

// TestCMakeDefinition_Flag verifies the -D rendering.
func TestCMakeDefinition_Flag(t *testing.T) {
	t.Parallel()

	d := CMakeDefinition{Name: "BUILD_SHARED_LIBS", Value: "ON"}
	if d.Flag() != "-DBUILD_SHARED_LIBS=ON" {
		t.Errorf("unexpected flag: %q", d.Flag())
	}
	if err := (CMakeDefinition{Name: "bad name"}).Validate(); err == nil {
		t.Error("expected validation error for bad definition name")
	}
}

// TestPluginDefinitions verifies the per-plugin enable flags, the PLUGINS
// list variable, and the OptiX pairing.
func TestPluginDefinitions(t *testing.T) {
	t.Parallel()

	defs := PluginDefinitions([]string{"radiation", "lidar", "radiation"})

	byName := map[string]string{}
	for _, d := range defs {
		byName[d.Name] = d.Value
	}

	if byName["ENABLE_PLUGIN_RADIATION"] != "ON" {
		t.Error("expected ENABLE_PLUGIN_RADIATION=ON")
	}
	if byName["ENABLE_PLUGIN_LIDAR"] != "ON" {
		t.Error("expected ENABLE_PLUGIN_LIDAR=ON")
	}
	if byName["PLUGINS"] != "lidar;radiation" {
		t.Errorf("expected deduplicated sorted PLUGINS list, got: %q", byName["PLUGINS"])
	}
	if byName["HELIOS_ENABLE_OPTIX"] != "ON" {
		t.Error("expected OptiX ON when radiation is selected")
	}

	// Sorted for reproducible command lines.
	for i := 1; i < len(defs); i++ {
		if defs[i-1].Name >= defs[i].Name {
			t.Errorf("definitions not sorted at %d: %q >= %q", i, defs[i-1].Name, defs[i].Name)
		}
	}
}

// TestPluginDefinitions_OptixOffWithoutRadiation verifies the flag is
// present and OFF when radiation is absent, never missing.
func TestPluginDefinitions_OptixOffWithoutRadiation(t *testing.T) {
	t.Parallel()

	defs := PluginDefinitions([]string{"solarposition"})

	found := false
	for _, d := range defs {
		if d.Name == "HELIOS_ENABLE_OPTIX" {
			found = true
			if d.Value != "OFF" {
				t.Errorf("expected OFF, got: %q", d.Value)
			}
		}
	}
	if !found {
		t.Error("HELIOS_ENABLE_OPTIX must always be emitted")
	}
}

// TestPluginDefinitions_Empty verifies the empty selection still emits the
// list and OptiX variables.
func TestPluginDefinitions_Empty(t *testing.T) {
	t.Parallel()

	defs := PluginDefinitions(nil)
	if len(defs) != 2 {
		t.Fatalf("expected exactly PLUGINS and HELIOS_ENABLE_OPTIX, got: %v", defs)
	}
}
