// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// envVarKeyPattern validates environment variable and CMake cache keys.
// Keys must:
//   - Start with a letter or underscore
//   - Contain only alphanumeric characters and underscores
//   - Not be empty
//
// This follows POSIX naming conventions and prevents shell metacharacter
// injection into toolchain invocations.
var envVarKeyPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ErrInvalidEnvVarKey is returned when a variable or definition key is invalid.
var ErrInvalidEnvVarKey = fmt.Errorf("invalid environment variable key")

// EnvVar represents a single environment variable passed to the toolchain.
//
// # Example
//
//	ev := EnvVar{Key: "CUDA_PATH", Value: "/usr/local/cuda"}
//	fmt.Println(ev.String()) // CUDA_PATH=/usr/local/cuda
type EnvVar struct {
	// Key is the environment variable name.
	// Must match pattern: ^[a-zA-Z_][a-zA-Z0-9_]*$
	Key string

	// Value is the environment variable value. May be empty.
	Value string

	// Sensitive indicates this value should be redacted in logs and
	// diagnostics bundles.
	Sensitive bool
}

// String returns the KEY=VALUE format.
func (e EnvVar) String() string {
	return fmt.Sprintf("%s=%s", e.Key, e.Value)
}

// Redacted returns KEY=[REDACTED] for sensitive vars, otherwise String().
func (e EnvVar) Redacted() string {
	if e.Sensitive {
		return fmt.Sprintf("%s=[REDACTED]", e.Key)
	}
	return e.String()
}

// Validate checks if the key is valid.
func (e EnvVar) Validate() error {
	if !envVarKeyPattern.MatchString(e.Key) {
		return fmt.Errorf("%w: %q must match pattern [a-zA-Z_][a-zA-Z0-9_]*", ErrInvalidEnvVarKey, e.Key)
	}
	return nil
}

// EnvVars is a validated collection of environment variables.
//
// # Thread Safety
//
// EnvVars is NOT thread-safe. Do not modify concurrently.
type EnvVars struct {
	vars []EnvVar
}

// NewEnvVars creates a validated EnvVars collection. Duplicate keys are
// allowed; the last value wins in Get and Slice.
func NewEnvVars(vars ...EnvVar) (*EnvVars, error) {
	for _, v := range vars {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return &EnvVars{vars: vars}, nil
}

// EmptyEnvVars returns an empty EnvVars.
func EmptyEnvVars() *EnvVars {
	return &EnvVars{vars: []EnvVar{}}
}

// Add appends a validated environment variable.
func (e *EnvVars) Add(key, value string, sensitive bool) error {
	ev := EnvVar{Key: key, Value: value, Sensitive: sensitive}
	if err := ev.Validate(); err != nil {
		return err
	}
	e.vars = append(e.vars, ev)
	return nil
}

// Get returns the last value for a key, or empty string if not found.
func (e *EnvVars) Get(key string) string {
	if e == nil {
		return ""
	}
	for i := len(e.vars) - 1; i >= 0; i-- {
		if e.vars[i].Key == key {
			return e.vars[i].Value
		}
	}
	return ""
}

// Slice returns KEY=VALUE strings suitable for exec.Cmd.Env.
func (e *EnvVars) Slice() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.vars))
	for _, v := range e.vars {
		out = append(out, v.String())
	}
	return out
}

// RedactedSlice returns log-safe KEY=VALUE strings.
func (e *EnvVars) RedactedSlice() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.vars))
	for _, v := range e.vars {
		out = append(out, v.Redacted())
	}
	return out
}

// Len returns the number of variables.
func (e *EnvVars) Len() int {
	if e == nil {
		return 0
	}
	return len(e.vars)
}

// =============================================================================
// CMake Definitions
// =============================================================================

// CMakeDefinition is one -D cache entry passed to the configure step.
type CMakeDefinition struct {
	// Name is the cache variable name. Same key rules as EnvVar.
	Name string

	// Value is the cache value (ON, OFF, a path, ...).
	Value string
}

// Flag renders the definition as a -DNAME=VALUE argument.
func (d CMakeDefinition) Flag() string {
	return fmt.Sprintf("-D%s=%s", d.Name, d.Value)
}

// Validate checks the definition name.
func (d CMakeDefinition) Validate() error {
	if !envVarKeyPattern.MatchString(d.Name) {
		return fmt.Errorf("%w: cmake definition %q", ErrInvalidEnvVarKey, d.Name)
	}
	return nil
}

// pluginDefinitionName maps a plugin name to its enable flag, e.g.
// "radiation" -> "ENABLE_PLUGIN_RADIATION".
func pluginDefinitionName(plugin string) string {
	return "ENABLE_PLUGIN_" + strings.ToUpper(plugin)
}

// PluginDefinitions builds the compile-definition set for a plugin
// selection, sorted for reproducible configure command lines. The OptiX
// acceleration flag is a strict binary pairing with the radiation plugin:
// ON when selected, OFF otherwise, never absent.
func PluginDefinitions(plugins []string) []CMakeDefinition {
	defs := make([]CMakeDefinition, 0, len(plugins)+2)
	optix := "OFF"
	for _, p := range uniqueSorted(plugins) {
		defs = append(defs, CMakeDefinition{Name: pluginDefinitionName(p), Value: "ON"})
		if p == "radiation" {
			optix = "ON"
		}
	}
	defs = append(defs, CMakeDefinition{Name: "PLUGINS", Value: strings.Join(uniqueSorted(plugins), ";")})
	defs = append(defs, CMakeDefinition{Name: "HELIOS_ENABLE_OPTIX", Value: optix})
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
