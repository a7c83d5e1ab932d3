// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package main: PluginResolver turns a requested plugin set into a final,
buildable plugin set.

# Design Rationale

Resolution is a pure fixed-point computation over the immutable catalog:
platform filtering, required-dependency expansion, optional-dependency
expansion, and mutual-exclusion pruning repeat until the working set
stabilizes. The resolver never raises for ordinary incompatibility: every
removal and conflict is reported through the ResolutionResult so the CLI can
decide what is fatal. Capability probes (CUDA and friends) are injected, not
performed during resolution, which keeps the algorithm deterministic and
testable without real hardware.
*/
package main

import (
	"context"
	"fmt"
	"sort"
)

// maxResolutionPasses bounds the fixed-point loop. Catalogs are tiny; any
// input still changing after this many full passes has cyclic or
// contradictory metadata and is reported as an error instead of looping.
const maxResolutionPasses = 32

// =============================================================================
// Result Types
// =============================================================================

// ResolutionResult is the outcome of one Resolve call.
//
// # Description
//
// Created fresh per call and immutable once returned. A non-empty Errors
// slice means the result must not be used to drive a build. Every plugin
// absent from FinalPlugins but present in the request is accounted for in
// RemovedPlugins.
type ResolutionResult struct {
	// FinalPlugins is the resolved plugin set, sorted by name.
	FinalPlugins []string

	// AddedPlugins are plugins introduced by dependency expansion that were
	// not in the original request, sorted by name.
	AddedPlugins []string

	// RemovedPlugins are plugins dropped for platform incompatibility,
	// mutual exclusion, or unsatisfiable requirements, sorted by name.
	RemovedPlugins []string

	// Warnings are non-fatal diagnostics in occurrence order.
	Warnings []string

	// Errors are fatal diagnostics in occurrence order. Non-empty means
	// the selection is not buildable.
	Errors []string
}

// HasErrors reports whether the result carries fatal diagnostics.
func (r *ResolutionResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Contains reports whether a plugin is in the final set.
func (r *ResolutionResult) Contains(name string) bool {
	for _, p := range r.FinalPlugins {
		if p == name {
			return true
		}
	}
	return false
}

// ValidationReport is the outcome of ValidateConfiguration.
//
// Read-only diagnostics for --validate-config and --discover. No build is
// performed and the input set is not modified.
type ValidationReport struct {
	// ValidPlugins are requested names present in the catalog, sorted.
	ValidPlugins []string `json:"valid_plugins"`

	// InvalidPlugins are requested names absent from the catalog, sorted.
	InvalidPlugins []string `json:"invalid_plugins"`

	// PlatformCompatible are valid plugins buildable on this host, sorted.
	PlatformCompatible []string `json:"platform_compatible"`

	// PlatformIncompatible are valid plugins not buildable here, sorted.
	PlatformIncompatible []string `json:"platform_incompatible"`

	// SystemDependencies maps each toolkit needed by the selection to its
	// probed availability on this host.
	SystemDependencies map[string]bool `json:"system_dependencies"`

	// GPURequired is true if any valid requested plugin needs CUDA.
	GPURequired bool `json:"gpu_required"`
}

// Valid reports whether the configuration can be built as requested:
// every name known, every plugin platform-compatible, and every required
// system dependency available.
func (v *ValidationReport) Valid() bool {
	if len(v.InvalidPlugins) > 0 || len(v.PlatformIncompatible) > 0 {
		return false
	}
	for _, available := range v.SystemDependencies {
		if !available {
			return false
		}
	}
	return true
}

// ResolveOptions configures one resolution call.
type ResolveOptions struct {
	// Requested is the starting plugin set. May be empty.
	Requested []string

	// IncludeOptional adds optional dependencies of selected plugins when
	// they are platform-compatible.
	IncludeOptional bool

	// StrictMode makes an unsatisfiable required dependency an error even
	// for plugins that were not explicitly requested.
	StrictMode bool

	// ExplicitlyRequested is the subset of Requested named directly by the
	// user. Unmet requirements for these are always errors (fail-fast);
	// default/implicit requests degrade to warnings instead.
	ExplicitlyRequested []string
}

// =============================================================================
// Interface Definition
// =============================================================================

// PluginResolver resolves plugin selections against the catalog.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use; Resolve and
// ValidateConfiguration do not mutate shared state.
type PluginResolver interface {
	// Resolve expands and prunes the requested set to a consistent final
	// set. It never returns an error value for ordinary incompatibility:
	// callers must check ResolutionResult.Errors before building.
	Resolve(ctx context.Context, opts ResolveOptions) *ResolutionResult

	// ValidateConfiguration reports, without building or mutating anything,
	// whether the given plugins are known, platform-compatible, and have
	// their system dependencies available.
	ValidateConfiguration(ctx context.Context, plugins []string) *ValidationReport
}

// =============================================================================
// Default Implementation
// =============================================================================

// DefaultPluginResolver implements PluginResolver over an immutable catalog.
type DefaultPluginResolver struct {
	// catalog is the static plugin metadata table.
	catalog *PluginCatalog

	// platform is the host platform identifier (windows, linux, macos).
	platform string

	// probe answers system-dependency availability queries for
	// ValidateConfiguration. Never consulted during Resolve.
	probe SystemProbe
}

// NewDefaultPluginResolver creates a resolver for the given catalog and
// host platform.
//
// # Inputs
//
//   - catalog: Validated plugin metadata table (required).
//   - platform: Host platform identifier (required).
//   - probe: System capability probe (required; used only by
//     ValidateConfiguration).
//
// # Outputs
//
//   - *DefaultPluginResolver: Ready-to-use resolver.
//   - error: ErrNilDependency if any dependency is nil or empty.
func NewDefaultPluginResolver(catalog *PluginCatalog, platform string, probe SystemProbe) (*DefaultPluginResolver, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: PluginCatalog", ErrNilDependency)
	}
	if platform == "" {
		return nil, fmt.Errorf("%w: platform", ErrNilDependency)
	}
	if probe == nil {
		return nil, fmt.Errorf("%w: SystemProbe", ErrNilDependency)
	}
	return &DefaultPluginResolver{
		catalog:  catalog,
		platform: platform,
		probe:    probe,
	}, nil
}

// resolution carries the working state of one Resolve call.
type resolution struct {
	working  map[string]bool
	added    map[string]bool
	removed  map[string]bool
	explicit map[string]bool
	// requested is the original request, surviving members of which are
	// protected during mutual-exclusion pruning.
	requested map[string]bool
	// addedOrder records the pass+position a plugin entered the working set,
	// for the deterministic added-vs-added exclusion tie-break.
	addedOrder map[string]int
	nextOrder  int
	warnings   []string
	errors     []string
	// reportedConflicts prevents duplicate diagnostics when an
	// irreconcilable pair is seen again on a later pass.
	reportedConflicts map[string]bool
}

// Resolve implements the fixed-point expansion with conflict pruning.
//
// # Description
//
// Pipeline per call:
//  1. Seed the working set from the request; unknown names are reported
//     (error if explicit, warning otherwise), never dereferenced.
//  2. Platform filter.
//  3. Repeat until stable: required-dependency expansion, optional
//     expansion (if enabled), mutual-exclusion resolution.
//  4. On hitting the pass bound, report the instability as an error.
//
// # Inputs
//
//   - ctx: Unused today; kept for interface symmetry with the probing path.
//   - opts: Request set and policy flags.
//
// # Outputs
//
//   - *ResolutionResult: Always non-nil; check Errors before building.
func (r *DefaultPluginResolver) Resolve(_ context.Context, opts ResolveOptions) *ResolutionResult {
	st := &resolution{
		working:           make(map[string]bool),
		added:             make(map[string]bool),
		removed:           make(map[string]bool),
		explicit:          make(map[string]bool),
		requested:         make(map[string]bool),
		addedOrder:        make(map[string]int),
		reportedConflicts: make(map[string]bool),
	}
	for _, name := range opts.ExplicitlyRequested {
		st.explicit[name] = true
	}

	// Seed. Unknown plugin names are treated as absent, not dereferenced.
	for _, name := range opts.Requested {
		if _, ok := r.catalog.Get(name); !ok {
			if st.explicit[name] {
				st.errors = append(st.errors,
					fmt.Sprintf("unknown plugin %q: not in the plugin catalog (see list-all-plugins)", name))
			} else {
				st.warnings = append(st.warnings, fmt.Sprintf("ignoring unknown plugin %q", name))
			}
			continue
		}
		st.working[name] = true
		st.requested[name] = true
	}

	r.filterPlatform(st)

	stable := false
	for pass := 0; pass < maxResolutionPasses; pass++ {
		changed := r.expandRequired(st, opts)
		if opts.IncludeOptional {
			changed = r.expandOptional(st) || changed
		}
		changed = r.resolveMutualExclusions(st) || changed
		if !changed {
			stable = true
			break
		}
	}
	if !stable {
		st.errors = append(st.errors,
			"plugin dependency graph did not stabilize: cyclic or contradictory metadata; "+
				"fix the catalog or reduce the requested set")
	}

	return &ResolutionResult{
		FinalPlugins:   sortedKeys(st.working),
		AddedPlugins:   sortedTrueKeys(st.added, st.working),
		RemovedPlugins: sortedKeys(st.removed),
		Warnings:       st.warnings,
		Errors:         st.errors,
	}
}

// filterPlatform removes platform-incompatible plugins from the working set.
func (r *DefaultPluginResolver) filterPlatform(st *resolution) {
	for _, name := range sortedKeys(st.working) {
		meta, _ := r.catalog.Get(name)
		if meta.HasPlatform(r.platform) {
			continue
		}
		delete(st.working, name)
		st.removed[name] = true
		msg := fmt.Sprintf("plugin %q is not supported on %s (supported: %v)",
			name, r.platform, meta.Platforms)
		if st.explicit[name] {
			st.errors = append(st.errors, msg+"; remove it from --plugins or build on a supported platform")
		} else {
			st.warnings = append(st.warnings, msg)
		}
	}
}

// expandRequired adds required dependencies, removing plugins whose
// requirements cannot be satisfied on this platform.
func (r *DefaultPluginResolver) expandRequired(st *resolution, opts ResolveOptions) bool {
	changed := false
	for _, name := range sortedKeys(st.working) {
		if !st.working[name] {
			continue // removed earlier in this pass
		}
		meta, _ := r.catalog.Get(name)
		for _, dep := range meta.RequiredDependencies {
			depMeta, known := r.catalog.Get(dep)
			satisfiable := known && depMeta.HasPlatform(r.platform) && !st.removed[dep]
			if satisfiable {
				if !st.working[dep] {
					st.working[dep] = true
					st.added[dep] = true
					st.addedOrder[dep] = st.nextOrder
					st.nextOrder++
					changed = true
				}
				continue
			}

			// Requirement cannot be met: drop the root plugin.
			delete(st.working, name)
			st.removed[name] = true
			changed = true
			msg := fmt.Sprintf("plugin %q requires %q, which is unavailable on %s",
				name, dep, r.platform)
			if st.explicit[name] || opts.StrictMode {
				st.errors = append(st.errors, msg+"; deselect it or use a platform that supports the dependency")
			} else {
				st.warnings = append(st.warnings, msg+"; dropping it from the build")
			}
			break
		}
	}
	return changed
}

// expandOptional adds platform-compatible optional dependencies that are not
// blocked by a mutual exclusion against the current working set.
func (r *DefaultPluginResolver) expandOptional(st *resolution) bool {
	changed := false
	for _, name := range sortedKeys(st.working) {
		meta, _ := r.catalog.Get(name)
		for _, dep := range meta.OptionalDependencies {
			depMeta, known := r.catalog.Get(dep)
			if !known || st.working[dep] || st.removed[dep] {
				continue
			}
			if !depMeta.HasPlatform(r.platform) {
				continue
			}
			if r.conflictsWithWorking(st, dep) {
				continue
			}
			st.working[dep] = true
			st.added[dep] = true
			st.addedOrder[dep] = st.nextOrder
			st.nextOrder++
			changed = true
		}
	}
	return changed
}

// conflictsWithWorking reports whether adding the named plugin would violate
// a mutual exclusion against any current working-set member.
func (r *DefaultPluginResolver) conflictsWithWorking(st *resolution, name string) bool {
	meta, _ := r.catalog.Get(name)
	for _, other := range meta.MutuallyExclusive {
		if st.working[other] {
			return true
		}
	}
	for other := range st.working {
		otherMeta, _ := r.catalog.Get(other)
		for _, ex := range otherMeta.MutuallyExclusive {
			if ex == name {
				return true
			}
		}
	}
	return false
}

// resolveMutualExclusions prunes conflicting pairs in the working set.
//
// Policy: an added plugin loses to an originally requested one. If both were
// originally requested, the conflict is an irreconcilable error regardless
// of strict mode. If both were added, the one that entered the working set
// later loses (deterministic because expansion visits plugins in sorted
// order).
func (r *DefaultPluginResolver) resolveMutualExclusions(st *resolution) bool {
	changed := false
	names := sortedKeys(st.working)
	for _, p := range names {
		if !st.working[p] {
			continue
		}
		meta, _ := r.catalog.Get(p)
		for _, q := range meta.MutuallyExclusive {
			if !st.working[q] || p == q {
				continue
			}
			loser := r.pickExclusionLoser(st, p, q)
			delete(st.working, loser)
			st.removed[loser] = true
			changed = true
		}
	}
	return changed
}

// pickExclusionLoser applies the exclusion policy to one conflicting pair
// and records the diagnostic. Returns the plugin to remove.
func (r *DefaultPluginResolver) pickExclusionLoser(st *resolution, p, q string) string {
	pRequested := st.requested[p]
	qRequested := st.requested[q]

	switch {
	case pRequested && qRequested:
		// Irreconcilable explicit conflict. Remove the later name so the
		// loop stabilizes; the error already invalidates the result.
		key := conflictKey(p, q)
		if !st.reportedConflicts[key] {
			st.reportedConflicts[key] = true
			st.errors = append(st.errors,
				fmt.Sprintf("plugins %q and %q are mutually exclusive and both were requested; remove one", p, q))
		}
		if p < q {
			return q
		}
		return p

	case pRequested:
		st.warnings = append(st.warnings,
			fmt.Sprintf("dropping %q: mutually exclusive with requested plugin %q", q, p))
		return q

	case qRequested:
		st.warnings = append(st.warnings,
			fmt.Sprintf("dropping %q: mutually exclusive with requested plugin %q", p, q))
		return p

	default:
		// Both were added by expansion: keep the earlier arrival.
		loser, kept := q, p
		if st.addedOrder[p] > st.addedOrder[q] {
			loser, kept = p, q
		}
		st.warnings = append(st.warnings,
			fmt.Sprintf("dropping %q: mutually exclusive with %q", loser, kept))
		return loser
	}
}

// ValidateConfiguration implements the read-only diagnostic check.
func (r *DefaultPluginResolver) ValidateConfiguration(ctx context.Context, plugins []string) *ValidationReport {
	report := &ValidationReport{
		SystemDependencies: make(map[string]bool),
	}

	needed := make(map[string]bool)
	for _, name := range uniqueSorted(plugins) {
		meta, ok := r.catalog.Get(name)
		if !ok {
			report.InvalidPlugins = append(report.InvalidPlugins, name)
			continue
		}
		report.ValidPlugins = append(report.ValidPlugins, name)
		if meta.HasPlatform(r.platform) {
			report.PlatformCompatible = append(report.PlatformCompatible, name)
		} else {
			report.PlatformIncompatible = append(report.PlatformIncompatible, name)
		}
		if meta.GPURequired {
			report.GPURequired = true
		}
		for _, dep := range meta.SystemDependencies {
			needed[dep] = true
		}
	}

	capabilities := r.probe.ProbeAll(ctx)
	for dep := range needed {
		c, ok := capabilities[dep]
		report.SystemDependencies[dep] = ok && c.Available
	}

	return report
}

// =============================================================================
// Set Helpers
// =============================================================================

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedTrueKeys returns members of set that are still present in the
// filter set. Used so AddedPlugins only reports additions that survived.
func sortedTrueKeys(set, filter map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		if filter[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func uniqueSorted(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// conflictKey builds an order-independent key for a conflicting pair.
func conflictKey(p, q string) string {
	if p < q {
		return p + "|" + q
	}
	return q + "|" + p
}

// Compile-time interface compliance check.
var _ PluginResolver = (*DefaultPluginResolver)(nil)
