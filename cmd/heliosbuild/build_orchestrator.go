// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package main provides BuildOrchestrator for driving a complete Helios build.

BuildOrchestrator is the primary coordinator. It sits at the top of the
dependency hierarchy and runs the build as a fail-fast linear pipeline:

	┌────────────────────────────────────────────────────────────────┐
	│                       BuildOrchestrator                        │
	├────────────────────────────────────────────────────────────────┤
	│  Build() sequence:                                             │
	│    1. PluginResolver.Resolve()        // final plugin set      │
	│    2. validateSourceTree()            // helios root + plugins │
	│    3. checkPrerequisites()            // cmake, nvcc           │
	│    4. prepareBuildDir()               // mkdir, optional clean │
	│    5. CMakeExecutor.Configure()       // cmake generate        │
	│    6. CMakeExecutor.Build()           // compile               │
	│    7. ArtifactLocator.Locate()        // find the library      │
	│    8. LibraryValidator.Validate()     // load-sanity check     │
	│    9. PTXStager.Stage()               // GPU kernel assets     │
	│   10. writeManifest()                 // plugin_config.yaml    │
	└────────────────────────────────────────────────────────────────┘

# Design Principles

  - Dependency Injection: all operations go through injected interfaces
  - Fail Fast: the first phase error aborts the run with a remediation hint
  - Testability: full mock support for every dependency
  - Error Context: every failure names the phase that produced it

# Thread Safety

BuildOrchestrator is safe for concurrent use, but only one Build operation
runs at a time. Concurrent calls are serialized via mutex.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pyhelios/heliosbuild/cmd/heliosbuild/config"
)

// =============================================================================
// Error Definitions
// =============================================================================

var (
	// ErrNilDependency is returned when a required dependency is nil.
	ErrNilDependency = errors.New("required dependency is nil")

	// ErrResolutionFailed is returned when plugin resolution reports errors.
	ErrResolutionFailed = errors.New("plugin resolution failed")

	// ErrInvalidHeliosRoot is returned when the Helios source tree is missing
	// or does not look like a Helios checkout.
	ErrInvalidHeliosRoot = errors.New("invalid helios root")

	// ErrPrerequisitesMissing is returned when a required toolchain component
	// cannot be found.
	ErrPrerequisitesMissing = errors.New("build prerequisites missing")

	// ErrBuildTimeout is returned when the configure or compile step exceeds
	// the configured timeout.
	ErrBuildTimeout = errors.New("build timed out")

	// ErrPanicRecovered is returned when a panic was recovered during an
	// operation.
	ErrPanicRecovered = errors.New("panic recovered during operation")
)

// sensitivePatterns match credential-shaped content in toolchain output.
// Matched spans are redacted before the text lands in a diagnostics bundle.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|secret|password|token|credential)[=:\s]+[^\s]+`),
	regexp.MustCompile(`(?i)(bearer\s+[a-zA-Z0-9._-]+)`),
	regexp.MustCompile(`(?i)([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+)`),
}

// sanitizeForDiagnostics redacts credential-shaped content from text that is
// about to be persisted.
func sanitizeForDiagnostics(text string) string {
	result := text
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, "[REDACTED]")
	}
	return result
}

// =============================================================================
// Options and Results
// =============================================================================

// BuildOptions configures a single Build run.
type BuildOptions struct {
	// Plugins is the requested plugin set. Empty means the default set.
	Plugins []string

	// Exclude removes plugins from the requested set before resolution.
	Exclude []string

	// NoGPU removes all GPU-dependent plugins before resolution.
	NoGPU bool

	// NoVisualization removes the visualization plugin family before
	// resolution.
	NoVisualization bool

	// ExplicitPlugins marks the request as user-supplied. Explicit requests
	// fail hard on unknown or platform-incompatible names instead of
	// degrading to warnings.
	ExplicitPlugins bool

	// IncludeOptional pulls in satisfiable optional dependencies.
	IncludeOptional bool

	// StrictMode upgrades capability-based drops to errors.
	StrictMode bool

	// Clean forces a full reconfigure by removing generated state first.
	Clean bool

	// ExtraCMakeArgs are appended verbatim to the configure command line.
	ExtraCMakeArgs []string

	// Timeout bounds the configure and compile steps. Zero means no limit.
	Timeout time.Duration
}

// BuildReport is the outcome of a successful Build run.
type BuildReport struct {
	// Resolution is the plugin resolution diagnostic.
	Resolution *ResolutionResult

	// LibraryPath is where the packaged shared library landed.
	LibraryPath string

	// Converted is true when the library was relinked from a static
	// archive.
	Converted bool

	// StagedAssets lists copied GPU kernel files.
	StagedAssets []string

	// ManifestPath is where the build manifest was written.
	ManifestPath string

	// Warnings aggregates non-fatal notes from all phases.
	Warnings []string

	// Duration is the wall-clock time of the whole run.
	Duration time.Duration
}

// BuildManifest records what a build produced, written alongside the
// artifact so loaders can discover the enabled plugin set.
type BuildManifest struct {
	GeneratedAt  time.Time `yaml:"generated_at"`
	Platform     string    `yaml:"platform"`
	Architecture string    `yaml:"architecture"`
	BuildType    string    `yaml:"build_type"`
	Library      string    `yaml:"library"`
	Plugins      []string  `yaml:"plugins"`
}

// manifestFileName is the manifest's name inside the output directory.
const manifestFileName = "plugin_config.yaml"

// =============================================================================
// Interface Definition
// =============================================================================

// BuildOrchestrator drives a complete Helios build.
//
// # Description
//
// The primary interface for building the native library. It coordinates
// plugin resolution, source tree validation, toolchain checks, CMake
// configure and compile, artifact location, load validation, and asset
// staging.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Only one Build runs at
// a time; concurrent calls are serialized.
//
// # Error Handling
//
// Errors are *BuildError values naming the failed phase with a remediation
// hint. On failure a diagnostics bundle is written when a collector is
// configured.
type BuildOrchestrator interface {
	// Build runs the full pipeline and returns a report on success.
	//
	// # Inputs
	//
	//   - ctx: cancellation/timeout, checked at each phase boundary
	//   - opts: configuration for this run
	//
	// # Outputs
	//
	//   - *BuildReport: populated on success
	//   - error: non-nil if any phase fails; names the phase
	Build(ctx context.Context, opts BuildOptions) (*BuildReport, error)

	// ResolveOnly runs plugin resolution without building, for validation
	// and inspection commands.
	ResolveOnly(ctx context.Context, opts BuildOptions) (*ResolutionResult, error)
}

// =============================================================================
// Default Implementation
// =============================================================================

// DefaultBuildOrchestrator implements BuildOrchestrator by coordinating the
// injected resolver, toolchain, and filesystem dependencies.
type DefaultBuildOrchestrator struct {
	catalog     *PluginCatalog
	resolver    PluginResolver
	probe       SystemProbe
	proc        ProcessManager
	executor    CMakeExecutor
	locator     ArtifactLocator
	validator   LibraryValidator
	cleaner     BuildCleaner
	stager      PTXStager
	diagnostics DiagnosticsCollector
	buildCfg    *BuildConfiguration
	toolCfg     *config.BuildToolConfig

	mu     sync.Mutex
	output io.Writer
}

// NewDefaultBuildOrchestrator creates an orchestrator.
//
// diagnostics may be nil; failure bundles are then skipped.
func NewDefaultBuildOrchestrator(
	catalog *PluginCatalog,
	resolver PluginResolver,
	probe SystemProbe,
	proc ProcessManager,
	executor CMakeExecutor,
	locator ArtifactLocator,
	validator LibraryValidator,
	cleaner BuildCleaner,
	stager PTXStager,
	diagnostics DiagnosticsCollector,
	buildCfg *BuildConfiguration,
	toolCfg *config.BuildToolConfig,
) (*DefaultBuildOrchestrator, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: PluginCatalog", ErrNilDependency)
	}
	if resolver == nil {
		return nil, fmt.Errorf("%w: PluginResolver", ErrNilDependency)
	}
	if probe == nil {
		return nil, fmt.Errorf("%w: SystemProbe", ErrNilDependency)
	}
	if proc == nil {
		return nil, fmt.Errorf("%w: ProcessManager", ErrNilDependency)
	}
	if executor == nil {
		return nil, fmt.Errorf("%w: CMakeExecutor", ErrNilDependency)
	}
	if locator == nil {
		return nil, fmt.Errorf("%w: ArtifactLocator", ErrNilDependency)
	}
	if validator == nil {
		return nil, fmt.Errorf("%w: LibraryValidator", ErrNilDependency)
	}
	if cleaner == nil {
		return nil, fmt.Errorf("%w: BuildCleaner", ErrNilDependency)
	}
	if stager == nil {
		return nil, fmt.Errorf("%w: PTXStager", ErrNilDependency)
	}
	if buildCfg == nil {
		return nil, fmt.Errorf("%w: BuildConfiguration", ErrNilDependency)
	}
	if toolCfg == nil {
		return nil, fmt.Errorf("%w: BuildToolConfig", ErrNilDependency)
	}
	// Note: diagnostics may be nil (failure bundles skipped).

	return &DefaultBuildOrchestrator{
		catalog:     catalog,
		resolver:    resolver,
		probe:       probe,
		proc:        proc,
		executor:    executor,
		locator:     locator,
		validator:   validator,
		cleaner:     cleaner,
		stager:      stager,
		diagnostics: diagnostics,
		buildCfg:    buildCfg,
		toolCfg:     toolCfg,
		output:      os.Stdout,
	}, nil
}

// SetOutput configures the writer for progress messages. nil discards.
func (o *DefaultBuildOrchestrator) SetOutput(w io.Writer) {
	if w == nil {
		o.output = io.Discard
	} else {
		o.output = w
	}
}

// Build runs the full pipeline.
//
// See interface documentation for full details.
func (o *DefaultBuildOrchestrator) Build(ctx context.Context, opts BuildOptions) (report *BuildReport, err error) {
	// Serialize mutating operations to prevent concurrent builds.
	o.mu.Lock()
	defer o.mu.Unlock()

	// Recover from panics to prevent deadlocks and ensure error propagation.
	defer func() {
		recoverPanic(recover(), &err)
	}()

	startTime := time.Now()
	report = &BuildReport{}

	// Phase 1: Plugin resolution
	resolution, err := o.resolve(ctx, opts)
	if err != nil {
		return nil, o.fail(ctx, "resolve", resolution, err)
	}
	report.Resolution = resolution
	report.Warnings = append(report.Warnings, resolution.Warnings...)
	o.write("Resolved %d plugin(s)\n", len(resolution.FinalPlugins))

	// Phase 2: Source tree validation
	if err := o.validateSourceTree(ctx, resolution.FinalPlugins); err != nil {
		return nil, o.fail(ctx, "validate-source", resolution, err)
	}

	// Phase 3: Toolchain prerequisites
	if err := o.checkPrerequisites(ctx, resolution.FinalPlugins); err != nil {
		return nil, o.fail(ctx, "prerequisites", resolution, err)
	}

	// Phase 4: Build directory preparation
	if err := o.prepareBuildDir(opts); err != nil {
		return nil, o.fail(ctx, "prepare", resolution, err)
	}

	// Phases 5+6: Configure and compile, bounded by the build timeout.
	buildCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		buildCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmakeOpts := o.cmakeOptions(opts, resolution.FinalPlugins)

	o.write("Configuring (%s, %s)...\n", o.buildCfg.Platform, o.buildCfg.BuildType)
	if err := o.executor.Configure(buildCtx, cmakeOpts); err != nil {
		return nil, o.fail(ctx, "configure", resolution, o.timeoutOr(buildCtx, err))
	}

	o.write("Compiling with %d parallel job(s)...\n", o.buildCfg.Parallelism)
	if err := o.executor.Build(buildCtx, cmakeOpts); err != nil {
		return nil, o.fail(ctx, "compile", resolution, o.timeoutOr(buildCtx, err))
	}

	// Phase 7: Artifact location
	artifact, err := o.locator.Locate(o.toolCfg.BuildDir)
	if err != nil {
		return nil, o.fail(ctx, "locate", resolution, NewBuildError("locate",
			"build completed but no library artifact was found",
			"the compiler may have produced nothing; rerun with --clean", err))
	}

	// Phase 8: Load validation (with static-to-shared fallback)
	libraryPath, converted, notes, err := o.validateArtifact(ctx, artifact)
	report.Warnings = append(report.Warnings, notes...)
	if err != nil {
		return nil, o.fail(ctx, "validate-library", resolution, err)
	}
	report.Converted = converted

	// Install the validated library into the output directory.
	installed, err := o.installArtifact(libraryPath)
	if err != nil {
		return nil, o.fail(ctx, "install", resolution, err)
	}
	report.LibraryPath = installed

	// Phase 9: GPU kernel asset staging
	if resolution.Contains("radiation") {
		staged, err := o.stager.Stage(o.toolCfg.BuildDir, o.toolCfg.OutputDir)
		if err != nil {
			return nil, o.fail(ctx, "stage-ptx", resolution, err)
		}
		report.StagedAssets = staged
		o.write("Staged %d PTX kernel(s)\n", len(staged))
	}

	// Phase 10: Manifest
	manifestPath, err := o.writeManifest(resolution.FinalPlugins, installed)
	if err != nil {
		return nil, o.fail(ctx, "manifest", resolution, err)
	}
	report.ManifestPath = manifestPath

	report.Duration = time.Since(startTime)
	o.printSummary(report)
	return report, nil
}

// ResolveOnly runs resolution without building.
func (o *DefaultBuildOrchestrator) ResolveOnly(ctx context.Context, opts BuildOptions) (*ResolutionResult, error) {
	return o.resolve(ctx, opts)
}

// =============================================================================
// Phase Helpers
// =============================================================================

// resolve assembles the requested plugin set and runs the resolver.
func (o *DefaultBuildOrchestrator) resolve(ctx context.Context, opts BuildOptions) (*ResolutionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	requested := opts.Plugins
	if len(requested) == 0 {
		requested = o.defaultPlugins()
	}

	requested, excluded := o.applyExclusions(requested, opts)
	var explicit []string
	if opts.ExplicitPlugins {
		explicit = requested
	}
	result := o.resolver.Resolve(ctx, ResolveOptions{
		Requested:           requested,
		IncludeOptional:     opts.IncludeOptional,
		StrictMode:          opts.StrictMode,
		ExplicitlyRequested: explicit,
	})
	for _, name := range excluded {
		result.Warnings = append(result.Warnings, fmt.Sprintf("plugin %q excluded by request", name))
		result.RemovedPlugins = append(result.RemovedPlugins, name)
	}
	sort.Strings(result.RemovedPlugins)
	if result.HasErrors() {
		return result, fmt.Errorf("%w: %d error(s)", ErrResolutionFailed, len(result.Errors))
	}
	return result, nil
}

// defaultPlugins prefers the configured default set over the built-in one.
func (o *DefaultBuildOrchestrator) defaultPlugins() []string {
	if len(o.toolCfg.DefaultPlugins) > 0 {
		return o.toolCfg.DefaultPlugins
	}
	return DefaultPluginSet(o.catalog)
}

// applyExclusions removes explicitly excluded plugins plus, when requested,
// the GPU and visualization families. Returns the filtered request and the
// names it removed.
func (o *DefaultBuildOrchestrator) applyExclusions(requested []string, opts BuildOptions) ([]string, []string) {
	drop := make(map[string]bool)
	for _, name := range opts.Exclude {
		drop[name] = true
	}
	if opts.NoGPU {
		for _, name := range o.catalog.GPUPlugins() {
			drop[name] = true
		}
	}
	if opts.NoVisualization {
		for _, name := range o.catalog.VisualizationPlugins() {
			drop[name] = true
		}
	}

	var kept, excluded []string
	for _, name := range requested {
		if drop[name] {
			excluded = append(excluded, name)
			continue
		}
		kept = append(kept, name)
	}
	return kept, uniqueSorted(excluded)
}

// validateSourceTree verifies the Helios checkout and the source directory
// of every selected plugin.
func (o *DefaultBuildOrchestrator) validateSourceTree(ctx context.Context, plugins []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	root := o.toolCfg.HeliosRoot
	coreCMake := filepath.Join(root, "core", "CMakeLists.txt")
	if _, err := os.Stat(coreCMake); err != nil {
		return NewBuildError("validate-source",
			fmt.Sprintf("%s does not look like a Helios checkout (missing core/CMakeLists.txt)", root),
			"set helios_root in the config file or pass --helios-root",
			fmt.Errorf("%w: %s", ErrInvalidHeliosRoot, root))
	}

	for _, name := range plugins {
		dir := filepath.Join(root, "plugins", name)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return NewBuildError("validate-source",
				fmt.Sprintf("plugin %q has no source directory at %s", name, dir),
				"the checkout may be incomplete or from an older release; update the Helios sources",
				fmt.Errorf("%w: missing plugin source %s", ErrInvalidHeliosRoot, name))
		}
	}
	return nil
}

// checkPrerequisites verifies the toolchain needed by the selected plugins.
func (o *DefaultBuildOrchestrator) checkPrerequisites(ctx context.Context, plugins []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := o.proc.LookPath("cmake"); err != nil {
		return NewBuildError("prerequisites", "cmake was not found on PATH",
			"install CMake 3.15 or newer (https://cmake.org/download/)",
			fmt.Errorf("%w: cmake", ErrPrerequisitesMissing))
	}

	if o.needsCUDA(plugins) {
		if cuda := o.probe.ProbeCUDA(ctx); !cuda.Available {
			return NewBuildError("prerequisites",
				"a GPU plugin is selected but no CUDA toolkit was found ("+cuda.Detail+")",
				"install the CUDA toolkit or rerun with --nogpu",
				fmt.Errorf("%w: cuda toolkit", ErrPrerequisitesMissing))
		}
	}
	return nil
}

// needsCUDA reports whether any selected plugin requires a GPU toolchain.
func (o *DefaultBuildOrchestrator) needsCUDA(plugins []string) bool {
	for _, name := range plugins {
		if meta, ok := o.catalog.Get(name); ok && meta.GPURequired {
			return true
		}
	}
	return false
}

// prepareBuildDir creates the build and output directories, cleaning
// generated state first when requested.
func (o *DefaultBuildOrchestrator) prepareBuildDir(opts BuildOptions) error {
	if opts.Clean {
		removed, err := o.cleaner.CleanBuildDir(o.toolCfg.BuildDir)
		if err != nil {
			return NewBuildError("prepare", "failed to clean build directory", "", err)
		}
		outRemoved, err := o.cleaner.CleanOutputDir(o.toolCfg.OutputDir)
		if err != nil {
			return NewBuildError("prepare", "failed to clean output directory", "", err)
		}
		o.write("Cleaned %d path(s)\n", len(removed)+len(outRemoved))
	}

	for _, dir := range []string{o.toolCfg.BuildDir, o.toolCfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return NewBuildError("prepare",
				fmt.Sprintf("could not create %s", dir),
				"check filesystem permissions", err)
		}
	}
	return nil
}

// cmakeOptions assembles the configure/compile inputs for a run.
func (o *DefaultBuildOrchestrator) cmakeOptions(opts BuildOptions, plugins []string) CMakeOptions {
	env := EmptyEnvVars()
	if o.toolCfg.CudaPath != "" {
		// Key and value are config-controlled, validation cannot fail here.
		_ = env.Add("CUDA_PATH", o.toolCfg.CudaPath, false)
	}
	// BaseCMakeArgs belong to the executor; folding them in here would put
	// them on the configure line twice.
	return CMakeOptions{
		SourceDir:   o.toolCfg.HeliosRoot,
		BuildDir:    o.toolCfg.BuildDir,
		Definitions: PluginDefinitions(plugins),
		ExtraArgs:   append([]string{}, opts.ExtraCMakeArgs...),
		Env:         env,
	}
}

// timeoutOr maps a context deadline expiry onto ErrBuildTimeout.
func (o *DefaultBuildOrchestrator) timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewBuildError("compile", "the build exceeded its time limit",
			"raise --build-timeout or reduce the plugin set", ErrBuildTimeout)
	}
	return err
}

// validateArtifact runs the load check, converting a static archive to a
// shared object first when that is all the build produced.
func (o *DefaultBuildOrchestrator) validateArtifact(ctx context.Context, artifact *LocatedArtifact) (string, bool, []string, error) {
	path := artifact.Path
	converted := false

	if artifact.Kind == ArtifactStatic {
		o.write("Only a static archive was produced; relinking as a shared object...\n")
		shared, err := o.validator.ConvertStaticToShared(ctx, path, o.toolCfg.BuildDir)
		if err != nil {
			return "", false, nil, err
		}
		path = shared
		converted = true
	}

	notes, err := o.validator.Validate(ctx, path)
	if err != nil {
		return "", converted, notes, err
	}
	return path, converted, notes, nil
}

// installArtifact copies the validated library into the output directory.
func (o *DefaultBuildOrchestrator) installArtifact(libraryPath string) (string, error) {
	dest := filepath.Join(o.toolCfg.OutputDir, o.buildCfg.LibraryName)
	if err := copyFile(libraryPath, dest); err != nil {
		return "", NewBuildError("install", "failed to copy library to output directory",
			"check output directory permissions", err)
	}
	return dest, nil
}

// writeManifest records the build outcome next to the artifact.
func (o *DefaultBuildOrchestrator) writeManifest(plugins []string, libraryPath string) (string, error) {
	manifest := BuildManifest{
		GeneratedAt:  time.Now().UTC(),
		Platform:     o.buildCfg.Platform,
		Architecture: o.buildCfg.Architecture,
		BuildType:    o.buildCfg.BuildType,
		Library:      filepath.Base(libraryPath),
		Plugins:      plugins,
	}
	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return "", NewBuildError("manifest", "failed to encode build manifest", "", err)
	}
	path := filepath.Join(o.toolCfg.OutputDir, manifestFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", NewBuildError("manifest", "failed to write build manifest",
			"check output directory permissions", err)
	}
	return path, nil
}

// fail writes a diagnostics bundle (when a collector is configured) and
// returns the phase error unchanged.
func (o *DefaultBuildOrchestrator) fail(ctx context.Context, phase string, resolution *ResolutionResult, err error) error {
	if o.diagnostics != nil {
		if path, collectErr := o.diagnostics.Collect(ctx, phase, err, resolution); collectErr == nil && path != "" {
			o.write("Diagnostics written to %s\n", path)
		}
	}
	return err
}

// printSummary reports the finished build.
func (o *DefaultBuildOrchestrator) printSummary(report *BuildReport) {
	o.write("\nBuild finished in %s\n", report.Duration.Round(time.Millisecond))
	o.write("  Library:  %s\n", report.LibraryPath)
	o.write("  Plugins:  %d enabled\n", len(report.Resolution.FinalPlugins))
	if report.Converted {
		o.write("  Note:     library was relinked from a static archive\n")
	}
	if len(report.StagedAssets) > 0 {
		o.write("  Kernels:  %d PTX file(s) staged\n", len(report.StagedAssets))
	}
	o.write("  Manifest: %s\n", report.ManifestPath)
}

// write emits a progress message, nil-safe.
func (o *DefaultBuildOrchestrator) write(format string, args ...interface{}) {
	if o.output == nil {
		return
	}
	fmt.Fprintf(o.output, format, args...)
}

// recoverPanic converts a recovered panic into an error.
//
// Intended to be called from a deferred function with recover(). Ensures
// the mutex is released and the error is propagated instead of crashing.
func recoverPanic(r interface{}, errPtr *error) {
	if r == nil {
		return
	}

	var panicErr error
	switch v := r.(type) {
	case error:
		panicErr = fmt.Errorf("%w: %v", ErrPanicRecovered, v)
	case string:
		panicErr = fmt.Errorf("%w: %s", ErrPanicRecovered, v)
	default:
		panicErr = fmt.Errorf("%w: %v", ErrPanicRecovered, v)
	}

	if *errPtr == nil {
		*errPtr = panicErr
	}
}

// Compile-time interface compliance check.
var _ BuildOrchestrator = (*DefaultBuildOrchestrator)(nil)
