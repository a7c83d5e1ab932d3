// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package main: UserPrompter abstracts interactive terminal prompts.

The build command can run interactively (plugin picker, confirmation
before a clean) or unattended (CI). The prompter interface keeps that
choice out of the orchestration logic:

  - HuhPrompter: terminal forms for humans
  - NonInteractivePrompter: rejects every prompt, forcing flags to carry
    all decisions
  - AutoApprovePrompter: answers yes / keeps defaults, for --yes runs
  - MockPrompter: scripted answers for tests
*/
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// ErrNonInteractive is returned when a prompt is attempted in
// non-interactive mode.
var ErrNonInteractive = errors.New("interactive prompt in non-interactive mode")

// UserPrompter handles interactive decisions during a build.
type UserPrompter interface {
	// Confirm asks a yes/no question. Default answer is no.
	Confirm(ctx context.Context, prompt string) (bool, error)

	// SelectPlugins presents the catalog as a multi-select, with the given
	// names pre-checked, and returns the chosen plugin names.
	SelectPlugins(ctx context.Context, catalog *PluginCatalog, preselected []string) ([]string, error)

	// IsInteractive reports whether this prompter can actually ask.
	IsInteractive() bool
}

// =============================================================================
// HuhPrompter (terminal forms)
// =============================================================================

// HuhPrompter implements UserPrompter with terminal forms.
type HuhPrompter struct {
	accessible bool
}

// NewHuhPrompter creates a terminal prompter. accessible switches the
// forms to screen-reader friendly rendering.
func NewHuhPrompter(accessible bool) *HuhPrompter {
	return &HuhPrompter{accessible: accessible}
}

// Confirm asks a yes/no question.
func (p *HuhPrompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var answer bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(prompt).
			Affirmative("Yes").
			Negative("No").
			Value(&answer),
	)).WithAccessible(p.accessible)

	if err := form.RunWithContext(ctx); err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return answer, nil
}

// SelectPlugins shows the plugin picker.
func (p *HuhPrompter) SelectPlugins(ctx context.Context, catalog *PluginCatalog, preselected []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	checked := make(map[string]bool, len(preselected))
	for _, name := range preselected {
		checked[name] = true
	}

	var options []huh.Option[string]
	for _, name := range catalog.Names() {
		meta, _ := catalog.Get(name)
		label := name
		if meta.GPURequired {
			label = name + " (GPU)"
		}
		options = append(options, huh.NewOption(label, name).Selected(checked[name]))
	}

	selected := append([]string{}, preselected...)
	form := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[string]().
			Title("Select plugins to build").
			Description("Dependencies are added automatically after selection").
			Options(options...).
			Value(&selected),
	)).WithAccessible(p.accessible)

	if err := form.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("plugin selection failed: %w", err)
	}
	return selected, nil
}

// IsInteractive reports true.
func (p *HuhPrompter) IsInteractive() bool {
	return true
}

// =============================================================================
// NonInteractivePrompter (CI / piped stdin)
// =============================================================================

// NonInteractivePrompter rejects all prompts. Used when stdout is not a
// terminal or --non-interactive is set.
type NonInteractivePrompter struct{}

// NewNonInteractivePrompter creates a rejecting prompter.
func NewNonInteractivePrompter() *NonInteractivePrompter {
	return &NonInteractivePrompter{}
}

// Confirm rejects the prompt.
func (p *NonInteractivePrompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	return false, fmt.Errorf("%w: %q", ErrNonInteractive, prompt)
}

// SelectPlugins rejects the prompt.
func (p *NonInteractivePrompter) SelectPlugins(ctx context.Context, catalog *PluginCatalog, preselected []string) ([]string, error) {
	return nil, fmt.Errorf("%w: pass --plugins instead", ErrNonInteractive)
}

// IsInteractive reports false.
func (p *NonInteractivePrompter) IsInteractive() bool {
	return false
}

// =============================================================================
// AutoApprovePrompter (--yes)
// =============================================================================

// AutoApprovePrompter answers yes to confirmations and keeps the
// preselected plugin set. Used for --yes runs.
type AutoApprovePrompter struct{}

// NewAutoApprovePrompter creates an approving prompter.
func NewAutoApprovePrompter() *AutoApprovePrompter {
	return &AutoApprovePrompter{}
}

// Confirm approves without asking.
func (p *AutoApprovePrompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}

// SelectPlugins keeps the preselected set.
func (p *AutoApprovePrompter) SelectPlugins(ctx context.Context, catalog *PluginCatalog, preselected []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(preselected) == 0 {
		return DefaultPluginSet(catalog), nil
	}
	return append([]string{}, preselected...), nil
}

// IsInteractive reports false.
func (p *AutoApprovePrompter) IsInteractive() bool {
	return false
}

// =============================================================================
// MockPrompter (tests)
// =============================================================================

// PrompterCall records one prompt for test assertions.
type PrompterCall struct {
	Method string
	Prompt string
}

// MockPrompter is a scripted UserPrompter for testing.
type MockPrompter struct {
	// ConfirmFunc overrides Confirm when set; default answers false.
	ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

	// SelectPluginsFunc overrides SelectPlugins when set; default keeps
	// the preselected set.
	SelectPluginsFunc func(ctx context.Context, catalog *PluginCatalog, preselected []string) ([]string, error)

	// Interactive is the IsInteractive answer.
	Interactive bool

	// Calls records every prompt in order.
	Calls []PrompterCall
}

// Confirm implements UserPrompter.
func (m *MockPrompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	m.Calls = append(m.Calls, PrompterCall{Method: "Confirm", Prompt: prompt})
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, prompt)
	}
	return false, nil
}

// SelectPlugins implements UserPrompter.
func (m *MockPrompter) SelectPlugins(ctx context.Context, catalog *PluginCatalog, preselected []string) ([]string, error) {
	m.Calls = append(m.Calls, PrompterCall{Method: "SelectPlugins"})
	if m.SelectPluginsFunc != nil {
		return m.SelectPluginsFunc(ctx, catalog, preselected)
	}
	return append([]string{}, preselected...), nil
}

// IsInteractive implements UserPrompter.
func (m *MockPrompter) IsInteractive() bool {
	return m.Interactive
}

// Compile-time interface compliance checks.
var (
	_ UserPrompter = (*HuhPrompter)(nil)
	_ UserPrompter = (*NonInteractivePrompter)(nil)
	_ UserPrompter = (*AutoApprovePrompter)(nil)
	_ UserPrompter = (*MockPrompter)(nil)
)
