// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"strings"
	"testing"
)

// captureOutput redirects package output to a buffer for the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	saved := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = saved })
	return &buf
}

// TestMachineModeTags verifies every severity helper emits its bracketed
// tag on the output stream so scripts can parse one channel.
func TestMachineModeTags(t *testing.T) {
	restorePersonality(t)
	SetPersonalityLevel(PersonalityMachine)
	buf := captureOutput(t)

	Success("library installed")
	Warning("optional dependency skipped")
	Error("cmake not found")
	Excluded("radiation", "gpu disabled")
	Excluded("lidar", "")
	Cleaned("build/CMakeCache.txt")

	want := []string{
		"[OK] library installed\n",
		"[WARN] optional dependency skipped\n",
		"[ERROR] cmake not found\n",
		"[EXCLUDED] radiation\tgpu disabled\n",
		"[EXCLUDED] lidar\n",
		"[CLEAN] build/CMakeCache.txt\n",
	}
	got := buf.String()
	for _, line := range want {
		if !strings.Contains(got, line) {
			t.Errorf("expected %q in output, got:\n%s", line, got)
		}
	}
}

// TestWarningBox_MachineMode verifies the boxed warning degrades to one
// tagged line.
func TestWarningBox_MachineMode(t *testing.T) {
	restorePersonality(t)
	SetPersonalityLevel(PersonalityMachine)
	buf := captureOutput(t)

	WarningBox("architecture", "falling back to x64")

	if got := buf.String(); got != "[WARN] architecture: falling back to x64\n" {
		t.Errorf("unexpected machine warning box: %q", got)
	}
}

// TestProgressBar_MachineMode verifies machine mode emits a plain fraction
// with no drawing characters.
func TestProgressBar_MachineMode(t *testing.T) {
	restorePersonality(t)
	SetPersonalityLevel(PersonalityMachine)

	got := ProgressBar(3, 10, 20)
	if got != "3/10" {
		t.Errorf("expected plain fraction, got: %q", got)
	}
}

// TestProgressBar_Styled verifies the bar contains the percentage and the
// fill proportional to progress.
func TestProgressBar_Styled(t *testing.T) {
	restorePersonality(t)
	SetPersonalityLevel(PersonalityFull)

	got := ProgressBar(5, 10, 10)
	if !strings.Contains(got, "50%") {
		t.Errorf("expected 50%% in bar, got: %q", got)
	}
	if strings.Count(got, "█") != 5 || strings.Count(got, "░") != 5 {
		t.Errorf("expected 5 filled and 5 empty cells, got: %q", got)
	}

	if got := ProgressBar(10, 10, 10); !strings.Contains(got, "100%") {
		t.Errorf("expected 100%% when complete, got: %q", got)
	}
}

// TestRepeatChar covers the zero and negative guards.
func TestRepeatChar(t *testing.T) {
	if got := repeatChar('x', 3); got != "xxx" {
		t.Errorf("expected xxx, got: %q", got)
	}
	if got := repeatChar('x', 0); got != "" {
		t.Errorf("expected empty string for zero count, got: %q", got)
	}
	if got := repeatChar('x', -2); got != "" {
		t.Errorf("expected empty string for negative count, got: %q", got)
	}
}

// TestIconRender verifies every icon renders its glyph regardless of styling.
func TestIconRender(t *testing.T) {
	icons := []Icon{
		IconSuccess, IconWarning, IconError, IconPending,
		IconArrow, IconBullet, IconSun, IconLeaf, IconExcluded,
	}
	for _, icon := range icons {
		if got := icon.Render(); !strings.Contains(got, string(icon)) {
			t.Errorf("Render() for %q lost the glyph: %q", icon, got)
		}
	}
}
