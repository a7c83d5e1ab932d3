// Copyright (C) 2026 The heliosbuild Authors (maintainers@pyhelios.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the heliosbuild CLI.
package ux

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// stdout is where all diagnostics go. Machine-mode consumers parse the
// bracketed severity tags from this stream, so nothing is routed to
// stderr. Swappable for tests.
var stdout io.Writer = os.Stdout

// Helios color palette - canopy greens and solar ambers
var (
	// Primary palette (brightest to darkest)
	ColorLeafBright  = lipgloss.Color("#7BD96C") // Bright leaf green - highlights, success
	ColorLeafPrimary = lipgloss.Color("#52B84A") // Primary green - main brand color
	ColorCanopy      = lipgloss.Color("#3B9A3F") // Canopy green - interactive elements
	ColorMoss        = lipgloss.Color("#2E7D32") // Moss - secondary elements
	ColorForest      = lipgloss.Color("#1F5E26") // Forest - borders, accents

	// Solar palette (warm accents)
	ColorSunBright = lipgloss.Color("#FFD54F") // Bright sun - emphasis
	ColorAmber     = lipgloss.Color("#FFB300") // Amber - warm accents

	// Dark palette (for backgrounds, muted elements)
	ColorSoil  = lipgloss.Color("#3E2F23") // Soil brown - deep backgrounds
	ColorBark  = lipgloss.Color("#5D4A3A") // Bark - muted text, borders
	ColorNight = lipgloss.Color("#10170F") // Night - near black

	// Semantic colors (keeping standard conventions for clarity)
	ColorSuccess = lipgloss.Color("#7BD96C") // Bright green for success
	ColorWarning = lipgloss.Color("#FFB300") // Amber for warnings
	ColorError   = lipgloss.Color("#E74C3C") // Red for errors
	ColorMuted   = lipgloss.Color("#5D4A3A") // Bark for muted text
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	// Text styles
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	// Box styles
	Box        lipgloss.Style
	InfoBox    lipgloss.Style
	WarningBox lipgloss.Style
	ErrorBox   lipgloss.Style

	// Status indicators
	StatusOK      lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	StatusPending lipgloss.Style
}{
	// Text styles
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorLeafBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorLeafPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorBark),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorSunBright).Bold(true),

	// Box styles
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorForest).
		Padding(0, 1),
	InfoBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorLeafPrimary).
		Padding(0, 1),
	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWarning).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(0, 1),

	// Status indicators
	StatusOK:      lipgloss.NewStyle().SetString("✓").Foreground(ColorSuccess),
	StatusWarning: lipgloss.NewStyle().SetString("⚠").Foreground(ColorWarning),
	StatusError:   lipgloss.NewStyle().SetString("✗").Foreground(ColorError),
	StatusPending: lipgloss.NewStyle().SetString("○").Foreground(ColorBark),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess  Icon = "✓"
	IconWarning  Icon = "⚠"
	IconError    Icon = "✗"
	IconPending  Icon = "○"
	IconArrow    Icon = "→"
	IconBullet   Icon = "•"
	IconSun      Icon = "☀"
	IconLeaf     Icon = "❧"
	IconExcluded Icon = "⊘"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError, IconExcluded:
		return Styles.Error.Render(string(i))
	case IconPending:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// Print helpers that respect personality level

// Title prints a styled title
func Title(text string) {
	if GetPersonality().Level == PersonalityMachine {
		return
	}
	fmt.Println(Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func Success(text string) {
	p := GetPersonality()
	switch p.Level {
	case PersonalityMachine:
		fmt.Fprintf(stdout, "[OK] %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(stdout, "%s %s\n", IconSuccess.Render(), text)
	default:
		fmt.Fprintf(stdout, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning message
func Warning(text string) {
	p := GetPersonality()
	switch p.Level {
	case PersonalityMachine:
		fmt.Fprintf(stdout, "[WARN] %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(stdout, "%s %s\n", IconWarning.Render(), text)
	default:
		fmt.Fprintf(stdout, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints an error message
func Error(text string) {
	p := GetPersonality()
	switch p.Level {
	case PersonalityMachine:
		fmt.Fprintf(stdout, "[ERROR] %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(stdout, "%s %s\n", IconError.Render(), text)
	default:
		fmt.Fprintf(stdout, "%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// Info prints an informational message
func Info(text string) {
	p := GetPersonality()
	switch p.Level {
	case PersonalityMachine:
		fmt.Println(text)
	default:
		fmt.Printf("%s %s\n", Styles.Muted.Render("│"), text)
	}
}

// Muted prints muted/secondary text
func Muted(text string) {
	if GetPersonality().Level == PersonalityMachine {
		return
	}
	fmt.Println(Styles.Muted.Render(text))
}

// Excluded prints a plugin exclusion notice. The reason may be empty.
func Excluded(name, reason string) {
	p := GetPersonality()
	switch p.Level {
	case PersonalityMachine:
		if reason == "" {
			fmt.Fprintf(stdout, "[EXCLUDED] %s\n", name)
		} else {
			fmt.Fprintf(stdout, "[EXCLUDED] %s\t%s\n", name, reason)
		}
	case PersonalityMinimal:
		fmt.Fprintf(stdout, "%s %s\n", IconExcluded.Render(), name)
	default:
		if reason == "" {
			fmt.Fprintf(stdout, "%s %s\n", IconExcluded.Render(), name)
		} else {
			fmt.Fprintf(stdout, "%s %s %s\n", IconExcluded.Render(), name, Styles.Muted.Render("("+reason+")"))
		}
	}
}

// Cleaned prints a removed-path notice for clean operations.
func Cleaned(text string) {
	p := GetPersonality()
	switch p.Level {
	case PersonalityMachine:
		fmt.Fprintf(stdout, "[CLEAN] %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(stdout, "%s %s\n", IconSuccess.Render(), text)
	default:
		fmt.Fprintf(stdout, "%s %s\n", IconSuccess.Render(), Styles.Muted.Render(text))
	}
}

// Box prints text in a rounded box
func Box(title, content string) {
	if GetPersonality().Level == PersonalityMachine {
		fmt.Printf("%s: %s\n", title, content)
		return
	}
	boxStyle := Styles.Box.Width(60)
	titleLine := Styles.Title.Render(title)
	fmt.Println(boxStyle.Render(titleLine + "\n" + content))
}

// WarningBox prints text in a warning-styled box
func WarningBox(title, content string) {
	if GetPersonality().Level == PersonalityMachine {
		fmt.Fprintf(stdout, "[WARN] %s: %s\n", title, content)
		return
	}
	boxStyle := Styles.WarningBox.Width(60)
	titleLine := Styles.Warning.Bold(true).Render(title)
	fmt.Println(boxStyle.Render(titleLine + "\n" + content))
}

// PluginStatus prints a plugin with its resolution status
func PluginStatus(name string, status Icon, reason string) {
	p := GetPersonality()
	switch p.Level {
	case PersonalityMachine:
		fmt.Printf("%s\t%s\t%s\n", status, name, reason)
	case PersonalityMinimal:
		fmt.Printf("%s %s\n", status.Render(), name)
	default:
		if reason != "" {
			fmt.Printf("%s %s %s\n", status.Render(), name, Styles.Muted.Render("("+reason+")"))
		} else {
			fmt.Printf("%s %s\n", status.Render(), name)
		}
	}
}

// Summary prints a summary line with counts
func Summary(enabled, added, excluded int) {
	p := GetPersonality()
	switch p.Level {
	case PersonalityMachine:
		fmt.Printf("SUMMARY: enabled=%d added=%d excluded=%d\n", enabled, added, excluded)
	default:
		fmt.Printf("\n%s %s  %s %s  %s %s\n",
			Styles.Success.Render(fmt.Sprintf("%d", enabled)), Styles.Muted.Render("enabled"),
			Styles.Bold.Render(fmt.Sprintf("%d", added)), Styles.Muted.Render("added"),
			Styles.Warning.Render(fmt.Sprintf("%d", excluded)), Styles.Muted.Render("excluded"),
		)
	}
}

// ProgressBar renders a simple progress bar
func ProgressBar(current, total int, width int) string {
	if GetPersonality().Level == PersonalityMachine {
		return fmt.Sprintf("%d/%d", current, total)
	}
	pct := float64(current) / float64(total)
	filled := int(pct * float64(width))
	empty := width - filled

	bar := Styles.Success.Render(repeatChar('█', filled)) +
		Styles.Muted.Render(repeatChar('░', empty))

	return fmt.Sprintf("%s %3.0f%%", bar, pct*100)
}

func repeatChar(c rune, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]rune, n)
	for i := range out {
		out[i] = c
	}
	return string(out)
}
