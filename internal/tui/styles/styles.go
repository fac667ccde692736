// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

// Package styles defines the lipgloss styling shared by every pane and
// modal, built from the user's theme.conf palette.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/pacsea/pacsea/internal/config"
)

// Styles contains the cached lipgloss styles for the whole TUI.
type Styles struct {
	// Palette
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	Success lipgloss.Color

	// Chrome
	Header      lipgloss.Style
	Footer      lipgloss.Style
	Title       lipgloss.Style
	PaneBorder  lipgloss.Style
	FocusBorder lipgloss.Style

	// List rows
	Selected   lipgloss.Style
	Unselected lipgloss.Style
	Installed  lipgloss.Style
	Orphaned   lipgloss.Style
	OutOfDate  lipgloss.Style

	// Text
	MutedText   lipgloss.Style
	ErrorText   lipgloss.Style
	WarningText lipgloss.Style
	SuccessText lipgloss.Style

	// Overlays
	Modal lipgloss.Style
	Toast lipgloss.Style
}

// New builds the style set from a theme.
func New(theme config.Theme) *Styles {
	primary := lipgloss.Color(theme.Primary)
	accent := lipgloss.Color(theme.Accent)
	muted := lipgloss.Color(theme.Muted)
	errColor := lipgloss.Color(theme.Error)
	warning := lipgloss.Color(theme.Warning)
	success := lipgloss.Color(theme.Success)
	background := lipgloss.Color(theme.Background)
	foreground := lipgloss.Color(theme.Foreground)

	return &Styles{
		Primary: primary,
		Accent:  accent,
		Muted:   muted,
		Error:   errColor,
		Warning: warning,
		Success: success,

		Header: lipgloss.NewStyle().
			Background(primary).
			Foreground(background).
			Bold(true).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true),

		PaneBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),

		FocusBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(0, 1),

		Selected: lipgloss.NewStyle().
			Background(primary).
			Foreground(background).
			Padding(0, 1),

		Unselected: lipgloss.NewStyle().
			Foreground(foreground).
			Padding(0, 1),

		Installed: lipgloss.NewStyle().
			Foreground(success),

		Orphaned: lipgloss.NewStyle().
			Foreground(warning).
			Italic(true),

		OutOfDate: lipgloss.NewStyle().
			Foreground(errColor),

		MutedText:   lipgloss.NewStyle().Foreground(muted),
		ErrorText:   lipgloss.NewStyle().Foreground(errColor),
		WarningText: lipgloss.NewStyle().Foreground(warning),
		SuccessText: lipgloss.NewStyle().Foreground(success),

		Modal: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(accent).
			Padding(1, 2),

		Toast: lipgloss.NewStyle().
			Background(warning).
			Foreground(background).
			Bold(true).
			Padding(0, 1),
	}
}
