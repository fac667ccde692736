// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Theme holds the RGB colors read from theme.conf, as lipgloss hex
// strings. Missing keys keep the defaults.
type Theme struct {
	Background string
	Foreground string
	Primary    string
	Accent     string
	Muted      string
	Error      string
	Warning    string
	Success    string
}

// DefaultTheme returns the built-in palette.
func DefaultTheme() Theme {
	return Theme{
		Background: "#1e1e2e",
		Foreground: "#cdd6f4",
		Primary:    "#89b4fa",
		Accent:     "#f5c2e7",
		Muted:      "#6c7086",
		Error:      "#f38ba8",
		Warning:    "#f9e2af",
		Success:    "#a6e3a1",
	}
}

// LoadTheme reads theme.conf; values are `r,g,b` triples or `#rrggbb`
// hex. Unparseable lines keep the default for that key.
func LoadTheme(path string) Theme {
	theme := DefaultTheme()

	data, err := os.ReadFile(path)
	if err != nil {
		return theme
	}

	for key, value := range confLines(string(data)) {
		color, ok := parseColor(value)
		if !ok {
			continue
		}

		switch key {
		case "background", "bg":
			theme.Background = color
		case "foreground", "fg", "text":
			theme.Foreground = color
		case "primary", "highlight":
			theme.Primary = color
		case "accent":
			theme.Accent = color
		case "muted", "dim":
			theme.Muted = color
		case "error", "red":
			theme.Error = color
		case "warning", "yellow":
			theme.Warning = color
		case "success", "green":
			theme.Success = color
		}
	}

	return theme
}

func parseColor(value string) (string, bool) {
	value = strings.TrimSpace(value)

	if strings.HasPrefix(value, "#") && len(value) == 7 {
		return value, true
	}

	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return "", false
	}

	rgb := make([]int, 3)

	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 255 {
			return "", false
		}

		rgb[i] = n
	}

	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]), true
}
