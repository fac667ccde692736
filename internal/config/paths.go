// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

// Package config locates Pacsea's configuration directory, parses the
// line-based conf files (settings, keybinds, theme), models keybinding
// chords, and persists the user lists.
package config

import (
	"os"
	"path/filepath"
)

// Dir returns the Pacsea configuration directory:
// $XDG_CONFIG_HOME/pacsea, falling back to $HOME/.config/pacsea.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pacsea")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return filepath.Join(home, ".config", "pacsea")
}

// CacheDir returns the on-disk cache directory under the config dir.
func CacheDir() string {
	return filepath.Join(Dir(), "cache")
}

// SettingsPath returns the path of settings.conf.
func SettingsPath() string {
	return filepath.Join(Dir(), "settings.conf")
}

// KeybindsPath returns the path of keybinds.conf.
func KeybindsPath() string {
	return filepath.Join(Dir(), "keybinds.conf")
}

// ThemePath returns the path of theme.conf.
func ThemePath() string {
	return filepath.Join(Dir(), "theme.conf")
}

// ListPath returns the path of a persisted user list such as
// install_list, recent or installed_packages.txt.
func ListPath(name string) string {
	return filepath.Join(Dir(), name)
}

// EnsureDirs creates the config and cache directories on demand.
// Missing directories are a recoverable filesystem condition.
func EnsureDirs() error {
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return err
	}

	return os.MkdirAll(CacheDir(), 0o755)
}

// Headless reports whether the test-headless switch is set; it disables
// mouse capture and turns external process spawns into no-ops.
func Headless() bool {
	return os.Getenv("PACSEA_TEST_HEADLESS") == "1"
}
