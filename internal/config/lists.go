// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxRecentEntries caps the persisted recent-query list.
const maxRecentEntries = 100

// LoadList reads a newline-delimited list file (install_list, recent,
// installed_packages.txt). A missing file is an empty list.
func LoadList(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	lines := strings.Split(string(data), "\n")

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

// SaveList persists a newline-delimited list file atomically.
func SaveList(path string, entries []string) error {
	content := strings.Join(entries, "\n")
	if content != "" {
		content += "\n"
	}

	return writeAtomic(path, []byte(content))
}

// PushRecent prepends a query to the recent list, deduplicating and
// capping at the persisted maximum.
func PushRecent(recent []string, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return recent
	}

	out := make([]string, 0, len(recent)+1)
	out = append(out, query)

	for _, entry := range recent {
		if !strings.EqualFold(entry, query) {
			out = append(out, entry)
		}
	}

	if len(out) > maxRecentEntries {
		out = out[:maxRecentEntries]
	}

	return out
}

// writeAtomic writes to a temp file in the target directory and
// renames it into place, so a crash never leaves a torn file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pacsea-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("write temp: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("close temp: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("rename: %w", err)
	}

	return nil
}
