// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import "strings"

// FileChangeKind classifies a predicted file change.
type FileChangeKind int

// File change kinds.
const (
	FileNew FileChangeKind = iota
	FileChanged
	FileRemoved
	FileConfig
)

// FileChange is one predicted path change for a package transaction.
type FileChange struct {
	Path             string         `json:"path"`
	Kind             FileChangeKind `json:"kind"`
	PacnewCandidate  bool           `json:"pacnew_candidate,omitempty"`
	PacsaveCandidate bool           `json:"pacsave_candidate,omitempty"`
}

// PackageFileInfo aggregates the predicted file changes for a single
// package. Absent packages produce a zero-filled value.
type PackageFileInfo struct {
	Package      string       `json:"package"`
	NewCount     int          `json:"new_count"`
	ChangedCount int          `json:"changed_count"`
	RemovedCount int          `json:"removed_count"`
	ConfigCount  int          `json:"config_count"`
	PacnewCount  int          `json:"pacnew_count"`
	PacsaveCount int          `json:"pacsave_count"`
	Files        []FileChange `json:"files"`
}

// IsConfigPath reports whether a path is treated as configuration for
// pacnew/pacsave prediction: anything under /etc, or a path pacman
// marks as backup.
func IsConfigPath(path string, backup bool) bool {
	return backup || strings.HasPrefix(path, "/etc/") || path == "/etc"
}

// Tally recomputes the counters from Files. Call after building or
// filtering the change list.
func (i *PackageFileInfo) Tally() {
	i.NewCount, i.ChangedCount, i.RemovedCount, i.ConfigCount = 0, 0, 0, 0
	i.PacnewCount, i.PacsaveCount = 0, 0

	for _, change := range i.Files {
		switch change.Kind {
		case FileNew:
			i.NewCount++
		case FileChanged:
			i.ChangedCount++
		case FileRemoved:
			i.RemovedCount++
		case FileConfig:
			i.ConfigCount++
		}

		if change.PacnewCandidate {
			i.PacnewCount++
		}

		if change.PacsaveCandidate {
			i.PacsaveCount++
		}
	}
}
