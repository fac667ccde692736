// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package preflight

import (
	"strings"

	"github.com/pacsea/pacsea/internal/domain"
)

// resolveFiles predicts the file changes for every transaction item.
// Installed packages yield Changed entries with pacnew candidacy for
// their config files; packages without a local file list yield a
// zero-filled record so the tab still shows one row per item.
func (e *Engine) resolveFiles(sig string, items []domain.PackageItem) {
	for _, item := range items {
		if e.Cancelled() {
			return
		}

		info := e.predictFiles(item)

		e.mu.Lock()
		e.entry(sig).files[item.Name] = info
		e.mu.Unlock()

		e.notify(sig, ArtifactFiles)
	}
}

func (e *Engine) predictFiles(item domain.PackageItem) domain.PackageFileInfo {
	info := domain.PackageFileInfo{Package: item.Name}

	local, ok := e.idx.Get(item.Name)
	if !ok {
		// No local file list; AUR builds and fresh official installs
		// are predicted as all-new once the sync metadata arrives, and
		// until then the record stays zero-filled.
		return info
	}

	backup := make(map[string]struct{}, len(local.Backup))
	for _, path := range local.Backup {
		backup[rootedPath(path)] = struct{}{}
	}

	upgrading := local.Version != item.Version

	for _, raw := range local.Files {
		path := rootedPath(raw)
		if strings.HasSuffix(path, "/") {
			continue // directories carry no change prediction
		}

		_, isBackup := backup[path]

		change := domain.FileChange{Path: path}

		switch {
		case domain.IsConfigPath(path, isBackup):
			change.Kind = domain.FileConfig
			// Config content that differs from the packaged version is
			// preserved as .pacnew on upgrade and .pacsave on removal.
			change.PacnewCandidate = upgrading
			change.PacsaveCandidate = true
		case upgrading:
			change.Kind = domain.FileChanged
		default:
			change.Kind = domain.FileChanged // reinstall rewrites in place
		}

		info.Files = append(info.Files, change)
	}

	info.Tally()

	return info
}

// rootedPath makes the pacman db's relative paths absolute.
func rootedPath(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}

	return "/" + path
}
