// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

// Package index reads the pacman local database: the installed set,
// versions, install reasons, conflicts and per-package file lists.
// The database root is injectable so tests can point at a fixture
// tree.
package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/logger"
)

// DefaultRoot is the system pacman database location.
const DefaultRoot = "/var/lib/pacman"

// LocalPackage is one entry of the local database.
type LocalPackage struct {
	Name        string
	Version     string
	Description string
	Explicit    bool
	Depends     []string
	Conflicts   []string
	Provides    []string
	Backup      []string
	Files       []string
}

// Index is a snapshot of the pacman local database. Reads are safe
// from any goroutine; Reload swaps the snapshot atomically.
type Index struct {
	root string

	mu   sync.RWMutex
	pkgs map[string]LocalPackage
}

// New creates an index over root (DefaultRoot for the live system) and
// loads the current snapshot. A missing database directory yields an
// empty index; pacman queries then report nothing installed.
func New(root string) *Index {
	idx := &Index{root: root, pkgs: map[string]LocalPackage{}}
	idx.Reload()

	return idx
}

// Reload re-reads the local database directory.
func (i *Index) Reload() {
	localDir := filepath.Join(i.root, "local")

	entries, err := os.ReadDir(localDir)
	if err != nil {
		logger.Warn("pacman local db unreadable", logger.Fields{"dir": localDir, "error": err})

		return
	}

	pkgs := make(map[string]LocalPackage, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pkg, err := readLocalEntry(filepath.Join(localDir, entry.Name()))
		if err != nil {
			logger.Debug("skipping local db entry", logger.Fields{"entry": entry.Name(), "error": err})

			continue
		}

		pkgs[pkg.Name] = pkg
	}

	i.mu.Lock()
	i.pkgs = pkgs
	i.mu.Unlock()

	logger.Debug("local index loaded", logger.Fields{"packages": len(pkgs)})
}

// IsInstalled reports whether name is in the local database.
func (i *Index) IsInstalled(name string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()

	_, ok := i.pkgs[name]

	return ok
}

// InstalledVersion returns the installed version of name.
func (i *Index) InstalledVersion(name string) (string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	pkg, ok := i.pkgs[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrNotInstalled, name)
	}

	return pkg.Version, nil
}

// ExplicitNames returns the set of explicitly installed packages.
func (i *Index) ExplicitNames() map[string]struct{} {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make(map[string]struct{})

	for name, pkg := range i.pkgs {
		if pkg.Explicit {
			out[name] = struct{}{}
		}
	}

	return out
}

// AllInstalled returns every installed package as a PackageItem. The
// local database does not record the originating repository, so the
// source is a bare official one.
func (i *Index) AllInstalled() []domain.PackageItem {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]domain.PackageItem, 0, len(i.pkgs))

	for _, pkg := range i.pkgs {
		out = append(out, domain.PackageItem{
			Name:        pkg.Name,
			Version:     pkg.Version,
			Description: pkg.Description,
			Source:      domain.Official("", ""),
		})
	}

	return out
}

// Get returns the full local entry for name.
func (i *Index) Get(name string) (LocalPackage, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	pkg, ok := i.pkgs[name]

	return pkg, ok
}

// ConflictsWith returns the names of installed packages that conflict
// with candidate: either the installed package lists candidate in its
// conflicts, or candidateConflicts names an installed package.
func (i *Index) ConflictsWith(candidate string, candidateConflicts []string) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var out []string

	for _, spec := range candidateConflicts {
		name, _ := domain.SplitDepSpec(spec)
		if _, ok := i.pkgs[name]; ok {
			out = append(out, name)
		}
	}

	for name, pkg := range i.pkgs {
		for _, spec := range pkg.Conflicts {
			conflictName, _ := domain.SplitDepSpec(spec)
			if conflictName == candidate {
				out = append(out, name)

				break
			}
		}
	}

	return out
}

// readLocalEntry parses the desc and files records of one local db
// directory.
func readLocalEntry(dir string) (LocalPackage, error) {
	var pkg LocalPackage

	desc, err := os.ReadFile(filepath.Join(dir, "desc"))
	if err != nil {
		return pkg, fmt.Errorf("read desc: %w", err)
	}

	fields := parseFields(string(desc))
	pkg.Name = first(fields["NAME"])
	pkg.Version = first(fields["VERSION"])
	pkg.Description = first(fields["DESC"])
	pkg.Depends = fields["DEPENDS"]
	pkg.Conflicts = fields["CONFLICTS"]
	pkg.Provides = fields["PROVIDES"]
	// REASON is present with value 1 for dependencies; absent for
	// explicit installs.
	pkg.Explicit = first(fields["REASON"]) != "1"

	if pkg.Name == "" {
		return pkg, domain.ErrEmptyName
	}

	if filesData, err := os.ReadFile(filepath.Join(dir, "files")); err == nil {
		fileFields := parseFields(string(filesData))
		pkg.Files = fileFields["FILES"]

		// %BACKUP% lines are `path<TAB>md5`; only the path matters.
		for _, line := range fileFields["BACKUP"] {
			path, _, _ := strings.Cut(line, "\t")
			pkg.Backup = append(pkg.Backup, path)
		}
	}

	return pkg, nil
}

// parseFields splits a pacman db record into its %FIELD% sections.
func parseFields(content string) map[string][]string {
	fields := make(map[string][]string)

	var current string

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, "%") && strings.HasSuffix(line, "%") && len(line) > 2 {
			current = strings.Trim(line, "%")

			continue
		}

		if line == "" || current == "" {
			continue
		}

		fields[current] = append(fields[current], line)
	}

	return fields
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}

	return values[0]
}
