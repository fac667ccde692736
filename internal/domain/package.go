// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

// Package domain holds Pacsea's core types and the pure logic that
// operates on them: result merging and ranking, dependency merge
// precedence, transaction signatures, and error classification.
package domain

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyName indicates a package with an empty name.
	ErrEmptyName = errors.New("package name is empty")
	// ErrNotInstalled indicates the package is not in the local database.
	ErrNotInstalled = errors.New("package not installed")
)

// SourceKind discriminates official repositories from the AUR.
type SourceKind int

// Package source kinds.
const (
	SourceOfficial SourceKind = iota
	SourceAUR
)

// Source identifies where a package comes from. Repo and Arch are only
// meaningful for official packages.
type Source struct {
	Kind SourceKind `json:"kind"`
	Repo string     `json:"repo,omitempty"`
	Arch string     `json:"arch,omitempty"`
}

// Official builds an official-repository source.
func Official(repo, arch string) Source {
	return Source{Kind: SourceOfficial, Repo: repo, Arch: arch}
}

// AUR builds an AUR source.
func AUR() Source {
	return Source{Kind: SourceAUR}
}

// String renders the source the way the UI labels it.
func (s Source) String() string {
	if s.Kind == SourceAUR {
		return "aur"
	}

	if s.Repo == "" {
		return "official"
	}

	return s.Repo
}

// PackageItem is the identity tuple shown in search and install lists.
type PackageItem struct {
	Name        string  `json:"name"`
	Version     string  `json:"version"`
	Description string  `json:"description"`
	Source      Source  `json:"source"`
	Popularity  float64 `json:"popularity,omitempty"` // AUR only, 0 when absent
	OutOfDate   int64   `json:"out_of_date,omitempty"`
	Orphaned    bool    `json:"orphaned,omitempty"`
}

// IsValid reports whether the item satisfies the list invariant: a
// non-empty name usable as a set key.
func (p *PackageItem) IsValid() bool {
	return strings.TrimSpace(p.Name) != ""
}

// Key returns the lowercase name used for O(1) duplicate detection in
// the install, remove and downgrade lists.
func (p *PackageItem) Key() string {
	return strings.ToLower(p.Name)
}

// PackageDetails is the extended metadata fetched on demand for the
// details pane. Absent fields stay zero and render as "N/A".
type PackageDetails struct {
	Name         string   `json:"name"`
	Repository   string   `json:"repository"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	Architecture string   `json:"architecture"`
	URL          string   `json:"url"`
	Licenses     []string `json:"licenses"`
	Groups       []string `json:"groups"`
	Provides     []string `json:"provides"`
	Depends      []string `json:"depends"`
	OptDepends   []string `json:"opt_depends"`
	RequiredBy   []string `json:"required_by"`
	Conflicts    []string `json:"conflicts"`
	Replaces     []string `json:"replaces"`
	DownloadSize int64    `json:"download_size"`
	InstallSize  int64    `json:"install_size"`
	Maintainer   string   `json:"maintainer"`
	BuildDate    string   `json:"build_date"`
}
