// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"strings"

	version "github.com/hashicorp/go-version"
)

// DependencyDelta is one entry of a sandbox dependency bucket: the
// declared dependency matched against the local index.
type DependencyDelta struct {
	Name             string `json:"name"`
	Constraint       string `json:"constraint,omitempty"`
	InstalledVersion string `json:"installed_version,omitempty"`
	VersionSatisfied bool   `json:"version_satisfied"`
	IsInstalled      bool   `json:"is_installed"`
}

// SandboxInfo is the preflight sandbox view of an AUR package: the four
// dependency buckets declared by its .SRCINFO.
type SandboxInfo struct {
	Package      string            `json:"package"`
	Depends      []DependencyDelta `json:"depends"`
	MakeDepends  []DependencyDelta `json:"makedepends"`
	CheckDepends []DependencyDelta `json:"checkdepends"`
	OptDepends   []DependencyDelta `json:"optdepends"`
}

// SplitDepSpec splits a dependency spec such as "glibc>=2.38" into the
// bare name and the constraint operator+version ("" when unversioned).
// Optdepends descriptions (`name: description`) are stripped first; a
// colon inside a version is an epoch, as in "foo=1:2.3", and stays.
func SplitDepSpec(spec string) (name, constraint string) {
	spec = strings.TrimSpace(spec)
	if idx := strings.Index(spec, ": "); idx >= 0 {
		spec = strings.TrimSpace(spec[:idx])
	}

	spec = strings.TrimSuffix(spec, ":")

	for _, op := range []string{">=", "<=", "=", ">", "<"} {
		if idx := strings.Index(spec, op); idx >= 0 {
			return strings.TrimSpace(spec[:idx]), op + strings.TrimSpace(spec[idx+len(op):])
		}
	}

	return spec, ""
}

// VersionSatisfies reports whether an installed version satisfies a
// pacman-style constraint such as ">=2.38". Pacman versions that
// go-version cannot parse (epoch prefixes, pkgrel suffixes) degrade to
// a lenient true so an installed package is never flagged as broken on
// parse failure alone.
func VersionSatisfies(installed, constraint string) bool {
	if constraint == "" || installed == "" {
		return installed != ""
	}

	inst, err := version.NewVersion(normalizePacmanVersion(installed))
	if err != nil {
		return true
	}

	cons, err := version.NewConstraint(constraintToGo(constraint))
	if err != nil {
		return true
	}

	return cons.Check(inst)
}

// NewDependencyDelta matches a declared spec against the local index
// lookup result.
func NewDependencyDelta(spec, installedVersion string) DependencyDelta {
	name, constraint := SplitDepSpec(spec)
	installed := installedVersion != ""

	return DependencyDelta{
		Name:             name,
		Constraint:       constraint,
		InstalledVersion: installedVersion,
		IsInstalled:      installed,
		VersionSatisfied: installed && VersionSatisfies(installedVersion, constraint),
	}
}

// normalizePacmanVersion strips the epoch prefix and pkgrel suffix so
// go-version can parse the remaining upstream version.
func normalizePacmanVersion(v string) string {
	if idx := strings.IndexByte(v, ':'); idx >= 0 {
		v = v[idx+1:]
	}

	if idx := strings.LastIndexByte(v, '-'); idx >= 0 {
		v = v[:idx]
	}

	return v
}

// constraintToGo rewrites a pacman constraint into go-version syntax;
// pacman's bare "=" means exact match.
func constraintToGo(c string) string {
	if strings.HasPrefix(c, "=") && !strings.HasPrefix(c, "==") {
		return "= " + normalizePacmanVersion(strings.TrimPrefix(c, "="))
	}

	for _, op := range []string{">=", "<=", ">", "<"} {
		if strings.HasPrefix(c, op) {
			return op + " " + normalizePacmanVersion(strings.TrimPrefix(c, op))
		}
	}

	return c
}
