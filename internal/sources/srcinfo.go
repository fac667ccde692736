// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package sources

import "strings"

// Srcinfo is the parsed metadata of an AUR package's .SRCINFO dump:
// the fields preflight needs for dependency resolution and the sandbox
// buckets.
type Srcinfo struct {
	PkgBase      string
	PkgName      string
	PkgVer       string
	PkgRel       string
	Depends      []string
	MakeDepends  []string
	CheckDepends []string
	OptDepends   []string
	Conflicts    []string
	Provides     []string
}

// Version renders the full pacman version string.
func (s Srcinfo) Version() string {
	if s.PkgRel == "" {
		return s.PkgVer
	}

	return s.PkgVer + "-" + s.PkgRel
}

// ParseSrcinfo parses the `key = value` lines of a .SRCINFO dump.
// Architecture-suffixed keys (depends_x86_64) fold into their base
// bucket; unknown keys are ignored.
func ParseSrcinfo(content string) Srcinfo {
	var info Srcinfo

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Fold depends_x86_64 etc. into the base key.
		if idx := strings.IndexByte(key, '_'); idx > 0 {
			switch base := key[:idx]; base {
			case "depends", "makedepends", "checkdepends", "optdepends":
				key = base
			}
		}

		switch key {
		case "pkgbase":
			info.PkgBase = value
		case "pkgname":
			if info.PkgName == "" {
				info.PkgName = value
			}
		case "pkgver":
			info.PkgVer = value
		case "pkgrel":
			info.PkgRel = value
		case "depends":
			info.Depends = append(info.Depends, value)
		case "makedepends":
			info.MakeDepends = append(info.MakeDepends, value)
		case "checkdepends":
			info.CheckDepends = append(info.CheckDepends, value)
		case "optdepends":
			info.OptDepends = append(info.OptDepends, value)
		case "conflicts":
			info.Conflicts = append(info.Conflicts, value)
		case "provides":
			info.Provides = append(info.Provides, value)
		}
	}

	return info
}
