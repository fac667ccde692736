// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

// Package exec builds and runs the pacman and AUR-helper command lines
// for a transaction. Nothing here is transactional: commands are handed
// to the system as-is, printed under dry-run, and recorded as no-ops in
// headless test runs.
package exec

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pacsea/pacsea/internal/config"
	"github.com/pacsea/pacsea/internal/domain"
)

// aurHelpers lists the supported AUR helpers in preference order.
var aurHelpers = []string{"paru", "yay"}

// DetectAURHelper returns the first AUR helper found on PATH, or an
// empty string when none is installed.
func DetectAURHelper() string {
	for _, helper := range aurHelpers {
		if _, err := exec.LookPath(helper); err == nil {
			return helper
		}
	}

	return ""
}

// InstallArgs builds the command lines for a mixed transaction:
// official packages in one pacman call, AUR packages in one helper
// call. AUR items without an available helper are reported as an error
// instead of being silently dropped.
func InstallArgs(items []domain.PackageItem, helper string) ([][]string, error) {
	var official, aur []string

	for _, item := range items {
		if item.Source.Kind == domain.SourceAUR {
			aur = append(aur, item.Name)
		} else {
			official = append(official, item.Name)
		}
	}

	var cmds [][]string

	if len(official) > 0 {
		cmds = append(cmds, append([]string{"sudo", "pacman", "-S", "--needed"}, official...))
	}

	if len(aur) > 0 {
		if helper == "" {
			return nil, fmt.Errorf("no AUR helper found for %s", strings.Join(aur, ", "))
		}

		cmds = append(cmds, append([]string{helper, "-S", "--needed"}, aur...))
	}

	return cmds, nil
}

// RemoveArgs builds the removal command. Deep cascade uses -Rns so
// dependency orphans and config backups go too.
func RemoveArgs(names []string, cascade bool) []string {
	flag := "-R"
	if cascade {
		flag = "-Rns"
	}

	return append([]string{"sudo", "pacman", flag}, names...)
}

// DowngradeArgs installs explicit package archive versions from the
// pacman cache.
func DowngradeArgs(names []string) []string {
	return append([]string{"sudo", "pacman", "-U"}, names...)
}

// SystemUpdateArgs is the full-system upgrade command.
func SystemUpdateArgs(helper string) []string {
	if helper != "" {
		return []string{helper, "-Syu"}
	}

	return []string{"sudo", "pacman", "-Syu"}
}

// MirrorRefreshArgs builds the reflector invocation from the mirror
// settings. Empty countries means worldwide.
func MirrorRefreshArgs(countries []string, count int) []string {
	if count <= 0 {
		count = 10
	}

	args := []string{
		"sudo", "reflector",
		"--latest", strconv.Itoa(count),
		"--sort", "rate",
		"--save", "/etc/pacman.d/mirrorlist",
	}

	if len(countries) > 0 {
		args = append(args, "--country", strings.Join(countries, ","))
	}

	return args
}

// CheckUpdates runs checkupdates and returns the latest sync version
// per package with a pending update. A missing binary, a headless run
// or a failed sync all yield an empty map; the update feed simply stays
// empty.
func CheckUpdates(ctx context.Context) map[string]string {
	if config.Headless() {
		return nil
	}

	path, err := exec.LookPath("checkupdates")
	if err != nil {
		return nil
	}

	out, err := exec.CommandContext(ctx, path, "--nocolor").Output()
	if err != nil {
		return nil
	}

	return ParseCheckUpdates(string(out))
}

// ParseCheckUpdates parses checkupdates output lines of the form
// `name oldver -> newver` into a name-to-new-version map.
func ParseCheckUpdates(out string) map[string]string {
	latest := make(map[string]string)

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 4 || fields[2] != "->" {
			continue
		}

		latest[fields[0]] = fields[3]
	}

	if len(latest) == 0 {
		return nil
	}

	return latest
}

// ShellLine renders an argv for display in dry-run output and the
// preflight summary. Arguments with spaces are quoted.
func ShellLine(argv []string) string {
	parts := make([]string, 0, len(argv))

	for _, arg := range argv {
		if strings.ContainsAny(arg, " \t'\"") {
			parts = append(parts, strconv.Quote(arg))
		} else {
			parts = append(parts, arg)
		}
	}

	return strings.Join(parts, " ")
}
