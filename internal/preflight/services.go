// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package preflight

import (
	"os"
	"os/exec"
	"path"
	"sort"
	"strings"

	"github.com/pacsea/pacsea/internal/domain"
)

// unitSuffixes are the systemd unit types Pacsea tracks for restart
// recommendations.
var unitSuffixes = []string{".service", ".socket", ".timer"}

// resolveServices enumerates the systemd units shipped by the
// transaction items and records the restart recommendation for each.
func (e *Engine) resolveServices(sig string, items []domain.PackageItem) {
	providers := make(map[string][]string) // unit -> providing packages
	changed := make(map[string]bool)       // unit -> on-disk file will change

	for _, item := range items {
		if e.Cancelled() {
			return
		}

		local, ok := e.idx.Get(item.Name)
		if !ok {
			continue
		}

		upgrading := local.Version != item.Version

		for _, raw := range local.Files {
			unit, ok := unitName(raw)
			if !ok {
				continue
			}

			providers[unit] = append(providers[unit], item.Name)
			changed[unit] = changed[unit] || upgrading
		}
	}

	impacts := make([]domain.ServiceImpact, 0, len(providers))

	for unit, pkgs := range providers {
		impacts = append(impacts, domain.NewServiceImpact(unit, pkgs, e.svc.IsActive(unit), changed[unit]))
	}

	sort.Slice(impacts, func(i, j int) bool { return impacts[i].UnitName < impacts[j].UnitName })

	e.mu.Lock()
	e.entry(sig).services = impacts
	e.mu.Unlock()

	e.notify(sig, ArtifactServices)
}

// unitName extracts the unit file name from a packaged path, accepting
// only files under the systemd system directories.
func unitName(filePath string) (string, bool) {
	if !strings.Contains(filePath, "systemd/system/") {
		return "", false
	}

	base := path.Base(filePath)

	for _, suffix := range unitSuffixes {
		if strings.HasSuffix(base, suffix) {
			return base, true
		}
	}

	return "", false
}

// SystemdProber asks systemctl whether a unit is active. In headless
// test runs every unit reports inactive.
type SystemdProber struct{}

// IsActive runs `systemctl is-active`; any failure counts as inactive.
func (SystemdProber) IsActive(unit string) bool {
	if os.Getenv("PACSEA_TEST_HEADLESS") == "1" {
		return false
	}

	out, err := exec.Command("systemctl", "is-active", unit).Output()
	if err != nil {
		return false
	}

	return strings.TrimSpace(string(out)) == "active"
}
