// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package domain_test

import (
	"testing"
	"time"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestIsConfigPath(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.IsConfigPath("/etc/pacman.conf", false))
	assert.True(t, domain.IsConfigPath("/usr/share/foo.conf", true), "explicit backup marker wins")
	assert.False(t, domain.IsConfigPath("/usr/bin/ripgrep", false))
	assert.False(t, domain.IsConfigPath("/etcetera/file", false))
}

func TestPackageFileInfoTally(t *testing.T) {
	t.Parallel()

	info := domain.PackageFileInfo{
		Package: "ripgrep",
		Files: []domain.FileChange{
			{Path: "/usr/bin/rg", Kind: domain.FileNew},
			{Path: "/etc/rg.conf", Kind: domain.FileConfig, PacnewCandidate: true},
			{Path: "/usr/share/old", Kind: domain.FileRemoved},
			{Path: "/etc/other.conf", Kind: domain.FileConfig, PacsaveCandidate: true},
			{Path: "/usr/lib/librg.so", Kind: domain.FileChanged},
		},
	}

	info.Tally()

	assert.Equal(t, 1, info.NewCount)
	assert.Equal(t, 1, info.ChangedCount)
	assert.Equal(t, 1, info.RemovedCount)
	assert.Equal(t, 2, info.ConfigCount)
	assert.Equal(t, 1, info.PacnewCount)
	assert.Equal(t, 1, info.PacsaveCount)
}

func TestRecommendDecision(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.DecisionRestart, domain.RecommendDecision(true, true))
	assert.Equal(t, domain.DecisionDefer, domain.RecommendDecision(true, false))
	assert.Equal(t, domain.DecisionSkip, domain.RecommendDecision(false, true))
	assert.Equal(t, domain.DecisionSkip, domain.RecommendDecision(false, false))
}

func TestNewServiceImpactInitializesDecision(t *testing.T) {
	t.Parallel()

	impact := domain.NewServiceImpact("sshd.service", []string{"openssh"}, true, true)
	assert.Equal(t, domain.DecisionRestart, impact.RecommendedDecision)
	assert.Equal(t, impact.RecommendedDecision, impact.RestartDecision)
}

func TestFilterToInstalled(t *testing.T) {
	t.Parallel()

	installed := []domain.PackageItem{
		{Name: "openssl", Version: "3.3.1-1"},
		{Name: "glibc", Version: "2.39-1"},
	}

	items := []domain.NewsFeedItem{
		{ID: "post", Source: domain.NewsArch},
		{ID: "hit", Source: domain.NewsAdvisory, Packages: []string{"openssl"}},
		{ID: "miss", Source: domain.NewsAdvisory, Packages: []string{"chromium"}},
	}

	filtered := domain.FilterToInstalled(items, installed)

	ids := make([]string, 0, len(filtered))
	for _, item := range filtered {
		ids = append(ids, item.ID)
	}

	assert.Equal(t, []string{"post", "hit"}, ids, "unattributed posts pass, foreign advisories drop")
}

func TestFilterByAge(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	items := []domain.NewsFeedItem{
		{ID: "fresh", Date: now.AddDate(0, 0, -2)},
		{ID: "stale", Date: now.AddDate(0, 0, -40)},
	}

	filtered := domain.FilterByAge(items, 30, now)
	assert.Len(t, filtered, 1)
	assert.Equal(t, "fresh", filtered[0].ID)

	// Zero means "all".
	assert.Len(t, domain.FilterByAge(items, 0, now), 2)
}
