// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package domain_test

import (
	"testing"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []domain.PackageItem {
	return []domain.PackageItem{
		{Name: "ripgrep-all", Version: "1.0", Source: domain.AUR(), Popularity: 3.2},
		{Name: "ripgrep", Version: "14.1.0", Source: domain.Official("extra", "x86_64")},
		{Name: "grep", Version: "3.11", Source: domain.Official("core", "x86_64")},
		{Name: "rga-bin", Version: "1.0", Source: domain.AUR(), Popularity: 9.7},
		{Name: "zgrep-helper", Version: "0.2", Source: domain.Official("multilib", "x86_64")},
	}
}

func names(items []domain.PackageItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}

	return out
}

func TestSortItemsRepoThenName(t *testing.T) {
	t.Parallel()

	items := sampleResults()
	domain.SortItems(items, domain.SortRepoThenName, "rip", false)

	assert.Equal(t, []string{"grep", "ripgrep", "zgrep-helper", "rga-bin", "ripgrep-all"}, names(items))
}

func TestSortItemsAurPopularityFirst(t *testing.T) {
	t.Parallel()

	items := sampleResults()
	domain.SortItems(items, domain.SortAurPopularityThenOfficial, "rip", false)

	got := names(items)
	assert.Equal(t, "rga-bin", got[0], "highest AUR popularity first")
	assert.Equal(t, "ripgrep-all", got[1])
	assert.Equal(t, "grep", got[2], "official follow in repo order")
}

func TestSortItemsBestMatches(t *testing.T) {
	t.Parallel()

	items := sampleResults()
	domain.SortItems(items, domain.SortBestMatches, "ripgrep", false)

	got := names(items)
	assert.Equal(t, "ripgrep", got[0], "exact match outranks prefix")
	assert.Equal(t, "ripgrep-all", got[1], "prefix outranks substring")
}

// Sorting twice with the same mode and query must be the identity.
func TestSortItemsStability(t *testing.T) {
	t.Parallel()

	for _, mode := range []domain.SortMode{domain.SortRepoThenName, domain.SortAurPopularityThenOfficial, domain.SortBestMatches} {
		items := sampleResults()
		domain.SortItems(items, mode, "grep", true)

		once := names(items)
		domain.SortItems(items, mode, "grep", true)

		require.Equal(t, once, names(items), "mode %v", mode)
	}
}

func TestMatchRank(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"ripgrep", "ripgrep", 0},
		{"Ripgrep", "ripgrep", 0},
		{"ripgrep-all", "ripgrep", 1},
		{"fd-ripgrep", "ripgrep", 2},
		{"bat", "ripgrep", 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.MatchRank(tt.name, tt.query), "%s vs %s", tt.name, tt.query)
	}
}

func TestSortModeCycle(t *testing.T) {
	t.Parallel()

	mode := domain.SortRepoThenName
	assert.Equal(t, domain.SortAurPopularityThenOfficial, mode.Next())
	assert.Equal(t, domain.SortBestMatches, mode.Next().Next())
	assert.Equal(t, domain.SortRepoThenName, mode.Next().Next().Next())
}

func TestParseSortModeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, mode := range []domain.SortMode{domain.SortRepoThenName, domain.SortAurPopularityThenOfficial, domain.SortBestMatches} {
		assert.Equal(t, mode, domain.ParseSortMode(mode.String()))
	}

	assert.Equal(t, domain.SortRepoThenName, domain.ParseSortMode("garbage"))
}
