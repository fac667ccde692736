// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import "time"

// NewsSourceKind tags the origin of a feed item.
type NewsSourceKind int

// News feed sources.
const (
	NewsArch NewsSourceKind = iota
	NewsAdvisory
	NewsPkgUpdate
	NewsAurComment
)

// NewsFeedItem is one entry of the merged news/advisory feed.
type NewsFeedItem struct {
	ID       string         `json:"id"`
	Date     time.Time      `json:"date"`
	Title    string         `json:"title"`
	Summary  string         `json:"summary,omitempty"`
	URL      string         `json:"url,omitempty"`
	Source   NewsSourceKind `json:"source"`
	Severity string         `json:"severity,omitempty"`
	Packages []string       `json:"packages,omitempty"`
}

// FilterToInstalled keeps items that concern at least one installed
// package. Items without package attribution (plain news posts) always
// pass.
func FilterToInstalled(items []NewsFeedItem, installed []PackageItem) []NewsFeedItem {
	names := make(map[string]struct{}, len(installed))
	for _, pkg := range installed {
		names[pkg.Name] = struct{}{}
	}

	out := make([]NewsFeedItem, 0, len(items))

	for _, item := range items {
		if len(item.Packages) == 0 {
			out = append(out, item)

			continue
		}

		for _, name := range item.Packages {
			if _, ok := names[name]; ok {
				out = append(out, item)

				break
			}
		}
	}

	return out
}

// FilterByAge drops items older than maxAgeDays. A maxAgeDays of zero
// means no age limit (the settings value "all").
func FilterByAge(items []NewsFeedItem, maxAgeDays int, now time.Time) []NewsFeedItem {
	if maxAgeDays <= 0 {
		return items
	}

	cutoff := now.AddDate(0, 0, -maxAgeDays)

	out := make([]NewsFeedItem, 0, len(items))
	for _, item := range items {
		if !item.Date.Before(cutoff) {
			out = append(out, item)
		}
	}

	return out
}
