// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// SortMode selects the ordering of merged search results. Cycling goes
// Repo → AUR popularity → Best matches and wraps.
type SortMode int

// Sort modes.
const (
	SortRepoThenName SortMode = iota
	SortAurPopularityThenOfficial
	SortBestMatches
)

// ParseSortMode maps the persisted settings value to a SortMode,
// defaulting to repo order for unknown values.
func ParseSortMode(value string) SortMode {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "aur_popularity", "aurpopularitythenofficial":
		return SortAurPopularityThenOfficial
	case "best_matches", "bestmatches":
		return SortBestMatches
	default:
		return SortRepoThenName
	}
}

// String returns the settings.conf value for the mode.
func (m SortMode) String() string {
	switch m {
	case SortAurPopularityThenOfficial:
		return "aur_popularity"
	case SortBestMatches:
		return "best_matches"
	default:
		return "repo_then_name"
	}
}

// Next cycles to the following sort mode.
func (m SortMode) Next() SortMode {
	switch m {
	case SortRepoThenName:
		return SortAurPopularityThenOfficial
	case SortAurPopularityThenOfficial:
		return SortBestMatches
	default:
		return SortRepoThenName
	}
}

// RepoOrder ranks sources for sorting: core first, then extra, then the
// remaining official repositories, AUR last.
func RepoOrder(s Source) int {
	if s.Kind == SourceAUR {
		return 3
	}

	switch strings.ToLower(s.Repo) {
	case "core":
		return 0
	case "extra":
		return 1
	default:
		return 2
	}
}

// MatchRank ranks a package name against the query: exact=0, prefix=1,
// substring=2, anything else 3.
func MatchRank(name, query string) int {
	n := strings.ToLower(name)
	q := strings.ToLower(query)

	switch {
	case n == q:
		return 0
	case strings.HasPrefix(n, q):
		return 1
	case strings.Contains(n, q):
		return 2
	default:
		return 3
	}
}

// fuzzyScore returns the fuzzy match score of query against name;
// higher is better, math.MinInt-ish for no match.
func fuzzyScore(name, query string) int {
	matches := fuzzy.Find(query, []string{name})
	if len(matches) == 0 {
		return -1 << 30
	}

	return matches[0].Score
}

// SortItems orders items in place according to mode. The sort is
// stable, so sorting twice with the same mode and query is the
// identity. fuzzyEnabled only affects BestMatches rank-3 ties.
func SortItems(items []PackageItem, mode SortMode, query string, fuzzyEnabled bool) {
	switch mode {
	case SortAurPopularityThenOfficial:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]

			aAur := a.Source.Kind == SourceAUR
			bAur := b.Source.Kind == SourceAUR
			if aAur != bAur {
				return aAur
			}

			if aAur && bAur {
				if a.Popularity != b.Popularity {
					return a.Popularity > b.Popularity
				}

				return a.Key() < b.Key()
			}

			if ra, rb := RepoOrder(a.Source), RepoOrder(b.Source); ra != rb {
				return ra < rb
			}

			return a.Key() < b.Key()
		})

	case SortBestMatches:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]

			ra, rb := MatchRank(a.Name, query), MatchRank(b.Name, query)
			if ra != rb {
				return ra < rb
			}

			if ra == 3 && fuzzyEnabled {
				if sa, sb := fuzzyScore(a.Name, query), fuzzyScore(b.Name, query); sa != sb {
					return sa > sb
				}
			}

			if oa, ob := RepoOrder(a.Source), RepoOrder(b.Source); oa != ob {
				return oa < ob
			}

			return a.Key() < b.Key()
		})

	default: // SortRepoThenName
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]

			if ra, rb := RepoOrder(a.Source), RepoOrder(b.Source); ra != rb {
				return ra < rb
			}

			return a.Key() < b.Key()
		})
	}
}
