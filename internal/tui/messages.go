// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/exec"
	"github.com/pacsea/pacsea/internal/preflight"
	"github.com/pacsea/pacsea/internal/search"
)

// tickInterval drives toast expiry and preflight cache sync.
const tickInterval = 50 * time.Millisecond

type tickMsg time.Time

// searchResultsMsg delivers one published result set from the
// orchestrator.
type searchResultsMsg search.Results

// detailsMsg delivers the details fetch for the selected item.
type detailsMsg struct {
	item    domain.PackageItem
	details domain.PackageDetails
}

// pkgbuildMsg delivers a fetched PKGBUILD source.
type pkgbuildMsg struct {
	item    domain.PackageItem
	content string
	err     error
}

// newsMsg delivers the merged feed items.
type newsMsg struct {
	items []domain.NewsFeedItem
	err   error
}

// preflightUpdateMsg signals that a resolver wrote to the cache.
type preflightUpdateMsg preflight.Update

// execDoneMsg reports a finished transaction.
type execDoneMsg struct {
	action  string
	success bool
	err     error
}

// sudoValidatedMsg reports the background password validation.
type sudoValidatedMsg struct {
	err error
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForResults blocks on the orchestrator's channel and re-arms
// itself after every delivery.
func waitForResults(orch *search.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-orch.Results()
		if !ok {
			return nil
		}

		return searchResultsMsg(res)
	}
}

// waitForPreflight blocks on the engine's update channel.
func waitForPreflight(engine *preflight.Engine) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-engine.Updates()
		if !ok {
			return nil
		}

		return preflightUpdateMsg(update)
	}
}

// fetchDetails resolves the details for item off the event loop.
func (m *Model) fetchDetails(item domain.PackageItem) tea.Cmd {
	client := m.client

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return detailsMsg{item: item, details: client.Details(ctx, item)}
	}
}

// fetchPKGBUILD resolves the PKGBUILD source for item.
func (m *Model) fetchPKGBUILD(item domain.PackageItem) tea.Cmd {
	client := m.client

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		content, err := client.PKGBUILDSource(ctx, item)

		return pkgbuildMsg{item: item, content: content, err: err}
	}
}

// fetchNews pulls both feeds, applies the user's filters and merges
// newest-first.
func (m *Model) fetchNews() tea.Cmd {
	service := m.feeds
	filter := m.settings.NewsFilter
	maxAge := m.settings.NewsMaxAgeDays
	installed := m.idx.AllInstalled()

	var aurNames []string

	for _, item := range m.install.items {
		if item.Source.Kind == domain.SourceAUR {
			aurNames = append(aurNames, item.Name)
		}
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var merged []domain.NewsFeedItem

		if filter.ShowArchNews {
			items, err := service.ArchNews(ctx)
			if err != nil {
				return newsMsg{err: err}
			}

			merged = append(merged, items...)
		}

		if filter.ShowAdvisories {
			items, err := service.Advisories(ctx)
			if err != nil {
				return newsMsg{err: err}
			}

			merged = append(merged, items...)
		}

		// The auxiliary feeds never block the news modal: failures are
		// dropped, the primary feeds already surfaced any network toast.
		if filter.ShowPkgUpdates {
			if items, err := service.PkgUpdates(ctx, installed, exec.CheckUpdates); err == nil {
				merged = append(merged, items...)
			}
		}

		if filter.ShowAurComments && len(aurNames) > 0 {
			if items, err := service.AURComments(ctx, aurNames); err == nil {
				merged = append(merged, items...)
			}
		}

		if filter.InstalledOnly {
			merged = domain.FilterToInstalled(merged, installed)
		}

		merged = domain.FilterByAge(merged, maxAge, time.Now())
		sortNewsByDate(merged)

		return newsMsg{items: merged}
	}
}
