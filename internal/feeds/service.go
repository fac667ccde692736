// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package feeds

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/logger"
	"github.com/pacsea/pacsea/internal/sources"
)

// Feed endpoints.
const (
	newsURL       = "https://archlinux.org/feeds/news/"
	advisoriesURL = "https://security.archlinux.org/advisories/feed.atom"

	hostArch     = "archlinux.org"
	hostSecurity = "security.archlinux.org"
	hostAUR      = "aur.archlinux.org"
)

// ErrNoData indicates a fetch failed and no stale data of any tier was
// available.
var ErrNoData = errors.New("no feed data available")

// Fetcher retrieves and parses one feed from the network.
type Fetcher func(ctx context.Context) ([]domain.NewsFeedItem, error)

// Service coordinates the cache tiers, the rate limiter and the
// network fetchers for every feed source.
type Service struct {
	store   *Store
	limiter *Limiter
	client  *sources.Client

	netErr atomic.Bool

	skipMu sync.Mutex
	skip   map[string]skipEntry
	now    func() time.Time
}

type skipEntry struct {
	items     []domain.NewsFeedItem
	fetchedAt time.Time
}

// NewService builds the feeds service over a cache store and HTTP
// client.
func NewService(store *Store, client *sources.Client) *Service {
	return &Service{
		store:   store,
		limiter: NewLimiter(),
		client:  client,
		skip:    make(map[string]skipEntry),
		now:     time.Now,
	}
}

// Limiter exposes the rate limiter, mainly for tests.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// TakeNetworkError atomically reads and clears the transient-error
// flag; the dispatch core turns it into a toast when set.
func (s *Service) TakeNetworkError() bool {
	return s.netErr.Swap(false)
}

// ArchNews returns the Arch news feed through the cache.
func (s *Service) ArchNews(ctx context.Context) ([]domain.NewsFeedItem, error) {
	return s.FetchWith(ctx, SourceArchNews, hostArch, func(ctx context.Context) ([]domain.NewsFeedItem, error) {
		body, err := s.client.GetRaw(ctx, newsURL)
		if err != nil {
			return nil, err
		}

		return ParseNewsRSS(body)
	})
}

// Advisories returns the security advisory feed through the cache.
func (s *Service) Advisories(ctx context.Context) ([]domain.NewsFeedItem, error) {
	return s.FetchWith(ctx, SourceAdvisories, hostSecurity, func(ctx context.Context) ([]domain.NewsFeedItem, error) {
		body, err := s.client.GetRaw(ctx, advisoriesURL)
		if err != nil {
			return nil, err
		}

		return ParseAdvisoriesRSS(body)
	})
}

// FetchWith is the shared read path: cache tiers, then the network
// behind the rate limiter, then graceful degradation to stale data.
func (s *Service) FetchWith(ctx context.Context, source, host string, fetcher Fetcher) ([]domain.NewsFeedItem, error) {
	if items, ok := s.store.Get(source); ok {
		return items, nil
	}

	items, err := s.fetchNetwork(ctx, source, host, fetcher)
	if err == nil {
		return items, nil
	}

	if stale, age, ok := s.store.Stale(source); ok {
		logger.Warn("serving stale feed data", logger.Fields{"source": source, "age": age, "error": err})

		return stale, nil
	}

	s.netErr.Store(true)

	return nil, errors.Join(ErrNoData, err)
}

func (s *Service) fetchNetwork(ctx context.Context, source, host string, fetcher Fetcher) ([]domain.NewsFeedItem, error) {
	if err := s.limiter.Acquire(ctx, host, source); err != nil {
		return nil, err
	}
	defer s.limiter.Release(host)

	ctx, cancel := context.WithTimeout(ctx, sources.RequestTimeout)
	defer cancel()

	items, err := fetcher(ctx)
	if err != nil {
		retryAfter := 0

		var classified *domain.ClassifiedError
		if errors.As(err, &classified) && classified.Kind == domain.KindRateLimited {
			retryAfter = classified.RetryAfter
		}

		s.limiter.Failure(source, retryAfter)

		return nil, err
	}

	s.limiter.Success(source)
	s.store.Put(source, items)

	return items, nil
}

// SkipCached wraps a fetcher with the 5 minute skip cache used by the
// package-update and AUR-comment feeds: within the window the previous
// results are returned without any network activity.
func (s *Service) SkipCached(ctx context.Context, source string, fetcher Fetcher) ([]domain.NewsFeedItem, error) {
	s.skipMu.Lock()

	if entry, ok := s.skip[source]; ok && s.now().Sub(entry.fetchedAt) < SkipTTL {
		s.skipMu.Unlock()

		return entry.items, nil
	}
	s.skipMu.Unlock()

	items, err := fetcher(ctx)
	if err != nil {
		return nil, err
	}

	s.skipMu.Lock()
	s.skip[source] = skipEntry{items: items, fetchedAt: s.now()}
	s.skipMu.Unlock()

	return items, nil
}

// PkgUpdates surfaces pending package updates behind the skip cache.
// The latest-version lookup is injected so the caller decides how sync
// versions are obtained.
func (s *Service) PkgUpdates(ctx context.Context, installed []domain.PackageItem, latest func(context.Context) map[string]string) ([]domain.NewsFeedItem, error) {
	return s.SkipCached(ctx, SourcePkgUpdates, func(ctx context.Context) ([]domain.NewsFeedItem, error) {
		return BuildUpdateItems(installed, latest(ctx), s.now()), nil
	})
}

// AURComments returns the newest comments for the given AUR packages,
// behind the skip cache and the AUR rate-limit permit.
func (s *Service) AURComments(ctx context.Context, names []string) ([]domain.NewsFeedItem, error) {
	return s.SkipCached(ctx, SourceAurComments, func(ctx context.Context) ([]domain.NewsFeedItem, error) {
		if err := s.limiter.Acquire(ctx, hostAUR, SourceAurComments); err != nil {
			return nil, err
		}
		defer s.limiter.Release(hostAUR)

		var out []domain.NewsFeedItem

		for _, name := range names {
			comments, err := s.client.AURComments(ctx, name)
			if err != nil {
				logger.Debug("aur comments unavailable", logger.Fields{"package": name, "error": err})

				continue
			}

			for i, comment := range comments {
				out = append(out, domain.NewsFeedItem{
					ID:       fmt.Sprintf("aur-comment/%s/%d", name, i),
					Date:     s.now(),
					Title:    comment.Author + " on " + name,
					Summary:  comment.Body,
					Source:   domain.NewsAurComment,
					Packages: []string{name},
				})
			}
		}

		return out, nil
	})
}

// BuildUpdateItems diffs installed versions against the latest known
// sync versions and emits one PkgUpdate feed item per pending update.
func BuildUpdateItems(installed []domain.PackageItem, latest map[string]string, now time.Time) []domain.NewsFeedItem {
	var out []domain.NewsFeedItem

	for _, pkg := range installed {
		newVersion, ok := latest[pkg.Name]
		if !ok || newVersion == pkg.Version {
			continue
		}

		out = append(out, domain.NewsFeedItem{
			ID:       "update/" + pkg.Name + "/" + newVersion,
			Date:     now,
			Title:    pkg.Name + " " + pkg.Version + " -> " + newVersion,
			Source:   domain.NewsPkgUpdate,
			Packages: []string{pkg.Name},
		})
	}

	return out
}

// SetClock injects a fake clock for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.skipMu.Lock()
	defer s.skipMu.Unlock()
	s.now = now
}
