// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

// Package feeds fetches Arch news and security advisories behind a
// two-tier cache (in-memory TTL plus on-disk JSON blobs) with per-host
// rate limiting and exponential backoff honoring Retry-After.
package feeds

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/logger"
)

// Cache source keys.
const (
	SourceArchNews    = "arch_news"
	SourceAdvisories  = "advisories"
	SourcePkgUpdates  = "pkg_updates"
	SourceAurComments = "aur_comments"
)

const (
	// MemoryTTL is the Tier-1 lifetime.
	MemoryTTL = 15 * time.Minute
	// DefaultDiskTTL is the Tier-2 lifetime when settings carry no
	// news_cache_ttl_days.
	DefaultDiskTTL = 14 * 24 * time.Hour
	// SkipTTL is the lightweight re-fetch guard for the pkg-update and
	// AUR-comment feeds.
	SkipTTL = 5 * time.Minute
)

type memEntry struct {
	items      []domain.NewsFeedItem
	insertedAt time.Time
}

// diskEntry is the serialized Tier-2 blob.
type diskEntry struct {
	Items   []domain.NewsFeedItem `json:"items"`
	SavedAt int64                 `json:"saved_at"`
}

// Store is the two-tier cache. The zero value is unusable; construct
// with NewStore.
type Store struct {
	dir     string
	diskTTL time.Duration
	now     func() time.Time

	mu  sync.Mutex
	mem map[string]memEntry
}

// NewStore builds a cache writing disk blobs under dir. diskTTL at or
// below zero selects the default.
func NewStore(dir string, diskTTL time.Duration) *Store {
	if diskTTL <= 0 {
		diskTTL = DefaultDiskTTL
	}

	return &Store{
		dir:     dir,
		diskTTL: diskTTL,
		now:     time.Now,
		mem:     make(map[string]memEntry),
	}
}

// Get walks the read path: fresh Tier-1, then fresh Tier-2 (which
// repopulates Tier-1). The boolean reports a usable hit.
func (s *Store) Get(source string) ([]domain.NewsFeedItem, bool) {
	s.mu.Lock()

	if entry, ok := s.mem[source]; ok && s.now().Sub(entry.insertedAt) < MemoryTTL {
		s.mu.Unlock()

		return entry.items, true
	}
	s.mu.Unlock()

	items, savedAt, ok := s.readDisk(source)
	if !ok {
		return nil, false
	}

	if s.now().Sub(savedAt) >= s.diskTTL {
		logger.Debug("disk cache expired", logger.Fields{"source": source, "age": s.now().Sub(savedAt)})

		return nil, false
	}

	s.mu.Lock()
	s.mem[source] = memEntry{items: items, insertedAt: s.now()}
	s.mu.Unlock()

	return items, true
}

// Stale returns the freshest data of either tier regardless of TTL,
// with its age, for graceful degradation after a failed fetch.
func (s *Store) Stale(source string) ([]domain.NewsFeedItem, time.Duration, bool) {
	s.mu.Lock()
	entry, ok := s.mem[source]
	s.mu.Unlock()

	if ok {
		return entry.items, s.now().Sub(entry.insertedAt), true
	}

	items, savedAt, ok := s.readDisk(source)
	if !ok {
		return nil, 0, false
	}

	return items, s.now().Sub(savedAt), true
}

// Put stores items in both tiers. Disk write failures are logged, not
// propagated: the in-memory tier still serves.
func (s *Store) Put(source string, items []domain.NewsFeedItem) {
	s.mu.Lock()
	s.mem[source] = memEntry{items: items, insertedAt: s.now()}
	s.mu.Unlock()

	entry := diskEntry{Items: items, SavedAt: s.now().Unix()}

	data, err := json.Marshal(entry)
	if err != nil {
		logger.Warn("marshal disk cache", logger.Fields{"source": source, "error": err})

		return
	}

	if err := writeAtomic(s.path(source), data); err != nil {
		logger.Warn("write disk cache", logger.Fields{"source": source, "error": err})
	}
}

// SetClock injects a fake clock for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) path(source string) string {
	return filepath.Join(s.dir, source+"_cache.json")
}

func (s *Store) readDisk(source string) ([]domain.NewsFeedItem, time.Time, bool) {
	data, err := os.ReadFile(s.path(source))
	if err != nil {
		return nil, time.Time{}, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		logger.Warn("corrupt disk cache", logger.Fields{"source": source, "error": err})

		return nil, time.Time{}, false
	}

	return entry.Items, time.Unix(entry.SavedAt, 0), true
}

// writeAtomic writes via a temp file and rename so readers never see a
// torn blob.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".feed-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("write temp: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("close temp: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("rename: %w", err)
	}

	return nil
}
