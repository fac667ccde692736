// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package search_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultSort() (domain.SortMode, bool) {
	return domain.SortBestMatches, false
}

func waitResults(t *testing.T, ch <-chan search.Results) search.Results {
	t.Helper()

	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for search results")

		return search.Results{}
	}
}

// Typing "r", "i", "p" in quick succession must coalesce into a single
// fan-out for "rip".
func TestDebounceCoalescesRapidEdits(t *testing.T) {
	t.Parallel()

	var (
		fanOuts   atomic.Int32
		lastQuery atomic.Value
	)

	official := func(_ context.Context, query string) ([]domain.PackageItem, error) {
		fanOuts.Add(1)
		lastQuery.Store(query)

		return []domain.PackageItem{{Name: "ripgrep", Version: "14.1.1-1", Source: domain.Source{Kind: domain.SourceOfficial, Repo: "extra"}}}, nil
	}

	orch := search.New(search.Sources{Official: official}, defaultSort, search.WithDebounce(60*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go orch.Run(ctx)

	orch.Submit("r")
	time.Sleep(10 * time.Millisecond)
	orch.Submit("ri")
	time.Sleep(10 * time.Millisecond)
	orch.Submit("rip")

	res := waitResults(t, orch.Results())

	assert.Equal(t, int32(1), fanOuts.Load(), "rapid edits collapse into one fetch")
	assert.Equal(t, "rip", lastQuery.Load())
	assert.Equal(t, "rip", res.Query)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "ripgrep", res.Items[0].Name)
}

// An earlier query whose fetch outlives a newer one must never reach
// the consumer: only the highest sequence is delivered.
func TestStaleSequenceNeverDelivered(t *testing.T) {
	t.Parallel()

	slowRelease := make(chan struct{})

	official := func(_ context.Context, query string) ([]domain.PackageItem, error) {
		if query == "slow" {
			<-slowRelease

			return []domain.PackageItem{{Name: "slowpkg", Version: "1-1", Source: domain.Source{Kind: domain.SourceAUR}}}, nil
		}

		return []domain.PackageItem{{Name: "fastpkg", Version: "1-1", Source: domain.Source{Kind: domain.SourceAUR}}}, nil
	}

	orch := search.New(search.Sources{Official: official}, defaultSort, search.WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go orch.Run(ctx)

	orch.Submit("slow")
	time.Sleep(80 * time.Millisecond) // first dispatch is now blocked in its fetch

	orch.Submit("fast")

	res := waitResults(t, orch.Results())
	assert.Equal(t, "fast", res.Query)
	assert.Equal(t, orch.CurrentSeq(), res.Seq)

	// Unblock the stale fetch; it must be dropped, not delivered.
	close(slowRelease)

	select {
	case late := <-orch.Results():
		t.Fatalf("stale results delivered: %+v", late)
	case <-time.After(150 * time.Millisecond):
	}
}

// Clearing the input publishes an empty result set without waiting for
// the debounce window.
func TestEmptyQueryPublishesImmediately(t *testing.T) {
	t.Parallel()

	official := func(_ context.Context, _ string) ([]domain.PackageItem, error) {
		t.Error("empty queries must not hit the network")

		return nil, nil
	}

	orch := search.New(search.Sources{Official: official}, defaultSort, search.WithDebounce(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go orch.Run(ctx)

	orch.Submit("   ")

	res := waitResults(t, orch.Results())
	assert.Empty(t, res.Items)
}

// A failing remote source degrades to the surviving sources instead of
// failing the whole query.
func TestFanOutToleratesSourceFailure(t *testing.T) {
	t.Parallel()

	official := func(_ context.Context, _ string) ([]domain.PackageItem, error) {
		return nil, domain.NewClassified(domain.KindNetworkTransient, assert.AnError)
	}
	aur := func(_ context.Context, _ string) ([]domain.PackageItem, error) {
		return []domain.PackageItem{{Name: "pacsea-git", Version: "0.9.0-1", Source: domain.Source{Kind: domain.SourceAUR}}}, nil
	}
	local := search.LocalSource(func() []domain.PackageItem {
		return []domain.PackageItem{
			{Name: "pacman", Version: "6.1.0-1", Source: domain.Source{Kind: domain.SourceOfficial, Repo: "core"}},
			{Name: "ripgrep", Version: "14.1.1-1", Source: domain.Source{Kind: domain.SourceOfficial, Repo: "extra"}},
		}
	})

	orch := search.New(search.Sources{Official: official, AUR: aur, Local: local}, defaultSort, search.WithDebounce(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go orch.Run(ctx)

	orch.Submit("pac")

	res := waitResults(t, orch.Results())
	require.Len(t, res.Items, 2)

	names := []string{res.Items[0].Name, res.Items[1].Name}
	assert.Contains(t, names, "pacsea-git")
	assert.Contains(t, names, "pacman")
}
