// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

// Package search runs the debounced, cancellable query pipeline: it
// fans out to the official index, the AUR RPC and the local pacman
// index, merges and ranks the results, and publishes them with
// monotonic sequence numbers so stale responses can never overtake a
// newer query.
package search

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/logger"
)

// DebounceDelay is how long input must stay quiet before a query is
// dispatched.
const DebounceDelay = 250 * time.Millisecond

// Results is one published result set. Seq identifies the query
// generation; consumers drop anything below the latest.
type Results struct {
	Seq   uint64
	Query string
	Items []domain.PackageItem
}

// Fetch retrieves items for a query from one remote source.
type Fetch func(ctx context.Context, query string) ([]domain.PackageItem, error)

// Sources bundles the three fan-out targets. Local runs in-process and
// cannot fail.
type Sources struct {
	Official Fetch
	AUR      Fetch
	Local    func(query string) []domain.PackageItem
}

// SortConfig is read at merge time so the user can cycle modes while a
// fetch is in flight.
type SortConfig func() (domain.SortMode, bool)

// Orchestrator owns the debounce worker and the in-flight fetch.
type Orchestrator struct {
	sources  Sources
	sortCfg  SortConfig
	debounce time.Duration

	queries chan string
	results chan Results
	seq     atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Option tweaks orchestrator construction.
type Option func(*Orchestrator)

// WithDebounce overrides the debounce delay (tests).
func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.debounce = d
	}
}

// New builds an orchestrator. Run must be started on its own
// goroutine.
func New(sources Sources, sortCfg SortConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sources:  sources,
		sortCfg:  sortCfg,
		debounce: DebounceDelay,
		queries:  make(chan string, 64),
		results:  make(chan Results, 8),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Submit enqueues a query edit. Never blocks: under pressure older
// pending edits are discarded, which the debounce would do anyway.
func (o *Orchestrator) Submit(query string) {
	for {
		select {
		case o.queries <- query:
			return
		default:
			select {
			case <-o.queries:
			default:
			}
		}
	}
}

// Results is the channel of published result sets.
func (o *Orchestrator) Results() <-chan Results {
	return o.results
}

// CurrentSeq returns the latest dispatched sequence number.
func (o *Orchestrator) CurrentSeq() uint64 {
	return o.seq.Load()
}

// Run is the debounce worker: it coalesces query edits until the input
// stays quiet for the debounce window, then dispatches the latest.
// Empty trimmed queries publish an empty result set immediately.
func (o *Orchestrator) Run(ctx context.Context) {
	var (
		pending string
		timer   *time.Timer
		timerC  <-chan time.Time
	)

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()

			return

		case query := <-o.queries:
			pending = query

			if strings.TrimSpace(pending) == "" {
				stopTimer()
				o.publishEmpty(pending)

				continue
			}

			stopTimer()
			timer = time.NewTimer(o.debounce)
			timerC = timer.C

		case <-timerC:
			timer, timerC = nil, nil
			o.dispatch(ctx, pending)
		}
	}
}

func (o *Orchestrator) publishEmpty(query string) {
	o.cancelInFlight()
	seq := o.seq.Add(1)
	o.deliver(Results{Seq: seq, Query: query})
}

// dispatch fans the query out to all sources concurrently. A newer
// dispatch cancels the previous fetch; its late result is additionally
// dropped by the sequence check before delivery.
func (o *Orchestrator) dispatch(parent context.Context, query string) {
	o.cancelInFlight()

	ctx, cancel := context.WithCancel(parent)

	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()

	seq := o.seq.Add(1)

	go func() {
		defer cancel()

		items := o.fanOut(ctx, query)

		// A newer query has been dispatched meanwhile; this result is
		// stale and must never reach the UI.
		if seq != o.seq.Load() {
			logger.Debug("dropping stale search results", logger.Fields{"seq": seq, "query": query})

			return
		}

		mode, fuzzyEnabled := o.sortCfg()
		domain.SortItems(items, mode, query, fuzzyEnabled)

		o.deliver(Results{Seq: seq, Query: query, Items: items})
	}()
}

// fanOut issues the three source fetches in parallel. A failing source
// contributes an empty list without aborting the others.
func (o *Orchestrator) fanOut(ctx context.Context, query string) []domain.PackageItem {
	var (
		wg       sync.WaitGroup
		official []domain.PackageItem
		aur      []domain.PackageItem
		local    []domain.PackageItem
	)

	run := func(fetch Fetch, dst *[]domain.PackageItem, name string) {
		defer wg.Done()

		items, err := fetch(ctx, query)
		if err != nil {
			logger.Debug("search source failed", logger.Fields{
				"source": name,
				"query":  query,
				"kind":   domain.Classify(err).String(),
			})

			return
		}

		*dst = items
	}

	if o.sources.Official != nil {
		wg.Add(1)

		go run(o.sources.Official, &official, "official")
	}

	if o.sources.AUR != nil {
		wg.Add(1)

		go run(o.sources.AUR, &aur, "aur")
	}

	if o.sources.Local != nil {
		local = o.sources.Local(query)
	}

	wg.Wait()

	merged := make([]domain.PackageItem, 0, len(official)+len(aur)+len(local))
	merged = append(merged, official...)
	merged = append(merged, aur...)
	merged = append(merged, local...)

	return merged
}

func (o *Orchestrator) cancelInFlight() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

// deliver sends without blocking; if the consumer lags, the oldest
// undelivered set is discarded in favor of the newer one.
func (o *Orchestrator) deliver(res Results) {
	for {
		select {
		case o.results <- res:
			return
		default:
			select {
			case <-o.results:
			default:
			}
		}
	}
}

// LocalSource adapts an installed-package snapshot into the local
// fan-out target: case-insensitive substring match on the name, capped
// like the remote sources.
func LocalSource(snapshot func() []domain.PackageItem) func(string) []domain.PackageItem {
	const maxLocal = 200

	return func(query string) []domain.PackageItem {
		q := strings.ToLower(strings.TrimSpace(query))

		var out []domain.PackageItem

		for _, item := range snapshot() {
			if len(out) >= maxLocal {
				break
			}

			if strings.Contains(strings.ToLower(item.Name), q) {
				out = append(out, item)
			}
		}

		return out
	}
}
