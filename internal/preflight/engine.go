// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

// Package preflight computes the transaction preview shown before any
// pacman call: the resolved dependency graph, predicted file changes,
// affected systemd units and the AUR sandbox view. Artifacts are cached
// per transaction signature and resolved by background tasks that
// stream partial results into the cache.
package preflight

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/index"
	"github.com/pacsea/pacsea/internal/logger"
)

// ArtifactKind names one preflight tab's artifact.
type ArtifactKind int

// Artifact kinds, one per preflight tab that owns a cache.
const (
	ArtifactDeps ArtifactKind = iota
	ArtifactFiles
	ArtifactServices
	ArtifactSandbox
)

func (k ArtifactKind) String() string {
	switch k {
	case ArtifactDeps:
		return "deps"
	case ArtifactFiles:
		return "files"
	case ArtifactServices:
		return "services"
	case ArtifactSandbox:
		return "sandbox"
	default:
		return "unknown"
	}
}

// CascadeMode selects how far the Remove summary expands reverse
// dependencies.
type CascadeMode int

// Cascade modes.
const (
	CascadeBasic CascadeMode = iota
	CascadeDeep
)

// Update is delivered whenever a resolver writes new data, so the
// dispatch core can trigger a re-render.
type Update struct {
	Signature string
	Kind      ArtifactKind
}

// cacheEntry holds every artifact for one transaction signature.
type cacheEntry struct {
	deps     map[string]domain.DependencyInfo
	files    map[string]domain.PackageFileInfo
	services []domain.ServiceImpact
	sandbox  map[string]domain.SandboxInfo
}

func newCacheEntry() *cacheEntry {
	return &cacheEntry{
		deps:    make(map[string]domain.DependencyInfo),
		files:   make(map[string]domain.PackageFileInfo),
		sandbox: make(map[string]domain.SandboxInfo),
	}
}

// Engine owns the preflight caches and resolver lifecycle.
type Engine struct {
	idx  *index.Index
	meta Metadata
	svc  ServiceProber

	cancelled atomic.Bool

	mu        sync.Mutex
	caches    map[string]*cacheEntry
	resolving map[string]bool // sig + "/" + kind

	updates chan Update
}

// NewEngine builds the engine over the local index, a metadata source
// and a systemd prober.
func NewEngine(idx *index.Index, meta Metadata, svc ServiceProber) *Engine {
	return &Engine{
		idx:       idx,
		meta:      meta,
		svc:       svc,
		caches:    make(map[string]*cacheEntry),
		resolving: make(map[string]bool),
		updates:   make(chan Update, 16),
	}
}

// Updates notifies about cache writes. Sends are non-blocking; the
// consumer polls snapshots on its tick anyway.
func (e *Engine) Updates() <-chan Update {
	return e.updates
}

// Cancel makes every in-flight resolver abandon at its next step.
func (e *Engine) Cancel() {
	e.cancelled.Store(true)
}

// Cancelled reports the cancellation flag; resolvers observe it at each
// step.
func (e *Engine) Cancelled() bool {
	return e.cancelled.Load()
}

// Resolving reports whether a resolver is in flight for this signature
// and artifact.
func (e *Engine) Resolving(sig string, kind ArtifactKind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.resolving[sig+"/"+kind.String()]
}

// Start spawns a background resolver for the artifact unless the cache
// already holds data for this signature or a resolver is in flight.
// Starting clears the cancellation flag.
func (e *Engine) Start(ctx context.Context, kind ArtifactKind, items []domain.PackageItem) {
	sig := domain.ComputeSignature(items)
	key := sig + "/" + kind.String()

	e.mu.Lock()

	if e.resolving[key] || e.hasArtifactLocked(sig, kind) {
		e.mu.Unlock()

		return
	}

	e.resolving[key] = true
	e.mu.Unlock()

	e.cancelled.Store(false)

	snapshot := make([]domain.PackageItem, len(items))
	copy(snapshot, items)

	go func() {
		defer e.finishResolving(key)

		switch kind {
		case ArtifactDeps:
			e.resolveDeps(ctx, sig, snapshot)
		case ArtifactFiles:
			e.resolveFiles(sig, snapshot)
		case ArtifactServices:
			e.resolveServices(sig, snapshot)
		case ArtifactSandbox:
			e.resolveSandbox(ctx, sig, snapshot)
		}
	}()
}

func (e *Engine) finishResolving(key string) {
	e.mu.Lock()
	delete(e.resolving, key)
	e.mu.Unlock()
}

func (e *Engine) hasArtifactLocked(sig string, kind ArtifactKind) bool {
	entry, ok := e.caches[sig]
	if !ok {
		return false
	}

	switch kind {
	case ArtifactDeps:
		return len(entry.deps) > 0
	case ArtifactFiles:
		return len(entry.files) > 0
	case ArtifactServices:
		return len(entry.services) > 0
	case ArtifactSandbox:
		return len(entry.sandbox) > 0
	default:
		return false
	}
}

func (e *Engine) entry(sig string) *cacheEntry {
	entry, ok := e.caches[sig]
	if !ok {
		entry = newCacheEntry()
		e.caches[sig] = entry
	}

	return entry
}

// notify wakes the consumer without ever blocking a resolver.
func (e *Engine) notify(sig string, kind ArtifactKind) {
	select {
	case e.updates <- Update{Signature: sig, Kind: kind}:
	default:
	}
}

// applyDeps merges a resolver batch into the cache. Merge precedence
// lives in domain.MergeDependencyMap: a cached Conflict entry is never
// overwritten by an incoming ToInstall from another package's
// resolution.
func (e *Engine) applyDeps(sig string, batch []domain.DependencyInfo) {
	e.mu.Lock()
	domain.MergeDependencyMap(e.entry(sig).deps, batch)
	e.mu.Unlock()

	e.notify(sig, ArtifactDeps)
}

// Deps returns the cached dependency snapshot, filtered to entries
// reachable from the current item names so stale entries from removed
// packages disappear. Sorted by name for a stable listing.
func (e *Engine) Deps(sig string, current map[string]struct{}) []domain.DependencyInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.caches[sig]
	if !ok {
		return nil
	}

	out := make([]domain.DependencyInfo, 0, len(entry.deps))

	for _, dep := range entry.deps {
		if !reachable(dep, current) {
			continue
		}

		out = append(out, dep)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// reachable keeps a node when it is itself a transaction item or is
// required by one.
func reachable(dep domain.DependencyInfo, current map[string]struct{}) bool {
	if len(current) == 0 {
		return true
	}

	if _, ok := current[dep.Name]; ok {
		return true
	}

	for _, parent := range dep.RequiredBy {
		if _, ok := current[parent]; ok {
			return true
		}
	}

	return false
}

// Files returns the cached per-package file predictions in item-name
// order.
func (e *Engine) Files(sig string, names []string) []domain.PackageFileInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.caches[sig]
	if !ok {
		return nil
	}

	out := make([]domain.PackageFileInfo, 0, len(names))

	for _, name := range names {
		if info, ok := entry.files[name]; ok {
			out = append(out, info)
		}
	}

	return out
}

// Services returns the cached service impacts.
func (e *Engine) Services(sig string) []domain.ServiceImpact {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.caches[sig]
	if !ok {
		return nil
	}

	out := make([]domain.ServiceImpact, len(entry.services))
	copy(out, entry.services)

	return out
}

// SetServiceDecision records the user's override for one unit.
func (e *Engine) SetServiceDecision(sig, unit string, decision domain.RestartDecision) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.caches[sig]
	if !ok {
		return
	}

	for i := range entry.services {
		if entry.services[i].UnitName == unit {
			entry.services[i].RestartDecision = decision

			return
		}
	}

	logger.Debug("service decision for unknown unit", logger.Fields{"unit": unit})
}

// Sandbox returns the cached sandbox views in item-name order.
func (e *Engine) Sandbox(sig string, names []string) []domain.SandboxInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.caches[sig]
	if !ok {
		return nil
	}

	out := make([]domain.SandboxInfo, 0, len(names))

	for _, name := range names {
		if info, ok := entry.sandbox[name]; ok {
			out = append(out, info)
		}
	}

	return out
}
