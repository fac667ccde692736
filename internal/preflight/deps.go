// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package preflight

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/logger"
)

// resolveDeps walks the transitive dependency graph of the transaction
// and streams one batch per root item into the cache, so the Deps tab
// fills in as packages resolve instead of all at once.
func (e *Engine) resolveDeps(ctx context.Context, sig string, items []domain.PackageItem) {
	inTransaction := make(map[string]struct{}, len(items))
	for _, item := range items {
		inTransaction[item.Name] = struct{}{}
	}

	visited := make(map[string]struct{})

	for _, item := range items {
		if e.Cancelled() {
			logger.Debug("dependency resolution abandoned", logger.Fields{"signature": sig})

			return
		}

		batch := e.resolveItemDeps(ctx, item, inTransaction, visited)
		if len(batch) > 0 {
			e.applyDeps(sig, batch)
		}
	}
}

// resolveItemDeps resolves one root item and its transitive closure.
// visited is shared across roots so a dependency reached from two roots
// resolves once; its RequiredBy union happens at merge time.
func (e *Engine) resolveItemDeps(ctx context.Context, item domain.PackageItem, inTransaction, visited map[string]struct{}) []domain.DependencyInfo {
	var batch []domain.DependencyInfo

	root := domain.DependencyInfo{
		Name:    item.Name,
		Version: item.Version,
		Source:  item.Source,
		Status:  domain.DepStatus{Kind: domain.DepToInstall},
	}

	deps, conflicts := e.lookupDeps(ctx, item)
	root.DependsOn = depNames(deps)

	if reasons := e.idx.ConflictsWith(item.Name, conflicts); len(reasons) > 0 {
		root.Status = domain.Conflict(conflictReason(reasons))
	}

	batch = append(batch, root)
	visited[item.Name] = struct{}{}

	type edge struct {
		name   string
		parent string
	}

	queue := make([]edge, 0, len(deps))
	for _, spec := range deps {
		name, _ := domain.SplitDepSpec(spec)
		queue = append(queue, edge{name: name, parent: item.Name})
	}

	for len(queue) > 0 {
		if e.Cancelled() {
			return batch
		}

		next := queue[0]
		queue = queue[1:]

		if _, seen := visited[next.name]; seen {
			// Already resolved; record the extra dependent only.
			batch = append(batch, domain.DependencyInfo{
				Name:       next.name,
				RequiredBy: []string{next.parent},
				Status:     domain.DepStatus{Kind: domain.DepToInstall},
			})

			continue
		}

		visited[next.name] = struct{}{}

		node := e.resolveNode(ctx, next.name, next.parent, inTransaction)
		batch = append(batch, node)

		if node.Status.Kind == domain.DepToInstall {
			for _, spec := range node.DependsOn {
				name, _ := domain.SplitDepSpec(spec)
				queue = append(queue, edge{name: name, parent: next.name})
			}
		}
	}

	return batch
}

// resolveNode classifies one reached package. Installed packages close
// the walk at that branch; to-install packages keep expanding.
func (e *Engine) resolveNode(ctx context.Context, name, parent string, inTransaction map[string]struct{}) domain.DependencyInfo {
	node := domain.DependencyInfo{
		Name:       name,
		RequiredBy: []string{parent},
	}

	if local, ok := e.idx.Get(name); ok {
		node.Version = local.Version
		node.Status = domain.DepStatus{Kind: domain.DepInstalled}

		return node
	}

	item := domain.PackageItem{Name: name, Source: domain.Official("", "")}

	meta, err := e.meta.PackageInfo(ctx, item)
	if err != nil {
		// Unknown to both the local db and the remote indices.
		logger.Debug("dependency metadata unavailable", logger.Fields{"package": name, "error": err})
		node.Status = domain.DepStatus{Kind: domain.DepMissing}

		return node
	}

	node.Version = meta.Version
	node.DependsOn = depNames(meta.Depends)
	node.Status = domain.DepStatus{Kind: domain.DepToInstall}

	if reasons := e.idx.ConflictsWith(name, meta.Conflicts); len(reasons) > 0 {
		node.Status = domain.Conflict(conflictReason(reasons))
	}

	return node
}

// lookupDeps prefers the local database record and falls back to the
// metadata source for packages not yet installed.
func (e *Engine) lookupDeps(ctx context.Context, item domain.PackageItem) (deps, conflicts []string) {
	if local, ok := e.idx.Get(item.Name); ok {
		return local.Depends, local.Conflicts
	}

	meta, err := e.meta.PackageInfo(ctx, item)
	if err != nil {
		logger.Debug("transaction item metadata unavailable", logger.Fields{"package": item.Name, "error": err})

		return nil, nil
	}

	return meta.Depends, meta.Conflicts
}

func depNames(specs []string) []string {
	out := make([]string, 0, len(specs))

	for _, spec := range specs {
		name, _ := domain.SplitDepSpec(spec)
		if name != "" {
			out = append(out, name)
		}
	}

	return out
}

func conflictReason(installed []string) string {
	return fmt.Sprintf("conflicts with installed %s", strings.Join(installed, ", "))
}

// RemoveCascade lists the installed packages that would break if the
// given names were removed. Basic mode reports direct dependents only;
// Deep expands the reverse closure.
func (e *Engine) RemoveCascade(names []string, mode CascadeMode) []string {
	removed := make(map[string]struct{}, len(names))
	for _, name := range names {
		removed[name] = struct{}{}
	}

	var cascade []string

	for {
		// Round against a frozen set so Basic mode never chains
		// dependents-of-dependents inside a single pass.
		round := e.directDependents(removed)
		if len(round) == 0 {
			break
		}

		cascade = append(cascade, round...)

		for _, name := range round {
			removed[name] = struct{}{}
		}

		if mode == CascadeBasic {
			break
		}
	}

	sort.Strings(cascade)

	return cascade
}

func (e *Engine) directDependents(removed map[string]struct{}) []string {
	var out []string

	for _, pkg := range e.idx.AllInstalled() {
		if _, gone := removed[pkg.Name]; gone {
			continue
		}

		local, ok := e.idx.Get(pkg.Name)
		if !ok {
			continue
		}

		for _, spec := range local.Depends {
			dep, _ := domain.SplitDepSpec(spec)
			if _, gone := removed[dep]; gone {
				out = append(out, pkg.Name)

				break
			}
		}
	}

	return out
}
