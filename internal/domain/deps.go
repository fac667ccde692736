// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// DepStatusKind enumerates the resolution status of a dependency node.
type DepStatusKind int

// Dependency status kinds. Conflict is absorbing under merge.
const (
	DepInstalled DepStatusKind = iota
	DepToInstall
	DepConflict
	DepMissing
)

// DepStatus carries the status kind plus the conflict reason when the
// kind is DepConflict.
type DepStatus struct {
	Kind   DepStatusKind `json:"kind"`
	Reason string        `json:"reason,omitempty"`
}

// Conflict builds a conflict status with a human-readable reason.
func Conflict(reason string) DepStatus {
	return DepStatus{Kind: DepConflict, Reason: reason}
}

// DependencyInfo is a node in the resolved dependency graph of a
// preflight transaction.
type DependencyInfo struct {
	Name       string    `json:"name"`
	Version    string    `json:"version"`
	RequiredBy []string  `json:"required_by"` // ordered set, insertion order
	DependsOn  []string  `json:"depends_on"`
	Status     DepStatus `json:"status"`
	Source     Source    `json:"source"`
	IsCore     bool      `json:"is_core"`
	IsSystem   bool      `json:"is_system"`
}

// unionOrdered appends the elements of extra that are not already in
// base, preserving insertion order.
func unionOrdered(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, v := range base {
		seen[v] = struct{}{}
	}

	out := base
	for _, v := range extra {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}

	return out
}

// MergeDependency merges an incoming DependencyInfo into an existing
// entry for the same name and returns the result.
//
// Conflicts are absorbing: if either side is a Conflict the merged
// status is that Conflict, and an incoming ToInstall can never
// downgrade an existing Conflict. RequiredBy sets union in insertion
// order. When the incoming entry is ToInstall, the existing entry's
// source and version win.
func MergeDependency(existing, incoming DependencyInfo) DependencyInfo {
	merged := existing
	merged.RequiredBy = unionOrdered(existing.RequiredBy, incoming.RequiredBy)
	merged.DependsOn = unionOrdered(existing.DependsOn, incoming.DependsOn)
	merged.IsCore = existing.IsCore || incoming.IsCore
	merged.IsSystem = existing.IsSystem || incoming.IsSystem

	switch {
	case existing.Status.Kind == DepConflict:
		// Keep the existing conflict verbatim.
	case incoming.Status.Kind == DepConflict:
		merged.Status = incoming.Status
		merged.Source = incoming.Source
		merged.Version = incoming.Version
	case incoming.Status.Kind == DepToInstall:
		// Existing source/version win over a plain ToInstall.
		merged.Status = existing.Status
	default:
		merged.Status = incoming.Status
		merged.Source = incoming.Source
		merged.Version = incoming.Version
	}

	return merged
}

// MergeDependencyMap applies MergeDependency for every incoming entry
// against dst, inserting entries that are not present yet.
func MergeDependencyMap(dst map[string]DependencyInfo, incoming []DependencyInfo) {
	for _, dep := range incoming {
		if existing, ok := dst[dep.Name]; ok {
			dst[dep.Name] = MergeDependency(existing, dep)
		} else {
			dst[dep.Name] = dep
		}
	}
}

// ComputeSignature returns a stable hash identifying a transaction's
// content for cache keying. The hash covers the sorted
// (name, version, source) triples, so any permutation of items yields
// the same signature.
func ComputeSignature(items []PackageItem) string {
	triples := make([]string, 0, len(items))
	for _, item := range items {
		triples = append(triples, fmt.Sprintf("%s\x00%s\x00%s", item.Name, item.Version, item.Source.String()))
	}

	sort.Strings(triples)

	sum := sha256.Sum256([]byte(strings.Join(triples, "\x01")))

	return hex.EncodeToString(sum[:])
}
