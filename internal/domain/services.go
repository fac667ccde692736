// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

// RestartDecision is the per-unit action chosen for a service affected
// by a transaction.
type RestartDecision int

// Restart decisions.
const (
	DecisionRestart RestartDecision = iota
	DecisionDefer
	DecisionSkip
)

// ServiceImpact describes one systemd unit affected by a transaction.
// RestartDecision starts at the recommendation and is user-mutable.
type ServiceImpact struct {
	UnitName            string          `json:"unit_name"`
	Providers           []string        `json:"providers"`
	IsActive            bool            `json:"is_active"`
	NeedsRestart        bool            `json:"needs_restart"`
	RecommendedDecision RestartDecision `json:"recommended_decision"`
	RestartDecision     RestartDecision `json:"restart_decision"`
}

// RecommendDecision applies the decision policy: Restart for active
// units whose on-disk file changes, Defer for active units whose files
// do not change, Skip otherwise.
func RecommendDecision(isActive, needsRestart bool) RestartDecision {
	switch {
	case isActive && needsRestart:
		return DecisionRestart
	case isActive:
		return DecisionDefer
	default:
		return DecisionSkip
	}
}

// NewServiceImpact builds a ServiceImpact with the recommended decision
// pre-applied to RestartDecision.
func NewServiceImpact(unit string, providers []string, isActive, needsRestart bool) ServiceImpact {
	rec := RecommendDecision(isActive, needsRestart)

	return ServiceImpact{
		UnitName:            unit,
		Providers:           providers,
		IsActive:            isActive,
		NeedsRestart:        needsRestart,
		RecommendedDecision: rec,
		RestartDecision:     rec,
	}
}
