// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package domain_test

import (
	"testing"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSplitDepSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec           string
		wantName       string
		wantConstraint string
	}{
		{"glibc", "glibc", ""},
		{"glibc>=2.38", "glibc", ">=2.38"},
		{"python=3.12.1", "python", "=3.12.1"},
		{"gcc-libs<14", "gcc-libs", "<14"},
		{"libgit2: for git support", "libgit2", ""},
		{"foo=1:2.3", "foo", "=1:2.3"},
		{"bar>=2:10.0-1: with epoch and note", "bar", ">=2:10.0-1"},
		{"  spaced >= 1.0 ", "spaced", ">=1.0"},
	}

	for _, tt := range tests {
		name, constraint := domain.SplitDepSpec(tt.spec)
		assert.Equal(t, tt.wantName, name, tt.spec)
		assert.Equal(t, tt.wantConstraint, constraint, tt.spec)
	}
}

func TestVersionSatisfies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		installed  string
		constraint string
		want       bool
	}{
		{"unversioned_installed", "2.39-1", "", true},
		{"unversioned_missing", "", "", false},
		{"ge_satisfied", "2.39-1", ">=2.38", true},
		{"ge_unsatisfied", "2.37-2", ">=2.38", false},
		{"exact_with_pkgrel", "3.12.1-1", "=3.12.1", true},
		{"lt_satisfied", "13.2.0-1", "<14", true},
		{"epoch_prefix_lenient", "1:1.2.3-1", ">=1.2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, domain.VersionSatisfies(tt.installed, tt.constraint))
		})
	}
}

func TestNewDependencyDelta(t *testing.T) {
	t.Parallel()

	installed := domain.NewDependencyDelta("glibc>=2.38", "2.39-1")
	assert.True(t, installed.IsInstalled)
	assert.True(t, installed.VersionSatisfied)
	assert.Equal(t, "glibc", installed.Name)

	outdated := domain.NewDependencyDelta("glibc>=2.40", "2.39-1")
	assert.True(t, outdated.IsInstalled)
	assert.False(t, outdated.VersionSatisfied)

	missing := domain.NewDependencyDelta("nonexistent-lib", "")
	assert.False(t, missing.IsInstalled)
	assert.False(t, missing.VersionSatisfied)
}
