// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package sources_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchOfficialParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rip", r.URL.Query().Get("q"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Pacsea/")

		_, _ = w.Write([]byte(`{"results":[
			{"pkgname":"ripgrep","pkgver":"14.1.0","pkgrel":"1","pkgdesc":"search tool","repo":"extra","arch":"x86_64"},
			{"pkgname":"","pkgver":"1","repo":"extra","arch":"x86_64"}
		]}`))
	}))
	defer server.Close()

	restore := sources.SetOfficialBase(server.URL)
	defer restore()

	items, err := sources.NewClient().SearchOfficial(context.Background(), "rip")
	require.NoError(t, err)
	require.Len(t, items, 1, "empty names are dropped")
	assert.Equal(t, "ripgrep", items[0].Name)
	assert.Equal(t, "14.1.0-1", items[0].Version)
	assert.Equal(t, "extra", items[0].Source.Repo)
}

func TestSearchAURParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "name", r.URL.Query().Get("by"))

		_, _ = w.Write([]byte(`{"results":[
			{"Name":"pacsea-bin","Version":"1.2.0-1","Description":"TUI","Popularity":4.2,"Maintainer":null,"OutOfDate":null}
		]}`))
	}))
	defer server.Close()

	restore := sources.SetAURBase(server.URL)
	defer restore()

	items, err := sources.NewClient().SearchAUR(context.Background(), "pacsea")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.SourceAUR, items[0].Source.Kind)
	assert.InDelta(t, 4.2, items[0].Popularity, 0.001)
	assert.True(t, items[0].Orphaned, "null maintainer means orphaned")
}

func TestGetClassifiesRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	restore := sources.SetOfficialBase(server.URL)
	defer restore()

	_, err := sources.NewClient().SearchOfficial(context.Background(), "x")
	require.Error(t, err)

	assert.Equal(t, domain.KindRateLimited, domain.Classify(err))

	var classified *domain.ClassifiedError
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, 120, classified.RetryAfter)
}

func TestGetClassifiesMalformedJSONAsParse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	restore := sources.SetAURBase(server.URL)
	defer restore()

	_, err := sources.NewClient().SearchAUR(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, domain.KindParse, domain.Classify(err))
}

func TestDetailsDegradesToIdentityOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	restore := sources.SetAURBase(server.URL)
	defer restore()

	item := domain.PackageItem{Name: "pacsea-bin", Version: "1.2.0-1", Source: domain.AUR()}
	details := sources.NewClient().Details(context.Background(), item)

	assert.Equal(t, "pacsea-bin", details.Name)
	assert.Equal(t, "1.2.0-1", details.Version)
	assert.Empty(t, details.Description, "absent fields stay zero for N/A rendering")
}

func TestParseSrcinfo(t *testing.T) {
	t.Parallel()

	content := `
pkgbase = pacsea-bin
	pkgname = pacsea-bin
	pkgver = 1.2.0
	pkgrel = 1
	depends = glibc>=2.38
	depends = gcc-libs
	depends_x86_64 = libgit2
	makedepends = git
	checkdepends = python-pytest
	optdepends = xclip: clipboard support
	conflicts = pacsea
	conflicts = pacsea-git
	provides = pacsea
`

	info := sources.ParseSrcinfo(content)

	assert.Equal(t, "pacsea-bin", info.PkgName)
	assert.Equal(t, "1.2.0-1", info.Version())
	assert.Equal(t, []string{"glibc>=2.38", "gcc-libs", "libgit2"}, info.Depends)
	assert.Equal(t, []string{"git"}, info.MakeDepends)
	assert.Equal(t, []string{"python-pytest"}, info.CheckDepends)
	assert.Equal(t, []string{"xclip: clipboard support"}, info.OptDepends)
	assert.Equal(t, []string{"pacsea", "pacsea-git"}, info.Conflicts)
}
