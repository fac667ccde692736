// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/index"
	"github.com/pacsea/pacsea/internal/preflight"
	"github.com/pacsea/pacsea/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Dependency specs carry a bare name with no repo or architecture; the
// resolver must reach the exact-name search endpoint instead of hitting
// the detail endpoint with empty path segments.
func TestDepsResolveBareNamesAgainstOfficialSearch(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Path)
		mu.Unlock()

		switch {
		case r.URL.Path == "/packages/extra/x86_64/rootpkg/json/":
			_, _ = w.Write([]byte(`{"pkgname":"rootpkg","pkgver":"1.0","pkgrel":"1","repo":"extra","arch":"x86_64","depends":["bar"]}`))
		case r.URL.Path == "/packages/search/json/" && r.URL.Query().Get("name") == "bar":
			_, _ = w.Write([]byte(`{"results":[{"pkgname":"bar","pkgver":"2.0","pkgrel":"3","repo":"extra","arch":"x86_64"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	restore := sources.SetOfficialBase(server.URL)
	defer restore()

	idx := index.New(t.TempDir())
	engine := preflight.NewEngine(idx, preflight.NewSourceMetadata(sources.NewClient()), fakeProber{})

	items := []domain.PackageItem{{Name: "rootpkg", Version: "1.0-1", Source: domain.Official("extra", "x86_64")}}
	sig := domain.ComputeSignature(items)

	engine.Start(context.Background(), preflight.ArtifactDeps, items)
	waitResolved(t, engine, sig, preflight.ArtifactDeps)

	deps := engine.Deps(sig, map[string]struct{}{"rootpkg": {}})

	byName := make(map[string]domain.DependencyInfo, len(deps))
	for _, dep := range deps {
		byName[dep.Name] = dep
	}

	bar, ok := byName["bar"]
	require.True(t, ok)
	assert.Equal(t, domain.DepToInstall, bar.Status.Kind, "an available official dependency installs")
	assert.Equal(t, "2.0-3", bar.Version)

	mu.Lock()
	defer mu.Unlock()

	for _, path := range seen {
		assert.NotContains(t, path, "//", "empty repo/arch segments reach a 404")
	}
}

// A bare name absent from the official repos can still be an AUR
// package when the transaction came from the AUR.
func TestBareNameFallsBackToSrcinfo(t *testing.T) {
	official := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer official.Close()

	aur := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgit/aur.git/plain/.SRCINFO", r.URL.Path)
		_, _ = w.Write([]byte("pkgbase = helper\npkgname = helper\npkgver = 0.3\npkgrel = 2\ndepends = glibc\n"))
	}))
	defer aur.Close()

	restoreOfficial := sources.SetOfficialBase(official.URL)
	defer restoreOfficial()

	restoreAUR := sources.SetAURBase(aur.URL)
	defer restoreAUR()

	meta := preflight.NewSourceMetadata(sources.NewClient())

	info, err := meta.PackageInfo(context.Background(), domain.PackageItem{Name: "helper", Source: domain.Official("", "")})
	require.NoError(t, err)
	assert.Equal(t, "0.3-2", info.Version)
	assert.Equal(t, []string{"glibc"}, info.Depends)
}
