// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package preflight_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/index"
	"github.com/pacsea/pacsea/internal/preflight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixturePkg struct {
	name      string
	version   string
	depends   []string
	conflicts []string
	files     []string
	backup    []string
	reason    string
}

func writeFixture(t *testing.T, root string, pkgs []fixturePkg) {
	t.Helper()

	for _, pkg := range pkgs {
		dir := filepath.Join(root, "local", pkg.name+"-"+pkg.version)
		require.NoError(t, os.MkdirAll(dir, 0o755))

		desc := fmt.Sprintf("%%NAME%%\n%s\n\n%%VERSION%%\n%s\n", pkg.name, pkg.version)

		if len(pkg.depends) > 0 {
			desc += "\n%DEPENDS%\n"
			for _, dep := range pkg.depends {
				desc += dep + "\n"
			}
		}

		if len(pkg.conflicts) > 0 {
			desc += "\n%CONFLICTS%\n"
			for _, c := range pkg.conflicts {
				desc += c + "\n"
			}
		}

		if pkg.reason != "" {
			desc += "\n%REASON%\n" + pkg.reason + "\n"
		}

		require.NoError(t, os.WriteFile(filepath.Join(dir, "desc"), []byte(desc), 0o644))

		if len(pkg.files) > 0 {
			data := "%FILES%\n"
			for _, f := range pkg.files {
				data += f + "\n"
			}

			if len(pkg.backup) > 0 {
				data += "\n%BACKUP%\n"
				for _, b := range pkg.backup {
					data += b + "\n"
				}
			}

			require.NoError(t, os.WriteFile(filepath.Join(dir, "files"), []byte(data), 0o644))
		}
	}
}

type fakeMetadata struct {
	pkgs  map[string]preflight.PackageMeta
	calls atomic.Int32
	gate  chan struct{} // when set, PackageInfo blocks until closed
}

func (m *fakeMetadata) PackageInfo(_ context.Context, item domain.PackageItem) (preflight.PackageMeta, error) {
	m.calls.Add(1)

	if m.gate != nil {
		<-m.gate
	}

	meta, ok := m.pkgs[item.Name]
	if !ok {
		return preflight.PackageMeta{}, fmt.Errorf("no metadata for %s", item.Name)
	}

	return meta, nil
}

type fakeProber struct {
	active map[string]bool
}

func (p fakeProber) IsActive(unit string) bool {
	return p.active[unit]
}

func waitResolved(t *testing.T, engine *preflight.Engine, sig string, kind preflight.ArtifactKind) {
	t.Helper()

	require.Eventually(t, func() bool {
		return !engine.Resolving(sig, kind)
	}, 2*time.Second, 5*time.Millisecond)
}

// Two transaction items reach the same dependency; the first resolution
// marks it as a conflict with an installed package, and the second
// item's plain to-install sighting must not downgrade it.
func TestDepsConflictSurvivesSecondResolution(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFixture(t, root, []fixturePkg{
		{name: "pacsea", version: "0.8.0-1"},
	})

	idx := index.New(root)
	meta := &fakeMetadata{pkgs: map[string]preflight.PackageMeta{
		"alpha":  {Version: "1.0-1", Depends: []string{"shared"}},
		"beta":   {Version: "2.0-1", Depends: []string{"shared"}},
		"shared": {Version: "3.0-1", Conflicts: []string{"pacsea"}},
	}}

	engine := preflight.NewEngine(idx, meta, fakeProber{})

	items := []domain.PackageItem{
		{Name: "alpha", Version: "1.0-1", Source: domain.AUR()},
		{Name: "beta", Version: "2.0-1", Source: domain.AUR()},
	}
	sig := domain.ComputeSignature(items)

	engine.Start(context.Background(), preflight.ArtifactDeps, items)
	waitResolved(t, engine, sig, preflight.ArtifactDeps)

	current := map[string]struct{}{"alpha": {}, "beta": {}}
	deps := engine.Deps(sig, current)

	byName := make(map[string]domain.DependencyInfo, len(deps))
	for _, dep := range deps {
		byName[dep.Name] = dep
	}

	shared, ok := byName["shared"]
	require.True(t, ok)
	assert.Equal(t, domain.DepConflict, shared.Status.Kind, "conflict is absorbing")
	assert.Contains(t, shared.Status.Reason, "pacsea")
	assert.ElementsMatch(t, []string{"alpha", "beta"}, shared.RequiredBy)

	assert.Equal(t, domain.DepToInstall, byName["alpha"].Status.Kind)
	assert.Equal(t, domain.DepToInstall, byName["beta"].Status.Kind)
}

func TestDepsInstalledDependencyClosesWalk(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFixture(t, root, []fixturePkg{
		{name: "glibc", version: "2.39-1", depends: []string{"linux-api-headers"}},
	})

	idx := index.New(root)
	meta := &fakeMetadata{pkgs: map[string]preflight.PackageMeta{
		"ripgrep": {Version: "14.1.1-1", Depends: []string{"glibc>=2.38"}},
	}}

	engine := preflight.NewEngine(idx, meta, fakeProber{})

	items := []domain.PackageItem{{Name: "ripgrep", Version: "14.1.1-1", Source: domain.Official("extra", "x86_64")}}
	sig := domain.ComputeSignature(items)

	engine.Start(context.Background(), preflight.ArtifactDeps, items)
	waitResolved(t, engine, sig, preflight.ArtifactDeps)

	deps := engine.Deps(sig, map[string]struct{}{"ripgrep": {}})
	require.Len(t, deps, 2)

	// Sorted by name: glibc then ripgrep.
	assert.Equal(t, "glibc", deps[0].Name)
	assert.Equal(t, domain.DepInstalled, deps[0].Status.Kind)
	assert.Equal(t, []string{"ripgrep"}, deps[0].RequiredBy)
	assert.Equal(t, "2.39-1", deps[0].Version)

	// The installed node closes the branch: its own dependency is not
	// expanded.
	assert.NotEqual(t, "linux-api-headers", deps[1].Name)
}

func TestStartSkipsWhileResolving(t *testing.T) {
	t.Parallel()

	idx := index.New(t.TempDir())
	meta := &fakeMetadata{
		pkgs: map[string]preflight.PackageMeta{"alpha": {Version: "1-1"}},
		gate: make(chan struct{}),
	}

	engine := preflight.NewEngine(idx, meta, fakeProber{})

	items := []domain.PackageItem{{Name: "alpha", Version: "1-1", Source: domain.AUR()}}
	sig := domain.ComputeSignature(items)

	engine.Start(context.Background(), preflight.ArtifactDeps, items)

	require.Eventually(t, func() bool {
		return meta.calls.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	// A second Start for the same signature is a no-op while the first
	// resolver is in flight.
	engine.Start(context.Background(), preflight.ArtifactDeps, items)
	assert.True(t, engine.Resolving(sig, preflight.ArtifactDeps))

	close(meta.gate)
	waitResolved(t, engine, sig, preflight.ArtifactDeps)

	assert.Equal(t, int32(1), meta.calls.Load())
}

func TestCancelAbandonsRemainingItems(t *testing.T) {
	t.Parallel()

	idx := index.New(t.TempDir())
	meta := &fakeMetadata{
		pkgs: map[string]preflight.PackageMeta{
			"alpha": {Version: "1-1"},
			"beta":  {Version: "2-1"},
		},
		gate: make(chan struct{}),
	}

	engine := preflight.NewEngine(idx, meta, fakeProber{})

	items := []domain.PackageItem{
		{Name: "alpha", Version: "1-1", Source: domain.AUR()},
		{Name: "beta", Version: "2-1", Source: domain.AUR()},
	}
	sig := domain.ComputeSignature(items)

	engine.Start(context.Background(), preflight.ArtifactDeps, items)

	require.Eventually(t, func() bool {
		return meta.calls.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	engine.Cancel()
	close(meta.gate)
	waitResolved(t, engine, sig, preflight.ArtifactDeps)

	deps := engine.Deps(sig, nil)
	names := make([]string, 0, len(deps))
	for _, dep := range deps {
		names = append(names, dep.Name)
	}

	assert.NotContains(t, names, "beta", "items after the cancel point are abandoned")
}

func TestFilesPrediction(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFixture(t, root, []fixturePkg{
		{
			name:    "nginx",
			version: "1.26.0-1",
			files:   []string{"usr/bin/nginx", "etc/nginx/nginx.conf", "usr/share/nginx/blocked.conf", "usr/share/doc/"},
			// %BACKUP% carries the packaged md5 after a tab.
			backup: []string{"etc/nginx/nginx.conf\td41d8cd98f00b204e9800998ecf8427e", "usr/share/nginx/blocked.conf\t900150983cd24fb0d6963f7d28e17f72"},
		},
	})

	idx := index.New(root)
	engine := preflight.NewEngine(idx, &fakeMetadata{}, fakeProber{})

	items := []domain.PackageItem{
		{Name: "nginx", Version: "1.27.0-1", Source: domain.Official("extra", "x86_64")}, // upgrade
		{Name: "ghost", Version: "1-1", Source: domain.AUR()},                            // not installed
	}
	sig := domain.ComputeSignature(items)

	engine.Start(context.Background(), preflight.ArtifactFiles, items)
	waitResolved(t, engine, sig, preflight.ArtifactFiles)

	infos := engine.Files(sig, []string{"nginx", "ghost"})
	require.Len(t, infos, 2)

	nginx := infos[0]
	assert.Equal(t, 1, nginx.ChangedCount)
	assert.Equal(t, 2, nginx.ConfigCount, "backup entries outside /etc count as config")
	assert.Equal(t, 2, nginx.PacnewCount, "config differing on upgrade predicts .pacnew")
	require.Len(t, nginx.Files, 3, "directories are excluded")

	ghost := infos[1]
	assert.Equal(t, "ghost", ghost.Package)
	assert.Zero(t, ghost.NewCount+ghost.ChangedCount+ghost.ConfigCount, "absent packages are zero-filled")
}

func TestServicesRecommendations(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFixture(t, root, []fixturePkg{
		{
			name:    "openssh",
			version: "9.7p1-1",
			files:   []string{"usr/bin/ssh", "usr/lib/systemd/system/sshd.service"},
		},
		{
			name:    "avahi",
			version: "1.0-1",
			files:   []string{"usr/lib/systemd/system/avahi-daemon.service"},
		},
	})

	idx := index.New(root)
	prober := fakeProber{active: map[string]bool{"sshd.service": true, "avahi-daemon.service": true}}
	engine := preflight.NewEngine(idx, &fakeMetadata{}, prober)

	items := []domain.PackageItem{
		{Name: "openssh", Version: "9.8p1-1", Source: domain.Official("core", "x86_64")}, // upgrade
		{Name: "avahi", Version: "1.0-1", Source: domain.Official("extra", "x86_64")},    // reinstall
	}
	sig := domain.ComputeSignature(items)

	engine.Start(context.Background(), preflight.ArtifactServices, items)
	waitResolved(t, engine, sig, preflight.ArtifactServices)

	impacts := engine.Services(sig)
	require.Len(t, impacts, 2)

	// Sorted by unit name: avahi-daemon.service, sshd.service.
	avahi, sshd := impacts[0], impacts[1]

	assert.Equal(t, domain.DecisionDefer, avahi.RecommendedDecision, "active unit whose file does not change defers")
	assert.Equal(t, domain.DecisionRestart, sshd.RecommendedDecision, "active unit whose file changes restarts")
	assert.Equal(t, sshd.RecommendedDecision, sshd.RestartDecision)

	engine.SetServiceDecision(sig, "sshd.service", domain.DecisionSkip)

	impacts = engine.Services(sig)
	assert.Equal(t, domain.DecisionSkip, impacts[1].RestartDecision)
	assert.Equal(t, domain.DecisionRestart, impacts[1].RecommendedDecision, "the recommendation is preserved")
}

func TestSandboxBucketsAURonly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFixture(t, root, []fixturePkg{
		{name: "glibc", version: "2.39-1"},
	})

	idx := index.New(root)
	meta := &fakeMetadata{pkgs: map[string]preflight.PackageMeta{
		"pacsea-git": {
			Version:     "0.9.0-1",
			Depends:     []string{"glibc>=2.38", "unobtainium"},
			MakeDepends: []string{"rust"},
		},
	}}

	engine := preflight.NewEngine(idx, meta, fakeProber{})

	items := []domain.PackageItem{
		{Name: "pacsea-git", Version: "0.9.0-1", Source: domain.AUR()},
		{Name: "ripgrep", Version: "14.1.1-1", Source: domain.Official("extra", "x86_64")},
	}
	sig := domain.ComputeSignature(items)

	engine.Start(context.Background(), preflight.ArtifactSandbox, items)
	waitResolved(t, engine, sig, preflight.ArtifactSandbox)

	infos := engine.Sandbox(sig, []string{"pacsea-git", "ripgrep"})
	require.Len(t, infos, 1, "official items produce no sandbox entry")

	info := infos[0]
	require.Len(t, info.Depends, 2)

	assert.True(t, info.Depends[0].IsInstalled)
	assert.True(t, info.Depends[0].VersionSatisfied)
	assert.False(t, info.Depends[1].IsInstalled)
	assert.False(t, info.Depends[1].VersionSatisfied)

	require.Len(t, info.MakeDepends, 1)
	assert.Equal(t, "rust", info.MakeDepends[0].Name)
}

func TestRemoveCascadeModes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFixture(t, root, []fixturePkg{
		{name: "liba", version: "1-1"},
		{name: "libb", version: "1-1", depends: []string{"liba"}, reason: "1"},
		{name: "app", version: "1-1", depends: []string{"libb"}},
	})

	idx := index.New(root)
	engine := preflight.NewEngine(idx, &fakeMetadata{}, fakeProber{})

	basic := engine.RemoveCascade([]string{"liba"}, preflight.CascadeBasic)
	assert.Equal(t, []string{"libb"}, basic)

	deep := engine.RemoveCascade([]string{"liba"}, preflight.CascadeDeep)
	assert.Equal(t, []string{"app", "libb"}, deep)
}
