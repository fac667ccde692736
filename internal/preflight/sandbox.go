// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package preflight

import (
	"context"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/logger"
)

// resolveSandbox builds the four dependency buckets for every AUR item
// from its .SRCINFO. Official items produce no sandbox entry.
func (e *Engine) resolveSandbox(ctx context.Context, sig string, items []domain.PackageItem) {
	for _, item := range items {
		if e.Cancelled() {
			return
		}

		if item.Source.Kind != domain.SourceAUR {
			continue
		}

		meta, err := e.meta.PackageInfo(ctx, item)
		if err != nil {
			logger.Debug("srcinfo unavailable for sandbox", logger.Fields{"package": item.Name, "error": err})

			continue
		}

		info := domain.SandboxInfo{
			Package:      item.Name,
			Depends:      e.deltas(meta.Depends),
			MakeDepends:  e.deltas(meta.MakeDepends),
			CheckDepends: e.deltas(meta.CheckDepends),
			OptDepends:   e.deltas(meta.OptDepends),
		}

		e.mu.Lock()
		e.entry(sig).sandbox[item.Name] = info
		e.mu.Unlock()

		e.notify(sig, ArtifactSandbox)
	}
}

func (e *Engine) deltas(specs []string) []domain.DependencyDelta {
	out := make([]domain.DependencyDelta, 0, len(specs))

	for _, spec := range specs {
		name, _ := domain.SplitDepSpec(spec)

		installed, err := e.idx.InstalledVersion(name)
		if err != nil {
			installed = ""
		}

		out = append(out, domain.NewDependencyDelta(spec, installed))
	}

	return out
}
