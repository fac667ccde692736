// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package preflight

import (
	"context"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/sources"
)

// PackageMeta is the metadata a resolver needs about one package that
// is not installed locally.
type PackageMeta struct {
	Version      string
	Depends      []string
	MakeDepends  []string
	CheckDepends []string
	OptDepends   []string
	Conflicts    []string
}

// Metadata resolves package metadata for transaction members that the
// local index cannot answer.
type Metadata interface {
	// PackageInfo returns deps and conflicts for an item.
	PackageInfo(ctx context.Context, item domain.PackageItem) (PackageMeta, error)
}

// ServiceProber answers whether a systemd unit is currently active.
type ServiceProber interface {
	IsActive(unit string) bool
}

// sourceMetadata backs Metadata with the remote indices: .SRCINFO for
// AUR items, the official JSON detail endpoint otherwise.
type sourceMetadata struct {
	client *sources.Client
}

// NewSourceMetadata builds the network-backed metadata source.
func NewSourceMetadata(client *sources.Client) Metadata {
	return &sourceMetadata{client: client}
}

func (m *sourceMetadata) PackageInfo(ctx context.Context, item domain.PackageItem) (PackageMeta, error) {
	if item.Source.Kind == domain.SourceAUR {
		return m.srcinfoMeta(ctx, item.Name)
	}

	// Bare dependency names carry no repo or architecture; the exact-name
	// search finds them across all official repos, and AUR-only deps of
	// AUR packages fall through to .SRCINFO.
	if item.Source.Repo == "" {
		details, err := m.client.OfficialByName(ctx, item.Name)
		if err == nil {
			return officialMeta(details), nil
		}

		meta, aurErr := m.srcinfoMeta(ctx, item.Name)
		if aurErr != nil {
			return PackageMeta{}, err
		}

		return meta, nil
	}

	details, err := m.client.OfficialDetails(ctx, item.Source.Repo, item.Source.Arch, item.Name)
	if err != nil {
		return PackageMeta{}, err
	}

	return officialMeta(details), nil
}

func (m *sourceMetadata) srcinfoMeta(ctx context.Context, name string) (PackageMeta, error) {
	info, err := m.client.FetchSrcinfo(ctx, name)
	if err != nil {
		return PackageMeta{}, err
	}

	return PackageMeta{
		Version:      info.Version(),
		Depends:      info.Depends,
		MakeDepends:  info.MakeDepends,
		CheckDepends: info.CheckDepends,
		OptDepends:   info.OptDepends,
		Conflicts:    info.Conflicts,
	}, nil
}

func officialMeta(details domain.PackageDetails) PackageMeta {
	return PackageMeta{
		Version:    details.Version,
		Depends:    details.Depends,
		OptDepends: details.OptDepends,
		Conflicts:  details.Conflicts,
	}
}
