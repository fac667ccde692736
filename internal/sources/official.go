// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package sources

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/pacsea/pacsea/internal/domain"
)

// officialBase is the archlinux.org endpoint root, overridable in
// tests.
var officialBase = "https://archlinux.org"

// SetOfficialBase redirects official API calls, for tests against
// httptest servers. Returns a restore function.
func SetOfficialBase(base string) func() {
	prev := officialBase
	officialBase = base

	return func() { officialBase = prev }
}

type officialSearchResponse struct {
	Results []officialPackage `json:"results"`
}

type officialPackage struct {
	PkgName        string   `json:"pkgname"`
	PkgVer         string   `json:"pkgver"`
	PkgRel         string   `json:"pkgrel"`
	PkgDesc        string   `json:"pkgdesc"`
	Repo           string   `json:"repo"`
	Arch           string   `json:"arch"`
	URL            string   `json:"url"`
	Licenses       []string `json:"licenses"`
	Groups         []string `json:"groups"`
	Provides       []string `json:"provides"`
	Depends        []string `json:"depends"`
	OptDepends     []string `json:"optdepends"`
	Conflicts      []string `json:"conflicts"`
	Replaces       []string `json:"replaces"`
	CompressedSize int64    `json:"compressed_size"`
	InstalledSize  int64    `json:"installed_size"`
	Packager       string   `json:"packager"`
	BuildDate      string   `json:"build_date"`
	FlagDate       string   `json:"flag_date"`
}

func (p *officialPackage) version() string {
	if p.PkgRel == "" {
		return p.PkgVer
	}

	return p.PkgVer + "-" + p.PkgRel
}

// SearchOfficial queries the official packages JSON endpoint for q and
// returns at most maxResultsPerSource items.
func (c *Client) SearchOfficial(ctx context.Context, q string) ([]domain.PackageItem, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/packages/search/json/?q=%s", officialBase, url.QueryEscape(q))

	var resp officialSearchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	items := make([]domain.PackageItem, 0, len(resp.Results))

	for _, pkg := range resp.Results {
		if len(items) >= maxResultsPerSource {
			break
		}

		item := domain.PackageItem{
			Name:        pkg.PkgName,
			Version:     pkg.version(),
			Description: pkg.PkgDesc,
			Source:      domain.Official(pkg.Repo, pkg.Arch),
		}
		if !item.IsValid() {
			continue
		}

		if pkg.FlagDate != "" {
			if when, err := time.Parse(time.RFC3339, pkg.FlagDate); err == nil {
				item.OutOfDate = when.Unix()
			}
		}

		items = append(items, item)
	}

	return items, nil
}

// OfficialDetails fetches the detail endpoint for one package and
// normalizes it into PackageDetails.
func (c *Client) OfficialDetails(ctx context.Context, repo, arch, name string) (domain.PackageDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/packages/%s/%s/%s/json/",
		officialBase, url.PathEscape(repo), url.PathEscape(arch), url.PathEscape(name))

	var pkg officialPackage
	if err := c.getJSON(ctx, endpoint, &pkg); err != nil {
		return domain.PackageDetails{}, err
	}

	return officialToDetails(&pkg), nil
}

// OfficialByName resolves a package by exact name when its repo and
// architecture are unknown, as for bare dependency names. The search
// endpoint's name parameter matches exactly across all repos.
func (c *Client) OfficialByName(ctx context.Context, name string) (domain.PackageDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/packages/search/json/?name=%s", officialBase, url.QueryEscape(name))

	var resp officialSearchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return domain.PackageDetails{}, err
	}

	for _, pkg := range resp.Results {
		if pkg.PkgName == name {
			return officialToDetails(&pkg), nil
		}
	}

	return domain.PackageDetails{}, fmt.Errorf("package %s: not in the official repositories", name)
}

func officialToDetails(pkg *officialPackage) domain.PackageDetails {
	return domain.PackageDetails{
		Name:         pkg.PkgName,
		Repository:   pkg.Repo,
		Version:      pkg.version(),
		Description:  pkg.PkgDesc,
		Architecture: pkg.Arch,
		URL:          pkg.URL,
		Licenses:     pkg.Licenses,
		Groups:       pkg.Groups,
		Provides:     pkg.Provides,
		Depends:      pkg.Depends,
		OptDepends:   pkg.OptDepends,
		Conflicts:    pkg.Conflicts,
		Replaces:     pkg.Replaces,
		DownloadSize: pkg.CompressedSize,
		InstallSize:  pkg.InstalledSize,
		Maintainer:   pkg.Packager,
		BuildDate:    pkg.BuildDate,
	}
}
