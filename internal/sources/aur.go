// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pacsea/pacsea/internal/domain"
)

// aurBase is the AUR endpoint root, overridable in tests.
var aurBase = "https://aur.archlinux.org"

// SetAURBase redirects AUR calls, for tests. Returns a restore
// function.
func SetAURBase(base string) func() {
	prev := aurBase
	aurBase = base

	return func() { aurBase = prev }
}

type aurResponse struct {
	Results []aurPackage `json:"results"`
}

type aurPackage struct {
	Name         string   `json:"Name"`
	Version      string   `json:"Version"`
	Description  string   `json:"Description"`
	Popularity   float64  `json:"Popularity"`
	OutOfDate    int64    `json:"OutOfDate"`
	Maintainer   string   `json:"Maintainer"`
	URL          string   `json:"URL"`
	License      []string `json:"License"`
	Groups       []string `json:"Groups"`
	Provides     []string `json:"Provides"`
	Depends      []string `json:"Depends"`
	OptDepends   []string `json:"OptDepends"`
	Conflicts    []string `json:"Conflicts"`
	Replaces     []string `json:"Replaces"`
	LastModified int64    `json:"LastModified"`
}

// SearchAUR queries the AUR RPC v5 name search for q.
func (c *Client) SearchAUR(ctx context.Context, q string) ([]domain.PackageItem, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/rpc/v5/search?by=name&arg=%s", aurBase, url.QueryEscape(q))

	var resp aurResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	items := make([]domain.PackageItem, 0, len(resp.Results))

	for _, pkg := range resp.Results {
		if len(items) >= maxResultsPerSource {
			break
		}

		item := domain.PackageItem{
			Name:        pkg.Name,
			Version:     pkg.Version,
			Description: pkg.Description,
			Source:      domain.AUR(),
			Popularity:  pkg.Popularity,
			OutOfDate:   pkg.OutOfDate,
			Orphaned:    pkg.Maintainer == "",
		}
		if !item.IsValid() {
			continue
		}

		items = append(items, item)
	}

	return items, nil
}

// AURInfo fetches RPC v5 info for one package name and normalizes it
// into PackageDetails.
func (c *Client) AURInfo(ctx context.Context, name string) (domain.PackageDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/rpc/v5/info?arg[]=%s", aurBase, url.QueryEscape(name))

	var resp aurResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return domain.PackageDetails{}, err
	}

	if len(resp.Results) == 0 {
		return domain.PackageDetails{}, domain.NewClassified(domain.KindParse, fmt.Errorf("aur info: %w: %s", domain.ErrEmptyName, name))
	}

	pkg := resp.Results[0]

	details := domain.PackageDetails{
		Name:        pkg.Name,
		Repository:  "aur",
		Version:     pkg.Version,
		Description: pkg.Description,
		URL:         pkg.URL,
		Licenses:    pkg.License,
		Groups:      pkg.Groups,
		Provides:    pkg.Provides,
		Depends:     pkg.Depends,
		OptDepends:  pkg.OptDepends,
		Conflicts:   pkg.Conflicts,
		Replaces:    pkg.Replaces,
		Maintainer:  pkg.Maintainer,
	}
	if pkg.LastModified > 0 {
		details.BuildDate = strconv.FormatInt(pkg.LastModified, 10)
	}

	return details, nil
}

// PKGBUILDURL returns the raw PKGBUILD location in the AUR git
// snapshot for a package.
func PKGBUILDURL(name string) string {
	return fmt.Sprintf("%s/cgit/aur.git/plain/PKGBUILD?h=%s", aurBase, url.QueryEscape(name))
}

// SrcinfoURL returns the raw .SRCINFO location for a package.
func SrcinfoURL(name string) string {
	return fmt.Sprintf("%s/cgit/aur.git/plain/.SRCINFO?h=%s", aurBase, url.QueryEscape(name))
}

// FetchPKGBUILD downloads the raw PKGBUILD of an AUR package.
func (c *Client) FetchPKGBUILD(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	body, err := c.get(ctx, PKGBUILDURL(name))
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// FetchSrcinfo downloads and parses the .SRCINFO of an AUR package.
func (c *Client) FetchSrcinfo(ctx context.Context, name string) (Srcinfo, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	body, err := c.get(ctx, SrcinfoURL(name))
	if err != nil {
		return Srcinfo{}, err
	}

	return ParseSrcinfo(string(body)), nil
}
