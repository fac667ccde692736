// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/logger"
)

// Details dispatches a detail fetch to the right backend for the
// item's source and normalizes the response. Failures degrade to an
// empty PackageDetails carrying only the item identity, so the UI can
// render "N/A" fields instead of aborting.
func (c *Client) Details(ctx context.Context, item domain.PackageItem) domain.PackageDetails {
	var (
		details domain.PackageDetails
		err     error
	)

	switch {
	case item.Source.Kind == domain.SourceAUR:
		details, err = c.AURInfo(ctx, item.Name)
	case item.Source.Repo == "":
		// Items picked up as bare dependency names carry no repo.
		details, err = c.OfficialByName(ctx, item.Name)
	default:
		arch := item.Source.Arch
		if arch == "" {
			arch = "x86_64"
		}

		details, err = c.OfficialDetails(ctx, item.Source.Repo, arch, item.Name)
	}

	if err != nil {
		logger.Debug("details fetch failed", logger.Fields{
			"package": item.Name,
			"source":  item.Source.String(),
			"kind":    domain.Classify(err).String(),
			"error":   err,
		})

		return domain.PackageDetails{
			Name:       item.Name,
			Repository: item.Source.String(),
			Version:    item.Version,
		}
	}

	return details
}

// PKGBUILDSource fetches the build recipe for an item: the AUR git
// snapshot for AUR packages, the Arch GitLab raw PKGBUILD for official
// ones.
func (c *Client) PKGBUILDSource(ctx context.Context, item domain.PackageItem) (string, error) {
	if item.Source.Kind == domain.SourceAUR {
		return c.FetchPKGBUILD(ctx, item.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf(
		"https://gitlab.archlinux.org/archlinux/packaging/packages/%s/-/raw/main/PKGBUILD",
		url.PathEscape(item.Name))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return "", err
	}

	return string(body), nil
}
