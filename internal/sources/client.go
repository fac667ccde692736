// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

// Package sources talks to the remote package indices: the official
// archlinux.org JSON API, the AUR RPC, and the raw PKGBUILD/.SRCINFO
// endpoints. All fetchers tolerate HTTP failures by returning typed
// errors; callers degrade to empty values.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pacsea/pacsea/internal/domain"
)

// Version is stamped into the User-Agent header.
const Version = "0.9.0"

const (
	connectTimeout = 30 * time.Second
	totalTimeout   = 60 * time.Second

	// RequestTimeout is the per-request ceiling callers should use for
	// their contexts.
	RequestTimeout = 30 * time.Second

	// maxResultsPerSource caps how many items one source contributes.
	maxResultsPerSource = 200
)

// Client is the shared HTTP client for all remote fetchers.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient builds the client with Pacsea's timeouts and User-Agent.
// Redirects are followed by default.
func NewClient() *Client {
	return &Client{
		http: &http.Client{
			Timeout: totalTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: connectTimeout,
				}).DialContext,
			},
		},
		userAgent: "Pacsea/" + Version,
	}
}

// get performs a GET and returns the body. HTTP 429, and 503 carrying
// Retry-After, classify as rate-limited; other non-2xx as transient.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.NewClassified(domain.KindNetworkTransient, fmt.Errorf("fetch %s: %w", url, err))
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusServiceUnavailable && resp.Header.Get("Retry-After") != "") {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))

		return nil, domain.NewRateLimited(fmt.Errorf("fetch %s: status %d", url, resp.StatusCode), retryAfter)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewClassified(domain.KindNetworkTransient, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewClassified(domain.KindNetworkTransient, fmt.Errorf("read %s: %w", url, err))
	}

	return body, nil
}

// getJSON fetches and decodes a JSON document. Malformed payloads are
// parse errors; callers treat them as empty results.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return domain.NewClassified(domain.KindParse, fmt.Errorf("decode %s: %w", url, err))
	}

	return nil
}

// GetRaw fetches a URL with the shared client, error classification
// included. Used by the feeds layer, which owns its own rate limiting.
func (c *Client) GetRaw(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url)
}

// parseRetryAfter accepts delay-seconds or an HTTP-date and returns the
// delay in whole seconds (0 when unparseable).
func parseRetryAfter(header string) int {
	if header == "" {
		return 0
	}

	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return secs
	}

	if when, err := http.ParseTime(header); err == nil {
		if delta := time.Until(when); delta > 0 {
			return int(delta.Seconds())
		}
	}

	return 0
}
