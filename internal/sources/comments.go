// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// maxCommentsPerPackage caps how many comments the feed surfaces per
// package.
const maxCommentsPerPackage = 10

// AURComment is one comment scraped from a package's AUR page. The AUR
// has no comment API, so this is parsed out of the HTML.
type AURComment struct {
	Package string
	Author  string
	Posted  string
	Body    string
}

// AURComments fetches the latest comments for one AUR package.
func (c *Client) AURComments(ctx context.Context, name string) ([]AURComment, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	body, err := c.get(ctx, fmt.Sprintf("%s/packages/%s", aurBase, url.PathEscape(name)))
	if err != nil {
		return nil, err
	}

	return ParseAURComments(name, string(body)), nil
}

// ParseAURComments extracts comments from an AUR package page. Comment
// headers are `<h4 id="comment-N">` blocks holding the author link and
// timestamp; the body follows in a `<div id="comment-N-content">`
// block. Pages without comments parse to an empty slice.
func ParseAURComments(pkg, html string) []AURComment {
	var out []AURComment

	rest := html

	for len(out) < maxCommentsPerPackage {
		start := strings.Index(rest, `<h4 id="comment-`)
		if start < 0 {
			break
		}

		rest = rest[start:]

		header, after, ok := cutBlock(rest, "</h4>")
		if !ok {
			break
		}

		rest = after

		comment := AURComment{Package: pkg}
		comment.Author, comment.Posted = splitCommentHeader(stripTags(header))

		bodyStart := strings.Index(rest, `class="article-content`)
		if bodyStart >= 0 {
			afterTag := rest[bodyStart:]
			if gt := strings.IndexByte(afterTag, '>'); gt >= 0 {
				if body, afterBody, found := cutBlock(afterTag[gt+1:], "</div>"); found {
					comment.Body = strings.TrimSpace(stripTags(body))
					rest = afterBody
				}
			}
		}

		if comment.Author != "" {
			out = append(out, comment)
		}
	}

	return out
}

// cutBlock returns everything up to the closing marker and the
// remainder after it.
func cutBlock(s, marker string) (string, string, bool) {
	end := strings.Index(s, marker)
	if end < 0 {
		return "", "", false
	}

	return s[:end], s[end+len(marker):], true
}

// splitCommentHeader splits "user commented on 2024-05-01 12:00 (UTC)"
// into its author and timestamp parts.
func splitCommentHeader(header string) (string, string) {
	header = strings.Join(strings.Fields(header), " ")

	author, posted, found := strings.Cut(header, " commented on ")
	if !found {
		return header, ""
	}

	return author, posted
}

// stripTags removes HTML tags and decodes the handful of entities the
// AUR emits in comment text.
func stripTags(s string) string {
	var b strings.Builder

	inTag := false

	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)

	return strings.TrimSpace(replacer.Replace(b.String()))
}
