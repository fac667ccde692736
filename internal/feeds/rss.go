// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package feeds

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/pacsea/pacsea/internal/domain"
)

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// severityWords are the Arch security team's advisory severities, in
// the order they appear in advisory titles.
var severityWords = []string{"Critical", "High", "Medium", "Low"}

// ParseNewsRSS parses the archlinux.org news RSS feed.
func ParseNewsRSS(data []byte) ([]domain.NewsFeedItem, error) {
	items, err := parseRSS(data)
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].Source = domain.NewsArch
	}

	return items, nil
}

// ParseAdvisoriesRSS parses the security.archlinux.org advisory feed.
// Severity and the affected package are extracted from the title,
// which has the shape "ASA-202406-1: package: severity".
func ParseAdvisoriesRSS(data []byte) ([]domain.NewsFeedItem, error) {
	items, err := parseRSS(data)
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].Source = domain.NewsAdvisory
		items[i].Severity, items[i].Packages = advisoryTitleFields(items[i].Title)
	}

	return items, nil
}

func parseRSS(data []byte) ([]domain.NewsFeedItem, error) {
	var doc rssDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, domain.NewClassified(domain.KindParse, fmt.Errorf("parse rss: %w", err))
	}

	items := make([]domain.NewsFeedItem, 0, len(doc.Channel.Items))

	for _, raw := range doc.Channel.Items {
		item := domain.NewsFeedItem{
			ID:      raw.GUID,
			Title:   strings.TrimSpace(raw.Title),
			Summary: strings.TrimSpace(raw.Description),
			URL:     raw.Link,
		}

		if item.ID == "" {
			item.ID = raw.Link
		}

		if when, ok := parsePubDate(raw.PubDate); ok {
			item.Date = when
		}

		if item.Title == "" {
			continue
		}

		items = append(items, item)
	}

	return items, nil
}

func parsePubDate(value string) (time.Time, bool) {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if when, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
			return when, true
		}
	}

	return time.Time{}, false
}

func advisoryTitleFields(title string) (severity string, packages []string) {
	parts := strings.Split(title, ":")

	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)

		matched := false

		for _, word := range severityWords {
			if strings.EqualFold(part, word) {
				severity = word
				matched = true

				break
			}
		}

		if !matched && part != "" {
			packages = append(packages, part)
		}
	}

	return severity, packages
}
