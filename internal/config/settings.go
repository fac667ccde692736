// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pacsea/pacsea/internal/domain"
)

// ErrBadSettingValue indicates a settings.conf line whose value could
// not be parsed; the dispatch core surfaces it as an Alert naming the
// offending key.
var ErrBadSettingValue = errors.New("invalid setting value")

// StartMode selects what the application shows on launch.
type StartMode int

// Start modes.
const (
	StartPackage StartMode = iota
	StartNews
)

// NewsFilter holds the per-source visibility toggles of the news feed.
type NewsFilter struct {
	ShowArchNews    bool
	ShowAdvisories  bool
	ShowPkgUpdates  bool
	ShowAurComments bool
	InstalledOnly   bool
}

// Settings is the parsed view of settings.conf. Zero value plus
// DefaultSettings() covers files with missing keys.
type Settings struct {
	SortMode           domain.SortMode
	ShowRecentPane     bool
	ShowInstallPane    bool
	ShowKeybindsFooter bool
	SelectedCountries  []string
	MirrorCount        int
	AppStartMode       StartMode
	NewsFilter         NewsFilter
	NewsMaxAgeDays     int // 0 means "all"
	NewsCacheTTLDays   int
	VirusTotalAPIKey   string
	ScanDoClamAV       bool
	ScanDoTrivy        bool
	ScanDoSemgrep      bool
	ScanDoShellcheck   bool
	ScanDoVirusTotal   bool
	FuzzySearch        bool
	SkipPreflight      bool
}

// DefaultSettings returns the settings used when settings.conf is
// missing or partial.
func DefaultSettings() Settings {
	return Settings{
		SortMode:           domain.SortRepoThenName,
		ShowRecentPane:     true,
		ShowInstallPane:    true,
		ShowKeybindsFooter: true,
		MirrorCount:        10,
		NewsFilter: NewsFilter{
			ShowArchNews:    true,
			ShowAdvisories:  true,
			ShowPkgUpdates:  true,
			ShowAurComments: true,
		},
		NewsMaxAgeDays:   30,
		NewsCacheTTLDays: 14,
		FuzzySearch:      true,
	}
}

// LoadSettings reads and parses settings.conf. A missing file yields
// the defaults without error; a malformed value yields the defaults so
// far plus an ErrBadSettingValue naming the key.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}

		return settings, fmt.Errorf("read settings: %w", err)
	}

	for key, value := range confLines(string(data)) {
		if err := settings.apply(key, value); err != nil {
			return settings, err
		}
	}

	return settings, nil
}

// confLines iterates the `key = value` lines of a conf file, skipping
// blanks and `#`/`//` comments.
func confLines(content string) func(yield func(string, string) bool) {
	return func(yield func(string, string) bool) {
		for _, raw := range strings.Split(content, "\n") {
			line := strings.TrimSpace(raw)
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
				continue
			}

			key, value, found := strings.Cut(line, "=")
			if !found {
				continue
			}

			if !yield(strings.TrimSpace(strings.ToLower(key)), strings.TrimSpace(value)) {
				return
			}
		}
	}
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

//nolint:cyclop // one arm per settings key, flat by construction
func (s *Settings) apply(key, value string) error {
	switch key {
	case "sort_mode", "results_sort":
		s.SortMode = domain.ParseSortMode(value)
	case "show_search_history_pane", "show_recent_pane", "recent_visible":
		s.ShowRecentPane = parseBool(value)
	case "show_install_pane", "install_visible", "show_install_list":
		s.ShowInstallPane = parseBool(value)
	case "show_keybinds_footer", "keybinds_visible":
		s.ShowKeybindsFooter = parseBool(value)
	case "selected_countries", "countries", "country":
		s.SelectedCountries = splitCSV(value)
	case "mirror_count", "mirrors":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrBadSettingValue, key)
		}

		s.MirrorCount = n
	case "app_start_mode":
		if strings.EqualFold(value, "news") {
			s.AppStartMode = StartNews
		} else {
			s.AppStartMode = StartPackage
		}
	case "news_filter_show_arch_news", "news_filter_arch":
		s.NewsFilter.ShowArchNews = parseBool(value)
	case "news_filter_show_advisories", "news_filter_advisories":
		s.NewsFilter.ShowAdvisories = parseBool(value)
	case "news_filter_show_pkg_updates", "news_filter_pkg_updates", "news_filter_updates":
		s.NewsFilter.ShowPkgUpdates = parseBool(value)
	case "news_filter_show_aur_comments", "news_filter_aur_comments", "news_filter_comments":
		s.NewsFilter.ShowAurComments = parseBool(value)
	case "news_filter_installed_only", "news_filter_installed", "news_installed_only":
		s.NewsFilter.InstalledOnly = parseBool(value)
	case "news_max_age_days", "news_age_days", "news_age":
		days, err := parseAgeDays(value)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrBadSettingValue, key)
		}

		s.NewsMaxAgeDays = days
	case "news_cache_ttl_days":
		days, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrBadSettingValue, key)
		}

		s.NewsCacheTTLDays = max(days, 1)
	case "virustotal_api_key", "vt_api_key", "virustotal":
		s.VirusTotalAPIKey = value
	case "scan_do_clamav":
		s.ScanDoClamAV = parseBool(value)
	case "scan_do_trivy":
		s.ScanDoTrivy = parseBool(value)
	case "scan_do_semgrep":
		s.ScanDoSemgrep = parseBool(value)
	case "scan_do_shellcheck":
		s.ScanDoShellcheck = parseBool(value)
	case "scan_do_virustotal":
		s.ScanDoVirusTotal = parseBool(value)
	case "fuzzy_search":
		s.FuzzySearch = parseBool(value)
	case "skip_preflight", "preflight_skip", "bypass_preflight":
		s.SkipPreflight = parseBool(value)
	}

	return nil
}

// parseAgeDays accepts an integer day count or the "all" family of
// values meaning no limit (0).
func parseAgeDays(value string) (int, error) {
	switch strings.ToLower(value) {
	case "", "all", "none", "unlimited":
		return 0, nil
	}

	days, err := strconv.Atoi(value)
	if err != nil || days < 0 {
		return 0, fmt.Errorf("bad age: %q", value)
	}

	return days, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

// Save persists the settings back to path in the same line format,
// keys sorted for a stable file. Used when the user cycles the sort
// mode or toggles panes.
func (s *Settings) Save(path string) error {
	entries := map[string]string{
		"sort_mode":                      s.SortMode.String(),
		"show_recent_pane":               strconv.FormatBool(s.ShowRecentPane),
		"show_install_pane":              strconv.FormatBool(s.ShowInstallPane),
		"show_keybinds_footer":           strconv.FormatBool(s.ShowKeybindsFooter),
		"mirror_count":                   strconv.Itoa(s.MirrorCount),
		"news_max_age_days":              ageDaysValue(s.NewsMaxAgeDays),
		"news_cache_ttl_days":            strconv.Itoa(s.NewsCacheTTLDays),
		"news_filter_show_arch_news":     strconv.FormatBool(s.NewsFilter.ShowArchNews),
		"news_filter_show_advisories":    strconv.FormatBool(s.NewsFilter.ShowAdvisories),
		"news_filter_show_pkg_updates":   strconv.FormatBool(s.NewsFilter.ShowPkgUpdates),
		"news_filter_show_aur_comments":  strconv.FormatBool(s.NewsFilter.ShowAurComments),
		"news_filter_installed_only":     strconv.FormatBool(s.NewsFilter.InstalledOnly),
		"fuzzy_search":                   strconv.FormatBool(s.FuzzySearch),
		"skip_preflight":                 strconv.FormatBool(s.SkipPreflight),
		"scan_do_clamav":                 strconv.FormatBool(s.ScanDoClamAV),
		"scan_do_trivy":                  strconv.FormatBool(s.ScanDoTrivy),
		"scan_do_semgrep":                strconv.FormatBool(s.ScanDoSemgrep),
		"scan_do_shellcheck":             strconv.FormatBool(s.ScanDoShellcheck),
		"scan_do_virustotal":             strconv.FormatBool(s.ScanDoVirusTotal),
	}

	if s.AppStartMode == StartNews {
		entries["app_start_mode"] = "news"
	} else {
		entries["app_start_mode"] = "package"
	}

	if len(s.SelectedCountries) > 0 {
		entries["selected_countries"] = strings.Join(s.SelectedCountries, ",")
	}

	if s.VirusTotalAPIKey != "" {
		entries["virustotal_api_key"] = s.VirusTotalAPIKey
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var builder strings.Builder

	builder.WriteString("# Pacsea settings\n")

	for _, key := range keys {
		fmt.Fprintf(&builder, "%s = %s\n", key, entries[key])
	}

	return writeAtomic(path, []byte(builder.String()))
}

func ageDaysValue(days int) string {
	if days <= 0 {
		return "all"
	}

	return strconv.Itoa(days)
}
