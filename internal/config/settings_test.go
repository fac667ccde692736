// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pacsea/pacsea/internal/config"
	"github.com/pacsea/pacsea/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsMissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	settings, err := config.LoadSettings(filepath.Join(t.TempDir(), "settings.conf"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSettings(), settings)
}

func TestLoadSettingsParsesKeys(t *testing.T) {
	t.Parallel()

	content := `
# Pacsea settings
sort_mode = best_matches
show_recent_pane = false
// alternate comment style
mirror_count = 5
selected_countries = Sweden, Germany
app_start_mode = news
news_max_age_days = all
news_cache_ttl_days = 7
fuzzy_search = true
skip_preflight = yes
virustotal_api_key = abc123
scan_do_clamav = 1
`

	path := filepath.Join(t.TempDir(), "settings.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := config.LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, domain.SortBestMatches, settings.SortMode)
	assert.False(t, settings.ShowRecentPane)
	assert.Equal(t, 5, settings.MirrorCount)
	assert.Equal(t, []string{"Sweden", "Germany"}, settings.SelectedCountries)
	assert.Equal(t, config.StartNews, settings.AppStartMode)
	assert.Equal(t, 0, settings.NewsMaxAgeDays, `"all" means no age limit`)
	assert.Equal(t, 7, settings.NewsCacheTTLDays)
	assert.True(t, settings.FuzzySearch)
	assert.True(t, settings.SkipPreflight)
	assert.Equal(t, "abc123", settings.VirusTotalAPIKey)
	assert.True(t, settings.ScanDoClamAV)
}

func TestLoadSettingsBadValueNamesKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.conf")
	require.NoError(t, os.WriteFile(path, []byte("mirror_count = many\n"), 0o644))

	_, err := config.LoadSettings(path)
	require.ErrorIs(t, err, config.ErrBadSettingValue)
	assert.Contains(t, err.Error(), "mirror_count")
}

func TestSettingsSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.conf")

	settings := config.DefaultSettings()
	settings.SortMode = domain.SortAurPopularityThenOfficial
	settings.SkipPreflight = true
	settings.NewsMaxAgeDays = 0

	require.NoError(t, settings.Save(path))

	loaded, err := config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, settings.SortMode, loaded.SortMode)
	assert.True(t, loaded.SkipPreflight)
	assert.Equal(t, 0, loaded.NewsMaxAgeDays)
}

func TestLoadListAndPushRecent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "recent")
	require.NoError(t, config.SaveList(path, []string{"ripgrep", "bat"}))

	entries := config.LoadList(path)
	require.Equal(t, []string{"ripgrep", "bat"}, entries)

	entries = config.PushRecent(entries, "bat")
	assert.Equal(t, []string{"bat", "ripgrep"}, entries, "dedup moves query to front")

	entries = config.PushRecent(entries, "  ")
	assert.Len(t, entries, 2, "blank queries are not recorded")
}

func TestLoadThemeParsesColors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "theme.conf")
	content := "primary = 137,180,250\nerror = #ff0000\nmuted = not-a-color\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	theme := config.LoadTheme(path)
	assert.Equal(t, "#89b4fa", theme.Primary)
	assert.Equal(t, "#ff0000", theme.Error)
	assert.Equal(t, config.DefaultTheme().Muted, theme.Muted, "bad value keeps default")
}
