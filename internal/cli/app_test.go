// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/pacsea/pacsea/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppMetadata(t *testing.T) {
	app := App()

	assert.Equal(t, "pacsea", app.Name)
	assert.NotEmpty(t, app.Version)

	names := make(map[string]bool)
	for _, flag := range app.Flags {
		for _, name := range flag.Names() {
			names[name] = true
		}
	}

	assert.True(t, names["dry-run"])
	assert.True(t, names["update"])
	assert.True(t, names["u"], "update has the -u alias")
}

func TestBuildUpdateCmds(t *testing.T) {
	tests := []struct {
		name      string
		countries []string
		wantCmds  int
	}{
		{
			name:      "no countries skips mirror refresh",
			countries: nil,
			wantCmds:  1,
		},
		{
			name:      "countries prepend reflector",
			countries: []string{"Sweden", "Norway"},
			wantCmds:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := config.DefaultSettings()
			settings.SelectedCountries = tt.countries

			cmds := buildUpdateCmds(settings)

			require.Len(t, cmds, tt.wantCmds)

			if len(tt.countries) > 0 {
				assert.Contains(t, cmds[0], "reflector")
				assert.Contains(t, cmds[0], "Sweden,Norway")
			}

			assert.Contains(t, cmds[len(cmds)-1], "-Syu")
		})
	}
}

func TestRunUpdateDryRunSkipsConfirmation(t *testing.T) {
	t.Setenv("PACSEA_TEST_HEADLESS", "1")

	err := runUpdate(context.Background(), config.DefaultSettings(), true)
	require.NoError(t, err)
}

func TestExitErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := NewExitError(ExitSystemError, "lock failed", cause)

	assert.Equal(t, ExitSystemError, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "lock failed")
}
