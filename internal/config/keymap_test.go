// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pacsea/pacsea/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec string
		want config.Chord
		ok   bool
	}{
		{"Ctrl+R", config.Chord{Key: "r", Ctrl: true}, true},
		{"ctrl+r", config.Chord{Key: "r", Ctrl: true}, true},
		{"Alt+?", config.Chord{Key: "?", Alt: true}, true},
		{"F5", config.Chord{Key: "f5"}, true},
		{"?", config.Chord{Key: "?"}, true},
		{"Shift+Tab", config.Chord{Key: "backtab"}, true},
		{"BackTab", config.Chord{Key: "backtab"}, true},
		{"Shift+d", config.Chord{Key: "d", Shift: true}, true},
		{"D", config.Chord{Key: "d", Shift: true}, true},
		{"Delete", config.Chord{Key: "delete"}, true},
		{"Hyper+x", config.Chord{}, false},
		{"NoSuchKey", config.Chord{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()

			chord, ok := config.ParseChord(tt.spec)
			require.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.Equal(t, tt.want, chord)
			}
		})
	}
}

// Terminals disagree about how BackTab and shifted letters are
// reported; normalization has to paper over both.
func TestChordNormalization(t *testing.T) {
	t.Parallel()

	keymap := config.DefaultKeymap()

	// shift+tab from the terminal matches the pane_prev BackTab binding.
	backtab := config.ChordFromKeyMsg(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.True(t, keymap.Matches(config.ActionPanePrev, backtab))

	// An uppercase rune with no reported Shift matches Shift+lowercase.
	keymap[config.ActionRemove] = mustChords(t, "Shift+d", "Delete")
	upper := config.ChordFromKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'D'}})
	assert.True(t, keymap.Matches(config.ActionRemove, upper))

	// The built-in alternative still matches.
	del := config.ChordFromKeyMsg(tea.KeyMsg{Type: tea.KeyDelete})
	assert.True(t, keymap.Matches(config.ActionRemove, del))
}

func mustChords(t *testing.T, specs ...string) []config.Chord {
	t.Helper()

	chords := make([]config.Chord, 0, len(specs))

	for _, spec := range specs {
		chord, ok := config.ParseChord(spec)
		require.True(t, ok, spec)
		chords = append(chords, chord)
	}

	return chords
}

func TestLoadKeymapOverlaysDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "keybinds.conf")
	content := "# comment\nkeybind_remove = Shift+d\nkeybind_help = Alt+h\nkeybind_bogus = F2\nkeybind_exit = NotAKey\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	keymap := config.LoadKeymap(path)

	// Configured chord is first, built-in Delete still present.
	removeChords := keymap[config.ActionRemove]
	require.NotEmpty(t, removeChords)
	assert.Equal(t, config.Chord{Key: "d", Shift: true}, removeChords[0])
	assert.Contains(t, removeChords, config.Chord{Key: "delete"})

	// Unknown action lines and unparseable chords are ignored.
	assert.True(t, keymap.Matches(config.ActionExit, config.Chord{Key: "c", Ctrl: true}))
	assert.True(t, keymap.Matches(config.ActionHelp, config.Chord{Key: "h", Alt: true}))
}
