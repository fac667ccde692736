// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package config

import (
	"os"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
)

// Action names a bindable operation. The values double as the
// keybinds.conf suffix: `keybind_<action> = <chord>`.
type Action string

// Bindable actions.
const (
	ActionHelp           Action = "help"
	ActionExit           Action = "exit"
	ActionReloadTheme    Action = "reload_theme"
	ActionTogglePkgbuild Action = "toggle_pkgbuild"
	ActionCycleSort      Action = "change_sort"
	ActionPaneNext       Action = "pane_next"
	ActionPanePrev       Action = "pane_prev"
	ActionAdd            Action = "add"
	ActionRemove         Action = "remove"
	ActionConfirm        Action = "confirm"
	ActionPreflight      Action = "preflight"
	ActionNews           Action = "news"
	ActionSearchFocus    Action = "search_focus"
	ActionOptionalDeps   Action = "optional_deps"
	ActionScanConfig     Action = "scan_config"
	ActionSystemUpdate   Action = "system_update"
	ActionImportHelp     Action = "import_help"
)

// Chord is a normalized (key, modifier set) pair. Key is a lowercase
// named key ("enter", "backtab", "f5") or a single lowercase character.
type Chord struct {
	Key   string
	Ctrl  bool
	Alt   bool
	Shift bool
}

// Keymap is a table of small ordered chord lists per action. Matching
// is a linear scan; lists stay short enough that hashing buys nothing.
type Keymap map[Action][]Chord

// namedKeys maps the identifiers accepted by the chord grammar to
// their normalized key names.
var namedKeys = map[string]string{
	"enter": "enter", "return": "enter",
	"tab":     "tab",
	"backtab": "backtab",
	"esc":     "esc", "escape": "esc",
	"space":     " ",
	"backspace": "backspace",
	"delete":    "delete", "del": "delete",
	"insert": "insert",
	"home":   "home",
	"end":    "end",
	"pgup":   "pgup", "pageup": "pgup",
	"pgdown": "pgdown", "pagedown": "pgdown",
	"up": "up", "down": "down", "left": "left", "right": "right",
	"f1": "f1", "f2": "f2", "f3": "f3", "f4": "f4", "f5": "f5", "f6": "f6",
	"f7": "f7", "f8": "f8", "f9": "f9", "f10": "f10", "f11": "f11", "f12": "f12",
}

// ParseChord parses a chord spec such as "Ctrl+R", "Shift+Tab" or "?".
// Modifier names are case-insensitive. The normalization rules apply at
// parse time: Shift+Tab becomes BackTab with empty modifiers, and an
// uppercase character becomes Shift+lowercase. Returns false for
// unrecognized keys so callers can ignore unknown bindings.
func ParseChord(spec string) (Chord, bool) {
	var chord Chord

	parts := strings.Split(strings.TrimSpace(spec), "+")
	if len(parts) == 0 {
		return chord, false
	}

	keyPart := parts[len(parts)-1]

	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(mod)) {
		case "ctrl", "control":
			chord.Ctrl = true
		case "alt":
			chord.Alt = true
		case "shift":
			chord.Shift = true
		default:
			return chord, false
		}
	}

	// Shift+Tab is the dedicated BackTab key with modifiers cleared.
	if strings.EqualFold(keyPart, "tab") && chord.Shift {
		return Chord{Key: "backtab"}, true
	}

	if named, ok := namedKeys[strings.ToLower(keyPart)]; ok {
		chord.Key = named

		return chord, true
	}

	runes := []rune(keyPart)
	if len(runes) != 1 {
		return chord, false
	}

	char := runes[0]
	if unicode.IsUpper(char) {
		chord.Shift = true
		char = unicode.ToLower(char)
	}

	chord.Key = string(char)

	return chord, true
}

// ChordFromKeyMsg normalizes a terminal key event into a Chord.
// BackTab is treated as having no modifiers regardless of how the
// terminal reports it, and an uppercase character without Shift
// normalizes to Shift+lowercase so configured Shift chords match on
// terminals that drop the modifier.
func ChordFromKeyMsg(msg tea.KeyMsg) Chord {
	chord, ok := ParseChord(msg.String())
	if !ok {
		// Multi-rune or exotic keys never match a binding.
		return Chord{Key: msg.String()}
	}

	if chord.Key == "backtab" {
		return Chord{Key: "backtab"}
	}

	return chord
}

// Matches reports whether the event chord triggers the action.
func (k Keymap) Matches(action Action, event Chord) bool {
	for _, chord := range k[action] {
		if chord == event {
			return true
		}
	}

	return false
}

// DefaultKeymap returns the built-in bindings.
func DefaultKeymap() Keymap {
	bind := func(spec string) []Chord {
		chord, _ := ParseChord(spec)

		return []Chord{chord}
	}

	keymap := Keymap{
		ActionHelp:           bind("F1"),
		ActionExit:           bind("Ctrl+C"),
		ActionReloadTheme:    bind("Ctrl+R"),
		ActionTogglePkgbuild: bind("Ctrl+P"),
		ActionCycleSort:      bind("F5"),
		ActionPaneNext:       bind("Tab"),
		ActionPanePrev:       bind("Shift+Tab"),
		ActionAdd:            bind("Enter"),
		ActionRemove:         bind("Delete"),
		ActionConfirm:        bind("Enter"),
		ActionPreflight:      bind("Ctrl+E"),
		ActionNews:           bind("Ctrl+N"),
		ActionSearchFocus:    bind("/"),
		ActionOptionalDeps:   bind("Ctrl+O"),
		ActionScanConfig:     bind("F7"),
		ActionSystemUpdate:   bind("F6"),
		ActionImportHelp:     bind("F2"),
	}

	return keymap
}

// LoadKeymap reads keybinds.conf and overlays it on the defaults. Lines
// are `keybind_<action> = <chord>`; unknown actions and unparseable
// chords are ignored. A configured chord is prepended so the built-in
// alternative (for example Delete on the remove action) keeps working.
func LoadKeymap(path string) Keymap {
	keymap := DefaultKeymap()

	data, err := os.ReadFile(path)
	if err != nil {
		return keymap
	}

	for key, value := range confLines(string(data)) {
		name, found := strings.CutPrefix(key, "keybind_")
		if !found {
			continue
		}

		action := Action(name)
		if _, known := keymap[action]; !known {
			continue
		}

		chord, ok := ParseChord(value)
		if !ok {
			continue
		}

		keymap[action] = append([]Chord{chord}, keymap[action]...)
	}

	return keymap
}
