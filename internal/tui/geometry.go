// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package tui

// Rect is a screen rectangle recorded during rendering and hit-tested
// against mouse events on the next input tick. No widget registry: the
// renderer is the single source of geometry.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) lies inside the rect.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Rect names used by the renderer and the mouse handler.
const (
	rectSearch  = "search"
	rectResults = "results"
	rectInstall = "install"
	rectRecent  = "recent"
)

// recordRect stores the rect for the next frame's hit tests.
func (m *Model) recordRect(name string, r Rect) {
	m.rects[name] = r
}

// hitTest returns the name of the topmost rect containing the cell, or
// an empty string.
func (m *Model) hitTest(x, y int) string {
	// Panes never overlap, so order does not matter.
	for name, r := range m.rects {
		if r.Contains(x, y) {
			return name
		}
	}

	return ""
}
