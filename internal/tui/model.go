// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

// Package tui is the dispatch core: a single Bubble Tea model owns all
// mutable application state, routes key chords with modal-first
// precedence, and applies results delivered by background tasks as
// typed messages. Background tasks never mutate state directly.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pacsea/pacsea/internal/config"
	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/exec"
	"github.com/pacsea/pacsea/internal/feeds"
	"github.com/pacsea/pacsea/internal/index"
	"github.com/pacsea/pacsea/internal/logger"
	"github.com/pacsea/pacsea/internal/preflight"
	"github.com/pacsea/pacsea/internal/search"
	"github.com/pacsea/pacsea/internal/sources"
	"github.com/pacsea/pacsea/internal/tui/styles"
)

const (
	requestTimeout = 30 * time.Second
	toastLifetime  = 3 * time.Second
)

// ErrNoTerminal is returned when the TUI is launched without one.
var ErrNoTerminal = errors.New("pacsea requires a terminal")

// Pane enumerates the focusable panes.
type Pane int

// Panes.
const (
	PaneSearch Pane = iota
	PaneInstall
	PaneRecent
)

// RightFocus is the right pane's sub-focus: which list its cursor
// operates on.
type RightFocus int

// Right-pane lists.
const (
	RightInstall RightFocus = iota
	RightRemove
	RightDowngrade
)

// pkgList is one selectable package list with its duplicate set.
type pkgList struct {
	items    []domain.PackageItem
	selected int // -1 until the list is first entered
	names    map[string]struct{}
}

func newPkgList() *pkgList {
	return &pkgList{selected: -1, names: make(map[string]struct{})}
}

// Add appends the item unless its lowercase name is already present.
func (l *pkgList) Add(item domain.PackageItem) bool {
	if !item.IsValid() {
		return false
	}

	key := item.Key()
	if _, dup := l.names[key]; dup {
		return false
	}

	l.names[key] = struct{}{}
	l.items = append(l.items, item)

	return true
}

// RemoveAt deletes the row at i and clamps the selection.
func (l *pkgList) RemoveAt(i int) {
	if i < 0 || i >= len(l.items) {
		return
	}

	delete(l.names, l.items[i].Key())
	l.items = append(l.items[:i], l.items[i+1:]...)

	if l.selected >= len(l.items) {
		l.selected = len(l.items) - 1
	}
}

// EnsureSelection initializes the cursor to 0 on first entry.
func (l *pkgList) EnsureSelection() {
	if l.selected < 0 && len(l.items) > 0 {
		l.selected = 0
	}
}

func (l *pkgList) Names() []string {
	out := make([]string, 0, len(l.items))
	for _, item := range l.items {
		out = append(out, item.Name)
	}

	return out
}

// Model is the root dispatch-core model owning all application state.
type Model struct {
	width  int
	height int

	styles   *styles.Styles
	theme    config.Theme
	settings config.Settings
	keymap   config.Keymap

	// Search state.
	searchInput textinput.Model
	results     []domain.PackageItem
	resultSel   int
	lastSeq     uint64

	// Lists.
	install   *pkgList
	remove    *pkgList
	downgrade *pkgList
	recent    []string
	recentSel int

	// Focus.
	focused       Pane
	rightFocus    RightFocus
	installedOnly bool
	dropdownOpen  bool

	// Detail views.
	details      domain.PackageDetails
	pkgbuild     string
	showPkgbuild bool

	// Overlay state.
	modal            Modal
	toast            string
	toastExpires     time.Time
	cascadeMode      preflight.CascadeMode
	gnomeNoticeShown bool

	// Geometry recorded by the renderer for mouse hit-testing.
	rects map[string]Rect

	// Collaborators.
	orch     *search.Orchestrator
	engine   *preflight.Engine
	feeds    *feeds.Service
	idx      *index.Index
	client   *sources.Client
	runner   *exec.Runner
	sudo     *exec.SudoSession
	cancel   context.CancelFunc
	headless bool
}

// Options wires the collaborators into the model.
type Options struct {
	Settings config.Settings
	Keymap   config.Keymap
	Theme    config.Theme
	Index    *index.Index
	Client   *sources.Client
	Feeds    *feeds.Service
	Engine   *preflight.Engine
	Runner   *exec.Runner
	Sudo     *exec.SudoSession

	// StartupAlert opens the first frame with an Alert modal, used for
	// config parse errors that should not abort the launch.
	StartupAlert string
}

// New builds the root model and starts the search orchestrator.
func New(opts Options) *Model {
	input := textinput.New()
	input.Placeholder = "search packages"
	input.Prompt = "/ "
	input.Focus()

	m := &Model{
		styles:      styles.New(opts.Theme),
		theme:       opts.Theme,
		settings:    opts.Settings,
		keymap:      opts.Keymap,
		searchInput: input,
		install:     newPkgList(),
		remove:      newPkgList(),
		downgrade:   newPkgList(),
		recent:      config.LoadList(config.ListPath("recent")),
		recentSel:   -1,
		resultSel:   -1,
		rects:       make(map[string]Rect),
		idx:         opts.Index,
		client:      opts.Client,
		feeds:       opts.Feeds,
		engine:      opts.Engine,
		runner:      opts.Runner,
		sudo:        opts.Sudo,
		headless:    config.Headless(),
	}

	for _, name := range config.LoadList(config.ListPath("install_list")) {
		m.install.Add(domain.PackageItem{Name: name, Source: domain.Official("", "")})
	}

	if opts.StartupAlert != "" {
		m.modal = AlertModal{Message: opts.StartupAlert}
	}

	m.orch = search.New(search.Sources{
		Official: opts.Client.SearchOfficial,
		AUR:      opts.Client.SearchAUR,
		Local:    search.LocalSource(opts.Index.AllInstalled),
	}, func() (domain.SortMode, bool) {
		return m.settings.SortMode, m.settings.FuzzySearch
	})

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	go m.orch.Run(ctx)

	return m
}

// Run starts the Bubble Tea program.
func (m *Model) Run(ctx context.Context) error {
	opts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	}

	// Headless runs skip mouse capture so tests can drive the model.
	if !m.headless {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	program := tea.NewProgram(m, opts...)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tick(),
		waitForResults(m.orch),
		waitForPreflight(m.engine),
		textinput.Blink,
	}

	if m.settings.AppStartMode == config.StartNews {
		cmds = append(cmds, m.fetchNews())
	}

	return tea.Batch(cmds...)
}

// Close releases the orchestrator and the sudo session.
func (m *Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}

	if m.sudo != nil {
		m.sudo.Close()
	}
}

// setToast shows a transient message; the tick handler clears it.
func (m *Model) setToast(msg string) {
	m.toast = msg
	m.toastExpires = time.Now().Add(toastLifetime)
}

// Toast returns the current toast text, empty when none is showing.
func (m *Model) Toast() string {
	return m.toast
}

// ModalState exposes the current modal for tests.
func (m *Model) ModalState() Modal {
	return m.modal
}

// Focused exposes the focus tuple for tests.
func (m *Model) Focused() (Pane, RightFocus) {
	return m.focused, m.rightFocus
}

// SetInstalledOnly switches the right pane into the Downgrade/Remove
// layout used when browsing installed packages.
func (m *Model) SetInstalledOnly(on bool) {
	m.installedOnly = on

	if on && m.rightFocus == RightInstall {
		m.rightFocus = RightDowngrade
	}
}

// currentSelection returns the item under the cursor of the focused
// list.
func (m *Model) currentSelection() (domain.PackageItem, bool) {
	switch m.focused {
	case PaneSearch:
		if m.resultSel >= 0 && m.resultSel < len(m.results) {
			return m.results[m.resultSel], true
		}
	case PaneInstall:
		list := m.rightList()
		if list.selected >= 0 && list.selected < len(list.items) {
			return list.items[list.selected], true
		}
	case PaneRecent:
	}

	return domain.PackageItem{}, false
}

// rightList resolves the sub-focused right-pane list.
func (m *Model) rightList() *pkgList {
	switch m.rightFocus {
	case RightRemove:
		return m.remove
	case RightDowngrade:
		return m.downgrade
	default:
		return m.install
	}
}

// cycleFocus advances the pane focus. In installed-only mode the cycle
// is Search, Downgrade, Remove, Recent; otherwise Search, Install,
// Recent. Lists entered without a prior selection initialize to row 0.
func (m *Model) cycleFocus(backwards bool) {
	type slot struct {
		pane  Pane
		right RightFocus
	}

	var order []slot

	if m.installedOnly {
		order = []slot{
			{PaneSearch, m.rightFocus},
			{PaneInstall, RightDowngrade},
			{PaneInstall, RightRemove},
		}
	} else {
		order = []slot{
			{PaneSearch, m.rightFocus},
			{PaneInstall, RightInstall},
		}
	}

	if m.settings.ShowRecentPane {
		order = append(order, slot{PaneRecent, m.rightFocus})
	}

	current := 0

	for i, s := range order {
		if s.pane == m.focused && (s.pane != PaneInstall || s.right == m.rightFocus) {
			current = i

			break
		}
	}

	step := 1
	if backwards {
		step = len(order) - 1
	}

	next := order[(current+step)%len(order)]
	m.focused = next.pane

	if next.pane == PaneInstall {
		m.rightFocus = next.right
		m.rightList().EnsureSelection()
	}

	if next.pane == PaneRecent && m.recentSel < 0 && len(m.recent) > 0 {
		m.recentSel = 0
	}

	if next.pane == PaneSearch {
		m.searchInput.Focus()
	} else {
		m.searchInput.Blur()
	}
}

// submitQuery pushes the current input to the orchestrator and records
// it in the recent list once it settles.
func (m *Model) submitQuery() {
	query := m.searchInput.Value()
	m.orch.Submit(query)

	if strings.TrimSpace(query) != "" {
		m.recent = config.PushRecent(m.recent, query)

		if err := config.SaveList(config.ListPath("recent"), m.recent); err != nil {
			logger.Warn("saving recent queries failed", logger.Fields{"error": err})
		}
	}
}

// persistInstallList writes the install list after every mutation.
func (m *Model) persistInstallList() {
	if err := config.SaveList(config.ListPath("install_list"), m.install.Names()); err != nil {
		logger.Warn("saving install list failed", logger.Fields{"error": err})
	}
}

// persistSettings writes settings.conf after a user-visible change such
// as cycling the sort mode.
func (m *Model) persistSettings() {
	if err := m.settings.Save(config.SettingsPath()); err != nil {
		logger.Warn("saving settings failed", logger.Fields{"error": err})
	}
}

// snapshotInstalled writes the post-transaction installed set so the
// user has a restorable package list per transaction.
func (m *Model) snapshotInstalled() {
	items := m.idx.AllInstalled()

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name+" "+item.Version)
	}

	if err := config.SaveList(config.ListPath("installed_packages.txt"), names); err != nil {
		logger.Warn("saving installed snapshot failed", logger.Fields{"error": err})
	}
}

// transactionItems is the proposed transaction: the install list.
func (m *Model) transactionItems() []domain.PackageItem {
	out := make([]domain.PackageItem, len(m.install.items))
	copy(out, m.install.items)

	return out
}

// stylesFor rebuilds the style set after a theme reload.
func stylesFor(theme config.Theme) *styles.Styles {
	return styles.New(theme)
}

func sortNewsByDate(items []domain.NewsFeedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
}
