// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pacsea/pacsea/internal/config"
	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/exec"
	"github.com/pacsea/pacsea/internal/logger"
	"github.com/pacsea/pacsea/internal/preflight"
)

// Update implements tea.Model. It is the single mutation point: one
// message in, state change plus follow-up commands out.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		return m, nil

	case tickMsg:
		return m, m.handleTick(time.Time(msg))

	case searchResultsMsg:
		return m, m.handleResults(msg)

	case detailsMsg:
		if current, ok := m.currentSelection(); ok && current.Name == msg.item.Name {
			m.details = msg.details
		}

		return m, nil

	case pkgbuildMsg:
		return m, m.handlePKGBUILD(msg)

	case newsMsg:
		return m, m.handleNews(msg)

	case preflightUpdateMsg:
		// Artifact snapshots are pulled at render time; the message only
		// wakes the loop.
		return m, waitForPreflight(m.engine)

	case execDoneMsg:
		return m, m.handleExecDone(msg)

	case sudoValidatedMsg:
		return m, m.handleSudoValidated(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, nil
}

// handleTick expires the toast, drains the feeds error flag and re-arms
// the timer.
func (m *Model) handleTick(now time.Time) tea.Cmd {
	if m.toast != "" && !now.Before(m.toastExpires) {
		m.toast = ""
		m.toastExpires = time.Time{}
	}

	if m.feeds != nil && m.feeds.TakeNetworkError() {
		m.setToast("network unavailable, showing cached data")
	}

	return tick()
}

// handleResults applies a published result set. Stale sequences are
// dropped so an old fan-out can never overwrite a newer one.
func (m *Model) handleResults(msg searchResultsMsg) tea.Cmd {
	if msg.Seq < m.lastSeq {
		logger.Debug("stale results dropped at dispatch", logger.Fields{"seq": msg.Seq, "current": m.lastSeq})

		return waitForResults(m.orch)
	}

	m.lastSeq = msg.Seq
	m.results = msg.Items
	m.dropdownOpen = len(m.results) > 0

	cmds := []tea.Cmd{waitForResults(m.orch)}

	// Selection resets to the top; its details fetch starts right away.
	if len(m.results) > 0 {
		m.resultSel = 0
		cmds = append(cmds, m.fetchDetails(m.results[0]))
	} else {
		m.resultSel = -1
		m.details = domain.PackageDetails{}
	}

	return tea.Batch(cmds...)
}

func (m *Model) handlePKGBUILD(msg pkgbuildMsg) tea.Cmd {
	if msg.err != nil {
		m.setToast("PKGBUILD unavailable: " + domain.Classify(msg.err).String())

		return nil
	}

	m.pkgbuild = msg.content
	m.showPkgbuild = true

	return nil
}

func (m *Model) handleNews(msg newsMsg) tea.Cmd {
	if msg.err != nil {
		m.setToast("news unavailable: " + domain.Classify(msg.err).String())

		return nil
	}

	m.modal = NewsModal{Items: msg.items}

	return nil
}

// handleSudoValidated resumes the transaction the password modal was
// collecting for. The user may have closed the modal with Esc while the
// validation was in flight; the result is then dropped.
func (m *Model) handleSudoValidated(msg sudoValidatedMsg) tea.Cmd {
	modal, ok := m.modal.(PasswordModal)
	if !ok {
		return nil
	}

	if msg.err != nil {
		modal.Validating = false
		modal.Input = ""
		modal.Error = msg.err.Error()
		m.modal = modal

		return nil
	}

	cmds, err := m.transactionCmds(modal)
	if err != nil {
		m.modal = AlertModal{Message: err.Error()}

		return nil
	}

	m.modal = PreflightExecModal{
		Items:     modal.Items,
		Action:    modal.Purpose,
		Abortable: false,
	}

	return m.startTransaction(modal.Purpose, cmds)
}

func (m *Model) handleExecDone(msg execDoneMsg) tea.Cmd {
	if msg.err != nil {
		m.setToast("transaction failed: " + msg.err.Error())
		logger.Error("transaction failed", logger.Fields{"action": msg.action, "error": msg.err})
	}

	m.idx.Reload()
	m.snapshotInstalled()

	sig := domain.ComputeSignature(m.transactionItems())
	services := m.engine.Services(sig)

	pending := services[:0:0]

	for _, svc := range services {
		if svc.RestartDecision == domain.DecisionRestart {
			pending = append(pending, svc)
		}
	}

	m.modal = PostSummaryModal{
		Success:         msg.success,
		ServicesPending: pending,
		SnapshotLabel:   time.Now().Format("2006-01-02 15:04"),
	}

	if msg.success && msg.action == "install" {
		m.install = newPkgList()
		m.persistInstallList()
	}

	return nil
}

// handleMouse focuses the pane under a click using the rects recorded
// by the previous render.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return
	}

	switch m.hitTest(msg.X, msg.Y) {
	case rectSearch:
		m.focused = PaneSearch
		m.searchInput.Focus()
	case rectInstall:
		m.focused = PaneInstall
		m.searchInput.Blur()
		m.rightList().EnsureSelection()
	case rectRecent:
		m.focused = PaneRecent
		m.searchInput.Blur()

		if m.recentSel < 0 && len(m.recent) > 0 {
			m.recentSel = 0
		}
	}
}

// handleKey applies the routing precedence: modal first, then global
// bindings (with Esc closing an open dropdown before anything else),
// then the focused pane.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	chord := config.ChordFromKeyMsg(msg)

	if m.modal != nil {
		return m.updateModal(chord, msg)
	}

	if chord.Key == "esc" && m.dropdownOpen {
		m.dropdownOpen = false

		return nil
	}

	if cmd, handled := m.handleGlobal(chord); handled {
		return cmd
	}

	switch m.focused {
	case PaneInstall:
		return m.updateInstallPane(chord)
	case PaneRecent:
		return m.updateRecentPane(chord)
	default:
		return m.updateSearchPane(chord, msg)
	}
}

// handleGlobal handles the bindings that work from any pane.
func (m *Model) handleGlobal(chord config.Chord) (tea.Cmd, bool) {
	switch {
	case m.keymap.Matches(config.ActionExit, chord):
		m.Close()

		return tea.Quit, true

	case m.keymap.Matches(config.ActionHelp, chord):
		m.modal = HelpModal{Content: m.renderHelp()}

		return nil, true

	case m.keymap.Matches(config.ActionReloadTheme, chord):
		m.theme = config.LoadTheme(config.ThemePath())
		m.styles = stylesFor(m.theme)
		m.setToast("theme reloaded")

		return nil, true

	case m.keymap.Matches(config.ActionTogglePkgbuild, chord):
		return m.togglePkgbuild(), true

	case m.keymap.Matches(config.ActionCycleSort, chord):
		m.settings.SortMode = m.settings.SortMode.Next()
		m.persistSettings()
		domain.SortItems(m.results, m.settings.SortMode, m.searchInput.Value(), m.settings.FuzzySearch)
		m.setToast("sort: " + m.settings.SortMode.String())

		return nil, true

	case m.keymap.Matches(config.ActionNews, chord):
		return m.fetchNews(), true

	case m.keymap.Matches(config.ActionPaneNext, chord):
		m.cycleFocus(false)

		return nil, true

	case m.keymap.Matches(config.ActionPanePrev, chord):
		m.cycleFocus(true)

		return nil, true

	case m.keymap.Matches(config.ActionOptionalDeps, chord):
		m.openOptionalDeps()

		return nil, true

	case m.keymap.Matches(config.ActionScanConfig, chord):
		m.modal = ScanConfigModal{}

		return nil, true

	case m.keymap.Matches(config.ActionSystemUpdate, chord):
		m.openSystemUpdate()

		return nil, true

	case m.keymap.Matches(config.ActionImportHelp, chord):
		m.modal = ImportHelpModal{}

		return nil, true
	}

	return nil, false
}

// openOptionalDeps builds the optional-dependency picker from the
// selected package's details. Nothing happens until the details fetch
// for the selection has landed.
func (m *Model) openOptionalDeps() {
	item, ok := m.currentSelection()
	if !ok || m.details.Name != item.Name {
		return
	}

	if len(m.details.OptDepends) == 0 {
		m.setToast(item.Name + " has no optional dependencies")

		return
	}

	rows := make([]OptionalDepRow, 0, len(m.details.OptDepends))

	for _, spec := range m.details.OptDepends {
		name, _ := domain.SplitDepSpec(spec)
		version, _ := m.idx.InstalledVersion(name)
		rows = append(rows, OptionalDepRow{Delta: domain.NewDependencyDelta(spec, version)})
	}

	m.modal = OptionalDepsModal{Package: item.Name, Rows: rows}
}

// openSystemUpdate opens the update modal; dry-run goes straight to the
// batch confirmation since no password will be needed.
func (m *Model) openSystemUpdate() {
	if m.runner.DryRun() {
		m.modal = ConfirmBatchUpdateModal{DryRun: true}

		return
	}

	m.modal = SystemUpdateModal{}
}

func (m *Model) togglePkgbuild() tea.Cmd {
	if m.showPkgbuild {
		m.showPkgbuild = false

		return nil
	}

	item, ok := m.currentSelection()
	if !ok {
		return nil
	}

	return m.fetchPKGBUILD(item)
}

// updateSearchPane feeds printable input to the query field and handles
// list navigation on the results dropdown.
func (m *Model) updateSearchPane(chord config.Chord, msg tea.KeyMsg) tea.Cmd {
	switch {
	case chord.Key == "up":
		if m.resultSel > 0 {
			m.resultSel--

			return m.fetchDetails(m.results[m.resultSel])
		}

		return nil

	case chord.Key == "down":
		if m.resultSel < len(m.results)-1 {
			m.resultSel++

			return m.fetchDetails(m.results[m.resultSel])
		}

		return nil

	case m.keymap.Matches(config.ActionAdd, chord):
		// With an open dropdown enter adds the selection; otherwise it
		// submits the query itself.
		if item, ok := m.currentSelection(); ok && m.dropdownOpen {
			if m.install.Add(item) {
				m.persistInstallList()
				m.setToast(item.Name + " added")
			}

			return nil
		}

		m.submitQuery()

		return nil

	case m.keymap.Matches(config.ActionPreflight, chord):
		return m.openPreflight()
	}

	// Everything else edits the query.
	var cmd tea.Cmd

	before := m.searchInput.Value()
	m.searchInput, cmd = m.searchInput.Update(msg)

	if m.searchInput.Value() != before {
		m.orch.Submit(m.searchInput.Value())
	}

	if chord.Key == "enter" {
		m.submitQuery()
	}

	return cmd
}

// updateInstallPane navigates and mutates the right-pane lists.
func (m *Model) updateInstallPane(chord config.Chord) tea.Cmd {
	list := m.rightList()

	switch {
	case chord.Key == "up":
		if list.selected > 0 {
			list.selected--
		}

	case chord.Key == "down":
		if list.selected < len(list.items)-1 {
			list.selected++
		}

	case m.keymap.Matches(config.ActionRemove, chord):
		list.RemoveAt(list.selected)

		if m.rightFocus == RightInstall {
			m.persistInstallList()
		}

	case m.keymap.Matches(config.ActionPreflight, chord):
		return m.openPreflight()

	case m.keymap.Matches(config.ActionConfirm, chord):
		return m.confirmFocusedList()

	case m.keymap.Matches(config.ActionSearchFocus, chord):
		m.focused = PaneSearch
		m.searchInput.Focus()
	}

	return nil
}

// confirmFocusedList opens the confirmation modal for the sub-focused
// list.
func (m *Model) confirmFocusedList() tea.Cmd {
	list := m.rightList()
	if len(list.items) == 0 {
		return nil
	}

	switch m.rightFocus {
	case RightRemove:
		m.modal = ConfirmRemoveModal{
			Items:   append([]domain.PackageItem(nil), list.items...),
			Cascade: m.engine.RemoveCascade(list.Names(), m.cascadeMode),
		}

	case RightDowngrade:
		m.modal = ConfirmReinstallModal{
			Items:    append([]domain.PackageItem(nil), list.items...),
			AllItems: m.transactionItems(),
		}

	default:
		if m.maybeGnomeNotice() {
			return nil
		}

		if m.settings.SkipPreflight {
			m.modal = ConfirmInstallModal{Items: m.transactionItems()}

			return nil
		}

		return m.openPreflight()
	}

	return nil
}

func (m *Model) updateRecentPane(chord config.Chord) tea.Cmd {
	switch {
	case chord.Key == "up":
		if m.recentSel > 0 {
			m.recentSel--
		}

	case chord.Key == "down":
		if m.recentSel < len(m.recent)-1 {
			m.recentSel++
		}

	case m.keymap.Matches(config.ActionConfirm, chord):
		if m.recentSel >= 0 && m.recentSel < len(m.recent) {
			query := m.recent[m.recentSel]
			m.searchInput.SetValue(query)
			m.orch.Submit(query)
			m.focused = PaneSearch
			m.searchInput.Focus()
		}

	case m.keymap.Matches(config.ActionSearchFocus, chord):
		m.focused = PaneSearch
		m.searchInput.Focus()
	}

	return nil
}

// maybeGnomeNotice shows the GNOME terminal notice once per session
// before the first real transaction: GNOME's default terminal handles
// the inline sudo prompt differently from a spawned window.
func (m *Model) maybeGnomeNotice() bool {
	if m.gnomeNoticeShown || m.runner.DryRun() {
		return false
	}

	if !strings.Contains(strings.ToUpper(os.Getenv("XDG_CURRENT_DESKTOP")), "GNOME") {
		return false
	}

	m.gnomeNoticeShown = true
	m.modal = GnomeTerminalPromptModal{}

	return true
}

// openPreflight opens the preflight modal on the Summary tab and kicks
// off the deps resolver for the current transaction.
func (m *Model) openPreflight() tea.Cmd {
	items := m.transactionItems()
	if len(items) == 0 {
		m.setToast("install list is empty")

		return nil
	}

	sig := domain.ComputeSignature(items)
	m.modal = PreflightModal{Items: items, Signature: sig, Tab: TabSummary}

	m.engine.Start(context.Background(), preflight.ArtifactDeps, items)

	return nil
}

// startTransaction validates sudo and runs the built commands off the
// event loop.
func (m *Model) startTransaction(action string, cmds [][]string) tea.Cmd {
	runner := m.runner

	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := runner.RunAll(ctx, cmds); err != nil {
			return execDoneMsg{action: action, success: false, err: err}
		}

		return execDoneMsg{action: action, success: true}
	}
}

// buildInstallCmds constructs the command lines for the install list.
func (m *Model) buildInstallCmds(items []domain.PackageItem) ([][]string, error) {
	helper := exec.DetectAURHelper()

	cmds, err := exec.InstallArgs(items, helper)
	if err != nil {
		return nil, fmt.Errorf("build install commands: %w", err)
	}

	return cmds, nil
}
