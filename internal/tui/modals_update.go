// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pacsea/pacsea/internal/config"
	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/exec"
	"github.com/pacsea/pacsea/internal/preflight"
)

// updateModal routes a key to the open modal's handler. Esc always
// closes the modal without side effects; the close path assigns nil so
// a closed modal cannot re-open from stale state.
func (m *Model) updateModal(chord config.Chord, msg tea.KeyMsg) tea.Cmd {
	if chord.Key == "esc" {
		if run, ok := m.modal.(PreflightExecModal); ok && run.Abortable {
			// An abortable run cancels the resolvers before closing.
			m.engine.Cancel()
		}

		m.modal = nil

		return nil
	}

	switch modal := m.modal.(type) {
	case AlertModal, HelpModal, ImportHelpModal, GnomeTerminalPromptModal, PostSummaryModal:
		// Any confirm-style key dismisses informational modals.
		if chord.Key == "enter" || chord.Key == "q" || chord.Key == " " {
			m.modal = nil
		}

		return nil

	case ConfirmInstallModal:
		return m.updateConfirmInstall(modal, chord)

	case ConfirmRemoveModal:
		return m.updateConfirmRemove(modal, chord)

	case ConfirmReinstallModal:
		if chord.Key == "enter" || chord.Key == "y" {
			m.modal = PasswordModal{Purpose: "downgrade", Items: modal.Items}
		}

		return nil

	case ConfirmBatchUpdateModal:
		return m.updateConfirmBatch(modal, chord)

	case PreflightModal:
		return m.updatePreflight(modal, chord)

	case SystemUpdateModal:
		if chord.Key == "enter" && !modal.Running {
			m.modal = PasswordModal{Purpose: "update"}
		}

		return nil

	case OptionalDepsModal:
		return m.updateOptionalDeps(modal, chord)

	case ScanConfigModal:
		return m.updateScanConfig(modal, chord)

	case VirusTotalSetupModal:
		return m.updateVirusTotalSetup(modal, msg)

	case NewsModal:
		return m.updateNews(modal, chord)

	case PasswordModal:
		return m.updatePassword(modal, msg)
	}

	return nil
}

func (m *Model) updateConfirmInstall(modal ConfirmInstallModal, chord config.Chord) tea.Cmd {
	if chord.Key != "enter" && chord.Key != "y" {
		return nil
	}

	if m.runner.DryRun() {
		cmds, err := m.buildInstallCmds(modal.Items)
		if err != nil {
			m.modal = AlertModal{Message: err.Error()}

			return nil
		}

		m.modal = nil

		return m.startTransaction("install", cmds)
	}

	m.modal = PasswordModal{Purpose: "install", Items: modal.Items}

	return nil
}

func (m *Model) updateConfirmRemove(modal ConfirmRemoveModal, chord config.Chord) tea.Cmd {
	if chord.Key != "enter" && chord.Key != "y" {
		return nil
	}

	if m.runner.DryRun() {
		m.modal = nil

		names := make([]string, 0, len(modal.Items))
		for _, item := range modal.Items {
			names = append(names, item.Name)
		}

		return m.startTransaction("remove", [][]string{exec.RemoveArgs(names, m.cascadeMode == preflight.CascadeDeep)})
	}

	m.modal = PasswordModal{Purpose: "remove", Items: modal.Items}

	return nil
}

func (m *Model) updateConfirmBatch(modal ConfirmBatchUpdateModal, chord config.Chord) tea.Cmd {
	if chord.Key != "enter" && chord.Key != "y" {
		return nil
	}

	if modal.DryRun {
		m.modal = nil

		return m.startTransaction("update", [][]string{exec.SystemUpdateArgs(exec.DetectAURHelper())})
	}

	m.modal = PasswordModal{Purpose: "update", Items: modal.Items}

	return nil
}

// updatePreflight handles tab cycling and per-tab navigation. Entering
// a tab whose artifact is empty with no resolver in flight spawns one;
// the selection resets only on a tab's first population.
func (m *Model) updatePreflight(modal PreflightModal, chord config.Chord) tea.Cmd {
	switch chord.Key {
	case "left":
		if modal.Tab > TabSummary {
			modal.Tab--
		}

	case "right", "tab":
		if modal.Tab < TabSandbox {
			modal.Tab++
		} else {
			modal.Tab = TabSummary
		}

	case "up":
		if modal.Selected > 0 {
			modal.Selected--
		}

	case "down":
		if modal.Selected < m.preflightRowCount(modal)-1 {
			modal.Selected++
		}

	case "enter":
		m.modal = ConfirmInstallModal{Items: modal.Items}

		return nil

	case "c":
		if m.cascadeMode == preflight.CascadeBasic {
			m.cascadeMode = preflight.CascadeDeep
		} else {
			m.cascadeMode = preflight.CascadeBasic
		}

	case " ":
		if modal.Tab == TabServices {
			m.cycleServiceDecision(modal)
		}
	}

	if kind, ok := artifactForTab(modal.Tab); ok {
		m.engine.Start(context.Background(), kind, modal.Items)

		if !modal.Populated[modal.Tab] {
			modal.Selected = 0
			modal.Populated[modal.Tab] = true
		}
	}

	m.modal = modal

	return nil
}

// preflightRowCount reports how many selectable rows the tab shows.
func (m *Model) preflightRowCount(modal PreflightModal) int {
	names := make([]string, 0, len(modal.Items))
	current := make(map[string]struct{}, len(modal.Items))

	for _, item := range modal.Items {
		names = append(names, item.Name)
		current[item.Name] = struct{}{}
	}

	switch modal.Tab {
	case TabDeps:
		return len(m.engine.Deps(modal.Signature, current))
	case TabFiles:
		return len(m.engine.Files(modal.Signature, names))
	case TabServices:
		return len(m.engine.Services(modal.Signature))
	case TabSandbox:
		return len(m.engine.Sandbox(modal.Signature, names))
	default:
		return 0
	}
}

// cycleServiceDecision steps the selected unit's decision through
// Restart, Defer, Skip. The recommendation stays untouched so the row
// can show the deviation.
func (m *Model) cycleServiceDecision(modal PreflightModal) {
	services := m.engine.Services(modal.Signature)
	if modal.Selected < 0 || modal.Selected >= len(services) {
		return
	}

	svc := services[modal.Selected]

	next := domain.DecisionRestart

	switch svc.RestartDecision {
	case domain.DecisionRestart:
		next = domain.DecisionDefer
	case domain.DecisionDefer:
		next = domain.DecisionSkip
	case domain.DecisionSkip:
		next = domain.DecisionRestart
	}

	m.engine.SetServiceDecision(modal.Signature, svc.UnitName, next)
}

func (m *Model) updateOptionalDeps(modal OptionalDepsModal, chord config.Chord) tea.Cmd {
	switch chord.Key {
	case "up":
		if modal.Selected > 0 {
			modal.Selected--
		}

	case "down":
		if modal.Selected < len(modal.Rows)-1 {
			modal.Selected++
		}

	case " ":
		if modal.Selected >= 0 && modal.Selected < len(modal.Rows) {
			modal.Rows[modal.Selected].Checked = !modal.Rows[modal.Selected].Checked
		}

	case "enter":
		for _, row := range modal.Rows {
			if row.Checked && !row.Delta.IsInstalled {
				m.install.Add(domain.PackageItem{Name: row.Delta.Name, Source: domain.Official("", "")})
			}
		}

		m.persistInstallList()
		m.modal = nil

		return nil
	}

	m.modal = modal

	return nil
}

func (m *Model) updateScanConfig(modal ScanConfigModal, chord config.Chord) tea.Cmd {
	toggles := []*bool{
		&m.settings.ScanDoClamAV,
		&m.settings.ScanDoTrivy,
		&m.settings.ScanDoSemgrep,
		&m.settings.ScanDoShellcheck,
		&m.settings.ScanDoVirusTotal,
	}

	switch chord.Key {
	case "up":
		if modal.Selected > 0 {
			modal.Selected--
		}

	case "down":
		if modal.Selected < len(toggles)-1 {
			modal.Selected++
		}

	case " ", "enter":
		*toggles[modal.Selected] = !*toggles[modal.Selected]

		// VirusTotal needs an API key before it can be enabled.
		if modal.Selected == len(toggles)-1 && m.settings.ScanDoVirusTotal && m.settings.VirusTotalAPIKey == "" {
			m.settings.ScanDoVirusTotal = false
			m.modal = VirusTotalSetupModal{}

			return nil
		}

		m.persistSettings()
	}

	m.modal = modal

	return nil
}

func (m *Model) updateVirusTotalSetup(modal VirusTotalSetupModal, msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.settings.VirusTotalAPIKey = modal.Input
		m.settings.ScanDoVirusTotal = modal.Input != ""
		m.persistSettings()
		m.modal = nil

		return nil

	case tea.KeyBackspace:
		if len(modal.Input) > 0 {
			modal.Input = modal.Input[:len(modal.Input)-1]
		}

	case tea.KeyRunes:
		modal.Input += string(msg.Runes)
	}

	modal.Cursor = len(modal.Input)
	m.modal = modal

	return nil
}

func (m *Model) updateNews(modal NewsModal, chord config.Chord) tea.Cmd {
	switch chord.Key {
	case "up":
		if modal.Selected > 0 {
			modal.Selected--
		}

	case "down":
		if modal.Selected < len(modal.Items)-1 {
			modal.Selected++
		}
	}

	m.modal = modal

	return nil
}

// updatePassword collects the password and validates it exactly once
// per transaction. Empty input never reaches a subprocess.
func (m *Model) updatePassword(modal PasswordModal, msg tea.KeyMsg) tea.Cmd {
	if modal.Validating {
		return nil
	}

	switch msg.Type {
	case tea.KeyRunes:
		modal.Input += string(msg.Runes)
		modal.Error = ""
		m.modal = modal

		return nil

	case tea.KeyBackspace:
		if len(modal.Input) > 0 {
			modal.Input = modal.Input[:len(modal.Input)-1]
		}

		m.modal = modal

		return nil

	case tea.KeyEnter:
		return m.submitPassword(modal)

	default:
		return nil
	}
}

// submitPassword rejects empty input in place and hands anything else
// to a background validation command, so the dispatch loop never waits
// on the sudo subprocess.
func (m *Model) submitPassword(modal PasswordModal) tea.Cmd {
	if strings.TrimSpace(modal.Input) == "" {
		modal.Error = exec.ErrEmptyPassword.Error()
		m.modal = modal

		return nil
	}

	modal.Validating = true
	modal.Error = ""
	m.modal = modal

	sudo := m.sudo
	password := modal.Input

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return sudoValidatedMsg{err: sudo.Validate(ctx, password)}
	}
}

func (m *Model) transactionCmds(modal PasswordModal) ([][]string, error) {
	names := make([]string, 0, len(modal.Items))
	for _, item := range modal.Items {
		names = append(names, item.Name)
	}

	switch modal.Purpose {
	case "remove":
		return [][]string{exec.RemoveArgs(names, m.cascadeMode == preflight.CascadeDeep)}, nil

	case "downgrade":
		return [][]string{exec.DowngradeArgs(names)}, nil

	case "update":
		cmds := [][]string{}

		if len(m.settings.SelectedCountries) > 0 {
			cmds = append(cmds, exec.MirrorRefreshArgs(m.settings.SelectedCountries, m.settings.MirrorCount))
		}

		return append(cmds, exec.SystemUpdateArgs(exec.DetectAURHelper())), nil

	default:
		return m.buildInstallCmds(modal.Items)
	}
}
