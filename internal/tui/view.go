// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/preflight"
)

const (
	minWidth  = 40
	minHeight = 10
)

// View implements tea.Model. Rendering reads state and records the pane
// rectangles used for mouse hit-testing; it never mutates anything
// else.
func (m *Model) View() string {
	if m.width < minWidth || m.height < minHeight {
		return "terminal too small"
	}

	header := m.viewHeader()
	footer := m.viewFooter()

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	body := m.viewBody(bodyHeight)

	frame := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)

	if m.modal != nil {
		frame = m.overlayModal(frame)
	}

	if m.toast != "" {
		toast := m.styles.Toast.Render(m.toast)
		frame = lipgloss.JoinVertical(lipgloss.Right, toast, frame)
	}

	return frame
}

func (m *Model) viewHeader() string {
	title := m.styles.Header.Render("Pacsea")
	sortLabel := m.styles.MutedText.Render("sort: " + m.settings.SortMode.String())
	input := m.searchInput.View()

	m.recordRect(rectSearch, Rect{X: 0, Y: 0, W: m.width, H: 2})

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, title, " ", sortLabel),
		input,
	)
}

func (m *Model) viewFooter() string {
	if !m.settings.ShowKeybindsFooter {
		return ""
	}

	hints := []string{
		"F1 help", "Tab panes", "Enter add/confirm", "Ctrl+E preflight",
		"Ctrl+N news", "F5 sort", "Ctrl+C quit",
	}

	return m.styles.Footer.Render(truncate(strings.Join(hints, "  "), m.width-2))
}

func (m *Model) viewBody(height int) string {
	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth

	left := m.viewResults(leftWidth, height)

	rightTop := height / 2
	rightBottom := height - rightTop

	lists := m.viewLists(rightWidth, rightTop)
	recent := m.viewRecent(rightWidth, rightBottom)

	m.recordRect(rectResults, Rect{X: 0, Y: 2, W: leftWidth, H: height})
	m.recordRect(rectInstall, Rect{X: leftWidth, Y: 2, W: rightWidth, H: rightTop})
	m.recordRect(rectRecent, Rect{X: leftWidth, Y: 2 + rightTop, W: rightWidth, H: rightBottom})

	right := lipgloss.JoinVertical(lipgloss.Left, lists, recent)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m *Model) viewResults(width, height int) string {
	border := m.styles.PaneBorder
	if m.focused == PaneSearch {
		border = m.styles.FocusBorder
	}

	var rows []string

	innerWidth := width - 4

	visible := height - 4
	if visible < 1 {
		visible = 1
	}

	for i, item := range m.results {
		if i >= visible {
			break
		}

		label := fmt.Sprintf("%s %s", item.Name, item.Version)

		if m.idx.IsInstalled(item.Name) {
			label += " [installed]"
		}

		switch {
		case item.OutOfDate > 0:
			label = m.styles.OutOfDate.Render(label)
		case item.Orphaned:
			label = m.styles.Orphaned.Render(label)
		}

		line := truncate(fmt.Sprintf("%-8s %s", item.Source.String(), label), innerWidth)

		if i == m.resultSel && m.focused == PaneSearch {
			rows = append(rows, m.styles.Selected.Render(line))
		} else {
			rows = append(rows, m.styles.Unselected.Render(line))
		}
	}

	if len(rows) == 0 {
		rows = append(rows, m.styles.MutedText.Render("no results"))
	}

	if m.showPkgbuild && m.pkgbuild != "" {
		rows = append(rows, "", m.styles.Title.Render("PKGBUILD"), truncate(m.pkgbuild, innerWidth*visible))
	} else if m.details.Name != "" {
		rows = append(rows, "", m.viewDetails(innerWidth))
	}

	content := strings.Join(rows, "\n")

	return border.Width(width - 2).Height(height - 2).Render(content)
}

func (m *Model) viewDetails(width int) string {
	d := m.details

	lines := []string{
		m.styles.Title.Render(d.Name + " " + d.Version),
		truncate(d.Description, width),
		m.styles.MutedText.Render("repo: " + orNA(d.Repository) + "  maintainer: " + orNA(d.Maintainer)),
		m.styles.MutedText.Render("url: " + orNA(d.URL)),
	}

	if len(d.Depends) > 0 {
		lines = append(lines, truncate("depends: "+strings.Join(d.Depends, ", "), width))
	}

	return strings.Join(lines, "\n")
}

func (m *Model) viewLists(width, height int) string {
	focused := m.focused == PaneInstall
	border := m.styles.PaneBorder

	if focused {
		border = m.styles.FocusBorder
	}

	var sections []string

	if m.installedOnly {
		sections = append(sections,
			m.viewList("Downgrade", m.downgrade, focused && m.rightFocus == RightDowngrade, width-4),
			m.viewList("Remove", m.remove, focused && m.rightFocus == RightRemove, width-4),
		)
	} else {
		sections = append(sections,
			m.viewList("Install", m.install, focused && m.rightFocus == RightInstall, width-4),
		)

		if len(m.remove.items) > 0 {
			sections = append(sections, m.viewList("Remove", m.remove, focused && m.rightFocus == RightRemove, width-4))
		}
	}

	return border.Width(width - 2).Height(height - 2).Render(strings.Join(sections, "\n"))
}

func (m *Model) viewList(title string, list *pkgList, focused bool, width int) string {
	rows := []string{m.styles.Title.Render(fmt.Sprintf("%s (%d)", title, len(list.items)))}

	for i, item := range list.items {
		line := truncate(item.Name+" "+item.Version, width)

		if focused && i == list.selected {
			rows = append(rows, m.styles.Selected.Render(line))
		} else {
			rows = append(rows, m.styles.Unselected.Render(line))
		}
	}

	return strings.Join(rows, "\n")
}

func (m *Model) viewRecent(width, height int) string {
	if !m.settings.ShowRecentPane {
		return ""
	}

	border := m.styles.PaneBorder
	if m.focused == PaneRecent {
		border = m.styles.FocusBorder
	}

	rows := []string{m.styles.Title.Render("Recent")}

	visible := height - 3

	for i, query := range m.recent {
		if i >= visible {
			break
		}

		line := truncate(query, width-4)

		if m.focused == PaneRecent && i == m.recentSel {
			rows = append(rows, m.styles.Selected.Render(line))
		} else {
			rows = append(rows, m.styles.Unselected.Render(line))
		}
	}

	return border.Width(width - 2).Height(height - 2).Render(strings.Join(rows, "\n"))
}

// overlayModal centers the modal box over the frame.
func (m *Model) overlayModal(frame string) string {
	content := m.viewModal()
	box := m.styles.Modal.MaxWidth(m.width - 4).Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

//nolint:cyclop // one arm per modal variant
func (m *Model) viewModal() string {
	switch modal := m.modal.(type) {
	case AlertModal:
		return m.styles.ErrorText.Render("! ") + modal.Message + "\n\n" + m.styles.MutedText.Render("esc to dismiss")

	case HelpModal:
		return modal.Content

	case ConfirmInstallModal:
		return m.viewConfirm("Install", itemNames(modal.Items), "")

	case ConfirmRemoveModal:
		extra := ""
		if len(modal.Cascade) > 0 {
			extra = m.styles.WarningText.Render("also affected: "+strings.Join(modal.Cascade, ", ")) + "\n"
		}

		return m.viewConfirm("Remove", itemNames(modal.Items), extra)

	case ConfirmReinstallModal:
		return m.viewConfirm("Downgrade/reinstall", itemNames(modal.Items), "")

	case ConfirmBatchUpdateModal:
		return m.viewConfirm("System update", itemNames(modal.Items), "")

	case PreflightModal:
		return m.viewPreflightModal(modal)

	case PreflightExecModal:
		status := "running"
		if modal.Success {
			status = m.styles.SuccessText.Render("done")
		}

		return m.styles.Title.Render(modal.Action) + " " + status + "\n" + strings.Join(modal.LogLines, "\n")

	case PostSummaryModal:
		return m.viewPostSummary(modal)

	case SystemUpdateModal:
		return m.styles.Title.Render("System update") + "\n" + strings.Join(modal.LogLines, "\n")

	case OptionalDepsModal:
		return m.viewOptionalDeps(modal)

	case ScanConfigModal:
		return m.viewScanConfig(modal)

	case VirusTotalSetupModal:
		return m.styles.Title.Render("VirusTotal API key") + "\n> " + modal.Input

	case GnomeTerminalPromptModal:
		return "Launch in a new GNOME terminal window?\n\n" + m.styles.MutedText.Render("enter to confirm, esc to cancel")

	case ImportHelpModal:
		return "Import format: one package name per line.\n\n" + m.styles.MutedText.Render("esc to dismiss")

	case NewsModal:
		return m.viewNews(modal)

	case PasswordModal:
		return m.viewPassword(modal)

	default:
		return ""
	}
}

func (m *Model) viewConfirm(verb string, names []string, extra string) string {
	return m.styles.Title.Render(verb+"?") + "\n" +
		truncate(strings.Join(names, ", "), m.width-10) + "\n" +
		extra +
		m.styles.MutedText.Render("enter to confirm, esc to cancel")
}

func (m *Model) viewPreflightModal(modal PreflightModal) string {
	tabs := []string{"Summary", "Deps", "Files", "Services", "Sandbox"}

	var header []string

	for i, tab := range tabs {
		if PreflightTab(i) == modal.Tab {
			header = append(header, m.styles.Selected.Render(tab))
		} else {
			header = append(header, m.styles.Unselected.Render(tab))
		}
	}

	body := m.viewPreflightTab(modal)

	return strings.Join(header, " ") + "\n\n" + body
}

func (m *Model) viewPreflightTab(modal PreflightModal) string {
	names := make([]string, 0, len(modal.Items))
	current := make(map[string]struct{}, len(modal.Items))

	for _, item := range modal.Items {
		names = append(names, item.Name)
		current[item.Name] = struct{}{}
	}

	if kind, ok := artifactForTab(modal.Tab); ok && m.engine.Resolving(modal.Signature, kind) {
		return m.styles.MutedText.Render("resolving " + kind.String() + "...")
	}

	switch modal.Tab {
	case TabDeps:
		deps := m.engine.Deps(modal.Signature, current)

		rows := make([]string, 0, len(deps))
		for _, dep := range deps {
			rows = append(rows, m.depRow(dep))
		}

		if len(rows) == 0 {
			return m.styles.MutedText.Render("no dependency data yet")
		}

		return strings.Join(rows, "\n")

	case TabFiles:
		infos := m.engine.Files(modal.Signature, names)

		rows := make([]string, 0, len(infos))
		for _, info := range infos {
			rows = append(rows, fmt.Sprintf("%s  new:%d changed:%d config:%d pacnew:%d pacsave:%d",
				info.Package, info.NewCount, info.ChangedCount, info.ConfigCount, info.PacnewCount, info.PacsaveCount))
		}

		return strings.Join(rows, "\n")

	case TabServices:
		impacts := m.engine.Services(modal.Signature)

		rows := make([]string, 0, len(impacts))
		for _, impact := range impacts {
			rows = append(rows, fmt.Sprintf("%s  active:%t restart:%s", impact.UnitName, impact.IsActive, decisionLabel(impact.RestartDecision)))
		}

		return strings.Join(rows, "\n")

	case TabSandbox:
		infos := m.engine.Sandbox(modal.Signature, names)

		var rows []string

		for _, info := range infos {
			rows = append(rows, m.styles.Title.Render(info.Package))

			buckets := []struct {
				label  string
				deltas []domain.DependencyDelta
			}{
				{"depends", info.Depends},
				{"makedepends", info.MakeDepends},
				{"checkdepends", info.CheckDepends},
				{"optdepends", info.OptDepends},
			}

			for _, bucket := range buckets {
				if len(bucket.deltas) == 0 {
					continue
				}

				rows = append(rows, m.styles.MutedText.Render(" "+bucket.label))

				for _, delta := range bucket.deltas {
					rows = append(rows, m.deltaRow(delta))
				}
			}
		}

		return strings.Join(rows, "\n")

	default:
		cascade := ""
		if m.cascadeMode == preflight.CascadeDeep {
			cascade = "deep"
		} else {
			cascade = "basic"
		}

		return fmt.Sprintf("%d package(s)\nsignature %s\ncascade: %s",
			len(modal.Items), truncate(modal.Signature, 16), cascade)
	}
}

func decisionLabel(d domain.RestartDecision) string {
	switch d {
	case domain.DecisionRestart:
		return "restart"
	case domain.DecisionDefer:
		return "defer"
	default:
		return "skip"
	}
}

func (m *Model) depRow(dep domain.DependencyInfo) string {
	label := dep.Name + " " + dep.Version

	switch dep.Status.Kind {
	case domain.DepConflict:
		return m.styles.ErrorText.Render(label + "  CONFLICT: " + dep.Status.Reason)
	case domain.DepInstalled:
		return m.styles.Installed.Render(label + "  installed")
	case domain.DepMissing:
		return m.styles.WarningText.Render(label + "  missing")
	default:
		return label + "  to install"
	}
}

func (m *Model) deltaRow(delta domain.DependencyDelta) string {
	if !delta.IsInstalled {
		return m.styles.WarningText.Render("  " + delta.Name + delta.Constraint + "  not installed")
	}

	if !delta.VersionSatisfied {
		return m.styles.ErrorText.Render("  " + delta.Name + delta.Constraint + "  installed " + delta.InstalledVersion + " unsatisfied")
	}

	return m.styles.Installed.Render("  " + delta.Name + "  " + delta.InstalledVersion)
}

func (m *Model) viewPostSummary(modal PostSummaryModal) string {
	status := m.styles.SuccessText.Render("succeeded")
	if !modal.Success {
		status = m.styles.ErrorText.Render("failed")
	}

	lines := []string{
		m.styles.Title.Render("Transaction " + status),
		fmt.Sprintf("changed files: %d  pacnew: %d  pacsave: %d", modal.ChangedFiles, modal.PacnewCount, modal.PacsaveCount),
	}

	for _, svc := range modal.ServicesPending {
		lines = append(lines, m.styles.WarningText.Render("restart pending: "+svc.UnitName))
	}

	return strings.Join(lines, "\n")
}

func (m *Model) viewOptionalDeps(modal OptionalDepsModal) string {
	rows := []string{m.styles.Title.Render("Optional dependencies of " + modal.Package)}

	for i, row := range modal.Rows {
		check := "[ ]"
		if row.Checked {
			check = "[x]"
		}

		line := fmt.Sprintf("%s %s", check, row.Delta.Name)

		if i == modal.Selected {
			rows = append(rows, m.styles.Selected.Render(line))
		} else {
			rows = append(rows, m.styles.Unselected.Render(line))
		}
	}

	return strings.Join(rows, "\n")
}

func (m *Model) viewScanConfig(modal ScanConfigModal) string {
	labels := []string{"ClamAV", "Trivy", "Semgrep", "ShellCheck", "VirusTotal"}
	values := []bool{
		m.settings.ScanDoClamAV,
		m.settings.ScanDoTrivy,
		m.settings.ScanDoSemgrep,
		m.settings.ScanDoShellcheck,
		m.settings.ScanDoVirusTotal,
	}

	rows := []string{m.styles.Title.Render("PKGBUILD scanners")}

	for i, label := range labels {
		check := "[ ]"
		if values[i] {
			check = "[x]"
		}

		line := check + " " + label

		if i == modal.Selected {
			rows = append(rows, m.styles.Selected.Render(line))
		} else {
			rows = append(rows, m.styles.Unselected.Render(line))
		}
	}

	return strings.Join(rows, "\n")
}

func (m *Model) viewNews(modal NewsModal) string {
	rows := []string{m.styles.Title.Render("Arch news & advisories")}

	for i, item := range modal.Items {
		label := item.Date.Format("2006-01-02") + "  " + item.Title

		if item.Severity != "" {
			label += "  [" + item.Severity + "]"
		}

		line := truncate(label, m.width-10)

		if i == modal.Selected {
			rows = append(rows, m.styles.Selected.Render(line))
		} else {
			rows = append(rows, m.styles.Unselected.Render(line))
		}
	}

	if modal.Selected >= 0 && modal.Selected < len(modal.Items) {
		if summary := modal.Items[modal.Selected].Summary; summary != "" {
			rows = append(rows, "", renderMarkdown(summary, m.width-12))
		}
	}

	return strings.Join(rows, "\n")
}

func (m *Model) viewPassword(modal PasswordModal) string {
	masked := strings.Repeat("*", len(modal.Input))

	lines := []string{
		m.styles.Title.Render("Password required: " + modal.Purpose),
		"> " + masked,
	}

	if modal.Error != "" {
		lines = append(lines, m.styles.ErrorText.Render(modal.Error))
	}

	if modal.Validating {
		lines = append(lines, m.styles.MutedText.Render("validating..."))
	} else {
		lines = append(lines, m.styles.MutedText.Render("enter to confirm, esc to cancel"))
	}

	return strings.Join(lines, "\n")
}

// renderHelp builds the keybinding help as glamour-rendered markdown.
func (m *Model) renderHelp() string {
	var b strings.Builder

	b.WriteString("# Pacsea keybindings\n\n")

	for _, action := range []struct {
		name   string
		action string
	}{
		{"Help", "help"},
		{"Exit", "exit"},
		{"Reload theme", "reload_theme"},
		{"Toggle PKGBUILD", "toggle_pkgbuild"},
		{"Cycle sort mode", "change_sort"},
		{"Next pane", "pane_next"},
		{"Previous pane", "pane_prev"},
		{"Add / confirm", "add"},
		{"Remove row", "remove"},
		{"Preflight", "preflight"},
		{"News", "news"},
		{"Focus search", "search_focus"},
		{"Optional dependencies", "optional_deps"},
		{"Scan configuration", "scan_config"},
		{"System update", "system_update"},
		{"Import help", "import_help"},
	} {
		fmt.Fprintf(&b, "- **%s**: `keybind_%s`\n", action.name, action.action)
	}

	return renderMarkdown(b.String(), m.width-12)
}

// renderMarkdown runs glamour with a width cap; on failure the raw text
// is shown instead.
func renderMarkdown(md string, width int) string {
	if width < 20 {
		width = 20
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}

	out, err := renderer.Render(md)
	if err != nil {
		return md
	}

	return out
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	return runewidth.Truncate(s, width, "…")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}

	return s
}

func itemNames(items []domain.PackageItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}

	return out
}
