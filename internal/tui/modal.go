// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package tui

import (
	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/preflight"
)

// Modal is the sum type of every full-screen overlay. A nil Modal means
// no overlay; closing a modal assigns nil, so a closed modal can never
// re-open from stale state. Each variant carries exactly the fields its
// handler needs, and the dispatch core type-switches exhaustively.
type Modal interface {
	modalKind() string
}

// AlertModal shows a dismissable message, e.g. a bad settings key.
type AlertModal struct {
	Message string
}

// HelpModal shows the rendered keybinding help.
type HelpModal struct {
	Content string
}

// ConfirmInstallModal asks before an install transaction.
type ConfirmInstallModal struct {
	Items []domain.PackageItem
}

// ConfirmRemoveModal asks before a removal, with the cascade preview.
type ConfirmRemoveModal struct {
	Items   []domain.PackageItem
	Cascade []string
}

// ConfirmReinstallModal asks before reinstalling already-installed
// items filtered out of a larger transaction.
type ConfirmReinstallModal struct {
	Items       []domain.PackageItem
	AllItems    []domain.PackageItem
	HeaderChips []string
}

// ConfirmBatchUpdateModal asks before the system update flow.
type ConfirmBatchUpdateModal struct {
	Items  []domain.PackageItem
	DryRun bool
}

// PreflightTab indexes the preflight modal's tabs.
type PreflightTab int

// Preflight tabs.
const (
	TabSummary PreflightTab = iota
	TabDeps
	TabFiles
	TabServices
	TabSandbox
)

// PreflightModal is the transaction preview. Artifact data stays in the
// engine cache; the modal holds only view state.
type PreflightModal struct {
	Items     []domain.PackageItem
	Signature string
	Tab       PreflightTab
	Selected  int
	// populated tracks per-tab first population so selection resets
	// only once per tab.
	Populated [5]bool
}

// PreflightExecModal streams the running transaction's output.
type PreflightExecModal struct {
	Items       []domain.PackageItem
	Action      string
	Tab         PreflightTab
	Verbose     bool
	LogLines    []string
	Abortable   bool
	Success     bool
	HeaderChips []string
}

// PostSummaryModal reports the finished transaction.
type PostSummaryModal struct {
	Success         bool
	ChangedFiles    int
	PacnewCount     int
	PacsaveCount    int
	ServicesPending []domain.ServiceImpact
	SnapshotLabel   string
}

// SystemUpdateModal drives the -Syu flow.
type SystemUpdateModal struct {
	DryRun   bool
	LogLines []string
	Running  bool
	Success  bool
}

// OptionalDepRow is one optional dependency with its install state.
type OptionalDepRow struct {
	Delta   domain.DependencyDelta
	Checked bool
}

// OptionalDepsModal lists a package's optional dependencies for
// selection.
type OptionalDepsModal struct {
	Package  string
	Rows     []OptionalDepRow
	Selected int
}

// ScanConfigModal toggles the PKGBUILD scanners.
type ScanConfigModal struct {
	Selected int
}

// VirusTotalSetupModal captures the API key.
type VirusTotalSetupModal struct {
	Input  string
	Cursor int
}

// GnomeTerminalPromptModal asks before spawning a detached terminal on
// GNOME, where the legacy terminal needs a profile workaround.
type GnomeTerminalPromptModal struct{}

// ImportHelpModal explains the install-list import format.
type ImportHelpModal struct{}

// NewsModal shows the merged, filtered feed items.
type NewsModal struct {
	Items    []domain.NewsFeedItem
	Selected int
}

// PasswordModal collects the sudo password for a purpose. Validating
// marks an in-flight background check; input is inert until it
// resolves.
type PasswordModal struct {
	Purpose    string
	Items      []domain.PackageItem
	Input      string
	Error      string
	Validating bool
}

func (AlertModal) modalKind() string               { return "alert" }
func (HelpModal) modalKind() string                { return "help" }
func (ConfirmInstallModal) modalKind() string      { return "confirm_install" }
func (ConfirmRemoveModal) modalKind() string       { return "confirm_remove" }
func (ConfirmReinstallModal) modalKind() string    { return "confirm_reinstall" }
func (ConfirmBatchUpdateModal) modalKind() string  { return "confirm_batch_update" }
func (PreflightModal) modalKind() string           { return "preflight" }
func (PreflightExecModal) modalKind() string       { return "preflight_exec" }
func (PostSummaryModal) modalKind() string         { return "post_summary" }
func (SystemUpdateModal) modalKind() string        { return "system_update" }
func (OptionalDepsModal) modalKind() string        { return "optional_deps" }
func (ScanConfigModal) modalKind() string          { return "scan_config" }
func (VirusTotalSetupModal) modalKind() string     { return "virustotal_setup" }
func (GnomeTerminalPromptModal) modalKind() string { return "gnome_terminal_prompt" }
func (ImportHelpModal) modalKind() string          { return "import_help" }
func (NewsModal) modalKind() string                { return "news" }
func (PasswordModal) modalKind() string            { return "password" }

// artifactForTab maps a preflight tab to the engine artifact it needs,
// or false for the summary tab.
func artifactForTab(tab PreflightTab) (preflight.ArtifactKind, bool) {
	switch tab {
	case TabDeps:
		return preflight.ArtifactDeps, true
	case TabFiles:
		return preflight.ArtifactFiles, true
	case TabServices:
		return preflight.ArtifactServices, true
	case TabSandbox:
		return preflight.ArtifactSandbox, true
	default:
		return 0, false
	}
}
