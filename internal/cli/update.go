// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/pacsea/pacsea/internal/config"
	"github.com/pacsea/pacsea/internal/exec"
)

// buildUpdateCmds assembles the update transaction: an optional mirror
// refresh from the configured countries, then the full-system upgrade.
func buildUpdateCmds(settings config.Settings) [][]string {
	var cmds [][]string

	if len(settings.SelectedCountries) > 0 {
		cmds = append(cmds, exec.MirrorRefreshArgs(settings.SelectedCountries, settings.MirrorCount))
	}

	return append(cmds, exec.SystemUpdateArgs(exec.DetectAURHelper()))
}

// runUpdate is the `pacsea --update` flow: show the commands, confirm,
// run them in the foreground so pacman's own output and sudo prompt
// reach the terminal.
func runUpdate(ctx context.Context, settings config.Settings, dryRun bool) error {
	cmds := buildUpdateCmds(settings)

	if !dryRun {
		confirmed, err := confirmUpdate(cmds)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return NewExitError(ExitInterruptError, "update cancelled", err)
			}

			return NewExitError(ExitGeneralError, "update confirmation failed", err)
		}

		if !confirmed {
			return nil
		}
	}

	runner := exec.NewRunner(dryRun, os.Stdout)

	if err := runner.RunAll(ctx, cmds); err != nil {
		if ctx.Err() != nil {
			return NewExitError(ExitInterruptError, "update interrupted", err)
		}

		return NewExitError(ExitGeneralError, "system update failed", err)
	}

	return nil
}

// confirmUpdate asks before touching the system. Headless runs confirm
// automatically so the flow stays testable.
func confirmUpdate(cmds [][]string) (bool, error) {
	if config.Headless() {
		return true, nil
	}

	lines := make([]string, 0, len(cmds))
	for _, argv := range cmds {
		lines = append(lines, "  "+exec.ShellLine(argv))
	}

	confirmed := false

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Run full system update?").
				Description(strings.Join(lines, "\n")).
				Affirmative("Update").
				Negative("Cancel").
				Value(&confirmed),
		),
	)

	if err := form.Run(); err != nil {
		return false, err
	}

	return confirmed, nil
}
