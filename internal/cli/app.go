// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

// Package cli provides the pacsea command-line surface. The default
// action launches the TUI; --update runs the system-update flow in the
// plain terminal and exits.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pacsea/pacsea/internal/config"
	"github.com/pacsea/pacsea/internal/exec"
	"github.com/pacsea/pacsea/internal/feeds"
	"github.com/pacsea/pacsea/internal/index"
	"github.com/pacsea/pacsea/internal/logger"
	"github.com/pacsea/pacsea/internal/preflight"
	"github.com/pacsea/pacsea/internal/sources"
	"github.com/pacsea/pacsea/internal/tui"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Exit codes follow standard Unix conventions.
const (
	ExitSuccess        = 0  // Operation completed successfully
	ExitGeneralError   = 1  // Generic failure
	ExitUsageError     = 2  // Invalid command line usage or no terminal
	ExitSystemError    = 12 // System call failed (lock, filesystem)
	ExitInterruptError = 14 // User interrupted
)

// ExitError carries a specific exit code back to main.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// NewExitError wraps err with an exit code and a user-facing message.
func NewExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// App builds the root command.
func App() *cli.Command {
	return &cli.Command{
		Name:    "pacsea",
		Usage:   "interactive package manager for Arch Linux",
		Version: sources.Version,
		Suggest: true,
		Description: `Pacsea searches the official repositories and the AUR, previews a
transaction's dependencies, file changes and service impact before it
runs, and keeps an eye on Arch news and security advisories.

Run without arguments to open the TUI.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "print the commands a transaction would run instead of running them",
			},
			&cli.BoolFlag{
				Name:    "update",
				Aliases: []string{"u"},
				Usage:   "run a full system update and exit",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if err := config.EnsureDirs(); err != nil {
		return NewExitError(ExitSystemError, "creating config directories failed", err)
	}

	logger.Init(config.CacheDir(), os.Getenv("PACSEA_LOG_LEVEL"))

	settings, settingsErr := config.LoadSettings(config.SettingsPath())

	if cmd.Bool("update") {
		return runUpdate(ctx, settings, cmd.Bool("dry-run"))
	}

	return runTUI(ctx, settings, settingsErr, cmd.Bool("dry-run"))
}

// runTUI wires the collaborators and hands the terminal to the
// dispatch core. A settings parse error opens the first frame with an
// alert instead of aborting the launch.
func runTUI(ctx context.Context, settings config.Settings, settingsErr error, dryRun bool) error {
	if !config.Headless() && !term.IsTerminal(int(os.Stdout.Fd())) {
		return NewExitError(ExitUsageError, tui.ErrNoTerminal.Error(), tui.ErrNoTerminal)
	}

	client := sources.NewClient()
	idx := index.New(index.DefaultRoot)

	diskTTL := time.Duration(settings.NewsCacheTTLDays) * 24 * time.Hour
	store := feeds.NewStore(config.CacheDir(), diskTTL)

	opts := tui.Options{
		Settings: settings,
		Keymap:   config.LoadKeymap(config.KeybindsPath()),
		Theme:    config.LoadTheme(config.ThemePath()),
		Index:    idx,
		Client:   client,
		Feeds:    feeds.NewService(store, client),
		Engine:   preflight.NewEngine(idx, preflight.NewSourceMetadata(client), preflight.SystemdProber{}),
		Runner:   exec.NewRunner(dryRun, os.Stdout),
		Sudo:     exec.NewSudoSession(),
	}

	if settingsErr != nil {
		opts.StartupAlert = settingsErr.Error()
	}

	model := tui.New(opts)
	defer model.Close()

	if err := model.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return NewExitError(ExitInterruptError, "interrupted", err)
		}

		return NewExitError(ExitGeneralError, "tui failed", err)
	}

	return nil
}
