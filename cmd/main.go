// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

// Package main provides the CLI entry point for Pacsea.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/pacsea/pacsea/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	// One pacsea instance per user: the TUI and the update flow both
	// mutate the same config files and pacman state.
	lockPath := filepath.Join(os.TempDir(), fmt.Sprintf("pacsea-%d.lock", os.Getuid()))
	lock := flock.New(lockPath)

	locked, err := lock.TryLock()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to acquire process lock: %v\n", err)

		return cli.ExitSystemError
	}

	if !locked {
		fmt.Fprintln(os.Stderr, "Another pacsea instance is already running")

		return cli.ExitGeneralError
	}

	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to release process lock: %v\n", unlockErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.App().Run(ctx, os.Args); err != nil {
		exitErr := &cli.ExitError{}
		if errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "%s\n", exitErr.Message)

			return exitErr.Code
		}

		fmt.Fprintf(os.Stderr, "Unexpected error: %v\n", err)

		return cli.ExitGeneralError
	}

	return cli.ExitSuccess
}
