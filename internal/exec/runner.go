// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package exec

import (
	"context"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"sync"

	"github.com/pacsea/pacsea/internal/config"
	"github.com/pacsea/pacsea/internal/logger"
)

// Runner executes transaction command lines with the dry-run and
// headless policies applied. It is safe for concurrent use.
type Runner struct {
	dryRun   bool
	headless bool
	out      io.Writer

	mu       sync.Mutex
	recorded []string
}

// NewRunner builds a runner. Headless mode is taken from the
// environment so tests never spawn subprocesses.
func NewRunner(dryRun bool, out io.Writer) *Runner {
	if out == nil {
		out = os.Stdout
	}

	return &Runner{
		dryRun:   dryRun,
		headless: config.Headless(),
		out:      out,
	}
}

// DryRun reports whether commands are printed instead of executed.
func (r *Runner) DryRun() bool {
	return r.dryRun
}

// Run executes one command line. Under dry-run the line is printed and
// recorded; under headless it is only recorded. Otherwise the command
// runs attached to the user's terminal.
func (r *Runner) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return nil
	}

	line := ShellLine(argv)
	r.record(line)

	if r.dryRun {
		fmt.Fprintln(r.out, line)

		return nil
	}

	if r.headless {
		logger.Debug("headless run recorded", logger.Fields{"command": line})

		return nil
	}

	cmd := osexec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logger.Info("running transaction command", logger.Fields{"command": line})

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", argv[0], err)
	}

	return nil
}

// RunAll executes command lines in order, stopping at the first
// failure.
func (r *Runner) RunAll(ctx context.Context, cmds [][]string) error {
	for _, argv := range cmds {
		if err := r.Run(ctx, argv); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) record(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.recorded = append(r.recorded, line)
}

// Recorded returns the command lines seen so far, newest last.
func (r *Runner) Recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.recorded))
	copy(out, r.recorded)

	return out
}
