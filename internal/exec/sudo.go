// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	osexec "os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pacsea/pacsea/internal/config"
	"github.com/pacsea/pacsea/internal/logger"
)

// ErrEmptyPassword is returned before any subprocess is launched when
// the prompt input is empty.
var ErrEmptyPassword = errors.New("empty password")

// ErrBadPassword indicates sudo rejected the piped password.
var ErrBadPassword = errors.New("sudo rejected password")

// keepAliveInterval refreshes the sudo timestamp well inside its
// default 5 minute lifetime so long updates never re-prompt.
const keepAliveInterval = 60 * time.Second

// sudoRun executes one sudo invocation with the given stdin. Injectable
// for tests.
type sudoRun func(ctx context.Context, stdin io.Reader, argv []string) error

// SudoSession validates the user's password exactly once per
// transaction and keeps the sudo timestamp fresh until Close.
type SudoSession struct {
	run      sudoRun
	interval time.Duration

	mu        sync.Mutex
	validated bool
	stop      chan struct{}
}

// SudoOption tweaks session construction.
type SudoOption func(*SudoSession)

// WithSudoRun replaces the subprocess launcher (tests).
func WithSudoRun(run sudoRun) SudoOption {
	return func(s *SudoSession) {
		s.run = run
	}
}

// WithKeepAliveInterval overrides the refresh period (tests).
func WithKeepAliveInterval(d time.Duration) SudoOption {
	return func(s *SudoSession) {
		s.interval = d
	}
}

// NewSudoSession builds an unvalidated session.
func NewSudoSession(opts ...SudoOption) *SudoSession {
	s := &SudoSession{
		run:      runSudo,
		interval: keepAliveInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Validate pipes the password to `sudo -S -v`. Empty input fails before
// any subprocess is launched. A second call on a validated session is a
// no-op, so one transaction prompts at most once.
func (s *SudoSession) Validate(ctx context.Context, password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrEmptyPassword
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.validated {
		return nil
	}

	stdin := strings.NewReader(password + "\n")
	if err := s.run(ctx, stdin, []string{"sudo", "-S", "-v"}); err != nil {
		return fmt.Errorf("%w: %w", ErrBadPassword, err)
	}

	s.validated = true
	s.stop = make(chan struct{})

	go s.keepAlive(s.stop)

	return nil
}

// Validated reports whether the timestamp is established.
func (s *SudoSession) Validated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.validated
}

// keepAlive refreshes the timestamp with the non-interactive `sudo -n
// -v` until the session closes. Refresh failures end the loop; the next
// privileged command prompts again through a fresh session.
func (s *SudoSession) keepAlive(stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.run(context.Background(), nil, []string{"sudo", "-n", "-v"}); err != nil {
				logger.Warn("sudo keep-alive failed", logger.Fields{"error": err})
				s.invalidate()

				return
			}
		}
	}
}

func (s *SudoSession) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validated = false
}

// Close stops the keep-alive loop. The sudo timestamp itself expires on
// its own.
func (s *SudoSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}

	s.validated = false
}

// runSudo is the production launcher. Headless runs validate without
// spawning anything.
func runSudo(ctx context.Context, stdin io.Reader, argv []string) error {
	if config.Headless() {
		return nil
	}

	cmd := osexec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = stdin

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", strings.Join(argv, " "), err)
	}

	return nil
}
