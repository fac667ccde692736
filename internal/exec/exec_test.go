// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package exec_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/pacsea/pacsea/internal/domain"
	"github.com/pacsea/pacsea/internal/exec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallArgsSplitsOfficialAndAUR(t *testing.T) {
	t.Parallel()

	items := []domain.PackageItem{
		{Name: "ripgrep", Source: domain.Official("extra", "x86_64")},
		{Name: "pacsea-git", Source: domain.AUR()},
		{Name: "bat", Source: domain.Official("extra", "x86_64")},
	}

	cmds, err := exec.InstallArgs(items, "paru")
	require.NoError(t, err)
	require.Len(t, cmds, 2)

	assert.Equal(t, []string{"sudo", "pacman", "-S", "--needed", "ripgrep", "bat"}, cmds[0])
	assert.Equal(t, []string{"paru", "-S", "--needed", "pacsea-git"}, cmds[1])
}

func TestInstallArgsRejectsAURWithoutHelper(t *testing.T) {
	t.Parallel()

	items := []domain.PackageItem{{Name: "pacsea-git", Source: domain.AUR()}}

	_, err := exec.InstallArgs(items, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pacsea-git")
}

func TestRemoveArgsCascade(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"sudo", "pacman", "-R", "nano"}, exec.RemoveArgs([]string{"nano"}, false))
	assert.Equal(t, []string{"sudo", "pacman", "-Rns", "nano"}, exec.RemoveArgs([]string{"nano"}, true))
}

func TestMirrorRefreshArgs(t *testing.T) {
	t.Parallel()

	args := exec.MirrorRefreshArgs([]string{"Germany", "Sweden"}, 5)
	assert.Contains(t, args, "--country")
	assert.Contains(t, args, "Germany,Sweden")
	assert.Contains(t, args, "5")

	worldwide := exec.MirrorRefreshArgs(nil, 0)
	assert.NotContains(t, worldwide, "--country")
	assert.Contains(t, worldwide, "10", "count defaults")
}

func TestParseCheckUpdates(t *testing.T) {
	t.Parallel()

	out := "linux 6.9.1-1 -> 6.9.2-1\nripgrep 14.1.0-1 -> 14.1.1-1\ngarbage line\n\n"

	latest := exec.ParseCheckUpdates(out)
	require.Len(t, latest, 2)
	assert.Equal(t, "6.9.2-1", latest["linux"])
	assert.Equal(t, "14.1.1-1", latest["ripgrep"])

	assert.Nil(t, exec.ParseCheckUpdates(""), "no updates yields nil")
}

func TestRunnerDryRunPrintsInsteadOfExecuting(t *testing.T) {
	t.Setenv("PACSEA_TEST_HEADLESS", "1")

	var out bytes.Buffer

	runner := exec.NewRunner(true, &out)

	err := runner.RunAll(context.Background(), [][]string{
		{"sudo", "pacman", "-S", "--needed", "ripgrep"},
		{"paru", "-S", "--needed", "pacsea-git"},
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "sudo pacman -S --needed ripgrep")
	assert.Contains(t, out.String(), "paru -S --needed pacsea-git")
	assert.Len(t, runner.Recorded(), 2)
}

func TestRunnerHeadlessRecordsOnly(t *testing.T) {
	t.Setenv("PACSEA_TEST_HEADLESS", "1")

	var out bytes.Buffer

	runner := exec.NewRunner(false, &out)

	require.NoError(t, runner.Run(context.Background(), []string{"sudo", "pacman", "-Syu"}))

	assert.Empty(t, out.String(), "headless runs print nothing")
	assert.Equal(t, []string{"sudo pacman -Syu"}, runner.Recorded())
}

// One transaction presents exactly one password prompt: the password is
// piped to a single `sudo -S -v`, and later privileged steps reuse the
// validated timestamp.
func TestSudoSessionSinglePrompt(t *testing.T) {
	t.Parallel()

	var (
		validations   int
		passwordReads int
	)

	run := func(_ context.Context, stdin io.Reader, argv []string) error {
		if len(argv) == 3 && argv[1] == "-S" {
			validations++

			data, err := io.ReadAll(stdin)
			require.NoError(t, err)

			if len(data) > 0 {
				passwordReads++
			}

			assert.Equal(t, "hunter2\n", string(data))
		}

		return nil
	}

	session := exec.NewSudoSession(exec.WithSudoRun(run))
	defer session.Close()

	require.NoError(t, session.Validate(context.Background(), "hunter2"))
	require.NoError(t, session.Validate(context.Background(), "hunter2"))
	require.NoError(t, session.Validate(context.Background(), "hunter2"))

	assert.Equal(t, 1, validations, "exactly one sudo -S -v")
	assert.Equal(t, 1, passwordReads, "the password is read once")
	assert.True(t, session.Validated())
}

// Empty input is rejected before any subprocess is launched.
func TestSudoSessionRejectsEmptyPassword(t *testing.T) {
	t.Parallel()

	spawned := false
	run := func(_ context.Context, _ io.Reader, _ []string) error {
		spawned = true

		return nil
	}

	session := exec.NewSudoSession(exec.WithSudoRun(run))

	err := session.Validate(context.Background(), "   ")
	require.ErrorIs(t, err, exec.ErrEmptyPassword)
	assert.False(t, spawned, "no subprocess before validation")
	assert.False(t, session.Validated())
}

func TestSudoSessionRejectedPasswordSurfaces(t *testing.T) {
	t.Parallel()

	run := func(_ context.Context, _ io.Reader, _ []string) error {
		return assert.AnError
	}

	session := exec.NewSudoSession(exec.WithSudoRun(run))

	err := session.Validate(context.Background(), "wrong")
	require.ErrorIs(t, err, exec.ErrBadPassword)
	assert.False(t, session.Validated())
}
