// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

// Package logger provides the process-wide structured logger.
//
// The TUI owns the terminal, so log output goes to a file under the
// user cache directory instead of stdout. Tests may redirect output
// with SetOutput.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu     sync.Mutex
	out    io.Writer
	logger *slog.Logger
)

// Fields is a convenience alias for structured log fields.
type Fields map[string]any

// Init opens the log file and installs the global logger. Level is one
// of debug, info, warn, error (case-insensitive); anything else falls
// back to info. Init never fails: if the log file cannot be opened the
// logger writes to io.Discard.
func Init(dir, level string) {
	mu.Lock()
	defer mu.Unlock()

	var writer io.Writer = io.Discard

	if out != nil {
		writer = out
	} else if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			path := filepath.Join(dir, "pacsea.log")
			if file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				writer = file
			}
		}
	}

	logger = slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

// SetOutput redirects log output, primarily for tests. Must be called
// before Init.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	logger = nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if logger == nil {
		writer := out
		if writer == nil {
			writer = io.Discard
		}

		logger = slog.New(slog.NewTextHandler(writer, nil))
	}

	return logger
}

func args(fields Fields) []any {
	kv := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}

	return kv
}

// Debug logs at debug level with structured fields.
func Debug(msg string, fields Fields) {
	get().Debug(msg, args(fields)...)
}

// Info logs at info level with structured fields.
func Info(msg string, fields Fields) {
	get().Info(msg, args(fields)...)
}

// Warn logs at warn level with structured fields.
func Warn(msg string, fields Fields) {
	get().Warn(msg, args(fields)...)
}

// Error logs at error level with structured fields.
func Error(msg string, fields Fields) {
	get().Error(msg, args(fields)...)
}
