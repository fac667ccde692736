// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies recoverable failures so the dispatch core can
// pick the right surface: toast, alert modal, or silent fallback.
type ErrorKind int

// Error kinds.
const (
	KindNetworkTransient ErrorKind = iota
	KindRateLimited
	KindParse
	KindFilesystem
	KindUserCancel
	KindFatal
)

// ClassifiedError wraps an error with its kind and an optional minimum
// retry delay in seconds (from a Retry-After header).
type ClassifiedError struct {
	Kind       ErrorKind
	RetryAfter int
	Err        error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// String names the kind for logs.
func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindParse:
		return "parse"
	case KindFilesystem:
		return "filesystem"
	case KindUserCancel:
		return "user_cancel"
	case KindFatal:
		return "fatal"
	default:
		return "network_transient"
	}
}

// NewClassified wraps err with a kind.
func NewClassified(kind ErrorKind, err error) *ClassifiedError {
	return &ClassifiedError{Kind: kind, Err: err}
}

// NewRateLimited wraps err as rate-limited with the Retry-After minimum
// delay in seconds (0 when the header was absent).
func NewRateLimited(err error, retryAfter int) *ClassifiedError {
	return &ClassifiedError{Kind: KindRateLimited, RetryAfter: retryAfter, Err: err}
}

// Classify derives the kind of an arbitrary error. Wrapped
// ClassifiedErrors keep their kind; timeouts and DNS failures are
// transient; everything else defaults to transient as well, which is
// the safe recoverable bucket.
func Classify(err error) ErrorKind {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Kind
	}

	if errors.Is(err, context.Canceled) {
		return KindUserCancel
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetworkTransient
	}

	return KindNetworkTransient
}
