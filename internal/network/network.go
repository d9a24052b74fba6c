// Copyright (c) 2026 The alepe-mcp Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package network contains the outbound rate limiter and the retry loop used
// by the upstream API client.
package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"runtime/trace"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/sethvargo/go-retry"

	"github.com/dadosabertos/alepe-mcp/logger"
)

// defNumAttempts is the default number of attempts.
const defNumAttempts = 3

// maxBodyLen is the maximum number of characters of the response body kept
// in the StatusError.
const maxBodyLen = 200

// newBackoff returns the backoff policy for the given base delay and number
// of retries.  This variable exists to allow tests to observe delays.
var newBackoff = expBackoff

// StatusError is the error returned for a non-successful response status.
type StatusError struct {
	Code int
	// Body holds the first maxBodyLen characters of the response body.
	Body string
}

// NewStatusError returns the StatusError with the body truncated.
func NewStatusError(code int, body []byte) *StatusError {
	return &StatusError{Code: code, Body: truncate(body, maxBodyLen)}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server responded with %d %s", e.Code, http.StatusText(e.Code))
}

// WithRetry calls fn until it succeeds, returns an error that is not
// recoverable, or maxAttempts calls were made, including the first one.
// Between the attempts it sleeps delay*2^n, where n is the zero-based number
// of the failed attempt.  StatusError and transport failures are recoverable.
// When the attempts are exhausted, the error of the last attempt is returned
// unchanged.  If maxAttempts is zero, defNumAttempts is used.
func WithRetry(ctx context.Context, maxAttempts int, delay time.Duration, fn func(ctx context.Context) error) error {
	if maxAttempts <= 0 {
		maxAttempts = defNumAttempts
	}
	lg := logger.FromContext(ctx)

	attempt := 0
	b := newBackoff(delay, uint64(maxAttempts-1))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		var err error
		trace.WithRegion(ctx, "WithRetry.attempt", func() {
			err = fn(ctx)
		})
		if err == nil {
			return nil
		}
		tracelog(ctx, lg, "error", "WithRetry: attempt failed", "attempt", attempt, "max_attempts", maxAttempts, "error", err)
		if !isRecoverable(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// expBackoff returns the exponential backoff starting at base, that stops
// after retries retries.
func expBackoff(base time.Duration, retries uint64) retry.Backoff {
	var b retry.Backoff
	if base > 0 {
		b = retry.NewExponential(base)
	} else {
		b = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	return retry.WithMaxRetries(retries, b)
}

// isRecoverable returns true if the call should be attempted again.
func isRecoverable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return true
	}
	return IsTransport(err)
}

// IsTransport reports whether err is a transport level failure, such as
// connection refused, DNS failure, timeout, or a connection reset while
// reading the response.
func IsTransport(err error) bool {
	var (
		ue *url.Error
		ne net.Error
	)
	switch {
	case errors.As(err, &ue), errors.As(err, &ne):
		return true
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, syscall.ECONNRESET):
		return true
	}
	return false
}

// truncate returns the first n characters of b.
func truncate(b []byte, n int) string {
	if utf8.RuneCount(b) <= n {
		return string(b)
	}
	var i int
	for range n {
		_, size := utf8.DecodeRune(b[i:])
		i += size
	}
	return string(b[:i])
}

func tracelog(ctx context.Context, lg *slog.Logger, category string, msg string, args ...any) {
	if trace.IsEnabled() {
		trace.Log(ctx, category, fmt.Sprint(append([]any{msg}, args...)...))
	}
	lg.DebugContext(ctx, msg, args...)
}
