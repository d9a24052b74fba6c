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

package alepe

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable is the kind of the error returned when the
	// upstream could not be reached after all attempts.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamError is the kind of the error returned when the upstream
	// responded with a non-successful status to the last attempt.
	ErrUpstreamError = errors.New("upstream error")
	// ErrMalformedResponse is the kind of the error returned when the JSON
	// response can not be parsed.
	ErrMalformedResponse = errors.New("malformed response")
)

// FetchError is the error returned by Fetch.  It matches its Kind and the
// underlying error with errors.Is.
type FetchError struct {
	Kind    error
	Dataset string
	// Code is the status code of the last response, set for
	// ErrUpstreamError.
	Code int
	// Body holds the truncated response body, set for ErrUpstreamError.
	Body string
	Err  error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case ErrUpstreamError:
		if e.Body == "" {
			return fmt.Sprintf("%s fetching %q: status %d", e.Kind, e.Dataset, e.Code)
		}
		return fmt.Sprintf("%s fetching %q: status %d: %s", e.Kind, e.Dataset, e.Code, e.Body)
	default:
		return fmt.Sprintf("%s fetching %q: %v", e.Kind, e.Dataset, e.Err)
	}
}

func (e *FetchError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
