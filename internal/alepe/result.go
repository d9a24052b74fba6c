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
	"bytes"
	"time"

	"github.com/dadosabertos/alepe-mcp/internal/request"
)

// Result is the result of the successful fetch.
type Result struct {
	Dataset string
	Format  string
	// Filters are the applied filters.
	Filters map[string]any
	Query   request.Query
	// Data holds the decoded JSON document for the json format.
	Data any
	// Text holds the response body for the csv format.
	Text string
	// Bytes is the size of the response body.
	Bytes     int
	RequestID string
	Duration  time.Duration
}

// Items returns the number of records, if the JSON document is an array.
func (r *Result) Items() (int, bool) {
	if r.Format != request.FormatJSON {
		return 0, false
	}
	a, ok := r.Data.([]any)
	return len(a), ok
}

// Lines returns the number of lines of the CSV text.
func (r *Result) Lines() (int, bool) {
	if r.Format != request.FormatCSV {
		return 0, false
	}
	return countLines(r.Text), true
}

// countLines counts the lines, a trailing newline does not start a new line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := bytes.Count([]byte(s), []byte{'\n'})
	if s[len(s)-1] != '\n' {
		n++
	}
	return n
}
