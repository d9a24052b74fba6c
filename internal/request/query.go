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

package request

// In this file: upstream query parameters.

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Pair is a single query parameter.
type Pair struct {
	Key   string
	Value string
}

// Query is the ordered list of upstream query parameters.
type Query []Pair

// Build returns the query parameters for the validated request: the format
// goes first, followed by the dataset filters in their declared order, and
// then any remaining filters in the request order.  Requests built from
// ParamsFromMap, as the tools do, have that order sorted by key.  Build does
// not validate anything.
func Build(r *Request) Query {
	q := make(Query, 0, len(r.filters)+1)
	q = append(q, Pair{Key: KeyFormat, Value: r.format})

	seen := make(map[string]bool, len(r.filters))
	for _, key := range r.declared {
		if v, ok := r.Filter(key); ok {
			q = append(q, Pair{Key: key, Value: FormatValue(v)})
			seen[key] = true
		}
	}
	for _, f := range r.filters {
		if !seen[f.Key] {
			q = append(q, Pair{Key: f.Key, Value: FormatValue(f.Value)})
		}
	}
	return q
}

// FormatValue returns the canonical string form of the filter value.  Numbers
// are formatted in plain decimal notation.
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return cast.ToString(v)
}

// Encode returns the URL encoded query string, preserving the parameter
// order.
func (q Query) Encode() string {
	var buf strings.Builder
	for i, p := range q {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(url.QueryEscape(p.Key))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(p.Value))
	}
	return buf.String()
}

// Get returns the value of the parameter.
func (q Query) Get(key string) (string, bool) {
	for _, p := range q {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Map returns the query parameters as a map.
func (q Query) Map() map[string]string {
	m := make(map[string]string, len(q))
	for _, p := range q {
		m[p.Key] = p.Value
	}
	return m
}
