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
package primitive

import "sync/atomic"

// Counter is the thread safe counter.  The zero value is ready to use.
type Counter struct {
	n atomic.Int64
}

// Add adds n to the counter and returns the new value.
func (c *Counter) Add(n int64) int64 {
	return c.n.Add(n)
}

func (c *Counter) Inc() int64 {
	return c.Add(1)
}

// N returns the current value.
func (c *Counter) N() int64 {
	return c.n.Load()
}
