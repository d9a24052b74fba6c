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
	"context"
	"math"
	"time"

	"github.com/dadosabertos/alepe-mcp/internal/catalog"
	"github.com/dadosabertos/alepe-mcp/internal/request"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Health is the result of the health check.
type Health struct {
	Status       string   `json:"status"`
	APIURL       string   `json:"api_url"`
	ResponseTime *float64 `json:"response_time_seconds,omitempty"`
	Endpoints    []string `json:"available_endpoints,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Healthy returns true if the upstream responded.
func (h Health) Healthy() bool {
	return h.Status == StatusHealthy
}

// Health fetches the unfiltered list of parlamentares and reports the
// upstream status with the round-trip time.  The fetch is subject to the
// rate limit and retries.
func (c *Client) Health(ctx context.Context) Health {
	h := Health{APIURL: c.baseURL}
	r, err := request.Validate(c.cat, catalog.Parlamentares, request.Params{{Key: request.KeyFormat, Value: request.FormatJSON}})
	if err != nil {
		h.Status = StatusUnhealthy
		h.Error = err.Error()
		return h
	}
	start := time.Now()
	if _, err := c.Fetch(ctx, r); err != nil {
		c.lg.ErrorContext(ctx, "health check failed", "error", err)
		h.Status = StatusUnhealthy
		h.Error = err.Error()
		return h
	}
	rt := seconds(time.Since(start))
	h.Status = StatusHealthy
	h.ResponseTime = &rt
	h.Endpoints = c.cat.Names()
	return h
}

// seconds returns d in seconds, rounded to milliseconds.
func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
