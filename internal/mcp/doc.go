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

// Package mcp implements a Model Context Protocol (MCP) server for the ALEPE
// open data API.  Every dataset of the catalog is exposed as a tool, that
// validates the arguments, fetches the dataset through the rate limited
// client, and returns the uniform envelope:
//
//	{"success": true, "data": ..., "metadata": {...}}
//	{"success": false, "error": "...", "metadata": {"error_kind": "...", ...}}
//
// The tools never fail at the protocol level: invalid arguments and upstream
// failures are reported in the envelope, and the result is flagged as error.
//
// Transport: the server supports two transports selectable at runtime:
//   - stdio  – standard MCP stdio transport (default); suitable for local
//     agent integration.
//   - http   – Streamable HTTP transport, mounted at /mcp, with the liveness
//     probe at /healthz.
package mcp
