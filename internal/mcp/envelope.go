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

package mcp

// In this file: the uniform result envelope.

import (
	"errors"

	"github.com/dustin/go-humanize"
	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/dadosabertos/alepe-mcp/internal/alepe"
	"github.com/dadosabertos/alepe-mcp/internal/request"
)

// errInvalidArguments is returned when the tool arguments are malformed.
var errInvalidArguments = errors.New("invalid arguments")

// Metadata keys.
const (
	mdEndpoint  = "endpoint"
	mdFormat    = "formato"
	mdFilters   = "filtros_aplicados"
	mdItems     = "total_registros"
	mdLines     = "total_linhas"
	mdRequestID = "request_id"
	mdSize      = "tamanho"
	mdDuration  = "duracao_ms"
	mdErrorKind = "error_kind"
	mdAccepted  = "valores_aceitos"
	mdStatus    = "status_code"
)

// Error kinds.
const (
	kindUnknownDataset      = "unknown_dataset"
	kindUnsupportedFormat   = "unsupported_format"
	kindUnknownFilter       = "unknown_filter"
	kindInvalidFilterValue  = "invalid_filter_value"
	kindInvalidArguments    = "invalid_arguments"
	kindUpstreamUnavailable = "upstream_unavailable"
	kindUpstreamError       = "upstream_error"
	kindMalformedResponse   = "malformed_response"
	kindInternal            = "internal"
)

// Envelope is the uniform result of every tool.
type Envelope struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

// success returns the envelope for the fetched result.
func success(res *alepe.Result) Envelope {
	md := map[string]any{
		mdEndpoint:  res.Dataset,
		mdFormat:    res.Format,
		mdFilters:   res.Filters,
		mdRequestID: res.RequestID,
		mdSize:      humanize.Bytes(uint64(res.Bytes)),
		mdDuration:  res.Duration.Milliseconds(),
	}
	if n, ok := res.Items(); ok {
		md[mdItems] = n
	}
	if n, ok := res.Lines(); ok {
		md[mdLines] = n
	}
	env := Envelope{Success: true, Metadata: md}
	if res.Format == request.FormatCSV {
		env.Data = res.Text
	} else {
		env.Data = res.Data
	}
	return env
}

// failure returns the envelope for the error.
func failure(endpoint string, err error) Envelope {
	md := map[string]any{
		mdEndpoint:  endpoint,
		mdErrorKind: errorKind(err),
	}
	var (
		verr *request.ValidationError
		ferr *alepe.FetchError
	)
	switch {
	case errors.As(err, &verr):
		if len(verr.Accepted) > 0 {
			md[mdAccepted] = verr.Accepted
		}
	case errors.As(err, &ferr):
		if ferr.Code != 0 {
			md[mdStatus] = ferr.Code
		}
	}
	return Envelope{Success: false, Error: err.Error(), Metadata: md}
}

// errorKind returns the error kind reported in the metadata.
func errorKind(err error) string {
	switch {
	case errors.Is(err, request.ErrUnknownDataset):
		return kindUnknownDataset
	case errors.Is(err, request.ErrUnsupportedFormat):
		return kindUnsupportedFormat
	case errors.Is(err, request.ErrUnknownFilter):
		return kindUnknownFilter
	case errors.Is(err, request.ErrInvalidFilterValue):
		return kindInvalidFilterValue
	case errors.Is(err, errInvalidArguments):
		return kindInvalidArguments
	case errors.Is(err, alepe.ErrUpstreamUnavailable):
		return kindUpstreamUnavailable
	case errors.Is(err, alepe.ErrUpstreamError):
		return kindUpstreamError
	case errors.Is(err, alepe.ErrMalformedResponse):
		return kindMalformedResponse
	}
	return kindInternal
}

// result converts the envelope to the tool result.  Unsuccessful envelopes
// are flagged as errors.
func result(env Envelope) *mcplib.CallToolResult {
	res, err := mcplib.NewToolResultJSON(env)
	if err != nil {
		return resultErr(err)
	}
	res.IsError = !env.Success
	return res
}
