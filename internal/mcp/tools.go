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

// In this file: MCP tool definitions and handler implementations.

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/dadosabertos/alepe-mcp/internal/alepe"
	"github.com/dadosabertos/alepe-mcp/internal/catalog"
	"github.com/dadosabertos/alepe-mcp/internal/request"
)

// Tool names that are not generated from the catalog.
const (
	toolListEndpoints = "list_available_endpoints"
	toolSearchData    = "search_data"
	toolHealthCheck   = "health_check"
	toolAPIInfo       = "get_api_info"
)

// freeDescriptions describe the filters that have no rule.
var freeDescriptions = map[string]string{
	"cargo":      "Filter by job title (cargo).",
	"lotacao":    "Filter by organisational unit (lotação).",
	"modalidade": "Filter by bidding modality (modalidade), i.e. pregão.",
	"fornecedor": "Filter by supplier name or identifier (fornecedor).",
}

// tools returns all MCP tools that this server exposes.
func (s *Server) tools() []mcpsrv.ServerTool {
	tt := []mcpsrv.ServerTool{s.toolListEndpoints()}
	for _, ds := range s.cat.Datasets() {
		tt = append(tt, s.toolDataset(ds))
	}
	return append(tt,
		s.toolSearchData(),
		s.toolHealthCheck(),
		s.toolAPIInfo(),
	)
}

// datasetToolName returns the name of the dataset tool.
func datasetToolName(dataset string) string {
	return "get_" + dataset
}

// safe wraps the handler so that a panic is reported in the envelope.
func (s *Server) safe(endpoint string, h mcpsrv.ToolHandlerFunc) mcpsrv.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (res *mcplib.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.ErrorContext(ctx, "mcp: handler panic", "tool", req.Params.Name, "panic", r, "stack", string(debug.Stack()))
				res, err = result(failure(endpoint, fmt.Errorf("internal error: %v", r))), nil
			}
		}()
		return h(ctx, req)
	}
}

// fetch validates the parameters, fetches the dataset and returns the result
// wrapped in the envelope.
func (s *Server) fetch(ctx context.Context, endpoint string, params request.Params) *mcplib.CallToolResult {
	lg := s.logger.With("endpoint", endpoint)
	r, err := request.Validate(s.cat, endpoint, params)
	if err != nil {
		lg.WarnContext(ctx, "mcp: invalid request", "error", err)
		return result(failure(endpoint, err))
	}
	res, err := s.f.Fetch(ctx, r)
	if err != nil {
		lg.ErrorContext(ctx, "mcp: fetch failed", "error", err)
		return result(failure(endpoint, err))
	}
	return result(success(res))
}

// ─── list_available_endpoints ─────────────────────────────────────────────────

func (s *Server) toolListEndpoints() mcpsrv.ServerTool {
	tool := mcplib.NewTool(toolListEndpoints,
		mcplib.WithDescription("List the datasets (endpoints) of the ALEPE open data API with their descriptions and the filters each of them accepts."),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.safe("", s.handleListEndpoints)}
}

func (s *Server) handleListEndpoints(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	ds := s.cat.Datasets()
	return result(Envelope{
		Success:  true,
		Data:     ds,
		Metadata: map[string]any{mdItems: len(ds), mdFormat: request.Formats()},
	}), nil
}

// ─── get_<dataset> ────────────────────────────────────────────────────────────

func (s *Server) toolDataset(ds catalog.Dataset) mcpsrv.ServerTool {
	desc := fmt.Sprintf("Fetch the %q dataset: %s.", ds.Name, ds.Description)
	if len(ds.Filters) > 0 {
		desc += " All filters are optional and are combined."
	} else {
		desc += " The dataset does not accept filters."
	}
	opts := []mcplib.ToolOption{
		mcplib.WithDescription(desc),
		mcplib.WithReadOnlyHintAnnotation(true),
		mcplib.WithOpenWorldHintAnnotation(true),
		formatOption(),
	}
	for _, key := range ds.Filters {
		opts = append(opts, s.filterOption(key))
	}
	tool := mcplib.NewTool(datasetToolName(ds.Name), opts...)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.safe(ds.Name, s.handleDataset(ds.Name))}
}

func formatOption() mcplib.ToolOption {
	return mcplib.WithString(request.KeyFormat,
		mcplib.Description("Response format: json (default) or csv."),
		mcplib.Enum(request.Formats()...),
		mcplib.DefaultString(request.DefaultFormat),
	)
}

// filterOption returns the schema of the filter argument, derived from the
// filter rule.
func (s *Server) filterOption(key string) mcplib.ToolOption {
	rule, ok := s.cat.RuleFor(key)
	if !ok {
		desc, ok := freeDescriptions[key]
		if !ok {
			desc = fmt.Sprintf("Filter by %s.", key)
		}
		return mcplib.WithString(key, mcplib.Description(desc))
	}
	desc := fmt.Sprintf("Filter by %s, must be %s.", key, rule.Describe())
	switch rule.Kind {
	case catalog.KindEnum:
		return mcplib.WithString(key, mcplib.Description(desc), mcplib.Enum(rule.Values...))
	case catalog.KindRange:
		popts := []mcplib.PropertyOption{mcplib.Description(desc), mcplib.Min(rule.Min)}
		if rule.Bounded() {
			popts = append(popts, mcplib.Max(rule.Max))
		}
		return mcplib.WithNumber(key, popts...)
	case catalog.KindPattern:
		return mcplib.WithString(key, mcplib.Description(desc), mcplib.Pattern(rule.Expr()))
	}
	return mcplib.WithString(key, mcplib.Description(desc))
}

func (s *Server) handleDataset(dataset string) mcpsrv.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		s.logger.DebugContext(ctx, "mcp: fetching dataset", "dataset", dataset, "arguments", req.GetArguments())
		return s.fetch(ctx, dataset, request.ParamsFromMap(req.GetArguments())), nil
	}
}

// ─── search_data ──────────────────────────────────────────────────────────────

func (s *Server) toolSearchData() mcpsrv.ServerTool {
	tool := mcplib.NewTool(toolSearchData,
		mcplib.WithDescription(`Fetch any dataset with custom filters.

The filters are validated against the endpoint: unknown filters and invalid
values are rejected.  Call list_available_endpoints to see the filters each
endpoint accepts.`),
		mcplib.WithReadOnlyHintAnnotation(true),
		mcplib.WithOpenWorldHintAnnotation(true),
		mcplib.WithString("endpoint",
			mcplib.Description("The dataset name, one of: "+strings.Join(s.cat.Names(), ", ")+"."),
			mcplib.Enum(s.cat.Names()...),
			mcplib.Required(),
		),
		formatOption(),
		mcplib.WithObject("filters",
			mcplib.Description(`Filters as key/value pairs, i.e. {"ano": 2024, "vinculo": "efetivo"}.`),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.safe("", s.handleSearchData)}
}

func (s *Server) handleSearchData(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	endpoint, ok := stringArg(req, "endpoint")
	if !ok || endpoint == "" {
		return result(failure(endpoint, fmt.Errorf("%w: search_data: endpoint is required", errInvalidArguments))), nil
	}
	args := req.GetArguments()

	var params request.Params
	switch f := args["filters"].(type) {
	case nil:
	case map[string]any:
		params = request.ParamsFromMap(f)
	default:
		return result(failure(endpoint, fmt.Errorf("%w: search_data: filters must be an object, got %T", errInvalidArguments, f))), nil
	}
	// the explicit format argument takes precedence over the filters.
	if v, ok := args[request.KeyFormat]; ok {
		params = append(params, request.Param{Key: request.KeyFormat, Value: v})
	}
	s.logger.DebugContext(ctx, "mcp: search_data", "endpoint", endpoint, "params", params)
	return s.fetch(ctx, endpoint, params), nil
}

// ─── health_check ─────────────────────────────────────────────────────────────

func (s *Server) toolHealthCheck() mcpsrv.ServerTool {
	tool := mcplib.NewTool(toolHealthCheck,
		mcplib.WithDescription("Check that the ALEPE API is reachable and responding.  Reports the response time in seconds."),
		mcplib.WithReadOnlyHintAnnotation(true),
		mcplib.WithOpenWorldHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.safe(catalog.Parlamentares, s.handleHealthCheck)}
}

func (s *Server) handleHealthCheck(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	h := s.f.Health(ctx)
	s.logger.InfoContext(ctx, "mcp: health check completed", "status", h.Status)
	env := Envelope{
		Success:  h.Healthy(),
		Data:     h,
		Error:    h.Error,
		Metadata: map[string]any{mdEndpoint: catalog.Parlamentares},
	}
	if !h.Healthy() {
		env.Metadata[mdErrorKind] = kindUpstreamUnavailable
	}
	return result(env), nil
}

// ─── get_api_info ─────────────────────────────────────────────────────────────

func (s *Server) toolAPIInfo() mcpsrv.ServerTool {
	tool := mcplib.NewTool(toolAPIInfo,
		mcplib.WithDescription("Return the information about the ALEPE API, this server configuration and usage statistics."),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.safe("", s.handleAPIInfo)}
}

type serverInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

type upstreamInfo struct {
	BaseURL   string            `json:"base_url"`
	Formats   []string          `json:"supported_formats"`
	Endpoints []catalog.Dataset `json:"available_endpoints"`
	RateLimit string            `json:"rate_limit"`
}

type configInfo struct {
	Timeout    float64 `json:"timeout"`
	MaxRetries int     `json:"max_retries"`
	RetryDelay float64 `json:"retry_delay"`
	UserAgent  string  `json:"user_agent"`
}

type apiInfo struct {
	Server     serverInfo   `json:"mcp_server"`
	API        upstreamInfo `json:"api_alepe"`
	Config     configInfo   `json:"configuration"`
	Statistics alepe.Stats  `json:"statistics"`
}

func (s *Server) handleAPIInfo(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	info := apiInfo{
		Server: serverInfo{
			Name:        serverName,
			Version:     s.version,
			Description: "MCP server for the ALEPE open data API",
		},
		API: upstreamInfo{
			BaseURL:   s.settings.BaseURL,
			Formats:   request.Formats(),
			Endpoints: s.cat.Datasets(),
			RateLimit: fmt.Sprintf("%d requests/minute", s.settings.RateLimit),
		},
		Config: configInfo{
			Timeout:    s.settings.Timeout.Seconds(),
			MaxRetries: s.settings.MaxRetries,
			RetryDelay: s.settings.RetryDelay.Seconds(),
			UserAgent:  s.settings.UserAgent,
		},
		Statistics: s.f.Stats(),
	}
	return result(Envelope{Success: true, Data: info, Metadata: map[string]any{}}), nil
}
