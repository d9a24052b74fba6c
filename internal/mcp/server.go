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

// In this file: MCP server construction and transport management.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/dadosabertos/alepe-mcp/internal/alepe"
	"github.com/dadosabertos/alepe-mcp/internal/catalog"
	"github.com/dadosabertos/alepe-mcp/internal/request"
)

//go:generate mockgen -destination=mock_mcp/mock_mcp.go . Fetcher

const serverName = "alepe-mcp"

// Transport selects how the MCP server communicates with its client.
type Transport string

const (
	// TransportStdio uses stdin/stdout for communication.
	TransportStdio Transport = "stdio"
	// TransportHTTP uses Streamable HTTP transport.
	TransportHTTP Transport = "http"
)

// Fetcher is the upstream API client.
type Fetcher interface {
	// Fetch fetches the dataset for the validated request.
	Fetch(ctx context.Context, r *request.Request) (*alepe.Result, error)
	// Health checks the upstream availability.
	Health(ctx context.Context) alepe.Health
	// Stats returns the client statistics.
	Stats() alepe.Stats
}

// Settings are the client settings reported by get_api_info.
type Settings struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	RateLimit  int
	UserAgent  string
}

// DefaultSettings are the default client settings.
var DefaultSettings = Settings{
	BaseURL:    alepe.DefaultBaseURL,
	Timeout:    alepe.DefaultTimeout,
	MaxRetries: alepe.DefaultMaxRetries,
	RetryDelay: alepe.DefaultRetryDelay,
	RateLimit:  alepe.DefaultRateLimit,
	UserAgent:  alepe.DefaultUserAgent,
}

// Server wraps an MCP server and the upstream client.
type Server struct {
	mcp      *mcpsrv.MCPServer
	f        Fetcher
	cat      *catalog.Catalog
	settings Settings
	version  string
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.  A nil logger leaves slog.Default().
func WithLogger(lg *slog.Logger) Option {
	return func(s *Server) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// WithCatalog sets the dataset catalog.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(s *Server) {
		if cat != nil {
			s.cat = cat
		}
	}
}

// WithSettings sets the settings reported by get_api_info.
func WithSettings(st Settings) Option {
	return func(s *Server) {
		s.settings = st
	}
}

// WithVersion sets the server version.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// New creates a new MCP server backed by the given Fetcher.  The server is
// populated with all available tools but does not start listening until one of
// the Serve* methods is called.
func New(f Fetcher, opts ...Option) *Server {
	s := &Server{
		f:        f,
		cat:      catalog.Default(),
		settings: DefaultSettings,
		version:  "0.1.0",
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcpsrv.NewMCPServer(
		serverName,
		s.version,
		mcpsrv.WithInstructions(instructions(s.cat)),
		mcpsrv.WithToolCapabilities(false),
		mcpsrv.WithRecovery(),
	)
	s.mcp.AddTools(s.tools()...)
	return s
}

// instructions returns the server instructions that describe the datasets
// to the connecting agent.
func instructions(cat *catalog.Catalog) string {
	var buf strings.Builder
	buf.WriteString(`You are connected to the ALEPE open data MCP server.

It gives read-only access to the open data of the Legislative Assembly of
Pernambuco (Assembleia Legislativa do Estado de Pernambuco).

Available datasets:
`)
	for _, ds := range cat.Datasets() {
		fmt.Fprintf(&buf, "- %s: %s", ds.Name, ds.Description)
		if len(ds.Filters) > 0 {
			fmt.Fprintf(&buf, " (filters: %s)", strings.Join(ds.Filters, ", "))
		}
		buf.WriteByte('\n')
	}
	buf.WriteString(`
Every tool returns a JSON envelope with the fields "success", "data", "error"
and "metadata".  Data is returned in JSON (default) or CSV, as selected by the
"formato" argument.  The upstream API is rate limited, so prefer narrow
filters to repeated unfiltered requests.
`)
	return buf.String()
}

// ServeStdio runs the MCP server over stdin/stdout until ctx is cancelled.
// This is the standard transport used by local agent integrations.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.serveStdio(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serveStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	srv := mcpsrv.NewStdioServer(s.mcp)
	srv.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	s.logger.InfoContext(ctx, "mcp server listening on stdio")
	if err := srv.Listen(ctx, in, out); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

// AddTool adds an additional tool to the MCP server.  This can be called after
// New but before serving starts.
func (s *Server) AddTool(tool mcpsrv.ServerTool) {
	s.mcp.AddTool(tool.Tool, tool.Handler)
}

// resultErr is a helper that wraps an error in a CallToolResult with IsError=true.
func resultErr(err error) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(err.Error())},
		IsError: true,
	}
}

// stringArg extracts a named string argument from a tool call request.
// Returns ("", false) if the argument is absent or not a string.
func stringArg(req mcplib.CallToolRequest, name string) (string, bool) {
	args := req.GetArguments()
	if args == nil {
		return "", false
	}
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
