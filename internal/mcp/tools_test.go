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

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/dadosabertos/alepe-mcp/internal/alepe"
	"github.com/dadosabertos/alepe-mcp/internal/mcp/mock_mcp"
	"github.com/dadosabertos/alepe-mcp/internal/network"
	"github.com/dadosabertos/alepe-mcp/internal/request"
	"github.com/dadosabertos/alepe-mcp/logger"
)

// testEnvelope is the decoded envelope.
type testEnvelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Error    string          `json:"error"`
	Metadata map[string]any  `json:"metadata"`
}

// decodeResult decodes the envelope from the tool result.
func decodeResult(t *testing.T, res *mcplib.CallToolResult) testEnvelope {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcplib.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	var env testEnvelope
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &env), tc.Text)
	return env
}

// callTool calls the registered tool and returns the result and the decoded
// envelope.
func callTool(t *testing.T, srv *Server, name string, args map[string]any) (*mcplib.CallToolResult, testEnvelope) {
	t.Helper()
	tool := srv.mcp.GetTool(name)
	require.NotNil(t, tool, "tool %q is not registered", name)
	res, err := tool.Handler(t.Context(), toolReq(name, args))
	require.NoError(t, err, "tools must not fail at the protocol level")
	return res, decodeResult(t, res)
}

// fixtureResult returns the Result for the validated request, as the client
// would.
func fixtureResult(r *request.Request, data any, text string) *alepe.Result {
	return &alepe.Result{
		Dataset:   r.Dataset(),
		Format:    r.Format(),
		Filters:   r.Applied(),
		Query:     request.Build(r),
		Data:      data,
		Text:      text,
		Bytes:     1536,
		RequestID: "5f1a2b3c-0000-4000-8000-000000000001",
		Duration:  42 * time.Millisecond,
	}
}

// ─── list_available_endpoints ─────────────────────────────────────────────────

func TestListEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	res, env := callTool(t, srv, "list_available_endpoints", nil)
	assert.False(t, res.IsError)
	assert.True(t, env.Success)

	var ds []struct {
		Name    string   `json:"name"`
		Filters []string `json:"available_filters"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ds))
	require.Len(t, ds, 7)
	assert.Equal(t, "parlamentares", ds[0].Name)
	assert.Equal(t, []string{"partido", "situacao", "legislatura"}, ds[0].Filters)
	assert.EqualValues(t, 7, env.Metadata["total_registros"])
}

// ─── get_<dataset> schema ─────────────────────────────────────────────────────

func TestDatasetTool_schema(t *testing.T) {
	srv, _ := newTestServer(t)

	prop := func(t *testing.T, tool, key string) map[string]any {
		t.Helper()
		st := srv.mcp.GetTool(tool)
		require.NotNil(t, st)
		p, ok := st.Tool.InputSchema.Properties[key].(map[string]any)
		require.True(t, ok, "%s: no property %q", tool, key)
		return p
	}

	t.Run("format", func(t *testing.T) {
		p := prop(t, "get_cargos", "formato")
		assert.Equal(t, []string{"json", "csv"}, p["enum"])
		assert.Equal(t, "json", p["default"])
		assert.Len(t, srv.mcp.GetTool("get_cargos").Tool.InputSchema.Properties, 1)
	})
	t.Run("enum", func(t *testing.T) {
		p := prop(t, "get_parlamentares", "situacao")
		assert.Equal(t, "string", p["type"])
		assert.Equal(t, []string{"ativo", "inativo"}, p["enum"])
	})
	t.Run("bounded range", func(t *testing.T) {
		p := prop(t, "get_parlamentares", "legislatura")
		assert.Equal(t, "number", p["type"])
		assert.Equal(t, 1.0, p["minimum"])
		assert.Equal(t, 20.0, p["maximum"])
	})
	t.Run("ano upper bound", func(t *testing.T) {
		p := prop(t, "get_remuneracao", "ano")
		assert.Equal(t, 2000.0, p["minimum"])
		assert.Equal(t, 2025.0, p["maximum"])
	})
	t.Run("unbounded range", func(t *testing.T) {
		p := prop(t, "get_contratos", "valor_min")
		assert.Equal(t, 0.0, p["minimum"])
		assert.NotContains(t, p, "maximum")
	})
	t.Run("pattern", func(t *testing.T) {
		p := prop(t, "get_parlamentares", "partido")
		assert.Equal(t, `^[A-Z]{2,10}$`, p["pattern"])
	})
	t.Run("free", func(t *testing.T) {
		p := prop(t, "get_contratos", "fornecedor")
		assert.Equal(t, "string", p["type"])
		assert.NotContains(t, p, "enum")
	})
	t.Run("search_data", func(t *testing.T) {
		st := srv.mcp.GetTool("search_data")
		require.NotNil(t, st)
		assert.Equal(t, []string{"endpoint"}, st.Tool.InputSchema.Required)
		assert.Contains(t, st.Tool.InputSchema.Properties, "filters")
	})
}

// ─── get_<dataset> ────────────────────────────────────────────────────────────

func TestDatasetTool_jsonSuccess(t *testing.T) {
	srv, m := newTestServer(t)
	m.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *request.Request) (*alepe.Result, error) {
		assert.Equal(t, "parlamentares", r.Dataset())
		assert.Equal(t, "json", r.Format())
		assert.Equal(t, request.Query{{Key: "formato", Value: "json"}, {Key: "partido", Value: "PT"}, {Key: "legislatura", Value: "19"}}, request.Build(r))
		data := []any{
			map[string]any{"nome": "Fulano"},
			map[string]any{"nome": "Beltrana"},
		}
		return fixtureResult(r, data, ""), nil
	})

	res, env := callTool(t, srv, "get_parlamentares", map[string]any{
		"partido":     "PT",
		"legislatura": 19.0,
	})
	assert.False(t, res.IsError)
	assert.True(t, env.Success)
	assert.Empty(t, env.Error)
	assert.JSONEq(t, `[{"nome":"Fulano"},{"nome":"Beltrana"}]`, string(env.Data))

	md := env.Metadata
	assert.Equal(t, "parlamentares", md["endpoint"])
	assert.Equal(t, "json", md["formato"])
	assert.Equal(t, map[string]any{"partido": "PT", "legislatura": 19.0}, md["filtros_aplicados"])
	assert.EqualValues(t, 2, md["total_registros"])
	assert.NotContains(t, md, "total_linhas")
	assert.Equal(t, "5f1a2b3c-0000-4000-8000-000000000001", md["request_id"])
	assert.Equal(t, "1.5 kB", md["tamanho"])
	assert.EqualValues(t, 42, md["duracao_ms"])
}

func TestDatasetTool_csvSuccess(t *testing.T) {
	srv, m := newTestServer(t)
	const text = "nome;cargo\nFulano;Analista\n"
	m.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *request.Request) (*alepe.Result, error) {
		assert.Equal(t, "csv", r.Format())
		return fixtureResult(r, nil, text), nil
	})

	res, env := callTool(t, srv, "get_servidores", map[string]any{"formato": "CSV", "vinculo": "efetivo"})
	assert.False(t, res.IsError)
	assert.True(t, env.Success)
	var got string
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, text, got)
	assert.Equal(t, "csv", env.Metadata["formato"])
	assert.EqualValues(t, 2, env.Metadata["total_linhas"])
	assert.NotContains(t, env.Metadata, "total_registros")
}

func TestDatasetTool_nonSequence(t *testing.T) {
	srv, m := newTestServer(t)
	m.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *request.Request) (*alepe.Result, error) {
		return fixtureResult(r, map[string]any{"total": json.Number("0")}, ""), nil
	})

	_, env := callTool(t, srv, "get_lotacoes", nil)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"total":0}`, string(env.Data))
	assert.NotContains(t, env.Metadata, "total_registros")
}

func TestDatasetTool_validationErrors(t *testing.T) {
	tests := []struct {
		name         string
		tool         string
		args         map[string]any
		wantKind     string
		wantContains string
		wantAccepted []any
	}{
		{
			name:         "unknown filter",
			tool:         "get_cargos",
			args:         map[string]any{"ano": 2024.0},
			wantKind:     "unknown_filter",
			wantContains: `filter "ano" is not valid for dataset "cargos"`,
		},
		{
			name:         "unknown filter lists valid filters",
			tool:         "get_servidores",
			args:         map[string]any{"partido": "PT"},
			wantKind:     "unknown_filter",
			wantContains: "valid filters: vinculo, situacao, cargo, lotacao",
			wantAccepted: []any{"vinculo", "situacao", "cargo", "lotacao"},
		},
		{
			name:         "unsupported format",
			tool:         "get_remuneracao",
			args:         map[string]any{"formato": "xml"},
			wantKind:     "unsupported_format",
			wantContains: `format "xml" is not supported`,
			wantAccepted: []any{"json", "csv"},
		},
		{
			name:         "enum value",
			tool:         "get_parlamentares",
			args:         map[string]any{"situacao": "suspenso"},
			wantKind:     "invalid_filter_value",
			wantContains: "one of: ativo, inativo",
			wantAccepted: []any{"ativo", "inativo"},
		},
		{
			name:         "ano below range",
			tool:         "get_remuneracao",
			args:         map[string]any{"ano": 1999.0},
			wantKind:     "invalid_filter_value",
			wantContains: "an integer between 2000 and 2025",
		},
		{
			name:         "mes above range",
			tool:         "get_remuneracao",
			args:         map[string]any{"mes": 13.0},
			wantKind:     "invalid_filter_value",
			wantContains: "an integer between 1 and 12",
		},
		{
			name:         "negative valor_min",
			tool:         "get_contratos",
			args:         map[string]any{"valor_min": -5.0},
			wantKind:     "invalid_filter_value",
			wantContains: "greater than or equal to 0",
		},
		{
			name:         "partido lowercase",
			tool:         "get_parlamentares",
			args:         map[string]any{"partido": "pt"},
			wantKind:     "invalid_filter_value",
			wantContains: `"partido"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// no Fetch is expected, the mock fails the test on any call.
			srv, _ := newTestServer(t)
			res, env := callTool(t, srv, tt.tool, tt.args)
			assert.True(t, res.IsError)
			assert.False(t, env.Success)
			assert.Nil(t, env.Data)
			assert.Contains(t, env.Error, tt.wantContains)
			assert.Equal(t, tt.wantKind, env.Metadata["error_kind"])
			assert.Equal(t, strings.TrimPrefix(tt.tool, "get_"), env.Metadata["endpoint"])
			if tt.wantAccepted != nil {
				assert.Equal(t, tt.wantAccepted, env.Metadata["valores_aceitos"])
			}
		})
	}
}

func TestDatasetTool_fetchErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   string
		wantStatus any
	}{
		{
			name:       "upstream error",
			err:        &alepe.FetchError{Kind: alepe.ErrUpstreamError, Dataset: "licitacoes", Code: 503, Body: "maintenance", Err: network.NewStatusError(503, []byte("maintenance"))},
			wantKind:   "upstream_error",
			wantStatus: 503.0,
		},
		{
			name:     "upstream unavailable",
			err:      &alepe.FetchError{Kind: alepe.ErrUpstreamUnavailable, Dataset: "licitacoes", Err: errors.New("connection refused")},
			wantKind: "upstream_unavailable",
		},
		{
			name:     "malformed response",
			err:      &alepe.FetchError{Kind: alepe.ErrMalformedResponse, Dataset: "licitacoes", Err: errors.New("invalid character '<'")},
			wantKind: "malformed_response",
		},
		{
			name:     "unexpected error",
			err:      errors.New("something else"),
			wantKind: "internal",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, m := newTestServer(t)
			m.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			res, env := callTool(t, srv, "get_licitacoes", map[string]any{"ano": 2024.0, "situacao": "ativo"})
			assert.True(t, res.IsError)
			assert.False(t, env.Success)
			assert.Equal(t, tt.err.Error(), env.Error)
			assert.Equal(t, tt.wantKind, env.Metadata["error_kind"])
			assert.Equal(t, "licitacoes", env.Metadata["endpoint"])
			if tt.wantStatus != nil {
				assert.Equal(t, tt.wantStatus, env.Metadata["status_code"])
			} else {
				assert.NotContains(t, env.Metadata, "status_code")
			}
		})
	}
}

func TestDatasetTool_panic(t *testing.T) {
	srv, m := newTestServer(t)
	m.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, *request.Request) (*alepe.Result, error) {
		panic("kaboom")
	})

	res, env := callTool(t, srv, "get_cargos", nil)
	assert.True(t, res.IsError)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "kaboom")
	assert.Equal(t, "internal", env.Metadata["error_kind"])
	assert.Equal(t, "cargos", env.Metadata["endpoint"])
}

func TestDatasetTool_failureDoesNotAffectNextCall(t *testing.T) {
	srv, m := newTestServer(t)
	gomock.InOrder(
		m.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, &alepe.FetchError{Kind: alepe.ErrUpstreamUnavailable, Dataset: "cargos", Err: errors.New("timeout")}),
		m.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *request.Request) (*alepe.Result, error) {
			return fixtureResult(r, []any{}, ""), nil
		}),
	)
	_, env := callTool(t, srv, "get_cargos", nil)
	assert.False(t, env.Success)
	_, env = callTool(t, srv, "get_cargos", nil)
	assert.True(t, env.Success)
	assert.EqualValues(t, 0, env.Metadata["total_registros"])
}

// ─── search_data ──────────────────────────────────────────────────────────────

func TestSearchData(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv, m := newTestServer(t)
		m.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *request.Request) (*alepe.Result, error) {
			assert.Equal(t, "remuneracao", r.Dataset())
			assert.Equal(t, request.Query{
				{Key: "formato", Value: "json"},
				{Key: "ano", Value: "2024"},
				{Key: "mes", Value: "3"},
				{Key: "vinculo", Value: "efetivo"},
			}, request.Build(r))
			return fixtureResult(r, []any{}, ""), nil
		})
		res, env := callTool(t, srv, "search_data", map[string]any{
			"endpoint": "remuneracao",
			"filters":  map[string]any{"vinculo": "efetivo", "mes": 3.0, "ano": 2024.0},
		})
		assert.False(t, res.IsError)
		assert.True(t, env.Success)
		assert.Equal(t, "remuneracao", env.Metadata["endpoint"])
	})
	t.Run("format argument takes precedence", func(t *testing.T) {
		srv, m := newTestServer(t)
		m.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *request.Request) (*alepe.Result, error) {
			assert.Equal(t, "csv", r.Format())
			return fixtureResult(r, nil, "a\n"), nil
		})
		_, env := callTool(t, srv, "search_data", map[string]any{
			"endpoint": "cargos",
			"formato":  "csv",
			"filters":  map[string]any{"formato": "json"},
		})
		assert.True(t, env.Success)
	})
	t.Run("no filters", func(t *testing.T) {
		srv, m := newTestServer(t)
		m.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *request.Request) (*alepe.Result, error) {
			assert.Empty(t, r.Filters())
			return fixtureResult(r, []any{}, ""), nil
		})
		_, env := callTool(t, srv, "search_data", map[string]any{"endpoint": "lotacoes"})
		assert.True(t, env.Success)
	})

	failures := []struct {
		name     string
		args     map[string]any
		wantKind string
		wantErr  string
	}{
		{"unknown endpoint", map[string]any{"endpoint": "deputados"}, "unknown_dataset", `dataset "deputados" is not supported`},
		{"missing endpoint", map[string]any{}, "invalid_arguments", "endpoint is required"},
		{"endpoint is not a string", map[string]any{"endpoint": 1.0}, "invalid_arguments", "endpoint is required"},
		{"filters is not an object", map[string]any{"endpoint": "cargos", "filters": "ano=2024"}, "invalid_arguments", "filters must be an object"},
		{"unknown filter", map[string]any{"endpoint": "contratos", "filters": map[string]any{"mes": 1.0}}, "unknown_filter", `filter "mes"`},
		{"invalid value", map[string]any{"endpoint": "licitacoes", "filters": map[string]any{"ano": "dois mil"}}, "invalid_filter_value", `"ano"`},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			res, env := callTool(t, srv, "search_data", tt.args)
			assert.True(t, res.IsError)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantKind, env.Metadata["error_kind"])
			assert.Contains(t, env.Error, tt.wantErr)
		})
	}
}

// ─── health_check ─────────────────────────────────────────────────────────────

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv, m := newTestServer(t)
		rt := 0.123
		m.EXPECT().Health(gomock.Any()).Return(alepe.Health{
			Status:       alepe.StatusHealthy,
			APIURL:       alepe.DefaultBaseURL,
			ResponseTime: &rt,
			Endpoints:    testCatalog.Names(),
		})
		res, env := callTool(t, srv, "health_check", nil)
		assert.False(t, res.IsError)
		assert.True(t, env.Success)

		var h alepe.Health
		require.NoError(t, json.Unmarshal(env.Data, &h))
		assert.Equal(t, "healthy", h.Status)
		require.NotNil(t, h.ResponseTime)
		assert.Equal(t, 0.123, *h.ResponseTime)
		assert.Len(t, h.Endpoints, 7)
		assert.NotContains(t, env.Metadata, "error_kind")
	})
	t.Run("unhealthy", func(t *testing.T) {
		srv, m := newTestServer(t)
		m.EXPECT().Health(gomock.Any()).Return(alepe.Health{
			Status: alepe.StatusUnhealthy,
			APIURL: alepe.DefaultBaseURL,
			Error:  "upstream unavailable fetching \"parlamentares\": connection refused",
		})
		res, env := callTool(t, srv, "health_check", nil)
		assert.True(t, res.IsError)
		assert.False(t, env.Success)
		assert.Contains(t, env.Error, "connection refused")
		assert.Equal(t, "upstream_unavailable", env.Metadata["error_kind"])
	})
}

// ─── get_api_info ─────────────────────────────────────────────────────────────

func TestAPIInfo(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mock_mcp.NewMockFetcher(ctrl)
	m.EXPECT().Stats().Return(alepe.Stats{Fetches: 10, Failures: 2, RateWaits: 1, RateLimit: 30, TokensAvail: 29})
	srv := New(m, WithLogger(logger.Silent), WithCatalog(testCatalog), WithVersion("9.9.9"), WithSettings(Settings{
		BaseURL:    "http://localhost:8080/api/v1",
		Timeout:    15 * time.Second,
		MaxRetries: 5,
		RetryDelay: 1500 * time.Millisecond,
		RateLimit:  30,
		UserAgent:  "test-agent",
	}))

	res, env := callTool(t, srv, "get_api_info", nil)
	assert.False(t, res.IsError)
	assert.True(t, env.Success)

	var info map[string]map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "alepe-mcp", info["mcp_server"]["name"])
	assert.Equal(t, "9.9.9", info["mcp_server"]["version"])
	assert.Equal(t, "http://localhost:8080/api/v1", info["api_alepe"]["base_url"])
	assert.Equal(t, []any{"json", "csv"}, info["api_alepe"]["supported_formats"])
	assert.Equal(t, "30 requests/minute", info["api_alepe"]["rate_limit"])
	assert.Len(t, info["api_alepe"]["available_endpoints"], 7)
	assert.Equal(t, 15.0, info["configuration"]["timeout"])
	assert.Equal(t, 5.0, info["configuration"]["max_retries"])
	assert.Equal(t, 1.5, info["configuration"]["retry_delay"])
	assert.Equal(t, "test-agent", info["configuration"]["user_agent"])
	assert.Equal(t, 10.0, info["statistics"]["fetches"])
	assert.Equal(t, 2.0, info["statistics"]["failures"])
}

// ─── errorKind ────────────────────────────────────────────────────────────────

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&request.ValidationError{Kind: request.ErrUnknownDataset}, "unknown_dataset"},
		{&request.ValidationError{Kind: request.ErrUnsupportedFormat}, "unsupported_format"},
		{&request.ValidationError{Kind: request.ErrUnknownFilter}, "unknown_filter"},
		{&request.ValidationError{Kind: request.ErrInvalidFilterValue}, "invalid_filter_value"},
		{fmt.Errorf("wrapped: %w", errInvalidArguments), "invalid_arguments"},
		{&alepe.FetchError{Kind: alepe.ErrUpstreamUnavailable}, "upstream_unavailable"},
		{&alepe.FetchError{Kind: alepe.ErrUpstreamError}, "upstream_error"},
		{&alepe.FetchError{Kind: alepe.ErrMalformedResponse}, "malformed_response"},
		{errors.New("other"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, errorKind(tt.err))
		})
	}
}

// ─── stdio end to end ─────────────────────────────────────────────────────────

func TestServeStdio_toolCall(t *testing.T) {
	srv, m := newTestServer(t)
	m.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *request.Request) (*alepe.Result, error) {
		return fixtureResult(r, []any{map[string]any{"cargo": "Analista"}}, ""), nil
	})

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_cargos","arguments":{}}}`,
	}, "\n") + "\n"
	var out strings.Builder
	require.NoError(t, srv.serveStdio(t.Context(), strings.NewReader(in), &out))

	var found bool
	sc := bufio.NewScanner(strings.NewReader(out.String()))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var msg struct {
			ID     int                   `json:"id"`
			Result *mcplib.CallToolResult `json:"result"`
		}
		if err := json.Unmarshal(sc.Bytes(), &msg); err != nil || msg.ID != 2 {
			continue
		}
		require.NotNil(t, msg.Result)
		env := decodeResult(t, msg.Result)
		assert.True(t, env.Success)
		assert.Equal(t, "cargos", env.Metadata["endpoint"])
		found = true
	}
	assert.True(t, found, "no response to the tool call in:\n%s", out.String())
}
