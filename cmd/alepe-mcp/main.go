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

// Command alepe-mcp is the MCP server for the open data API of the
// Legislative Assembly of Pernambuco (ALEPE).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/dadosabertos/alepe-mcp/internal/alepe"
	"github.com/dadosabertos/alepe-mcp/internal/catalog"
	"github.com/dadosabertos/alepe-mcp/internal/chttp"
	"github.com/dadosabertos/alepe-mcp/internal/config"
	"github.com/dadosabertos/alepe-mcp/internal/mcp"
	"github.com/dadosabertos/alepe-mcp/internal/network"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

// secrets are the environment files loaded on start.
var secrets = []string{".env", ".env.txt"}

// Exit statuses.
const (
	sNoError = iota
	sGenericError
	sInvalidParameters
	sUserError
	sApplicationError
)

// params is the command line parameters.
type params struct {
	transport  string
	listenAddr string
	configFile string
	logFile    string
	traceFile  string
	jsonLog    bool

	printVersion bool
	verbose      bool

	args []string
}

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

func realMain(args []string, stdout, stderr io.Writer) int {
	if err := config.LoadDotEnv(secrets...); err != nil {
		fmt.Fprintln(stderr, err)
		return sUserError
	}

	p, err := parseCmdLine(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return sNoError
		}
		fmt.Fprintln(stderr, err)
		return sInvalidParameters
	}
	if p.printVersion {
		fmt.Fprintf(stdout, "%s (commit: %s) built on: %s\n", version, commit, date)
		return sNoError
	}
	if len(p.args) > 0 && p.args[0] == "config" {
		status, err := runConfig(p.args[1:], stdout)
		if err != nil {
			fmt.Fprintln(stderr, err)
		}
		return status
	}
	if len(p.args) > 0 {
		fmt.Fprintf(stderr, "unknown command %q\n", p.args[0])
		return sInvalidParameters
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	status, err := run(ctx, p, stderr)
	if err != nil {
		slog.Error("exiting", "error", err)
	}
	return status
}

// parseCmdLine parses the command line arguments.
func parseCmdLine(args []string, output io.Writer) (params, error) {
	fs := flag.NewFlagSet("alepe-mcp", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(
			fs.Output(),
			"alepe-mcp, %s\n"+
				"MCP server for the ALEPE open data API.\n\n"+
				"Usage:  %s [flags]\n"+
				"        %s config new [-y] <file>\n"+
				"        %s config check <file>\n\n",
			version, filepath.Base(os.Args[0]), filepath.Base(os.Args[0]), filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}

	var p params
	fs.StringVar(&p.transport, "transport", string(mcp.TransportStdio), "MCP transport: \"stdio\" or \"http\"")
	fs.StringVar(&p.listenAddr, "listen", "127.0.0.1:8483", "address to listen on when -transport=http")
	fs.StringVar(&p.configFile, "config", os.Getenv("ALEPE_CONFIG"), "TOML configuration `file` (optional)")
	fs.StringVar(&p.logFile, "log", os.Getenv("LOG_FILE"), "log `file`, if not specified, messages are printed to STDERR")
	fs.BoolVar(&p.jsonLog, "log-json", !term.IsTerminal(int(os.Stderr.Fd())), "log messages in JSON format")
	fs.StringVar(&p.traceFile, "trace", os.Getenv("TRACE_FILE"), "trace `file` (optional)")
	fs.BoolVar(&p.printVersion, "V", false, "print version and exit")
	fs.BoolVar(&p.verbose, "v", false, "verbose messages")

	if err := fs.Parse(args); err != nil {
		return p, err
	}
	p.args = fs.Args()
	p.transport = strings.ToLower(p.transport)

	return p, p.validate()
}

func (p *params) validate() error {
	switch mcp.Transport(p.transport) {
	case mcp.TransportStdio, mcp.TransportHTTP:
	default:
		return fmt.Errorf("unknown transport %q (use %q or %q)", p.transport, mcp.TransportStdio, mcp.TransportHTTP)
	}
	if mcp.Transport(p.transport) == mcp.TransportHTTP && p.listenAddr == "" {
		return errors.New("listen address must be specified for the http transport")
	}
	return nil
}

// run loads the configuration and runs the server until ctx is cancelled or
// the stdio input is closed.
func run(ctx context.Context, p params, stderr io.Writer) (int, error) {
	cfg, err := config.Load(p.configFile)
	if err != nil {
		return sUserError, err
	}

	lg, stopLog, err := initLog(stderr, p.logFile, p.jsonLog, p.verbose, cfg.LogLevel)
	if err != nil {
		return sApplicationError, err
	}
	defer stopLog()

	stopTrace := initTrace(lg, p.traceFile)
	defer stopTrace()

	srv, err := newServer(cfg, lg)
	if err != nil {
		return sApplicationError, err
	}

	lg.InfoContext(ctx, "starting", "version", version, "transport", p.transport, "base_url", cfg.BaseURL)
	switch mcp.Transport(p.transport) {
	case mcp.TransportHTTP:
		lg.InfoContext(ctx, "mcp: http transport", "addr", p.listenAddr)
		err = srv.ServeHTTP(ctx, p.listenAddr)
	default:
		err = srv.ServeStdio(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return sApplicationError, err
	}
	lg.InfoContext(ctx, "stopped")
	return sNoError, nil
}

// newServer wires the server components with the configuration.
func newServer(cfg config.Config, lg *slog.Logger) (*mcp.Server, error) {
	cat := catalog.Default()

	lim, err := network.NewLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	cl, err := alepe.New(
		cfg.BaseURL,
		alepe.WithHTTPClient(chttp.New(cfg.UserAgent, cfg.Timeout)),
		alepe.WithLimiter(lim),
		alepe.WithRetry(cfg.MaxRetries, cfg.RetryDelay),
		alepe.WithLogger(lg),
		alepe.WithCatalog(cat),
	)
	if err != nil {
		return nil, err
	}

	srv := mcp.New(
		cl,
		mcp.WithLogger(lg),
		mcp.WithCatalog(cat),
		mcp.WithVersion(version),
		mcp.WithSettings(mcp.Settings{
			BaseURL:    cl.BaseURL(),
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			RateLimit:  cfg.RateLimit,
			UserAgent:  cfg.UserAgent,
		}),
	)
	return srv, nil
}
