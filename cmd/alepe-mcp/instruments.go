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

package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/rusq/tracer"

	"github.com/dadosabertos/alepe-mcp/internal/primitive"
	"github.com/dadosabertos/alepe-mcp/logger"
)

// initLog initialises the logging and returns the Logger, that is also set
// as the slog default.  The level is taken from levelName, unless verbose
// is set.  If the filename is not empty, the file will be opened, and the
// logger output will be switched to that file, otherwise messages are written
// to w.  The stop function must be called in the deferred call, it will close
// the log file, if it is open.  If the error is returned the stop function is
// nil.
func initLog(w io.Writer, filename string, jsonHandler bool, verbose bool, levelName string) (*slog.Logger, func(), error) {
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}
	level = primitive.IfTrue(verbose, slog.LevelDebug, level)

	stop := func() {}
	if filename != "" {
		lf, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create the log file: %w", err)
		}
		log.SetOutput(lf) // redirect the standard log to the file just in case, panics will be logged there.
		w = lf
		stop = func() {
			if err := lf.Close(); err != nil {
				slog.Error("failed to close the log file", "error", err)
			}
		}
	}

	lg := logger.New(w, level, jsonHandler)
	slog.SetDefault(lg)
	if filename != "" {
		lg.Debug("log messages will be written to file", "filename", filename)
	}
	return lg, stop, nil
}

// initTrace initialises the tracing.  If the filename is not empty, the file
// will be opened, trace will write to that file.  Returns the stop function
// that must be called in the deferred call.
func initTrace(lg *slog.Logger, filename string) (stop func()) {
	stop = func() {}
	if filename == "" {
		return
	}

	lg.Info("trace will be written to", "filename", filename)

	trc := tracer.New(filename)
	if err := trc.Start(); err != nil {
		lg.Warn("failed to start the trace", "filename", filename, "error", err)
		return
	}

	stop = func() {
		if err := trc.End(); err != nil {
			lg.Warn("failed to write the trace file", "filename", filename, "error", err)
		}
	}
	return
}
