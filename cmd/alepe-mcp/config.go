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
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dadosabertos/alepe-mcp/internal/config"
)

// runConfig runs the config subcommand.  It returns the exit status and an
// error, if any.
func runConfig(args []string, stdout io.Writer) (int, error) {
	if len(args) == 0 {
		return sInvalidParameters, errors.New("config: subcommand must be specified, one of: new, check")
	}
	switch args[0] {
	case "new":
		return runConfigNew(args[1:], stdout)
	case "check":
		return runConfigCheck(args[1:], stdout)
	default:
		return sInvalidParameters, fmt.Errorf("config: unknown subcommand %q", args[0])
	}
}

// runConfigNew writes the default configuration to the file.
func runConfigNew(args []string, stdout io.Writer) (int, error) {
	fs := flag.NewFlagSet("config new", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	overwrite := fs.Bool("y", false, "confirm the overwrite of the existing config")
	if err := fs.Parse(args); err != nil {
		return sInvalidParameters, err
	}
	if fs.NArg() == 0 || fs.Arg(0) == "" {
		return sInvalidParameters, errors.New("config file name must be specified")
	}

	filename := maybeFixExt(fs.Arg(0))
	if !shouldOverwrite(filename, *overwrite) {
		return sUserError, fmt.Errorf("file or directory exists: %q, use -y flag to overwrite (will not overwrite directory)", filename)
	}

	if err := save(filename, config.Default()); err != nil {
		return sApplicationError, fmt.Errorf("error writing the config %q: %w", filename, err)
	}

	fmt.Fprintf(stdout, "Your new config is ready: %q\n", filename)
	return sNoError, nil
}

func save(filename string, cfg config.Config) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := cfg.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// runConfigCheck validates the configuration file.  The environment is
// applied before the file, as it would be on start.
func runConfigCheck(args []string, stdout io.Writer) (int, error) {
	if len(args) == 0 || args[0] == "" {
		return sInvalidParameters, errors.New("config filename must be specified")
	}
	filename := args[0]
	if _, err := config.Load(filename); err != nil {
		if err := printErrors(stdout, err); err != nil {
			return sApplicationError, err
		}
		return sUserError, fmt.Errorf("config file %q not OK", filename)
	}
	fmt.Fprintf(stdout, "Config file %q: OK\n", filename)
	return sNoError, nil
}

func printErrors(w io.Writer, err error) error {
	if err == nil {
		return nil
	}

	var wErr error
	var printErr = func(format string, a ...any) {
		if wErr != nil {
			return
		}
		_, wErr = fmt.Fprintf(w, format, a...)
	}

	printErr("Detected problems:\n")
	var cErr *config.Error
	if !errors.As(err, &cErr) {
		printErr("\t%2d: %s\n", 1, err)
		return wErr
	}
	for i, problem := range cErr.Problems {
		printErr("\t%2d: %s\n", i+1, problem)
	}
	return wErr
}

// shouldOverwrite returns true if the file can be overwritten.  If override
// is true and the file exists and not a directory, it will return true.
func shouldOverwrite(filename string, override bool) bool {
	fi, err := os.Stat(filename)
	if fi != nil && fi.IsDir() {
		return false
	}
	return err != nil || override
}

// maybeFixExt appends the .toml extension to the filename, if it has a
// different or no extension.
func maybeFixExt(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		return filename
	}
	return filename + ".toml"
}
