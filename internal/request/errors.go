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

package request

// In this file: validation errors.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validation error kinds.  Use errors.Is to test the kind of the error
// returned by Validate.
var (
	ErrUnknownDataset     = errors.New("unknown dataset")
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrUnknownFilter      = errors.New("unknown filter")
	ErrInvalidFilterValue = errors.New("invalid filter value")
)

// ValidationError is returned by Validate.  It carries enough context for
// the caller to correct the request.
type ValidationError struct {
	// Kind is one of the Err* sentinel errors.
	Kind    error
	Dataset string
	// Key is the offending parameter key, empty for unknown datasets.
	Key string
	// Value is the offending value as it was received.
	Value any
	// Accepted lists the accepted alternatives: dataset names, formats,
	// filter keys or enum values, depending on Kind.
	Accepted []string
	// Constraint is the human readable description of the violated rule.
	Constraint string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ErrUnknownDataset:
		return fmt.Sprintf("dataset %q is not supported, available datasets: %s", e.Dataset, strings.Join(e.Accepted, ", "))
	case ErrUnsupportedFormat:
		return fmt.Sprintf("format %s is not supported by dataset %q, supported formats: %s", fmtValue(e.Value), e.Dataset, strings.Join(e.Accepted, ", "))
	case ErrUnknownFilter:
		if len(e.Accepted) == 0 {
			return fmt.Sprintf("filter %q is not valid for dataset %q, the dataset does not accept filters", e.Key, e.Dataset)
		}
		return fmt.Sprintf("filter %q is not valid for dataset %q, valid filters: %s", e.Key, e.Dataset, strings.Join(e.Accepted, ", "))
	case ErrInvalidFilterValue:
		return fmt.Sprintf("invalid value %s for filter %q of dataset %q: must be %s", fmtValue(e.Value), e.Key, e.Dataset, e.Constraint)
	}
	return fmt.Sprintf("invalid request for dataset %q", e.Dataset)
}

func (e *ValidationError) Is(target error) bool {
	return target == e.Kind
}

func fmtValue(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v", v)
}
