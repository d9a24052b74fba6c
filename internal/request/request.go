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

// Package request validates tool parameters against the dataset catalog and
// turns validated requests into upstream query parameters.
package request

import (
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"github.com/dadosabertos/alepe-mcp/internal/catalog"
)

// Response formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"

	DefaultFormat = FormatJSON
)

// KeyFormat is the parameter key of the response format.  It is accepted by
// every dataset.
const KeyFormat = "formato"

var formats = []string{FormatJSON, FormatCSV}

var errEmpty = errors.New("empty value")

// Formats returns the supported response formats.
func Formats() []string {
	return slices.Clone(formats)
}

// Param is a raw parameter as received from the caller.
type Param struct {
	Key   string
	Value any
}

// Params is the ordered list of raw parameters.
type Params []Param

// ParamsFromMap returns the parameters from the map, ordered by key.
func ParamsFromMap(m map[string]any) Params {
	p := make(Params, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		p = append(p, Param{Key: k, Value: m[k]})
	}
	return p
}

// Get returns the value of the last parameter with the key.
func (p Params) Get(key string) (any, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Key == key {
			return p[i].Value, true
		}
	}
	return nil, false
}

// Filter is a validated filter.  Value is a string, int64 or float64.
type Filter struct {
	Key   string
	Value any
}

// Request is a validated request.  The zero value is not usable, requests
// are obtained from Validate only.
type Request struct {
	dataset  string
	format   string
	filters  []Filter // in the caller-supplied order
	declared []string // dataset filter order
}

// Dataset returns the dataset name.
func (r *Request) Dataset() string { return r.dataset }

// Format returns the lowercase response format.
func (r *Request) Format() string { return r.format }

// Filters returns the validated filters in the caller-supplied order.
func (r *Request) Filters() []Filter {
	return slices.Clone(r.filters)
}

// Filter returns the value of the filter.
func (r *Request) Filter(key string) (any, bool) {
	for _, f := range r.filters {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Applied returns the filters as a map, suitable for reporting.
func (r *Request) Applied() map[string]any {
	m := make(map[string]any, len(r.filters))
	for _, f := range r.filters {
		m[f.Key] = f.Value
	}
	return m
}

func (r *Request) set(key string, v any) {
	for i := range r.filters {
		if r.filters[i].Key == key {
			r.filters[i].Value = v
			return
		}
	}
	r.filters = append(r.filters, Filter{Key: key, Value: v})
}

// Validate validates params for the dataset and returns the Request.  Checks
// run in the following order, and the first failure is returned as
// *ValidationError: dataset existence, format, then for every parameter in
// order, the key and its value.  Keys are checked whatever their value, and
// allowed parameters with nil or empty string values are treated as absent.
func Validate(cat *catalog.Catalog, dataset string, params Params) (*Request, error) {
	ds, ok := cat.Lookup(dataset)
	if !ok {
		return nil, &ValidationError{Kind: ErrUnknownDataset, Dataset: dataset, Accepted: cat.Names()}
	}

	format, err := validateFormat(ds.Name, params)
	if err != nil {
		return nil, err
	}

	r := &Request{
		dataset:  ds.Name,
		format:   format,
		declared: ds.Filters,
	}
	for _, p := range params {
		if p.Key == KeyFormat {
			continue
		}
		if !slices.Contains(ds.Filters, p.Key) {
			return nil, &ValidationError{
				Kind:     ErrUnknownFilter,
				Dataset:  ds.Name,
				Key:      p.Key,
				Value:    p.Value,
				Accepted: ds.Filters,
			}
		}
		if absent(p.Value) {
			continue
		}
		v, err := checkValue(cat, ds.Name, p.Key, p.Value)
		if err != nil {
			return nil, err
		}
		r.set(p.Key, v)
	}
	return r, nil
}

func validateFormat(dataset string, params Params) (string, error) {
	v, ok := params.Get(KeyFormat)
	if !ok || absent(v) {
		return DefaultFormat, nil
	}
	s, isStr := v.(string)
	if isStr {
		s = strings.ToLower(s)
		if slices.Contains(formats, s) {
			return s, nil
		}
	}
	return "", &ValidationError{
		Kind:     ErrUnsupportedFormat,
		Dataset:  dataset,
		Key:      KeyFormat,
		Value:    v,
		Accepted: Formats(),
	}
}

// checkValue checks the value against the key rule and returns the
// normalised value.
func checkValue(cat *catalog.Catalog, dataset, key string, v any) (any, error) {
	invalid := func(constraint string, accepted []string) error {
		return &ValidationError{
			Kind:       ErrInvalidFilterValue,
			Dataset:    dataset,
			Key:        key,
			Value:      v,
			Accepted:   accepted,
			Constraint: constraint,
		}
	}
	rule, ok := cat.RuleFor(key)
	if !ok {
		if !isScalar(v) {
			return nil, invalid("a string or a number", nil)
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, invalid("a string or a number", nil)
		}
		return s, nil
	}
	if !isScalar(v) {
		return nil, invalid(rule.Describe(), slices.Clone(rule.Values))
	}

	switch rule.Kind {
	case catalog.KindEnum:
		s, ok := v.(string)
		if !ok || !rule.Contains(s) {
			return nil, invalid(rule.Describe(), slices.Clone(rule.Values))
		}
		return s, nil
	case catalog.KindRange:
		f, err := toNumber(v)
		if err != nil || !rule.InRange(f) {
			return nil, invalid(rule.Describe(), nil)
		}
		if rule.Integer {
			return int64(f), nil
		}
		return f, nil
	case catalog.KindPattern:
		s, ok := v.(string)
		if !ok || !rule.Match(s) {
			return nil, invalid(rule.Describe(), nil)
		}
		return s, nil
	}
	return nil, invalid(rule.Describe(), nil)
}

func toNumber(v any) (float64, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, errEmpty
		}
		v = s
	}
	return cast.ToFloat64E(v)
}

// absent reports whether the value should be treated as not supplied.
func absent(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}
