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

package catalog

// In this file: filter rules.

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Kind is the kind of a filter rule.
type Kind uint8

const (
	KindEnum    Kind = iota + 1 // finite set of accepted strings
	KindRange                   // numeric bounds
	KindPattern                 // regular expression
)

func (k Kind) String() string {
	switch k {
	case KindEnum:
		return "enum"
	case KindRange:
		return "range"
	case KindPattern:
		return "pattern"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Rule is the validation rule attached to a filter key.  Only the fields
// relevant to the Kind are set.  Rules are values and must not be modified
// after the catalog is built.
type Rule struct {
	Kind Kind
	// Values are the accepted values of an enum rule, in display order.
	Values []string
	// Min and Max are the inclusive bounds of a range rule.  Max is +Inf
	// when there's no upper bound.
	Min, Max float64
	// Integer requires range values to be whole numbers.
	Integer bool
	// re is the compiled expression of a pattern rule.
	re *regexp.Regexp
	// hint describes the pattern to a human.
	hint string
}

// Enum returns the rule accepting only the given values.
func Enum(values ...string) Rule {
	return Rule{Kind: KindEnum, Values: values}
}

// Range returns the inclusive range rule [min, max].  Use math.Inf(1) for max
// if there's no upper bound.
func Range(min, max float64, integer bool) Rule {
	return Rule{Kind: KindRange, Min: min, Max: max, Integer: integer}
}

// Pattern returns the rule that accepts strings matching expr.  It panics if
// expr does not compile.
func Pattern(expr string, hint string) Rule {
	return Rule{Kind: KindPattern, re: regexp.MustCompile(expr), hint: hint}
}

// Contains reports whether v is one of the enum values.
func (r Rule) Contains(v string) bool {
	return slices.Contains(r.Values, v)
}

// InRange reports whether f is within the rule bounds, and is a whole number
// if the rule requires integers.
func (r Rule) InRange(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	if r.Integer && math.Trunc(f) != f {
		return false
	}
	return r.Min <= f && f <= r.Max
}

// Match reports whether s matches the rule pattern.
func (r Rule) Match(s string) bool {
	if r.re == nil {
		return false
	}
	return r.re.MatchString(s)
}

// Expr returns the regular expression of the pattern rule.
func (r Rule) Expr() string {
	if r.re == nil {
		return ""
	}
	return r.re.String()
}

// Bounded reports whether the range rule has an upper bound.
func (r Rule) Bounded() bool {
	return !math.IsInf(r.Max, 1)
}

// Describe returns the human readable description of the constraint, i.e.
// "one of: ativo, inativo".
func (r Rule) Describe() string {
	switch r.Kind {
	case KindEnum:
		return "one of: " + strings.Join(r.Values, ", ")
	case KindRange:
		what := "a number"
		if r.Integer {
			what = "an integer"
		}
		if !r.Bounded() {
			return fmt.Sprintf("%s greater than or equal to %s", what, fmtNum(r.Min))
		}
		return fmt.Sprintf("%s between %s and %s", what, fmtNum(r.Min), fmtNum(r.Max))
	case KindPattern:
		if r.hint != "" {
			return r.hint
		}
		return "a value matching " + r.re.String()
	}
	return "any value"
}

func fmtNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
