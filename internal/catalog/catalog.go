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

// Package catalog holds the static description of the ALEPE open data
// datasets: which filters each dataset accepts and which values every filter
// may take.  It is the single source of truth for the request validator, the
// query builder and the MCP tool schemas.
package catalog

import (
	"math"
	"slices"
	"time"
)

// Dataset names.
const (
	Parlamentares = "parlamentares"
	Cargos        = "cargos"
	Lotacoes      = "lotacoes"
	Servidores    = "servidores"
	Remuneracao   = "remuneracao"
	Licitacoes    = "licitacoes"
	Contratos     = "contratos"
)

// MinYear is the earliest year the API has data for.
const MinYear = 2000

// Dataset describes one remote resource category.
type Dataset struct {
	// Name is the unique key, and the URL path element.
	Name string `json:"name"`
	// Description is the human description.
	Description string `json:"description"`
	// Filters are the allowed filter keys, in the order they appear in the
	// query string.
	Filters []string `json:"available_filters"`
}

// Catalog is the immutable set of datasets and filter rules.  It is safe for
// concurrent use.
type Catalog struct {
	datasets []Dataset
	index    map[string]int
	rules    map[string]Rule
}

// Default returns the catalog with the upper bound of the year filter set to
// the current year.
func Default() *Catalog {
	return New(time.Now().Year())
}

// New returns the catalog where the year filter accepts values from MinYear
// up to and including year.
func New(year int) *Catalog {
	datasets := []Dataset{
		{Parlamentares, "Dados dos deputados estaduais", []string{"partido", "situacao", "legislatura"}},
		{Cargos, "Cargos disponíveis na ALEPE", nil},
		{Lotacoes, "Lotações organizacionais", nil},
		{Servidores, "Dados dos servidores públicos", []string{"vinculo", "situacao", "cargo", "lotacao"}},
		{Remuneracao, "Informações de remuneração", []string{"ano", "mes", "vinculo"}},
		{Licitacoes, "Processos licitatórios", []string{"ano", "modalidade", "situacao"}},
		{Contratos, "Contratos firmados", []string{"ano", "valor_min", "valor_max", "fornecedor"}},
	}
	unbounded := math.Inf(1)
	rules := map[string]Rule{
		"situacao":    Enum("ativo", "inativo"),
		"vinculo":     Enum("efetivo", "comissionado", "terceirizado", "estagiario"),
		"ano":         Range(MinYear, float64(year), true),
		"mes":         Range(1, 12, true),
		"legislatura": Range(1, 20, true),
		"valor_min":   Range(0, unbounded, false),
		"valor_max":   Range(0, unbounded, false),
		"partido":     Pattern(`^[A-Z]{2,10}$`, "a party acronym of 2 to 10 uppercase letters, i.e. PT"),
	}

	idx := make(map[string]int, len(datasets))
	for i, d := range datasets {
		idx[d.Name] = i
	}
	return &Catalog{datasets: datasets, index: idx, rules: rules}
}

// Lookup returns the dataset by name.
func (c *Catalog) Lookup(name string) (Dataset, bool) {
	i, ok := c.index[name]
	if !ok {
		return Dataset{}, false
	}
	return clone(c.datasets[i]), true
}

// AllowedFilters returns the ordered filter keys of the dataset.  It returns
// an empty slice if the dataset is unknown or declares no filters.
func (c *Catalog) AllowedFilters(dataset string) []string {
	i, ok := c.index[dataset]
	if !ok {
		return []string{}
	}
	if f := c.datasets[i].Filters; len(f) > 0 {
		return slices.Clone(f)
	}
	return []string{}
}

// RuleFor returns the rule for the filter key.  If ok is false, the filter
// has no constraint.
func (c *Catalog) RuleFor(key string) (r Rule, ok bool) {
	r, ok = c.rules[key]
	return
}

// Datasets returns all datasets in the listing order.
func (c *Catalog) Datasets() []Dataset {
	ret := make([]Dataset, len(c.datasets))
	for i, d := range c.datasets {
		ret[i] = clone(d)
	}
	return ret
}

// Names returns the dataset names in the listing order.
func (c *Catalog) Names() []string {
	ret := make([]string, len(c.datasets))
	for i, d := range c.datasets {
		ret[i] = d.Name
	}
	return ret
}

func clone(d Dataset) Dataset {
	d.Filters = slices.Clone(d.Filters)
	if d.Filters == nil {
		d.Filters = []string{}
	}
	return d
}
