// Package query builds parameterized PostgreSQL SELECT statements over a
// projection of logical field names onto table columns.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap maps logical field names to qualified columns (alias.column)
// of a base table and any joined tables.
type ProjectionMap struct {
	base    string
	alias   string
	current string
	joins   []string
	columns map[string]string
	order   []string
}

// NewProjectionMap creates a projection over schema.table, aliased as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		base:    fmt.Sprintf("%s.%s %s", schema, table, alias),
		alias:   alias,
		current: alias,
		columns: make(map[string]string),
	}
}

// Project maps column of the most recently joined table (the base table
// when nothing is joined) to field. Columns are selected in Project order.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.current + "." + column
	p.columns[field] = qualified
	p.order = append(p.order, qualified)
	return p
}

// Join adds a join of the given kind ("JOIN", "LEFT JOIN", ...) and makes
// its alias the target of subsequent Project calls.
func (p *ProjectionMap) Join(schema, table, alias, kind, on string) *ProjectionMap {
	p.joins = append(p.joins, fmt.Sprintf("%s %s.%s %s ON %s", kind, schema, table, alias, on))
	p.current = alias
	return p
}

// Table returns the aliased base table.
func (p *ProjectionMap) Table() string {
	return p.base
}

// From returns the base table followed by its joins.
func (p *ProjectionMap) From() string {
	return strings.Join(append([]string{p.base}, p.joins...), " ")
}

// Column returns the qualified column for field and whether it is projected.
func (p *ProjectionMap) Column(field string) (string, bool) {
	col, ok := p.columns[field]
	return col, ok
}

// Columns returns the select list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.order, ", ")
}
