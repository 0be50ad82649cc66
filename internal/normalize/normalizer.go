// Package normalize turns raw tabular data of unknown shape into tables with a
// guaranteed column set, and adapts those tables into typed records.
package normalize

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Grid is a raw cell grid as returned by a tabular store. The first row may or
// may not be a header.
type Grid [][]string

// Column is a required column and the value used to fill it when absent.
type Column struct {
	Name    string
	Default string
}

// Schema describes what a normalized table must contain.
type Schema struct {
	Name    string
	Columns []Column
	// HeaderTokens are column names whose presence marks the first row as a header.
	HeaderTokens []string
	// DefaultHeader is assigned positionally when the grid has no header row.
	DefaultHeader []string
	// Aliases renames header cells onto required column names.
	Aliases map[string]string
}

// IsHeader reports whether row carries any of the schema's header tokens.
func (s Schema) IsHeader(row []string) bool {
	return looksLikeHeader(row, s.HeaderTokens)
}

// Table is a normalized table. Every row holds a value for every column.
type Table struct {
	Columns []string
	Rows    []map[string]string
	// Repairs lists the advisory messages produced while normalizing.
	Repairs []string
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Has reports whether the table has the named column.
func (t Table) Has(column string) bool {
	return slices.Contains(t.Columns, column)
}

type Normalizer struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger.Named("normalizer")}
}

// Normalize never fails: missing columns are filled with defaults and missing
// cells become empty text.
func (n *Normalizer) Normalize(grid Grid, schema Schema) Table {
	if len(grid) == 0 {
		return Table{Columns: requiredNames(schema), Rows: []map[string]string{}}
	}

	header, data := n.splitHeader(grid, schema)
	for i, col := range header {
		if alias, ok := schema.Aliases[col]; ok {
			header[i] = alias
		}
	}

	table := Table{
		Columns: slices.Clone(header),
		Rows:    make([]map[string]string, 0, len(data)),
	}
	for _, cells := range data {
		row := make(map[string]string, len(header)+len(schema.Columns))
		for i, col := range header {
			if i < len(cells) {
				row[col] = cells[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	for _, col := range schema.Columns {
		if table.Has(col.Name) {
			continue
		}
		msg := fmt.Sprintf("%s is missing column %q, using default %q", schemaName(schema), col.Name, col.Default)
		n.logger.Warn("column repaired",
			zap.String("table", schemaName(schema)),
			zap.String("column", col.Name),
			zap.String("default", col.Default))
		table.Repairs = append(table.Repairs, msg)
		table.Columns = append(table.Columns, col.Name)
		for _, row := range table.Rows {
			row[col.Name] = col.Default
		}
	}

	return table
}

func (n *Normalizer) splitHeader(grid Grid, schema Schema) ([]string, Grid) {
	first := grid[0]
	if schema.IsHeader(first) {
		return slices.Clone(first), grid[1:]
	}

	n.logger.Debug("no header row found, assigning default header",
		zap.String("table", schemaName(schema)),
		zap.Int("width", len(first)))

	header := make([]string, len(first))
	for i := range header {
		if i < len(schema.DefaultHeader) {
			header[i] = schema.DefaultHeader[i]
		} else {
			header[i] = fmt.Sprintf("column_%d", i+1)
		}
	}
	return header, grid
}

func looksLikeHeader(row []string, tokens []string) bool {
	for _, token := range tokens {
		if slices.Contains(row, token) {
			return true
		}
	}
	return false
}

func requiredNames(schema Schema) []string {
	names := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		names[i] = col.Name
	}
	return names
}

func schemaName(schema Schema) string {
	if schema.Name == "" {
		return "table"
	}
	return schema.Name
}
