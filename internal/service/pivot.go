package service

import (
	"cmp"
	"slices"
)

// Absent marks a pivot cell with no fact.
const Absent = ""

type PivotRow struct {
	Section string   `json:"section"`
	Metric  string   `json:"metric"`
	Values  []string `json:"values"`
}

// PivotTable has one row per (section, metric) and one value column per machine.
type PivotTable struct {
	Machines []string   `json:"machines"`
	Rows     []PivotRow `json:"rows"`
}

// Header returns the column titles of the table.
func (t PivotTable) Header() []string {
	return append([]string{"Section", "Metric"}, t.Machines...)
}

// Records returns the header followed by every row, ready for tabular export.
func (t PivotTable) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header())
	for _, r := range t.Rows {
		out = append(out, append([]string{r.Section, r.Metric}, r.Values...))
	}
	return out
}

// Pivot reshapes facts into a wide table. When several facts share a
// (section, metric, machine) cell the first one wins. Rows follow the section
// order given, then sections outside it by name, then metric name.
func Pivot(facts []Fact, machines, sections []string) PivotTable {
	col := make(map[string]int, len(machines))
	for i, m := range machines {
		if _, ok := col[m]; !ok {
			col[m] = i
		}
	}

	type rowKey struct{ section, metric string }
	rowIdx := make(map[rowKey]int)
	var (
		rows   []PivotRow
		filled [][]bool
	)

	for _, f := range facts {
		k := rowKey{f.Section, f.Metric}
		i, ok := rowIdx[k]
		if !ok {
			i = len(rows)
			rowIdx[k] = i
			values := make([]string, len(machines))
			rows = append(rows, PivotRow{Section: f.Section, Metric: f.Metric, Values: values})
			filled = append(filled, make([]bool, len(machines)))
		}

		c, ok := col[f.Machine]
		if !ok || filled[i][c] {
			continue
		}
		rows[i].Values[c] = f.Value
		filled[i][c] = true
	}

	rank := make(map[string]int, len(sections))
	for i, s := range sections {
		if _, ok := rank[s]; !ok {
			rank[s] = i
		}
	}
	sectionRank := func(s string) int {
		if r, ok := rank[s]; ok {
			return r
		}
		return len(sections)
	}

	slices.SortStableFunc(rows, func(a, b PivotRow) int {
		return cmp.Or(
			cmp.Compare(sectionRank(a.Section), sectionRank(b.Section)),
			cmp.Compare(a.Section, b.Section),
			cmp.Compare(a.Metric, b.Metric),
		)
	})

	return PivotTable{Machines: slices.Clone(machines), Rows: rows}
}
