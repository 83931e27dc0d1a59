package stats

import (
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// Column summarizes one dataset column. Numeric fields are zero for
// categorical columns and Counts is nil for numeric ones.
type Column struct {
	Name   string
	Kind   track.Kind
	Count  int // non-null values
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Mode   string
	Counts map[string]int
}

// NumericColumn summarizes a numeric column, ignoring NaN entries.
func NumericColumn(name string, kind track.Kind, values []float64) Column {
	vals := DropNaN(values)
	min, max := MinMax(vals)
	return Column{
		Name:   name,
		Kind:   kind,
		Count:  len(vals),
		Mean:   Mean(vals),
		Median: Median(vals),
		Min:    min,
		Max:    max,
	}
}

// CategoryColumn summarizes a categorical column. Empty strings count as null.
func CategoryColumn(name string, values []string) Column {
	counts := make(map[string]int)
	n := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		counts[v]++
		n++
	}
	mode, _ := ModeString(counts)
	return Column{
		Name:   name,
		Kind:   track.Category,
		Count:  n,
		Mode:   mode,
		Counts: counts,
	}
}

// Frequency returns how often category v occurs.
func (c Column) Frequency(v string) int { return c.Counts[v] }

// Table holds per-column statistics computed once from the full dataset.
// It is read-only after construction and safe for concurrent use.
type Table struct {
	cols  map[string]Column
	order []string
}

// NewTable indexes the given columns by name.
func NewTable(cols ...Column) *Table {
	t := &Table{cols: make(map[string]Column, len(cols))}
	for _, c := range cols {
		if _, dup := t.cols[c.Name]; !dup {
			t.order = append(t.order, c.Name)
		}
		t.cols[c.Name] = c
	}
	return t
}

// Column returns the summary for name.
func (t *Table) Column(name string) (Column, bool) {
	if t == nil {
		return Column{}, false
	}
	c, ok := t.cols[name]
	return c, ok
}

// Names returns column names in dataset order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// NumericNames returns the numeric column names in dataset order.
func (t *Table) NumericNames() []string {
	var out []string
	for _, n := range t.order {
		if t.cols[n].Kind.Numeric() {
			out = append(out, n)
		}
	}
	return out
}
