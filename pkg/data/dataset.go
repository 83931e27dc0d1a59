// Package data loads the track dataset and exposes typed, read-only column
// access, row extraction and summary statistics.
package data

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/stats"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// nullTokens are parsed as missing values in every column.
var nullTokens = []string{"", "NA", "NaN", "nan", "<nil>", "null"}

type column struct {
	name string
	kind track.Kind
	nums []float64 // numeric kinds; NaN marks null
	strs []string  // categories; "" marks null
}

func (c column) value(i int) (track.Value, bool) {
	if c.kind == track.Category {
		if c.strs[i] == "" {
			return track.Value{}, false
		}
		return track.CategoryValue(c.strs[i]), true
	}
	v := c.nums[i]
	if math.IsNaN(v) {
		return track.Value{}, false
	}
	return track.Value{Kind: c.kind, Num: v}, true
}

// Dataset is the tabular track data loaded once at startup.
// It must not be mutated while alignment or generation is running.
type Dataset struct {
	cols  []column
	index map[string]int
	rows  int
	stats *stats.Table
}

// LoadCSV reads a dataset with a header row from path.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(bufio.NewReader(f))
}

// ReadCSV parses a CSV stream with a header row, detecting column types.
func ReadCSV(r io.Reader) (*Dataset, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(nullTokens),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("data: parse csv: %w", df.Err)
	}
	return FromDataFrame(df), nil
}

// FromDataFrame converts a gota frame. Int and bool columns become track.Int,
// float columns track.Float and everything else track.Category.
func FromDataFrame(df dataframe.DataFrame) *Dataset {
	d := &Dataset{index: make(map[string]int), rows: df.Nrow()}
	for _, name := range df.Names() {
		s := df.Col(name)
		c := column{name: name}
		switch s.Type() {
		case series.Int, series.Bool:
			c.kind = track.Int
			c.nums = s.Float()
		case series.Float:
			c.kind = track.Float
			c.nums = s.Float()
		default:
			c.kind = track.Category
			c.strs = s.Records()
			for i, na := range s.IsNaN() {
				if na {
					c.strs[i] = ""
				}
			}
		}
		d.index[name] = len(d.cols)
		d.cols = append(d.cols, c)
	}
	d.stats = d.summarize()
	return d
}

func (d *Dataset) summarize() *stats.Table {
	cols := make([]stats.Column, 0, len(d.cols))
	for _, c := range d.cols {
		if c.kind == track.Category {
			cols = append(cols, stats.CategoryColumn(c.name, c.strs))
		} else {
			cols = append(cols, stats.NumericColumn(c.name, c.kind, c.nums))
		}
	}
	return stats.NewTable(cols...)
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.rows }

// Names returns the column names in file order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.name
	}
	return out
}

// Has reports whether the dataset has a column called name.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Kind returns the storage kind of column name.
func (d *Dataset) Kind(name string) (track.Kind, bool) {
	i, ok := d.index[name]
	if !ok {
		return 0, false
	}
	return d.cols[i].kind, true
}

// Stats returns the per-column statistics computed at load time.
func (d *Dataset) Stats() *stats.Table { return d.stats }

// Floats returns a copy of a numeric column. ok is false for missing or
// categorical columns.
func (d *Dataset) Floats(name string) ([]float64, bool) {
	i, ok := d.index[name]
	if !ok || d.cols[i].kind == track.Category {
		return nil, false
	}
	out := make([]float64, d.rows)
	copy(out, d.cols[i].nums)
	return out, true
}

// Strings returns a copy of a categorical column.
func (d *Dataset) Strings(name string) ([]string, bool) {
	i, ok := d.index[name]
	if !ok || d.cols[i].kind != track.Category {
		return nil, false
	}
	out := make([]string, d.rows)
	copy(out, d.cols[i].strs)
	return out, true
}

// Row returns row i as a record. Null cells are left out so that alignment
// treats them as missing.
func (d *Dataset) Row(i int) track.Record {
	var r track.Record
	for _, c := range d.cols {
		if v, ok := c.value(i); ok {
			r.Set(c.name, v)
		}
	}
	return r
}

// Rows returns every row as a record.
func (d *Dataset) Rows() []track.Record {
	out := make([]track.Record, d.rows)
	for i := 0; i < d.rows; i++ {
		out[i] = d.Row(i)
	}
	return out
}

// Sample returns a uniformly chosen row.
func (d *Dataset) Sample(rng *rand.Rand) (track.Record, error) {
	if d.rows == 0 {
		return track.Record{}, fmt.Errorf("data: cannot sample from an empty dataset")
	}
	return d.Row(rng.Intn(d.rows)), nil
}
