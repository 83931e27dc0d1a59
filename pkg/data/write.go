package data

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// FromRecords builds a dataset from records. Columns listed in names come
// first, followed by any other field in first-seen order. A column's kind is
// taken from its first present value (Float when it is never present);
// absent cells become null.
func FromRecords(records []track.Record, names ...string) *Dataset {
	var order []string
	seen := make(map[string]bool)
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			order = append(order, n)
		}
	}
	kinds := make(map[string]track.Kind)
	for _, r := range records {
		for _, f := range r.Fields() {
			if _, ok := kinds[f.Name]; !ok {
				kinds[f.Name] = f.Value.Kind
			}
			if !seen[f.Name] {
				seen[f.Name] = true
				order = append(order, f.Name)
			}
		}
	}
	d := &Dataset{index: make(map[string]int), rows: len(records)}
	for _, name := range order {
		c := column{name: name, kind: kinds[name]}
		if c.kind == track.Category {
			c.strs = make([]string, len(records))
		} else {
			c.nums = make([]float64, len(records))
		}
		for i, r := range records {
			v, ok := r.Get(name)
			switch {
			case c.kind == track.Category && ok:
				c.strs[i] = v.String()
			case c.kind != track.Category && ok && v.IsNumeric():
				c.nums[i] = v.Num
			case c.kind != track.Category:
				c.nums[i] = math.NaN()
			}
		}
		d.index[name] = len(d.cols)
		d.cols = append(d.cols, c)
	}
	d.stats = d.summarize()
	return d
}

// DataFrame converts the dataset back to a gota frame.
func (d *Dataset) DataFrame() dataframe.DataFrame {
	ss := make([]series.Series, 0, len(d.cols))
	for _, c := range d.cols {
		switch c.kind {
		case track.Category:
			vals := make([]string, len(c.strs))
			for i, s := range c.strs {
				if s == "" {
					vals[i] = "NaN"
				} else {
					vals[i] = s
				}
			}
			ss = append(ss, series.New(vals, series.String, c.name))
		case track.Int:
			ss = append(ss, intSeries(c))
		default:
			ss = append(ss, series.New(c.nums, series.Float, c.name))
		}
	}
	return dataframe.New(ss...)
}

func intSeries(c column) series.Series {
	vals := make([]string, len(c.nums))
	for i, v := range c.nums {
		if math.IsNaN(v) {
			vals[i] = "NaN"
		} else {
			vals[i] = fmt.Sprintf("%d", int64(v))
		}
	}
	return series.New(vals, series.Int, c.name)
}

// textFrame renders every cell as text. Floats keep full precision, which
// the frame's own float formatting would cut to six decimals.
func (d *Dataset) textFrame() dataframe.DataFrame {
	ss := make([]series.Series, 0, len(d.cols))
	for _, c := range d.cols {
		vals := make([]string, d.rows)
		for i := range vals {
			v, ok := c.value(i)
			switch {
			case !ok:
				vals[i] = "NaN"
			case c.kind == track.Float:
				vals[i] = formatFloat(v.Num)
			default:
				vals[i] = v.String()
			}
		}
		ss = append(ss, series.New(vals, series.String, c.name))
	}
	return dataframe.New(ss...)
}

// formatFloat keeps a decimal point on whole numbers so the column is read
// back as float.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}

// WriteCSV writes the dataset with a header row to path. Null cells are
// written as NaN.
func (d *Dataset) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := d.textFrame().WriteCSV(w); err != nil {
		f.Close()
		return fmt.Errorf("data: write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
