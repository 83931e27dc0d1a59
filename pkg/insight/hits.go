// Package insight summarizes the dataset and generated batches.
package insight

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/data"
)

const (
	PopularityColumn = "popularity"
	CountryColumn    = "country"
	DefaultThreshold = 80
	TopN             = 10
)

// ErrMissingColumn is returned when the dataset lacks a column the report needs.
var ErrMissingColumn = errors.New("insight: missing column")

// ColumnError names the missing column and any similarly named candidates.
type ColumnError struct {
	Column     string
	Candidates []string
}

func (e ColumnError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("column %q not found in dataset", e.Column)
	}
	return fmt.Sprintf("column %q not found in dataset (similar: %s)", e.Column, strings.Join(e.Candidates, ", "))
}

func (e ColumnError) Is(target error) bool { return target == ErrMissingColumn }

// CountryCount is one row of the hit ranking.
type CountryCount struct {
	Country string
	Hits    int
}

// HitReport ranks countries by number of hits.
type HitReport struct {
	Threshold     int
	TotalHits     int
	Countries     []CountryCount // at most TopN, most hits first
	MaxPopularity float64        // set when there are no hits
}

// ClampThreshold bounds a user threshold to [0, 100].
func ClampThreshold(t int) int {
	return max(0, min(100, t))
}

// HitCountries counts rows with popularity >= threshold per country.
func HitCountries(ds *data.Dataset, threshold int) (HitReport, error) {
	threshold = ClampThreshold(threshold)
	rep := HitReport{Threshold: threshold}
	if !ds.Has(PopularityColumn) {
		return rep, ColumnError{Column: PopularityColumn}
	}
	if !ds.Has(CountryColumn) {
		return rep, ColumnError{Column: CountryColumn, Candidates: similar(ds.Names(), "country", "nation")}
	}

	df := ds.DataFrame().Filter(dataframe.F{
		Colname:    PopularityColumn,
		Comparator: series.GreaterEq,
		Comparando: float64(threshold),
	})
	if df.Err != nil {
		return rep, fmt.Errorf("insight: filter: %w", df.Err)
	}

	rep.TotalHits = df.Nrow()
	if rep.TotalHits == 0 {
		pops, _ := ds.Floats(PopularityColumn)
		rep.MaxPopularity = math.Inf(-1)
		for _, p := range pops {
			if !math.IsNaN(p) && p > rep.MaxPopularity {
				rep.MaxPopularity = p
			}
		}
		if math.IsInf(rep.MaxPopularity, -1) {
			rep.MaxPopularity = 0
		}
		return rep, nil
	}

	counts := make(map[string]int)
	col := df.Col(CountryColumn)
	for i := 0; i < col.Len(); i++ {
		if col.Elem(i).IsNA() {
			continue
		}
		counts[col.Elem(i).String()]++
	}
	for c, n := range counts {
		rep.Countries = append(rep.Countries, CountryCount{Country: c, Hits: n})
	}
	sort.Slice(rep.Countries, func(i, j int) bool {
		a, b := rep.Countries[i], rep.Countries[j]
		if a.Hits != b.Hits {
			return a.Hits > b.Hits
		}
		return a.Country < b.Country
	})
	if len(rep.Countries) > TopN {
		rep.Countries = rep.Countries[:TopN]
	}
	return rep, nil
}

func similar(names []string, subs ...string) []string {
	var out []string
	for _, n := range names {
		l := strings.ToLower(n)
		for _, s := range subs {
			if strings.Contains(l, s) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}
