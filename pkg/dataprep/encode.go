package dataprep

import (
	"sort"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// OneHotEncoder maps the categories of one column to indicator vectors.
// Categories are sorted so the layout does not depend on row order.
type OneHotEncoder struct {
	Column     string
	Categories []string
	Index      map[string]int
}

// FitOneHot learns the distinct non-empty values of a column.
func FitOneHot(column string, values []string) *OneHotEncoder {
	seen := map[string]struct{}{}
	for _, v := range values {
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	cats := make([]string, 0, len(seen))
	for v := range seen {
		cats = append(cats, v)
	}
	sort.Strings(cats)
	idx := make(map[string]int, len(cats))
	for i, c := range cats {
		idx[c] = i
	}
	return &OneHotEncoder{Column: column, Categories: cats, Index: idx}
}

// Width is the number of output columns.
func (e *OneHotEncoder) Width() int { return len(e.Categories) }

// Encode writes the indicator vector of v into dst (len Width). Values not
// seen while fitting are rejected.
func (e *OneHotEncoder) Encode(v string, dst []float64) error {
	i, ok := e.Index[v]
	if !ok {
		return track.UnseenCategoryError{Column: e.Column, Value: v}
	}
	for j := range dst {
		dst[j] = 0
	}
	dst[i] = 1
	return nil
}

// FeatureNames returns "<column>=<category>" for every output column.
func (e *OneHotEncoder) FeatureNames() []string {
	out := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		out[i] = e.Column + "=" + c
	}
	return out
}
