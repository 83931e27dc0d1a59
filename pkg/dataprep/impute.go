package dataprep

import (
	"math"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/stats"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// UnknownCategory fills categorical columns that have no non-null value.
const UnknownCategory = "Unknown"

// Impute returns the fill value for a column: the rounded median for integer
// columns, the mean for float columns and the most frequent category for
// categorical ones.
func Impute(col stats.Column) track.Value {
	switch col.Kind {
	case track.Category:
		if col.Count == 0 || col.Mode == "" {
			return track.CategoryValue(UnknownCategory)
		}
		return track.CategoryValue(col.Mode)
	case track.Int:
		return track.IntValue(int(math.Round(col.Median)))
	default:
		return track.FloatValue(col.Mean)
	}
}

// ImputeRecord fills every name missing from r using the statistics table.
// Names without a column in the table are left missing and returned.
func ImputeRecord(r *track.Record, names []string, table *stats.Table) []string {
	var unknown []string
	for _, name := range names {
		if r.Has(name) {
			continue
		}
		col, ok := table.Column(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		r.Set(name, Impute(col))
	}
	return unknown
}
