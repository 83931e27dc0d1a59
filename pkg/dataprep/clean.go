package dataprep

import (
	"math"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// OtherCategory replaces rare categories.
const OtherCategory = "Other"

// GroupRare returns OtherCategory when v occurs fewer than threshold times.
func GroupRare(v string, counts map[string]int, threshold int) string {
	if counts[v] < threshold {
		return OtherCategory
	}
	return v
}

// SplitTarget removes the target field from every record and returns the
// records that carry a finite numeric target together with the targets.
func SplitTarget(records []track.Record, target string) ([]track.Record, []float64) {
	var kept []track.Record
	var y []float64
	for _, r := range records {
		v, ok := r.Num(target)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		c := r.Clone()
		c.Delete(target)
		kept = append(kept, c)
		y = append(y, v)
	}
	return kept, y
}
