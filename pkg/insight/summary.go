package insight

import (
	"fmt"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/stats"
)

// Summary describes the predicted scores of a batch.
type Summary struct {
	Count      int
	Mean       float64
	Median     float64
	Min        float64
	Max        float64
	Std        float64 // population
	Hits       int
	HitPercent float64
}

// Summarize computes batch statistics; hits are scores >= hitThreshold.
func Summarize(scores []float64, hitThreshold float64) Summary {
	s := Summary{Count: len(scores)}
	if len(scores) == 0 {
		return s
	}
	s.Mean = stats.Mean(scores)
	s.Median = stats.Median(scores)
	s.Min, s.Max = stats.MinMax(scores)
	s.Std = stats.Std(scores)
	for _, v := range scores {
		if v >= hitThreshold {
			s.Hits++
		}
	}
	s.HitPercent = float64(s.Hits) / float64(len(scores)) * 100
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d mean=%.2f median=%.2f min=%.2f max=%.2f std=%.2f hits=%d (%.1f%%)",
		s.Count, s.Mean, s.Median, s.Min, s.Max, s.Std, s.Hits, s.HitPercent)
}
