package dataprep

import "math"

// Cut assigns v to a right-closed bin: labels[i] covers (edges[i], edges[i+1]].
// Values at or below the first edge fall into the first bin and values above
// the last edge into the last one. len(labels) must be len(edges)-1.
func Cut(v float64, edges []float64, labels []string) (string, bool) {
	if len(labels) == 0 || len(edges) != len(labels)+1 || math.IsNaN(v) {
		return "", false
	}
	for i := 0; i < len(labels); i++ {
		if v <= edges[i+1] {
			return labels[i], true
		}
	}
	return labels[len(labels)-1], true
}

// SafeDiv divides a by b+eps.
func SafeDiv(a, b, eps float64) float64 {
	return a / (b + eps)
}
