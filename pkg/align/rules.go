package align

import (
	"math"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/dataprep"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/stats"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// Epsilon guards every ratio against division by zero.
const Epsilon = 1e-5

// Tempo categories.
const (
	TempoSlow   = "slow"
	TempoMedium = "medium"
	TempoFast   = "fast"
)

var (
	tempoEdges  = []float64{0, 80, 140, 250}
	energyEdges = []float64{0, 0.4, 0.7, 1.0}
	tempoLabels = []string{TempoSlow, TempoMedium, TempoFast}
)

// Options are the tunable constants used by the derivation rules.
type Options struct {
	ReferenceYear      int     // release_age = ReferenceYear - release_year
	RareLabelThreshold int     // labels seen fewer times become "Other"
	TempoPerEnergy     float64 // tempo estimate per unit of energy
	DefaultTempo       float64 // tempo estimate when neither tempo nor energy exist
}

// DefaultOptions returns the constants the shipped model was trained with.
func DefaultOptions() Options {
	return Options{
		ReferenceYear:      2025,
		RareLabelThreshold: 50,
		TempoPerEnergy:     150,
		DefaultTempo:       120,
	}
}

// Env is the read-only context a rule computes against.
type Env struct {
	Stats *stats.Table
	Opts  Options
}

// Rule derives Output from the fields in Requires. A rule is applicable when
// every required field is present and Output is absent.
type Rule struct {
	Output   string
	Requires []string
	Compute  func(r track.Record, env Env) track.Value
}

// Applicable reports whether the rule may fire on r.
func (rl Rule) Applicable(r track.Record) bool {
	return !r.Has(rl.Output) && r.HasAll(rl.Requires...)
}

func num(r track.Record, name string) float64 {
	v, _ := r.Num(name)
	return v
}

// Rules returns the derivation rules in priority order. Variants for the
// same output are listed from most to least informed; the first applicable
// one wins.
func Rules() []Rule {
	return []Rule{
		{
			Output:   "release_age",
			Requires: []string{"release_year"},
			Compute: func(r track.Record, env Env) track.Value {
				return track.IntValue(env.Opts.ReferenceYear - int(num(r, "release_year")))
			},
		},
		{
			Output:   "dance_energy_product",
			Requires: []string{"danceability", "energy"},
			Compute: func(r track.Record, _ Env) track.Value {
				return track.FloatValue(num(r, "danceability") * num(r, "energy"))
			},
		},
		{
			Output:   "dance_energy_ratio",
			Requires: []string{"danceability", "energy"},
			Compute: func(r track.Record, _ Env) track.Value {
				return track.FloatValue(dataprep.SafeDiv(num(r, "danceability"), num(r, "energy"), Epsilon))
			},
		},
		{
			Output:   "energy_x_tempo",
			Requires: []string{"energy", "tempo"},
			Compute: func(r track.Record, _ Env) track.Value {
				return track.FloatValue(num(r, "energy") * num(r, "tempo"))
			},
		},
		{
			Output:   "energy_x_tempo",
			Requires: []string{"energy"},
			Compute: func(r track.Record, env Env) track.Value {
				e := num(r, "energy")
				return track.FloatValue(e * (e * env.Opts.TempoPerEnergy))
			},
		},
		{
			Output:   "high_energy_fast",
			Requires: []string{"tempo", "energy"},
			Compute: func(r track.Record, _ Env) track.Value {
				return track.BoolValue(num(r, "tempo") > 140 && num(r, "energy") > 0.7)
			},
		},
		{
			Output:   "high_energy_fast",
			Requires: []string{"energy"},
			Compute: func(r track.Record, _ Env) track.Value {
				return track.BoolValue(num(r, "energy") > 0.7)
			},
		},
		{
			Output:   "loudness_per_sec",
			Requires: []string{"loudness", "duration_s"},
			Compute: func(r track.Record, _ Env) track.Value {
				return track.FloatValue(dataprep.SafeDiv(num(r, "loudness"), num(r, "duration_s"), Epsilon))
			},
		},
		{
			Output:   "dance_x_loud",
			Requires: []string{"danceability", "loudness_per_sec"},
			Compute: func(r track.Record, _ Env) track.Value {
				return track.FloatValue(num(r, "danceability") * num(r, "loudness_per_sec"))
			},
		},
		{
			Output:   "tempo_loudness_ratio",
			Requires: []string{"tempo", "loudness"},
			Compute: func(r track.Record, _ Env) track.Value {
				return track.FloatValue(dataprep.SafeDiv(num(r, "tempo"), math.Abs(num(r, "loudness")), Epsilon))
			},
		},
		{
			Output:   "tempo_loudness_ratio",
			Requires: []string{"energy", "loudness"},
			Compute: func(r track.Record, env Env) track.Value {
				tempo := num(r, "energy") * env.Opts.TempoPerEnergy
				return track.FloatValue(dataprep.SafeDiv(tempo, math.Abs(num(r, "loudness")), Epsilon))
			},
		},
		{
			Output:   "tempo_loudness_ratio",
			Requires: []string{"loudness"},
			Compute: func(r track.Record, env Env) track.Value {
				return track.FloatValue(dataprep.SafeDiv(env.Opts.DefaultTempo, math.Abs(num(r, "loudness")), Epsilon))
			},
		},
		{
			Output:   "tempo_cat",
			Requires: []string{"tempo"},
			Compute: func(r track.Record, _ Env) track.Value {
				return tempoCategory(num(r, "tempo"), tempoEdges)
			},
		},
		{
			Output:   "tempo_cat",
			Requires: []string{"energy"},
			Compute: func(r track.Record, _ Env) track.Value {
				return tempoCategory(num(r, "energy"), energyEdges)
			},
		},
		{
			Output: "tempo_cat",
			Compute: func(track.Record, Env) track.Value {
				return track.CategoryValue(TempoMedium)
			},
		},
		{
			Output:   "label_grouped",
			Requires: []string{"label"},
			Compute: func(r track.Record, env Env) track.Value {
				v, _ := r.Get("label")
				col, _ := env.Stats.Column("label")
				return track.CategoryValue(dataprep.GroupRare(v.String(), col.Counts, env.Opts.RareLabelThreshold))
			},
		},
		{
			Output: "label_grouped",
			Compute: func(track.Record, Env) track.Value {
				return track.CategoryValue(dataprep.UnknownCategory)
			},
		},
		{
			Output:   "high_stream",
			Requires: []string{"stream_count"},
			Compute: func(r track.Record, env Env) track.Value {
				col, ok := env.Stats.Column("stream_count")
				if !ok || col.Count == 0 {
					return track.IntValue(0)
				}
				return track.BoolValue(num(r, "stream_count") > col.Median)
			},
		},
		{
			Output: "high_stream",
			Compute: func(track.Record, Env) track.Value {
				return track.IntValue(0)
			},
		},
	}
}

func tempoCategory(v float64, edges []float64) track.Value {
	label, ok := dataprep.Cut(v, edges, tempoLabels)
	if !ok {
		return track.CategoryValue(TempoMedium)
	}
	return track.CategoryValue(label)
}
