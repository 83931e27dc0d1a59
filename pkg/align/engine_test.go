package align

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/stats"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

func testTable() *stats.Table {
	labels := make([]string, 0, 60)
	for _i := 0; _i < 55; _i++ {
		labels = append(labels, "Big Label")
	}
	labels = append(labels, "Tiny Label", "Tiny Label")
	return stats.NewTable(
		stats.NumericColumn("danceability", track.Float, []float64{0.2, 0.4, 0.6}),
		stats.NumericColumn("energy", track.Float, []float64{0.3, 0.5, 0.7}),
		stats.NumericColumn("key", track.Int, []float64{1, 2, 8}),
		stats.NumericColumn("stream_count", track.Int, []float64{100, 200, 300}),
		stats.CategoryColumn("label", labels),
	)
}

func newEngine() *Engine { return NewEngine(testTable(), DefaultOptions()) }

func rec(kv ...any) track.Record {
	var r track.Record
	for i := 0; i < len(kv); i += 2 {
		name := kv[i].(string)
		switch v := kv[i+1].(type) {
		case float64:
			r.Set(name, track.FloatValue(v))
		case int:
			r.Set(name, track.IntValue(v))
		case string:
			r.Set(name, track.CategoryValue(v))
		}
	}
	return r
}

func derived(t *testing.T, r track.Record, name string) track.Value {
	t.Helper()
	out := newEngine().Align(r, track.Catalog{name})
	v, ok := out.Get(name)
	require.True(t, ok, name)
	return v
}

func TestAlign_ExactCatalogInOrder(t *testing.T) {
	catalog := track.Catalog{"tempo_cat", "key", "danceability", "never_seen", "dance_energy_product"}
	template := rec("energy", 0.5, "danceability", 0.6, "genre", "pop", "popularity", 80)

	out := newEngine().Align(template, catalog)

	assert.Equal(t, []string(catalog), out.Names())
	assert.True(t, out.HasAll(catalog...))
	assert.False(t, out.Has("genre"), "fields outside the catalog are dropped")
	assert.False(t, out.Has("popularity"))
}

func TestAlign_DoesNotModifyTemplate(t *testing.T) {
	template := rec("energy", 0.5)
	before := template.Clone()

	newEngine().Align(template, track.Catalog{"energy", "tempo_cat", "key"})

	assert.True(t, before.Equal(template))
}

func TestAlign_Idempotent(t *testing.T) {
	e := newEngine()
	catalog := track.Catalog{
		"danceability", "energy", "loudness", "tempo", "key",
		"dance_energy_product", "dance_energy_ratio", "energy_x_tempo",
		"high_energy_fast", "tempo_loudness_ratio", "tempo_cat",
		"label_grouped", "high_stream",
	}
	template := rec("danceability", 0.6, "energy", 0.5, "loudness", -6.0, "label", "Tiny Label")

	once := e.Align(template, catalog)
	twice := e.Align(once, catalog)

	if !once.Equal(twice) {
		t.Errorf("align is not idempotent:\n%s", cmp.Diff(once.Fields(), twice.Fields()))
	}
}

func TestAlign_UnknownFieldsBecomeZero(t *testing.T) {
	v := derived(t, rec(), "artist_followers")
	assert.Equal(t, track.IntValue(0), v)
}

func TestAlign_ImputesFromStats(t *testing.T) {
	out := newEngine().Align(rec(), track.Catalog{"danceability", "key"})

	d, _ := out.Num("danceability")
	assert.InDelta(t, 0.4, d, 1e-12, "float columns use the mean")
	k, _ := out.Get("key")
	assert.Equal(t, track.IntValue(2), k, "int columns use the rounded median")
}

func TestAlign_KeepsPresentValues(t *testing.T) {
	out := newEngine().Align(rec("key", 11), track.Catalog{"key"})
	k, _ := out.Get("key")
	assert.Equal(t, track.IntValue(11), k)
}

func TestRules_DanceEnergy(t *testing.T) {
	r := rec("danceability", 0.6, "energy", 0.5)

	assert.InDelta(t, 0.3, derived(t, r, "dance_energy_product").Num, 1e-12)
	assert.InDelta(t, 0.6/(0.5+1e-5), derived(t, r, "dance_energy_ratio").Num, 1e-12)
	assert.InDelta(t, 0.6/1e-5, derived(t, rec("danceability", 0.6, "energy", 0.0), "dance_energy_ratio").Num, 1e-6)
}

func TestRules_TempoCategory(t *testing.T) {
	tests := []struct {
		name string
		in   track.Record
		want string
	}{
		{"80 is slow", rec("tempo", 80.0), TempoSlow},
		{"140 is medium", rec("tempo", 140.0), TempoMedium},
		{"141 is fast", rec("tempo", 141.0), TempoFast},
		{"energy proxy low", rec("energy", 0.4), TempoSlow},
		{"energy proxy mid", rec("energy", 0.55), TempoMedium},
		{"energy proxy high", rec("energy", 0.9), TempoFast},
		{"tempo wins over energy", rec("tempo", 60.0, "energy", 0.9), TempoSlow},
		{"no inputs", rec(), TempoMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, track.CategoryValue(tt.want), derived(t, tt.in, "tempo_cat"))
		})
	}
}

func TestRules_HighStreamStrictlyAboveMedian(t *testing.T) {
	assert.Equal(t, track.IntValue(0), derived(t, rec("stream_count", 200), "high_stream"))
	assert.Equal(t, track.IntValue(1), derived(t, rec("stream_count", 201), "high_stream"))
	assert.Equal(t, track.IntValue(0), derived(t, rec(), "high_stream"))

	e := NewEngine(stats.NewTable(), DefaultOptions())
	out := e.Align(rec("stream_count", 1000), track.Catalog{"high_stream"})
	v, _ := out.Get("high_stream")
	assert.Equal(t, track.IntValue(0), v, "no statistics means not high")
}

func TestRules_LabelGrouping(t *testing.T) {
	assert.Equal(t, track.CategoryValue("Big Label"), derived(t, rec("label", "Big Label"), "label_grouped"))
	assert.Equal(t, track.CategoryValue("Other"), derived(t, rec("label", "Tiny Label"), "label_grouped"))
	assert.Equal(t, track.CategoryValue("Unknown"), derived(t, rec(), "label_grouped"))
}

func TestRules_EnergyFallbacks(t *testing.T) {
	assert.InDelta(t, 0.5*0.5*150, derived(t, rec("energy", 0.5), "energy_x_tempo").Num, 1e-9)
	assert.InDelta(t, 0.5*120, derived(t, rec("energy", 0.5, "tempo", 120.0), "energy_x_tempo").Num, 1e-9)

	assert.Equal(t, track.IntValue(1), derived(t, rec("energy", 0.8), "high_energy_fast"))
	assert.Equal(t, track.IntValue(0), derived(t, rec("energy", 0.8, "tempo", 120.0), "high_energy_fast"))

	assert.InDelta(t, 120/(6+1e-5), derived(t, rec("loudness", -6.0), "tempo_loudness_ratio").Num, 1e-9)
	assert.InDelta(t, 75/(6+1e-5), derived(t, rec("loudness", -6.0, "energy", 0.5), "tempo_loudness_ratio").Num, 1e-9)
}

func TestRules_ReleaseAgeAndLoudnessChain(t *testing.T) {
	assert.Equal(t, track.IntValue(5), derived(t, rec("release_year", 2020), "release_age"))

	r := rec("danceability", 0.5, "loudness", -10.0, "duration_s", 200.0)
	assert.InDelta(t, 0.5*(-10/(200+1e-5)), derived(t, r, "dance_x_loud").Num, 1e-12)
}

func TestDerive_OnlyFillsMissing(t *testing.T) {
	r := rec("danceability", 0.6, "energy", 0.5, "dance_energy_product", 9.0)
	created := newEngine().Derive(&r)

	assert.NotContains(t, created, "dance_energy_product")
	assert.Contains(t, created, "dance_energy_ratio")
	v, _ := r.Num("dance_energy_product")
	assert.Equal(t, 9.0, v)
}

func TestInvalidate_RemovesTransitiveDependents(t *testing.T) {
	e := newEngine()
	r := rec("danceability", 0.6, "energy", 0.5, "loudness", -6.0, "duration_s", 180.0)
	e.Derive(&r)
	require.True(t, r.Has("dance_x_loud"))

	r.Set("loudness", track.FloatValue(-3))
	removed := e.Invalidate(&r, "loudness")

	assert.ElementsMatch(t, []string{"loudness_per_sec", "dance_x_loud", "tempo_loudness_ratio"}, removed)
	assert.True(t, r.Has("loudness"))
	assert.True(t, r.Has("dance_energy_product"), "unrelated fields stay")

	out := e.Align(r, track.Catalog{"tempo_loudness_ratio"})
	v, _ := out.Num("tempo_loudness_ratio")
	assert.InDelta(t, 75/(3+1e-5), v, 1e-9)
}

func TestInvalidate_StaleValuesWouldOtherwiseSurvive(t *testing.T) {
	e := newEngine()
	catalog := track.Catalog{"energy", "tempo_cat", "high_energy_fast"}
	r := e.Align(rec("energy", 0.2), catalog)

	r.Set("energy", track.FloatValue(0.95))
	stale := e.Align(r, catalog)
	v, _ := stale.Get("tempo_cat")
	assert.Equal(t, track.CategoryValue(TempoSlow), v, "without invalidation the old category is kept")

	e.Invalidate(&r, "energy")
	fresh := e.Align(r, catalog)
	v, _ = fresh.Get("tempo_cat")
	assert.Equal(t, track.CategoryValue(TempoFast), v)
	v, _ = fresh.Get("high_energy_fast")
	assert.Equal(t, track.IntValue(1), v)
}

func TestEngine_RulesIsACopy(t *testing.T) {
	e := newEngine()
	rs := e.Rules()
	rs[0].Output = "mutated"
	assert.Equal(t, "release_age", e.Rules()[0].Output)
	assert.NotNil(t, NewEngine(nil, DefaultOptions()).Stats())
}

func TestColumnRules_OneRulePerOutput(t *testing.T) {
	e := NewEngine(nil, DefaultOptions())

	requires := func(rules []Rule, out string) []string {
		for _, rl := range rules {
			if rl.Output == out {
				return rl.Requires
			}
		}
		return nil
	}

	withTempo := e.ColumnRules([]string{"danceability", "energy", "tempo", "loudness", "duration_s"})
	assert.Equal(t, []string{"energy", "tempo"}, requires(withTempo, "energy_x_tempo"))
	assert.Equal(t, []string{"tempo"}, requires(withTempo, "tempo_cat"))
	assert.Equal(t, []string{"danceability", "loudness_per_sec"}, requires(withTempo, "dance_x_loud"),
		"chained outputs may use columns picked earlier in the pass")

	seen := map[string]bool{}
	for _, rl := range withTempo {
		assert.False(t, seen[rl.Output], "duplicate rule for %s", rl.Output)
		seen[rl.Output] = true
	}

	noTempo := e.ColumnRules([]string{"energy"})
	assert.Equal(t, []string{"energy"}, requires(noTempo, "energy_x_tempo"))

	for _, rl := range e.ColumnRules([]string{"tempo_cat"}) {
		assert.NotEqual(t, "tempo_cat", rl.Output, "existing columns are not re-derived")
	}
}

func TestApply_LeavesOutputAbsentWithoutInputs(t *testing.T) {
	e := NewEngine(nil, DefaultOptions())
	plan := e.ColumnRules([]string{"energy", "tempo"})

	r := rec("energy", 0.5)
	e.Apply(&r, plan)
	assert.False(t, r.Has("energy_x_tempo"))
	assert.False(t, r.Has("tempo_cat"))

	r = rec("energy", 0.5, "tempo", 100.0)
	e.Apply(&r, plan)
	v, _ := r.Num("energy_x_tempo")
	assert.InDelta(t, 50, v, 1e-9)
}
