package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/align"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/artifact"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/config"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/data"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/history"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/model"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/pipeline"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/predict"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

var testCatalog = track.Catalog{"danceability", "energy", "loudness", "key", "tempo_cat", "dance_energy_product"}

func testDataset(t *testing.T) *data.Dataset {
	t.Helper()
	rnd := rand.New(rand.NewSource(11))
	countries := []string{"US", "UK", "FR"}
	var b strings.Builder
	b.WriteString("danceability,energy,loudness,key,country,popularity\n")
	for i := 0; i < 60; i++ {
		e := 0.05 + 0.9*rnd.Float64()
		fmt.Fprintf(&b, "%.3f,%.3f,%.2f,%d,%s,%d\n",
			rnd.Float64(), e, -30+25*rnd.Float64(), rnd.Intn(12), countries[i%3], int(e*100))
	}
	ds, err := data.ReadCSV(strings.NewReader(b.String()))
	require.NoError(t, err)
	return ds
}

func testBundle(t *testing.T) *artifact.Bundle {
	t.Helper()
	ds := testDataset(t)
	engine := align.NewEngine(ds.Stats(), align.DefaultOptions())
	records := make([]track.Record, ds.Len())
	y := make([]float64, ds.Len())
	for i := range records {
		records[i] = engine.Align(ds.Row(i), testCatalog)
		y[i], _ = ds.Row(i).Num("popularity")
	}
	pre, err := pipeline.Fit(records, testCatalog)
	require.NoError(t, err)
	X, err := pre.Transform(records)
	require.NoError(t, err)
	rf := model.NewRandomForestRegressor(model.WithNEstimators(5), model.WithRandomState(1))
	require.NoError(t, rf.Fit(X, y))
	return &artifact.Bundle{Dataset: ds, Preprocessor: pre, Model: rf, Catalog: testCatalog}
}

func newTestContext(t *testing.T, withHistory bool) *Context {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Output.Dir = t.TempDir()
	cfg.History.Enabled = false
	var store *history.Store
	if withHistory {
		var err error
		store, err = history.NewStore(":memory:", nil)
		require.NoError(t, err)
	}
	c, err := New(cfg, nil, testBundle(t), store)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func rec(fields map[string]track.Value) track.Record {
	var r track.Record
	for _, name := range testCatalog {
		if v, ok := fields[name]; ok {
			r.Set(name, v)
		}
	}
	return r
}

func TestBuildInput_RecomputesDependents(t *testing.T) {
	c := newTestContext(t, false)
	tmpl := rec(map[string]track.Value{
		"danceability":         track.FloatValue(0.5),
		"energy":               track.FloatValue(0.2),
		"loudness":             track.FloatValue(-10),
		"key":                  track.IntValue(1),
		"tempo_cat":            track.CategoryValue(align.TempoSlow),
		"dance_energy_product": track.FloatValue(0.1),
	})

	out, err := c.BuildInput(tmpl, map[string]float64{"energy": 0.95, "key": 7})
	require.NoError(t, err)

	assert.Equal(t, []string(testCatalog), out.Names())
	v, _ := out.Num("dance_energy_product")
	assert.InDelta(t, 0.5*0.95, v, 1e-12)
	tc, _ := out.Get("tempo_cat")
	assert.Equal(t, track.CategoryValue(align.TempoFast), tc)
	k, _ := out.Get("key")
	assert.Equal(t, track.IntValue(7), k)

	v, _ = tmpl.Num("energy")
	assert.Equal(t, 0.2, v, "template is not modified")
}

func TestBuildInput_RejectsBadValues(t *testing.T) {
	c := newTestContext(t, false)
	tmpl := rec(nil)

	for _, in := range []map[string]float64{
		{"energy": 1.5},
		{"loudness": -61},
		{"key": 2.5},
		{"key": 12},
		{"tempo": 120},
	} {
		_, err := c.BuildInput(tmpl, in)
		assert.ErrorIs(t, err, track.ErrInvalidInput, "%v", in)
	}

	_, err := c.BuildInput(tmpl, map[string]float64{"energy": -0.1})
	var re track.RangeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "energy", re.Field)
}

func TestPredictInputs_RecordsHistory(t *testing.T) {
	c := newTestContext(t, true)
	ctx := context.Background()

	rec, p, err := c.PredictInputs(ctx, map[string]float64{"danceability": 0.7, "energy": 0.9})
	require.NoError(t, err)
	v, _ := rec.Num("energy")
	assert.Equal(t, 0.9, v)
	assert.GreaterOrEqual(t, p.Score, 0.0)
	assert.LessOrEqual(t, p.Score, 100.0)

	entries, err := c.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.KindSingle, entries[0].Kind)
	assert.Equal(t, p.Score, entries[0].Score)
}

func TestAvailableInputs(t *testing.T) {
	c := newTestContext(t, false)
	var names []string
	for _, f := range c.AvailableInputs() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"danceability", "energy", "loudness", "key"}, names)
}

func TestGenerate(t *testing.T) {
	c := newTestContext(t, true)
	ctx := context.Background()

	b, err := c.Generate(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, b.Report.Succeeded)
	assert.Equal(t, 10, b.Summary.Count)
	assert.FileExists(t, b.Chart)

	entries, err := c.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.KindBatch, entries[0].Kind)
	assert.Equal(t, 10, entries[0].Count)

	_, err = c.Generate(ctx, 0)
	assert.ErrorIs(t, err, track.ErrInvalidInput)
}

func TestTimeline_ClampsCount(t *testing.T) {
	c := newTestContext(t, false)

	b, err := c.Timeline(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, c.Config.Generation.TimelineMin, b.Report.Requested)
	assert.FileExists(t, b.Chart)

	b, err = c.Timeline(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, c.Config.Generation.TimelineMax, b.Report.Requested)
}

func TestWave(t *testing.T) {
	c := newTestContext(t, false)
	res, err := c.Wave(context.Background())
	require.NoError(t, err)

	assert.Equal(t, res.Prediction.Score, res.Wave.Prediction)
	assert.GreaterOrEqual(t, res.Wave.Harmonics, 1)
	info, err := os.Stat(res.Chart)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestHits(t *testing.T) {
	c := newTestContext(t, false)
	rep, chart, err := c.Hits(50)
	require.NoError(t, err)
	assert.Positive(t, rep.TotalHits)
	assert.FileExists(t, chart)

	rep, chart, err = c.Hits(100)
	require.NoError(t, err)
	assert.Zero(t, rep.TotalHits)
	assert.Empty(t, chart)
}

func TestRecent_HistoryDisabled(t *testing.T) {
	c := newTestContext(t, false)
	_, err := c.Recent(context.Background(), 5)
	assert.Error(t, err)
}

func TestInputField(t *testing.T) {
	f, ok := LookupField("key")
	require.True(t, ok)
	assert.Equal(t, "Key (0-11):", f.PromptText())
	assert.Equal(t, track.IntValue(3), f.Value(3))

	f, _ = LookupField("loudness")
	assert.Equal(t, "Loudness (dB) (-60 to 5):", f.PromptText())
	assert.NoError(t, f.Check(5))
	assert.Error(t, f.Check(5.01))

	_, ok = LookupField("tempo")
	assert.False(t, ok)
}

func TestAlignOptions(t *testing.T) {
	opts := AlignOptions(config.DefaultConfig().Features)
	assert.Equal(t, align.DefaultOptions(), opts)
}

type failingModel struct{}

func (failingModel) Predict(mat.Matrix) ([]float64, error) {
	return nil, errors.New("model offline")
}

func TestGenerate_EmptyBatchKeepsReport(t *testing.T) {
	c := newTestContext(t, true)
	svc, err := predict.NewService(c.Bundle.Preprocessor, failingModel{})
	require.NoError(t, err)
	c.Predictor = svc
	ctx := context.Background()

	b, err := c.Generate(ctx, 6)
	require.ErrorIs(t, err, track.ErrEmptyGeneration)
	require.NotNil(t, b)
	assert.Equal(t, 6, b.Report.Requested)
	assert.Equal(t, 6, b.Report.Failed)
	assert.Len(t, b.Report.Failures, 6)

	entries, err := c.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, entries, "an empty batch is not recorded")
}
