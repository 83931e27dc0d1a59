package train

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/align"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/artifact"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/config"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/data"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/predict"
)

// tracksCSV builds n rows where popularity grows with energy.
func tracksCSV(n int) string {
	rnd := rand.New(rand.NewSource(5))
	var b strings.Builder
	b.WriteString("danceability,energy,tempo,key,popularity\n")
	for _i := 0; _i < n; _i++ {
		e := rnd.Float64()
		fmt.Fprintf(&b, "%.3f,%.3f,%.1f,%d,%d\n",
			rnd.Float64(), e, 60+rnd.Float64()*140, rnd.Intn(12), int(e*90)+5)
	}
	return b.String()
}

func dataset(t *testing.T, n int) *data.Dataset {
	t.Helper()
	ds, err := data.ReadCSV(strings.NewReader(tracksCSV(n)))
	require.NoError(t, err)
	return ds
}

func trainingConfig() config.TrainingConfig {
	cfg := config.DefaultConfig().Training
	cfg.Features = []string{"danceability", "energy", "tempo", "key", "dance_energy_product", "tempo_cat", "artist_followers", "popularity"}
	cfg.Trees = 10
	cfg.BaselineEpochs = 20
	cfg.Folds = 3
	return cfg
}

func TestPrepare(t *testing.T) {
	ds := dataset(t, 40)
	tr := New(trainingConfig(), align.NewEngine(ds.Stats(), align.DefaultOptions()), nil)

	records, y, catalog, dropped, err := tr.Prepare(ds)
	require.NoError(t, err)
	assert.Len(t, records, 40)
	assert.Len(t, y, 40)
	assert.Equal(t, []string{"danceability", "energy", "tempo", "key", "dance_energy_product", "tempo_cat"}, []string(catalog))
	assert.Equal(t, []string{"artist_followers"}, dropped)
	for _, r := range records {
		assert.Equal(t, []string(catalog), r.Names())
	}
}

func TestPrepare_TargetChecks(t *testing.T) {
	ds := dataset(t, 10)
	cfg := trainingConfig()
	cfg.Target = "plays"
	_, _, _, _, err := New(cfg, align.NewEngine(ds.Stats(), align.DefaultOptions()), nil).Prepare(ds)
	assert.ErrorContains(t, err, "plays")

	cfg = trainingConfig()
	cfg.Features = []string{"artist_followers"}
	_, _, _, _, err = New(cfg, align.NewEngine(ds.Stats(), align.DefaultOptions()), nil).Prepare(ds)
	assert.Error(t, err, "an empty catalog is rejected")
}

func TestRun_SaveAndPredict(t *testing.T) {
	ds := dataset(t, 120)
	engine := align.NewEngine(ds.Stats(), align.DefaultOptions())
	res, err := New(trainingConfig(), engine, nil).Run(context.Background(), ds)
	require.NoError(t, err)

	rep := res.Report
	assert.Equal(t, 120, rep.Rows)
	assert.Equal(t, 96, rep.Train)
	assert.Equal(t, 24, rep.Test)
	assert.Greater(t, rep.Forest.R2, 0.5)
	require.NotNil(t, rep.Baseline)
	assert.Len(t, rep.CVRMSE, 3)
	assert.Equal(t, res.Preprocessor.Width(), rep.Features)
	assert.Positive(t, rep.TreeDepth)

	dir := t.TempDir()
	paths := artifact.Paths{
		Dataset:      filepath.Join(dir, "tracks.csv"),
		Preprocessor: filepath.Join(dir, "pre.gob"),
		Model:        filepath.Join(dir, "model.gob"),
		Catalog:      filepath.Join(dir, "features.yaml"),
		Metrics:      filepath.Join(dir, "metrics.yaml"),
	}
	require.NoError(t, ds.WriteCSV(paths.Dataset))
	require.NoError(t, Save(paths, res))

	b, err := artifact.Load(paths)
	require.NoError(t, err)
	assert.Equal(t, rep.Catalog, b.Catalog)

	svc, err := predict.NewService(b.Preprocessor, b.Model)
	require.NoError(t, err)
	aligned := engine.Align(ds.Row(0), b.Catalog)
	p, err := svc.Predict(context.Background(), aligned)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p.Score, 0.0)
	assert.LessOrEqual(t, p.Score, 100.0)
}

func TestRun_Cancelled(t *testing.T) {
	ds := dataset(t, 30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(trainingConfig(), align.NewEngine(ds.Stats(), align.DefaultOptions()), nil).Run(ctx, ds)
	assert.ErrorIs(t, err, context.Canceled)
}
