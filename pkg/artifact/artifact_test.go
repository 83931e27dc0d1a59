package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/model"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/pipeline"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

const csv = `energy,key,tempo_cat,popularity
0.2,1,slow,20
0.6,3,fast,70
0.9,5,fast,90
`

func writeArtifacts(t *testing.T) Paths {
	t.Helper()
	dir := t.TempDir()
	p := Paths{
		Dataset:      filepath.Join(dir, "tracks.csv"),
		Preprocessor: filepath.Join(dir, "models", "pre.gob"),
		Model:        filepath.Join(dir, "models", "model.gob"),
		Catalog:      filepath.Join(dir, "models", "features.yaml"),
		Metrics:      filepath.Join(dir, "models", "metrics.yaml"),
	}
	require.NoError(t, os.WriteFile(p.Dataset, []byte(csv), 0o644))

	cat := track.Catalog{"energy", "key", "tempo_cat", "release_age"}
	records := []track.Record{
		track.NewRecord(
			track.Field{Name: "energy", Value: track.FloatValue(0.2)},
			track.Field{Name: "key", Value: track.IntValue(1)},
			track.Field{Name: "tempo_cat", Value: track.CategoryValue("slow")},
			track.Field{Name: "release_age", Value: track.IntValue(3)},
		),
	}
	pre, err := pipeline.Fit(records, cat)
	require.NoError(t, err)
	require.NoError(t, SavePreprocessor(p.Preprocessor, pre))

	rf := model.NewRandomForestRegressor(model.WithNEstimators(2), model.WithRandomState(1))
	require.NoError(t, rf.Fit(mat.NewDense(2, 1, []float64{0, 1}), []float64{10, 90}))
	require.NoError(t, SaveModel(p.Model, rf))
	require.NoError(t, SaveCatalog(p.Catalog, cat))
	return p
}

func TestLoad_RoundTrip(t *testing.T) {
	p := writeArtifacts(t)

	b, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Dataset.Len())
	assert.Equal(t, track.Catalog{"energy", "key", "tempo_cat", "release_age"}, b.Catalog)
	assert.Equal(t, 4, b.Preprocessor.Width())
	assert.Len(t, b.Model.Trees, 2)
	assert.Equal(t, []string{"release_age"}, b.MissingColumns)
	assert.Contains(t, b.MissingHint(), "regenerate")

	pred, err := b.Model.Predict(mat.NewDense(1, 1, []float64{1}))
	require.NoError(t, err)
	assert.Len(t, pred, 1)
}

func TestLoad_MissingArtifactCarriesHint(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Paths)
		what   string
		hint   string
	}{
		{"dataset", func(p *Paths) { p.Dataset += ".nope" }, "dataset", "dataset CSV"},
		{"preprocessor", func(p *Paths) { p.Preprocessor += ".nope" }, "preprocessor", "trackpop train"},
		{"model", func(p *Paths) { p.Model += ".nope" }, "model", "trackpop train"},
		{"catalog", func(p *Paths) { p.Catalog += ".nope" }, "feature catalog", "trackpop train"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeArtifacts(t)
			tt.mutate(&p)

			_, err := Load(p)
			require.ErrorIs(t, err, track.ErrMissingArtifact)
			var ae *track.ArtifactError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.what, ae.Name)
			assert.Contains(t, Hint(err), tt.hint)
		})
	}
}

func TestLoadModel_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, os.WriteFile(path, []byte("not a gob"), 0o644))

	_, err := LoadModel(path)
	var ae *track.ArtifactError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Error(), "decode")
}

func TestLoadCatalog_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- energy\n- energy\n"), 0o644))

	_, err := LoadCatalog(path)
	assert.ErrorContains(t, err, "duplicate")
}

func TestSaveMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "metrics.yaml")
	require.NoError(t, SaveMetrics(path, model.Metrics{RMSE: 1.5}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "rmse: 1.5")
	assert.Empty(t, Hint(assert.AnError))
}
