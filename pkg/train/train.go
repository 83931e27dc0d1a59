// Package train fits the preprocessing pipeline and the popularity model
// from the dataset and writes the artifacts the predictor loads.
package train

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/align"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/artifact"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/config"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/data"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/dataprep"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/loader"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/model"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/pipeline"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// Report describes a training run.
type Report struct {
	Rows      int            `yaml:"rows"`
	Train     int            `yaml:"train"`
	Test      int            `yaml:"test"`
	Skipped   int            `yaml:"skipped_test_rows"` // unseen categories
	Catalog   track.Catalog  `yaml:"catalog"`
	Dropped   []string       `yaml:"dropped_features,omitempty"`
	Forest    model.Metrics  `yaml:"forest"`
	Baseline  *model.Metrics `yaml:"baseline,omitempty"`
	CVRMSE    []float64      `yaml:"cv_rmse,omitempty"`
	Features  int            `yaml:"encoded_features"`
	TreeDepth int            `yaml:"max_tree_depth"`
}

// Result holds the fitted components alongside the report.
type Result struct {
	Report       Report
	Preprocessor *pipeline.ColumnTransformer
	Model        *model.RandomForestRegressor
	Baseline     *model.LinearRegression
}

// Trainer fits models from a dataset.
type Trainer struct {
	cfg    config.TrainingConfig
	engine *align.Engine
	logger *zap.Logger
}

// New returns a trainer. The engine must be built from ds's statistics.
func New(cfg config.TrainingConfig, engine *align.Engine, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{cfg: cfg, engine: engine, logger: logger}
}

// Prepare derives engineered features on every row, selects the configured
// features that exist after derivation and aligns the rows to them.
func (t *Trainer) Prepare(ds *data.Dataset) ([]track.Record, []float64, track.Catalog, []string, error) {
	if !ds.Has(t.cfg.Target) {
		return nil, nil, nil, nil, fmt.Errorf("train: target column %q not in dataset", t.cfg.Target)
	}
	if k, _ := ds.Kind(t.cfg.Target); !k.Numeric() {
		return nil, nil, nil, nil, fmt.Errorf("train: target column %q is not numeric", t.cfg.Target)
	}

	rows := ds.Rows()
	present := make(map[string]bool)
	for i := range rows {
		t.engine.Derive(&rows[i])
		for _, n := range rows[i].Names() {
			present[n] = true
		}
	}
	records, y := dataprep.SplitTarget(rows, t.cfg.Target)
	if len(records) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("train: no rows with a numeric %q", t.cfg.Target)
	}

	features := t.cfg.Features
	if len(features) == 0 {
		features = config.DefaultFeatures
	}
	var catalog track.Catalog
	var dropped []string
	for _, f := range features {
		if f == t.cfg.Target {
			continue
		}
		if present[f] {
			catalog = append(catalog, f)
		} else {
			dropped = append(dropped, f)
		}
	}
	if err := catalog.Validate(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("train: %w", err)
	}

	for i := range records {
		records[i] = t.engine.Align(records[i], catalog)
	}
	return records, y, catalog, dropped, nil
}

// Run trains on ds and returns the fitted components.
func (t *Trainer) Run(ctx context.Context, ds *data.Dataset) (*Result, error) {
	records, y, catalog, dropped, err := t.Prepare(ds)
	if err != nil {
		return nil, err
	}
	for _, d := range dropped {
		t.logger.Warn("feature unavailable, dropped from catalog", zap.String("feature", d))
	}

	rng := rand.New(rand.NewSource(t.cfg.Seed))
	trainRecs, testRecs, yTrain, yTest, err := loader.TrainTestSplit(records, y, t.cfg.TestRatio, rng)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	t.logger.Info("dataset split",
		zap.Int("rows", len(records)),
		zap.Int("train", len(trainRecs)),
		zap.Int("test", len(testRecs)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pre, forest, err := t.fit(trainRecs, yTrain, catalog)
	if err != nil {
		return nil, err
	}

	Xte, yTe, skipped := transformEach(pre, testRecs, yTest)
	if skipped > 0 {
		t.logger.Warn("test rows skipped", zap.Int("count", skipped), zap.Error(track.ErrUnseenCategory))
	}
	rep := Report{
		Rows:      len(records),
		Train:     len(trainRecs),
		Test:      len(testRecs),
		Skipped:   skipped,
		Catalog:   catalog,
		Dropped:   dropped,
		Features:  pre.Width(),
		TreeDepth: maxDepth(forest),
	}
	if Xte != nil {
		pred, err := forest.Predict(Xte)
		if err != nil {
			return nil, fmt.Errorf("train: evaluate forest: %w", err)
		}
		rep.Forest = model.Evaluate(yTe, pred)
		t.logger.Info("forest evaluated", zap.Stringer("metrics", rep.Forest))
	}

	res := &Result{Preprocessor: pre, Model: forest}
	if t.cfg.BaselineEpochs > 0 {
		base, metrics, err := t.baseline(pre, trainRecs, yTrain, Xte, yTe)
		if err != nil {
			return nil, err
		}
		res.Baseline = base
		rep.Baseline = metrics
	}

	if t.cfg.Folds > 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rep.CVRMSE, err = t.crossValidate(trainRecs, yTrain, catalog, rng)
		if err != nil {
			return nil, err
		}
	}

	res.Report = rep
	return res, nil
}

func (t *Trainer) forest() *model.RandomForestRegressor {
	return model.NewRandomForestRegressor(
		model.WithNEstimators(t.cfg.Trees),
		model.WithMaxDepth(t.cfg.MaxDepth),
		model.WithMinSamplesSplit(t.cfg.MinSamplesSplit),
		model.WithMinSamplesLeaf(t.cfg.MinSamplesLeaf),
		model.WithMaxFeatures(t.cfg.MaxFeatures),
		model.WithRandomState(t.cfg.Seed),
	)
}

func (t *Trainer) fit(records []track.Record, y []float64, catalog track.Catalog) (*pipeline.ColumnTransformer, *model.RandomForestRegressor, error) {
	pre, err := pipeline.Fit(records, catalog)
	if err != nil {
		return nil, nil, fmt.Errorf("train: fit preprocessor: %w", err)
	}
	X, err := pre.Transform(records)
	if err != nil {
		return nil, nil, fmt.Errorf("train: transform: %w", err)
	}
	forest := t.forest()
	if err := forest.Fit(X, y); err != nil {
		return nil, nil, fmt.Errorf("train: fit forest: %w", err)
	}
	return pre, forest, nil
}

func (t *Trainer) baseline(pre *pipeline.ColumnTransformer, records []track.Record, y []float64, Xte *mat.Dense, yTe []float64) (*model.LinearRegression, *model.Metrics, error) {
	X, err := pre.Transform(records)
	if err != nil {
		return nil, nil, fmt.Errorf("train: transform: %w", err)
	}
	lin := model.NewLinearRegression(t.cfg.BaselineLR, t.cfg.BaselineEpochs, t.cfg.BaselineBatchSize, t.cfg.Seed)
	if err := lin.Fit(X, y); err != nil {
		return nil, nil, fmt.Errorf("train: fit baseline: %w", err)
	}
	if Xte == nil {
		return lin, nil, nil
	}
	pred, err := lin.Predict(Xte)
	if err != nil {
		return nil, nil, fmt.Errorf("train: evaluate baseline: %w", err)
	}
	m := model.Evaluate(yTe, pred)
	t.logger.Info("baseline evaluated", zap.Stringer("metrics", m))
	return lin, &m, nil
}

// crossValidate refits pipeline and forest on k-1 folds and scores the
// held-out fold.
func (t *Trainer) crossValidate(records []track.Record, y []float64, catalog track.Catalog, rng *rand.Rand) ([]float64, error) {
	folds := loader.KFoldSplit(len(records), t.cfg.Folds, rng)
	if folds == nil {
		return nil, errors.New("train: not enough rows for cross-validation")
	}
	scores := make([]float64, 0, len(folds))
	for k, hold := range folds {
		var rest []int
		for j, f := range folds {
			if j != k {
				rest = append(rest, f...)
			}
		}
		pre, forest, err := t.fit(loader.Gather(records, rest), loader.Gather(y, rest), catalog)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", k, err)
		}
		X, yh, _ := transformEach(pre, loader.Gather(records, hold), loader.Gather(y, hold))
		if X == nil {
			continue
		}
		pred, err := forest.Predict(X)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", k, err)
		}
		scores = append(scores, model.RMSE(yh, pred))
		t.logger.Debug("fold scored", zap.Int("fold", k), zap.Float64("rmse", scores[len(scores)-1]))
	}
	return scores, nil
}

// transformEach transforms records one at a time so a row with an unseen
// category is skipped instead of failing the whole set.
func transformEach(pre *pipeline.ColumnTransformer, records []track.Record, y []float64) (*mat.Dense, []float64, int) {
	var rows [][]float64
	var kept []float64
	for i, r := range records {
		X, err := pre.Transform([]track.Record{r})
		if err != nil {
			continue
		}
		rows = append(rows, X.RawRowView(0))
		kept = append(kept, y[i])
	}
	skipped := len(records) - len(rows)
	if len(rows) == 0 {
		return nil, nil, skipped
	}
	out := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		out.SetRow(i, row)
	}
	return out, kept, skipped
}

func maxDepth(f *model.RandomForestRegressor) int {
	d := 0
	for _, tr := range f.Trees {
		d = max(d, tr.Depth())
	}
	return d
}

// Save writes the preprocessor, model, catalog and report.
func Save(paths artifact.Paths, res *Result) error {
	if err := artifact.SavePreprocessor(paths.Preprocessor, res.Preprocessor); err != nil {
		return fmt.Errorf("train: save preprocessor: %w", err)
	}
	if err := artifact.SaveModel(paths.Model, res.Model); err != nil {
		return fmt.Errorf("train: save model: %w", err)
	}
	if err := artifact.SaveCatalog(paths.Catalog, res.Report.Catalog); err != nil {
		return fmt.Errorf("train: save catalog: %w", err)
	}
	if paths.Metrics != "" {
		if err := artifact.SaveMetrics(paths.Metrics, res.Report); err != nil {
			return fmt.Errorf("train: save metrics: %w", err)
		}
	}
	return nil
}
