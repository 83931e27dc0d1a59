// Package app wires the loaded artifacts into the operations the CLI and
// the interactive menu expose.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/align"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/artifact"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/config"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/history"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/insight"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/predict"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/synth"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/viz"
)

// Context holds everything loaded once at startup. Its components are
// read-only after Build; only the template source is guarded.
type Context struct {
	Config    *config.Config
	Logger    *zap.Logger
	Bundle    *artifact.Bundle
	Engine    *align.Engine
	Predictor *predict.Service
	Generator *synth.Generator
	History   *history.Store // nil when history is disabled

	mu  sync.Mutex
	rng *rand.Rand
}

// templateSalt keeps template sampling apart from the generator's draws when
// a fixed seed is configured.
const templateSalt = 0x2545F491

// AlignOptions maps the feature config onto the derivation rule options.
func AlignOptions(f config.FeaturesConfig) align.Options {
	return align.Options{
		ReferenceYear:      f.ReferenceYear,
		RareLabelThreshold: f.RareLabelThreshold,
		TempoPerEnergy:     f.TempoPerEnergy,
		DefaultTempo:       f.DefaultTempo,
	}
}

// Build loads the artifacts and assembles the context.
func Build(cfg *config.Config, logger *zap.Logger) (*Context, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bundle, err := artifact.Load(cfg.Artifacts)
	if err != nil {
		return nil, err
	}
	if len(bundle.MissingColumns) > 0 {
		logger.Warn("catalog columns missing from dataset, they will be zero-filled",
			zap.Strings("columns", bundle.MissingColumns),
			zap.String("hint", bundle.MissingHint()))
	}
	return New(cfg, logger, bundle, nil)
}

// New assembles a context from an already loaded bundle. store may be nil.
func New(cfg *config.Config, logger *zap.Logger, bundle *artifact.Bundle, store *history.Store) (*Context, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := align.NewEngine(bundle.Dataset.Stats(), AlignOptions(cfg.Features))
	svc, err := predict.NewService(bundle.Preprocessor, bundle.Model)
	if err != nil {
		return nil, err
	}
	gen, err := synth.New(bundle.Dataset, engine, bundle.Catalog,
		synth.WithSeed(cfg.Generation.Seed),
		synth.WithWorkers(cfg.Generation.Workers),
		synth.WithMaxBatch(cfg.Generation.MaxBatch),
		synth.WithLogger(logger.Named("synth")),
	)
	if err != nil {
		return nil, err
	}

	if store == nil && cfg.History.Enabled {
		store, err = history.NewStore(cfg.History.DBPath, logger.Named("history"))
		if err != nil {
			// history is optional
			logger.Warn("history disabled", zap.Error(err))
			store = nil
		}
	}

	return &Context{
		Config:    cfg,
		Logger:    logger,
		Bundle:    bundle,
		Engine:    engine,
		Predictor: svc,
		Generator: gen,
		History:   store,
		rng:       rand.New(rand.NewSource(synth.ResolveSeed(cfg.Generation.Seed) ^ templateSalt)),
	}, nil
}

// Close releases the history store.
func (c *Context) Close() error {
	if c.History != nil {
		return c.History.Close()
	}
	return nil
}

func (c *Context) chartPath(name string) string {
	return filepath.Join(c.Config.Output.Dir, name)
}

// Template returns a random dataset row restricted to the catalog.
func (c *Context) Template() (track.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, err := c.Bundle.Dataset.Sample(c.rng)
	if err != nil {
		return track.Record{}, err
	}
	return row.Project(c.Bundle.Catalog), nil
}

// BuildInput applies user values on a template and aligns the result.
// Derived fields depending on a user value are recomputed.
func (c *Context) BuildInput(template track.Record, inputs map[string]float64) (track.Record, error) {
	r := template.Clone()
	changed := make([]string, 0, len(inputs))
	for _, f := range InputFields {
		v, ok := inputs[f.Name]
		if !ok {
			continue
		}
		if err := f.Check(v); err != nil {
			return track.Record{}, err
		}
		r.Set(f.Name, f.Value(v))
		changed = append(changed, f.Name)
	}
	for name := range inputs {
		if _, ok := LookupField(name); !ok {
			return track.Record{}, fmt.Errorf("unknown input %q: %w", name, track.ErrInvalidInput)
		}
	}
	c.Engine.Invalidate(&r, changed...)
	return c.Engine.Align(r, c.Bundle.Catalog), nil
}

// PredictInputs predicts the popularity of a track described by the user's
// values, filling the rest from a sampled dataset row.
func (c *Context) PredictInputs(ctx context.Context, inputs map[string]float64) (track.Record, predict.Prediction, error) {
	tmpl, err := c.Template()
	if err != nil {
		return track.Record{}, predict.Prediction{}, err
	}
	rec, err := c.BuildInput(tmpl, inputs)
	if err != nil {
		return track.Record{}, predict.Prediction{}, err
	}
	p, err := c.Predictor.Predict(ctx, rec)
	if err != nil {
		return rec, predict.Prediction{}, err
	}
	c.Logger.Debug("prediction", zap.Float64("score", p.Score), zap.String("tier", string(p.Tier)))
	if c.History != nil {
		if _, err := c.History.RecordPrediction(ctx, rec, p); err != nil {
			c.Logger.Warn("history write failed", zap.Error(err))
		}
	}
	return rec, p, nil
}

// AvailableInputs returns the input fields present in the catalog.
func (c *Context) AvailableInputs() []InputField {
	var out []InputField
	for _, f := range InputFields {
		if c.Bundle.Catalog.Contains(f.Name) {
			out = append(out, f)
		}
	}
	return out
}

// Batch is a generated batch together with its statistics and chart.
type Batch struct {
	Report  synth.Report
	Summary insight.Summary
	Chart   string
}

func (c *Context) hitThreshold() float64 { return float64(c.Config.Generation.HitThreshold) }

// Generate draws n tracks, summarizes them and renders a histogram.
func (c *Context) Generate(ctx context.Context, n int) (*Batch, error) {
	rep, err := c.Generator.Batch(ctx, n, c.Predictor)
	if err != nil {
		return &Batch{Report: rep}, err
	}
	b := &Batch{Report: rep, Summary: insight.Summarize(rep.Scores(), c.hitThreshold())}
	if c.History != nil {
		if _, err := c.History.RecordBatch(ctx, b.Summary, rep.Failed); err != nil {
			c.Logger.Warn("history write failed", zap.Error(err))
		}
	}
	b.Chart = c.chartPath("generated_histogram.png")
	if err := viz.Histogram(rep.Scores(), c.hitThreshold(), b.Chart); err != nil {
		return b, err
	}
	return b, nil
}

// Timeline draws n tracks and renders them in draw order. n is clamped to
// the configured timeline bounds.
func (c *Context) Timeline(ctx context.Context, n int) (*Batch, error) {
	g := c.Config.Generation
	n = max(g.TimelineMin, min(g.TimelineMax, n))
	rep, err := c.Generator.Batch(ctx, n, c.Predictor)
	if err != nil {
		return &Batch{Report: rep}, err
	}
	b := &Batch{Report: rep, Summary: insight.Summarize(rep.Scores(), c.hitThreshold())}
	b.Chart = c.chartPath("prediction_timeline.png")
	if err := viz.Timeline(rep.Scores(), c.hitThreshold(), b.Chart); err != nil {
		return b, err
	}
	return b, nil
}

// WaveResult is a single generated track rendered as a sound wave.
type WaveResult struct {
	Track      track.Record
	Prediction predict.Prediction
	Wave       viz.Wave
	Loudness   float64
	Chart      string
}

func numOr(r track.Record, name string, def float64) float64 {
	if v, ok := r.Num(name); ok {
		return v
	}
	return def
}

// Wave generates one track and renders the wave its prediction shapes.
func (c *Context) Wave(ctx context.Context) (*WaveResult, error) {
	rec, err := c.Generator.Generate()
	if err != nil {
		return nil, err
	}
	p, err := c.Predictor.Predict(ctx, rec)
	if err != nil {
		return nil, err
	}
	energy := numOr(rec, "energy", 0.5)
	dance := numOr(rec, "danceability", 0.5)
	res := &WaveResult{
		Track:      rec,
		Prediction: p,
		Wave:       viz.NewWave(p.Score, energy, dance),
		Loudness:   numOr(rec, "loudness", -10),
		Chart:      c.chartPath("sound_wave.png"),
	}
	caption := fmt.Sprintf("Energy %.2f | Danceability %.2f | Loudness %.1f dB", energy, dance, res.Loudness)
	if err := viz.SoundWave(res.Wave, caption, res.Chart); err != nil {
		return res, err
	}
	return res, nil
}

// Hits ranks countries by hits and renders the bar chart when there are any.
func (c *Context) Hits(threshold int) (insight.HitReport, string, error) {
	return HitCountries(c.Bundle.Dataset, threshold, c.Config.Output.Dir)
}

// Recent lists the latest history entries.
func (c *Context) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	if c.History == nil {
		return nil, errors.New("history is disabled")
	}
	return c.History.Recent(ctx, limit)
}
