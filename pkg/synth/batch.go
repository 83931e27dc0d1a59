package synth

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/predict"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// Predictor scores one aligned record.
type Predictor interface {
	Predict(ctx context.Context, r track.Record) (predict.Prediction, error)
}

// Result is the outcome of one draw. Err is set when generation or
// prediction failed for that draw.
type Result struct {
	Index      int
	Track      track.Record
	Prediction predict.Prediction
	Err        error
}

// OK reports whether the draw succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Report summarizes a batch.
type Report struct {
	Requested int
	Succeeded int
	Failed    int
	Results   []Result // successful draws in draw order
	Failures  []Result
}

// Scores returns the clamped score of every successful draw.
func (r Report) Scores() []float64 {
	out := make([]float64, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Prediction.Score
	}
	return out
}

// Batch draws n tracks and predicts each one. A failing draw is recorded in
// the report and skipped; the batch only fails as a whole when n is out of
// range, the context is cancelled or no draw succeeded. Draw i uses its own
// source seeded from the generator seed, the draws consumed so far and i.
func (g *Generator) Batch(ctx context.Context, n int, p Predictor) (Report, error) {
	if n < 1 || n > g.maxBatch {
		return Report{}, fmt.Errorf("synth: batch size %d outside [1,%d]: %w", n, g.maxBatch, track.ErrInvalidInput)
	}

	g.mu.Lock()
	base := g.seed + g.offset
	g.offset += int64(n)
	g.mu.Unlock()

	results := make([]Result, n)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			results[i] = g.draw(egCtx, i, base+int64(i), p)
			return nil
		})
	}
	_ = eg.Wait()

	rep := Report{Requested: n}
	for _, res := range results {
		if res.OK() {
			rep.Results = append(rep.Results, res)
			continue
		}
		rep.Failures = append(rep.Failures, res)
		g.logger.Debug("draw failed", zap.Int("index", res.Index), zap.Error(res.Err))
	}
	rep.Succeeded, rep.Failed = len(rep.Results), len(rep.Failures)
	g.logger.Info("batch complete",
		zap.Int("requested", n),
		zap.Int("succeeded", rep.Succeeded),
		zap.Int("failed", rep.Failed))

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	if rep.Succeeded == 0 {
		return rep, fmt.Errorf("synth: %d draws failed: %w", n, track.ErrEmptyGeneration)
	}
	return rep, nil
}

func (g *Generator) draw(ctx context.Context, i int, seed int64, p Predictor) Result {
	res := Result{Index: i}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	rec, err := g.GenerateWith(rand.New(rand.NewSource(seed)))
	if err != nil {
		res.Err = err
		return res
	}
	res.Track = rec
	pred, err := p.Predict(ctx, rec)
	if err != nil {
		res.Err = fmt.Errorf("draw %d: %w", i, err)
		return res
	}
	res.Prediction = pred
	return res
}
