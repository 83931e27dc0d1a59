// Package predict turns aligned track records into clamped popularity
// scores and tiers.
package predict

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/pipeline"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Tier is the coarse popularity band of a score.
type Tier string

const (
	TierHit     Tier = "hit"
	TierGood    Tier = "good"
	TierAverage Tier = "average"
	TierLow     Tier = "low"
)

// Tier thresholds, inclusive lower bounds.
const (
	HitThreshold     = 80.0
	GoodThreshold    = 60.0
	AverageThreshold = 40.0
)

// Model is the regressor half of the facade.
type Model interface {
	Predict(X mat.Matrix) ([]float64, error)
}

// Prediction is one scored record.
type Prediction struct {
	Raw   float64 // model output before clamping
	Score float64
	Tier  Tier
}

func (p Prediction) String() string {
	return fmt.Sprintf("%.1f (%s)", p.Score, p.Tier)
}

// Outcome is a per-record batch result; exactly one of Err and Prediction
// is meaningful.
type Outcome struct {
	Prediction Prediction
	Err        error
}

// Service chains the preprocessing transform and the model.
type Service struct {
	transform pipeline.Transformer
	model     Model
}

// NewService returns a prediction facade.
func NewService(t pipeline.Transformer, m Model) (*Service, error) {
	if t == nil || m == nil {
		return nil, errors.New("predict: transformer and model are required")
	}
	return &Service{transform: t, model: m}, nil
}

// Clamp bounds a raw model output to [0, 100]. NaN maps to 0.
func Clamp(raw float64) float64 {
	if math.IsNaN(raw) {
		return MinScore
	}
	return math.Max(MinScore, math.Min(MaxScore, raw))
}

// TierOf maps a clamped score to its tier.
func TierOf(score float64) Tier {
	switch {
	case score >= HitThreshold:
		return TierHit
	case score >= GoodThreshold:
		return TierGood
	case score >= AverageThreshold:
		return TierAverage
	default:
		return TierLow
	}
}

func newPrediction(raw float64) Prediction {
	s := Clamp(raw)
	return Prediction{Raw: raw, Score: s, Tier: TierOf(s)}
}

// Predict scores one aligned record.
func (s *Service) Predict(ctx context.Context, r track.Record) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	X, err := s.transform.Transform([]track.Record{r})
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: transform: %w", err)
	}
	y, err := s.model.Predict(X)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: model: %w", err)
	}
	if len(y) != 1 {
		return Prediction{}, fmt.Errorf("predict: model returned %d values for 1 row", len(y))
	}
	return newPrediction(y[0]), nil
}

// PredictBatch scores every record. Records the transform rejects get a
// per-item error; the remaining rows go through the model in one call.
func (s *Service) PredictBatch(ctx context.Context, rs []track.Record) ([]Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Outcome, len(rs))
	var (
		rows  []*mat.Dense
		index []int
	)
	for i, r := range rs {
		X, err := s.transform.Transform([]track.Record{r})
		if err != nil {
			out[i].Err = fmt.Errorf("predict: transform: %w", err)
			continue
		}
		rows = append(rows, X)
		index = append(index, i)
	}
	if len(rows) == 0 {
		return out, nil
	}

	_, c := rows[0].Dims()
	X := mat.NewDense(len(rows), c, nil)
	for k, row := range rows {
		X.SetRow(k, row.RawRowView(0))
	}
	y, err := s.model.Predict(X)
	if err != nil {
		return nil, fmt.Errorf("predict: model: %w", err)
	}
	if len(y) != len(rows) {
		return nil, fmt.Errorf("predict: model returned %d values for %d rows", len(y), len(rows))
	}
	for k, i := range index {
		out[i].Prediction = newPrediction(y[k])
	}
	return out, nil
}
