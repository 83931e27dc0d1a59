// Package pipeline turns aligned track records into the numeric feature
// matrix a model consumes: numeric columns are standardized and categorical
// columns one-hot encoded.
package pipeline

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/dataprep"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/stats"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// Transformer converts a batch of records into a feature matrix.
type Transformer interface {
	Transform(records []track.Record) (*mat.Dense, error)
}

// ColumnTransformer is the fitted preprocessing step. Its fields are
// exported for gob persistence.
type ColumnTransformer struct {
	Schema      Schema
	Numeric     []int // schema positions of numeric columns
	Categorical []int // schema positions of categorical columns
	Scaler      *stats.StandardScaler
	Encoders    []*dataprep.OneHotEncoder // parallel to Categorical
}

// Fit learns scaling and encoding from aligned training records.
func Fit(records []track.Record, catalog track.Catalog) (*ColumnTransformer, error) {
	if len(records) == 0 {
		return nil, errors.New("pipeline: no records to fit")
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	schema, err := InferSchema(records, catalog)
	if err != nil {
		return nil, err
	}
	t := &ColumnTransformer{Schema: schema, Scaler: stats.NewStandardScaler()}
	for j, k := range schema.Kinds {
		if k.Numeric() {
			t.Numeric = append(t.Numeric, j)
		} else {
			t.Categorical = append(t.Categorical, j)
		}
	}

	if len(t.Numeric) > 0 {
		X := make([][]float64, len(records))
		for i, r := range records {
			row, err := t.numericRow(r, i)
			if err != nil {
				return nil, err
			}
			X[i] = row
		}
		if err := t.Scaler.Fit(X); err != nil {
			return nil, err
		}
	}

	for _, j := range t.Categorical {
		name := schema.FeatureNames[j]
		vals := make([]string, len(records))
		for i, r := range records {
			if v, ok := r.Get(name); ok {
				vals[i] = v.String()
			}
		}
		t.Encoders = append(t.Encoders, dataprep.FitOneHot(name, vals))
	}
	return t, nil
}

func (t *ColumnTransformer) numericRow(r track.Record, i int) ([]float64, error) {
	row := make([]float64, len(t.Numeric))
	for k, j := range t.Numeric {
		name := t.Schema.FeatureNames[j]
		v, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("pipeline: record %d is missing feature %q", i, name)
		}
		if !v.IsNumeric() {
			return nil, fmt.Errorf("pipeline: record %d feature %q: expected a number, got %q", i, name, v.Str)
		}
		row[k] = v.Num
	}
	return row, nil
}

// Width is the number of output columns.
func (t *ColumnTransformer) Width() int {
	w := len(t.Numeric)
	for _, e := range t.Encoders {
		w += e.Width()
	}
	return w
}

// OutputNames names every output column.
func (t *ColumnTransformer) OutputNames() []string {
	out := make([]string, 0, t.Width())
	for _, j := range t.Numeric {
		out = append(out, t.Schema.FeatureNames[j])
	}
	for _, e := range t.Encoders {
		out = append(out, e.FeatureNames()...)
	}
	return out
}

// Catalog returns the feature catalog the transformer was fitted on.
func (t *ColumnTransformer) Catalog() track.Catalog { return t.Schema.Catalog() }

// Transform encodes records into a len(records) x Width matrix. A
// categorical value unseen during Fit yields a track.UnseenCategoryError.
func (t *ColumnTransformer) Transform(records []track.Record) (*mat.Dense, error) {
	if len(records) == 0 {
		return nil, errors.New("pipeline: no records to transform")
	}
	w := t.Width()
	if w == 0 {
		return nil, errors.New("pipeline: transformer produces no columns")
	}
	out := mat.NewDense(len(records), w, nil)
	buf := make([]float64, w)
	for i, r := range records {
		row, err := t.numericRow(r, i)
		if err != nil {
			return nil, err
		}
		t.Scaler.TransformRow(row, buf[:len(row)])
		off := len(row)
		for k, j := range t.Categorical {
			name := t.Schema.FeatureNames[j]
			v, ok := r.Get(name)
			if !ok {
				return nil, fmt.Errorf("pipeline: record %d is missing feature %q", i, name)
			}
			enc := t.Encoders[k]
			if err := enc.Encode(v.String(), buf[off:off+enc.Width()]); err != nil {
				return nil, fmt.Errorf("pipeline: record %d: %w", i, err)
			}
			off += enc.Width()
		}
		out.SetRow(i, buf)
	}
	return out, nil
}
