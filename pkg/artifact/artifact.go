// Package artifact persists and loads the files the predictor runs on: the
// dataset, the fitted preprocessor, the model and the feature catalog.
package artifact

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/data"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/model"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/pipeline"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

const (
	hintDataset = "place the dataset CSV there or set artifacts.dataset in the config"
	hintTrain   = "run `trackpop train` to fit and save it"
	hintRegen   = "run `trackpop regenerate` if the dataset lacks engineered columns"
)

// Paths locates every artifact.
type Paths struct {
	Dataset      string `yaml:"dataset"`
	Preprocessor string `yaml:"preprocessor"`
	Model        string `yaml:"model"`
	Catalog      string `yaml:"catalog"`
	Metrics      string `yaml:"metrics"`
}

// Bundle is everything prediction needs, loaded once.
type Bundle struct {
	Dataset      *data.Dataset
	Preprocessor *pipeline.ColumnTransformer
	Model        *model.RandomForestRegressor
	Catalog      track.Catalog
	// MissingColumns lists catalog features absent from the dataset; they
	// are zero-filled at alignment.
	MissingColumns []string
}

// Load reads every artifact. The first missing one is returned as an
// *track.ArtifactError carrying a remediation hint.
func Load(p Paths) (*Bundle, error) {
	ds, err := LoadDataset(p.Dataset)
	if err != nil {
		return nil, err
	}
	pre, err := LoadPreprocessor(p.Preprocessor)
	if err != nil {
		return nil, err
	}
	m, err := LoadModel(p.Model)
	if err != nil {
		return nil, err
	}
	cat, err := LoadCatalog(p.Catalog)
	if err != nil {
		return nil, err
	}
	return &Bundle{
		Dataset:        ds,
		Preprocessor:   pre,
		Model:          m,
		Catalog:        cat,
		MissingColumns: cat.Missing(ds.Names()),
	}, nil
}

func LoadDataset(path string) (*data.Dataset, error) {
	if err := exists("dataset", path, hintDataset); err != nil {
		return nil, err
	}
	ds, err := data.LoadCSV(path)
	if err != nil {
		return nil, &track.ArtifactError{Name: "dataset", Path: path, Hint: hintDataset, Err: err}
	}
	return ds, nil
}

func LoadPreprocessor(path string) (*pipeline.ColumnTransformer, error) {
	var t pipeline.ColumnTransformer
	if err := loadGob("preprocessor", path, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func LoadModel(path string) (*model.RandomForestRegressor, error) {
	var m model.RandomForestRegressor
	if err := loadGob("model", path, &m); err != nil {
		return nil, err
	}
	if len(m.Trees) == 0 {
		return nil, &track.ArtifactError{Name: "model", Path: path, Hint: hintTrain, Err: errors.New("model has no trees")}
	}
	return &m, nil
}

// LoadCatalog reads a YAML list of feature names.
func LoadCatalog(path string) (track.Catalog, error) {
	if err := exists("feature catalog", path, hintTrain); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &track.ArtifactError{Name: "feature catalog", Path: path, Hint: hintTrain, Err: err}
	}
	var cat track.Catalog
	if err := yaml.Unmarshal(b, &cat); err != nil {
		return nil, &track.ArtifactError{Name: "feature catalog", Path: path, Hint: hintTrain, Err: err}
	}
	if err := cat.Validate(); err != nil {
		return nil, &track.ArtifactError{Name: "feature catalog", Path: path, Hint: hintTrain, Err: err}
	}
	return cat, nil
}

func SavePreprocessor(path string, t *pipeline.ColumnTransformer) error {
	return saveGob(path, t)
}

func SaveModel(path string, m *model.RandomForestRegressor) error {
	return saveGob(path, m)
}

func SaveCatalog(path string, cat track.Catalog) error {
	b, err := yaml.Marshal([]string(cat))
	if err != nil {
		return err
	}
	return writeFile(path, b)
}

// SaveMetrics records evaluation results next to the model.
func SaveMetrics(path string, v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return writeFile(path, b)
}

func exists(name, path, hint string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &track.ArtifactError{Name: name, Path: path, Hint: hint, Err: track.ErrMissingArtifact}
		}
		return &track.ArtifactError{Name: name, Path: path, Hint: hint, Err: err}
	}
	return nil
}

func loadGob(name, path string, v any) error {
	if err := exists(name, path, hintTrain); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return &track.ArtifactError{Name: name, Path: path, Hint: hintTrain, Err: err}
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return &track.ArtifactError{Name: name, Path: path, Hint: hintTrain, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func saveGob(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("artifact: encode %s: %w", path, err)
	}
	return f.Close()
}

func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Hint returns the remediation hint carried by err, if any.
func Hint(err error) string {
	var ae *track.ArtifactError
	if errors.As(err, &ae) {
		return ae.Hint
	}
	return ""
}

// MissingHint suggests a fix when catalog columns are absent from the dataset.
func (b *Bundle) MissingHint() string {
	if len(b.MissingColumns) == 0 {
		return ""
	}
	return hintRegen
}
