// Package regen backfills engineered catalog columns missing from a dataset
// CSV and rewrites the file in place, keeping a backup of the original.
package regen

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/align"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/artifact"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/data"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/pipeline"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// Report describes a regeneration run.
type Report struct {
	Rows         int
	Columns      int
	Missing      []string // catalog columns absent before the run
	Created      []string // derived by a rule
	StillMissing []string // zero-filled
	Backup       string
	Smoke        *Smoke // nil when no preprocessor was available
}

// Smoke is the result of transforming the first rewritten row.
type Smoke struct {
	InputFeatures  int
	OutputFeatures int
	Err            error
}

// BackupPath returns "<dir>/<name>_BACKUP.csv" for "<dir>/<name>.csv".
func BackupPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_BACKUP" + ext
}

// Run regenerates the dataset at paths.Dataset against the catalog at
// paths.Catalog. The preprocessor, when present, is smoke-tested on the
// first row of the result.
func Run(paths artifact.Paths, opts align.Options, logger *zap.Logger) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ds, err := artifact.LoadDataset(paths.Dataset)
	if err != nil {
		return nil, err
	}
	catalog, err := artifact.LoadCatalog(paths.Catalog)
	if err != nil {
		return nil, err
	}

	rep := &Report{Missing: catalog.Missing(ds.Names())}
	out := ds
	if len(rep.Missing) > 0 {
		out, rep.Created, rep.StillMissing = Backfill(ds, catalog, align.NewEngine(ds.Stats(), opts))
		for _, c := range rep.Created {
			logger.Info("column created", zap.String("column", c))
		}
		for _, c := range rep.StillMissing {
			logger.Warn("column zero-filled", zap.String("column", c))
		}
	} else {
		logger.Info("all catalog columns already present")
	}
	rep.Rows, rep.Columns = out.Len(), len(out.Names())

	rep.Backup = BackupPath(paths.Dataset)
	if err := copyFile(paths.Dataset, rep.Backup); err != nil {
		return nil, fmt.Errorf("regen: backup: %w", err)
	}
	if err := out.WriteCSV(paths.Dataset); err != nil {
		return nil, fmt.Errorf("regen: write dataset: %w", err)
	}
	logger.Info("dataset saved",
		zap.String("path", paths.Dataset),
		zap.String("backup", rep.Backup),
		zap.Int("rows", rep.Rows),
		zap.Int("columns", rep.Columns))

	pre, err := artifact.LoadPreprocessor(paths.Preprocessor)
	switch {
	case errors.Is(err, track.ErrMissingArtifact):
		logger.Warn("smoke test skipped", zap.Error(err))
	case err != nil:
		return nil, err
	default:
		rep.Smoke = SmokeTest(pre, out, catalog)
	}
	return rep, nil
}

// Backfill derives the missing catalog columns and zero-fills the ones no
// rule can produce. Each derived column uses a single formula, chosen from
// the columns the dataset has; rows lacking that formula's inputs are left
// null. Columns already in the dataset are left untouched, null cells
// included.
func Backfill(ds *data.Dataset, catalog track.Catalog, engine *align.Engine) (*data.Dataset, []string, []string) {
	missing := catalog.Missing(ds.Names())
	plan := engine.ColumnRules(ds.Names())
	planned := make(map[string]bool, len(plan))
	for _, rl := range plan {
		planned[rl.Output] = true
	}

	rows := ds.Rows()
	for i, r := range rows {
		derived := r.Clone()
		engine.Apply(&derived, plan)
		for _, name := range missing {
			if v, ok := derived.Get(name); ok {
				rows[i].Set(name, v)
			}
		}
	}

	var created, still []string
	for _, name := range missing {
		if planned[name] {
			created = append(created, name)
			continue
		}
		still = append(still, name)
		for i := range rows {
			rows[i].Set(name, track.IntValue(0))
		}
	}
	names := append(ds.Names(), missing...)
	return data.FromRecords(rows, names...), created, still
}

// SmokeTest transforms the first row of ds projected to the catalog.
func SmokeTest(t pipeline.Transformer, ds *data.Dataset, catalog track.Catalog) *Smoke {
	s := &Smoke{InputFeatures: len(catalog)}
	if ds.Len() == 0 {
		s.Err = errors.New("dataset is empty")
		return s
	}
	X, err := t.Transform([]track.Record{ds.Row(0).Project(catalog)})
	if err != nil {
		s.Err = err
		return s
	}
	_, s.OutputFeatures = X.Dims()
	return s
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
