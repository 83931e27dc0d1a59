// Package history records predictions and generated batches in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/insight"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/predict"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// Kind tells single predictions and batches apart.
type Kind string

const (
	KindSingle Kind = "single"
	KindBatch  Kind = "batch"
)

// Entry is one history row. For batches Score is the mean score.
type Entry struct {
	ID        string
	Kind      Kind
	Score     float64
	Tier      predict.Tier
	Count     int
	Failed    int
	Hits      int
	Features  map[string]any // numbers as float64, categories as string
	CreatedAt time.Time
}

// Store persists history entries.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewStore opens the database at path and runs the schema migration.
// Use ":memory:" for an ephemeral store.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// each connection to :memory: is its own database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{db: db, logger: logger, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		score REAL NOT NULL,
		tier TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 1,
		failed INTEGER NOT NULL DEFAULT 0,
		hits INTEGER NOT NULL DEFAULT 0,
		features TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
	`
	_, err := s.db.Exec(query)
	return err
}

// RecordPrediction stores a single prediction together with the aligned
// record it was made from.
func (s *Store) RecordPrediction(ctx context.Context, r track.Record, p predict.Prediction) (string, error) {
	feats := make(map[string]any, r.Len())
	for _, f := range r.Fields() {
		if f.Value.IsNumeric() {
			feats[f.Name] = f.Value.Num
		} else {
			feats[f.Name] = f.Value.Str
		}
	}
	hits := 0
	if p.Tier == predict.TierHit {
		hits = 1
	}
	return s.insert(ctx, Entry{Kind: KindSingle, Score: p.Score, Tier: p.Tier, Count: 1, Hits: hits, Features: feats})
}

// RecordBatch stores the summary of a generated batch.
func (s *Store) RecordBatch(ctx context.Context, sum insight.Summary, failed int) (string, error) {
	return s.insert(ctx, Entry{
		Kind:   KindBatch,
		Score:  sum.Mean,
		Tier:   predict.TierOf(sum.Mean),
		Count:  sum.Count,
		Failed: failed,
		Hits:   sum.Hits,
	})
}

func (s *Store) insert(ctx context.Context, e Entry) (string, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()

	var features sql.NullString
	if len(e.Features) > 0 {
		b, err := json.Marshal(e.Features)
		if err != nil {
			return "", fmt.Errorf("failed to encode features: %w", err)
		}
		features = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO predictions (id, kind, score, tier, count, failed, hits, features, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.Score, string(e.Tier), e.Count, e.Failed, e.Hits, features, e.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert history entry: %w", err)
	}
	s.logger.Debug("history entry recorded", zap.String("id", e.ID), zap.String("kind", string(e.Kind)))
	return e.ID, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive, got %d: %w", limit, track.ErrInvalidInput)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, score, tier, count, failed, hits, features, created_at
		FROM predictions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			kind     string
			tier     string
			features sql.NullString
		)
		if err := rows.Scan(&e.ID, &kind, &e.Score, &tier, &e.Count, &e.Failed, &e.Hits, &features, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Kind, e.Tier = Kind(kind), predict.Tier(tier)
		if features.Valid {
			if err := json.Unmarshal([]byte(features.String), &e.Features); err != nil {
				return nil, fmt.Errorf("failed to decode features: %w", err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return out, nil
}
