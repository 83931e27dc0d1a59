package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/insight"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/predict"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	r := track.NewRecord(
		track.Field{Name: "energy", Value: track.FloatValue(0.7)},
		track.Field{Name: "tempo_cat", Value: track.CategoryValue("fast")},
		track.Field{Name: "key", Value: track.IntValue(7)},
		track.Field{Name: "label_grouped", Value: track.CategoryValue("Other")},
	)
	id1, err := s.RecordPrediction(ctx, r, predict.Prediction{Raw: 85, Score: 85, Tier: predict.TierHit})
	require.NoError(t, err)
	assert.NotEmpty(t, id1)

	sum := insight.Summary{Count: 10, Mean: 62.5, Hits: 2}
	id2, err := s.RecordBatch(ctx, sum, 1)
	require.NoError(t, err)

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	batch := entries[0]
	assert.Equal(t, id2, batch.ID)
	assert.Equal(t, KindBatch, batch.Kind)
	assert.Equal(t, 62.5, batch.Score)
	assert.Equal(t, predict.TierGood, batch.Tier)
	assert.Equal(t, 10, batch.Count)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, 2, batch.Hits)
	assert.Nil(t, batch.Features)

	single := entries[1]
	assert.Equal(t, id1, single.ID)
	assert.Equal(t, KindSingle, single.Kind)
	assert.Equal(t, 1, single.Hits)
	assert.Equal(t, map[string]any{
		"energy":        0.7,
		"tempo_cat":     "fast",
		"key":           7.0,
		"label_grouped": "Other",
	}, single.Features, "categorical fields are kept in the snapshot")
	assert.True(t, single.CreatedAt.Before(batch.CreatedAt))
}

func TestStore_RecentLimit(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.RecordBatch(ctx, insight.Summary{Count: i + 1}, 0)
		require.NoError(t, err)
	}

	entries, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 5, entries[0].Count)

	_, err = s.Recent(ctx, 0)
	assert.ErrorIs(t, err, track.ErrInvalidInput)
}

func TestStore_Empty(t *testing.T) {
	entries, err := newStore(t).Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
