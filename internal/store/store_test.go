package store

import (
	"context"
	"testing"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", true, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ranked(id, title string, score float64, rank int) models.ScoredJob {
	return models.ScoredJob{
		RawJob: models.RawJob{
			ID:     id,
			Title:  title,
			URL:    "https://example.com/" + id,
			Source: models.SourceIndeed,
		},
		Score: score,
		Rank:  rank,
	}
}

func TestSaveAndGet(t *testing.T) {
	s := openMemory(t)
	require.NoError(t, s.Save(context.Background(), "go engineer", []models.ScoredJob{ranked("a", "Go Engineer", 88.5, 1)}))

	record, err := s.Get("a")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Go Engineer", record.Title)
	assert.Equal(t, 88.5, record.Score)
	assert.Equal(t, "go engineer", record.Query)
	assert.False(t, record.SavedAt.IsZero())

	missing, err := s.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRecentNewestFirst(t *testing.T) {
	s := openMemory(t)
	clock := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "go", []models.ScoredJob{ranked("a", "A", 90, 1), ranked("b", "B", 80, 2)}))
	clock = clock.Add(time.Minute)
	require.NoError(t, s.Save(ctx, "go", []models.ScoredJob{ranked("c", "C", 70, 1)}))

	records, err := s.Recent(10)
	require.NoError(t, err)
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	limited, err := s.Recent(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := s.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveReplacesExisting(t *testing.T) {
	s := openMemory(t)
	clock := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "go", []models.ScoredJob{ranked("a", "A", 50, 1), ranked("b", "B", 40, 2)}))
	clock = clock.Add(time.Minute)
	require.NoError(t, s.Save(ctx, "go", []models.ScoredJob{ranked("b", "B", 95, 1)}))

	records, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].ID)
	assert.Equal(t, 95.0, records[0].Score)
	assert.Equal(t, "a", records[1].ID)
}

func TestSaveHonoursCancellation(t *testing.T) {
	s := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Save(ctx, "go", []models.ScoredJob{ranked("a", "A", 50, 1)})
	require.ErrorIs(t, err, context.Canceled)

	record, err := s.Get("a")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, false, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "go", []models.ScoredJob{ranked("a", "A", 50, 1)}))
	require.NoError(t, s.Close())

	reopened, err := Open(dir, false, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()
	record, err := reopened.Get("a")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "A", record.Title)
}
