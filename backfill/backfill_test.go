package backfill

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltspace/moltspace/ai/mock"
	"github.com/moltspace/moltspace/storage/sqlite"
)

func testConfig() *Config {
	return &Config{
		BatchSize:      5,
		Workers:        2,
		ReportInterval: 5,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
		OnlyMissing:    true,
	}
}

func TestBackfillerEmbedsMissingPosts(t *testing.T) {
	store := seedPosts(t, 25)
	ctx := context.Background()

	var out bytes.Buffer
	backfiller, err := NewBackfiller(store, mock.NewEmbedder(), testConfig(), &out)
	require.NoError(t, err)

	require.NoError(t, backfiller.Run(ctx))

	remaining, err := store.CountPosts(ctx, true)
	require.NoError(t, err)
	assert.Zero(t, remaining)
	assert.Contains(t, out.String(), "Backfill complete")
}

func TestBackfillerNothingToDo(t *testing.T) {
	store, err := sqlite.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var out bytes.Buffer
	backfiller, err := NewBackfiller(store, mock.NewEmbedder(), testConfig(), &out)
	require.NoError(t, err)

	require.NoError(t, backfiller.Run(context.Background()))
	assert.Contains(t, out.String(), "No posts to embed")
}

func TestBackfillerReportsFailedBatches(t *testing.T) {
	store := seedPosts(t, 25)

	embedder := mock.NewEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("provider down")
	}

	var out bytes.Buffer
	backfiller, err := NewBackfiller(store, embedder, testConfig(), &out)
	require.NoError(t, err)

	err = backfiller.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed batches")
}

func TestNewBackfillerValidation(t *testing.T) {
	store, err := sqlite.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var out bytes.Buffer
	_, err = NewBackfiller(nil, mock.NewEmbedder(), nil, &out)
	assert.ErrorIs(t, err, ErrPostRepositoryRequired)

	_, err = NewBackfiller(store, nil, nil, &out)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}
