package interviews

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepoEvictsOldest(t *testing.T) {
	repo := NewMemoryRepo(2)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, Run{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	_, err := repo.Get(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)

	runs, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
}

func TestMemoryRepoSaveReplacesInPlace(t *testing.T) {
	repo := NewMemoryRepo(2)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, Run{ID: "a", Stage: StageGeneration}))
	require.NoError(t, repo.Save(ctx, Run{ID: "b"}))
	require.NoError(t, repo.Save(ctx, Run{ID: "a", Stage: StageCompleted}))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, StageCompleted, got.Stage)
	_, err = repo.Get(ctx, "b")
	require.NoError(t, err)
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	repo := NewMemoryRepo(0)
	ctx := context.Background()
	run := Run{ID: "a", Banners: []Banner{{Level: LevelInfo, Message: "original"}}}
	require.NoError(t, repo.Save(ctx, run))
	run.Banners[0].Message = "mutated"

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Banners[0].Message)
}

func TestMemoryRepoListLimit(t *testing.T) {
	repo := NewMemoryRepo(10)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, Run{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	runs, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "c", runs[0].ID)
}

func TestMemoryRepoHonoursCancelledContext(t *testing.T) {
	repo := NewMemoryRepo(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, repo.Save(ctx, Run{ID: "a"}), context.Canceled)
}
