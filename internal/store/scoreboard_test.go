package store

import (
	"context"
	"testing"
	"time"

	"github.com/scoredeck/scoredeck-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateScoreboard(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	sb := &domain.Scoreboard{
		Syncable: domain.Syncable{ID: "sb-test123"},
		Name:     "Weekly Speedruns",
		Slug:     "weekly-speedruns",
		AuthorID: "user-author",
	}

	err := store.CreateScoreboard(ctx, sb)
	require.NoError(t, err)

	// Timestamps are assigned by the store
	assert.False(t, sb.CreatedAt.IsZero())
	assert.Equal(t, sb.CreatedAt, sb.UpdatedAt)

	retrieved, err := store.GetScoreboard(ctx, sb.ID)
	require.NoError(t, err)
	assert.Equal(t, sb.ID, retrieved.ID)
	assert.Equal(t, sb.Name, retrieved.Name)
	assert.Equal(t, sb.Slug, retrieved.Slug)
	assert.Equal(t, sb.AuthorID, retrieved.AuthorID)
}

func TestCreateScoreboard_DuplicateID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	sb := &domain.Scoreboard{
		Syncable: domain.Syncable{ID: "sb-test123"},
		Name:     "Weekly Speedruns",
		AuthorID: "user-author",
	}
	require.NoError(t, store.CreateScoreboard(ctx, sb))

	sb2 := &domain.Scoreboard{
		Syncable: domain.Syncable{ID: "sb-test123"},
		Name:     "Different Board",
		AuthorID: "user-other",
	}
	err := store.CreateScoreboard(ctx, sb2)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrScoreboardExists)
}

func TestGetScoreboard_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.GetScoreboard(ctx, "sb-nonexistent")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrScoreboardNotFound)
}

func TestGetScoreboard_ReturnsTombstone(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	sb := &domain.Scoreboard{
		Syncable: domain.Syncable{ID: "sb-test123"},
		Name:     "Weekly Speedruns",
		AuthorID: "user-author",
	}
	require.NoError(t, store.CreateScoreboard(ctx, sb))
	require.NoError(t, store.SoftDeleteScoreboard(ctx, sb.ID))

	// A tombstoned scoreboard is still readable until the sweep purges it
	retrieved, err := store.GetScoreboard(ctx, sb.ID)
	require.NoError(t, err)
	assert.True(t, retrieved.IsDeleted())
	assert.NotNil(t, retrieved.DeletedAt)
	assert.Equal(t, sb.Name, retrieved.Name)
}

func TestUpdateScoreboard(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	sb := &domain.Scoreboard{
		Syncable: domain.Syncable{ID: "sb-test123"},
		Name:     "Weekly Speedruns",
		AuthorID: "user-author",
	}
	require.NoError(t, store.CreateScoreboard(ctx, sb))

	// Wait a moment to ensure UpdatedAt will be different
	time.Sleep(10 * time.Millisecond)

	sb.Name = "Monthly Speedruns"
	require.NoError(t, store.UpdateScoreboard(ctx, sb))

	updated, err := store.GetScoreboard(ctx, sb.ID)
	require.NoError(t, err)
	assert.Equal(t, "Monthly Speedruns", updated.Name)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
}

func TestUpdateScoreboard_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	sb := &domain.Scoreboard{
		Syncable: domain.Syncable{ID: "sb-nonexistent"},
		Name:     "Ghost Board",
		AuthorID: "user-author",
	}
	err := store.UpdateScoreboard(ctx, sb)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrScoreboardNotFound)
}

func TestSoftDeleteScoreboard_Idempotent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	sb := &domain.Scoreboard{
		Syncable: domain.Syncable{ID: "sb-test123"},
		Name:     "Weekly Speedruns",
		AuthorID: "user-author",
	}
	require.NoError(t, store.CreateScoreboard(ctx, sb))

	require.NoError(t, store.SoftDeleteScoreboard(ctx, sb.ID))

	first, err := store.GetScoreboard(ctx, sb.ID)
	require.NoError(t, err)
	require.NotNil(t, first.DeletedAt)

	time.Sleep(10 * time.Millisecond)

	// Repeat delete succeeds and leaves the original tombstone untouched
	require.NoError(t, store.SoftDeleteScoreboard(ctx, sb.ID))

	second, err := store.GetScoreboard(ctx, sb.ID)
	require.NoError(t, err)
	require.NotNil(t, second.DeletedAt)
	assert.True(t, first.DeletedAt.Equal(*second.DeletedAt))
}

func TestSoftDeleteScoreboard_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	err := store.SoftDeleteScoreboard(ctx, "sb-nonexistent")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrScoreboardNotFound)
}

func TestListScoreboards_SkipsDeleted(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	live := &domain.Scoreboard{
		Syncable: domain.Syncable{ID: "sb-live"},
		Name:     "Live Board",
		AuthorID: "user-author",
	}
	deleted := &domain.Scoreboard{
		Syncable: domain.Syncable{ID: "sb-deleted"},
		Name:     "Deleted Board",
		AuthorID: "user-author",
	}
	require.NoError(t, store.CreateScoreboard(ctx, live))
	require.NoError(t, store.CreateScoreboard(ctx, deleted))
	require.NoError(t, store.SoftDeleteScoreboard(ctx, deleted.ID))

	boards, err := store.ListScoreboards(ctx)
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, "sb-live", boards[0].ID)
}

func TestGetScoreboardsByIDs(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	for _, id := range []string{"sb-a", "sb-b", "sb-c"} {
		sb := &domain.Scoreboard{
			Syncable: domain.Syncable{ID: id},
			Name:     "Board " + id,
			AuthorID: "user-author",
		}
		require.NoError(t, store.CreateScoreboard(ctx, sb))
	}

	// Input order is preserved, absent ids are skipped
	boards, err := store.GetScoreboardsByIDs(ctx, []string{"sb-c", "sb-missing", "sb-a"})
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, "sb-c", boards[0].ID)
	assert.Equal(t, "sb-a", boards[1].ID)
}
